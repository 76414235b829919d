package members

import (
	"context"
	"database/sql"
	"errors"

	"recruit-backend/internal/domain"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Get returns one membership row.
func (r *PGRepo) Get(ctx context.Context, companyID, userID string) (domain.Member, error) {
	const query = `
SELECT company_id, user_id, role, active
FROM company_members
WHERE company_id = $1 AND user_id = $2`
	var m domain.Member
	var role string
	err := r.DB.QueryRowContext(ctx, query, companyID, userID).Scan(&m.CompanyID, &m.UserID, &role, &m.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Member{}, ErrNotFound
		}
		return domain.Member{}, err
	}
	m.Role = domain.Role(role)
	return m, nil
}
