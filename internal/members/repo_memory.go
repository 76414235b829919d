package members

import (
	"context"

	"recruit-backend/internal/domain"
	"recruit-backend/internal/shared/storage/memdb"
)

// MemoryRepo reads memberships from the in-memory store.
type MemoryRepo struct {
	Store *memdb.Store
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo(store *memdb.Store) *MemoryRepo {
	return &MemoryRepo{Store: store}
}

// Get returns one membership.
func (r *MemoryRepo) Get(ctx context.Context, companyID, userID string) (domain.Member, error) {
	var out domain.Member
	err := r.Store.Read(ctx, func(t *memdb.Tables) error {
		m, ok := t.Members[memdb.MemberKey{CompanyID: companyID, UserID: userID}]
		if !ok {
			return ErrNotFound
		}
		out = m
		return nil
	})
	return out, err
}
