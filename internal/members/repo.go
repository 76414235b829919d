// Package members resolves company membership for role checks.
package members

import (
	"context"
	"errors"

	"recruit-backend/internal/domain"
)

var ErrNotFound = errors.New("member not found")

// Repo reads company memberships.
type Repo interface {
	Get(ctx context.Context, companyID, userID string) (domain.Member, error)
}
