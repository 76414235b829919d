package members

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"recruit-backend/internal/domain"
	"recruit-backend/internal/workflow"
)

// Service answers membership questions for the lifecycle managers.
type Service struct {
	Repo Repo
}

// NewService constructs a membership service.
func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// RequireActive returns the membership of userID in companyID when it is
// active and holds one of roles. Anything else is a validation error on field.
func (s *Service) RequireActive(ctx context.Context, field, companyID, userID string, roles ...domain.Role) (domain.Member, error) {
	if strings.TrimSpace(userID) == "" {
		return domain.Member{}, workflow.Invalid(field, "is required")
	}
	m, err := s.Repo.Get(ctx, companyID, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return domain.Member{}, workflow.Invalid(field, "is not a member of this company")
		}
		return domain.Member{}, fmt.Errorf("lookup member: %w", err)
	}
	if !m.Active {
		return domain.Member{}, workflow.Invalid(field, "membership is inactive")
	}
	for _, r := range roles {
		if m.Role == r {
			return m, nil
		}
	}
	return domain.Member{}, workflow.Invalid(field, "must have role %s", joinRoles(roles))
}

func joinRoles(roles []domain.Role) string {
	parts := make([]string, len(roles))
	for i, r := range roles {
		parts[i] = string(r)
	}
	return strings.Join(parts, " or ")
}
