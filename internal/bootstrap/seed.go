package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"recruit-backend/internal/domain"
	"recruit-backend/internal/shared/storage/memdb"
	"recruit-backend/internal/shared/telemetry"
)

// seedDevTenant loads one company into the in-memory store so a local
// server without a database has staff to act as. The format is
// "companyId=user:role,user:role".
func seedDevTenant(ctx context.Context, store *memdb.Store, raw string) error {
	company, members, err := parseTenant(raw)
	if err != nil {
		return err
	}
	if err := store.SeedCompany(ctx, company, members...); err != nil {
		return fmt.Errorf("seed dev tenant: %w", err)
	}
	telemetry.Info("bootstrap.dev_tenant_seeded", map[string]any{
		"company_id": company.ID,
		"members":    len(members),
	})
	return nil
}

func parseTenant(raw string) (domain.Company, []domain.Member, error) {
	id, list, ok := strings.Cut(strings.TrimSpace(raw), "=")
	id = strings.TrimSpace(id)
	if !ok || id == "" {
		return domain.Company{}, nil, fmt.Errorf("dev tenant %q: want companyId=user:role,...", raw)
	}
	var members []domain.Member
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		user, role, _ := strings.Cut(part, ":")
		user = strings.TrimSpace(user)
		r := domain.Role(strings.TrimSpace(role))
		if user == "" || !r.Staff() {
			return domain.Company{}, nil, fmt.Errorf("dev tenant member %q: want user:staff_role", part)
		}
		members = append(members, domain.Member{UserID: user, Role: r, Active: true})
	}
	return domain.Company{ID: id, Name: id}, members, nil
}
