package memdb

import (
	"context"

	"recruit-backend/internal/domain"
)

// SeedCompany inserts a company with its staff. Users are created as needed.
func (s *Store) SeedCompany(ctx context.Context, company domain.Company, members ...domain.Member) error {
	return s.Tx(ctx, func(t *Tables) error {
		if company.CreatedAt.IsZero() {
			company.CreatedAt = s.now()
		}
		t.Companies[company.ID] = company
		for _, m := range members {
			m.CompanyID = company.ID
			if _, ok := t.Users[m.UserID]; !ok {
				t.Users[m.UserID] = domain.User{ID: m.UserID}
			}
			t.Members[MemberKey{CompanyID: company.ID, UserID: m.UserID}] = m
		}
		return nil
	})
}

// SeedUser inserts or replaces a user.
func (s *Store) SeedUser(ctx context.Context, user domain.User) error {
	return s.Tx(ctx, func(t *Tables) error {
		t.Users[user.ID] = user
		return nil
	})
}

// SeedJob inserts a job as is, bypassing the lifecycle.
func (s *Store) SeedJob(ctx context.Context, job domain.Job) error {
	return s.Tx(ctx, func(t *Tables) error {
		now := s.now()
		if job.CreatedAt.IsZero() {
			job.CreatedAt = now
		}
		job.UpdatedAt = now
		t.Jobs[job.ID] = job
		return nil
	})
}

// SeedApplication inserts an application as is, bypassing the pipeline.
func (s *Store) SeedApplication(ctx context.Context, app domain.Application) error {
	return s.Tx(ctx, func(t *Tables) error {
		now := s.now()
		if app.AppliedAt.IsZero() {
			app.AppliedAt = now
		}
		app.UpdatedAt = now
		app.CompanyID = ""
		t.Applications[app.ID] = app
		return nil
	})
}

// Snapshot returns a copy of the tables for assertions.
func (s *Store) Snapshot() *Tables {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.clone()
}
