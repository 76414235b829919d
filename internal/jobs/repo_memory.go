package jobs

import (
	"context"
	"sort"

	"recruit-backend/internal/domain"
	"recruit-backend/internal/shared/storage/memdb"
	"recruit-backend/internal/workflow"
)

// MemoryRepo implements Repo on the in-memory store.
type MemoryRepo struct {
	Store *memdb.Store
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo(store *memdb.Store) *MemoryRepo {
	return &MemoryRepo{Store: store}
}

func (r *MemoryRepo) Create(ctx context.Context, job domain.Job) (domain.Job, error) {
	err := r.Store.Tx(ctx, func(t *memdb.Tables) error {
		now := r.Store.Now()
		job.CreatedAt = now
		job.UpdatedAt = now
		t.Jobs[job.ID] = job
		return nil
	})
	if err != nil {
		return domain.Job{}, err
	}
	return job, nil
}

func (r *MemoryRepo) Get(ctx context.Context, companyID, jobID string) (domain.Job, error) {
	var out domain.Job
	err := r.Store.Read(ctx, func(t *memdb.Tables) error {
		job, ok := t.JobInCompany(companyID, jobID)
		if !ok {
			return workflow.ErrNotFound
		}
		out = job
		return nil
	})
	return out, err
}

func (r *MemoryRepo) List(ctx context.Context, companyID string, f ListFilter) ([]domain.Job, error) {
	var out []domain.Job
	err := r.Store.Read(ctx, func(t *memdb.Tables) error {
		for _, job := range t.Jobs {
			if job.CompanyID != companyID {
				continue
			}
			if f.Status != "" && job.Status != f.Status {
				continue
			}
			out = append(out, job)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return page(out, f.Limit, f.Offset), nil
}

func (r *MemoryRepo) ListApprovals(ctx context.Context, companyID, jobID string) ([]domain.JobApproval, error) {
	var out []domain.JobApproval
	err := r.Store.Read(ctx, func(t *memdb.Tables) error {
		if _, ok := t.JobInCompany(companyID, jobID); !ok {
			return nil
		}
		for _, a := range t.Approvals {
			if a.JobID == jobID {
				out = append(out, a)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepo) Edit(ctx context.Context, companyID, jobID string, editable []domain.JobStatus, p Patch) (int64, error) {
	var n int64
	err := r.Store.Tx(ctx, func(t *memdb.Tables) error {
		job, ok := t.JobInCompany(companyID, jobID)
		if !ok || !memdb.StatusIn(job.Status, editable) {
			return nil
		}
		if p.Title != nil {
			job.Title = *p.Title
		}
		if p.Description != nil {
			job.Description = *p.Description
		}
		if p.PositionsCount != nil {
			job.PositionsCount = *p.PositionsCount
		}
		job.UpdatedAt = r.Store.Now()
		t.Jobs[jobID] = job
		n = 1
		return nil
	})
	return n, err
}

func (r *MemoryRepo) Move(ctx context.Context, companyID, jobID string, m Move) (int64, error) {
	var n int64
	err := r.Store.Tx(ctx, func(t *memdb.Tables) error {
		n = moveJob(t, r.Store, companyID, jobID, m)
		return nil
	})
	return n, err
}

func (r *MemoryRepo) InTx(ctx context.Context, fn func(tx Tx) error) error {
	return r.Store.Tx(ctx, func(t *memdb.Tables) error {
		return fn(&memTx{t: t, store: r.Store})
	})
}

type memTx struct {
	t     *memdb.Tables
	store *memdb.Store
}

func (m *memTx) Move(_ context.Context, companyID, jobID string, mv Move) (int64, error) {
	return moveJob(m.t, m.store, companyID, jobID, mv), nil
}

func (m *memTx) LockApproval(_ context.Context, jobID, approverID string) (domain.JobApproval, error) {
	for _, a := range m.t.Approvals {
		if a.JobID == jobID && a.ApproverID == approverID {
			return a, nil
		}
	}
	return domain.JobApproval{}, workflow.ErrNotFound
}

func (m *memTx) InsertApproval(_ context.Context, a domain.JobApproval) error {
	for _, existing := range m.t.Approvals {
		if existing.JobID == a.JobID && existing.ApproverID == a.ApproverID {
			return workflow.Conflict("approval already exists for job and approver")
		}
	}
	now := m.store.Now()
	a.CreatedAt = now
	a.UpdatedAt = now
	m.t.Approvals[a.ID] = a
	return nil
}

func (m *memTx) ResetApproval(_ context.Context, approvalID string, from []domain.ApprovalStatus, to domain.ApprovalStatus) (int64, error) {
	a, ok := m.t.Approvals[approvalID]
	if !ok || !memdb.StatusIn(a.Status, from) {
		return 0, nil
	}
	a.Status = to
	a.Comments = ""
	a.DecidedAt = nil
	a.UpdatedAt = m.store.Now()
	m.t.Approvals[approvalID] = a
	return 1, nil
}

func (m *memTx) Decide(_ context.Context, companyID, jobID, approverID string, d Decision) (int64, error) {
	if _, ok := m.t.JobInCompany(companyID, jobID); !ok {
		return 0, nil
	}
	for id, a := range m.t.Approvals {
		if a.JobID != jobID || a.ApproverID != approverID || !memdb.StatusIn(a.Status, d.From) {
			continue
		}
		now := m.store.Now()
		a.Status = d.To
		a.Comments = d.Comments
		a.DecidedAt = &now
		a.UpdatedAt = now
		m.t.Approvals[id] = a
		return 1, nil
	}
	return 0, nil
}

func moveJob(t *memdb.Tables, store *memdb.Store, companyID, jobID string, m Move) int64 {
	job, ok := t.JobInCompany(companyID, jobID)
	if !ok || !memdb.StatusIn(job.Status, m.From) {
		return 0
	}
	if m.RequireOpenings && job.PositionsCount <= 0 {
		return 0
	}
	now := store.Now()
	job.Status = m.To
	job.UpdatedAt = now
	switch m.To {
	case domain.JobPublished:
		job.PublishedAt = &now
		job.ClosedAt = nil
	case domain.JobClosed:
		job.ClosedAt = &now
	}
	t.Jobs[jobID] = job
	return 1
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
