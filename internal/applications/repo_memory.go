package applications

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

func (r *MemoryRepo) Get(ctx context.Context, companyID, applicationID string) (domain.Application, error) {
	var out domain.Application
	err := r.Store.Read(ctx, func(t *memdb.Tables) error {
		app, _, ok := t.ApplicationInCompany(companyID, applicationID)
		if !ok {
			return workflow.ErrNotFound
		}
		out = app
		return nil
	})
	return out, err
}

func (r *MemoryRepo) GetForCandidate(ctx context.Context, candidateID, applicationID string) (domain.Application, error) {
	var out domain.Application
	err := r.Store.Read(ctx, func(t *memdb.Tables) error {
		app, _, ok := t.ApplicationOfCandidate(candidateID, applicationID)
		if !ok {
			return workflow.ErrNotFound
		}
		out = app
		return nil
	})
	return out, err
}

func (r *MemoryRepo) ListByJob(ctx context.Context, companyID, jobID string, f ListFilter) ([]domain.Application, error) {
	return r.list(ctx, f, func(t *memdb.Tables, app domain.Application) bool {
		if app.JobID != jobID {
			return false
		}
		_, ok := t.JobInCompany(companyID, jobID)
		return ok
	})
}

func (r *MemoryRepo) ListByCandidate(ctx context.Context, candidateID string, f ListFilter) ([]domain.Application, error) {
	return r.list(ctx, f, func(_ *memdb.Tables, app domain.Application) bool {
		return app.CandidateID == candidateID
	})
}

func (r *MemoryRepo) list(ctx context.Context, f ListFilter, keep func(*memdb.Tables, domain.Application) bool) ([]domain.Application, error) {
	var out []domain.Application
	err := r.Store.Read(ctx, func(t *memdb.Tables) error {
		for _, app := range t.Applications {
			if !keep(t, app) {
				continue
			}
			if f.Status != "" && app.Status != f.Status {
				continue
			}
			app.CompanyID = t.Jobs[app.JobID].CompanyID
			out = append(out, app)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AppliedAt.Equal(out[j].AppliedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].AppliedAt.After(out[j].AppliedAt)
	})
	if f.Offset >= len(out) {
		return nil, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *MemoryRepo) Move(ctx context.Context, companyID, applicationID string, m Move) (int64, error) {
	var n int64
	err := r.Store.Tx(ctx, func(t *memdb.Tables) error {
		n = moveApplication(t, r.Store, companyID, applicationID, m)
		return nil
	})
	return n, err
}

func (r *MemoryRepo) CloseJob(ctx context.Context, jobID string, from []domain.JobStatus) (int64, error) {
	var n int64
	err := r.Store.Tx(ctx, func(t *memdb.Tables) error {
		n = closeJob(t, r.Store, jobID, from)
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

func (m *memTx) LockJob(_ context.Context, jobID string) (domain.Job, error) {
	job, ok := m.t.Jobs[jobID]
	if !ok {
		return domain.Job{}, workflow.ErrNotFound
	}
	return job, nil
}

func (m *memTx) HasApplied(_ context.Context, jobID, candidateID string) (bool, error) {
	for _, app := range m.t.Applications {
		if app.JobID == jobID && app.CandidateID == candidateID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memTx) Insert(ctx context.Context, app domain.Application) (domain.Application, error) {
	if dup, _ := m.HasApplied(ctx, app.JobID, app.CandidateID); dup {
		return domain.Application{}, workflow.Conflict("candidate already applied to this job")
	}
	now := m.store.Now()
	app.AppliedAt = now
	app.UpdatedAt = now
	stored := app
	stored.CompanyID = ""
	m.t.Applications[app.ID] = stored
	return app, nil
}

func (m *memTx) LockForHire(_ context.Context, companyID, applicationID string) (domain.Application, domain.Job, error) {
	app, job, ok := m.t.ApplicationInCompany(companyID, applicationID)
	if !ok {
		return domain.Application{}, domain.Job{}, workflow.ErrNotFound
	}
	return app, job, nil
}

func (m *memTx) Move(_ context.Context, companyID, applicationID string, mv Move) (int64, error) {
	return moveApplication(m.t, m.store, companyID, applicationID, mv), nil
}

func (m *memTx) TakeSeat(_ context.Context, jobID string) (int, bool, error) {
	job, ok := m.t.Jobs[jobID]
	if !ok || job.PositionsCount <= 0 {
		return 0, false, nil
	}
	job.PositionsCount--
	job.UpdatedAt = m.store.Now()
	m.t.Jobs[jobID] = job
	return job.PositionsCount, true, nil
}

func (m *memTx) CloseJob(_ context.Context, jobID string, from []domain.JobStatus) (int64, error) {
	return closeJob(m.t, m.store, jobID, from), nil
}

func moveApplication(t *memdb.Tables, store *memdb.Store, companyID, applicationID string, m Move) int64 {
	if _, _, ok := t.ApplicationInCompany(companyID, applicationID); !ok {
		return 0
	}
	app := t.Applications[applicationID]
	if !memdb.StatusIn(app.Status, m.From) {
		return 0
	}
	now := store.Now()
	app.Status = m.To
	app.UpdatedAt = now
	switch m.Stamp {
	case StampScreening:
		app.ScreeningDecisionAt = &now
	case StampFinal:
		app.FinalDecisionAt = &now
	}
	if m.StageID != nil {
		app.CurrentStageID = *m.StageID
	}
	t.Applications[applicationID] = app
	return 1
}

func closeJob(t *memdb.Tables, store *memdb.Store, jobID string, from []domain.JobStatus) int64 {
	job, ok := t.Jobs[jobID]
	if !ok || !memdb.StatusIn(job.Status, from) {
		return 0
	}
	now := store.Now()
	job.Status = domain.JobClosed
	job.ClosedAt = &now
	job.UpdatedAt = now
	t.Jobs[jobID] = job
	return 1
}
