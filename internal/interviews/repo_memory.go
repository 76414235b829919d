package interviews

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

func (r *MemoryRepo) Get(ctx context.Context, companyID, interviewID string) (domain.Interview, error) {
	var out domain.Interview
	err := r.Store.Read(ctx, func(t *memdb.Tables) error {
		iv, _, ok := t.InterviewInCompany(companyID, interviewID)
		if !ok {
			return workflow.ErrNotFound
		}
		out = iv
		return nil
	})
	return out, err
}

func (r *MemoryRepo) GetScorecard(ctx context.Context, companyID, scorecardID string) (domain.Scorecard, error) {
	var out domain.Scorecard
	err := r.Store.Read(ctx, func(t *memdb.Tables) error {
		sc, ok := t.Scorecards[scorecardID]
		if !ok {
			return workflow.ErrNotFound
		}
		if _, _, ok := t.InterviewInCompany(companyID, sc.InterviewID); !ok {
			return workflow.ErrNotFound
		}
		out = cloneScorecard(sc)
		return nil
	})
	return out, err
}

func (r *MemoryRepo) ListScorecards(ctx context.Context, companyID, interviewID string) ([]domain.Scorecard, error) {
	var out []domain.Scorecard
	err := r.Store.Read(ctx, func(t *memdb.Tables) error {
		if _, _, ok := t.InterviewInCompany(companyID, interviewID); !ok {
			return nil
		}
		for _, sc := range t.Scorecards {
			if sc.InterviewID == interviewID {
				out = append(out, cloneScorecard(sc))
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

func (r *MemoryRepo) Update(ctx context.Context, companyID, interviewID string, from []domain.InterviewStatus, p Patch) (int64, error) {
	var n int64
	err := r.Store.Tx(ctx, func(t *memdb.Tables) error {
		iv, _, ok := t.InterviewInCompany(companyID, interviewID)
		if !ok || !memdb.StatusIn(iv.Status, from) {
			return nil
		}
		if p.ScheduledAt != nil {
			iv.ScheduledAt = p.ScheduledAt.UTC()
		}
		if p.DurationMinutes != nil {
			iv.DurationMinutes = *p.DurationMinutes
		}
		if p.Notes != nil {
			iv.Notes = *p.Notes
		}
		if p.MeetingLink != nil {
			iv.MeetingLink = *p.MeetingLink
		}
		iv.UpdatedAt = r.Store.Now()
		t.Interviews[iv.ID] = iv
		n = 1
		return nil
	})
	return n, err
}

func (r *MemoryRepo) Move(ctx context.Context, companyID, interviewID string, m Move) (int64, error) {
	var n int64
	err := r.Store.Tx(ctx, func(t *memdb.Tables) error {
		iv, _, ok := t.InterviewInCompany(companyID, interviewID)
		if !ok || !memdb.StatusIn(iv.Status, m.From) {
			return nil
		}
		iv.Status = m.To
		iv.UpdatedAt = r.Store.Now()
		t.Interviews[iv.ID] = iv
		n = 1
		return nil
	})
	return n, err
}

func (r *MemoryRepo) InsertScorecard(ctx context.Context, companyID string, in NewScorecard) (domain.Scorecard, error) {
	var out domain.Scorecard
	err := r.Store.Tx(ctx, func(t *memdb.Tables) error {
		sc := in.Scorecard
		iv, _, ok := t.InterviewInCompany(companyID, sc.InterviewID)
		if !ok || iv.InterviewerID != sc.InterviewerID || !memdb.StatusIn(iv.Status, in.InterviewFrom) {
			return workflow.ErrNotFound
		}
		now := r.Store.Now()
		sc.IsFinal = false
		sc.FinalizedAt = nil
		sc.CreatedAt = now
		sc = cloneScorecard(sc)
		t.Scorecards[sc.ID] = sc
		out = cloneScorecard(sc)
		return nil
	})
	return out, err
}

func (r *MemoryRepo) Finalize(ctx context.Context, companyID, scorecardID, interviewerID string, f Finalize) (Finalized, bool, error) {
	var out Finalized
	var ok bool
	err := r.Store.Tx(ctx, func(t *memdb.Tables) error {
		sc, found := t.Scorecards[scorecardID]
		if !found || sc.IsFinal || sc.InterviewerID != interviewerID {
			return nil
		}
		iv, app, found := t.InterviewInCompany(companyID, sc.InterviewID)
		if !found || iv.InterviewerID != sc.InterviewerID || !memdb.StatusIn(iv.Status, f.InterviewFrom) {
			return nil
		}
		if !memdb.StatusIn(app.Status, f.ApplicationFrom) {
			return nil
		}

		now := r.Store.Now()
		sc.IsFinal = true
		sc.FinalizedAt = &now
		t.Scorecards[sc.ID] = sc

		iv.Status = f.InterviewTo
		iv.UpdatedAt = now
		t.Interviews[iv.ID] = iv

		stored := t.Applications[app.ID]
		stored.Status = f.ApplicationTo
		stored.OfferRecommended = memdb.StatusIn(sc.Recommendation, f.Positive)
		stored.UpdatedAt = now
		t.Applications[app.ID] = stored

		out = Finalized{InterviewID: iv.ID, ApplicationID: app.ID}
		ok = true
		return nil
	})
	return out, ok, err
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

func (m *memTx) LockApplication(_ context.Context, companyID, applicationID string) (domain.Application, error) {
	app, _, ok := m.t.ApplicationInCompany(companyID, applicationID)
	if !ok {
		return domain.Application{}, workflow.ErrNotFound
	}
	return app, nil
}

func (m *memTx) HasScheduled(_ context.Context, applicationID string) (bool, error) {
	for _, iv := range m.t.Interviews {
		if iv.ApplicationID == applicationID && iv.Status == domain.InterviewScheduled {
			return true, nil
		}
	}
	return false, nil
}

func (m *memTx) Insert(ctx context.Context, iv domain.Interview) (domain.Interview, error) {
	if busy, _ := m.HasScheduled(ctx, iv.ApplicationID); busy && iv.Status == domain.InterviewScheduled {
		return domain.Interview{}, workflow.Conflict("application already has a scheduled interview")
	}
	now := m.store.Now()
	iv.ScheduledAt = iv.ScheduledAt.UTC()
	iv.CreatedAt = now
	iv.UpdatedAt = now
	m.t.Interviews[iv.ID] = iv
	return iv, nil
}

// cloneScorecard copies the ratings map so stored rows never alias caller data.
func cloneScorecard(sc domain.Scorecard) domain.Scorecard {
	if sc.Ratings != nil {
		ratings := make(map[string]int, len(sc.Ratings))
		for k, v := range sc.Ratings {
			ratings[k] = v
		}
		sc.Ratings = ratings
	}
	return sc
}
