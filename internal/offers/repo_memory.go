package offers

import (
	"context"

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

func (r *MemoryRepo) Get(ctx context.Context, scope Scope, offerID string) (domain.Offer, error) {
	var out domain.Offer
	err := r.Store.Read(ctx, func(t *memdb.Tables) error {
		offer, ok := offerInScope(t, scope, offerID)
		if !ok {
			return workflow.ErrNotFound
		}
		out = offer
		return nil
	})
	return out, err
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

func (m *memTx) LockApplication(_ context.Context, companyID, applicationID string) (Target, error) {
	app, job, ok := m.t.ApplicationInCompany(companyID, applicationID)
	if !ok {
		return Target{}, workflow.ErrNotFound
	}
	return Target{
		Application:   app,
		CompanyName:   m.t.Companies[job.CompanyID].Name,
		JobTitle:      job.Title,
		CandidateName: m.t.Users[app.CandidateID].Name,
	}, nil
}

func (m *memTx) HasLiveOffer(_ context.Context, applicationID string) (bool, error) {
	for _, o := range m.t.Offers {
		if o.ApplicationID == applicationID && o.Status.Live() {
			return true, nil
		}
	}
	return false, nil
}

func (m *memTx) Insert(ctx context.Context, offer domain.Offer) (domain.Offer, error) {
	if live, _ := m.HasLiveOffer(ctx, offer.ApplicationID); live && offer.Status.Live() {
		return domain.Offer{}, workflow.Conflict("application already has a live offer")
	}
	now := m.store.Now()
	offer.CreatedAt = now
	offer.UpdatedAt = now
	m.t.Offers[offer.ID] = offer
	return offer, nil
}

func (m *memTx) SetDocument(_ context.Context, offerID, url, key string) error {
	offer, ok := m.t.Offers[offerID]
	if !ok {
		return workflow.ErrNotFound
	}
	offer.DocumentURL = url
	offer.DocumentKey = key
	offer.UpdatedAt = m.store.Now()
	m.t.Offers[offerID] = offer
	return nil
}

func (m *memTx) Get(_ context.Context, scope Scope, offerID string) (domain.Offer, error) {
	offer, ok := offerInScope(m.t, scope, offerID)
	if !ok {
		return domain.Offer{}, workflow.ErrNotFound
	}
	return offer, nil
}

func (m *memTx) Move(_ context.Context, scope Scope, offerID string, mv Move) (int64, error) {
	offer, ok := offerInScope(m.t, scope, offerID)
	if !ok || !memdb.StatusIn(offer.Status, mv.From) {
		return 0, nil
	}
	now := m.store.Now()
	offer.Status = mv.To
	offer.UpdatedAt = now
	switch mv.Stamp {
	case StampSent:
		offer.SentAt = &now
	case StampResponded:
		offer.RespondedAt = &now
	}
	m.t.Offers[offerID] = offer
	return 1, nil
}

func (m *memTx) MoveApplication(_ context.Context, applicationID string, mv AppMove) (int64, error) {
	app, ok := m.t.Applications[applicationID]
	if !ok || !memdb.StatusIn(app.Status, mv.From) {
		return 0, nil
	}
	app.Status = mv.To
	app.UpdatedAt = m.store.Now()
	m.t.Applications[applicationID] = app
	return 1, nil
}

func offerInScope(t *memdb.Tables, scope Scope, offerID string) (domain.Offer, bool) {
	var offer domain.Offer
	var ok bool
	if scope.CompanyID != "" {
		offer, _, ok = t.OfferInCompany(scope.CompanyID, offerID)
	} else {
		offer, _, ok = t.OfferOfCandidate(scope.CandidateID, offerID)
	}
	return offer, ok
}
