package offers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"recruit-backend/internal/domain"
	"recruit-backend/internal/notify"
	"recruit-backend/internal/offerletter"
	"recruit-backend/internal/shared/storage/memdb"
	"recruit-backend/internal/workflow"
)

var (
	recruiter = domain.Actor{UserID: "rec-1", CompanyID: "co-1", Role: domain.RoleRecruiter}
	outsider  = domain.Actor{UserID: "rec-9", CompanyID: "co-2", Role: domain.RoleRecruiter}
	candidate = domain.Actor{UserID: "cand-1", Role: domain.RoleCandidate}
	stranger  = domain.Actor{UserID: "cand-2", Role: domain.RoleCandidate}

	today     = time.Date(2030, 1, 10, 9, 0, 0, 0, time.UTC)
	startDate = time.Date(2030, 4, 1, 0, 0, 0, 0, time.UTC)
)

type recorder struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recorder) Notify(_ context.Context, ev notify.Event) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return true
}

func (r *recorder) count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Name == name {
			n++
		}
	}
	return n
}

type fakeLetters struct {
	mu      sync.Mutex
	err     error
	last    offerletter.LetterContext
	stored  map[string]bool
	removed []string
}

func (f *fakeLetters) Generate(_ context.Context, lc offerletter.LetterContext) (offerletter.Letter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return offerletter.Letter{}, f.err
	}
	f.last = lc
	key := "offers/" + lc.OfferID + ".pdf"
	if f.stored == nil {
		f.stored = map[string]bool{}
	}
	f.stored[key] = true
	return offerletter.Letter{URL: "https://files.example.com/" + key, Key: key}, nil
}

func (f *fakeLetters) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.stored, key)
	f.removed = append(f.removed, key)
	return nil
}

func newTestService(t *testing.T) (*Service, *memdb.Store, *fakeLetters, *notify.Outbox, *recorder) {
	t.Helper()
	ctx := context.Background()
	store := memdb.New()
	if err := store.SeedCompany(ctx, domain.Company{ID: "co-1", Name: "Acme"},
		domain.Member{UserID: "rec-1", Role: domain.RoleRecruiter, Active: true},
	); err != nil {
		t.Fatalf("SeedCompany: %v", err)
	}
	if err := store.SeedCompany(ctx, domain.Company{ID: "co-2", Name: "Other"}); err != nil {
		t.Fatalf("SeedCompany: %v", err)
	}
	if err := store.SeedUser(ctx, domain.User{ID: "cand-1", Name: "Jane Doe"}); err != nil {
		t.Fatalf("SeedUser: %v", err)
	}
	if err := store.SeedJob(ctx, domain.Job{
		ID: "job-1", CompanyID: "co-1", Title: "Backend Engineer", Status: domain.JobPublished, PositionsCount: 1,
	}); err != nil {
		t.Fatalf("SeedJob: %v", err)
	}

	letters := &fakeLetters{}
	rec := &recorder{}
	outbox := notify.NewOutbox(rec, 0)
	svc := NewService(NewMemoryRepo(store), letters, outbox)
	svc.Now = func() time.Time { return today }
	return svc, store, letters, outbox, rec
}

func seedApplication(t *testing.T, store *memdb.Store, id string, status domain.ApplicationStatus) {
	t.Helper()
	if err := store.SeedApplication(context.Background(), domain.Application{
		ID: id, JobID: "job-1", CandidateID: "cand-1", Status: status,
	}); err != nil {
		t.Fatalf("SeedApplication: %v", err)
	}
}

func createInput(appID string) CreateInput {
	return CreateInput{ApplicationID: appID, BaseSalary: 150000, Currency: "usd", StartDate: startDate}
}

func createOffer(t *testing.T, svc *Service, appID string) domain.Offer {
	t.Helper()
	offer, err := svc.Create(context.Background(), recruiter, createInput(appID))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return offer
}

func TestCreateValidates(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	cases := []CreateInput{
		{BaseSalary: 1, Currency: "USD", StartDate: startDate},
		{ApplicationID: "app-1", BaseSalary: 0, Currency: "USD", StartDate: startDate},
		{ApplicationID: "app-1", BaseSalary: 1, Currency: "dollars", StartDate: startDate},
		{ApplicationID: "app-1", BaseSalary: 1, Currency: "USD"},
		{ApplicationID: "app-1", BaseSalary: 1, Currency: "USD", StartDate: today.AddDate(0, 0, -1)},
		{ApplicationID: "app-1", BaseSalary: 1, Currency: "USD", StartDate: startDate, ESignURL: "ftp://sign"},
	}
	for _, in := range cases {
		if _, err := svc.Create(context.Background(), recruiter, in); !workflow.IsValidation(err) {
			t.Fatalf("expected validation error for %+v, got %v", in, err)
		}
	}
}

func TestCreateDraftsOfferWithLetter(t *testing.T) {
	svc, store, letters, _, _ := newTestService(t)
	seedApplication(t, store, "app-1", domain.ApplicationSelected)

	offer := createOffer(t, svc, "app-1")
	if offer.Status != domain.OfferDraft || offer.Currency != "USD" {
		t.Fatalf("unexpected offer: %+v", offer)
	}
	if offer.DocumentKey == "" || offer.DocumentURL == "" {
		t.Fatalf("expected stored letter, got %+v", offer)
	}
	if letters.last.CompanyName != "Acme" || letters.last.CandidateName != "Jane Doe" || letters.last.JobTitle != "Backend Engineer" {
		t.Fatalf("letter context incomplete: %+v", letters.last)
	}
	stored := store.Snapshot().Offers[offer.ID]
	if stored.DocumentKey != offer.DocumentKey {
		t.Fatalf("document key not persisted: %+v", stored)
	}
	if got := store.Snapshot().Applications["app-1"].Status; got != domain.ApplicationSelected {
		t.Fatalf("create must not move the application, got %s", got)
	}
}

func TestCreateRequiresEligibleApplication(t *testing.T) {
	svc, store, _, _, _ := newTestService(t)
	seedApplication(t, store, "app-1", domain.ApplicationInterview)

	if _, err := svc.Create(context.Background(), recruiter, createInput("app-1")); !errors.Is(err, workflow.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := svc.Create(context.Background(), outsider, createInput("app-1")); !errors.Is(err, workflow.ErrNotFound) {
		t.Fatalf("expected not found across companies, got %v", err)
	}
	if len(store.Snapshot().Offers) != 0 {
		t.Fatalf("no offer may be created")
	}
}

func TestCreateConflictsWithLiveOffer(t *testing.T) {
	svc, store, _, _, _ := newTestService(t)
	seedApplication(t, store, "app-1", domain.ApplicationScoreSubmitted)
	createOffer(t, svc, "app-1")

	if _, err := svc.Create(context.Background(), recruiter, createInput("app-1")); !errors.Is(err, workflow.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCreateRollsBackWhenLetterFails(t *testing.T) {
	svc, store, letters, _, _ := newTestService(t)
	seedApplication(t, store, "app-1", domain.ApplicationSelected)
	boom := errors.New("renderer down")
	letters.err = boom

	if _, err := svc.Create(context.Background(), recruiter, createInput("app-1")); !errors.Is(err, boom) {
		t.Fatalf("expected renderer error, got %v", err)
	}
	if len(store.Snapshot().Offers) != 0 {
		t.Fatalf("offer row must roll back")
	}
}

type failingSetDocument struct {
	Tx
}

func (failingSetDocument) SetDocument(context.Context, string, string, string) error {
	return errors.New("disk full")
}

type failAfterGenerate struct {
	*MemoryRepo
}

func (r failAfterGenerate) InTx(ctx context.Context, fn func(tx Tx) error) error {
	return r.MemoryRepo.InTx(ctx, func(tx Tx) error {
		return fn(failingSetDocument{Tx: tx})
	})
}

func TestCreateRemovesLetterWhenLaterStepFails(t *testing.T) {
	svc, store, letters, _, _ := newTestService(t)
	seedApplication(t, store, "app-1", domain.ApplicationSelected)
	svc.Repo = failAfterGenerate{MemoryRepo: NewMemoryRepo(store)}

	if _, err := svc.Create(context.Background(), recruiter, createInput("app-1")); err == nil {
		t.Fatalf("expected failure")
	}
	if len(letters.removed) != 1 || len(letters.stored) != 0 {
		t.Fatalf("generated letter must be removed, removed=%v stored=%v", letters.removed, letters.stored)
	}
	if len(store.Snapshot().Offers) != 0 {
		t.Fatalf("offer row must roll back")
	}
}

func TestFullOfferLifecycle(t *testing.T) {
	svc, store, _, outbox, rec := newTestService(t)
	ctx := context.Background()
	seedApplication(t, store, "app-1", domain.ApplicationSelected)
	offer := createOffer(t, svc, "app-1")

	sent, err := svc.Send(ctx, recruiter, offer.ID)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if sent.Status != domain.OfferSent || sent.SentAt == nil {
		t.Fatalf("unexpected sent offer: %+v", sent)
	}
	if got := store.Snapshot().Applications["app-1"].Status; got != domain.ApplicationOfferLetterSent {
		t.Fatalf("expected offer_letter_sent, got %s", got)
	}

	if _, err := svc.Send(ctx, recruiter, offer.ID); !errors.Is(err, workflow.ErrNotFound) {
		t.Fatalf("second send must be not found, got %v", err)
	}

	accepted, err := svc.Accept(ctx, candidate, offer.ID)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if accepted.Status != domain.OfferAccepted || accepted.RespondedAt == nil {
		t.Fatalf("unexpected accepted offer: %+v", accepted)
	}
	if got := store.Snapshot().Applications["app-1"].Status; got != domain.ApplicationOfferAccepted {
		t.Fatalf("expected %q, got %q", domain.ApplicationOfferAccepted, got)
	}

	outbox.Wait()
	if rec.count(notify.EventOfferSent) != 1 || rec.count(notify.EventOfferAccepted) != 1 {
		t.Fatalf("unexpected events: %+v", rec.events)
	}
}

func TestDeclineAfterAcceptRejectsApplication(t *testing.T) {
	svc, store, _, outbox, rec := newTestService(t)
	ctx := context.Background()
	seedApplication(t, store, "app-1", domain.ApplicationSelected)
	offer := createOffer(t, svc, "app-1")
	if _, err := svc.Send(ctx, recruiter, offer.ID); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if _, err := svc.Accept(ctx, candidate, offer.ID); err != nil {
		t.Fatalf("Accept: %v", err)
	}

	declined, err := svc.Decline(ctx, candidate, offer.ID)
	if err != nil {
		t.Fatalf("Decline: %v", err)
	}
	if declined.Status != domain.OfferDeclined {
		t.Fatalf("expected declined, got %s", declined.Status)
	}
	if got := store.Snapshot().Applications["app-1"].Status; got != domain.ApplicationRejected {
		t.Fatalf("expected rejected, got %s", got)
	}

	outbox.Wait()
	if rec.count(notify.EventOfferDeclined) != 1 {
		t.Fatalf("expected one decline event")
	}
}

func TestIneligibleResponsesLeaveStateUnchanged(t *testing.T) {
	svc, store, _, _, _ := newTestService(t)
	ctx := context.Background()
	seedApplication(t, store, "app-1", domain.ApplicationSelected)
	offer := createOffer(t, svc, "app-1")

	// Draft offers cannot be answered.
	if _, err := svc.Accept(ctx, candidate, offer.ID); !errors.Is(err, workflow.ErrNotFound) {
		t.Fatalf("accept draft: expected not found, got %v", err)
	}
	if _, err := svc.Decline(ctx, candidate, offer.ID); !errors.Is(err, workflow.ErrNotFound) {
		t.Fatalf("decline draft: expected not found, got %v", err)
	}
	snap := store.Snapshot()
	if snap.Offers[offer.ID].Status != domain.OfferDraft || snap.Applications["app-1"].Status != domain.ApplicationSelected {
		t.Fatalf("state changed: offer=%s app=%s", snap.Offers[offer.ID].Status, snap.Applications["app-1"].Status)
	}

	if _, err := svc.Send(ctx, recruiter, offer.ID); err != nil {
		t.Fatalf("Send: %v", err)
	}
	// The application left offer_letter_sent behind the offer's back.
	if err := store.Tx(ctx, func(tb *memdb.Tables) error {
		app := tb.Applications["app-1"]
		app.Status = domain.ApplicationRejected
		tb.Applications["app-1"] = app
		return nil
	}); err != nil {
		t.Fatalf("Tx: %v", err)
	}
	if _, err := svc.Accept(ctx, candidate, offer.ID); !errors.Is(err, workflow.ErrNotFound) {
		t.Fatalf("accept with rejected application: expected not found, got %v", err)
	}
	snap = store.Snapshot()
	if snap.Offers[offer.ID].Status != domain.OfferSent || snap.Offers[offer.ID].RespondedAt != nil {
		t.Fatalf("offer must roll back, got %+v", snap.Offers[offer.ID])
	}
	if snap.Applications["app-1"].Status != domain.ApplicationRejected {
		t.Fatalf("application must stay rejected")
	}

	if _, err := svc.Accept(ctx, stranger, offer.ID); !errors.Is(err, workflow.ErrNotFound) {
		t.Fatalf("other candidate: expected not found, got %v", err)
	}
}

func TestDeclinedOfferAllowsNewOffer(t *testing.T) {
	svc, store, _, _, _ := newTestService(t)
	ctx := context.Background()
	seedApplication(t, store, "app-1", domain.ApplicationSelected)
	first := createOffer(t, svc, "app-1")
	if err := store.Tx(ctx, func(tb *memdb.Tables) error {
		o := tb.Offers[first.ID]
		o.Status = domain.OfferDeclined
		tb.Offers[first.ID] = o
		return nil
	}); err != nil {
		t.Fatalf("Tx: %v", err)
	}

	second := createOffer(t, svc, "app-1")
	if second.ID == first.ID {
		t.Fatalf("expected a new offer")
	}
}

func TestOfferReadsAreScoped(t *testing.T) {
	svc, store, _, _, _ := newTestService(t)
	ctx := context.Background()
	seedApplication(t, store, "app-1", domain.ApplicationSelected)
	offer := createOffer(t, svc, "app-1")

	if _, err := svc.Get(ctx, recruiter, offer.ID); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if _, err := svc.Get(ctx, outsider, offer.ID); !errors.Is(err, workflow.ErrNotFound) {
		t.Fatalf("outsider: expected not found, got %v", err)
	}
	if _, err := svc.GetForCandidate(ctx, candidate, offer.ID); err != nil {
		t.Fatalf("GetForCandidate: %v", err)
	}
	if _, err := svc.GetForCandidate(ctx, stranger, offer.ID); !errors.Is(err, workflow.ErrNotFound) {
		t.Fatalf("stranger: expected not found, got %v", err)
	}
}
