package applications

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"golang.org/x/sync/errgroup"

	"recruit-backend/internal/domain"
	"recruit-backend/internal/notify"
	"recruit-backend/internal/shared/storage/memdb"
	"recruit-backend/internal/workflow"
)

var (
	recruiter = domain.Actor{UserID: "rec-1", CompanyID: "co-1", Role: domain.RoleRecruiter}
	manager   = domain.Actor{UserID: "hm-1", CompanyID: "co-1", Role: domain.RoleHiringManager}
	outsider  = domain.Actor{UserID: "rec-9", CompanyID: "co-2", Role: domain.RoleRecruiter}
	candidate = domain.Actor{UserID: "cand-1", Role: domain.RoleCandidate}
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

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Name)
	}
	return out
}

func newTestService(t *testing.T) (*Service, *memdb.Store, *notify.Outbox, *recorder) {
	t.Helper()
	store := memdb.New()
	ctx := context.Background()
	if err := store.SeedCompany(ctx, domain.Company{ID: "co-1", Name: "Acme"},
		domain.Member{UserID: "rec-1", Role: domain.RoleRecruiter, Active: true},
		domain.Member{UserID: "hm-1", Role: domain.RoleHiringManager, Active: true},
	); err != nil {
		t.Fatalf("SeedCompany: %v", err)
	}
	if err := store.SeedCompany(ctx, domain.Company{ID: "co-2", Name: "Other"},
		domain.Member{UserID: "rec-9", Role: domain.RoleRecruiter, Active: true},
	); err != nil {
		t.Fatalf("SeedCompany: %v", err)
	}
	rec := &recorder{}
	outbox := notify.NewOutbox(rec, 0)
	return NewService(NewMemoryRepo(store), outbox), store, outbox, rec
}

func seedJob(t *testing.T, store *memdb.Store, id string, status domain.JobStatus, positions int) {
	t.Helper()
	err := store.SeedJob(context.Background(), domain.Job{
		ID:             id,
		CompanyID:      "co-1",
		Title:          "Engineer",
		Status:         status,
		PositionsCount: positions,
		CreatorID:      "rec-1",
	})
	if err != nil {
		t.Fatalf("SeedJob: %v", err)
	}
}

func seedApplication(t *testing.T, store *memdb.Store, id, jobID, candidateID string, status domain.ApplicationStatus) {
	t.Helper()
	err := store.SeedApplication(context.Background(), domain.Application{
		ID:          id,
		JobID:       jobID,
		CandidateID: candidateID,
		Status:      status,
	})
	if err != nil {
		t.Fatalf("SeedApplication: %v", err)
	}
}

func TestApplyCreatesApplicationAndNotifies(t *testing.T) {
	svc, store, outbox, rec := newTestService(t)
	seedJob(t, store, "job-1", domain.JobPublished, 2)

	app, err := svc.Apply(context.Background(), candidate, "job-1", "  hello  ")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if app.Status != domain.ApplicationApplied || app.CoverLetter != "hello" || app.CompanyID != "co-1" {
		t.Fatalf("unexpected application: %+v", app)
	}

	outbox.Wait()
	if got := rec.names(); len(got) != 1 || got[0] != notify.EventApplicationSubmitted {
		t.Fatalf("expected application.submitted, got %v", got)
	}
}

func TestApplyWithoutOpeningsClosesJob(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	seedJob(t, store, "job-1", domain.JobPublished, 0)

	if _, err := svc.Apply(context.Background(), candidate, "job-1", ""); !errors.Is(err, workflow.ErrNoOpenings) {
		t.Fatalf("expected no openings, got %v", err)
	}
	snap := store.Snapshot()
	if snap.Jobs["job-1"].Status != domain.JobClosed || snap.Jobs["job-1"].ClosedAt == nil {
		t.Fatalf("expected job closed, got %+v", snap.Jobs["job-1"])
	}
	if len(snap.Applications) != 0 {
		t.Fatalf("no application may be stored, got %d", len(snap.Applications))
	}

	// A second attempt still reports no openings against the closed job.
	if _, err := svc.Apply(context.Background(), candidate, "job-1", ""); !errors.Is(err, workflow.ErrNoOpenings) {
		t.Fatalf("expected no openings again, got %v", err)
	}
}

func TestApplyRejectsClosedAndDuplicate(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	ctx := context.Background()
	seedJob(t, store, "job-draft", domain.JobDraft, 1)
	seedJob(t, store, "job-open", domain.JobPublished, 1)

	if _, err := svc.Apply(ctx, candidate, "job-draft", ""); !errors.Is(err, workflow.ErrNotOpen) {
		t.Fatalf("expected not open, got %v", err)
	}
	if _, err := svc.Apply(ctx, candidate, "missing", ""); !errors.Is(err, workflow.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := svc.Apply(ctx, candidate, "job-open", ""); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if _, err := svc.Apply(ctx, candidate, "job-open", ""); !errors.Is(err, workflow.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestScreenValidatesTarget(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	ctx := context.Background()
	seedJob(t, store, "job-1", domain.JobPublished, 1)
	seedApplication(t, store, "app-1", "job-1", "cand-1", domain.ApplicationApplied)

	for _, target := range []domain.ApplicationStatus{"", domain.ApplicationHired, "maybe"} {
		if _, err := svc.Screen(ctx, recruiter, "app-1", target); !workflow.IsValidation(err) {
			t.Fatalf("target %q: expected validation error, got %v", target, err)
		}
	}

	app, err := svc.Screen(ctx, recruiter, "app-1", domain.ApplicationInterview)
	if err != nil {
		t.Fatalf("Screen: %v", err)
	}
	if app.Status != domain.ApplicationInterview || app.ScreeningDecisionAt == nil {
		t.Fatalf("unexpected screened application: %+v", app)
	}
	if _, err := svc.Screen(ctx, recruiter, "app-1", domain.ApplicationRejected); !errors.Is(err, workflow.ErrNotFound) {
		t.Fatalf("expected not found once screened, got %v", err)
	}
	if _, err := svc.Screen(ctx, outsider, "app-1", domain.ApplicationRejected); !errors.Is(err, workflow.ErrNotFound) {
		t.Fatalf("expected not found across companies, got %v", err)
	}
}

func TestMoveStageIsFree(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	ctx := context.Background()
	seedJob(t, store, "job-1", domain.JobPublished, 1)
	seedApplication(t, store, "app-1", "job-1", "cand-1", domain.ApplicationRejected)

	if _, err := svc.MoveStage(ctx, recruiter, "app-1", "archived", "s1"); !workflow.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	app, err := svc.MoveStage(ctx, recruiter, "app-1", string(domain.ApplicationScoreSubmitted), "onsite")
	if err != nil {
		t.Fatalf("MoveStage: %v", err)
	}
	if app.Status != domain.ApplicationScoreSubmitted || app.CurrentStageID != "onsite" {
		t.Fatalf("unexpected application: %+v", app)
	}
}

func TestFinalDecisionSelectAndReject(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	ctx := context.Background()
	seedJob(t, store, "job-1", domain.JobPublished, 1)
	seedApplication(t, store, "app-1", "job-1", "cand-1", domain.ApplicationScoreSubmitted)
	seedApplication(t, store, "app-2", "job-1", "cand-2", domain.ApplicationApplied)

	if _, err := svc.FinalDecision(ctx, manager, "app-1", domain.ApplicationInterview); !workflow.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	app, err := svc.FinalDecision(ctx, manager, "app-1", domain.ApplicationSelected)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if app.Status != domain.ApplicationSelected || app.FinalDecisionAt == nil {
		t.Fatalf("unexpected selected application: %+v", app)
	}
	if _, err := svc.FinalDecision(ctx, manager, "app-2", domain.ApplicationRejected); !errors.Is(err, workflow.ErrNotFound) {
		t.Fatalf("applied cannot take a final reject, got %v", err)
	}
	if _, err := svc.FinalDecision(ctx, manager, "app-1", domain.ApplicationHired); !errors.Is(err, workflow.ErrNotFound) {
		t.Fatalf("selected cannot be hired directly, got %v", err)
	}
}

func TestHireLastSeatClosesJob(t *testing.T) {
	svc, store, outbox, rec := newTestService(t)
	ctx := context.Background()
	seedJob(t, store, "job-1", domain.JobPublished, 2)
	seedApplication(t, store, "app-1", "job-1", "cand-1", domain.ApplicationOfferAccepted)
	seedApplication(t, store, "app-2", "job-1", "cand-2", domain.ApplicationOfferAccepted)

	if _, err := svc.Hire(ctx, recruiter, "app-1"); err != nil {
		t.Fatalf("first Hire: %v", err)
	}
	if got := store.Snapshot().Jobs["job-1"]; got.Status != domain.JobPublished || got.PositionsCount != 1 {
		t.Fatalf("expected one seat left on a published job, got %+v", got)
	}
	app, err := svc.FinalDecision(ctx, recruiter, "app-2", domain.ApplicationHired)
	if err != nil {
		t.Fatalf("second Hire: %v", err)
	}
	if app.Status != domain.ApplicationHired || app.FinalDecisionAt == nil {
		t.Fatalf("unexpected hired application: %+v", app)
	}
	job := store.Snapshot().Jobs["job-1"]
	if job.Status != domain.JobClosed || job.PositionsCount != 0 {
		t.Fatalf("expected closed job without seats, got %+v", job)
	}

	outbox.Wait()
	counts := map[string]int{}
	for _, name := range rec.names() {
		counts[name]++
	}
	if counts[notify.EventApplicationStatusChanged] != 2 || counts[notify.EventJobStatusChanged] != 1 {
		t.Fatalf("unexpected events: %v", counts)
	}
}

func TestHireWithoutSeatClosesJobAndFails(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	seedJob(t, store, "job-1", domain.JobPublished, 0)
	seedApplication(t, store, "app-1", "job-1", "cand-1", domain.ApplicationOfferAccepted)

	if _, err := svc.Hire(context.Background(), recruiter, "app-1"); !errors.Is(err, workflow.ErrNoOpenings) {
		t.Fatalf("expected no openings, got %v", err)
	}
	snap := store.Snapshot()
	if snap.Jobs["job-1"].Status != domain.JobClosed {
		t.Fatalf("expected job closed, got %s", snap.Jobs["job-1"].Status)
	}
	if snap.Applications["app-1"].Status != domain.ApplicationOfferAccepted {
		t.Fatalf("application must not move, got %s", snap.Applications["app-1"].Status)
	}
}

func TestConcurrentHiresTakeExactlyOneSeat(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	const n = 8
	seedJob(t, store, "job-1", domain.JobPublished, 1)
	for i := 0; i < n; i++ {
		seedApplication(t, store, fmt.Sprintf("app-%d", i), "job-1", fmt.Sprintf("cand-%d", i), domain.ApplicationOfferAccepted)
	}

	var mu sync.Mutex
	var hired, noSeat int
	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("app-%d", i)
		g.Go(func() error {
			_, err := svc.Hire(ctx, recruiter, id)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				hired++
			case errors.Is(err, workflow.ErrNoOpenings):
				noSeat++
			default:
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("unexpected hire error: %v", err)
	}
	if hired != 1 || noSeat != n-1 {
		t.Fatalf("expected 1 hired and %d without seat, got %d and %d", n-1, hired, noSeat)
	}

	snap := store.Snapshot()
	if job := snap.Jobs["job-1"]; job.Status != domain.JobClosed || job.PositionsCount != 0 {
		t.Fatalf("expected closed job without seats, got %+v", job)
	}
	count := 0
	for _, app := range snap.Applications {
		if app.Status == domain.ApplicationHired {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one hired application, got %d", count)
	}
}

func TestReadsAreScoped(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	ctx := context.Background()
	seedJob(t, store, "job-1", domain.JobPublished, 3)
	seedApplication(t, store, "app-1", "job-1", "cand-1", domain.ApplicationApplied)
	seedApplication(t, store, "app-2", "job-1", "cand-2", domain.ApplicationInterview)

	mine, err := svc.ListMine(ctx, candidate, ListFilter{})
	if err != nil {
		t.Fatalf("ListMine: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != "app-1" {
		t.Fatalf("unexpected candidate list: %+v", mine)
	}
	if _, err := svc.Get(ctx, candidate, "app-2"); !errors.Is(err, workflow.ErrNotFound) {
		t.Fatalf("candidate must not see other applications, got %v", err)
	}

	byJob, err := svc.ListByJob(ctx, recruiter, "job-1", ListFilter{Status: domain.ApplicationInterview})
	if err != nil {
		t.Fatalf("ListByJob: %v", err)
	}
	if len(byJob) != 1 || byJob[0].ID != "app-2" {
		t.Fatalf("unexpected filtered list: %+v", byJob)
	}
	foreign, err := svc.ListByJob(ctx, outsider, "job-1", ListFilter{})
	if err != nil {
		t.Fatalf("ListByJob outsider: %v", err)
	}
	if len(foreign) != 0 {
		t.Fatalf("expected nothing for another company, got %d", len(foreign))
	}
	if _, err := svc.ListByJob(ctx, recruiter, "job-1", ListFilter{Status: "unknown"}); !workflow.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
