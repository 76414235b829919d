package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"

	"recruit-backend/internal/domain"
	"recruit-backend/internal/members"
	"recruit-backend/internal/notify"
	"recruit-backend/internal/shared/storage/memdb"
	"recruit-backend/internal/workflow"
)

var (
	recruiter = domain.Actor{UserID: "rec-1", CompanyID: "co-1", Role: domain.RoleRecruiter}
	manager   = domain.Actor{UserID: "hm-1", CompanyID: "co-1", Role: domain.RoleHiringManager}
	manager2  = domain.Actor{UserID: "hm-2", CompanyID: "co-1", Role: domain.RoleHiringManager}
	outsider  = domain.Actor{UserID: "rec-9", CompanyID: "co-2", Role: domain.RoleRecruiter}
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

func newTestService(t *testing.T) (*Service, *memdb.Store, *notify.Outbox, *recorder) {
	t.Helper()
	store := memdb.New()
	ctx := context.Background()
	err := store.SeedCompany(ctx, domain.Company{ID: "co-1", Name: "Acme"},
		domain.Member{UserID: "rec-1", Role: domain.RoleRecruiter, Active: true},
		domain.Member{UserID: "hm-1", Role: domain.RoleHiringManager, Active: true},
		domain.Member{UserID: "hm-2", Role: domain.RoleHiringManager, Active: true},
		domain.Member{UserID: "hm-x", Role: domain.RoleHiringManager, Active: false},
		domain.Member{UserID: "iv-1", Role: domain.RoleInterviewer, Active: true},
	)
	if err != nil {
		t.Fatalf("SeedCompany: %v", err)
	}
	if err := store.SeedCompany(ctx, domain.Company{ID: "co-2", Name: "Other"},
		domain.Member{UserID: "rec-9", Role: domain.RoleRecruiter, Active: true},
		domain.Member{UserID: "hm-9", Role: domain.RoleHiringManager, Active: true},
	); err != nil {
		t.Fatalf("SeedCompany: %v", err)
	}

	rec := &recorder{}
	outbox := notify.NewOutbox(rec, 0)
	svc := NewService(NewMemoryRepo(store), members.NewService(members.NewMemoryRepo(store)), outbox)
	return svc, store, outbox, rec
}

func createJob(t *testing.T, svc *Service, positions int) domain.Job {
	t.Helper()
	job, err := svc.Create(context.Background(), recruiter, CreateInput{Title: " Backend Engineer ", PositionsCount: positions})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return job
}

func TestCreateValidates(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	cases := []CreateInput{
		{Title: "", PositionsCount: 1},
		{Title: "Engineer", PositionsCount: 0},
		{Title: "Engineer", PositionsCount: -2},
	}
	for _, in := range cases {
		if _, err := svc.Create(ctx, recruiter, in); !workflow.IsValidation(err) {
			t.Fatalf("expected validation error for %+v, got %v", in, err)
		}
	}

	job := createJob(t, svc, 2)
	if job.Status != domain.JobDraft || job.Title != "Backend Engineer" || job.CompanyID != "co-1" {
		t.Fatalf("unexpected job: %+v", job)
	}
}

func TestSubmitTwiceKeepsSingleApprovalResetToPending(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	ctx := context.Background()
	job := createJob(t, svc, 1)

	first, err := svc.Submit(ctx, recruiter, job.ID, "hm-1")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := svc.Reject(ctx, manager, job.ID, "needs budget"); err != nil {
		t.Fatalf("Reject: %v", err)
	}

	second, err := svc.Submit(ctx, recruiter, job.ID, "hm-1")
	if err != nil {
		t.Fatalf("second Submit: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected approval %s to be reused, got %s", first.ID, second.ID)
	}

	approvals, err := svc.ListApprovals(ctx, recruiter, job.ID)
	if err != nil {
		t.Fatalf("ListApprovals: %v", err)
	}
	if len(approvals) != 1 {
		t.Fatalf("expected one approval row, got %d", len(approvals))
	}
	a := approvals[0]
	if a.Status != domain.ApprovalPending || a.Comments != "" || a.DecidedAt != nil {
		t.Fatalf("approval not reset: %+v", a)
	}
	if got := store.Snapshot().Jobs[job.ID].Status; got != domain.JobPending {
		t.Fatalf("expected job pending, got %s", got)
	}
}

func TestSubmitRequiresActiveApprover(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	job := createJob(t, svc, 1)

	for _, approver := range []string{"", "hm-x", "iv-1", "hm-9", "nobody"} {
		if _, err := svc.Submit(ctx, recruiter, job.ID, approver); !workflow.IsValidation(err) {
			t.Fatalf("approver %q: expected validation error, got %v", approver, err)
		}
	}
}

func TestApproveByOtherApproverIsNotFound(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	ctx := context.Background()
	job := createJob(t, svc, 1)
	if _, err := svc.Submit(ctx, recruiter, job.ID, "hm-1"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if _, err := svc.Approve(ctx, manager2, job.ID, ""); !errors.Is(err, workflow.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	snap := store.Snapshot()
	if snap.Jobs[job.ID].Status != domain.JobPending {
		t.Fatalf("job must stay pending, got %s", snap.Jobs[job.ID].Status)
	}
	if len(snap.Approvals) != 1 {
		t.Fatalf("no approval may be created, got %d", len(snap.Approvals))
	}
}

func TestApprovePublishesJobAndNotifies(t *testing.T) {
	svc, _, outbox, rec := newTestService(t)
	ctx := context.Background()
	job := createJob(t, svc, 1)
	if _, err := svc.Submit(ctx, recruiter, job.ID, "hm-1"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	got, err := svc.Approve(ctx, manager, job.ID, "ok")
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if got.Status != domain.JobPublished || got.PublishedAt == nil {
		t.Fatalf("expected published job with timestamp, got %+v", got)
	}

	// Approving again finds no pending approval.
	if _, err := svc.Approve(ctx, manager, job.ID, "ok"); !errors.Is(err, workflow.ErrNotFound) {
		t.Fatalf("expected not found on second approve, got %v", err)
	}

	outbox.Wait()
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.events) != 2 {
		t.Fatalf("expected submit and approve events, got %d", len(rec.events))
	}
	published := 0
	for _, ev := range rec.events {
		if ev.Name == notify.EventJobStatusChanged && ev.EntityIDs["status"] == string(domain.JobPublished) {
			published++
		}
	}
	if published != 1 {
		t.Fatalf("expected one published event, got %+v", rec.events)
	}
}

func TestApproveRollsBackWhenJobNotPending(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	ctx := context.Background()
	job := createJob(t, svc, 1)
	if _, err := svc.Submit(ctx, recruiter, job.ID, "hm-1"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := svc.Close(ctx, recruiter, job.ID); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := svc.Approve(ctx, manager, job.ID, "late"); !errors.Is(err, workflow.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	for _, a := range store.Snapshot().Approvals {
		if a.Status != domain.ApprovalPending {
			t.Fatalf("approval update must roll back, got %s", a.Status)
		}
	}
}

func TestPublishRequiresOpenings(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	ctx := context.Background()
	if err := store.SeedJob(ctx, domain.Job{ID: "job-empty", CompanyID: "co-1", Status: domain.JobClosed, PositionsCount: 0}); err != nil {
		t.Fatalf("SeedJob: %v", err)
	}
	if _, err := svc.Publish(ctx, recruiter, "job-empty"); !errors.Is(err, workflow.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	job := createJob(t, svc, 3)
	got, err := svc.Publish(ctx, recruiter, job.ID)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if got.Status != domain.JobPublished {
		t.Fatalf("expected published, got %s", got.Status)
	}
}

func TestCloseAlreadyClosedIsNotFound(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	job := createJob(t, svc, 1)

	closed, err := svc.Close(ctx, recruiter, job.ID)
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	if closed.ClosedAt == nil {
		t.Fatalf("expected closed_at to be set")
	}
	if _, err := svc.Close(ctx, recruiter, job.ID); !errors.Is(err, workflow.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	reopened, err := svc.Publish(ctx, recruiter, job.ID)
	if err != nil {
		t.Fatalf("Publish closed job: %v", err)
	}
	if reopened.ClosedAt != nil {
		t.Fatalf("reopening must clear closed_at")
	}
}

func TestEditOnlyWhileDraftOrPending(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	job := createJob(t, svc, 1)

	title := "Staff Engineer"
	positions := 4
	got, err := svc.Edit(ctx, recruiter, job.ID, Patch{Title: &title, PositionsCount: &positions})
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if got.Title != title || got.PositionsCount != 4 {
		t.Fatalf("unexpected edit result: %+v", got)
	}

	if _, err := svc.Edit(ctx, recruiter, job.ID, Patch{}); !workflow.IsValidation(err) {
		t.Fatalf("expected validation error for empty patch, got %v", err)
	}

	if _, err := svc.Publish(ctx, recruiter, job.ID); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if _, err := svc.Edit(ctx, recruiter, job.ID, Patch{Title: &title}); !errors.Is(err, workflow.ErrNotFound) {
		t.Fatalf("expected not found after publish, got %v", err)
	}
}

func TestJobsAreCompanyScoped(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	job := createJob(t, svc, 1)

	if _, err := svc.Get(ctx, outsider, job.ID); !errors.Is(err, workflow.ErrNotFound) {
		t.Fatalf("expected not found across companies, got %v", err)
	}
	if _, err := svc.Close(ctx, outsider, job.ID); !errors.Is(err, workflow.ErrNotFound) {
		t.Fatalf("expected not found closing foreign job, got %v", err)
	}
	list, err := svc.List(ctx, outsider, ListFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected no jobs for other company, got %d", len(list))
	}
	if _, err := svc.List(ctx, recruiter, ListFilter{Status: "archived"}); !workflow.IsValidation(err) {
		t.Fatalf("expected validation error for unknown status, got %v", err)
	}
}
