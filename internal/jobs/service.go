package jobs

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"recruit-backend/internal/domain"
	"recruit-backend/internal/members"
	"recruit-backend/internal/notify"
	"recruit-backend/internal/shared/metrics"
	"recruit-backend/internal/shared/telemetry"
	"recruit-backend/internal/workflow"
)

const (
	maxTitleLen   = 200
	defaultLimit  = 50
	maxListLimit  = 200
	maxPositions  = 10000
	entityJob     = "job"
	entityApprove = "job_approval"
)

// CreateInput describes a new requisition.
type CreateInput struct {
	Title          string
	Description    string
	PositionsCount int
}

// Service runs the job requisition lifecycle.
type Service struct {
	Repo    Repo
	Members *members.Service
	Outbox  *notify.Outbox
	NewID   func() string
}

// NewService constructs a job lifecycle service.
func NewService(repo Repo, mem *members.Service, outbox *notify.Outbox) *Service {
	return &Service{Repo: repo, Members: mem, Outbox: outbox, NewID: uuid.NewString}
}

// Create inserts a draft job owned by the actor's company.
func (s *Service) Create(ctx context.Context, actor domain.Actor, in CreateInput) (job domain.Job, err error) {
	defer func() { metrics.ObserveOutcome(entityJob, "create", err) }()

	title := strings.TrimSpace(in.Title)
	if err := validateTitle(title); err != nil {
		return domain.Job{}, err
	}
	if err := validatePositions(in.PositionsCount); err != nil {
		return domain.Job{}, err
	}

	job, err = s.Repo.Create(ctx, domain.Job{
		ID:             s.NewID(),
		CompanyID:      actor.CompanyID,
		CreatorID:      actor.UserID,
		Title:          title,
		Description:    strings.TrimSpace(in.Description),
		Status:         domain.JobDraft,
		PositionsCount: in.PositionsCount,
	})
	if err != nil {
		return domain.Job{}, err
	}
	telemetry.Info("job.created", map[string]any{
		"job_id":     job.ID,
		"company_id": job.CompanyID,
		"actor":      actor.Label(),
	})
	return job, nil
}

// Get returns one job of the actor's company.
func (s *Service) Get(ctx context.Context, actor domain.Actor, jobID string) (domain.Job, error) {
	if strings.TrimSpace(jobID) == "" {
		return domain.Job{}, workflow.Invalid("jobId", "is required")
	}
	return s.Repo.Get(ctx, actor.CompanyID, jobID)
}

// List returns the actor company's jobs, optionally narrowed by status.
func (s *Service) List(ctx context.Context, actor domain.Actor, f ListFilter) ([]domain.Job, error) {
	if f.Status != "" && !knownJobStatus(f.Status) {
		return nil, workflow.Invalid("status", "unknown job status %q", f.Status)
	}
	if f.Limit <= 0 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.Repo.List(ctx, actor.CompanyID, f)
}

// ListApprovals returns the approvals recorded for a job.
func (s *Service) ListApprovals(ctx context.Context, actor domain.Actor, jobID string) ([]domain.JobApproval, error) {
	if _, err := s.Get(ctx, actor, jobID); err != nil {
		return nil, err
	}
	return s.Repo.ListApprovals(ctx, actor.CompanyID, jobID)
}

// Edit changes job fields while the job is still draft or pending.
func (s *Service) Edit(ctx context.Context, actor domain.Actor, jobID string, p Patch) (job domain.Job, err error) {
	defer func() { metrics.ObserveOutcome(entityJob, "edit", err) }()

	if strings.TrimSpace(jobID) == "" {
		return domain.Job{}, workflow.Invalid("jobId", "is required")
	}
	if p.Empty() {
		return domain.Job{}, workflow.Invalid("", "nothing to update")
	}
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if err := validateTitle(title); err != nil {
			return domain.Job{}, err
		}
		p.Title = &title
	}
	if p.Description != nil {
		desc := strings.TrimSpace(*p.Description)
		p.Description = &desc
	}
	if p.PositionsCount != nil {
		if err := validatePositions(*p.PositionsCount); err != nil {
			return domain.Job{}, err
		}
	}

	editable := []domain.JobStatus{domain.JobDraft, domain.JobPending}
	n, err := s.Repo.Edit(ctx, actor.CompanyID, jobID, editable, p)
	if err != nil {
		return domain.Job{}, err
	}
	if err := workflow.Affected(n); err != nil {
		return domain.Job{}, err
	}
	return s.Repo.Get(ctx, actor.CompanyID, jobID)
}

// Submit moves the job to pending and asks approverID to decide. Repeated
// submissions to the same approver reset the existing approval.
func (s *Service) Submit(ctx context.Context, actor domain.Actor, jobID, approverID string) (approval domain.JobApproval, err error) {
	defer func() { metrics.ObserveOutcome(entityJob, string(domain.JobEventSubmit), err) }()

	if strings.TrimSpace(jobID) == "" {
		return domain.JobApproval{}, workflow.Invalid("jobId", "is required")
	}
	approverID = strings.TrimSpace(approverID)
	if _, err := s.Members.RequireActive(ctx, "approverId", actor.CompanyID, approverID,
		domain.RoleHiringManager, domain.RoleCompanyAdmin); err != nil {
		return domain.JobApproval{}, err
	}

	jobFrom, jobTo, err := workflow.Jobs.Transition(domain.JobEventSubmit)
	if err != nil {
		return domain.JobApproval{}, err
	}
	apFrom, apTo, err := workflow.Approvals.Transition(domain.ApprovalEventSubmit)
	if err != nil {
		return domain.JobApproval{}, err
	}

	err = s.Repo.InTx(ctx, func(tx Tx) error {
		n, err := tx.Move(ctx, actor.CompanyID, jobID, Move{From: jobFrom, To: jobTo})
		if err != nil {
			return err
		}
		if err := workflow.Affected(n); err != nil {
			return err
		}

		existing, err := tx.LockApproval(ctx, jobID, approverID)
		switch {
		case errors.Is(err, workflow.ErrNotFound):
			approval = domain.JobApproval{
				ID:         s.NewID(),
				JobID:      jobID,
				ApproverID: approverID,
				Status:     apTo,
			}
			return tx.InsertApproval(ctx, approval)
		case err != nil:
			return err
		}

		n, err = tx.ResetApproval(ctx, existing.ID, apFrom, apTo)
		if err != nil {
			return err
		}
		if n == 0 {
			return workflow.Inconsistent("locked approval did not reset")
		}
		existing.Status = apTo
		existing.Comments = ""
		existing.DecidedAt = nil
		approval = existing
		return nil
	})
	if err != nil {
		return domain.JobApproval{}, err
	}

	s.publishJob(ctx, actor, jobID, jobTo, map[string]string{
		"approvalId": approval.ID,
		"approverId": approverID,
	})
	return approval, nil
}

// Approve records the actor's approval and publishes the job.
func (s *Service) Approve(ctx context.Context, actor domain.Actor, jobID, comments string) (domain.Job, error) {
	return s.decide(ctx, actor, jobID, comments, domain.ApprovalEventApprove, domain.JobEventApprove)
}

// Reject records the actor's rejection and moves the job to rejected.
func (s *Service) Reject(ctx context.Context, actor domain.Actor, jobID, comments string) (domain.Job, error) {
	return s.decide(ctx, actor, jobID, comments, domain.ApprovalEventReject, domain.JobEventReject)
}

func (s *Service) decide(ctx context.Context, actor domain.Actor, jobID, comments string, apEvent domain.ApprovalEvent, jobEvent domain.JobEvent) (job domain.Job, err error) {
	defer func() { metrics.ObserveOutcome(entityApprove, string(apEvent), err) }()

	if strings.TrimSpace(jobID) == "" {
		return domain.Job{}, workflow.Invalid("jobId", "is required")
	}
	apFrom, apTo, err := workflow.Approvals.Transition(apEvent)
	if err != nil {
		return domain.Job{}, err
	}
	jobFrom, jobTo, err := workflow.Jobs.Transition(jobEvent)
	if err != nil {
		return domain.Job{}, err
	}

	err = s.Repo.InTx(ctx, func(tx Tx) error {
		n, err := tx.Decide(ctx, actor.CompanyID, jobID, actor.UserID, Decision{
			From:     apFrom,
			To:       apTo,
			Comments: strings.TrimSpace(comments),
		})
		if err != nil {
			return err
		}
		if err := workflow.Affected(n); err != nil {
			return err
		}
		n, err = tx.Move(ctx, actor.CompanyID, jobID, Move{From: jobFrom, To: jobTo})
		if err != nil {
			return err
		}
		return workflow.Affected(n)
	})
	if err != nil {
		return domain.Job{}, err
	}

	s.publishJob(ctx, actor, jobID, jobTo, map[string]string{"approverId": actor.UserID})
	return s.Repo.Get(ctx, actor.CompanyID, jobID)
}

// Publish opens the job for applications. It needs at least one opening.
func (s *Service) Publish(ctx context.Context, actor domain.Actor, jobID string) (domain.Job, error) {
	return s.move(ctx, actor, jobID, domain.JobEventPublish, true)
}

// Close stops the job. Closing an already closed job is not found.
func (s *Service) Close(ctx context.Context, actor domain.Actor, jobID string) (domain.Job, error) {
	return s.move(ctx, actor, jobID, domain.JobEventClose, false)
}

func (s *Service) move(ctx context.Context, actor domain.Actor, jobID string, ev domain.JobEvent, needOpenings bool) (job domain.Job, err error) {
	defer func() { metrics.ObserveOutcome(entityJob, string(ev), err) }()

	if strings.TrimSpace(jobID) == "" {
		return domain.Job{}, workflow.Invalid("jobId", "is required")
	}
	from, to, err := workflow.Jobs.Transition(ev)
	if err != nil {
		return domain.Job{}, err
	}
	n, err := s.Repo.Move(ctx, actor.CompanyID, jobID, Move{From: from, To: to, RequireOpenings: needOpenings})
	if err != nil {
		return domain.Job{}, err
	}
	if err := workflow.Affected(n); err != nil {
		return domain.Job{}, err
	}

	s.publishJob(ctx, actor, jobID, to, nil)
	return s.Repo.Get(ctx, actor.CompanyID, jobID)
}

func (s *Service) publishJob(ctx context.Context, actor domain.Actor, jobID string, status domain.JobStatus, extra map[string]string) {
	ids := map[string]string{"jobId": jobID, "status": string(status)}
	for k, v := range extra {
		ids[k] = v
	}
	telemetry.Info("job.transition", map[string]any{
		"job_id":            jobID,
		"company_id":        actor.CompanyID,
		"actor":             actor.Label(),
		"status_transition": string(status),
	})
	s.Outbox.Publish(ctx, notify.Event{
		Name:      notify.EventJobStatusChanged,
		EntityIDs: ids,
		Actor:     actor.Label(),
	})
}

func validateTitle(title string) error {
	if title == "" {
		return workflow.Invalid("title", "is required")
	}
	if len(title) > maxTitleLen {
		return workflow.Invalid("title", "must be at most %d characters", maxTitleLen)
	}
	return nil
}

func validatePositions(n int) error {
	if n < 1 || n > maxPositions {
		return workflow.Invalid("positionsCount", "must be between 1 and %d", maxPositions)
	}
	return nil
}

func knownJobStatus(s domain.JobStatus) bool {
	switch s {
	case domain.JobDraft, domain.JobPending, domain.JobPublished, domain.JobRejected, domain.JobClosed:
		return true
	}
	return false
}
