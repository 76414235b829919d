package applications

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"recruit-backend/internal/domain"
	"recruit-backend/internal/notify"
	"recruit-backend/internal/shared/metrics"
	"recruit-backend/internal/shared/telemetry"
	"recruit-backend/internal/workflow"
)

const (
	entity          = "application"
	maxCoverLetter  = 10000
	maxStageIDLen   = 100
	defaultLimit    = 50
	maxListLimit    = 200
	eventApply      = "apply"
	eventFinalPrefx = "final_"
)

// errExhausted aborts the apply transaction so the job can be closed after rollback.
var errExhausted = errors.New("job exhausted")

// Service runs the application pipeline.
type Service struct {
	Repo   Repo
	Outbox *notify.Outbox
	NewID  func() string
}

// NewService constructs an application pipeline service.
func NewService(repo Repo, outbox *notify.Outbox) *Service {
	return &Service{Repo: repo, Outbox: outbox, NewID: uuid.NewString}
}

// Apply files the actor's application to a published job. A job without
// openings is closed and the call fails with ErrNoOpenings.
func (s *Service) Apply(ctx context.Context, actor domain.Actor, jobID, coverLetter string) (app domain.Application, err error) {
	defer func() { metrics.ObserveOutcome(entity, eventApply, err) }()

	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return domain.Application{}, workflow.Invalid("jobId", "is required")
	}
	if actor.UserID == "" {
		return domain.Application{}, workflow.Invalid("candidateId", "is required")
	}
	coverLetter = strings.TrimSpace(coverLetter)
	if len(coverLetter) > maxCoverLetter {
		return domain.Application{}, workflow.Invalid("coverLetter", "must be at most %d characters", maxCoverLetter)
	}

	err = s.Repo.InTx(ctx, func(tx Tx) error {
		job, err := tx.LockJob(ctx, jobID)
		if err != nil {
			return err
		}
		if job.PositionsCount <= 0 {
			return errExhausted
		}
		if !workflow.AcceptsApplications(job.Status) {
			return workflow.ErrNotOpen
		}
		dup, err := tx.HasApplied(ctx, jobID, actor.UserID)
		if err != nil {
			return err
		}
		if dup {
			return workflow.Conflict("candidate already applied to this job")
		}
		app, err = tx.Insert(ctx, domain.Application{
			ID:          s.NewID(),
			JobID:       jobID,
			CompanyID:   job.CompanyID,
			CandidateID: actor.UserID,
			Status:      domain.ApplicationApplied,
			CoverLetter: coverLetter,
		})
		return err
	})
	if errors.Is(err, errExhausted) {
		s.closeExhausted(ctx, actor, jobID)
		return domain.Application{}, workflow.ErrNoOpenings
	}
	if err != nil {
		return domain.Application{}, err
	}

	s.Outbox.Publish(ctx, notify.Event{
		Name:      notify.EventApplicationSubmitted,
		EntityIDs: map[string]string{"applicationId": app.ID, "jobId": jobID, "candidateId": actor.UserID},
		Actor:     actor.Label(),
	})
	return app, nil
}

// closeExhausted closes a seatless job in its own statement after the apply
// transaction rolled back.
func (s *Service) closeExhausted(ctx context.Context, actor domain.Actor, jobID string) {
	from, _, err := workflow.Jobs.Transition(domain.JobEventExhaust)
	if err != nil {
		telemetry.Error("application.close_exhausted", map[string]any{"job_id": jobID, "error": err})
		return
	}
	n, err := s.Repo.CloseJob(ctx, jobID, from)
	if err != nil {
		telemetry.Error("application.close_exhausted", map[string]any{"job_id": jobID, "error": err})
		return
	}
	if n > 0 {
		s.publishJobClosed(ctx, actor, jobID)
	}
}

// Screen moves an applied candidate to interview or rejected.
func (s *Service) Screen(ctx context.Context, actor domain.Actor, applicationID string, target domain.ApplicationStatus) (app domain.Application, err error) {
	var ev domain.ApplicationEvent
	switch target {
	case domain.ApplicationInterview:
		ev = domain.ApplicationEventScreenInterview
	case domain.ApplicationRejected:
		ev = domain.ApplicationEventScreenReject
	default:
		return domain.Application{}, workflow.Invalid("status", "must be %q or %q", domain.ApplicationInterview, domain.ApplicationRejected)
	}
	defer func() { metrics.ObserveOutcome(entity, string(ev), err) }()

	return s.transition(ctx, actor, applicationID, ev, StampScreening, nil)
}

// MoveStage sets any known status together with the pipeline stage.
func (s *Service) MoveStage(ctx context.Context, actor domain.Actor, applicationID, rawStatus, stageID string) (app domain.Application, err error) {
	defer func() { metrics.ObserveOutcome(entity, string(domain.ApplicationEventMoveStage), err) }()

	status, ok := domain.ParseApplicationStatus(rawStatus)
	if !ok {
		return domain.Application{}, workflow.Invalid("status", "unknown application status %q", rawStatus)
	}
	stageID = strings.TrimSpace(stageID)
	if len(stageID) > maxStageIDLen {
		return domain.Application{}, workflow.Invalid("stageId", "must be at most %d characters", maxStageIDLen)
	}
	if strings.TrimSpace(applicationID) == "" {
		return domain.Application{}, workflow.Invalid("applicationId", "is required")
	}
	if !workflow.Applications.Can(status, domain.ApplicationEventMoveStage) {
		return domain.Application{}, workflow.ErrNotFound
	}

	n, err := s.Repo.Move(ctx, actor.CompanyID, applicationID, Move{
		From:    domain.ApplicationStatuses,
		To:      status,
		StageID: &stageID,
	})
	if err != nil {
		return domain.Application{}, err
	}
	if err := workflow.Affected(n); err != nil {
		return domain.Application{}, err
	}
	s.publishStatus(ctx, actor, applicationID, status)
	return s.Repo.Get(ctx, actor.CompanyID, applicationID)
}

// FinalDecision records selected, rejected or hired. Hired consumes a seat.
func (s *Service) FinalDecision(ctx context.Context, actor domain.Actor, applicationID string, status domain.ApplicationStatus) (app domain.Application, err error) {
	switch status {
	case domain.ApplicationSelected:
		defer func() { metrics.ObserveOutcome(entity, eventFinalPrefx+string(status), err) }()
		return s.transition(ctx, actor, applicationID, domain.ApplicationEventSelect, StampFinal, nil)
	case domain.ApplicationRejected:
		defer func() { metrics.ObserveOutcome(entity, eventFinalPrefx+string(status), err) }()
		return s.transition(ctx, actor, applicationID, domain.ApplicationEventReject, StampFinal, nil)
	case domain.ApplicationHired:
		return s.Hire(ctx, actor, applicationID)
	default:
		return domain.Application{}, workflow.Invalid("status", "must be one of %q, %q, %q",
			domain.ApplicationSelected, domain.ApplicationRejected, domain.ApplicationHired)
	}
}

// Hire moves an accepted candidate to hired and consumes one opening. The
// job closes when its last opening is taken.
func (s *Service) Hire(ctx context.Context, actor domain.Actor, applicationID string) (app domain.Application, err error) {
	defer func() { metrics.ObserveOutcome(entity, string(domain.ApplicationEventHire), err) }()

	if strings.TrimSpace(applicationID) == "" {
		return domain.Application{}, workflow.Invalid("applicationId", "is required")
	}
	hireFrom, hireTo, err := workflow.Applications.Transition(domain.ApplicationEventHire)
	if err != nil {
		return domain.Application{}, err
	}
	exhaustFrom, _, err := workflow.Jobs.Transition(domain.JobEventExhaust)
	if err != nil {
		return domain.Application{}, err
	}

	var noSeat, closed bool
	var jobID string
	err = s.Repo.InTx(ctx, func(tx Tx) error {
		locked, job, err := tx.LockForHire(ctx, actor.CompanyID, applicationID)
		if err != nil {
			return err
		}
		if !workflow.Contains(hireFrom, locked.Status) {
			return workflow.ErrNotFound
		}
		jobID = job.ID

		if job.PositionsCount <= 0 {
			n, err := tx.CloseJob(ctx, job.ID, exhaustFrom)
			if err != nil {
				return err
			}
			noSeat, closed = true, n > 0
			return nil
		}

		n, err := tx.Move(ctx, actor.CompanyID, applicationID, Move{From: hireFrom, To: hireTo, Stamp: StampFinal})
		if err != nil {
			return err
		}
		if n == 0 {
			return workflow.Inconsistent("locked application did not move to hired")
		}
		remaining, ok, err := tx.TakeSeat(ctx, job.ID)
		if err != nil {
			return err
		}
		if !ok {
			return workflow.Inconsistent("seat decrement affected no rows")
		}
		if remaining == 0 {
			n, err := tx.CloseJob(ctx, job.ID, exhaustFrom)
			if err != nil {
				return err
			}
			closed = n > 0
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, workflow.ErrInconsistent) {
			telemetry.Error("application.hire_inconsistent", map[string]any{
				"application_id": applicationID,
				"company_id":     actor.CompanyID,
				"error":          err,
			})
		}
		return domain.Application{}, err
	}
	if closed {
		s.publishJobClosed(ctx, actor, jobID)
	}
	if noSeat {
		return domain.Application{}, workflow.ErrNoOpenings
	}

	s.publishStatus(ctx, actor, applicationID, hireTo)
	return s.Repo.Get(ctx, actor.CompanyID, applicationID)
}

func (s *Service) transition(ctx context.Context, actor domain.Actor, applicationID string, ev domain.ApplicationEvent, stamp Stamp, stageID *string) (domain.Application, error) {
	if strings.TrimSpace(applicationID) == "" {
		return domain.Application{}, workflow.Invalid("applicationId", "is required")
	}
	from, to, err := workflow.Applications.Transition(ev)
	if err != nil {
		return domain.Application{}, err
	}
	n, err := s.Repo.Move(ctx, actor.CompanyID, applicationID, Move{From: from, To: to, Stamp: stamp, StageID: stageID})
	if err != nil {
		return domain.Application{}, err
	}
	if err := workflow.Affected(n); err != nil {
		return domain.Application{}, err
	}
	s.publishStatus(ctx, actor, applicationID, to)
	return s.Repo.Get(ctx, actor.CompanyID, applicationID)
}

// Get returns one application. Candidates only see their own.
func (s *Service) Get(ctx context.Context, actor domain.Actor, applicationID string) (domain.Application, error) {
	if strings.TrimSpace(applicationID) == "" {
		return domain.Application{}, workflow.Invalid("applicationId", "is required")
	}
	if actor.Role == domain.RoleCandidate {
		return s.Repo.GetForCandidate(ctx, actor.UserID, applicationID)
	}
	return s.Repo.Get(ctx, actor.CompanyID, applicationID)
}

// ListByJob returns applications for a job of the actor's company.
func (s *Service) ListByJob(ctx context.Context, actor domain.Actor, jobID string, f ListFilter) ([]domain.Application, error) {
	if strings.TrimSpace(jobID) == "" {
		return nil, workflow.Invalid("jobId", "is required")
	}
	f, err := normalizeFilter(f)
	if err != nil {
		return nil, err
	}
	return s.Repo.ListByJob(ctx, actor.CompanyID, jobID, f)
}

// ListMine returns the actor's own applications.
func (s *Service) ListMine(ctx context.Context, actor domain.Actor, f ListFilter) ([]domain.Application, error) {
	f, err := normalizeFilter(f)
	if err != nil {
		return nil, err
	}
	return s.Repo.ListByCandidate(ctx, actor.UserID, f)
}

func normalizeFilter(f ListFilter) (ListFilter, error) {
	if f.Status != "" {
		if _, ok := domain.ParseApplicationStatus(string(f.Status)); !ok {
			return f, workflow.Invalid("status", "unknown application status %q", f.Status)
		}
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
	return f, nil
}

func (s *Service) publishStatus(ctx context.Context, actor domain.Actor, applicationID string, status domain.ApplicationStatus) {
	telemetry.Info("application.transition", map[string]any{
		"application_id":    applicationID,
		"company_id":        actor.CompanyID,
		"actor":             actor.Label(),
		"status_transition": string(status),
	})
	s.Outbox.Publish(ctx, notify.Event{
		Name:      notify.EventApplicationStatusChanged,
		EntityIDs: map[string]string{"applicationId": applicationID, "status": string(status)},
		Actor:     actor.Label(),
	})
}

func (s *Service) publishJobClosed(ctx context.Context, actor domain.Actor, jobID string) {
	telemetry.Info("job.exhausted", map[string]any{"job_id": jobID, "actor": actor.Label()})
	s.Outbox.Publish(ctx, notify.Event{
		Name:      notify.EventJobStatusChanged,
		EntityIDs: map[string]string{"jobId": jobID, "status": string(domain.JobClosed)},
		Actor:     actor.Label(),
	})
}
