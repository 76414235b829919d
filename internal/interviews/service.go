package interviews

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"recruit-backend/internal/domain"
	"recruit-backend/internal/meeting"
	"recruit-backend/internal/members"
	"recruit-backend/internal/notify"
	"recruit-backend/internal/shared/metrics"
	"recruit-backend/internal/shared/telemetry"
	"recruit-backend/internal/workflow"
)

const (
	interviewEntity = "interview"
	scorecardEntity = "scorecard"

	defaultDuration = 60
	minDuration     = 15
	maxDuration     = 480
	maxNotesLen     = 5000
	maxRatings      = 50
	minRating       = 1
	maxRating       = 5
)

// editable lists the statuses in which an interview may be rescheduled.
var editable = []domain.InterviewStatus{domain.InterviewScheduled}

// Service schedules interviews and records scorecards.
type Service struct {
	Repo     Repo
	Members  *members.Service
	Meetings meeting.Provider
	Outbox   *notify.Outbox
	NewID    func() string
	Now      func() time.Time
}

// NewService constructs an interview service.
func NewService(repo Repo, mem *members.Service, meetings meeting.Provider, outbox *notify.Outbox) *Service {
	return &Service{
		Repo:     repo,
		Members:  mem,
		Meetings: meetings,
		Outbox:   outbox,
		NewID:    uuid.NewString,
		Now:      func() time.Time { return time.Now().UTC() },
	}
}

// ScheduleInput is the request to schedule an interview.
type ScheduleInput struct {
	ApplicationID   string
	InterviewerID   string
	ScheduledAt     time.Time
	DurationMinutes int
	Notes           string
	MeetingLink     string
}

// Schedule books an interview for an application in status interview. When
// no link is given the meeting provider issues one inside the transaction.
func (s *Service) Schedule(ctx context.Context, actor domain.Actor, in ScheduleInput) (iv domain.Interview, err error) {
	defer func() { metrics.ObserveOutcome(interviewEntity, "schedule", err) }()

	in.ApplicationID = strings.TrimSpace(in.ApplicationID)
	in.InterviewerID = strings.TrimSpace(in.InterviewerID)
	in.Notes = strings.TrimSpace(in.Notes)
	in.MeetingLink = strings.TrimSpace(in.MeetingLink)
	if in.ApplicationID == "" {
		return domain.Interview{}, workflow.Invalid("applicationId", "is required")
	}
	if err := s.validateTime(in.ScheduledAt); err != nil {
		return domain.Interview{}, err
	}
	if in.DurationMinutes == 0 {
		in.DurationMinutes = defaultDuration
	}
	if err := validateDuration(in.DurationMinutes); err != nil {
		return domain.Interview{}, err
	}
	if err := validateLink(in.MeetingLink); err != nil {
		return domain.Interview{}, err
	}
	if len(in.Notes) > maxNotesLen {
		return domain.Interview{}, workflow.Invalid("notes", "must be at most %d characters", maxNotesLen)
	}
	if _, err := s.Members.RequireActive(ctx, "interviewerId", actor.CompanyID, in.InterviewerID, domain.RoleInterviewer); err != nil {
		return domain.Interview{}, err
	}

	err = s.Repo.InTx(ctx, func(tx Tx) error {
		app, err := tx.LockApplication(ctx, actor.CompanyID, in.ApplicationID)
		if err != nil {
			return err
		}
		if app.Status != domain.ApplicationInterview {
			return workflow.ErrNotFound
		}
		busy, err := tx.HasScheduled(ctx, app.ID)
		if err != nil {
			return err
		}
		if busy {
			return workflow.Conflict("application already has a scheduled interview")
		}

		link := in.MeetingLink
		if link == "" {
			link, err = s.Meetings.CreateMeeting(ctx,
				[]string{in.InterviewerID, app.CandidateID},
				in.ScheduledAt,
				time.Duration(in.DurationMinutes)*time.Minute,
			)
			if err != nil {
				return fmt.Errorf("create meeting link: %w", err)
			}
		}

		iv, err = tx.Insert(ctx, domain.Interview{
			ID:              s.NewID(),
			ApplicationID:   app.ID,
			InterviewerID:   in.InterviewerID,
			ScheduledAt:     in.ScheduledAt.UTC(),
			DurationMinutes: in.DurationMinutes,
			Status:          domain.InterviewScheduled,
			Notes:           in.Notes,
			MeetingLink:     link,
		})
		return err
	})
	if err != nil {
		return domain.Interview{}, err
	}

	telemetry.Info("interview.scheduled", map[string]any{
		"interview_id":   iv.ID,
		"application_id": iv.ApplicationID,
		"company_id":     actor.CompanyID,
		"actor":          actor.Label(),
	})
	s.Outbox.Publish(ctx, notify.Event{
		Name: notify.EventInterviewAssigned,
		EntityIDs: map[string]string{
			"interviewId":   iv.ID,
			"applicationId": iv.ApplicationID,
			"interviewerId": iv.InterviewerID,
		},
		Actor: actor.Label(),
	})
	return iv, nil
}

// Update reschedules a scheduled interview.
func (s *Service) Update(ctx context.Context, actor domain.Actor, interviewID string, p Patch) (iv domain.Interview, err error) {
	defer func() { metrics.ObserveOutcome(interviewEntity, "update", err) }()

	if strings.TrimSpace(interviewID) == "" {
		return domain.Interview{}, workflow.Invalid("interviewId", "is required")
	}
	if p.Empty() {
		return domain.Interview{}, workflow.Invalid("", "no fields to update")
	}
	if p.ScheduledAt != nil {
		if err := s.validateTime(*p.ScheduledAt); err != nil {
			return domain.Interview{}, err
		}
	}
	if p.DurationMinutes != nil {
		if err := validateDuration(*p.DurationMinutes); err != nil {
			return domain.Interview{}, err
		}
	}
	if p.MeetingLink != nil {
		link := strings.TrimSpace(*p.MeetingLink)
		if link == "" {
			return domain.Interview{}, workflow.Invalid("meetingLink", "must not be empty")
		}
		if err := validateLink(link); err != nil {
			return domain.Interview{}, err
		}
		p.MeetingLink = &link
	}
	if p.Notes != nil {
		notes := strings.TrimSpace(*p.Notes)
		if len(notes) > maxNotesLen {
			return domain.Interview{}, workflow.Invalid("notes", "must be at most %d characters", maxNotesLen)
		}
		p.Notes = &notes
	}

	n, err := s.Repo.Update(ctx, actor.CompanyID, interviewID, editable, p)
	if err != nil {
		return domain.Interview{}, err
	}
	if err := workflow.Affected(n); err != nil {
		return domain.Interview{}, err
	}
	return s.Repo.Get(ctx, actor.CompanyID, interviewID)
}

// Cancel moves a scheduled interview to cancelled.
func (s *Service) Cancel(ctx context.Context, actor domain.Actor, interviewID string) (iv domain.Interview, err error) {
	defer func() { metrics.ObserveOutcome(interviewEntity, string(domain.InterviewEventCancel), err) }()

	if strings.TrimSpace(interviewID) == "" {
		return domain.Interview{}, workflow.Invalid("interviewId", "is required")
	}
	from, to, err := workflow.Interviews.Transition(domain.InterviewEventCancel)
	if err != nil {
		return domain.Interview{}, err
	}
	n, err := s.Repo.Move(ctx, actor.CompanyID, interviewID, Move{From: from, To: to})
	if err != nil {
		return domain.Interview{}, err
	}
	if err := workflow.Affected(n); err != nil {
		return domain.Interview{}, err
	}
	iv, err = s.Repo.Get(ctx, actor.CompanyID, interviewID)
	if err != nil {
		return domain.Interview{}, err
	}
	s.Outbox.Publish(ctx, notify.Event{
		Name:      notify.EventInterviewCancelled,
		EntityIDs: map[string]string{"interviewId": iv.ID, "applicationId": iv.ApplicationID},
		Actor:     actor.Label(),
	})
	return iv, nil
}

// ScorecardInput is an interviewer's evaluation.
type ScorecardInput struct {
	Ratings        map[string]int
	Recommendation domain.Recommendation
	Notes          string
}

// SubmitScorecard stores a non-final scorecard for the actor's scheduled interview.
func (s *Service) SubmitScorecard(ctx context.Context, actor domain.Actor, interviewID string, in ScorecardInput) (sc domain.Scorecard, err error) {
	defer func() { metrics.ObserveOutcome(scorecardEntity, "submit", err) }()

	if strings.TrimSpace(interviewID) == "" {
		return domain.Scorecard{}, workflow.Invalid("interviewId", "is required")
	}
	if err := validateRatings(in.Ratings); err != nil {
		return domain.Scorecard{}, err
	}
	if !in.Recommendation.Valid() {
		return domain.Scorecard{}, workflow.Invalid("recommendation", "unknown recommendation %q", in.Recommendation)
	}
	notes := strings.TrimSpace(in.Notes)
	if len(notes) > maxNotesLen {
		return domain.Scorecard{}, workflow.Invalid("notes", "must be at most %d characters", maxNotesLen)
	}

	return s.Repo.InsertScorecard(ctx, actor.CompanyID, NewScorecard{
		Scorecard: domain.Scorecard{
			ID:             s.NewID(),
			InterviewID:    interviewID,
			InterviewerID:  actor.UserID,
			Ratings:        in.Ratings,
			Recommendation: in.Recommendation,
			Notes:          notes,
		},
		InterviewFrom: editable,
	})
}

// Finalize locks in a scorecard, completes its interview and promotes the
// application in a single statement. A second finalize is not found.
func (s *Service) Finalize(ctx context.Context, actor domain.Actor, scorecardID string) (sc domain.Scorecard, err error) {
	defer func() { metrics.ObserveOutcome(scorecardEntity, string(domain.ScorecardEventFinalize), err) }()

	if strings.TrimSpace(scorecardID) == "" {
		return domain.Scorecard{}, workflow.Invalid("scorecardId", "is required")
	}
	if !workflow.Scorecards.Can(domain.ScorecardOpen, domain.ScorecardEventFinalize) {
		return domain.Scorecard{}, workflow.ErrNotFound
	}
	ivFrom, ivTo, err := workflow.Interviews.Transition(domain.InterviewEventComplete)
	if err != nil {
		return domain.Scorecard{}, err
	}
	appFrom, appTo, err := workflow.Applications.Transition(domain.ApplicationEventScoreSubmitted)
	if err != nil {
		return domain.Scorecard{}, err
	}

	done, ok, err := s.Repo.Finalize(ctx, actor.CompanyID, scorecardID, actor.UserID, Finalize{
		InterviewFrom:   ivFrom,
		InterviewTo:     ivTo,
		ApplicationFrom: appFrom,
		ApplicationTo:   appTo,
		Positive:        []domain.Recommendation{domain.RecommendStrongHire, domain.RecommendHire},
	})
	if err != nil {
		return domain.Scorecard{}, err
	}
	if !ok {
		return domain.Scorecard{}, workflow.ErrNotFound
	}

	telemetry.Info("scorecard.finalized", map[string]any{
		"scorecard_id":      scorecardID,
		"interview_id":      done.InterviewID,
		"application_id":    done.ApplicationID,
		"company_id":        actor.CompanyID,
		"status_transition": string(appTo),
	})
	s.Outbox.Publish(ctx, notify.Event{
		Name: notify.EventScorecardSubmitted,
		EntityIDs: map[string]string{
			"scorecardId":   scorecardID,
			"interviewId":   done.InterviewID,
			"applicationId": done.ApplicationID,
		},
		Actor: actor.Label(),
	})
	return s.Repo.GetScorecard(ctx, actor.CompanyID, scorecardID)
}

// Get returns one interview of the actor's company.
func (s *Service) Get(ctx context.Context, actor domain.Actor, interviewID string) (domain.Interview, error) {
	if strings.TrimSpace(interviewID) == "" {
		return domain.Interview{}, workflow.Invalid("interviewId", "is required")
	}
	return s.Repo.Get(ctx, actor.CompanyID, interviewID)
}

// ListScorecards returns the scorecards of one interview.
func (s *Service) ListScorecards(ctx context.Context, actor domain.Actor, interviewID string) ([]domain.Scorecard, error) {
	if _, err := s.Get(ctx, actor, interviewID); err != nil {
		return nil, err
	}
	return s.Repo.ListScorecards(ctx, actor.CompanyID, interviewID)
}

func (s *Service) validateTime(at time.Time) error {
	if at.IsZero() {
		return workflow.Invalid("scheduledAt", "is required")
	}
	if !at.After(s.Now()) {
		return workflow.Invalid("scheduledAt", "must be in the future")
	}
	return nil
}

func validateDuration(minutes int) error {
	if minutes < minDuration || minutes > maxDuration {
		return workflow.Invalid("durationMinutes", "must be between %d and %d", minDuration, maxDuration)
	}
	return nil
}

func validateLink(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return workflow.Invalid("meetingLink", "must be an http(s) URL")
	}
	return nil
}

func validateRatings(ratings map[string]int) error {
	if len(ratings) == 0 {
		return workflow.Invalid("ratings", "must not be empty")
	}
	if len(ratings) > maxRatings {
		return workflow.Invalid("ratings", "must have at most %d entries", maxRatings)
	}
	for name, v := range ratings {
		if strings.TrimSpace(name) == "" {
			return workflow.Invalid("ratings", "names must not be empty")
		}
		if v < minRating || v > maxRating {
			return workflow.Invalid("ratings", "%s must be between %d and %d", name, minRating, maxRating)
		}
	}
	return nil
}
