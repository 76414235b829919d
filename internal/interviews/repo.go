package interviews

import (
	"context"
	"time"

	"recruit-backend/internal/domain"
)

// Patch holds the editable fields of a scheduled interview. Nil fields are kept.
type Patch struct {
	ScheduledAt     *time.Time
	DurationMinutes *int
	Notes           *string
	MeetingLink     *string
}

// Empty reports whether p changes nothing.
func (p Patch) Empty() bool {
	return p.ScheduledAt == nil && p.DurationMinutes == nil && p.Notes == nil && p.MeetingLink == nil
}

// Move is a guarded interview status change.
type Move struct {
	From []domain.InterviewStatus
	To   domain.InterviewStatus
}

// NewScorecard is a scorecard insert conditioned on its interview.
type NewScorecard struct {
	Scorecard     domain.Scorecard
	InterviewFrom []domain.InterviewStatus
}

// Finalize describes the compound finalize statement. The scorecard always
// moves from open to final; the other entities move as listed.
type Finalize struct {
	InterviewFrom   []domain.InterviewStatus
	InterviewTo     domain.InterviewStatus
	ApplicationFrom []domain.ApplicationStatus
	ApplicationTo   domain.ApplicationStatus
	Positive        []domain.Recommendation
}

// Finalized identifies the entities promoted by a finalize.
type Finalized struct {
	InterviewID   string
	ApplicationID string
}

// Repo persists interviews and scorecards.
type Repo interface {
	Get(ctx context.Context, companyID, interviewID string) (domain.Interview, error)
	GetScorecard(ctx context.Context, companyID, scorecardID string) (domain.Scorecard, error)
	ListScorecards(ctx context.Context, companyID, interviewID string) ([]domain.Scorecard, error)
	Update(ctx context.Context, companyID, interviewID string, from []domain.InterviewStatus, p Patch) (int64, error)
	Move(ctx context.Context, companyID, interviewID string, m Move) (int64, error)
	// InsertScorecard returns ErrNotFound when the interview is absent, out of
	// scope, not in an expected status or owned by someone else.
	InsertScorecard(ctx context.Context, companyID string, in NewScorecard) (domain.Scorecard, error)
	// Finalize promotes the scorecard, interview and application together.
	// ok is false when any precondition failed.
	Finalize(ctx context.Context, companyID, scorecardID, interviewerID string, f Finalize) (Finalized, bool, error)
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the scheduling transaction.
type Tx interface {
	// LockApplication locks the application row in company scope.
	LockApplication(ctx context.Context, companyID, applicationID string) (domain.Application, error)
	HasScheduled(ctx context.Context, applicationID string) (bool, error)
	Insert(ctx context.Context, iv domain.Interview) (domain.Interview, error)
}
