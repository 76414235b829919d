package domain

import "time"

// InterviewStatus is the state of a scheduled interview.
type InterviewStatus string

const (
	InterviewScheduled InterviewStatus = "scheduled"
	InterviewCompleted InterviewStatus = "completed"
	InterviewCancelled InterviewStatus = "cancelled"
)

// InterviewEvent names an interview transition.
type InterviewEvent string

const (
	InterviewEventComplete InterviewEvent = "complete"
	InterviewEventCancel   InterviewEvent = "cancel"
)

// ScorecardState mirrors the is_final flag.
type ScorecardState string

const (
	ScorecardOpen  ScorecardState = "open"
	ScorecardFinal ScorecardState = "final"
)

// ScorecardEvent names a scorecard transition.
type ScorecardEvent string

const ScorecardEventFinalize ScorecardEvent = "finalize"

// Recommendation is an interviewer's overall verdict.
type Recommendation string

const (
	RecommendStrongHire   Recommendation = "strong_hire"
	RecommendHire         Recommendation = "hire"
	RecommendNoHire       Recommendation = "no_hire"
	RecommendStrongNoHire Recommendation = "strong_no_hire"
)

// Valid reports whether r is a known recommendation.
func (r Recommendation) Valid() bool {
	switch r {
	case RecommendStrongHire, RecommendHire, RecommendNoHire, RecommendStrongNoHire:
		return true
	}
	return false
}

// Positive reports whether r recommends making an offer.
func (r Recommendation) Positive() bool {
	return r == RecommendStrongHire || r == RecommendHire
}

// Interview is one scheduled conversation between an interviewer and a candidate.
type Interview struct {
	ID              string          `json:"id"`
	ApplicationID   string          `json:"applicationId"`
	InterviewerID   string          `json:"interviewerId"`
	ScheduledAt     time.Time       `json:"scheduledAt"`
	DurationMinutes int             `json:"durationMinutes"`
	Status          InterviewStatus `json:"status"`
	Notes           string          `json:"notes,omitempty"`
	MeetingLink     string          `json:"meetingLink"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Scorecard is an interviewer's evaluation for one interview.
type Scorecard struct {
	ID             string         `json:"id"`
	InterviewID    string         `json:"interviewId"`
	InterviewerID  string         `json:"interviewerId"`
	Ratings        map[string]int `json:"ratings"`
	Recommendation Recommendation `json:"recommendation"`
	Notes          string         `json:"notes,omitempty"`
	IsFinal        bool           `json:"isFinal"`
	FinalizedAt    *time.Time     `json:"finalizedAt,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// State returns the scorecard's lifecycle state.
func (s Scorecard) State() ScorecardState {
	if s.IsFinal {
		return ScorecardFinal
	}
	return ScorecardOpen
}
