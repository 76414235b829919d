package domain

import "time"

// ApplicationStatus is the pipeline position of an application.
//
// Two literals are misspelled. They are persisted verbatim and other
// queries match them exactly, so do not correct them without a data migration.
type ApplicationStatus string

const (
	ApplicationApplied         ApplicationStatus = "applied"
	ApplicationInterview       ApplicationStatus = "interview"
	ApplicationScoreSubmitted  ApplicationStatus = "interview score submited"
	ApplicationSelected        ApplicationStatus = "selected"
	ApplicationOfferLetterSent ApplicationStatus = "offer_letter_sent"
	ApplicationOfferAccepted   ApplicationStatus = "offer accecepted"
	ApplicationHired           ApplicationStatus = "hired"
	ApplicationRejected        ApplicationStatus = "rejected"
)

// ApplicationStatuses lists every known status in pipeline order.
var ApplicationStatuses = []ApplicationStatus{
	ApplicationApplied,
	ApplicationInterview,
	ApplicationScoreSubmitted,
	ApplicationSelected,
	ApplicationOfferLetterSent,
	ApplicationOfferAccepted,
	ApplicationHired,
	ApplicationRejected,
}

// ParseApplicationStatus returns the status for a raw literal.
func ParseApplicationStatus(raw string) (ApplicationStatus, bool) {
	for _, s := range ApplicationStatuses {
		if string(s) == raw {
			return s, true
		}
	}
	return "", false
}

// ApplicationEvent names a pipeline transition.
type ApplicationEvent string

const (
	ApplicationEventScreenInterview ApplicationEvent = "screen_interview"
	ApplicationEventScreenReject    ApplicationEvent = "screen_reject"
	ApplicationEventScoreSubmitted  ApplicationEvent = "score_submitted"
	ApplicationEventSelect          ApplicationEvent = "select"
	ApplicationEventReject          ApplicationEvent = "reject"
	ApplicationEventOfferSent       ApplicationEvent = "offer_sent"
	ApplicationEventOfferAccepted   ApplicationEvent = "offer_accepted"
	ApplicationEventOfferDeclined   ApplicationEvent = "offer_declined"
	ApplicationEventHire            ApplicationEvent = "hire"
	ApplicationEventMoveStage       ApplicationEvent = "move_stage"
)

// Application is a candidate's application to a job.
type Application struct {
	ID                  string            `json:"id"`
	JobID               string            `json:"jobId"`
	CompanyID           string            `json:"companyId,omitempty"`
	CandidateID         string            `json:"candidateId"`
	Status              ApplicationStatus `json:"status"`
	CurrentStageID      string            `json:"currentStageId,omitempty"`
	OfferRecommended    bool              `json:"offerRecommended"`
	CoverLetter         string            `json:"coverLetter,omitempty"`
	AppliedAt           time.Time         `json:"appliedAt"`
	ScreeningDecisionAt *time.Time        `json:"screeningDecisionAt,omitempty"`
	FinalDecisionAt     *time.Time        `json:"finalDecisionAt,omitempty"`
	UpdatedAt           time.Time         `json:"updatedAt"`
}
