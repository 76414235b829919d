package workflow

import "recruit-backend/internal/domain"

// Jobs is the job requisition lifecycle.
var Jobs = NewMachine[domain.JobStatus, domain.JobEvent]("job",
	Rule[domain.JobStatus, domain.JobEvent]{
		From:  []domain.JobStatus{domain.JobDraft, domain.JobPending, domain.JobRejected},
		Event: domain.JobEventSubmit,
		To:    domain.JobPending,
	},
	Rule[domain.JobStatus, domain.JobEvent]{
		From:  []domain.JobStatus{domain.JobPending},
		Event: domain.JobEventApprove,
		To:    domain.JobPublished,
	},
	Rule[domain.JobStatus, domain.JobEvent]{
		From:  []domain.JobStatus{domain.JobPending},
		Event: domain.JobEventReject,
		To:    domain.JobRejected,
	},
	Rule[domain.JobStatus, domain.JobEvent]{
		From:  []domain.JobStatus{domain.JobDraft, domain.JobClosed},
		Event: domain.JobEventPublish,
		To:    domain.JobPublished,
	},
	Rule[domain.JobStatus, domain.JobEvent]{
		From:  []domain.JobStatus{domain.JobDraft, domain.JobPending, domain.JobPublished},
		Event: domain.JobEventClose,
		To:    domain.JobClosed,
	},
	Rule[domain.JobStatus, domain.JobEvent]{
		From:  []domain.JobStatus{domain.JobPublished},
		Event: domain.JobEventExhaust,
		To:    domain.JobClosed,
	},
)

// Approvals is the job approval lifecycle.
var Approvals = NewMachine[domain.ApprovalStatus, domain.ApprovalEvent]("job_approval",
	Rule[domain.ApprovalStatus, domain.ApprovalEvent]{
		From:  []domain.ApprovalStatus{domain.ApprovalPending, domain.ApprovalApproved, domain.ApprovalRejected},
		Event: domain.ApprovalEventSubmit,
		To:    domain.ApprovalPending,
	},
	Rule[domain.ApprovalStatus, domain.ApprovalEvent]{
		From:  []domain.ApprovalStatus{domain.ApprovalPending},
		Event: domain.ApprovalEventApprove,
		To:    domain.ApprovalApproved,
	},
	Rule[domain.ApprovalStatus, domain.ApprovalEvent]{
		From:  []domain.ApprovalStatus{domain.ApprovalPending},
		Event: domain.ApprovalEventReject,
		To:    domain.ApprovalRejected,
	},
)

// Applications is the hiring pipeline.
var Applications = NewMachine[domain.ApplicationStatus, domain.ApplicationEvent]("application",
	Rule[domain.ApplicationStatus, domain.ApplicationEvent]{
		From:  []domain.ApplicationStatus{domain.ApplicationApplied},
		Event: domain.ApplicationEventScreenInterview,
		To:    domain.ApplicationInterview,
	},
	Rule[domain.ApplicationStatus, domain.ApplicationEvent]{
		From:  []domain.ApplicationStatus{domain.ApplicationApplied},
		Event: domain.ApplicationEventScreenReject,
		To:    domain.ApplicationRejected,
	},
	Rule[domain.ApplicationStatus, domain.ApplicationEvent]{
		From:  []domain.ApplicationStatus{domain.ApplicationInterview},
		Event: domain.ApplicationEventScoreSubmitted,
		To:    domain.ApplicationScoreSubmitted,
	},
	Rule[domain.ApplicationStatus, domain.ApplicationEvent]{
		From:  []domain.ApplicationStatus{domain.ApplicationScoreSubmitted},
		Event: domain.ApplicationEventSelect,
		To:    domain.ApplicationSelected,
	},
	Rule[domain.ApplicationStatus, domain.ApplicationEvent]{
		From: []domain.ApplicationStatus{
			domain.ApplicationInterview,
			domain.ApplicationScoreSubmitted,
			domain.ApplicationSelected,
			domain.ApplicationOfferLetterSent,
			domain.ApplicationOfferAccepted,
		},
		Event: domain.ApplicationEventReject,
		To:    domain.ApplicationRejected,
	},
	Rule[domain.ApplicationStatus, domain.ApplicationEvent]{
		From:  []domain.ApplicationStatus{domain.ApplicationScoreSubmitted, domain.ApplicationSelected},
		Event: domain.ApplicationEventOfferSent,
		To:    domain.ApplicationOfferLetterSent,
	},
	Rule[domain.ApplicationStatus, domain.ApplicationEvent]{
		From:  []domain.ApplicationStatus{domain.ApplicationOfferLetterSent},
		Event: domain.ApplicationEventOfferAccepted,
		To:    domain.ApplicationOfferAccepted,
	},
	Rule[domain.ApplicationStatus, domain.ApplicationEvent]{
		From:  []domain.ApplicationStatus{domain.ApplicationOfferLetterSent, domain.ApplicationOfferAccepted},
		Event: domain.ApplicationEventOfferDeclined,
		To:    domain.ApplicationRejected,
	},
	Rule[domain.ApplicationStatus, domain.ApplicationEvent]{
		From:  []domain.ApplicationStatus{domain.ApplicationOfferAccepted},
		Event: domain.ApplicationEventHire,
		To:    domain.ApplicationHired,
	},
).WithFree(domain.ApplicationEventMoveStage)

// Interviews is the interview lifecycle.
var Interviews = NewMachine[domain.InterviewStatus, domain.InterviewEvent]("interview",
	Rule[domain.InterviewStatus, domain.InterviewEvent]{
		From:  []domain.InterviewStatus{domain.InterviewScheduled},
		Event: domain.InterviewEventComplete,
		To:    domain.InterviewCompleted,
	},
	Rule[domain.InterviewStatus, domain.InterviewEvent]{
		From:  []domain.InterviewStatus{domain.InterviewScheduled},
		Event: domain.InterviewEventCancel,
		To:    domain.InterviewCancelled,
	},
)

// Scorecards is the one-way finalization of a scorecard.
var Scorecards = NewMachine[domain.ScorecardState, domain.ScorecardEvent]("scorecard",
	Rule[domain.ScorecardState, domain.ScorecardEvent]{
		From:  []domain.ScorecardState{domain.ScorecardOpen},
		Event: domain.ScorecardEventFinalize,
		To:    domain.ScorecardFinal,
	},
)

// Offers is the offer lifecycle.
var Offers = NewMachine[domain.OfferStatus, domain.OfferEvent]("offer",
	Rule[domain.OfferStatus, domain.OfferEvent]{
		From:  []domain.OfferStatus{domain.OfferDraft},
		Event: domain.OfferEventSend,
		To:    domain.OfferSent,
	},
	Rule[domain.OfferStatus, domain.OfferEvent]{
		From:  []domain.OfferStatus{domain.OfferSent},
		Event: domain.OfferEventAccept,
		To:    domain.OfferAccepted,
	},
	Rule[domain.OfferStatus, domain.OfferEvent]{
		From:  []domain.OfferStatus{domain.OfferSent, domain.OfferAccepted},
		Event: domain.OfferEventDecline,
		To:    domain.OfferDeclined,
	},
)

// OfferEligible lists application statuses that may receive a new or sent offer.
func OfferEligible() []domain.ApplicationStatus {
	return Applications.Sources(domain.ApplicationEventOfferSent)
}

// AcceptsApplications reports whether a job in status s takes new applicants.
func AcceptsApplications(s domain.JobStatus) bool {
	return s == domain.JobPublished
}
