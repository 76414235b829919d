package domain

import "time"

// JobStatus is the lifecycle state of a job requisition.
type JobStatus string

const (
	JobDraft     JobStatus = "draft"
	JobPending   JobStatus = "pending"
	JobPublished JobStatus = "published"
	JobRejected  JobStatus = "rejected"
	JobClosed    JobStatus = "closed"
)

// JobEvent names a transition of a job requisition.
type JobEvent string

const (
	JobEventSubmit  JobEvent = "submit"
	JobEventApprove JobEvent = "approve"
	JobEventReject  JobEvent = "reject"
	JobEventPublish JobEvent = "publish"
	JobEventClose   JobEvent = "close"
	// JobEventExhaust closes a job whose last seat was consumed.
	JobEventExhaust JobEvent = "exhaust"
)

// ApprovalStatus is the state of a single job approval request.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// ApprovalEvent names a transition of a job approval.
type ApprovalEvent string

const (
	ApprovalEventSubmit  ApprovalEvent = "submit"
	ApprovalEventApprove ApprovalEvent = "approve"
	ApprovalEventReject  ApprovalEvent = "reject"
)

// Job is a requisition owned by a company with a finite number of open seats.
type Job struct {
	ID             string     `json:"id"`
	CompanyID      string     `json:"companyId"`
	CreatorID      string     `json:"creatorId"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Status         JobStatus  `json:"status"`
	PositionsCount int        `json:"positionsCount"`
	PublishedAt    *time.Time `json:"publishedAt,omitempty"`
	ClosedAt       *time.Time `json:"closedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// JobApproval pairs a job with one approver. There is at most one per pair.
type JobApproval struct {
	ID         string         `json:"id"`
	JobID      string         `json:"jobId"`
	ApproverID string         `json:"approverId"`
	Status     ApprovalStatus `json:"status"`
	Comments   string         `json:"comments,omitempty"`
	DecidedAt  *time.Time     `json:"decidedAt,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

// JobEditable reports whether job fields may still be changed.
func JobEditable(s JobStatus) bool {
	return s == JobDraft || s == JobPending
}
