package jobs

import (
	"time"

	"recruit-backend/internal/domain"
)

type createRequest struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	PositionsCount int    `json:"positionsCount"`
}

type editRequest struct {
	Title          *string `json:"title"`
	Description    *string `json:"description"`
	PositionsCount *int    `json:"positionsCount"`
}

type submitRequest struct {
	ApproverID string `json:"approverId"`
}

type decisionRequest struct {
	Comments string `json:"comments"`
}

// JobResponse is the outward-facing representation of a job requisition.
type JobResponse struct {
	JobID          string     `json:"jobId"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Status         string     `json:"status"`
	PositionsCount int        `json:"positionsCount"`
	CreatorID      string     `json:"creatorId"`
	PublishedAt    *time.Time `json:"publishedAt,omitempty"`
	ClosedAt       *time.Time `json:"closedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// ApprovalResponse is the outward-facing representation of a job approval.
type ApprovalResponse struct {
	ApprovalID string     `json:"approvalId"`
	JobID      string     `json:"jobId"`
	ApproverID string     `json:"approverId"`
	Status     string     `json:"status"`
	Comments   string     `json:"comments,omitempty"`
	DecidedAt  *time.Time `json:"decidedAt,omitempty"`
}

func toResponse(job domain.Job) JobResponse {
	return JobResponse{
		JobID:          job.ID,
		Title:          job.Title,
		Description:    job.Description,
		Status:         string(job.Status),
		PositionsCount: job.PositionsCount,
		CreatorID:      job.CreatorID,
		PublishedAt:    job.PublishedAt,
		ClosedAt:       job.ClosedAt,
		CreatedAt:      job.CreatedAt,
		UpdatedAt:      job.UpdatedAt,
	}
}

func toApprovalResponse(a domain.JobApproval) ApprovalResponse {
	return ApprovalResponse{
		ApprovalID: a.ID,
		JobID:      a.JobID,
		ApproverID: a.ApproverID,
		Status:     string(a.Status),
		Comments:   a.Comments,
		DecidedAt:  a.DecidedAt,
	}
}
