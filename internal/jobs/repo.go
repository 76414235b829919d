// Package jobs manages job requisitions and their approvals.
package jobs

import (
	"context"

	"recruit-backend/internal/domain"
)

// Patch carries the editable fields of a job. Nil fields are left unchanged.
type Patch struct {
	Title          *string
	Description    *string
	PositionsCount *int
}

// Empty reports whether p changes nothing.
func (p Patch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.PositionsCount == nil
}

// ListFilter narrows List.
type ListFilter struct {
	Status domain.JobStatus
	Limit  int
	Offset int
}

// Move is a guarded job status change.
type Move struct {
	From []domain.JobStatus
	To   domain.JobStatus
	// RequireOpenings adds positions_count > 0 to the guard.
	RequireOpenings bool
}

// Decision is a guarded approval status change by its approver.
type Decision struct {
	From     []domain.ApprovalStatus
	To       domain.ApprovalStatus
	Comments string
}

// Repo defines persistence operations for job requisitions. Every method is
// scoped to a company; guarded writes report the affected row count.
type Repo interface {
	Create(ctx context.Context, job domain.Job) (domain.Job, error)
	Get(ctx context.Context, companyID, jobID string) (domain.Job, error)
	List(ctx context.Context, companyID string, f ListFilter) ([]domain.Job, error)
	ListApprovals(ctx context.Context, companyID, jobID string) ([]domain.JobApproval, error)
	Edit(ctx context.Context, companyID, jobID string, editable []domain.JobStatus, p Patch) (int64, error)
	Move(ctx context.Context, companyID, jobID string, m Move) (int64, error)
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the set of writes available inside one transaction.
type Tx interface {
	Move(ctx context.Context, companyID, jobID string, m Move) (int64, error)
	// LockApproval returns the approval for the pair and locks it until the
	// transaction ends. It returns workflow.ErrNotFound when there is none.
	LockApproval(ctx context.Context, jobID, approverID string) (domain.JobApproval, error)
	InsertApproval(ctx context.Context, a domain.JobApproval) error
	ResetApproval(ctx context.Context, approvalID string, from []domain.ApprovalStatus, to domain.ApprovalStatus) (int64, error)
	Decide(ctx context.Context, companyID, jobID, approverID string, d Decision) (int64, error)
}
