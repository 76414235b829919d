// Package applications runs the hiring pipeline of a candidate's application.
package applications

import (
	"context"

	"recruit-backend/internal/domain"
)

// Stamp selects the decision timestamp a move records.
type Stamp int

const (
	StampNone Stamp = iota
	StampScreening
	StampFinal
)

// Move is a guarded application status change.
type Move struct {
	From  []domain.ApplicationStatus
	To    domain.ApplicationStatus
	Stamp Stamp
	// StageID, when set, replaces current_stage_id. An empty value clears it.
	StageID *string
}

// ListFilter narrows list queries.
type ListFilter struct {
	Status domain.ApplicationStatus
	Limit  int
	Offset int
}

// Repo defines persistence operations for applications.
type Repo interface {
	Get(ctx context.Context, companyID, applicationID string) (domain.Application, error)
	GetForCandidate(ctx context.Context, candidateID, applicationID string) (domain.Application, error)
	ListByJob(ctx context.Context, companyID, jobID string, f ListFilter) ([]domain.Application, error)
	ListByCandidate(ctx context.Context, candidateID string, f ListFilter) ([]domain.Application, error)
	Move(ctx context.Context, companyID, applicationID string, m Move) (int64, error)
	// CloseJob is a standalone guarded move of a job to closed.
	CloseJob(ctx context.Context, jobID string, from []domain.JobStatus) (int64, error)
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the set of reads and writes available inside one transaction.
type Tx interface {
	// LockJob reads the job and holds its row lock until the transaction ends.
	LockJob(ctx context.Context, jobID string) (domain.Job, error)
	HasApplied(ctx context.Context, jobID, candidateID string) (bool, error)
	Insert(ctx context.Context, app domain.Application) (domain.Application, error)
	// LockForHire locks the application together with its job in company scope.
	LockForHire(ctx context.Context, companyID, applicationID string) (domain.Application, domain.Job, error)
	Move(ctx context.Context, companyID, applicationID string, m Move) (int64, error)
	// TakeSeat decrements positions_count when it is positive and returns the
	// remaining count. ok is false when no seat was left.
	TakeSeat(ctx context.Context, jobID string) (remaining int, ok bool, err error)
	CloseJob(ctx context.Context, jobID string, from []domain.JobStatus) (int64, error)
}
