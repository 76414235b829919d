package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"recruit-backend/internal/domain"
	"recruit-backend/internal/shared/storage/db"
	"recruit-backend/internal/workflow"
)

const jobColumns = `id, company_id, creator_id, title, description, status, positions_count,
    published_at, closed_at, created_at, updated_at`

const uniqueViolation = "23505"

const approvalColumns = `a.id, a.job_id, a.approver_id, a.status, a.comments, a.decided_at, a.created_at, a.updated_at`

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a job and returns it with database timestamps.
func (r *PGRepo) Create(ctx context.Context, job domain.Job) (domain.Job, error) {
	const query = `
INSERT INTO job_requisitions (id, company_id, creator_id, title, description, status, positions_count)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING created_at, updated_at`
	err := r.DB.QueryRowContext(ctx, query,
		job.ID,
		job.CompanyID,
		job.CreatorID,
		job.Title,
		job.Description,
		string(job.Status),
		job.PositionsCount,
	).Scan(&job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return domain.Job{}, fmt.Errorf("insert job: %w", err)
	}
	return job, nil
}

// Get returns one job in company scope.
func (r *PGRepo) Get(ctx context.Context, companyID, jobID string) (domain.Job, error) {
	query := `SELECT ` + jobColumns + `
FROM job_requisitions
WHERE id = $1 AND company_id = $2`
	job, err := scanJob(r.DB.QueryRowContext(ctx, query, jobID, companyID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Job{}, workflow.ErrNotFound
		}
		return domain.Job{}, err
	}
	return job, nil
}

// List returns the company's jobs, newest first.
func (r *PGRepo) List(ctx context.Context, companyID string, f ListFilter) ([]domain.Job, error) {
	query := `SELECT ` + jobColumns + `
FROM job_requisitions
WHERE company_id = ?`
	args := []any{companyID}
	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(f.Status))
	}
	query += ` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`
	args = append(args, f.Limit, f.Offset)

	rows, err := r.DB.QueryContext(ctx, db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

// ListApprovals returns the approvals of a job in company scope.
func (r *PGRepo) ListApprovals(ctx context.Context, companyID, jobID string) ([]domain.JobApproval, error) {
	query := `SELECT ` + approvalColumns + `
FROM job_approvals a
JOIN job_requisitions j ON j.id = a.job_id
WHERE a.job_id = $1 AND j.company_id = $2
ORDER BY a.created_at, a.id`
	rows, err := r.DB.QueryContext(ctx, query, jobID, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.JobApproval
	for rows.Next() {
		a, err := scanApproval(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Edit applies p while the job is in one of editable.
func (r *PGRepo) Edit(ctx context.Context, companyID, jobID string, editable []domain.JobStatus, p Patch) (int64, error) {
	query := `
UPDATE job_requisitions
SET title = COALESCE(?, title),
    description = COALESCE(?, description),
    positions_count = COALESCE(?, positions_count),
    updated_at = now()
WHERE id = ? AND company_id = ? AND status IN (` + db.Placeholders(len(editable)) + `)`

	var title, description sql.NullString
	var positions sql.NullInt64
	if p.Title != nil {
		title = sql.NullString{String: *p.Title, Valid: true}
	}
	if p.Description != nil {
		description = sql.NullString{String: *p.Description, Valid: true}
	}
	if p.PositionsCount != nil {
		positions = sql.NullInt64{Int64: int64(*p.PositionsCount), Valid: true}
	}
	args := []any{title, description, positions, jobID, companyID}
	args = append(args, db.StringArgs(workflow.Strings(editable))...)

	res, err := r.DB.ExecContext(ctx, db.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("edit job: %w", err)
	}
	return res.RowsAffected()
}

// Move applies a guarded status change outside any caller transaction.
func (r *PGRepo) Move(ctx context.Context, companyID, jobID string, m Move) (int64, error) {
	return db.TryTransition(ctx, r.DB, moveGuard(companyID, jobID, m))
}

// InTx runs fn inside one database transaction.
func (r *PGRepo) InTx(ctx context.Context, fn func(tx Tx) error) error {
	return db.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		return fn(&pgTx{tx: tx})
	})
}

type pgTx struct {
	tx *sql.Tx
}

func (t *pgTx) Move(ctx context.Context, companyID, jobID string, m Move) (int64, error) {
	return db.TryTransition(ctx, t.tx, moveGuard(companyID, jobID, m))
}

func (t *pgTx) LockApproval(ctx context.Context, jobID, approverID string) (domain.JobApproval, error) {
	query := `SELECT ` + approvalColumns + `
FROM job_approvals a
WHERE a.job_id = $1 AND a.approver_id = $2
FOR UPDATE`
	a, err := scanApproval(t.tx.QueryRowContext(ctx, query, jobID, approverID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.JobApproval{}, workflow.ErrNotFound
		}
		return domain.JobApproval{}, fmt.Errorf("lock approval: %w", err)
	}
	return a, nil
}

func (t *pgTx) InsertApproval(ctx context.Context, a domain.JobApproval) error {
	const query = `
INSERT INTO job_approvals (id, job_id, approver_id, status)
VALUES ($1, $2, $3, $4)`
	if _, err := t.tx.ExecContext(ctx, query, a.ID, a.JobID, a.ApproverID, string(a.Status)); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return workflow.Conflict("approver already assigned to this job")
		}
		return fmt.Errorf("insert approval: %w", err)
	}
	return nil
}

func (t *pgTx) ResetApproval(ctx context.Context, approvalID string, from []domain.ApprovalStatus, to domain.ApprovalStatus) (int64, error) {
	return db.TryTransition(ctx, t.tx, db.Guard{
		Table: "job_approvals",
		ID:    approvalID,
		From:  workflow.Strings(from),
		To:    string(to),
		Set:   []string{"comments = ''", "decided_at = NULL"},
	})
}

func (t *pgTx) Decide(ctx context.Context, companyID, jobID, approverID string, d Decision) (int64, error) {
	query := `
UPDATE job_approvals
SET status = ?, comments = ?, decided_at = now(), updated_at = now()
WHERE job_id = ? AND approver_id = ?
  AND status IN (` + db.Placeholders(len(d.From)) + `)
  AND job_id IN (SELECT id FROM job_requisitions WHERE company_id = ?)`
	args := []any{string(d.To), d.Comments, jobID, approverID}
	args = append(args, db.StringArgs(workflow.Strings(d.From))...)
	args = append(args, companyID)

	res, err := t.tx.ExecContext(ctx, db.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("decide approval: %w", err)
	}
	return res.RowsAffected()
}

func moveGuard(companyID, jobID string, m Move) db.Guard {
	g := db.Guard{
		Table:     "job_requisitions",
		ID:        jobID,
		From:      workflow.Strings(m.From),
		To:        string(m.To),
		Where:     "company_id = ?",
		WhereArgs: []any{companyID},
	}
	if m.RequireOpenings {
		g.Where += " AND positions_count > 0"
	}
	switch m.To {
	case domain.JobPublished:
		g.Set = []string{"published_at = now()", "closed_at = NULL"}
	case domain.JobClosed:
		g.Set = []string{"closed_at = now()"}
	}
	return g
}

func scanJob(s db.Scanner) (domain.Job, error) {
	var job domain.Job
	var status string
	var publishedAt, closedAt sql.NullTime
	err := s.Scan(
		&job.ID,
		&job.CompanyID,
		&job.CreatorID,
		&job.Title,
		&job.Description,
		&status,
		&job.PositionsCount,
		&publishedAt,
		&closedAt,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		return domain.Job{}, err
	}
	job.Status = domain.JobStatus(status)
	job.PublishedAt = db.TimePtr(publishedAt)
	job.ClosedAt = db.TimePtr(closedAt)
	return job, nil
}

func scanApproval(s db.Scanner) (domain.JobApproval, error) {
	var a domain.JobApproval
	var status string
	var decidedAt sql.NullTime
	err := s.Scan(&a.ID, &a.JobID, &a.ApproverID, &status, &a.Comments, &decidedAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return domain.JobApproval{}, err
	}
	a.Status = domain.ApprovalStatus(status)
	a.DecidedAt = db.TimePtr(decidedAt)
	return a, nil
}
