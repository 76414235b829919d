package applications

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

const appColumns = `a.id, a.job_id, j.company_id, a.candidate_id, a.status, a.current_stage_id,
    a.offer_recommended, a.cover_letter, a.applied_at, a.screening_decision_at, a.final_decision_at, a.updated_at`

const uniqueViolation = "23505"

// companyScope restricts an applications guard to jobs of one company.
const companyScope = "job_id IN (SELECT id FROM job_requisitions WHERE company_id = ?)"

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Get(ctx context.Context, companyID, applicationID string) (domain.Application, error) {
	query := `SELECT ` + appColumns + `
FROM applications a
JOIN job_requisitions j ON j.id = a.job_id
WHERE a.id = $1 AND j.company_id = $2`
	return r.getOne(ctx, query, applicationID, companyID)
}

func (r *PGRepo) GetForCandidate(ctx context.Context, candidateID, applicationID string) (domain.Application, error) {
	query := `SELECT ` + appColumns + `
FROM applications a
JOIN job_requisitions j ON j.id = a.job_id
WHERE a.id = $1 AND a.candidate_id = $2`
	return r.getOne(ctx, query, applicationID, candidateID)
}

func (r *PGRepo) getOne(ctx context.Context, query string, args ...any) (domain.Application, error) {
	app, err := scanApplication(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Application{}, workflow.ErrNotFound
		}
		return domain.Application{}, err
	}
	return app, nil
}

func (r *PGRepo) ListByJob(ctx context.Context, companyID, jobID string, f ListFilter) ([]domain.Application, error) {
	query := `SELECT ` + appColumns + `
FROM applications a
JOIN job_requisitions j ON j.id = a.job_id
WHERE a.job_id = ? AND j.company_id = ?`
	return r.list(ctx, query, f, jobID, companyID)
}

func (r *PGRepo) ListByCandidate(ctx context.Context, candidateID string, f ListFilter) ([]domain.Application, error) {
	query := `SELECT ` + appColumns + `
FROM applications a
JOIN job_requisitions j ON j.id = a.job_id
WHERE a.candidate_id = ?`
	return r.list(ctx, query, f, candidateID)
}

func (r *PGRepo) list(ctx context.Context, query string, f ListFilter, args ...any) ([]domain.Application, error) {
	if f.Status != "" {
		query += ` AND a.status = ?`
		args = append(args, string(f.Status))
	}
	query += ` ORDER BY a.applied_at DESC, a.id LIMIT ? OFFSET ?`
	args = append(args, f.Limit, f.Offset)

	rows, err := r.DB.QueryContext(ctx, db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, app)
	}
	return out, rows.Err()
}

func (r *PGRepo) Move(ctx context.Context, companyID, applicationID string, m Move) (int64, error) {
	return db.TryTransition(ctx, r.DB, moveGuard(companyID, applicationID, m))
}

func (r *PGRepo) CloseJob(ctx context.Context, jobID string, from []domain.JobStatus) (int64, error) {
	return db.TryTransition(ctx, r.DB, closeGuard(jobID, from))
}

func (r *PGRepo) InTx(ctx context.Context, fn func(tx Tx) error) error {
	return db.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		return fn(&pgTx{tx: tx})
	})
}

type pgTx struct {
	tx *sql.Tx
}

func (t *pgTx) LockJob(ctx context.Context, jobID string) (domain.Job, error) {
	const query = `
SELECT id, company_id, status, positions_count
FROM job_requisitions
WHERE id = $1
FOR UPDATE`
	var job domain.Job
	var status string
	err := t.tx.QueryRowContext(ctx, query, jobID).Scan(&job.ID, &job.CompanyID, &status, &job.PositionsCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Job{}, workflow.ErrNotFound
		}
		return domain.Job{}, fmt.Errorf("lock job: %w", err)
	}
	job.Status = domain.JobStatus(status)
	return job, nil
}

func (t *pgTx) HasApplied(ctx context.Context, jobID, candidateID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM applications WHERE job_id = $1 AND candidate_id = $2)`
	var exists bool
	if err := t.tx.QueryRowContext(ctx, query, jobID, candidateID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check existing application: %w", err)
	}
	return exists, nil
}

func (t *pgTx) Insert(ctx context.Context, app domain.Application) (domain.Application, error) {
	const query = `
INSERT INTO applications (id, job_id, candidate_id, status, cover_letter)
VALUES ($1, $2, $3, $4, $5)
RETURNING applied_at, updated_at`
	err := t.tx.QueryRowContext(ctx, query, app.ID, app.JobID, app.CandidateID, string(app.Status), app.CoverLetter).
		Scan(&app.AppliedAt, &app.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.Application{}, workflow.Conflict("candidate already applied to this job")
		}
		return domain.Application{}, fmt.Errorf("insert application: %w", err)
	}
	return app, nil
}

func (t *pgTx) LockForHire(ctx context.Context, companyID, applicationID string) (domain.Application, domain.Job, error) {
	query := `SELECT ` + appColumns + `, j.status, j.positions_count
FROM applications a
JOIN job_requisitions j ON j.id = a.job_id
WHERE a.id = $1 AND j.company_id = $2
FOR UPDATE`
	var job domain.Job
	var jobStatus string
	row := t.tx.QueryRowContext(ctx, query, applicationID, companyID)
	app, err := scanApplication(row, &jobStatus, &job.PositionsCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Application{}, domain.Job{}, workflow.ErrNotFound
		}
		return domain.Application{}, domain.Job{}, fmt.Errorf("lock application: %w", err)
	}
	job.ID = app.JobID
	job.CompanyID = app.CompanyID
	job.Status = domain.JobStatus(jobStatus)
	return app, job, nil
}

func (t *pgTx) Move(ctx context.Context, companyID, applicationID string, m Move) (int64, error) {
	return db.TryTransition(ctx, t.tx, moveGuard(companyID, applicationID, m))
}

func (t *pgTx) TakeSeat(ctx context.Context, jobID string) (int, bool, error) {
	const query = `
UPDATE job_requisitions
SET positions_count = positions_count - 1, updated_at = now()
WHERE id = $1 AND positions_count > 0
RETURNING positions_count`
	var remaining int
	err := t.tx.QueryRowContext(ctx, query, jobID).Scan(&remaining)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("take seat: %w", err)
	}
	return remaining, true, nil
}

func (t *pgTx) CloseJob(ctx context.Context, jobID string, from []domain.JobStatus) (int64, error) {
	return db.TryTransition(ctx, t.tx, closeGuard(jobID, from))
}

func moveGuard(companyID, applicationID string, m Move) db.Guard {
	g := db.Guard{
		Table:     "applications",
		ID:        applicationID,
		From:      workflow.Strings(m.From),
		To:        string(m.To),
		Where:     companyScope,
		WhereArgs: []any{companyID},
	}
	switch m.Stamp {
	case StampScreening:
		g.Set = append(g.Set, "screening_decision_at = now()")
	case StampFinal:
		g.Set = append(g.Set, "final_decision_at = now()")
	}
	if m.StageID != nil {
		g.Set = append(g.Set, "current_stage_id = ?")
		g.SetArgs = append(g.SetArgs, db.NullString(*m.StageID))
	}
	return g
}

func closeGuard(jobID string, from []domain.JobStatus) db.Guard {
	return db.Guard{
		Table: "job_requisitions",
		ID:    jobID,
		From:  workflow.Strings(from),
		To:    string(domain.JobClosed),
		Set:   []string{"closed_at = now()"},
	}
}

func scanApplication(s db.Scanner, extra ...any) (domain.Application, error) {
	var app domain.Application
	var status string
	var stage sql.NullString
	var screenedAt, decidedAt sql.NullTime
	dest := []any{
		&app.ID,
		&app.JobID,
		&app.CompanyID,
		&app.CandidateID,
		&status,
		&stage,
		&app.OfferRecommended,
		&app.CoverLetter,
		&app.AppliedAt,
		&screenedAt,
		&decidedAt,
		&app.UpdatedAt,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return domain.Application{}, err
	}
	app.Status = domain.ApplicationStatus(status)
	app.CurrentStageID = stage.String
	app.ScreeningDecisionAt = db.TimePtr(screenedAt)
	app.FinalDecisionAt = db.TimePtr(decidedAt)
	return app, nil
}
