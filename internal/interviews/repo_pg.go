package interviews

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"recruit-backend/internal/domain"
	"recruit-backend/internal/shared/storage/db"
	"recruit-backend/internal/workflow"
)

const interviewColumns = `i.id, i.application_id, i.interviewer_id, i.scheduled_at, i.duration_minutes,
    i.status, i.notes, i.meeting_link, i.created_at, i.updated_at`

const scorecardColumns = `s.id, s.interview_id, s.interviewer_id, s.ratings, s.recommendation,
    s.notes, s.is_final, s.finalized_at, s.created_at`

// interviewScope restricts an interviews guard to one company.
const interviewScope = "application_id IN (SELECT a.id FROM applications a JOIN job_requisitions j ON j.id = a.job_id WHERE j.company_id = ?)"

const uniqueViolation = "23505"

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Get(ctx context.Context, companyID, interviewID string) (domain.Interview, error) {
	query := `SELECT ` + interviewColumns + `
FROM interviews i
JOIN applications a ON a.id = i.application_id
JOIN job_requisitions j ON j.id = a.job_id
WHERE i.id = $1 AND j.company_id = $2`
	iv, err := scanInterview(r.DB.QueryRowContext(ctx, query, interviewID, companyID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Interview{}, workflow.ErrNotFound
		}
		return domain.Interview{}, err
	}
	return iv, nil
}

func (r *PGRepo) GetScorecard(ctx context.Context, companyID, scorecardID string) (domain.Scorecard, error) {
	query := `SELECT ` + scorecardColumns + `
FROM scorecards s
JOIN interviews i ON i.id = s.interview_id
JOIN applications a ON a.id = i.application_id
JOIN job_requisitions j ON j.id = a.job_id
WHERE s.id = $1 AND j.company_id = $2`
	sc, err := scanScorecard(r.DB.QueryRowContext(ctx, query, scorecardID, companyID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Scorecard{}, workflow.ErrNotFound
		}
		return domain.Scorecard{}, err
	}
	return sc, nil
}

func (r *PGRepo) ListScorecards(ctx context.Context, companyID, interviewID string) ([]domain.Scorecard, error) {
	query := `SELECT ` + scorecardColumns + `
FROM scorecards s
JOIN interviews i ON i.id = s.interview_id
JOIN applications a ON a.id = i.application_id
JOIN job_requisitions j ON j.id = a.job_id
WHERE s.interview_id = $1 AND j.company_id = $2
ORDER BY s.created_at, s.id`
	rows, err := r.DB.QueryContext(ctx, query, interviewID, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Scorecard
	for rows.Next() {
		sc, err := scanScorecard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (r *PGRepo) Update(ctx context.Context, companyID, interviewID string, from []domain.InterviewStatus, p Patch) (int64, error) {
	var duration sql.NullInt64
	if p.DurationMinutes != nil {
		duration = sql.NullInt64{Int64: int64(*p.DurationMinutes), Valid: true}
	}
	var notes, link sql.NullString
	if p.Notes != nil {
		notes = sql.NullString{String: *p.Notes, Valid: true}
	}
	if p.MeetingLink != nil {
		link = sql.NullString{String: *p.MeetingLink, Valid: true}
	}
	// The status is rewritten to itself; the guard only pins the source states.
	return db.TryTransition(ctx, r.DB, db.Guard{
		Table: "interviews",
		ID:    interviewID,
		From:  workflow.Strings(from),
		To:    string(domain.InterviewScheduled),
		Set: []string{
			"scheduled_at = COALESCE(?, scheduled_at)",
			"duration_minutes = COALESCE(?, duration_minutes)",
			"notes = COALESCE(?, notes)",
			"meeting_link = COALESCE(?, meeting_link)",
		},
		SetArgs:   []any{db.NullTime(p.ScheduledAt), duration, notes, link},
		Where:     interviewScope,
		WhereArgs: []any{companyID},
	})
}

func (r *PGRepo) Move(ctx context.Context, companyID, interviewID string, m Move) (int64, error) {
	return db.TryTransition(ctx, r.DB, db.Guard{
		Table:     "interviews",
		ID:        interviewID,
		From:      workflow.Strings(m.From),
		To:        string(m.To),
		Where:     interviewScope,
		WhereArgs: []any{companyID},
	})
}

func (r *PGRepo) InsertScorecard(ctx context.Context, companyID string, in NewScorecard) (domain.Scorecard, error) {
	sc := in.Scorecard
	ratings, err := json.Marshal(sc.Ratings)
	if err != nil {
		return domain.Scorecard{}, fmt.Errorf("encode ratings: %w", err)
	}
	query := `
INSERT INTO scorecards (id, interview_id, interviewer_id, ratings, recommendation, notes)
SELECT ?, i.id, i.interviewer_id, ?, ?, ?
FROM interviews i
JOIN applications a ON a.id = i.application_id
JOIN job_requisitions j ON j.id = a.job_id
WHERE i.id = ? AND i.interviewer_id = ? AND j.company_id = ? AND i.status IN (` + db.Placeholders(len(in.InterviewFrom)) + `)
RETURNING created_at`
	args := []any{sc.ID, ratings, string(sc.Recommendation), sc.Notes, sc.InterviewID, sc.InterviewerID, companyID}
	args = append(args, db.StringArgs(workflow.Strings(in.InterviewFrom))...)

	if err := r.DB.QueryRowContext(ctx, db.Rebind(query), args...).Scan(&sc.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Scorecard{}, workflow.ErrNotFound
		}
		return domain.Scorecard{}, fmt.Errorf("insert scorecard: %w", err)
	}
	sc.IsFinal = false
	return sc, nil
}

// Finalize locks the scorecard, its interview and its application with the
// preconditions applied, then promotes all three in one guarded statement.
func (r *PGRepo) Finalize(ctx context.Context, companyID, scorecardID, interviewerID string, f Finalize) (Finalized, bool, error) {
	var out Finalized
	ok := false
	err := db.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		locked, err := lockFinalize(ctx, tx, companyID, scorecardID, interviewerID, f)
		if err != nil {
			return err
		}
		if !locked {
			return nil
		}
		if out, err = promoteFinalize(ctx, tx, companyID, scorecardID, interviewerID, f); err != nil {
			return err
		}
		ok = true
		return nil
	})
	if err != nil {
		return Finalized{}, false, err
	}
	return out, ok, nil
}

func lockFinalize(ctx context.Context, tx *sql.Tx, companyID, scorecardID, interviewerID string, f Finalize) (bool, error) {
	query := `
SELECT s.id
FROM scorecards s
JOIN interviews i ON i.id = s.interview_id AND i.interviewer_id = s.interviewer_id
JOIN applications a ON a.id = i.application_id
JOIN job_requisitions j ON j.id = a.job_id
WHERE s.id = ? AND s.interviewer_id = ? AND s.is_final = FALSE
  AND i.status IN (` + db.Placeholders(len(f.InterviewFrom)) + `)
  AND a.status IN (` + db.Placeholders(len(f.ApplicationFrom)) + `)
  AND j.company_id = ?
FOR UPDATE OF s, i, a`
	args := []any{scorecardID, interviewerID}
	args = append(args, db.StringArgs(workflow.Strings(f.InterviewFrom))...)
	args = append(args, db.StringArgs(workflow.Strings(f.ApplicationFrom))...)
	args = append(args, companyID)

	var id string
	if err := tx.QueryRowContext(ctx, db.Rebind(query), args...).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("lock scorecard: %w", err)
	}
	return true, nil
}

func promoteFinalize(ctx context.Context, tx *sql.Tx, companyID, scorecardID, interviewerID string, f Finalize) (Finalized, error) {
	ivIn := db.Placeholders(len(f.InterviewFrom))
	appIn := db.Placeholders(len(f.ApplicationFrom))
	query := `
WITH sc AS (
    UPDATE scorecards s
    SET is_final = TRUE, finalized_at = now(), updated_at = now()
    FROM interviews i, applications a, job_requisitions j
    WHERE s.id = ? AND s.interviewer_id = ? AND s.is_final = FALSE
      AND i.id = s.interview_id AND i.interviewer_id = s.interviewer_id
      AND i.status IN (` + ivIn + `)
      AND a.id = i.application_id
      AND a.status IN (` + appIn + `)
      AND j.id = a.job_id AND j.company_id = ?
    RETURNING s.interview_id, i.application_id, s.recommendation
), iv AS (
    UPDATE interviews
    SET status = ?, updated_at = now()
    FROM sc
    WHERE interviews.id = sc.interview_id AND interviews.status IN (` + ivIn + `)
    RETURNING interviews.id
), app AS (
    UPDATE applications
    SET status = ?, offer_recommended = sc.recommendation IN (` + db.Placeholders(len(f.Positive)) + `), updated_at = now()
    FROM sc
    WHERE applications.id = sc.application_id AND applications.status IN (` + appIn + `)
    RETURNING applications.id
)
SELECT sc.interview_id, sc.application_id
FROM sc
JOIN iv ON iv.id = sc.interview_id
JOIN app ON app.id = sc.application_id`

	ivFrom := db.StringArgs(workflow.Strings(f.InterviewFrom))
	appFrom := db.StringArgs(workflow.Strings(f.ApplicationFrom))
	args := []any{scorecardID, interviewerID}
	args = append(args, ivFrom...)
	args = append(args, appFrom...)
	args = append(args, companyID, string(f.InterviewTo))
	args = append(args, ivFrom...)
	args = append(args, string(f.ApplicationTo))
	args = append(args, db.StringArgs(workflow.Strings(f.Positive))...)
	args = append(args, appFrom...)

	var out Finalized
	err := tx.QueryRowContext(ctx, db.Rebind(query), args...).Scan(&out.InterviewID, &out.ApplicationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Finalized{}, workflow.Inconsistent("finalize scorecard: locked rows did not update")
		}
		return Finalized{}, fmt.Errorf("finalize scorecard: %w", err)
	}
	return out, nil
}

func (r *PGRepo) InTx(ctx context.Context, fn func(tx Tx) error) error {
	return db.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		return fn(&pgTx{tx: tx})
	})
}

type pgTx struct {
	tx *sql.Tx
}

func (t *pgTx) LockApplication(ctx context.Context, companyID, applicationID string) (domain.Application, error) {
	const query = `
SELECT a.id, a.job_id, a.candidate_id, a.status
FROM applications a
JOIN job_requisitions j ON j.id = a.job_id
WHERE a.id = $1 AND j.company_id = $2
FOR UPDATE OF a`
	var app domain.Application
	var status string
	err := t.tx.QueryRowContext(ctx, query, applicationID, companyID).Scan(&app.ID, &app.JobID, &app.CandidateID, &status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Application{}, workflow.ErrNotFound
		}
		return domain.Application{}, fmt.Errorf("lock application: %w", err)
	}
	app.CompanyID = companyID
	app.Status = domain.ApplicationStatus(status)
	return app, nil
}

func (t *pgTx) HasScheduled(ctx context.Context, applicationID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM interviews WHERE application_id = $1 AND status = $2)`
	var exists bool
	if err := t.tx.QueryRowContext(ctx, query, applicationID, string(domain.InterviewScheduled)).Scan(&exists); err != nil {
		return false, fmt.Errorf("check scheduled interviews: %w", err)
	}
	return exists, nil
}

func (t *pgTx) Insert(ctx context.Context, iv domain.Interview) (domain.Interview, error) {
	const query = `
INSERT INTO interviews (id, application_id, interviewer_id, scheduled_at, duration_minutes, status, notes, meeting_link)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING created_at, updated_at`
	err := t.tx.QueryRowContext(ctx, query,
		iv.ID, iv.ApplicationID, iv.InterviewerID, iv.ScheduledAt, iv.DurationMinutes,
		string(iv.Status), iv.Notes, iv.MeetingLink,
	).Scan(&iv.CreatedAt, &iv.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.Interview{}, workflow.Conflict("application already has a scheduled interview")
		}
		return domain.Interview{}, fmt.Errorf("insert interview: %w", err)
	}
	return iv, nil
}

func scanInterview(s db.Scanner) (domain.Interview, error) {
	var iv domain.Interview
	var status string
	err := s.Scan(
		&iv.ID,
		&iv.ApplicationID,
		&iv.InterviewerID,
		&iv.ScheduledAt,
		&iv.DurationMinutes,
		&status,
		&iv.Notes,
		&iv.MeetingLink,
		&iv.CreatedAt,
		&iv.UpdatedAt,
	)
	if err != nil {
		return domain.Interview{}, err
	}
	iv.Status = domain.InterviewStatus(status)
	return iv, nil
}

func scanScorecard(s db.Scanner) (domain.Scorecard, error) {
	var sc domain.Scorecard
	var ratings []byte
	var rec string
	var finalizedAt sql.NullTime
	err := s.Scan(
		&sc.ID,
		&sc.InterviewID,
		&sc.InterviewerID,
		&ratings,
		&rec,
		&sc.Notes,
		&sc.IsFinal,
		&finalizedAt,
		&sc.CreatedAt,
	)
	if err != nil {
		return domain.Scorecard{}, err
	}
	if len(ratings) > 0 {
		if err := json.Unmarshal(ratings, &sc.Ratings); err != nil {
			return domain.Scorecard{}, fmt.Errorf("decode ratings: %w", err)
		}
	}
	sc.Recommendation = domain.Recommendation(rec)
	sc.FinalizedAt = db.TimePtr(finalizedAt)
	return sc, nil
}
