package offers

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

const offerColumns = `o.id, o.application_id, o.status, o.base_salary, o.currency, o.start_date, o.notes,
    o.document_url, o.document_key, o.esign_url, o.sent_at, o.responded_at, o.created_at, o.updated_at`

const uniqueViolation = "23505"

const (
	companyScope   = "application_id IN (SELECT a.id FROM applications a JOIN job_requisitions j ON j.id = a.job_id WHERE j.company_id = ?)"
	candidateScope = "application_id IN (SELECT id FROM applications WHERE candidate_id = ?)"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Get(ctx context.Context, scope Scope, offerID string) (domain.Offer, error) {
	return getOffer(ctx, r.DB, scope, offerID)
}

func (r *PGRepo) InTx(ctx context.Context, fn func(tx Tx) error) error {
	return db.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		return fn(&pgTx{tx: tx})
	})
}

func getOffer(ctx context.Context, q db.Querier, scope Scope, offerID string) (domain.Offer, error) {
	where, arg := scopeClause(scope)
	query := db.Rebind(`SELECT ` + offerColumns + `
FROM offers o
WHERE o.id = ? AND o.` + where)
	offer, err := scanOffer(q.QueryRowContext(ctx, query, offerID, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Offer{}, workflow.ErrNotFound
		}
		return domain.Offer{}, err
	}
	return offer, nil
}

type pgTx struct {
	tx *sql.Tx
}

func (t *pgTx) LockApplication(ctx context.Context, companyID, applicationID string) (Target, error) {
	const query = `
SELECT a.id, a.job_id, j.company_id, a.candidate_id, a.status, c.name, j.title, COALESCE(u.name, '')
FROM applications a
JOIN job_requisitions j ON j.id = a.job_id
JOIN companies c ON c.id = j.company_id
LEFT JOIN users u ON u.id = a.candidate_id
WHERE a.id = $1 AND j.company_id = $2
FOR UPDATE OF a`
	var target Target
	var status string
	app := &target.Application
	err := t.tx.QueryRowContext(ctx, query, applicationID, companyID).Scan(
		&app.ID, &app.JobID, &app.CompanyID, &app.CandidateID, &status,
		&target.CompanyName, &target.JobTitle, &target.CandidateName,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Target{}, workflow.ErrNotFound
		}
		return Target{}, fmt.Errorf("lock application: %w", err)
	}
	app.Status = domain.ApplicationStatus(status)
	return target, nil
}

func (t *pgTx) HasLiveOffer(ctx context.Context, applicationID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM offers WHERE application_id = $1 AND status <> $2)`
	var exists bool
	if err := t.tx.QueryRowContext(ctx, query, applicationID, string(domain.OfferDeclined)).Scan(&exists); err != nil {
		return false, fmt.Errorf("check live offer: %w", err)
	}
	return exists, nil
}

func (t *pgTx) Insert(ctx context.Context, offer domain.Offer) (domain.Offer, error) {
	const query = `
INSERT INTO offers (id, application_id, status, base_salary, currency, start_date, notes, esign_url)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING created_at, updated_at`
	err := t.tx.QueryRowContext(ctx, query,
		offer.ID, offer.ApplicationID, string(offer.Status), offer.BaseSalary, offer.Currency,
		offer.StartDate, offer.Notes, db.NullString(offer.ESignURL),
	).Scan(&offer.CreatedAt, &offer.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.Offer{}, workflow.Conflict("application already has a live offer")
		}
		return domain.Offer{}, fmt.Errorf("insert offer: %w", err)
	}
	return offer, nil
}

func (t *pgTx) SetDocument(ctx context.Context, offerID, url, key string) error {
	const query = `UPDATE offers SET document_url = $1, document_key = $2, updated_at = now() WHERE id = $3`
	res, err := t.tx.ExecContext(ctx, query, url, key, offerID)
	if err != nil {
		return fmt.Errorf("store offer document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	return workflow.Affected(n)
}

func (t *pgTx) Get(ctx context.Context, scope Scope, offerID string) (domain.Offer, error) {
	return getOffer(ctx, t.tx, scope, offerID)
}

func (t *pgTx) Move(ctx context.Context, scope Scope, offerID string, m Move) (int64, error) {
	where, arg := scopeClause(scope)
	g := db.Guard{
		Table:     "offers",
		ID:        offerID,
		From:      workflow.Strings(m.From),
		To:        string(m.To),
		Where:     where,
		WhereArgs: []any{arg},
	}
	switch m.Stamp {
	case StampSent:
		g.Set = []string{"sent_at = now()"}
	case StampResponded:
		g.Set = []string{"responded_at = now()"}
	}
	return db.TryTransition(ctx, t.tx, g)
}

func (t *pgTx) MoveApplication(ctx context.Context, applicationID string, m AppMove) (int64, error) {
	return db.TryTransition(ctx, t.tx, db.Guard{
		Table: "applications",
		ID:    applicationID,
		From:  workflow.Strings(m.From),
		To:    string(m.To),
	})
}

func scopeClause(scope Scope) (string, string) {
	if scope.CompanyID != "" {
		return companyScope, scope.CompanyID
	}
	return candidateScope, scope.CandidateID
}

func scanOffer(s db.Scanner) (domain.Offer, error) {
	var o domain.Offer
	var status string
	var docURL, docKey, esign sql.NullString
	var sentAt, respondedAt sql.NullTime
	err := s.Scan(
		&o.ID,
		&o.ApplicationID,
		&status,
		&o.BaseSalary,
		&o.Currency,
		&o.StartDate,
		&o.Notes,
		&docURL,
		&docKey,
		&esign,
		&sentAt,
		&respondedAt,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return domain.Offer{}, err
	}
	o.Status = domain.OfferStatus(status)
	o.DocumentURL = docURL.String
	o.DocumentKey = docKey.String
	o.ESignURL = esign.String
	o.SentAt = db.TimePtr(sentAt)
	o.RespondedAt = db.TimePtr(respondedAt)
	return o, nil
}
