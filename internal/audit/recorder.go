// Package audit records who changed what through the API.
package audit

import (
	"context"
	"database/sql"
	"time"

	"recruit-backend/internal/shared/telemetry"
)

// Entry is one mutating request.
type Entry struct {
	RequestID  string
	ActorID    string
	CompanyID  string
	Role       string
	Method     string
	Path       string
	EntityType string
	EntityID   string
	StatusCode int
	At         time.Time
}

// Recorder persists entries. Record never fails the caller.
type Recorder interface {
	Record(ctx context.Context, e Entry)
}

// LogRecorder writes entries to the structured log.
type LogRecorder struct{}

func (LogRecorder) Record(_ context.Context, e Entry) {
	telemetry.Info("audit.entry", fields(e))
}

// PGRecorder inserts entries into audit_logs.
type PGRecorder struct {
	DB *sql.DB
}

func (r PGRecorder) Record(ctx context.Context, e Entry) {
	const query = `
INSERT INTO audit_logs (request_id, actor_id, company_id, role, method, path, entity_type, entity_id, status_code)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.DB.ExecContext(ctx, query,
		e.RequestID, e.ActorID, e.CompanyID, e.Role, e.Method, e.Path, e.EntityType, e.EntityID, e.StatusCode)
	if err != nil {
		f := fields(e)
		f["error"] = err.Error()
		telemetry.Error("audit.persist_failed", f)
	}
}

// Multi fans an entry out to several recorders.
type Multi []Recorder

func (m Multi) Record(ctx context.Context, e Entry) {
	for _, r := range m {
		if r != nil {
			r.Record(ctx, e)
		}
	}
}

func fields(e Entry) map[string]any {
	return map[string]any{
		"request_id":  e.RequestID,
		"actor_id":    e.ActorID,
		"company_id":  e.CompanyID,
		"role":        e.Role,
		"method":      e.Method,
		"path":        e.Path,
		"entity_type": e.EntityType,
		"entity_id":   e.EntityID,
		"status":      e.StatusCode,
	}
}
