package db

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestGuardBuild(t *testing.T) {
	g := Guard{
		Table:     "applications",
		ID:        "app-1",
		From:      []string{"interview", "selected"},
		To:        "rejected",
		Set:       []string{"final_decision_at = now()", "current_stage_id = ?"},
		SetArgs:   []any{"stage-9"},
		Where:     "job_id IN (SELECT id FROM job_requisitions WHERE company_id = ?)",
		WhereArgs: []any{"co-1"},
	}
	query, args, err := g.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := "UPDATE applications SET status = $1, updated_at = now(), final_decision_at = now(), current_stage_id = $2" +
		" WHERE id = $3 AND status IN ($4, $5) AND (job_id IN (SELECT id FROM job_requisitions WHERE company_id = $6))"
	if query != want {
		t.Fatalf("query mismatch\n got: %s\nwant: %s", query, want)
	}
	wantArgs := []any{"rejected", "stage-9", "app-1", "interview", "selected", "co-1"}
	if len(args) != len(wantArgs) {
		t.Fatalf("args = %v", args)
	}
	for i := range args {
		if args[i] != wantArgs[i] {
			t.Fatalf("arg %d = %v, want %v", i, args[i], wantArgs[i])
		}
	}
}

func TestGuardBuildRequiresSources(t *testing.T) {
	if _, _, err := (Guard{Table: "offers", ID: "o", To: "sent"}).Build(); err == nil {
		t.Fatalf("expected error without source states")
	}
}

func TestTryTransitionReportsRowsAffected(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = mockDB.Close() })

	mock.ExpectExec(regexp.QuoteMeta("UPDATE offers SET status = $1")).
		WithArgs("sent", "offer-1", "draft").
		WillReturnResult(sqlmock.NewResult(0, 0))

	n, err := TryTransition(context.Background(), mockDB, Guard{Table: "offers", ID: "offer-1", From: []string{"draft"}, To: "sent"})
	if err != nil {
		t.Fatalf("TryTransition: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 rows, got %d", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestWithTxCommitsAndRollsBack(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = mockDB.Close() })

	mock.ExpectBegin()
	mock.ExpectCommit()
	if err := WithTx(context.Background(), mockDB, func(tx *sql.Tx) error { return nil }); err != nil {
		t.Fatalf("WithTx commit: %v", err)
	}

	boom := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectRollback()
	if err := WithTx(context.Background(), mockDB, func(tx *sql.Tx) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}

	mock.ExpectBegin()
	mock.ExpectRollback()
	func() {
		defer func() {
			if recover() == nil {
				t.Fatalf("expected panic to propagate")
			}
		}()
		_ = WithTx(context.Background(), mockDB, func(tx *sql.Tx) error { panic("explode") })
	}()

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestRebind(t *testing.T) {
	got := Rebind("SELECT 1 FROM t WHERE a = ? AND b IN (" + Placeholders(3) + ")")
	if got != "SELECT 1 FROM t WHERE a = $1 AND b IN ($2, $3, $4)" {
		t.Fatalf("Rebind = %s", got)
	}
}
