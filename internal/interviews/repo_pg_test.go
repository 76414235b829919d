package interviews

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"recruit-backend/internal/domain"
	"recruit-backend/internal/members"
	"recruit-backend/internal/shared/storage/memdb"
	"recruit-backend/internal/workflow"
)

func newPGService(t *testing.T) (*Service, sqlmock.Sqlmock, *fakeMeetings) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	store := memdb.New()
	if err := store.SeedCompany(context.Background(), domain.Company{ID: "co-1"},
		domain.Member{UserID: "iv-1", Role: domain.RoleInterviewer, Active: true},
	); err != nil {
		t.Fatalf("SeedCompany: %v", err)
	}
	meetings := &fakeMeetings{link: "https://meet.example/pg"}
	svc := NewService(&PGRepo{DB: sqlDB}, members.NewService(members.NewMemoryRepo(store)), meetings, nil)
	svc.NewID = func() string { return "iv-new" }
	svc.Now = func() time.Time { return baseTime }
	return svc, mock, meetings
}

func TestPGScheduleLocksApplicationAndInserts(t *testing.T) {
	svc, mock, meetings := newPGService(t)
	at := baseTime.Add(2 * time.Hour)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM applications a JOIN job_requisitions j ON j.id = a.job_id WHERE a.id = \\$1 AND j.company_id = \\$2 FOR UPDATE OF a").
		WithArgs("app-1", "co-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "job_id", "candidate_id", "status"}).
			AddRow("app-1", "job-1", "cand-1", "interview"))
	mock.ExpectQuery("SELECT EXISTS \\(SELECT 1 FROM interviews WHERE application_id = \\$1 AND status = \\$2\\)").
		WithArgs("app-1", "scheduled").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery("INSERT INTO interviews").
		WithArgs("iv-new", "app-1", "iv-1", at, 45, "scheduled", "", "https://meet.example/pg").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectCommit()

	iv, err := svc.Schedule(context.Background(), recruiter, ScheduleInput{
		ApplicationID: "app-1", InterviewerID: "iv-1", ScheduledAt: at, DurationMinutes: 45,
	})
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if iv.MeetingLink != meetings.link || meetings.calls != 1 {
		t.Fatalf("expected generated link, got %+v", iv)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGScheduleRejectsBusyApplication(t *testing.T) {
	svc, mock, meetings := newPGService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE OF a").
		WithArgs("app-1", "co-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "job_id", "candidate_id", "status"}).
			AddRow("app-1", "job-1", "cand-1", "interview"))
	mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	_, err := svc.Schedule(context.Background(), recruiter, ScheduleInput{
		ApplicationID: "app-1", InterviewerID: "iv-1", ScheduledAt: baseTime.Add(time.Hour),
	})
	if !errors.Is(err, workflow.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if meetings.calls != 0 {
		t.Fatalf("meeting provider must not be called")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func expectFinalizeLock(mock sqlmock.Sqlmock, rows *sqlmock.Rows) {
	mock.ExpectQuery("FROM scorecards s .+ AND i.status IN \\(\\$3\\) AND a.status IN \\(\\$4\\) AND j.company_id = \\$5 FOR UPDATE OF s, i, a").
		WithArgs("sc-1", "iv-1", "scheduled", "interview", "co-1").
		WillReturnRows(rows)
}

func TestPGFinalizeLocksThenRunsGuardedStatement(t *testing.T) {
	svc, mock, _ := newPGService(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	expectFinalizeLock(mock, sqlmock.NewRows([]string{"id"}).AddRow("sc-1"))
	mock.ExpectQuery(regexp.QuoteMeta("WITH sc AS ( UPDATE scorecards s SET is_final = TRUE")).
		WithArgs("sc-1", "iv-1", "scheduled", "interview", "co-1",
			"completed", "scheduled",
			"interview score submited", "strong_hire", "hire", "interview").
		WillReturnRows(sqlmock.NewRows([]string{"interview_id", "application_id"}).AddRow("int-1", "app-1"))
	mock.ExpectCommit()
	mock.ExpectQuery("FROM scorecards s JOIN interviews i").
		WithArgs("sc-1", "co-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "interview_id", "interviewer_id", "ratings", "recommendation", "notes", "is_final", "finalized_at", "created_at",
		}).AddRow("sc-1", "int-1", "iv-1", []byte(`{"coding":5}`), "hire", "", true, now, now))

	sc, err := svc.Finalize(context.Background(), interviewer, "sc-1")
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if !sc.IsFinal || sc.Ratings["coding"] != 5 {
		t.Fatalf("unexpected scorecard: %+v", sc)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGFinalizeGuardsEveryUpdatedRow(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherFunc(func(_, actual string) error {
		if !strings.HasPrefix(strings.TrimSpace(actual), "WITH sc AS") {
			return nil
		}
		for _, guard := range []string{
			"WHERE interviews.id = sc.interview_id AND interviews.status IN ($7)",
			"WHERE applications.id = sc.application_id AND applications.status IN ($11)",
		} {
			if !strings.Contains(actual, guard) {
				return fmt.Errorf("missing guard %q", guard)
			}
		}
		return nil
	})))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer sqlDB.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("lock").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("sc-1"))
	mock.ExpectQuery("promote").WillReturnRows(sqlmock.NewRows([]string{"interview_id", "application_id"}).AddRow("int-1", "app-1"))
	mock.ExpectCommit()

	repo := &PGRepo{DB: sqlDB}
	got, ok, err := repo.Finalize(context.Background(), "co-1", "sc-1", "iv-1", Finalize{
		InterviewFrom:   []domain.InterviewStatus{domain.InterviewScheduled},
		InterviewTo:     domain.InterviewCompleted,
		ApplicationFrom: []domain.ApplicationStatus{domain.ApplicationInterview},
		ApplicationTo:   domain.ApplicationScoreSubmitted,
		Positive:        []domain.Recommendation{domain.RecommendStrongHire, domain.RecommendHire},
	})
	if err != nil || !ok {
		t.Fatalf("Finalize: ok=%v err=%v", ok, err)
	}
	if got.ApplicationID != "app-1" || got.InterviewID != "int-1" {
		t.Fatalf("unexpected result: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGFinalizeWithoutRowsIsNotFound(t *testing.T) {
	svc, mock, _ := newPGService(t)

	mock.ExpectBegin()
	expectFinalizeLock(mock, sqlmock.NewRows([]string{"id"}))
	mock.ExpectCommit()

	if _, err := svc.Finalize(context.Background(), interviewer, "sc-1"); !errors.Is(err, workflow.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGFinalizeLockedButUnchangedRollsBack(t *testing.T) {
	svc, mock, _ := newPGService(t)

	mock.ExpectBegin()
	expectFinalizeLock(mock, sqlmock.NewRows([]string{"id"}).AddRow("sc-1"))
	mock.ExpectQuery("WITH sc AS").
		WillReturnRows(sqlmock.NewRows([]string{"interview_id", "application_id"}))
	mock.ExpectRollback()

	if _, err := svc.Finalize(context.Background(), interviewer, "sc-1"); !errors.Is(err, workflow.ErrInconsistent) {
		t.Fatalf("expected consistency fault, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGSubmitScorecardConditionalInsert(t *testing.T) {
	svc, mock, _ := newPGService(t)

	mock.ExpectQuery("INSERT INTO scorecards .+ SELECT .+ WHERE i.id = \\$5 AND i.interviewer_id = \\$6 AND j.company_id = \\$7 AND i.status IN \\(\\$8\\)").
		WithArgs("iv-new", []byte(`{"coding":4}`), "hire", "", "int-1", "iv-1", "co-1", "scheduled").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}))

	_, err := svc.SubmitScorecard(context.Background(), interviewer, "int-1", ScorecardInput{
		Ratings: map[string]int{"coding": 4}, Recommendation: domain.RecommendHire,
	})
	if !errors.Is(err, workflow.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
