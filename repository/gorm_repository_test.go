package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/insurelens/call-analyzer/backend/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockRepository(t *testing.T) (*GORMRepository, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("gorm.Open() error = %v", err)
	}

	return NewGORMRepository(gormDB), mock
}

func TestGetRecordingByID(t *testing.T) {
	repo, mock := newMockRepository(t)

	rows := sqlmock.NewRows([]string{"id", "title", "agent_id", "status", "uploaded_at"}).
		AddRow("rec-1", "Claim complaint", "agent-1", models.StatusCompleted, time.Now())
	mock.ExpectQuery(`SELECT (.+) FROM "call_recordings"`).
		WillReturnRows(rows)

	recording, err := repo.GetRecordingByID(context.Background(), "rec-1")
	if err != nil {
		t.Fatalf("GetRecordingByID() error = %v", err)
	}
	if recording == nil {
		t.Fatal("expected recording, got nil")
	}
	if recording.Title != "Claim complaint" || recording.Status != models.StatusCompleted {
		t.Errorf("recording = %+v", recording)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestGetRecordingByIDNotFound(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT (.+) FROM "call_recordings"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	recording, err := repo.GetRecordingByID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetRecordingByID() error = %v", err)
	}
	if recording != nil {
		t.Errorf("expected nil for missing recording, got %+v", recording)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestUpdateRecordingStatus(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "call_recordings" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.UpdateRecordingStatus(context.Background(), "rec-1", models.StatusProcessing); err != nil {
		t.Fatalf("UpdateRecordingStatus() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestUpsertAnalysis(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "call_analyses" (.+) ON CONFLICT \("call_recording_id"\) DO UPDATE SET`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("analysis-1"))
	// the agent row is locked before its metrics are recomputed
	mock.ExpectQuery(`SELECT (.+) FROM "agents" (.+) FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "employee_id", "full_name"}).
			AddRow("agent-1", "EMP-1001", "Dana Reeve"))
	mock.ExpectQuery(`SELECT COUNT\(\*\) AS count, COALESCE\(AVG\(coverage_score\), 0\) AS avg_score FROM "call_analyses"`).
		WillReturnRows(sqlmock.NewRows([]string{"count", "avg_score"}).AddRow(3, 7.5))
	mock.ExpectExec(`UPDATE "agents" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	analysis := &models.CallAnalysis{
		CallRecordingID:   "rec-1",
		AgentID:           "agent-1",
		TranscriptionText: "Hello My claim was denied",
		CoverageScore:     7,
		Sentiment:         models.SentimentNegative,
		ConfidenceScore:   0.85,
	}
	if err := repo.UpsertAnalysis(context.Background(), analysis); err != nil {
		t.Fatalf("UpsertAnalysis() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestUpsertAnalysisRollsBackOnLockFailure(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "call_analyses"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("analysis-1"))
	mock.ExpectQuery(`SELECT (.+) FROM "agents" (.+) FOR UPDATE`).
		WillReturnError(gorm.ErrRecordNotFound)
	mock.ExpectRollback()

	analysis := &models.CallAnalysis{
		CallRecordingID: "rec-1",
		AgentID:         "missing",
		Sentiment:       models.SentimentNeutral,
	}
	if err := repo.UpsertAnalysis(context.Background(), analysis); err == nil {
		t.Fatal("expected error when the agent row cannot be locked")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestGetAgentByEmployeeIDNotFound(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT (.+) FROM "agents"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	agent, err := repo.GetAgentByEmployeeID(context.Background(), "EMP-9999")
	if err != nil {
		t.Fatalf("GetAgentByEmployeeID() error = %v", err)
	}
	if agent != nil {
		t.Errorf("expected nil for unknown employee, got %+v", agent)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
