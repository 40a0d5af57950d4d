package repository

import (
	"context"
	"log/slog"

	"github.com/insurelens/call-analyzer/backend/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GORMRepository struct {
	db *gorm.DB
}

func NewGORMRepository(db *gorm.DB) *GORMRepository {
	return &GORMRepository{db: db}
}

// AutoMigrate runs database migrations
func (r *GORMRepository) AutoMigrate() error {
	return r.db.AutoMigrate(
		&models.Agent{},
		&models.CallRecording{},
		&models.CallAnalysis{},
		&models.Report{},
		&models.TrainingSession{},
	)
}

// Agent operations
func (r *GORMRepository) CreateAgent(ctx context.Context, agent *models.Agent) error {
	if err := r.db.WithContext(ctx).Create(agent).Error; err != nil {
		slog.Error("Failed to create agent", "error", err)
		return err
	}
	slog.Info("Agent created", "agent_id", agent.ID, "employee_id", agent.EmployeeID)
	return nil
}

func (r *GORMRepository) GetAgentByID(ctx context.Context, id string) (*models.Agent, error) {
	var agent models.Agent
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&agent).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get agent by ID", "error", err, "agent_id", id)
		return nil, err
	}
	return &agent, nil
}

func (r *GORMRepository) GetAgentByEmployeeID(ctx context.Context, employeeID string) (*models.Agent, error) {
	var agent models.Agent
	if err := r.db.WithContext(ctx).Where("employee_id = ?", employeeID).First(&agent).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get agent by employee ID", "error", err, "employee_id", employeeID)
		return nil, err
	}
	return &agent, nil
}

// Recording operations
func (r *GORMRepository) CreateRecording(ctx context.Context, recording *models.CallRecording) error {
	if err := r.db.WithContext(ctx).Create(recording).Error; err != nil {
		slog.Error("Failed to create call recording", "error", err)
		return err
	}
	slog.Info("Call recording created", "recording_id", recording.ID, "agent_id", recording.AgentID)
	return nil
}

func (r *GORMRepository) GetRecordingByID(ctx context.Context, id string) (*models.CallRecording, error) {
	var recording models.CallRecording
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&recording).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get call recording", "error", err, "recording_id", id)
		return nil, err
	}
	return &recording, nil
}

// UpdateRecordingStatus persists a status transition before the pipeline
// proceeds, so a crash mid-run is observable as stuck-in-processing.
func (r *GORMRepository) UpdateRecordingStatus(ctx context.Context, recordingID, status string) error {
	if err := r.db.WithContext(ctx).
		Model(&models.CallRecording{}).
		Where("id = ?", recordingID).
		Update("status", status).Error; err != nil {
		slog.Error("Failed to update recording status", "error", err, "recording_id", recordingID, "status", status)
		return err
	}
	slog.Info("Recording status updated", "recording_id", recordingID, "status", status)
	return nil
}

// UpsertAnalysis writes the analysis for a recording, overwriting any prior
// analysis for the same recording, and recomputes the owning agent's derived
// metrics in the same transaction. The agent row is locked for the recompute
// so concurrent completions for one agent cannot lose updates.
func (r *GORMRepository) UpsertAnalysis(ctx context.Context, analysis *models.CallAnalysis) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "call_recording_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"agent_id", "transcription_text", "agent_text", "customer_text",
				"coverage_score", "score_explanation", "sentiment", "confidence_score",
				"key_issues", "compliance_check", "improvement_suggestions", "updated_at",
			}),
		}).Create(analysis).Error; err != nil {
			return err
		}
		return recomputeAgentMetrics(tx, analysis.AgentID)
	})
	if err != nil {
		slog.Error("Failed to upsert call analysis", "error", err, "recording_id", analysis.CallRecordingID)
		return err
	}
	slog.Info("Call analysis upserted", "recording_id", analysis.CallRecordingID, "agent_id", analysis.AgentID)
	return nil
}

// recomputeAgentMetrics recalculates the agent's aggregate metrics from all
// currently stored analyses. Must run inside a transaction.
func recomputeAgentMetrics(tx *gorm.DB, agentID string) error {
	var agent models.Agent
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", agentID).
		First(&agent).Error; err != nil {
		return err
	}

	var stats struct {
		Count    int64
		AvgScore float64
	}
	if err := tx.Model(&models.CallAnalysis{}).
		Select("COUNT(*) AS count, COALESCE(AVG(coverage_score), 0) AS avg_score").
		Where("agent_id = ?", agentID).
		Scan(&stats).Error; err != nil {
		return err
	}

	return tx.Model(&models.Agent{}).
		Where("id = ?", agentID).
		Updates(map[string]interface{}{
			"avg_coverage_score":  stats.AvgScore,
			"total_calls_handled": stats.Count,
		}).Error
}

func (r *GORMRepository) GetAnalysisByID(ctx context.Context, id string) (*models.CallAnalysis, error) {
	var analysis models.CallAnalysis
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Preload("CallRecording").
		Preload("Agent").
		First(&analysis).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get call analysis", "error", err, "analysis_id", id)
		return nil, err
	}
	return &analysis, nil
}

func (r *GORMRepository) GetAnalysisByRecordingID(ctx context.Context, recordingID string) (*models.CallAnalysis, error) {
	var analysis models.CallAnalysis
	err := r.db.WithContext(ctx).
		Where("call_recording_id = ?", recordingID).
		Preload("CallRecording").
		Preload("Agent").
		First(&analysis).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get analysis by recording", "error", err, "recording_id", recordingID)
		return nil, err
	}
	return &analysis, nil
}

// Report operations
func (r *GORMRepository) CreateReport(ctx context.Context, report *models.Report) error {
	if err := r.db.WithContext(ctx).Create(report).Error; err != nil {
		slog.Error("Failed to create report", "error", err)
		return err
	}
	slog.Info("Report created", "report_id", report.ID, "report_type", report.ReportType)
	return nil
}

func (r *GORMRepository) GetReportByID(ctx context.Context, id string) (*models.Report, error) {
	var report models.Report
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&report).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get report", "error", err, "report_id", id)
		return nil, err
	}
	return &report, nil
}

func (r *GORMRepository) UpdateReport(ctx context.Context, report *models.Report) error {
	if err := r.db.WithContext(ctx).Save(report).Error; err != nil {
		slog.Error("Failed to update report", "error", err, "report_id", report.ID)
		return err
	}
	slog.Info("Report updated", "report_id", report.ID, "excel_file", report.ExcelFile)
	return nil
}

func (r *GORMRepository) DeleteReport(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Report{}).Error; err != nil {
		slog.Error("Failed to delete report", "error", err, "report_id", id)
		return err
	}
	return nil
}

// Training session operations
func (r *GORMRepository) CreateTrainingSession(ctx context.Context, session *models.TrainingSession) error {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		slog.Error("Failed to create training session", "error", err)
		return err
	}
	slog.Info("Training session created", "session_id", session.ID, "agent_id", session.AgentID)
	return nil
}

func (r *GORMRepository) GetTrainingSessionByID(ctx context.Context, id string) (*models.TrainingSession, error) {
	var session models.TrainingSession
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&session).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get training session", "error", err, "session_id", id)
		return nil, err
	}
	return &session, nil
}

func (r *GORMRepository) UpdateTrainingSession(ctx context.Context, session *models.TrainingSession) error {
	if err := r.db.WithContext(ctx).Save(session).Error; err != nil {
		slog.Error("Failed to update training session", "error", err, "session_id", session.ID)
		return err
	}
	slog.Info("Training session updated", "session_id", session.ID, "status", session.Status)
	return nil
}
