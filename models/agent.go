package models

import (
	"time"

	"gorm.io/gorm"
)

// Agent represents an insurance call-center agent whose recorded calls are analyzed
type Agent struct {
	ID         string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	EmployeeID string     `gorm:"size:50;uniqueIndex;not null" json:"employee_id"`
	FullName   string     `gorm:"size:255;not null" json:"full_name"`
	Department string     `gorm:"size:100" json:"department,omitempty"`
	HireDate   *time.Time `json:"hire_date,omitempty"`

	// Derived performance metrics, recomputed from call_analyses whenever
	// an analysis for this agent is written. Never edited directly.
	AvgCoverageScore  float64 `gorm:"default:0" json:"avg_coverage_score"`
	TotalCallsHandled int64   `gorm:"default:0" json:"total_calls_handled"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	CallRecordings   []CallRecording   `gorm:"foreignKey:AgentID" json:"call_recordings,omitempty"`
	CallAnalyses     []CallAnalysis    `gorm:"foreignKey:AgentID" json:"call_analyses,omitempty"`
	TrainingSessions []TrainingSession `gorm:"foreignKey:AgentID" json:"training_sessions,omitempty"`
}
