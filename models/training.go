package models

import (
	"time"

	"gorm.io/gorm"
)

// Training session lifecycle: pending until the evaluator has scored the
// agent's response, then completed.
const (
	TrainingPending   = "pending"
	TrainingCompleted = "completed"
)

// TrainingSession is a text-based training drill: a simulated customer query
// the agent answers in writing, scored by the training evaluator.
type TrainingSession struct {
	ID            string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	AgentID       string `gorm:"type:uuid;not null;index" json:"agent_id"`
	Title         string `gorm:"size:255;not null" json:"title"`
	QueryText     string `gorm:"type:text;not null" json:"query_text"`
	AgentResponse string `gorm:"type:text" json:"agent_response,omitempty"`

	// AI evaluation, all 0-10; nil until evaluated
	ToneScore     *float64 `json:"tone_score,omitempty"`
	ClarityScore  *float64 `json:"clarity_score,omitempty"`
	AccuracyScore *float64 `json:"accuracy_score,omitempty"`
	Feedback      string   `gorm:"type:text" json:"feedback,omitempty"`

	Status      string         `gorm:"size:20;not null;default:'pending';check:status IN ('pending', 'completed')" json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Agent Agent `gorm:"foreignKey:AgentID" json:"agent,omitempty"`
}
