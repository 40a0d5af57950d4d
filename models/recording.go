package models

import (
	"time"

	"gorm.io/gorm"
)

// Recording lifecycle states. Only the call processor moves a recording
// between them; uploads always start at StatusPending.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// CallRecording stores an uploaded customer call. The audio file name is
// immutable after creation; status is mutated only by the call processor.
type CallRecording struct {
	ID              string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Title           string         `gorm:"size:255;not null" json:"title"`
	AudioFile       string         `gorm:"size:500;not null" json:"audio_file"` // file name under the call_recordings media dir
	AgentID         string         `gorm:"type:uuid;not null;index" json:"agent_id"`
	CustomerPhone   string         `gorm:"size:20" json:"customer_phone,omitempty"`
	UploadedAt      time.Time      `gorm:"not null" json:"uploaded_at"`
	DurationSeconds int            `gorm:"default:0" json:"duration_seconds"`
	Status          string         `gorm:"size:20;not null;default:'pending';check:status IN ('pending', 'processing', 'completed', 'failed')" json:"status"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Agent    Agent         `gorm:"foreignKey:AgentID" json:"agent,omitempty"`
	Analysis *CallAnalysis `gorm:"foreignKey:CallRecordingID;constraint:OnDelete:CASCADE" json:"analysis,omitempty"`
}
