package models

import (
	"time"

	"gorm.io/gorm"
)

// Sentiment values allowed on a CallAnalysis
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// CallAnalysis holds the AI analysis of one call recording. Exactly one
// analysis exists per recording; re-processing a recording overwrites it
// (upsert keyed on call_recording_id).
type CallAnalysis struct {
	ID              string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CallRecordingID string `gorm:"type:uuid;not null;uniqueIndex" json:"call_recording_id"`
	AgentID         string `gorm:"type:uuid;not null;index" json:"agent_id"`

	// Transcription data
	TranscriptionText string `gorm:"type:text;not null" json:"transcription_text"`
	AgentText         string `gorm:"type:text" json:"agent_text"`    // agent's lines, one utterance per line
	CustomerText      string `gorm:"type:text" json:"customer_text"` // customer's lines, one utterance per line

	// Analysis results
	CoverageScore    float64 `gorm:"not null" json:"coverage_score"` // 0-10, how well the agent handled the complaint
	ScoreExplanation string  `gorm:"type:text" json:"score_explanation"`
	Sentiment        string  `gorm:"size:20;not null;check:sentiment IN ('positive', 'neutral', 'negative')" json:"sentiment"`
	ConfidenceScore  float64 `gorm:"not null" json:"confidence_score"` // 0-1

	// Key insights
	KeyIssues              StringList `gorm:"type:jsonb;default:'[]'" json:"key_issues"`
	ComplianceCheck        BoolMap    `gorm:"type:jsonb;default:'{}'" json:"compliance_check"`
	ImprovementSuggestions string     `gorm:"type:text" json:"improvement_suggestions,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	CallRecording CallRecording `gorm:"foreignKey:CallRecordingID" json:"call_recording,omitempty"`
	Agent         Agent         `gorm:"foreignKey:AgentID" json:"agent,omitempty"`
}
