package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/insurelens/call-analyzer/backend/models"
)

// Transcriber converts a stored audio file into a speaker-split transcript.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*Transcript, error)
}

// ConversationAnalyzer scores a transcript for coverage, sentiment and
// compliance.
type ConversationAnalyzer interface {
	AnalyzeConversation(ctx context.Context, transcript *Transcript) (*ConversationAnalysis, error)
}

// PipelineStore is the persistence surface the pipeline needs.
type PipelineStore interface {
	GetRecordingByID(ctx context.Context, id string) (*models.CallRecording, error)
	UpdateRecordingStatus(ctx context.Context, recordingID, status string) error
	UpsertAnalysis(ctx context.Context, analysis *models.CallAnalysis) error
	GetAnalysisByRecordingID(ctx context.Context, recordingID string) (*models.CallAnalysis, error)
}

// ReportWriter renders a completed analysis into a downloadable file.
type ReportWriter interface {
	GenerateCallReport(analysis *models.CallAnalysis) (string, error)
}

// Enqueuer hands a recording ID to the worker pool.
type Enqueuer interface {
	PublishRecordingUploaded(recordingID string) error
}

// CallProcessor drives a recording through transcription, analysis and
// persistence. Status transitions are written before the external work that
// follows them, so an observer always sees where the pipeline is.
type CallProcessor struct {
	store       PipelineStore
	transcriber Transcriber
	analyzer    ConversationAnalyzer
	reports     ReportWriter
	media       *MediaStore
	queue       Enqueuer
	metrics     *PipelineMetrics
}

func NewCallProcessor(store PipelineStore, transcriber Transcriber, analyzer ConversationAnalyzer, reports ReportWriter, media *MediaStore, queue Enqueuer, metrics *PipelineMetrics) *CallProcessor {
	return &CallProcessor{
		store:       store,
		transcriber: transcriber,
		analyzer:    analyzer,
		reports:     reports,
		media:       media,
		queue:       queue,
		metrics:     metrics,
	}
}

// Enqueue schedules a recording for processing and returns immediately. With
// a queue configured the work goes to the worker group; otherwise it runs on
// a local goroutine.
func (p *CallProcessor) Enqueue(recordingID string) {
	if p.queue != nil {
		err := p.queue.PublishRecordingUploaded(recordingID)
		if err == nil {
			return
		}
		slog.Error("Failed to enqueue recording, falling back to local worker", "error", err, "recording_id", recordingID)
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if err := p.ProcessRecording(ctx, recordingID); err != nil {
			slog.Error("Failed to process recording", "error", err, "recording_id", recordingID)
		}
	}()
}

// ProcessRecording runs the full pipeline for one recording. A re-run on an
// already processed recording restarts from processing and overwrites the
// prior analysis in place.
func (p *CallProcessor) ProcessRecording(ctx context.Context, recordingID string) error {
	start := time.Now()
	if p.metrics != nil {
		p.metrics.RunStarted()
		defer p.metrics.RunFinished()
	}

	status, err := p.run(ctx, recordingID)
	if p.metrics != nil && status != "" {
		p.metrics.ObserveRun(status, time.Since(start))
	}
	return err
}

func (p *CallProcessor) run(ctx context.Context, recordingID string) (string, error) {
	recording, err := p.store.GetRecordingByID(ctx, recordingID)
	if err != nil {
		return "", fmt.Errorf("load recording: %w", err)
	}
	if recording == nil {
		return "", NewAdapterError(ErrNotFound, "load recording", fmt.Errorf("recording %s not found", recordingID))
	}

	slog.Info("Processing recording", "recording_id", recordingID, "title", recording.Title)

	if err := p.store.UpdateRecordingStatus(ctx, recordingID, models.StatusProcessing); err != nil {
		p.fail(ctx, recordingID)
		return models.StatusFailed, fmt.Errorf("mark processing for recording %s: %w", recordingID, err)
	}

	if p.transcriber == nil || p.analyzer == nil {
		p.fail(ctx, recordingID)
		return models.StatusFailed, fmt.Errorf("pipeline not fully configured for recording %s", recordingID)
	}

	transcript, err := p.transcriber.Transcribe(ctx, p.media.RecordingPath(recording.AudioFile))
	if err != nil {
		p.fail(ctx, recordingID)
		return models.StatusFailed, fmt.Errorf("transcribe recording %s: %w", recordingID, err)
	}

	result, err := p.analyzer.AnalyzeConversation(ctx, transcript)
	if err != nil {
		p.fail(ctx, recordingID)
		return models.StatusFailed, fmt.Errorf("analyze recording %s: %w", recordingID, err)
	}

	analysis := &models.CallAnalysis{
		CallRecordingID:        recording.ID,
		AgentID:                recording.AgentID,
		TranscriptionText:      transcript.FullText,
		AgentText:              transcript.AgentText,
		CustomerText:           transcript.CustomerText,
		CoverageScore:          result.CoverageScore,
		ScoreExplanation:       result.ScoreExplanation,
		Sentiment:              result.Sentiment,
		ConfidenceScore:        InterimConfidence,
		KeyIssues:              result.KeyIssues,
		ComplianceCheck:        result.ComplianceCheck,
		ImprovementSuggestions: result.ImprovementSuggestions,
	}
	if err := p.store.UpsertAnalysis(ctx, analysis); err != nil {
		p.fail(ctx, recordingID)
		return models.StatusFailed, fmt.Errorf("persist analysis for recording %s: %w", recordingID, err)
	}

	// A recording must never stay in processing once the run is over, so a
	// failed completed write still moves it to failed.
	if err := p.store.UpdateRecordingStatus(ctx, recordingID, models.StatusCompleted); err != nil {
		p.fail(ctx, recordingID)
		return models.StatusFailed, fmt.Errorf("mark completed for recording %s: %w", recordingID, err)
	}

	slog.Info("Recording processed", "recording_id", recordingID, "coverage_score", result.CoverageScore, "sentiment", result.Sentiment)

	// The recording is already completed; a report failure only loses the
	// cached spreadsheet, which download regenerates anyway.
	if p.reports != nil {
		stored, err := p.store.GetAnalysisByRecordingID(ctx, recordingID)
		if err != nil || stored == nil {
			slog.Error("Failed to reload analysis for report", "error", err, "recording_id", recordingID)
		} else if _, err := p.reports.GenerateCallReport(stored); err != nil {
			slog.Error("Failed to generate call report", "error", err, "recording_id", recordingID)
		}
	}

	return models.StatusCompleted, nil
}

// fail moves the recording to failed. The pipeline error is what callers
// care about, so a second failure here is only logged.
func (p *CallProcessor) fail(ctx context.Context, recordingID string) {
	if err := p.store.UpdateRecordingStatus(ctx, recordingID, models.StatusFailed); err != nil {
		slog.Error("Failed to mark recording as failed", "error", err, "recording_id", recordingID)
	}
}
