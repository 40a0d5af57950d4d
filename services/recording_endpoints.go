package services

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/insurelens/call-analyzer/backend/models"
	"github.com/insurelens/call-analyzer/backend/repository"
)

type RecordingEndpoints struct {
	repo      *repository.GORMRepository
	media     *MediaStore
	processor *CallProcessor
	reports   *ReportGenerator
}

func NewRecordingEndpoints(repo *repository.GORMRepository, media *MediaStore, processor *CallProcessor, reports *ReportGenerator) *RecordingEndpoints {
	return &RecordingEndpoints{
		repo:      repo,
		media:     media,
		processor: processor,
		reports:   reports,
	}
}

type UploadRecordingResponse struct {
	Recording models.CallRecording `json:"recording"`
	Message   string               `json:"message"`
}

type AnalysisStatusResponse struct {
	Status     string  `json:"status"`
	AnalysisID *string `json:"analysis_id"`
	Completed  bool    `json:"completed"`
}

func (e *RecordingEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/recordings", func(r chi.Router) {
		r.Post("/", e.UploadRecordingHandler)
		r.Get("/{id}", e.GetRecordingHandler)
		r.Get("/{id}/status", e.AnalysisStatusHandler)
	})

	r.Route("/analyses", func(r chi.Router) {
		r.Get("/{id}", e.GetAnalysisHandler)
		r.Get("/{id}/report", e.DownloadCallReportHandler)
	})
}

// UploadRecordingHandler accepts a multipart upload, stores the audio file
// and kicks off the processing pipeline before responding.
func (e *RecordingEndpoints) UploadRecordingHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	agentID := r.FormValue("agent_id")
	title := r.FormValue("title")
	if agentID == "" || title == "" {
		http.Error(w, "agent_id and title are required", http.StatusBadRequest)
		return
	}

	agent, err := e.repo.GetAgentByID(r.Context(), agentID)
	if err != nil {
		slog.Error("Failed to get agent", "error", err, "agent_id", agentID)
		http.Error(w, "Failed to validate agent", http.StatusInternalServerError)
		return
	}
	if agent == nil {
		http.Error(w, "Agent not found", http.StatusNotFound)
		return
	}

	file, header, err := r.FormFile("audio_file")
	if err != nil {
		http.Error(w, "audio_file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	fileName, err := e.media.SaveRecording(file, header.Filename)
	if err != nil {
		slog.Error("Failed to store audio file", "error", err, "original_name", header.Filename)
		http.Error(w, "Failed to store audio file", http.StatusInternalServerError)
		return
	}

	duration, _ := strconv.Atoi(r.FormValue("duration_seconds"))

	recording := models.CallRecording{
		Title:           title,
		AudioFile:       fileName,
		AgentID:         agentID,
		CustomerPhone:   r.FormValue("customer_phone"),
		UploadedAt:      time.Now(),
		DurationSeconds: duration,
		Status:          models.StatusPending,
	}

	if err := e.repo.CreateRecording(r.Context(), &recording); err != nil {
		slog.Error("Failed to create recording", "error", err, "agent_id", agentID)
		if rmErr := e.media.RemoveRecording(fileName); rmErr != nil {
			slog.Error("Failed to remove orphaned recording file", "error", rmErr, "file", fileName)
		}
		http.Error(w, "Failed to create recording", http.StatusInternalServerError)
		return
	}

	e.processor.Enqueue(recording.ID)

	response := UploadRecordingResponse{
		Recording: recording,
		Message:   "Recording uploaded, processing started",
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(response)

	slog.Info("Recording uploaded", "recording_id", recording.ID, "agent_id", agentID, "title", title)
}

func (e *RecordingEndpoints) GetRecordingHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	recording, err := e.repo.GetRecordingByID(r.Context(), id)
	if err != nil {
		slog.Error("Failed to get recording", "error", err, "recording_id", id)
		http.Error(w, "Failed to get recording", http.StatusInternalServerError)
		return
	}
	if recording == nil {
		http.Error(w, "Recording not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(recording)
}

// AnalysisStatusHandler reports where the pipeline is for a recording.
// Completed implies an analysis row exists; failed implies none does.
func (e *RecordingEndpoints) AnalysisStatusHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	recording, err := e.repo.GetRecordingByID(r.Context(), id)
	if err != nil {
		slog.Error("Failed to get recording", "error", err, "recording_id", id)
		http.Error(w, "Failed to get recording", http.StatusInternalServerError)
		return
	}
	if recording == nil {
		http.Error(w, "Recording not found", http.StatusNotFound)
		return
	}

	response := AnalysisStatusResponse{
		Status:    recording.Status,
		Completed: recording.Status == models.StatusCompleted,
	}

	analysis, err := e.repo.GetAnalysisByRecordingID(r.Context(), id)
	if err != nil {
		slog.Error("Failed to get analysis", "error", err, "recording_id", id)
		http.Error(w, "Failed to get analysis", http.StatusInternalServerError)
		return
	}
	if analysis != nil {
		response.AnalysisID = &analysis.ID
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func (e *RecordingEndpoints) GetAnalysisHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	analysis, err := e.repo.GetAnalysisByID(r.Context(), id)
	if err != nil {
		slog.Error("Failed to get analysis", "error", err, "analysis_id", id)
		http.Error(w, "Failed to get analysis", http.StatusInternalServerError)
		return
	}
	if analysis == nil {
		http.Error(w, "Analysis not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(analysis)
}

// DownloadCallReportHandler regenerates the per-call spreadsheet from the
// stored analysis and streams it. Regenerating keeps downloads working even
// when the cached file was cleaned up.
func (e *RecordingEndpoints) DownloadCallReportHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	analysis, err := e.repo.GetAnalysisByID(r.Context(), id)
	if err != nil {
		slog.Error("Failed to get analysis", "error", err, "analysis_id", id)
		http.Error(w, "Failed to get analysis", http.StatusInternalServerError)
		return
	}
	if analysis == nil {
		http.Error(w, "Analysis not found", http.StatusNotFound)
		return
	}

	path, err := e.reports.GenerateCallReport(analysis)
	if err != nil {
		slog.Error("Failed to generate call report", "error", err, "analysis_id", id)
		http.Error(w, "Report generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Disposition", "attachment; filename=\""+filepath.Base(path)+"\"")
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	http.ServeFile(w, r, path)

	slog.Info("Call report downloaded", "analysis_id", id, "path", path)
}
