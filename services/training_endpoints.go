package services

import (
	"encoding/json"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/insurelens/call-analyzer/backend/models"
	"github.com/insurelens/call-analyzer/backend/repository"
)

// sampleQueries seeds generated training sessions with realistic customer
// complaints. A later iteration could generate these with the LLM instead.
var sampleQueries = []string{
	"I've been charged twice for my monthly premium and need a refund immediately.",
	"I submitted a claim three weeks ago and haven't heard anything. This is unacceptable!",
	"Your website said my policy covers flood damage, but my claim was denied. Why?",
	"I want to cancel my policy because your rates are too high compared to competitors.",
	"I've been a loyal customer for 10 years and you just raised my premium by 30%!",
}

type TrainingEndpoints struct {
	repo    *repository.GORMRepository
	trainer *TrainingService
}

func NewTrainingEndpoints(repo *repository.GORMRepository, trainer *TrainingService) *TrainingEndpoints {
	return &TrainingEndpoints{
		repo:    repo,
		trainer: trainer,
	}
}

type GenerateQueryRequest struct {
	AgentID string `json:"agent_id"`
}

type SubmitResponseRequest struct {
	AgentResponse string `json:"agent_response"`
}

func (e *TrainingEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/training-sessions", func(r chi.Router) {
		r.Post("/generate-query", e.GenerateQueryHandler)
		r.Get("/{id}", e.GetSessionHandler)
		r.Post("/{id}/response", e.SubmitResponseHandler)
	})
}

// GenerateQueryHandler opens a new training session for an agent with a
// randomly chosen customer query.
func (e *TrainingEndpoints) GenerateQueryHandler(w http.ResponseWriter, r *http.Request) {
	var req GenerateQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.AgentID == "" {
		http.Error(w, "agent_id is required", http.StatusBadRequest)
		return
	}

	agent, err := e.repo.GetAgentByID(r.Context(), req.AgentID)
	if err != nil {
		slog.Error("Failed to get agent", "error", err, "agent_id", req.AgentID)
		http.Error(w, "Failed to validate agent", http.StatusInternalServerError)
		return
	}
	if agent == nil {
		http.Error(w, "Agent not found", http.StatusNotFound)
		return
	}

	session := models.TrainingSession{
		AgentID:   req.AgentID,
		Title:     "Training Query " + time.Now().Format("2006-01-02 15:04"),
		QueryText: sampleQueries[rand.Intn(len(sampleQueries))],
		Status:    models.TrainingPending,
	}
	if err := e.repo.CreateTrainingSession(r.Context(), &session); err != nil {
		slog.Error("Failed to create training session", "error", err, "agent_id", req.AgentID)
		http.Error(w, "Failed to create training session", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(session)

	slog.Info("Training query generated", "session_id", session.ID, "agent_id", req.AgentID)
}

func (e *TrainingEndpoints) GetSessionHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	session, err := e.repo.GetTrainingSessionByID(r.Context(), id)
	if err != nil {
		slog.Error("Failed to get training session", "error", err, "session_id", id)
		http.Error(w, "Failed to get training session", http.StatusInternalServerError)
		return
	}
	if session == nil {
		http.Error(w, "Training session not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(session)
}

// SubmitResponseHandler records the agent's answer, has the LLM score it,
// and closes the session with the scores and feedback.
func (e *TrainingEndpoints) SubmitResponseHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req SubmitResponseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.AgentResponse == "" {
		http.Error(w, "agent_response is required", http.StatusBadRequest)
		return
	}

	session, err := e.repo.GetTrainingSessionByID(r.Context(), id)
	if err != nil {
		slog.Error("Failed to get training session", "error", err, "session_id", id)
		http.Error(w, "Failed to get training session", http.StatusInternalServerError)
		return
	}
	if session == nil {
		http.Error(w, "Training session not found", http.StatusNotFound)
		return
	}

	session.AgentResponse = req.AgentResponse
	if err := e.repo.UpdateTrainingSession(r.Context(), session); err != nil {
		slog.Error("Failed to save agent response", "error", err, "session_id", id)
		http.Error(w, "Failed to save response", http.StatusInternalServerError)
		return
	}

	evaluation, err := e.trainer.EvaluateResponse(r.Context(), session.QueryText, session.AgentResponse)
	if err != nil {
		slog.Error("Failed to evaluate response", "error", err, "session_id", id, "kind", KindOf(err))
		http.Error(w, "Evaluation failed", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	session.ToneScore = &evaluation.ToneScore
	session.ClarityScore = &evaluation.ClarityScore
	session.AccuracyScore = &evaluation.AccuracyScore
	session.Feedback = evaluation.Feedback
	session.Status = models.TrainingCompleted
	session.CompletedAt = &now

	if err := e.repo.UpdateTrainingSession(r.Context(), session); err != nil {
		slog.Error("Failed to complete training session", "error", err, "session_id", id)
		http.Error(w, "Failed to save evaluation", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(session)

	slog.Info("Training session evaluated", "session_id", id, "tone", evaluation.ToneScore, "clarity", evaluation.ClarityScore, "accuracy", evaluation.AccuracyScore)
}
