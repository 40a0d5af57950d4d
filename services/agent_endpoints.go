package services

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/insurelens/call-analyzer/backend/models"
	"github.com/insurelens/call-analyzer/backend/repository"
)

const (
	leaderboardMinCalls = 5
	leaderboardLimit    = 10
	recentCallLimit     = 5
)

type AgentEndpoints struct {
	repo *repository.GORMRepository
}

func NewAgentEndpoints(repo *repository.GORMRepository) *AgentEndpoints {
	return &AgentEndpoints{repo: repo}
}

type CreateAgentRequest struct {
	EmployeeID string `json:"employee_id"`
	FullName   string `json:"full_name"`
	Department string `json:"department"`
}

type AgentPerformanceResponse struct {
	TotalCalls            int64                  `json:"total_calls"`
	AvgCoverageScore      float64                `json:"avg_coverage_score"`
	RecentCalls           []models.CallRecording `json:"recent_calls"`
	SentimentDistribution map[string]int64       `json:"sentiment_distribution"`
}

func (e *AgentEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/agents", func(r chi.Router) {
		r.Post("/", e.CreateAgentHandler)
		r.Get("/leaderboard", e.LeaderboardHandler)
		r.Get("/{id}", e.GetAgentHandler)
		r.Get("/{id}/performance", e.PerformanceHandler)
	})
}

func (e *AgentEndpoints) CreateAgentHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.EmployeeID == "" || req.FullName == "" {
		http.Error(w, "employee_id and full_name are required", http.StatusBadRequest)
		return
	}

	existing, err := e.repo.GetAgentByEmployeeID(r.Context(), req.EmployeeID)
	if err != nil {
		slog.Error("Failed to check employee ID", "error", err, "employee_id", req.EmployeeID)
		http.Error(w, "Failed to create agent", http.StatusInternalServerError)
		return
	}
	if existing != nil {
		http.Error(w, "Employee ID already registered", http.StatusConflict)
		return
	}

	agent := models.Agent{
		EmployeeID: req.EmployeeID,
		FullName:   req.FullName,
		Department: req.Department,
	}
	if err := e.repo.CreateAgent(r.Context(), &agent); err != nil {
		slog.Error("Failed to create agent", "error", err, "employee_id", req.EmployeeID)
		http.Error(w, "Failed to create agent", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(agent)

	slog.Info("Agent created", "agent_id", agent.ID, "employee_id", agent.EmployeeID)
}

func (e *AgentEndpoints) GetAgentHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	agent, err := e.repo.GetAgentByID(r.Context(), id)
	if err != nil {
		slog.Error("Failed to get agent", "error", err, "agent_id", id)
		http.Error(w, "Failed to get agent", http.StatusInternalServerError)
		return
	}
	if agent == nil {
		http.Error(w, "Agent not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(agent)
}

// PerformanceHandler returns the agent's derived metrics together with
// recent calls and the sentiment spread across their analyses.
func (e *AgentEndpoints) PerformanceHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	agent, err := e.repo.GetAgentByID(r.Context(), id)
	if err != nil {
		slog.Error("Failed to get agent", "error", err, "agent_id", id)
		http.Error(w, "Failed to get agent", http.StatusInternalServerError)
		return
	}
	if agent == nil {
		http.Error(w, "Agent not found", http.StatusNotFound)
		return
	}

	recent, err := e.repo.RecentRecordings(r.Context(), id, recentCallLimit)
	if err != nil {
		slog.Error("Failed to get recent recordings", "error", err, "agent_id", id)
		http.Error(w, "Failed to get performance", http.StatusInternalServerError)
		return
	}

	sentiments, err := e.repo.SentimentDistribution(r.Context(), id)
	if err != nil {
		slog.Error("Failed to get sentiment distribution", "error", err, "agent_id", id)
		http.Error(w, "Failed to get performance", http.StatusInternalServerError)
		return
	}

	response := AgentPerformanceResponse{
		TotalCalls:            agent.TotalCallsHandled,
		AvgCoverageScore:      agent.AvgCoverageScore,
		RecentCalls:           recent,
		SentimentDistribution: sentiments,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// LeaderboardHandler ranks agents by mean coverage score. Agents with fewer
// than five analyzed calls are left out so one lucky call cannot top the
// board.
func (e *AgentEndpoints) LeaderboardHandler(w http.ResponseWriter, r *http.Request) {
	agents, err := e.repo.Leaderboard(r.Context(), leaderboardMinCalls, leaderboardLimit)
	if err != nil {
		slog.Error("Failed to get leaderboard", "error", err)
		http.Error(w, "Failed to get leaderboard", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(agents)
}
