package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/insurelens/call-analyzer/backend/models"
)

// Aggregation queries backing the reporting and performance endpoints.

// ListAnalysesByDateRange returns all analyses created inside [start, end],
// with their recordings and agents preloaded for report building.
func (r *GORMRepository) ListAnalysesByDateRange(ctx context.Context, start, end time.Time) ([]models.CallAnalysis, error) {
	var analyses []models.CallAnalysis
	err := r.db.WithContext(ctx).
		Where("created_at >= ? AND created_at <= ?", start, end).
		Preload("CallRecording").
		Preload("Agent").
		Order("created_at").
		Find(&analyses).Error
	if err != nil {
		slog.Error("Failed to list analyses by date range", "error", err, "start", start, "end", end)
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	slog.Info("Analyses listed for date range", "start", start, "end", end, "count", len(analyses))
	return analyses, nil
}

// SentimentDistribution counts an agent's analyses per sentiment value.
func (r *GORMRepository) SentimentDistribution(ctx context.Context, agentID string) (map[string]int64, error) {
	type row struct {
		Sentiment string
		Count     int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.CallAnalysis{}).
		Select("sentiment, COUNT(*) AS count").
		Where("agent_id = ?", agentID).
		Group("sentiment").
		Scan(&rows).Error
	if err != nil {
		slog.Error("Failed to get sentiment distribution", "error", err, "agent_id", agentID)
		return nil, fmt.Errorf("failed to get sentiment distribution: %w", err)
	}

	dist := map[string]int64{
		models.SentimentPositive: 0,
		models.SentimentNeutral:  0,
		models.SentimentNegative: 0,
	}
	for _, r := range rows {
		dist[r.Sentiment] = r.Count
	}
	return dist, nil
}

// RecentRecordings returns the agent's most recently uploaded recordings.
func (r *GORMRepository) RecentRecordings(ctx context.Context, agentID string, limit int) ([]models.CallRecording, error) {
	var recordings []models.CallRecording
	err := r.db.WithContext(ctx).
		Where("agent_id = ?", agentID).
		Order("uploaded_at DESC").
		Limit(limit).
		Find(&recordings).Error
	if err != nil {
		slog.Error("Failed to get recent recordings", "error", err, "agent_id", agentID)
		return nil, fmt.Errorf("failed to get recent recordings: %w", err)
	}
	return recordings, nil
}

// Leaderboard returns the top agents by average coverage score among agents
// with at least minCalls analyzed calls.
func (r *GORMRepository) Leaderboard(ctx context.Context, minCalls, limit int) ([]models.Agent, error) {
	var agents []models.Agent
	err := r.db.WithContext(ctx).
		Where("total_calls_handled >= ?", minCalls).
		Order("avg_coverage_score DESC").
		Limit(limit).
		Find(&agents).Error
	if err != nil {
		slog.Error("Failed to get agent leaderboard", "error", err)
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	return agents, nil
}
