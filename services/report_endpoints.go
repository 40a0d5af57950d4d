package services

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/insurelens/call-analyzer/backend/models"
	"github.com/insurelens/call-analyzer/backend/repository"
)

const topIssueCount = 10

type ReportEndpoints struct {
	repo      *repository.GORMRepository
	generator *ReportGenerator
}

func NewReportEndpoints(repo *repository.GORMRepository, generator *ReportGenerator) *ReportEndpoints {
	return &ReportEndpoints{
		repo:      repo,
		generator: generator,
	}
}

type GenerateReportRequest struct {
	ReportType     string `json:"report_type"`
	DateRangeStart string `json:"date_range_start"`
	DateRangeEnd   string `json:"date_range_end"`
}

func (e *ReportEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Post("/generate", e.GenerateReportHandler)
		r.Get("/{id}", e.GetReportHandler)
		r.Get("/{id}/download", e.DownloadReportHandler)
	})
}

// GenerateReportHandler builds an aggregate report over a date range. When
// no range is given the type picks a default window ending today: weekly 7
// days, monthly 30, custom 14.
func (e *ReportEndpoints) GenerateReportHandler(w http.ResponseWriter, r *http.Request) {
	var req GenerateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	reportType := req.ReportType
	if reportType == "" {
		reportType = models.ReportWeekly
	}
	if reportType != models.ReportWeekly && reportType != models.ReportMonthly && reportType != models.ReportCustom {
		http.Error(w, "Invalid report_type", http.StatusBadRequest)
		return
	}

	start, end, err := resolveDateRange(reportType, req.DateRangeStart, req.DateRangeEnd)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	analyses, err := e.repo.ListAnalysesByDateRange(r.Context(), start, end)
	if err != nil {
		slog.Error("Failed to list analyses", "error", err, "start", start, "end", end)
		http.Error(w, "Failed to load analyses", http.StatusInternalServerError)
		return
	}

	report := models.Report{
		Title: fmt.Sprintf("%s Report (%s to %s)",
			capitalize(reportType), start.Format("2006-01-02"), end.Format("2006-01-02")),
		ReportType:     reportType,
		DateRangeStart: start,
		DateRangeEnd:   end,
	}
	if err := e.repo.CreateReport(r.Context(), &report); err != nil {
		slog.Error("Failed to create report", "error", err, "report_type", reportType)
		http.Error(w, "Failed to create report", http.StatusInternalServerError)
		return
	}

	path, err := e.generator.GenerateAggregateReport(reportType, start, end, analyses)
	if err != nil {
		// The report row without its spreadsheet is useless, drop it.
		if delErr := e.repo.DeleteReport(r.Context(), report.ID); delErr != nil {
			slog.Error("Failed to delete report after generation failure", "error", delErr, "report_id", report.ID)
		}
		slog.Error("Failed to generate aggregate report", "error", err, "report_id", report.ID)
		http.Error(w, "Report generation failed", http.StatusInternalServerError)
		return
	}

	performance := models.JSONMap{}
	for _, row := range AgentPerformanceRows(analyses) {
		performance[row.AgentName] = map[string]interface{}{
			"call_count": row.CallCount,
			"avg_score":  row.AvgScore,
		}
	}

	issues := CountIssues(analyses)
	if len(issues) > topIssueCount {
		issues = issues[:topIssueCount]
	}

	report.ExcelFile = filepath.Base(path)
	report.AgentPerformance = performance
	report.CommonIssues = issues
	if err := e.repo.UpdateReport(r.Context(), &report); err != nil {
		slog.Error("Failed to update report", "error", err, "report_id", report.ID)
		http.Error(w, "Failed to save report", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)

	slog.Info("Aggregate report generated", "report_id", report.ID, "report_type", reportType, "analyses", len(analyses))
}

func (e *ReportEndpoints) GetReportHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	report, err := e.repo.GetReportByID(r.Context(), id)
	if err != nil {
		slog.Error("Failed to get report", "error", err, "report_id", id)
		http.Error(w, "Failed to get report", http.StatusInternalServerError)
		return
	}
	if report == nil {
		http.Error(w, "Report not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}

func (e *ReportEndpoints) DownloadReportHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	report, err := e.repo.GetReportByID(r.Context(), id)
	if err != nil {
		slog.Error("Failed to get report", "error", err, "report_id", id)
		http.Error(w, "Failed to get report", http.StatusInternalServerError)
		return
	}
	if report == nil {
		http.Error(w, "Report not found", http.StatusNotFound)
		return
	}
	if report.ExcelFile == "" {
		http.Error(w, "Report file not found", http.StatusNotFound)
		return
	}

	path := e.generator.ReportPath(report.ExcelFile)
	w.Header().Set("Content-Disposition", "attachment; filename=\""+report.ExcelFile+"\"")
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	http.ServeFile(w, r, path)

	slog.Info("Report downloaded", "report_id", id, "file", report.ExcelFile)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// resolveDateRange parses an explicit range or falls back to the default
// window for the report type. A half-specified range is rejected rather than
// silently replaced with the default window.
func resolveDateRange(reportType, startStr, endStr string) (time.Time, time.Time, error) {
	if startStr != "" || endStr != "" {
		if startStr == "" || endStr == "" {
			return time.Time{}, time.Time{}, fmt.Errorf("date_range_start and date_range_end must be provided together")
		}
		start, err := time.Parse("2006-01-02", startStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid date_range_start: %s", startStr)
		}
		end, err := time.Parse("2006-01-02", endStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid date_range_end: %s", endStr)
		}
		if end.Before(start) {
			return time.Time{}, time.Time{}, fmt.Errorf("date_range_end precedes date_range_start")
		}
		return start, end.Add(24*time.Hour - time.Nanosecond), nil
	}

	end := time.Now()
	var days int
	switch reportType {
	case models.ReportWeekly:
		days = 7
	case models.ReportMonthly:
		days = 30
	default:
		days = 14
	}
	return end.AddDate(0, 0, -days), end, nil
}
