package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/insurelens/call-analyzer/backend/models"
	"github.com/xuri/excelize/v2"
)

func TestCountIssues(t *testing.T) {
	analyses := []models.CallAnalysis{
		{KeyIssues: models.StringList{"A", "B"}},
		{KeyIssues: models.StringList{"B, A"}},
		{KeyIssues: models.StringList{"B"}},
		{KeyIssues: models.StringList{"B"}},
	}

	got := CountIssues(analyses)

	want := models.IssueCountList{
		{Issue: "B", Count: 4},
		{Issue: "A", Count: 2},
	}
	if len(got) != len(want) {
		t.Fatalf("CountIssues() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("CountIssues()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestCountIssuesTokenization(t *testing.T) {
	analyses := []models.CallAnalysis{
		{KeyIssues: models.StringList{"billing dispute, delayed claim", "  billing dispute  "}},
		{KeyIssues: models.StringList{""}},
		{KeyIssues: nil},
	}

	got := CountIssues(analyses)

	if len(got) != 2 {
		t.Fatalf("CountIssues() = %v, want 2 distinct issues", got)
	}
	if got[0].Issue != "billing dispute" || got[0].Count != 2 {
		t.Errorf("top issue = %v, want billing dispute x2", got[0])
	}
	if got[1].Issue != "delayed claim" || got[1].Count != 1 {
		t.Errorf("second issue = %v, want delayed claim x1", got[1])
	}
}

func TestAgentPerformanceRows(t *testing.T) {
	analyses := []models.CallAnalysis{
		{
			AgentID:       "agent-1",
			CoverageScore: 8,
			Agent:         models.Agent{FullName: "Priya Raman"},
			CallRecording: models.CallRecording{DurationSeconds: 120},
		},
		{
			AgentID:       "agent-1",
			CoverageScore: 6,
			Agent:         models.Agent{FullName: "Priya Raman"},
			CallRecording: models.CallRecording{DurationSeconds: 240},
		},
		{
			AgentID:       "agent-2",
			CoverageScore: 9,
			Agent:         models.Agent{FullName: "Marcus Webb"},
			CallRecording: models.CallRecording{DurationSeconds: 60},
		},
	}

	rows := AgentPerformanceRows(analyses)

	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].AgentName != "Marcus Webb" || rows[0].AvgScore != 9 || rows[0].CallCount != 1 {
		t.Errorf("first row = %+v, want Marcus Webb avg 9 count 1", rows[0])
	}
	if rows[1].AgentName != "Priya Raman" || rows[1].AvgScore != 7 || rows[1].CallCount != 2 {
		t.Errorf("second row = %+v, want Priya Raman avg 7 count 2", rows[1])
	}
	if rows[1].AvgDuration != 180 {
		t.Errorf("avg duration = %v, want 180", rows[1].AvgDuration)
	}
}

func TestAgentPerformanceRowsEmpty(t *testing.T) {
	if rows := AgentPerformanceRows(nil); len(rows) != 0 {
		t.Errorf("got %d rows for no analyses, want 0", len(rows))
	}
}

// assertNoTempFiles checks the save's rename left no intermediate file behind.
func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		if strings.Contains(entry.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", entry.Name())
		}
	}
}

func TestGenerateAggregateReportEmpty(t *testing.T) {
	gen, err := NewReportGenerator(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC)
	path, err := gen.GenerateAggregateReport(models.ReportWeekly, start, end, nil)
	if err != nil {
		t.Fatalf("GenerateAggregateReport() error = %v", err)
	}

	if !strings.HasPrefix(filepath.Base(path), "weekly_report_") {
		t.Errorf("file name = %q, want weekly_report_ prefix", filepath.Base(path))
	}
	if !strings.HasSuffix(path, ".xlsx") || strings.Contains(filepath.Base(path), ".tmp") {
		t.Errorf("report path = %q, want clean .xlsx name", path)
	}
	assertNoTempFiles(t, gen.reportsDir)

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("generated file unreadable: %v", err)
	}
	defer f.Close()

	headers := map[string]string{
		"Calls":             "Call ID",
		"Agent Performance": "Agent",
		"Common Issues":     "Issue",
	}
	for sheet, first := range headers {
		rows, err := f.GetRows(sheet)
		if err != nil {
			t.Fatalf("missing sheet %q: %v", sheet, err)
		}
		if len(rows) != 1 {
			t.Errorf("sheet %q has %d rows, want header only", sheet, len(rows))
			continue
		}
		if rows[0][0] != first {
			t.Errorf("sheet %q first header = %q, want %q", sheet, rows[0][0], first)
		}
	}
}

func TestGenerateCallReport(t *testing.T) {
	gen, err := NewReportGenerator(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	analysis := &models.CallAnalysis{
		ID:                     "analysis-1",
		TranscriptionText:      "Hello\nMy claim was denied\n",
		CoverageScore:          7.5,
		Sentiment:              models.SentimentNegative,
		ScoreExplanation:       "Handled professionally but no follow-up.",
		KeyIssues:              models.StringList{"denied claim"},
		ImprovementSuggestions: "Schedule a follow-up",
		CallRecording: models.CallRecording{
			Title:           "Claim complaint",
			UploadedAt:      time.Date(2026, 2, 3, 14, 30, 0, 0, time.UTC),
			DurationSeconds: 300,
		},
		Agent: models.Agent{FullName: "Priya Raman"},
	}

	path, err := gen.GenerateCallReport(analysis)
	if err != nil {
		t.Fatalf("GenerateCallReport() error = %v", err)
	}
	if !strings.HasPrefix(filepath.Base(path), "call_report_analysis-1_") {
		t.Errorf("file name = %q, want call_report_analysis-1_ prefix", filepath.Base(path))
	}
	assertNoTempFiles(t, gen.reportsDir)

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("generated file unreadable: %v", err)
	}
	defer f.Close()

	summary, err := f.GetRows("Call Summary")
	if err != nil {
		t.Fatalf("missing Call Summary sheet: %v", err)
	}
	if len(summary) != 2 {
		t.Fatalf("Call Summary has %d rows, want 2", len(summary))
	}
	if summary[1][0] != "Claim complaint" || summary[1][1] != "Priya Raman" {
		t.Errorf("summary row = %v", summary[1])
	}

	transcript, err := f.GetRows("Transcription")
	if err != nil {
		t.Fatalf("missing Transcription sheet: %v", err)
	}
	// header plus two non-empty lines, trailing blank dropped
	if len(transcript) != 3 {
		t.Errorf("Transcription has %d rows, want 3", len(transcript))
	}

	if _, err := f.GetRows("Analysis"); err != nil {
		t.Fatalf("missing Analysis sheet: %v", err)
	}
}
