package services

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/insurelens/call-analyzer/backend/models"
	"github.com/xuri/excelize/v2"
)

const maxColumnWidth = 50

// ReportGenerator renders call analyses into formatted spreadsheet files
// under <media_root>/reports.
type ReportGenerator struct {
	reportsDir string
}

func NewReportGenerator(mediaRoot string) (*ReportGenerator, error) {
	reportsDir := filepath.Join(mediaRoot, "reports")
	if err := os.MkdirAll(reportsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create reports dir: %w", err)
	}
	return &ReportGenerator{reportsDir: reportsDir}, nil
}

// ReportPath resolves a stored report file name to its absolute path.
func (g *ReportGenerator) ReportPath(fileName string) string {
	return filepath.Join(g.reportsDir, fileName)
}

// GenerateCallReport writes the detailed spreadsheet for a single analysis
// and returns its path. The analysis must have its recording and agent
// loaded. On failure no file is left behind.
func (g *ReportGenerator) GenerateCallReport(analysis *models.CallAnalysis) (string, error) {
	slog.Info("Generating call report", "analysis_id", analysis.ID, "title", analysis.CallRecording.Title)

	f := excelize.NewFile()
	defer f.Close()

	summaryRows := [][]interface{}{
		{"Call Title", "Agent", "Date", "Time", "Duration (seconds)", "Coverage Score", "Sentiment"},
		{
			analysis.CallRecording.Title,
			analysis.Agent.FullName,
			analysis.CallRecording.UploadedAt.Format("2006-01-02"),
			analysis.CallRecording.UploadedAt.Format("15:04:05"),
			analysis.CallRecording.DurationSeconds,
			analysis.CoverageScore,
			analysis.Sentiment,
		},
	}
	if err := writeSheet(f, "Call Summary", summaryRows); err != nil {
		return "", err
	}

	transcriptRows := [][]interface{}{{"Transcription"}}
	for _, line := range strings.Split(analysis.TranscriptionText, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		transcriptRows = append(transcriptRows, []interface{}{line})
	}
	if err := writeSheet(f, "Transcription", transcriptRows); err != nil {
		return "", err
	}

	analysisRows := [][]interface{}{
		{"Category", "Value"},
		{"Sentiment", analysis.Sentiment},
		{"Coverage Score", fmt.Sprintf("%g", analysis.CoverageScore)},
		{"Score Explanation", analysis.ScoreExplanation},
		{"Key Issues", strings.Join(analysis.KeyIssues, ", ")},
		{"Improvement Suggestions", analysis.ImprovementSuggestions},
	}
	if err := writeSheet(f, "Analysis", analysisRows); err != nil {
		return "", err
	}

	f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("call_report_%s_%s.xlsx", analysis.ID, time.Now().Format("20060102_150405"))
	path, err := g.save(f, fileName)
	if err != nil {
		slog.Error("Call report generation failed", "error", err, "analysis_id", analysis.ID)
		return "", err
	}

	slog.Info("Call report generated", "path", path)
	return path, nil
}

// GenerateAggregateReport writes the multi-call spreadsheet for a date range.
// An empty analysis slice produces headered empty sheets, not an error.
func (g *ReportGenerator) GenerateAggregateReport(reportType string, start, end time.Time, analyses []models.CallAnalysis) (string, error) {
	slog.Info("Generating aggregate report", "report_type", reportType, "start", start, "end", end, "count", len(analyses))

	f := excelize.NewFile()
	defer f.Close()

	callRows := [][]interface{}{
		{"Call ID", "Call Title", "Agent", "Date", "Duration (s)", "Coverage Score", "Sentiment", "Key Issues"},
	}
	for _, a := range analyses {
		callRows = append(callRows, []interface{}{
			a.ID,
			a.CallRecording.Title,
			a.Agent.FullName,
			a.CallRecording.UploadedAt.Format("2006-01-02"),
			a.CallRecording.DurationSeconds,
			a.CoverageScore,
			a.Sentiment,
			strings.Join(a.KeyIssues, ", "),
		})
	}
	if err := writeSheet(f, "Calls", callRows); err != nil {
		return "", err
	}

	perfRows := [][]interface{}{{"Agent", "Total Calls", "Avg Score", "Avg Duration (s)"}}
	for _, row := range AgentPerformanceRows(analyses) {
		perfRows = append(perfRows, []interface{}{row.AgentName, row.CallCount, row.AvgScore, row.AvgDuration})
	}
	if err := writeSheet(f, "Agent Performance", perfRows); err != nil {
		return "", err
	}

	issueRows := [][]interface{}{{"Issue", "Count"}}
	for _, ic := range CountIssues(analyses) {
		issueRows = append(issueRows, []interface{}{ic.Issue, ic.Count})
	}
	if err := writeSheet(f, "Common Issues", issueRows); err != nil {
		return "", err
	}

	f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("%s_report_%s.xlsx", reportType, time.Now().Format("20060102_150405"))
	path, err := g.save(f, fileName)
	if err != nil {
		slog.Error("Aggregate report generation failed", "error", err, "report_type", reportType)
		return "", err
	}

	slog.Info("Aggregate report generated", "path", path)
	return path, nil
}

// AgentPerformanceRow is one agent's aggregate line in a report.
type AgentPerformanceRow struct {
	AgentName   string  `json:"agent_name"`
	CallCount   int     `json:"call_count"`
	AvgScore    float64 `json:"avg_score"`
	AvgDuration float64 `json:"avg_duration_seconds"`
}

// AgentPerformanceRows groups analyses by agent and returns call count, mean
// coverage score and mean duration per agent, sorted descending by mean score.
func AgentPerformanceRows(analyses []models.CallAnalysis) []AgentPerformanceRow {
	type acc struct {
		name     string
		count    int
		score    float64
		duration float64
	}
	byAgent := map[string]*acc{}
	var order []string
	for _, a := range analyses {
		entry, ok := byAgent[a.AgentID]
		if !ok {
			entry = &acc{name: a.Agent.FullName}
			byAgent[a.AgentID] = entry
			order = append(order, a.AgentID)
		}
		entry.count++
		entry.score += a.CoverageScore
		entry.duration += float64(a.CallRecording.DurationSeconds)
	}

	rows := make([]AgentPerformanceRow, 0, len(order))
	for _, id := range order {
		entry := byAgent[id]
		rows = append(rows, AgentPerformanceRow{
			AgentName:   entry.name,
			CallCount:   entry.count,
			AvgScore:    entry.score / float64(entry.count),
			AvgDuration: entry.duration / float64(entry.count),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].AvgScore > rows[j].AvgScore
	})
	return rows
}

// CountIssues tokenizes every key issue across the analyses by comma and
// returns frequency counts sorted descending. Duplicate tokens within one
// analysis count individually.
func CountIssues(analyses []models.CallAnalysis) models.IssueCountList {
	counts := map[string]int{}
	for _, a := range analyses {
		for _, issue := range a.KeyIssues {
			for _, token := range strings.Split(issue, ",") {
				token = strings.TrimSpace(token)
				if token == "" {
					continue
				}
				counts[token]++
			}
		}
	}

	out := make(models.IssueCountList, 0, len(counts))
	for issue, count := range counts {
		out = append(out, models.IssueCount{Issue: issue, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Issue < out[j].Issue
	})
	return out
}

// writeSheet creates the sheet, writes all rows, styles the header row and
// fits column widths to content.
func writeSheet(f *excelize.File, sheet string, rows [][]interface{}) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("new sheet %s: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d of %s: %w", i+1, sheet, err)
		}
	}
	if err := styleHeader(f, sheet, len(rows[0])); err != nil {
		return err
	}
	return fitColumns(f, sheet, rows)
}

// styleHeader makes the header row bold white on a dark fill, centered and
// bordered on all sides.
func styleHeader(f *excelize.File, sheet string, columns int) error {
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"366092"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Border: []excelize.Border{
			{Type: "left", Style: 1, Color: "000000"},
			{Type: "right", Style: 1, Color: "000000"},
			{Type: "top", Style: 1, Color: "000000"},
			{Type: "bottom", Style: 1, Color: "000000"},
		},
	})
	if err != nil {
		return fmt.Errorf("header style for %s: %w", sheet, err)
	}
	last, err := excelize.CoordinatesToCellName(columns, 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, style)
}

// fitColumns widens each column to its longest cell value, capped at
// maxColumnWidth characters.
func fitColumns(f *excelize.File, sheet string, rows [][]interface{}) error {
	widths := map[int]float64{}
	for _, row := range rows {
		for col, value := range row {
			length := float64(len(fmt.Sprintf("%v", value))) + 2
			if length > widths[col] {
				widths[col] = length
			}
		}
	}
	for col, width := range widths {
		if width > maxColumnWidth {
			width = maxColumnWidth
		}
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, name, name, width); err != nil {
			return err
		}
	}
	return nil
}

// save writes the workbook to a temp file first and renames it into place so
// a failed save never leaves a partially written report. The temp name keeps
// the .xlsx extension; excelize refuses to save under any other one.
func (g *ReportGenerator) save(f *excelize.File, fileName string) (string, error) {
	finalPath := filepath.Join(g.reportsDir, fileName)
	tmpPath := strings.TrimSuffix(finalPath, ".xlsx") + ".tmp.xlsx"

	if err := f.SaveAs(tmpPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("save report: %w", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("finalize report: %w", err)
	}
	return finalPath, nil
}
