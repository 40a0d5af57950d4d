package models

import (
	"time"

	"gorm.io/gorm"
)

// Report kinds
const (
	ReportWeekly  = "weekly"
	ReportMonthly = "monthly"
	ReportCustom  = "custom"
)

// Report is a generated aggregate spreadsheet for a date range. A report is
// immutable once generated; regenerating creates a new row.
type Report struct {
	ID             string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Title          string    `gorm:"size:255;not null" json:"title"`
	ReportType     string    `gorm:"size:20;not null;check:report_type IN ('weekly', 'monthly', 'custom')" json:"report_type"`
	DateRangeStart time.Time `gorm:"not null" json:"date_range_start"`
	DateRangeEnd   time.Time `gorm:"not null" json:"date_range_end"`

	// File name of the generated spreadsheet under the reports media dir
	ExcelFile string `gorm:"size:500" json:"excel_file,omitempty"`

	// Computed summaries stored alongside the spreadsheet
	AgentPerformance JSONMap        `gorm:"type:jsonb;default:'{}'" json:"agent_performance"`
	CommonIssues     IssueCountList `gorm:"type:jsonb;default:'[]'" json:"common_issues"`

	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
