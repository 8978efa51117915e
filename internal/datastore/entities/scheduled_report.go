package entities

import (
	"strings"
	"time"
)

// Report send conditions.
const (
	ReportSendAlways    = "always"
	ReportSendThreshold = "threshold"
)

// Report output formats.
const (
	ReportFormatText = "text"
	ReportFormatJSON = "json"
	ReportFormatCSV  = "csv"
)

// ScheduledReport delivers query results to recipients on a cron cadence.
// With a threshold send condition the report is only sent when the result
// metric satisfies Condition/Threshold against a comparison window.
type ScheduledReport struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Name    string `gorm:"size:255;not null" json:"name"`
	Enabled bool   `gorm:"not null;index" json:"enabled"`

	Query     string `gorm:"type:text;not null" json:"query"`
	TimeRange string `gorm:"size:50;not null;default:'-24h'" json:"time_range"`
	Schedule  string `gorm:"size:100;not null" json:"schedule"`

	// Recipients is a comma-separated address list.
	Recipients string `gorm:"size:2000;not null" json:"recipients"`
	Format     string `gorm:"size:10;not null;default:'text'" json:"format"`

	SendCondition    string  `gorm:"size:20;not null;default:'always'" json:"send_condition"`
	Condition        string  `gorm:"size:20;default:''" json:"condition,omitempty"`
	Threshold        float64 `gorm:"default:0" json:"threshold,omitempty"`
	CompareOffsetSec int     `gorm:"default:0" json:"compare_offset_sec,omitempty"`

	LastRun         *time.Time `json:"last_run"`
	LastResultCount int        `gorm:"default:0" json:"last_result_count"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for GORM.
func (ScheduledReport) TableName() string {
	return "scheduled_reports"
}

// RecipientList splits the comma-separated recipients.
func (r *ScheduledReport) RecipientList() []string {
	var out []string
	for _, addr := range strings.Split(r.Recipients, ",") {
		addr = strings.TrimSpace(addr)
		if addr != "" {
			out = append(out, addr)
		}
	}
	return out
}
