package entities

import (
	"encoding/json"
	"time"
)

// Synthetic test types.
const (
	SyntheticTypeHTTP    = "http"
	SyntheticTypeTCP     = "tcp"
	SyntheticTypeBrowser = "browser"
	SyntheticTypeAPI     = "api"
)

// SyntheticTest is a scheduled availability check. Each run produces a
// SyntheticResult and adjusts ConsecutiveFailures: reset to zero on success,
// incremented on failure. Crossing AlertAfterFailures on a failure-to-failure
// transition is itself a trigger event.
type SyntheticTest struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Name    string `gorm:"size:255;not null" json:"name"`
	Enabled bool   `gorm:"not null;index" json:"enabled"`

	Type string `gorm:"size:10;not null" json:"type"`
	// Config holds the type-specific probe configuration as JSON
	// (url/method/headers/body for http/api, host/port for tcp).
	Config string `gorm:"type:text;not null" json:"config"`
	// Assertions holds the assertion list as JSON.
	Assertions string `gorm:"type:text;default:'[]'" json:"assertions"`

	Schedule   string `gorm:"size:100;not null" json:"schedule"`
	TimeoutSec int    `gorm:"not null;default:10" json:"timeout_sec"`

	ConsecutiveFailures int `gorm:"default:0" json:"consecutive_failures"`
	AlertAfterFailures  int `gorm:"not null;default:3" json:"alert_after_failures"`

	LastRun   *time.Time `json:"last_run"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for GORM.
func (SyntheticTest) TableName() string {
	return "synthetic_tests"
}

// ProbeConfig is the decoded type-specific configuration.
type ProbeConfig struct {
	URL     string            `json:"url,omitempty"`
	Method  string            `json:"method,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    string            `json:"body,omitempty"`
	Host    string            `json:"host,omitempty"`
	Port    int               `json:"port,omitempty"`
}

// DecodeConfig parses the Config JSON.
func (t *SyntheticTest) DecodeConfig() (*ProbeConfig, error) {
	var cfg ProbeConfig
	if err := json.Unmarshal([]byte(t.Config), &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Assertion is one check applied to a probe result.
type Assertion struct {
	Type     string `json:"type"`     // status_code, body_contains, response_time_ms, json_field
	Field    string `json:"field,omitempty"` // for json_field
	Operator string `json:"operator"` // equals, not_equals, contains, less_than, greater_than
	Value    string `json:"value"`
}

// DecodeAssertions parses the Assertions JSON.
func (t *SyntheticTest) DecodeAssertions() ([]Assertion, error) {
	if t.Assertions == "" {
		return nil, nil
	}
	var asserts []Assertion
	if err := json.Unmarshal([]byte(t.Assertions), &asserts); err != nil {
		return nil, err
	}
	return asserts, nil
}

// Timeout returns the per-probe timeout.
func (t *SyntheticTest) Timeout() time.Duration {
	if t.TimeoutSec <= 0 {
		return 10 * time.Second
	}
	return time.Duration(t.TimeoutSec) * time.Second
}

// SyntheticResult records one probe execution.
type SyntheticResult struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	TestID     uint      `gorm:"not null;index:idx_synthetic_results_test_time,priority:1" json:"test_id"`
	RanAt      time.Time `gorm:"not null;index:idx_synthetic_results_test_time,priority:2" json:"ran_at"`
	Success    bool      `gorm:"not null" json:"success"`
	DurationMs int64     `gorm:"default:0" json:"duration_ms"`
	StatusCode int       `gorm:"default:0" json:"status_code,omitempty"`
	Error      string    `gorm:"size:2000;default:''" json:"error,omitempty"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for GORM.
func (SyntheticResult) TableName() string {
	return "synthetic_results"
}
