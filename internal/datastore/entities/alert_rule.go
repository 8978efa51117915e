package entities

import "time"

// AlertRule defines a scheduled alert: a pipeline query evaluated on a cron
// cadence, a trigger condition over the result metric, throttle settings,
// and a list of notification actions (stored as tagged-variant JSON, decoded
// by the notification package).
type AlertRule struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:255;not null" json:"name"`
	Description string `gorm:"size:1000;default:''" json:"description"`
	Enabled     bool   `gorm:"not null;index" json:"enabled"`

	Query     string `gorm:"type:text;not null" json:"query"`
	TimeRange string `gorm:"size:50;not null;default:'-1h'" json:"time_range"`
	Schedule  string `gorm:"size:100;not null" json:"schedule"`

	TriggerType string  `gorm:"size:30;not null" json:"trigger_type"`
	Condition   string  `gorm:"size:20;not null" json:"condition"`
	Threshold   float64 `gorm:"not null;default:0" json:"threshold"`
	// CompareOffsetSec overrides the default comparison window offset for
	// drops_by/rises_by; zero means the immediately preceding equal-length
	// window.
	CompareOffsetSec int `gorm:"default:0" json:"compare_offset_sec"`

	Severity          string `gorm:"size:20;not null;default:'medium'" json:"severity"`
	ThrottleEnabled   bool   `gorm:"not null;default:false" json:"throttle_enabled"`
	ThrottleWindowSec int    `gorm:"default:300" json:"throttle_window_sec"`

	// Actions holds the ordered action list as tagged-variant JSON.
	Actions string `gorm:"type:text;default:'[]'" json:"actions"`

	TriggerCount  int64      `gorm:"default:0" json:"trigger_count"`
	LastRun       *time.Time `json:"last_run"`
	LastTriggered *time.Time `json:"last_triggered"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for GORM.
func (AlertRule) TableName() string {
	return "alert_rules"
}

// ThrottleWindow returns the throttle window as a duration, or zero when
// throttling is disabled.
func (r *AlertRule) ThrottleWindow() time.Duration {
	if !r.ThrottleEnabled || r.ThrottleWindowSec <= 0 {
		return 0
	}
	return time.Duration(r.ThrottleWindowSec) * time.Second
}
