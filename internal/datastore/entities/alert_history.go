package entities

import "time"

// AlertHistory is an immutable record of one alert firing. Only the
// acknowledgement fields are ever mutated after creation.
type AlertHistory struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	AlertID     uint      `gorm:"not null;index:idx_alert_history_alert_time,priority:1" json:"alert_id"`
	TriggeredAt time.Time `gorm:"not null;index:idx_alert_history_alert_time,priority:2" json:"triggered_at"`

	ResultCount  int     `gorm:"default:0" json:"result_count"`
	TriggerValue float64 `gorm:"default:0" json:"trigger_value"`
	Severity     string  `gorm:"size:20;default:''" json:"severity"`

	// Suppressed marks firings whose dispatch was blocked by a throttle
	// window or active silence; SuppressReason records which.
	Suppressed     bool   `gorm:"default:false" json:"suppressed"`
	SuppressReason string `gorm:"size:50;default:''" json:"suppress_reason,omitempty"`

	// ActionResults holds per-action execution outcomes as JSON.
	ActionResults string `gorm:"type:text;default:''" json:"action_results"`
	// SampleRows optionally holds the first few result rows as JSON.
	SampleRows string `gorm:"type:text;default:''" json:"sample_rows,omitempty"`

	Acknowledged bool       `gorm:"default:false" json:"acknowledged"`
	AckBy        string     `gorm:"size:255;default:''" json:"ack_by,omitempty"`
	AckAt        *time.Time `json:"ack_at,omitempty"`
	AckNotes     string     `gorm:"size:2000;default:''" json:"ack_notes,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for GORM.
func (AlertHistory) TableName() string {
	return "alert_history"
}

// ActionResult is one action's execution outcome within a history entry.
type ActionResult struct {
	Kind     string `json:"kind"`
	Target   string `json:"target"`
	Executed bool   `json:"executed"`
	Error    string `json:"error,omitempty"`
}
