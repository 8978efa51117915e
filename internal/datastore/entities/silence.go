package entities

import "time"

// Silence levels, most to least specific.
const (
	SilenceLevelAlert  = "alert"
	SilenceLevelHost   = "host"
	SilenceLevelGlobal = "global"
)

// Silence is a user-declared notification suppression window. TargetID is
// an alert id (alert level) or hostname (host level) and is empty for
// global silences. A nil EndsAt means the silence is indefinite. Expiry is
// evaluated at check time; there is no background reaper.
type Silence struct {
	ID        string     `gorm:"primaryKey;size:36" json:"id"`
	Level     string     `gorm:"size:10;not null;index" json:"level"`
	TargetID  string     `gorm:"size:255;default:'';index" json:"target_id,omitempty"`
	Reason    string     `gorm:"size:1000;default:''" json:"reason"`
	CreatedBy string     `gorm:"size:255;default:''" json:"created_by"`
	StartsAt  time.Time  `gorm:"not null" json:"starts_at"`
	EndsAt    *time.Time `json:"ends_at,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for GORM.
func (Silence) TableName() string {
	return "silences"
}

// ActiveAt reports whether the silence covers the given instant:
// now ∈ [StartsAt, EndsAt), with a nil EndsAt meaning indefinite.
func (s *Silence) ActiveAt(now time.Time) bool {
	if now.Before(s.StartsAt) {
		return false
	}
	if s.EndsAt == nil {
		return true
	}
	return now.Before(*s.EndsAt)
}
