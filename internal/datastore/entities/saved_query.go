package entities

import (
	"encoding/json"
	"time"
)

// maxVersionHistory bounds the number of prior versions retained per query.
const maxVersionHistory = 20

// SavedQuery is a stored pipeline query with result caching metadata.
// The cached fields are refreshed on each execution; Version increments on
// every edit with the prior version appended to a bounded history.
type SavedQuery struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:255;not null" json:"name"`
	Description string `gorm:"size:1000;default:''" json:"description"`
	Query       string `gorm:"type:text;not null" json:"query"`
	TimeRange   string `gorm:"size:50;not null;default:'-24h'" json:"time_range"`
	CacheTTLSec int    `gorm:"not null;default:300" json:"cache_ttl_sec"`

	// RefreshCron, when set, schedules periodic cache refreshes.
	RefreshCron string `gorm:"size:100;default:''" json:"refresh_cron"`

	CachedResults string     `gorm:"type:text;default:''" json:"-"`
	CachedSQL     string     `gorm:"type:text;default:''" json:"cached_sql"`
	CachedCount   int        `gorm:"default:0" json:"cached_count"`
	CachedAt      *time.Time `json:"cached_at"`

	RunCount       int64  `gorm:"default:0" json:"run_count"`
	Version        int    `gorm:"not null;default:1" json:"version"`
	VersionHistory string `gorm:"type:text;default:''" json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for GORM.
func (SavedQuery) TableName() string {
	return "saved_queries"
}

// CacheValid reports whether the cached result is still within its TTL.
func (q *SavedQuery) CacheValid(now time.Time) bool {
	if q.CachedAt == nil {
		return false
	}
	return now.Sub(*q.CachedAt) < time.Duration(q.CacheTTLSec)*time.Second
}

// QueryVersion is one entry in a saved query's bounded version history.
type QueryVersion struct {
	Version   int       `json:"version"`
	Query     string    `json:"query"`
	TimeRange string    `json:"time_range"`
	ChangedAt time.Time `json:"changed_at"`
}

// Versions decodes the version history. A corrupt or empty history decodes
// as nil rather than failing reads.
func (q *SavedQuery) Versions() []QueryVersion {
	if q.VersionHistory == "" {
		return nil
	}
	var versions []QueryVersion
	if err := json.Unmarshal([]byte(q.VersionHistory), &versions); err != nil {
		return nil
	}
	return versions
}

// AppendVersion records the current query/time range as a historical version
// and bumps Version. Called before applying an edit.
func (q *SavedQuery) AppendVersion(changedAt time.Time) {
	versions := append(q.Versions(), QueryVersion{
		Version:   q.Version,
		Query:     q.Query,
		TimeRange: q.TimeRange,
		ChangedAt: changedAt,
	})
	if len(versions) > maxVersionHistory {
		versions = versions[len(versions)-maxVersionHistory:]
	}
	encoded, err := json.Marshal(versions)
	if err != nil {
		return
	}
	q.VersionHistory = string(encoded)
	q.Version++
}
