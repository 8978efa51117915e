// Package conf loads and validates application settings from a YAML file
// and LOGSEER_-prefixed environment variables.
package conf

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/logseer/logseer/internal/errors"
	"github.com/logseer/logseer/internal/logger"
)

// Settings is the full application configuration.
type Settings struct {
	Database  DatabaseSettings  `mapstructure:"database"`
	Scheduler SchedulerSettings `mapstructure:"scheduler"`
	Cache     CacheSettings     `mapstructure:"cache"`
	Log       LogSettings       `mapstructure:"log"`
}

// DatabaseSettings configures the metadata store.
type DatabaseSettings struct {
	// Path is the SQLite database file.
	Path string `mapstructure:"path"`
}

// SchedulerSettings configures the cron scheduler and run execution.
type SchedulerSettings struct {
	// MaxConcurrentExecutions caps simultaneous query executions across
	// all scheduled entities.
	MaxConcurrentExecutions int `mapstructure:"max_concurrent_executions"`
	// ExecutionTimeout bounds a single query execution.
	ExecutionTimeout Duration `mapstructure:"execution_timeout"`
	// HistoryRetentionDays is how long alert history rows are kept before
	// the cleanup loop removes them. Zero disables cleanup.
	HistoryRetentionDays int `mapstructure:"history_retention_days"`
}

// CacheSettings configures query result caching.
type CacheSettings struct {
	// DefaultTTL applies when an entity does not set its own cache TTL.
	DefaultTTL Duration `mapstructure:"default_ttl"`
}

// LogSettings configures structured logging.
type LogSettings struct {
	// Level is one of debug, info, warn, error.
	Level string `mapstructure:"level"`
}

// Defaults used when the config file or environment leaves a field unset.
const (
	DefaultDatabasePath         = "logseer.db"
	DefaultMaxConcurrent        = 4
	DefaultExecutionTimeout     = 30 * time.Second
	DefaultHistoryRetentionDays = 90
	DefaultCacheTTL             = time.Minute
	DefaultLogLevel             = "info"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.path", DefaultDatabasePath)
	v.SetDefault("scheduler.max_concurrent_executions", DefaultMaxConcurrent)
	v.SetDefault("scheduler.execution_timeout", DefaultExecutionTimeout.String())
	v.SetDefault("scheduler.history_retention_days", DefaultHistoryRetentionDays)
	v.SetDefault("cache.default_ttl", DefaultCacheTTL.String())
	v.SetDefault("log.level", DefaultLogLevel)
}

// Load reads settings from the given config file (optional; empty path
// means defaults plus environment only) and the LOGSEER_ environment.
func Load(configPath string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("LOGSEER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", configPath, err)
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings, viper.DecodeHook(DurationDecodeHook())); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &settings, nil
}

// Validate checks cross-field constraints.
func (s *Settings) Validate() error {
	if s.Database.Path == "" {
		return errors.NewValidation("database.path", "must not be empty")
	}
	if s.Scheduler.MaxConcurrentExecutions < 1 {
		return errors.NewValidation("scheduler.max_concurrent_executions", "must be at least 1")
	}
	if s.Scheduler.ExecutionTimeout.Std() < 0 {
		return errors.NewValidation("scheduler.execution_timeout", "must not be negative")
	}
	if s.Scheduler.HistoryRetentionDays < 0 {
		return errors.NewValidation("scheduler.history_retention_days", "must not be negative")
	}
	if s.Cache.DefaultTTL.Std() <= 0 {
		return errors.NewValidation("cache.default_ttl", "must be positive")
	}
	switch s.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.NewValidation("log.level", "must be one of debug, info, warn, error")
	}
	return nil
}

// LogLevel maps the configured level string onto the logger's level type.
func (s *Settings) LogLevel() logger.LogLevel {
	switch s.Log.Level {
	case "debug":
		return logger.LogLevelDebug
	case "warn":
		return logger.LogLevelWarn
	case "error":
		return logger.LogLevelError
	default:
		return logger.LogLevelInfo
	}
}
