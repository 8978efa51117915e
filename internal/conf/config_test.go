package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logseer/logseer/internal/errors"
	"github.com/logseer/logseer/internal/logger"
)

func TestLoadDefaults(t *testing.T) {
	settings, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultDatabasePath, settings.Database.Path)
	assert.Equal(t, DefaultMaxConcurrent, settings.Scheduler.MaxConcurrentExecutions)
	assert.Equal(t, DefaultExecutionTimeout, settings.Scheduler.ExecutionTimeout.Std())
	assert.Equal(t, DefaultHistoryRetentionDays, settings.Scheduler.HistoryRetentionDays)
	assert.Equal(t, DefaultCacheTTL, settings.Cache.DefaultTTL.Std())
	assert.Equal(t, logger.LogLevelInfo, settings.LogLevel())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logseer.yaml")
	content := `
database:
  path: /var/lib/logseer/meta.db
scheduler:
  max_concurrent_executions: 8
  execution_timeout: 90s
  history_retention_days: 30
cache:
  default_ttl: 5m
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	settings, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/logseer/meta.db", settings.Database.Path)
	assert.Equal(t, 8, settings.Scheduler.MaxConcurrentExecutions)
	assert.Equal(t, 90*time.Second, settings.Scheduler.ExecutionTimeout.Std())
	assert.Equal(t, 30, settings.Scheduler.HistoryRetentionDays)
	assert.Equal(t, 5*time.Minute, settings.Cache.DefaultTTL.Std())
	assert.Equal(t, logger.LogLevelDebug, settings.LogLevel())
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("LOGSEER_SCHEDULER_MAX_CONCURRENT_EXECUTIONS", "16")
	t.Setenv("LOGSEER_LOG_LEVEL", "warn")

	settings, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 16, settings.Scheduler.MaxConcurrentExecutions)
	assert.Equal(t, logger.LogLevelWarn, settings.LogLevel())
}

func TestValidateRejectsBadSettings(t *testing.T) {
	valid := func() Settings {
		return Settings{
			Database:  DatabaseSettings{Path: "meta.db"},
			Scheduler: SchedulerSettings{MaxConcurrentExecutions: 2, ExecutionTimeout: Duration(time.Minute)},
			Cache:     CacheSettings{DefaultTTL: Duration(time.Minute)},
			Log:       LogSettings{Level: "info"},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Settings)
		field  string
	}{
		{"empty database path", func(s *Settings) { s.Database.Path = "" }, "database.path"},
		{"zero concurrency", func(s *Settings) { s.Scheduler.MaxConcurrentExecutions = 0 }, "scheduler.max_concurrent_executions"},
		{"negative timeout", func(s *Settings) { s.Scheduler.ExecutionTimeout = Duration(-time.Second) }, "scheduler.execution_timeout"},
		{"negative retention", func(s *Settings) { s.Scheduler.HistoryRetentionDays = -1 }, "scheduler.history_retention_days"},
		{"zero cache ttl", func(s *Settings) { s.Cache.DefaultTTL = 0 }, "cache.default_ttl"},
		{"unknown log level", func(s *Settings) { s.Log.Level = "verbose" }, "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := valid()
			tt.mutate(&settings)
			err := settings.Validate()
			require.Error(t, err)
			var verr *errors.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}
