package repository

import (
	"github.com/robfig/cron/v3"

	"github.com/logseer/logseer/internal/datastore/entities"
	"github.com/logseer/logseer/internal/errors"
	"github.com/logseer/logseer/internal/notification"
	"github.com/logseer/logseer/internal/query"
	"github.com/logseer/logseer/internal/timerange"
)

// Creation-time validation. Malformed input is rejected synchronously,
// before any row is written; unknown trigger/condition combinations never
// reach evaluation time.

// ValidateCron checks a standard 5-field cron expression (including */N
// step syntax).
func ValidateCron(expr string) error {
	if _, err := cron.ParseStandard(expr); err != nil {
		return errors.NewValidation("schedule", "invalid cron expression %q: %v", expr, err)
	}
	return nil
}

func validateSavedQuery(q *entities.SavedQuery) error {
	if q.Name == "" {
		return errors.NewValidation("name", "name is required")
	}
	if err := query.Validate(q.Query); err != nil {
		return err
	}
	if err := timerange.Validate(q.TimeRange); err != nil {
		return err
	}
	if q.CacheTTLSec < 0 {
		return errors.NewValidation("cache_ttl_sec", "must not be negative")
	}
	if q.RefreshCron != "" {
		if err := ValidateCron(q.RefreshCron); err != nil {
			return err
		}
	}
	return nil
}

func validateAlertRule(r *entities.AlertRule) error {
	if r.Name == "" {
		return errors.NewValidation("name", "name is required")
	}
	if err := query.Validate(r.Query); err != nil {
		return err
	}
	if err := timerange.Validate(r.TimeRange); err != nil {
		return err
	}
	if err := ValidateCron(r.Schedule); err != nil {
		return err
	}
	if !entities.KnownTriggerType(r.TriggerType) {
		return errors.NewValidation("trigger_type", "unknown trigger type %q", r.TriggerType)
	}
	if !entities.KnownCondition(r.Condition) {
		return errors.NewValidation("condition", "unknown condition %q", r.Condition)
	}
	// Comparison conditions compare counts across windows; a boolean
	// "any row present" metric has no meaningful delta.
	if r.TriggerType == entities.TriggerCustomCondition && entities.IsComparisonCondition(r.Condition) {
		return errors.NewValidation("condition", "%s cannot be combined with %s", r.Condition, r.TriggerType)
	}
	if !entities.KnownSeverity(r.Severity) {
		return errors.NewValidation("severity", "unknown severity %q", r.Severity)
	}
	if r.ThrottleEnabled && r.ThrottleWindowSec <= 0 {
		return errors.NewValidation("throttle_window_sec", "must be positive when throttling is enabled")
	}
	if _, err := notification.DecodeActions(r.Actions); err != nil {
		return err
	}
	return nil
}

func validateSilence(s *entities.Silence) error {
	switch s.Level {
	case entities.SilenceLevelGlobal:
		if s.TargetID != "" {
			return errors.NewValidation("target_id", "global silences take no target")
		}
	case entities.SilenceLevelHost, entities.SilenceLevelAlert:
		if s.TargetID == "" {
			return errors.NewValidation("target_id", "%s silences require a target", s.Level)
		}
	default:
		return errors.NewValidation("level", "unknown silence level %q", s.Level)
	}
	if s.EndsAt != nil && !s.EndsAt.After(s.StartsAt) {
		return errors.NewValidation("ends_at", "must be after starts_at")
	}
	return nil
}

func validateReport(r *entities.ScheduledReport) error {
	if r.Name == "" {
		return errors.NewValidation("name", "name is required")
	}
	if err := query.Validate(r.Query); err != nil {
		return err
	}
	if err := timerange.Validate(r.TimeRange); err != nil {
		return err
	}
	if err := ValidateCron(r.Schedule); err != nil {
		return err
	}
	if len(r.RecipientList()) == 0 {
		return errors.NewValidation("recipients", "at least one recipient is required")
	}
	switch r.Format {
	case entities.ReportFormatText, entities.ReportFormatJSON, entities.ReportFormatCSV:
	default:
		return errors.NewValidation("format", "unknown format %q", r.Format)
	}
	switch r.SendCondition {
	case entities.ReportSendAlways:
	case entities.ReportSendThreshold:
		if !entities.KnownCondition(r.Condition) {
			return errors.NewValidation("condition", "unknown condition %q", r.Condition)
		}
	default:
		return errors.NewValidation("send_condition", "unknown send condition %q", r.SendCondition)
	}
	return nil
}

func validateSyntheticTest(t *entities.SyntheticTest) error {
	if t.Name == "" {
		return errors.NewValidation("name", "name is required")
	}
	if !entities.KnownSyntheticType(t.Type) {
		return errors.NewValidation("type", "unknown test type %q", t.Type)
	}
	if err := ValidateCron(t.Schedule); err != nil {
		return err
	}
	cfg, err := t.DecodeConfig()
	if err != nil {
		return errors.NewValidation("config", "invalid config JSON: %v", err)
	}
	switch t.Type {
	case entities.SyntheticTypeHTTP, entities.SyntheticTypeAPI, entities.SyntheticTypeBrowser:
		if cfg.URL == "" {
			return errors.NewValidation("config", "url is required for %s tests", t.Type)
		}
	case entities.SyntheticTypeTCP:
		if cfg.Host == "" || cfg.Port <= 0 {
			return errors.NewValidation("config", "host and port are required for tcp tests")
		}
	}
	if _, err := t.DecodeAssertions(); err != nil {
		return errors.NewValidation("assertions", "invalid assertions JSON: %v", err)
	}
	if t.AlertAfterFailures <= 0 {
		return errors.NewValidation("alert_after_failures", "must be positive")
	}
	return nil
}
