package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logseer/logseer/internal/datastore/entities"
	"github.com/logseer/logseer/internal/errors"
)

func validRule() *entities.AlertRule {
	return &entities.AlertRule{
		Name:        "error spike",
		Query:       "search level=error",
		TimeRange:   "-1h",
		Schedule:    "*/5 * * * *",
		TriggerType: entities.TriggerNumberOfResults,
		Condition:   entities.ConditionGreaterThan,
		Threshold:   10,
		Severity:    entities.SeverityHigh,
		Actions:     `[{"kind":"log","config":{"message":"fired"}}]`,
	}
}

func TestValidateCron(t *testing.T) {
	assert.NoError(t, ValidateCron("*/5 * * * *"))
	assert.NoError(t, ValidateCron("0 9 * * 1-5"))

	err := ValidateCron("every 5 minutes")
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestValidateAlertRule(t *testing.T) {
	assert.NoError(t, validateAlertRule(validRule()))

	tests := []struct {
		name   string
		mutate func(*entities.AlertRule)
		field  string
	}{
		{"missing name", func(r *entities.AlertRule) { r.Name = "" }, "name"},
		{"bad schedule", func(r *entities.AlertRule) { r.Schedule = "nope" }, "schedule"},
		{"unknown trigger type", func(r *entities.AlertRule) { r.TriggerType = "number_of_errors" }, "trigger_type"},
		{"unknown condition", func(r *entities.AlertRule) { r.Condition = "between" }, "condition"},
		{
			"custom condition with drops_by",
			func(r *entities.AlertRule) {
				r.TriggerType = entities.TriggerCustomCondition
				r.Condition = entities.ConditionDropsBy
			},
			"condition",
		},
		{
			"custom condition with rises_by",
			func(r *entities.AlertRule) {
				r.TriggerType = entities.TriggerCustomCondition
				r.Condition = entities.ConditionRisesBy
			},
			"condition",
		},
		{"unknown severity", func(r *entities.AlertRule) { r.Severity = "urgent" }, "severity"},
		{
			"throttle enabled without window",
			func(r *entities.AlertRule) {
				r.ThrottleEnabled = true
				r.ThrottleWindowSec = 0
			},
			"throttle_window_sec",
		},
		{"bad actions JSON", func(r *entities.AlertRule) { r.Actions = `[{"kind":"pager"}]` }, "actions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := validRule()
			tt.mutate(rule)
			err := validateAlertRule(rule)
			require.Error(t, err)
			var verr *errors.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestValidateSilence(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	later := now.Add(time.Hour)

	tests := []struct {
		name    string
		silence entities.Silence
		field   string
	}{
		{"global with target", entities.Silence{Level: entities.SilenceLevelGlobal, TargetID: "web-01", StartsAt: now}, "target_id"},
		{"host without target", entities.Silence{Level: entities.SilenceLevelHost, StartsAt: now}, "target_id"},
		{"alert without target", entities.Silence{Level: entities.SilenceLevelAlert, StartsAt: now}, "target_id"},
		{"unknown level", entities.Silence{Level: "team", StartsAt: now}, "level"},
		{"ends before starts", entities.Silence{Level: entities.SilenceLevelGlobal, StartsAt: later, EndsAt: &now}, "ends_at"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateSilence(&tt.silence)
			require.Error(t, err)
			var verr *errors.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	assert.NoError(t, validateSilence(&entities.Silence{
		Level:    entities.SilenceLevelHost,
		TargetID: "web-01",
		StartsAt: now,
		EndsAt:   &later,
	}))
	assert.NoError(t, validateSilence(&entities.Silence{
		Level:    entities.SilenceLevelGlobal,
		StartsAt: now,
	}))
}

func TestValidateReport(t *testing.T) {
	report := &entities.ScheduledReport{
		Name:          "daily errors",
		Query:         "search level=error",
		TimeRange:     "-24h",
		Schedule:      "0 9 * * *",
		Recipients:    "ops@example.com",
		Format:        entities.ReportFormatText,
		SendCondition: entities.ReportSendAlways,
	}
	assert.NoError(t, validateReport(report))

	report.Recipients = " , "
	err := validateReport(report)
	require.Error(t, err)
	var verr *errors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "recipients", verr.Field)

	report.Recipients = "ops@example.com"
	report.Format = "xml"
	err = validateReport(report)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "format", verr.Field)

	report.Format = entities.ReportFormatCSV
	report.SendCondition = entities.ReportSendThreshold
	err = validateReport(report)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "condition", verr.Field)

	report.Condition = entities.ConditionGreaterThan
	assert.NoError(t, validateReport(report))
}

func TestValidateSyntheticTest(t *testing.T) {
	test := &entities.SyntheticTest{
		Name:               "health check",
		Type:               entities.SyntheticTypeHTTP,
		Config:             `{"url":"https://example.com/health"}`,
		Schedule:           "*/1 * * * *",
		AlertAfterFailures: 3,
	}
	assert.NoError(t, validateSyntheticTest(test))

	test.Config = `{"method":"GET"}`
	err := validateSyntheticTest(test)
	require.Error(t, err)
	var verr *errors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "config", verr.Field)

	tcp := &entities.SyntheticTest{
		Name:               "db port",
		Type:               entities.SyntheticTypeTCP,
		Config:             `{"host":"db.internal","port":5432}`,
		Schedule:           "*/1 * * * *",
		AlertAfterFailures: 1,
	}
	assert.NoError(t, validateSyntheticTest(tcp))

	tcp.Config = `{"host":"db.internal"}`
	err = validateSyntheticTest(tcp)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "config", verr.Field)

	tcp.Config = `{"host":"db.internal","port":5432}`
	tcp.AlertAfterFailures = 0
	err = validateSyntheticTest(tcp)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "alert_after_failures", verr.Field)
}

func TestValidateSavedQuery(t *testing.T) {
	q := &entities.SavedQuery{
		Name:        "error counts",
		Query:       "search level=error | stats count() by host",
		TimeRange:   "-1h",
		CacheTTLSec: 300,
	}
	assert.NoError(t, validateSavedQuery(q))

	q.CacheTTLSec = -1
	err := validateSavedQuery(q)
	require.Error(t, err)
	var verr *errors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "cache_ttl_sec", verr.Field)

	q.CacheTTLSec = 300
	q.RefreshCron = "bad cron"
	err = validateSavedQuery(q)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "schedule", verr.Field)
}
