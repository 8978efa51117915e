package scheduler

import (
	"context"

	"github.com/logseer/logseer/internal/datastore/entities"
	"github.com/logseer/logseer/internal/datastore/repository"
	"github.com/logseer/logseer/internal/logger"
)

// DefaultSavedQueries returns the example saved queries seeded on first run.
func DefaultSavedQueries() []entities.SavedQuery {
	return []entities.SavedQuery{
		{
			Name:        "Recent errors",
			Description: "All error-level events in the last hour",
			Query:       "search level=error",
			TimeRange:   "-1h",
			CacheTTLSec: 300,
		},
		{
			Name:        "Errors by host",
			Description: "Error counts per host over the last 24 hours",
			Query:       "search level=error | stats count() by host",
			TimeRange:   "-24h",
			CacheTTLSec: 600,
		},
	}
}

// DefaultAlertRules returns the example alert rules seeded on first run.
// They dispatch through the log action only, so enabling them never sends
// anything outside the process.
func DefaultAlertRules() []entities.AlertRule {
	return []entities.AlertRule{
		{
			Name:              "Error spike",
			Description:       "More than 100 error events in the last 15 minutes",
			Enabled:           false,
			Query:             "search level=error",
			TimeRange:         "-1h",
			Schedule:          "*/15 * * * *",
			TriggerType:       entities.TriggerNumberOfResults,
			Condition:         entities.ConditionGreaterThan,
			Threshold:         100,
			Severity:          entities.SeverityHigh,
			ThrottleEnabled:   true,
			ThrottleWindowSec: 900,
			Actions:           `[{"kind":"log","config":{"message":"{{alert_name}}: {{result_count}} errors"}}]`,
		},
		{
			Name:        "Error volume dropped",
			Description: "Error volume dropped by half against the preceding hour, often a sign of a broken ingest pipeline",
			Enabled:     false,
			Query:       "search level=error",
			TimeRange:   "-1h",
			Schedule:    "0 * * * *",
			TriggerType: entities.TriggerNumberOfResults,
			Condition:   entities.ConditionDropsBy,
			Threshold:   50,
			Severity:    entities.SeverityMedium,
			Actions:     `[{"kind":"log","config":{"message":"{{alert_name}}: volume fell to {{result_count}}"}}]`,
		},
	}
}

// SeedDefaults ensures the built-in example queries and rules exist. It
// checks by name so partial seeds from previous runs self-heal on restart.
func SeedDefaults(ctx context.Context, repos Repos, log logger.Logger) error {
	existingQueries, err := repos.Queries.List(ctx)
	if err != nil {
		return err
	}
	queryNames := make(map[string]struct{}, len(existingQueries))
	for i := range existingQueries {
		queryNames[existingQueries[i].Name] = struct{}{}
	}

	var created int
	defaults := DefaultSavedQueries()
	for i := range defaults {
		if _, exists := queryNames[defaults[i].Name]; exists {
			continue
		}
		if err := repos.Queries.Create(ctx, &defaults[i]); err != nil {
			return err
		}
		created++
	}

	existingRules, err := repos.Alerts.ListRules(ctx, repository.AlertRuleFilter{})
	if err != nil {
		return err
	}
	ruleNames := make(map[string]struct{}, len(existingRules))
	for i := range existingRules {
		ruleNames[existingRules[i].Name] = struct{}{}
	}

	rules := DefaultAlertRules()
	for i := range rules {
		if _, exists := ruleNames[rules[i].Name]; exists {
			continue
		}
		if err := repos.Alerts.CreateRule(ctx, &rules[i]); err != nil {
			return err
		}
		created++
	}

	if created > 0 {
		log.Info("seeded default entities", logger.Int("created", created))
	}
	return nil
}
