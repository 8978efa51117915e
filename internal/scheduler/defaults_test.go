package scheduler

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logseer/logseer/internal/datastore/entities"
	"github.com/logseer/logseer/internal/datastore/repository"
	"github.com/logseer/logseer/internal/logger"
)

type seedQueryRepo struct {
	*mockQueryRepo
	created []entities.SavedQuery
}

func (r *seedQueryRepo) List(ctx context.Context) ([]entities.SavedQuery, error) {
	return r.created, nil
}

func (r *seedQueryRepo) Create(ctx context.Context, q *entities.SavedQuery) error {
	r.created = append(r.created, *q)
	return nil
}

type seedAlertRepo struct {
	*mockAlertRepo
	created []entities.AlertRule
}

func (r *seedAlertRepo) ListRules(ctx context.Context, f repository.AlertRuleFilter) ([]entities.AlertRule, error) {
	return r.created, nil
}

func (r *seedAlertRepo) CreateRule(ctx context.Context, rule *entities.AlertRule) error {
	r.created = append(r.created, *rule)
	return nil
}

func TestSeedDefaults(t *testing.T) {
	log := logger.NewSlogLogger(io.Discard, logger.LogLevelError, nil)
	queries := &seedQueryRepo{mockQueryRepo: newMockQueryRepo()}
	alerts := &seedAlertRepo{mockAlertRepo: newMockAlertRepo()}
	repos := Repos{Queries: queries, Alerts: alerts}

	require.NoError(t, SeedDefaults(context.Background(), repos, log))
	assert.Len(t, queries.created, len(DefaultSavedQueries()))
	assert.Len(t, alerts.created, len(DefaultAlertRules()))

	// Seeding is idempotent: existing names are left alone.
	require.NoError(t, SeedDefaults(context.Background(), repos, log))
	assert.Len(t, queries.created, len(DefaultSavedQueries()))
	assert.Len(t, alerts.created, len(DefaultAlertRules()))
}

func TestDefaultRulesAreValid(t *testing.T) {
	for _, rule := range DefaultAlertRules() {
		assert.NoError(t, repository.ValidateCron(rule.Schedule), rule.Name)
		assert.True(t, entities.KnownTriggerType(rule.TriggerType), rule.Name)
		assert.True(t, entities.KnownCondition(rule.Condition), rule.Name)
		assert.True(t, entities.KnownSeverity(rule.Severity), rule.Name)
	}
	for _, q := range DefaultSavedQueries() {
		assert.NotEmpty(t, q.Query, q.Name)
	}
}
