package repository

import (
	"context"
	"time"

	"github.com/logseer/logseer/internal/datastore/entities"
)

// AlertRuleRepository handles alert rule CRUD and history operations.
type AlertRuleRepository interface {
	ListRules(ctx context.Context, filter AlertRuleFilter) ([]entities.AlertRule, error)
	GetRule(ctx context.Context, id uint) (*entities.AlertRule, error)
	CreateRule(ctx context.Context, rule *entities.AlertRule) error
	UpdateRule(ctx context.Context, rule *entities.AlertRule) error
	DeleteRule(ctx context.Context, id uint) error
	ToggleRule(ctx context.Context, id uint, enabled bool) error
	GetEnabledRules(ctx context.Context) ([]entities.AlertRule, error)

	// RecordRun updates last_run after a completed evaluation.
	RecordRun(ctx context.Context, id uint, at time.Time) error
	// RecordTrigger updates last_triggered and increments trigger_count.
	RecordTrigger(ctx context.Context, id uint, at time.Time) error

	SaveHistory(ctx context.Context, entry *entities.AlertHistory) error
	// UpdateHistoryActionResults records per-action dispatch outcomes
	// after the fire-and-forget dispatch completes.
	UpdateHistoryActionResults(ctx context.Context, historyID, resultsJSON string) error
	ListHistory(ctx context.Context, filter AlertHistoryFilter) ([]entities.AlertHistory, int64, error)
	// Acknowledge mutates only the acknowledgement fields of a history entry.
	Acknowledge(ctx context.Context, historyID, who, notes string, at time.Time) error
	DeleteHistoryBefore(ctx context.Context, before time.Time) (int64, error)
}

// AlertRuleFilter controls rule listing queries.
type AlertRuleFilter struct {
	Enabled  *bool
	Severity string
}

// AlertHistoryFilter controls history listing queries.
type AlertHistoryFilter struct {
	AlertID uint
	Limit   int
	Offset  int
}
