package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/logseer/logseer/internal/datastore/entities"
	"github.com/logseer/logseer/internal/errors"
)

// alertRuleRepository implements AlertRuleRepository.
type alertRuleRepository struct {
	db *gorm.DB
}

// NewAlertRuleRepository creates a new AlertRuleRepository.
func NewAlertRuleRepository(db *gorm.DB) AlertRuleRepository {
	return &alertRuleRepository{db: db}
}

func (r *alertRuleRepository) ListRules(ctx context.Context, filter AlertRuleFilter) ([]entities.AlertRule, error) {
	var rules []entities.AlertRule
	query := r.db.WithContext(ctx)
	if filter.Enabled != nil {
		query = query.Where("enabled = ?", *filter.Enabled)
	}
	if filter.Severity != "" {
		query = query.Where("severity = ?", filter.Severity)
	}
	if err := query.Order("id ASC").Find(&rules).Error; err != nil {
		return nil, fmt.Errorf("failed to list alert rules: %w", err)
	}
	return rules, nil
}

func (r *alertRuleRepository) GetRule(ctx context.Context, id uint) (*entities.AlertRule, error) {
	var rule entities.AlertRule
	if err := r.db.WithContext(ctx).First(&rule, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAlertRuleNotFound
		}
		return nil, fmt.Errorf("failed to get alert rule %d: %w", id, err)
	}
	return &rule, nil
}

func (r *alertRuleRepository) CreateRule(ctx context.Context, rule *entities.AlertRule) error {
	if err := validateAlertRule(rule); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(rule).Error; err != nil {
		return fmt.Errorf("failed to create alert rule: %w", err)
	}
	return nil
}

func (r *alertRuleRepository) UpdateRule(ctx context.Context, rule *entities.AlertRule) error {
	if rule.ID == 0 {
		return fmt.Errorf("failed to update alert rule: missing rule ID")
	}
	if err := validateAlertRule(rule); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Save(rule).Error; err != nil {
		return fmt.Errorf("failed to update alert rule %d: %w", rule.ID, err)
	}
	return nil
}

func (r *alertRuleRepository) DeleteRule(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&entities.AlertRule{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete alert rule %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAlertRuleNotFound
	}
	return nil
}

func (r *alertRuleRepository) ToggleRule(ctx context.Context, id uint, enabled bool) error {
	result := r.db.WithContext(ctx).Model(&entities.AlertRule{}).Where("id = ?", id).Update("enabled", enabled)
	if result.Error != nil {
		return fmt.Errorf("failed to toggle alert rule %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAlertRuleNotFound
	}
	return nil
}

func (r *alertRuleRepository) GetEnabledRules(ctx context.Context) ([]entities.AlertRule, error) {
	enabled := true
	return r.ListRules(ctx, AlertRuleFilter{Enabled: &enabled})
}

func (r *alertRuleRepository) RecordRun(ctx context.Context, id uint, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&entities.AlertRule{}).Where("id = ?", id).Update("last_run", at)
	if result.Error != nil {
		return fmt.Errorf("failed to record run for alert rule %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAlertRuleNotFound
	}
	return nil
}

func (r *alertRuleRepository) RecordTrigger(ctx context.Context, id uint, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&entities.AlertRule{}).Where("id = ?", id).Updates(map[string]any{
		"last_triggered": at,
		"trigger_count":  gorm.Expr("trigger_count + 1"),
	})
	if result.Error != nil {
		return fmt.Errorf("failed to record trigger for alert rule %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAlertRuleNotFound
	}
	return nil
}

func (r *alertRuleRepository) SaveHistory(ctx context.Context, entry *entities.AlertHistory) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to save alert history: %w", err)
	}
	return nil
}

func (r *alertRuleRepository) UpdateHistoryActionResults(ctx context.Context, historyID, resultsJSON string) error {
	result := r.db.WithContext(ctx).Model(&entities.AlertHistory{}).Where("id = ?", historyID).Update("action_results", resultsJSON)
	if result.Error != nil {
		return fmt.Errorf("failed to update action results for history %s: %w", historyID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAlertHistoryNotFound
	}
	return nil
}

func (r *alertRuleRepository) ListHistory(ctx context.Context, filter AlertHistoryFilter) ([]entities.AlertHistory, int64, error) {
	var items []entities.AlertHistory
	var total int64

	countQuery := r.db.WithContext(ctx).Model(&entities.AlertHistory{})
	if filter.AlertID > 0 {
		countQuery = countQuery.Where("alert_id = ?", filter.AlertID)
	}
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count alert history: %w", err)
	}

	query := r.db.WithContext(ctx).Order("triggered_at DESC")
	if filter.AlertID > 0 {
		query = query.Where("alert_id = ?", filter.AlertID)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	if err := query.Find(&items).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list alert history: %w", err)
	}
	return items, total, nil
}

func (r *alertRuleRepository) Acknowledge(ctx context.Context, historyID, who, notes string, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&entities.AlertHistory{}).Where("id = ?", historyID).Updates(map[string]any{
		"acknowledged": true,
		"ack_by":       who,
		"ack_at":       at,
		"ack_notes":    notes,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to acknowledge history %s: %w", historyID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAlertHistoryNotFound
	}
	return nil
}

func (r *alertRuleRepository) DeleteHistoryBefore(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("triggered_at < ?", before).Delete(&entities.AlertHistory{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete alert history before %v: %w", before, result.Error)
	}
	return result.RowsAffected, nil
}
