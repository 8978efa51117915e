package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/logseer/logseer/internal/datastore/entities"
	"github.com/logseer/logseer/internal/errors"
)

// syntheticRepository implements SyntheticRepository.
type syntheticRepository struct {
	db *gorm.DB
}

// NewSyntheticRepository creates a new SyntheticRepository.
func NewSyntheticRepository(db *gorm.DB) SyntheticRepository {
	return &syntheticRepository{db: db}
}

func (r *syntheticRepository) List(ctx context.Context) ([]entities.SyntheticTest, error) {
	var tests []entities.SyntheticTest
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&tests).Error; err != nil {
		return nil, fmt.Errorf("failed to list synthetic tests: %w", err)
	}
	return tests, nil
}

func (r *syntheticRepository) Get(ctx context.Context, id uint) (*entities.SyntheticTest, error) {
	var test entities.SyntheticTest
	if err := r.db.WithContext(ctx).First(&test, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSyntheticTestNotFound
		}
		return nil, fmt.Errorf("failed to get synthetic test %d: %w", id, err)
	}
	return &test, nil
}

func (r *syntheticRepository) Create(ctx context.Context, t *entities.SyntheticTest) error {
	if err := validateSyntheticTest(t); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("failed to create synthetic test: %w", err)
	}
	return nil
}

func (r *syntheticRepository) Update(ctx context.Context, t *entities.SyntheticTest) error {
	if t.ID == 0 {
		return fmt.Errorf("failed to update synthetic test: missing ID")
	}
	if err := validateSyntheticTest(t); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Save(t).Error; err != nil {
		return fmt.Errorf("failed to update synthetic test %d: %w", t.ID, err)
	}
	return nil
}

func (r *syntheticRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&entities.SyntheticTest{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete synthetic test %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSyntheticTestNotFound
	}
	return nil
}

func (r *syntheticRepository) Toggle(ctx context.Context, id uint, enabled bool) error {
	result := r.db.WithContext(ctx).Model(&entities.SyntheticTest{}).Where("id = ?", id).Update("enabled", enabled)
	if result.Error != nil {
		return fmt.Errorf("failed to toggle synthetic test %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSyntheticTestNotFound
	}
	return nil
}

func (r *syntheticRepository) GetEnabled(ctx context.Context) ([]entities.SyntheticTest, error) {
	var tests []entities.SyntheticTest
	if err := r.db.WithContext(ctx).Where("enabled = ?", true).Order("id ASC").Find(&tests).Error; err != nil {
		return nil, fmt.Errorf("failed to list enabled synthetic tests: %w", err)
	}
	return tests, nil
}

func (r *syntheticRepository) SaveResult(ctx context.Context, result *entities.SyntheticResult) error {
	if err := r.db.WithContext(ctx).Create(result).Error; err != nil {
		return fmt.Errorf("failed to save synthetic result: %w", err)
	}
	return nil
}

func (r *syntheticRepository) ListResults(ctx context.Context, testID uint, limit int) ([]entities.SyntheticResult, error) {
	var results []entities.SyntheticResult
	query := r.db.WithContext(ctx).Where("test_id = ?", testID).Order("ran_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to list synthetic results for test %d: %w", testID, err)
	}
	return results, nil
}

func (r *syntheticRepository) RecordOutcome(ctx context.Context, id uint, consecutiveFailures int, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&entities.SyntheticTest{}).Where("id = ?", id).Updates(map[string]any{
		"consecutive_failures": consecutiveFailures,
		"last_run":             at,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to record outcome for synthetic test %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSyntheticTestNotFound
	}
	return nil
}
