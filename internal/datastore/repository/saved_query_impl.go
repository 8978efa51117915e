package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/logseer/logseer/internal/datastore/entities"
	"github.com/logseer/logseer/internal/errors"
)

// savedQueryRepository implements SavedQueryRepository.
type savedQueryRepository struct {
	db *gorm.DB
}

// NewSavedQueryRepository creates a new SavedQueryRepository.
func NewSavedQueryRepository(db *gorm.DB) SavedQueryRepository {
	return &savedQueryRepository{db: db}
}

func (r *savedQueryRepository) List(ctx context.Context) ([]entities.SavedQuery, error) {
	var queries []entities.SavedQuery
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&queries).Error; err != nil {
		return nil, fmt.Errorf("failed to list saved queries: %w", err)
	}
	return queries, nil
}

func (r *savedQueryRepository) Get(ctx context.Context, id uint) (*entities.SavedQuery, error) {
	var q entities.SavedQuery
	if err := r.db.WithContext(ctx).First(&q, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSavedQueryNotFound
		}
		return nil, fmt.Errorf("failed to get saved query %d: %w", id, err)
	}
	return &q, nil
}

func (r *savedQueryRepository) Create(ctx context.Context, q *entities.SavedQuery) error {
	if err := validateSavedQuery(q); err != nil {
		return err
	}
	q.Version = 1
	if err := r.db.WithContext(ctx).Create(q).Error; err != nil {
		return fmt.Errorf("failed to create saved query: %w", err)
	}
	return nil
}

// Update applies an edit inside a transaction: the stored version is
// appended to the history, then the new text/range is saved with an
// incremented version.
func (r *savedQueryRepository) Update(ctx context.Context, q *entities.SavedQuery) error {
	if q.ID == 0 {
		return fmt.Errorf("failed to update saved query: missing ID")
	}
	if err := validateSavedQuery(q); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current entities.SavedQuery
		if err := tx.First(&current, q.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSavedQueryNotFound
			}
			return fmt.Errorf("failed to load saved query %d: %w", q.ID, err)
		}
		current.AppendVersion(time.Now())
		q.Version = current.Version
		q.VersionHistory = current.VersionHistory
		if err := tx.Save(q).Error; err != nil {
			return fmt.Errorf("failed to update saved query %d: %w", q.ID, err)
		}
		return nil
	})
}

func (r *savedQueryRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&entities.SavedQuery{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete saved query %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSavedQueryNotFound
	}
	return nil
}

func (r *savedQueryRepository) UpdateCache(ctx context.Context, id uint, snap CacheSnapshot) error {
	result := r.db.WithContext(ctx).Model(&entities.SavedQuery{}).Where("id = ?", id).Updates(map[string]any{
		"cached_results": snap.ResultsJSON,
		"cached_sql":     snap.SQL,
		"cached_count":   snap.Count,
		"cached_at":      snap.CachedAt,
		"run_count":      gorm.Expr("run_count + 1"),
	})
	if result.Error != nil {
		return fmt.Errorf("failed to update cache for saved query %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSavedQueryNotFound
	}
	return nil
}

func (r *savedQueryRepository) ClearCache(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Model(&entities.SavedQuery{}).Where("id = ?", id).Updates(map[string]any{
		"cached_results": "",
		"cached_sql":     "",
		"cached_count":   0,
		"cached_at":      nil,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to clear cache for saved query %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSavedQueryNotFound
	}
	return nil
}

func (r *savedQueryRepository) ListScheduled(ctx context.Context) ([]entities.SavedQuery, error) {
	var queries []entities.SavedQuery
	if err := r.db.WithContext(ctx).Where("refresh_cron <> ''").Order("id ASC").Find(&queries).Error; err != nil {
		return nil, fmt.Errorf("failed to list scheduled saved queries: %w", err)
	}
	return queries, nil
}
