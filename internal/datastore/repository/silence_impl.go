package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/logseer/logseer/internal/datastore/entities"
)

// silenceRepository implements SilenceRepository.
type silenceRepository struct {
	db *gorm.DB
}

// NewSilenceRepository creates a new SilenceRepository.
func NewSilenceRepository(db *gorm.DB) SilenceRepository {
	return &silenceRepository{db: db}
}

func (r *silenceRepository) Create(ctx context.Context, s *entities.Silence) error {
	if err := validateSilence(s); err != nil {
		return err
	}
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.StartsAt.IsZero() {
		s.StartsAt = time.Now()
	}
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		return fmt.Errorf("failed to create silence: %w", err)
	}
	return nil
}

func (r *silenceRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entities.Silence{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete silence %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSilenceNotFound
	}
	return nil
}

func (r *silenceRepository) List(ctx context.Context) ([]entities.Silence, error) {
	var silences []entities.Silence
	if err := r.db.WithContext(ctx).Order("starts_at DESC").Find(&silences).Error; err != nil {
		return nil, fmt.Errorf("failed to list silences: %w", err)
	}
	return silences, nil
}

func (r *silenceRepository) ListActive(ctx context.Context, now time.Time) ([]entities.Silence, error) {
	var silences []entities.Silence
	err := r.db.WithContext(ctx).
		Where("starts_at <= ?", now).
		Where("ends_at IS NULL OR ends_at > ?", now).
		Find(&silences).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active silences: %w", err)
	}
	return silences, nil
}
