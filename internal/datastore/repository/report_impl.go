package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/logseer/logseer/internal/datastore/entities"
	"github.com/logseer/logseer/internal/errors"
)

// reportRepository implements ReportRepository.
type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository creates a new ReportRepository.
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) List(ctx context.Context) ([]entities.ScheduledReport, error) {
	var reports []entities.ScheduledReport
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return reports, nil
}

func (r *reportRepository) Get(ctx context.Context, id uint) (*entities.ScheduledReport, error) {
	var report entities.ScheduledReport
	if err := r.db.WithContext(ctx).First(&report, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to get report %d: %w", id, err)
	}
	return &report, nil
}

func (r *reportRepository) Create(ctx context.Context, report *entities.ScheduledReport) error {
	if err := validateReport(report); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(report).Error; err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	return nil
}

func (r *reportRepository) Update(ctx context.Context, report *entities.ScheduledReport) error {
	if report.ID == 0 {
		return fmt.Errorf("failed to update report: missing ID")
	}
	if err := validateReport(report); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Save(report).Error; err != nil {
		return fmt.Errorf("failed to update report %d: %w", report.ID, err)
	}
	return nil
}

func (r *reportRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&entities.ScheduledReport{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete report %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrReportNotFound
	}
	return nil
}

func (r *reportRepository) Toggle(ctx context.Context, id uint, enabled bool) error {
	result := r.db.WithContext(ctx).Model(&entities.ScheduledReport{}).Where("id = ?", id).Update("enabled", enabled)
	if result.Error != nil {
		return fmt.Errorf("failed to toggle report %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrReportNotFound
	}
	return nil
}

func (r *reportRepository) GetEnabled(ctx context.Context) ([]entities.ScheduledReport, error) {
	var reports []entities.ScheduledReport
	if err := r.db.WithContext(ctx).Where("enabled = ?", true).Order("id ASC").Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("failed to list enabled reports: %w", err)
	}
	return reports, nil
}

func (r *reportRepository) RecordRun(ctx context.Context, id uint, at time.Time, resultCount int) error {
	result := r.db.WithContext(ctx).Model(&entities.ScheduledReport{}).Where("id = ?", id).Updates(map[string]any{
		"last_run":          at,
		"last_result_count": resultCount,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to record run for report %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrReportNotFound
	}
	return nil
}
