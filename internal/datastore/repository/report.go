package repository

import (
	"context"
	"time"

	"github.com/logseer/logseer/internal/datastore/entities"
)

// ReportRepository handles scheduled report CRUD.
type ReportRepository interface {
	List(ctx context.Context) ([]entities.ScheduledReport, error)
	Get(ctx context.Context, id uint) (*entities.ScheduledReport, error)
	Create(ctx context.Context, r *entities.ScheduledReport) error
	Update(ctx context.Context, r *entities.ScheduledReport) error
	Delete(ctx context.Context, id uint) error
	Toggle(ctx context.Context, id uint, enabled bool) error
	GetEnabled(ctx context.Context) ([]entities.ScheduledReport, error)
	// RecordRun updates last_run and last_result_count.
	RecordRun(ctx context.Context, id uint, at time.Time, resultCount int) error
}

// SyntheticRepository handles synthetic test CRUD and results.
type SyntheticRepository interface {
	List(ctx context.Context) ([]entities.SyntheticTest, error)
	Get(ctx context.Context, id uint) (*entities.SyntheticTest, error)
	Create(ctx context.Context, t *entities.SyntheticTest) error
	Update(ctx context.Context, t *entities.SyntheticTest) error
	Delete(ctx context.Context, id uint) error
	Toggle(ctx context.Context, id uint, enabled bool) error
	GetEnabled(ctx context.Context) ([]entities.SyntheticTest, error)

	SaveResult(ctx context.Context, result *entities.SyntheticResult) error
	ListResults(ctx context.Context, testID uint, limit int) ([]entities.SyntheticResult, error)
	// RecordOutcome updates consecutive_failures and last_run after a probe.
	RecordOutcome(ctx context.Context, id uint, consecutiveFailures int, at time.Time) error
}
