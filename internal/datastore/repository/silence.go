package repository

import (
	"context"
	"time"

	"github.com/logseer/logseer/internal/datastore/entities"
)

// SilenceRepository handles silence CRUD. Expired silences are excluded at
// read time; there is no background sweep.
type SilenceRepository interface {
	Create(ctx context.Context, s *entities.Silence) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]entities.Silence, error)
	// ListActive returns silences whose window covers the given instant.
	ListActive(ctx context.Context, now time.Time) ([]entities.Silence, error)
}
