// Package repository defines persistence interfaces for the engine's
// entities and their GORM implementations. The interfaces are the
// collaborator boundary; the engine only depends on them.
package repository

import (
	"context"
	"time"

	"github.com/logseer/logseer/internal/datastore/entities"
)

// CacheSnapshot carries the fields refreshed atomically after a query
// execution.
type CacheSnapshot struct {
	ResultsJSON string
	SQL         string
	Count       int
	CachedAt    time.Time
}

// SavedQueryRepository handles saved query CRUD and cache bookkeeping.
type SavedQueryRepository interface {
	List(ctx context.Context) ([]entities.SavedQuery, error)
	Get(ctx context.Context, id uint) (*entities.SavedQuery, error)
	Create(ctx context.Context, q *entities.SavedQuery) error
	// Update applies an edit: version increments and the prior version is
	// appended to the bounded history.
	Update(ctx context.Context, q *entities.SavedQuery) error
	Delete(ctx context.Context, id uint) error

	// UpdateCache atomically replaces the cached result fields and
	// increments the run counter.
	UpdateCache(ctx context.Context, id uint, snap CacheSnapshot) error
	// ClearCache forces the next run to execute regardless of TTL.
	ClearCache(ctx context.Context, id uint) error

	// ListScheduled returns queries with a refresh schedule configured.
	ListScheduled(ctx context.Context) ([]entities.SavedQuery, error)
}
