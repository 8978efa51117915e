package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/logseer/logseer/internal/datastore/repository"
	"github.com/logseer/logseer/internal/logger"
	"github.com/logseer/logseer/internal/querycache"
)

// runSavedQuery refreshes a saved query's cached results. A scheduled
// refresh always executes; its whole point is replacing the snapshot
// before users ask for it.
func (s *Scheduler) runSavedQuery(ctx context.Context, id uint, _ bool) error {
	q, err := s.repos.Queries.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("loading saved query %d: %w", id, err)
	}

	key := querycache.Key{Kind: KindQuery, ID: id}
	spec := querycache.Spec{
		Query:     q.Query,
		TimeRange: q.TimeRange,
		TTL:       time.Duration(q.CacheTTLSec) * time.Second,
	}
	res, err := s.cache.Run(ctx, key, spec, true)
	if err != nil {
		return fmt.Errorf("saved query %d refresh: %w", id, err)
	}

	s.log.Debug("saved query cache refreshed",
		logger.Uint64("query_id", uint64(id)),
		logger.Int("result_count", res.Count),
		logger.Duration("duration", res.Duration))
	return nil
}

// SavedQuerySnapshotStore returns the query-cache persistence hook that
// mirrors fresh saved-query executions into the database. Other entity
// kinds keep their snapshots in memory only.
func SavedQuerySnapshotStore(queries repository.SavedQueryRepository, log logger.Logger) querycache.StoreFunc {
	return func(ctx context.Context, key querycache.Key, res *querycache.Result) {
		if key.Kind != KindQuery {
			return
		}
		resultsJSON, err := json.Marshal(res.Rows)
		if err != nil {
			log.Error("failed to encode cached results",
				logger.Uint64("query_id", uint64(key.ID)), logger.Error(err))
			return
		}
		snap := repository.CacheSnapshot{
			ResultsJSON: string(resultsJSON),
			SQL:         res.SQL,
			Count:       res.Count,
			CachedAt:    res.CachedAt,
		}
		if err := queries.UpdateCache(ctx, key.ID, snap); err != nil {
			log.Error("failed to persist cache snapshot",
				logger.Uint64("query_id", uint64(key.ID)), logger.Error(err))
		}
	}
}
