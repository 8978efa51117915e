// Package scheduler drives all scheduled entities: alert rules, scheduled
// reports, synthetic tests and saved-query cache refreshes. Each entity
// fires on its own cron cadence, runs at most once concurrently, and a
// failure in one entity never stops the others.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/logseer/logseer/internal/alerting"
	"github.com/logseer/logseer/internal/datastore/repository"
	"github.com/logseer/logseer/internal/errors"
	"github.com/logseer/logseer/internal/logger"
	"github.com/logseer/logseer/internal/notification"
	"github.com/logseer/logseer/internal/querycache"
	"github.com/logseer/logseer/internal/synthetic"
)

// Entity kinds the scheduler drives.
const (
	KindAlert     = "alert"
	KindReport    = "report"
	KindSynthetic = "synthetic"
	KindQuery     = "query"
)

// ErrAlreadyRunning is returned by RunNow when the entity's prior run has
// not completed.
var ErrAlreadyRunning = errors.New("entity run already in progress")

const (
	// persistTimeout bounds bookkeeping writes done outside a run's context.
	persistTimeout = 3 * time.Second
	// cleanupTimeout bounds the periodic history deletion.
	cleanupTimeout = 5 * time.Second
	// cleanupInterval is how often the history cleanup goroutine runs.
	cleanupInterval = 1 * time.Hour
	// sampleRowLimit caps how many result rows a history entry retains.
	sampleRowLimit = 5
)

type entityRef struct {
	kind string
	id   uint
}

func (r entityRef) String() string {
	return fmt.Sprintf("%s/%d", r.kind, r.id)
}

// Repos bundles the persistence interfaces the scheduler drives.
type Repos struct {
	Queries    repository.SavedQueryRepository
	Alerts     repository.AlertRuleRepository
	Reports    repository.ReportRepository
	Synthetics repository.SyntheticRepository
}

// Options configures scheduler behavior.
type Options struct {
	// DefaultTTL is the cache TTL for entities without their own.
	DefaultTTL time.Duration
	// HistoryRetentionDays is how long alert history is kept; zero
	// disables the cleanup loop.
	HistoryRetentionDays int
}

// Scheduler owns the cron runner, the entity registry, and the per-entity
// run guards. Construct once at process start; entities register and
// deregister through it rather than any ambient global.
type Scheduler struct {
	cron       *cron.Cron
	cache      *querycache.Cache
	suppressor *alerting.Suppressor
	probers    *synthetic.Registry
	repos      Repos
	log        logger.Logger
	defaultTTL time.Duration
	now        func() time.Time

	mu          sync.Mutex
	entries     map[entityRef]cron.EntryID
	running     map[entityRef]bool
	cleanupStop chan struct{}

	// dispatchWG tracks fire-and-forget action dispatches so Stop can
	// drain them.
	dispatchWG sync.WaitGroup
}

// New creates a Scheduler. Call LoadAll then Start to begin evaluation.
func New(repos Repos, cache *querycache.Cache, suppressor *alerting.Suppressor, probers *synthetic.Registry, opts Options, log logger.Logger) *Scheduler {
	ttl := opts.DefaultTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	s := &Scheduler{
		cache:      cache,
		suppressor: suppressor,
		probers:    probers,
		repos:      repos,
		log:        log,
		defaultTTL: ttl,
		now:        time.Now,
		entries:    make(map[entityRef]cron.EntryID),
		running:    make(map[entityRef]bool),
	}
	s.cron = cron.New(cron.WithChain(cron.Recover(cronLogger{log})))
	if opts.HistoryRetentionDays > 0 {
		s.startHistoryCleanup(opts.HistoryRetentionDays)
	}
	return s
}

// Register schedules an entity on its cron expression, replacing any
// existing registration for the same entity.
func (s *Scheduler) Register(kind string, id uint, schedule string) error {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return errors.NewValidation("schedule", "invalid cron expression %q: %v", schedule, err)
	}

	ref := entityRef{kind: kind, id: id}
	entryID, err := s.cron.AddFunc(schedule, func() { s.wake(ref) })
	if err != nil {
		return fmt.Errorf("scheduling %s: %w", ref, err)
	}

	s.mu.Lock()
	if old, ok := s.entries[ref]; ok {
		s.cron.Remove(old)
	}
	s.entries[ref] = entryID
	s.mu.Unlock()

	s.log.Debug("entity scheduled",
		logger.String("entity", ref.String()),
		logger.String("schedule", schedule))
	scheduledEntities.WithLabelValues(kind).Inc()
	return nil
}

// Remove deregisters an entity. An in-flight run is not aborted; only
// future wakes are prevented.
func (s *Scheduler) Remove(kind string, id uint) {
	ref := entityRef{kind: kind, id: id}
	s.mu.Lock()
	entryID, ok := s.entries[ref]
	if ok {
		s.cron.Remove(entryID)
		delete(s.entries, ref)
	}
	s.mu.Unlock()
	if ok {
		s.log.Debug("entity deregistered", logger.String("entity", ref.String()))
		scheduledEntities.WithLabelValues(kind).Dec()
	}
}

// SetEnabled pauses or resumes an entity's scheduling. Resuming reloads
// the entity's schedule from its store.
func (s *Scheduler) SetEnabled(ctx context.Context, kind string, id uint, enabled bool) error {
	if !enabled {
		s.Remove(kind, id)
		return nil
	}
	schedule, err := s.lookupSchedule(ctx, kind, id)
	if err != nil {
		return err
	}
	return s.Register(kind, id, schedule)
}

func (s *Scheduler) lookupSchedule(ctx context.Context, kind string, id uint) (string, error) {
	switch kind {
	case KindAlert:
		rule, err := s.repos.Alerts.GetRule(ctx, id)
		if err != nil {
			return "", err
		}
		return rule.Schedule, nil
	case KindReport:
		report, err := s.repos.Reports.Get(ctx, id)
		if err != nil {
			return "", err
		}
		return report.Schedule, nil
	case KindSynthetic:
		test, err := s.repos.Synthetics.Get(ctx, id)
		if err != nil {
			return "", err
		}
		return test.Schedule, nil
	case KindQuery:
		q, err := s.repos.Queries.Get(ctx, id)
		if err != nil {
			return "", err
		}
		return q.RefreshCron, nil
	default:
		return "", errors.NewValidation("kind", "unknown entity kind %q", kind)
	}
}

// RunNow triggers an entity immediately, bypassing the cache TTL. It runs
// synchronously and returns ErrAlreadyRunning if the entity's scheduled
// run is in flight.
func (s *Scheduler) RunNow(ctx context.Context, kind string, id uint) error {
	ref := entityRef{kind: kind, id: id}
	if !s.acquire(ref) {
		return ErrAlreadyRunning
	}
	defer s.release(ref)
	return s.run(ctx, ref, true)
}

// LoadAll registers every enabled entity from the stores. Individual load
// or registration failures are logged and skipped.
func (s *Scheduler) LoadAll(ctx context.Context) error {
	rules, err := s.repos.Alerts.GetEnabledRules(ctx)
	if err != nil {
		return fmt.Errorf("loading alert rules: %w", err)
	}
	for i := range rules {
		if err := s.Register(KindAlert, rules[i].ID, rules[i].Schedule); err != nil {
			s.log.Error("failed to schedule alert rule",
				logger.Uint64("id", uint64(rules[i].ID)), logger.Error(err))
		}
	}

	reports, err := s.repos.Reports.GetEnabled(ctx)
	if err != nil {
		return fmt.Errorf("loading reports: %w", err)
	}
	for i := range reports {
		if err := s.Register(KindReport, reports[i].ID, reports[i].Schedule); err != nil {
			s.log.Error("failed to schedule report",
				logger.Uint64("id", uint64(reports[i].ID)), logger.Error(err))
		}
	}

	tests, err := s.repos.Synthetics.GetEnabled(ctx)
	if err != nil {
		return fmt.Errorf("loading synthetic tests: %w", err)
	}
	for i := range tests {
		if err := s.Register(KindSynthetic, tests[i].ID, tests[i].Schedule); err != nil {
			s.log.Error("failed to schedule synthetic test",
				logger.Uint64("id", uint64(tests[i].ID)), logger.Error(err))
		}
	}

	queries, err := s.repos.Queries.ListScheduled(ctx)
	if err != nil {
		return fmt.Errorf("loading scheduled queries: %w", err)
	}
	for i := range queries {
		if err := s.Register(KindQuery, queries[i].ID, queries[i].RefreshCron); err != nil {
			s.log.Error("failed to schedule query refresh",
				logger.Uint64("id", uint64(queries[i].ID)), logger.Error(err))
		}
	}

	s.log.Info("scheduler loaded",
		logger.Int("alerts", len(rules)),
		logger.Int("reports", len(reports)),
		logger.Int("synthetic_tests", len(tests)),
		logger.Int("query_refreshes", len(queries)))
	return nil
}

// Start begins firing cron entries.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started")
}

// Stop halts future wakes, waits for in-flight runs and pending action
// dispatches to finish, and stops the cleanup loop.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.dispatchWG.Wait()
	s.stopCleanup()
	s.log.Info("scheduler stopped")
}

// wake is the cron entry point. The run guard enforces at most one
// concurrent run per entity; a wake that finds the guard held is dropped,
// never queued.
func (s *Scheduler) wake(ref entityRef) {
	if !s.acquire(ref) {
		s.log.Warn("run skipped, previous still running",
			logger.String("entity", ref.String()))
		skipsTotal.WithLabelValues(ref.kind).Inc()
		return
	}
	defer s.release(ref)

	if err := s.run(context.Background(), ref, false); err != nil {
		s.log.Error("entity run failed",
			logger.String("entity", ref.String()),
			logger.Error(err))
	}
}

func (s *Scheduler) acquire(ref entityRef) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running[ref] {
		return false
	}
	s.running[ref] = true
	return true
}

func (s *Scheduler) release(ref entityRef) {
	s.mu.Lock()
	delete(s.running, ref)
	s.mu.Unlock()
}

func (s *Scheduler) run(ctx context.Context, ref entityRef, force bool) error {
	started := s.now()
	var err error
	switch ref.kind {
	case KindAlert:
		err = s.runAlert(ctx, ref.id, force)
	case KindReport:
		err = s.runReport(ctx, ref.id, force)
	case KindSynthetic:
		err = s.runSynthetic(ctx, ref.id)
	case KindQuery:
		err = s.runSavedQuery(ctx, ref.id, force)
	default:
		err = errors.NewValidation("kind", "unknown entity kind %q", ref.kind)
	}

	status := "success"
	if err != nil {
		status = "failure"
	}
	runsTotal.WithLabelValues(ref.kind, status).Inc()
	runDuration.WithLabelValues(ref.kind).Observe(s.now().Sub(started).Seconds())
	return err
}

// startHistoryCleanup launches the periodic alert-history retention loop.
func (s *Scheduler) startHistoryCleanup(retentionDays int) {
	s.mu.Lock()
	s.cleanupStop = make(chan struct{})
	stopCh := s.cleanupStop
	s.mu.Unlock()

	go func() {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				cutoff := s.now().AddDate(0, 0, -retentionDays)
				cleanupCtx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
				deleted, err := s.repos.Alerts.DeleteHistoryBefore(cleanupCtx, cutoff)
				cancel()
				if err != nil {
					s.log.Error("alert history cleanup failed", logger.Error(err))
				} else if deleted > 0 {
					s.log.Info("alert history cleanup completed",
						logger.Int64("deleted", deleted),
						logger.Int("retention_days", retentionDays))
				}
			case <-stopCh:
				return
			}
		}
	}()
}

// stopCleanup makes the nil-check-then-close atomic so Stop and a
// concurrent restart cannot double-close.
func (s *Scheduler) stopCleanup() {
	s.mu.Lock()
	ch := s.cleanupStop
	s.cleanupStop = nil
	s.mu.Unlock()
	if ch != nil {
		close(ch)
	}
}

// dispatch hands a rendered notification to the configured dispatcher.
func (s *Scheduler) dispatch(ctx context.Context, r notification.Rendered) error {
	d := notification.GetDispatcher()
	if d == nil {
		return errors.New("no dispatcher configured")
	}
	return d.Dispatch(ctx, r)
}

// cronLogger adapts the application logger to cron's panic recovery.
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(msg, logger.Any("details", keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(msg, logger.Error(err), logger.Any("details", keysAndValues))
}
