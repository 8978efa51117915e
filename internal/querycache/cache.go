// Package querycache executes compiled queries and memoizes results per
// entity identity with a TTL. Concurrent runs for the same identity are
// coalesced into a single data-store execution, and total concurrent
// executions are capped by a weighted semaphore so one burst cannot
// overwhelm the log store.
package querycache

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/logseer/logseer/internal/datastore"
	"github.com/logseer/logseer/internal/errors"
	"github.com/logseer/logseer/internal/logger"
	"github.com/logseer/logseer/internal/query"
	"github.com/logseer/logseer/internal/timerange"
)

// Key identifies a cache entry: the schedulable entity owning the query.
type Key struct {
	Kind string
	ID   uint
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%d", k.Kind, k.ID)
}

// Spec describes one run request.
type Spec struct {
	Query     string
	TimeRange string
	TTL       time.Duration
}

// Result is the outcome of a run: the rows, the compiled SQL they came
// from, and whether the response was served from cache.
type Result struct {
	Rows     []map[string]any
	SQL      string
	Count    int
	Cached   bool
	Duration time.Duration
	CachedAt time.Time
}

// StoreFunc is an optional persistence hook invoked after a fresh
// execution, letting saved queries mirror their cached snapshot into the
// database.
type StoreFunc func(ctx context.Context, key Key, res *Result)

// Options configures a Cache.
type Options struct {
	// MaxConcurrent bounds simultaneous data-store executions; callers
	// beyond the cap block until a slot frees.
	MaxConcurrent int64
	// ExecTimeout is the per-execution deadline; zero disables it.
	ExecTimeout time.Duration
	// OnStore, when set, is called synchronously after every fresh
	// execution.
	OnStore StoreFunc
}

// Cache is the query execution front. Entries outlive their TTL so that
// GetCached can return a stale snapshot with a validity flag; the
// underlying store evicts them well past staleness.
type Cache struct {
	exec    datastore.Executor
	store   *gocache.Cache
	group   singleflight.Group
	sem     *semaphore.Weighted
	timeout time.Duration
	onStore StoreFunc
	log     logger.Logger
	now     func() time.Time
}

// evictionFactor is how many TTLs a stale entry lingers before the store's
// janitor evicts it.
const evictionFactor = 4

// New creates a Cache over the given executor.
func New(exec datastore.Executor, opts Options, log logger.Logger) *Cache {
	maxConcurrent := opts.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	return &Cache{
		exec:    exec,
		store:   gocache.New(gocache.NoExpiration, 10*time.Minute),
		sem:     semaphore.NewWeighted(maxConcurrent),
		timeout: opts.ExecTimeout,
		onStore: opts.OnStore,
		log:     log,
		now:     time.Now,
	}
}

// Run executes the query for key, serving from cache when the stored
// snapshot is within spec.TTL and force is false. Concurrent calls for the
// same key share one execution.
func (c *Cache) Run(ctx context.Context, key Key, spec Spec, force bool) (*Result, error) {
	if !force {
		if res, valid := c.lookup(key, spec.TTL); valid {
			return res, nil
		}
	}

	v, err, _ := c.group.Do(key.String(), func() (any, error) {
		// Re-check under the flight: a coalesced caller may arrive after
		// the first finished storing.
		if !force {
			if res, valid := c.lookup(key, spec.TTL); valid {
				return res, nil
			}
		}
		return c.execute(ctx, key, spec)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Result), nil
}

// GetCached returns the stored snapshot without triggering execution,
// along with whether it is still within the given TTL. A missing snapshot
// returns (nil, false).
func (c *Cache) GetCached(key Key, ttl time.Duration) (*Result, bool) {
	v, ok := c.store.Get(key.String())
	if !ok {
		return nil, false
	}
	res := v.(*Result)
	return res, c.now().Sub(res.CachedAt) < ttl
}

// Clear drops the snapshot so the next Run executes regardless of TTL.
func (c *Cache) Clear(key Key) {
	c.store.Delete(key.String())
}

func (c *Cache) lookup(key Key, ttl time.Duration) (*Result, bool) {
	if ttl <= 0 {
		return nil, false
	}
	v, ok := c.store.Get(key.String())
	if !ok {
		return nil, false
	}
	stored := v.(*Result)
	if c.now().Sub(stored.CachedAt) >= ttl {
		return nil, false
	}
	cached := *stored
	cached.Cached = true
	return &cached, true
}

func (c *Cache) execute(ctx context.Context, key Key, spec Spec) (*Result, error) {
	iv, err := timerange.Resolve(spec.TimeRange, c.now().UTC())
	if err != nil {
		return nil, err
	}
	compiled, err := query.CompileText(spec.Query, iv)
	if err != nil {
		return nil, err
	}
	rows, duration, err := c.ExecuteCompiled(ctx, compiled)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Rows:     rows,
		SQL:      compiled.SQL,
		Count:    len(rows),
		Duration: duration,
		CachedAt: c.now(),
	}
	c.log.Debug("query executed",
		logger.String("key", key.String()),
		logger.Int("rows", res.Count),
		logger.Duration("duration", duration))
	ttl := spec.TTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	c.store.Set(key.String(), res, ttl*evictionFactor)

	if c.onStore != nil {
		c.onStore(ctx, key, res)
	}
	return res, nil
}

// ExecuteCompiled runs an already-compiled query through the bounded pool
// with the per-execution timeout, without touching the memo store. The
// scheduler uses it for comparison-window queries, which have their own
// identity semantics.
func (c *Cache) ExecuteCompiled(ctx context.Context, compiled *query.Compiled) ([]map[string]any, time.Duration, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, 0, errors.NewExecution(err)
	}
	defer c.sem.Release(1)

	execCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	started := c.now()
	rows, err := c.exec.Execute(execCtx, compiled.SQL, compiled.Args)
	duration := c.now().Sub(started)
	if err != nil {
		if execCtx.Err() == context.DeadlineExceeded {
			return nil, duration, errors.NewExecutionTimeout(err)
		}
		return nil, duration, errors.NewExecution(err)
	}
	return rows, duration, nil
}
