package querycache

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logseer/logseer/internal/errors"
	"github.com/logseer/logseer/internal/logger"
)

type fakeExecutor struct {
	mu       sync.Mutex
	calls    int32
	inflight int32
	maxSeen  int32
	delay    time.Duration
	rows     []map[string]any
	err      error
	lastSQL  string
}

func (f *fakeExecutor) Execute(ctx context.Context, sql string, args []any) ([]map[string]any, error) {
	atomic.AddInt32(&f.calls, 1)
	cur := atomic.AddInt32(&f.inflight, 1)
	defer atomic.AddInt32(&f.inflight, -1)
	for {
		prev := atomic.LoadInt32(&f.maxSeen)
		if cur <= prev || atomic.CompareAndSwapInt32(&f.maxSeen, prev, cur) {
			break
		}
	}
	f.mu.Lock()
	f.lastSQL = sql
	f.mu.Unlock()
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

func testLogger() logger.Logger {
	return logger.NewSlogLogger(io.Discard, logger.LogLevelError, nil)
}

func testSpec(ttl time.Duration) Spec {
	return Spec{Query: "search level=error", TimeRange: "-1h", TTL: ttl}
}

func TestRunCachesWithinTTL(t *testing.T) {
	exec := &fakeExecutor{rows: []map[string]any{{"message": "boom"}}}
	c := New(exec, Options{}, testLogger())
	key := Key{Kind: "alert", ID: 1}

	first, err := c.Run(context.Background(), key, testSpec(time.Minute), false)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, 1, first.Count)

	second, err := c.Run(context.Background(), key, testSpec(time.Minute), false)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, int32(1), atomic.LoadInt32(&exec.calls), "cached hit must not re-execute")
}

func TestRunForceRefreshAlwaysExecutes(t *testing.T) {
	exec := &fakeExecutor{rows: []map[string]any{{"message": "boom"}}}
	c := New(exec, Options{}, testLogger())
	key := Key{Kind: "alert", ID: 1}

	_, err := c.Run(context.Background(), key, testSpec(time.Hour), false)
	require.NoError(t, err)

	res, err := c.Run(context.Background(), key, testSpec(time.Hour), true)
	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.Equal(t, int32(2), atomic.LoadInt32(&exec.calls))
}

func TestRunExpiredTTLReExecutes(t *testing.T) {
	exec := &fakeExecutor{}
	c := New(exec, Options{}, testLogger())
	key := Key{Kind: "query", ID: 7}

	base := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }
	_, err := c.Run(context.Background(), key, testSpec(time.Minute), false)
	require.NoError(t, err)

	c.now = func() time.Time { return base.Add(2 * time.Minute) }
	res, err := c.Run(context.Background(), key, testSpec(time.Minute), false)
	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.Equal(t, int32(2), atomic.LoadInt32(&exec.calls))
}

func TestRunCoalescesConcurrentCallers(t *testing.T) {
	exec := &fakeExecutor{delay: 50 * time.Millisecond, rows: []map[string]any{{"n": 1}}}
	c := New(exec, Options{MaxConcurrent: 8}, testLogger())
	key := Key{Kind: "alert", ID: 3}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := c.Run(context.Background(), key, testSpec(0), false)
			assert.NoError(t, err)
			assert.Equal(t, 1, res.Count)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&exec.calls), "concurrent runs for one key share an execution")
}

func TestSemaphoreBoundsConcurrentExecutions(t *testing.T) {
	exec := &fakeExecutor{delay: 30 * time.Millisecond}
	c := New(exec, Options{MaxConcurrent: 2}, testLogger())

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		key := Key{Kind: "alert", ID: uint(i + 1)}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Run(context.Background(), key, testSpec(0), false)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, atomic.LoadInt32(&exec.maxSeen), int32(2))
	assert.Equal(t, int32(6), atomic.LoadInt32(&exec.calls))
}

func TestExecutionTimeout(t *testing.T) {
	exec := &fakeExecutor{delay: 200 * time.Millisecond}
	c := New(exec, Options{ExecTimeout: 20 * time.Millisecond}, testLogger())

	_, err := c.Run(context.Background(), Key{Kind: "alert", ID: 9}, testSpec(0), false)
	require.Error(t, err)
	var execErr *errors.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.True(t, execErr.Timeout)
}

func TestGetCachedReportsValidity(t *testing.T) {
	exec := &fakeExecutor{rows: []map[string]any{{"n": 1}}}
	c := New(exec, Options{}, testLogger())
	key := Key{Kind: "query", ID: 4}

	base := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }
	_, err := c.Run(context.Background(), key, testSpec(time.Minute), false)
	require.NoError(t, err)

	res, valid := c.GetCached(key, time.Minute)
	require.NotNil(t, res)
	assert.True(t, valid)

	c.now = func() time.Time { return base.Add(90 * time.Second) }
	res, valid = c.GetCached(key, time.Minute)
	require.NotNil(t, res, "stale snapshot stays readable")
	assert.False(t, valid)
}

func TestClearForcesReExecution(t *testing.T) {
	exec := &fakeExecutor{}
	c := New(exec, Options{}, testLogger())
	key := Key{Kind: "query", ID: 5}

	_, err := c.Run(context.Background(), key, testSpec(time.Hour), false)
	require.NoError(t, err)
	c.Clear(key)
	_, err = c.Run(context.Background(), key, testSpec(time.Hour), false)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&exec.calls))
}

func TestOnStoreHookReceivesFreshResults(t *testing.T) {
	exec := &fakeExecutor{rows: []map[string]any{{"n": 1}, {"n": 2}}}
	var storedKey Key
	var storedCount int
	c := New(exec, Options{OnStore: func(_ context.Context, key Key, res *Result) {
		storedKey = key
		storedCount = res.Count
	}}, testLogger())

	key := Key{Kind: "query", ID: 11}
	_, err := c.Run(context.Background(), key, testSpec(time.Minute), false)
	require.NoError(t, err)
	assert.Equal(t, key, storedKey)
	assert.Equal(t, 2, storedCount)

	// Cached hits must not re-invoke persistence.
	storedCount = -1
	_, err = c.Run(context.Background(), key, testSpec(time.Minute), false)
	require.NoError(t, err)
	assert.Equal(t, -1, storedCount)
}
