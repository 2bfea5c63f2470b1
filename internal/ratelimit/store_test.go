package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

var epoch = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func TestMemoryStore_FixedWindow(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	res, err := s.Take(ctx, "k", time.Minute, 2, epoch)
	require.NoError(t, err)
	assert.Equal(t, Result{Allowed: true, Count: 1, ResetAt: epoch.Add(time.Minute)}, res)

	res, _ = s.Take(ctx, "k", time.Minute, 2, epoch.Add(10*time.Second))
	assert.True(t, res.Allowed)
	assert.Equal(t, int64(2), res.Count)

	res, _ = s.Take(ctx, "k", time.Minute, 2, epoch.Add(20*time.Second))
	assert.False(t, res.Allowed)
	assert.Equal(t, int64(2), res.Count, "rejections do not count")
	assert.Equal(t, epoch.Add(time.Minute), res.ResetAt)

	res, _ = s.Take(ctx, "k", time.Minute, 2, epoch.Add(time.Minute))
	assert.True(t, res.Allowed)
	assert.Equal(t, int64(1), res.Count)
	assert.Equal(t, epoch.Add(2*time.Minute), res.ResetAt)
}

func TestMemoryStore_ConcurrentTakesNeverOvercount(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	const (
		workers = 50
		perWork = 40
		max     = 500
	)

	var allowed atomic.Int64
	var wg sync.WaitGroup

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perWork {
				res, err := s.Take(ctx, "hot", time.Minute, max, epoch)
				if err == nil && res.Allowed {
					allowed.Add(1)
				}
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, int64(max), allowed.Load())
}

func TestMemoryStore_Undo(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	res, _ := s.Take(ctx, "k", time.Minute, 1, epoch)
	require.True(t, res.Allowed)

	// a refund for some other window is ignored
	require.NoError(t, s.Undo(ctx, "k", epoch.Add(time.Hour), epoch))
	res, _ = s.Take(ctx, "k", time.Minute, 1, epoch)
	assert.False(t, res.Allowed)

	require.NoError(t, s.Undo(ctx, "k", epoch.Add(time.Minute), epoch.Add(time.Second)))
	res, _ = s.Take(ctx, "k", time.Minute, 1, epoch.Add(time.Second))
	assert.True(t, res.Allowed)

	// never below zero
	require.NoError(t, s.Undo(ctx, "k", epoch.Add(time.Minute), epoch.Add(2*time.Second)))
	require.NoError(t, s.Undo(ctx, "k", epoch.Add(time.Minute), epoch.Add(2*time.Second)))
	res, _ = s.Take(ctx, "k", time.Minute, 1, epoch.Add(3*time.Second))
	assert.Equal(t, int64(1), res.Count)

	// a refund after the window ended is a no-op
	require.NoError(t, s.Undo(ctx, "missing", epoch, epoch))
	require.NoError(t, s.Undo(ctx, "k", epoch.Add(time.Minute), epoch.Add(time.Minute)))
}

func TestMemoryStore_SweepAndReset(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, _ = s.Take(ctx, "short", time.Second, 5, epoch)
	_, _ = s.Take(ctx, "long", time.Hour, 5, epoch)
	assert.Equal(t, 2, s.Len())

	assert.Equal(t, 1, s.Sweep(epoch.Add(time.Second)))
	assert.Equal(t, 1, s.Len())

	require.NoError(t, s.Reset(ctx, "long"))
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStore_Janitor(t *testing.T) {
	s := NewMemoryStore()

	_, _ = s.Take(context.Background(), "old", time.Millisecond, 5, time.Now().Add(-time.Second))
	require.Equal(t, 1, s.Len())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.StartJanitor(ctx, 5*time.Millisecond)

	assert.Eventually(t, func() bool { return s.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	s := NewMemoryStore()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Take(ctx, "k", time.Minute, 1, epoch)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, s.Reset(ctx, "k"), context.Canceled)
}

func newULuleStore() *ULuleStore {
	return NewULuleStore(memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: "test"}))
}

func TestULuleStore_FixedWindow(t *testing.T) {
	s := newULuleStore()
	ctx := context.Background()
	now := time.Now()

	res, err := s.Take(ctx, "k", time.Minute, 2, now)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, int64(1), res.Count)
	assert.WithinDuration(t, now.Add(time.Minute), res.ResetAt, 2*time.Second)

	res, _ = s.Take(ctx, "k", time.Minute, 2, now)
	assert.True(t, res.Allowed)
	assert.Equal(t, int64(2), res.Count)

	for range 3 {
		res, err = s.Take(ctx, "k", time.Minute, 2, now)
		require.NoError(t, err)
		assert.False(t, res.Allowed)
	}

	// rejected hits were given back, so one refund reopens exactly one slot
	require.NoError(t, s.Undo(ctx, "k", res.ResetAt.Add(time.Second), now))

	res, _ = s.Take(ctx, "k", time.Minute, 2, now)
	assert.True(t, res.Allowed)
	res, _ = s.Take(ctx, "k", time.Minute, 2, now)
	assert.False(t, res.Allowed)
}

func TestULuleStore_MaxZero(t *testing.T) {
	s := newULuleStore()

	res, err := s.Take(context.Background(), "k", time.Minute, 0, time.Now())
	require.NoError(t, err)
	assert.False(t, res.Allowed)
}

func TestULuleStore_Reset(t *testing.T) {
	s := newULuleStore()
	ctx := context.Background()

	_, _ = s.Take(ctx, "k", time.Minute, 1, time.Now())
	res, _ := s.Take(ctx, "k", time.Minute, 1, time.Now())
	require.False(t, res.Allowed)

	require.NoError(t, s.Reset(ctx, "k"))

	res, _ = s.Take(ctx, "k", time.Minute, 1, time.Now())
	assert.True(t, res.Allowed)
}

func TestULuleStore_DrivesMiddleware(t *testing.T) {
	l, err := New(Config{Name: "orders", Window: time.Minute, Max: 2}, newULuleStore())
	require.NoError(t, err)

	r := newEngine(l.Middleware())

	assert.Equal(t, 200, get(r, "").Code)
	assert.Equal(t, 200, get(r, "").Code)
	assert.Equal(t, 429, get(r, "").Code)
}
