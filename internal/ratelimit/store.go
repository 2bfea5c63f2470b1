package ratelimit

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"codeberg.org/dishdash/server/internal/logger"
)

// Result is the outcome of counting one request.
type Result struct {
	Allowed bool

	// requests accepted in the current window, including this one
	Count int64

	// instant the current window ends
	ResetAt time.Time
}

// Store holds fixed window counters. Implementations must make Take atomic per key.
type Store interface {
	// counts one request against key unless max is already reached.
	// a record whose window ended at or before now is treated as absent.
	Take(ctx context.Context, key string, window time.Duration, max int64, now time.Time) (Result, error)

	// refunds one request, only while the window ending at resetAt is still live
	Undo(ctx context.Context, key string, resetAt, now time.Time) error

	// forgets key entirely
	Reset(ctx context.Context, key string) error
}

const shardCount = 32

type record struct {
	count   int64
	resetAt time.Time
}

type shard struct {
	mu      sync.Mutex
	records map[string]*record
}

// MemoryStore keeps counters in process, sharded by key hash.
type MemoryStore struct {
	shards [shardCount]shard
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{}
	for i := range s.shards {
		s.shards[i].records = make(map[string]*record)
	}

	return s
}

func (s *MemoryStore) shardFor(key string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))

	return &s.shards[h.Sum32()%shardCount]
}

func (s *MemoryStore) Take(ctx context.Context, key string, window time.Duration, max int64, now time.Time) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	rec, ok := sh.records[key]
	if !ok || !now.Before(rec.resetAt) {
		rec = &record{resetAt: now.Add(window)}
		sh.records[key] = rec
	}

	if rec.count >= max {
		return Result{Allowed: false, Count: rec.count, ResetAt: rec.resetAt}, nil
	}

	rec.count++

	return Result{Allowed: true, Count: rec.count, ResetAt: rec.resetAt}, nil
}

func (s *MemoryStore) Undo(ctx context.Context, key string, resetAt, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	rec, ok := sh.records[key]
	if !ok || !rec.resetAt.Equal(resetAt) || !now.Before(rec.resetAt) || rec.count == 0 {
		return nil
	}

	rec.count--

	return nil
}

func (s *MemoryStore) Reset(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	sh := s.shardFor(key)
	sh.mu.Lock()
	delete(sh.records, key)
	sh.mu.Unlock()

	return nil
}

// Sweep drops records whose window has ended and returns how many were removed.
func (s *MemoryStore) Sweep(now time.Time) int {
	removed := 0

	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		for key, rec := range sh.records {
			if !now.Before(rec.resetAt) {
				delete(sh.records, key)
				removed++
			}
		}
		sh.mu.Unlock()
	}

	return removed
}

// Len returns the number of live and expired records still held.
func (s *MemoryStore) Len() int {
	n := 0

	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		n += len(sh.records)
		sh.mu.Unlock()
	}

	return n
}

// starts a background goroutine that sweeps expired records
func (s *MemoryStore) StartJanitor(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if removed := s.Sweep(now); removed > 0 {
					logger.Debug("swept expired rate limit records", "removed", removed)
				}
			}
		}
	}()
}
