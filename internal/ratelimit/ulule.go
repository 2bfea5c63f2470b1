package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// ULuleStore adapts a ulule limiter store (redis or memory driver) to Store.
// Windows are tracked by the backing store's own clock at second precision.
type ULuleStore struct {
	store limiter.Store
}

func NewULuleStore(store limiter.Store) *ULuleStore {
	return &ULuleStore{store: store}
}

// NewRedisStore shares counters between instances through redis.
func NewRedisStore(client *redis.Client, prefix string) (*ULuleStore, error) {
	store, err := sredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: prefix})
	if err != nil {
		return nil, fmt.Errorf("failed to create redis rate limit store: %w", err)
	}

	return NewULuleStore(store), nil
}

func (s *ULuleStore) Take(ctx context.Context, key string, window time.Duration, max int64, now time.Time) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	rate := limiter.Rate{Period: window, Limit: max}

	lctx, err := s.store.Increment(ctx, key, 1, rate)
	if err != nil {
		return Result{}, err
	}

	resetAt := time.Unix(lctx.Reset, 0)

	if lctx.Reached {
		// rejected requests are not counted
		if _, err := s.store.Increment(ctx, key, -1, rate); err != nil {
			return Result{}, err
		}

		return Result{Allowed: false, Count: max, ResetAt: resetAt}, nil
	}

	return Result{Allowed: true, Count: lctx.Limit - lctx.Remaining, ResetAt: resetAt}, nil
}

func (s *ULuleStore) Undo(ctx context.Context, key string, resetAt, now time.Time) error {
	if !now.Before(resetAt) {
		return nil
	}

	_, err := s.store.Increment(ctx, key, -1, limiter.Rate{Period: resetAt.Sub(now), Limit: 0})
	return err
}

func (s *ULuleStore) Reset(ctx context.Context, key string) error {
	_, err := s.store.Reset(ctx, key, limiter.Rate{})
	return err
}
