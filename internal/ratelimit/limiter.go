package ratelimit

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"codeberg.org/dishdash/server/internal/errors"
	"codeberg.org/dishdash/server/internal/logger"
	"github.com/gin-gonic/gin"
)

const (
	HeaderLimit      = "X-RateLimit-Limit"
	HeaderRemaining  = "X-RateLimit-Remaining"
	HeaderReset      = "X-RateLimit-Reset"
	HeaderRetryAfter = "Retry-After"
)

// Limiter enforces one Config against an injected Store.
type Limiter struct {
	config   Config
	store    Store
	now      func() time.Time
	onReject func(name string)
}

type Option func(*Limiter)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// WithRejectHook is called with the limiter name for every rejected request.
func WithRejectHook(fn func(name string)) Option {
	return func(l *Limiter) {
		l.onReject = fn
	}
}

// creates a limiter; store is required and may be shared between limiters
func New(cfg Config, store Store, opts ...Option) (*Limiter, error) {
	if store == nil {
		return nil, fmt.Errorf("rate limiter %q: store is required", cfg.Name)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	l := &Limiter{
		config: cfg,
		store:  store,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l, nil
}

func (l *Limiter) Name() string {
	return l.config.Name
}

func (l *Limiter) Config() Config {
	return l.config
}

func (l *Limiter) key(raw string) string {
	return l.config.Name + ":" + raw
}

// Reset clears the counter for a key as produced by the limiter's KeyFunc.
func (l *Limiter) Reset(ctx context.Context, key string) error {
	return l.store.Reset(ctx, l.key(key))
}

// returns a Gin middleware that counts requests in fixed windows
func (l *Limiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		now := l.now()
		key := l.key(l.config.KeyFunc(c))

		res, err := l.store.Take(ctx, key, l.config.Window, l.config.Max, now)
		if err != nil {
			errors.Abort(c, errors.Wrap(errors.CodeServiceUnavailable, fmt.Errorf("rate limiter %s: %w", l.config.Name, err)))
			return
		}

		remaining := l.config.Max - res.Count
		if !res.Allowed || remaining < 0 {
			remaining = 0
		}

		c.Header(HeaderLimit, strconv.FormatInt(l.config.Max, 10))
		c.Header(HeaderRemaining, strconv.FormatInt(remaining, 10))
		c.Header(HeaderReset, strconv.FormatInt(res.ResetAt.Unix(), 10))

		if !res.Allowed {
			l.reject(c, key, retryAfter(res.ResetAt, now))
			return
		}

		c.Next()

		if !l.config.Compensate.refunds(finalStatus(c)) {
			return
		}

		// the request may already be cancelled; the refund must still land
		if err := l.store.Undo(context.WithoutCancel(ctx), key, res.ResetAt, l.now()); err != nil {
			logger.ErrorErr(err, "failed to refund rate limit hit", "limiter", l.config.Name, "key", key)
		}
	}
}

func (l *Limiter) reject(c *gin.Context, key string, seconds int64) {
	logger.Debug("rate limit exceeded", "limiter", l.config.Name, "key", key, "retry_after", seconds)

	if l.onReject != nil {
		l.onReject(l.config.Name)
	}

	c.Header(HeaderRetryAfter, strconv.FormatInt(seconds, 10))

	errors.Abort(c, errors.New(l.config.Code).WithDetails(map[string]any{
		"retryAfter": seconds,
		"limit":      l.config.Max,
	}))
}

// whole seconds until resetAt, never below one
func retryAfter(resetAt, now time.Time) int64 {
	seconds := int64(math.Ceil(resetAt.Sub(now).Seconds()))
	if seconds < 1 {
		return 1
	}

	return seconds
}

// status the client will see: written by the handler, or pending render by the error handler
func finalStatus(c *gin.Context) int {
	if c.Writer.Written() {
		return c.Writer.Status()
	}

	if err := c.Errors.Last(); err != nil {
		return errors.Resolve(err.Err)
	}

	if c.Writer.Status() == 0 {
		return http.StatusOK
	}

	return c.Writer.Status()
}

// Registry indexes limiters by name for administrative resets.
type Registry struct {
	mu       sync.RWMutex
	limiters map[string]*Limiter
}

func NewRegistry() *Registry {
	return &Registry{limiters: make(map[string]*Limiter)}
}

func (r *Registry) Register(l *Limiter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.limiters[l.Name()]; exists {
		return fmt.Errorf("rate limiter %q already registered", l.Name())
	}

	r.limiters[l.Name()] = l
	return nil
}

func (r *Registry) Get(name string) (*Limiter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.limiters[name]
	return l, ok
}

// Names returns the registered limiter names in order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.limiters))
	for name := range r.limiters {
		names = append(names, name)
	}

	sort.Strings(names)
	return names
}
