package ratelimit

import (
	"fmt"
	"net/http"
	"time"

	"codeberg.org/dishdash/server/internal/errors"
	"github.com/gin-gonic/gin"
)

// derives the counter key for a request
type KeyFunc func(c *gin.Context) string

// Compensate refunds a provisionally counted request once its final status is known.
type Compensate struct {
	// requests finishing below 400 are not counted
	OnSuccess bool

	// requests finishing at 400 or above are not counted
	OnFailure bool
}

// Config describes one fixed window limiter.
type Config struct {
	// namespaces keys; composed limiters never share counters
	Name string

	// length of the fixed window
	Window time.Duration

	// accepted requests per window; zero rejects everything
	Max int64

	// defaults to ByIP
	KeyFunc KeyFunc

	// rendered on rejection; defaults to RATE_001
	Code errors.Code

	Compensate Compensate
}

// Validate fills defaults and rejects configs a limiter cannot enforce.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("rate limiter name is required")
	}

	if c.Window <= 0 {
		return fmt.Errorf("rate limiter %q: window must be positive", c.Name)
	}

	if c.Max < 0 {
		return fmt.Errorf("rate limiter %q: max must not be negative", c.Name)
	}

	if c.KeyFunc == nil {
		c.KeyFunc = ByIP
	}

	if c.Code == "" {
		c.Code = errors.CodeRateTooManyRequests
	}

	def, ok := errors.Lookup(c.Code)
	if !ok {
		return fmt.Errorf("rate limiter %q: unknown error code %q", c.Name, c.Code)
	}

	if def.HTTPStatus != http.StatusTooManyRequests {
		return fmt.Errorf("rate limiter %q: code %s renders %d, not 429", c.Name, c.Code, def.HTTPStatus)
	}

	return nil
}

// reports whether a request that finished with status is refunded
func (c Compensate) refunds(status int) bool {
	if status < http.StatusBadRequest {
		return c.OnSuccess
	}

	return c.OnFailure
}
