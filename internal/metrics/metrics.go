package metrics

import (
	"strconv"
	"time"

	"codeberg.org/dishdash/server/internal/errors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dishdash"

var (
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "path", "status"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// ErrorsTotal counts rendered pipeline errors by taxonomy code.
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Errors rendered by the central error handler",
		},
		[]string{"code", "status"},
	)

	// RateLimitRejectedTotal counts requests rejected by a named limiter.
	RateLimitRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ratelimit_rejected_total",
			Help:      "Requests rejected by the rate limiter",
		},
		[]string{"limiter"},
	)
)

// Metrics returns Gin middleware for Prometheus instrumentation.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method

		// route pattern keeps label cardinality bounded
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		c.Next()

		// errors are rendered by the outer handler after this returns
		code := c.Writer.Status()
		if last := c.Errors.Last(); last != nil && !c.Writer.Written() {
			code = errors.Resolve(last.Err)
		}

		status := strconv.Itoa(code)

		httpRequestDuration.WithLabelValues(method, path, status).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	}
}

// ObserveError is the errors.HandlerConfig hook.
func ObserveError(code errors.Code, status int) {
	ErrorsTotal.WithLabelValues(string(code), strconv.Itoa(status)).Inc()
}

// ObserveRateLimitRejected is the rate limiter reject hook.
func ObserveRateLimitRejected(limiter string) {
	RateLimitRejectedTotal.WithLabelValues(limiter).Inc()
}

// Handler serves the default registry.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
