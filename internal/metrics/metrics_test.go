package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"codeberg.org/dishdash/server/internal/errors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_CountsByRoutePattern(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Metrics())
	r.GET("/orders/:id", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	counter := httpRequestsTotal.WithLabelValues(http.MethodGet, "/orders/:id", "204")
	before := testutil.ToFloat64(counter)

	for _, id := range []string{"1", "2", "3"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/orders/"+id, nil))
	}

	assert.Equal(t, before+3, testutil.ToFloat64(counter))
}

func TestMetrics_UnmatchedRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Metrics())

	counter := httpRequestsTotal.WithLabelValues(http.MethodGet, "unmatched", "404")
	before := testutil.ToFloat64(counter)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestMetrics_PendingErrorStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(errors.Handler(errors.HandlerConfig{Production: true}))
	r.Use(Metrics())
	r.GET("/admin", func(c *gin.Context) {
		errors.Abort(c, errors.New(errors.CodePermInsufficientRole))
	})

	counter := httpRequestsTotal.WithLabelValues(http.MethodGet, "/admin", "403")
	before := testutil.ToFloat64(counter)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/admin", nil))

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestObserveHooks(t *testing.T) {
	errCounter := ErrorsTotal.WithLabelValues(string(errors.CodePermInsufficientRole), "403")
	rejCounter := RateLimitRejectedTotal.WithLabelValues("auth")

	errBefore := testutil.ToFloat64(errCounter)
	rejBefore := testutil.ToFloat64(rejCounter)

	ObserveError(errors.CodePermInsufficientRole, http.StatusForbidden)
	ObserveRateLimitRejected("auth")
	ObserveRateLimitRejected("auth")

	assert.Equal(t, errBefore+1, testutil.ToFloat64(errCounter))
	assert.Equal(t, rejBefore+2, testutil.ToFloat64(rejCounter))
}

func TestHandler_ServesRegistry(t *testing.T) {
	gin.SetMode(gin.TestMode)

	ObserveRateLimitRejected("general")

	r := gin.New()
	r.GET("/metrics", Handler())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `dishdash_ratelimit_rejected_total{limiter="general"}`)
}
