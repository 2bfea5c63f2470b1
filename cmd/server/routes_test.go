package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"codeberg.org/dishdash/server/dishdash/users"
	"codeberg.org/dishdash/server/internal/auth"
	"codeberg.org/dishdash/server/internal/config"
	"codeberg.org/dishdash/server/internal/correlation"
	"codeberg.org/dishdash/server/internal/errors"
	"codeberg.org/dishdash/server/internal/ratelimit"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "pipeline-secret-0123456789abcdef0123"

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type noUsers struct{}

func (noUsers) Authenticate(context.Context, string, string) (*users.User, error) {
	return nil, errors.New(errors.CodeAuthInvalidLogin)
}

func (noUsers) FindByID(context.Context, string) (*users.User, error) {
	return nil, errors.New(errors.CodeUserNotFound)
}

func (noUsers) SetAvatar(context.Context, string, string, []byte) error {
	return errors.New(errors.CodeUserNotFound)
}

type pipeline struct {
	router *gin.Engine
	issuer *auth.Issuer
}

func newPipeline(t *testing.T, db pinger) *pipeline {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens := auth.Config{Secret: testSecret, Issuer: "dishdash", TTL: time.Hour}

	authenticator, err := auth.NewAuthenticator(tokens)
	require.NoError(t, err)

	issuer, err := auth.NewIssuer(tokens)
	require.NoError(t, err)

	registry, err := buildLimiters(config.DefaultRateLimitPolicies(), ratelimit.NewMemoryStore())
	require.NoError(t, err)

	router, err := NewRouter(Dependencies{
		DB:             db,
		Users:          noUsers{},
		Authenticator:  authenticator,
		Issuer:         issuer,
		Limiters:       registry,
		Production:     true,
		MaxUploadBytes: 1024,
	})
	require.NoError(t, err)

	ok := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) }

	limited, err := ratelimit.New(ratelimit.Config{Name: "scenario", Window: time.Minute, Max: 2}, ratelimit.NewMemoryStore())
	require.NoError(t, err)

	router.POST("/scenario/admin", authenticator.Middleware(), auth.RequireRoles(auth.RoleAdmin), ok)
	router.POST("/scenario/support", authenticator.Middleware(), auth.RequireRoles(auth.RoleSupport), ok)
	router.POST("/scenario/limited", limited.Middleware(), ok)
	router.GET("/scenario/panic", func(*gin.Context) { panic("kitchen on fire") })

	return &pipeline{router: router, issuer: issuer}
}

func (p *pipeline) token(t *testing.T, role auth.Role) string {
	t.Helper()

	token, _, err := p.issuer.Sign(auth.Principal{SubjectID: "u-1", Email: "ops@dishdash.app", Role: role})
	require.NoError(t, err)
	return token
}

func (p *pipeline) do(method, path, token string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	p.router.ServeHTTP(w, req)

	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestPipeline_Scenario(t *testing.T) {
	p := newPipeline(t, pinger{})

	w, body := p.do(http.MethodPost, "/scenario/admin", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, string(errors.CodeAuthMissingToken), body["code"])
	assert.Equal(t, false, body["success"])

	// signed two hours ago with a one hour lifetime
	stale, err := auth.NewIssuer(auth.Config{
		Secret: testSecret,
		Issuer: "dishdash",
		TTL:    time.Hour,
		Now:    func() time.Time { return time.Now().Add(-2 * time.Hour) },
	})
	require.NoError(t, err)

	expired, _, err := stale.Sign(auth.Principal{SubjectID: "u-1", Email: "ops@dishdash.app", Role: auth.RoleAdmin})
	require.NoError(t, err)

	w, body = p.do(http.MethodPost, "/scenario/admin", expired)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, []any{string(errors.CodeAuthExpiredToken), string(errors.CodeAuthInvalidToken)}, body["code"])

	admin := p.token(t, auth.RoleAdmin)

	w, _ = p.do(http.MethodPost, "/scenario/admin", admin)
	assert.Equal(t, http.StatusOK, w.Code)

	w, body = p.do(http.MethodPost, "/scenario/support", admin)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, string(errors.CodePermInsufficientRole), body["code"])

	var statuses []int
	for range 3 {
		w, _ = p.do(http.MethodPost, "/scenario/limited", "")
		statuses = append(statuses, w.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, statuses)
	assert.Equal(t, "0", w.Header().Get(ratelimit.HeaderRemaining))
}

func TestPipeline_ErrorsCarryCorrelationID(t *testing.T) {
	p := newPipeline(t, pinger{})

	w, body := p.do(http.MethodGet, "/api/v1/admin/errors", "")

	require.Equal(t, http.StatusUnauthorized, w.Code)
	id := w.Header().Get(correlation.Header)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, body["correlationId"])
}

func TestPipeline_GlobalLimiterHeaders(t *testing.T) {
	p := newPipeline(t, pinger{})

	w, _ := p.do(http.MethodGet, "/api/v1/ping", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "100", w.Header().Get(ratelimit.HeaderLimit))
	assert.Equal(t, "99", w.Header().Get(ratelimit.HeaderRemaining))
	assert.NotEmpty(t, w.Header().Get(ratelimit.HeaderReset))
	assert.Empty(t, w.Header().Get(ratelimit.HeaderRetryAfter))
}

func TestPipeline_UnknownRouteAndMethod(t *testing.T) {
	p := newPipeline(t, pinger{})

	w, body := p.do(http.MethodGet, "/api/v1/menus", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, string(errors.CodeRouteNotFound), body["code"])

	w, body = p.do(http.MethodGet, "/api/v1/auth/login", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, string(errors.CodeMethodNotAllowed), body["code"])
}

func TestPipeline_PanicIsInternalError(t *testing.T) {
	p := newPipeline(t, pinger{})

	w, body := p.do(http.MethodGet, "/scenario/panic", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, string(errors.CodeInternal), body["code"])
	assert.NotContains(t, w.Body.String(), "kitchen on fire")
	assert.Nil(t, body["stack"])
}

func TestPipeline_HealthDatabaseDown(t *testing.T) {
	p := newPipeline(t, pinger{err: fmt.Errorf("connection refused")})

	w, body := p.do(http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, string(errors.CodeDatabaseUnavailable), body["code"])
}

func TestPipeline_CORSExposesHeaders(t *testing.T) {
	p := newPipeline(t, pinger{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	req.Header.Set("Origin", "https://app.dishdash.app")

	w := httptest.NewRecorder()
	p.router.ServeHTTP(w, req)

	exposed := strings.ToLower(w.Header().Get("Access-Control-Expose-Headers"))
	assert.Contains(t, exposed, strings.ToLower(ratelimit.HeaderRetryAfter))
	assert.Contains(t, exposed, strings.ToLower(correlation.Header))
}

func TestPipeline_MetricsEndpoint(t *testing.T) {
	p := newPipeline(t, pinger{})

	_, _ = p.do(http.MethodGet, "/api/v1/menus", "")
	w, _ := p.do(http.MethodGet, "/metrics", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "dishdash_errors_total")
}

func TestNewRouter_RequiresLimiters(t *testing.T) {
	_, err := NewRouter(Dependencies{Limiters: ratelimit.NewRegistry()})
	assert.ErrorContains(t, err, "general")
}

func TestBuildLimiters_RejectsInvalidPolicy(t *testing.T) {
	_, err := buildLimiters([]config.RateLimitPolicy{{Name: "x", Window: time.Minute, Max: 1, Key: "nope"}}, ratelimit.NewMemoryStore())
	assert.Error(t, err)
}
