package main

import (
	"fmt"

	"codeberg.org/dishdash/server/api/rest/admin"
	apiauth "codeberg.org/dishdash/server/api/rest/auth"
	"codeberg.org/dishdash/server/api/rest/health"
	"codeberg.org/dishdash/server/api/rest/users"
	"codeberg.org/dishdash/server/internal/config"
	"codeberg.org/dishdash/server/internal/correlation"
	"codeberg.org/dishdash/server/internal/errors"
	"codeberg.org/dishdash/server/internal/metrics"
	"codeberg.org/dishdash/server/internal/ratelimit"
	"github.com/gin-gonic/gin"
)

// NewRouter sets up all API routes and middleware. The error handler sits
// outside everything that can fail so every error is rendered once.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	general, err := limiter(deps.Limiters, config.LimiterGeneral)
	if err != nil {
		return nil, err
	}

	login, err := limiter(deps.Limiters, config.LimiterAuth)
	if err != nil {
		return nil, err
	}

	adminLimiter, err := limiter(deps.Limiters, config.LimiterAdmin)
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.HandleMethodNotAllowed = true

	router.Use(
		correlation.Middleware(),
		errors.Handler(errors.HandlerConfig{
			Production: deps.Production,
			Observe:    metrics.ObserveError,
		}),
		errors.Recovery(),
		metrics.Metrics(),
		CORSMiddleware(deps.AllowedOrigins),
		general.Middleware(),
	)

	router.NoRoute(errors.NotFound)
	router.NoMethod(errors.MethodNotAllowed)

	router.GET("/health", health.Handler(deps.DB))
	router.GET("/metrics", metrics.Handler())

	v1 := router.Group("/api/v1")

	{
		v1.GET("/ping", health.PingHandler)

		apiauth.RegisterRoutes(v1, deps.Authenticator, login, deps.Users, deps.Issuer, deps.MaxUploadBytes)
		users.RegisterRoutes(v1, deps.Authenticator, deps.Users)
		admin.RegisterRoutes(v1, deps.Authenticator, adminLimiter, deps.Limiters)
	}

	return router, nil
}

func limiter(registry *ratelimit.Registry, name string) (*ratelimit.Limiter, error) {
	l, ok := registry.Get(name)
	if !ok {
		return nil, fmt.Errorf("rate limiter %q is not configured", name)
	}

	return l, nil
}
