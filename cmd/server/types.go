package main

import (
	"context"

	apiauth "codeberg.org/dishdash/server/api/rest/auth"
	"codeberg.org/dishdash/server/api/rest/health"
	"codeberg.org/dishdash/server/dishdash/users"
	"codeberg.org/dishdash/server/internal/auth"
	"codeberg.org/dishdash/server/internal/config"
	"codeberg.org/dishdash/server/internal/ratelimit"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// holds all dependencies and state for the API server
type Server struct {
	db            *pgxpool.Pool
	redis         *redis.Client // nil when counters stay in process
	config        *config.Config
	userRepo      *users.Repository
	authenticator *auth.Authenticator
	issuer        *auth.Issuer
	limiters      *ratelimit.Registry
	router        *gin.Engine

	// stops the in-memory store janitor
	stopJanitor context.CancelFunc
}

// Dependencies is what the router needs, independent of how it was built.
type Dependencies struct {
	DB             health.Pinger
	Users          apiauth.UserStore
	Authenticator  *auth.Authenticator
	Issuer         apiauth.TokenIssuer
	Limiters       *ratelimit.Registry
	Production     bool
	AllowedOrigins []string
	MaxUploadBytes int64
}
