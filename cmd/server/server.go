package main

import (
	"context"
	"fmt"
	"time"

	"codeberg.org/dishdash/server/dishdash/users"
	"codeberg.org/dishdash/server/internal/auth"
	"codeberg.org/dishdash/server/internal/config"
	"codeberg.org/dishdash/server/internal/logger"
	"codeberg.org/dishdash/server/internal/metrics"
	"codeberg.org/dishdash/server/internal/ratelimit"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const (
	// how often expired in-memory rate limit records are swept
	janitorInterval = time.Minute

	// key prefix for rate limit counters in redis
	redisPrefix = "dishdash:ratelimit"
)

// creates and configures a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	ctx := context.Background()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	db, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	server := &Server{
		db:       db,
		config:   cfg,
		userRepo: users.NewRepository(db),
	}

	store, err := server.rateLimitStore(ctx)
	if err != nil {
		server.Close()
		return nil, err
	}

	server.limiters, err = buildLimiters(cfg.RateLimits, store)
	if err != nil {
		server.Close()
		return nil, err
	}

	tokens := auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer, TTL: cfg.TokenTTL}

	if server.authenticator, err = auth.NewAuthenticator(tokens); err != nil {
		server.Close()
		return nil, fmt.Errorf("failed to create authenticator: %w", err)
	}

	if server.issuer, err = auth.NewIssuer(tokens); err != nil {
		server.Close()
		return nil, fmt.Errorf("failed to create token issuer: %w", err)
	}

	server.router, err = NewRouter(Dependencies{
		DB:             db,
		Users:          server.userRepo,
		Authenticator:  server.authenticator,
		Issuer:         server.issuer,
		Limiters:       server.limiters,
		Production:     cfg.IsProduction(),
		AllowedOrigins: cfg.AllowedOrigins,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})
	if err != nil {
		server.Close()
		return nil, err
	}

	return server, nil
}

// picks redis when configured so every instance shares counters
func (s *Server) rateLimitStore(ctx context.Context) (ratelimit.Store, error) {
	if s.config.RedisURL == "" {
		store := ratelimit.NewMemoryStore()

		janitorCtx, cancel := context.WithCancel(context.Background())
		store.StartJanitor(janitorCtx, janitorInterval)
		s.stopJanitor = cancel

		logger.Info("rate limit counters kept in process")
		return store, nil
	}

	opts, err := redis.ParseURL(s.config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close() //nolint:errcheck,gosec // best-effort cleanup on init failure
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	store, err := ratelimit.NewRedisStore(client, redisPrefix)
	if err != nil {
		client.Close() //nolint:errcheck,gosec // best-effort cleanup on init failure
		return nil, err
	}

	s.redis = client

	logger.Info("rate limit counters shared through redis", "addr", opts.Addr)
	return store, nil
}

// builds one limiter per policy, all sharing store
func buildLimiters(policies []config.RateLimitPolicy, store ratelimit.Store) (*ratelimit.Registry, error) {
	registry := ratelimit.NewRegistry()

	for _, policy := range policies {
		cfg, err := policy.LimiterConfig()
		if err != nil {
			return nil, err
		}

		l, err := ratelimit.New(cfg, store, ratelimit.WithRejectHook(metrics.ObserveRateLimitRejected))
		if err != nil {
			return nil, err
		}

		if err := registry.Register(l); err != nil {
			return nil, err
		}

		logger.Debug("rate limiter registered", "name", cfg.Name, "window", cfg.Window, "max", cfg.Max)
	}

	return registry, nil
}

// releases the store and database connections
func (s *Server) Close() {
	if s.stopJanitor != nil {
		s.stopJanitor()
	}

	if s.redis != nil {
		s.redis.Close() //nolint:errcheck,gosec // best-effort cleanup on shutdown
	}

	s.db.Close()
}
