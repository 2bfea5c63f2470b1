package config

import (
	"time"
)

const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvStaging     = "staging"
	EnvProduction  = "production"

	// shortest JWT secret accepted in production
	MinProductionSecretLength = 32
)

// Config is read from the environment, with rate limit policies from an optional YAML file.
type Config struct {
	Environment string `env:"ENVIRONMENT,default=development"`
	Port        int    `env:"PORT,default=8080"`
	LogLevel    string `env:"LOG_LEVEL,default=info"`

	JWTSecret string        `env:"JWT_SECRET,required=true"`
	JWTIssuer string        `env:"JWT_ISSUER,default=dishdash"`
	TokenTTL  time.Duration `env:"TOKEN_TTL,default=24h"`

	DatabaseURL string `env:"DATABASE_URL,required=true"`

	// empty keeps rate limit counters in process
	RedisURL string `env:"REDIS_URL"`

	AllowedOrigins  []string `env:"ALLOWED_ORIGINS,separator=|"`
	RateLimitConfig string   `env:"RATE_LIMIT_CONFIG"`
	MaxUploadBytes  int64    `env:"MAX_UPLOAD_BYTES,default=5242880"` // 5MiB

	ReadTimeout  time.Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT,default=15s"`
	IdleTimeout  time.Duration `env:"IDLE_TIMEOUT,default=60s"`

	RateLimits []RateLimitPolicy
}

func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// RateLimitPolicy configures one named limiter.
type RateLimitPolicy struct {
	Name   string        `yaml:"name"`
	Window time.Duration `yaml:"window"`
	Max    int64         `yaml:"max"`

	// ip, user, global or route_ip
	Key string `yaml:"key"`

	// taxonomy code rendered on rejection; RATE_001 when empty
	Code string `yaml:"code"`

	SkipSuccessful bool `yaml:"skip_successful"`
	SkipFailed     bool `yaml:"skip_failed"`
}

type policyFile struct {
	RateLimits []RateLimitPolicy `yaml:"rate_limits"`
}
