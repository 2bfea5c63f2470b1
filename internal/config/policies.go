package config

import (
	"fmt"
	"os"
	"time"

	"codeberg.org/dishdash/server/internal/errors"
	"codeberg.org/dishdash/server/internal/ratelimit"
	"gopkg.in/yaml.v3"
)

// limiter names the HTTP surface mounts
const (
	LimiterGeneral = "general"
	LimiterAuth    = "auth"
	LimiterAdmin   = "admin"
)

// returns the built-in limiter policies
func DefaultRateLimitPolicies() []RateLimitPolicy {
	return []RateLimitPolicy{
		{Name: LimiterGeneral, Window: time.Minute, Max: 100, Key: "ip"},
		{Name: LimiterAuth, Window: 15 * time.Minute, Max: 5, Key: "ip", Code: string(errors.CodeRateTooManyLogins), SkipSuccessful: true},
		{Name: LimiterAdmin, Window: time.Minute, Max: 30, Key: "user"},
	}
}

// LoadRateLimitPolicies layers the policy file at path (if any) over the defaults.
func LoadRateLimitPolicies(path string) ([]RateLimitPolicy, error) {
	if path == "" {
		return DefaultRateLimitPolicies(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rate limit config: %w", err)
	}

	return ParseRateLimitPolicies(data)
}

// ParseRateLimitPolicies merges YAML overrides into the defaults by name.
func ParseRateLimitPolicies(data []byte) ([]RateLimitPolicy, error) {
	var file policyFile

	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse rate limit config: %w", err)
	}

	policies := DefaultRateLimitPolicies()

	for _, override := range file.RateLimits {
		replaced := false

		for i := range policies {
			if policies[i].Name == override.Name {
				policies[i] = override
				replaced = true
				break
			}
		}

		if !replaced {
			policies = append(policies, override)
		}
	}

	for _, p := range policies {
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}

	return policies, nil
}

// Validate checks a policy before any limiter is built from it.
func (p RateLimitPolicy) Validate() error {
	_, err := p.LimiterConfig()
	return err
}

// LimiterConfig converts the policy for ratelimit.New.
func (p RateLimitPolicy) LimiterConfig() (ratelimit.Config, error) {
	keyFunc, ok := ratelimit.KeyFuncByName(p.Key)
	if !ok {
		return ratelimit.Config{}, fmt.Errorf("rate limit policy %q: unknown key strategy %q", p.Name, p.Key)
	}

	cfg := ratelimit.Config{
		Name:    p.Name,
		Window:  p.Window,
		Max:     p.Max,
		KeyFunc: keyFunc,
		Code:    errors.Code(p.Code),
		Compensate: ratelimit.Compensate{
			OnSuccess: p.SkipSuccessful,
			OnFailure: p.SkipFailed,
		},
	}

	if err := cfg.Validate(); err != nil {
		return ratelimit.Config{}, err
	}

	return cfg, nil
}

// Policy returns the named policy.
func (c *Config) Policy(name string) (RateLimitPolicy, bool) {
	for _, p := range c.RateLimits {
		if p.Name == name {
			return p, true
		}
	}

	return RateLimitPolicy{}, false
}
