package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

// Config holds application configuration
type Config struct {
	DatabaseURL string `env:"DATABASE_URL"`
	JWTSecret   string `env:"JWT_SECRET"`
	Port        string `env:"PORT" envDefault:"8080"`
	Environment string `env:"ENV" envDefault:"development"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`

	// Result cache
	RedisURL string        `env:"REDIS_URL"`
	CacheTTL time.Duration `env:"MATCH_CACHE_TTL" envDefault:"10m"`

	// Matching run defaults, overridable per request
	Matching MatchingConfig

	// Batch re-matching of stored companies
	Batch BatchConfig

	// Security configuration
	AllowedOrigins  string `env:"ALLOWED_ORIGINS"`
	TrustedProxies  string `env:"TRUSTED_PROXIES"`
	EnableRateLimit bool   `env:"ENABLE_RATE_LIMIT" envDefault:"true"`
	EnableSecurity  bool   `env:"ENABLE_SECURITY" envDefault:"false"`
	MaxRequestSize  int64  `env:"MAX_REQUEST_SIZE" envDefault:"1048576"`
}

// MatchingConfig carries the default run options of the matching engine
type MatchingConfig struct {
	TopN          int  `env:"MATCH_TOP_N" envDefault:"5"`
	MinScore      int  `env:"MATCH_MIN_SCORE" envDefault:"40"`
	StrictPurpose bool `env:"MATCH_STRICT_PURPOSE" envDefault:"false"`
}

// BatchConfig controls cmd/batch-match
type BatchConfig struct {
	IntervalMinutes int `env:"BATCH_INTERVAL_MINUTES" envDefault:"60"`
	MaxConcurrent   int `env:"BATCH_MAX_CONCURRENT" envDefault:"8"`
	PageSize        int `env:"BATCH_PAGE_SIZE" envDefault:"200"`
}

// New parses configuration from environment variables
func New() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot run with
func (c *Config) Validate() error {
	if c.Matching.TopN <= 0 {
		return fmt.Errorf("MATCH_TOP_N must be positive, got %d", c.Matching.TopN)
	}
	if c.Matching.MinScore < 0 {
		return fmt.Errorf("MATCH_MIN_SCORE must not be negative, got %d", c.Matching.MinScore)
	}
	if c.Batch.MaxConcurrent <= 0 {
		return fmt.Errorf("BATCH_MAX_CONCURRENT must be positive, got %d", c.Batch.MaxConcurrent)
	}
	if c.IsProduction() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// HasDatabase reports whether runs and companies can be persisted
func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}

// HasCache reports whether a redis result cache is configured
func (c *Config) HasCache() bool {
	return c.RedisURL != ""
}

// GetAllowedOrigins returns a slice of allowed CORS origins
func (c *Config) GetAllowedOrigins() []string {
	if c.AllowedOrigins == "" {
		return []string{}
	}
	return splitTrimmed(c.AllowedOrigins)
}

// GetTrustedProxies returns a slice of trusted proxy IPs
func (c *Config) GetTrustedProxies() []string {
	if c.TrustedProxies == "" {
		return []string{}
	}
	return splitTrimmed(c.TrustedProxies)
}

// IsSecurityEnabled returns true if security features should be enabled
func (c *Config) IsSecurityEnabled() bool {
	return c.IsProduction() || c.EnableSecurity
}

func splitTrimmed(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
