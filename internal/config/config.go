// Package config holds the startup configuration of the crimelens server.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lox/crimelens/internal/apperr"
)

// Config is populated by kong from flags and environment variables. A .env
// file in the working directory is loaded into the environment first.
type Config struct {
	Addr    string `help:"HTTP listen address." default:":8000" env:"CRIMELENS_ADDR"`
	Dataset string `help:"Dataset location: path, file://, http(s):// or ftp:// URL." env:"CRIMELENS_DATASET"`

	APIKey            string        `name:"api-key" help:"Text-generation service API key." env:"HUGGINGFACE_API_KEY"`
	BaseURL           string        `name:"base-url" help:"OpenAI-compatible base URL of the generation endpoint." env:"CRIMELENS_BASE_URL"`
	Model             string        `help:"Model name sent with each completion." env:"CRIMELENS_MODEL"`
	GenerationTimeout time.Duration `help:"Deadline for one generation call." default:"120s" env:"CRIMELENS_GENERATION_TIMEOUT"`
	Profiles          string        `help:"TOML file overriding per-kind generation parameters." type:"path" env:"CRIMELENS_PROFILES"`

	FetchTimeout time.Duration `help:"Per-attempt timeout when fetching a remote dataset." default:"30s" env:"CRIMELENS_FETCH_TIMEOUT"`
	CacheTTL     time.Duration `name:"cache-ttl" help:"Lifetime of cached frequency and heatmap responses." default:"5m" env:"CRIMELENS_CACHE_TTL"`

	MetricsAddr string   `help:"Serve /metrics on a separate listener instead of the API address." env:"CRIMELENS_METRICS_ADDR"`
	CORSOrigins []string `name:"cors-origin" help:"Allowed CORS origins." default:"*" env:"CRIMELENS_CORS_ORIGINS"`

	Debug  bool `help:"Human-readable debug logging." env:"CRIMELENS_DEBUG"`
	DryRun bool `help:"Echo rendered prompts instead of calling the generation service." env:"CRIMELENS_DRY_RUN"`
}

// Validate reports the first setting that prevents the server from starting.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Dataset) == "" {
		return apperr.Configuration("dataset", errors.New("not set"))
	}
	if !c.DryRun && strings.TrimSpace(c.APIKey) == "" {
		return apperr.Configuration("HUGGINGFACE_API_KEY", errors.New("not set"))
	}
	if c.GenerationTimeout <= 0 {
		return apperr.Configuration("generation-timeout", fmt.Errorf("must be positive, got %s", c.GenerationTimeout))
	}
	if c.FetchTimeout <= 0 {
		return apperr.Configuration("fetch-timeout", fmt.Errorf("must be positive, got %s", c.FetchTimeout))
	}
	if c.CacheTTL < 0 {
		return apperr.Configuration("cache-ttl", fmt.Errorf("must not be negative, got %s", c.CacheTTL))
	}
	return nil
}

// NewLogger builds the process logger: JSON at info level by default,
// console output at debug level when debug is set.
func NewLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
