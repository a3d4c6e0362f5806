package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/crimelens/internal/apperr"
	"github.com/lox/crimelens/internal/llm"
	"github.com/lox/crimelens/internal/prompt"
)

func validConfig() Config {
	return Config{
		Addr:              ":8000",
		Dataset:           "testdata/crimes.csv",
		APIKey:            "hf_test",
		GenerationTimeout: 120 * time.Second,
		FetchTimeout:      30 * time.Second,
		CacheTTL:          5 * time.Minute,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		setting string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing dataset", func(c *Config) { c.Dataset = " " }, "dataset"},
		{"missing api key", func(c *Config) { c.APIKey = "" }, "HUGGINGFACE_API_KEY"},
		{"dry run needs no key", func(c *Config) { c.APIKey = ""; c.DryRun = true }, ""},
		{"zero generation timeout", func(c *Config) { c.GenerationTimeout = 0 }, "generation-timeout"},
		{"zero fetch timeout", func(c *Config) { c.FetchTimeout = 0 }, "fetch-timeout"},
		{"negative cache ttl", func(c *Config) { c.CacheTTL = -time.Second }, "cache-ttl"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.setting == "" {
				assert.NoError(t, err)
				return
			}
			var cerr *apperr.ConfigurationError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tt.setting, cerr.Setting)
		})
	}
}

func TestNewLogger(t *testing.T) {
	for _, debug := range []bool{false, true} {
		logger, err := NewLogger(debug)
		require.NoError(t, err)
		assert.Equal(t, debug, logger.Core().Enabled(-1), "debug level enabled")
	}
}

func writeProfiles(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profiles.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func baseProfiles() map[prompt.Kind]llm.Params {
	spatial := llm.DefaultParams()
	spatial.Temperature = 0.3
	spatial.StripMarkup = true
	return map[prompt.Kind]llm.Params{
		prompt.KindSpatial:  spatial,
		prompt.KindBeatwise: llm.DefaultParams(),
	}
}

func TestLoadProfiles_EmptyPathCopiesBase(t *testing.T) {
	base := baseProfiles()
	got, err := LoadProfiles("", base)
	require.NoError(t, err)
	assert.Equal(t, base, got)

	p := got[prompt.KindSpatial]
	p.Temperature = 0.9
	got[prompt.KindSpatial] = p
	assert.Equal(t, 0.3, base[prompt.KindSpatial].Temperature, "base must not be mutated")
}

func TestLoadProfiles_PartialOverride(t *testing.T) {
	path := writeProfiles(t, `
[spatial]
temperature = 0.2

[prediction]
max_new_tokens = 256
`)
	got, err := LoadProfiles(path, baseProfiles())
	require.NoError(t, err)

	spatial := got[prompt.KindSpatial]
	assert.Equal(t, 0.2, spatial.Temperature)
	assert.True(t, spatial.StripMarkup, "unset keys keep the base value")
	assert.Equal(t, llm.DefaultMaxNewTokens, spatial.MaxNewTokens)

	prediction := got[prompt.KindPrediction]
	assert.Equal(t, 256, prediction.MaxNewTokens)
	assert.Equal(t, llm.DefaultTopP, prediction.TopP)

	assert.Equal(t, llm.DefaultParams(), got[prompt.KindBeatwise])
}

func TestLoadProfiles_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown kind", "[weather]\ntemperature = 0.1\n"},
		{"unknown key", "[spatial]\ntemprature = 0.1\n"},
		{"wrong type", "[spatial]\ntemperature = \"hot\"\n"},
		{"malformed", "[spatial\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadProfiles(writeProfiles(t, tt.content), baseProfiles())
			require.Error(t, err)
			assert.True(t, apperr.IsConfiguration(err))
		})
	}

	_, err := LoadProfiles(filepath.Join(t.TempDir(), "missing.toml"), nil)
	assert.True(t, apperr.IsConfiguration(err))
}
