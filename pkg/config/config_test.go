package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, ":8081", cfg.Signal.Address)
	assert.Greater(t, cfg.Media.NumWorkers, 0)
	assert.Equal(t, 1920, cfg.Studio.Width)
	assert.Equal(t, 1080, cfg.Studio.Height)
	assert.Equal(t, time.Second, cfg.Studio.ReactionFlushInterval)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Redis.Enabled)

	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":8081", cfg.Signal.Address)
}

func TestLoad_YamlOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte(`
signal:
  address: ":9999"
studio:
  width: 1280
  height: 720
media:
  num_workers: 2
  throttle_secret: "hunter2"
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Signal.Address)
	assert.Equal(t, 1280, cfg.Studio.Width)
	assert.Equal(t, 720, cfg.Studio.Height)
	assert.Equal(t, 2, cfg.Media.NumWorkers)
	assert.Equal(t, "hunter2", cfg.Media.ThrottleSecret)
	// untouched defaults survive
	assert.Equal(t, ":8080", cfg.Server.Address)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("STAGECAST_SIGNAL_ADDRESS", ":7777")
	t.Setenv("STAGECAST_LOG_LEVEL", "debug")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":7777", cfg.Signal.Address)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty server address", func(c *Config) { c.Server.Address = "" }},
		{"zero ping interval", func(c *Config) { c.Signal.PingInterval = 0 }},
		{"negative workers", func(c *Config) { c.Media.NumWorkers = -1 }},
		{"non-negative audio threshold", func(c *Config) { c.Media.AudioLevelThreshold = 0 }},
		{"zero studio size", func(c *Config) { c.Studio.Width = 0 }},
		{"zero reaction interval", func(c *Config) { c.Studio.ReactionFlushInterval = 0 }},
		{"redis enabled without address", func(c *Config) { c.Redis.Enabled = true; c.Redis.Address = "" }},
		{"empty jwt secret", func(c *Config) { c.Auth.JWTSecret = "" }},
		{"rate limit enabled without rps", func(c *Config) {
			c.RateLimiting.Enabled = true
			c.RateLimiting.HTTP.RequestsPerSecond = 0
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
