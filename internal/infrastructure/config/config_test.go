package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when nothing is configured", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("HOME", t.TempDir())

		cfg, err := Load("")
		require.NoError(t, err)

		assert.Equal(t, "customer-console", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "http://localhost:8080", cfg.Backend.BaseURL)
		assert.Equal(t, 30*time.Second, cfg.Backend.Timeout)
		assert.Equal(t, 2, cfg.Backend.MaxRetries)
		assert.Equal(t, 200*time.Millisecond, cfg.Backend.RetryDelay)
		assert.Equal(t, 5*time.Second, cfg.Backend.MaxRetryDelay)
		assert.Zero(t, cfg.Backend.RateLimitQPS)
		assert.Equal(t, 1, cfg.Backend.RateLimitBurst)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.Equal(t, "console", cfg.Log.Format)
		assert.Equal(t, "stderr", cfg.Log.Output)
		assert.True(t, cfg.Search.IncludeAddressID)
		assert.True(t, cfg.Search.IncludeActive)
		assert.False(t, cfg.Metrics.Enabled)
		assert.Equal(t, ":9091", cfg.Metrics.Addr)
		assert.Equal(t, "/metrics", cfg.Metrics.Path)
		assert.Equal(t, "customer_console", cfg.Metrics.Namespace)
		assert.NotNil(t, cfg.Backend.Headers)
		assert.False(t, cfg.Telemetry.Enabled)
		assert.Equal(t, "localhost:4317", cfg.Telemetry.Endpoint)
		assert.True(t, cfg.Telemetry.Insecure)
		assert.Equal(t, 1.0, cfg.Telemetry.SamplingRatio)
	})

	t.Run("telemetry from environment", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("HOME", t.TempDir())
		t.Setenv("CONSOLE_TELEMETRY_ENABLED", "true")
		t.Setenv("CONSOLE_TELEMETRY_ENDPOINT", "otel-collector:4317")
		t.Setenv("CONSOLE_TELEMETRY_SAMPLING_RATIO", "0.25")

		cfg, err := Load("")
		require.NoError(t, err)

		assert.True(t, cfg.Telemetry.Enabled)
		assert.Equal(t, "otel-collector:4317", cfg.Telemetry.Endpoint)
		assert.Equal(t, 0.25, cfg.Telemetry.SamplingRatio)
	})

	t.Run("loads values from a toml file", func(t *testing.T) {
		path := writeConfig(t, "console.toml", `
[backend]
base_url = "https://customers.example.com"
path_prefix = "/api"
timeout = "5s"
max_retries = 4
rate_limit_qps = 2.5
rate_limit_burst = 3

[backend.headers]
x-tenant = "acme"

[search]
include_active = false

[log]
level = "debug"
format = "json"
`)
		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "https://customers.example.com", cfg.Backend.BaseURL)
		assert.Equal(t, "/api", cfg.Backend.PathPrefix)
		assert.Equal(t, 5*time.Second, cfg.Backend.Timeout)
		assert.Equal(t, 4, cfg.Backend.MaxRetries)
		assert.InDelta(t, 2.5, cfg.Backend.RateLimitQPS, 0.0001)
		assert.Equal(t, 3, cfg.Backend.RateLimitBurst)
		assert.Equal(t, "acme", cfg.Backend.Headers["x-tenant"])
		assert.True(t, cfg.Search.IncludeAddressID)
		assert.False(t, cfg.Search.IncludeActive)
		assert.Equal(t, "debug", cfg.Log.Level)
		assert.Equal(t, "json", cfg.Log.Format)
	})

	t.Run("loads values from a yaml file", func(t *testing.T) {
		path := writeConfig(t, "console.yaml", `
backend:
  base_url: http://backend:9000
metrics:
  enabled: true
  addr: ":9200"
`)
		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "http://backend:9000", cfg.Backend.BaseURL)
		assert.True(t, cfg.Metrics.Enabled)
		assert.Equal(t, ":9200", cfg.Metrics.Addr)
	})

	t.Run("environment overrides the file", func(t *testing.T) {
		path := writeConfig(t, "console.toml", `
[backend]
base_url = "http://from-file:8080"
`)
		t.Setenv("CONSOLE_BACKEND_BASE_URL", "http://from-env:8080")
		t.Setenv("CONSOLE_BACKEND_MAX_RETRIES", "0")
		t.Setenv("CONSOLE_SEARCH_INCLUDE_ADDRESS_ID", "false")
		t.Setenv("CONSOLE_BACKEND_TOKEN", "secret-token")

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "http://from-env:8080", cfg.Backend.BaseURL)
		assert.Equal(t, 0, cfg.Backend.MaxRetries)
		assert.False(t, cfg.Search.IncludeAddressID)
		assert.Equal(t, "secret-token", cfg.Backend.Token)
	})

	t.Run("missing explicit file is an error", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			App: AppConfig{Env: "development"},
			Backend: BackendConfig{
				BaseURL:        "http://localhost:8080",
				MaxRetries:     2,
				RateLimitBurst: 1,
			},
			Metrics: MetricsConfig{Addr: ":9091"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "relative base url", mutate: func(c *Config) { c.Backend.BaseURL = "/customers" }, wantErr: true},
		{name: "unsupported scheme", mutate: func(c *Config) { c.Backend.BaseURL = "ftp://host" }, wantErr: true},
		{name: "negative retries", mutate: func(c *Config) { c.Backend.MaxRetries = -1 }, wantErr: true},
		{name: "negative qps", mutate: func(c *Config) { c.Backend.RateLimitQPS = -1 }, wantErr: true},
		{name: "metrics without addr", mutate: func(c *Config) {
			c.Metrics.Enabled = true
			c.Metrics.Addr = ""
		}, wantErr: true},
		{name: "sampling ratio above one", mutate: func(c *Config) { c.Telemetry.SamplingRatio = 1.5 }, wantErr: true},
		{name: "negative sampling ratio", mutate: func(c *Config) { c.Telemetry.SamplingRatio = -0.1 }, wantErr: true},
		{name: "telemetry without endpoint", mutate: func(c *Config) { c.Telemetry.Enabled = true }, wantErr: true},
		{name: "telemetry with endpoint", mutate: func(c *Config) {
			c.Telemetry.Enabled = true
			c.Telemetry.Endpoint = "localhost:4317"
		}},
		{name: "skip verify in development", mutate: func(c *Config) { c.Backend.TLSSkipVerify = true }},
		{name: "skip verify in production", mutate: func(c *Config) {
			c.App.Env = "production"
			c.Backend.TLSSkipVerify = true
		}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{Backend: BackendConfig{RetryDelay: time.Second, MaxRetryDelay: time.Millisecond}}
	applyDefaults(cfg)

	assert.Equal(t, 30*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 1, cfg.Backend.RateLimitBurst)
	assert.Equal(t, time.Second, cfg.Backend.MaxRetryDelay)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.NotNil(t, cfg.Backend.Headers)
}
