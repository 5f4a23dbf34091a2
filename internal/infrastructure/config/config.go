package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// EnvPrefix prefixes every environment override, e.g. CONSOLE_BACKEND_BASE_URL.
const EnvPrefix = "CONSOLE"

// Config holds all console configuration
type Config struct {
	App       AppConfig
	Backend   BackendConfig
	Log       LogConfig
	Search    SearchConfig
	Metrics   MetricsConfig
	Telemetry TelemetryConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
}

// BackendConfig describes the customer REST backend and how to reach it.
type BackendConfig struct {
	BaseURL        string
	PathPrefix     string
	Timeout        time.Duration
	TLSSkipVerify  bool
	Token          string
	Headers        map[string]string
	MaxRetries     int
	RetryDelay     time.Duration
	MaxRetryDelay  time.Duration
	RateLimitQPS   float64 // 0 disables the limiter
	RateLimitBurst int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// SearchConfig selects the optional search filter fields.
type SearchConfig struct {
	IncludeAddressID bool
	IncludeActive    bool
}

// MetricsConfig controls the prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool
	Addr      string
	Path      string
	Namespace string
}

// TelemetryConfig controls OTLP trace export.
type TelemetryConfig struct {
	Enabled       bool
	Endpoint      string // OTLP gRPC collector, host:port
	Insecure      bool
	SamplingRatio float64
}

// IsProduction reports whether the console runs against production.
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// Load reads configuration.
// Priority (highest to lowest):
// 1. Environment variables with CONSOLE_ prefix (e.g., CONSOLE_BACKEND_BASE_URL)
// 2. The file at path, or console.{toml,yaml,json} in ., ./config or $HOME/.customer-console
// 3. Built-in defaults
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("console")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.customer-console")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file is fine, defaults and env vars apply
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
		},
		Backend: BackendConfig{
			BaseURL:        v.GetString("backend.base_url"),
			PathPrefix:     v.GetString("backend.path_prefix"),
			Timeout:        v.GetDuration("backend.timeout"),
			TLSSkipVerify:  v.GetBool("backend.tls_skip_verify"),
			Token:          v.GetString("backend.token"),
			Headers:        v.GetStringMapString("backend.headers"),
			MaxRetries:     v.GetInt("backend.max_retries"),
			RetryDelay:     v.GetDuration("backend.retry_delay"),
			MaxRetryDelay:  v.GetDuration("backend.max_retry_delay"),
			RateLimitQPS:   v.GetFloat64("backend.rate_limit_qps"),
			RateLimitBurst: v.GetInt("backend.rate_limit_burst"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Search: SearchConfig{
			IncludeAddressID: v.GetBool("search.include_address_id"),
			IncludeActive:    v.GetBool("search.include_active"),
		},
		Metrics: MetricsConfig{
			Enabled:   v.GetBool("metrics.enabled"),
			Addr:      v.GetString("metrics.addr"),
			Path:      v.GetString("metrics.path"),
			Namespace: v.GetString("metrics.namespace"),
		},
		Telemetry: TelemetryConfig{
			Enabled:       v.GetBool("telemetry.enabled"),
			Endpoint:      v.GetString("telemetry.endpoint"),
			Insecure:      v.GetBool("telemetry.insecure"),
			SamplingRatio: v.GetFloat64("telemetry.sampling_ratio"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "customer-console")
	v.SetDefault("app.env", "development")

	v.SetDefault("backend.base_url", "http://localhost:8080")
	v.SetDefault("backend.path_prefix", "")
	v.SetDefault("backend.timeout", 30*time.Second)
	v.SetDefault("backend.tls_skip_verify", false)
	v.SetDefault("backend.token", "")
	v.SetDefault("backend.max_retries", 2)
	v.SetDefault("backend.retry_delay", 200*time.Millisecond)
	v.SetDefault("backend.max_retry_delay", 5*time.Second)
	v.SetDefault("backend.rate_limit_qps", 0)
	v.SetDefault("backend.rate_limit_burst", 1)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stderr")

	v.SetDefault("search.include_address_id", true)
	v.SetDefault("search.include_active", true)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", ":9091")
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.namespace", "customer_console")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.endpoint", "localhost:4317")
	v.SetDefault("telemetry.insecure", true)
	v.SetDefault("telemetry.sampling_ratio", 1.0)
}

// applyDefaults fills values an explicit empty setting would leave unusable.
func applyDefaults(cfg *Config) {
	if cfg.Backend.Timeout <= 0 {
		cfg.Backend.Timeout = 30 * time.Second
	}
	if cfg.Backend.RateLimitBurst < 1 {
		cfg.Backend.RateLimitBurst = 1
	}
	if cfg.Backend.MaxRetryDelay < cfg.Backend.RetryDelay {
		cfg.Backend.MaxRetryDelay = cfg.Backend.RetryDelay
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if cfg.Backend.Headers == nil {
		cfg.Backend.Headers = map[string]string{}
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: backend.base_url must be an absolute URL, got %q", ErrInvalidConfig, c.Backend.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: backend.base_url scheme must be http or https, got %q", ErrInvalidConfig, u.Scheme)
	}
	if c.Backend.MaxRetries < 0 {
		return fmt.Errorf("%w: backend.max_retries cannot be negative", ErrInvalidConfig)
	}
	if c.Backend.RetryDelay < 0 {
		return fmt.Errorf("%w: backend.retry_delay cannot be negative", ErrInvalidConfig)
	}
	if c.Backend.RateLimitQPS < 0 {
		return fmt.Errorf("%w: backend.rate_limit_qps cannot be negative", ErrInvalidConfig)
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("%w: metrics.addr is required when metrics are enabled", ErrInvalidConfig)
	}
	if c.Telemetry.SamplingRatio < 0 || c.Telemetry.SamplingRatio > 1 {
		return fmt.Errorf("%w: telemetry.sampling_ratio must be between 0 and 1", ErrInvalidConfig)
	}
	if c.Telemetry.Enabled && c.Telemetry.Endpoint == "" {
		return fmt.Errorf("%w: telemetry.endpoint is required when telemetry is enabled", ErrInvalidConfig)
	}

	// Production-specific validations
	if c.IsProduction() && c.Backend.TLSSkipVerify {
		return fmt.Errorf("%w: backend.tls_skip_verify must be false in production", ErrInvalidConfig)
	}

	return nil
}
