// Package config loads service configuration with koanf.
// Precedence, lowest first: compiled defaults, optional YAML file, environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/bionicotaku/lingo-utils-claimcheck"
)

// EnvPrefix prefixes every environment variable read by Load. Nested keys are
// separated by a double underscore, e.g. CLAIMCHECK_HTTP__ADDR.
const EnvPrefix = "CLAIMCHECK_"

// Config holds all service configuration.
type Config struct {
	// Environment identifier: "local", "dev", "prod".
	Environment string `koanf:"environment"`

	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"` // "dev" or "prod"

	HTTP      HTTPConfig      `koanf:"http"`
	Validator ValidatorConfig `koanf:"validator"`
	Metrics   MetricsConfig   `koanf:"metrics"`
}

// HTTPConfig holds the listener and timeouts of the validation endpoint.
type HTTPConfig struct {
	Addr            string        `koanf:"addr"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	MaxBodyBytes    int64         `koanf:"max_body_bytes"`
}

// ValidatorConfig selects the token decoder.
type ValidatorConfig struct {
	Decoder string `koanf:"decoder"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// ErrInvalid is wrapped by every validation failure returned from Load.
var ErrInvalid = errors.New("invalid configuration")

func defaults() *Config {
	return &Config{
		Environment: "local",
		LogLevel:    "info",
		LogFormat:   "dev",
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxBodyBytes:    64 << 10,
		},
		Validator: ValidatorConfig{
			Decoder: string(claimcheck.DecoderJWX),
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Default returns the compiled defaults.
func Default() *Config {
	return defaults()
}

// Load builds the configuration. path may be empty to skip the YAML file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := defaults()

	if path != "" {
		if err := k.Load(yamlFile(path), nil); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch claimcheck.DecoderKind(c.Validator.Decoder) {
	case claimcheck.DecoderJWX, claimcheck.DecoderGolangJWT:
	default:
		return fmt.Errorf("%w: validator.decoder %q", ErrInvalid, c.Validator.Decoder)
	}
	switch strings.ToLower(c.LogFormat) {
	case "dev", "prod":
	default:
		return fmt.Errorf("%w: log_format %q", ErrInvalid, c.LogFormat)
	}
	if strings.TrimSpace(c.HTTP.Addr) == "" {
		return fmt.Errorf("%w: http.addr is required", ErrInvalid)
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		return fmt.Errorf("%w: http.max_body_bytes must be positive", ErrInvalid)
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("%w: metrics.path must start with /", ErrInvalid)
	}
	return nil
}

// IsProd returns true if running in production environment.
func (c *Config) IsProd() bool {
	return c.Environment == "prod"
}
