// Package config loads daemon configuration from a YAML file with
// environment variable and CLI flag overrides, and initializes logging.
//
// Precedence, lowest to highest: built-in defaults, config file,
// FINGERD_* environment variables, CLI flags (applied by the cli package).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	// DefaultPort is the listen port. The standard finger port is 79 but
	// binding it needs privileges, so the daemon defaults to 7979.
	DefaultPort = 7979

	// FingerPort is the standard finger protocol port.
	FingerPort = 79

	// DefaultHost restricts listening to loopback unless configured.
	DefaultHost = "127.0.0.1"

	// DefaultCacheTTL is the content cache freshness window.
	DefaultCacheTTL = 5 * time.Minute

	// DefaultReadTimeout bounds how long a connection may take to deliver
	// its request line. Zero disables the deadline.
	DefaultReadTimeout = 30 * time.Second

	// DefaultMaxRequestBytes bounds the request read.
	DefaultMaxRequestBytes = 1024
)

// DefaultConfigFile is probed in the working directory when no explicit
// config path is given; it is also where config init writes.
const DefaultConfigFile = "fingerd.yaml"

// Environment variable overrides.
const (
	EnvPlanDir  = "FINGERD_PLAN_DIR"
	EnvHost     = "FINGERD_HOST"
	EnvPort     = "FINGERD_PORT"
	EnvCacheTTL = "FINGERD_CACHE_TTL"
	EnvLogLevel = "FINGERD_LOG_LEVEL"
)

// ErrInvalidPort is returned when the configured port is out of range.
var ErrInvalidPort = errors.New("port must be between 1 and 65535")

// Duration is a time.Duration that marshals to YAML as a duration string
// and unmarshals from either a duration string ("5m") or integer seconds
// ("300"), the same dual format the environment overrides accept.
type Duration time.Duration

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseTTL(value.Value)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Config is the full daemon configuration.
type Config struct {
	Listen  ListenConfig  `yaml:"listen"`
	PlanDir string        `yaml:"plan_dir"`
	Cache   CacheConfig   `yaml:"cache"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
}

// ListenConfig is the bind address.
type ListenConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// CacheConfig tunes the content cache.
type CacheConfig struct {
	TTL Duration `yaml:"ttl"`
}

// ServerConfig tunes per-connection handling.
type ServerConfig struct {
	ReadTimeout     Duration `yaml:"read_timeout"`
	MaxRequestBytes int      `yaml:"max_request_bytes"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Listen: ListenConfig{Host: DefaultHost, Port: DefaultPort},
		Cache:  CacheConfig{TTL: Duration(DefaultCacheTTL)},
		Server: ServerConfig{
			ReadTimeout:     Duration(DefaultReadTimeout),
			MaxRequestBytes: DefaultMaxRequestBytes,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load builds the effective configuration. An explicit path must exist and
// parse; an empty path falls back to DefaultConfigFile when one is present
// in the working directory, and to the built-in defaults otherwise.
// Environment overrides are applied in every case.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			path = DefaultConfigFile
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overlays FINGERD_* environment variables. Unparseable values are
// ignored in favor of the current setting.
func (c *Config) applyEnv() {
	if v := os.Getenv(EnvPlanDir); v != "" {
		c.PlanDir = v
	}
	if v := os.Getenv(EnvHost); v != "" {
		c.Listen.Host = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Listen.Port = port
		}
	}
	if v := os.Getenv(EnvCacheTTL); v != "" {
		if ttl, err := ParseTTL(v); err == nil {
			c.Cache.TTL = Duration(ttl)
		}
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks settings needed to serve.
func (c *Config) Validate() error {
	if c.Listen.Port < 1 || c.Listen.Port > 65535 {
		return fmt.Errorf("%w: got %d", ErrInvalidPort, c.Listen.Port)
	}
	if c.PlanDir == "" {
		return errors.New("plan_dir must be set")
	}
	if c.Server.MaxRequestBytes < 1 {
		return errors.New("max_request_bytes must be positive")
	}
	return nil
}

// Addr returns the host:port string to bind or dial.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Listen.Host, c.Listen.Port)
}

// ParseTTL parses a TTL given either as integer seconds ("300") or as a
// duration string ("5m", "1h30m"). Negative values are rejected; zero is
// allowed and disables caching.
func ParseTTL(s string) (time.Duration, error) {
	if seconds, err := strconv.Atoi(s); err == nil {
		if seconds < 0 {
			return 0, fmt.Errorf("ttl must not be negative: got %d", seconds)
		}
		return time.Duration(seconds) * time.Second, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid ttl format: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("ttl must not be negative: got %s", d)
	}
	return d, nil
}

// Save writes the configuration as YAML to path.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}
