// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	Cache    CacheConfig    `yaml:"cache"`
	Playback PlaybackConfig `yaml:"playback"`
	Player   PlayerConfig   `yaml:"player"`
	Remote   RemoteConfig   `yaml:"remote"`
}

// ServerConfig represents RPC server configuration.
type ServerConfig struct {
	Addr         string `yaml:"addr" default:":8080"`
	ControlToken string `yaml:"control_token"`
}

// StoreConfig selects and configures the durable local store.
type StoreConfig struct {
	Backend   string      `yaml:"backend" default:"bolt" validate:"oneof=bolt redis memory"`
	Path      string      `yaml:"path" default:"data/cantio.db"`
	Namespace string      `yaml:"namespace" default:"cantio" validate:"required"`
	Name      string      `yaml:"name" default:"guest_data" validate:"required"`
	Redis     RedisConfig `yaml:"redis"`
}

// RedisConfig represents the redis store backend configuration.
type RedisConfig struct {
	Addr     string `yaml:"addr" default:"localhost:6379"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db" validate:"gte=0"`
}

// CacheConfig represents guest cache configuration.
type CacheConfig struct {
	ExpiryDays int `yaml:"expiry_days" default:"30" validate:"gte=1"`
}

// PlaybackConfig represents playback controller configuration.
type PlaybackConfig struct {
	ProgressIntervalMs  int     `yaml:"progress_interval_ms" default:"250" validate:"gte=16,lte=5000"`
	WatchdogIntervalMs  int     `yaml:"watchdog_interval_ms" default:"1000" validate:"gte=100,lte=60000"`
	ResumeDelaysMs      []int   `yaml:"resume_delays_ms" default:"[50,100,200]" validate:"max=10,dive,gte=0,lte=10000"`
	HiddenCheckMs       int     `yaml:"hidden_check_ms" default:"80" validate:"gte=0,lte=10000"`
	ErrorAdvanceDelayMs int     `yaml:"error_advance_delay_ms" default:"2000" validate:"gte=0,lte=60000"`
	RetryDelayMs        int     `yaml:"retry_delay_ms" default:"1000" validate:"gte=0,lte=60000"`
	RestartThresholdSec float64 `yaml:"restart_threshold_sec" default:"3" validate:"gte=0"`
	InitTimeoutMs       int     `yaml:"init_timeout_ms" default:"5000" validate:"gte=100"`
	Volume              float64 `yaml:"volume" default:"1" validate:"gte=0,lte=1"`
}

// PlayerConfig selects the external player adapter.
type PlayerConfig struct {
	Type     string         `yaml:"type" default:"mpv" validate:"oneof=mpv"`
	Settings map[string]any `yaml:"settings"`
}

// RemoteConfig represents the remote API used by authenticated sessions.
// An empty BaseURL runs the service in guest mode.
type RemoteConfig struct {
	BaseURL      string `yaml:"base_url" validate:"omitempty,url"`
	Token        string `yaml:"token"`
	TimeoutSec   int    `yaml:"timeout_sec" default:"10" validate:"gte=1,lte=120"`
	HistoryLimit int    `yaml:"history_limit" default:"50" validate:"gte=1,lte=100"`
	SearchLimit  int    `yaml:"search_limit" default:"20" validate:"gte=1,lte=50"`
	Optimistic   bool   `yaml:"optimistic"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	return Parse(data)
}

// Parse builds a configuration from YAML bytes.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	_ = defaults.Set(&cfg)
	return &cfg
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("CANTIO_API_TOKEN"); v != "" {
		c.Remote.Token = v
	}
	if v := os.Getenv("CANTIO_API_URL"); v != "" {
		c.Remote.BaseURL = v
	}
	if v := os.Getenv("CANTIO_CONTROL_TOKEN"); v != "" {
		c.Server.ControlToken = v
	}
	if v := os.Getenv("CANTIO_REDIS_PASSWORD"); v != "" {
		c.Store.Redis.Password = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	if c.Remote.BaseURL != "" && c.Remote.Token == "" {
		return errors.New("remote.token is required when remote.base_url is set")
	}
	if c.Store.Backend == "bolt" && strings.TrimSpace(c.Store.Path) == "" {
		return errors.New("store.path is required for the bolt backend")
	}

	return nil
}

// Authenticated reports whether a remote API is configured.
func (c *Config) Authenticated() bool {
	return c.Remote.BaseURL != ""
}

// Expiry returns the guest cache time-to-live.
func (c CacheConfig) Expiry() time.Duration {
	return time.Duration(c.ExpiryDays) * 24 * time.Hour
}

// ResumeDelays returns the force-resume backoff schedule.
func (c PlaybackConfig) ResumeDelays() []time.Duration {
	out := make([]time.Duration, len(c.ResumeDelaysMs))
	for i, ms := range c.ResumeDelaysMs {
		out[i] = time.Duration(ms) * time.Millisecond
	}
	return out
}

// Timeout returns the remote API request timeout.
func (c RemoteConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// Millis converts a millisecond count into a time.Duration.
func Millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
