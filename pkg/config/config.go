// Package config loads the pipeline's YAML configuration. The file is
// the single source of tunables; nothing in the pipeline reads the
// process environment directly. The one environment interaction, the
// routing API key, is declared here by variable name and resolved by
// the caller at the edge.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/MrHaila/kantama/pkg/core"
	"github.com/MrHaila/kantama/pkg/routing"
	"github.com/MrHaila/kantama/pkg/scheduler"
)

// Config is the root configuration document.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Routing  RoutingConfig  `yaml:"routing"`
	Run      RunConfig      `yaml:"run"`
}

// DatabaseConfig locates the SQLite database file.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// RoutingConfig describes the journey-planning endpoint.
type RoutingConfig struct {
	Endpoint string `yaml:"endpoint"`
	Local    bool   `yaml:"local"`
	// APIKeyEnv names the environment variable holding the subscription
	// key. The key itself never lives in the file.
	APIKeyEnv         string  `yaml:"api_key_env"`
	MaxItineraries    int     `yaml:"max_itineraries"`
	TimeoutSeconds    int     `yaml:"timeout_seconds"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// RetryConfig tunes the rate-limit backoff.
type RetryConfig struct {
	MaxAttempts       int     `yaml:"max_attempts"`
	InitialBackoffMS  int     `yaml:"initial_backoff_ms"`
	MaxBackoffMS      int     `yaml:"max_backoff_ms"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
	JitterFraction    float64 `yaml:"jitter_fraction"`
}

// RunConfig tunes the route computation run.
type RunConfig struct {
	Periods     []string    `yaml:"periods"`
	Mode        string      `yaml:"mode"`
	Concurrency int         `yaml:"concurrency"`
	ChunkSize   int         `yaml:"chunk_size"`
	JitterMS    int         `yaml:"jitter_ms"`
	RetryFailed bool        `yaml:"retry_failed"`
	Retry       RetryConfig `yaml:"retry"`
}

// Default returns the configuration used when no file overrides it.
func Default() *Config {
	cfg := &Config{}
	cfg.defaults()
	return cfg
}

// Load reads and validates a YAML configuration file. Missing fields
// fall back to defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.defaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) defaults() {
	if c.Database.Path == "" {
		c.Database.Path = "kantama.db"
	}
	if c.Routing.Endpoint == "" {
		c.Routing.Endpoint = "https://api.digitransit.fi/routing/v2/hsl/gtfs/v1"
	}
	if c.Routing.APIKeyEnv == "" {
		c.Routing.APIKeyEnv = "DIGITRANSIT_SUBSCRIPTION_KEY"
	}
	if c.Routing.MaxItineraries == 0 {
		c.Routing.MaxItineraries = 3
	}
	if c.Routing.TimeoutSeconds == 0 {
		c.Routing.TimeoutSeconds = 30
	}
	if c.Routing.RequestsPerSecond == 0 && !c.Routing.Local {
		c.Routing.RequestsPerSecond = 10
	}
	if len(c.Run.Periods) == 0 {
		for _, p := range core.AllPeriods() {
			c.Run.Periods = append(c.Run.Periods, string(p))
		}
	}
	if c.Run.Mode == "" {
		c.Run.Mode = string(core.ModeTransit)
	}
	if c.Run.Concurrency == 0 {
		c.Run.Concurrency = 8
	}
	if c.Run.ChunkSize == 0 {
		c.Run.ChunkSize = 100
	}
	if c.Run.JitterMS == 0 && !c.Routing.Local {
		c.Run.JitterMS = 200
	}
	if c.Run.Retry.MaxAttempts == 0 {
		def := routing.DefaultRetryConfig()
		c.Run.Retry = RetryConfig{
			MaxAttempts:       def.MaxAttempts,
			InitialBackoffMS:  int(def.InitialBackoff / time.Millisecond),
			MaxBackoffMS:      int(def.MaxBackoff / time.Millisecond),
			BackoffMultiplier: def.BackoffMultiplier,
			JitterFraction:    def.JitterFraction,
		}
	}
}

func (c *Config) validate() error {
	if c.Routing.Endpoint == "" {
		return fmt.Errorf("config: routing.endpoint is required")
	}
	if c.Run.Concurrency < 1 {
		return fmt.Errorf("config: run.concurrency must be positive, got %d", c.Run.Concurrency)
	}
	if c.Run.Concurrency > core.MaxConcurrency {
		return fmt.Errorf("config: run.concurrency %d exceeds the limit of %d", c.Run.Concurrency, core.MaxConcurrency)
	}
	if c.Run.ChunkSize < 1 {
		return fmt.Errorf("config: run.chunk_size must be positive, got %d", c.Run.ChunkSize)
	}
	switch core.TravelMode(c.Run.Mode) {
	case core.ModeTransit, core.ModeWalk, core.ModeBicycle:
	default:
		return fmt.Errorf("config: unknown run.mode %q", c.Run.Mode)
	}
	for _, p := range c.Run.Periods {
		switch core.Period(p) {
		case core.PeriodMorning, core.PeriodEvening, core.PeriodMidnight:
		default:
			return fmt.Errorf("config: unknown run.periods entry %q", p)
		}
	}
	return nil
}

// ClientConfig builds the routing client configuration. The API key is
// passed in by the caller, resolved from the variable named by APIKeyEnv.
func (c *Config) ClientConfig(apiKey string) routing.Config {
	return routing.Config{
		Endpoint:          c.Routing.Endpoint,
		APIKey:            apiKey,
		Local:             c.Routing.Local,
		MaxItineraries:    c.Routing.MaxItineraries,
		Timeout:           time.Duration(c.Routing.TimeoutSeconds) * time.Second,
		RequestsPerSecond: c.Routing.RequestsPerSecond,
		Retry: routing.RetryConfig{
			MaxAttempts:       c.Run.Retry.MaxAttempts,
			InitialBackoff:    time.Duration(c.Run.Retry.InitialBackoffMS) * time.Millisecond,
			MaxBackoff:        time.Duration(c.Run.Retry.MaxBackoffMS) * time.Millisecond,
			BackoffMultiplier: c.Run.Retry.BackoffMultiplier,
			JitterFraction:    c.Run.Retry.JitterFraction,
		},
	}
}

// SchedulerConfig builds the run configuration.
func (c *Config) SchedulerConfig() scheduler.Config {
	periods := make([]core.Period, 0, len(c.Run.Periods))
	for _, p := range c.Run.Periods {
		periods = append(periods, core.Period(p))
	}
	return scheduler.Config{
		Periods:     periods,
		Mode:        core.TravelMode(c.Run.Mode),
		Concurrency: c.Run.Concurrency,
		ChunkSize:   c.Run.ChunkSize,
		JitterMax:   time.Duration(c.Run.JitterMS) * time.Millisecond,
		RetryFailed: c.Run.RetryFailed,
	}
}
