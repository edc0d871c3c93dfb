// Package config provides configuration loading for polyterm.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the polyterm configuration.
type Config struct {
	// API endpoints
	API APIConfig `yaml:"api"`

	// Catalog cache and search settings
	Catalog CatalogConfig `yaml:"catalog"`

	// Streaming feed settings
	Feed FeedConfig `yaml:"feed"`

	// Render loop settings
	Render RenderConfig `yaml:"render"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging"`
}

// APIConfig contains the service endpoints.
type APIConfig struct {
	GammaURL string `yaml:"gamma_url"`
	ClobURL  string `yaml:"clob_url"`
	WSURL    string `yaml:"ws_url"`
}

// CatalogConfig contains catalog cache and search settings.
type CatalogConfig struct {
	// How long a fetched catalog stays fresh
	TTL Duration `yaml:"ttl"`

	// Catalog fetch page size
	PageSize int `yaml:"page_size"`

	// Result cap for an empty query
	TopResults int `yaml:"top_results"`

	// Result cap for a fuzzy search
	SearchResults int `yaml:"search_results"`

	// Fuzzy scoring weights
	TitleWeight       int `yaml:"title_weight"`
	DescriptionWeight int `yaml:"description_weight"`
}

// FeedConfig contains streaming feed reconnection settings.
type FeedConfig struct {
	InitialBackoff Duration `yaml:"initial_backoff"`
	MaxBackoff     Duration `yaml:"max_backoff"`
	BackoffFactor  float64  `yaml:"backoff_factor"`
	Jitter         float64  `yaml:"jitter"`
}

// RenderConfig contains render loop settings.
type RenderConfig struct {
	// Tick interval for the render loop
	TickInterval Duration `yaml:"tick_interval"`

	// Visible depth per side, single- and dual-outcome views
	DepthSingle int `yaml:"depth_single"`
	DepthDual   int `yaml:"depth_dual"`

	// How old the last feed message may be before the dashboard is
	// marked stale
	StaleAfter Duration `yaml:"stale_after"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Log level: debug, info, warn, error
	Level string `yaml:"level"`

	// Log format: console or json
	Format string `yaml:"format"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{},
		Catalog: CatalogConfig{
			TTL:               Duration(60 * time.Second),
			PageSize:          200,
			TopResults:        50,
			SearchResults:     30,
			TitleWeight:       2,
			DescriptionWeight: 1,
		},
		Feed: FeedConfig{
			InitialBackoff: Duration(1 * time.Second),
			MaxBackoff:     Duration(30 * time.Second),
			BackoffFactor:  2.0,
			Jitter:         0.2,
		},
		Render: RenderConfig{
			TickInterval: Duration(100 * time.Millisecond),
			DepthSingle:  15,
			DepthDual:    12,
			StaleAfter:   Duration(3 * time.Second),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file and applies environment
// overrides for the endpoints.
func Load(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	config.ApplyEnv()
	return config, nil
}

// ApplyEnv overrides endpoints from the environment, typically loaded
// from a .env file at startup.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("POLYTERM_GAMMA_URL"); v != "" {
		c.API.GammaURL = v
	}
	if v := os.Getenv("POLYTERM_CLOB_URL"); v != "" {
		c.API.ClobURL = v
	}
	if v := os.Getenv("POLYTERM_WS_URL"); v != "" {
		c.API.WSURL = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Render.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be positive")
	}
	if c.Render.DepthSingle <= 0 || c.Render.DepthDual <= 0 {
		return fmt.Errorf("render depths must be positive")
	}
	if c.Feed.BackoffFactor < 1 {
		return fmt.Errorf("backoff_factor must be at least 1")
	}
	if c.Catalog.PageSize <= 0 {
		return fmt.Errorf("page_size must be positive")
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}
	return nil
}
