// Package config provides centralized configuration for the gitgraph server.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kurobon/gitgraph/internal/history"
	"github.com/kurobon/gitgraph/internal/layout"
)

// Config holds application-wide configuration.
type Config struct {
	// RepoPath is the repository whose history is drawn.
	RepoPath string `yaml:"repo"`
	// ListenAddr is the HTTP listen address.
	ListenAddr string `yaml:"addr"`
	// PageSize is how many commits are fetched per page.
	PageSize int `yaml:"pageSize"`
	// PollInterval is how often the history is reloaded. Zero disables polling.
	PollInterval time.Duration `yaml:"pollInterval"`
	// MaxWalk caps how many commits are read from the repository.
	MaxWalk int `yaml:"maxWalk"`
	// Color enables styled glyphs in the text view.
	Color   bool           `yaml:"color"`
	Spacing layout.Spacing `yaml:"spacing"`
}

// Environment variables read by Load.
const (
	EnvConfigFile   = "GITGRAPH_CONFIG"
	EnvRepo         = "GITGRAPH_REPO"
	EnvAddr         = "GITGRAPH_ADDR"
	EnvPageSize     = "GITGRAPH_PAGE_SIZE"
	EnvPollInterval = "GITGRAPH_POLL_INTERVAL"
	EnvMaxWalk      = "GITGRAPH_MAX_WALK"
	EnvColor        = "GITGRAPH_COLOR"
)

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		RepoPath:     ".",
		ListenAddr:   ":8080",
		PageSize:     100,
		PollInterval: 5 * time.Second,
		MaxWalk:      history.DefaultMaxWalk,
		Spacing:      layout.DefaultSpacing,
	}
}

// Load builds the configuration from defaults, the YAML file named by
// GITGRAPH_CONFIG if set, and then the remaining environment variables.
func Load() (*Config, error) {
	cfg := DefaultConfig()
	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvRepo); v != "" {
		c.RepoPath = v
	}
	if v := os.Getenv(EnvAddr); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv(EnvPageSize); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvPageSize, v, err)
		}
		c.PageSize = n
	}
	if v := os.Getenv(EnvPollInterval); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvPollInterval, v, err)
		}
		c.PollInterval = d
	}
	if v := os.Getenv(EnvMaxWalk); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvMaxWalk, v, err)
		}
		c.MaxWalk = n
	}
	if v := os.Getenv(EnvColor); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvColor, v, err)
		}
		c.Color = b
	}
	return nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.RepoPath == "" {
		errs = append(errs, errors.New("repo path is required"))
	}
	if c.ListenAddr == "" {
		errs = append(errs, errors.New("listen address is required"))
	}
	if c.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("page size must be positive, got %d", c.PageSize))
	}
	if c.PollInterval < 0 {
		errs = append(errs, fmt.Errorf("poll interval must not be negative, got %s", c.PollInterval))
	}
	if c.MaxWalk < 0 {
		errs = append(errs, fmt.Errorf("max walk must not be negative, got %d", c.MaxWalk))
	}
	if c.Spacing.Lane < 0 || c.Spacing.Row < 0 {
		errs = append(errs, fmt.Errorf("spacing must not be negative, got %+v", c.Spacing))
	}
	return errors.Join(errs...)
}
