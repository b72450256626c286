// Package config loads awsbrowse settings from a YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Source kinds.
const (
	SourceFixture = "fixture"
	SourceSQLite  = "sqlite"
	SourceAgent   = "agent"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// Config holds application configuration.
type Config struct {
	// Source selects the inventory provider: fixture, sqlite or agent.
	Source string `yaml:"source"`

	// Inventory is the fixture file, the database file or the agent URL,
	// depending on Source.
	Inventory string `yaml:"inventory"`

	// Watch reloads a fixture inventory when its file changes.
	Watch bool `yaml:"watch"`

	PageSize     int           `yaml:"pageSize"`
	WrapWidth    int           `yaml:"wrapWidth"`
	Concurrency  int           `yaml:"concurrency"`
	FetchTimeout time.Duration `yaml:"fetchTimeout"`

	// Listen is the address `awsbrowse agent` serves on.
	Listen string `yaml:"listen"`

	LogFile   string `yaml:"logFile"`
	Verbosity int    `yaml:"verbosity"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Source:       SourceFixture,
		Inventory:    "inventory.yaml",
		PageSize:     50,
		WrapWidth:    60,
		Concurrency:  4,
		FetchTimeout: 30 * time.Second,
		Listen:       "127.0.0.1:7788",
	}
}

// DefaultPath returns ~/.config/awsbrowse/config.yaml, or "" if the home
// directory is unknown.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "awsbrowse", "config.yaml")
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch c.Source {
	case SourceFixture, SourceSQLite, SourceAgent:
	default:
		return fmt.Errorf("%w: unknown source %q", ErrInvalid, c.Source)
	}
	if c.Inventory == "" {
		return fmt.Errorf("%w: inventory is required", ErrInvalid)
	}
	if c.PageSize < 1 {
		return fmt.Errorf("%w: pageSize must be positive, got %d", ErrInvalid, c.PageSize)
	}
	if c.WrapWidth < 0 {
		return fmt.Errorf("%w: wrapWidth must not be negative, got %d", ErrInvalid, c.WrapWidth)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("%w: concurrency must be positive, got %d", ErrInvalid, c.Concurrency)
	}
	if c.FetchTimeout < 0 {
		return fmt.Errorf("%w: fetchTimeout must not be negative", ErrInvalid)
	}
	if c.Verbosity < 0 {
		return fmt.Errorf("%w: verbosity must not be negative", ErrInvalid)
	}
	return nil
}
