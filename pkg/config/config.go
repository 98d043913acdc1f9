// Package config loads covview configuration from covview.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the workspace configuration file covview looks for.
const ConfigFileName = "covview.yaml"

// Config represents a covview configuration file.
type Config struct {
	// Profile is the cover profile path, relative to the config file's
	// directory or absolute (default: coverage.out).
	Profile string `yaml:"profile,omitempty"`

	// Manifest is the optional test manifest path.
	Manifest string `yaml:"manifest,omitempty"`

	// StateDir holds tree state and run history (default: .covview).
	StateDir string `yaml:"state_dir,omitempty"`

	// RootName labels the tree root (default: coverage).
	RootName string `yaml:"root_name,omitempty"`

	// DebounceMs is the watch debounce window in milliseconds
	// (default: 200).
	DebounceMs int `yaml:"debounce_ms,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Profile:    "coverage.out",
		StateDir:   ".covview",
		RootName:   "coverage",
		DebounceMs: 200,
	}
}

// Debounce returns the debounce window as a duration.
func (c Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	if c.Profile == "" {
		return fmt.Errorf("profile is required")
	}
	if c.DebounceMs < 0 {
		return fmt.Errorf("debounce_ms must not be negative")
	}
	return nil
}

// Load reads a config file and fills unset fields with defaults. Relative
// paths in the file are resolved against the file's directory.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	base := filepath.Dir(path)
	cfg.Profile = resolve(base, cfg.Profile)
	cfg.Manifest = resolve(base, cfg.Manifest)
	cfg.StateDir = resolve(base, cfg.StateDir)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}
