// Package config provides configuration loading and management for atera.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete atera configuration
type Config struct {
	Data       DataConfig       `yaml:"data"`
	Validation ValidationConfig `yaml:"validation"`
	Watch      WatchConfig      `yaml:"watch"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// DataConfig locates the activity data
type DataConfig struct {
	// Root is the data root holding activities and shared definitions
	Root string `yaml:"root"`
	// ActivitiesDir is the activities folder, relative to Root
	ActivitiesDir string `yaml:"activities_dir"`
	// Definitions is the definitions file, relative to Root
	Definitions string `yaml:"definitions"`
}

// ValidationConfig configures validation runs
type ValidationConfig struct {
	// Fix writes normalized text back into the documents
	Fix bool `yaml:"fix"`
	// FailOnWarnings makes warnings fail a validation run
	FailOnWarnings bool `yaml:"fail_on_warnings"`
}

// WatchConfig configures watch mode
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// MetricsConfig configures metrics output
type MetricsConfig struct {
	// File is a Prometheus textfile written after each run (empty = disabled)
	File string `yaml:"file"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			Root:          "", // Auto-detect
			ActivitiesDir: "activities",
			Definitions:   "common/definitions.json",
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Data.ActivitiesDir == "" {
		return fmt.Errorf("data.activities_dir is required")
	}
	if c.Data.Definitions == "" {
		return fmt.Errorf("data.definitions is required")
	}
	if filepath.IsAbs(c.Data.ActivitiesDir) || filepath.IsAbs(c.Data.Definitions) {
		return fmt.Errorf("data paths must be relative to data.root")
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	return nil
}

// ActivitiesPath is the absolute activities folder.
func (c *Config) ActivitiesPath() string {
	return filepath.Join(c.Data.Root, c.Data.ActivitiesDir)
}

// DefinitionsPath is the absolute definitions file.
func (c *Config) DefinitionsPath() string {
	return filepath.Join(c.Data.Root, c.Data.Definitions)
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Relative roots are relative to the file that declares them
	if config.Data.Root != "" && !filepath.IsAbs(config.Data.Root) {
		config.Data.Root = filepath.Join(filepath.Dir(path), config.Data.Root)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Data
	if other.Data.Root != "" {
		c.Data.Root = other.Data.Root
	}
	if other.Data.ActivitiesDir != "" {
		c.Data.ActivitiesDir = other.Data.ActivitiesDir
	}
	if other.Data.Definitions != "" {
		c.Data.Definitions = other.Data.Definitions
	}

	// Validation flags only ever switch on
	if other.Validation.Fix {
		c.Validation.Fix = true
	}
	if other.Validation.FailOnWarnings {
		c.Validation.FailOnWarnings = true
	}

	if other.Watch.Debounce != 0 {
		c.Watch.Debounce = other.Watch.Debounce
	}
	if other.Metrics.File != "" {
		c.Metrics.File = other.Metrics.File
	}
}
