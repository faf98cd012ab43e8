// Package config provides configuration management for floodbatch.
//
// One YAML file describes a whole batch: the engine to drive, the
// project template, the scenario set, execution limits, thresholds,
// and output destinations.
//
// Config file locations (priority order):
//  1. $FLOODBATCH_CONFIG
//  2. ./floodbatch.yaml
//  3. ~/.config/floodbatch/config.yaml
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"floodbatch/internal/domain"
)

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		return DefaultConfig(), "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, path, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns sensible defaults for a new batch
func DefaultConfig() *Config {
	cfg := &Config{
		Version: 1,
		Engine:  EngineConfig{Name: "lisflood"},
		Project: ProjectConfig{BoundaryFile: "model.bc"},
		Outputs: OutputConfig{Workspace: "./floodbatch-out"},
	}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Project.BoundaryIntervalHours <= 0 {
		c.Project.BoundaryIntervalHours = 1
	}
	if c.Execution.SaveIntervalHours <= 0 {
		c.Execution.SaveIntervalHours = 1
	}
	if c.Thresholds.DepthM <= 0 {
		c.Thresholds.DepthM = 0.05
	}
	if c.Thresholds.Severity == (domain.SeverityThresholds{}) {
		c.Thresholds.Severity = domain.DefaultSeverityThresholds()
	}
	if c.Outputs.Database == "" && c.Outputs.Workspace != "" {
		c.Outputs.Database = filepath.Join(c.Outputs.Workspace, "floodbatch.db")
	}
	if c.Outputs.StatsCSV == "" && c.Outputs.Workspace != "" {
		c.Outputs.StatsCSV = filepath.Join(c.Outputs.Workspace, "field_stats.csv")
	}
	if c.Fields.IDProperty == "" {
		c.Fields.IDProperty = "field_id"
	}
	if c.Fields.SRID == 0 {
		c.Fields.SRID = 4326
	}
}
