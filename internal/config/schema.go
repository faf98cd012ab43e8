package config

import (
	"fmt"
	"time"

	"floodbatch/internal/domain"
)

// Config is the root batch configuration
type Config struct {
	Version    int               `yaml:"version"`
	Engine     EngineConfig      `yaml:"engine"`
	Project    ProjectConfig     `yaml:"project"`
	Scenarios  []domain.Scenario `yaml:"scenarios"`
	Execution  ExecutionConfig   `yaml:"execution"`
	Thresholds ThresholdConfig   `yaml:"thresholds"`
	Outputs    OutputConfig      `yaml:"outputs"`
	Fields     FieldsConfig      `yaml:"fields"`

	// Check holds the last environment check result, written back by
	// `floodbatch check --save`
	Check *CheckResult `yaml:"check,omitempty"`
}

// EngineConfig selects and locates the external simulation engine
type EngineConfig struct {
	// Name is the registered engine adapter ("hecras" or "lisflood")
	Name string `yaml:"name"`
	// Executable is the engine binary; resolved via PATH when relative
	Executable string `yaml:"executable"`
	// Args are extra arguments appended to every invocation
	Args []string `yaml:"args,omitempty"`
	// Timeout bounds a single scenario run; zero means no limit
	Timeout Duration `yaml:"timeout,omitempty"`
}

// ProjectConfig locates the hydraulic model template
type ProjectConfig struct {
	// TemplateDir is the pristine project directory; never written to
	TemplateDir string `yaml:"template_dir"`
	// BoundaryFile is the boundary-condition file within the template
	BoundaryFile string `yaml:"boundary_file"`
	// BoundaryIntervalHours is the interval of the rewritten flow tables
	BoundaryIntervalHours float64 `yaml:"boundary_interval_hours,omitempty"`
}

// ExecutionConfig controls the batch executor
type ExecutionConfig struct {
	// MaxConcurrent caps parallel engine processes; zero means use the
	// environment check recommendation (or 1 without one)
	MaxConcurrent int `yaml:"max_concurrent,omitempty"`
	// KeepRawOutputs preserves raw engine output after extraction
	KeepRawOutputs bool `yaml:"keep_raw_outputs,omitempty"`
	// SaveIntervalHours is the engine grid save interval
	SaveIntervalHours float64 `yaml:"save_interval_hours,omitempty"`
}

// ThresholdConfig holds the wet/dry and severity breakpoints
type ThresholdConfig struct {
	// DepthM is the depth above which a cell counts as flooded
	DepthM float64 `yaml:"depth_m,omitempty"`
	// Severity classification breakpoints
	Severity domain.SeverityThresholds `yaml:"severity,omitempty"`
}

// OutputConfig places the batch outputs
type OutputConfig struct {
	// Workspace is the root of the batch output tree
	Workspace string `yaml:"workspace"`
	// Database is the run ledger / stats SQLite file
	Database string `yaml:"database,omitempty"`
	// StatsCSV is the statistics table CSV path
	StatsCSV string `yaml:"stats_csv,omitempty"`
	// GeoPackage is the statistics GeoPackage path; empty disables it
	GeoPackage string `yaml:"geopackage,omitempty"`
}

// FieldsConfig locates the agricultural fields layer
type FieldsConfig struct {
	// Path is the GeoJSON feature collection of field polygons
	Path string `yaml:"path"`
	// IDProperty names the property carrying the field identifier
	IDProperty string `yaml:"id_property,omitempty"`
	// SRID is the spatial reference id written to the GeoPackage
	SRID int `yaml:"srid,omitempty"`
}

// CheckResult is the persisted outcome of an environment check
type CheckResult struct {
	Timestamp             time.Time `yaml:"timestamp"`
	EngineVersion         string    `yaml:"engine_version,omitempty"`
	CPUCount              int       `yaml:"cpu_count"`
	RecommendedConcurrent int       `yaml:"recommended_concurrent"`
	Notes                 []string  `yaml:"notes,omitempty"`
}

// Validate checks the configuration before any run starts
func (c *Config) Validate() error {
	if c.Engine.Name == "" {
		return fmt.Errorf("engine.name is required")
	}
	if c.Engine.Executable == "" {
		return fmt.Errorf("engine.executable is required")
	}
	if c.Project.TemplateDir == "" {
		return fmt.Errorf("project.template_dir is required")
	}
	if c.Project.BoundaryFile == "" {
		return fmt.Errorf("project.boundary_file is required")
	}
	if c.Outputs.Workspace == "" {
		return fmt.Errorf("outputs.workspace is required")
	}
	if c.Execution.MaxConcurrent < 0 {
		return fmt.Errorf("execution.max_concurrent must not be negative")
	}
	if err := domain.ValidateScenarios(c.Scenarios); err != nil {
		return err
	}
	return nil
}

// EffectiveConcurrency returns the worker count to use
// (explicit setting > check recommendation > 1)
func (c *Config) EffectiveConcurrency() int {
	if c.Execution.MaxConcurrent > 0 {
		return c.Execution.MaxConcurrent
	}
	if c.Check != nil && c.Check.RecommendedConcurrent > 0 {
		return c.Check.RecommendedConcurrent
	}
	return 1
}

// Duration wraps time.Duration for YAML round-tripping
type Duration time.Duration

// Duration returns the wrapped time.Duration
func (d Duration) Duration() time.Duration { return time.Duration(d) }

// MarshalYAML renders the duration in time.Duration string form
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML parses a duration string like "45m" or "2h"
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}
