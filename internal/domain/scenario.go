package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// scenarioNamePattern restricts names to filesystem-safe identifiers,
// since every scenario owns a directory named after it.
var scenarioNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)

// Scenario describes a single flood event to be simulated: a return
// period and the hydrograph that drives the model boundary.
type Scenario struct {
	// Name is the unique scenario identifier (e.g. "rp100")
	Name string `yaml:"name" json:"name"`
	// ReturnPeriodYears is the statistical recurrence interval
	ReturnPeriodYears int `yaml:"return_period" json:"return_period"`
	// HydrographPath points to the CSV discharge time series
	HydrographPath string `yaml:"hydrograph" json:"hydrograph"`
	// BoundaryLine names the upstream boundary the hydrograph is applied to.
	// Empty means the project's first flow boundary.
	BoundaryLine string `yaml:"boundary_line,omitempty" json:"boundary_line,omitempty"`
}

// Validate checks that the scenario is internally consistent
func (s Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario name is required")
	}
	if !scenarioNamePattern.MatchString(s.Name) {
		return fmt.Errorf("scenario name %q contains characters unsafe for a directory name", s.Name)
	}
	if s.ReturnPeriodYears <= 0 {
		return fmt.Errorf("scenario %s: return period must be positive, got %d", s.Name, s.ReturnPeriodYears)
	}
	if s.HydrographPath == "" {
		return fmt.Errorf("scenario %s: hydrograph path is required", s.Name)
	}
	return nil
}

// Label returns a human-readable scenario description
func (s Scenario) Label() string {
	return fmt.Sprintf("%s (%d-year)", s.Name, s.ReturnPeriodYears)
}

// ValidateScenarios checks a scenario set for individual validity and
// duplicate names.
func ValidateScenarios(scenarios []Scenario) error {
	if len(scenarios) == 0 {
		return fmt.Errorf("at least one scenario is required")
	}
	seen := make(map[string]bool, len(scenarios))
	for _, s := range scenarios {
		if err := s.Validate(); err != nil {
			return err
		}
		key := strings.ToLower(s.Name)
		if seen[key] {
			return fmt.Errorf("duplicate scenario name: %s", s.Name)
		}
		seen[key] = true
	}
	return nil
}
