// Package engine wraps the external hydraulic simulation engines. Each
// adapter knows how to detect its engine, launch it for one scenario,
// follow its compute log for progress, and hand back the normalized
// grid outputs the extractor works on.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"floodbatch/internal/domain"
)

// ErrEngineNotFound is returned when the registry has no adapter under
// the requested name.
var ErrEngineNotFound = errors.New("engine not registered")

// ErrExecutableNotFound is returned when the configured engine binary
// cannot be located or executed.
var ErrExecutableNotFound = errors.New("engine executable not found")

// ComputeError is a failure reported by the engine itself: a nonzero
// exit, or an error line in its compute log.
type ComputeError struct {
	// Stage is where the failure surfaced ("launch", "compute", "collect")
	Stage string
	// Detail is the engine's own message, when one could be parsed
	Detail string
	// ExitCode is the process exit code, -1 when not applicable
	ExitCode int
}

func (e *ComputeError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("engine %s failed: %s", e.Stage, e.Detail)
	}
	return fmt.Sprintf("engine %s failed with exit code %d", e.Stage, e.ExitCode)
}

// ProgressFunc receives engine progress, percent 0-100 (-1 unknown)
type ProgressFunc func(percent float64, message string)

// RunSpec describes one scenario execution
type RunSpec struct {
	Scenario domain.Scenario
	// ProjectDir is the materialized, scenario-specific project
	ProjectDir string
	// RawDir is the output directory owned by this run
	RawDir string
	// SaveIntervalHours is the grid save interval the engine was asked for
	SaveIntervalHours float64
	// Timeout bounds the engine process; zero means no limit
	Timeout time.Duration
	// Progress receives compute progress; may be nil
	Progress ProgressFunc
}

// RunResult is the normalized outcome of a completed engine run. Grid
// paths are ESRI ASCII, in time order.
type RunResult struct {
	// DepthSeries are the saved water-depth grids
	DepthSeries []string
	// VelocitySeries are the saved velocity-magnitude grids, often empty
	VelocitySeries []string
	// MaxDepthPath is the engine's own event-maximum depth grid, if any
	MaxDepthPath string
	// MaxVelocityPath is the engine's event-maximum velocity grid, if any
	MaxVelocityPath string
	// LogPath is the engine's compute message file
	LogPath string
}

// Engine is one external simulation engine adapter
type Engine interface {
	// Name returns the unique adapter identifier
	Name() string

	// Detect probes the configured executable and returns its version
	Detect(ctx context.Context) (string, error)

	// Prepare applies engine-specific setup to the scenario's
	// materialized project directory before Run.
	Prepare(spec RunSpec) error

	// Run executes one scenario to completion. Prepare must have been
	// called; RawDir must exist and be owned by this run.
	Run(ctx context.Context, spec RunSpec) (*RunResult, error)

	// Collect gathers the normalized outputs of an already finished
	// run from its raw output directory.
	Collect(rawDir string) (*RunResult, error)
}

// Registry holds the available engine adapters
type Registry struct {
	mu      sync.RWMutex
	engines map[string]Engine
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{engines: make(map[string]Engine)}
}

// Register adds an adapter to the registry
func (r *Registry) Register(e Engine) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := e.Name()
	if _, exists := r.engines[name]; exists {
		return fmt.Errorf("engine %s already registered", name)
	}
	r.engines[name] = e
	return nil
}

// Get resolves an adapter by name
func (r *Registry) Get(name string) (Engine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.engines[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s (have: %v)", ErrEngineNotFound, name, r.names())
	}
	return e, nil
}

// Names lists the registered adapters in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.names()
}

func (r *Registry) names() []string {
	names := make([]string, 0, len(r.engines))
	for name := range r.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
