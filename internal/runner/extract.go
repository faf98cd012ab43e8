package runner

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"floodbatch/internal/domain"
	"floodbatch/internal/engine"
	"floodbatch/internal/event"
	"floodbatch/internal/raster"
	"floodbatch/internal/workspace"
)

// Derived raster file names within a scenario's rasters directory
const (
	MaxDepthFile    = "max_depth.asc"
	MaxVelocityFile = "max_velocity.asc"
	DurationFile    = "duration_hours.asc"
	ExtentFile      = "extent.asc"
)

// Products are the derived rasters for one scenario. MaxVelocity is
// nil when the engine produced no velocity output.
type Products struct {
	MaxDepth    *raster.Grid
	MaxVelocity *raster.Grid
	Duration    *raster.Grid
	Extent      *raster.Grid
	// Dir is the rasters directory the products were written to
	Dir string
}

// Extractor turns a completed run's raw grid series into the derived
// rasters: event-maximum depth and velocity, inundation duration, and
// flood extent.
type Extractor struct {
	layout *workspace.Layout
	bus    *event.Bus
	logger *zap.Logger
	// DepthThresholdM is the wet/dry cutoff for duration and extent
	DepthThresholdM float64
	// StepHours is the time spacing of the saved grid series
	StepHours float64
}

// NewExtractor creates an extractor writing into the given workspace
func NewExtractor(layout *workspace.Layout, bus *event.Bus, logger *zap.Logger, depthThresholdM, stepHours float64) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if stepHours <= 0 {
		stepHours = 1
	}
	return &Extractor{
		layout:          layout,
		bus:             bus,
		logger:          logger,
		DepthThresholdM: depthThresholdM,
		StepHours:       stepHours,
	}
}

// Extract derives and writes the scenario's rasters, then records the
// extraction marker. The engine's own event-maximum grids are
// preferred over recomputing from the series when present.
func (x *Extractor) Extract(scenario domain.Scenario, runID string, res *engine.RunResult) (*Products, error) {
	name := scenario.Name
	if x.bus != nil {
		x.bus.Publish(event.Event{Type: event.TypeExtractStarted, Scenario: name})
	}

	depths, err := x.loadSeries(res.DepthSeries)
	if err != nil {
		return nil, fmt.Errorf("depth series: %w", err)
	}

	maxDepth, err := x.maxGrid(res.MaxDepthPath, depths)
	if err != nil {
		return nil, fmt.Errorf("max depth: %w", err)
	}
	duration, err := raster.DurationAbove(depths, x.DepthThresholdM, x.StepHours)
	if err != nil {
		return nil, fmt.Errorf("duration: %w", err)
	}
	extent := raster.Extent(maxDepth, x.DepthThresholdM)

	var maxVel *raster.Grid
	if res.MaxVelocityPath != "" || len(res.VelocitySeries) > 0 {
		vels, err := x.loadSeries(res.VelocitySeries)
		if err != nil {
			return nil, fmt.Errorf("velocity series: %w", err)
		}
		maxVel, err = x.maxGrid(res.MaxVelocityPath, vels)
		if err != nil {
			return nil, fmt.Errorf("max velocity: %w", err)
		}
	}

	dir := x.layout.RasterDir(name)
	outputs := []struct {
		file string
		grid *raster.Grid
	}{
		{MaxDepthFile, maxDepth},
		{DurationFile, duration},
		{ExtentFile, extent},
		{MaxVelocityFile, maxVel},
	}
	for _, out := range outputs {
		if out.grid == nil {
			continue
		}
		if err := raster.WriteASCII(filepath.Join(dir, out.file), out.grid); err != nil {
			return nil, err
		}
	}

	if err := x.layout.WriteMarker(name, runID); err != nil {
		return nil, err
	}
	x.logger.Info("rasters extracted",
		zap.String("scenario", name),
		zap.Int("depth_grids", len(depths)),
		zap.Bool("velocity", maxVel != nil))
	if x.bus != nil {
		x.bus.Publish(event.Event{Type: event.TypeExtractDone, Scenario: name})
	}

	return &Products{
		MaxDepth:    maxDepth,
		MaxVelocity: maxVel,
		Duration:    duration,
		Extent:      extent,
		Dir:         dir,
	}, nil
}

// LoadProducts reads back previously extracted rasters for a scenario
func (x *Extractor) LoadProducts(name string) (*Products, error) {
	if _, ok := x.layout.Marker(name); !ok {
		return nil, fmt.Errorf("scenario %s has not been extracted", name)
	}
	dir := x.layout.RasterDir(name)

	maxDepth, err := raster.ReadASCII(filepath.Join(dir, MaxDepthFile))
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", name, err)
	}
	duration, err := raster.ReadASCII(filepath.Join(dir, DurationFile))
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", name, err)
	}
	extent, err := raster.ReadASCII(filepath.Join(dir, ExtentFile))
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", name, err)
	}
	p := &Products{MaxDepth: maxDepth, Duration: duration, Extent: extent, Dir: dir}

	// velocity is optional
	if vel, err := raster.ReadASCII(filepath.Join(dir, MaxVelocityFile)); err == nil {
		p.MaxVelocity = vel
	}
	return p, nil
}

func (x *Extractor) loadSeries(paths []string) ([]*raster.Grid, error) {
	grids := make([]*raster.Grid, 0, len(paths))
	for _, p := range paths {
		g, err := raster.ReadASCII(p)
		if err != nil {
			return nil, err
		}
		grids = append(grids, g)
	}
	return grids, nil
}

// maxGrid uses the engine's own maximum grid when present, otherwise
// derives it from the series.
func (x *Extractor) maxGrid(path string, series []*raster.Grid) (*raster.Grid, error) {
	if path != "" {
		return raster.ReadASCII(path)
	}
	return raster.MaxOverSeries(series)
}
