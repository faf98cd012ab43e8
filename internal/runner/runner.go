// Package runner executes a batch of flood scenarios against an
// engine adapter with bounded concurrency, recording every run and
// publishing progress on the event bus.
package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"floodbatch/internal/domain"
	"floodbatch/internal/engine"
	"floodbatch/internal/event"
	"floodbatch/internal/project"
	"floodbatch/internal/workspace"
)

// Recorder persists run records as they change state. A nil Recorder
// is allowed; runs are then only reported on the bus.
type Recorder interface {
	SaveRun(run domain.Run) error
}

// Options control batch execution
type Options struct {
	// MaxConcurrent bounds simultaneous engine processes, minimum 1
	MaxConcurrent int
	// KeepRawOutputs leaves engine outputs on disk after extraction
	KeepRawOutputs bool
	// SaveIntervalHours is the grid save interval requested of the engine
	SaveIntervalHours float64
	// Timeout bounds each engine run; zero means no limit
	Timeout time.Duration
}

// Batch runs scenarios through one engine. A failed scenario never
// stops the others; cancellation stops launching new ones and marks
// the rest canceled.
type Batch struct {
	engine    engine.Engine
	mat       *project.Materializer
	layout    *workspace.Layout
	extractor *Extractor
	bus       *event.Bus
	rec       Recorder
	logger    *zap.Logger
	opts      Options
}

// New creates a batch runner. extractor may be nil to skip extraction;
// bus and rec may be nil.
func New(e engine.Engine, mat *project.Materializer, layout *workspace.Layout, extractor *Extractor, bus *event.Bus, rec Recorder, logger *zap.Logger, opts Options) *Batch {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxConcurrent < 1 {
		opts.MaxConcurrent = 1
	}
	if opts.SaveIntervalHours <= 0 {
		opts.SaveIntervalHours = 1
	}
	return &Batch{
		engine:    e,
		mat:       mat,
		layout:    layout,
		extractor: extractor,
		bus:       bus,
		rec:       rec,
		logger:    logger,
		opts:      opts,
	}
}

// Run executes every scenario and returns the batch summary with the
// final run records in scenario order. The returned error reports
// setup problems only; per-scenario failures live in the run records.
func (b *Batch) Run(ctx context.Context, scenarios []domain.Scenario) (domain.BatchSummary, []domain.Run, error) {
	start := time.Now()
	if err := domain.ValidateScenarios(scenarios); err != nil {
		return domain.BatchSummary{}, nil, err
	}
	if err := b.layout.Init(); err != nil {
		return domain.BatchSummary{}, nil, err
	}

	b.publish(event.Event{Type: event.TypeBatchStarted,
		Message: fmt.Sprintf("%d scenarios, concurrency %d", len(scenarios), b.opts.MaxConcurrent)})

	runs := make([]domain.Run, len(scenarios))
	sem := make(chan struct{}, b.opts.MaxConcurrent)
	var wg sync.WaitGroup

	for i, sc := range scenarios {
		runs[i] = domain.Run{
			ID:       uuid.NewString(),
			Scenario: sc,
			Engine:   b.engine.Name(),
			Status:   domain.RunStatusPending,
		}

		wg.Add(1)
		go func(run *domain.Run) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				b.cancel(run)
				return
			}
			if ctx.Err() != nil {
				b.cancel(run)
				return
			}
			b.execute(ctx, run)
		}(&runs[i])
	}
	wg.Wait()

	var summary domain.BatchSummary
	for _, r := range runs {
		summary.Add(r.Status)
	}
	summary.Elapsed = time.Since(start)

	b.publish(event.Event{Type: event.TypeBatchCompleted,
		Message: fmt.Sprintf("%d completed, %d failed, %d canceled",
			summary.Completed, summary.Failed, summary.Canceled)})
	return summary, runs, nil
}

// execute runs one scenario end to end: materialize, simulate,
// extract, clean up.
func (b *Batch) execute(ctx context.Context, run *domain.Run) {
	name := run.Scenario.Name
	run.OutputDir = b.layout.ScenarioDir(name)
	run.MarkRunning(time.Now().UTC())
	b.record(*run)
	b.publish(event.Event{Type: event.TypeRunStarted, Scenario: name, Message: run.Scenario.Label()})

	if err := b.layout.EnsureScenario(name); err != nil {
		b.fail(run, err)
		return
	}
	if err := b.mat.Materialize(run.Scenario, b.layout.ProjectDir(name)); err != nil {
		b.fail(run, fmt.Errorf("materialize project: %w", err))
		return
	}

	spec := engine.RunSpec{
		Scenario:          run.Scenario,
		ProjectDir:        b.layout.ProjectDir(name),
		RawDir:            b.layout.RawDir(name),
		SaveIntervalHours: b.opts.SaveIntervalHours,
		Timeout:           b.opts.Timeout,
		Progress: func(pct float64, msg string) {
			b.publish(event.Event{Type: event.TypeRunProgress, Scenario: name, Percent: pct, Message: msg})
		},
	}
	if err := b.engine.Prepare(spec); err != nil {
		b.fail(run, fmt.Errorf("prepare project: %w", err))
		return
	}

	res, err := b.engine.Run(ctx, spec)
	if err != nil {
		if ctx.Err() != nil {
			b.cancel(run)
			return
		}
		b.fail(run, err)
		return
	}

	if b.extractor != nil {
		if _, err := b.extractor.Extract(run.Scenario, run.ID, res); err != nil {
			b.fail(run, fmt.Errorf("extract rasters: %w", err))
			return
		}
		if !b.opts.KeepRawOutputs {
			if err := b.layout.CleanRaw(name); err != nil {
				b.logger.Warn("raw output cleanup failed", zap.String("scenario", name), zap.Error(err))
			}
		}
	}

	run.MarkCompleted(time.Now().UTC())
	b.record(*run)
	b.publish(event.Event{Type: event.TypeRunCompleted, Scenario: name,
		Message: fmt.Sprintf("completed in %s", run.Duration().Round(time.Second))})
}

func (b *Batch) fail(run *domain.Run, err error) {
	b.logger.Error("scenario failed", zap.String("scenario", run.Scenario.Name), zap.Error(err))
	run.MarkFailed(time.Now().UTC(), err.Error())
	b.record(*run)
	b.publish(event.Event{Type: event.TypeRunFailed, Scenario: run.Scenario.Name, Message: err.Error()})
}

func (b *Batch) cancel(run *domain.Run) {
	run.MarkCanceled(time.Now().UTC())
	b.record(*run)
	b.publish(event.Event{Type: event.TypeRunCanceled, Scenario: run.Scenario.Name})
}

func (b *Batch) record(run domain.Run) {
	if b.rec == nil {
		return
	}
	if err := b.rec.SaveRun(run); err != nil {
		b.logger.Error("persisting run failed", zap.String("run", run.ID), zap.Error(err))
	}
}

func (b *Batch) publish(e event.Event) {
	if b.bus != nil {
		b.bus.Publish(e)
	}
}
