// Package bootstrap verifies the environment before a batch: the
// engine executable, the project template, the fields layer, and the
// workspace, and recommends a concurrency level.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"go.uber.org/zap"

	"floodbatch/internal/config"
	"floodbatch/internal/engine"
)

// minFreeBytes is the free-disk floor below which a batch is unlikely
// to finish.
const minFreeBytes = 1 << 30

// Check probes the configured environment. Problems are collected as
// notes rather than returned as errors so one broken piece does not
// hide the rest; Ready reports whether the result is clean.
func Check(ctx context.Context, registry *engine.Registry, cfg *config.Config) *config.CheckResult {
	result := &config.CheckResult{
		Timestamp: time.Now().UTC(),
		CPUCount:  runtime.NumCPU(),
	}
	note := func(format string, args ...any) {
		result.Notes = append(result.Notes, fmt.Sprintf(format, args...))
	}

	eng, err := registry.Get(cfg.Engine.Name)
	if err != nil {
		note("engine: %v", err)
	} else {
		version, err := eng.Detect(ctx)
		if err != nil {
			note("engine %s: %v", cfg.Engine.Name, err)
		} else {
			result.EngineVersion = version
		}
	}

	if info, err := os.Stat(cfg.Project.TemplateDir); err != nil || !info.IsDir() {
		note("project template %s is not a directory", cfg.Project.TemplateDir)
	} else if cfg.Project.BoundaryFile != "" {
		bc := filepath.Join(cfg.Project.TemplateDir, cfg.Project.BoundaryFile)
		if _, err := os.Stat(bc); err != nil {
			note("boundary file %s not found in template", cfg.Project.BoundaryFile)
		}
	}

	for _, sc := range cfg.Scenarios {
		if _, err := os.Stat(sc.HydrographPath); err != nil {
			note("scenario %s: hydrograph %s not found", sc.Name, sc.HydrographPath)
		}
	}

	if cfg.Fields.Path != "" {
		if _, err := os.Stat(cfg.Fields.Path); err != nil {
			note("fields layer %s not found", cfg.Fields.Path)
		}
	}

	if err := checkWritable(cfg.Outputs.Workspace); err != nil {
		note("workspace %s: %v", cfg.Outputs.Workspace, err)
	} else if free, ok := diskFree(cfg.Outputs.Workspace); ok && free < minFreeBytes {
		// raw grid series are large; a near-full disk fails mid-batch
		note("workspace %s: only %d MiB free", cfg.Outputs.Workspace, free>>20)
	}

	result.RecommendedConcurrent = recommendConcurrency(result.CPUCount, len(cfg.Scenarios))
	return result
}

// Ready reports whether a check result has no findings
func Ready(result *config.CheckResult) bool {
	return result != nil && len(result.Notes) == 0
}

// Report renders the check result for the log
func Report(result *config.CheckResult, logger *zap.Logger) {
	if logger == nil {
		return
	}
	logger.Info("environment check",
		zap.String("engine_version", result.EngineVersion),
		zap.Int("cpus", result.CPUCount),
		zap.Int("recommended_concurrent", result.RecommendedConcurrent),
		zap.Int("findings", len(result.Notes)))
	for _, n := range result.Notes {
		logger.Warn("check finding", zap.String("note", n))
	}
}

// recommendConcurrency leaves headroom for the solver's own threading:
// half the CPUs, never more than the scenario count, at least one.
func recommendConcurrency(cpus, scenarios int) int {
	n := cpus / 2
	if n < 1 {
		n = 1
	}
	if scenarios > 0 && n > scenarios {
		n = scenarios
	}
	return n
}

// checkWritable verifies the workspace can be created and written to
func checkWritable(dir string) error {
	if dir == "" {
		return fmt.Errorf("no workspace configured")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("not creatable: %w", err)
	}
	probe := filepath.Join(dir, ".writecheck")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return fmt.Errorf("not writable: %w", err)
	}
	return os.Remove(probe)
}
