package engine

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"floodbatch/internal/watcher"
)

const hecrasLogName = "compute.log"

// hecrasProgressRe matches the progress lines the headless runner
// writes, e.g. "Computing: 42.5% complete".
var hecrasProgressRe = regexp.MustCompile(`(?i)([0-9]+(?:\.[0-9]+)?)\s*%`)

// hecrasErrorRe matches engine error lines in the compute log
var hecrasErrorRe = regexp.MustCompile(`(?i)^\s*(?:ERROR|FATAL)[:\s]+(.+)$`)

// HECRAS drives a headless HEC-RAS unsteady-flow run and collects the
// grid exports it leaves behind. The adapter follows the compute log
// while the process runs to report progress and catch solver errors
// that do not surface as a nonzero exit.
type HECRAS struct {
	executable string
	args       []string
	logger     *zap.Logger
}

// NewHECRAS creates the adapter for the given runner executable. args
// are prepended to every invocation.
func NewHECRAS(executable string, args []string, logger *zap.Logger) *HECRAS {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HECRAS{executable: executable, args: args, logger: logger}
}

func (h *HECRAS) Name() string { return "hecras" }

func (h *HECRAS) Detect(ctx context.Context) (string, error) {
	return probeVersion(ctx, h.executable, "--version")
}

// Prepare is a no-op: the materialized project already carries the
// scenario's boundary conditions in the plan's own format.
func (h *HECRAS) Prepare(spec RunSpec) error { return nil }

func (h *HECRAS) Run(ctx context.Context, spec RunSpec) (*RunResult, error) {
	if spec.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}

	logPath := filepath.Join(spec.RawDir, hecrasLogName)

	// follow the compute log for the lifetime of the process
	tailCtx, stopTail := context.WithCancel(context.Background())
	var (
		mu      sync.Mutex
		logErrs []string
		wg      sync.WaitGroup
	)
	tailer := watcher.New(logPath, func(chunk string) {
		for _, line := range strings.Split(chunk, "\n") {
			if m := hecrasErrorRe.FindStringSubmatch(line); m != nil {
				mu.Lock()
				logErrs = append(logErrs, strings.TrimSpace(m[1]))
				mu.Unlock()
				continue
			}
			if pct, ok := parseHECRASProgress(line); ok && spec.Progress != nil {
				spec.Progress(pct, strings.TrimSpace(line))
			}
		}
	})
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := tailer.Tail(tailCtx); err != nil && !errors.Is(err, context.Canceled) {
			h.logger.Warn("compute log tail ended", zap.String("path", logPath), zap.Error(err))
		}
	}()

	args := append(append([]string{}, h.args...),
		"--project", spec.ProjectDir,
		"--output", spec.RawDir,
		"--interval", strconv.FormatFloat(spec.SaveIntervalHours, 'f', -1, 64),
	)
	h.logger.Info("launching engine",
		zap.String("engine", h.Name()),
		zap.String("scenario", spec.Scenario.Name),
		zap.String("executable", h.executable))

	runErr := runProcess(ctx, spec.ProjectDir, h.executable, args, nil)

	stopTail()
	wg.Wait()

	mu.Lock()
	detail := strings.Join(logErrs, "; ")
	mu.Unlock()

	if runErr != nil {
		// prefer the solver's own message over the process detail
		if ce, ok := runErr.(*ComputeError); ok && detail != "" {
			ce.Detail = detail
		}
		return nil, runErr
	}
	// some unsteady failures exit zero but log an error
	if detail != "" {
		return nil, &ComputeError{Stage: "compute", Detail: detail, ExitCode: 0}
	}

	return h.Collect(spec.RawDir)
}

// Collect gathers the grid exports left in a run's raw directory
func (h *HECRAS) Collect(rawDir string) (*RunResult, error) {
	depths, err := collectSeries(rawDir, "Depth_*.asc")
	if err != nil {
		return nil, err
	}
	if len(depths) == 0 {
		return nil, &ComputeError{Stage: "collect", Detail: "no depth grids in " + rawDir, ExitCode: -1}
	}
	vels, err := collectSeries(rawDir, "Velocity_*.asc")
	if err != nil {
		return nil, err
	}
	return &RunResult{
		DepthSeries:     depths,
		VelocitySeries:  vels,
		MaxDepthPath:    firstMatch(rawDir, "MaxDepth.asc"),
		MaxVelocityPath: firstMatch(rawDir, "MaxVelocity.asc"),
		LogPath:         firstMatch(rawDir, hecrasLogName),
	}, nil
}

// parseHECRASProgress extracts the percent from a progress line,
// ignoring lines that merely happen to contain a percent sign.
func parseHECRASProgress(line string) (float64, bool) {
	if !strings.Contains(strings.ToLower(line), "comput") {
		return 0, false
	}
	m := hecrasProgressRe.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	pct, err := strconv.ParseFloat(m[1], 64)
	if err != nil || pct < 0 || pct > 100 {
		return 0, false
	}
	return pct, true
}
