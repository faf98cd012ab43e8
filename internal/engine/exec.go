package engine

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// runProcess executes the engine binary and classifies launch versus
// compute failures. onStdout, when non-nil, receives each stdout line
// as the engine emits it. stderrTail carries the last lines of stderr
// into the ComputeError detail when the engine dies without a
// parseable log message.
func runProcess(ctx context.Context, dir, executable string, args []string, onStdout func(string)) error {
	cmd := exec.CommandContext(ctx, executable, args...)
	cmd.Dir = dir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	var wg sync.WaitGroup
	if onStdout != nil {
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			return &ComputeError{Stage: "launch", Detail: err.Error(), ExitCode: -1}
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			sc := bufio.NewScanner(stdout)
			for sc.Scan() {
				onStdout(sc.Text())
			}
		}()
	}

	if err := cmd.Start(); err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return fmt.Errorf("%w: %s", ErrExecutableNotFound, executable)
		}
		return &ComputeError{Stage: "launch", Detail: err.Error(), ExitCode: -1}
	}

	wg.Wait()
	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ComputeError{
				Stage:    "compute",
				Detail:   stderrTail(stderr.String()),
				ExitCode: exitErr.ExitCode(),
			}
		}
		return &ComputeError{Stage: "compute", Detail: err.Error(), ExitCode: -1}
	}
	return nil
}

// probeVersion runs the executable with a version flag and returns the
// first nonempty output line.
func probeVersion(ctx context.Context, executable, flag string) (string, error) {
	cmd := exec.CommandContext(ctx, executable, flag)
	out, err := cmd.CombinedOutput()
	if err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return "", fmt.Errorf("%w: %s", ErrExecutableNotFound, executable)
		}
		// some engines print the banner and exit nonzero; accept
		// output when there is any
		if len(bytes.TrimSpace(out)) == 0 {
			return "", fmt.Errorf("probing %s: %w", executable, err)
		}
	}
	for _, line := range strings.Split(string(out), "\n") {
		if s := strings.TrimSpace(line); s != "" {
			return s, nil
		}
	}
	return "", fmt.Errorf("probing %s: no version output", executable)
}

// collectSeries globs for grid files and returns them sorted by name,
// which is time order for the zero-padded step suffixes both engines
// write.
func collectSeries(dir, pattern string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("globbing %s: %w", pattern, err)
	}
	sort.Strings(matches)
	return matches, nil
}

// firstMatch returns the single expected match for a pattern, or empty
// when none exists.
func firstMatch(dir, pattern string) string {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil || len(matches) == 0 {
		return ""
	}
	sort.Strings(matches)
	return matches[0]
}

// stderrTail keeps the last few lines of engine stderr for error detail
func stderrTail(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	const keep = 3
	if len(lines) > keep {
		lines = lines[len(lines)-keep:]
	}
	return strings.TrimSpace(strings.Join(lines, "; "))
}
