// Package workspace manages the on-disk layout of a batch: one
// directory per scenario holding the materialized project, the raw
// engine outputs, and the derived rasters.
package workspace

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
)

const (
	scenariosDirName = "scenarios"
	projectDirName   = "project"
	rawDirName       = "raw"
	rasterDirName    = "rasters"
	markerName       = ".extracted"
)

// Layout resolves and maintains the batch workspace tree:
//
//	<root>/scenarios/<name>/project   materialized project
//	<root>/scenarios/<name>/raw       engine outputs
//	<root>/scenarios/<name>/rasters   derived depth/velocity/duration grids
type Layout struct {
	fs   afero.Fs
	root string
}

// New creates a layout rooted at root. The tree is not touched until
// Init or EnsureScenario.
func New(fs afero.Fs, root string) *Layout {
	return &Layout{fs: fs, root: root}
}

// Root returns the workspace root directory
func (l *Layout) Root() string { return l.root }

// Init creates the workspace root
func (l *Layout) Init() error {
	if err := l.fs.MkdirAll(filepath.Join(l.root, scenariosDirName), 0o755); err != nil {
		return fmt.Errorf("creating workspace: %w", err)
	}
	return nil
}

// ScenarioDir returns the directory owned by one scenario
func (l *Layout) ScenarioDir(name string) string {
	return filepath.Join(l.root, scenariosDirName, name)
}

// ProjectDir returns the scenario's materialized project directory
func (l *Layout) ProjectDir(name string) string {
	return filepath.Join(l.ScenarioDir(name), projectDirName)
}

// RawDir returns the scenario's raw engine output directory
func (l *Layout) RawDir(name string) string {
	return filepath.Join(l.ScenarioDir(name), rawDirName)
}

// RasterDir returns the scenario's derived raster directory
func (l *Layout) RasterDir(name string) string {
	return filepath.Join(l.ScenarioDir(name), rasterDirName)
}

// EnsureScenario prepares a scenario's directories for a fresh run.
// The raw and raster directories are recreated so outputs and the
// extraction marker from an earlier run can never be mistaken for this
// one's. A run that fails leaves the scenario with no extracted
// products, not the previous run's.
func (l *Layout) EnsureScenario(name string) error {
	for _, dir := range []string{l.RawDir(name), l.RasterDir(name)} {
		if err := l.fs.RemoveAll(dir); err != nil {
			return fmt.Errorf("clearing %s: %w", dir, err)
		}
	}
	for _, dir := range []string{l.ProjectDir(name), l.RawDir(name), l.RasterDir(name)} {
		if err := l.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}

// CleanRaw removes a scenario's raw engine outputs, keeping the
// derived rasters.
func (l *Layout) CleanRaw(name string) error {
	if err := l.fs.RemoveAll(l.RawDir(name)); err != nil {
		return fmt.Errorf("removing raw outputs for %s: %w", name, err)
	}
	return nil
}

// Scenarios lists the scenario directories present in the workspace
func (l *Layout) Scenarios() ([]string, error) {
	dir := filepath.Join(l.root, scenariosDirName)
	ok, err := afero.DirExists(l.fs, dir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	entries, err := afero.ReadDir(l.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("listing scenarios: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// WriteMarker records that extraction completed for a scenario
func (l *Layout) WriteMarker(name, runID string) error {
	content := fmt.Sprintf("%s %s\n", runID, time.Now().UTC().Format(time.RFC3339))
	path := filepath.Join(l.RasterDir(name), markerName)
	if err := afero.WriteFile(l.fs, path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing extraction marker: %w", err)
	}
	return nil
}

// Marker returns the run ID recorded by the last completed extraction,
// or false when the scenario has not been extracted.
func (l *Layout) Marker(name string) (string, bool) {
	data, err := afero.ReadFile(l.fs, filepath.Join(l.RasterDir(name), markerName))
	if err != nil {
		return "", false
	}
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return "", false
	}
	return fields[0], true
}
