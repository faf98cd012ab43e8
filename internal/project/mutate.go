package project

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"floodbatch/internal/domain"
	"floodbatch/internal/hydrograph"
)

// ApplyHydrograph replaces the flow table of the named boundary line
// with the given series, resampled to intervalHours. All other lines
// are preserved byte-for-byte. An empty name targets the first flow
// boundary in the file.
func (f *File) ApplyHydrograph(name string, h *hydrograph.Hydrograph, intervalHours float64) error {
	b, err := f.findFlowBoundary(name)
	if err != nil {
		return err
	}

	rs, err := h.Resample(intervalHours)
	if err != nil {
		return err
	}

	table := formatTable(rs.Q)
	newBlock := make([]string, 0, len(table)+1)
	newBlock = append(newBlock, fmt.Sprintf("%s %d", keyHydrograph, rs.Len()))
	newBlock = append(newBlock, table...)

	// splice the new table over the old one
	lines := make([]string, 0, len(f.lines)-b.tableLines+len(table))
	lines = append(lines, f.lines[:b.hydLine]...)
	lines = append(lines, newBlock...)
	lines = append(lines, f.lines[b.hydLine+1+b.tableLines:]...)

	if b.intervalLine >= 0 {
		idx := b.intervalLine
		if idx > b.hydLine {
			// table length changed, lines after it shifted
			idx += len(newBlock) - (1 + b.tableLines)
		}
		lines[idx] = keyInterval + formatInterval(intervalHours)
	}
	f.lines = lines

	// reindex: line positions moved
	return f.reindex()
}

func (f *File) reindex() error {
	reparsed, err := Parse(strings.NewReader(strings.Join(f.lines, "\n") + "\n"))
	if err != nil {
		return fmt.Errorf("reindex after mutation: %w", err)
	}
	f.boundaries = reparsed.boundaries
	return nil
}

// Materializer copies the project template into per-scenario project
// directories and applies each scenario's hydrograph.
type Materializer struct {
	fs afero.Fs
	// TemplateDir is the pristine project template; never written to
	TemplateDir string
	// BoundaryFile is the boundary-condition file name within the template
	BoundaryFile string
	// IntervalHours is the boundary table interval written into the project
	IntervalHours float64
}

// NewMaterializer creates a materializer over the given filesystem
func NewMaterializer(fs afero.Fs, templateDir, boundaryFile string, intervalHours float64) *Materializer {
	if intervalHours <= 0 {
		intervalHours = 1
	}
	return &Materializer{fs: fs, TemplateDir: templateDir, BoundaryFile: boundaryFile, IntervalHours: intervalHours}
}

// Materialize builds the scenario's project directory. It is
// idempotent: re-running produces identical files, and the template is
// never touched.
func (m *Materializer) Materialize(scenario domain.Scenario, destDir string) error {
	h, err := hydrograph.Load(scenario.HydrographPath)
	if err != nil {
		return fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	return m.materialize(scenario, h, destDir)
}

func (m *Materializer) materialize(scenario domain.Scenario, h *hydrograph.Hydrograph, destDir string) error {
	if ok, err := afero.DirExists(m.fs, m.TemplateDir); err != nil || !ok {
		return fmt.Errorf("project template %s does not exist", m.TemplateDir)
	}

	if err := m.copyTree(m.TemplateDir, destDir); err != nil {
		return fmt.Errorf("copy template: %w", err)
	}

	bcPath := filepath.Join(destDir, m.BoundaryFile)
	src, err := m.fs.Open(bcPath)
	if err != nil {
		return fmt.Errorf("open boundary file: %w", err)
	}
	bf, err := Parse(src)
	src.Close()
	if err != nil {
		return fmt.Errorf("parse boundary file: %w", err)
	}

	if err := bf.ApplyHydrograph(scenario.BoundaryLine, h, m.IntervalHours); err != nil {
		return fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	out, err := m.fs.Create(bcPath)
	if err != nil {
		return fmt.Errorf("write boundary file: %w", err)
	}
	if err := bf.Write(out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// copyTree copies every regular file under src into dst, preserving
// relative paths.
func (m *Materializer) copyTree(src, dst string) error {
	return afero.Walk(m.fs, src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return m.fs.MkdirAll(target, 0755)
		}
		data, err := afero.ReadFile(m.fs, path)
		if err != nil {
			return err
		}
		return afero.WriteFile(m.fs, target, data, 0644)
	})
}
