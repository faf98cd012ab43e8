package engine

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"floodbatch/internal/domain"
	"floodbatch/internal/hydrograph"
)

// lisfloodTimeRe matches the solver's timestep report on stdout,
// e.g. "T = 3600.000000 s".
var lisfloodTimeRe = regexp.MustCompile(`(?i)^\s*T\s*=\s*([0-9]+(?:\.[0-9]+)?)\s*s?\b`)

// LISFLOOD drives a LISFLOOD-FP style raster flood solver. The solver
// is controlled by a .par keyword file in the project directory and
// writes its depth grids as ESRI ASCII, so outputs need no conversion.
type LISFLOOD struct {
	executable string
	args       []string
	logger     *zap.Logger
}

func NewLISFLOOD(executable string, args []string, logger *zap.Logger) *LISFLOOD {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LISFLOOD{executable: executable, args: args, logger: logger}
}

func (l *LISFLOOD) Name() string { return "lisflood" }

func (l *LISFLOOD) Detect(ctx context.Context) (string, error) {
	return probeVersion(ctx, l.executable, "-version")
}

// Prepare rewrites the scenario's copy of the .par control file to
// point at the run's output directory and save interval, and writes
// the scenario hydrograph as the solver's .bdy boundary file. The
// template itself is never touched; only the materialized copy is.
func (l *LISFLOOD) Prepare(spec RunSpec) error {
	parPath, err := findParFile(spec.ProjectDir)
	if err != nil {
		return err
	}
	par, err := loadPar(parPath)
	if err != nil {
		return err
	}

	par.set("dirroot", spec.RawDir)
	par.set("saveint", strconv.FormatFloat(spec.SaveIntervalHours*3600, 'f', -1, 64))
	if par.value("resroot") == "" {
		par.set("resroot", "res")
	}

	if spec.Scenario.HydrographPath != "" {
		bdyName := par.value("bdyfile")
		if bdyName == "" {
			bdyName = "flood.bdy"
			par.set("bdyfile", bdyName)
		}
		bdyPath := filepath.Join(spec.ProjectDir, filepath.Base(bdyName))
		if err := writeBdy(bdyPath, spec.Scenario, spec.SaveIntervalHours); err != nil {
			return err
		}
	}

	return par.write(parPath)
}

func (l *LISFLOOD) Run(ctx context.Context, spec RunSpec) (*RunResult, error) {
	if spec.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}

	parPath, err := findParFile(spec.ProjectDir)
	if err != nil {
		return nil, err
	}
	par, err := loadPar(parPath)
	if err != nil {
		return nil, err
	}

	simTime := par.floatValue("sim_time")
	onStdout := func(line string) {
		if spec.Progress == nil || simTime <= 0 {
			return
		}
		if m := lisfloodTimeRe.FindStringSubmatch(line); m != nil {
			t, err := strconv.ParseFloat(m[1], 64)
			if err == nil {
				pct := t / simTime * 100
				if pct > 100 {
					pct = 100
				}
				spec.Progress(pct, strings.TrimSpace(line))
			}
		}
	}

	l.logger.Info("launching engine",
		zap.String("engine", l.Name()),
		zap.String("scenario", spec.Scenario.Name),
		zap.String("executable", l.executable))

	args := append(append([]string{}, l.args...), filepath.Base(parPath))
	if err := runProcess(ctx, spec.ProjectDir, l.executable, args, onStdout); err != nil {
		return nil, err
	}

	return l.collect(spec.RawDir, par.value("resroot"))
}

// Collect gathers the solver outputs left in a run's raw directory.
// The result root is recovered from the .max grid the solver writes,
// falling back to the default.
func (l *LISFLOOD) Collect(rawDir string) (*RunResult, error) {
	resroot := "res"
	if m := firstMatch(rawDir, "*.max"); m != "" {
		resroot = strings.TrimSuffix(filepath.Base(m), ".max")
	}
	return l.collect(rawDir, resroot)
}

func (l *LISFLOOD) collect(rawDir, resroot string) (*RunResult, error) {
	depths, err := collectSeries(rawDir, resroot+"-*.wd")
	if err != nil {
		return nil, err
	}
	if len(depths) == 0 {
		return nil, &ComputeError{Stage: "collect", Detail: "no .wd grids in " + rawDir, ExitCode: -1}
	}
	vels, err := collectSeries(rawDir, resroot+"-*.Vc")
	if err != nil {
		return nil, err
	}
	return &RunResult{
		DepthSeries:     depths,
		VelocitySeries:  vels,
		MaxDepthPath:    firstMatch(rawDir, resroot+".max"),
		MaxVelocityPath: firstMatch(rawDir, resroot+".maxVc"),
		LogPath:         firstMatch(rawDir, resroot+".log"),
	}, nil
}

// writeBdy renders the scenario hydrograph as a LISFLOOD-FP boundary
// time-series file: a named block of value/time pairs in hours.
func writeBdy(path string, scenario domain.Scenario, intervalHours float64) error {
	h, err := hydrograph.Load(scenario.HydrographPath)
	if err != nil {
		return fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	rs, err := h.Resample(intervalHours)
	if err != nil {
		return fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	name := scenario.BoundaryLine
	if name == "" {
		name = "inflow"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", scenario.Label())
	fmt.Fprintf(&b, "%s\n", name)
	fmt.Fprintf(&b, "%d hours\n", rs.Len())
	for i := 0; i < rs.Len(); i++ {
		fmt.Fprintf(&b, "%g %g\n", rs.Q[i], rs.T[i])
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("writing bdy file: %w", err)
	}
	return nil
}

func findParFile(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.par"))
	if err != nil || len(matches) == 0 {
		return "", fmt.Errorf("no .par control file in %s", dir)
	}
	if len(matches) > 1 {
		return "", fmt.Errorf("multiple .par control files in %s", dir)
	}
	return matches[0], nil
}

// parFile is a LISFLOOD-FP keyword control file: one "key value" pair
// per line, '#' comments, bare keywords allowed.
type parFile struct {
	lines []parLine
}

type parLine struct {
	key string // empty for comments and blanks
	val string
	raw string
}

func loadPar(path string) (*parFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening par file: %w", err)
	}
	defer f.Close()

	p := &parFile{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		raw := sc.Text()
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			p.lines = append(p.lines, parLine{raw: raw})
			continue
		}
		fields := strings.Fields(trimmed)
		pl := parLine{key: fields[0], raw: raw}
		if len(fields) > 1 {
			pl.val = strings.Join(fields[1:], " ")
		}
		p.lines = append(p.lines, pl)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading par file: %w", err)
	}
	return p, nil
}

func (p *parFile) value(key string) string {
	for _, l := range p.lines {
		if l.key == key {
			return l.val
		}
	}
	return ""
}

func (p *parFile) floatValue(key string) float64 {
	v, err := strconv.ParseFloat(p.value(key), 64)
	if err != nil {
		return 0
	}
	return v
}

func (p *parFile) set(key, val string) {
	for i, l := range p.lines {
		if l.key == key {
			p.lines[i].val = val
			p.lines[i].raw = key + " " + val
			return
		}
	}
	p.lines = append(p.lines, parLine{key: key, val: val, raw: key + " " + val})
}

func (p *parFile) write(path string) error {
	var b strings.Builder
	for _, l := range p.lines {
		b.WriteString(l.raw)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("writing par file: %w", err)
	}
	return nil
}
