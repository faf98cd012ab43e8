package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"floodbatch/internal/domain"
)

type stubEngine struct{ name string }

func (s *stubEngine) Name() string { return s.name }
func (s *stubEngine) Detect(ctx context.Context) (string, error) {
	return "stub 1.0", nil
}
func (s *stubEngine) Prepare(spec RunSpec) error { return nil }
func (s *stubEngine) Run(ctx context.Context, spec RunSpec) (*RunResult, error) {
	return &RunResult{}, nil
}
func (s *stubEngine) Collect(rawDir string) (*RunResult, error) {
	return &RunResult{}, nil
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&stubEngine{name: "hecras"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := r.Register(&stubEngine{name: "lisflood"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if err := r.Register(&stubEngine{name: "hecras"}); err == nil {
		t.Error("Register() accepted a duplicate name")
	}

	e, err := r.Get("hecras")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if e.Name() != "hecras" {
		t.Errorf("Get() returned engine %q", e.Name())
	}

	if _, err := r.Get("tuflow"); !errors.Is(err, ErrEngineNotFound) {
		t.Errorf("Get(unknown) error = %v, want ErrEngineNotFound", err)
	}

	names := r.Names()
	want := []string{"hecras", "lisflood"}
	if len(names) != len(want) {
		t.Fatalf("Names() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestParseHECRASProgress(t *testing.T) {
	tests := []struct {
		line    string
		wantPct float64
		wantOK  bool
	}{
		{"Computing: 42.5% complete", 42.5, true},
		{"computation progress 100%", 100, true},
		{"Computing: 0% complete", 0, true},
		{"humidity at 42.5%", 0, false},
		{"Computing: 150% complete", 0, false},
		{"Computing hard", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		pct, ok := parseHECRASProgress(tt.line)
		if ok != tt.wantOK || pct != tt.wantPct {
			t.Errorf("parseHECRASProgress(%q) = (%v, %v), want (%v, %v)",
				tt.line, pct, ok, tt.wantPct, tt.wantOK)
		}
	}
}

func TestParFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "flood.par")
	content := `# event control
DEMfile dem.asc
resroot res
sim_time 86400
saveint 3600
bcifile flood.bci
`
	if err := os.WriteFile(src, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := loadPar(src)
	if err != nil {
		t.Fatalf("loadPar() error = %v", err)
	}
	if got := p.value("resroot"); got != "res" {
		t.Errorf("value(resroot) = %q, want res", got)
	}
	if got := p.floatValue("sim_time"); got != 86400 {
		t.Errorf("floatValue(sim_time) = %v, want 86400", got)
	}
	if got := p.floatValue("DEMfile"); got != 0 {
		t.Errorf("floatValue(non-numeric) = %v, want 0", got)
	}

	p.set("dirroot", "/tmp/out")
	p.set("saveint", "7200")

	dst := filepath.Join(dir, "run.par")
	if err := p.write(dst); err != nil {
		t.Fatalf("write() error = %v", err)
	}
	p2, err := loadPar(dst)
	if err != nil {
		t.Fatalf("loadPar(rewritten) error = %v", err)
	}
	if got := p2.value("dirroot"); got != "/tmp/out" {
		t.Errorf("value(dirroot) = %q, want /tmp/out", got)
	}
	if got := p2.value("saveint"); got != "7200" {
		t.Errorf("value(saveint) = %q, want 7200", got)
	}
	if got := p2.value("bcifile"); got != "flood.bci" {
		t.Errorf("value(bcifile) = %q, want flood.bci", got)
	}
}

func TestLISFLOODPrepare(t *testing.T) {
	project := t.TempDir()
	raw := t.TempDir()
	parContent := `DEMfile dem.asc
resroot res
sim_time 86400
saveint 600
`
	if err := os.WriteFile(filepath.Join(project, "flood.par"), []byte(parContent), 0o644); err != nil {
		t.Fatal(err)
	}
	hyd := filepath.Join(project, "rp100.csv")
	if err := os.WriteFile(hyd, []byte("0,5\n2,40\n4,5\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	l := NewLISFLOOD("lisflood", nil, nil)
	spec := RunSpec{
		Scenario: domain.Scenario{
			Name:              "rp100",
			ReturnPeriodYears: 100,
			HydrographPath:    hyd,
			BoundaryLine:      "upstream",
		},
		ProjectDir:        project,
		RawDir:            raw,
		SaveIntervalHours: 2,
	}
	if err := l.Prepare(spec); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	par, err := loadPar(filepath.Join(project, "flood.par"))
	if err != nil {
		t.Fatal(err)
	}
	if got := par.value("dirroot"); got != raw {
		t.Errorf("dirroot = %q, want %q", got, raw)
	}
	// 2 hours in seconds
	if got := par.value("saveint"); got != "7200" {
		t.Errorf("saveint = %q, want 7200", got)
	}
	if got := par.value("bdyfile"); got != "flood.bdy" {
		t.Errorf("bdyfile = %q, want flood.bdy", got)
	}

	bdy, err := os.ReadFile(filepath.Join(project, "flood.bdy"))
	if err != nil {
		t.Fatalf("bdy file not written: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(bdy)), "\n")
	// comment, name, count, then one pair per 2-hour step over 0..4
	if len(lines) != 6 {
		t.Fatalf("bdy file has %d lines: %q", len(lines), lines)
	}
	if lines[1] != "upstream" {
		t.Errorf("boundary name = %q, want upstream", lines[1])
	}
	if lines[2] != "3 hours" {
		t.Errorf("count line = %q, want \"3 hours\"", lines[2])
	}
	// peak at hour 2
	if lines[4] != "40 2" {
		t.Errorf("peak pair = %q, want \"40 2\"", lines[4])
	}
}

func TestFindParFile(t *testing.T) {
	dir := t.TempDir()
	if _, err := findParFile(dir); err == nil {
		t.Error("findParFile() on empty dir expected error")
	}

	if err := os.WriteFile(filepath.Join(dir, "a.par"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := findParFile(dir)
	if err != nil {
		t.Fatalf("findParFile() error = %v", err)
	}
	if filepath.Base(got) != "a.par" {
		t.Errorf("findParFile() = %q, want a.par", got)
	}

	if err := os.WriteFile(filepath.Join(dir, "b.par"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := findParFile(dir); err == nil {
		t.Error("findParFile() with two par files expected error")
	}
}

func TestCollectSeries(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"res-0002.wd", "res-0000.wd", "res-0001.wd", "res.max", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := collectSeries(dir, "res-*.wd")
	if err != nil {
		t.Fatalf("collectSeries() error = %v", err)
	}
	want := []string{"res-0000.wd", "res-0001.wd", "res-0002.wd"}
	if len(got) != len(want) {
		t.Fatalf("collectSeries() returned %d files, want %d", len(got), len(want))
	}
	for i := range want {
		if filepath.Base(got[i]) != want[i] {
			t.Errorf("collectSeries()[%d] = %q, want %q", i, filepath.Base(got[i]), want[i])
		}
	}

	if got := firstMatch(dir, "res.max"); filepath.Base(got) != "res.max" {
		t.Errorf("firstMatch(res.max) = %q", got)
	}
	if got := firstMatch(dir, "res.maxVc"); got != "" {
		t.Errorf("firstMatch(missing) = %q, want empty", got)
	}
}

func TestStderrTail(t *testing.T) {
	if got := stderrTail("a\nb\nc\nd\ne\n"); got != "c; d; e" {
		t.Errorf("stderrTail() = %q, want %q", got, "c; d; e")
	}
	if got := stderrTail("only line"); got != "only line" {
		t.Errorf("stderrTail() = %q, want %q", got, "only line")
	}
}
