package hydrograph

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	input := "time_hr,discharge_cms\n0,10\n6,85\n12,240\n18,120\n24,30\n"
	h, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if h.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", h.Len())
	}

	q, hour := h.Peak()
	if q != 240 || hour != 12 {
		t.Errorf("Peak() = %g at %gh, want 240 at 12h", q, hour)
	}
	if h.DurationHours() != 24 {
		t.Errorf("DurationHours() = %g, want 24", h.DurationHours())
	}
}

func TestParseNoHeader(t *testing.T) {
	h, err := Parse(strings.NewReader("0,5\n1,10\n2,5\n"))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if h.Len() != 3 {
		t.Errorf("Len() = %d, want 3", h.Len())
	}
}

func TestParseRejectsBadInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"single point", "0,10\n"},
		{"negative discharge", "0,10\n1,-5\n"},
		{"non-monotonic time", "0,10\n2,20\n1,15\n"},
		{"repeated time", "0,10\n1,20\n1,25\n"},
		{"one column", "0\n1\n"},
		{"non-numeric mid-series", "0,10\n1,twenty\n2,30\n"},
	}

	for _, tt := range tests {
		if _, err := Parse(strings.NewReader(tt.input)); err == nil {
			t.Errorf("%s: Parse() should fail", tt.name)
		}
	}
}

func TestVolumeM3(t *testing.T) {
	// Constant 10 m³/s over 2 hours = 10 * 7200 = 72000 m³
	h, err := Parse(strings.NewReader("0,10\n1,10\n2,10\n"))
	if err != nil {
		t.Fatal(err)
	}
	if v := h.VolumeM3(); math.Abs(v-72000) > 1e-6 {
		t.Errorf("VolumeM3() = %g, want 72000", v)
	}

	// Triangle 0 -> 100 -> 0 over 2 hours = 100/2 * 7200 = 360000 m³
	h, err = Parse(strings.NewReader("0,0\n1,100\n2,0\n"))
	if err != nil {
		t.Fatal(err)
	}
	if v := h.VolumeM3(); math.Abs(v-360000) > 1e-6 {
		t.Errorf("VolumeM3() = %g, want 360000", v)
	}
}

func TestResample(t *testing.T) {
	h, err := Parse(strings.NewReader("0,0\n2,100\n4,0\n"))
	if err != nil {
		t.Fatal(err)
	}

	r, err := h.Resample(1)
	if err != nil {
		t.Fatalf("Resample() error: %v", err)
	}
	wantT := []float64{0, 1, 2, 3, 4}
	wantQ := []float64{0, 50, 100, 50, 0}
	if r.Len() != len(wantT) {
		t.Fatalf("Len() = %d, want %d", r.Len(), len(wantT))
	}
	for i := range wantT {
		if math.Abs(r.T[i]-wantT[i]) > 1e-9 || math.Abs(r.Q[i]-wantQ[i]) > 1e-9 {
			t.Errorf("point %d = (%g, %g), want (%g, %g)", i, r.T[i], r.Q[i], wantT[i], wantQ[i])
		}
	}

	if _, err := h.Resample(0); err == nil {
		t.Error("Resample(0) should fail")
	}
}

func TestResamplePartialStep(t *testing.T) {
	// 0..5h at 2h: the grid extends to 6h holding the final discharge,
	// rather than cutting the series off at 4h
	h, err := Parse(strings.NewReader("0,0\n2,100\n5,40\n"))
	if err != nil {
		t.Fatal(err)
	}

	r, err := h.Resample(2)
	if err != nil {
		t.Fatalf("Resample() error: %v", err)
	}
	wantT := []float64{0, 2, 4, 6}
	wantQ := []float64{0, 100, 60, 40}
	if r.Len() != len(wantT) {
		t.Fatalf("Len() = %d, want %d", r.Len(), len(wantT))
	}
	for i := range wantT {
		if math.Abs(r.T[i]-wantT[i]) > 1e-9 || math.Abs(r.Q[i]-wantQ[i]) > 1e-9 {
			t.Errorf("point %d = (%g, %g), want (%g, %g)", i, r.T[i], r.Q[i], wantT[i], wantQ[i])
		}
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "q100.csv")
	if err := os.WriteFile(path, []byte("0,10\n6,200\n12,20\n"), 0644); err != nil {
		t.Fatal(err)
	}

	h, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if h.Len() != 3 {
		t.Errorf("Len() = %d, want 3", h.Len())
	}

	if _, err := Load(filepath.Join(dir, "missing.csv")); err == nil {
		t.Error("Load() of missing file should fail")
	}
}
