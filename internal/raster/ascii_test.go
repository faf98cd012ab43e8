package raster

import (
	"path/filepath"
	"strings"
	"testing"
)

const sampleASC = `ncols 3
nrows 2
xllcorner 0
yllcorner 0
cellsize 10
NODATA_value -9999
0.1 0.2 0.3
-9999 1.5 0
`

func TestParseASCII(t *testing.T) {
	g, err := ParseASCII(strings.NewReader(sampleASC))
	if err != nil {
		t.Fatalf("ParseASCII() error: %v", err)
	}

	if g.Def.Ncol != 3 || g.Def.Nrow != 2 || g.Def.Cellsize != 10 {
		t.Errorf("definition = %+v", g.Def)
	}
	if g.Value(0, 2) != 0.3 {
		t.Errorf("Value(0,2) = %g, want 0.3", g.Value(0, 2))
	}
	if !g.IsNodata(g.Value(1, 0)) {
		t.Error("Value(1,0) should be nodata")
	}
}

func TestParseASCIICenterHeaders(t *testing.T) {
	in := "ncols 2\nnrows 1\nxllcenter 5\nyllcenter 5\ncellsize 10\n1 2\n"
	g, err := ParseASCII(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ParseASCII() error: %v", err)
	}
	if g.Def.Xll != 0 || g.Def.Yll != 0 {
		t.Errorf("center-form origin not converted: xll=%g yll=%g", g.Def.Xll, g.Def.Yll)
	}
	// nodata header omitted: default applies
	if g.Def.Nodata != -9999 {
		t.Errorf("Nodata = %g, want default -9999", g.Def.Nodata)
	}
}

func TestParseASCIIRejectsBadInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"header only", "ncols 2\nnrows 2\nxllcorner 0\nyllcorner 0\ncellsize 10\n"},
		{"cell count mismatch", "ncols 2\nnrows 2\nxllcorner 0\nyllcorner 0\ncellsize 10\n1 2 3\n"},
		{"unknown keyword", "ncols 2\nnrows 1\nxllcorner 0\nyllcorner 0\ncellsize 10\nfoo 1\n1 2\n"},
		{"zero cellsize", "ncols 2\nnrows 1\nxllcorner 0\nyllcorner 0\ncellsize 0\n1 2\n"},
		{"bad cell value", "ncols 2\nnrows 1\nxllcorner 0\nyllcorner 0\ncellsize 10\n1 x\n"},
	}

	for _, tt := range tests {
		if _, err := ParseASCII(strings.NewReader(tt.input)); err == nil {
			t.Errorf("%s: ParseASCII() should fail", tt.name)
		}
	}
}

func TestASCIIRoundTrip(t *testing.T) {
	g, err := ParseASCII(strings.NewReader(sampleASC))
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "depth.asc")
	if err := WriteASCII(path, g); err != nil {
		t.Fatalf("WriteASCII() error: %v", err)
	}

	back, err := ReadASCII(path)
	if err != nil {
		t.Fatalf("ReadASCII() error: %v", err)
	}
	if !back.Def.Equals(g.Def) {
		t.Errorf("definition changed in round trip: %+v vs %+v", back.Def, g.Def)
	}
	for i := range g.Data {
		if back.Data[i] != g.Data[i] {
			t.Fatalf("cell %d changed: %g vs %g", i, back.Data[i], g.Data[i])
		}
	}
}
