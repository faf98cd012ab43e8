package raster

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ESRI ASCII grid IO. This is the interchange format the engine
// adapters normalize their outputs to (LISFLOOD-FP writes it natively),
// and the format the derived rasters are published in.

// ReadASCII loads an ESRI ASCII grid from disk
func ReadASCII(path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open grid: %w", err)
	}
	defer f.Close()

	g, err := ParseASCII(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return g, nil
}

// ParseASCII reads an ESRI ASCII grid. Header keywords are
// case-insensitive; xllcenter/yllcenter headers are converted to
// corner form. Data rows start at the first line whose first token
// is numeric.
func ParseASCII(r io.Reader) (*Grid, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 1024*1024), 16*1024*1024)

	def := Definition{Nodata: -9999}
	var xcenter, ycenter bool
	var data []float64
	inHeader := true

	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}

		if inHeader {
			if _, err := strconv.ParseFloat(fields[0], 64); err != nil {
				// keyword/value header line
				if len(fields) != 2 {
					return nil, fmt.Errorf("malformed header line %q", sc.Text())
				}
				key := strings.ToLower(fields[0])
				val, err := strconv.ParseFloat(fields[1], 64)
				if err != nil {
					return nil, fmt.Errorf("header %s: %w", key, err)
				}
				switch key {
				case "ncols":
					def.Ncol = int(val)
				case "nrows":
					def.Nrow = int(val)
				case "xllcorner":
					def.Xll = val
				case "yllcorner":
					def.Yll = val
				case "xllcenter":
					def.Xll, xcenter = val, true
				case "yllcenter":
					def.Yll, ycenter = val, true
				case "cellsize":
					def.Cellsize = val
				case "nodata_value":
					def.Nodata = val
				default:
					return nil, fmt.Errorf("unknown header keyword %q", fields[0])
				}
				continue
			}

			// first numeric line: validate the header, fall through to data
			if def.Ncol <= 0 || def.Nrow <= 0 || def.Cellsize <= 0 {
				return nil, fmt.Errorf("invalid grid header: %dx%d cellsize %g", def.Ncol, def.Nrow, def.Cellsize)
			}
			if xcenter {
				def.Xll -= def.Cellsize / 2
			}
			if ycenter {
				def.Yll -= def.Cellsize / 2
			}
			data = make([]float64, 0, def.Ncol*def.Nrow)
			inHeader = false
		}

		for _, fld := range fields {
			v, err := strconv.ParseFloat(fld, 64)
			if err != nil {
				return nil, fmt.Errorf("bad cell value %q", fld)
			}
			data = append(data, v)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if inHeader {
		return nil, fmt.Errorf("grid has no data rows")
	}
	if len(data) != def.Ncells() {
		return nil, fmt.Errorf("cell count %d does not match %dx%d header", len(data), def.Ncol, def.Nrow)
	}
	return &Grid{Def: def, Data: data}, nil
}

// WriteASCII writes the grid to disk in ESRI ASCII format
func WriteASCII(path string, g *Grid) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create grid: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := writeASCII(w, g); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return w.Flush()
}

func writeASCII(w io.Writer, g *Grid) error {
	d := g.Def
	if len(g.Data) != d.Ncells() {
		return fmt.Errorf("grid data length %d does not match %dx%d definition", len(g.Data), d.Ncol, d.Nrow)
	}
	fmt.Fprintf(w, "ncols %d\n", d.Ncol)
	fmt.Fprintf(w, "nrows %d\n", d.Nrow)
	fmt.Fprintf(w, "xllcorner %s\n", trimFloat(d.Xll))
	fmt.Fprintf(w, "yllcorner %s\n", trimFloat(d.Yll))
	fmt.Fprintf(w, "cellsize %s\n", trimFloat(d.Cellsize))
	fmt.Fprintf(w, "NODATA_value %s\n", trimFloat(d.Nodata))

	for r := 0; r < d.Nrow; r++ {
		for c := 0; c < d.Ncol; c++ {
			if c > 0 {
				if _, err := io.WriteString(w, " "); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, trimFloat(g.Value(r, c))); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	return nil
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
