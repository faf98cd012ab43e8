// Package project materializes the hydraulic model project for each
// scenario: it copies the project template and rewrites the boundary
// condition file with the scenario's hydrograph.
//
// The boundary file format is the keyword=value layout used by the
// unsteady-flow files of HEC-RAS-lineage engines: free-form keyword
// lines, with flow tables serialized as fixed-width (8 column) values,
// ten per line, under a "Flow Hydrograph=" keyword inside a
// "Boundary Location=" block. Everything this package does not
// understand is passed through byte-intact.
package project

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

const (
	keyBoundary   = "Boundary Location="
	keyHydrograph = "Flow Hydrograph="
	keyInterval   = "Interval="

	tableWidth   = 8  // characters per value
	tablePerLine = 10 // values per line
)

// Boundary is one boundary-condition block within the file
type Boundary struct {
	// Name is the boundary line identifier (second field of the
	// Boundary Location record)
	Name string
	// locLine is the index of the Boundary Location line
	locLine int
	// intervalLine is the index of the Interval line, -1 if absent
	intervalLine int
	// hydLine is the index of the Flow Hydrograph count line, -1 if the
	// block carries no flow table
	hydLine int
	// tableLines is the number of value lines following hydLine
	tableLines int
}

// File is a parsed boundary-condition file: raw lines plus the located
// boundary blocks.
type File struct {
	lines      []string
	boundaries []Boundary
}

// Parse reads a boundary-condition file
func Parse(r io.Reader) (*File, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 1024*1024), 16*1024*1024)

	f := &File{}
	for sc.Scan() {
		f.lines = append(f.lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	for i := 0; i < len(f.lines); i++ {
		if !strings.HasPrefix(f.lines[i], keyBoundary) {
			continue
		}
		b := Boundary{locLine: i, intervalLine: -1, hydLine: -1}
		fields := strings.Split(strings.TrimPrefix(f.lines[i], keyBoundary), ",")
		if len(fields) > 1 {
			b.Name = strings.TrimSpace(fields[1])
		}

		// scan the block body up to the next boundary
		for j := i + 1; j < len(f.lines) && !strings.HasPrefix(f.lines[j], keyBoundary); j++ {
			switch {
			case strings.HasPrefix(f.lines[j], keyInterval):
				b.intervalLine = j
			case strings.HasPrefix(f.lines[j], keyHydrograph):
				n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(f.lines[j], keyHydrograph)))
				if err != nil {
					return nil, fmt.Errorf("line %d: bad flow hydrograph count: %w", j+1, err)
				}
				b.hydLine = j
				b.tableLines = (n + tablePerLine - 1) / tablePerLine
				if b.hydLine+b.tableLines >= len(f.lines) {
					return nil, fmt.Errorf("line %d: flow table of %d values runs past end of file", j+1, n)
				}
			}
		}
		f.boundaries = append(f.boundaries, b)
	}

	return f, nil
}

// Boundaries returns the names of the flow boundaries in file order.
// Blocks without a flow table are excluded.
func (f *File) Boundaries() []string {
	var names []string
	for _, b := range f.boundaries {
		if b.hydLine >= 0 {
			names = append(names, b.Name)
		}
	}
	return names
}

// findFlowBoundary resolves a boundary line name to its block. An empty
// name selects the file's first flow boundary.
func (f *File) findFlowBoundary(name string) (*Boundary, error) {
	for i := range f.boundaries {
		b := &f.boundaries[i]
		if b.hydLine < 0 {
			continue
		}
		if name == "" || strings.EqualFold(b.Name, name) {
			return b, nil
		}
	}
	if name == "" {
		return nil, fmt.Errorf("file has no flow boundary")
	}
	return nil, fmt.Errorf("boundary line %q not found (have: %s)", name, strings.Join(f.Boundaries(), ", "))
}

// Write serializes the file
func (f *File) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, line := range f.lines {
		if _, err := bw.WriteString(line); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// formatTable renders values in the fixed-width wire form
func formatTable(values []float64) []string {
	var lines []string
	var sb strings.Builder
	for i, v := range values {
		sb.WriteString(fixedWidth(v))
		if (i+1)%tablePerLine == 0 || i == len(values)-1 {
			lines = append(lines, sb.String())
			sb.Reset()
		}
	}
	return lines
}

// fixedWidth renders a value right-aligned in tableWidth characters,
// dropping precision until it fits.
func fixedWidth(v float64) string {
	for prec := 5; prec >= 0; prec-- {
		s := strconv.FormatFloat(v, 'f', prec, 64)
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
		if s == "" || s == "-" {
			s = "0"
		}
		if len(s) <= tableWidth {
			return fmt.Sprintf("%*s", tableWidth, s)
		}
	}
	// very large magnitudes fall back to exponent form
	return fmt.Sprintf("%*s", tableWidth, strconv.FormatFloat(v, 'g', 2, 64))
}

// formatInterval renders an interval in the engine's keyword form.
// Non-integral hours fall through to minutes so the keyword matches
// the table's actual spacing.
func formatInterval(hours float64) string {
	if hours >= 24 && hours == float64(int(hours/24))*24 {
		return fmt.Sprintf("%dDAY", int(hours/24))
	}
	if hours >= 1 && hours == float64(int(hours)) {
		return fmt.Sprintf("%dHOUR", int(hours))
	}
	return fmt.Sprintf("%dMIN", int(math.Round(hours*60)))
}
