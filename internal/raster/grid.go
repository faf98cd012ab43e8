// Package raster provides the uniform-grid type the extractor works in,
// ESRI ASCII grid IO, and the depth/velocity/duration derivations.
package raster

import (
	"fmt"
	"math"
)

// Definition describes a uniform grid: its placement, resolution and
// nodata marker. Grids can only be combined when their definitions match.
type Definition struct {
	Ncol, Nrow int
	// Xll, Yll are the world coordinates of the lower-left corner
	Xll, Yll float64
	// Cellsize is the cell width in world units (meters)
	Cellsize float64
	Nodata   float64
}

// Equals reports whether two definitions describe the same grid
func (d Definition) Equals(o Definition) bool {
	const eps = 1e-9
	return d.Ncol == o.Ncol && d.Nrow == o.Nrow &&
		math.Abs(d.Xll-o.Xll) < eps && math.Abs(d.Yll-o.Yll) < eps &&
		math.Abs(d.Cellsize-o.Cellsize) < eps
}

// CellArea returns the area of one cell in square meters
func (d Definition) CellArea() float64 { return d.Cellsize * d.Cellsize }

// Ncells returns the total cell count
func (d Definition) Ncells() int { return d.Ncol * d.Nrow }

// CellCenter returns the world coordinates of the center of cell (row, col).
// Row 0 is the top row, following raster file order.
func (d Definition) CellCenter(row, col int) (x, y float64) {
	x = d.Xll + (float64(col)+0.5)*d.Cellsize
	y = d.Yll + (float64(d.Nrow-1-row)+0.5)*d.Cellsize
	return x, y
}

// CellAt returns the cell containing world point (x, y), or ok=false
// when the point falls outside the grid.
func (d Definition) CellAt(x, y float64) (row, col int, ok bool) {
	col = int(math.Floor((x - d.Xll) / d.Cellsize))
	rowFromBottom := int(math.Floor((y - d.Yll) / d.Cellsize))
	row = d.Nrow - 1 - rowFromBottom
	if col < 0 || col >= d.Ncol || row < 0 || row >= d.Nrow {
		return 0, 0, false
	}
	return row, col, true
}

// Bounds returns the grid extent as (xmin, ymin, xmax, ymax)
func (d Definition) Bounds() (xmin, ymin, xmax, ymax float64) {
	return d.Xll, d.Yll,
		d.Xll + float64(d.Ncol)*d.Cellsize,
		d.Yll + float64(d.Nrow)*d.Cellsize
}

// Grid couples a definition with cell values in row-major order,
// top row first.
type Grid struct {
	Def  Definition
	Data []float64
}

// NewGrid allocates a grid filled with the definition's nodata value
func NewGrid(def Definition) *Grid {
	data := make([]float64, def.Ncells())
	for i := range data {
		data[i] = def.Nodata
	}
	return &Grid{Def: def, Data: data}
}

// Value returns the cell value at (row, col)
func (g *Grid) Value(row, col int) float64 {
	return g.Data[row*g.Def.Ncol+col]
}

// Set assigns the cell value at (row, col)
func (g *Grid) Set(row, col int, v float64) {
	g.Data[row*g.Def.Ncol+col] = v
}

// IsNodata reports whether v is the grid's nodata marker
func (g *Grid) IsNodata(v float64) bool {
	return v == g.Def.Nodata || math.IsNaN(v)
}

// checkSeries verifies a grid series is non-empty and shares one definition
func checkSeries(series []*Grid) (Definition, error) {
	if len(series) == 0 {
		return Definition{}, fmt.Errorf("empty grid series")
	}
	def := series[0].Def
	for i, g := range series[1:] {
		if !g.Def.Equals(def) {
			return Definition{}, fmt.Errorf("grid %d definition does not match grid 0", i+1)
		}
	}
	return def, nil
}
