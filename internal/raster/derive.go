package raster

import "fmt"

// Derivations over time series of grids. All inputs must share one
// grid definition; nodata cells stay nodata in the output.

// MaxOverSeries returns the cell-wise maximum across the series.
// Used for max depth over depth grids and max velocity over velocity
// grids.
func MaxOverSeries(series []*Grid) (*Grid, error) {
	def, err := checkSeries(series)
	if err != nil {
		return nil, err
	}

	out := NewGrid(def)
	for _, g := range series {
		for i, v := range g.Data {
			if g.IsNodata(v) {
				continue
			}
			if out.Data[i] == def.Nodata || v > out.Data[i] {
				out.Data[i] = v
			}
		}
	}
	return out, nil
}

// DurationAbove returns, per cell, the hours the value stayed at or
// above the threshold. Each grid in the series represents one saved
// interval of stepHours. Cells that are nodata in every step come out
// nodata; cells never above threshold come out zero.
func DurationAbove(series []*Grid, threshold, stepHours float64) (*Grid, error) {
	def, err := checkSeries(series)
	if err != nil {
		return nil, err
	}
	if stepHours <= 0 {
		return nil, fmt.Errorf("step hours must be positive, got %g", stepHours)
	}

	out := NewGrid(def)
	for _, g := range series {
		for i, v := range g.Data {
			if g.IsNodata(v) {
				continue
			}
			if out.Data[i] == def.Nodata {
				out.Data[i] = 0
			}
			if v >= threshold {
				out.Data[i] += stepHours
			}
		}
	}
	return out, nil
}

// Extent converts a depth grid into a 0/1 inundation extent at the
// given depth threshold. Nodata stays nodata.
func Extent(depth *Grid, threshold float64) *Grid {
	out := NewGrid(depth.Def)
	for i, v := range depth.Data {
		if depth.IsNodata(v) {
			continue
		}
		if v >= threshold {
			out.Data[i] = 1
		} else {
			out.Data[i] = 0
		}
	}
	return out
}
