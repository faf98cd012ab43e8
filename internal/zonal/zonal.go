package zonal

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"floodbatch/internal/domain"
	"floodbatch/internal/raster"
)

// RasterSet bundles the derived grids of one scenario. MaxVelocity and
// Duration may be nil when the engine does not export them; the
// corresponding statistics come out zero.
type RasterSet struct {
	MaxDepth    *raster.Grid
	MaxVelocity *raster.Grid
	Duration    *raster.Grid
}

func (rs *RasterSet) validate() error {
	if rs.MaxDepth == nil {
		return fmt.Errorf("max depth grid is required")
	}
	def := rs.MaxDepth.Def
	if rs.MaxVelocity != nil && !rs.MaxVelocity.Def.Equals(def) {
		return fmt.Errorf("velocity grid definition does not match depth grid")
	}
	if rs.Duration != nil && !rs.Duration.Def.Equals(def) {
		return fmt.Errorf("duration grid definition does not match depth grid")
	}
	return nil
}

// CellsInside returns the indices (row-major) of cells whose centers
// fall inside the geometry. Only the geometry's bounding box is swept.
func CellsInside(def raster.Definition, geom orb.Geometry) []int {
	bound := geom.Bound()
	xmin, ymin, xmax, ymax := def.Bounds()
	if bound.Max[0] < xmin || bound.Min[0] > xmax || bound.Max[1] < ymin || bound.Min[1] > ymax {
		return nil
	}

	// clip the sweep window to the grid
	minCol := clamp(int(math.Floor((bound.Min[0]-def.Xll)/def.Cellsize)), 0, def.Ncol-1)
	maxCol := clamp(int(math.Floor((bound.Max[0]-def.Xll)/def.Cellsize)), 0, def.Ncol-1)
	// y increases upward, rows count downward
	minRow := clamp(def.Nrow-1-int(math.Floor((bound.Max[1]-def.Yll)/def.Cellsize)), 0, def.Nrow-1)
	maxRow := clamp(def.Nrow-1-int(math.Floor((bound.Min[1]-def.Yll)/def.Cellsize)), 0, def.Nrow-1)

	var cells []int
	for r := minRow; r <= maxRow; r++ {
		for c := minCol; c <= maxCol; c++ {
			x, y := def.CellCenter(r, c)
			pt := orb.Point{x, y}
			inside := false
			switch g := geom.(type) {
			case orb.Polygon:
				inside = planar.PolygonContains(g, pt)
			case orb.MultiPolygon:
				inside = planar.MultiPolygonContains(g, pt)
			}
			if inside {
				cells = append(cells, r*def.Ncol+c)
			}
		}
	}
	return cells
}

// Aggregate computes per-field statistics for one scenario's raster
// set. Fields with no overlap or no wet cells get zero statistics, not
// an error: a dry field is a result.
func Aggregate(fields []Field, scenario domain.Scenario, rs *RasterSet, depthThreshold float64) ([]domain.FieldStats, error) {
	if err := rs.validate(); err != nil {
		return nil, err
	}
	def := rs.MaxDepth.Def

	stats := make([]domain.FieldStats, 0, len(fields))
	for _, field := range fields {
		fs := domain.FieldStats{
			FieldID:           field.ID,
			Scenario:          scenario.Name,
			ReturnPeriodYears: scenario.ReturnPeriodYears,
		}

		cells := CellsInside(def, field.Geometry)
		wet := 0
		var depthSum float64
		for _, i := range cells {
			d := rs.MaxDepth.Data[i]
			if rs.MaxDepth.IsNodata(d) || d < depthThreshold {
				continue
			}
			wet++
			depthSum += d
			if d > fs.MaxDepth {
				fs.MaxDepth = d
			}
			if rs.MaxVelocity != nil {
				if v := rs.MaxVelocity.Data[i]; !rs.MaxVelocity.IsNodata(v) && v > fs.MaxVelocity {
					fs.MaxVelocity = v
				}
			}
			if rs.Duration != nil {
				if h := rs.Duration.Data[i]; !rs.Duration.IsNodata(h) && h > fs.DurationHours {
					fs.DurationHours = h
				}
			}
		}

		if wet > 0 {
			fs.MeanDepth = depthSum / float64(wet)
			fs.FloodedFraction = float64(wet) / float64(len(cells))
			fs.FloodedAreaM2 = float64(wet) * def.CellArea()
		}
		stats = append(stats, fs)
	}
	return stats, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
