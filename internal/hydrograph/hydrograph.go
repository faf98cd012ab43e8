// Package hydrograph reads and validates boundary discharge time series.
//
// Hydrographs arrive as two-column CSV (time in hours, discharge in m³/s)
// produced upstream by the hydrologic model. This package never generates
// flows; it only parses, checks, and resamples what it is given.
package hydrograph

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// Hydrograph is a discharge time series at a model boundary.
// T holds hours from event start, Q the discharge in m³/s.
// T and Q are always the same length.
type Hydrograph struct {
	T []float64
	Q []float64
}

// Load reads a hydrograph CSV from disk
func Load(path string) (*Hydrograph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open hydrograph: %w", err)
	}
	defer f.Close()

	h, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return h, nil
}

// Parse reads a two-column time,discharge CSV. A single non-numeric
// header row is tolerated and skipped.
func Parse(r io.Reader) (*Hydrograph, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	h := &Hydrograph{}
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(rec) < 2 {
			return nil, fmt.Errorf("line %d: need 2 columns (time_hr, discharge_cms), got %d", line, len(rec))
		}

		t, errT := strconv.ParseFloat(strings.TrimSpace(rec[0]), 64)
		q, errQ := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if errT != nil || errQ != nil {
			if line == 1 {
				continue // header row
			}
			return nil, fmt.Errorf("line %d: non-numeric value", line)
		}
		h.T = append(h.T, t)
		h.Q = append(h.Q, q)
	}

	if err := h.Validate(); err != nil {
		return nil, err
	}
	return h, nil
}

// Validate checks the series is usable as an engine boundary condition
func (h *Hydrograph) Validate() error {
	if len(h.T) < 2 {
		return fmt.Errorf("hydrograph needs at least 2 points, got %d", len(h.T))
	}
	if len(h.T) != len(h.Q) {
		return fmt.Errorf("time and discharge lengths differ: %d vs %d", len(h.T), len(h.Q))
	}
	for i := range h.T {
		if math.IsNaN(h.T[i]) || math.IsNaN(h.Q[i]) {
			return fmt.Errorf("point %d: NaN value", i)
		}
		if h.Q[i] < 0 {
			return fmt.Errorf("point %d: negative discharge %g", i, h.Q[i])
		}
		if i > 0 && h.T[i] <= h.T[i-1] {
			return fmt.Errorf("point %d: time %g not strictly increasing", i, h.T[i])
		}
	}
	return nil
}

// Len returns the number of points
func (h *Hydrograph) Len() int { return len(h.T) }

// DurationHours returns the span of the series
func (h *Hydrograph) DurationHours() float64 {
	if len(h.T) == 0 {
		return 0
	}
	return h.T[len(h.T)-1] - h.T[0]
}

// Peak returns the maximum discharge and the hour at which it occurs
func (h *Hydrograph) Peak() (q, hour float64) {
	for i := range h.Q {
		if h.Q[i] > q {
			q, hour = h.Q[i], h.T[i]
		}
	}
	return q, hour
}

// VolumeM3 integrates the series by the trapezoid rule, in cubic meters
func (h *Hydrograph) VolumeM3() float64 {
	var v float64
	for i := 1; i < len(h.T); i++ {
		dt := (h.T[i] - h.T[i-1]) * 3600 // hours to seconds
		v += dt * (h.Q[i] + h.Q[i-1]) / 2
	}
	return v
}

// Resample linearly interpolates the series onto a uniform interval,
// for engines that require fixed-step boundary tables. When the span
// is not divisible by the interval, the grid extends one step past the
// end of the series with the final discharge held, so the tail of the
// recession limb is never cut off. The original series is unchanged.
func (h *Hydrograph) Resample(dtHours float64) (*Hydrograph, error) {
	if dtHours <= 0 {
		return nil, fmt.Errorf("resample interval must be positive, got %g", dtHours)
	}
	t0, t1 := h.T[0], h.T[len(h.T)-1]
	n := int(math.Ceil((t1-t0)/dtHours-1e-9)) + 1

	out := &Hydrograph{
		T: make([]float64, 0, n),
		Q: make([]float64, 0, n),
	}
	j := 0
	for i := 0; i < n; i++ {
		t := t0 + float64(i)*dtHours
		for j < len(h.T)-2 && h.T[j+1] <= t {
			j++
		}
		frac := (t - h.T[j]) / (h.T[j+1] - h.T[j])
		if frac < 0 {
			frac = 0
		}
		if frac > 1 {
			frac = 1
		}
		out.T = append(out.T, t)
		out.Q = append(out.Q, h.Q[j]+frac*(h.Q[j+1]-h.Q[j]))
	}
	return out, nil
}
