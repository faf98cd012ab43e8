package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"floodbatch/internal/domain"
)

var csvHeader = []string{
	"field_id", "scenario", "return_period_years",
	"mean_depth_m", "max_depth_m", "max_velocity_ms",
	"duration_h", "flooded_fraction", "flooded_area_m2", "severity",
}

// ExportCSV writes the field statistics to a CSV file, one row per
// field and scenario, with a severity class derived from the given
// thresholds.
func ExportCSV(path string, stats []domain.FieldStats, thresholds domain.SeverityThresholds) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	for _, st := range stats {
		row := []string{
			st.FieldID,
			st.Scenario,
			strconv.Itoa(st.ReturnPeriodYears),
			csvFloat(st.MeanDepth),
			csvFloat(st.MaxDepth),
			csvFloat(st.MaxVelocity),
			csvFloat(st.DurationHours),
			csvFloat(st.FloodedFraction),
			csvFloat(st.FloodedAreaM2),
			string(st.Classify(thresholds)),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	w.Flush()
	return w.Error()
}

func csvFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
