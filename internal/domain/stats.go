package domain

// Severity classifies how badly a field was hit by a scenario
type Severity string

const (
	SeverityNone   Severity = "none"   // No inundation over threshold
	SeverityMinor  Severity = "minor"  // Shallow or brief inundation
	SeverityMajor  Severity = "major"  // Deep or prolonged inundation
	SeveritySevere Severity = "severe" // Deep and prolonged
)

// SeverityThresholds holds the depth/duration breakpoints used to
// classify a field. Values follow the common agricultural flood damage
// literature: ~0.5 m or ~48 h marks the onset of substantial crop loss.
type SeverityThresholds struct {
	MajorDepthM    float64 `yaml:"major_depth_m"`
	MajorDurationH float64 `yaml:"major_duration_h"`
}

// DefaultSeverityThresholds returns the standard classification breakpoints
func DefaultSeverityThresholds() SeverityThresholds {
	return SeverityThresholds{
		MajorDepthM:    0.5,
		MajorDurationH: 48,
	}
}

// FieldStats holds the zonal aggregation result for one field polygon
// under one scenario. Depths are meters, velocities m/s, durations hours.
type FieldStats struct {
	FieldID           string  `json:"field_id"`
	Scenario          string  `json:"scenario"`
	ReturnPeriodYears int     `json:"return_period"`
	MeanDepth         float64 `json:"mean_depth_m"`
	MaxDepth          float64 `json:"max_depth_m"`
	MaxVelocity       float64 `json:"max_velocity_ms"`
	DurationHours     float64 `json:"duration_h"`
	FloodedFraction   float64 `json:"flooded_fraction"`
	FloodedAreaM2     float64 `json:"flooded_area_m2"`
}

// Flooded reports whether any part of the field was inundated
func (f FieldStats) Flooded() bool {
	return f.FloodedFraction > 0
}

// Classify assigns a severity class from depth and duration
func (f FieldStats) Classify(t SeverityThresholds) Severity {
	if !f.Flooded() {
		return SeverityNone
	}
	deep := f.MaxDepth >= t.MajorDepthM
	long := f.DurationHours >= t.MajorDurationH
	switch {
	case deep && long:
		return SeveritySevere
	case deep || long:
		return SeverityMajor
	}
	return SeverityMinor
}
