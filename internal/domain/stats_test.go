package domain

import "testing"

func TestFieldStatsClassify(t *testing.T) {
	th := DefaultSeverityThresholds()

	tests := []struct {
		name  string
		stats FieldStats
		want  Severity
	}{
		{"dry field", FieldStats{FloodedFraction: 0}, SeverityNone},
		{"shallow brief", FieldStats{FloodedFraction: 0.3, MaxDepth: 0.2, DurationHours: 12}, SeverityMinor},
		{"deep brief", FieldStats{FloodedFraction: 0.3, MaxDepth: 1.2, DurationHours: 12}, SeverityMajor},
		{"shallow prolonged", FieldStats{FloodedFraction: 0.3, MaxDepth: 0.2, DurationHours: 72}, SeverityMajor},
		{"deep prolonged", FieldStats{FloodedFraction: 0.9, MaxDepth: 1.2, DurationHours: 72}, SeveritySevere},
		{"exactly at breakpoints", FieldStats{FloodedFraction: 0.5, MaxDepth: 0.5, DurationHours: 48}, SeveritySevere},
	}

	for _, tt := range tests {
		if got := tt.stats.Classify(th); got != tt.want {
			t.Errorf("%s: Classify() = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestFieldStatsFlooded(t *testing.T) {
	if (FieldStats{}).Flooded() {
		t.Error("zero stats should not report flooded")
	}
	if !(FieldStats{FloodedFraction: 0.01}).Flooded() {
		t.Error("nonzero fraction should report flooded")
	}
}
