package domain

import "testing"

func TestScenarioValidate(t *testing.T) {
	tests := []struct {
		name     string
		scenario Scenario
		wantErr  bool
	}{
		{"valid", Scenario{Name: "rp100", ReturnPeriodYears: 100, HydrographPath: "q100.csv"}, false},
		{"valid with underscore", Scenario{Name: "rp_100", ReturnPeriodYears: 100, HydrographPath: "q.csv"}, false},
		{"missing name", Scenario{ReturnPeriodYears: 100, HydrographPath: "q.csv"}, true},
		{"unsafe name", Scenario{Name: "rp/100", ReturnPeriodYears: 100, HydrographPath: "q.csv"}, true},
		{"name starts with dash", Scenario{Name: "-rp100", ReturnPeriodYears: 100, HydrographPath: "q.csv"}, true},
		{"zero return period", Scenario{Name: "rp0", ReturnPeriodYears: 0, HydrographPath: "q.csv"}, true},
		{"negative return period", Scenario{Name: "rp", ReturnPeriodYears: -5, HydrographPath: "q.csv"}, true},
		{"missing hydrograph", Scenario{Name: "rp100", ReturnPeriodYears: 100}, true},
	}

	for _, tt := range tests {
		err := tt.scenario.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: Validate() error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestValidateScenarios(t *testing.T) {
	valid := Scenario{Name: "rp100", ReturnPeriodYears: 100, HydrographPath: "q.csv"}

	if err := ValidateScenarios(nil); err == nil {
		t.Error("empty scenario set should be rejected")
	}

	if err := ValidateScenarios([]Scenario{valid}); err != nil {
		t.Errorf("single valid scenario rejected: %v", err)
	}

	// Duplicate names are case-insensitive since directories may land on
	// case-insensitive filesystems
	dup := valid
	dup.Name = "RP100"
	if err := ValidateScenarios([]Scenario{valid, dup}); err == nil {
		t.Error("case-insensitive duplicate names should be rejected")
	}
}

func TestScenarioLabel(t *testing.T) {
	s := Scenario{Name: "rp100", ReturnPeriodYears: 100, HydrographPath: "q.csv"}
	if got := s.Label(); got != "rp100 (100-year)" {
		t.Errorf("Label() = %q", got)
	}
}
