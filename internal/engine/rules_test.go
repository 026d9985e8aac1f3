package engine

import (
	"encoding/json"
	"testing"
)

func TestClassify_EachRule(t *testing.T) {
	tests := []struct {
		name         string
		in           ruleInput
		wantStatus   string
		wantSeverity Severity
	}{
		{
			name: "grid instability",
			in: ruleInput{
				VoltageStatus:   voltStatusUnder,
				VoltageSeverity: SeverityCritical,
				LoadPct:         80, PressureBar: 4, FlowM3H: 50, PumpEffPct: 70,
			},
			wantStatus:   "DANGER: GRID INSTABILITY",
			wantSeverity: SeverityCritical,
		},
		{
			name: "phase imbalance",
			in: ruleInput{
				ImbalanceSeverity: SeverityCritical,
				LoadPct:           80, PressureBar: 4, FlowM3H: 50, PumpEffPct: 70,
			},
			wantStatus:   "DANGER: PHASE IMBALANCE",
			wantSeverity: SeverityCritical,
		},
		{
			name:         "dry run",
			in:           ruleInput{LoadPct: 20, PressureBar: 4, FlowM3H: 5, PumpEffPct: 70},
			wantStatus:   "CRITICAL: DRY RUN DETECTED",
			wantSeverity: SeverityCritical,
		},
		{
			name:         "burst pipe",
			in:           ruleInput{LoadPct: 90, PressureBar: 1.0, FlowM3H: 80, PumpEffPct: 70},
			wantStatus:   "CRITICAL: BURST PIPE / ZERO HEAD",
			wantSeverity: SeverityCritical,
		},
		{
			name:         "dead-head",
			in:           ruleInput{LoadPct: 70, PressureBar: 9.0, FlowM3H: 1.5, PumpEffPct: 70},
			wantStatus:   "WARNING: BLOCKAGE / DEAD-HEAD",
			wantSeverity: SeverityWarning,
		},
		{
			name:         "motor overload",
			in:           ruleInput{LoadPct: 112, PressureBar: 4.2, FlowM3H: 170, PumpEffPct: 67},
			wantStatus:   "WARNING: MOTOR OVERLOAD",
			wantSeverity: SeverityWarning,
		},
		{
			name:         "poor efficiency",
			in:           ruleInput{LoadPct: 80, PressureBar: 4.2, FlowM3H: 50, PumpEffPct: 30},
			wantStatus:   "WARNING: POOR EFFICIENCY",
			wantSeverity: SeverityWarning,
		},
		{
			name:         "optimal",
			in:           ruleInput{LoadPct: 80, PressureBar: 4.2, FlowM3H: 120, PumpEffPct: 70},
			wantStatus:   "OPTIMAL",
			wantSeverity: SeverityNormal,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := classify(tt.in)
			if d.Status != tt.wantStatus {
				t.Errorf("Status: got %q, want %q", d.Status, tt.wantStatus)
			}
			if d.Severity != tt.wantSeverity {
				t.Errorf("Severity: got %v, want %v", d.Severity, tt.wantSeverity)
			}
			if d.Reason == "" {
				t.Error("Reason must not be empty")
			}
		})
	}
}

func TestClassify_Precedence(t *testing.T) {
	// Dry run and dead-head both match; the earlier rule must win.
	d := classify(ruleInput{LoadPct: 5, PressureBar: 9.0, FlowM3H: 1.0, PumpEffPct: 10})
	if d.Status != "CRITICAL: DRY RUN DETECTED" {
		t.Errorf("Status: got %q, want dry run to suppress dead-head", d.Status)
	}
	if !d.ZeroFlow {
		t.Error("dry run must force the flow estimate to zero")
	}

	// A grid fault masks everything downstream of the meter.
	d = classify(ruleInput{
		VoltageStatus:   voltStatusSurge,
		VoltageSeverity: SeverityCritical,
		LoadPct:         5, PressureBar: 9.0, FlowM3H: 1.0, PumpEffPct: 10,
	})
	if d.Status != "DANGER: GRID INSTABILITY" {
		t.Errorf("Status: got %q, want grid instability first", d.Status)
	}
	if d.Reason != voltStatusSurge {
		t.Errorf("Reason: got %q, want the voltage status text", d.Reason)
	}
}

func TestSeverity_JSONRoundTrip(t *testing.T) {
	for _, s := range []Severity{SeverityNormal, SeverityWarning, SeverityCritical} {
		data, err := json.Marshal(s)
		if err != nil {
			t.Fatalf("Marshal(%v): %v", s, err)
		}
		var back Severity
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("Unmarshal(%s): %v", data, err)
		}
		if back != s {
			t.Errorf("round trip: got %v, want %v", back, s)
		}
	}

	var s Severity
	if err := json.Unmarshal([]byte(`"FATAL"`), &s); err == nil {
		t.Error("Unmarshal of unknown label: expected error, got nil")
	}
}
