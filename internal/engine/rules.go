package engine

import (
	"encoding/json"
	"fmt"
)

// Severity is the typed alarm level carried alongside the legacy status
// strings. Downstream display and savings logic branch on this, never on
// status-string substrings.
type Severity int

const (
	SeverityNormal Severity = iota
	SeverityWarning
	SeverityCritical
)

// String returns the legacy uppercase label.
func (s Severity) String() string {
	switch s {
	case SeverityCritical:
		return "CRITICAL"
	case SeverityWarning:
		return "WARNING"
	default:
		return "NORMAL"
	}
}

// MarshalJSON encodes the severity as its legacy string label.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts the legacy string labels.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return err
	}
	switch label {
	case "NORMAL":
		*s = SeverityNormal
	case "WARNING":
		*s = SeverityWarning
	case "CRITICAL":
		*s = SeverityCritical
	default:
		return fmt.Errorf("engine: unknown severity %q", label)
	}
	return nil
}

// ruleInput is everything the fault rule list is allowed to look at.
type ruleInput struct {
	VoltageStatus     string
	VoltageSeverity   Severity
	ImbalanceSeverity Severity
	LoadPct           float64
	PressureBar       float64
	FlowM3H           float64
	PumpEffPct        float64
}

// diagnosis is the outcome of the first matching fault rule.
type diagnosis struct {
	Status   string
	Reason   string
	Severity Severity
	ZeroFlow bool
}

// faultRule pairs a predicate with its fixed outcome. Rules are evaluated in
// declaration order and the first match suppresses all that follow.
type faultRule struct {
	status   string
	severity Severity
	zeroFlow bool
	match    func(in ruleInput) bool
	reason   func(in ruleInput) string
}

func fixedReason(s string) func(ruleInput) string {
	return func(ruleInput) string { return s }
}

// faultRules is the ordered decision list. Precedence is load-bearing: a
// dry-run pump also reads as overloaded-adjacent in other dimensions, and
// grid faults mask everything downstream of the meter.
var faultRules = []faultRule{
	{
		status:   "DANGER: GRID INSTABILITY",
		severity: SeverityCritical,
		match:    func(in ruleInput) bool { return in.VoltageSeverity == SeverityCritical },
		reason:   func(in ruleInput) string { return in.VoltageStatus },
	},
	{
		status:   "DANGER: PHASE IMBALANCE",
		severity: SeverityCritical,
		match:    func(in ruleInput) bool { return in.ImbalanceSeverity == SeverityCritical },
		reason:   fixedReason("Motor windings degrading. Check cables."),
	},
	{
		status:   "CRITICAL: DRY RUN DETECTED",
		severity: SeverityCritical,
		zeroFlow: true,
		match:    func(in ruleInput) bool { return in.LoadPct < 30 },
		reason:   fixedReason("Amperage too low (<30%). Pump likely spinning in air."),
	},
	{
		status:   "CRITICAL: BURST PIPE / ZERO HEAD",
		severity: SeverityCritical,
		match:    func(in ruleInput) bool { return in.LoadPct > 65 && in.PressureBar < 1.5 },
		reason:   fixedReason("High Power vs. Low Pressure. Massive hydraulic loss."),
	},
	{
		status:   "WARNING: BLOCKAGE / DEAD-HEAD",
		severity: SeverityWarning,
		match:    func(in ruleInput) bool { return in.PressureBar > 8.0 && in.FlowM3H < 2.0 },
		reason:   fixedReason("Pressure exceeding safety limits with zero flow."),
	},
	{
		status:   "WARNING: MOTOR OVERLOAD",
		severity: SeverityWarning,
		match:    func(in ruleInput) bool { return in.LoadPct > 105 },
		reason:   fixedReason("Motor drawing excess current. Thermal risk."),
	},
	{
		status:   "WARNING: POOR EFFICIENCY",
		severity: SeverityWarning,
		match:    func(in ruleInput) bool { return in.PumpEffPct < 45 },
		reason:   fixedReason("Pump hydraulic efficiency is very low. Possible worn impeller."),
	},
}

// classify runs the rule list and returns the first match, or the optimal
// diagnosis when nothing fires.
func classify(in ruleInput) diagnosis {
	for _, r := range faultRules {
		if r.match(in) {
			return diagnosis{
				Status:   r.status,
				Reason:   r.reason(in),
				Severity: r.severity,
				ZeroFlow: r.zeroFlow,
			}
		}
	}
	return diagnosis{
		Status:   "OPTIMAL",
		Reason:   "System operating within normal parameters.",
		Severity: SeverityNormal,
	}
}
