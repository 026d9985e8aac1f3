package engine

import (
	"fmt"
	"math"
)

// Voltage stability window around the 415 V nominal. Both bounds are strict,
// so a reading of exactly 370 or 460 still classifies as stable.
const (
	underVoltageLimit = 370.0
	surgeVoltageLimit = 460.0
)

// Phase imbalance thresholds (NEMA-style), percent of average current.
// Both comparisons are strict: exactly 2.0% is balanced, exactly 5.0% is a
// warning.
const (
	imbalanceWarnPct     = 2.0
	imbalanceCriticalPct = 5.0
)

// Legacy voltage status strings, preserved verbatim for display and reports.
const (
	voltStatusStable = "STABLE"
	voltStatusUnder  = "CRITICAL: UNDER-VOLTAGE (Overheating Risk)"
	voltStatusSurge  = "CRITICAL: SURGE (Insulation Risk)"
)

const imbalanceStatusBalanced = "BALANCED"

// ElectricalHealth is the grid-quality and phase-balance assessment of one
// reading. The status strings carry the legacy display text; downstream
// logic must branch on the Severity fields, never on substrings.
type ElectricalHealth struct {
	VoltageStatus     string
	VoltageSeverity   Severity
	ImbalanceStatus   string
	ImbalanceSeverity Severity
	ImbalancePct      float64
	AvgCurrent        float64
}

// AnalyzeElectrical diagnoses grid quality and phase balance from the line
// voltage and the three phase currents. A non-positive average current yields
// zero imbalance rather than a division by zero.
func AnalyzeElectrical(voltage, i1, i2, i3 float64) ElectricalHealth {
	h := ElectricalHealth{
		VoltageStatus:   voltStatusStable,
		VoltageSeverity: SeverityNormal,
	}

	switch {
	case voltage < underVoltageLimit:
		h.VoltageStatus = voltStatusUnder
		h.VoltageSeverity = SeverityCritical
	case voltage > surgeVoltageLimit:
		h.VoltageStatus = voltStatusSurge
		h.VoltageSeverity = SeverityCritical
	}

	h.AvgCurrent = (i1 + i2 + i3) / 3
	if h.AvgCurrent > 0 {
		maxDev := math.Max(math.Abs(i1-h.AvgCurrent),
			math.Max(math.Abs(i2-h.AvgCurrent), math.Abs(i3-h.AvgCurrent)))
		h.ImbalancePct = maxDev / h.AvgCurrent * 100
	}

	switch {
	case h.ImbalancePct > imbalanceCriticalPct:
		h.ImbalanceStatus = fmt.Sprintf("CRITICAL: %.1f%% IMBALANCE (Winding Failure)", h.ImbalancePct)
		h.ImbalanceSeverity = SeverityCritical
	case h.ImbalancePct > imbalanceWarnPct:
		h.ImbalanceStatus = fmt.Sprintf("WARNING: %.1f%% IMBALANCE", h.ImbalancePct)
		h.ImbalanceSeverity = SeverityWarning
	default:
		h.ImbalanceStatus = imbalanceStatusBalanced
		h.ImbalanceSeverity = SeverityNormal
	}

	return h
}
