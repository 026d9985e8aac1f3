package engine

import "math"

// hoursPerMonth is the continuous-duty assumption behind every monthly figure.
const hoursPerMonth = 24 * 30

// lowEfficiencyCeiling: below this wire-to-water efficiency the savings
// projection prices the optimal operating point instead of the flat heuristic.
const lowEfficiencyCeiling = 50.0

// faultWasteFraction is the flat waste assumed for any non-normal diagnosis
// that doesn't qualify for the optimal-point comparison.
const faultWasteFraction = 0.25

type financials struct {
	MonthlyCost      float64
	MonthlyCO2Tonnes float64
	MonthlySavings   float64
}

// projectFinancials converts the audit's power figures into a monthly cost,
// CO2 and recoverable-waste projection. The savings figure is a heuristic
// financial model, not a measurement: it assumes the configured hydraulic
// baseline and motor efficiency ceiling are reachable on this asset.
func projectFinancials(cfg AssetConfig, realKW, hydraulicKW, totalEffPct float64, sev Severity) financials {
	f := financials{
		MonthlyCost:      realKW * cfg.UnitCost * hoursPerMonth,
		MonthlyCO2Tonnes: realKW * cfg.CO2Factor * hoursPerMonth / 1000,
	}

	switch {
	case totalEffPct > 0 && totalEffPct < lowEfficiencyCeiling:
		// Price the same hydraulic duty delivered at the baseline
		// efficiency through a near-ceiling motor.
		optimalKW := hydraulicKW / cfg.HydraulicBaseline / cfg.OptimalMotorEff
		optimalCost := optimalKW * cfg.UnitCost * hoursPerMonth
		f.MonthlySavings = math.Max(0, f.MonthlyCost-optimalCost)
	case sev != SeverityNormal:
		f.MonthlySavings = f.MonthlyCost * faultWasteFraction
	}

	return f
}
