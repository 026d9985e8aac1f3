package alerts

import (
	"strconv"
	"strings"

	"github.com/chachamwise/axiom-audit-global/internal/store"
)

// evalCondition evaluates a rule condition string against a stored audit.
//
// Supported expressions (field operator value):
//
//	severity == critical
//	severity == warning
//	load_pct > 105
//	imbalance_pct > 5
//	pump_eff_pct < 45
//	total_eff_pct < 50
//	monthly_savings > 1000000
//	monthly_cost > 5000000
//	real_power_kw > 40
//	estimated_flow_m3h < 2
//	head_m > 90
//	voltage < 370
//	unreachable == true
//
// Returns (fires bool, triggering value float64).
// Returns (false, 0) if the expression cannot be parsed or the field is unknown.
func evalCondition(cond string, a *store.Audit) (bool, float64) {
	parts := strings.Fields(cond)
	if len(parts) != 3 {
		return false, 0
	}
	field, op, rhs := parts[0], parts[1], parts[2]

	switch field {
	case "unreachable":
		if op == "==" {
			return (a.Err != "") == (rhs == "true"), 0
		}
		return false, 0

	case "severity":
		if a.Result == nil || op != "==" {
			return false, 0
		}
		return strings.EqualFold(a.Result.Severity.String(), rhs), float64(a.Result.Severity)

	default:
		if a.Result == nil {
			return false, 0
		}
		v, ok := numericField(field, a)
		if !ok {
			return false, 0
		}
		threshold, err := strconv.ParseFloat(rhs, 64)
		if err != nil {
			return false, 0
		}
		return compareFloat(v, op, threshold), v
	}
}

// numericField maps a field name to its value in the audit.
func numericField(field string, a *store.Audit) (float64, bool) {
	r := a.Result
	switch field {
	case "load_pct":
		return r.LoadPct, true
	case "imbalance_pct":
		return r.ImbalancePct, true
	case "pump_eff_pct":
		return r.PumpEffPct, true
	case "total_eff_pct":
		return r.TotalEffPct, true
	case "monthly_savings":
		return r.MonthlySavings, true
	case "monthly_cost":
		return r.MonthlyCost, true
	case "real_power_kw":
		return r.RealPowerKW, true
	case "estimated_flow_m3h":
		return r.EstimatedFlowM3H, true
	case "head_m":
		return r.HeadM, true
	case "voltage":
		return r.InputVolts, true
	default:
		return 0, false
	}
}

// compareFloat applies a comparison operator to two float64 values.
func compareFloat(v float64, op string, threshold float64) bool {
	switch op {
	case ">":
		return v > threshold
	case ">=":
		return v >= threshold
	case "<":
		return v < threshold
	case "<=":
		return v <= threshold
	case "==":
		return v == threshold
	default:
		return false
	}
}
