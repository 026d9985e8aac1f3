// Package report renders a finished audit as a field-ready document, either
// plain text for copy/paste into a work order or PDF for archival.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/chachamwise/axiom-audit-global/internal/engine"
)

// Meta carries the report envelope: which station, who ran the audit, when.
type Meta struct {
	Station     string
	Engineer    string
	GeneratedAt time.Time
}

// actionPlan maps a diagnosis severity to the recommended field response.
func actionPlan(sev engine.Severity) string {
	switch sev {
	case engine.SeverityCritical:
		return "URGENT: Install AXIOM CONTROL DRIVE to prevent asset failure."
	case engine.SeverityWarning:
		return "Monitor closely. Consider pump maintenance."
	default:
		return "None. System Healthy."
	}
}

// Text renders the audit as the standard plain-text report.
func Text(res *engine.Result, meta Meta) string {
	var b strings.Builder

	rule := strings.Repeat("=", 50)
	thin := strings.Repeat("-", 50)
	waste := strings.Repeat(">", 50)

	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, "AXIOM INFRASTRUCTURE AUDIT REPORT (GLOBAL)")
	fmt.Fprintln(&b, "Generated by: AQUAFLUX TECH (Tanzania)")
	fmt.Fprintf(&b, "Date: %s | Auditor: %s\n", meta.GeneratedAt.Format("2006-01-02 15:04"), meta.Engineer)
	fmt.Fprintln(&b, thin)
	fmt.Fprintf(&b, "STATION ID: %s\n", meta.Station)
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "1. EXECUTIVE SUMMARY")
	fmt.Fprintf(&b, "   Status:       %s\n", res.Status)
	fmt.Fprintf(&b, "   Risk Factor:  %s\n", res.Reason)
	fmt.Fprintf(&b, "   Action Plan:  %s\n", actionPlan(res.Severity))
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "2. HYDRAULIC HEALTH (Estimated)")
	fmt.Fprintf(&b, "   Flow Rate:    %.1f m3/h\n", res.EstimatedFlowM3H)
	fmt.Fprintf(&b, "   Pressure:     %.1f m\n", res.HeadM)
	fmt.Fprintln(&b, "   ---------------------------------")
	fmt.Fprintf(&b, "   Pump Eff:     %.1f%%  (Calc)\n", res.PumpEffPct)
	fmt.Fprintf(&b, "   Motor Eff:    %.1f%%  (Est)\n", res.MotorEffPct)
	fmt.Fprintf(&b, "   TOTAL EFF:    %.1f%%  (Wire-to-Water)\n", res.TotalEffPct)
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "3. ELECTRICAL HEALTH")
	fmt.Fprintf(&b, "   Voltage:      %.0f V  [%s]\n", res.InputVolts, res.VoltageStatus)
	fmt.Fprintf(&b, "   Balance:      %s\n", res.ImbalanceStatus)
	fmt.Fprintf(&b, "   Input Power:  %.1f kW\n", res.RealPowerKW)
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "4. FINANCIAL IMPACT")
	fmt.Fprintf(&b, "   OpEx:         %s %s / Month\n", res.Currency, money(res.MonthlyCost))
	fmt.Fprintf(&b, "   Carbon:       %.2f Tonnes\n", res.MonthlyCO2Tonnes)
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, waste)
	fmt.Fprintf(&b, "DETECTED WASTE: %s %s / MONTH\n", res.Currency, money(res.MonthlySavings))
	fmt.Fprintln(&b, waste)
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, thin)
	fmt.Fprintln(&b, "LEGAL DISCLAIMER:")
	fmt.Fprintln(&b, "This report is a diagnostic estimation based on")
	fmt.Fprintln(&b, "inputs provided. Efficiency values are derived")
	fmt.Fprintln(&b, "from standard affinity laws.")
	fmt.Fprintf(&b, "Powered by AXIOM RE CORE | DB ID: %d\n", meta.GeneratedAt.Unix())
	fmt.Fprintln(&b, rule)

	return b.String()
}

// money formats a monetary amount rounded to whole units with comma grouping,
// e.g. 6774556.2 -> "6,774,556".
func money(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := fmt.Sprintf("%.0f", v)

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
		if len(s) > lead {
			b.WriteByte(',')
		}
	}
	for i := lead; i < len(s); i += 3 {
		b.WriteString(s[i : i+3])
		if i+3 < len(s) {
			b.WriteByte(',')
		}
	}
	return b.String()
}
