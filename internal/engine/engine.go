package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
)

// Default values applied by Normalize when a field is unset or out of range.
const (
	DefaultPowerFactor       = 0.85
	DefaultCO2Factor         = 0.4
	DefaultHydraulicBaseline = 0.60
	DefaultOptimalMotorEff   = 0.92
)

// ErrInvalidReading is returned by Diagnose when a reading carries a NaN or
// infinite value. Range problems (negative pressure, zero voltage) are
// clamped instead — only non-finite inputs are rejected.
var ErrInvalidReading = errors.New("engine: reading contains non-finite values")

// AssetConfig holds the per-session asset constants. It is read-only after
// the Engine is constructed.
type AssetConfig struct {
	// RatedPowerKW is the motor nameplate rating. Values <= 0 are clamped
	// to 1.0 to keep the load estimate stable.
	RatedPowerKW float64 `yaml:"rated_power_kw" json:"rated_power_kw"`

	// UnitCost is the energy tariff in CurrencySymbol per kWh.
	UnitCost float64 `yaml:"unit_cost" json:"unit_cost"`

	// CurrencySymbol is display-only and copied into every Result.
	CurrencySymbol string `yaml:"currency_symbol" json:"currency_symbol"`

	// CO2Factor is kg CO2 per kWh of grid energy. Zero means unset and
	// Normalize substitutes the 0.4 default; a genuinely carbon-free supply
	// is expressed with a negligible positive value.
	CO2Factor float64 `yaml:"co2_factor" json:"co2_factor"`

	// PowerFactor is the assumed (not measured) motor power factor, used
	// when a reading does not carry its own.
	PowerFactor float64 `yaml:"power_factor" json:"power_factor"`

	// HydraulicBaseline is the assumed overall wire-to-water efficiency of
	// a healthy centrifugal installation. It is used only to back-solve
	// flow from input power and to price the optimal operating point —
	// never reported as a measured figure.
	HydraulicBaseline float64 `yaml:"hydraulic_baseline" json:"hydraulic_baseline"`

	// OptimalMotorEff is the motor efficiency ceiling assumed when pricing
	// the optimal operating point in the savings projection.
	OptimalMotorEff float64 `yaml:"optimal_motor_eff" json:"optimal_motor_eff"`
}

// Normalize returns a copy with defaults filled in and unstable values
// clamped. A non-positive rated power becomes 1.0; a negative tariff becomes
// its absolute value; non-positive tunables take their defaults.
func (c AssetConfig) Normalize() AssetConfig {
	if c.RatedPowerKW <= 0 {
		slog.Debug("engine: rated power clamped", "rated_kw", c.RatedPowerKW)
		c.RatedPowerKW = 1.0
	}
	c.UnitCost = math.Abs(c.UnitCost)
	if c.CO2Factor <= 0 {
		c.CO2Factor = DefaultCO2Factor
	}
	if c.PowerFactor <= 0 {
		c.PowerFactor = DefaultPowerFactor
	}
	if c.HydraulicBaseline <= 0 {
		c.HydraulicBaseline = DefaultHydraulicBaseline
	}
	if c.OptimalMotorEff <= 0 {
		c.OptimalMotorEff = DefaultOptimalMotorEff
	}
	return c
}

// Reading is one set of live gauge measurements.
type Reading struct {
	// Voltage is the line voltage in volts. Values below 1 are floored to
	// 1.0 before any division.
	Voltage float64 `json:"voltage" yaml:"voltage"`

	CurrentL1 float64 `json:"current_l1" yaml:"current_l1"`
	CurrentL2 float64 `json:"current_l2" yaml:"current_l2"`
	CurrentL3 float64 `json:"current_l3" yaml:"current_l3"`

	// PressureBar is the discharge gauge pressure in bar.
	PressureBar float64 `json:"pressure_bar" yaml:"pressure_bar"`

	// PowerFactor overrides the asset's assumed power factor when > 0.
	PowerFactor float64 `json:"power_factor,omitempty" yaml:"power_factor"`
}

// SinglePhase builds a Reading for quick-estimate mode: one clamp-meter
// amperage replicated across all three phase slots, so the imbalance check
// degenerates to zero.
func SinglePhase(voltage, amps, pressureBar float64) Reading {
	return Reading{
		Voltage:     voltage,
		CurrentL1:   amps,
		CurrentL2:   amps,
		CurrentL3:   amps,
		PressureBar: pressureBar,
	}
}

// Result is the flat audit record. Every field is derived from exactly one
// (AssetConfig, Reading) pair; a Result has no identity or mutation path
// after it is returned.
type Result struct {
	// Electrical health.
	RealPowerKW     float64  `json:"real_power_kw"`
	LoadPct         float64  `json:"load_pct"`
	VoltageStatus   string   `json:"voltage_status"`
	ImbalanceStatus string   `json:"imbalance_status"`
	ImbalancePct    float64  `json:"imbalance_pct"`
	AvgCurrent      float64  `json:"avg_current"`
	InputVolts      float64  `json:"input_volts"`

	// Hydraulic estimate.
	HeadM            float64 `json:"head_m"`
	EstimatedFlowM3H float64 `json:"estimated_flow_m3h"`

	// Efficiency decoupling.
	MotorEffPct float64 `json:"motor_eff_pct"`
	PumpEffPct  float64 `json:"pump_eff_pct"`
	TotalEffPct float64 `json:"total_eff_pct"`

	// Diagnosis.
	Status   string   `json:"status"`
	Reason   string   `json:"reason"`
	Severity Severity `json:"severity"`

	// Financial projection.
	MonthlyCost      float64 `json:"monthly_cost"`
	MonthlyCO2Tonnes float64 `json:"monthly_co2_tonnes"`
	MonthlySavings   float64 `json:"monthly_savings"`
	Currency         string  `json:"currency"`
}

// Engine is the configured diagnostic pipeline. It holds only the immutable
// asset constants, so a single Engine may be shared across goroutines.
type Engine struct {
	cfg AssetConfig
}

// New returns an Engine for the given asset. The config is normalized once
// here; the copy held by the Engine never changes afterwards.
func New(cfg AssetConfig) *Engine {
	return &Engine{cfg: cfg.Normalize()}
}

// Config returns the normalized asset constants the Engine was built with.
func (e *Engine) Config() AssetConfig { return e.cfg }

// Diagnose runs the full audit pipeline on one reading. Identical inputs
// always produce bit-identical results.
func (e *Engine) Diagnose(r Reading) (*Result, error) {
	if err := checkFinite(r); err != nil {
		return nil, err
	}

	pf := r.PowerFactor
	if pf <= 0 {
		pf = e.cfg.PowerFactor
	}
	voltage := r.Voltage
	if voltage < 1 {
		slog.Debug("engine: voltage floored", "voltage", r.Voltage)
		voltage = 1.0
	}

	elec := AnalyzeElectrical(voltage, r.CurrentL1, r.CurrentL2, r.CurrentL3)
	hyd := estimateHydraulics(e.cfg, voltage, elec.AvgCurrent, r.PressureBar, pf)

	diag := classify(ruleInput{
		VoltageStatus:     elec.VoltageStatus,
		VoltageSeverity:   elec.VoltageSeverity,
		ImbalanceSeverity: elec.ImbalanceSeverity,
		LoadPct:           hyd.LoadPct,
		PressureBar:       r.PressureBar,
		FlowM3H:           hyd.FlowM3H,
		PumpEffPct:        hyd.PumpEffPct,
	})

	flow := hyd.FlowM3H
	if diag.ZeroFlow {
		// A dry-running pump moves no fluid regardless of the curve fit.
		flow = 0
	}

	fin := projectFinancials(e.cfg, hyd.RealPowerKW, hyd.HydraulicKW, hyd.TotalEffPct, diag.Severity)

	return &Result{
		RealPowerKW:      hyd.RealPowerKW,
		LoadPct:          hyd.LoadPct,
		VoltageStatus:    elec.VoltageStatus,
		ImbalanceStatus:  elec.ImbalanceStatus,
		ImbalancePct:     elec.ImbalancePct,
		AvgCurrent:       elec.AvgCurrent,
		InputVolts:       voltage,
		HeadM:            hyd.HeadM,
		EstimatedFlowM3H: flow,
		MotorEffPct:      hyd.MotorEff * 100,
		PumpEffPct:       hyd.PumpEffPct,
		TotalEffPct:      hyd.TotalEffPct,
		Status:           diag.Status,
		Reason:           diag.Reason,
		Severity:         diag.Severity,
		MonthlyCost:      fin.MonthlyCost,
		MonthlyCO2Tonnes: fin.MonthlyCO2Tonnes,
		MonthlySavings:   fin.MonthlySavings,
		Currency:         e.cfg.CurrencySymbol,
	}, nil
}

// checkFinite rejects readings that would poison the numeric pipeline.
func checkFinite(r Reading) error {
	fields := map[string]float64{
		"voltage":      r.Voltage,
		"current_l1":   r.CurrentL1,
		"current_l2":   r.CurrentL2,
		"current_l3":   r.CurrentL3,
		"pressure_bar": r.PressureBar,
		"power_factor": r.PowerFactor,
	}
	for name, v := range fields {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s", ErrInvalidReading, name)
		}
	}
	return nil
}
