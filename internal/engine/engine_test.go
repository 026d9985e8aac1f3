package engine

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestDiagnose_CanonicalRegression(t *testing.T) {
	e := New(baseAsset())
	res, err := e.Diagnose(Reading{
		Voltage:     415,
		CurrentL1:   55,
		CurrentL2:   54,
		CurrentL3:   56,
		PressureBar: 4.2,
	})
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}

	if res.VoltageStatus != voltStatusStable {
		t.Errorf("VoltageStatus: got %q, want STABLE", res.VoltageStatus)
	}
	if !almostEqual(res.ImbalancePct, 1.818, 0.01) {
		t.Errorf("ImbalancePct: got %.3f, want 1.818", res.ImbalancePct)
	}
	if res.ImbalanceStatus != imbalanceStatusBalanced {
		t.Errorf("ImbalanceStatus: got %q, want BALANCED", res.ImbalanceStatus)
	}
	if !almostEqual(res.RealPowerKW, 33.604, 0.01) {
		t.Errorf("RealPowerKW: got %.3f, want 33.604", res.RealPowerKW)
	}
	if !almostEqual(res.LoadPct, 112.01, 0.05) {
		t.Errorf("LoadPct: got %.2f, want 112.01", res.LoadPct)
	}
	if !almostEqual(res.HeadM, 42.827, 0.01) {
		t.Errorf("HeadM: got %.3f, want 42.827", res.HeadM)
	}
	// Load past 105% → overload warning outranks the efficiency check.
	if res.Status != "WARNING: MOTOR OVERLOAD" {
		t.Errorf("Status: got %q, want WARNING: MOTOR OVERLOAD", res.Status)
	}
	if res.Severity != SeverityWarning {
		t.Errorf("Severity: got %v, want WARNING", res.Severity)
	}
	if !almostEqual(res.MonthlyCost, 6774556, 20) {
		t.Errorf("MonthlyCost: got %.0f, want ~6774556", res.MonthlyCost)
	}
	if !almostEqual(res.MonthlyCO2Tonnes, 9.678, 0.01) {
		t.Errorf("MonthlyCO2Tonnes: got %.3f, want 9.678", res.MonthlyCO2Tonnes)
	}
	// Wire-to-water closes at 60% (not below 50), so savings fall back to
	// the flat 25% fault heuristic.
	if !almostEqual(res.MonthlySavings, res.MonthlyCost*0.25, 1) {
		t.Errorf("MonthlySavings: got %.0f, want 25%% of cost", res.MonthlySavings)
	}
	if res.Currency != "Tsh" {
		t.Errorf("Currency: got %q, want Tsh", res.Currency)
	}
}

func TestDiagnose_DryRunForcesZeroFlow(t *testing.T) {
	e := New(baseAsset())
	for _, pressure := range []float64{0.5, 4.2, 9.5} {
		res, err := e.Diagnose(SinglePhase(415, 10, pressure))
		if err != nil {
			t.Fatalf("Diagnose: %v", err)
		}
		if res.LoadPct >= 30 {
			t.Fatalf("fixture broken: load %.1f%% not below 30", res.LoadPct)
		}
		if res.Status != "CRITICAL: DRY RUN DETECTED" {
			t.Errorf("Status at %.1f bar: got %q, want dry run", pressure, res.Status)
		}
		if res.Severity != SeverityCritical {
			t.Errorf("Severity: got %v, want CRITICAL", res.Severity)
		}
		if res.EstimatedFlowM3H != 0 {
			t.Errorf("EstimatedFlowM3H at %.1f bar: got %f, want exactly 0",
				pressure, res.EstimatedFlowM3H)
		}
	}
}

func TestDiagnose_DeadHead(t *testing.T) {
	// A small motor at high pressure with very low current: enough load to
	// rule out a dry run, but back-solved flow under 2 m³/h.
	e := New(AssetConfig{RatedPowerKW: 0.5, UnitCost: 280, CurrencySymbol: "Tsh"})
	res, err := e.Diagnose(SinglePhase(415, 0.6, 9.0))
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if res.EstimatedFlowM3H >= 2.0 {
		t.Fatalf("fixture broken: flow %.2f not below 2", res.EstimatedFlowM3H)
	}
	if res.Status != "WARNING: BLOCKAGE / DEAD-HEAD" {
		t.Errorf("Status: got %q, want dead-head warning (load %.1f%%)", res.Status, res.LoadPct)
	}
}

func TestDiagnose_Idempotent(t *testing.T) {
	e := New(baseAsset())
	r := Reading{Voltage: 415, CurrentL1: 55, CurrentL2: 54, CurrentL3: 56, PressureBar: 4.2}

	first, err := e.Diagnose(r)
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	second, err := e.Diagnose(r)
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated Diagnose diverged:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestDiagnose_RejectsNonFinite(t *testing.T) {
	e := New(baseAsset())
	bad := []Reading{
		{Voltage: math.NaN(), CurrentL1: 55, CurrentL2: 55, CurrentL3: 55, PressureBar: 4.2},
		{Voltage: 415, CurrentL1: math.Inf(1), CurrentL2: 55, CurrentL3: 55, PressureBar: 4.2},
		{Voltage: 415, CurrentL1: 55, CurrentL2: 55, CurrentL3: 55, PressureBar: math.Inf(-1)},
	}
	for i, r := range bad {
		if _, err := e.Diagnose(r); !errors.Is(err, ErrInvalidReading) {
			t.Errorf("case %d: got err %v, want ErrInvalidReading", i, err)
		}
	}
}

func TestDiagnose_ClampsUnstableInputs(t *testing.T) {
	// Non-positive rated power falls back to 1 kW.
	e := New(AssetConfig{RatedPowerKW: -30, UnitCost: 280})
	if e.Config().RatedPowerKW != 1.0 {
		t.Errorf("RatedPowerKW: got %f, want clamp to 1.0", e.Config().RatedPowerKW)
	}

	// Voltage under 1 V is floored to 1.0 before any division.
	res, err := e.Diagnose(SinglePhase(0, 10, 4.2))
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if res.InputVolts != 1.0 {
		t.Errorf("InputVolts: got %f, want 1.0", res.InputVolts)
	}
	if res.VoltageStatus != voltStatusUnder {
		t.Errorf("VoltageStatus: got %q, want under-voltage", res.VoltageStatus)
	}
	if math.IsNaN(res.ImbalancePct) || math.IsInf(res.LoadPct, 0) {
		t.Error("clamped inputs leaked a non-finite value into the result")
	}
}

func TestNormalize_ZeroValueGetsDefaults(t *testing.T) {
	// A zero AssetConfig from a direct library consumer still carries the
	// assumed constants — a zero CO2 factor means unset, not carbon-free.
	cfg := AssetConfig{}.Normalize()

	if cfg.CO2Factor != DefaultCO2Factor {
		t.Errorf("CO2Factor: got %f, want default %f", cfg.CO2Factor, DefaultCO2Factor)
	}
	if cfg.PowerFactor != DefaultPowerFactor {
		t.Errorf("PowerFactor: got %f, want default %f", cfg.PowerFactor, DefaultPowerFactor)
	}
	if cfg.HydraulicBaseline != DefaultHydraulicBaseline {
		t.Errorf("HydraulicBaseline: got %f, want default %f", cfg.HydraulicBaseline, DefaultHydraulicBaseline)
	}
	if cfg.OptimalMotorEff != DefaultOptimalMotorEff {
		t.Errorf("OptimalMotorEff: got %f, want default %f", cfg.OptimalMotorEff, DefaultOptimalMotorEff)
	}
	if cfg.RatedPowerKW != 1.0 {
		t.Errorf("RatedPowerKW: got %f, want clamp to 1.0", cfg.RatedPowerKW)
	}

	// The projection of a zero-config engine reports non-zero CO2.
	res, err := New(AssetConfig{}).Diagnose(SinglePhase(415, 10, 2))
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if res.MonthlyCO2Tonnes <= 0 {
		t.Errorf("MonthlyCO2Tonnes: got %f, want > 0", res.MonthlyCO2Tonnes)
	}
}

func TestDiagnose_PumpEffBounds(t *testing.T) {
	// Property: pump efficiency stays inside [0, 99.9] across a spread of
	// operating points.
	e := New(baseAsset())
	for _, amps := range []float64{0, 0.5, 5, 20, 40, 55, 80} {
		for _, bar := range []float64{0, 0.5, 1.5, 4.2, 9.0, 15} {
			res, err := e.Diagnose(SinglePhase(415, amps, bar))
			if err != nil {
				t.Fatalf("Diagnose(%f, %f): %v", amps, bar, err)
			}
			if res.PumpEffPct < 0 || res.PumpEffPct > maxPumpEffPct {
				t.Errorf("PumpEffPct out of range at %gA/%gbar: %f", amps, bar, res.PumpEffPct)
			}
			if res.ImbalancePct < 0 {
				t.Errorf("ImbalancePct negative at %gA/%gbar: %f", amps, bar, res.ImbalancePct)
			}
		}
	}
}

func TestSinglePhase_NoImbalance(t *testing.T) {
	e := New(baseAsset())
	res, err := e.Diagnose(SinglePhase(415, 55, 4.2))
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if res.ImbalancePct != 0 {
		t.Errorf("ImbalancePct: got %f, want 0 in single-phase mode", res.ImbalancePct)
	}
	if !almostEqual(res.AvgCurrent, 55, 1e-9) {
		t.Errorf("AvgCurrent: got %f, want 55", res.AvgCurrent)
	}
}
