package engine

import "math"

// Physical conversion constants.
const (
	barToMetersHead = 10.197 // 1 bar of gauge pressure as meters of water column
	gravity         = 9.81   // m/s²
)

// IEC-style asynchronous motor efficiency bands by load percentage.
// Efficiency drops off sharply below 50% load and slightly past nameplate.
const (
	motorEffLowLoad  = 0.85 // load < 50%
	motorEffOverload = 0.89 // load > 110%
	motorEffNominal  = 0.92
)

// Guard thresholds for the near-zero denominators in the estimation chain.
const (
	minHeadForFlow  = 1.0 // meters; below this, back-solved flow is meaningless
	minShaftPowerKW = 0.1 // below this, pump efficiency reads as noise
	maxPumpEffPct   = 99.9
)

var sqrt3 = math.Sqrt(3)

// hydraulics is the output of the layered estimation chain. Each field feeds
// the next step; none of these quantities is independently measured.
type hydraulics struct {
	RealPowerKW float64 // electrical input power at the wire
	LoadPct     float64 // average current vs. estimated full-load current
	HeadM       float64 // discharge pressure as meters of water
	FlowM3H     float64 // back-solved flow, m³/h
	MotorEff    float64 // 0–1, from the load band
	ShaftKW     float64 // power reaching the pump wet end
	HydraulicKW float64 // water power actually delivered
	PumpEffPct  float64 // wet-end efficiency, clamped to 99.9
	TotalEffPct float64 // wire-to-water efficiency
}

// estimateHydraulics runs the ordered estimation chain: input power, motor
// load, head, flow, motor efficiency, shaft power, water power, and the two
// efficiency figures. Every division has an explicit guard that substitutes
// zero instead of propagating NaN or Inf.
func estimateHydraulics(cfg AssetConfig, voltage, avgAmps, pressureBar, pf float64) hydraulics {
	var h hydraulics

	// 1. Three-phase real input power: P = V * I * PF * sqrt(3).
	h.RealPowerKW = voltage * avgAmps * pf * sqrt3 / 1000

	// 2. Motor load vs. estimated full-load current at this voltage and PF.
	ratedAmps := cfg.RatedPowerKW * 1000 / (voltage * sqrt3 * pf)
	if ratedAmps > 0 {
		h.LoadPct = avgAmps / ratedAmps * 100
	}

	// 3. Head from gauge pressure.
	h.HeadM = pressureBar * barToMetersHead

	// 4. Back-solve flow assuming the configured baseline wire-to-water
	// efficiency of a healthy installation. Not valid below ~1 m of head.
	if h.HeadM > minHeadForFlow {
		h.FlowM3H = h.RealPowerKW * cfg.HydraulicBaseline * 3600 / (h.HeadM * gravity)
	}

	// 5. Motor efficiency from the load band.
	switch {
	case h.LoadPct < 50:
		h.MotorEff = motorEffLowLoad
	case h.LoadPct > 110:
		h.MotorEff = motorEffOverload
	default:
		h.MotorEff = motorEffNominal
	}

	// 6–7. Shaft power and hydraulic (water) power.
	h.ShaftKW = h.RealPowerKW * h.MotorEff
	h.HydraulicKW = h.FlowM3H * h.HeadM * gravity / 3600

	// 8. Wet-end efficiency, only meaningful above the shaft power floor.
	if h.ShaftKW > minShaftPowerKW {
		h.PumpEffPct = math.Min(maxPumpEffPct, h.HydraulicKW/h.ShaftKW*100)
	}

	// 9. Wire-to-water efficiency.
	if h.RealPowerKW > 0 {
		h.TotalEffPct = h.HydraulicKW / h.RealPowerKW * 100
	}

	return h
}
