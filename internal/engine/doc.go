// Package engine is the diagnostic core: it turns a handful of field-gauge
// readings (line voltage, per-phase current, discharge pressure) plus the
// asset's nameplate constants into a structured pump health audit.
//
// electrical.go classifies grid quality and phase balance. hydraulic.go
// back-solves flow from electrical input power and decouples motor efficiency
// from wet-end efficiency using an IEC-style load curve. rules.go holds the
// ordered first-match fault rule list. financial.go projects monthly energy
// cost, CO2 and recoverable waste.
//
// Diagnose is a pure function of (AssetConfig, Reading): no I/O, no retained
// state, safe to call concurrently. Malformed numeric inputs are clamped to
// documented fallbacks rather than rejected, so a bad gauge reading still
// produces a plausible audit in the field.
package engine
