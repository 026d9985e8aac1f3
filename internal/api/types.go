package api

import "github.com/chachamwise/axiom-audit-global/internal/engine"

// FleetHealthResponse is the payload for GET /api/v1/health.
type FleetHealthResponse struct {
	StationCount      int     `json:"station_count"`
	OptimalCount      int     `json:"optimal_count"`
	WarningCount      int     `json:"warning_count"`
	CriticalCount     int     `json:"critical_count"`
	UnreachableCount  int     `json:"unreachable_count"`
	TotalMonthlyCost  float64 `json:"total_monthly_cost"`
	TotalMonthlyWaste float64 `json:"total_monthly_waste"`
	AlertCount        int     `json:"alert_count"`
}

// StationResponse is one station entry in GET /api/v1/stations or
// GET /api/v1/stations/{id}.
type StationResponse struct {
	StationID string          `json:"station_id"`
	LastSeen  string          `json:"last_seen"` // RFC3339
	Error     string          `json:"error,omitempty"`
	Reading   *engine.Reading `json:"reading,omitempty"`
	Result    *engine.Result  `json:"result,omitempty"`
}

// SnapshotResponse is the payload for GET /api/v1/snapshot and the WebSocket
// broadcast body.
type SnapshotResponse struct {
	Stations    []StationResponse `json:"stations"`
	GeneratedAt string            `json:"generated_at"` // RFC3339
}

// DiagnoseRequest is the body of POST /api/v1/diagnose: one ad-hoc set of
// gauge readings, with optional overrides of the fleet asset defaults.
type DiagnoseRequest struct {
	Asset   *engine.AssetConfig `json:"asset,omitempty"`
	Reading engine.Reading      `json:"reading"`
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
