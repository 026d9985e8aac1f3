// Package api exposes the audit fleet over a JSON REST surface: fleet
// rollups, per-station audits, rendered reports, active alerts, and an
// ad-hoc diagnose endpoint for manually entered gauge readings.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/chachamwise/axiom-audit-global/internal/alerts"
	"github.com/chachamwise/axiom-audit-global/internal/config"
	"github.com/chachamwise/axiom-audit-global/internal/engine"
	"github.com/chachamwise/axiom-audit-global/internal/report"
	"github.com/chachamwise/axiom-audit-global/internal/store"
)

// Handler is the HTTP handler for all /api/v1/* endpoints.
type Handler struct {
	store  *store.Store
	alerts *alerts.Engine // may be nil — alerts endpoint returns empty
	mux    *http.ServeMux

	mu       sync.RWMutex
	defaults engine.AssetConfig // fleet asset defaults for ad-hoc diagnoses
}

// New creates a Handler wired to the audit store and registers all routes.
// defaults are the fleet-wide asset constants applied to ad-hoc diagnose
// requests that do not override them.
func New(st *store.Store, al *alerts.Engine, defaults engine.AssetConfig) *Handler {
	h := &Handler{store: st, alerts: al, defaults: defaults.Normalize(), mux: http.NewServeMux()}

	h.mux.HandleFunc("/api/v1/health", h.health)
	h.mux.HandleFunc("/api/v1/stations", h.listStations)
	h.mux.HandleFunc("/api/v1/stations/", h.stationSubtree) // {id} and {id}/report
	h.mux.HandleFunc("/api/v1/diagnose", h.diagnose)
	h.mux.HandleFunc("/api/v1/alerts", h.listAlerts)
	h.mux.HandleFunc("/api/v1/snapshot", h.snapshot)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// SetDefaults swaps the fleet asset defaults, e.g. after a tariff hot-reload.
func (h *Handler) SetDefaults(cfg engine.AssetConfig) {
	h.mu.Lock()
	h.defaults = cfg.Normalize()
	h.mu.Unlock()
}

// Defaults returns the current fleet asset defaults.
func (h *Handler) Defaults() engine.AssetConfig {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.defaults
}

// --- route handlers ---------------------------------------------------------

// health returns GET /api/v1/health — fleet severity counts and cost totals.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	audits := h.store.List()
	resp := FleetHealthResponse{StationCount: len(audits)}
	for _, a := range audits {
		if a.Result == nil {
			resp.UnreachableCount++
			continue
		}
		switch a.Result.Severity {
		case engine.SeverityCritical:
			resp.CriticalCount++
		case engine.SeverityWarning:
			resp.WarningCount++
		default:
			resp.OptimalCount++
		}
		resp.TotalMonthlyCost += a.Result.MonthlyCost
		resp.TotalMonthlyWaste += a.Result.MonthlySavings
	}
	if h.alerts != nil {
		resp.AlertCount = len(h.alerts.Active())
	}
	jsonResp(w, http.StatusOK, resp)
}

// listStations returns GET /api/v1/stations — all live station audits.
func (h *Handler) listStations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	audits := h.store.List()
	out := make([]StationResponse, 0, len(audits))
	for _, a := range audits {
		out = append(out, toStationResponse(a))
	}
	jsonResp(w, http.StatusOK, out)
}

// stationSubtree routes GET /api/v1/stations/{id} and
// GET /api/v1/stations/{id}/report.
func (h *Handler) stationSubtree(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/stations/")
	if rest == "" {
		h.listStations(w, r)
		return
	}

	id, sub, _ := strings.Cut(rest, "/")
	a, ok := h.store.Get(id)
	if !ok || time.Since(a.UpdatedAt) > h.store.TTL() {
		jsonErr(w, http.StatusNotFound, "station not found")
		return
	}

	switch sub {
	case "":
		jsonResp(w, http.StatusOK, toStationResponse(a))
	case "report":
		h.stationReport(w, r, a)
	default:
		jsonErr(w, http.StatusNotFound, "not found")
	}
}

// stationReport renders the latest audit as a text or PDF report.
func (h *Handler) stationReport(w http.ResponseWriter, r *http.Request, a *store.Audit) {
	if a.Result == nil {
		jsonErr(w, http.StatusConflict, "no successful audit for station")
		return
	}

	meta := report.Meta{
		Station:     a.StationID,
		Engineer:    r.URL.Query().Get("engineer"),
		GeneratedAt: time.Now(),
	}
	if meta.Engineer == "" {
		meta.Engineer = "Engineer"
	}

	if r.URL.Query().Get("format") == "pdf" {
		pdf, err := report.PDF(a.Result, meta)
		if err != nil {
			jsonErr(w, http.StatusInternalServerError, "render pdf: "+err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", "AXIOM_AUDIT_"+a.StationID+".pdf"))
		_, _ = w.Write(pdf)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(report.Text(a.Result, meta)))
}

// diagnose handles POST /api/v1/diagnose — an ad-hoc audit over manually
// entered gauge readings, outside the polled station fleet.
func (h *Handler) diagnose(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req DiagnoseRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		jsonErr(w, http.StatusBadRequest, "invalid input: "+err.Error())
		return
	}

	asset := h.Defaults()
	if req.Asset != nil {
		asset = (config.Station{Asset: req.Asset}).AssetConfig(asset)
	}

	res, err := engine.New(asset).Diagnose(req.Reading)
	if err != nil {
		if errors.Is(err, engine.ErrInvalidReading) {
			jsonErr(w, http.StatusBadRequest, err.Error())
			return
		}
		jsonErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	jsonResp(w, http.StatusOK, res)
}

// listAlerts returns GET /api/v1/alerts — firing and recently resolved alerts.
func (h *Handler) listAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if h.alerts == nil {
		jsonResp(w, http.StatusOK, []struct{}{})
		return
	}
	jsonResp(w, http.StatusOK, h.alerts.Active())
}

// snapshot returns GET /api/v1/snapshot — full JSON dump of the live fleet.
func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, BuildSnapshot(h.store))
}

// BuildSnapshot assembles the full fleet snapshot. Shared with the WebSocket
// hub so REST and stream clients see identical payloads.
func BuildSnapshot(st *store.Store) SnapshotResponse {
	audits := st.List()
	stations := make([]StationResponse, 0, len(audits))
	for _, a := range audits {
		stations = append(stations, toStationResponse(a))
	}
	return SnapshotResponse{
		Stations:    stations,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}

// toStationResponse maps a store.Audit to its JSON representation.
func toStationResponse(a *store.Audit) StationResponse {
	resp := StationResponse{
		StationID: a.StationID,
		LastSeen:  a.UpdatedAt.UTC().Format(time.RFC3339),
		Error:     a.Err,
		Result:    a.Result,
	}
	if a.Result != nil {
		reading := a.Reading
		resp.Reading = &reading
	}
	return resp
}
