package meter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chachamwise/axiom-audit-global/internal/config"
)

// threePhaseExposition is what a fully instrumented station exporter serves.
const threePhaseExposition = `
# HELP pump_voltage_volts Line voltage at the motor terminals.
# TYPE pump_voltage_volts gauge
pump_voltage_volts 415

# HELP pump_phase_current_amps Per-phase motor current.
# TYPE pump_phase_current_amps gauge
pump_phase_current_amps{phase="l1"} 55
pump_phase_current_amps{phase="l2"} 54
pump_phase_current_amps{phase="l3"} 56

# HELP pump_discharge_pressure_bar Discharge gauge pressure.
# TYPE pump_discharge_pressure_bar gauge
pump_discharge_pressure_bar 4.2

# HELP pump_power_factor Measured power factor.
# TYPE pump_power_factor gauge
pump_power_factor 0.88
`

// singleClampExposition is a quick-estimate exporter with one clamp meter.
const singleClampExposition = `
pump_voltage_volts 230
pump_phase_current_amps 12.5
pump_discharge_pressure_bar 2.1
`

func serve(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newReader(t *testing.T, endpoint string) *Reader {
	t.Helper()
	r, err := New(config.Station{ID: "PUMP-001", Endpoint: endpoint})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func TestRead_ThreePhase(t *testing.T) {
	srv := serve(t, threePhaseExposition)
	s := newReader(t, srv.URL).Read(context.Background())

	if s.Err != nil {
		t.Fatalf("Read: %v", s.Err)
	}
	r := s.Reading
	if r.Voltage != 415 {
		t.Errorf("Voltage: got %f, want 415", r.Voltage)
	}
	if r.CurrentL1 != 55 || r.CurrentL2 != 54 || r.CurrentL3 != 56 {
		t.Errorf("phase currents: got (%f, %f, %f), want (55, 54, 56)",
			r.CurrentL1, r.CurrentL2, r.CurrentL3)
	}
	if r.PressureBar != 4.2 {
		t.Errorf("PressureBar: got %f, want 4.2", r.PressureBar)
	}
	if r.PowerFactor != 0.88 {
		t.Errorf("PowerFactor: got %f, want 0.88", r.PowerFactor)
	}
}

func TestRead_SingleClampReplicatesPhases(t *testing.T) {
	srv := serve(t, singleClampExposition)
	s := newReader(t, srv.URL).Read(context.Background())

	if s.Err != nil {
		t.Fatalf("Read: %v", s.Err)
	}
	r := s.Reading
	if r.CurrentL1 != 12.5 || r.CurrentL2 != 12.5 || r.CurrentL3 != 12.5 {
		t.Errorf("phase currents: got (%f, %f, %f), want 12.5 replicated",
			r.CurrentL1, r.CurrentL2, r.CurrentL3)
	}
	// No power factor series: zero, so the asset default applies downstream.
	if r.PowerFactor != 0 {
		t.Errorf("PowerFactor: got %f, want 0", r.PowerFactor)
	}
}

func TestRead_MissingVoltage(t *testing.T) {
	srv := serve(t, `pump_phase_current_amps{phase="l1"} 55`)
	s := newReader(t, srv.URL).Read(context.Background())
	if s.Err == nil {
		t.Fatal("Read: expected error for missing voltage series")
	}
}

func TestRead_MissingCurrents(t *testing.T) {
	srv := serve(t, `pump_voltage_volts 415`)
	s := newReader(t, srv.URL).Read(context.Background())
	if s.Err == nil {
		t.Fatal("Read: expected error for missing current series")
	}
}

func TestRead_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := newReader(t, srv.URL).Read(context.Background())
	if s.Err == nil {
		t.Fatal("Read: expected error for HTTP 500")
	}
	if s.StationID != "PUMP-001" {
		t.Errorf("StationID on failure: got %q, want PUMP-001", s.StationID)
	}
}

func TestRead_Unreachable(t *testing.T) {
	s := newReader(t, "http://127.0.0.1:1/metrics").Read(context.Background())
	if s.Err == nil {
		t.Fatal("Read: expected error for unreachable endpoint")
	}
	if s.Reading.Voltage != 0 {
		t.Errorf("Reading must stay zero-valued on failure, got voltage %f", s.Reading.Voltage)
	}
}

func TestRead_APIKeyHeader(t *testing.T) {
	t.Setenv("METER_KEY", "s3cret")

	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		_, _ = w.Write([]byte(threePhaseExposition))
	}))
	defer srv.Close()

	r, err := New(config.Station{
		ID:       "PUMP-001",
		Endpoint: srv.URL,
		Auth:     config.AuthConfig{Mode: "apikey", KeyEnv: "METER_KEY"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s := r.Read(context.Background()); s.Err != nil {
		t.Fatalf("Read: %v", s.Err)
	}
	if gotKey != "s3cret" {
		t.Errorf("x-api-key: got %q, want s3cret", gotKey)
	}
}
