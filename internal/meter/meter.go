// Package meter acquires gauge readings from field meter exporters. Each
// station exposes its voltage, phase currents, discharge pressure and power
// factor as a Prometheus text exposition; Read fetches and maps that into an
// engine.Reading. The poller in cmd/axiom-server feeds the result straight
// into the diagnostic engine.
package meter

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/chachamwise/axiom-audit-global/internal/config"
	"github.com/chachamwise/axiom-audit-global/internal/engine"
)

const defaultReadTimeout = 10 * time.Second

// Canonical metric names a station exporter publishes. Phase currents carry
// a "phase" label with values l1/l2/l3; an exporter wired to a single clamp
// meter may publish one unlabelled series instead, which is replicated
// across all three slots (quick-estimate mode).
const (
	MetricVoltage      = "pump_voltage_volts"
	MetricPhaseCurrent = "pump_phase_current_amps"
	MetricPressure     = "pump_discharge_pressure_bar"
	MetricPowerFactor  = "pump_power_factor"
)

// Sample is the outcome of one poll of a station exporter.
type Sample struct {
	StationID string
	ReadAt    time.Time
	Reading   engine.Reading

	// Err is non-nil if the poll failed (connectivity, auth, parse, or a
	// missing voltage series). The station is reported unreachable; the
	// engine is never invoked on a partial reading.
	Err error
}

// Reader polls one station's meter exporter. The HTTP client is built once
// and reused across polls.
type Reader struct {
	station config.Station
	client  *http.Client
}

// New builds a Reader for the given station configuration.
func New(st config.Station) (*Reader, error) {
	client, err := buildHTTPClient(st)
	if err != nil {
		return nil, fmt.Errorf("meter %q: build http client: %w", st.ID, err)
	}
	return &Reader{station: st, client: client}, nil
}

// Read fetches the exporter and maps the gauge families into a Reading.
// A failed poll is reported through Sample.Err, never as a panic or a
// half-filled reading.
func (r *Reader) Read(ctx context.Context) *Sample {
	s := &Sample{StationID: r.station.ID, ReadAt: time.Now().UTC()}

	mfs, err := fetchMetrics(ctx, r.client, r.station.Endpoint)
	if err != nil {
		s.Err = fmt.Errorf("meter poll %q: %w", r.station.ID, err)
		return s
	}

	voltage, ok := gaugeValue(mfs[MetricVoltage])
	if !ok {
		s.Err = fmt.Errorf("meter poll %q: exporter is missing %s", r.station.ID, MetricVoltage)
		return s
	}

	i1, i2, i3, ok := phaseCurrents(mfs[MetricPhaseCurrent])
	if !ok {
		s.Err = fmt.Errorf("meter poll %q: exporter is missing %s", r.station.ID, MetricPhaseCurrent)
		return s
	}

	pressure, _ := gaugeValue(mfs[MetricPressure]) // absent → 0 bar, engine handles it
	pf, _ := gaugeValue(mfs[MetricPowerFactor])    // absent → asset default applies

	s.Reading = engine.Reading{
		Voltage:     voltage,
		CurrentL1:   i1,
		CurrentL2:   i2,
		CurrentL3:   i3,
		PressureBar: pressure,
		PowerFactor: pf,
	}
	return s
}

// phaseCurrents extracts the three per-phase series by their "phase" label.
// A single unlabelled series is replicated across all three slots.
func phaseCurrents(mf *dto.MetricFamily) (i1, i2, i3 float64, ok bool) {
	if mf == nil || len(mf.GetMetric()) == 0 {
		return 0, 0, 0, false
	}

	byPhase := make(map[string]float64, 3)
	var unlabelled float64
	var sawUnlabelled bool

	for _, m := range mf.GetMetric() {
		v := metricValue(m)
		phase := ""
		for _, lp := range m.GetLabel() {
			if lp.GetName() == "phase" {
				phase = lp.GetValue()
			}
		}
		if phase == "" {
			unlabelled = v
			sawUnlabelled = true
			continue
		}
		byPhase[phase] = v
	}

	if len(byPhase) > 0 {
		return byPhase["l1"], byPhase["l2"], byPhase["l3"], true
	}
	if sawUnlabelled {
		return unlabelled, unlabelled, unlabelled, true
	}
	return 0, 0, 0, false
}

// gaugeValue returns the first gauge/counter/untyped value in a family.
func gaugeValue(mf *dto.MetricFamily) (float64, bool) {
	if mf == nil || len(mf.GetMetric()) == 0 {
		return 0, false
	}
	return metricValue(mf.GetMetric()[0]), true
}

func metricValue(m *dto.Metric) float64 {
	switch {
	case m.Gauge != nil:
		return m.Gauge.GetValue()
	case m.Counter != nil:
		return m.Counter.GetValue()
	case m.Untyped != nil:
		return m.Untyped.GetValue()
	default:
		return 0
	}
}

// authRoundTripper injects authentication headers into every outgoing request.
type authRoundTripper struct {
	base http.RoundTripper
	auth config.AuthConfig
}

func (t *authRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	switch t.auth.Mode {
	case "apikey":
		req = req.Clone(req.Context())
		req.Header.Set(t.auth.EffectiveHeader(), t.auth.Key())
	case "bearer":
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+t.auth.Token())
	case "basic":
		req = req.Clone(req.Context())
		req.SetBasicAuth(t.auth.Username, t.auth.Password())
	}
	return t.base.RoundTrip(req)
}

// buildHTTPClient constructs an http.Client for the station's auth and TLS settings.
func buildHTTPClient(st config.Station) (*http.Client, error) {
	tlsCfg := &tls.Config{
		InsecureSkipVerify: st.TLS.InsecureSkipVerify, //nolint:gosec // user-configured
	}

	if st.TLS.CAFile != "" {
		caPEM, err := os.ReadFile(st.TLS.CAFile)
		if err != nil {
			return nil, fmt.Errorf("read ca file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caPEM) {
			return nil, fmt.Errorf("no valid certs found in ca file %q", st.TLS.CAFile)
		}
		tlsCfg.RootCAs = pool
	}

	transport := &authRoundTripper{
		base: &http.Transport{TLSClientConfig: tlsCfg},
		auth: st.Auth,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   defaultReadTimeout,
	}, nil
}

// fetchMetrics performs an HTTP GET to url and returns parsed metric families.
func fetchMetrics(ctx context.Context, client *http.Client, url string) (map[string]*dto.MetricFamily, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", string(expfmt.NewFormat(expfmt.TypeTextPlain)))

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return parseMetrics(resp.Body)
}

// parseMetrics decodes a Prometheus text exposition from r into metric families.
// A partial result with a non-fatal parse warning is still returned successfully.
func parseMetrics(r io.Reader) (map[string]*dto.MetricFamily, error) {
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(r)
	if err != nil && len(mfs) == 0 {
		return nil, fmt.Errorf("parse exposition: %w", err)
	}
	return mfs, nil
}
