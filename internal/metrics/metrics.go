// Package metrics re-exports the latest audit per station as Prometheus
// gauges, so the fleet can feed an existing Prometheus/Grafana installation
// alongside the REST API.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chachamwise/axiom-audit-global/internal/engine"
)

const namespace = "axiom"

// Collector holds one gauge per audited quantity, labelled by station.
type Collector struct {
	registry *prometheus.Registry

	realPowerKW  *prometheus.GaugeVec
	loadPct      *prometheus.GaugeVec
	imbalancePct *prometheus.GaugeVec
	headM        *prometheus.GaugeVec
	flowM3H      *prometheus.GaugeVec
	motorEffPct  *prometheus.GaugeVec
	pumpEffPct   *prometheus.GaugeVec
	totalEffPct  *prometheus.GaugeVec
	monthlyCost  *prometheus.GaugeVec
	monthlyCO2   *prometheus.GaugeVec
	monthlyWaste *prometheus.GaugeVec
	severity     *prometheus.GaugeVec
	pollErrors   *prometheus.CounterVec
}

// NewCollector creates and registers all fleet gauges on a private registry.
func NewCollector() *Collector {
	labels := []string{"station"}
	gauge := func(name, help string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, labels)
	}

	c := &Collector{
		registry:     prometheus.NewRegistry(),
		realPowerKW:  gauge("real_power_kw", "Real input power [kW]"),
		loadPct:      gauge("load_pct", "Motor load factor [%]"),
		imbalancePct: gauge("imbalance_pct", "Phase current imbalance [%]"),
		headM:        gauge("head_m", "Discharge head [m]"),
		flowM3H:      gauge("estimated_flow_m3h", "Estimated flow rate [m3/h]"),
		motorEffPct:  gauge("motor_eff_pct", "Estimated motor efficiency [%]"),
		pumpEffPct:   gauge("pump_eff_pct", "Calculated pump efficiency [%]"),
		totalEffPct:  gauge("total_eff_pct", "Wire-to-water efficiency [%]"),
		monthlyCost:  gauge("monthly_cost", "Projected monthly energy cost [currency units]"),
		monthlyCO2:   gauge("monthly_co2_tonnes", "Projected monthly CO2 emissions [tonnes]"),
		monthlyWaste: gauge("monthly_savings", "Projected recoverable monthly waste [currency units]"),
		severity:     gauge("severity", "Diagnosis severity (0=normal, 1=warning, 2=critical)"),
		pollErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_errors_total",
			Help:      "Total failed station polls",
		}, labels),
	}

	c.registry.MustRegister(
		c.realPowerKW, c.loadPct, c.imbalancePct,
		c.headM, c.flowM3H,
		c.motorEffPct, c.pumpEffPct, c.totalEffPct,
		c.monthlyCost, c.monthlyCO2, c.monthlyWaste,
		c.severity, c.pollErrors,
	)
	return c
}

// Update sets all gauges for the station from a completed audit.
func (c *Collector) Update(stationID string, res *engine.Result) {
	if res == nil {
		return
	}
	l := prometheus.Labels{"station": stationID}
	c.realPowerKW.With(l).Set(res.RealPowerKW)
	c.loadPct.With(l).Set(res.LoadPct)
	c.imbalancePct.With(l).Set(res.ImbalancePct)
	c.headM.With(l).Set(res.HeadM)
	c.flowM3H.With(l).Set(res.EstimatedFlowM3H)
	c.motorEffPct.With(l).Set(res.MotorEffPct)
	c.pumpEffPct.With(l).Set(res.PumpEffPct)
	c.totalEffPct.With(l).Set(res.TotalEffPct)
	c.monthlyCost.With(l).Set(res.MonthlyCost)
	c.monthlyCO2.With(l).Set(res.MonthlyCO2Tonnes)
	c.monthlyWaste.With(l).Set(res.MonthlySavings)
	c.severity.With(l).Set(float64(res.Severity))
}

// PollError increments the failed poll counter for the station.
func (c *Collector) PollError(stationID string) {
	c.pollErrors.With(prometheus.Labels{"station": stationID}).Inc()
}

// Handler returns the /metrics HTTP handler for the collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
