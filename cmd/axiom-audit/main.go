// Command axiom-audit runs a single diagnostic audit from clamp-meter and
// gauge values entered on the command line and prints the field report.
// Intended for engineers on site without a running axiom-server.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/chachamwise/axiom-audit-global/internal/engine"
	"github.com/chachamwise/axiom-audit-global/internal/report"
)

func main() {
	var (
		ratedKW  = flag.Float64("rated-kw", 30, "motor nameplate rating in kW")
		unitCost = flag.Float64("unit-cost", 280, "energy tariff per kWh")
		currency = flag.String("currency", "Tsh", "currency symbol for the report")
		co2      = flag.Float64("co2-factor", engine.DefaultCO2Factor, "kg CO2 per kWh of grid energy")

		voltage  = flag.Float64("voltage", 400, "line voltage in volts")
		amps     = flag.Float64("amps", 0, "single clamp-meter amperage (quick-estimate mode)")
		l1       = flag.Float64("l1", 0, "phase L1 current in amps")
		l2       = flag.Float64("l2", 0, "phase L2 current in amps")
		l3       = flag.Float64("l3", 0, "phase L3 current in amps")
		pressure = flag.Float64("pressure", 0, "discharge gauge pressure in bar")
		pf       = flag.Float64("pf", 0, "measured power factor; 0 uses the assumed default")

		station  = flag.String("station", "FIELD-AUDIT", "station identifier for the report")
		engineer = flag.String("engineer", "Engineer", "auditor name for the report")
		pdfPath  = flag.String("pdf", "", "also write a PDF report to this path")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	var reading engine.Reading
	if *amps > 0 {
		reading = engine.SinglePhase(*voltage, *amps, *pressure)
	} else {
		reading = engine.Reading{
			Voltage:     *voltage,
			CurrentL1:   *l1,
			CurrentL2:   *l2,
			CurrentL3:   *l3,
			PressureBar: *pressure,
		}
	}
	reading.PowerFactor = *pf

	eng := engine.New(engine.AssetConfig{
		RatedPowerKW:   *ratedKW,
		UnitCost:       *unitCost,
		CurrencySymbol: *currency,
		CO2Factor:      *co2,
	})

	res, err := eng.Diagnose(reading)
	if err != nil {
		fmt.Fprintln(os.Stderr, "audit failed:", err)
		os.Exit(1)
	}

	meta := report.Meta{
		Station:     *station,
		Engineer:    *engineer,
		GeneratedAt: time.Now(),
	}
	fmt.Print(report.Text(res, meta))

	if *pdfPath != "" {
		data, err := report.PDF(res, meta)
		if err != nil {
			fmt.Fprintln(os.Stderr, "render pdf:", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*pdfPath, data, 0o644); err != nil {
			fmt.Fprintln(os.Stderr, "write pdf:", err)
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "pdf written to", *pdfPath)
	}
}
