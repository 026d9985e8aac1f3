package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chachamwise/axiom-audit-global/internal/alerts"
	"github.com/chachamwise/axiom-audit-global/internal/api"
	"github.com/chachamwise/axiom-audit-global/internal/auth"
	"github.com/chachamwise/axiom-audit-global/internal/config"
	"github.com/chachamwise/axiom-audit-global/internal/engine"
	"github.com/chachamwise/axiom-audit-global/internal/meter"
	"github.com/chachamwise/axiom-audit-global/internal/metrics"
	"github.com/chachamwise/axiom-audit-global/internal/store"
	"github.com/chachamwise/axiom-audit-global/internal/ws"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("axiom-server starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	slog.Info("config loaded",
		"http_port", cfg.Server.HTTPPort,
		"auth_mode", cfg.Server.Auth.Mode,
		"audit_ttl", cfg.Server.Audit.TTL,
		"stations", len(cfg.Stations),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Audit store with background TTL eviction.
	st := store.New(cfg.Server.Audit.TTL)
	go st.Run(ctx)

	// Alerts engine — evaluates rules on every completed poll.
	alertEngine := alerts.New(cfg.Server.Alerts)

	// Prometheus re-export of the latest audit per station.
	collector := metrics.NewCollector()

	handler := api.New(st, alertEngine, cfg.Asset)

	// Build one poller per station from the initial config.
	// Hot-reload updates tariff defaults only; rebuilding pollers on reload is
	// a future phase.
	var pollers []poller
	for _, stn := range cfg.Stations {
		rd, err := meter.New(stn)
		if err != nil {
			slog.Error("skipping station — could not build reader", "station", stn.ID, "err", err)
			continue
		}
		pollers = append(pollers, poller{
			station: stn,
			reader:  rd,
			engine:  engine.New(stn.AssetConfig(cfg.Asset)),
		})
		slog.Info("registered station",
			"id", stn.ID,
			"endpoint", stn.Endpoint,
			"poll_interval", stn.PollInterval,
		)
	}

	if len(pollers) == 0 {
		slog.Warn("no stations configured — server will serve ad-hoc diagnoses only")
	}

	// Watch config file for hot-reload of the fleet asset defaults (tariff,
	// CO2 factor). Applies to ad-hoc diagnoses; running pollers keep their
	// startup config.
	go func() {
		if err := config.Watch(ctx, *configPath, func(updated *config.Config) {
			handler.SetDefaults(updated.Asset)
			slog.Info("config hot-reloaded",
				"unit_cost", updated.Asset.UnitCost,
				"currency", updated.Asset.CurrencySymbol,
			)
		}); err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
	}()

	// Poll loop per station: read the meter, run the audit, store and fan out.
	for _, p := range pollers {
		p := p
		go pollLoop(ctx, p, st, alertEngine, collector)
	}

	// WebSocket hub — pushes the fleet snapshot to dashboards every 5 seconds.
	hub := ws.New(st, 5*time.Second)
	go hub.Run(ctx)

	// Combined HTTP server: REST API + WebSocket hub + Prometheus re-export.
	authWrap := func(h http.Handler) http.Handler {
		return auth.APIKeyMiddleware(
			cfg.Server.Auth.Mode,
			cfg.Server.Auth.EffectiveHeader(),
			cfg.Server.Auth.Key(),
			h,
		)
	}
	httpMux := http.NewServeMux()
	httpMux.Handle("/api/", authWrap(handler))
	httpMux.Handle("/ws/stream", authWrap(hub))
	httpMux.Handle("/metrics", collector.Handler())

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler: httpMux,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
		}
	}()

	<-ctx.Done()
	slog.Info("axiom-server shutting down")
	httpSrv.Shutdown(context.Background()) //nolint:errcheck
}

// poller ties one station's meter reader to its configured engine.
type poller struct {
	station config.Station
	reader  *meter.Reader
	engine  *engine.Engine
}

// pollLoop audits one station forever: once immediately, so the fleet view is
// populated at startup rather than after the first full interval, then on
// every tick. Blocks until ctx is cancelled.
func pollLoop(ctx context.Context, p poller, st *store.Store, alertEngine *alerts.Engine, collector *metrics.Collector) {
	poll := func() {
		audit := runPoll(ctx, p.station.ID, p.reader, p.engine, collector)
		st.Put(audit)
		alertEngine.Evaluate(audit)
	}
	poll()

	ticker := time.NewTicker(p.station.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			poll()
		}
	}
}

// runPoll reads one station and turns the sample into a stored audit.
func runPoll(ctx context.Context, stationID string, rd *meter.Reader, eng *engine.Engine, collector *metrics.Collector) *store.Audit {
	sample := rd.Read(ctx)
	if sample.Err != nil {
		slog.Warn("station poll failed", "station", stationID, "err", sample.Err)
		collector.PollError(stationID)
		return &store.Audit{StationID: stationID, Err: sample.Err.Error()}
	}

	res, err := eng.Diagnose(sample.Reading)
	if err != nil {
		slog.Warn("audit rejected reading", "station", stationID, "err", err)
		collector.PollError(stationID)
		return &store.Audit{StationID: stationID, Reading: sample.Reading, Err: err.Error()}
	}

	collector.Update(stationID, res)
	slog.Debug("station audited",
		"station", stationID,
		"status", res.Status,
		"severity", res.Severity.String(),
		"load_pct", res.LoadPct,
	)
	return &store.Audit{StationID: stationID, Reading: sample.Reading, Result: res}
}
