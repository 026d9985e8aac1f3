// Package alerts evaluates threshold rules against every stored audit and
// notifies field operators over webhooks when a station trips one — the
// escalation path for faults that need a person at the station, not just a
// dashboard entry.
package alerts

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/chachamwise/axiom-audit-global/internal/config"
	"github.com/chachamwise/axiom-audit-global/internal/store"
)

const (
	defaultCooldown   = 15 * time.Minute
	maxHistoryLen     = 200
	recentWindowHours = 1
)

// Alert represents a single alert event produced by the rule engine.
type Alert struct {
	ID         string     `json:"id"`
	RuleName   string     `json:"rule_name"`
	StationID  string     `json:"station_id"`
	Severity   string     `json:"severity"`
	Message    string     `json:"message"`
	Value      float64    `json:"value"`
	FiredAt    time.Time  `json:"fired_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	State      string     `json:"state"` // "firing" | "resolved"
}

// Engine evaluates alert rules against incoming audits and delivers webhook
// notifications when rules fire or resolve.
//
// Engine is safe for concurrent use.
type Engine struct {
	rules    []config.AlertRule
	webhooks []config.WebhookConfig

	mu       sync.Mutex
	active   map[string]*Alert    // key: "ruleName:stationID"
	lastFire map[string]time.Time // last fire time per key (for cooldown)
	history  []*Alert             // recently resolved alerts
	client   *http.Client
}

// New creates an Engine from the alert configuration.
// An Engine with empty rules is valid — Evaluate becomes a no-op.
func New(cfg config.AlertsConfig) *Engine {
	return &Engine{
		rules:    cfg.Rules,
		webhooks: cfg.Webhooks,
		active:   make(map[string]*Alert),
		lastFire: make(map[string]time.Time),
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Evaluate tests all configured rules against the audit.
// Alerts that fire are stored and webhook delivery is triggered asynchronously.
// Alerts that were firing but whose condition is now false are resolved.
func (e *Engine) Evaluate(a *store.Audit) {
	if len(e.rules) == 0 {
		return
	}

	now := time.Now()
	for _, rule := range e.rules {
		key := rule.Name + ":" + a.StationID
		fires, value := evalCondition(rule.Condition, a)

		e.mu.Lock()

		if fires {
			cooldown := rule.Cooldown
			if cooldown <= 0 {
				cooldown = defaultCooldown
			}
			if now.Sub(e.lastFire[key]) > cooldown {
				sev := rule.Severity
				if sev == "" {
					sev = "warning"
				}
				al := &Alert{
					ID:        fmt.Sprintf("%s:%s:%d", rule.Name, a.StationID, now.UnixNano()),
					RuleName:  rule.Name,
					StationID: a.StationID,
					Severity:  sev,
					Value:     value,
					Message: fmt.Sprintf("[%s] %s fired on %s — %s = %.2f",
						sev, rule.Name, a.StationID, rule.Condition, value),
					FiredAt: now,
					State:   "firing",
				}
				e.active[key] = al
				e.lastFire[key] = now
				alertCopy := *al
				e.mu.Unlock()

				slog.Warn("alert fired",
					"rule", rule.Name,
					"station", a.StationID,
					"value", value,
					"severity", sev,
				)
				go e.deliver(&alertCopy)
			} else {
				e.mu.Unlock()
			}
		} else {
			if al, ok := e.active[key]; ok && al.State == "firing" {
				resolved := now
				al.State = "resolved"
				al.ResolvedAt = &resolved
				delete(e.active, key)

				e.history = append(e.history, al)
				if len(e.history) > maxHistoryLen {
					e.history = e.history[len(e.history)-maxHistoryLen:]
				}
				alertCopy := *al
				e.mu.Unlock()

				slog.Info("alert resolved",
					"rule", rule.Name,
					"station", a.StationID,
				)
				go e.deliver(&alertCopy)
			} else {
				e.mu.Unlock()
			}
		}
	}
}

// Active returns copies of all currently firing alerts plus any alerts
// resolved within the past hour.
func (e *Engine) Active() []*Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	cutoff := time.Now().Add(-recentWindowHours * time.Hour)
	out := make([]*Alert, 0, len(e.active))

	for _, al := range e.active {
		cp := *al
		out = append(out, &cp)
	}
	for _, al := range e.history {
		if al.ResolvedAt != nil && al.ResolvedAt.After(cutoff) {
			cp := *al
			out = append(out, &cp)
		}
	}
	return out
}
