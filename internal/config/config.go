package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/chachamwise/axiom-audit-global/internal/engine"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultHTTPPort     = 8080
	DefaultPollInterval = 30 * time.Second
	DefaultAuditTTL     = 5 * time.Minute
)

// Config is the top-level configuration. Fields map 1:1 to config.example.yaml.
type Config struct {
	Server ServerConfig `yaml:"server"`

	// Asset holds the fleet-wide default asset constants; stations may
	// override individual fields.
	Asset engine.AssetConfig `yaml:"asset"`

	// Stations is the list of pump stations to poll.
	Stations []Station `yaml:"stations"`
}

// ServerConfig holds the HTTP-surface settings.
type ServerConfig struct {
	// HTTPPort is the port the REST API, WebSocket hub and /metrics listen
	// on (default 8080).
	HTTPPort int `yaml:"http_port"`

	// Auth configures how incoming HTTP clients are authenticated.
	Auth AuthConfig `yaml:"auth"`

	// Audit controls in-memory audit retention.
	Audit AuditConfig `yaml:"audit"`

	// Alerts holds rule definitions and webhook delivery targets.
	Alerts AlertsConfig `yaml:"alerts"`
}

// AuditConfig controls in-memory audit retention.
type AuditConfig struct {
	// TTL is how long a station's audit remains in the store after its last
	// successful poll. Default: 5m.
	TTL time.Duration `yaml:"ttl"`
}

// Station describes one monitored pump station.
type Station struct {
	// ID is a unique, human-readable identifier, e.g. "PUMP-001".
	ID string `yaml:"id"`

	// Endpoint is the URL of the station's meter exporter (Prometheus text
	// exposition of the gauge readings).
	Endpoint string `yaml:"endpoint"`

	// PollInterval controls how often the station is read. Default 30s.
	PollInterval time.Duration `yaml:"poll_interval"`

	// Asset overrides individual fleet-default asset fields for this
	// station. Nil means the fleet defaults apply unchanged. A zero field
	// means "inherit", so a fleet default cannot be overridden down to
	// exactly zero; use a negligible positive value instead (e.g. a tiny
	// co2_factor for a solar-fed station).
	Asset *engine.AssetConfig `yaml:"asset"`

	// Auth configures how the poller authenticates to the exporter.
	Auth AuthConfig `yaml:"auth"`

	// TLS holds optional TLS dial options for the exporter.
	TLS TLSConfig `yaml:"tls"`
}

// AssetConfig resolves the effective asset constants for this station:
// the fleet defaults with any non-zero station override applied on top.
// Zero-valued override fields inherit the fleet value (see Station.Asset).
func (s Station) AssetConfig(fleet engine.AssetConfig) engine.AssetConfig {
	if s.Asset == nil {
		return fleet
	}
	out := fleet
	o := *s.Asset
	if o.RatedPowerKW != 0 {
		out.RatedPowerKW = o.RatedPowerKW
	}
	if o.UnitCost != 0 {
		out.UnitCost = o.UnitCost
	}
	if o.CurrencySymbol != "" {
		out.CurrencySymbol = o.CurrencySymbol
	}
	if o.CO2Factor != 0 {
		out.CO2Factor = o.CO2Factor
	}
	if o.PowerFactor != 0 {
		out.PowerFactor = o.PowerFactor
	}
	if o.HydraulicBaseline != 0 {
		out.HydraulicBaseline = o.HydraulicBaseline
	}
	if o.OptimalMotorEff != 0 {
		out.OptimalMotorEff = o.OptimalMotorEff
	}
	return out
}

// AuthConfig specifies an authentication mode, for the server's inbound
// HTTP surface and for outbound exporter polls alike.
type AuthConfig struct {
	// Mode is one of: apikey | bearer | basic | none.
	Mode string `yaml:"mode"`

	// Header is the header name the key is carried in.
	// Defaults to "x-api-key" for apikey mode.
	Header string `yaml:"header"`

	// KeyEnv names the environment variable holding the API key.
	KeyEnv string `yaml:"key_env"`

	// TokenEnv names the environment variable holding the bearer token.
	TokenEnv string `yaml:"token_env"`

	// Basic auth fields — used when Mode == "basic".
	Username    string `yaml:"username"`
	PasswordEnv string `yaml:"password_env"`
}

// Key returns the API key resolved from the environment.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// Token returns the bearer token resolved from the environment.
func (a AuthConfig) Token() string {
	if a.TokenEnv == "" {
		return ""
	}
	return os.Getenv(a.TokenEnv)
}

// Password returns the basic-auth password resolved from the environment.
func (a AuthConfig) Password() string {
	if a.PasswordEnv == "" {
		return ""
	}
	return os.Getenv(a.PasswordEnv)
}

// EffectiveHeader returns the configured header name, or the default "x-api-key".
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return a.Header
	}
	return "x-api-key"
}

// TLSConfig holds optional TLS dial options.
type TLSConfig struct {
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
	CAFile             string `yaml:"ca_file"`
}

// AlertsConfig holds alerting rules and webhook delivery targets.
type AlertsConfig struct {
	Rules    []AlertRule     `yaml:"rules"`
	Webhooks []WebhookConfig `yaml:"webhooks"`
}

// AlertRule defines one threshold-based alert condition.
type AlertRule struct {
	// Name is the human-readable alert identifier, used as the deduplication key.
	Name string `yaml:"name"`

	// Condition is a simple expression over audit fields:
	// "severity == critical", "load_pct > 105", "pump_eff_pct < 45",
	// "imbalance_pct > 5", "monthly_savings > 1000000", "unreachable == true".
	Condition string `yaml:"condition"`

	// Severity is one of: critical | warning | info.
	Severity string `yaml:"severity"`

	// Cooldown suppresses re-fires for this duration after an alert fires.
	// Defaults to 15 minutes if zero.
	Cooldown time.Duration `yaml:"cooldown"`
}

// WebhookConfig defines one webhook delivery target.
type WebhookConfig struct {
	// Type is one of: teams | slack | http.
	Type string `yaml:"type"`

	// URLEnv is the name of the environment variable that holds the webhook URL.
	URLEnv string `yaml:"url_env"`
}

// URL returns the webhook URL resolved from the environment.
func (w WebhookConfig) URL() string {
	if w.URLEnv == "" {
		return ""
	}
	return os.Getenv(w.URLEnv)
}

// Load reads and parses the config file at path. Missing fields are filled
// with defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort: DefaultHTTPPort,
			Audit:    AuditConfig{TTL: DefaultAuditTTL},
		},
		Asset: engine.AssetConfig{
			CO2Factor:         engine.DefaultCO2Factor,
			PowerFactor:       engine.DefaultPowerFactor,
			HydraulicBaseline: engine.DefaultHydraulicBaseline,
			OptimalMotorEff:   engine.DefaultOptimalMotorEff,
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", cfg.Server.HTTPPort)
	}
	switch cfg.Server.Auth.Mode {
	case "apikey", "none", "":
	default:
		return fmt.Errorf("server.auth.mode %q unknown: want apikey|none", cfg.Server.Auth.Mode)
	}
	if cfg.Server.Audit.TTL < 0 {
		return fmt.Errorf("server.audit.ttl must not be negative")
	}

	seen := make(map[string]struct{}, len(cfg.Stations))
	for i := range cfg.Stations {
		st := &cfg.Stations[i]
		if st.ID == "" {
			return fmt.Errorf("stations[%d].id must not be empty", i)
		}
		if _, dup := seen[st.ID]; dup {
			return fmt.Errorf("stations: duplicate id %q", st.ID)
		}
		seen[st.ID] = struct{}{}
		if st.Endpoint == "" {
			return fmt.Errorf("station %q: endpoint must not be empty", st.ID)
		}
		if st.PollInterval < 0 {
			return fmt.Errorf("station %q: poll_interval must not be negative", st.ID)
		}
		if st.PollInterval == 0 {
			st.PollInterval = DefaultPollInterval
		}
	}

	for i, r := range cfg.Server.Alerts.Rules {
		if r.Name == "" {
			return fmt.Errorf("alerts.rules[%d].name must not be empty", i)
		}
		if r.Condition == "" {
			return fmt.Errorf("alert rule %q: condition must not be empty", r.Name)
		}
	}
	return nil
}
