package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Default values.
const (
	DefaultHTTPPort    = 8080
	DefaultMetricsPort = 9090
	DefaultListLimit   = 100
	DefaultTimeout     = 30 * time.Second
	DefaultURLEnv      = "INVENTORY_CSV_URL"
	DefaultCooldown    = 15 * time.Minute
)

// Source kinds.
const (
	KindHTTP = "http"
	KindFile = "file"
)

// What to do with the current snapshot when a refresh fails.
const (
	OnErrorKeep  = "keep"
	OnErrorClear = "clear"
)

// Config is the whole assetboard configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Source SourceConfig `yaml:"source"`
	Alerts AlertsConfig `yaml:"alerts"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	// HTTPPort serves the REST API and WebSocket stream (default 8080).
	HTTPPort int `yaml:"http_port"`

	// MetricsPort serves /metrics (default 9090). 0 disables the listener.
	MetricsPort int `yaml:"metrics_port"`

	Auth AuthConfig `yaml:"auth"`

	// ListLimit caps the number of records the list endpoint returns
	// (default 100).
	ListLimit int `yaml:"list_limit"`
}

// AuthConfig controls client authentication on /api/.
type AuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode"`

	// KeyEnv names the environment variable holding the expected API key.
	KeyEnv string `yaml:"key_env"`

	// Header is the HTTP header to read the key from. Defaults to "x-api-key".
	Header string `yaml:"header"`
}

// Key returns the expected API key resolved from the environment.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// EffectiveHeader returns the configured header name, or "x-api-key".
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return a.Header
	}
	return "x-api-key"
}

// SourceConfig describes where the inventory CSV comes from.
type SourceConfig struct {
	// Kind is http or file.
	Kind string `yaml:"kind"`

	// URL is the CSV export URL. URLEnv, when set and non-empty in the
	// environment, takes precedence.
	URL    string `yaml:"url"`
	URLEnv string `yaml:"url_env"`

	// Path is the local CSV file for kind=file.
	Path string `yaml:"path"`

	Timeout time.Duration `yaml:"timeout"`

	// Retries is the number of extra attempts after a failed fetch.
	Retries int `yaml:"retries"`

	// RefreshInterval triggers periodic refreshes. 0 means manual only.
	RefreshInterval time.Duration `yaml:"refresh_interval"`

	// OnError is keep or clear.
	OnError string `yaml:"on_error"`

	TLS TLSConfig `yaml:"tls"`
}

// TLSConfig holds client TLS options for the HTTP source.
type TLSConfig struct {
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`
}

// ResolvedURL returns the inventory URL, preferring the environment variable.
func (s SourceConfig) ResolvedURL() string {
	if s.URLEnv != "" {
		if v := os.Getenv(s.URLEnv); v != "" {
			return v
		}
	}
	return s.URL
}

// AlertsConfig holds alerting rules and webhook delivery targets.
type AlertsConfig struct {
	Rules    []AlertRule     `yaml:"rules"`
	Webhooks []WebhookConfig `yaml:"webhooks"`
}

// AlertRule defines one per-asset alert condition.
type AlertRule struct {
	// Name identifies the rule; together with the asset key it forms the
	// deduplication key.
	Name string `yaml:"name"`

	// Condition is a simple expression: "health_score < 40", "grade == D",
	// "hdd1_hours > 43800", "dept == Finance".
	Condition string `yaml:"condition"`

	// Severity is one of: critical | warning | info.
	Severity string `yaml:"severity"`

	// Cooldown suppresses re-fires after an alert fires. Defaults to 15m.
	Cooldown time.Duration `yaml:"cooldown"`
}

// WebhookConfig defines one webhook delivery target.
type WebhookConfig struct {
	// Type is one of: teams | slack | http.
	Type string `yaml:"type"`

	// URLEnv names the environment variable holding the webhook URL.
	URLEnv string `yaml:"url_env"`
}

// URL returns the webhook URL resolved from the environment.
func (w WebhookConfig) URL() string {
	if w.URLEnv == "" {
		return ""
	}
	return os.Getenv(w.URLEnv)
}

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment.
// Variables already set are left alone. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: load env file %q: %w", path, err)
	}
	return nil
}

// Load reads and parses the config file at path. Missing fields are filled
// with defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates YAML config bytes.
func Parse(data []byte) (*Config, error) {
	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	for i := range cfg.Alerts.Rules {
		if cfg.Alerts.Rules[i].Cooldown == 0 {
			cfg.Alerts.Rules[i].Cooldown = DefaultCooldown
		}
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Defaults returns a Config pre-populated with default values. It is what
// assetboard runs with when no config file is given.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:    DefaultHTTPPort,
			MetricsPort: DefaultMetricsPort,
			Auth:        AuthConfig{Mode: "none"},
			ListLimit:   DefaultListLimit,
		},
		Source: SourceConfig{
			Kind:    KindHTTP,
			URLEnv:  DefaultURLEnv,
			Timeout: DefaultTimeout,
			OnError: OnErrorKeep,
		},
	}
}

func validate(cfg *Config) error {
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", cfg.Server.HTTPPort)
	}
	if cfg.Server.MetricsPort < 0 || cfg.Server.MetricsPort > 65535 {
		return fmt.Errorf("server.metrics_port %d is out of range [0, 65535]", cfg.Server.MetricsPort)
	}
	if cfg.Server.MetricsPort != 0 && cfg.Server.MetricsPort == cfg.Server.HTTPPort {
		return fmt.Errorf("server.metrics_port must differ from server.http_port")
	}
	switch cfg.Server.Auth.Mode {
	case "apikey":
		if cfg.Server.Auth.KeyEnv == "" {
			return fmt.Errorf("server.auth.key_env is required when mode is apikey")
		}
	case "none", "":
	default:
		return fmt.Errorf("server.auth.mode %q unknown: want apikey|none", cfg.Server.Auth.Mode)
	}
	if cfg.Server.ListLimit <= 0 {
		return fmt.Errorf("server.list_limit must be positive")
	}

	switch cfg.Source.Kind {
	case KindHTTP, KindFile:
	default:
		return fmt.Errorf("source.kind %q unknown: want http|file", cfg.Source.Kind)
	}
	if cfg.Source.Timeout <= 0 {
		return fmt.Errorf("source.timeout must be positive")
	}
	if cfg.Source.Retries < 0 {
		return fmt.Errorf("source.retries must not be negative")
	}
	if cfg.Source.RefreshInterval < 0 {
		return fmt.Errorf("source.refresh_interval must not be negative")
	}
	switch cfg.Source.OnError {
	case OnErrorKeep, OnErrorClear:
	default:
		return fmt.Errorf("source.on_error %q unknown: want keep|clear", cfg.Source.OnError)
	}

	for i, r := range cfg.Alerts.Rules {
		if r.Name == "" {
			return fmt.Errorf("alerts.rules[%d].name is required", i)
		}
		if r.Condition == "" {
			return fmt.Errorf("alerts.rules[%d].condition is required", i)
		}
		switch r.Severity {
		case "critical", "warning", "info", "":
		default:
			return fmt.Errorf("alerts.rules[%d].severity %q unknown: want critical|warning|info", i, r.Severity)
		}
	}
	for i, w := range cfg.Alerts.Webhooks {
		switch w.Type {
		case "slack", "teams", "http":
		default:
			return fmt.Errorf("alerts.webhooks[%d].type %q unknown: want slack|teams|http", i, w.Type)
		}
	}
	return nil
}
