package alerts

import (
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/assetboard/assetboard/internal/config"
	"github.com/assetboard/assetboard/internal/metrics"
	"github.com/assetboard/assetboard/pkg/types"
)

const (
	maxHistoryLen = 200
	recentWindow  = time.Hour
)

// Alert states.
const (
	StateFiring   = "firing"
	StateResolved = "resolved"
)

// Alert is one rule firing for one asset.
type Alert struct {
	ID           string     `json:"id"`
	RuleName     string     `json:"rule_name"`
	AssetID      string     `json:"asset_id"`
	ComputerName string     `json:"computer_name"`
	User         string     `json:"user,omitempty"`
	Dept         string     `json:"dept,omitempty"`
	Grade        string     `json:"grade"`
	HealthScore  int        `json:"health_score"`
	Severity     string     `json:"severity"`
	Message      string     `json:"message"`
	Value        string     `json:"value"`
	FiredAt      time.Time  `json:"fired_at"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
	State        string     `json:"state"`
}

type rule struct {
	config.AlertRule
	cond condition
}

// Engine evaluates alert rules against snapshots and delivers webhook
// notifications when alerts fire or resolve.
//
// Engine is safe for concurrent use.
type Engine struct {
	metrics *metrics.Metrics
	client  *http.Client
	now     func() time.Time // injectable for deterministic tests

	mu       sync.Mutex
	rules    []rule
	webhooks []config.WebhookConfig
	active   map[string]*Alert    // key: "rule:asset"
	lastFire map[string]time.Time // last fire time per key, for cooldown
	history  []*Alert             // recently resolved alerts
}

// New creates an Engine from the alerts configuration. Rules whose condition
// cannot be parsed are logged and skipped. An Engine without rules is valid;
// Evaluate becomes a no-op.
func New(cfg config.AlertsConfig, m *metrics.Metrics) *Engine {
	e := &Engine{
		metrics:  m,
		client:   &http.Client{Timeout: 10 * time.Second},
		now:      time.Now,
		active:   make(map[string]*Alert),
		lastFire: make(map[string]time.Time),
	}
	e.rules = compileRules(cfg.Rules)
	e.webhooks = cfg.Webhooks
	return e
}

func compileRules(in []config.AlertRule) []rule {
	out := make([]rule, 0, len(in))
	for _, r := range in {
		c, err := parseCondition(r.Condition)
		if err != nil {
			slog.Error("alerts: skipping rule", "rule", r.Name, "err", err)
			continue
		}
		if r.Severity == "" {
			r.Severity = "warning"
		}
		if r.Cooldown <= 0 {
			r.Cooldown = config.DefaultCooldown
		}
		out = append(out, rule{AlertRule: r, cond: c})
	}
	return out
}

// SetRules replaces the rules and webhooks. Firing alerts whose rule no
// longer exists are resolved.
func (e *Engine) SetRules(cfg config.AlertsConfig) {
	rules := compileRules(cfg.Rules)
	keep := make(map[string]bool, len(rules))
	for _, r := range rules {
		keep[r.Name] = true
	}

	e.mu.Lock()
	e.rules = rules
	e.webhooks = cfg.Webhooks
	var resolved []*Alert
	now := e.now()
	for key, a := range e.active {
		if !keep[a.RuleName] {
			resolved = append(resolved, e.resolveLocked(key, a, now))
		}
	}
	firing := len(e.active)
	e.mu.Unlock()

	e.metrics.SetAlertsFiring(firing)
	slog.Info("alerts: rules updated", "rules", len(rules), "webhooks", len(cfg.Webhooks))
	for _, a := range resolved {
		go e.deliver(a)
	}
}

// Evaluate tests every rule against every asset. New matches fire once their
// cooldown has elapsed; firing alerts whose condition no longer holds, or
// whose asset is gone, are resolved. Webhooks are delivered asynchronously.
func (e *Engine) Evaluate(assets []types.Asset) {
	e.mu.Lock()
	if len(e.rules) == 0 && len(e.active) == 0 {
		e.mu.Unlock()
		return
	}

	now := e.now()
	var notify []*Alert
	matched := make(map[string]bool)

	for _, r := range e.rules {
		for _, a := range assets {
			fires, value := r.cond.eval(a)
			if !fires {
				continue
			}
			key := r.Name + ":" + a.Key()
			matched[key] = true

			if _, ok := e.active[key]; ok {
				continue
			}
			if last, ok := e.lastFire[key]; ok && now.Sub(last) < r.Cooldown {
				continue
			}

			al := &Alert{
				ID:           uuid.NewString(),
				RuleName:     r.Name,
				AssetID:      a.Key(),
				ComputerName: a.ComputerName,
				User:         a.User,
				Dept:         a.Dept,
				Grade:        string(a.HealthGrade),
				HealthScore:  a.HealthScore,
				Severity:     r.Severity,
				Value:        value,
				Message: fmt.Sprintf("[%s] %s fired on %s: %s (observed %s)",
					r.Severity, r.Name, a.Key(), r.Condition, value),
				FiredAt: now,
				State:   StateFiring,
			}
			e.active[key] = al
			e.lastFire[key] = now
			cp := *al
			notify = append(notify, &cp)

			slog.Warn("alert fired", "rule", r.Name, "asset", a.Key(), "value", value, "severity", r.Severity)
		}
	}

	for key, al := range e.active {
		if matched[key] {
			continue
		}
		notify = append(notify, e.resolveLocked(key, al, now))
		slog.Info("alert resolved", "rule", al.RuleName, "asset", al.AssetID)
	}
	firing := len(e.active)
	e.mu.Unlock()

	e.metrics.SetAlertsFiring(firing)
	for _, a := range notify {
		go e.deliver(a)
	}
}

// resolveLocked moves the alert at key to history and returns a copy.
// e.mu must be held.
func (e *Engine) resolveLocked(key string, a *Alert, now time.Time) *Alert {
	resolved := now
	a.State = StateResolved
	a.ResolvedAt = &resolved
	delete(e.active, key)

	e.history = append(e.history, a)
	if len(e.history) > maxHistoryLen {
		e.history = e.history[len(e.history)-maxHistoryLen:]
	}
	cp := *a
	return &cp
}

// Active returns copies of all firing alerts plus alerts resolved within the
// past hour, newest first.
func (e *Engine) Active() []*Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	cutoff := e.now().Add(-recentWindow)
	out := make([]*Alert, 0, len(e.active))
	for _, a := range e.active {
		cp := *a
		out = append(out, &cp)
	}
	for _, a := range e.history {
		if a.ResolvedAt != nil && a.ResolvedAt.After(cutoff) {
			cp := *a
			out = append(out, &cp)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].FiredAt.Equal(out[j].FiredAt) {
			return out[i].FiredAt.After(out[j].FiredAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Firing returns the number of alerts currently firing.
func (e *Engine) Firing() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.active)
}
