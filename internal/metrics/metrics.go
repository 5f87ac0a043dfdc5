package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/assetboard/assetboard/pkg/types"
)

const namespace = "assetboard"

// Refresh results used as the "result" label.
const (
	ResultOK            = "ok"
	ResultError         = "error"
	ResultNotConfigured = "not_configured"
)

// Metrics holds every collector assetboard records into.
type Metrics struct {
	reg *prometheus.Registry

	refreshes       *prometheus.CounterVec
	refreshDuration prometheus.Histogram
	lastSuccess     prometheus.Gauge
	records         prometheus.Gauge
	grades          *prometheus.GaugeVec
	alertsFiring    prometheus.Gauge
}

// New registers assetboard's collectors on reg. A nil reg gets a fresh
// registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		refreshes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refreshes_total",
			Help:      "Inventory refresh attempts by result.",
		}, []string{"result"}),
		refreshDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Time spent fetching and parsing the inventory.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		lastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_refresh_success_timestamp_seconds",
			Help:      "Unix time of the last snapshot install.",
		}),
		records: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "assets",
			Help:      "Number of assets in the current snapshot.",
		}),
		grades: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "assets_by_grade",
			Help:      "Number of assets in the current snapshot per health grade.",
		}, []string{"grade"}),
		alertsFiring: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "alerts_firing",
			Help:      "Number of alerts currently firing.",
		}),
	}
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// ObserveRefresh records one refresh attempt.
func (m *Metrics) ObserveRefresh(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(result).Inc()
	m.refreshDuration.Observe(d.Seconds())
}

// SetSnapshot updates the snapshot gauges. A nil assets slice (cleared
// snapshot) zeroes them.
func (m *Metrics) SetSnapshot(assets []types.Asset, at time.Time) {
	if m == nil {
		return
	}
	m.records.Set(float64(len(assets)))

	counts := make(map[types.Grade]int, len(types.Grades))
	for _, a := range assets {
		counts[a.HealthGrade]++
	}
	for _, g := range types.Grades {
		m.grades.WithLabelValues(string(g)).Set(float64(counts[g]))
	}
	if assets != nil {
		m.lastSuccess.Set(float64(at.Unix()))
	}
}

// SetAlertsFiring records the number of firing alerts.
func (m *Metrics) SetAlertsFiring(n int) {
	if m == nil {
		return
	}
	m.alertsFiring.Set(float64(n))
}

// Handler serves the exposition for the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Monitor wraps handler with request count and latency metrics labelled
// with handlerName. Each handlerName may be monitored once per registry.
func (m *Metrics) Monitor(handlerName string, handler http.Handler) http.Handler {
	if m == nil {
		return handler
	}
	reg := prometheus.WrapRegistererWith(prometheus.Labels{"handler": handlerName}, m.reg)
	labels := []string{"method", "code"}

	requestsTotal := promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Tracks the number of HTTP requests.",
	}, labels)
	requestDuration := promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Tracks the latencies for HTTP requests.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
	}, labels)

	return promhttp.InstrumentHandlerCounter(requestsTotal,
		promhttp.InstrumentHandlerDuration(requestDuration, handler))
}
