package observability

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yungbote/courseguide-backend/internal/platform/logger"
)

// Metrics holds the service's Prometheus collectors. All methods are no-ops on
// a nil receiver so callers can use Current() unconditionally.
type Metrics struct {
	reg *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	llmRequests *prometheus.CounterVec
	llmLatency  *prometheus.HistogramVec

	guideOutcomes *prometheus.CounterVec
	feedEvents    *prometheus.CounterVec
	feedDropped   prometheus.Counter
}

var (
	initMu   sync.Mutex
	instance *Metrics
)

// Current returns the process-wide metrics, or nil when Init was not called.
func Current() *Metrics {
	initMu.Lock()
	defer initMu.Unlock()
	return instance
}

// Init builds the collectors on a private registry and installs them as
// Current(). Calling it again returns the existing instance.
func Init(log *logger.Logger) *Metrics {
	initMu.Lock()
	defer initMu.Unlock()
	if instance != nil {
		return instance
	}
	instance = NewMetrics()
	if log != nil {
		log.Info("prometheus metrics initialized")
	}
	return instance
}

// Reset drops the installed instance. Tests use it between runs.
func Reset() {
	initMu.Lock()
	instance = nil
	initMu.Unlock()
}

// NewMetrics creates and registers every collector on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	m := &Metrics{reg: reg}

	m.apiRequests = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courseguide_api_requests_total",
			Help: "Total number of HTTP API requests",
		},
		[]string{"method", "route", "status"},
	)
	m.apiLatency = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "courseguide_api_request_duration_seconds",
			Help:    "Duration of HTTP API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
	m.apiInflight = f.NewGauge(
		prometheus.GaugeOpts{
			Name: "courseguide_api_requests_in_flight",
			Help: "Number of HTTP API requests currently being served",
		},
	)

	m.llmRequests = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courseguide_llm_requests_total",
			Help: "Total number of completion provider requests",
		},
		[]string{"model", "endpoint", "status"},
	)
	// Free-tier models routinely take tens of seconds.
	m.llmLatency = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "courseguide_llm_request_duration_seconds",
			Help:    "Duration of completion provider requests in seconds",
			Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		},
		[]string{"model", "endpoint", "status"},
	)

	m.guideOutcomes = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courseguide_guide_requests_total",
			Help: "Guide creations by terminal stage and outcome",
		},
		[]string{"stage", "outcome"},
	)
	m.feedEvents = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courseguide_feed_events_total",
			Help: "Change feed events published",
		},
		[]string{"type"},
	)
	m.feedDropped = f.NewCounter(
		prometheus.CounterOpts{
			Name: "courseguide_feed_events_dropped_total",
			Help: "Change feed deliveries dropped because a subscriber was full",
		},
	)
	return m
}

// Registry exposes the private registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

// Handler serves the Prometheus exposition for this registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route, status).Observe(dur.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveLLMRequest(model, endpoint, status string, dur time.Duration) {
	if m == nil {
		return
	}
	model = strings.TrimSpace(model)
	if model == "" {
		model = "unknown"
	}
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		endpoint = "unknown"
	}
	status = strings.TrimSpace(status)
	if status == "" {
		status = "0"
	}
	m.llmRequests.WithLabelValues(model, endpoint, status).Inc()
	if dur > 0 {
		m.llmLatency.WithLabelValues(model, endpoint, status).Observe(dur.Seconds())
	}
}

// IncGuideOutcome counts a create attempt that finished at stage.
func (m *Metrics) IncGuideOutcome(stage, outcome string) {
	if m == nil {
		return
	}
	m.guideOutcomes.WithLabelValues(stage, outcome).Inc()
}

func (m *Metrics) IncFeedEvent(eventType string) {
	if m == nil {
		return
	}
	m.feedEvents.WithLabelValues(eventType).Inc()
}

func (m *Metrics) IncFeedDropped() {
	if m == nil {
		return
	}
	m.feedDropped.Inc()
}
