// Package observability provides Prometheus metrics and OpenTelemetry
// tracing for the realtime connection layer. Both are optional: the
// connection manager falls back to no-op implementations when none are
// configured.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the recording surface the connection manager drives.
type Metrics interface {
	// RecordStatus sets the current connection status.
	RecordStatus(status string)
	// RecordTransport sets the active transport kind; empty means none.
	RecordTransport(kind string)
	// RecordEvent counts one dispatched event.
	RecordEvent(kind, eventType string)
	// RecordError counts one transport error.
	RecordError(kind string, code int)
	// RecordConnectAttempt observes one open attempt and its duration.
	RecordConnectAttempt(kind string, duration time.Duration, success bool)
	// RecordReconnectCycle counts one completed failed fallback cycle.
	RecordReconnectCycle()
	// RecordKeepalive counts one keepalive ping.
	RecordKeepalive(kind string)
}

// NopMetrics returns a Metrics that records nothing.
func NopMetrics() Metrics { return nopMetrics{} }

type nopMetrics struct{}

func (nopMetrics) RecordStatus(string)                              {}
func (nopMetrics) RecordTransport(string)                           {}
func (nopMetrics) RecordEvent(string, string)                       {}
func (nopMetrics) RecordError(string, int)                          {}
func (nopMetrics) RecordConnectAttempt(string, time.Duration, bool) {}
func (nopMetrics) RecordReconnectCycle()                            {}
func (nopMetrics) RecordKeepalive(string)                           {}

var connectionStatuses = []string{"connecting", "connected", "disconnected", "error"}

var transportKinds = []string{"websocket", "sse", "polling"}

// PrometheusMetrics implements Metrics on a dedicated Prometheus registry.
type PrometheusMetrics struct {
	registry *prometheus.Registry

	status          *prometheus.GaugeVec
	activeTransport *prometheus.GaugeVec
	events          *prometheus.CounterVec
	errors          *prometheus.CounterVec
	connectDuration *prometheus.HistogramVec
	reconnectCycles prometheus.Counter
	keepalives      *prometheus.CounterVec
}

// NewPrometheusMetrics creates a metrics provider. All collectors are
// registered on a private registry exposed through Handler.
func NewPrometheusMetrics(namespace string) *PrometheusMetrics {
	if namespace == "" {
		namespace = "realtime"
	}

	registry := prometheus.NewRegistry()

	m := &PrometheusMetrics{
		registry: registry,
		status: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connection_status",
			Help:      "Current connection status (1 for the active status, 0 otherwise)",
		}, []string{"status"}),
		activeTransport: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_transport",
			Help:      "Active transport kind (1 for the kind in use, 0 otherwise)",
		}, []string{"transport"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Dispatched events by transport and type",
		}, []string{"transport", "type"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Transport errors by transport and code",
		}, []string{"transport", "code"}),
		connectDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "connect_duration_seconds",
			Help:      "Open attempt duration by transport and outcome",
			Buckets:   prometheus.DefBuckets,
		}, []string{"transport", "success"}),
		reconnectCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconnect_cycles_total",
			Help:      "Completed failed fallback cycles",
		}),
		keepalives: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "keepalives_total",
			Help:      "Keepalive pings sent by transport",
		}, []string{"transport"}),
	}

	registry.MustRegister(
		m.status,
		m.activeTransport,
		m.events,
		m.errors,
		m.connectDuration,
		m.reconnectCycles,
		m.keepalives,
	)

	return m
}

// RecordStatus resets every status gauge then marks the current one. The
// reset keeps scrapes unambiguous: exactly one status series is 1.
func (m *PrometheusMetrics) RecordStatus(status string) {
	for _, s := range connectionStatuses {
		m.status.WithLabelValues(s).Set(0)
	}
	m.status.WithLabelValues(status).Set(1)
}

// RecordTransport marks the active transport kind; an empty kind clears all.
func (m *PrometheusMetrics) RecordTransport(kind string) {
	for _, k := range transportKinds {
		m.activeTransport.WithLabelValues(k).Set(0)
	}
	if kind != "" {
		m.activeTransport.WithLabelValues(kind).Set(1)
	}
}

// RecordEvent counts one dispatched event.
func (m *PrometheusMetrics) RecordEvent(kind, eventType string) {
	m.events.WithLabelValues(kind, eventType).Inc()
}

// RecordError counts one transport error.
func (m *PrometheusMetrics) RecordError(kind string, code int) {
	m.errors.WithLabelValues(kind, strconv.Itoa(code)).Inc()
}

// RecordConnectAttempt observes one open attempt.
func (m *PrometheusMetrics) RecordConnectAttempt(kind string, duration time.Duration, success bool) {
	m.connectDuration.WithLabelValues(kind, strconv.FormatBool(success)).Observe(duration.Seconds())
}

// RecordReconnectCycle counts one completed failed fallback cycle.
func (m *PrometheusMetrics) RecordReconnectCycle() {
	m.reconnectCycles.Inc()
}

// RecordKeepalive counts one keepalive ping.
func (m *PrometheusMetrics) RecordKeepalive(kind string) {
	m.keepalives.WithLabelValues(kind).Inc()
}

// Handler exposes the registry for scraping.
func (m *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry for callers that aggregate
// collectors themselves.
func (m *PrometheusMetrics) Registry() *prometheus.Registry {
	return m.registry
}
