// Package prom implements the observability hooks with Prometheus metrics.
package prom

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matzehuels/forcelayout/pkg/observability"
)

// Metrics holds the collectors fed by the hooks.
type Metrics struct {
	registry *prometheus.Registry

	FramesTotal         *prometheus.CounterVec
	FrameDuration       *prometheus.HistogramVec
	FrameNodes          *prometheus.GaugeVec
	FastForwardSteps    *prometheus.HistogramVec
	FastForwardDuration *prometheus.HistogramVec
	StateSanitizedTotal *prometheus.CounterVec
	StateResetsTotal    *prometheus.CounterVec

	StoreOpsTotal *prometheus.CounterVec
	StoreSetBytes *prometheus.HistogramVec

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPInFlight        prometheus.Gauge
}

var (
	_ observability.LayoutHooks = (*Metrics)(nil)
	_ observability.StoreHooks  = (*Metrics)(nil)
	_ observability.HTTPHooks   = (*Metrics)(nil)
)

// New creates the metrics on a fresh registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.NewRegistry())
}

// NewWithRegistry creates the metrics on reg.
func NewWithRegistry(reg *prometheus.Registry) *Metrics {
	m := &Metrics{registry: reg}
	f := promauto.With(reg)

	m.FramesTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forcelayout_frames_total",
			Help: "Total number of persisted layout frames",
		},
		[]string{"strategy"},
	)
	m.FrameDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "forcelayout_frame_duration_seconds",
			Help:    "Duration of a layout frame including state load and save",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
		[]string{"strategy"},
	)
	m.FrameNodes = f.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "forcelayout_frame_nodes",
			Help: "Node count of the most recent frame",
		},
		[]string{"strategy"},
	)
	m.FastForwardSteps = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "forcelayout_fast_forward_steps",
			Help:    "Steps taken per fast-forward run",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
		[]string{"strategy"},
	)
	m.FastForwardDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "forcelayout_fast_forward_duration_seconds",
			Help:    "Duration of fast-forward runs",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"strategy"},
	)
	m.StateSanitizedTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forcelayout_state_sanitized_fields_total",
			Help: "Persisted state fields replaced by defaults",
		},
		[]string{"strategy", "field"},
	)
	m.StateResetsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forcelayout_state_resets_total",
			Help: "Explicit layout state resets",
		},
		[]string{"strategy"},
	)

	m.StoreOpsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forcelayout_store_operations_total",
			Help: "Store operations by key type and result",
		},
		[]string{"key_type", "result"}, // hit, miss, set
	)
	m.StoreSetBytes = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "forcelayout_store_set_bytes",
			Help:    "Size of values written to the store",
			Buckets: prometheus.ExponentialBuckets(64, 4, 8),
		},
		[]string{"key_type"},
	)

	m.HTTPRequestsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forcelayout_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
	m.HTTPRequestDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "forcelayout_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	m.HTTPInFlight = f.NewGauge(
		prometheus.GaugeOpts{
			Name: "forcelayout_http_requests_in_flight",
			Help: "Requests currently being served",
		},
	)
	return m
}

// Registry returns the registry backing the metrics, for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Register installs m as the global layout, store and HTTP hooks.
func (m *Metrics) Register() {
	observability.SetLayoutHooks(m)
	observability.SetStoreHooks(m)
	observability.SetHTTPHooks(m)
}

func (m *Metrics) OnFrame(_ context.Context, strategy string, nodeCount int, d time.Duration) {
	m.FramesTotal.WithLabelValues(strategy).Inc()
	m.FrameDuration.WithLabelValues(strategy).Observe(d.Seconds())
	m.FrameNodes.WithLabelValues(strategy).Set(float64(nodeCount))
}

func (m *Metrics) OnFastForward(_ context.Context, strategy string, steps int, d time.Duration) {
	m.FastForwardSteps.WithLabelValues(strategy).Observe(float64(steps))
	m.FastForwardDuration.WithLabelValues(strategy).Observe(d.Seconds())
}

func (m *Metrics) OnStateSanitized(_ context.Context, strategy string, fields []string) {
	for _, f := range fields {
		m.StateSanitizedTotal.WithLabelValues(strategy, f).Inc()
	}
}

func (m *Metrics) OnStateReset(_ context.Context, strategy string) {
	m.StateResetsTotal.WithLabelValues(strategy).Inc()
}

func (m *Metrics) OnStoreHit(_ context.Context, keyType string) {
	m.StoreOpsTotal.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnStoreMiss(_ context.Context, keyType string) {
	m.StoreOpsTotal.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnStoreSet(_ context.Context, keyType string, size int) {
	m.StoreOpsTotal.WithLabelValues(keyType, "set").Inc()
	m.StoreSetBytes.WithLabelValues(keyType).Observe(float64(size))
}

func (m *Metrics) OnRequest(context.Context, string, string) {
	m.HTTPInFlight.Inc()
}

func (m *Metrics) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	m.HTTPInFlight.Dec()
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
