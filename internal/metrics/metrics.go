// Package metrics defines the Prometheus metrics of the sync client and the
// gateway. Metrics are registered on a caller-supplied registry so that tests
// and multiple sessions in one process do not collide.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "levelup"

// SyncMetrics instruments the sync coordinator.
type SyncMetrics struct {
	// AttemptsTotal counts pushes by trigger reason and outcome (success, error).
	AttemptsTotal *prometheus.CounterVec
	// SkippedTotal counts triggers dropped before a push, by reason and cause
	// (in_flight, offline, unauthenticated, backoff).
	SkippedTotal *prometheus.CounterVec
	// DurationSeconds measures push latency.
	DurationSeconds prometheus.Histogram
	// InFlight is 1 while a push is pending.
	InFlight prometheus.Gauge
}

// NewSyncMetrics registers the sync metrics on reg
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	f := promauto.With(reg)
	return &SyncMetrics{
		AttemptsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "attempts_total",
			Help:      "Sync pushes by trigger reason and outcome",
		}, []string{"reason", "outcome"}),
		SkippedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "skipped_total",
			Help:      "Sync triggers dropped before pushing, by reason and cause",
		}, []string{"reason", "cause"}),
		DurationSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "duration_seconds",
			Help:      "Duration of sync pushes",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		InFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "in_flight",
			Help:      "1 while a sync push is pending",
		}),
	}
}

// ObservePush records the outcome of one push. Nil receivers are ignored.
func (m *SyncMetrics) ObservePush(reason string, err error, took time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.AttemptsTotal.WithLabelValues(reason, outcome).Inc()
	m.DurationSeconds.Observe(took.Seconds())
}

// ObserveSkip records a dropped trigger
func (m *SyncMetrics) ObserveSkip(reason, cause string) {
	if m == nil {
		return
	}
	m.SkippedTotal.WithLabelValues(reason, cause).Inc()
}

// SetInFlight updates the in-flight gauge
func (m *SyncMetrics) SetInFlight(inFlight bool) {
	if m == nil {
		return
	}
	if inFlight {
		m.InFlight.Set(1)
	} else {
		m.InFlight.Set(0)
	}
}

// GatewayMetrics instruments the remote store gateway.
type GatewayMetrics struct {
	// RequestsTotal counts requests by route and HTTP status.
	RequestsTotal *prometheus.CounterVec
	// DocumentWritesTotal counts whole-document overwrites.
	DocumentWritesTotal prometheus.Counter
}

// NewGatewayMetrics registers the gateway metrics on reg
func NewGatewayMetrics(reg prometheus.Registerer) *GatewayMetrics {
	f := promauto.With(reg)
	return &GatewayMetrics{
		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "Gateway requests by route and status",
		}, []string{"route", "status"}),
		DocumentWritesTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "document_writes_total",
			Help:      "Whole-document overwrites performed by POST /sync",
		}),
	}
}

// ObserveRequest records one gateway response
func (m *GatewayMetrics) ObserveRequest(route string, status int) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.RequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// ObserveDocumentWrite counts a whole-document overwrite
func (m *GatewayMetrics) ObserveDocumentWrite() {
	if m == nil {
		return
	}
	m.DocumentWritesTotal.Inc()
}
