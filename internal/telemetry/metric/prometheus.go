// Package metric provides Prometheus metrics for the enrollment services.
package metric

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rob-jonesdevlab/ods-signage/internal/core/domain"
)

const namespace = "ndep"

// Drop reasons for datagrams that never reach the enrollment service.
const (
	DropQueueFull = "queue_full"
	DropShutdown  = "shutdown"
)

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	// Enrollment metrics
	EnrollmentOutcomes *prometheus.CounterVec
	EnrollmentDuration *prometheus.HistogramVec
	TokenDriftSeconds  prometheus.Histogram

	// Transport metrics
	DatagramsReceived prometheus.Counter
	DatagramsDropped  *prometheus.CounterVec
	TransportErrors   *prometheus.CounterVec

	// Replay store metrics
	StoreDuration prometheus.Histogram

	// Hook metrics
	HookErrors prometheus.Counter

	// Panics recovered on the per-datagram path
	Panics prometheus.Counter

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewRegistry creates a registry with Go runtime and process collectors
// plus every enrollment metric.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{
		registry: reg,

		EnrollmentOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "enrollment",
			Name:      "outcomes_total",
			Help:      "Enrollment attempts by terminal outcome",
		}, []string{"outcome"}),

		EnrollmentDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "enrollment",
			Name:      "duration_seconds",
			Help:      "Time from datagram receipt to outcome",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 2.5},
		}, []string{"outcome"}),

		TokenDriftSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "enrollment",
			Name:      "token_drift_seconds",
			Help:      "Validator clock minus token timestamp for well-formed tokens",
			Buckets:   []float64{-300, -60, -10, -1, 0, 1, 10, 60, 300, 3600},
		}),

		DatagramsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "listener",
			Name:      "datagrams_received_total",
			Help:      "Datagrams read from the enrollment socket",
		}),

		DatagramsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "listener",
			Name:      "datagrams_dropped_total",
			Help:      "Datagrams discarded before processing",
		}, []string{"reason"}),

		TransportErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "listener",
			Name:      "transport_errors_total",
			Help:      "Socket read failures",
		}, []string{"op"}),

		StoreDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "replay_store",
			Name:      "register_duration_seconds",
			Help:      "Latency of replay store registration calls",
			Buckets:   prometheus.DefBuckets,
		}),

		HookErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "enrollment",
			Name:      "hook_errors_total",
			Help:      "Acceptance hook failures",
		}),

		Panics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "listener",
			Name:      "panics_recovered_total",
			Help:      "Panics recovered while handling a datagram",
		}),

		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Ops HTTP requests",
		}, []string{"method", "route", "status"}),

		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Ops HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		r.EnrollmentOutcomes,
		r.EnrollmentDuration,
		r.TokenDriftSeconds,
		r.DatagramsReceived,
		r.DatagramsDropped,
		r.TransportErrors,
		r.StoreDuration,
		r.HookErrors,
		r.Panics,
		r.RequestsTotal,
		r.RequestDuration,
	)

	// Every outcome is exported from the start, even at zero.
	for _, o := range domain.Outcomes() {
		r.EnrollmentOutcomes.WithLabelValues(o.String())
	}
	for _, reason := range []string{DropQueueFull, DropShutdown} {
		r.DatagramsDropped.WithLabelValues(reason)
	}

	return r
}

// Registerer exposes the underlying registry for other components.
func (r *Registry) Registerer() prometheus.Registerer {
	return r.registry
}

// Gatherer exposes the underlying registry for scraping and tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Handler returns an HTTP handler serving this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{
		Registry: r.registry,
	})
}

// RecordOutcome counts one enrollment attempt.
func (r *Registry) RecordOutcome(o domain.Outcome, elapsed time.Duration) {
	r.EnrollmentOutcomes.WithLabelValues(o.String()).Inc()
	r.EnrollmentDuration.WithLabelValues(o.String()).Observe(elapsed.Seconds())
}

// ObserveDrift records the clock distance for a well-formed token.
func (r *Registry) ObserveDrift(deltaMs int64) {
	r.TokenDriftSeconds.Observe(float64(deltaMs) / 1000)
}

// ObserveStore records one replay store round trip.
func (r *Registry) ObserveStore(elapsed time.Duration) {
	r.StoreDuration.Observe(elapsed.Seconds())
}

// IncReceived counts one datagram read from the socket.
func (r *Registry) IncReceived() {
	r.DatagramsReceived.Inc()
}

// IncDropped counts one datagram discarded before processing.
func (r *Registry) IncDropped(reason string) {
	r.DatagramsDropped.WithLabelValues(reason).Inc()
}

// IncTransportError counts one socket failure.
func (r *Registry) IncTransportError(op string) {
	r.TransportErrors.WithLabelValues(op).Inc()
}

// IncHookError counts one acceptance hook failure.
func (r *Registry) IncHookError() {
	r.HookErrors.Inc()
}

// IncPanic counts one recovered panic.
func (r *Registry) IncPanic() {
	r.Panics.Inc()
}

// RecordRequest counts one ops HTTP request.
func (r *Registry) RecordRequest(method, route, status string, elapsed time.Duration) {
	r.RequestsTotal.WithLabelValues(method, route, status).Inc()
	r.RequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

var (
	globalOnce     sync.Once
	globalRegistry *Registry
)

// Global returns the process-wide registry.
func Global() *Registry {
	globalOnce.Do(func() {
		globalRegistry = NewRegistry()
	})
	return globalRegistry
}

// Handler returns the HTTP handler for the global registry.
func Handler() http.Handler {
	return Global().Handler()
}
