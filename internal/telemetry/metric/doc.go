// Package metric provides Prometheus metrics for the enrollment services.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: registry, enrollment/transport/store metrics, HTTP handler
//   - collector.go: scrape-time collector for listener queue state
//
// Metrics include:
//
//   - ndep_enrollment_outcomes_total{outcome}
//   - enrollment and replay store latency histograms
//   - dropped datagrams and socket errors
//
// Metrics are exposed at /metrics on the ops HTTP server.
package metric
