// Package httpserver provides the ops HTTP server for ndep-server.
//
// Routes (chi):
//
//   - GET /healthz: liveness
//   - GET /readyz: replay store and listener checks
//   - GET /version: build info and enrollment windows
//   - GET /metrics: Prometheus exposition
//
// Middleware: Recover, RequestID (ULID), AccessLog with per-route
// request metrics. The server binds 127.0.0.1 by default; enrollment
// itself never goes through HTTP.
package httpserver
