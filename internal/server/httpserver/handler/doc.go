// Package handler provides HTTP request handlers for the ops server.
//
//   - health.go: liveness and readiness checks
//   - version.go: build information and the active enrollment windows
//
// Responses use the Response envelope; /metrics is served by promhttp
// and does not pass through this package.
package handler
