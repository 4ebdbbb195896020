// Package main provides the entry point for ndep-server.
//
// The server runs:
//
//   - the UDP enrollment listener (default 0.0.0.0:9999)
//   - the ops HTTP server with /healthz, /readyz, /version and /metrics
//
// Accepted tokens are remembered in the configured replay store
// (memory, badger or redis) for the registration window.
//
// Usage:
//
//	ndep-server [flags]
//	ndep-server --config /etc/ndep/server.yaml
//
// Every setting can also come from NDEP_* environment variables, plus the
// bare NDEP_PORT, REDIS_URL, DRIFT_LIMIT_MS and REGISTRATION_TTL_MS.
package main
