// Package storage provides the replay stores used by the enrollment listener.
//
// Three backends satisfy service.ReplayStore:
//
//   - memory: sharded in-process map, single listener only
//   - badger: embedded Badger v3 database with per-key TTL, survives restarts
//   - redis: SET NX with expiry on a shared server, safe across listeners
//
// Open selects a backend from an endpoint URL. Store errors are returned,
// never swallowed; the enrollment service turns them into a fail-closed
// rejection.
package storage
