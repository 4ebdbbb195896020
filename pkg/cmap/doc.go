// Package cmap provides a concurrent map implementation.
//
// This package implements a sharded concurrent map keyed by string, used
// for the in-process replay store and per-source rate limiters:
//
//   - Sharding: Configurable shard count for parallelism
//   - Fine-grained Locking: Per-shard RWMutex for minimal contention
//   - Atomic read-modify-write: Compute runs under the shard lock
//   - Lazy creation: GetOrCreate builds a missing value exactly once
//   - Sweeping: DeleteFunc removes matching entries shard by shard
//
// Usage:
//
//	m := cmap.New[time.Time]()
//	_, fresh := m.Compute("token:...", func(exp time.Time, ok bool) (time.Time, bool) {
//		return expiry, !ok || now.After(exp)
//	})
package cmap
