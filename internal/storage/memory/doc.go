// Package memory provides an in-process replay store.
//
// Registrations live in a sharded map (pkg/cmap) of key to expiry time:
//
//   - Atomic registration: check-and-insert under the key's shard lock
//   - Lazy expiry: an expired entry is replaced in the same critical section
//   - Sweeping: a background ticker purges expired entries
//
// Thread Safety:
//
// All operations are thread-safe. The store is not shared between
// processes; use the badger or redis stores when several listeners must
// agree on which token was first.
package memory
