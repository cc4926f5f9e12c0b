// Package store provides SQLite-backed storage for reconstructed traces.
//
// Three tables hold a reconstruction:
//   - traces: one row per distinct record sequence, keyed by its content hash
//   - events: every event with its scalar clock, vector clock and fields
//   - edges: resolved dependencies between events
//
// Writes are idempotent: a trace id that is already stored is left untouched,
// so ingesting the same trace twice is a no-op.
//
// Reads are deterministic: events come back ORDER BY clock ASC, idx ASC and
// traces ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
