// Package ir provides the foundational types for hindsight.
//
// This package contains the trace vocabulary shared by every other internal
// package: event kinds, raw input records, typed per-kind field projections,
// thread references, immutable vector clocks and reconstructed events.
// All other internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - VectorClock has value semantics; every operation returns a new clock
//   - NO float types in record values - use int64 for numbers
//   - All JSON tags use snake_case
//   - Record fields are kept as IRObject so unknown fields survive a round trip
package ir
