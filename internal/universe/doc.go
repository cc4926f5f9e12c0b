// Package universe provides read-only query access to a reconstructed trace.
//
// A Universe indexes events by id and by scalar clock, clusters threads by
// process for stable lane placement, and answers causal questions using the
// vector timestamps computed by the engine.
package universe
