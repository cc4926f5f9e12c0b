// Package engine implements causal reconstruction of a collected trace.
//
// Reconstruct makes a single forward pass over an ordered record sequence:
//
//  1. BuildEvent classifies each record and projects its kind-specific fields
//  2. The Resolver resolves dependency ids against earlier openers, merges the
//     parents' vector clocks into the thread's clock and advances it
//  3. The Graph inserts a node with an edge from every resolved parent
//  4. Openers (CONNECT, SND, CREATE, END) are registered for later records
//
// The pass is synchronous and keeps no state between calls. The first
// failing record aborts the pass with a *ReconstructError carrying one of
// UNRESOLVED_DEPENDENCY, UNSUPPORTED_EVENT_KIND or INVARIANT_VIOLATION.
//
// Clock reconciliation: when a record carries an order, the thread's own
// component is advanced to exactly that order after the merge (IncrementBy
// with order minus own time); an order behind the thread's own time is an
// invariant violation. Without an order the component is incremented by one.
package engine
