package engine

import "github.com/roach88/hindsight/internal/ir"

// Resolver owns the working state of one reconstruction: the latest vector
// clock per thread and the opener nodes later events may depend on.
//
// A Resolver is created per call and discarded afterwards; it is never shared
// between reconstructions.
type Resolver struct {
	clocks       map[string]ir.VectorClock
	dependencies map[string]*Node
	openers      map[ir.Kind]bool
}

// NewResolver creates a resolver that registers events of the given kinds.
func NewResolver(openers map[ir.Kind]bool) *Resolver {
	return &Resolver{
		clocks:       make(map[string]ir.VectorClock),
		dependencies: make(map[string]*Node),
		openers:      openers,
	}
}

// Clock returns the latest clock of thread, or its initial clock if the
// thread has not emitted anything yet.
func (r *Resolver) Clock(thread string) ir.VectorClock {
	if vc, ok := r.clocks[thread]; ok {
		return vc
	}
	return ir.NewVectorClock(thread)
}

// Resolve looks up the registered opener for dependency id.
func (r *Resolver) Resolve(id string) (*Node, bool) {
	n, ok := r.dependencies[id]
	return n, ok
}

// Advance computes the clock of the next event of thread.
//
// The thread's clock absorbs the full vector of each parent, then its own
// component is reconciled to order when one is recorded, or incremented by
// one otherwise. The result replaces the thread's stored clock.
func (r *Resolver) Advance(thread string, parents []*Node, order int64, hasOrder bool) (ir.VectorClock, error) {
	vc := r.Clock(thread)
	for _, p := range parents {
		vc = vc.Update(p.Event.VectorTimestamp)
	}

	var err error
	if hasOrder {
		vc, err = vc.IncrementBy(order - vc.OwnTime())
	} else {
		vc, err = vc.Increment()
	}
	if err != nil {
		return ir.VectorClock{}, err
	}

	r.clocks[thread] = vc
	return vc, nil
}

// Register makes n resolvable by its event id if its kind is an opener.
// Reports whether n was registered.
func (r *Resolver) Register(n *Node) bool {
	if !r.openers[n.Event.Kind] {
		return false
	}
	r.dependencies[n.Event.ID] = n
	return true
}

// Threads returns the number of threads seen.
func (r *Resolver) Threads() int {
	return len(r.clocks)
}
