package engine

import (
	"errors"
	"log/slog"

	"github.com/roach88/hindsight/internal/ir"
)

// Result is the output of one reconstruction.
type Result struct {
	// Events in input order, each with its vector timestamp.
	Events []ir.Event

	// Graph is the causal DAG over Events.
	Graph *Graph
}

// Event returns the reconstructed event with the given id.
func (r *Result) Event(id string) (ir.Event, bool) {
	n, ok := r.Graph.Node(id)
	if !ok {
		return ir.Event{}, false
	}
	return n.Event, true
}

// Engine reconstructs causal structure from an ordered record sequence.
//
// An Engine holds configuration only. Each Reconstruct call builds its own
// resolver, graph and sequence clock, so calls are independent and an
// Engine may be reused.
type Engine struct {
	logger  *slog.Logger
	openers map[ir.Kind]bool
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithOpeners replaces the kinds that later events may depend on.
//
// Default: CONNECT, SND, CREATE and END (see ir.Kind.IsOpener).
func WithOpeners(kinds ...ir.Kind) EngineOption {
	return func(e *Engine) {
		e.openers = make(map[ir.Kind]bool, len(kinds))
		for _, k := range kinds {
			e.openers[k] = true
		}
	}
}

// New creates an Engine.
func New(opts ...EngineOption) *Engine {
	e := &Engine{
		logger:  slog.Default(),
		openers: make(map[ir.Kind]bool),
	}
	for _, k := range ir.AllKinds() {
		if k.IsOpener() {
			e.openers[k] = true
		}
	}

	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Reconstruct is shorthand for New(opts...).Reconstruct(records).
func Reconstruct(records []ir.Record, opts ...EngineOption) (*Result, error) {
	return New(opts...).Reconstruct(records)
}

// Reconstruct runs the single forward pass over records.
//
// Records must already be in the order events should be considered: a
// dependency is only resolvable if its opener appeared earlier. The first
// failing record stops the pass; the error is a *ReconstructError and no
// partial result is returned.
func (e *Engine) Reconstruct(records []ir.Record) (*Result, error) {
	resolver := NewResolver(e.openers)
	graph := NewGraph()
	clock := NewClock()
	events := make([]ir.Event, 0, len(records))

	for i, rec := range records {
		ev, err := e.step(i, rec, resolver, graph, clock)
		if err != nil {
			e.logger.Error("reconstruction failed",
				"index", i,
				"code", ErrorCodeOf(err),
				"error", err,
			)
			return nil, err
		}
		events = append(events, ev)
	}

	e.logger.Info("reconstruction complete",
		"events", len(events),
		"edges", len(graph.Edges()),
		"threads", resolver.Threads(),
	)

	return &Result{Events: events, Graph: graph}, nil
}

func (e *Engine) step(i int, rec ir.Record, resolver *Resolver, graph *Graph, clock *Clock) (ir.Event, error) {
	ev, err := BuildEvent(i, rec)
	if err != nil {
		return ir.Event{}, err
	}

	if _, dup := graph.Node(ev.ID); dup {
		return ir.Event{}, newInvariantViolation(i, ev.ID, ev.Kind, errors.New("duplicate event id"))
	}

	order, hasOrder, err := rec.Order()
	if err != nil {
		return ir.Event{}, newInvariantViolation(i, ev.ID, ev.Kind, err)
	}

	var (
		primary *Node
		links   []*Node
		parents []*Node
		seen    = make(map[string]bool)
	)
	for _, dep := range ev.Parents() {
		if seen[dep] {
			continue
		}
		seen[dep] = true

		node, ok := resolver.Resolve(dep)
		if !ok {
			return ir.Event{}, newUnresolvedDependency(ev, dep)
		}
		if dep == ev.Dependency {
			primary = node
		} else {
			links = append(links, node)
		}
		parents = append(parents, node)
	}

	vc, err := resolver.Advance(ev.Thread.Key, parents, order, hasOrder)
	if err != nil {
		return ir.Event{}, newInvariantViolation(i, ev.ID, ev.Kind, err)
	}
	ev.VectorTimestamp = vc

	if hasOrder {
		ev.Clock = order
		clock.Observe(order)
	} else {
		ev.Clock = clock.Next()
	}

	node, err := graph.Add(ev, primary, links)
	if err != nil {
		return ir.Event{}, newInvariantViolation(i, ev.ID, ev.Kind, err)
	}
	resolver.Register(node)

	e.logger.Debug("record reconstructed",
		"id", ev.ID,
		"kind", ev.Kind,
		"thread", ev.Thread.Key,
		"clock", ev.Clock,
		"vector", vc.String(),
	)
	return ev, nil
}
