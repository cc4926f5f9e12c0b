package engine

import (
	"fmt"

	"github.com/roach88/hindsight/internal/ir"
)

// Node wraps one reconstructed event in the causal graph.
type Node struct {
	Event ir.Event

	// Parent is the node of the primary dependency, nil if none.
	Parent *Node

	// Links are the nodes of additional dependencies, in record order.
	Links []*Node

	// Children are the nodes that depend on this one, in insertion order.
	Children []*Node
}

// Graph is the causal DAG built by one reconstruction.
//
// Nodes are only ever linked to nodes inserted before them, so the graph is
// acyclic by construction. Read-only once Reconstruct returns.
type Graph struct {
	nodes []*Node
	byID  map[string]*Node
	edges []ir.Edge
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{byID: make(map[string]*Node)}
}

// Add inserts ev with an edge from parent (if non-nil) and from each link.
// Parents must already be in the graph. Event ids must be unique.
func (g *Graph) Add(ev ir.Event, parent *Node, links []*Node) (*Node, error) {
	if _, dup := g.byID[ev.ID]; dup {
		return nil, fmt.Errorf("duplicate event id %q", ev.ID)
	}

	for _, p := range append([]*Node{parent}, links...) {
		if p != nil && g.byID[p.Event.ID] != p {
			return nil, fmt.Errorf("parent %q is not in the graph", p.Event.ID)
		}
	}

	n := &Node{Event: ev, Parent: parent, Links: links}
	if parent != nil {
		g.link(parent, n, true)
	}
	for _, l := range links {
		g.link(l, n, false)
	}

	g.nodes = append(g.nodes, n)
	g.byID[ev.ID] = n
	return n, nil
}

func (g *Graph) link(from, to *Node, primary bool) {
	from.Children = append(from.Children, to)
	g.edges = append(g.edges, ir.Edge{From: from.Event.ID, To: to.Event.ID, Primary: primary})
}

// Node returns the node of event id.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.byID[id]
	return n, ok
}

// Edges returns every edge in insertion order.
func (g *Graph) Edges() []ir.Edge {
	return g.edges
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// HasEdge reports whether from -> to exists.
func (g *Graph) HasEdge(from, to string) bool {
	for _, e := range g.edges {
		if e.From == from && e.To == to {
			return true
		}
	}
	return false
}

// ThreadNodes returns the nodes emitted by thread key, in insertion order.
func (g *Graph) ThreadNodes(key string) []*Node {
	var out []*Node
	for _, n := range g.nodes {
		if n.Event.Thread.Key == key {
			out = append(out, n)
		}
	}
	return out
}

// Acyclic checks the graph with Kahn's algorithm.
func (g *Graph) Acyclic() bool {
	indeg := make(map[*Node]int, len(g.nodes))
	for _, n := range g.nodes {
		if n.Parent != nil {
			indeg[n]++
		}
		indeg[n] += len(n.Links)
	}

	queue := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		if indeg[n] == 0 {
			queue = append(queue, n)
		}
	}

	visited := 0
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		visited++
		for _, c := range n.Children {
			indeg[c]--
			if indeg[c] == 0 {
				queue = append(queue, c)
			}
		}
	}
	return visited == len(g.nodes)
}
