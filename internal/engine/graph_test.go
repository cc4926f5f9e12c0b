package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hindsight/internal/ir"
)

func event(id, thread string) ir.Event {
	return ir.Event{ID: id, Kind: ir.KindLog, Thread: ir.ParseThread(thread)}
}

func TestGraph_AddAndLookup(t *testing.T) {
	g := NewGraph()

	a, err := g.Add(event("a", "t1@p1"), nil, nil)
	require.NoError(t, err)
	b, err := g.Add(event("b", "t2@p1"), a, nil)
	require.NoError(t, err)

	got, ok := g.Node("b")
	require.True(t, ok)
	assert.Same(t, b, got)
	assert.Same(t, a, b.Parent)
	assert.Equal(t, []*Node{b}, a.Children)
	assert.Equal(t, 2, g.Len())

	_, ok = g.Node("zzz")
	assert.False(t, ok)
}

func TestGraph_DuplicateID(t *testing.T) {
	g := NewGraph()
	_, err := g.Add(event("a", "t1@p1"), nil, nil)
	require.NoError(t, err)

	_, err = g.Add(event("a", "t1@p1"), nil, nil)
	assert.Error(t, err)
	assert.Equal(t, 1, g.Len())
}

func TestGraph_ForeignParentRejected(t *testing.T) {
	other := NewGraph()
	foreign, err := other.Add(event("x", "t1@p1"), nil, nil)
	require.NoError(t, err)

	g := NewGraph()
	_, err = g.Add(event("a", "t1@p1"), foreign, nil)
	assert.Error(t, err)
	assert.Empty(t, foreign.Children)
	assert.Empty(t, g.Edges())
}

func TestGraph_ThreadNodes(t *testing.T) {
	g := NewGraph()
	for _, e := range []ir.Event{event("1", "t1@p1"), event("2", "t2@p1"), event("3", "t1@p1")} {
		_, err := g.Add(e, nil, nil)
		require.NoError(t, err)
	}

	nodes := g.ThreadNodes("t1@p1")
	require.Len(t, nodes, 2)
	assert.Equal(t, "1", nodes[0].Event.ID)
	assert.Equal(t, "3", nodes[1].Event.ID)
}

func TestGraph_AcyclicDetectsCycle(t *testing.T) {
	g := NewGraph()
	a, _ := g.Add(event("a", "t1@p1"), nil, nil)
	b, _ := g.Add(event("b", "t1@p1"), a, nil)
	assert.True(t, g.Acyclic())

	// Cycles cannot be built through Add; wire one by hand.
	a.Parent = b
	b.Children = append(b.Children, a)
	assert.False(t, g.Acyclic())
}

func TestResolver_RegistersOpenersOnly(t *testing.T) {
	r := NewResolver(map[ir.Kind]bool{ir.KindSend: true})
	g := NewGraph()

	snd, _ := g.Add(ir.Event{ID: "1", Kind: ir.KindSend}, nil, nil)
	lg, _ := g.Add(ir.Event{ID: "2", Kind: ir.KindLog}, nil, nil)

	assert.True(t, r.Register(snd))
	assert.False(t, r.Register(lg))

	n, ok := r.Resolve("1")
	require.True(t, ok)
	assert.Same(t, snd, n)

	_, ok = r.Resolve("2")
	assert.False(t, ok)
}

func TestResolver_AdvanceStoresClock(t *testing.T) {
	r := NewResolver(nil)

	assert.Equal(t, int64(0), r.Clock("t1").OwnTime(), "lazy initial clock")
	assert.Equal(t, 0, r.Threads(), "initial clock is not stored")

	vc, err := r.Advance("t1", nil, 0, false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), vc.OwnTime())
	assert.Equal(t, int64(1), r.Clock("t1").OwnTime())
	assert.Equal(t, 1, r.Threads())
}
