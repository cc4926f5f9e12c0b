package testutil

import "sync"

// FixedRunIDGenerator hands out predetermined run ids in order. Once the
// list is used up it keeps returning the last id, so fixtures that ingest
// the same trace more than once still read back a known run.
type FixedRunIDGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedRunIDGenerator returns a generator over ids. With no ids,
// Generate returns "test-run-default".
func NewFixedRunIDGenerator(ids ...string) *FixedRunIDGenerator {
	if len(ids) == 0 {
		ids = []string{"test-run-default"}
	}
	return &FixedRunIDGenerator{ids: ids}
}

// Generate returns the next run id. Implements store.RunIDGenerator.
func (g *FixedRunIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.ids[g.idx]
	if g.idx < len(g.ids)-1 {
		g.idx++
	}
	return id
}
