package store

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/hindsight/internal/engine"
	"github.com/roach88/hindsight/internal/ir"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// reconstruct runs the engine quietly and returns a storable trace.
func reconstruct(t *testing.T, records []ir.Record, runID string) (Trace, *engine.Result) {
	t.Helper()
	res, err := engine.Reconstruct(records, engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	tr := NewTrace(ir.MustTraceID(records), runID, "test", res.Events, res.Graph.Edges())
	return tr, res
}
