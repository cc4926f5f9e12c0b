package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hindsight/internal/store"
	"github.com/roach88/hindsight/internal/testutil"
)

// ingestFixture stores a trace file in a fresh database and returns the
// database path and trace id.
func ingestFixture(t *testing.T, tracePath string) (string, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "hindsight.db")
	opts := &IngestOptions{
		RootOptions: &RootOptions{Format: "text"},
		RunIDs:      testutil.NewFixedRunIDGenerator("run-fixture"),
	}
	_, err := execute(newIngestCommand(opts), "--db", dbPath, tracePath)
	require.NoError(t, err)
	return dbPath, traceIDOf(t, tracePath)
}

func TestIngest_StoresTrace(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "hindsight.db")
	opts := &IngestOptions{
		RootOptions: &RootOptions{Format: "text"},
		RunIDs:      testutil.NewFixedRunIDGenerator("run-1", "run-2"),
	}

	out, err := execute(newIngestCommand(opts), "--db", dbPath, "testdata/send_receive.jsonl")
	require.NoError(t, err)

	traceID := traceIDOf(t, "testdata/send_receive.jsonl")
	assert.Contains(t, out, "✓ Stored trace "+traceID)
	assert.Contains(t, out, "run:     run-1")
	assert.Contains(t, out, "events:  3")

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	tr, err := st.ReadTrace(context.Background(), traceID)
	require.NoError(t, err)
	assert.Equal(t, "send_receive", tr.Name, "name defaults to the file name")
	assert.Equal(t, 1, tr.EdgeCount)
}

func TestIngest_Idempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "hindsight.db")
	opts := &IngestOptions{
		RootOptions: &RootOptions{Format: "text"},
		RunIDs:      testutil.NewFixedRunIDGenerator("run-1", "run-2"),
	}

	_, err := execute(newIngestCommand(opts), "--db", dbPath, "testdata/send_receive.jsonl")
	require.NoError(t, err)

	out, err := execute(newIngestCommand(opts), "--db", dbPath, "testdata/send_receive.jsonl")
	require.NoError(t, err)
	assert.Contains(t, out, "already stored")
	assert.Contains(t, out, "run:     run-1", "reports the run that first stored the trace")
}

func TestIngest_JSON(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "hindsight.db")
	opts := &IngestOptions{
		RootOptions: &RootOptions{Format: "json"},
		RunIDs:      testutil.NewFixedRunIDGenerator("run-1"),
	}

	out, err := execute(newIngestCommand(opts), "--db", dbPath, "--name", "handshake", "testdata/send_receive.jsonl")
	require.NoError(t, err)

	var resp struct {
		Status  string       `json:"status"`
		TraceID string       `json:"trace_id"`
		Data    IngestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, traceIDOf(t, "testdata/send_receive.jsonl"), resp.TraceID)
	assert.Equal(t, IngestResult{
		TraceID: resp.TraceID,
		RunID:   "run-1",
		Name:    "handshake",
		Created: true,
		Events:  3,
		Edges:   1,
		Threads: 2,
	}, resp.Data)
}

func TestIngest_ReconstructionFailureStoresNothing(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "hindsight.db")
	opts := &IngestOptions{
		RootOptions: &RootOptions{Format: "text"},
		RunIDs:      testutil.NewFixedRunIDGenerator("run-1"),
	}

	out, err := execute(newIngestCommand(opts), "--db", dbPath, "testdata/unresolved.jsonl")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "UNRESOLVED_DEPENDENCY")

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	traces, err := st.ListTraces(context.Background())
	require.NoError(t, err)
	assert.Empty(t, traces)
}

func TestIngest_RequiresDB(t *testing.T) {
	_, err := execute(NewIngestCommand(&RootOptions{Format: "text"}), "testdata/send_receive.jsonl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db")
}
