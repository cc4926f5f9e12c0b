package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hindsight/internal/ir"
	"github.com/roach88/hindsight/internal/tracefile"
)

type reconstructResponse struct {
	Status string `json:"status"`
	Data   struct {
		TraceID string           `json:"trace_id"`
		Events  []map[string]any `json:"events"`
		Edges   []ir.Edge        `json:"edges"`
		Threads []ir.ThreadRef   `json:"threads"`
	} `json:"data"`
	Error *CLIError `json:"error"`
}

func TestReconstruct_Text(t *testing.T) {
	out, err := execute(NewReconstructCommand(&RootOptions{Format: "text"}), "testdata/send_receive.jsonl")
	require.NoError(t, err)

	assert.Contains(t, out, "Trace "+traceIDOf(t, "testdata/send_receive.jsonl"))
	assert.Contains(t, out, "3 event(s), 1 edge(s), 2 thread(s)")
	assert.Contains(t, out, "[0] t1@p1")
	assert.Contains(t, out, "[1] t2@p2")
	assert.Contains(t, out, "{t1@p1:2, t2@p2:1}")
	assert.Contains(t, out, "2 -> 3")
}

func TestReconstruct_JSON(t *testing.T) {
	out, err := execute(NewReconstructCommand(&RootOptions{Format: "json"}), "testdata/send_receive.jsonl")
	require.NoError(t, err)

	var resp reconstructResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, traceIDOf(t, "testdata/send_receive.jsonl"), resp.Data.TraceID)
	require.Len(t, resp.Data.Events, 3)
	assert.Equal(t, "3", resp.Data.Events[2]["id"])
	assert.Equal(t, []ir.Edge{{From: "2", To: "3", Primary: true}}, resp.Data.Edges)
	require.Len(t, resp.Data.Threads, 2)
	assert.Equal(t, "t1@p1", resp.Data.Threads[0].Key)
}

func TestReconstruct_UnresolvedDependency(t *testing.T) {
	out, err := execute(NewReconstructCommand(&RootOptions{Format: "text"}), "testdata/unresolved.jsonl")
	require.Error(t, err)

	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [UNRESOLVED_DEPENDENCY]")
	assert.True(t, IsReported(err), "already printed by the formatter")
}

func TestReconstruct_UnresolvedDependencyJSON(t *testing.T) {
	out, err := execute(NewReconstructCommand(&RootOptions{Format: "json"}), "testdata/unresolved.jsonl")
	require.Error(t, err)

	var resp reconstructResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "UNRESOLVED_DEPENDENCY", resp.Error.Code)
	details, ok := resp.Error.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "2", details["record"])
}

func TestReconstruct_MissingFile(t *testing.T) {
	out, err := execute(NewReconstructCommand(&RootOptions{Format: "text"}), "testdata/nope.jsonl")
	require.Error(t, err)

	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "not found")
	assert.True(t, IsReported(err))
}

func TestReconstruct_SchemaCheck(t *testing.T) {
	out, err := execute(NewReconstructCommand(&RootOptions{Format: "text"}), "--schema-check", "testdata/invalid.json")
	require.Error(t, err)

	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")

	_, err = execute(NewReconstructCommand(&RootOptions{Format: "text"}), "--schema-check", "testdata/send_receive.jsonl")
	assert.NoError(t, err)
}

func TestReconstruct_StdinMsgpack(t *testing.T) {
	records, err := tracefile.Load("testdata/send_receive.jsonl")
	require.NoError(t, err)

	var in bytes.Buffer
	require.NoError(t, tracefile.EncodeMsgpack(&in, records))

	cmd := NewReconstructCommand(&RootOptions{Format: "json"})
	cmd.SetIn(&in)
	out, err := execute(cmd, "--input-format", "msgpack", "-")
	require.NoError(t, err)

	var resp reconstructResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, ir.MustTraceID(records), resp.Data.TraceID)
	assert.Len(t, resp.Data.Events, 3)
}

func TestReconstruct_UnknownInputFormat(t *testing.T) {
	_, err := execute(NewReconstructCommand(&RootOptions{Format: "text"}), "--input-format", "xml", "testdata/send_receive.jsonl")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
