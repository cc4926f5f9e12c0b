package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_Inline(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/send_receive.yaml")
	require.NoError(t, err)

	assert.Equal(t, "send_receive", scenario.Name)
	assert.Contains(t, scenario.Description, "links only to its send")
	assert.Len(t, scenario.Records, 3)
	assert.Empty(t, scenario.Trace)
	assert.Len(t, scenario.Assertions, 7)
	assert.Equal(t, AssertVectorClock, scenario.Assertions[0].Type)

	records, err := scenario.LoadRecords()
	require.NoError(t, err)
	require.Len(t, records, 3)
	dep, ok, err := records[2].Dependency()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2", dep)
}

func TestLoadScenario_TraceRelativeToScenario(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/order_gap.yaml")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("testdata", "scenarios", "traces", "order_gap.jsonl"), scenario.Trace)

	records, err := scenario.LoadRecords()
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestLoadScenario_ExpectError(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/unresolved_dependency.yaml")
	require.NoError(t, err)

	require.NotNil(t, scenario.ExpectError)
	assert.Equal(t, "UNRESOLVED_DEPENDENCY", scenario.ExpectError.Code)
	assert.Equal(t, "2", scenario.ExpectError.Record)
	assert.Empty(t, scenario.Assertions)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := writeScenario(t, t.TempDir(), `
name: typo
description: "unknown field"
records:
  - { id: "1", type: LOG, thread: "t1@p1" }
assertion:
  - type: edge
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing name",
			content: "description: d\nrecords: [{type: LOG, thread: t1}]\nassertions: [{type: edge, from: a, to: b}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			content: "name: n\nrecords: [{type: LOG, thread: t1}]\nassertions: [{type: edge, from: a, to: b}]\n",
			wantErr: "description is required",
		},
		{
			name:    "no records",
			content: "name: n\ndescription: d\nassertions: [{type: edge, from: a, to: b}]\n",
			wantErr: "records or trace is required",
		},
		{
			name:    "records and trace",
			content: "name: n\ndescription: d\ntrace: x.jsonl\nrecords: [{type: LOG, thread: t1}]\nassertions: [{type: edge, from: a, to: b}]\n",
			wantErr: "mutually exclusive",
		},
		{
			name:    "missing trace file",
			content: "name: n\ndescription: d\ntrace: missing.jsonl\nassertions: [{type: edge, from: a, to: b}]\n",
			wantErr: "trace file not found",
		},
		{
			name:    "no assertions",
			content: "name: n\ndescription: d\nrecords: [{type: LOG, thread: t1}]\n",
			wantErr: "assertions list is required",
		},
		{
			name:    "unknown error code",
			content: "name: n\ndescription: d\nrecords: [{type: LOG, thread: t1}]\nexpect_error: {code: BOOM}\n",
			wantErr: "unknown code",
		},
		{
			name:    "unknown assertion",
			content: "name: n\ndescription: d\nrecords: [{type: LOG, thread: t1}]\nassertions: [{type: trace_count}]\n",
			wantErr: "unknown assertion type",
		},
		{
			name:    "vector_clock without map",
			content: "name: n\ndescription: d\nrecords: [{type: LOG, thread: t1}]\nassertions: [{type: vector_clock, event: a, expect: before}]\n",
			wantErr: "expect must be a map",
		},
		{
			name:    "vector_clock negative",
			content: "name: n\ndescription: d\nrecords: [{type: LOG, thread: t1}]\nassertions: [{type: vector_clock, event: a, expect: {t1: -1}}]\n",
			wantErr: "non-negative",
		},
		{
			name:    "clock without value",
			content: "name: n\ndescription: d\nrecords: [{type: LOG, thread: t1}]\nassertions: [{type: clock, event: a}]\n",
			wantErr: "value is required",
		},
		{
			name:    "edge without to",
			content: "name: n\ndescription: d\nrecords: [{type: LOG, thread: t1}]\nassertions: [{type: edge, from: a}]\n",
			wantErr: "from and to are required",
		},
		{
			name:    "thread_order with one thread",
			content: "name: n\ndescription: d\nrecords: [{type: LOG, thread: t1}]\nassertions: [{type: thread_order, threads: [t1]}]\n",
			wantErr: "at least two threads",
		},
		{
			name:    "relation with bad name",
			content: "name: n\ndescription: d\nrecords: [{type: LOG, thread: t1}]\nassertions: [{type: relation, a: x, b: y, expect: sideways}]\n",
			wantErr: "unknown relation",
		},
		{
			name:    "dominates without b",
			content: "name: n\ndescription: d\nrecords: [{type: LOG, thread: t1}]\nassertions: [{type: dominates, a: x}]\n",
			wantErr: "a and b are required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeScenario(t, t.TempDir(), tt.content)
			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
