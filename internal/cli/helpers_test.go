package cli

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hindsight/internal/ir"
	"github.com/roach88/hindsight/internal/tracefile"
)

// execute runs cmd with args and returns what it wrote to stdout.
// Logs written to stderr are discarded.
func execute(cmd *cobra.Command, args ...string) (string, error) {
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// traceIDOf returns the content hash of a trace file.
func traceIDOf(t *testing.T, path string) string {
	t.Helper()
	records, err := tracefile.Load(path)
	require.NoError(t, err)
	return ir.MustTraceID(records)
}
