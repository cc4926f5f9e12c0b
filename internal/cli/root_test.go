package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "hindsight", cmd.Use)
	assert.Contains(t, cmd.Long, "happened-before")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"reconstruct", "validate", "ingest", "show", "test"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestInputFormatFlags(t *testing.T) {
	cmd := NewRootCommand()

	for _, name := range []string{"reconstruct", "validate", "ingest"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)

		flag := sub.Flags().Lookup("input-format")
		require.NotNil(t, flag, name)
		assert.Equal(t, "auto", flag.DefValue)
	}
}

func TestDatabaseFlags(t *testing.T) {
	cmd := NewRootCommand()

	for _, name := range []string{"ingest", "show"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		assert.NotNil(t, sub.Flags().Lookup("db"), name)
	}
}

func TestInvalidFormat(t *testing.T) {
	cmd := NewRootCommand()
	_, err := execute(cmd, "--format", "xml", "validate", "testdata/send_receive.jsonl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestRootCommand_EndToEnd(t *testing.T) {
	out, err := execute(NewRootCommand(), "reconstruct", "testdata/send_receive.jsonl")
	require.NoError(t, err)
	assert.Contains(t, out, "3 event(s)")
}
