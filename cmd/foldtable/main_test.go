package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "foldtable version")
}

func TestTableCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
handlers:
  Fetch:
    Start:
      - {op: set, path: status, value: loading}
    Done:
      - {op: set, path: status, value: done}
`), 0644))

	out, err := run(t, "table", path, "--format", "text")
	require.NoError(t, err)
	assert.Equal(t, "Fetch_Start\nFetch_Done\n", out)
}

func TestMCPCommand_UnknownTransport(t *testing.T) {
	_, err := run(t, "mcp", "--transport", "carrier-pigeon")
	assert.Error(t, err)
}
