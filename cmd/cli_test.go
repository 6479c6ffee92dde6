package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCLI executes the root command with args, capturing stdout. Shared
// flag variables are cleared first: cobra only writes the flags present in
// args, so values would otherwise leak between invocations.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	asPrincipal, fileArg, dataArg = "", "", ""
	stepPrecedents = nil
	nodeRevoke, stepRevoke = false, false

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

// runOnly runs a command discarding its output.
func runOnly(t *testing.T, args ...string) error {
	t.Helper()
	_, err := runCLI(t, args...)
	return err
}

func TestCLI_EndToEnd(t *testing.T) {
	t.Chdir(t.TempDir())

	out, err := runCLI(t, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "config: .traceline/config.yaml")
	require.FileExists(t, ".traceline/config.yaml")
	require.FileExists(t, ".traceline/ledger.db")

	out, err = runCLI(t, "node:add", "--as", "alice", "--data", "factory")
	require.NoError(t, err)
	assert.Equal(t, "node 1\n", out)

	out, err = runCLI(t, "node:add", "--as", "bob", "--data", "warehouse")
	require.NoError(t, err)
	assert.Equal(t, "node 2\n", out)

	out, err = runCLI(t, "item:add", "1", "--as", "alice", "--data", "batch")
	require.NoError(t, err)
	assert.Equal(t, "item 1\n", out)

	out, err = runCLI(t, "step:add", "1", "1", "--as", "alice", "--data", "cast")
	require.NoError(t, err)
	assert.Equal(t, "step 1\n", out)

	// Bob's node cannot cite alice's step without an approval.
	out, err = runCLI(t, "item:add", "2", "--as", "bob", "--data", "crate")
	require.NoError(t, err)
	assert.Equal(t, "item 2\n", out)

	out, err = runCLI(t, "step:check", "2", "2", "--as", "bob", "--precedent", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "rejected")

	require.NoError(t, runOnly(t, "step:approve", "1", "2", "--as", "alice"))

	out, err = runCLI(t, "step:check", "2", "2", "--as", "bob", "--precedent", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "ok")

	out, err = runCLI(t, "step:add", "2", "2", "--as", "bob", "--data", "assemble", "--precedent", "1")
	require.NoError(t, err)
	assert.Equal(t, "step 2\n", out)

	out, err = runCLI(t, "inspect")
	require.NoError(t, err)
	var dump struct {
		Nodes []struct {
			ID    uint64 `json:"id"`
			Owner string `json:"owner"`
		} `json:"nodes"`
		Steps []struct {
			ID         uint64   `json:"id"`
			Precedents []uint64 `json:"precedents"`
			Approved   []uint64 `json:"approved"`
		} `json:"steps"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &dump))
	require.Len(t, dump.Nodes, 2)
	assert.Equal(t, "alice", dump.Nodes[0].Owner)
	require.Len(t, dump.Steps, 2)
	assert.Equal(t, []uint64{1}, dump.Steps[1].Precedents)
	assert.Equal(t, []uint64{2}, dump.Steps[0].Approved)
}

func TestCLI_MutationsRequirePrincipal(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := runCLI(t, "node:add", "--data", "factory")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--as")
}

func TestCLI_SignatureSourceRequired(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := runCLI(t, "node:add", "--as", "alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--file or --data")
}

func TestCLI_FileSignatureFromDocument(t *testing.T) {
	t.Chdir(t.TempDir())

	require.NoError(t, os.WriteFile("doc.json", []byte(`{"site":"smelter"}`), 0o600))

	_, err := runCLI(t, "init")
	require.NoError(t, err)

	out, err := runCLI(t, "node:add", "--as", "alice", "--file", "doc.json")
	require.NoError(t, err)
	assert.Equal(t, "node 1\n", out)
}
