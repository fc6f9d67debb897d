package cli

import (
	"bytes"
	"testing"

	"github.com/ampliconworks/ampliflow/internal/cli/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Help(t *testing.T) {
	config.ResetConfig()
	defer config.ResetConfig()

	cmd := NewRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())
	help := out.String()
	assert.Contains(t, help, "run")
	assert.Contains(t, help, "filter")
	assert.Contains(t, help, "doctor")
	assert.Contains(t, help, "version")
}

func TestRunCommand_RequiresMetadata(t *testing.T) {
	config.ResetConfig()
	defer config.ResetConfig()

	dir := t.TempDir()
	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"run", "-i", dir, "-o", dir, "-t", "4"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "metadata")
}

func TestRunCommand_RejectsZeroThreads(t *testing.T) {
	config.ResetConfig()
	defer config.ResetConfig()

	dir := t.TempDir()
	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"run", "-i", dir, "-m", "sheet.tsv", "-o", dir, "-t", "0"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "threads")
}

func TestVersionSubcommand(t *testing.T) {
	config.ResetConfig()
	defer config.ResetConfig()

	cmd := NewRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "ampliflow v")
}
