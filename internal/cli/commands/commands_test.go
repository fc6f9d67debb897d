package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	cmd := NewVersionCommand("1.2.3")
	out := &bytes.Buffer{}
	cmd.SetOut(out)

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "ampliflow v1.2.3")
}

func TestDoctorCommand(t *testing.T) {
	// Only vsearch exists on the search path.
	binDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(binDir, "vsearch"), []byte("#!/bin/sh\n"), 0o755))
	t.Setenv("PATH", binDir)

	cmd := NewDoctorCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)

	require.NoError(t, cmd.Execute())
	report := out.String()
	assert.Contains(t, report, "vsearch")
	assert.Contains(t, report, "ok")
	assert.Contains(t, report, "not found")
	assert.Contains(t, report, "required tool(s) missing")
}

func TestFilterCommand(t *testing.T) {
	dir := t.TempDir()
	tablePath := filepath.Join(dir, "otutab.txt")
	otusPath := filepath.Join(dir, "otus.fasta")
	require.NoError(t, os.WriteFile(tablePath,
		[]byte("#OTU ID\tS1\nOTU_1\t120\nOTU_2\t5\n"), 0o644))
	require.NoError(t, os.WriteFile(otusPath,
		[]byte(">OTU_1;size=120\nACGT\n>OTU_2;size=5\nGGGG\n"), 0o644))

	cmd := NewFilterCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{
		"--table", tablePath,
		"--otus", otusPath,
		"--min-count", "50",
	})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "OTUs passed: 1, failed: 1")

	// Outputs land next to the table when --out-dir is omitted.
	assert.FileExists(t, filepath.Join(dir, "otutab.filter.txt"))
	assert.FileExists(t, filepath.Join(dir, "otus.filter.fasta"))
	assert.FileExists(t, filepath.Join(dir, "list.filter"))

	failed, err := os.ReadFile(filepath.Join(dir, "list.filter"))
	require.NoError(t, err)
	assert.Equal(t, "OTU_2;size=5\n", string(failed))
}

func TestFilterCommand_InvalidThresholds(t *testing.T) {
	cmd := NewFilterCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{
		"--table", "t.txt",
		"--otus", "o.fasta",
		"--min-count", "0",
	})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "count")
}

func TestFilterCommand_RequiresFlags(t *testing.T) {
	cmd := NewFilterCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--min-count", "10"})

	assert.Error(t, cmd.Execute())
}
