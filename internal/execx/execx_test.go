package execx

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/ampliconworks/ampliflow/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipIfNoShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

func TestCommandString(t *testing.T) {
	cmd := Command{
		Path: "/usr/bin/vsearch",
		Args: []string{"--fastq_mergepairs", "a.fastq", "--reverse", "b.fastq"},
	}
	assert.Equal(t, "/usr/bin/vsearch --fastq_mergepairs a.fastq --reverse b.fastq", cmd.String())
	assert.Equal(t, "/usr/bin/vsearch", Command{Path: "/usr/bin/vsearch"}.String())
}

func TestRun_Success(t *testing.T) {
	skipIfNoShell(t)
	r := NewRunner(testutil.NewTestLogger(t))

	err := r.Run(context.Background(), Command{
		Path:        "/bin/sh",
		Args:        []string{"-c", "echo merged"},
		Description: "merge sample S1",
	})
	require.NoError(t, err)
}

func TestRun_NonZeroExitReturnsError(t *testing.T) {
	skipIfNoShell(t)
	r := NewRunner(nil)

	err := r.Run(context.Background(), Command{
		Path:        "/bin/sh",
		Args:        []string{"-c", "echo boom >&2; exit 3"},
		Description: "cluster centroids",
	})
	require.Error(t, err)

	var cmdErr *Error
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, "cluster centroids", cmdErr.Description)
	assert.Contains(t, cmdErr.Stderr, "boom")
	assert.Contains(t, cmdErr.Error(), "cluster centroids")
}

func TestRun_StdoutPathAppends(t *testing.T) {
	skipIfNoShell(t)
	r := NewRunner(nil)
	out := filepath.Join(t.TempDir(), "S1.temp.fastq")

	for _, text := range []string{"first", "second"} {
		err := r.Run(context.Background(), Command{
			Path:        "/bin/sh",
			Args:        []string{"-c", "echo " + text},
			StdoutPath:  out,
			Description: "extract fixed-length reads",
		})
		require.NoError(t, err)
	}

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(data))
}
