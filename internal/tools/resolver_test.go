package tools

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/ampliconworks/ampliflow/internal/prompt"
	"github.com/ampliconworks/ampliflow/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// retryAsker answers each question from a queue, applying the validator
// the way the interactive prompt does: invalid answers are consumed and
// the next one is tried.
type retryAsker struct {
	t       *testing.T
	answers []string
}

func (a *retryAsker) Ask(key, _ string, validate prompt.Validator) (string, error) {
	for len(a.answers) > 0 {
		answer := a.answers[0]
		a.answers = a.answers[1:]
		if validate != nil {
			if err := validate(answer); err != nil {
				continue
			}
		}
		return answer, nil
	}
	a.t.Fatalf("ran out of answers for %s", key)
	return "", nil
}

func writeExecutable(t *testing.T, dir, name string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("executable-bit semantics differ on windows")
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755))
	return path
}

func TestResolve_FromSearchPath(t *testing.T) {
	dir := t.TempDir()
	want := writeExecutable(t, dir, "vsearch")
	t.Setenv("PATH", dir)

	r := NewResolver(&retryAsker{t: t}, testutil.NewTestLogger(t))
	got, err := r.Resolve("vsearch")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestResolve_InteractiveFallbackRetries(t *testing.T) {
	dir := t.TempDir()
	want := writeExecutable(t, dir, "cutadapt")
	t.Setenv("PATH", t.TempDir()) // empty PATH dir forces the fallback

	asker := &retryAsker{t: t, answers: []string{"/nonexistent/dir", dir}}
	r := NewResolver(asker, nil)

	got, err := r.Resolve("cutadapt")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Empty(t, asker.answers, "both answers should have been consumed")
}

func TestResolve_RejectsNonExecutableFile(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("executable-bit semantics differ on windows")
	}
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "seqkit"), []byte("data"), 0o644))
	t.Setenv("PATH", t.TempDir())

	good := t.TempDir()
	want := writeExecutable(t, good, "seqkit")

	asker := &retryAsker{t: t, answers: []string{dir, good}}
	r := NewResolver(asker, nil)

	got, err := r.Resolve("seqkit")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestResolve_AbortPropagates(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	r := NewResolver(abortAsker{}, nil)
	_, err := r.Resolve("vsearch")
	assert.ErrorIs(t, err, prompt.ErrAborted)
}

type abortAsker struct{}

func (abortAsker) Ask(string, string, prompt.Validator) (string, error) {
	return "", prompt.ErrAborted
}

func TestResolveAll(t *testing.T) {
	dir := t.TempDir()
	writeExecutable(t, dir, "vsearch")
	writeExecutable(t, dir, "seqkit")
	t.Setenv("PATH", dir)

	r := NewResolver(&retryAsker{t: t}, nil)
	binding, err := r.ResolveAll("vsearch", "seqkit")
	require.NoError(t, err)

	p, err := binding.Path("vsearch")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "vsearch"), p)

	_, err = binding.Path("cutadapt")
	assert.Error(t, err)
}
