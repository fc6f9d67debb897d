package metadata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSheet(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "metadata.tsv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeSheet(t,
		"run1\tS1\tACGT\tTGCA\ts1_R1.fastq\ts1_R2.fastq\n"+
			"run1\tS2\tGGCC\tCCGG\ts2_R1.fastq\ts2_R2.fastq\n")

	samples, err := Load(path)
	require.NoError(t, err)
	require.Len(t, samples, 2)

	assert.Equal(t, Sample{
		RunID:         "run1",
		SampleID:      "S1",
		ForwardPrimer: "ACGT",
		ReversePrimer: "TGCA",
		ForwardFile:   "s1_R1.fastq",
		ReverseFile:   "s1_R2.fastq",
	}, samples[0])
	assert.Equal(t, "S2", samples[1].SampleID)
}

func TestLoad_DuplicateSampleIDWithinRun(t *testing.T) {
	path := writeSheet(t,
		"run1\tS1\tACGT\tTGCA\ta\tb\n"+
			"run1\tS1\tGGCC\tCCGG\tc\td\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate sample id S1")
}

func TestLoad_SameSampleIDDifferentRuns(t *testing.T) {
	path := writeSheet(t,
		"run1\tS1\tACGT\tTGCA\ta\tb\n"+
			"run2\tS1\tGGCC\tCCGG\tc\td\n")

	samples, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, samples, 2)
}

func TestLoad_WrongColumnCount(t *testing.T) {
	path := writeSheet(t, "run1\tS1\tACGT\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EmptyFile(t *testing.T) {
	path := writeSheet(t, "")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.tsv"))
	assert.Error(t, err)
}

func TestSampleIDs(t *testing.T) {
	samples := []Sample{{SampleID: "S1"}, {SampleID: "S2"}}
	assert.Equal(t, []string{"S1", "S2"}, SampleIDs(samples))
}
