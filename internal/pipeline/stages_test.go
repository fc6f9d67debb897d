package pipeline

import (
	"testing"

	"github.com/ampliconworks/ampliflow/internal/metadata"
	"github.com/stretchr/testify/assert"
)

func TestDemultiplexCommand(t *testing.T) {
	sample := metadata.Sample{
		SampleID:      "S1",
		ForwardPrimer: "ACGT",
		ReversePrimer: "TGCA",
	}
	cmd := DemultiplexCommand("/bin/cutadapt", sample,
		"in/raw_R1.fastq", "in/raw_R2.fastq",
		"out/S1.R1.fastq", "out/S1.R2.fastq", 4)

	assert.Equal(t, "/bin/cutadapt", cmd.Path)
	assert.Equal(t, []string{
		"-g", "^ACGT",
		"-G", "^TGCA",
		"-o", "out/S1.R1.fastq",
		"-p", "out/S1.R2.fastq",
		"-j", "4",
		"--discard-untrimmed",
		"-e", "0.1",
		"in/raw_R1.fastq", "in/raw_R2.fastq",
	}, cmd.Args)
	assert.Contains(t, cmd.Description, "S1")
}

func TestMergeCommand(t *testing.T) {
	cmd := MergeCommand("/bin/vsearch", "S1.R1.fastq", "S1.R2.fastq", "S1.merged.fastq", "S1", 8)
	assert.Equal(t, []string{
		"--fastq_mergepairs", "S1.R1.fastq",
		"--reverse", "S1.R2.fastq",
		"--threads", "8",
		"--fastqout", "S1.merged.fastq",
		"--fastq_eeout",
	}, cmd.Args)
}

func TestLengthExtractCommand(t *testing.T) {
	cmd := LengthExtractCommand("/bin/seqkit", 313, "S1.merged.fastq", "S1.temp.fastq", "S1", 2)
	assert.Equal(t, []string{"seq", "-j", "2", "-m", "313", "-M", "313", "S1.merged.fastq"}, cmd.Args)
	assert.Equal(t, "S1.temp.fastq", cmd.StdoutPath)
}

func TestQualityFilterCommand_WithLengthBounds(t *testing.T) {
	cmd := QualityFilterCommand("/bin/vsearch", "in.fastq", "out.fasta", "S1", 200, 400, 4)
	assert.Equal(t, []string{
		"--fastx_filter", "in.fastq",
		"--fastaout", "out.fasta",
		"--fastq_maxee", "1.0",
		"--fastq_maxee_rate", "0.01",
		"--fastq_minlen", "200",
		"--fastq_maxlen", "400",
		"--fastq_maxns", "0",
		"--fasta_width", "0",
		"--threads", "4",
	}, cmd.Args)
}

func TestQualityFilterCommand_WithoutLengthBounds(t *testing.T) {
	cmd := QualityFilterCommand("/bin/vsearch", "in.fastq", "out.fasta", "S1", 0, 0, 4)
	assert.NotContains(t, cmd.Args, "--fastq_minlen")
	assert.NotContains(t, cmd.Args, "--fastq_maxlen")
}

func TestDereplicateCommand(t *testing.T) {
	cmd := DereplicateCommand("/bin/vsearch", "in.fasta", "out.fasta", "S1", 4)
	assert.Equal(t, []string{
		"--derep_fulllength", "in.fasta",
		"--strand", "plus",
		"--output", "out.fasta",
		"--sizeout",
		"--relabel", "S1.",
		"--fasta_width", "0",
		"--threads", "4",
	}, cmd.Args)
}

func TestClusterCommand_Uparse(t *testing.T) {
	cmd := ClusterCommand("/bin/vsearch", ClusterUparse, "pool.fasta", "otus.fasta", 4)
	assert.Contains(t, cmd.Args, "--cluster_smallmem")
	assert.Contains(t, cmd.Args, "--id")
	assert.Contains(t, cmd.Args, "0.97")
}

func TestClusterCommand_UnoiseTakesNoIdentity(t *testing.T) {
	cmd := ClusterCommand("/bin/vsearch", ClusterUnoise, "pool.fasta", "otus.fasta", 4)
	assert.Contains(t, cmd.Args, "--unoise3")
	assert.NotContains(t, cmd.Args, "--id")
}

func TestChimeraCommand_Denovo(t *testing.T) {
	cmd := ChimeraCommand("/bin/vsearch", ChimeraDenovo, "otus.fasta", "", "nochim.fasta", 4)
	assert.Contains(t, cmd.Args, "--uchime_denovo")
	assert.NotContains(t, cmd.Args, "--db")
}

func TestChimeraCommand_Reference(t *testing.T) {
	cmd := ChimeraCommand("/bin/vsearch", ChimeraRef, "otus.fasta", "ref.fasta", "nochim.fasta", 4)
	assert.Contains(t, cmd.Args, "--uchime_ref")
	assert.Contains(t, cmd.Args, "--db")
	assert.Contains(t, cmd.Args, "ref.fasta")
}

func TestTableCommand(t *testing.T) {
	cmd := TableCommand("/bin/vsearch", "pool.fasta", "nochim.fasta", "otutab.txt", 4)
	assert.Equal(t, []string{
		"--usearch_global", "pool.fasta",
		"--db", "nochim.fasta",
		"--usersort",
		"--id", "0.97",
		"--otutabout", "otutab.txt",
		"--strand", "plus",
		"--sizein",
		"--threads", "4",
	}, cmd.Args)
}

func TestRelabelCommand(t *testing.T) {
	cmd := RelabelCommand("/bin/vsearch", "nochim.fasta", "otus.temp.fasta", 4)
	assert.Contains(t, cmd.Args, "--relabel")
	assert.Contains(t, cmd.Args, "OTU_")
}

func TestReclusterCommand(t *testing.T) {
	cmd := ReclusterCommand("/bin/vsearch", "otus.temp.fasta", "otus.fasta", "0.95", 4)
	assert.Contains(t, cmd.Args, "--cluster_size")
	assert.Contains(t, cmd.Args, "0.95")
}

func TestRemapCommand(t *testing.T) {
	cmd := RemapCommand("/bin/vsearch", "pool.fasta", "otus.fasta", "0.95", "otutab.txt", 4)
	assert.Equal(t, []string{
		"--usearch_global", "pool.fasta",
		"--db", "otus.fasta",
		"--id", "0.95",
		"--strand", "plus",
		"--threads", "4",
		"--sizein", "--sizeout",
		"--fasta_width", "0",
		"--qmask", "none",
		"--dbmask", "none",
		"--otutabout", "otutab.txt",
	}, cmd.Args)
}

func TestRarefyCommand(t *testing.T) {
	cmd := RarefyCommand("/opt/Rarefy_OTUtab.R", "otutab.txt", "id.sample")
	assert.Equal(t, []string{"otutab.txt", "id.sample"}, cmd.Args)
}

func TestSintaxCommand(t *testing.T) {
	cmd := SintaxCommand("/bin/vsearch", "nochim.fasta", "taxdb.fasta", "otus_sintax.txt", 4)
	assert.Equal(t, []string{
		"--sintax", "nochim.fasta",
		"--db", "taxdb.fasta",
		"--sintax_cutoff", "0.8",
		"--usersort",
		"--strand", "both",
		"--tabbedout", "otus_sintax.txt",
		"--threads", "4",
	}, cmd.Args)
}
