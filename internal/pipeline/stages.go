package pipeline

import (
	"fmt"
	"strconv"

	"github.com/ampliconworks/ampliflow/internal/execx"
	"github.com/ampliconworks/ampliflow/internal/metadata"
)

// Stage output directories under the run's output root.
const (
	DirDemultiplex = "1-demultiplex"
	DirMerge       = "2-merge"
	DirQuality     = "3-quality"
	DirDereplicate = "4-dereplicate"
	DirCluster     = "5-cluster"
	DirChimera     = "6-chimera"
	DirOTU         = "7-OTU"
	DirSintax      = "8-SINTAX"
)

// Run-level artifact names.
const (
	PoolFile          = "all_samples_derep.fasta"
	CentroidsFile     = "otus.fasta"
	NonChimerasFile   = "otus_nochim.fasta"
	TableFile         = "otutab.txt"
	SampleIDFile      = "id.sample"
	RareTableFile     = "rare.txt"
	RarefactionPlot   = "rarefaction_curve.pdf"
	SintaxFile        = "otus_sintax.txt"
	relabeledTempFile = "otus.temp.fasta"
	tableTempFile     = "otutab.temp.txt"
)

// ClusterMethod selects the run-level clustering strategy.
type ClusterMethod string

const (
	// ClusterUparse is greedy-centroid clustering at 97% identity.
	ClusterUparse ClusterMethod = "uparse"
	// ClusterUnoise is denoising; it takes no identity parameter.
	ClusterUnoise ClusterMethod = "unoise"
)

// ChimeraMethod selects the chimera-screening strategy.
type ChimeraMethod string

const (
	// ChimeraDenovo screens using only the centroids' own evidence.
	ChimeraDenovo ChimeraMethod = "denovo"
	// ChimeraRef screens against a trusted reference database.
	ChimeraRef ChimeraMethod = "ref"
)

// Fixed tool parameters carried over from the established protocol.
const (
	defaultIdentity   = "0.97"
	maxExpectedErrors = "1.0"
	maxErrorRate      = "0.01"
	primerErrorRate   = "0.1"
	sintaxCutoff      = "0.8"
)

// DemultiplexCommand trims a sample's primers from both raw reads,
// discarding untrimmed pairs.
func DemultiplexCommand(cutadapt string, s metadata.Sample, fwd, rev, outFwd, outRev string, threads int) execx.Command {
	return execx.Command{
		Path: cutadapt,
		Args: []string{
			"-g", "^" + s.ForwardPrimer,
			"-G", "^" + s.ReversePrimer,
			"-o", outFwd,
			"-p", outRev,
			"-j", strconv.Itoa(threads),
			"--discard-untrimmed",
			"-e", primerErrorRate,
			fwd, rev,
		},
		Description: fmt.Sprintf("demultiplex sample %s", s.SampleID),
	}
}

// MergeCommand pair-merges a sample's demultiplexed reads.
func MergeCommand(vsearch, fwd, rev, out, sampleID string, threads int) execx.Command {
	return execx.Command{
		Path: vsearch,
		Args: []string{
			"--fastq_mergepairs", fwd,
			"--reverse", rev,
			"--threads", strconv.Itoa(threads),
			"--fastqout", out,
			"--fastq_eeout",
		},
		Description: fmt.Sprintf("merge paired reads for sample %s", sampleID),
	}
}

// LengthExtractCommand extracts reads of exactly the given length,
// appending them to tempOut.
func LengthExtractCommand(seqkit string, length int, input, tempOut, sampleID string, threads int) execx.Command {
	l := strconv.Itoa(length)
	return execx.Command{
		Path: seqkit,
		Args: []string{
			"seq", "-j", strconv.Itoa(threads),
			"-m", l, "-M", l,
			input,
		},
		StdoutPath:  tempOut,
		Description: fmt.Sprintf("extract %sbp reads for sample %s", l, sampleID),
	}
}

// QualityFilterCommand quality-filters merged reads into fasta. minLen and
// maxLen of zero omit the length bounds (fixed-length mode filters a
// pre-extracted file instead).
func QualityFilterCommand(vsearch, input, output, sampleID string, minLen, maxLen, threads int) execx.Command {
	args := []string{
		"--fastx_filter", input,
		"--fastaout", output,
		"--fastq_maxee", maxExpectedErrors,
		"--fastq_maxee_rate", maxErrorRate,
	}
	if minLen > 0 {
		args = append(args, "--fastq_minlen", strconv.Itoa(minLen))
	}
	if maxLen > 0 {
		args = append(args, "--fastq_maxlen", strconv.Itoa(maxLen))
	}
	args = append(args,
		"--fastq_maxns", "0",
		"--fasta_width", "0",
		"--threads", strconv.Itoa(threads),
	)
	return execx.Command{
		Path:        vsearch,
		Args:        args,
		Description: fmt.Sprintf("quality filter sample %s", sampleID),
	}
}

// DereplicateCommand collapses duplicate sequences within one sample,
// relabeling them with the sample id as prefix.
func DereplicateCommand(vsearch, input, output, sampleID string, threads int) execx.Command {
	return execx.Command{
		Path: vsearch,
		Args: []string{
			"--derep_fulllength", input,
			"--strand", "plus",
			"--output", output,
			"--sizeout",
			"--relabel", sampleID + ".",
			"--fasta_width", "0",
			"--threads", strconv.Itoa(threads),
		},
		Description: fmt.Sprintf("dereplicate sample %s", sampleID),
	}
}

// ClusterCommand clusters the cumulative dereplicated pool into centroids.
func ClusterCommand(vsearch string, method ClusterMethod, pool, centroids string, threads int) execx.Command {
	if method == ClusterUnoise {
		return execx.Command{
			Path: vsearch,
			Args: []string{
				"--unoise3", pool,
				"--centroids", centroids,
				"--usersort",
				"--sizein", "--sizeout",
				"--fasta_width", "0",
				"--threads", strconv.Itoa(threads),
			},
			Description: "denoise pool into ASV centroids",
		}
	}
	return execx.Command{
		Path: vsearch,
		Args: []string{
			"--cluster_smallmem", pool,
			"--id", defaultIdentity,
			"--usersort",
			"--centroids", centroids,
			"--strand", "plus",
			"--sizein", "--sizeout",
			"--fasta_width", "0",
			"--threads", strconv.Itoa(threads),
		},
		Description: "cluster pool into OTU centroids",
	}
}

// ChimeraCommand screens centroids for chimeras. refDB is required for the
// reference-based method and ignored otherwise.
func ChimeraCommand(vsearch string, method ChimeraMethod, centroids, refDB, out string, threads int) execx.Command {
	if method == ChimeraRef {
		return execx.Command{
			Path: vsearch,
			Args: []string{
				"--uchime_ref", centroids,
				"--db", refDB,
				"--usersort",
				"--nonchimeras", out,
				"--sizein", "--sizeout",
				"--fasta_width", "0",
				"--threads", strconv.Itoa(threads),
			},
			Description: "reference-based chimera detection",
		}
	}
	return execx.Command{
		Path: vsearch,
		Args: []string{
			"--uchime_denovo", centroids,
			"--nonchimeras", out,
			"--sizein",
			"--sizeout",
			"--usersort",
			"--fasta_width", "0",
			"--threads", strconv.Itoa(threads),
		},
		Description: "de novo chimera detection",
	}
}

// TableCommand maps the dereplicated pool back onto the chimera-filtered
// centroids to produce the abundance table.
func TableCommand(vsearch, pool, db, outTable string, threads int) execx.Command {
	return execx.Command{
		Path: vsearch,
		Args: []string{
			"--usearch_global", pool,
			"--db", db,
			"--usersort",
			"--id", defaultIdentity,
			"--otutabout", outTable,
			"--strand", "plus",
			"--sizein",
			"--threads", strconv.Itoa(threads),
		},
		Description: "build OTU abundance table",
	}
}

// RelabelCommand rewrites centroid ids with the OTU_ prefix.
func RelabelCommand(vsearch, input, output string, threads int) execx.Command {
	return execx.Command{
		Path: vsearch,
		Args: []string{
			"--fastx_filter", input,
			"--sizein", "--sizeout",
			"--fasta_width", "0",
			"--relabel", "OTU_",
			"--threads", strconv.Itoa(threads),
			"--fastaout", output,
		},
		Description: "relabel OTU centroids",
	}
}

// ReclusterCommand performs the optional second clustering pass at a
// user-chosen identity.
func ReclusterCommand(vsearch, input, centroids, identity string, threads int) execx.Command {
	return execx.Command{
		Path: vsearch,
		Args: []string{
			"--cluster_size", input,
			"--id", identity,
			"--strand", "plus",
			"--threads", strconv.Itoa(threads),
			"--sizein", "--sizeout",
			"--fasta_width", "0",
			"--centroids", centroids,
		},
		Description: "second clustering pass",
	}
}

// RemapCommand re-maps the pool onto relabeled (and possibly re-clustered)
// centroids to refresh the abundance table.
func RemapCommand(vsearch, pool, db, identity, outTable string, threads int) execx.Command {
	return execx.Command{
		Path: vsearch,
		Args: []string{
			"--usearch_global", pool,
			"--db", db,
			"--id", identity,
			"--strand", "plus",
			"--threads", strconv.Itoa(threads),
			"--sizein", "--sizeout",
			"--fasta_width", "0",
			"--qmask", "none",
			"--dbmask", "none",
			"--otutabout", outTable,
		},
		Description: "remap pool onto relabeled centroids",
	}
}

// RarefyCommand invokes the external curve-computation script.
func RarefyCommand(script, tablePath, idSamplePath string) execx.Command {
	return execx.Command{
		Path:        script,
		Args:        []string{tablePath, idSamplePath},
		Description: "compute rarefaction curves",
	}
}

// SintaxCommand annotates centroids taxonomically against a reference
// database at a fixed confidence cutoff.
func SintaxCommand(vsearch, input, db, out string, threads int) execx.Command {
	return execx.Command{
		Path: vsearch,
		Args: []string{
			"--sintax", input,
			"--db", db,
			"--sintax_cutoff", sintaxCutoff,
			"--usersort",
			"--strand", "both",
			"--tabbedout", out,
			"--threads", strconv.Itoa(threads),
		},
		Description: "SINTAX taxonomic classification",
	}
}
