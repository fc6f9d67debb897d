// Package pipeline sequences the amplicon processing stages, fanning out
// per-sample work and wiring each stage's output directory into the next
// stage's input. All scientific computation happens in external tools;
// this package only constructs and orders their invocations.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ampliconworks/ampliflow/internal/execx"
	"github.com/ampliconworks/ampliflow/internal/metadata"
	"github.com/ampliconworks/ampliflow/internal/prompt"
	"github.com/ampliconworks/ampliflow/internal/tools"
)

// Options are the command-line parameters of a run.
type Options struct {
	// InputDir holds the raw sequencing files named by the sample sheet.
	InputDir string
	// MetadataPath is the tab-separated sample sheet.
	MetadataPath string
	// OutputDir receives the numbered stage directories.
	OutputDir string
	// Threads is forwarded verbatim to every external tool; the pipeline
	// itself is strictly sequential.
	Threads int
}

// StageSummary records what one stage did, for the end-of-run report.
type StageSummary struct {
	Name     string
	Commands int
	Skipped  int
}

// Pipeline drives one run. Stages execute in fixed order; interactive
// choices select which commands are built, never whether a stage occupies
// its position.
type Pipeline struct {
	opts     Options
	tools    tools.Binding
	resolver *tools.Resolver
	runner   execx.Runner
	asker    prompt.Asker
	logger   *slog.Logger

	samples []metadata.Sample
	summary []StageSummary
}

// New assembles a pipeline. The tool binding must already contain
// cutadapt, vsearch and seqkit; the resolver is used only for tools
// needed by optional extensions.
func New(opts Options, binding tools.Binding, resolver *tools.Resolver, runner execx.Runner, asker prompt.Asker, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{
		opts:     opts,
		tools:    binding,
		resolver: resolver,
		runner:   runner,
		asker:    asker,
		logger:   logger,
	}
}

// Summary returns per-stage counts for the completed portion of the run.
func (p *Pipeline) Summary() []StageSummary {
	return p.summary
}

// Run executes every stage in order. Any external command failure is
// fatal; a missing per-sample input only skips that sample.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("loading metadata", "path", p.opts.MetadataPath)
	samples, err := metadata.Load(p.opts.MetadataPath)
	if err != nil {
		return err
	}
	p.samples = samples
	p.logger.Info("metadata loaded", "samples", len(samples))

	stages := []struct {
		name string
		run  func(context.Context) (StageSummary, error)
	}{
		{"demultiplex", p.runDemultiplex},
		{"merge", p.runMerge},
		{"quality filter", p.runQualityFilter},
		{"dereplicate", p.runDereplicate},
		{"cluster", p.runCluster},
		{"chimera detection", p.runChimera},
		{"OTU table", p.runTable},
		{"relabel/recluster", p.runRelabelRecluster},
		{"rarefaction curve", p.runRarefaction},
		{"abundance filter", p.runAbundanceFilter},
		{"classification", p.runClassify},
	}
	for _, stage := range stages {
		summary, err := stage.run(ctx)
		summary.Name = stage.name
		p.summary = append(p.summary, summary)
		if err != nil {
			return fmt.Errorf("stage %s: %w", stage.name, err)
		}
	}

	p.logger.Info("pipeline complete", "output", p.opts.OutputDir)
	return nil
}

// stageDir creates and returns a numbered stage directory.
func (p *Pipeline) stageDir(name string) (string, error) {
	dir := filepath.Join(p.opts.OutputDir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create stage directory %s: %w", dir, err)
	}
	return dir, nil
}

// skipSample logs the soft-skip for a sample whose input is missing.
func (p *Pipeline) skipSample(sampleID, missing string) {
	p.logger.Warn("skipping sample, input not found", "sample", sampleID, "missing", missing)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (p *Pipeline) runDemultiplex(ctx context.Context) (StageSummary, error) {
	var s StageSummary
	outDir, err := p.stageDir(DirDemultiplex)
	if err != nil {
		return s, err
	}
	cutadapt, err := p.tools.Path(tools.Cutadapt)
	if err != nil {
		return s, err
	}

	for _, sample := range p.samples {
		fwd := filepath.Join(p.opts.InputDir, sample.ForwardFile)
		rev := filepath.Join(p.opts.InputDir, sample.ReverseFile)
		if !fileExists(fwd) {
			p.skipSample(sample.SampleID, fwd)
			s.Skipped++
			continue
		}
		if !fileExists(rev) {
			p.skipSample(sample.SampleID, rev)
			s.Skipped++
			continue
		}

		cmd := DemultiplexCommand(cutadapt, sample, fwd, rev,
			filepath.Join(outDir, sample.SampleID+".R1.fastq"),
			filepath.Join(outDir, sample.SampleID+".R2.fastq"),
			p.opts.Threads)
		if err := p.runner.Run(ctx, cmd); err != nil {
			return s, err
		}
		s.Commands++
	}
	return s, nil
}

func (p *Pipeline) runMerge(ctx context.Context) (StageSummary, error) {
	var s StageSummary
	outDir, err := p.stageDir(DirMerge)
	if err != nil {
		return s, err
	}
	vsearch, err := p.tools.Path(tools.Vsearch)
	if err != nil {
		return s, err
	}
	demuxDir := filepath.Join(p.opts.OutputDir, DirDemultiplex)

	for _, sample := range p.samples {
		fwd := filepath.Join(demuxDir, sample.SampleID+".R1.fastq")
		rev := filepath.Join(demuxDir, sample.SampleID+".R2.fastq")
		if !fileExists(fwd) {
			p.skipSample(sample.SampleID, fwd)
			s.Skipped++
			continue
		}
		if !fileExists(rev) {
			p.skipSample(sample.SampleID, rev)
			s.Skipped++
			continue
		}

		out := filepath.Join(outDir, sample.SampleID+".merged.fastq")
		if err := p.runner.Run(ctx, MergeCommand(vsearch, fwd, rev, out, sample.SampleID, p.opts.Threads)); err != nil {
			return s, err
		}
		s.Commands++
	}
	return s, nil
}

func (p *Pipeline) runQualityFilter(ctx context.Context) (StageSummary, error) {
	var s StageSummary
	outDir, err := p.stageDir(DirQuality)
	if err != nil {
		return s, err
	}
	vsearch, err := p.tools.Path(tools.Vsearch)
	if err != nil {
		return s, err
	}
	mergeDir := filepath.Join(p.opts.OutputDir, DirMerge)

	mode, err := p.asker.Ask("answers.length_mode",
		"Amplicon length selection - range (min..max) or fixed (one or more exact lengths)? [range/fixed]:",
		prompt.OneOf("range", "fixed"))
	if err != nil {
		return s, err
	}

	if mode == "range" {
		minLen, err := askInt(p.asker, "answers.min_length", "Minimum read length:", prompt.PositiveInt)
		if err != nil {
			return s, err
		}
		maxLen, err := askInt(p.asker, "answers.max_length",
			fmt.Sprintf("Maximum read length (at least %d):", minLen), prompt.IntAtLeast(minLen))
		if err != nil {
			return s, err
		}

		for _, sample := range p.samples {
			input := filepath.Join(mergeDir, sample.SampleID+".merged.fastq")
			if !fileExists(input) {
				p.skipSample(sample.SampleID, input)
				s.Skipped++
				continue
			}
			output := filepath.Join(outDir, sample.SampleID+".filtered.fasta")
			if err := p.runner.Run(ctx, QualityFilterCommand(vsearch, input, output, sample.SampleID, minLen, maxLen, p.opts.Threads)); err != nil {
				return s, err
			}
			s.Commands++
		}
		return s, nil
	}

	lengths, err := askIntList(p.asker, "answers.lengths",
		"Target marker lengths (one or more, space-separated):")
	if err != nil {
		return s, err
	}
	seqkit, err := p.tools.Path(tools.Seqkit)
	if err != nil {
		return s, err
	}

	for _, sample := range p.samples {
		input := filepath.Join(mergeDir, sample.SampleID+".merged.fastq")
		if !fileExists(input) {
			p.skipSample(sample.SampleID, input)
			s.Skipped++
			continue
		}
		ran, err := p.qualityFixedSample(ctx, vsearch, seqkit, sample.SampleID, input, outDir, lengths)
		s.Commands += ran
		if err != nil {
			return s, err
		}
	}
	return s, nil
}

// qualityFixedSample extracts reads at each fixed length into a combined
// intermediate file, filters it, and removes the intermediate on every
// exit path.
func (p *Pipeline) qualityFixedSample(ctx context.Context, vsearch, seqkit, sampleID, input, outDir string, lengths []int) (int, error) {
	temp := filepath.Join(outDir, sampleID+".temp.fastq")
	defer func() { _ = os.Remove(temp) }()

	ran := 0
	for _, length := range lengths {
		if err := p.runner.Run(ctx, LengthExtractCommand(seqkit, length, input, temp, sampleID, p.opts.Threads)); err != nil {
			return ran, err
		}
		ran++
	}

	output := filepath.Join(outDir, sampleID+".filtered.fasta")
	if err := p.runner.Run(ctx, QualityFilterCommand(vsearch, temp, output, sampleID, 0, 0, p.opts.Threads)); err != nil {
		return ran, err
	}
	return ran + 1, nil
}

func (p *Pipeline) runDereplicate(ctx context.Context) (StageSummary, error) {
	var s StageSummary
	outDir, err := p.stageDir(DirDereplicate)
	if err != nil {
		return s, err
	}
	vsearch, err := p.tools.Path(tools.Vsearch)
	if err != nil {
		return s, err
	}
	qualityDir := filepath.Join(p.opts.OutputDir, DirQuality)

	pool, err := os.Create(filepath.Join(outDir, PoolFile))
	if err != nil {
		return s, fmt.Errorf("failed to create sequence pool: %w", err)
	}
	defer func() { _ = pool.Close() }()

	for _, sample := range p.samples {
		input := filepath.Join(qualityDir, sample.SampleID+".filtered.fasta")
		if !fileExists(input) {
			p.skipSample(sample.SampleID, input)
			s.Skipped++
			continue
		}

		output := filepath.Join(outDir, sample.SampleID+".derep.fasta")
		if err := p.runner.Run(ctx, DereplicateCommand(vsearch, input, output, sample.SampleID, p.opts.Threads)); err != nil {
			return s, err
		}
		s.Commands++

		if err := appendFile(pool, output); err != nil {
			return s, err
		}
	}
	if err := pool.Close(); err != nil {
		return s, fmt.Errorf("failed to finalize sequence pool: %w", err)
	}
	return s, nil
}

// appendFile copies the contents of path onto dst.
func appendFile(dst io.Writer, path string) error {
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = src.Close() }()
	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to append %s to pool: %w", path, err)
	}
	return nil
}

func (p *Pipeline) runCluster(ctx context.Context) (StageSummary, error) {
	var s StageSummary
	outDir, err := p.stageDir(DirCluster)
	if err != nil {
		return s, err
	}
	vsearch, err := p.tools.Path(tools.Vsearch)
	if err != nil {
		return s, err
	}

	choice, err := p.asker.Ask("answers.cluster_method",
		"Clustering strategy - greedy centroids at 97% (uparse) or denoising (unoise)? [uparse/unoise]:",
		prompt.OneOf(string(ClusterUparse), string(ClusterUnoise)))
	if err != nil {
		return s, err
	}

	pool := filepath.Join(p.opts.OutputDir, DirDereplicate, PoolFile)
	centroids := filepath.Join(outDir, CentroidsFile)
	if err := p.runner.Run(ctx, ClusterCommand(vsearch, ClusterMethod(choice), pool, centroids, p.opts.Threads)); err != nil {
		return s, err
	}
	s.Commands++
	return s, nil
}

func (p *Pipeline) runChimera(ctx context.Context) (StageSummary, error) {
	var s StageSummary
	outDir, err := p.stageDir(DirChimera)
	if err != nil {
		return s, err
	}
	vsearch, err := p.tools.Path(tools.Vsearch)
	if err != nil {
		return s, err
	}

	choice, err := p.asker.Ask("answers.chimera_method",
		"Chimera detection - de novo (denovo) or against a reference database (ref)? [denovo/ref]:",
		prompt.OneOf(string(ChimeraDenovo), string(ChimeraRef)))
	if err != nil {
		return s, err
	}

	refDB := ""
	if ChimeraMethod(choice) == ChimeraRef {
		refDB, err = p.asker.Ask("answers.chimera_db",
			"Reference database path:", prompt.FileExists)
		if err != nil {
			return s, err
		}
	}

	centroids := filepath.Join(p.opts.OutputDir, DirCluster, CentroidsFile)
	out := filepath.Join(outDir, NonChimerasFile)
	if err := p.runner.Run(ctx, ChimeraCommand(vsearch, ChimeraMethod(choice), centroids, refDB, out, p.opts.Threads)); err != nil {
		return s, err
	}
	s.Commands++
	return s, nil
}

func (p *Pipeline) runTable(ctx context.Context) (StageSummary, error) {
	var s StageSummary
	outDir, err := p.stageDir(DirOTU)
	if err != nil {
		return s, err
	}
	vsearch, err := p.tools.Path(tools.Vsearch)
	if err != nil {
		return s, err
	}

	pool := filepath.Join(p.opts.OutputDir, DirDereplicate, PoolFile)
	db := filepath.Join(p.opts.OutputDir, DirChimera, NonChimerasFile)
	table := filepath.Join(outDir, TableFile)
	if err := p.runner.Run(ctx, TableCommand(vsearch, pool, db, table, p.opts.Threads)); err != nil {
		return s, err
	}
	s.Commands++
	return s, nil
}
