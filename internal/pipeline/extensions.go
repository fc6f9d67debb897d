package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ampliconworks/ampliflow/internal/metadata"
	"github.com/ampliconworks/ampliflow/internal/otu"
	"github.com/ampliconworks/ampliflow/internal/prompt"
	"github.com/ampliconworks/ampliflow/internal/rarefaction"
	"github.com/ampliconworks/ampliflow/internal/tools"
)

// runRelabelRecluster rewrites centroid ids with the OTU_ prefix and
// optionally re-clusters them at a user-chosen identity, refreshing the
// abundance table either way.
func (p *Pipeline) runRelabelRecluster(ctx context.Context) (StageSummary, error) {
	var s StageSummary
	enabled, err := askYes(p.asker, "answers.relabel",
		"Relabel OTUs (and optionally re-cluster)? [yes/no]:")
	if err != nil || !enabled {
		return s, err
	}

	vsearch, err := p.tools.Path(tools.Vsearch)
	if err != nil {
		return s, err
	}
	otuDir := filepath.Join(p.opts.OutputDir, DirOTU)
	nochim := filepath.Join(p.opts.OutputDir, DirChimera, NonChimerasFile)
	pool := filepath.Join(p.opts.OutputDir, DirDereplicate, PoolFile)
	temp := filepath.Join(otuDir, relabeledTempFile)
	centroids := filepath.Join(otuDir, CentroidsFile)
	table := filepath.Join(otuDir, TableFile)

	if err := p.runner.Run(ctx, RelabelCommand(vsearch, nochim, temp, p.opts.Threads)); err != nil {
		return s, err
	}
	s.Commands++

	recluster, err := askYes(p.asker, "answers.recluster",
		"Run a second clustering pass on the relabeled OTUs? [yes/no]:")
	if err != nil {
		return s, err
	}

	if recluster {
		identity, err := p.asker.Ask("answers.recluster_identity",
			"Identity threshold for the second pass (0-1, e.g. 0.97):",
			prompt.FloatInRange(0, 1))
		if err != nil {
			return s, err
		}
		if err := p.runner.Run(ctx, ReclusterCommand(vsearch, temp, centroids, identity, p.opts.Threads)); err != nil {
			return s, err
		}
		s.Commands++
		if err := p.runner.Run(ctx, RemapCommand(vsearch, pool, centroids, identity, table, p.opts.Threads)); err != nil {
			return s, err
		}
		s.Commands++
		if err := os.Remove(temp); err != nil {
			return s, fmt.Errorf("failed to remove %s: %w", temp, err)
		}
		return s, nil
	}

	// Without a second pass, map directly against the relabeled set and
	// promote the temporaries to their final names.
	tempTable := filepath.Join(otuDir, tableTempFile)
	if err := p.runner.Run(ctx, RemapCommand(vsearch, pool, temp, defaultIdentity, tempTable, p.opts.Threads)); err != nil {
		return s, err
	}
	s.Commands++
	if err := os.Rename(temp, centroids); err != nil {
		return s, fmt.Errorf("failed to finalize centroids: %w", err)
	}
	if err := os.Rename(tempTable, table); err != nil {
		return s, fmt.Errorf("failed to finalize table: %w", err)
	}
	return s, nil
}

// runRarefaction computes per-sample accumulation data with the external
// script and renders the curves to a PDF.
func (p *Pipeline) runRarefaction(ctx context.Context) (StageSummary, error) {
	var s StageSummary
	enabled, err := askYes(p.asker, "answers.rarefaction",
		"Plot rarefaction curves? [yes/no]:")
	if err != nil || !enabled {
		return s, err
	}

	otuDir := filepath.Join(p.opts.OutputDir, DirOTU)
	sampleIDs := metadata.SampleIDs(p.samples)

	idPath := filepath.Join(otuDir, SampleIDFile)
	if err := os.WriteFile(idPath, []byte(strings.Join(sampleIDs, "\n")+"\n"), 0o644); err != nil {
		return s, fmt.Errorf("failed to write sample id list: %w", err)
	}

	script, err := p.resolver.Resolve(tools.RarefyScript)
	if err != nil {
		return s, err
	}
	table := filepath.Join(otuDir, TableFile)
	if err := p.runner.Run(ctx, RarefyCommand(script, table, idPath)); err != nil {
		return s, err
	}
	s.Commands++

	rareFile, err := os.Open(filepath.Join(otuDir, RareTableFile))
	if err != nil {
		return s, fmt.Errorf("failed to open rarefaction table: %w", err)
	}
	defer func() { _ = rareFile.Close() }()

	curves, err := rarefaction.Read(rareFile)
	if err != nil {
		return s, err
	}

	missing, err := rarefaction.Plot(curves, sampleIDs, filepath.Join(otuDir, RarefactionPlot))
	for _, id := range missing {
		p.logger.Warn("sample missing from rarefaction table", "sample", id)
	}
	if err != nil {
		return s, err
	}
	p.logger.Info("rarefaction curve rendered", "path", filepath.Join(otuDir, RarefactionPlot))
	return s, nil
}

// runAbundanceFilter zeroes low-abundance cells and partitions the
// centroid sequences into passed and failed sets.
func (p *Pipeline) runAbundanceFilter(_ context.Context) (StageSummary, error) {
	var s StageSummary
	enabled, err := askYes(p.asker, "answers.filter",
		"Filter low-abundance OTUs (counts below thresholds set to 0)? [yes/no]:")
	if err != nil || !enabled {
		return s, err
	}

	minCount, err := askInt(p.asker, "answers.filter_min_count",
		"Minimum count threshold (e.g. 50):", prompt.PositiveInt)
	if err != nil {
		return s, err
	}
	minFreqStr, err := p.asker.Ask("answers.filter_min_freq",
		"Minimum frequency threshold (0 to disable, e.g. 0.001):", minFreqValidator)
	if err != nil {
		return s, err
	}
	minFreq, _ := strconv.ParseFloat(minFreqStr, 64)

	otuDir := filepath.Join(p.opts.OutputDir, DirOTU)
	table := filepath.Join(otuDir, TableFile)

	// The relabel extension writes otus.fasta; without it the
	// chimera-filtered centroids are the sequence set on record.
	otus := filepath.Join(otuDir, CentroidsFile)
	if !fileExists(otus) {
		otus = filepath.Join(p.opts.OutputDir, DirChimera, NonChimerasFile)
	}

	th := otu.Thresholds{MinCount: minCount, MinFreq: minFreq}
	if _, err := otu.FilterFiles(table, otus, otuDir, th, p.logger); err != nil {
		return s, err
	}
	return s, nil
}

// runClassify annotates the chimera-filtered centroids against a
// user-supplied taxonomy database.
func (p *Pipeline) runClassify(ctx context.Context) (StageSummary, error) {
	var s StageSummary
	enabled, err := askYes(p.asker, "answers.classify",
		"Run SINTAX taxonomic classification? [yes/no]:")
	if err != nil || !enabled {
		return s, err
	}

	outDir, err := p.stageDir(DirSintax)
	if err != nil {
		return s, err
	}
	vsearch, err := p.tools.Path(tools.Vsearch)
	if err != nil {
		return s, err
	}

	db, err := p.asker.Ask("answers.sintax_db",
		"Taxonomy reference database path:", prompt.FileExists)
	if err != nil {
		return s, err
	}

	nochim := filepath.Join(p.opts.OutputDir, DirChimera, NonChimerasFile)
	out := filepath.Join(outDir, SintaxFile)
	if err := p.runner.Run(ctx, SintaxCommand(vsearch, nochim, db, out, p.opts.Threads)); err != nil {
		return s, err
	}
	s.Commands++
	return s, nil
}

// minFreqValidator accepts a real number in [0, 1).
func minFreqValidator(s string) error {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || f >= 1 {
		return fmt.Errorf("please enter a number in [0, 1)")
	}
	return nil
}

func askYes(asker prompt.Asker, key, message string) (bool, error) {
	answer, err := asker.Ask(key, message, prompt.YesNo)
	if err != nil {
		return false, err
	}
	return prompt.IsYes(answer), nil
}

func askInt(asker prompt.Asker, key, message string, v prompt.Validator) (int, error) {
	answer, err := asker.Ask(key, message, v)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(answer)
	if err != nil {
		return 0, fmt.Errorf("invalid integer answer %q: %w", answer, err)
	}
	return n, nil
}

func askIntList(asker prompt.Asker, key, message string) ([]int, error) {
	answer, err := asker.Ask(key, message, prompt.PositiveIntList)
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(answer)
	lengths := make([]int, len(fields))
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("invalid length %q: %w", f, err)
		}
		lengths[i] = n
	}
	return lengths, nil
}
