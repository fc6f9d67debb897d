// Package commands implements the ampliflow subcommands.
package commands

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ampliconworks/ampliflow/internal/cli/config"
	"github.com/ampliconworks/ampliflow/internal/execx"
	"github.com/ampliconworks/ampliflow/internal/pipeline"
	"github.com/ampliconworks/ampliflow/internal/prompt"
	"github.com/ampliconworks/ampliflow/internal/tools"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the full amplicon processing pipeline",
		Long: `Run every pipeline stage in order: demultiplex, merge, quality filter,
dereplicate, cluster, chimera detection and OTU table, followed by the
optional relabel/recluster, rarefaction, abundance filter and SINTAX
classification extensions.

Interactive questions can be pre-answered in ampliflow.yaml under the
answers: section; anything left unanswered is asked on the terminal.
Entering "exit" at any question aborts the run.`,
		Example: `  # Interactive run
  ampliflow run -i raw/ -m samples.tsv -o results/ -t 8

  # Unattended run with answers from ampliflow.yaml
  AMPLIFLOW_ANSWERS_CLUSTER_METHOD=uparse ampliflow run -i raw/ -m samples.tsv -o results/ -t 8`,
		RunE: runPipeline,
	}
}

func runPipeline(cmd *cobra.Command, _ []string) error {
	cfg := config.GetCurrentConfig()
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	logger, closeLog, err := openRunLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	rl, err := prompt.NewReadline()
	if err != nil {
		return err
	}
	defer func() { _ = rl.Close() }()
	asker := &prompt.Values{Answers: cfg.PromptAnswers(), Fallback: rl}

	resolver := tools.NewResolver(asker, logger)
	binding, err := resolver.ResolveAll(tools.Cutadapt, tools.Vsearch, tools.Seqkit)
	if err != nil {
		return describeAbort(err)
	}

	runner := execx.NewRunner(logger)
	p := pipeline.New(pipeline.Options{
		InputDir:     cfg.InputDir,
		MetadataPath: cfg.MetadataFile,
		OutputDir:    cfg.OutputDir,
		Threads:      cfg.Threads,
	}, binding, resolver, runner, asker, logger)

	runErr := p.Run(cmd.Context())
	if summary := p.Summary(); len(summary) > 0 {
		renderStageSummary(cmd.OutOrStdout(), summary)
	}
	if runErr != nil {
		logger.Error("pipeline failed", "error", runErr)
		return describeAbort(runErr)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Pipeline complete. Results in %s\n", cfg.OutputDir)
	return nil
}

// openRunLogger opens the append-only run log inside the output directory
// so successive runs of the same analysis accumulate in one place.
func openRunLogger(cfg *config.Config) (*slog.Logger, func(), error) {
	path := filepath.Join(cfg.OutputDir, config.LogFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open run log: %w", err)
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	return logger, func() { _ = f.Close() }, nil
}

// describeAbort gives the user-initiated abort a friendlier message than
// the raw stage-wrapped error.
func describeAbort(err error) error {
	if errors.Is(err, prompt.ErrAborted) {
		return fmt.Errorf("run aborted at user request")
	}
	return err
}

func renderStageSummary(w io.Writer, stages []pipeline.StageSummary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Stage", "Commands", "Skipped Samples"})
	for _, s := range stages {
		t.AppendRow(table.Row{s.Name, s.Commands, s.Skipped})
	}
	t.Render()
}
