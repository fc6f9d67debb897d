package commands

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/ampliconworks/ampliflow/internal/otu"
	"github.com/spf13/cobra"
)

// FilterOptions holds options for the filter command.
type FilterOptions struct {
	Table    string
	Otus     string
	OutDir   string
	MinCount int
	MinFreq  float64
}

// NewFilterCommand creates the filter command.
func NewFilterCommand() *cobra.Command {
	opts := &FilterOptions{}
	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Apply the abundance filter to an existing OTU table",
		Long: `Zero out table cells whose count falls below --min-count or whose
within-sample frequency falls below --min-freq, then split the centroid
sequences into passed and failed sets.

Writes otutab.filter.txt, otus.filter.fasta and list.filter next to the
input table (or into --out-dir).`,
		Example: `  ampliflow filter --table results/7-OTU/otutab.txt \
    --otus results/7-OTU/otus.fasta --min-count 50 --min-freq 0.001`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFilter(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Table, "table", "", "OTU abundance table (tab-separated)")
	cmd.Flags().StringVar(&opts.Otus, "otus", "", "Centroid sequences in fasta format")
	cmd.Flags().StringVar(&opts.OutDir, "out-dir", "", "Output directory (default: the table's directory)")
	cmd.Flags().IntVar(&opts.MinCount, "min-count", 0, "Minimum count per cell")
	cmd.Flags().Float64Var(&opts.MinFreq, "min-freq", 0, "Minimum within-sample frequency (0 disables)")
	_ = cmd.MarkFlagRequired("table")
	_ = cmd.MarkFlagRequired("otus")
	_ = cmd.MarkFlagRequired("min-count")

	return cmd
}

func runFilter(cmd *cobra.Command, opts *FilterOptions) error {
	th := otu.Thresholds{MinCount: opts.MinCount, MinFreq: opts.MinFreq}
	if err := th.Validate(); err != nil {
		return err
	}

	outDir := opts.OutDir
	if outDir == "" {
		outDir = filepath.Dir(opts.Table)
	}

	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
	result, err := otu.FilterFiles(opts.Table, opts.Otus, outDir, th, logger)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "OTUs passed: %d, failed: %d\n", len(result.Passed), len(result.Failed))
	fmt.Fprintf(cmd.OutOrStdout(), "Outputs written to %s\n", outDir)
	return nil
}
