// Package cli provides the command-line interface for ampliflow.
package cli

import (
	"fmt"
	"os"

	"github.com/ampliconworks/ampliflow/internal/cli/commands"
	"github.com/ampliconworks/ampliflow/internal/cli/config"
	"github.com/spf13/cobra"
)

var cfgFile string

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ampliflow",
		Short: "Ampliflow - Amplicon Sequencing Pipeline",
		Long: `Ampliflow orchestrates amplicon sequencing analysis with cutadapt,
vsearch and seqkit.

It demultiplexes raw paired-end reads per sample, merges and quality-filters
them, clusters the pooled sequences into OTUs or ASVs, screens chimeras, and
builds an abundance table, with optional relabeling, rarefaction curves,
abundance filtering and SINTAX classification.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			if cfg.Verbose {
				if configFile := config.GetConfigFileUsed(); configFile != "" {
					fmt.Fprintf(os.Stderr, "Using config file: %s\n", configFile)
				}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Set version template
	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
Amplicon Sequencing Pipeline
`)

	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./ampliflow.yaml)")
	rootCmd.PersistentFlags().StringP("input-dir", "i", "", "Directory holding the raw sequencing files")
	rootCmd.PersistentFlags().StringP("metadata-file", "m", "", "Tab-separated sample sheet")
	rootCmd.PersistentFlags().StringP("output-dir", "o", "", "Directory for stage outputs and the run log")
	rootCmd.PersistentFlags().IntP("threads", "t", 0, "Threads passed to every external tool")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")

	// Add subcommands
	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(commands.NewFilterCommand())
	rootCmd.AddCommand(commands.NewDoctorCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for ampliflow.

To load completions:

Bash:
  $ source <(ampliflow completion bash)

Zsh:
  $ ampliflow completion zsh > "${fpath[1]}/_ampliflow"

Fish:
  $ ampliflow completion fish | source

PowerShell:
  PS> ampliflow completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}
	return cmd
}
