// Package config loads ampliflow's layered configuration: defaults, an
// optional ampliflow.yaml, AMPLIFLOW_-prefixed environment variables, and
// command-line flags, in ascending precedence.
package config

import (
	"context"
	"fmt"
	"log/slog"
)

// Default values applied before any other configuration source.
const (
	DefaultInputDir  = "."
	DefaultOutputDir = "ampliflow_out"
	DefaultThreads   = 1
)

// LogFileName is the append-only run log written inside the output
// directory.
const LogFileName = "amplicon_processing.log"

// Config holds the merged configuration for a run.
type Config struct {
	// InputDir holds the raw sequencing files named by the sample sheet.
	InputDir string `koanf:"input_dir"`
	// MetadataFile is the tab-separated sample sheet. It has no default;
	// every run must name one.
	MetadataFile string `koanf:"metadata_file"`
	// OutputDir receives the numbered stage directories and the run log.
	OutputDir string `koanf:"output_dir"`
	// Threads is passed to every external tool.
	Threads int `koanf:"threads"`
	// Verbose lowers the log level to debug.
	Verbose bool `koanf:"verbose"`

	// Answers pre-answers interactive questions, keyed by question name
	// (e.g. cluster_method: uparse). Unanswered questions fall back to the
	// terminal.
	Answers map[string]string `koanf:"answers"`
	// Tools maps a tool name to the directory containing it, for tools
	// not on the search path.
	Tools map[string]string `koanf:"tools"`
}

// Validate checks that the configuration is sufficient to start a run.
func (c *Config) Validate() error {
	if c.InputDir == "" {
		return fmt.Errorf("input directory is required (-i or input_dir)")
	}
	if c.MetadataFile == "" {
		return fmt.Errorf("metadata file is required (-m or metadata_file)")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output directory is required (-o or output_dir)")
	}
	if c.Threads < 1 {
		return fmt.Errorf("threads must be positive, got %d", c.Threads)
	}
	return nil
}

// PromptAnswers returns the canned answers in the namespaced form the
// prompt layer uses: answers.<question> and tools.<tool>.
func (c *Config) PromptAnswers() map[string]string {
	merged := make(map[string]string, len(c.Answers)+len(c.Tools))
	for k, v := range c.Answers {
		merged["answers."+k] = v
	}
	for k, v := range c.Tools {
		merged["tools."+k] = v
	}
	return merged
}

// loggerKey is used to store the logger in context.
type loggerKey struct{}

// WithLogger stores the logger in the context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}
