// Package tools locates the external executables the pipeline depends on.
package tools

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/ampliconworks/ampliflow/internal/prompt"
)

// Logical tool names resolved before a pipeline run.
const (
	Cutadapt = "cutadapt"
	Vsearch  = "vsearch"
	Seqkit   = "seqkit"

	// RarefyScript computes rarefaction tables; resolved lazily, only
	// when the rarefaction extension is enabled.
	RarefyScript = "Rarefy_OTUtab.R"
)

// Binding maps logical tool names to verified executable paths. Built once
// at startup and shared read-only with every stage.
type Binding map[string]string

// Path returns the bound path for a tool name.
func (b Binding) Path(name string) (string, error) {
	p, ok := b[name]
	if !ok {
		return "", fmt.Errorf("tool %s is not bound", name)
	}
	return p, nil
}

// Resolver finds executables on the search path, falling back to asking
// the user for an installation directory.
type Resolver struct {
	asker  prompt.Asker
	logger *slog.Logger
}

// NewResolver creates a Resolver. A nil logger discards output.
func NewResolver(asker prompt.Asker, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Resolver{asker: asker, logger: logger}
}

// Resolve returns the executable path for a tool. When the tool is not on
// the search path, the user is asked for its installation directory until
// the joined path is an executable file or the abort sentinel is entered.
func (r *Resolver) Resolve(name string) (string, error) {
	if path, err := exec.LookPath(name); err == nil {
		r.logger.Info("tool found", "tool", name, "path", path)
		return path, nil
	}

	dir, err := r.asker.Ask(
		"tools."+name,
		fmt.Sprintf("%s not found. Please input its installation directory (absolute path):", name),
		executableIn(name),
	)
	if err != nil {
		return "", err
	}

	full := filepath.Join(absDir(dir), name)
	r.logger.Info("tool found", "tool", name, "path", full)
	return full, nil
}

// ResolveAll binds every named tool, in order.
func (r *Resolver) ResolveAll(names ...string) (Binding, error) {
	binding := make(Binding, len(names))
	for _, name := range names {
		path, err := r.Resolve(name)
		if err != nil {
			return nil, err
		}
		binding[name] = path
	}
	return binding, nil
}

// executableIn validates a candidate installation directory for a tool.
func executableIn(name string) prompt.Validator {
	return func(dir string) error {
		if !isExecutable(filepath.Join(absDir(dir), name)) {
			return fmt.Errorf("tool not found or not executable, please try again")
		}
		return nil
	}
}

func absDir(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return filepath.Clean(dir)
	}
	return abs
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	return info.Mode().Perm()&0o111 != 0
}
