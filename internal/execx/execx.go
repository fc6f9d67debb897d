// Package execx runs the external bioinformatics tools the pipeline
// delegates to. It is the only place subprocesses are spawned.
package execx

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// Command describes one external invocation. Stage builders produce
// Commands as pure values so tests can assert on arguments without
// running real binaries.
type Command struct {
	// Path is the resolved executable path.
	Path string
	// Args is the argument vector, excluding the executable itself.
	Args []string
	// StdoutPath, when set, appends the command's stdout to this file
	// instead of capturing it. Used for streaming extraction steps.
	StdoutPath string
	// Description labels the command in logs and errors.
	Description string
}

// String returns the fully expanded command line.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Path
	}
	return c.Path + " " + strings.Join(c.Args, " ")
}

// Error reports a non-zero exit from an external command. It carries the
// captured stderr so the top level can surface the tool's own diagnostics.
type Error struct {
	Description string
	Stderr      string
	Err         error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s failed: %v", e.Description, e.Err)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Runner executes external commands.
type Runner interface {
	Run(ctx context.Context, cmd Command) error
}

// ExecRunner runs commands with os/exec, blocking until the subprocess
// exits. External tools manage their own parallelism via the forwarded
// thread count; the runner itself never times out or cancels.
type ExecRunner struct {
	logger *slog.Logger
}

// NewRunner creates an ExecRunner. A nil logger discards output.
func NewRunner(logger *slog.Logger) *ExecRunner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ExecRunner{logger: logger}
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) error {
	r.logger.Info("running", "description", cmd.Description)
	r.logger.Info("command", "line", cmd.String())

	execCmd := exec.CommandContext(ctx, cmd.Path, cmd.Args...)

	var stdout, stderr bytes.Buffer
	execCmd.Stderr = &stderr

	if cmd.StdoutPath != "" {
		out, err := os.OpenFile(cmd.StdoutPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", cmd.StdoutPath, err)
		}
		defer func() { _ = out.Close() }()
		execCmd.Stdout = out
	} else {
		execCmd.Stdout = &stdout
	}

	if err := execCmd.Run(); err != nil {
		return &Error{Description: cmd.Description, Stderr: stderr.String(), Err: err}
	}

	r.logger.Info("completed", "description", cmd.Description)
	if stdout.Len() > 0 {
		r.logger.Debug("output", "description", cmd.Description, "stdout", stdout.String())
	}
	return nil
}
