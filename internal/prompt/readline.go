package prompt

import (
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

// Readline asks questions on an interactive terminal. Each question is
// repeated until the validator accepts the answer or the user enters the
// abort sentinel. There is deliberately no retry limit.
type Readline struct {
	rl *readline.Instance
}

// NewReadline creates a terminal-backed Asker.
func NewReadline() (*Readline, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		InterruptPrompt: "^C",
		EOFPrompt:       AbortSentinel,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize prompt: %w", err)
	}
	return &Readline{rl: rl}, nil
}

// Close releases the terminal.
func (r *Readline) Close() error {
	return r.rl.Close()
}

// Ask implements Asker.
func (r *Readline) Ask(_, message string, validate Validator) (string, error) {
	r.rl.SetPrompt(message + " ")
	for {
		line, err := r.rl.Readline()
		if err == readline.ErrInterrupt || err == io.EOF {
			return "", ErrAborted
		}
		if err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}

		line = strings.TrimSpace(line)
		if strings.EqualFold(line, AbortSentinel) {
			return "", ErrAborted
		}
		if validate != nil {
			if verr := validate(line); verr != nil {
				_, _ = fmt.Fprintf(r.rl.Stderr(), "%v\n", verr)
				continue
			}
		}
		return line, nil
	}
}
