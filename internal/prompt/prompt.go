// Package prompt acquires run-time configuration values, either
// interactively from a terminal or from pre-supplied answers.
package prompt

import (
	"errors"
	"fmt"
	"strings"
)

// AbortSentinel ends the whole program when entered at any prompt.
const AbortSentinel = "exit"

// ErrAborted is returned when the user enters the abort sentinel.
var ErrAborted = errors.New("aborted by user")

// Validator checks a candidate answer. A nil return accepts the value;
// the error message is shown to the user before re-prompting.
type Validator func(string) error

// Asker obtains one configuration value. key identifies the question for
// answer files; message is the human-readable prompt.
type Asker interface {
	Ask(key, message string, validate Validator) (string, error)
}

// Values answers questions from a fixed key/value map and delegates
// unanswered keys to a fallback Asker. A present but invalid answer is a
// hard error rather than a re-prompt, so broken answer files fail fast.
type Values struct {
	Answers  map[string]string
	Fallback Asker
}

// Ask implements Asker.
func (v *Values) Ask(key, message string, validate Validator) (string, error) {
	if answer, ok := v.Answers[key]; ok {
		answer = strings.TrimSpace(answer)
		if validate != nil {
			if err := validate(answer); err != nil {
				return "", fmt.Errorf("configured answer for %s is invalid: %w", key, err)
			}
		}
		return answer, nil
	}
	if v.Fallback == nil {
		return "", fmt.Errorf("no answer configured for %s and no interactive prompt available", key)
	}
	return v.Fallback.Ask(key, message, validate)
}
