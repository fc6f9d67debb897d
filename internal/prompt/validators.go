package prompt

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// OneOf accepts only the listed values.
func OneOf(options ...string) Validator {
	return func(s string) error {
		for _, opt := range options {
			if s == opt {
				return nil
			}
		}
		return fmt.Errorf("please enter one of: %s", strings.Join(options, ", "))
	}
}

// PositiveInt accepts integers greater than zero.
func PositiveInt(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fmt.Errorf("please enter a positive integer")
	}
	return nil
}

// IntAtLeast accepts integers greater than or equal to min.
func IntAtLeast(min int) Validator {
	return func(s string) error {
		n, err := strconv.Atoi(s)
		if err != nil || n < min {
			return fmt.Errorf("please enter an integer of at least %d", min)
		}
		return nil
	}
}

// PositiveIntList accepts one or more space-separated positive integers.
func PositiveIntList(s string) error {
	tokens := strings.Fields(s)
	if len(tokens) == 0 {
		return fmt.Errorf("please enter one or more positive integers separated by spaces")
	}
	for _, tok := range tokens {
		n, err := strconv.Atoi(tok)
		if err != nil || n <= 0 {
			return fmt.Errorf("please enter one or more positive integers separated by spaces")
		}
	}
	return nil
}

// FloatInRange accepts a real number in [lo, hi].
func FloatInRange(lo, hi float64) Validator {
	return func(s string) error {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f < lo || f > hi {
			return fmt.Errorf("please enter a number between %g and %g", lo, hi)
		}
		return nil
	}
}

// FileExists accepts a path that exists on disk.
func FileExists(s string) error {
	if _, err := os.Stat(s); err != nil {
		return fmt.Errorf("file does not exist, please enter a valid path")
	}
	return nil
}

// YesNo accepts "yes" or "no" (case-insensitive).
func YesNo(s string) error {
	switch strings.ToLower(s) {
	case "yes", "no":
		return nil
	}
	return fmt.Errorf("please enter yes or no")
}

// IsYes reports whether a YesNo-validated answer means yes.
func IsYes(s string) bool {
	return strings.EqualFold(s, "yes")
}
