// File: internal/suite/errors.go
package suite

import (
	"errors"
	"fmt"
	"strings"
)

// TestFailure is the error of a failed test attempt.
type TestFailure struct {
	Test     string
	Attempt  int
	Messages []string
	// Panic is the recovered value when the attempt panicked.
	Panic any
	Stack []byte
}

func (e *TestFailure) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s failed", e.Test)
	if e.Attempt > 0 {
		fmt.Fprintf(&b, " (attempt %d)", e.Attempt)
	}
	if e.Panic != nil {
		fmt.Fprintf(&b, ": panic: %v", e.Panic)
	}
	if len(e.Messages) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Messages, "; "))
	}
	return b.String()
}

// Unwrap exposes a panic value that is itself an error.
func (e *TestFailure) Unwrap() error {
	if err, ok := e.Panic.(error); ok {
		return err
	}
	return nil
}

// IsTestFailure reports whether err carries a TestFailure.
func IsTestFailure(err error) bool {
	var tf *TestFailure
	return errors.As(err, &tf)
}
