// File: internal/wait/errors.go
package wait

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotSatisfied is returned (possibly wrapped) by a probe whose condition does
	// not hold yet. It is the only error the poller retries.
	ErrNotSatisfied = errors.New("condition not satisfied yet")

	// ErrTimeout matches every *TimeoutError through errors.Is.
	ErrTimeout = errors.New("wait timed out")
)

// TimeoutError reports that a condition never held before its deadline.
type TimeoutError struct {
	// Name identifies the condition being polled, e.g. "visible(css=#login)".
	Name    string
	Timeout time.Duration
	Polls   int
	Elapsed time.Duration
	// Last is the most recent not-satisfied error returned by the probe, if any.
	Last error
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("timed out after %s waiting for %s (%d polls)", e.Elapsed.Round(time.Millisecond), e.Name, e.Polls)
	// The bare sentinel adds nothing to the message.
	if e.Last != nil && e.Last != ErrNotSatisfied {
		msg += ": " + e.Last.Error()
	}
	return msg
}

// Is makes errors.Is(err, ErrTimeout) true for any TimeoutError.
func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// StructuralError is a non-retryable fault reported by the underlying locate or
// interact capability, such as a malformed locator.
type StructuralError struct {
	Op  string
	Err error
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StructuralError) Unwrap() error { return e.Err }

// Structural wraps err as a StructuralError for op. A nil err yields nil.
func Structural(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StructuralError{Op: op, Err: err}
}

// PreconditionError is a programmer error, such as a missing locator. It fails fast
// and is never retried or swallowed.
type PreconditionError struct {
	Msg string
}

func (e *PreconditionError) Error() string { return "precondition failed: " + e.Msg }

// Preconditionf builds a PreconditionError.
func Preconditionf(format string, args ...any) error {
	return &PreconditionError{Msg: fmt.Sprintf(format, args...)}
}

// NotSatisfiedf returns an error wrapping ErrNotSatisfied with extra detail.
func NotSatisfiedf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotSatisfied, fmt.Sprintf(format, args...))
}

// IsTimeout reports whether err is a wait timeout.
func IsTimeout(err error) bool { return errors.Is(err, ErrTimeout) }

// IsStructural reports whether err carries a StructuralError.
func IsStructural(err error) bool {
	var se *StructuralError
	return errors.As(err, &se)
}

// IsPrecondition reports whether err carries a PreconditionError.
func IsPrecondition(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}
