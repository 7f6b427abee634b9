// File: api/schemas/tests.go
package schemas

import (
	"strings"
	"time"
)

// Marker is a bitset of structural markers attached to a test method at discovery time.
type Marker uint8

const (
	// MarkerTest marks a method as a test.
	MarkerTest Marker = 1 << iota
	// MarkerSkip marks a test as ignored.
	MarkerSkip
	// MarkerQuarantine marks a test as quarantined because it is known to be unreliable.
	MarkerQuarantine
)

// Has reports whether every bit in m2 is set in m.
func (m Marker) Has(m2 Marker) bool { return m&m2 == m2 }

func (m Marker) String() string {
	if m == 0 {
		return "none"
	}
	var parts []string
	if m.Has(MarkerTest) {
		parts = append(parts, "test")
	}
	if m.Has(MarkerSkip) {
		parts = append(parts, "skip")
	}
	if m.Has(MarkerQuarantine) {
		parts = append(parts, "quarantine")
	}
	return strings.Join(parts, "|")
}

// TestDescriptor identifies one declared method of a suite. It is produced once per
// discovery pass and never modified afterwards.
type TestDescriptor struct {
	Suite   string `json:"suite"`
	Method  string `json:"method"`
	Markers Marker `json:"markers"`
	// Index is the method's position in discovery order.
	Index int `json:"index"`
}

// Name returns "Suite.Method".
func (d TestDescriptor) Name() string {
	return d.Suite + "." + d.Method
}

// Outcome is the result of one test attempt. Only the final attempt of a test is
// surfaced to callers and reporting collaborators.
type Outcome struct {
	Descriptor TestDescriptor `json:"descriptor"`
	Passed     bool           `json:"passed"`
	Err        error          `json:"-"`
	// SessionID is empty when the test never established an automation session.
	SessionID string        `json:"session_id,omitempty"`
	UniqueID  string        `json:"unique_id"`
	Attempts  int           `json:"attempts"`
	Duration  time.Duration `json:"duration"`
}

// ErrorMessage returns the failure text, or "" for a passing outcome.
func (o Outcome) ErrorMessage() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// Result returns "passed" or "failed".
func (o Outcome) Result() string {
	if o.Passed {
		return "passed"
	}
	return "failed"
}
