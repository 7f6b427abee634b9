// File: internal/suite/context.go
package suite

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"runtime"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/xkilldash9x/steadyhand/api/schemas"
)

// RunContext is the read-only state shared by every test of one run.
type RunContext struct {
	// UniqueID tags every outcome of the run.
	UniqueID string
	// WaitSeconds is the default wait timeout for element operations.
	WaitSeconds int
}

// NewUniqueID returns a random 10-digit run identifier.
func NewUniqueID() string {
	return strconv.FormatInt(1_000_000_000+rand.Int64N(9_000_000_000), 10)
}

var (
	// ErrSessionIDEmpty is returned when a test publishes an empty session id.
	ErrSessionIDEmpty = errors.New("session id must not be empty")
	// ErrSessionIDSet is returned when a test publishes a second session id.
	ErrSessionIDSet = errors.New("session id already set for this attempt")
)

// T is the per-attempt handle passed to test bodies. It satisfies the
// require.TestingT and assert.TestingT interfaces, so testify assertions work in
// suites. A T is owned by the worker running the attempt.
type T struct {
	ctx     context.Context
	logger  *zap.Logger
	run     RunContext
	desc    schemas.TestDescriptor
	attempt int

	mu         sync.Mutex
	sessionID  string
	sessionSet bool
	failed     bool
	messages   []string
	panicValue any
	stack      []byte
	cleanups   []func()
}

func newT(ctx context.Context, logger *zap.Logger, run RunContext, desc schemas.TestDescriptor, attempt int) *T {
	return &T{
		ctx:     ctx,
		run:     run,
		desc:    desc,
		attempt: attempt,
		logger: logger.With(
			zap.String("test", desc.Name()),
			zap.Int("attempt", attempt),
		),
	}
}

// Context is canceled when the run is interrupted.
func (t *T) Context() context.Context { return t.ctx }

// Logger is scoped to this test attempt.
func (t *T) Logger() *zap.Logger { return t.logger }

// Run returns the shared run state.
func (t *T) Run() RunContext { return t.run }

// Descriptor identifies the running test.
func (t *T) Descriptor() schemas.TestDescriptor { return t.desc }

// Attempt is 1 for the first execution and grows with each retry.
func (t *T) Attempt() int { return t.attempt }

// Name returns "Suite.Method".
func (t *T) Name() string { return t.desc.Name() }

// FullTestName returns "uniqueId:Suite:Method".
func (t *T) FullTestName() string {
	return t.run.UniqueID + ":" + t.desc.Suite + ":" + t.desc.Method
}

// SetSessionID publishes the automation session id for this attempt. It may be
// called once, with a non-empty id.
func (t *T) SetSessionID(id string) error {
	if id == "" {
		return ErrSessionIDEmpty
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sessionSet {
		return fmt.Errorf("%w: %s", ErrSessionIDSet, t.sessionID)
	}
	t.sessionID, t.sessionSet = id, true
	t.logger.Debug("Session id published.", zap.String("session_id", id))
	return nil
}

// SessionID returns the published session id, if any.
func (t *T) SessionID() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sessionID, t.sessionSet
}

// Helper is a no-op kept for testify compatibility.
func (t *T) Helper() {}

func (t *T) Logf(format string, args ...any) {
	t.logger.Info(fmt.Sprintf(format, args...))
}

func (t *T) Log(args ...any) {
	t.logger.Info(fmt.Sprint(args...))
}

// Errorf records a failure and lets the test continue.
func (t *T) Errorf(format string, args ...any) {
	t.fail(fmt.Sprintf(format, args...))
}

func (t *T) Error(args ...any) {
	t.fail(fmt.Sprint(args...))
}

// Fail marks the attempt failed without a message.
func (t *T) Fail() {
	t.mu.Lock()
	t.failed = true
	t.mu.Unlock()
}

// FailNow marks the attempt failed and stops the test goroutine. Deferred calls
// and TearDownTest still run.
func (t *T) FailNow() {
	t.Fail()
	runtime.Goexit()
}

func (t *T) Fatalf(format string, args ...any) {
	t.fail(fmt.Sprintf(format, args...))
	runtime.Goexit()
}

func (t *T) Fatal(args ...any) {
	t.fail(fmt.Sprint(args...))
	runtime.Goexit()
}

// Failed reports whether the attempt has failed.
func (t *T) Failed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.failed
}

// Cleanup registers fn to run after the attempt, last registered first.
func (t *T) Cleanup(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cleanups = append(t.cleanups, fn)
}

func (t *T) fail(msg string) {
	t.mu.Lock()
	t.failed = true
	t.messages = append(t.messages, msg)
	t.mu.Unlock()
	t.logger.Warn("Test assertion failed.", zap.String("message", msg))
}

func (t *T) recordPanic(v any, stack []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failed = true
	if t.panicValue == nil {
		t.panicValue, t.stack = v, stack
	}
}

func (t *T) runCleanups() {
	t.mu.Lock()
	fns := t.cleanups
	t.cleanups = nil
	t.mu.Unlock()
	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}

// failure returns the attempt's error, or nil when it passed.
func (t *T) failure() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.failed {
		return nil
	}
	return &TestFailure{
		Test:     t.desc.Name(),
		Attempt:  t.attempt,
		Messages: append([]string(nil), t.messages...),
		Panic:    t.panicValue,
		Stack:    t.stack,
	}
}
