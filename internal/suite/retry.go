// File: internal/suite/retry.go
package suite

import (
	"context"
	"fmt"
	"reflect"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/steadyhand/api/schemas"
)

// State is the lifecycle of one test under the retry rule.
type State int

const (
	StatePending State = iota
	StateRunning
	StatePassed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StatePassed:
		return "passed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// AttemptObserver is told about every finished attempt, including the ones
// that will be retried.
type AttemptObserver interface {
	ObserveAttempt(desc schemas.TestDescriptor, attempt int, passed bool, elapsed time.Duration)
}

// Retrier runs a test up to 1+budget times, stopping at the first pass. Each
// attempt starts from a new suite instance.
type Retrier struct {
	budget   int
	logger   *zap.Logger
	observer AttemptObserver
}

// NewRetrier returns a Retrier with the given retry budget. Negative budgets
// are treated as zero.
func NewRetrier(budget int, logger *zap.Logger, observer AttemptObserver) *Retrier {
	if budget < 0 {
		budget = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retrier{budget: budget, logger: logger, observer: observer}
}

// Budget returns the number of retries allowed after the first attempt.
func (r *Retrier) Budget() int { return r.budget }

// Execute drives desc through Pending -> Running -> Passed|Failed, re-entering
// Running while failures remain within budget. Only the last attempt is
// reflected in the returned outcome.
func (r *Retrier) Execute(ctx context.Context, def Definition, desc schemas.TestDescriptor, run RunContext) schemas.Outcome {
	state := StatePending
	start := time.Now()
	outcome := schemas.Outcome{Descriptor: desc, UniqueID: run.UniqueID}

	for attempt := 1; ; attempt++ {
		state = StateRunning
		t := newT(ctx, r.logger, run, desc, attempt)
		attemptStart := time.Now()
		runAttempt(def, desc, t)
		err := t.failure()

		if r.observer != nil {
			r.observer.ObserveAttempt(desc, attempt, err == nil, time.Since(attemptStart))
		}

		outcome.Attempts = attempt
		outcome.Err = err
		outcome.Passed = err == nil
		outcome.SessionID, _ = t.SessionID()

		if err == nil {
			state = StatePassed
			break
		}
		if attempt > r.budget || ctx.Err() != nil {
			state = StateFailed
			break
		}
		r.logger.Info("Test attempt failed, retrying.",
			zap.String("test", desc.Name()),
			zap.Int("attempt", attempt),
			zap.Int("budget", r.budget),
			zap.Error(err))
	}

	outcome.Duration = time.Since(start)
	r.logger.Debug("Test finished.",
		zap.String("test", desc.Name()),
		zap.Stringer("state", state),
		zap.Int("attempts", outcome.Attempts))
	return outcome
}

// runAttempt runs setup, body and teardown on a dedicated goroutine so that
// FailNow can stop the body without stopping the worker.
func runAttempt(def Definition, desc schemas.TestDescriptor, t *T) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() {
			if v := recover(); v != nil {
				t.recordPanic(v, debug.Stack())
			}
		}()
		defer t.runCleanups()

		instance := def.New()
		var body func(*T)
		if method := reflect.ValueOf(instance).MethodByName(desc.Method); method.IsValid() {
			body, _ = method.Interface().(func(*T))
		}
		if body == nil {
			t.Errorf("method %s is not a func(*suite.T)", desc.Name())
			return
		}

		if td, ok := instance.(TearDownTestSuite); ok {
			defer td.TearDownTest(t)
		}
		if su, ok := instance.(SetupTestSuite); ok {
			su.SetupTest(t)
			if t.Failed() {
				return
			}
		}
		body(t)
	}()
	<-done
}
