// File: internal/suite/runner.go
package suite

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/steadyhand/api/schemas"
)

// reportTimeout bounds the hand-off of one outcome. Reporting is detached from
// the run context so tests that finish after an interrupt are still reported.
const reportTimeout = 30 * time.Second

// -- Interfaces for Dependency Inversion --

// Reporter receives the final outcome of every executed test. Implementations
// must be safe for concurrent use.
type Reporter interface {
	Report(ctx context.Context, outcome schemas.Outcome)
}

// Observer receives attempt and outcome events, for metrics.
type Observer interface {
	AttemptObserver
	ObserveOutcome(outcome schemas.Outcome)
}

// Config holds the run-wide settings.
type Config struct {
	// Parallelism is the number of workers; at least 1.
	Parallelism int
	// RetryBudget is the number of retries after a failed first attempt.
	RetryBudget int
	// UniqueID tags the run; generated when empty.
	UniqueID string
	// WaitSeconds is the default element wait published to tests.
	WaitSeconds int
}

// Runner executes the valid tests of a suite on a fixed worker pool.
type Runner struct {
	cfg      Config
	run      RunContext
	logger   *zap.Logger
	reporter Reporter
	observer Observer
	retrier  *Retrier
}

// New validates cfg and builds a Runner. reporter and observer may be nil.
func New(cfg Config, logger *zap.Logger, reporter Reporter, observer Observer) (*Runner, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.Parallelism < 1 {
		return nil, fmt.Errorf("parallelism must be at least 1, got %d", cfg.Parallelism)
	}
	if cfg.RetryBudget < 0 {
		return nil, fmt.Errorf("retry budget must not be negative, got %d", cfg.RetryBudget)
	}
	if cfg.WaitSeconds < 0 {
		return nil, fmt.Errorf("wait seconds must not be negative, got %d", cfg.WaitSeconds)
	}
	if cfg.UniqueID == "" {
		cfg.UniqueID = NewUniqueID()
	}

	logger = logger.With(zap.String("component", "suite_runner"), zap.String("unique_id", cfg.UniqueID))
	var attempts AttemptObserver
	if observer != nil {
		attempts = observer
	}
	return &Runner{
		cfg:      cfg,
		run:      RunContext{UniqueID: cfg.UniqueID, WaitSeconds: cfg.WaitSeconds},
		logger:   logger,
		reporter: reporter,
		observer: observer,
		retrier:  NewRetrier(cfg.RetryBudget, logger, attempts),
	}, nil
}

// RunContext returns the run-wide state published to every test.
func (r *Runner) RunContext() RunContext { return r.run }

type job struct {
	pos  int
	desc schemas.TestDescriptor
}

// Run discovers def's valid tests and executes each one exactly once (plus
// retries). Outcomes come back in discovery order. A canceled ctx stops
// dequeuing; tests already running finish and the error reports the interruption.
func (r *Runner) Run(ctx context.Context, def Definition) ([]schemas.Outcome, error) {
	all, err := Discover(def)
	if err != nil {
		return nil, fmt.Errorf("discover suite: %w", err)
	}
	valid := Valid(all)
	r.logger.Info("Starting suite run.",
		zap.String("suite", def.Name),
		zap.Int("discovered", len(all)),
		zap.Int("valid", len(valid)),
		zap.Int("parallelism", r.cfg.Parallelism),
		zap.Int("retry_budget", r.cfg.RetryBudget))

	queue := make(chan job)
	results := make([]*schemas.Outcome, len(valid))

	var g errgroup.Group
	g.Go(func() error {
		defer close(queue)
		for i, d := range valid {
			// select picks randomly among ready cases, so check first.
			if ctx.Err() != nil {
				r.logger.Warn("Run interrupted, no further tests will be started.", zap.Error(ctx.Err()))
				return nil
			}
			select {
			case <-ctx.Done():
				r.logger.Warn("Run interrupted, no further tests will be started.", zap.Error(ctx.Err()))
				return nil
			case queue <- job{pos: i, desc: d}:
			}
		}
		return nil
	})

	workers := min(r.cfg.Parallelism, max(len(valid), 1))
	for w := 1; w <= workers; w++ {
		logger := r.logger.With(zap.Int("worker_id", w))
		g.Go(func() error {
			for j := range queue {
				outcome := r.execute(ctx, def, j.desc, logger)
				results[j.pos] = &outcome
			}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]schemas.Outcome, 0, len(valid))
	for _, o := range results {
		if o != nil {
			out = append(out, *o)
		}
	}
	if err := ctx.Err(); err != nil && len(out) < len(valid) {
		return out, fmt.Errorf("run interrupted after %d of %d tests: %w", len(out), len(valid), err)
	}
	return out, nil
}

// execute runs one test and hands its outcome to the collaborators. A panic
// anywhere on this path becomes a failed outcome instead of killing the worker.
func (r *Runner) execute(ctx context.Context, def Definition, desc schemas.TestDescriptor, logger *zap.Logger) (outcome schemas.Outcome) {
	start := time.Now()
	outcome = schemas.Outcome{Descriptor: desc, UniqueID: r.run.UniqueID}
	defer func() {
		if v := recover(); v != nil {
			logger.Error("Recovered from panic while executing test.",
				zap.String("test", desc.Name()), zap.Any("panic", v))
			outcome.Passed = false
			outcome.Err = &TestFailure{Test: desc.Name(), Attempt: outcome.Attempts, Panic: v, Stack: debug.Stack()}
			if outcome.Attempts == 0 {
				outcome.Attempts = 1
			}
			if outcome.Duration == 0 {
				outcome.Duration = time.Since(start)
			}
		}
	}()

	outcome = r.retrier.Execute(ctx, def, desc, r.run)
	if outcome.Passed {
		logger.Info("Test passed.", zap.String("test", desc.Name()), zap.Int("attempts", outcome.Attempts))
	} else {
		logger.Warn("Test failed.", zap.String("test", desc.Name()), zap.Int("attempts", outcome.Attempts), zap.Error(outcome.Err))
	}

	if r.observer != nil {
		r.observer.ObserveOutcome(outcome)
	}
	if r.reporter != nil {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reportTimeout)
		defer cancel()
		r.reporter.Report(rctx, outcome)
	}
	return outcome
}
