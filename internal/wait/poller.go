// File: internal/wait/poller.go
package wait

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// DefaultInterval is the poll interval used when none is configured.
const DefaultInterval = 250 * time.Millisecond

// Probe checks a condition once. It returns ErrNotSatisfied (possibly wrapped) while
// the condition does not hold; any other error aborts the wait.
type Probe[T any] func(ctx context.Context) (T, error)

// Observer receives a summary of every completed wait.
type Observer interface {
	ObservePoll(name string, polls int, elapsed time.Duration, err error)
}

// Poller holds the polling discipline shared by every wait in a run. A Poller is
// immutable after construction and safe for concurrent use.
type Poller struct {
	interval time.Duration
	observer Observer
	logger   *zap.Logger
}

// Option configures a Poller.
type Option func(*Poller)

// WithObserver attaches an Observer notified after each wait completes.
func WithObserver(o Observer) Option {
	return func(p *Poller) { p.observer = o }
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Poller) {
		if logger != nil {
			p.logger = logger.Named("wait")
		}
	}
}

// NewPoller creates a Poller sleeping interval between probes. A non-positive
// interval falls back to DefaultInterval.
func NewPoller(interval time.Duration, opts ...Option) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	p := &Poller{interval: interval, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Interval returns the fixed sleep between probes.
func (p *Poller) Interval() time.Duration { return p.interval }

// Until calls probe until it succeeds, returns a non-retryable error, or the
// deadline passes. The deadline is fixed at entry. A zero timeout probes exactly
// once without sleeping. A nil Poller uses the defaults.
func Until[T any](ctx context.Context, p *Poller, name string, timeout time.Duration, probe Probe[T]) (T, error) {
	var zero T
	if p == nil {
		p = NewPoller(DefaultInterval)
	}
	if probe == nil {
		return zero, Preconditionf("probe for %s is nil", name)
	}
	if timeout < 0 {
		return zero, Preconditionf("negative timeout %s for %s", timeout, name)
	}

	start := time.Now()
	deadline := start.Add(timeout)
	polls := 0
	var last error

	for {
		if err := ctx.Err(); err != nil {
			p.observe(name, polls, time.Since(start), err)
			return zero, err
		}

		polls++
		v, err := probe(ctx)
		if err == nil {
			p.observe(name, polls, time.Since(start), nil)
			return v, nil
		}
		if !errors.Is(err, ErrNotSatisfied) {
			p.observe(name, polls, time.Since(start), err)
			return zero, err
		}
		last = err

		remaining := time.Until(deadline)
		if remaining <= 0 {
			te := &TimeoutError{Name: name, Timeout: timeout, Polls: polls, Elapsed: time.Since(start), Last: last}
			p.logger.Debug("Wait timed out.",
				zap.String("condition", name),
				zap.Duration("timeout", timeout),
				zap.Int("polls", polls))
			p.observe(name, polls, te.Elapsed, te)
			return zero, te
		}

		timer := time.NewTimer(min(p.interval, remaining))
		select {
		case <-ctx.Done():
			timer.Stop()
			p.observe(name, polls, time.Since(start), ctx.Err())
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
}

// Check polls a boolean condition. It returns nil once cond reports true.
func Check(ctx context.Context, p *Poller, name string, timeout time.Duration, cond func(ctx context.Context) (bool, error)) error {
	_, err := Until(ctx, p, name, timeout, func(ctx context.Context) (struct{}, error) {
		ok, err := cond(ctx)
		if err != nil {
			return struct{}{}, err
		}
		if !ok {
			return struct{}{}, ErrNotSatisfied
		}
		return struct{}{}, nil
	})
	return err
}

// Seconds converts a whole-second timeout into a Duration, rejecting negatives.
func Seconds(n int) (time.Duration, error) {
	if n < 0 {
		return 0, Preconditionf("wait seconds must be >= 0, got %d", n)
	}
	return time.Duration(n) * time.Second, nil
}

func (p *Poller) observe(name string, polls int, elapsed time.Duration, err error) {
	if p.observer != nil {
		p.observer.ObservePoll(name, polls, elapsed, err)
	}
}
