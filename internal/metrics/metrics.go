// File: internal/metrics/metrics.go
package metrics

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/xkilldash9x/steadyhand/api/schemas"
	"github.com/xkilldash9x/steadyhand/internal/suite"
	"github.com/xkilldash9x/steadyhand/internal/wait"
)

const Namespace = "steadyhand"

// Wait results used as the "result" label.
const (
	ResultSatisfied    = "satisfied"
	ResultTimeout      = "timeout"
	ResultStructural   = "structural"
	ResultPrecondition = "precondition"
	ResultCanceled     = "canceled"
	ResultError        = "error"
)

// Metrics holds the collectors for one registry. It implements wait.Observer
// and suite.Observer.
type Metrics struct {
	outcomes     *prometheus.CounterVec
	attempts     *prometheus.CounterVec
	testDuration *prometheus.HistogramVec
	polls        *prometheus.CounterVec
	waitDuration *prometheus.HistogramVec
}

var (
	_ wait.Observer  = (*Metrics)(nil)
	_ suite.Observer = (*Metrics)(nil)
)

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "test_outcomes_total",
			Help:      "Final test outcomes, after retries.",
		}, []string{"suite", "result"}),
		attempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "test_attempts_total",
			Help:      "Individual test attempts, including retried ones.",
		}, []string{"suite", "result"}),
		testDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "test_duration_seconds",
			Help:      "Wall time of a test across all of its attempts.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"suite"}),
		polls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "wait_polls_total",
			Help:      "Condition probes performed by element waits.",
		}, []string{"condition", "result"}),
		waitDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "wait_duration_seconds",
			Help:      "Time spent in element waits.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"condition"}),
	}
}

// ObservePoll implements wait.Observer.
func (m *Metrics) ObservePoll(name string, polls int, elapsed time.Duration, err error) {
	cond := conditionLabel(name)
	m.polls.WithLabelValues(cond, waitResult(err)).Add(float64(polls))
	m.waitDuration.WithLabelValues(cond).Observe(elapsed.Seconds())
}

// ObserveAttempt implements suite.AttemptObserver.
func (m *Metrics) ObserveAttempt(desc schemas.TestDescriptor, attempt int, passed bool, elapsed time.Duration) {
	m.attempts.WithLabelValues(desc.Suite, testResult(passed)).Inc()
}

// ObserveOutcome implements suite.Observer.
func (m *Metrics) ObserveOutcome(outcome schemas.Outcome) {
	m.outcomes.WithLabelValues(outcome.Descriptor.Suite, outcome.Result()).Inc()
	m.testDuration.WithLabelValues(outcome.Descriptor.Suite).Observe(outcome.Duration.Seconds())
}

// conditionLabel strips the locator from "visible(css=#pay)" so the label
// set stays bounded.
func conditionLabel(name string) string {
	if i := strings.IndexByte(name, '('); i > 0 {
		return name[:i]
	}
	if name == "" {
		return "unknown"
	}
	return name
}

func waitResult(err error) string {
	switch {
	case err == nil:
		return ResultSatisfied
	case wait.IsTimeout(err):
		return ResultTimeout
	case wait.IsStructural(err):
		return ResultStructural
	case wait.IsPrecondition(err):
		return ResultPrecondition
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ResultCanceled
	default:
		return ResultError
	}
}

func testResult(passed bool) string {
	if passed {
		return "passed"
	}
	return "failed"
}
