// File: internal/reporting/reporting.go
package reporting

import (
	"context"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/xkilldash9x/steadyhand/api/schemas"
)

// SessionReporter pushes the final result of a test to the service that hosted
// its automation session.
type SessionReporter interface {
	Enabled() bool
	TestOutcome(ctx context.Context, passed bool, sessionID string) error
}

// Notifier announces finished tests to people.
type Notifier interface {
	Enabled() bool
	TestFailed(ctx context.Context, desc schemas.TestDescriptor, err error, sessionID string) error
	TestPassed(ctx context.Context, desc schemas.TestDescriptor, sessionID string) error
}

// Recorder keeps every final outcome, session or not.
type Recorder interface {
	Record(ctx context.Context, outcome schemas.Outcome) error
}

// Integrations fans a final outcome out to every configured collaborator. It
// holds no mutable state, so it is safe for concurrent use as long as its
// collaborators are.
type Integrations struct {
	SessionReporters []SessionReporter
	Notifiers        []Notifier
	Recorders        []Recorder

	logger *zap.Logger
}

// NewIntegrations returns an empty Integrations logging through logger.
func NewIntegrations(logger *zap.Logger) *Integrations {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Integrations{logger: logger.Named("reporting")}
}

// Report delivers outcome. Session reporters and notifiers are skipped when
// disabled or when the test never published a session id. Errors and panics
// are logged and never reach the runner.
func (i *Integrations) Report(ctx context.Context, outcome schemas.Outcome) {
	logger := i.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("test", outcome.Descriptor.Name()), zap.String("result", outcome.Result()))

	if outcome.SessionID != "" {
		for _, r := range i.SessionReporters {
			if r == nil || !r.Enabled() {
				continue
			}
			guard(logger, "session reporter", func() error {
				return r.TestOutcome(ctx, outcome.Passed, outcome.SessionID)
			})
		}
		for _, n := range i.Notifiers {
			if n == nil || !n.Enabled() {
				continue
			}
			guard(logger, "notifier", func() error {
				if outcome.Passed {
					return n.TestPassed(ctx, outcome.Descriptor, outcome.SessionID)
				}
				return n.TestFailed(ctx, outcome.Descriptor, outcome.Err, outcome.SessionID)
			})
		}
	} else if len(i.SessionReporters)+len(i.Notifiers) > 0 {
		logger.Debug("No session id published, skipping session integrations.")
	}

	for _, rec := range i.Recorders {
		if rec == nil {
			continue
		}
		guard(logger, "recorder", func() error {
			return rec.Record(ctx, outcome)
		})
	}
}

func guard(logger *zap.Logger, kind string, fn func() error) {
	defer func() {
		if v := recover(); v != nil {
			logger.Error("Reporting collaborator panicked.",
				zap.String("collaborator", kind),
				zap.Any("panic", v),
				zap.ByteString("stack", debug.Stack()))
		}
	}()
	if err := fn(); err != nil {
		logger.Warn("Reporting collaborator failed.", zap.String("collaborator", kind), zap.Error(err))
	}
}
