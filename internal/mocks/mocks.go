// File: internal/mocks/mocks.go
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/steadyhand/api/schemas"
	"github.com/xkilldash9x/steadyhand/internal/config"
)

// -- Config Mock --

// MockConfig mocks the config.Interface.
type MockConfig struct {
	mock.Mock
}

// --- Getters ---

func (m *MockConfig) Logger() config.LoggerConfig {
	args := m.Called()
	return args.Get(0).(config.LoggerConfig)
}

func (m *MockConfig) Wait() config.WaitConfig {
	args := m.Called()
	return args.Get(0).(config.WaitConfig)
}

func (m *MockConfig) Runner() config.RunnerConfig {
	args := m.Called()
	return args.Get(0).(config.RunnerConfig)
}

func (m *MockConfig) Browser() config.BrowserConfig {
	args := m.Called()
	return args.Get(0).(config.BrowserConfig)
}

func (m *MockConfig) Reporting() config.ReportingConfig {
	args := m.Called()
	return args.Get(0).(config.ReportingConfig)
}

func (m *MockConfig) Metrics() config.MetricsConfig {
	args := m.Called()
	return args.Get(0).(config.MetricsConfig)
}

// --- Setters ---

func (m *MockConfig) SetRunnerParallelism(n int)       { m.Called(n) }
func (m *MockConfig) SetRunnerRetryBudget(n int)       { m.Called(n) }
func (m *MockConfig) SetRunnerUniqueID(id string)      { m.Called(id) }
func (m *MockConfig) SetWaitTimeoutSeconds(s int)      { m.Called(s) }
func (m *MockConfig) SetBrowserHeadless(b bool)        { m.Called(b) }
func (m *MockConfig) SetBrowserBaseURL(u string)       { m.Called(u) }
func (m *MockConfig) SetJUnitOutput(path string)       { m.Called(path) }
func (m *MockConfig) SetMetricsListenAddress(a string) { m.Called(a) }

// -- Reporting Mocks --

// MockSessionReporter mocks reporting.SessionReporter.
type MockSessionReporter struct {
	mock.Mock
}

func (m *MockSessionReporter) Enabled() bool {
	return m.Called().Bool(0)
}

func (m *MockSessionReporter) TestOutcome(ctx context.Context, passed bool, sessionID string) error {
	return m.Called(ctx, passed, sessionID).Error(0)
}

// MockNotifier mocks reporting.Notifier.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Enabled() bool {
	return m.Called().Bool(0)
}

func (m *MockNotifier) TestFailed(ctx context.Context, desc schemas.TestDescriptor, err error, sessionID string) error {
	return m.Called(ctx, desc, err, sessionID).Error(0)
}

func (m *MockNotifier) TestPassed(ctx context.Context, desc schemas.TestDescriptor, sessionID string) error {
	return m.Called(ctx, desc, sessionID).Error(0)
}

// MockRecorder mocks reporting.Recorder.
type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) Record(ctx context.Context, outcome schemas.Outcome) error {
	return m.Called(ctx, outcome).Error(0)
}
