// File: internal/service/factory_test.go
package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/steadyhand/internal/config"
	"github.com/xkilldash9x/steadyhand/internal/mocks"
	"github.com/xkilldash9x/steadyhand/internal/suites/smoke"
)

func TestSessionOptions(t *testing.T) {
	bc := config.BrowserConfig{
		Headless:     true,
		RemoteURL:    "ws://127.0.0.1:9222/devtools/browser/x",
		ExecPath:     "/usr/bin/chromium",
		DisableGPU:   true,
		Args:         []string{"no-zygote"},
		WindowWidth:  800,
		WindowHeight: 600,
	}
	opts := sessionOptions(bc)

	assert.True(t, opts.Headless)
	assert.True(t, opts.DisableGPU)
	assert.Equal(t, bc.RemoteURL, opts.RemoteURL)
	assert.Equal(t, bc.ExecPath, opts.ExecPath)
	assert.Equal(t, 800, opts.WindowWidth)
	assert.Equal(t, 600, opts.WindowHeight)
	assert.Equal(t, []string{"no-zygote"}, opts.Args)

	// The args slice is copied.
	opts.Args[0] = "changed"
	assert.Equal(t, "no-zygote", bc.Args[0])
}

func TestCreate_Defaults(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.SetRunnerUniqueID("1234567890")
	cfg.SetBrowserBaseURL("http://example.test")

	c, err := NewComponentFactory().Create(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotNil(t, c)
	defer c.Shutdown()

	assert.Equal(t, "1234567890", c.UniqueID)
	assert.Equal(t, "1234567890", c.Runner.RunContext().UniqueID)
	assert.Equal(t, cfg.Wait().TimeoutSeconds, c.Runner.RunContext().WaitSeconds)
	assert.Nil(t, c.Store)
	assert.Nil(t, c.DBPool)
	require.NotNil(t, c.Integrations)
	assert.Len(t, c.Integrations.SessionReporters, 1)
	assert.Len(t, c.Integrations.Notifiers, 1)
	assert.Empty(t, c.Integrations.Recorders)
	assert.False(t, c.Integrations.SessionReporters[0].Enabled())
	assert.False(t, c.Integrations.Notifiers[0].Enabled())

	def, ok := c.Suites.Lookup(smoke.Name)
	require.True(t, ok)
	assert.Equal(t, smoke.Name, def.Name)

	families, err := c.Gatherer.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families, "process and go collectors are registered")
}

func TestCreate_GeneratesUniqueID(t *testing.T) {
	cfg := config.NewDefaultConfig()

	c, err := NewComponentFactory().Create(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer c.Shutdown()

	assert.Len(t, c.UniqueID, 10)
	assert.Equal(t, c.UniqueID, c.Runner.RunContext().UniqueID)
}

func TestCreate_InvalidRunnerConfig(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.SetRunnerParallelism(0)

	c, err := NewComponentFactory().Create(context.Background(), cfg, zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Nil(t, c)
	assert.Contains(t, err.Error(), "parallelism")
}

func TestCreate_DatabaseFailure(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.ReportingCfg.Database = config.DatabaseConfig{Enabled: true, URL: "host=localhost port=notaport"}

	c, err := NewComponentFactory().Create(context.Background(), cfg, zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Nil(t, c)
	assert.Contains(t, err.Error(), "failed to initialize outcome store")
}

func TestCreate_WithMockConfig(t *testing.T) {
	defaults := config.NewDefaultConfig()
	m := new(mocks.MockConfig)
	m.On("Runner").Return(config.RunnerConfig{Parallelism: 2, RetryBudget: 1, UniqueID: "42"})
	m.On("Wait").Return(config.WaitConfig{TimeoutSeconds: 3, PollInterval: 10 * time.Millisecond, StabilityInterval: 20 * time.Millisecond})
	m.On("Reporting").Return(defaults.Reporting())
	m.On("Browser").Return(defaults.Browser())

	c, err := NewComponentFactory().Create(context.Background(), m, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer c.Shutdown()

	assert.Equal(t, 3, c.Runner.RunContext().WaitSeconds)
	assert.Equal(t, "42", c.UniqueID)
	m.AssertExpectations(t)
}

func TestInitializeStore_Validation(t *testing.T) {
	logger := zaptest.NewLogger(t)

	_, _, err := InitializeStore(context.Background(), config.DatabaseConfig{Enabled: true}, logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STEADYHAND_DATABASE_URL")

	_, _, err = InitializeStore(context.Background(), config.DatabaseConfig{Enabled: true, URL: "host=localhost port=notaport"}, logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unable to parse PGX pool config")
}

func TestComponentsShutdown_Idempotent(t *testing.T) {
	var c Components
	assert.NotPanics(t, func() {
		c.Shutdown()
		c.Shutdown()
	})
}

func TestNewSuiteRegistry(t *testing.T) {
	cfg := config.NewDefaultConfig()

	registry, err := NewSuiteRegistry(cfg, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{smoke.Name}, registry.Names())
}
