// File: cmd/helpers_test.go
package cmd

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/steadyhand/internal/config"
	"github.com/xkilldash9x/steadyhand/internal/observability"
	"github.com/xkilldash9x/steadyhand/internal/reporting/store"
	"github.com/xkilldash9x/steadyhand/internal/service"
	"github.com/xkilldash9x/steadyhand/internal/suite"
)

// -- Test suites --

type passingSuite struct{}

func (s *passingSuite) TestOpensPage(t *suite.T) {}
func (s *passingSuite) TestReadsTitle(t *suite.T) {}

type mixedSuite struct{}

func (s *mixedSuite) TestPasses(t *suite.T) {}
func (s *mixedSuite) TestFails(t *suite.T)  { t.Errorf("element never became visible") }
func (s *mixedSuite) helper(t *suite.T)     {}

func testRegistry() *suite.Registry {
	r := suite.NewRegistry()
	r.MustRegister(suite.Definition{Name: "passing", New: func() any { return &passingSuite{} }})
	r.MustRegister(suite.Definition{Name: "mixed", New: func() any { return &mixedSuite{} }})
	return r
}

// -- Fake factory --

type fakeFactory struct {
	err       error
	gotCfg    config.Interface
	shutdowns int
}

func (f *fakeFactory) Create(ctx context.Context, cfg config.Interface, logger *zap.Logger) (*service.Components, error) {
	f.gotCfg = cfg
	if f.err != nil {
		return nil, f.err
	}
	runner, err := suite.New(suite.Config{
		Parallelism: cfg.Runner().Parallelism,
		RetryBudget: cfg.Runner().RetryBudget,
		UniqueID:    cfg.Runner().UniqueID,
		WaitSeconds: cfg.Wait().TimeoutSeconds,
	}, logger, nil, nil)
	if err != nil {
		return nil, err
	}
	return &service.Components{
		UniqueID: runner.RunContext().UniqueID,
		Runner:   runner,
		Suites:   testRegistry(),
		Gatherer: prometheus.NewRegistry(),
	}, nil
}

// -- Fake store provider --

type fakeHistory struct {
	rows []store.Row
	err  error
	uid  string
}

func (f *fakeHistory) History(ctx context.Context, uniqueID string) ([]store.Row, error) {
	f.uid = uniqueID
	return f.rows, f.err
}

type fakeProvider struct {
	source   *fakeHistory
	err      error
	cleanups int
}

func (p *fakeProvider) Create(ctx context.Context, cfg config.Interface, logger *zap.Logger) (historySource, func(), error) {
	if p.err != nil {
		return nil, nil, p.err
	}
	return p.source, func() { p.cleanups++ }, nil
}

var errFactory = errors.New("factory exploded")

// newTestRootCmd builds a root command with injected collaborators.
func newTestRootCmd(factory service.ComponentFactory, provider storeProvider) *cobra.Command {
	root := newRootCmd(factory)
	for _, c := range root.Commands() {
		switch c.Name() {
		case "history":
			root.RemoveCommand(c)
			root.AddCommand(newHistoryCmd(provider))
		case "list":
			root.RemoveCommand(c)
			root.AddCommand(newListCmd(func(config.Interface, *zap.Logger) (*suite.Registry, error) {
				return testRegistry(), nil
			}))
		}
	}
	return root
}

// executeCommand runs the root command from an empty working directory so no
// stray config.yaml is picked up.
func executeCommand(t *testing.T, root *cobra.Command, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Cleanup(observability.ResetForTest)
	t.Setenv("STEADYHAND_LOGGER_LEVEL", "error")

	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}
