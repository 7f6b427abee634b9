// File: cmd/run.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/steadyhand/api/schemas"
	"github.com/xkilldash9x/steadyhand/internal/config"
	"github.com/xkilldash9x/steadyhand/internal/metrics"
	"github.com/xkilldash9x/steadyhand/internal/observability"
	"github.com/xkilldash9x/steadyhand/internal/reporting/junit"
	"github.com/xkilldash9x/steadyhand/internal/service"
	"github.com/xkilldash9x/steadyhand/internal/suite"
	"github.com/xkilldash9x/steadyhand/internal/suites/smoke"
)

// combinedSuiteName names the JUnit testsuite when several suites ran.
const combinedSuiteName = "steadyhand"

func newRunCmd(factory service.ComponentFactory) *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run [suite...]",
		Short: "Run one or more registered suites (default: smoke)",
		Long: `Discovers the tests of each named suite, executes them on a pool of workers
with the configured retry budget, reports every final outcome to the enabled
collaborators and exits non-zero when any test failed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			if err := applyRunFlags(cmd, cfg); err != nil {
				return err
			}
			if len(args) == 0 {
				args = []string{smoke.Name}
			}
			return runSuites(ctx, cmd, cfg, factory, args, observability.GetLogger())
		},
	}

	runCmd.Flags().IntP("parallelism", "j", 0, "Number of concurrent test workers. (Overrides config/env)")
	runCmd.Flags().IntP("retries", "r", 0, "Retries allowed after a failed first attempt. (Overrides config/env)")
	runCmd.Flags().String("unique-id", "", "Identifier tagging every outcome of this run. (Overrides config/env)")
	runCmd.Flags().Int("wait", 0, "Default element wait in seconds. (Overrides config/env)")
	runCmd.Flags().Bool("headless", true, "Run the browser headless. (Overrides config/env)")
	runCmd.Flags().String("base-url", "", "Site under test for the built-in suites. (Overrides config/env)")
	runCmd.Flags().String("junit", "", "Write a JUnit XML report to this path ('-' for stdout).")
	runCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address during the run.")

	return runCmd
}

// applyRunFlags copies explicitly set flags over the loaded configuration.
func applyRunFlags(cmd *cobra.Command, cfg config.Interface) error {
	flags := cmd.Flags()
	if flags.Changed("parallelism") {
		n, _ := flags.GetInt("parallelism")
		if n < 1 {
			return fmt.Errorf("--parallelism must be at least 1, got %d", n)
		}
		cfg.SetRunnerParallelism(n)
	}
	if flags.Changed("retries") {
		n, _ := flags.GetInt("retries")
		if n < 0 {
			return fmt.Errorf("--retries must not be negative, got %d", n)
		}
		cfg.SetRunnerRetryBudget(n)
	}
	if flags.Changed("unique-id") {
		id, _ := flags.GetString("unique-id")
		cfg.SetRunnerUniqueID(id)
	}
	if flags.Changed("wait") {
		n, _ := flags.GetInt("wait")
		if n < 0 {
			return fmt.Errorf("--wait must not be negative, got %d", n)
		}
		cfg.SetWaitTimeoutSeconds(n)
	}
	if flags.Changed("headless") {
		b, _ := flags.GetBool("headless")
		cfg.SetBrowserHeadless(b)
	}
	if flags.Changed("base-url") {
		u, _ := flags.GetString("base-url")
		cfg.SetBrowserBaseURL(u)
	}
	if flags.Changed("junit") {
		p, _ := flags.GetString("junit")
		cfg.SetJUnitOutput(p)
	}
	if flags.Changed("metrics-addr") {
		a, _ := flags.GetString("metrics-addr")
		cfg.SetMetricsListenAddress(a)
	}
	return nil
}

// runSuites contains the testable core of the run command.
func runSuites(ctx context.Context, cmd *cobra.Command, cfg config.Interface, factory service.ComponentFactory, names []string, logger *zap.Logger) error {
	components, err := factory.Create(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize run components: %w", err)
	}
	defer components.Shutdown()

	defs := make([]suite.Definition, 0, len(names))
	for _, name := range names {
		def, ok := components.Suites.Lookup(name)
		if !ok {
			return fmt.Errorf("unknown suite %q (available: %s)", name, strings.Join(components.Suites.Names(), ", "))
		}
		defs = append(defs, def)
	}

	if addr := cfg.Metrics().ListenAddress; addr != "" && components.Gatherer != nil {
		stop := serveMetrics(ctx, addr, components, logger)
		defer stop()
	}

	var outcomes []schemas.Outcome
	var runErr error
	for _, def := range defs {
		out, err := components.Runner.Run(ctx, def)
		outcomes = append(outcomes, out...)
		if err != nil {
			runErr = err
			break
		}
	}

	renderOutcomes(cmd.OutOrStdout(), components.UniqueID, outcomes)

	if path := cfg.Reporting().JUnit.Output; path != "" {
		suiteName := combinedSuiteName
		if len(defs) == 1 {
			suiteName = defs[0].Name
		}
		if err := junit.WriteFile(path, suiteName, components.UniqueID, outcomes); err != nil {
			return fmt.Errorf("failed to write JUnit report: %w", err)
		}
		logger.Info("JUnit report written.", zap.String("path", path))
	}

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			logger.Warn("Run aborted gracefully.", zap.String("unique_id", components.UniqueID))
		}
		return runErr
	}

	failed := 0
	for _, o := range outcomes {
		if !o.Passed {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrTestsFailed, failed, len(outcomes))
	}
	logger.Info("Run completed successfully.", zap.String("unique_id", components.UniqueID), zap.Int("tests", len(outcomes)))
	return nil
}

// serveMetrics starts the metrics endpoint and returns a func that stops it
// and waits for it to exit.
func serveMetrics(ctx context.Context, addr string, components *service.Components, logger *zap.Logger) func() {
	mctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := metrics.Serve(mctx, addr, components.Gatherer, logger, nil); err != nil {
			logger.Error("Metrics endpoint failed.", zap.String("addr", addr), zap.Error(err))
		}
	}()
	return func() {
		cancel()
		wg.Wait()
	}
}
