// File: internal/service/factory.go
package service

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/xkilldash9x/steadyhand/internal/config"
	"github.com/xkilldash9x/steadyhand/internal/element"
	"github.com/xkilldash9x/steadyhand/internal/metrics"
	"github.com/xkilldash9x/steadyhand/internal/network"
	"github.com/xkilldash9x/steadyhand/internal/reporting"
	"github.com/xkilldash9x/steadyhand/internal/reporting/buildfarm"
	"github.com/xkilldash9x/steadyhand/internal/reporting/chat"
	"github.com/xkilldash9x/steadyhand/internal/suite"
	"github.com/xkilldash9x/steadyhand/internal/suites/smoke"
	"github.com/xkilldash9x/steadyhand/internal/wait"
)

// ComponentFactory builds the components of a run. It exists so that the
// commands can be tested without a browser or database.
type ComponentFactory interface {
	Create(ctx context.Context, cfg config.Interface, logger *zap.Logger) (*Components, error)
}

type concreteFactory struct{}

// NewComponentFactory creates the production component factory.
func NewComponentFactory() ComponentFactory {
	return &concreteFactory{}
}

// Create wires metrics, reporting collaborators, the runner and the suite
// registry from cfg.
func (f *concreteFactory) Create(ctx context.Context, cfg config.Interface, logger *zap.Logger) (components *Components, err error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	components = &Components{logger: logger}
	defer func() {
		if err != nil {
			logger.Warn("Initialization failed, shutting down partially created components.", zap.Error(err))
			components.Shutdown()
			components = nil
		}
	}()

	uniqueID := cfg.Runner().UniqueID
	if uniqueID == "" {
		uniqueID = suite.NewUniqueID()
	}
	components.UniqueID = uniqueID

	// 1. Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	components.Metrics = metrics.New(reg)
	components.Gatherer = reg

	// 2. Reporting collaborators
	rc := cfg.Reporting()
	httpCfg := network.NewDefaultClientConfig()
	if rc.Timeout > 0 {
		httpCfg.RequestTimeout = rc.Timeout
	}
	httpCfg.Logger = logger
	apiClient := network.NewClient(httpCfg)

	integrations := reporting.NewIntegrations(logger)
	integrations.SessionReporters = append(integrations.SessionReporters, buildfarm.New(buildfarm.Config{
		Enabled:   rc.Buildfarm.Enabled,
		URL:       rc.Buildfarm.URL,
		Username:  rc.Buildfarm.Username,
		AccessKey: rc.Buildfarm.AccessKey,
	}, apiClient, logger))
	integrations.Notifiers = append(integrations.Notifiers, chat.New(chat.Config{
		Enabled:      rc.Chat.Enabled,
		WebhookURL:   rc.Chat.WebhookURL,
		Channel:      rc.Chat.Channel,
		RateLimit:    rc.Chat.RateLimit,
		Burst:        rc.Chat.Burst,
		OnlyFailures: rc.Chat.OnlyFailures,
		UniqueID:     uniqueID,
	}, apiClient, logger))

	if rc.Database.Enabled {
		s, pool, err := InitializeStore(ctx, rc.Database, logger)
		if err != nil {
			return components, fmt.Errorf("failed to initialize outcome store: %w", err)
		}
		components.Store, components.DBPool = s, pool
		integrations.Recorders = append(integrations.Recorders, s)
	}
	components.Integrations = integrations

	// 3. Runner
	rcfg := cfg.Runner()
	runner, err := suite.New(suite.Config{
		Parallelism: rcfg.Parallelism,
		RetryBudget: rcfg.RetryBudget,
		UniqueID:    uniqueID,
		WaitSeconds: cfg.Wait().TimeoutSeconds,
	}, logger, integrations, components.Metrics)
	if err != nil {
		return components, fmt.Errorf("failed to create suite runner: %w", err)
	}
	components.Runner = runner

	// 4. Suites
	registry, err := NewSuiteRegistry(cfg, components.Metrics, logger)
	if err != nil {
		return components, err
	}
	components.Suites = registry

	logger.Info("All run components initialized.",
		zap.String("unique_id", uniqueID),
		zap.Strings("suites", components.Suites.Names()))
	return components, nil
}

// NewSuiteRegistry registers the built-in suites, configured from cfg. observer
// may be nil.
func NewSuiteRegistry(cfg config.Interface, observer wait.Observer, logger *zap.Logger) (*suite.Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	pollerOpts := []wait.Option{wait.WithLogger(logger)}
	if observer != nil {
		pollerOpts = append(pollerOpts, wait.WithObserver(observer))
	}
	poller := wait.NewPoller(cfg.Wait().PollInterval, pollerOpts...)

	linkCfg := network.NewDefaultClientConfig()
	linkCfg.FollowRedirects = true
	linkCfg.Logger = logger

	registry := suite.NewRegistry()
	if err := registry.Register(smoke.Definition(smoke.Deps{
		Browser:    &sessionBrowser{opts: sessionOptions(cfg.Browser()), logger: logger},
		BaseURL:    cfg.Browser().BaseURL,
		HTTPClient: network.NewClient(linkCfg),
		Finder: []element.Option{
			element.WithPoller(poller),
			element.WithStabilityInterval(cfg.Wait().StabilityInterval),
		},
	})); err != nil {
		return nil, fmt.Errorf("failed to register smoke suite: %w", err)
	}
	return registry, nil
}
