// File: internal/service/components.go
package service

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/xkilldash9x/steadyhand/internal/metrics"
	"github.com/xkilldash9x/steadyhand/internal/reporting"
	"github.com/xkilldash9x/steadyhand/internal/reporting/store"
	"github.com/xkilldash9x/steadyhand/internal/suite"
)

// Components holds everything a run needs, wired from configuration.
type Components struct {
	UniqueID     string
	Runner       *suite.Runner
	Suites       *suite.Registry
	Integrations *reporting.Integrations
	Metrics      *metrics.Metrics
	// Gatherer backs the /metrics endpoint.
	Gatherer prometheus.Gatherer
	Store    *store.Store
	DBPool   *pgxpool.Pool

	logger *zap.Logger
}

// Shutdown releases the resources owned by the components. It is safe to call
// on partially built components.
func (c *Components) Shutdown() {
	logger := c.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if c.DBPool != nil {
		c.DBPool.Close()
		c.DBPool = nil
		logger.Debug("Database connection pool closed.")
	}
	logger.Debug("Components shut down.")
}
