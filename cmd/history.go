// File: cmd/history.go
package cmd

import (
	"context"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/steadyhand/internal/config"
	"github.com/xkilldash9x/steadyhand/internal/observability"
	"github.com/xkilldash9x/steadyhand/internal/reporting/store"
	"github.com/xkilldash9x/steadyhand/internal/service"
)

// historySource reads stored outcomes of a run.
type historySource interface {
	History(ctx context.Context, uniqueID string) ([]store.Row, error)
}

// storeProvider creates the history source. Tests inject a fake instead of a
// live database connection.
type storeProvider interface {
	Create(ctx context.Context, cfg config.Interface, logger *zap.Logger) (historySource, func(), error)
}

type defaultStoreProvider struct{}

func newStoreProvider() storeProvider {
	return &defaultStoreProvider{}
}

func (p *defaultStoreProvider) Create(ctx context.Context, cfg config.Interface, logger *zap.Logger) (historySource, func(), error) {
	s, pool, err := service.InitializeStore(ctx, cfg.Reporting().Database, logger)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		pool.Close()
		logger.Debug("Database connection pool closed (via history cleanup).")
	}
	return s, cleanup, nil
}

func newHistoryCmd(provider storeProvider) *cobra.Command {
	var uniqueID string
	var asJSON bool

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show the stored outcomes of a previous run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			return runHistory(ctx, cmd, cfg, provider, uniqueID, asJSON, observability.GetLogger())
		},
	}

	historyCmd.Flags().StringVar(&uniqueID, "unique-id", "", "The unique id of the run to show (required)")
	_ = historyCmd.MarkFlagRequired("unique-id")
	historyCmd.Flags().BoolVar(&asJSON, "json", false, "Print the rows as JSON instead of a table.")
	return historyCmd
}

// runHistory contains the testable core of the history command.
func runHistory(ctx context.Context, cmd *cobra.Command, cfg config.Interface, provider storeProvider, uniqueID string, asJSON bool, logger *zap.Logger) error {
	source, cleanup, err := provider.Create(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	if cleanup != nil {
		defer cleanup()
	}

	rows, err := source.History(ctx, uniqueID)
	if err != nil {
		return fmt.Errorf("failed to load history for %s: %w", uniqueID, err)
	}
	if len(rows) == 0 {
		logger.Warn("No stored outcomes for run.", zap.String("unique_id", uniqueID))
	}

	if asJSON {
		out, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(rows, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to serialize history to JSON: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	}
	renderHistory(cmd.OutOrStdout(), uniqueID, rows)
	return nil
}
