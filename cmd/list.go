// File: cmd/list.go
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/steadyhand/internal/config"
	"github.com/xkilldash9x/steadyhand/internal/observability"
	"github.com/xkilldash9x/steadyhand/internal/service"
	"github.com/xkilldash9x/steadyhand/internal/suite"
)

// registryFunc builds the suite registry the list command reads from.
type registryFunc func(cfg config.Interface, logger *zap.Logger) (*suite.Registry, error)

func defaultRegistry(cfg config.Interface, logger *zap.Logger) (*suite.Registry, error) {
	return service.NewSuiteRegistry(cfg, nil, logger)
}

func newListCmd(newRegistry registryFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "list [suite...]",
		Short: "List the tests discovered in registered suites",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			registry, err := newRegistry(cfg, observability.GetLogger())
			if err != nil {
				return err
			}
			if len(args) == 0 {
				args = registry.Names()
			}
			for _, name := range args {
				def, ok := registry.Lookup(name)
				if !ok {
					return fmt.Errorf("unknown suite %q (available: %s)", name, strings.Join(registry.Names(), ", "))
				}
				descriptors, err := suite.Discover(def)
				if err != nil {
					return fmt.Errorf("discover suite %s: %w", name, err)
				}
				renderDescriptors(cmd.OutOrStdout(), name, descriptors)
			}
			return nil
		},
	}
}
