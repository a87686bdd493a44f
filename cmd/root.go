// Package cmd implements the stepwise command line. A test binary registers
// its step definitions and hands the registry to Execute.
package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/chriserin/stepwise/internal/config"
	"github.com/chriserin/stepwise/internal/logging"
	"github.com/chriserin/stepwise/pkg/engine"
	"github.com/chriserin/stepwise/pkg/registry"
	"github.com/chriserin/stepwise/pkg/stepctx"
)

type app struct {
	reg        *registry.Registry
	fixtures   func(sc *engine.Scenario) *stepctx.Context
	configPath string
}

// Option customizes the command tree.
type Option func(*app)

// WithFixtures sets the factory building each scenario's context store.
func WithFixtures(fn func(sc *engine.Scenario) *stepctx.Context) Option {
	return func(a *app) { a.fixtures = fn }
}

// NewRootCommand builds the command tree around reg.
func NewRootCommand(reg *registry.Registry, opts ...Option) *cobra.Command {
	a := &app{reg: reg}
	for _, opt := range opts {
		opt(a)
	}

	root := &cobra.Command{
		Use:          "stepwise",
		Short:        "stepwise runs Gherkin scenarios against Go step definitions",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", config.FileName, "path to the configuration file")

	root.AddCommand(
		newInitCmd(),
		newRunCmd(a),
		newCheckCmd(a),
		newStepsCmd(a),
		newTagsCmd(a),
		newMatchCmd(),
		newResultsCmd(a),
		newListCmd(a),
		newStatusCmd(a),
		newShowCmd(a),
	)
	return root
}

func Execute(reg *registry.Registry, opts ...Option) {
	if err := NewRootCommand(reg, opts...).Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads the configuration and returns a context carrying a logger
// built from it. Logs go to stderr.
func (a *app) setup(cmd *cobra.Command) (context.Context, *config.Config, error) {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, nil, err
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
	return logging.WithLogger(cmd.Context(), logger), cfg, nil
}
