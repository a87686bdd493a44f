package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/chriserin/stepwise/internal/config"
	"github.com/chriserin/stepwise/internal/db"
	"github.com/chriserin/stepwise/internal/logging"
	"github.com/chriserin/stepwise/internal/ui"
	"github.com/chriserin/stepwise/pkg/engine"
	"github.com/chriserin/stepwise/pkg/registry"
	"github.com/chriserin/stepwise/pkg/stepctx"
	"github.com/chriserin/stepwise/pkg/tags"
)

// ErrScenariosFailed is returned by RunRun when at least one scenario failed.
var ErrScenariosFailed = errors.New("scenarios failed")

// RunOptions selects what RunRun runs and whether it records.
type RunOptions struct {
	Files []string
	// Tags replaces the configured tag expression when set.
	Tags     string
	NoRecord bool
	Fixtures func(sc *engine.Scenario) *stepctx.Context
}

func newRunCmd(a *app) *cobra.Command {
	var opts RunOptions
	c := &cobra.Command{
		Use:   "run [feature files...]",
		Short: "Run scenarios and record the results",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cfg, err := a.setup(cmd)
			if err != nil {
				return err
			}
			opts.Files = args
			opts.Fixtures = a.fixtures
			_, err = RunRun(ctx, cmd.OutOrStdout(), a.reg, cfg, opts)
			return err
		},
	}
	c.Flags().StringVarP(&opts.Tags, "tags", "t", "", "tag expression selecting scenarios")
	c.Flags().BoolVar(&opts.NoRecord, "no-record", false, "do not write results to the database")
	return c
}

// RunRun freezes reg, runs the selected scenarios and prints one line per
// scenario followed by a summary.
func RunRun(ctx context.Context, w io.Writer, reg *registry.Registry, cfg *config.Config, opts RunOptions) (*engine.Report, error) {
	src := cfg.Tags
	if opts.Tags != "" {
		src = opts.Tags
	}
	filter, err := tags.ParseOptional(src)
	if err != nil {
		return nil, err
	}

	paths, err := featurePaths(cfg.Features, opts.Files)
	if err != nil {
		return nil, err
	}
	scenarios, err := loadScenarios(paths)
	if err != nil {
		return nil, err
	}

	reg.Freeze()
	logger := logging.FromContext(ctx)
	eng := engine.New(reg.WithPolicy(cfg.Policy()), append(cfg.EngineOptions(), engine.WithLogger(logger))...)
	suite := &engine.Suite{
		Engine:      eng,
		Filter:      filter,
		Concurrency: cfg.Concurrency,
		Fixtures:    opts.Fixtures,
	}

	// Bind before a run row exists so a broken binding records nothing.
	if err := engine.Bind(eng.Registry(), engine.Select(filter, scenarios)); err != nil {
		return nil, fmt.Errorf("binding steps: %w", err)
	}

	var rec *db.Recorder
	if !opts.NoRecord {
		sqlDB, err := db.Open(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		defer sqlDB.Close()
		rec = db.NewRecorder(sqlDB)
		if _, err := rec.Start(ctx, filter.Source()); err != nil {
			return nil, err
		}
		suite.Recorder = rec
	}

	report, err := suite.Run(ctx, scenarios)
	if err != nil {
		return nil, err
	}
	if rec != nil {
		if err := rec.Finish(ctx, report); err != nil {
			return nil, err
		}
	}

	for _, res := range report.Results {
		ui.ScenarioLine(w, res)
		ui.StepLines(w, res)
	}
	ui.SummaryLine(w, report)
	if rec != nil {
		fmt.Fprintf(w, "recorded run %s\n", rec.RunID())
	}

	if failed := report.Count(engine.Failed); failed > 0 {
		return report, fmt.Errorf("%d of %d %w", failed, len(report.Results), ErrScenariosFailed)
	}
	return report, nil
}
