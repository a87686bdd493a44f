package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/chriserin/stepwise/internal/config"
	"github.com/chriserin/stepwise/internal/db"
	"github.com/chriserin/stepwise/internal/ui"
)

func newResultsCmd(a *app) *cobra.Command {
	var runs int
	c := &cobra.Command{
		Use:   "results [run id]",
		Short: "Show recorded results of the latest or a given run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cfg, err := a.setup(cmd)
			if err != nil {
				return err
			}
			if runs > 0 {
				return RunHistory(ctx, cmd.OutOrStdout(), cfg, runs)
			}
			var id string
			if len(args) == 1 {
				id = args[0]
			}
			return RunResults(ctx, cmd.OutOrStdout(), cfg, id)
		},
	}
	c.Flags().IntVar(&runs, "runs", 0, "list the N most recent runs instead")
	return c
}

// openResults opens an existing results database without creating one.
func openResults(cfg *config.Config) (*sql.DB, error) {
	if _, err := os.Stat(cfg.Database); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("no results database at %s (run `stepwise init` first)", cfg.Database)
	}
	sqlDB, err := db.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return sqlDB, nil
}

// RunResults prints every scenario result of run id, or of the latest run
// when id is empty.
func RunResults(ctx context.Context, w io.Writer, cfg *config.Config, id string) error {
	sqlDB, err := openResults(cfg)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if id == "" {
		run, err := db.LatestRun(ctx, sqlDB)
		if err != nil {
			return err
		}
		id = run.ID
	}

	results, err := db.RunSummary(ctx, sqlDB, id)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return fmt.Errorf("run %s has no recorded results", id)
	}

	fmt.Fprintf(w, "run %s\n", id)
	counts := map[string]int{}
	for _, r := range results {
		detail := r.Message
		if r.Error != "" {
			detail = r.Error
		}
		ui.ResultRow(w, r.Status, fmt.Sprintf("%s:%d", r.FeaturePath, r.Line), r.Name, detail)
		counts[r.Status]++
	}
	fmt.Fprintf(w, "%d passed, %d failed, %d skipped\n", counts["passed"], counts["failed"], counts["skipped"])
	return nil
}

// RunHistory lists the most recent runs, newest first.
func RunHistory(ctx context.Context, w io.Writer, cfg *config.Config, limit int) error {
	sqlDB, err := openResults(cfg)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	runs, err := db.Runs(ctx, sqlDB, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		return db.ErrNoRuns
	}
	for _, run := range runs {
		state := "in progress"
		if !run.FinishedAt.IsZero() {
			state = run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond).String()
		}
		fmt.Fprintf(w, "%s  %s  %d passed, %d failed, %d skipped  (%s)\n",
			run.ID, run.StartedAt.Local().Format(time.DateTime), run.Passed, run.Failed, run.Skipped, state)
	}
	return nil
}
