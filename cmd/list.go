package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/chriserin/stepwise/internal/config"
	"github.com/chriserin/stepwise/internal/db"
	"github.com/chriserin/stepwise/internal/ui"
	"github.com/chriserin/stepwise/pkg/engine"
)

// notRun is the status of a scenario with no recorded result.
const notRun = "not-run"

func newListCmd(a *app) *cobra.Command {
	var (
		statusFlag string
		notRunFlag bool
	)
	c := &cobra.Command{
		Use:   "list [feature files...]",
		Short: "List scenarios with their last recorded status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cfg, err := a.setup(cmd)
			if err != nil {
				return err
			}
			return RunList(ctx, cmd.OutOrStdout(), cfg, args, statusFlag, notRunFlag)
		},
	}
	c.Flags().StringVar(&statusFlag, "status", "", "Filter by status")
	c.Flags().BoolVar(&notRunFlag, "not-run", false, "Show only scenarios with no recorded result")
	return c
}

type listRow struct {
	id     string
	name   string
	status string
}

func RunList(ctx context.Context, w io.Writer, cfg *config.Config, files []string, statusFilter string, onlyNotRun bool) error {
	scenarios, statuses, err := scenarioStatuses(ctx, cfg, files)
	if err != nil {
		return err
	}

	var results []listRow
	for i := range scenarios {
		sc := &scenarios[i]
		r := listRow{id: sc.ID(), name: sc.Name, status: statuses[sc.ID()]}
		if r.status == "" {
			r.status = notRun
		}

		if statusFilter != "" && r.status != statusFilter {
			continue
		}
		if onlyNotRun && r.status != notRun {
			continue
		}

		results = append(results, r)
	}

	if len(results) == 0 {
		return nil
	}

	// Compute column widths
	idWidth, nameWidth := 0, 0
	for _, r := range results {
		if len(r.id) > idWidth {
			idWidth = len(r.id)
		}
		if len(r.name) > nameWidth {
			nameWidth = len(r.name)
		}
	}

	for _, r := range results {
		ui.ListRow(w, r.id, r.name, r.status, idWidth, nameWidth)
	}

	return nil
}

// scenarioStatuses loads the scenarios and the last recorded status of each.
// A missing database means nothing has run yet.
func scenarioStatuses(ctx context.Context, cfg *config.Config, files []string) ([]engine.Scenario, map[string]string, error) {
	paths, err := featurePaths(cfg.Features, files)
	if err != nil {
		return nil, nil, err
	}
	scenarios, err := loadScenarios(paths)
	if err != nil {
		return nil, nil, err
	}

	if _, err := os.Stat(cfg.Database); errors.Is(err, fs.ErrNotExist) {
		return scenarios, map[string]string{}, nil
	}
	sqlDB, err := db.Open(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	defer sqlDB.Close()

	statuses, err := db.LatestStatuses(ctx, sqlDB)
	if err != nil {
		return nil, nil, err
	}
	return scenarios, statuses, nil
}
