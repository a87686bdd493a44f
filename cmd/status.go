package cmd

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/chriserin/stepwise/internal/config"
)

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status [feature files...]",
		Short: "Count scenarios by their last recorded status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cfg, err := a.setup(cmd)
			if err != nil {
				return err
			}
			return RunStatusReport(ctx, cmd.OutOrStdout(), cfg, args)
		},
	}
}

func RunStatusReport(ctx context.Context, w io.Writer, cfg *config.Config, files []string) error {
	scenarios, statuses, err := scenarioStatuses(ctx, cfg, files)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Scenarios: %d\n", len(scenarios))
	if len(scenarios) == 0 {
		return nil
	}

	counts := make(map[string]int)
	for i := range scenarios {
		status := statuses[scenarios[i].ID()]
		if status == "" {
			status = notRun
		}
		counts[status]++
	}

	// Most frequent first, not-run last.
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := names[i], names[j]
		if (a == notRun) != (b == notRun) {
			return b == notRun
		}
		if counts[a] != counts[b] {
			return counts[a] > counts[b]
		}
		return a < b
	})
	for _, name := range names {
		fmt.Fprintf(w, "  %s: %d\n", name, counts[name])
	}
	return nil
}
