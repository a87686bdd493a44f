package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chriserin/stepwise/internal/config"
	"github.com/chriserin/stepwise/pkg/engine"
	"github.com/chriserin/stepwise/pkg/tags"
)

func newTagsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tags <expression> [feature files...]",
		Short: "Show which scenarios a tag expression admits",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cfg, err := a.setup(cmd)
			if err != nil {
				return err
			}
			return RunTags(cmd.OutOrStdout(), cfg, args[0], args[1:])
		},
	}
}

func RunTags(w io.Writer, cfg *config.Config, expr string, files []string) error {
	filter, err := tags.Parse(expr)
	if err != nil {
		return err
	}
	paths, err := featurePaths(cfg.Features, files)
	if err != nil {
		return err
	}
	scenarios, err := loadScenarios(paths)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "expression: %s\n", filter)
	admitted := engine.Select(filter, scenarios)
	for i := range admitted {
		sc := &admitted[i]
		fmt.Fprintf(w, "  %s  %s  %s\n", sc.ID(), sc.Name, strings.Join(sc.TagSet().Sorted(), " "))
	}
	fmt.Fprintf(w, "%d of %d scenarios admitted\n", len(admitted), len(scenarios))
	return nil
}
