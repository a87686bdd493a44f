package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/chriserin/stepwise/internal/config"
	"github.com/chriserin/stepwise/internal/ui"
	"github.com/chriserin/stepwise/pkg/engine"
	"github.com/chriserin/stepwise/pkg/registry"
	"github.com/chriserin/stepwise/pkg/tags"
)

func newCheckCmd(a *app) *cobra.Command {
	var tagExpr string
	c := &cobra.Command{
		Use:   "check [feature files...]",
		Short: "Verify that every step has exactly one definition",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cfg, err := a.setup(cmd)
			if err != nil {
				return err
			}
			return RunCheck(cmd.OutOrStdout(), a.reg, cfg, tagExpr, args)
		},
	}
	c.Flags().StringVarP(&tagExpr, "tags", "t", "", "tag expression selecting scenarios")
	return c
}

// RunCheck binds the selected scenarios without running them and lists the
// definitions no scenario uses.
func RunCheck(w io.Writer, reg *registry.Registry, cfg *config.Config, tagExpr string, files []string) error {
	if tagExpr == "" {
		tagExpr = cfg.Tags
	}
	filter, err := tags.ParseOptional(tagExpr)
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

	reg.Freeze()
	admitted := engine.Select(filter, scenarios)
	if err := engine.Bind(reg.WithPolicy(cfg.Policy()), admitted); err != nil {
		return fmt.Errorf("binding steps: %w", err)
	}

	steps := 0
	for i := range admitted {
		steps += len(admitted[i].Steps)
	}
	fmt.Fprintf(w, "%d scenarios, %d steps bound\n", len(admitted), steps)

	unused := reg.Unused()
	if len(unused) == 0 {
		return nil
	}
	fmt.Fprintf(w, "%d unused step definitions:\n", len(unused))
	width := patternWidth(unused)
	for _, s := range unused {
		ui.StepDefLine(w, s, width, true)
	}
	return nil
}
