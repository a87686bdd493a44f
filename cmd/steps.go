package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/chriserin/stepwise/internal/ui"
	"github.com/chriserin/stepwise/pkg/registry"
)

func newStepsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "steps",
		Short: "List registered step definitions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunSteps(cmd.OutOrStdout(), a.reg)
		},
	}
}

func RunSteps(w io.Writer, reg *registry.Registry) error {
	steps := reg.Steps()
	if len(steps) == 0 {
		fmt.Fprintln(w, "no step definitions registered")
		return nil
	}
	width := patternWidth(steps)
	for _, s := range steps {
		ui.StepDefLine(w, s, width, false)
	}
	return nil
}

func patternWidth(steps []*registry.Step) int {
	width := 0
	for _, s := range steps {
		if n := len(s.Pattern.String()); n > width {
			width = n
		}
	}
	return width
}
