package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/chriserin/stepwise/internal/config"
	"github.com/chriserin/stepwise/internal/ui"
	"github.com/chriserin/stepwise/pkg/engine"
	"github.com/chriserin/stepwise/pkg/registry"
)

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <file:line>",
		Short: "Show a scenario's steps and the definitions they bind to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cfg, err := a.setup(cmd)
			if err != nil {
				return err
			}
			return RunShow(cmd.OutOrStdout(), a.reg, cfg, args[0])
		},
	}
}

// RunShow prints the scenario identified by id (as shown by `stepwise list`)
// with every step followed by the definition it resolves to or the reason it
// does not.
func RunShow(w io.Writer, reg *registry.Registry, cfg *config.Config, id string) error {
	paths, err := featurePaths(cfg.Features, nil)
	if err != nil {
		return err
	}
	scenarios, err := loadScenarios(paths)
	if err != nil {
		return err
	}

	var matched *engine.Scenario
	for i := range scenarios {
		if scenarios[i].ID() == id {
			matched = &scenarios[i]
			break
		}
	}
	if matched == nil {
		return fmt.Errorf("scenario %s not found", id)
	}

	refs, err := engine.Refs(matched)
	if err != nil {
		return err
	}

	ui.ShowHeader(w, matched.ID(), matched.Feature, matched.Name, matched.Tags)
	fmt.Fprintln(w)

	view := reg.WithPolicy(cfg.Policy())
	for i, ref := range refs {
		rec := matched.Steps[i]
		m, err := view.Resolve(ref.Keyword, ref.Text)
		if err != nil {
			ui.BindingLine(w, rec.Keyword, rec.Text, bindingProblem(err), false)
			continue
		}
		ui.BindingLine(w, rec.Keyword, rec.Text, fmt.Sprintf("%s %q (%s)", m.Step.Keyword, m.Step.Pattern, m.Step.Location), true)
	}
	return nil
}

func bindingProblem(err error) string {
	var amb *registry.AmbiguousStepError
	if errors.As(err, &amb) {
		return fmt.Sprintf("ambiguous: %d definitions match", len(amb.Matches))
	}
	var lookup *registry.LookupError
	if errors.As(err, &lookup) {
		return "undefined"
	}
	return err.Error()
}
