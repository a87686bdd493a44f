package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/chriserin/stepwise/internal/ui"
	"github.com/chriserin/stepwise/pkg/pattern"
)

func newMatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "match <pattern> <text>",
		Short: "Compile a step pattern and show what it captures from text",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunMatch(cmd.OutOrStdout(), args[0], args[1])
		},
	}
}

func RunMatch(w io.Writer, src, text string) error {
	p, err := pattern.Compile(src)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "regexp: %s\n", p.Regexp())

	caps, err := p.Extract(text)
	if errors.Is(err, pattern.ErrPatternMismatch) {
		return fmt.Errorf("%q does not match %q", text, src)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "matched")
	for _, c := range caps {
		ui.CaptureLine(w, c.Placeholder.Name, c.Placeholder.Hint, c.Value)
	}
	return nil
}
