package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/chriserin/stepwise/pkg/engine"
	"github.com/chriserin/stepwise/pkg/registry"
)

var (
	passStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	skipStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	dimStyle  = lipgloss.NewStyle().Faint(true)
)

// statusLabel renders a fixed width label such as "pass".
func statusLabel(s engine.Status) string {
	switch s {
	case engine.Passed:
		return passStyle.Render("pass")
	case engine.Failed:
		return failStyle.Render("FAIL")
	default:
		return skipStyle.Render("skip")
	}
}

// ScenarioLine prints a scenario's status, id and name, and the skip message
// when there is one.
func ScenarioLine(w io.Writer, res engine.Result) {
	sc := res.Scenario
	line := statusLabel(res.Status) + "  " + sc.ID() + "  " + sc.Name
	if res.Status == engine.Skipped && res.Message != "" {
		line += dimStyle.Render("  (" + res.Message + ")")
	}
	fmt.Fprintln(w, line)
}

// StepLines prints every step of a scenario that did not pass.
func StepLines(w io.Writer, res engine.Result) {
	if res.Status == engine.Passed {
		return
	}
	for _, s := range res.Steps {
		text := fmt.Sprintf("      %s %s", s.Keyword, s.Text)
		switch s.Status {
		case engine.Failed:
			fmt.Fprintln(w, failStyle.Render(text))
		case engine.Skipped:
			fmt.Fprintln(w, dimStyle.Render(text))
		default:
			fmt.Fprintln(w, text)
		}
	}
	if res.Failure != nil {
		fmt.Fprintln(w, "      "+failStyle.Render(res.Failure.Error()))
	}
}

// SummaryLine prints the scenario counts and duration of a run.
func SummaryLine(w io.Writer, report *engine.Report) {
	fmt.Fprintf(w, "%d scenarios (%d passed, %d failed, %d skipped", len(report.Results),
		report.Count(engine.Passed), report.Count(engine.Failed), report.Count(engine.Skipped))
	if report.Filtered > 0 {
		fmt.Fprintf(w, ", %d filtered out", report.Filtered)
	}
	fmt.Fprintf(w, ") in %s\n", report.Duration.Round(time.Millisecond))
}

// StepDefLine prints one registered definition, marking it when no scenario
// uses it.
func StepDefLine(w io.Writer, s *registry.Step, width int, unused bool) {
	line := fmt.Sprintf("%-5s  %-*s  %s", s.Keyword, width, s.Pattern.String(), dimStyle.Render(s.Location.String()))
	if unused {
		line += "  " + skipStyle.Render("unused")
	}
	fmt.Fprintln(w, line)
}

// CaptureLine prints one converted placeholder value.
func CaptureLine(w io.Writer, name, hint string, value any) {
	if hint == "" {
		hint = "raw"
	}
	if s, ok := value.(string); ok {
		value = fmt.Sprintf("%q", s)
	}
	fmt.Fprintf(w, "  %s:%s = %v\n", name, dimStyle.Render(hint), value)
}

// ResultRow prints a recorded scenario result.
func ResultRow(w io.Writer, status, id, name, detail string) {
	var label string
	switch status {
	case engine.Passed.String():
		label = passStyle.Render("pass")
	case engine.Failed.String():
		label = failStyle.Render("FAIL")
	default:
		label = skipStyle.Render("skip")
	}
	line := label + "  " + id + "  " + name
	if detail != "" {
		line += dimStyle.Render("  " + detail)
	}
	fmt.Fprintln(w, line)
}

// ListRow prints one discovered scenario with its last recorded status.
func ListRow(w io.Writer, id, name, status string, idWidth, nameWidth int) {
	fmt.Fprintf(w, "%-*s  %-*s  %s\n", idWidth, id, nameWidth, name, statusWord(status))
}

// ShowHeader prints the heading of `stepwise show`.
func ShowHeader(w io.Writer, id, feature, name string, tags []string) {
	fmt.Fprintln(w, passStyle.Bold(true).Render(id)+"  "+feature+": "+name)
	if len(tags) > 0 {
		fmt.Fprintln(w, dimStyle.Render(strings.Join(tags, " ")))
	}
}

// BindingLine prints a step of `stepwise show` and where it binds.
func BindingLine(w io.Writer, keyword, text, binding string, ok bool) {
	fmt.Fprintf(w, "  %s %s\n", keyword, text)
	if ok {
		fmt.Fprintln(w, "      "+dimStyle.Render("-> "+binding))
	} else {
		fmt.Fprintln(w, "      "+failStyle.Render("!! "+binding))
	}
}

func statusWord(status string) string {
	switch status {
	case engine.Passed.String():
		return passStyle.Render(status)
	case engine.Failed.String():
		return failStyle.Render(status)
	case engine.Skipped.String():
		return skipStyle.Render(status)
	default:
		return dimStyle.Render(status)
	}
}
