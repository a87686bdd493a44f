package engine

import (
	"fmt"
	"strings"
)

// StepError describes the step that failed a scenario.
type StepError struct {
	Index       int // zero-based position within the scenario
	Keyword     string
	Text        string
	Line        int
	Pattern     string // empty when the step did not resolve
	FeaturePath string
	Scenario    string
	Err         error
}

func (e *StepError) Error() string {
	var b strings.Builder
	if e.FeaturePath != "" {
		if e.Line > 0 {
			fmt.Fprintf(&b, "%s:%d: ", e.FeaturePath, e.Line)
		} else {
			fmt.Fprintf(&b, "%s: ", e.FeaturePath)
		}
	}
	if e.Scenario != "" {
		fmt.Fprintf(&b, "scenario %q: ", e.Scenario)
	}
	fmt.Fprintf(&b, "step %d (%s %q)", e.Index+1, e.Keyword, e.Text)
	if e.Pattern != "" {
		fmt.Fprintf(&b, " matched by %q", e.Pattern)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *StepError) Unwrap() error { return e.Err }

// SkippedError reports a scenario that a handler skipped. It is never a
// failure; it exists so callers handling errors can tell the two apart.
type SkippedError struct {
	Scenario string
	Message  string
}

func (e *SkippedError) Error() string {
	switch {
	case e.Message == "":
		return fmt.Sprintf("scenario %q skipped", e.Scenario)
	default:
		return fmt.Sprintf("scenario %q skipped: %s", e.Scenario, e.Message)
	}
}
