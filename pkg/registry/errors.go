package registry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chriserin/stepwise/pkg/step"
)

// ErrFrozen is returned when a step is registered after Freeze.
var ErrFrozen = errors.New("registry is frozen")

// DuplicateStepError reports a second registration of the same keyword and
// pattern text.
type DuplicateStepError struct {
	Keyword  step.Keyword
	Pattern  string
	New      Location
	Existing Location
}

func (e *DuplicateStepError) Error() string {
	return fmt.Sprintf("duplicate step definition %s %q at %s, already defined at %s",
		e.Keyword, e.Pattern, e.New, e.Existing)
}

// LookupError reports a step that no definition matches.
type LookupError struct {
	Keyword step.Keyword
	Text    string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("no step definition matches %s %q", e.Keyword, e.Text)
}

// AmbiguousStepError reports a step matched by more than one definition.
type AmbiguousStepError struct {
	Keyword step.Keyword
	Text    string
	Matches []*Step
}

func (e *AmbiguousStepError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "step %s %q is ambiguous, %d definitions match:", e.Keyword, e.Text, len(e.Matches))
	for _, s := range e.Matches {
		fmt.Fprintf(&b, "\n  %q at %s", s.Pattern.String(), s.Location)
	}
	return b.String()
}
