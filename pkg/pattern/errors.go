package pattern

import (
	"errors"
	"fmt"
)

// ErrPatternMismatch is returned when step text does not satisfy a compiled
// pattern. It is a match-time outcome, never a compile-time one.
var ErrPatternMismatch = errors.New("pattern mismatch")

// PlaceholderError reports malformed placeholder or brace syntax in a step
// pattern. Offset is the zero-based byte offset the problem was found at.
type PlaceholderError struct {
	Offset      int
	Placeholder string // empty for stray braces
	Reason      string
}

func (e *PlaceholderError) Error() string {
	if e.Placeholder != "" {
		return fmt.Sprintf("invalid placeholder: %s for placeholder `%s` at byte %d (zero-based)", e.Reason, e.Placeholder, e.Offset)
	}
	return fmt.Sprintf("invalid placeholder: %s at byte %d (zero-based)", e.Reason, e.Offset)
}

// InvalidPatternError wraps a failure of the underlying regular expression
// compiler for a generated matcher.
type InvalidPatternError struct {
	Pattern string
	Err     error
}

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %v", e.Pattern, e.Err)
}

func (e *InvalidPatternError) Unwrap() error { return e.Err }

// ConversionError reports captured text that could not be converted to the
// type named by its placeholder hint.
type ConversionError struct {
	Pattern     string
	Placeholder string
	Hint        string
	Raw         string
	Err         error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("pattern %q: cannot convert %q captured by {%s:%s}: %v", e.Pattern, e.Raw, e.Placeholder, e.Hint, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

func placeholderErr(offset int, name, reason string) error {
	return &PlaceholderError{Offset: offset, Placeholder: name, Reason: reason}
}
