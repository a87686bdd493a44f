package engine

import (
	"fmt"
	"time"

	"github.com/chriserin/stepwise/pkg/tags"
)

// StepRecord is one scripted step as read from a feature file.
type StepRecord struct {
	Keyword   string
	Text      string
	Table     [][]string
	DocString *string
	Line      int
}

// Scenario is an ordered list of steps plus the identifiers used in
// diagnostics. Tags holds the union of feature and scenario tags.
type Scenario struct {
	FeaturePath string
	Feature     string
	Name        string
	Line        int
	Tags        []string
	Steps       []StepRecord
}

// ID identifies the scenario by file and line, for example
// "features/basket.feature:7".
func (s *Scenario) ID() string {
	if s.FeaturePath == "" {
		return s.Name
	}
	return fmt.Sprintf("%s:%d", s.FeaturePath, s.Line)
}

// TagSet returns the scenario's tags as a set.
func (s *Scenario) TagSet() tags.Set {
	return tags.Union(s.Tags)
}

// Status is the terminal state of a scenario or a step.
type Status int

const (
	Passed Status = iota
	Failed
	Skipped
)

func (s Status) String() string {
	switch s {
	case Passed:
		return "passed"
	case Failed:
		return "failed"
	case Skipped:
		return "skipped"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// StepResult is the outcome of one step. Steps after the one that ended the
// scenario are recorded as skipped with a zero duration.
type StepResult struct {
	Keyword  string
	Text     string
	Line     int
	Pattern  string
	Status   Status
	Duration time.Duration
}

// Result is the outcome of one scenario.
type Result struct {
	Scenario *Scenario
	Status   Status
	// Message is the skip message when Status is Skipped.
	Message string
	// Failure is set when Status is Failed.
	Failure  *StepError
	Steps    []StepResult
	Started  time.Time
	Duration time.Duration
}

// Err returns the failure as an error, a *SkippedError for a skipped
// scenario, or nil when it passed.
func (r *Result) Err() error {
	switch r.Status {
	case Failed:
		return r.Failure
	case Skipped:
		return &SkippedError{Scenario: r.Scenario.Name, Message: r.Message}
	default:
		return nil
	}
}
