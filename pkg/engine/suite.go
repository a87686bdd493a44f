package engine

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/chriserin/stepwise/pkg/registry"
	"github.com/chriserin/stepwise/pkg/step"
	"github.com/chriserin/stepwise/pkg/stepctx"
	"github.com/chriserin/stepwise/pkg/tags"
)

// Recorder receives every scenario result as soon as it is known. Record is
// called from several goroutines when the suite runs concurrently.
type Recorder interface {
	Record(ctx context.Context, r Result) error
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(ctx context.Context, r Result) error

func (f RecorderFunc) Record(ctx context.Context, r Result) error { return f(ctx, r) }

// Suite selects scenarios with a tag filter, validates their bindings and
// runs them.
type Suite struct {
	Engine *Engine
	// Filter selects scenarios by tag. Nil admits all.
	Filter *tags.Expression
	// Concurrency caps how many scenarios run at once. Values below one
	// mean one.
	Concurrency int
	// Fixtures builds the context store for a scenario. Nil yields an empty
	// store.
	Fixtures func(sc *Scenario) *stepctx.Context
	// Recorder, if set, receives each result.
	Recorder Recorder
}

// Report is the outcome of a suite run. Results follow the order of the
// admitted scenarios.
type Report struct {
	Results  []Result
	Filtered int // scenarios rejected by the tag filter
	Duration time.Duration
}

// Count returns how many results have status s.
func (r *Report) Count(s Status) int {
	n := 0
	for i := range r.Results {
		if r.Results[i].Status == s {
			n++
		}
	}
	return n
}

// OK reports whether no scenario failed.
func (r *Report) OK() bool { return r.Count(Failed) == 0 }

// Refs lists a scenario's steps for registry.Registry.Bind, resolving And,
// But and * to the keyword before them.
func Refs(sc *Scenario) ([]registry.StepRef, error) {
	refs := make([]registry.StepRef, 0, len(sc.Steps))
	var prev step.Keyword
	for _, rec := range sc.Steps {
		kw, err := step.ParseKeyword(rec.Keyword)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", sc.FeaturePath, rec.Line, err)
		}
		kw = kw.Resolve(prev)
		prev = kw
		refs = append(refs, registry.StepRef{
			Keyword: kw,
			Text:    rec.Text,
			Where:   fmt.Sprintf("%s:%d", sc.FeaturePath, rec.Line),
		})
	}
	return refs, nil
}

// Select returns the scenarios admitted by filter.
func Select(filter *tags.Expression, scenarios []Scenario) []Scenario {
	var out []Scenario
	for i := range scenarios {
		if filter.Admits(scenarios[i].TagSet()) {
			out = append(out, scenarios[i])
		}
	}
	return out
}

// Bind validates every step of every scenario against reg and returns all
// problems joined, or nil.
func Bind(reg *registry.Registry, scenarios []Scenario) error {
	var refs []registry.StepRef
	for i := range scenarios {
		r, err := Refs(&scenarios[i])
		if err != nil {
			return err
		}
		refs = append(refs, r...)
	}
	return reg.Bind(refs)
}

// Run filters, binds and executes scenarios. A binding error aborts the run
// before any scenario starts and no report is returned. Scenario failures are
// reported in the Report, not as an error; an error after binding comes from
// the Recorder.
func (s *Suite) Run(ctx context.Context, scenarios []Scenario) (*Report, error) {
	logger := s.Engine.log(ctx)
	start := s.Engine.now()

	admitted := Select(s.Filter, scenarios)
	report := &Report{
		Results:  make([]Result, len(admitted)),
		Filtered: len(scenarios) - len(admitted),
	}
	logger.Debug("selected scenarios", "admitted", len(admitted), "filtered", report.Filtered, "filter", s.Filter.String())

	if err := Bind(s.Engine.registry, admitted); err != nil {
		return nil, fmt.Errorf("binding steps: %w", err)
	}

	limit := s.Concurrency
	if limit < 1 {
		limit = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	logger.Debug("running scenarios", "count", len(admitted), "concurrency", limit)

	for i := range admitted {
		sc := &admitted[i]
		g.Go(func() error {
			store := stepctx.New()
			if s.Fixtures != nil {
				store = s.Fixtures(sc)
			}
			res := s.Engine.Run(gctx, sc, store)
			report.Results[i] = res
			if s.Recorder == nil {
				return nil
			}
			if err := s.Recorder.Record(gctx, res); err != nil {
				return fmt.Errorf("recording %s: %w", sc.ID(), err)
			}
			return nil
		})
	}
	err := g.Wait()
	report.Duration = s.Engine.now().Sub(start)

	logger.Info("suite finished",
		"passed", report.Count(Passed),
		"failed", report.Count(Failed),
		"skipped", report.Count(Skipped),
		"duration", report.Duration)
	return report, err
}
