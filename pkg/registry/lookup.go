package registry

import (
	"errors"
	"fmt"

	"github.com/chriserin/stepwise/pkg/pattern"
	"github.com/chriserin/stepwise/pkg/step"
)

// FindExact returns the definition whose pattern text equals text.
func (r *Registry) FindExact(kw step.Keyword, text string) (*Step, bool) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	s, ok := r.store.byKey[key{kw, text}]
	return s, ok
}

// FindByPlaceholder returns the first definition, in registration order,
// whose pattern matches text.
func (r *Registry) FindByPlaceholder(kw step.Keyword, text string) (Match, bool) {
	for _, s := range r.candidates(kw) {
		if raw, err := s.Pattern.Captures(text); err == nil {
			return Match{Step: s, Raw: raw}, true
		}
	}
	return Match{}, false
}

// Matches returns every definition whose pattern matches text, in
// registration order.
func (r *Registry) Matches(kw step.Keyword, text string) []Match {
	var out []Match
	for _, s := range r.candidates(kw) {
		if raw, err := s.Pattern.Captures(text); err == nil {
			out = append(out, Match{Step: s, Raw: raw})
		}
	}
	return out
}

func (r *Registry) candidates(kw step.Keyword) []*Step {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return r.store.ordered[kw]
}

// Resolve finds the single definition for a step. An exact pattern-text
// match wins outright; otherwise placeholder matches are considered under
// the registry's AmbiguityPolicy. No match yields a *LookupError.
func (r *Registry) Resolve(kw step.Keyword, text string) (Match, error) {
	m, err := r.resolve(kw, text)
	if err != nil {
		r.log().Debug("step unresolved", "keyword", kw, "text", text, "error", err)
		return Match{}, err
	}
	r.markUsed(m.Step)
	r.log().Debug("step resolved", "keyword", kw, "text", text, "pattern", m.Step.Pattern.String(), "location", m.Step.Location)
	return m, nil
}

func (r *Registry) resolve(kw step.Keyword, text string) (Match, error) {
	if s, ok := r.FindExact(kw, text); ok {
		// A pattern whose placeholders were written out literally does not
		// match its own text; fall through to the placeholder search.
		if raw, err := s.Pattern.Captures(text); err == nil {
			return Match{Step: s, Raw: raw}, nil
		}
	}

	matches := r.Matches(kw, text)
	switch len(matches) {
	case 0:
		return Match{}, &LookupError{Keyword: kw, Text: text}
	case 1:
		return matches[0], nil
	}

	switch r.policy {
	case FirstRegistered:
		return matches[0], nil
	case MostSpecific:
		return mostSpecific(kw, text, matches)
	default:
		return Match{}, ambiguous(kw, text, matches)
	}
}

func mostSpecific(kw step.Keyword, text string, matches []Match) (Match, error) {
	var best []Match
	var bestScore pattern.Specificity
	for _, m := range matches {
		score, err := m.Step.Pattern.Specificity()
		if err != nil {
			return Match{}, err
		}
		switch c := score.Compare(bestScore); {
		case len(best) == 0 || c > 0:
			best, bestScore = []Match{m}, score
		case c == 0:
			best = append(best, m)
		}
	}
	if len(best) > 1 {
		return Match{}, ambiguous(kw, text, best)
	}
	return best[0], nil
}

func ambiguous(kw step.Keyword, text string, matches []Match) error {
	steps := make([]*Step, len(matches))
	for i, m := range matches {
		steps[i] = m.Step
	}
	return &AmbiguousStepError{Keyword: kw, Text: text, Matches: steps}
}

func (r *Registry) markUsed(s *Step) {
	r.store.usedMu.Lock()
	r.store.used[s] = struct{}{}
	r.store.usedMu.Unlock()
}

// Unused returns, in registration order, the definitions no call to Resolve
// or Bind has selected.
func (r *Registry) Unused() []*Step {
	all := r.Steps()
	r.store.usedMu.Lock()
	defer r.store.usedMu.Unlock()
	var out []*Step
	for _, s := range all {
		if _, ok := r.store.used[s]; !ok {
			out = append(out, s)
		}
	}
	return out
}

// StepRef is a scripted step to validate before a run. Where locates it for
// diagnostics, for example "features/basket.feature:12".
type StepRef struct {
	Keyword step.Keyword
	Text    string
	Where   string
}

// Bind resolves every ref and returns all failures joined together, or nil
// when each ref resolves to exactly one definition.
func (r *Registry) Bind(refs []StepRef) error {
	var errs []error
	for _, ref := range refs {
		if _, err := r.Resolve(ref.Keyword, ref.Text); err != nil {
			if ref.Where != "" {
				err = fmt.Errorf("%s: %w", ref.Where, err)
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
