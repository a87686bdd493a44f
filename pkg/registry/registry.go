// Package registry stores step definitions keyed by keyword and pattern text
// and resolves scripted steps to them.
//
// Definitions are registered during start-up, normally from init functions
// against Default, after which the registry is frozen and shared read-only
// by every running scenario.
package registry

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/chriserin/stepwise/pkg/pattern"
	"github.com/chriserin/stepwise/pkg/step"
)

// Location is where a step was defined.
type Location struct {
	File string
	Line int
}

func (l Location) String() string {
	if l.File == "" {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// Step is a registered definition. It is never modified after registration.
type Step struct {
	Keyword  step.Keyword
	Pattern  *pattern.Pattern
	Handler  step.Handler
	Location Location
}

// Match is a step definition together with the raw text captured by its
// placeholders.
type Match struct {
	Step *Step
	Raw  []string
}

// Captures converts the raw captures according to the pattern's hints.
func (m Match) Captures() ([]pattern.Capture, error) {
	return m.Step.Pattern.Convert(m.Raw)
}

// AmbiguityPolicy decides what happens when several definitions match a
// step by placeholder.
type AmbiguityPolicy int

const (
	// RejectAmbiguous fails the lookup with an *AmbiguousStepError.
	RejectAmbiguous AmbiguityPolicy = iota
	// FirstRegistered picks the earliest registered match.
	FirstRegistered
	// MostSpecific picks the match with the highest pattern.Specificity and
	// rejects ties.
	MostSpecific
)

func (p AmbiguityPolicy) String() string {
	switch p {
	case RejectAmbiguous:
		return "reject"
	case FirstRegistered:
		return "first"
	case MostSpecific:
		return "specific"
	default:
		return fmt.Sprintf("AmbiguityPolicy(%d)", int(p))
	}
}

// ParsePolicy reads the names produced by AmbiguityPolicy.String.
func ParsePolicy(s string) (AmbiguityPolicy, error) {
	switch s {
	case "", "reject":
		return RejectAmbiguous, nil
	case "first":
		return FirstRegistered, nil
	case "specific":
		return MostSpecific, nil
	default:
		return 0, fmt.Errorf("unknown ambiguity policy %q (want reject, first or specific)", s)
	}
}

type key struct {
	keyword step.Keyword
	text    string
}

// store is shared between a registry and the views returned by WithPolicy.
type store struct {
	mu      sync.RWMutex
	frozen  bool
	byKey   map[key]*Step
	ordered map[step.Keyword][]*Step
	all     []*Step

	usedMu sync.Mutex
	used   map[*Step]struct{}
}

// Registry is safe for concurrent use.
type Registry struct {
	store  *store
	policy AmbiguityPolicy
	logger *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithAmbiguityPolicy sets the policy for placeholder lookups.
func WithAmbiguityPolicy(p AmbiguityPolicy) Option {
	return func(r *Registry) { r.policy = p }
}

// WithLogger sets the logger used for registration and resolution events.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// New returns an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		store: &store{
			byKey:   make(map[key]*Step),
			ordered: make(map[step.Keyword][]*Step),
			used:    make(map[*Step]struct{}),
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// WithPolicy returns a view of r that shares its definitions but resolves
// ambiguity with p.
func (r *Registry) WithPolicy(p AmbiguityPolicy) *Registry {
	return &Registry{store: r.store, policy: p, logger: r.logger}
}

// Policy returns the registry's ambiguity policy.
func (r *Registry) Policy() AmbiguityPolicy { return r.policy }

func (r *Registry) log() *slog.Logger {
	if r.logger != nil {
		return r.logger
	}
	return slog.Default()
}

// Register adds a definition. The keyword must be Given, When or Then and the
// pattern must compile.
func (r *Registry) Register(s *Step) error {
	if s.Pattern == nil {
		return fmt.Errorf("registering %s step at %s: nil pattern", s.Keyword, s.Location)
	}
	if !s.Keyword.Primary() {
		return fmt.Errorf("registering %q: step keyword must be Given, When or Then, got %s", s.Pattern, s.Keyword)
	}
	if s.Handler == nil {
		return fmt.Errorf("registering %s %q: nil handler", s.Keyword, s.Pattern)
	}
	if err := s.Pattern.Compile(); err != nil {
		return fmt.Errorf("registering %s %q at %s: %w", s.Keyword, s.Pattern, s.Location, err)
	}

	st := r.store
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.frozen {
		return fmt.Errorf("registering %s %q at %s: %w", s.Keyword, s.Pattern, s.Location, ErrFrozen)
	}
	k := key{s.Keyword, s.Pattern.String()}
	if existing, ok := st.byKey[k]; ok {
		return &DuplicateStepError{
			Keyword:  s.Keyword,
			Pattern:  k.text,
			New:      s.Location,
			Existing: existing.Location,
		}
	}
	st.byKey[k] = s
	st.ordered[s.Keyword] = append(st.ordered[s.Keyword], s)
	st.all = append(st.all, s)

	r.log().Debug("registered step", "keyword", s.Keyword, "pattern", k.text, "location", s.Location)
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(s *Step) {
	if err := r.Register(s); err != nil {
		panic(err)
	}
}

// Given registers a Given step defined at the caller's location.
func (r *Registry) Given(text string, h step.Handler) error {
	return r.define(step.Given, text, h, callerLocation(1))
}

// When registers a When step defined at the caller's location.
func (r *Registry) When(text string, h step.Handler) error {
	return r.define(step.When, text, h, callerLocation(1))
}

// Then registers a Then step defined at the caller's location.
func (r *Registry) Then(text string, h step.Handler) error {
	return r.define(step.Then, text, h, callerLocation(1))
}

func (r *Registry) define(kw step.Keyword, text string, h step.Handler, loc Location) error {
	return r.Register(&Step{Keyword: kw, Pattern: pattern.New(text), Handler: h, Location: loc})
}

// Freeze makes the registry read-only. Later registrations fail with
// ErrFrozen.
func (r *Registry) Freeze() {
	r.store.mu.Lock()
	r.store.frozen = true
	r.store.mu.Unlock()
}

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return r.store.frozen
}

// Steps returns every definition in registration order.
func (r *Registry) Steps() []*Step {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := make([]*Step, len(r.store.all))
	copy(out, r.store.all)
	return out
}

// Len returns the number of definitions.
func (r *Registry) Len() int {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return len(r.store.all)
}

func callerLocation(depth int) Location {
	_, file, line, ok := runtime.Caller(depth + 1)
	if !ok {
		return Location{}
	}
	return Location{File: file, Line: line}
}
