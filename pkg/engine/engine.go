// Package engine runs scenarios: it resolves each step against a registry,
// converts captured arguments, invokes the handler and interprets what it
// returns. Steps within a scenario run strictly one after another.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chriserin/stepwise/internal/logging"
	"github.com/chriserin/stepwise/pkg/registry"
	"github.com/chriserin/stepwise/pkg/step"
	"github.com/chriserin/stepwise/pkg/stepctx"
)

// AllowSkippedTag exempts a scenario from FailOnSkipped.
const AllowSkippedTag = "@allow_skipped"

// Mode selects how handler futures are awaited.
type Mode int

const (
	// ModeSync blocks on each future through step.BlockOn, bounded by the
	// block timeout.
	ModeSync Mode = iota
	// ModeAsync marks each step's context as an asynchronous execution and
	// awaits the future directly. Handlers may not call step.BlockOn.
	ModeAsync
)

func (m Mode) String() string {
	if m == ModeAsync {
		return "async"
	}
	return "sync"
}

// ParseMode reads "sync" or "async". An empty string means sync.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "sync":
		return ModeSync, nil
	case "async":
		return ModeAsync, nil
	default:
		return 0, fmt.Errorf("unknown execution mode %q (want sync or async)", s)
	}
}

// Engine is safe for concurrent use; each Run owns its own state.
type Engine struct {
	registry      *registry.Registry
	mode          Mode
	failOnSkipped bool
	blockTimeout  time.Duration
	logger        *slog.Logger
	now           func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithMode selects how handler futures are awaited. The default is ModeSync.
func WithMode(m Mode) Option { return func(e *Engine) { e.mode = m } }

// WithFailOnSkipped turns skipped scenarios into failures unless they carry
// AllowSkippedTag.
func WithFailOnSkipped(v bool) Option { return func(e *Engine) { e.failOnSkipped = v } }

// WithBlockTimeout bounds step.BlockOn in ModeSync. Zero means no bound.
func WithBlockTimeout(d time.Duration) Option { return func(e *Engine) { e.blockTimeout = d } }

// WithLogger overrides the logger otherwise taken from the run context.
func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.logger = l } }

// New returns an engine resolving steps against reg.
func New(reg *registry.Registry, opts ...Option) *Engine {
	e := &Engine{registry: reg, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the registry the engine resolves against.
func (e *Engine) Registry() *registry.Registry { return e.registry }

func (e *Engine) log(ctx context.Context) *slog.Logger {
	if e.logger != nil {
		return e.logger
	}
	return logging.FromContext(ctx)
}

// Run executes sc against store. It never returns an error: lookup,
// conversion and handler failures end the scenario as Failed, and a skip
// ends it as Skipped.
func (e *Engine) Run(ctx context.Context, sc *Scenario, store *stepctx.Context) Result {
	logger := e.log(ctx).With("scenario", sc.Name, "id", sc.ID())
	res := Result{Scenario: sc, Status: Passed, Started: e.now()}
	res.Steps = make([]StepResult, 0, len(sc.Steps))

	var prev step.Keyword
	for i := range sc.Steps {
		rec := &sc.Steps[i]
		start := e.now()
		out := e.runStep(ctx, sc, i, rec, &prev, store)
		res.Steps = append(res.Steps, StepResult{
			Keyword:  rec.Keyword,
			Text:     rec.Text,
			Line:     rec.Line,
			Pattern:  out.pattern,
			Status:   out.status,
			Duration: e.now().Sub(start),
		})

		if out.status == Passed {
			continue
		}
		res.Status = out.status
		res.Message = out.message
		res.Failure = out.failure
		for _, rest := range sc.Steps[i+1:] {
			res.Steps = append(res.Steps, StepResult{Keyword: rest.Keyword, Text: rest.Text, Line: rest.Line, Status: Skipped})
		}
		break
	}

	if res.Status == Skipped && e.failOnSkipped && !sc.TagSet().Has(AllowSkippedTag) {
		idx := skippedIndex(res.Steps)
		rec := sc.Steps[idx]
		res.Status = Failed
		res.Failure = &StepError{
			Index:       idx,
			Keyword:     rec.Keyword,
			Text:        rec.Text,
			Line:        rec.Line,
			Pattern:     res.Steps[idx].Pattern,
			FeaturePath: sc.FeaturePath,
			Scenario:    sc.Name,
			Err:         &SkippedError{Scenario: sc.Name, Message: res.Message},
		}
	}
	res.Duration = e.now().Sub(res.Started)

	switch res.Status {
	case Passed:
		logger.Info("scenario passed", "steps", len(sc.Steps), "duration", res.Duration)
	case Skipped:
		logger.Info("scenario skipped", "message", res.Message)
	case Failed:
		logger.Warn("scenario failed", "error", res.Failure)
	}
	return res
}

// skippedIndex returns the index of the step that skipped the scenario, the
// first one recorded as skipped.
func skippedIndex(steps []StepResult) int {
	for i, s := range steps {
		if s.Status == Skipped {
			return i
		}
	}
	return len(steps) - 1
}

type stepOutcome struct {
	status  Status
	pattern string
	message string
	failure *StepError
}

func (e *Engine) runStep(ctx context.Context, sc *Scenario, i int, rec *StepRecord, prev *step.Keyword, store *stepctx.Context) stepOutcome {
	fail := func(pattern string, err error) stepOutcome {
		return stepOutcome{
			status:  Failed,
			pattern: pattern,
			failure: &StepError{
				Index:       i,
				Keyword:     rec.Keyword,
				Text:        rec.Text,
				Line:        rec.Line,
				Pattern:     pattern,
				FeaturePath: sc.FeaturePath,
				Scenario:    sc.Name,
				Err:         err,
			},
		}
	}

	if err := ctx.Err(); err != nil {
		return fail("", err)
	}

	kw, err := step.ParseKeyword(rec.Keyword)
	if err != nil {
		return fail("", err)
	}
	kw = kw.Resolve(*prev)
	*prev = kw

	m, err := e.registry.Resolve(kw, rec.Text)
	if err != nil {
		return fail("", err)
	}
	pattern := m.Step.Pattern.String()

	captures, err := m.Captures()
	if err != nil {
		return fail(pattern, err)
	}

	args := step.Args{Text: rec.Text, DocString: rec.DocString, Table: rec.Table, Captures: captures}
	exec, err := e.invoke(ctx, m.Step.Handler, store, args)
	if err != nil {
		if msg, ok := step.IsSkip(err); ok {
			return stepOutcome{status: Skipped, pattern: pattern, message: msg}
		}
		return fail(pattern, err)
	}
	if exec.Skipped {
		return stepOutcome{status: Skipped, pattern: pattern, message: exec.Message}
	}
	if exec.Value != nil {
		kept := store.Override(exec.Value)
		e.log(ctx).Debug("step returned a value", "step", rec.Text, "type", fmt.Sprintf("%T", exec.Value), "kept", kept)
	}
	return stepOutcome{status: Passed, pattern: pattern}
}

// invoke runs one handler on its own goroutine, inside a skip scope owned
// by that goroutine, and waits for its future. Panics become
// *step.PanicError and a runtime.Goexit becomes step.ErrExited.
func (e *Engine) invoke(ctx context.Context, h step.Handler, store *stepctx.Context, args step.Args) (step.Execution, error) {
	run := step.Go(ctx, func(ctx context.Context) (step.Execution, error) {
		sctx, scope := step.Enter(ctx)
		defer scope.Close()
		if e.mode == ModeAsync {
			sctx = step.WithAsync(sctx)
		}

		fut := h.Invoke(sctx, store, args)
		if fut == nil {
			return step.Execution{}, nil
		}
		if e.mode == ModeAsync {
			return fut.Await(sctx)
		}
		return step.BlockOn(sctx, fut, e.blockTimeout)
	})
	// The handler owns the store until it returns.
	return run.Await(context.WithoutCancel(ctx))
}
