// Package step defines the contract between the execution engine and step
// handlers: arguments, outcomes, futures and the skip scope.
//
// Every handler is invoked through the Handler interface and returns a
// Future. Synchronous handlers return an already completed future (Ready);
// asynchronous ones start work with Go. The generic adapters in this package
// turn ordinary typed functions into handlers.
package step

import (
	"context"
	"fmt"

	"github.com/chriserin/stepwise/pkg/pattern"
	"github.com/chriserin/stepwise/pkg/stepctx"
)

// Args is what a handler receives besides the context store.
type Args struct {
	Text      string
	DocString *string
	Table     [][]string
	Captures  []pattern.Capture
}

// Execution is the outcome of one handler invocation. A zero Execution is
// a success with no value.
type Execution struct {
	Value   any // offered to the context store when non-nil
	Skipped bool
	Message string // skip message, optional
}

// Success returns a successful outcome carrying v, which may be nil.
func Success(v any) Execution { return Execution{Value: v} }

// Skipped returns an outcome that ends the scenario as skipped.
func Skipped(msg string) Execution { return Execution{Skipped: true, Message: msg} }

// Handler runs one step.
type Handler interface {
	Invoke(ctx context.Context, sc *stepctx.Context, args Args) Future
}

// HandlerFunc adapts a synchronous function to Handler.
type HandlerFunc func(ctx context.Context, sc *stepctx.Context, args Args) (Execution, error)

func (f HandlerFunc) Invoke(ctx context.Context, sc *stepctx.Context, args Args) Future {
	return Ready(f(ctx, sc, args))
}

// AsyncFunc adapts a function that returns its own Future to Handler.
type AsyncFunc func(ctx context.Context, sc *stepctx.Context, args Args) Future

func (f AsyncFunc) Invoke(ctx context.Context, sc *stepctx.Context, args Args) Future {
	return f(ctx, sc, args)
}

// PanicError carries a panic recovered from a handler.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("step panicked: %v", e.Value)
}

// Unwrap exposes the panic value when it is itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
