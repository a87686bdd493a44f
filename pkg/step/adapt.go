package step

import (
	"context"
	"fmt"

	"github.com/chriserin/stepwise/pkg/stepctx"
)

// ArgumentError reports a capture that does not fit the parameter of a typed
// adapter.
type ArgumentError struct {
	Index int
	Want  string
	Got   any
}

func (e *ArgumentError) Error() string {
	if e.Got == nil {
		return fmt.Sprintf("step argument %d: missing, want %s", e.Index, e.Want)
	}
	return fmt.Sprintf("step argument %d: got %T, want %s", e.Index, e.Got, e.Want)
}

// Func adapts a handler that needs no captured values.
func Func(fn func(ctx context.Context, sc *stepctx.Context, args Args) error) Handler {
	return HandlerFunc(func(ctx context.Context, sc *stepctx.Context, args Args) (Execution, error) {
		return Execution{}, fn(ctx, sc, args)
	})
}

// Func1 adapts a handler taking one captured value.
func Func1[A any](fn func(ctx context.Context, sc *stepctx.Context, a A) error) Handler {
	return HandlerFunc(func(ctx context.Context, sc *stepctx.Context, args Args) (Execution, error) {
		a, err := arg[A](args, 0)
		if err != nil {
			return Execution{}, err
		}
		return Execution{}, fn(ctx, sc, a)
	})
}

// Func2 adapts a handler taking two captured values.
func Func2[A, B any](fn func(ctx context.Context, sc *stepctx.Context, a A, b B) error) Handler {
	return HandlerFunc(func(ctx context.Context, sc *stepctx.Context, args Args) (Execution, error) {
		a, err := arg[A](args, 0)
		if err != nil {
			return Execution{}, err
		}
		b, err := arg[B](args, 1)
		if err != nil {
			return Execution{}, err
		}
		return Execution{}, fn(ctx, sc, a, b)
	})
}

// Func3 adapts a handler taking three captured values.
func Func3[A, B, C any](fn func(ctx context.Context, sc *stepctx.Context, a A, b B, c C) error) Handler {
	return HandlerFunc(func(ctx context.Context, sc *stepctx.Context, args Args) (Execution, error) {
		a, err := arg[A](args, 0)
		if err != nil {
			return Execution{}, err
		}
		b, err := arg[B](args, 1)
		if err != nil {
			return Execution{}, err
		}
		c, err := arg[C](args, 2)
		if err != nil {
			return Execution{}, err
		}
		return Execution{}, fn(ctx, sc, a, b, c)
	})
}

// Returning adapts a handler whose result is offered to the context store,
// replacing the single fixture of the same type.
func Returning[R any](fn func(ctx context.Context, sc *stepctx.Context, args Args) (R, error)) Handler {
	return HandlerFunc(func(ctx context.Context, sc *stepctx.Context, args Args) (Execution, error) {
		v, err := fn(ctx, sc, args)
		if err != nil {
			return Execution{}, err
		}
		return Success(v), nil
	})
}

// arg returns capture i as an A. A string parameter accepts the raw text of
// any capture.
func arg[A any](args Args, i int) (A, error) {
	var out A
	if i >= len(args.Captures) {
		return out, &ArgumentError{Index: i, Want: fmt.Sprintf("%T", out)}
	}
	c := args.Captures[i]
	if v, ok := c.Value.(A); ok {
		return v, nil
	}
	if s, ok := any(&out).(*string); ok {
		*s = c.Raw
		return out, nil
	}
	return out, &ArgumentError{Index: i, Want: fmt.Sprintf("%T", out), Got: c.Value}
}
