package step

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"
)

// ErrNestedBlocking is returned by BlockOn when it is called from inside an
// active asynchronous execution.
var ErrNestedBlocking = errors.New("step: cannot block on a future inside an asynchronous execution")

// ErrExited reports a computation whose goroutine ended without returning,
// as runtime.Goexit (and so t.FailNow) does.
var ErrExited = errors.New("step: computation exited without returning")

// Future is a step computation that may still be running. Await blocks until
// the computation finishes or ctx is done. Calling Await more than once
// returns the same outcome.
type Future interface {
	Await(ctx context.Context) (Execution, error)
}

type readyFuture struct {
	exec Execution
	err  error
}

func (f readyFuture) Await(context.Context) (Execution, error) { return f.exec, f.err }

// Ready returns an already completed future.
func Ready(exec Execution, err error) Future {
	return readyFuture{exec: exec, err: err}
}

type goFuture struct {
	done chan struct{}
	exec Execution
	err  error
}

func (f *goFuture) Await(ctx context.Context) (Execution, error) {
	select {
	case <-f.done:
		return f.exec, f.err
	case <-ctx.Done():
		return Execution{}, ctx.Err()
	}
}

// Go runs fn on a new goroutine and returns its future. A panic in fn is
// reported as a *PanicError and a runtime.Goexit as ErrExited. fn runs in
// its own skip scope, so it may call Skip with the context it is given.
func Go(ctx context.Context, fn func(ctx context.Context) (Execution, error)) Future {
	f := &goFuture{done: make(chan struct{})}
	go func() {
		finished := false
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				f.exec, f.err = Execution{}, &PanicError{Value: r, Stack: debug.Stack()}
			} else if !finished {
				f.exec, f.err = Execution{}, ErrExited
			}
		}()
		if parent := scopeFrom(ctx); parent != nil && parent.Active() {
			var scope *Scope
			ctx, scope = Enter(ctx)
			defer scope.Close()
		}
		f.exec, f.err = fn(ctx)
		finished = true
	}()
	return f
}

type asyncKey struct{}

// WithAsync marks ctx as an active asynchronous execution.
func WithAsync(ctx context.Context) context.Context {
	return context.WithValue(ctx, asyncKey{}, true)
}

// InAsync reports whether ctx belongs to an active asynchronous execution.
func InAsync(ctx context.Context) bool {
	v, _ := ctx.Value(asyncKey{}).(bool)
	return v
}

// BlockOn waits for fut from synchronous code. A positive bound limits the
// wait. It refuses with ErrNestedBlocking when ctx is inside an asynchronous
// execution.
func BlockOn(ctx context.Context, fut Future, bound time.Duration) (Execution, error) {
	if InAsync(ctx) {
		return Execution{}, ErrNestedBlocking
	}
	if bound > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, bound)
		defer cancel()
	}
	exec, err := fut.Await(ctx)
	if bound > 0 && errors.Is(err, context.DeadlineExceeded) {
		return exec, fmt.Errorf("blocking on step future after %s: %w", bound, err)
	}
	return exec, err
}
