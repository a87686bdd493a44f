package step

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
)

// Scope is the execution scope of one running step. The engine enters a
// scope before invoking a handler and closes it once the handler's future
// has completed. Skip is only legal inside an active scope, on the goroutine
// that entered it.
type Scope struct {
	owner  uint64
	active atomic.Bool
}

type scopeKey struct{}

// Enter opens a scope owned by the calling goroutine and returns a context
// carrying it.
func Enter(ctx context.Context) (context.Context, *Scope) {
	s := &Scope{owner: goid()}
	s.active.Store(true)
	return context.WithValue(ctx, scopeKey{}, s), s
}

// Close deactivates the scope. Skip calls made with its context afterwards
// panic.
func (s *Scope) Close() { s.active.Store(false) }

// Active reports whether the scope is still open.
func (s *Scope) Active() bool { return s.active.Load() }

func scopeFrom(ctx context.Context) *Scope {
	s, _ := ctx.Value(scopeKey{}).(*Scope)
	return s
}

// SkipError is the signal a handler returns to end its scenario as skipped.
type SkipError struct {
	Message string
}

func (e *SkipError) Error() string {
	if e.Message == "" {
		return "step skipped"
	}
	return "step skipped: " + e.Message
}

// ScopeError reports a Skip call made from a goroutine other than the one
// running the step.
type ScopeError struct {
	Owner  uint64
	Caller uint64
}

func (e *ScopeError) Error() string {
	return fmt.Sprintf("step: skip called from goroutine %d, but the step runs on goroutine %d", e.Caller, e.Owner)
}

// Skip returns the error a handler must return to skip the rest of its
// scenario:
//
//	return step.Skip(ctx, "not supported on this platform")
//
// Calling Skip without an active scope is a programmer error and panics.
// Calling it from a goroutine other than the step's returns a *ScopeError,
// which fails the step if returned.
func Skip(ctx context.Context, msg string) error {
	s := scopeFrom(ctx)
	if s == nil || !s.Active() {
		panic("step: Skip called outside an active step scope")
	}
	if id := goid(); id != s.owner {
		return &ScopeError{Owner: s.owner, Caller: id}
	}
	return &SkipError{Message: msg}
}

// IsSkip reports whether err is a skip signal and returns its message.
func IsSkip(err error) (string, bool) {
	var skip *SkipError
	if errors.As(err, &skip) {
		return skip.Message, true
	}
	return "", false
}

var goroutinePrefix = []byte("goroutine ")

// goid returns the id of the calling goroutine, read from the header line of
// its stack trace ("goroutine 18 [running]:").
func goid() uint64 {
	var buf [64]byte
	b := buf[:runtime.Stack(buf[:], false)]
	b = bytes.TrimPrefix(b, goroutinePrefix)
	if i := bytes.IndexByte(b, ' '); i > 0 {
		b = b[:i]
	}
	id, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		panic(fmt.Sprintf("step: cannot read goroutine id: %v", err))
	}
	return id
}
