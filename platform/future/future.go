// Package future implements deferred values: results of asynchronous function calls
// that must be awaited before use.
//
// A Future can be consumed two ways. Await blocks the calling goroutine, which is how
// the interpreter and the starlark engine suspend. Then, ThenAwait and Combine attach
// continuations without blocking, which is how the graph engine builds its continuation
// structure. Continuations run on the goroutine that completes the future, or
// immediately on the caller's goroutine if the future is already complete.
package future

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrNilDeferred is returned when a continuation receives a nil deferred value.
	ErrNilDeferred = errors.New("deferred value is nil")

	// ErrPanicked wraps a panic recovered from a deferred function or a continuation.
	ErrPanicked = errors.New("deferred function panicked")
)

// Deferred is a value that may not be available yet.
type Deferred interface {
	// Await blocks until the value is available or ctx is done.
	Await(ctx context.Context) (any, error)

	// OnComplete registers fn to run exactly once with the outcome.
	OnComplete(fn func(v any, err error))
}

// Future is the Deferred implementation used throughout the module.
// The zero value is not usable; create one with New, Go, Resolved or Failed.
type Future struct {
	mu        sync.Mutex
	done      chan struct{}
	completed bool
	val       any
	err       error
	callbacks []func(any, error)
}

// New returns a pending future and the function that completes it. Only the first call
// to complete has an effect.
func New() (*Future, func(v any, err error)) {
	f := &Future{done: make(chan struct{})}
	return f, f.complete
}

// Go runs fn on a new goroutine and returns its future. A panic in fn completes the
// future with ErrPanicked.
func Go(fn func() (any, error)) *Future {
	f, complete := New()
	go func() {
		complete(protect(fn))
	}()
	return f
}

// protect calls fn and turns a panic into an ErrPanicked error. Only fn is covered:
// callbacks run by complete are protected where they are registered.
func protect[T any](fn func() (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			v, err = zero, fmt.Errorf("%w: %v", ErrPanicked, r)
		}
	}()
	return fn()
}

// Resolved returns a completed future holding v.
func Resolved(v any) *Future {
	f, complete := New()
	complete(v, nil)
	return f
}

// Failed returns a completed future holding err.
func Failed(err error) *Future {
	f, complete := New()
	complete(nil, err)
	return f
}

func (f *Future) complete(v any, err error) {
	f.mu.Lock()
	if f.completed {
		f.mu.Unlock()
		return
	}
	f.completed = true
	f.val, f.err = v, err
	callbacks := f.callbacks
	f.callbacks = nil
	close(f.done)
	f.mu.Unlock()

	for _, fn := range callbacks {
		fn(v, err)
	}
}

// Await implements Deferred.
func (f *Future) Await(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.val, f.err
	default:
	}
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// OnComplete implements Deferred.
func (f *Future) OnComplete(fn func(v any, err error)) {
	f.mu.Lock()
	if !f.completed {
		f.callbacks = append(f.callbacks, fn)
		f.mu.Unlock()
		return
	}
	v, err := f.val, f.err
	f.mu.Unlock()
	fn(v, err)
}

// Done reports whether the future is complete.
func (f *Future) Done() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Is reports whether v is a deferred value.
func Is(v any) bool {
	_, ok := v.(Deferred)
	return ok
}

// Resolve awaits v if it is deferred and returns it unchanged otherwise.
func Resolve(ctx context.Context, v any) (any, error) {
	if d, ok := v.(Deferred); ok {
		return d.Await(ctx)
	}
	return v, nil
}
