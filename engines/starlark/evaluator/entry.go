// Package evaluator runs the entry points of a compiled Starlark unit.
package evaluator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/robbyt/go-polyexpr/engines/starlark/internal"
	"github.com/robbyt/go-polyexpr/internal/helpers"
	"github.com/robbyt/go-polyexpr/platform"
	"github.com/robbyt/go-polyexpr/platform/future"
	"github.com/robbyt/go-polyexpr/platform/types"
	starlarkLib "go.starlark.net/starlark"
)

// Entry is one compiled expression: a Starlark function taking the env. Entries share
// the frozen globals of their unit and are safe for concurrent use.
type Entry[E any] struct {
	name   string
	fn     starlarkLib.Callable
	logger *slog.Logger
}

var _ platform.Program[struct{}] = (*Entry[struct{}])(nil)

// NewEntry wraps fn, which must accept the env as its only argument.
func NewEntry[E any](handler slog.Handler, name string, fn starlarkLib.Callable) (*Entry[E], error) {
	if fn == nil {
		return nil, fmt.Errorf("entry point %q is missing", name)
	}
	_, logger := helpers.SetupLogger(handler, "starlark", "Entry")
	return &Entry[E]{
		name:   name,
		fn:     fn,
		logger: logger.With("entry", name),
	}, nil
}

// Name is the name the expression was compiled under.
func (en *Entry[E]) Name() string { return en.name }

func (en *Entry[E]) String() string {
	return "starlark.Entry(" + en.name + ")"
}

// Eval calls the entry point and returns the string result. A deferred result, which
// is what an expression consisting of one async call produces, is awaited here.
func (en *Entry[E]) Eval(ctx context.Context, e E) (string, error) {
	v, err := en.exec(ctx, e)
	if err != nil {
		return "", err
	}

	out, err := internal.FromStarlark(v)
	if err != nil {
		return "", err
	}
	if d, ok := out.(future.Deferred); ok {
		out, err = d.Await(ctx)
		if err != nil {
			return "", err
		}
	}
	return types.Format(out), nil
}

// EvalAsync runs Eval on its own goroutine.
func (en *Entry[E]) EvalAsync(ctx context.Context, e E) *future.Future {
	return future.Go(func() (any, error) {
		return en.Eval(ctx, e)
	})
}

func (en *Entry[E]) exec(ctx context.Context, e E) (starlarkLib.Value, error) {
	thread := &starlarkLib.Thread{
		Name: en.name,
		Print: func(thread *starlarkLib.Thread, msg string) {
			en.logger.InfoContext(ctx, msg, "starlark-thread", thread.Name)
		},
	}
	internal.SetContext(thread, ctx)
	stop := context.AfterFunc(ctx, func() {
		thread.Cancel(ctx.Err().Error())
	})
	defer stop()

	v, err := starlarkLib.Call(thread, en.fn, starlarkLib.Tuple{&internal.GoValue{V: e}}, nil)
	if err != nil {
		return nil, unwrapEvalError(ctx, err)
	}
	return v, nil
}

// unwrapEvalError returns the error a builtin failed with, so that function errors
// reach the caller unchanged. A cancelled thread reports the context error.
func unwrapEvalError(ctx context.Context, err error) error {
	var evalErr *starlarkLib.EvalError
	if !errors.As(err, &evalErr) {
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if cause := errors.Unwrap(evalErr); cause != nil {
		return cause
	}
	return err
}
