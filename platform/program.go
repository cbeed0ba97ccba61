package platform

import (
	"context"

	"github.com/robbyt/go-polyexpr/platform/future"
)

// Program is a compiled expression. All evaluation strategies produce one.
//
// A Program is built once and may be evaluated many times, concurrently, each time
// against its own env value. Errors returned by registered functions reach the caller
// without being wrapped by the evaluator.
type Program[E any] interface {
	// Eval evaluates the expression and waits for its string result.
	Eval(ctx context.Context, env E) (string, error)

	// EvalAsync starts the evaluation and returns a deferred string.
	EvalAsync(ctx context.Context, env E) *future.Future
}

// Await is the common Eval implementation over EvalAsync.
func Await[E any](ctx context.Context, p Program[E], env E) (string, error) {
	v, err := p.EvalAsync(ctx, env).Await(ctx)
	if err != nil {
		return "", err
	}
	s, _ := v.(string)
	return s, nil
}
