package graph

import (
	"context"
	"log/slog"

	"github.com/robbyt/go-polyexpr/platform"
	"github.com/robbyt/go-polyexpr/platform/ast"
	"github.com/robbyt/go-polyexpr/platform/future"
	"github.com/robbyt/go-polyexpr/platform/types"
)

// Stats describes the shape of a compiled graph.
type Stats struct {
	// Lambdas is the number of continuation blocks finalized.
	Lambdas int
	// Combines is the number of pairwise combinations over all calls.
	Combines int
	// Rounds is the number of reduction rounds over all calls.
	Rounds int
}

// Program is a finalized computation graph. It is immutable and safe for concurrent use.
type Program[E any] struct {
	node   ast.Node
	run    evalFn[E]
	slots  int
	stats  Stats
	logger *slog.Logger
}

var _ platform.Program[struct{}] = (*Program[struct{}])(nil)

// Node returns the expression the graph was built from.
func (p *Program[E]) Node() ast.Node { return p.node }

func (p *Program[E]) Stats() Stats { return p.stats }

// Eval evaluates the graph and waits for the result.
func (p *Program[E]) Eval(ctx context.Context, e E) (string, error) {
	return platform.Await[E](ctx, p, e)
}

// EvalAsync starts the evaluation. A graph without deferred values completes before
// EvalAsync returns.
func (p *Program[E]) EvalAsync(ctx context.Context, e E) *future.Future {
	f := &frame[E]{ctx: ctx, env: e}
	if p.slots > 0 {
		f.locals = make([]any, p.slots)
	}

	v, err := p.run(f)
	if err != nil {
		p.logger.DebugContext(ctx, "evaluation failed", "error", err)
		return future.Failed(err)
	}
	d, ok := v.(future.Deferred)
	if !ok {
		return future.Resolved(types.Format(v))
	}
	return future.Then(d, func(v any) (any, error) {
		return types.Format(v), nil
	})
}
