// Package interpreter evaluates expressions by walking the tree on every call.
//
// It is the baseline strategy: no compile step beyond binding callers, no compiled
// artifacts, and every deferred value is awaited where it appears.
package interpreter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/robbyt/go-polyexpr/platform"
	"github.com/robbyt/go-polyexpr/platform/ast"
	"github.com/robbyt/go-polyexpr/platform/binding"
	"github.com/robbyt/go-polyexpr/platform/env"
	"github.com/robbyt/go-polyexpr/platform/future"
	"github.com/robbyt/go-polyexpr/platform/registry"
	"github.com/robbyt/go-polyexpr/platform/types"
)

// Interpreter holds one bound caller per registered function.
type Interpreter[E any] struct {
	callers binding.Callers[E]
	logger  *slog.Logger
}

// New binds every function in reg against schema.
func New[E any](
	reg *registry.Registry,
	schema env.Schema[E],
	opts ...FunctionalOption,
) (*Interpreter[E], error) {
	if reg == nil {
		return nil, ErrNilRegistry
	}

	o := &options{}
	o.applyDefaults()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, fmt.Errorf("failed to apply interpreter option: %w", err)
		}
	}
	if err := o.validate(); err != nil {
		return nil, err
	}
	o.setupLogger()

	callers, err := binding.BindAll(reg, schema)
	if err != nil {
		return nil, err
	}
	return &Interpreter[E]{callers: callers, logger: o.logger}, nil
}

func (in *Interpreter[E]) String() string {
	return "interpreter.Interpreter"
}

// Compile wraps n in a Program. Nothing is validated up front: an unknown function is
// reported by Eval.
func (in *Interpreter[E]) Compile(n ast.Node) (*Program[E], error) {
	if n == nil {
		return nil, ast.ErrNilNode
	}
	in.logger.Debug("expression ready", "node", ast.Format(n))
	return &Program[E]{node: n, callers: in.callers}, nil
}

// Program is an expression evaluated by tree walking.
type Program[E any] struct {
	node    ast.Node
	callers binding.Callers[E]
}

var _ platform.Program[struct{}] = (*Program[struct{}])(nil)

// Node returns the expression tree.
func (p *Program[E]) Node() ast.Node { return p.node }

// Eval walks the tree and returns the string form of its value.
func (p *Program[E]) Eval(ctx context.Context, e E) (string, error) {
	f := &frame[E]{ctx: ctx, env: e}
	out := ast.Visit[*frame[E], outcome](p.node, walker[E]{callers: p.callers}, f)
	if out.err != nil {
		return "", out.err
	}
	return types.Format(out.val), nil
}

// EvalAsync runs Eval on its own goroutine.
func (p *Program[E]) EvalAsync(ctx context.Context, e E) *future.Future {
	return future.Go(func() (any, error) {
		return p.Eval(ctx, e)
	})
}

type frame[E any] struct {
	ctx context.Context
	env E
}

type outcome struct {
	val any
	err error
}

type walker[E any] struct {
	callers binding.Callers[E]
}

func (w walker[E]) VisitCall(n *ast.Call, f *frame[E]) outcome {
	c, ok := w.callers[n.Identifier()]
	if !ok {
		return outcome{err: fmt.Errorf("%w: %q", ErrUnknownFunction, n.Identifier())}
	}

	args := make([]any, n.NumArgs())
	for i := range n.NumArgs() {
		out := ast.Visit[*frame[E], outcome](n.Arg(i), w, f)
		if out.err != nil {
			return out
		}
		v, err := future.Resolve(f.ctx, out.val)
		if err != nil {
			return outcome{err: err}
		}
		args[i] = v
	}

	v, err := c.Call(f.ctx, f.env, args)
	if err != nil {
		return outcome{err: err}
	}
	v, err = future.Resolve(f.ctx, v)
	return outcome{val: v, err: err}
}

func (w walker[E]) VisitInterpolation(n *ast.Interpolation, f *frame[E]) outcome {
	if n.NumSegments() == 1 {
		out := ast.Visit[*frame[E], outcome](n.Segment(0), w, f)
		if out.err != nil {
			return out
		}
		return outcome{val: types.Format(out.val)}
	}

	var b strings.Builder
	for i := range n.NumSegments() {
		out := ast.Visit[*frame[E], outcome](n.Segment(i), w, f)
		if out.err != nil {
			return out
		}
		b.WriteString(types.Format(out.val))
	}
	return outcome{val: b.String()}
}

func (w walker[E]) VisitString(n *ast.StringLiteral, _ *frame[E]) outcome {
	return outcome{val: n.Value()}
}

func (w walker[E]) VisitNumber(n *ast.NumericLiteral, _ *frame[E]) outcome {
	return outcome{val: n.Value()}
}
