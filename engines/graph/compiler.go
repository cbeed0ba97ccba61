// Package graph compiles an expression once into a computation graph that can be
// evaluated many times without walking the tree again.
//
// Graph nodes never block. A call with deferred arguments is compiled into an explicit
// continuation structure: its non-constant arguments are merged pairwise into a single
// deferred aggregate, one continuation recovers each argument through its access path
// and invokes the function, and a second wait is attached only when the function itself
// returns a deferred value.
package graph

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/robbyt/go-polyexpr/platform/ast"
	"github.com/robbyt/go-polyexpr/platform/binding"
	"github.com/robbyt/go-polyexpr/platform/env"
	"github.com/robbyt/go-polyexpr/platform/registry"
	"github.com/robbyt/go-polyexpr/platform/types"
)

// Compiler builds graph programs for one registry and env schema.
type Compiler[E any] struct {
	callers binding.Callers[E]
	logger  *slog.Logger
}

// New binds every function in reg against schema.
func New[E any](
	reg *registry.Registry,
	schema env.Schema[E],
	opts ...FunctionalOption,
) (*Compiler[E], error) {
	if reg == nil {
		return nil, ErrNilRegistry
	}

	o := &options{}
	o.applyDefaults()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, fmt.Errorf("failed to apply graph option: %w", err)
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
	return &Compiler[E]{callers: callers, logger: o.logger}, nil
}

func (c *Compiler[E]) String() string {
	return "graph.Compiler"
}

// Compile builds and finalizes the graph for n. Unknown functions and argument counts
// that do not fit a function are compile errors; all of them are reported together.
func (c *Compiler[E]) Compile(n ast.Node) (*Program[E], error) {
	logger := c.logger.WithGroup("Compile")
	if n == nil {
		return nil, ast.ErrNilNode
	}

	s := &scope[E]{callers: c.callers}
	root := s.stringify(ast.Visit[*scope[E], fragment[E]](n, builder[E]{}, s))
	if len(s.errs) > 0 {
		err := fmt.Errorf("%w: %w", ErrCompileFailed, errors.Join(s.errs...))
		logger.Warn("graph compilation failed", "node", ast.Format(n), "error", err)
		return nil, err
	}

	s.stats.Lambdas = finalize(root.node)
	p := &Program[E]{
		node:   n,
		run:    root.node.compile(),
		slots:  s.slots,
		stats:  s.stats,
		logger: c.logger.WithGroup("Program"),
	}
	logger.Debug("graph compiled",
		"node", ast.Format(n),
		"lambdas", p.stats.Lambdas,
		"combines", p.stats.Combines,
		"rounds", p.stats.Rounds,
	)
	return p, nil
}

// fragment is a compiled subtree with its static type.
type fragment[E any] struct {
	node     node[E]
	typ      types.Type
	constant bool
}

func (f fragment[E]) async() bool { return f.node.async() }

// scope is the compile-time state of one expression.
type scope[E any] struct {
	callers binding.Callers[E]
	slots   int
	stats   Stats
	errs    []error
}

func (s *scope[E]) newSlot() int {
	s.slots++
	return s.slots - 1
}

func (s *scope[E]) fail(err error) fragment[E] {
	s.errs = append(s.errs, err)
	return fragment[E]{node: &constNode[E]{}, typ: types.Untyped}
}

// apply builds the node that consumes operands. With only synchronous operands build
// receives them directly. Otherwise constants stay out of band, every other operand is
// merged into one deferred aggregate, and build receives projections out of a single
// continuation's argument.
func (s *scope[E]) apply(operands []fragment[E], build func(parts []node[E]) node[E]) node[E] {
	parts := make([]node[E], len(operands))
	anyAsync := false
	for i, op := range operands {
		parts[i] = op.node
		anyAsync = anyAsync || op.async()
	}
	if !anyAsync {
		return build(parts)
	}

	var (
		pending []node[E]
		indexes []int
	)
	for i, op := range operands {
		switch {
		case op.constant:
			continue
		case op.async():
			pending = append(pending, op.node)
		default:
			pending = append(pending, &immediateNode[E]{src: op.node})
		}
		indexes = append(indexes, i)
	}

	r := reduce(pending, func(a, b node[E]) node[E] {
		return &combineNode[E]{first: a, second: &lambda[E]{slot: noSlot, body: b}}
	})
	s.stats.Rounds += r.rounds
	s.stats.Combines += r.combines

	slot := s.newSlot()
	for j, i := range indexes {
		parts[i] = project[E](&localNode[E]{slot: slot}, r.paths[j])
	}

	body := build(parts)
	return &thenNode[E]{
		src:         r.root,
		k:           &lambda[E]{slot: slot, body: body},
		awaitResult: body.async(),
	}
}

// stringify returns f unchanged when it already produces a string, now or later, and
// formats it otherwise.
func (s *scope[E]) stringify(f fragment[E]) fragment[E] {
	if f.typ.Unwrap() == types.StringType {
		return f
	}
	n := s.apply([]fragment[E]{f}, func(parts []node[E]) node[E] {
		return &concatNode[E]{parts: parts}
	})
	if n.async() {
		return fragment[E]{node: n, typ: types.DeferredOf(types.StringType)}
	}
	return fragment[E]{node: n, typ: types.StringType}
}

// builder compiles tree nodes into fragments.
type builder[E any] struct{}

func (b builder[E]) VisitCall(n *ast.Call, s *scope[E]) fragment[E] {
	operands := make([]fragment[E], n.NumArgs())
	for i := range n.NumArgs() {
		operands[i] = ast.Visit[*scope[E], fragment[E]](n.Arg(i), b, s)
	}

	c, ok := s.callers[n.Identifier()]
	if !ok {
		return s.fail(fmt.Errorf("%w: %q at %s", ErrUnknownFunction, n.Identifier(), n.Span()))
	}
	if err := c.CheckArity(n.NumArgs()); err != nil {
		return s.fail(fmt.Errorf("%w at %s", err, n.Span()))
	}

	out := s.apply(operands, func(parts []node[E]) node[E] {
		return &invokeNode[E]{caller: c, args: parts}
	})
	return fragment[E]{node: out, typ: c.Descriptor().Result()}
}

func (b builder[E]) VisitInterpolation(n *ast.Interpolation, s *scope[E]) fragment[E] {
	segments := make([]fragment[E], n.NumSegments())
	for i := range n.NumSegments() {
		segments[i] = ast.Visit[*scope[E], fragment[E]](n.Segment(i), b, s)
	}
	if len(segments) == 1 {
		return s.stringify(segments[0])
	}

	out := s.apply(segments, func(parts []node[E]) node[E] {
		return &concatNode[E]{parts: parts}
	})
	if out.async() {
		return fragment[E]{node: out, typ: types.DeferredOf(types.StringType)}
	}
	return fragment[E]{node: out, typ: types.StringType}
}

func (b builder[E]) VisitString(n *ast.StringLiteral, _ *scope[E]) fragment[E] {
	return fragment[E]{node: &constNode[E]{val: n.Value()}, typ: types.StringType, constant: true}
}

func (b builder[E]) VisitNumber(n *ast.NumericLiteral, _ *scope[E]) fragment[E] {
	return fragment[E]{node: &constNode[E]{val: n.Value()}, typ: types.IntType, constant: true}
}
