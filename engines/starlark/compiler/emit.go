package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/robbyt/go-polyexpr/engines/starlark/internal"
	"github.com/robbyt/go-polyexpr/platform/ast"
	"github.com/robbyt/go-polyexpr/platform/binding"
	"github.com/robbyt/go-polyexpr/platform/constants"
	"github.com/robbyt/go-polyexpr/platform/types"
	"go.starlark.net/syntax"
)

const (
	defaultFilename = "polyexpr.star"
	envParam        = constants.EnvParam
	exprPrefix      = "expr_"
	fnPrefix        = "fn_"
)

// code is an emitted Starlark expression and the static type of its value.
type code struct {
	src string
	typ types.Type
}

// emitter accumulates the Starlark source of one unit.
type emitter[E any] struct {
	callers binding.Callers[E]

	// fields holds the functions used by the unit in order of first use; the
	// function at index j is predeclared as fn_j.
	fields  []*binding.Caller[E]
	indexes map[string]int

	errs []error
	buf  strings.Builder
}

func newEmitter[E any](callers binding.Callers[E]) *emitter[E] {
	return &emitter[E]{callers: callers, indexes: make(map[string]int)}
}

func exprName(i int) string { return exprPrefix + strconv.Itoa(i) }

func fieldName(j int) string { return fnPrefix + strconv.Itoa(j) }

func (em *emitter[E]) field(c *binding.Caller[E]) string {
	j, ok := em.indexes[c.Name()]
	if !ok {
		j = len(em.fields)
		em.indexes[c.Name()] = j
		em.fields = append(em.fields, c)
	}
	return fieldName(j)
}

// def emits the entry point for expression i.
func (em *emitter[E]) def(i int, name string, n ast.Node) {
	body := stringify(ast.Visit[*emitter[E], code](n, emitVisitor[E]{}, em))
	fmt.Fprintf(&em.buf, "# %s\ndef %s(%s):\n    return %s\n\n", sanitizeComment(name), exprName(i), envParam, body.src)
}

func (em *emitter[E]) source() string {
	return em.buf.String()
}

// stringify converts c to a string value. A string, or a deferred string that the
// entry point will await, is returned unchanged.
func stringify(c code) code {
	switch {
	case c.typ.Unwrap() == types.StringType:
		return c
	case c.typ.IsDeferred():
		return code{src: call(internal.StrName, awaited(c)), typ: types.StringType}
	default:
		return code{src: call(internal.StrName, c.src), typ: types.StringType}
	}
}

// segment converts c to a string value inline.
func segment(c code) string {
	switch {
	case c.typ == types.StringType:
		return c.src
	case c.typ == types.DeferredOf(types.StringType):
		return awaited(c)
	default:
		return stringify(c).src
	}
}

func awaited(c code) string {
	if !c.typ.IsDeferred() {
		return c.src
	}
	return call(internal.AwaitName, c.src)
}

func call(fn string, args ...string) string {
	return fn + "(" + strings.Join(args, ", ") + ")"
}

func sanitizeComment(s string) string {
	return strings.NewReplacer("\n", " ", "\r", " ").Replace(s)
}

type emitVisitor[E any] struct{}

func (v emitVisitor[E]) VisitCall(n *ast.Call, em *emitter[E]) code {
	args := make([]string, 0, n.NumArgs()+1)
	args = append(args, envParam)
	for i := range n.NumArgs() {
		arg := ast.Visit[*emitter[E], code](n.Arg(i), v, em)
		args = append(args, awaited(arg))
	}

	c, ok := em.callers[n.Identifier()]
	if !ok {
		em.errs = append(em.errs, fmt.Errorf("%w: %q at %s", ErrUnknownFunction, n.Identifier(), n.Span()))
		return code{src: "None", typ: types.Untyped}
	}
	if err := c.CheckArity(n.NumArgs()); err != nil {
		em.errs = append(em.errs, fmt.Errorf("%w at %s", err, n.Span()))
		return code{src: "None", typ: types.Untyped}
	}
	return code{src: call(em.field(c), args...), typ: c.Descriptor().Result()}
}

func (v emitVisitor[E]) VisitInterpolation(n *ast.Interpolation, em *emitter[E]) code {
	if n.NumSegments() == 1 {
		return stringify(ast.Visit[*emitter[E], code](n.Segment(0), v, em))
	}

	parts := make([]string, n.NumSegments())
	for i := range n.NumSegments() {
		parts[i] = segment(ast.Visit[*emitter[E], code](n.Segment(i), v, em))
	}
	if len(parts) <= 3 {
		return code{src: "(" + strings.Join(parts, " + ") + ")", typ: types.StringType}
	}
	return code{src: `"".join([` + strings.Join(parts, ", ") + "])", typ: types.StringType}
}

func (v emitVisitor[E]) VisitString(n *ast.StringLiteral, _ *emitter[E]) code {
	return code{src: syntax.Quote(n.Value(), false), typ: types.StringType}
}

func (v emitVisitor[E]) VisitNumber(n *ast.NumericLiteral, _ *emitter[E]) code {
	src := strconv.FormatInt(n.Value(), 10)
	if n.Value() < 0 {
		src = "(" + src + ")"
	}
	return code{src: src, typ: types.IntType}
}
