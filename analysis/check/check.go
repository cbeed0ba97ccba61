// Package check is the static type checker for expressions.
//
// The checker never fails on semantic problems. It reports every problem it finds to a
// diag.Collector, degrades the type of a failing call to types.Untyped so that one
// mistake does not cascade, and keeps walking.
package check

import (
	"strings"

	"github.com/robbyt/go-polyexpr/platform/ast"
	"github.com/robbyt/go-polyexpr/platform/diag"
	"github.com/robbyt/go-polyexpr/platform/registry"
	"github.com/robbyt/go-polyexpr/platform/types"
)

// Checker checks expressions against one registry.
type Checker struct {
	reg   *registry.Registry
	valid string
}

var _ ast.Visitor[diag.Collector, types.Type] = (*Checker)(nil)

// New returns a Checker for reg, which must not be nil.
func New(reg *registry.Registry) *Checker {
	return &Checker{
		reg:   reg,
		valid: strings.Join(reg.Names(), ", "),
	}
}

// Check reports the diagnostics of n to c and returns the type of n.
// It panics with ast.ErrNilNode if n or c is nil.
func (ch *Checker) Check(n ast.Node, c diag.Collector) types.Type {
	if n == nil || c == nil {
		panic(ast.ErrNilNode)
	}
	return ast.Visit[diag.Collector, types.Type](n, ch, c)
}

// Check is a convenience wrapper that collects diagnostics into a new list.
func Check(reg *registry.Registry, n ast.Node) (types.Type, diag.List) {
	var l diag.List
	t := New(reg).Check(n, &l)
	return t, l
}

func (ch *Checker) VisitCall(n *ast.Call, c diag.Collector) types.Type {
	desc, ok := ch.reg.Lookup(n.Identifier())
	if !ok {
		c.Report(diag.Diagnostic{
			Span:     n.Span(),
			Code:     diag.UnknownFunction,
			Template: diag.UnknownFunctionTemplate,
			Args:     []any{n.Identifier(), ch.valid},
		})
		for i := range n.NumArgs() {
			ast.Visit[diag.Collector, types.Type](n.Arg(i), ch, c)
		}
		return types.Untyped
	}

	exposed := desc.Exposed()
	for i, p := range exposed {
		if i >= n.NumArgs() {
			if !p.HasDefault {
				c.Report(diag.Diagnostic{
					Span:     n.Span(),
					Code:     diag.MissingArgument,
					Template: diag.MissingArgumentTemplate,
					Args:     []any{i, p.Name, desc.Name()},
				})
			}
			continue
		}

		arg := n.Arg(i)
		got := ast.Visit[diag.Collector, types.Type](arg, ch, c).Unwrap()
		if !types.AssignableTo(got, p.Type) {
			c.Report(diag.Diagnostic{
				Span:     arg.Span(),
				Code:     diag.UnassignableArgument,
				Template: diag.UnassignableArgumentTemplate,
				Args:     []any{i, desc.Name(), got, p.Type},
			})
		}
	}

	if n.NumArgs() > len(exposed) {
		for i := len(exposed); i < n.NumArgs(); i++ {
			ast.Visit[diag.Collector, types.Type](n.Arg(i), ch, c)
		}
		first, last := n.Arg(len(exposed)), n.Arg(n.NumArgs()-1)
		c.Report(diag.Diagnostic{
			Span:     first.Span().Join(last.Span()),
			Code:     diag.TooManyArguments,
			Template: diag.TooManyArgumentsTemplate,
			Args:     []any{desc.Name(), len(exposed), n.NumArgs()},
		})
	}

	return desc.Result()
}

func (ch *Checker) VisitInterpolation(n *ast.Interpolation, c diag.Collector) types.Type {
	for i := range n.NumSegments() {
		ast.Visit[diag.Collector, types.Type](n.Segment(i), ch, c)
	}
	return types.StringType
}

func (ch *Checker) VisitString(*ast.StringLiteral, diag.Collector) types.Type {
	return types.StringType
}

func (ch *Checker) VisitNumber(*ast.NumericLiteral, diag.Collector) types.Type {
	return types.IntType
}
