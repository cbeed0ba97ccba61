// Package ast defines the immutable expression tree produced by the external parser.
//
// The tree is closed: every Node is one of *Call, *Interpolation, *StringLiteral or
// *NumericLiteral. Nodes cannot be changed after construction; passes that rewrite the
// tree build new nodes (see Rewrite).
package ast

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
)

// ErrNilNode is returned when a constructor receives a nil child.
var ErrNilNode = errors.New("expression node is nil")

// Span is the half-open byte range [Start, End) of a node in the source text.
type Span struct {
	Start int
	End   int
}

// Join returns the smallest span covering both s and o.
func (s Span) Join(o Span) Span {
	return Span{Start: min(s.Start, o.Start), End: max(s.End, o.End)}
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d", s.Start, s.End)
}

// Node is an expression tree node.
type Node interface {
	Span() Span
	node()
}

// Constant is implemented by literal nodes whose value never depends on the env.
type Constant interface {
	Node
	// ConstantString returns the natural string form of the literal.
	ConstantString() string
}

// Call invokes a registered function.
type Call struct {
	span       Span
	identifier string
	args       []Node
}

// NewCall builds a call node. Children must be non-nil.
func NewCall(span Span, identifier string, args ...Node) (*Call, error) {
	if slices.Contains(args, nil) {
		return nil, fmt.Errorf("%w: argument of %q", ErrNilNode, identifier)
	}
	return &Call{span: span, identifier: identifier, args: slices.Clone(args)}, nil
}

func (c *Call) Span() Span         { return c.span }
func (c *Call) Identifier() string { return c.identifier }
func (c *Call) NumArgs() int       { return len(c.args) }
func (c *Call) Arg(i int) Node     { return c.args[i] }

// Args returns a copy of the argument list.
func (c *Call) Args() []Node { return slices.Clone(c.args) }

func (*Call) node() {}

// Interpolation concatenates the string forms of its segments.
type Interpolation struct {
	span     Span
	segments []Node
}

// NewInterpolation builds an interpolation with at least one segment.
func NewInterpolation(span Span, segments ...Node) (*Interpolation, error) {
	if len(segments) == 0 {
		return nil, errors.New("interpolation needs at least one segment")
	}
	if slices.Contains(segments, nil) {
		return nil, fmt.Errorf("%w: interpolation segment", ErrNilNode)
	}
	return &Interpolation{span: span, segments: slices.Clone(segments)}, nil
}

func (n *Interpolation) Span() Span         { return n.span }
func (n *Interpolation) NumSegments() int   { return len(n.segments) }
func (n *Interpolation) Segment(i int) Node { return n.segments[i] }

// Segments returns a copy of the segment list.
func (n *Interpolation) Segments() []Node { return slices.Clone(n.segments) }

func (*Interpolation) node() {}

// StringLiteral is a constant string.
type StringLiteral struct {
	span  Span
	value string
}

func NewString(span Span, value string) *StringLiteral {
	return &StringLiteral{span: span, value: value}
}

func (s *StringLiteral) Span() Span             { return s.span }
func (s *StringLiteral) Value() string          { return s.value }
func (s *StringLiteral) ConstantString() string { return s.value }
func (*StringLiteral) node()                    {}

// NumericLiteral is a constant 64-bit integer.
type NumericLiteral struct {
	span  Span
	value int64
}

func NewNumber(span Span, value int64) *NumericLiteral {
	return &NumericLiteral{span: span, value: value}
}

func (n *NumericLiteral) Span() Span             { return n.span }
func (n *NumericLiteral) Value() int64           { return n.value }
func (n *NumericLiteral) ConstantString() string { return strconv.FormatInt(n.value, 10) }
func (*NumericLiteral) node()                    {}

// IsConstant reports whether n is a literal.
func IsConstant(n Node) bool {
	_, ok := n.(Constant)
	return ok
}

// MustCall is NewCall that panics on error. Intended for tests and static trees.
func MustCall(span Span, identifier string, args ...Node) *Call {
	c, err := NewCall(span, identifier, args...)
	if err != nil {
		panic(err)
	}
	return c
}

// MustInterpolation is NewInterpolation that panics on error.
func MustInterpolation(span Span, segments ...Node) *Interpolation {
	n, err := NewInterpolation(span, segments...)
	if err != nil {
		panic(err)
	}
	return n
}
