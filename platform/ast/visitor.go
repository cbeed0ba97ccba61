package ast

import "fmt"

// Visitor is one pass over the tree. C is the per-pass context threaded through the
// traversal and R is the per-node result.
type Visitor[C, R any] interface {
	VisitCall(n *Call, c C) R
	VisitInterpolation(n *Interpolation, c C) R
	VisitString(n *StringLiteral, c C) R
	VisitNumber(n *NumericLiteral, c C) R
}

// Visit dispatches n to the matching method of v.
func Visit[C, R any](n Node, v Visitor[C, R], c C) R {
	switch n := n.(type) {
	case *Call:
		return v.VisitCall(n, c)
	case *Interpolation:
		return v.VisitInterpolation(n, c)
	case *StringLiteral:
		return v.VisitString(n, c)
	case *NumericLiteral:
		return v.VisitNumber(n, c)
	default:
		panic(fmt.Sprintf("ast: unexpected node type %T", n))
	}
}

// Rewrite is the default bottom-up traversal. Children are rewritten first and the
// parent is rebuilt only when a child changed; post is then applied to the result.
// A nil post leaves nodes as they are.
func Rewrite(n Node, post func(Node) Node) Node {
	if post == nil {
		post = func(n Node) Node { return n }
	}
	switch n := n.(type) {
	case *Call:
		if args, changed := rewriteAll(n.args, post); changed {
			return post(&Call{span: n.span, identifier: n.identifier, args: args})
		}
		return post(n)
	case *Interpolation:
		if segs, changed := rewriteAll(n.segments, post); changed {
			return post(&Interpolation{span: n.span, segments: segs})
		}
		return post(n)
	case *StringLiteral, *NumericLiteral:
		return post(n)
	default:
		panic(fmt.Sprintf("ast: unexpected node type %T", n))
	}
}

func rewriteAll(nodes []Node, post func(Node) Node) ([]Node, bool) {
	var out []Node
	for i, child := range nodes {
		got := Rewrite(child, post)
		if got == nil {
			panic("ast: rewrite produced a nil node")
		}
		if got != child && out == nil {
			out = make([]Node, len(nodes))
			copy(out, nodes[:i])
		}
		if out != nil {
			out[i] = got
		}
	}
	return out, out != nil
}

// Walk calls fn for n and every descendant in depth-first, left-to-right order.
// Returning false from fn skips the children of that node.
func Walk(n Node, fn func(Node) bool) {
	if !fn(n) {
		return
	}
	switch n := n.(type) {
	case *Call:
		for _, a := range n.args {
			Walk(a, fn)
		}
	case *Interpolation:
		for _, s := range n.segments {
			Walk(s, fn)
		}
	}
}
