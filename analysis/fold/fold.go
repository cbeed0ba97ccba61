// Package fold implements constant folding over expression trees.
package fold

import (
	"strings"

	"github.com/robbyt/go-polyexpr/platform/ast"
)

// Fold replaces every interpolation whose segments are all constants with a single
// string literal holding their concatenation. The literal keeps the interpolation's span.
// Folding is bottom-up, so nested constant interpolations collapse in one pass, and
// calls are only rebuilt around their folded arguments. Fold is pure and idempotent.
func Fold(n ast.Node) ast.Node {
	return ast.Rewrite(n, foldNode)
}

func foldNode(n ast.Node) ast.Node {
	interp, ok := n.(*ast.Interpolation)
	if !ok {
		return n
	}

	var b strings.Builder
	for i := range interp.NumSegments() {
		c, ok := interp.Segment(i).(ast.Constant)
		if !ok {
			return n
		}
		b.WriteString(c.ConstantString())
	}
	return ast.NewString(interp.Span(), b.String())
}
