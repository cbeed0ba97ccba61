package ast

import (
	"strconv"
	"strings"
)

// Format prints n in the canonical textual syntax. A top-level interpolation prints its
// string literal segments as raw text and everything else inside braces:
//
//	a{'b'}c          Interpolation(String a, String b, String c)
//	{f(1, 'x')}      Interpolation(Call f(Number 1, String x))
//
// Nested nodes print as expressions. The output is stable and is used as a cache key.
func Format(n Node) string {
	var b strings.Builder
	if in, ok := n.(*Interpolation); ok {
		for _, seg := range in.segments {
			if s, ok := seg.(*StringLiteral); ok {
				b.WriteString(escapeText(s.value))
				continue
			}
			b.WriteByte('{')
			formatExpr(&b, seg)
			b.WriteByte('}')
		}
		return b.String()
	}
	b.WriteByte('{')
	formatExpr(&b, n)
	b.WriteByte('}')
	return b.String()
}

func formatExpr(b *strings.Builder, n Node) {
	switch n := n.(type) {
	case *Call:
		b.WriteString(n.identifier)
		b.WriteByte('(')
		for i, a := range n.args {
			if i > 0 {
				b.WriteString(", ")
			}
			formatExpr(b, a)
		}
		b.WriteByte(')')
	case *Interpolation:
		b.WriteByte('"')
		for _, seg := range n.segments {
			if s, ok := seg.(*StringLiteral); ok {
				b.WriteString(escapeText(s.value))
				continue
			}
			b.WriteByte('{')
			formatExpr(b, seg)
			b.WriteByte('}')
		}
		b.WriteByte('"')
	case *StringLiteral:
		b.WriteByte('\'')
		b.WriteString(strings.ReplaceAll(strings.ReplaceAll(n.value, `\`, `\\`), `'`, `\'`))
		b.WriteByte('\'')
	case *NumericLiteral:
		b.WriteString(strconv.FormatInt(n.value, 10))
	}
}

var textEscaper = strings.NewReplacer(`\`, `\\`, `{`, `\{`, `}`, `\}`, `"`, `\"`)

func escapeText(s string) string {
	return textEscaper.Replace(s)
}

// Equal reports whether a and b are structurally identical, ignoring spans.
func Equal(a, b Node) bool {
	switch a := a.(type) {
	case *Call:
		b, ok := b.(*Call)
		return ok && a.identifier == b.identifier && equalAll(a.args, b.args)
	case *Interpolation:
		b, ok := b.(*Interpolation)
		return ok && equalAll(a.segments, b.segments)
	case *StringLiteral:
		b, ok := b.(*StringLiteral)
		return ok && a.value == b.value
	case *NumericLiteral:
		b, ok := b.(*NumericLiteral)
		return ok && a.value == b.value
	}
	return false
}

func equalAll(a, b []Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}
