// Package types names the evaluation strategies.
package types

import "fmt"

// Type is an evaluation strategy.
type Type string

const (
	// Interpreter walks the tree on every evaluation.
	Interpreter Type = "interpreter"

	// Graph builds a reusable computation graph once per expression.
	Graph Type = "graph"

	// Starlark emits Starlark source for one or many expressions and compiles it as a unit.
	Starlark Type = "starlark"
)

// All lists the strategies in order of increasing compile cost.
func All() []Type {
	return []Type{Interpreter, Graph, Starlark}
}

func (t Type) String() string { return string(t) }

// Parse returns the Type named s.
func Parse(s string) (Type, error) {
	for _, t := range All() {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown strategy %q", s)
}
