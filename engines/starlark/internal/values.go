package internal

import (
	"fmt"

	"github.com/robbyt/go-polyexpr/platform/future"
	"github.com/robbyt/go-polyexpr/platform/types"
	starlarkLib "go.starlark.net/starlark"
)

// GoValue carries an arbitrary Go value through Starlark code without converting it.
// Starlark code never inspects it; it only hands it back to Go builtins.
type GoValue struct {
	V any
}

var _ starlarkLib.Value = (*GoValue)(nil)

func (g *GoValue) String() string          { return types.Format(g.V) }
func (g *GoValue) Type() string            { return "go_value" }
func (g *GoValue) Freeze()                 {}
func (g *GoValue) Truth() starlarkLib.Bool { return starlarkLib.True }
func (g *GoValue) Hash() (uint32, error) {
	return 0, fmt.Errorf("unhashable type: %s", g.Type())
}

// Deferred is a pending function result inside Starlark code.
type Deferred struct {
	D future.Deferred
}

var _ starlarkLib.Value = (*Deferred)(nil)

func (d *Deferred) String() string          { return "<deferred>" }
func (d *Deferred) Type() string            { return "deferred" }
func (d *Deferred) Freeze()                 {}
func (d *Deferred) Truth() starlarkLib.Bool { return starlarkLib.True }
func (d *Deferred) Hash() (uint32, error) {
	return 0, fmt.Errorf("unhashable type: %s", d.Type())
}
