// Package starlark evaluates expressions by compiling them to Starlark source.
package starlark

import (
	"log/slog"

	"github.com/robbyt/go-polyexpr/engines/starlark/compiler"
	"github.com/robbyt/go-polyexpr/platform/env"
	"github.com/robbyt/go-polyexpr/platform/registry"
)

// NewCompiler creates a Starlark compiler that logs to handler.
func NewCompiler[E any](
	handler slog.Handler,
	reg *registry.Registry,
	schema env.Schema[E],
) (*compiler.Compiler[E], error) {
	return compiler.New(reg, schema, compiler.WithLogHandler(handler))
}

// FromExpressions compiles exprs into a single unit in one step.
func FromExpressions[E any](
	handler slog.Handler,
	reg *registry.Registry,
	schema env.Schema[E],
	exprs ...compiler.Named,
) (*compiler.Unit[E], error) {
	c, err := NewCompiler(handler, reg, schema)
	if err != nil {
		return nil, err
	}
	return c.CompileBatch(exprs)
}
