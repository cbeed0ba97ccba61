// Package compiler turns expressions into Starlark source and compiles them as one unit.
//
// Every expression becomes a function `def expr_<i>(env)` in a single file. Each
// registered function the unit uses is predeclared as a builtin `fn_<j>`, called with
// the env as its first argument. Deferred values are awaited inline with `_await`; an
// expression that is a single async call returns its deferred value and the entry point
// awaits it. The file is parsed, resolved and initialised once, and its globals frozen,
// so compiling a batch costs one compilation however many expressions it holds.
package compiler

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robbyt/go-polyexpr/engines/starlark/compiler/internal/compile"
	"github.com/robbyt/go-polyexpr/engines/starlark/evaluator"
	"github.com/robbyt/go-polyexpr/engines/starlark/internal"
	"github.com/robbyt/go-polyexpr/internal/helpers"
	"github.com/robbyt/go-polyexpr/platform/ast"
	"github.com/robbyt/go-polyexpr/platform/binding"
	"github.com/robbyt/go-polyexpr/platform/env"
	"github.com/robbyt/go-polyexpr/platform/future"
	"github.com/robbyt/go-polyexpr/platform/registry"
	"github.com/robbyt/go-polyexpr/platform/types"
	starlarkLib "go.starlark.net/starlark"
)

// Named is an expression with the name its entry point is exposed under.
type Named struct {
	Name string
	Node ast.Node
}

// Compiler compiles expressions against one registry and env schema.
type Compiler[E any] struct {
	callers    binding.Callers[E]
	filename   string
	logHandler slog.Handler
	logger     *slog.Logger
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
			return nil, fmt.Errorf("failed to apply compiler option: %w", err)
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
	return &Compiler[E]{
		callers:    callers,
		filename:   o.filename,
		logHandler: o.logHandler,
		logger:     o.logger,
	}, nil
}

func (c *Compiler[E]) String() string {
	return "starlark.Compiler"
}

// Compile compiles a single expression into a unit with one entry point.
func (c *Compiler[E]) Compile(name string, n ast.Node) (*Unit[E], error) {
	return c.CompileBatch([]Named{{Name: name, Node: n}})
}

// CompileBatch compiles all expressions into one unit. Either every expression compiles
// or the returned error, which wraps ErrCompileFailed, lists every problem found.
func (c *Compiler[E]) CompileBatch(exprs []Named) (*Unit[E], error) {
	logger := c.logger.WithGroup("CompileBatch")
	if len(exprs) == 0 {
		return nil, ErrEmptyBatch
	}

	seen := make(map[string]struct{}, len(exprs))
	for _, x := range exprs {
		if x.Node == nil {
			return nil, fmt.Errorf("%w: %q", ast.ErrNilNode, x.Name)
		}
		if _, dup := seen[x.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, x.Name)
		}
		seen[x.Name] = struct{}{}
	}

	em := newEmitter(c.callers)
	for i, x := range exprs {
		em.def(i, x.Name, x.Node)
	}
	if len(em.errs) > 0 {
		err := fmt.Errorf("%w: %w", ErrCompileFailed, errors.Join(em.errs...))
		logger.Warn("failed to emit starlark source", "expressions", len(exprs), "error", err)
		return nil, err
	}

	src := em.source()
	predeclared := make(starlarkLib.StringDict, len(em.fields)+2)
	predeclared[internal.AwaitName] = internal.Await
	predeclared[internal.StrName] = internal.Str
	for j, caller := range em.fields {
		predeclared[fieldName(j)] = builtin(caller)
	}

	prog, err := compile.Compile(c.filename, []byte(src), predeclared)
	if err != nil {
		logger.Warn("failed to compile starlark source", "error", err)
		return nil, err
	}
	globals, err := compile.Init(prog, &starlarkLib.Thread{Name: "init"}, predeclared)
	if err != nil {
		logger.Warn("failed to initialise starlark unit", "error", err)
		return nil, err
	}

	u := &Unit[E]{
		id:        helpers.ShortID(src),
		createdAt: time.Now(),
		source:    src,
		entries:   make(map[string]*evaluator.Entry[E], len(exprs)),
		names:     make([]string, len(exprs)),
	}
	for i, x := range exprs {
		entry, err := evaluator.NewEntry[E](c.logHandler, x.Name, asCallable(globals[exprName(i)]))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCompileFailed, err)
		}
		u.entries[x.Name] = entry
		u.names[i] = x.Name
	}

	logger.Debug("starlark unit compiled",
		"id", u.id,
		"expressions", len(exprs),
		"functions", len(em.fields),
	)
	return u, nil
}

func asCallable(v starlarkLib.Value) starlarkLib.Callable {
	c, _ := v.(starlarkLib.Callable)
	return c
}

// builtin exposes a bound caller to Starlark code. The first argument is the env; the
// others are the expression's arguments, already awaited.
func builtin[E any](c *binding.Caller[E]) *starlarkLib.Builtin {
	stringResult := c.Descriptor().Result().Unwrap() == types.StringType

	return starlarkLib.NewBuiltin(c.Name(), func(
		thread *starlarkLib.Thread,
		b *starlarkLib.Builtin,
		args starlarkLib.Tuple,
		kwargs []starlarkLib.Tuple,
	) (starlarkLib.Value, error) {
		if len(kwargs) > 0 {
			return nil, fmt.Errorf("%s: unexpected keyword arguments", b.Name())
		}
		if len(args) == 0 {
			return nil, fmt.Errorf("%s: missing env", b.Name())
		}
		e, err := envOf[E](args[0])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", b.Name(), err)
		}

		vals := make([]any, len(args)-1)
		for i, a := range args[1:] {
			v, err := internal.FromStarlark(a)
			if err != nil {
				return nil, fmt.Errorf("%s: argument %d: %w", b.Name(), i, err)
			}
			vals[i] = v
		}

		v, err := c.Call(internal.Context(thread), e, vals)
		if err != nil {
			return nil, err
		}
		if stringResult {
			v = asString(v)
		}
		return internal.ToStarlark(v), nil
	})
}

// asString keeps results declared as strings usable with Starlark's + operator.
func asString(v any) any {
	switch v := v.(type) {
	case string:
		return v
	case future.Deferred:
		return future.Then(v, func(x any) (any, error) {
			return types.Format(x), nil
		})
	default:
		return types.Format(v)
	}
}

func envOf[E any](v starlarkLib.Value) (E, error) {
	var zero E
	g, ok := v.(*internal.GoValue)
	if !ok {
		return zero, fmt.Errorf("env has type %s", v.Type())
	}
	if g.V == nil {
		return zero, nil
	}
	e, ok := g.V.(E)
	if !ok {
		return zero, fmt.Errorf("env has type %T", g.V)
	}
	return e, nil
}
