// Package polyexpr compiles interpolated-string expressions that call registered Go
// functions, some of which return deferred values, and evaluates them with one of three
// interchangeable strategies: a tree-walking interpreter, a prebuilt computation graph,
// or Starlark source compiled in batches.
package polyexpr

import (
	"fmt"
	"maps"
	"strings"

	"github.com/robbyt/go-polyexpr/analysis/check"
	"github.com/robbyt/go-polyexpr/analysis/fold"
	"github.com/robbyt/go-polyexpr/cache"
	"github.com/robbyt/go-polyexpr/engines/graph"
	"github.com/robbyt/go-polyexpr/engines/interpreter"
	"github.com/robbyt/go-polyexpr/engines/starlark/compiler"
	"github.com/robbyt/go-polyexpr/engines/types"
	"github.com/robbyt/go-polyexpr/metrics"
	"github.com/robbyt/go-polyexpr/options"
	"github.com/robbyt/go-polyexpr/platform"
	"github.com/robbyt/go-polyexpr/platform/ast"
	"github.com/robbyt/go-polyexpr/platform/diag"
	"github.com/robbyt/go-polyexpr/platform/env"
	"github.com/robbyt/go-polyexpr/platform/registry"
)

// Named is an expression with the name its program is returned under.
type Named = compiler.Named

// singleName is the entry point name of a single-expression Starlark unit.
const singleName = "expr"

// Check type checks n against reg and returns every diagnostic found.
func Check(n ast.Node, reg *registry.Registry) diag.List {
	if n == nil {
		panic(ast.ErrNilNode)
	}
	_, l := check.Check(reg, n)
	return l
}

// Compile compiles one expression with the configured strategy.
func Compile[E any](
	n ast.Node,
	reg *registry.Registry,
	schema env.Schema[E],
	opts ...options.Option,
) (platform.Program[E], error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}
	if reg == nil {
		return nil, ErrNilRegistry
	}
	n, err = prepare(cfg, n, reg)
	if err != nil {
		return nil, err
	}

	build := func() (platform.Program[E], error) {
		return compileOne(cfg, n, reg, schema)
	}

	var p platform.Program[E]
	if cc := cfg.GetCache(); cc != nil {
		key, err := cache.NewKey(cfg.GetStrategy(), reg, schema, n)
		if err != nil {
			return nil, err
		}
		p, err = cache.GetOrCompile(cc, key, build)
		if err != nil {
			return nil, err
		}
	} else {
		p, err = build()
		if err != nil {
			return nil, err
		}
	}
	return instrument(cfg, p)
}

// CompileBatch compiles several expressions and returns their programs by name. With the
// starlark strategy all of them are compiled into a single unit; the other strategies
// compile each expression on its own. Either every expression compiles or none does.
func CompileBatch[E any](
	exprs []Named,
	reg *registry.Registry,
	schema env.Schema[E],
	opts ...options.Option,
) (map[string]platform.Program[E], error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}
	if reg == nil {
		return nil, ErrNilRegistry
	}
	if len(exprs) == 0 {
		return nil, ErrEmptyBatch
	}

	prepared := make([]Named, len(exprs))
	seen := make(map[string]struct{}, len(exprs))
	for i, x := range exprs {
		if _, dup := seen[x.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, x.Name)
		}
		seen[x.Name] = struct{}{}

		n, err := prepare(cfg, x.Node, reg)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", x.Name, err)
		}
		prepared[i] = Named{Name: x.Name, Node: n}
	}

	var programs map[string]platform.Program[E]
	if cfg.GetStrategy() == types.Starlark {
		programs, err = compileUnit(cfg, prepared, reg, schema)
	} else {
		programs, err = compileEach(cfg, prepared, reg, schema)
	}
	if err != nil {
		return nil, err
	}

	for name, p := range programs {
		if programs[name], err = instrument(cfg, p); err != nil {
			return nil, err
		}
	}
	return programs, nil
}

func newConfig(opts ...options.Option) (*options.Config, error) {
	cfg := options.DefaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("error applying option: %w", err)
		}
	}
	if err := options.WithDefaults()(cfg); err != nil {
		return nil, fmt.Errorf("error applying defaults: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// prepare runs the configured checks and rewrites on n before compilation.
func prepare(cfg *options.Config, n ast.Node, reg *registry.Registry) (ast.Node, error) {
	if n == nil {
		return nil, ast.ErrNilNode
	}
	if cfg.TypeCheck() {
		if l := Check(n, reg); l.HasErrors() {
			return nil, fmt.Errorf("%w: %w", ErrTypeCheck, l.Err())
		}
	}
	if cfg.Folding() {
		n = fold.Fold(n)
	}
	return n, nil
}

func compileOne[E any](
	cfg *options.Config,
	n ast.Node,
	reg *registry.Registry,
	schema env.Schema[E],
) (platform.Program[E], error) {
	handler := cfg.GetHandler()
	switch cfg.GetStrategy() {
	case types.Interpreter:
		in, err := interpreter.New(reg, schema, interpreter.WithLogHandler(handler))
		if err != nil {
			return nil, err
		}
		p, err := in.Compile(n)
		if err != nil {
			return nil, err
		}
		return p, nil
	case types.Graph:
		c, err := graph.New(reg, schema, graph.WithLogHandler(handler))
		if err != nil {
			return nil, err
		}
		p, err := c.Compile(n)
		if err != nil {
			return nil, err
		}
		return p, nil
	case types.Starlark:
		c, err := compiler.New(reg, schema, compiler.WithLogHandler(handler))
		if err != nil {
			return nil, err
		}
		u, err := c.Compile(singleName, n)
		if err != nil {
			return nil, err
		}
		entry, _ := u.Entry(singleName)
		return entry, nil
	default:
		return nil, fmt.Errorf("unsupported strategy: %s", cfg.GetStrategy())
	}
}

func compileEach[E any](
	cfg *options.Config,
	exprs []Named,
	reg *registry.Registry,
	schema env.Schema[E],
) (map[string]platform.Program[E], error) {
	out := make(map[string]platform.Program[E], len(exprs))
	for _, x := range exprs {
		build := func() (platform.Program[E], error) {
			return compileOne(cfg, x.Node, reg, schema)
		}

		var (
			p   platform.Program[E]
			err error
		)
		if cc := cfg.GetCache(); cc != nil {
			key, kerr := cache.NewKey(cfg.GetStrategy(), reg, schema, x.Node)
			if kerr != nil {
				return nil, kerr
			}
			p, err = cache.GetOrCompile(cc, key, build)
		} else {
			p, err = build()
		}
		if err != nil {
			return nil, fmt.Errorf("%q: %w", x.Name, err)
		}
		out[x.Name] = p
	}
	return out, nil
}

// compileUnit compiles exprs as one Starlark unit. With a cache, the unit is only
// compiled when some entry is missing, concurrent compilations of the same batch are
// shared, and every entry is stored on its own.
func compileUnit[E any](
	cfg *options.Config,
	exprs []Named,
	reg *registry.Registry,
	schema env.Schema[E],
) (map[string]platform.Program[E], error) {
	build := func() (map[string]platform.Program[E], error) {
		c, err := compiler.New(reg, schema, compiler.WithLogHandler(cfg.GetHandler()))
		if err != nil {
			return nil, err
		}
		u, err := c.CompileBatch(exprs)
		if err != nil {
			return nil, err
		}
		return u.Entries(), nil
	}

	cc := cfg.GetCache()
	if cc == nil {
		return build()
	}

	keys := make([]cache.Key, len(exprs))
	ids := make([]string, len(exprs))
	out := make(map[string]platform.Program[E], len(exprs))
	for i, x := range exprs {
		key, err := cache.NewKey(types.Starlark, reg, schema, x.Node)
		if err != nil {
			return nil, err
		}
		keys[i], ids[i] = key, x.Name+"="+key.ID()
		if v, ok := cc.Get(key); ok {
			if p, ok := v.(platform.Program[E]); ok {
				out[x.Name] = p
			}
		}
	}
	if len(out) == len(exprs) {
		return out, nil
	}

	v, err := cc.Once(strings.Join(ids, "\n"), func() (any, error) {
		entries, err := build()
		if err != nil {
			return nil, err
		}
		for i, x := range exprs {
			cc.Add(keys[i], entries[x.Name])
		}
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	// callers sharing a compilation each get their own map
	return maps.Clone(v.(map[string]platform.Program[E])), nil
}

func instrument[E any](cfg *options.Config, p platform.Program[E]) (platform.Program[E], error) {
	reg := cfg.GetMetrics()
	if reg == nil {
		return p, nil
	}
	m, err := metrics.New(reg)
	if err != nil {
		return nil, err
	}
	return metrics.Wrap(m, cfg.GetStrategy(), p), nil
}
