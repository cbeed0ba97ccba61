// Package fixtures provides a registry and env shared by the evaluator tests.
package fixtures

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robbyt/go-polyexpr/platform/ast"
	"github.com/robbyt/go-polyexpr/platform/binding"
	"github.com/robbyt/go-polyexpr/platform/env"
	"github.com/robbyt/go-polyexpr/platform/future"
	"github.com/robbyt/go-polyexpr/platform/registry"
	"github.com/robbyt/go-polyexpr/platform/types"
)

// ErrBoom is returned by the failing functions.
var ErrBoom = errors.New("boom")

// Principal is the injected caller identity.
type Principal struct {
	ID string
}

// Log records function invocations in order.
type Log struct {
	mu      sync.Mutex
	entries []string
}

func (l *Log) Add(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, s)
}

func (l *Log) Entries() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries...)
}

// Env is the evaluation context used by tests.
type Env struct {
	User Principal
	Log  *Log

	// Values backs the keyed lookup, keyed by type name.
	Values map[string]any
}

// NewEnv returns an env for the principal id with an empty log.
func NewEnv(id string) *Env {
	return &Env{
		User:   Principal{ID: id},
		Log:    &Log{},
		Values: map[string]any{"int": int64(42), "string": "keyed"},
	}
}

// Schema exposes User and Log as properties and Values through the keyed lookup.
func Schema() env.Schema[*Env] {
	return env.Schema[*Env]{
		Properties: []env.Property[*Env]{
			env.Prop("user", func(e *Env) Principal { return e.User }),
			env.Prop("log", func(e *Env) *Log { return e.Log }),
		},
		Lookup: func(_ context.Context, e *Env, key types.Type) (any, error) {
			v, ok := e.Values[key.Name()]
			if !ok {
				return nil, fmt.Errorf("no value for %s", key)
			}
			return v, nil
		},
	}
}

var (
	principalType = types.Of[Principal]()
	logType       = types.Of[*Log]()
)

func logParam() registry.Param {
	return registry.Param{Name: "log", Type: logType, Injected: true}
}

// later completes with v after a short delay on another goroutine.
func later(ctx context.Context, v any) *future.Future {
	return future.Go(func() (any, error) {
		select {
		case <-time.After(time.Millisecond):
			return v, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
}

// Definitions returns the test functions:
//
//	f()                      user id, from the injected principal
//	g(a int, b int)          deferred a+b
//	upper(s string)          upper-cased s
//	tag(s string)            deferred s, logged when called
//	mark(s string)           s, logged when called
//	counter()                int from the keyed lookup
//	who(prefix string = "@") prefix + user id, deferred
//	join(parts...)           joins 1..9 string arguments with ","
//	ratio()                  float32 1.1 typed as any
//	ratioAsync()             deferred float32 1.1
//	ready()                  bool true
//	fail(), failAsync()      ErrBoom, directly or through the future
//	boom(s string = "")      panics
func Definitions() registry.Definitions {
	defs := registry.Definitions{
		{
			Name:   "f",
			Params: []registry.Param{{Name: "who", Type: principalType, Injected: true}},
			Result: types.StringType,
			Call: func(_ context.Context, args []any) (any, error) {
				return args[0].(Principal).ID, nil
			},
		},
		{
			Name: "g",
			Params: []registry.Param{
				{Name: "a", Type: types.IntType},
				{Name: "b", Type: types.IntType},
			},
			Result: types.DeferredOf(types.IntType),
			Call: func(ctx context.Context, args []any) (any, error) {
				return later(ctx, args[0].(int64)+args[1].(int64)), nil
			},
		},
		{
			Name:   "upper",
			Params: []registry.Param{{Name: "s", Type: types.StringType}},
			Result: types.StringType,
			Call: func(_ context.Context, args []any) (any, error) {
				return strings.ToUpper(args[0].(string)), nil
			},
		},
		{
			Name:   "tag",
			Params: []registry.Param{logParam(), {Name: "s", Type: types.StringType}},
			Result: types.DeferredOf(types.StringType),
			Call: func(ctx context.Context, args []any) (any, error) {
				args[0].(*Log).Add(args[1].(string))
				return later(ctx, args[1]), nil
			},
		},
		{
			Name:   "mark",
			Params: []registry.Param{logParam(), {Name: "s", Type: types.StringType}},
			Result: types.StringType,
			Call: func(_ context.Context, args []any) (any, error) {
				args[0].(*Log).Add(args[1].(string))
				return args[1], nil
			},
		},
		{
			Name:   "counter",
			Params: []registry.Param{{Name: "n", Type: types.IntType, Injected: true}},
			Result: types.IntType,
			Call: func(_ context.Context, args []any) (any, error) {
				return args[0], nil
			},
		},
		{
			Name: "who",
			Params: []registry.Param{
				{Name: "prefix", Type: types.StringType, HasDefault: true, Default: "@"},
				{Name: "user", Type: principalType, Injected: true},
			},
			Result: types.DeferredOf(types.StringType),
			Call: func(ctx context.Context, args []any) (any, error) {
				return later(ctx, args[0].(string)+args[1].(Principal).ID), nil
			},
		},
		{
			Name:   "ratio",
			Result: types.AnyType,
			Call: func(context.Context, []any) (any, error) {
				return float32(1.1), nil
			},
		},
		{
			Name:   "ratioAsync",
			Result: types.DeferredOf(types.AnyType),
			Call: func(ctx context.Context, _ []any) (any, error) {
				return later(ctx, float32(1.1)), nil
			},
		},
		{
			Name:   "ready",
			Result: types.BoolType,
			Call: func(context.Context, []any) (any, error) {
				return true, nil
			},
		},
		{
			Name:   "boom",
			Params: []registry.Param{{Name: "s", Type: types.StringType, HasDefault: true, Default: ""}},
			Result: types.StringType,
			Call: func(context.Context, []any) (any, error) {
				panic("boom")
			},
		},
		{
			Name:   "fail",
			Result: types.StringType,
			Call: func(context.Context, []any) (any, error) {
				return nil, ErrBoom
			},
		},
		{
			Name:   "failAsync",
			Result: types.DeferredOf(types.StringType),
			Call: func(context.Context, []any) (any, error) {
				return future.Failed(ErrBoom), nil
			},
		},
	}

	join := registry.Definition{
		Name:   "join",
		Result: types.StringType,
		Call: func(_ context.Context, args []any) (any, error) {
			parts := make([]string, len(args))
			for i, a := range args {
				parts[i] = a.(string)
			}
			return strings.Join(parts, ","), nil
		},
	}
	for i := range 9 {
		p := registry.Param{Name: fmt.Sprintf("p%d", i), Type: types.StringType}
		if i > 0 {
			p.HasDefault, p.Default = true, ""
		}
		join.Params = append(join.Params, p)
	}
	return append(defs, join)
}

// Registry builds the registry of Definitions.
func Registry() *registry.Registry {
	reg, err := registry.New(Definitions())
	if err != nil {
		panic(err)
	}
	return reg
}

// Str, Num, Call and Interp build nodes with empty spans.
func Str(s string) ast.Node { return ast.NewString(ast.Span{}, s) }

func Num(v int64) ast.Node { return ast.NewNumber(ast.Span{}, v) }

func Call(id string, args ...ast.Node) ast.Node { return ast.MustCall(ast.Span{}, id, args...) }

func Interp(segs ...ast.Node) ast.Node { return ast.MustInterpolation(ast.Span{}, segs...) }

// Case is one expression with its expected result.
type Case struct {
	Name string
	Node ast.Node
	Want string
	// Log is the expected invocation log, if checked.
	Log []string
}

// Cases is the evaluation table every strategy must agree on. The env is NewEnv("x").
func Cases() []Case {
	tags := func(n int) []ast.Node {
		out := make([]ast.Node, n)
		for i := range n {
			out[i] = Call("tag", Str(fmt.Sprintf("t%d", i)))
		}
		return out
	}
	return []Case{
		{Name: "literal", Node: Str("plain"), Want: "plain"},
		{Name: "number", Node: Num(-7), Want: "-7"},
		{Name: "injected only", Node: Interp(Call("f")), Want: "x"},
		{Name: "async sum", Node: Interp(Call("g", Num(1), Num(2))), Want: "3"},
		{Name: "text around call", Node: Interp(Str("a"), Call("upper", Str("b")), Str("c")), Want: "aBc"},
		{Name: "two segments", Node: Interp(Str("id="), Call("f")), Want: "id=x"},
		{
			Name: "four segments mixed",
			Node: Interp(Str("<"), Call("g", Num(2), Num(3)), Str(":"), Call("who")),
			Want: "<5:@x",
		},
		{Name: "keyed lookup", Node: Interp(Str("n="), Call("counter")), Want: "n=42"},
		{Name: "default argument", Node: Call("who"), Want: "@x"},
		{Name: "explicit default", Node: Call("who", Str("~")), Want: "~x"},
		{Name: "deferred argument", Node: Call("upper", Call("who")), Want: "@X"},
		{
			Name: "nested async",
			Node: Interp(Call("g", Call("g", Num(1), Num(2)), Call("g", Num(3), Num(4)))),
			Want: "10",
		},
		{
			Name: "constants out of band",
			Node: Call("join", Str("a"), Call("tag", Str("b")), Str("c"), Call("mark", Str("d"))),
			Want: "a,b,c,d",
			Log:  []string{"b", "d"},
		},
		{
			Name: "order with five deferred arguments",
			Node: Call("join", tags(5)...),
			Want: "t0,t1,t2,t3,t4",
			Log:  []string{"t0", "t1", "t2", "t3", "t4"},
		},
		{
			Name: "order across segments",
			Node: Interp(Call("tag", Str("a")), Call("mark", Str("b")), Call("tag", Str("c")), Call("mark", Str("d")), Call("tag", Str("e"))),
			Want: "abcde",
			Log:  []string{"a", "b", "c", "d", "e"},
		},
		{
			Name: "nested interpolation argument",
			Node: Call("upper", Interp(Str("a"), Call("tag", Str("b")))),
			Want: "AB",
			Log:  []string{"b"},
		},
		{Name: "single int segment as argument", Node: Call("upper", Interp(Call("counter"))), Want: "42"},
		{Name: "single deferred int segment as argument", Node: Call("upper", Interp(Call("g", Num(4), Num(5)))), Want: "9"},
		{Name: "float32 result", Node: Interp(Str("r="), Call("ratio")), Want: "r=1.1"},
		{Name: "lone float32 result", Node: Call("ratio"), Want: "1.1"},
		{Name: "deferred float32 result", Node: Interp(Str("r="), Call("ratioAsync")), Want: "r=1.1"},
		{Name: "lone deferred float32 result", Node: Call("ratioAsync"), Want: "1.1"},
		{Name: "bool result", Node: Interp(Call("ready"), Str("!")), Want: "true!"},
	}
}

// ErrorCase is an expression whose evaluation fails with Err under every strategy.
type ErrorCase struct {
	Name string
	Node ast.Node
	Err  error
}

// ErrorCases is the failure table every strategy must agree on. The env is NewEnv("x").
func ErrorCases() []ErrorCase {
	return []ErrorCase{
		{Name: "sync failure", Node: Call("fail"), Err: ErrBoom},
		{Name: "async failure", Node: Call("failAsync"), Err: ErrBoom},
		{Name: "failure in argument", Node: Call("upper", Call("fail")), Err: ErrBoom},
		{Name: "failure after deferred segment", Node: Interp(Call("who"), Call("failAsync")), Err: ErrBoom},
		{Name: "panic", Node: Call("boom"), Err: binding.ErrFunctionPanicked},
		{Name: "panic after deferred argument", Node: Call("boom", Call("who")), Err: binding.ErrFunctionPanicked},
		{Name: "panic after deferred segment", Node: Interp(Call("who"), Call("boom")), Err: binding.ErrFunctionPanicked},
	}
}
