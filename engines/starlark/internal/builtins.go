package internal

import (
	"context"

	"github.com/robbyt/go-polyexpr/platform/types"
	starlarkLib "go.starlark.net/starlark"
)

const (
	// AwaitName and StrName are the helper builtins available to emitted code.
	AwaitName = "_await"
	StrName   = "_str"

	contextLocal = "polyexpr.context"
)

// SetContext stores ctx on the thread for builtins to use.
func SetContext(thread *starlarkLib.Thread, ctx context.Context) {
	thread.SetLocal(contextLocal, ctx)
}

// Context returns the context stored by SetContext, or context.Background.
func Context(thread *starlarkLib.Thread) context.Context {
	if ctx, ok := thread.Local(contextLocal).(context.Context); ok {
		return ctx
	}
	return context.Background()
}

// Await is the _await builtin: it waits for a deferred value and returns the result.
// Any other value is returned as is.
var Await = starlarkLib.NewBuiltin(AwaitName, func(
	thread *starlarkLib.Thread,
	b *starlarkLib.Builtin,
	args starlarkLib.Tuple,
	kwargs []starlarkLib.Tuple,
) (starlarkLib.Value, error) {
	var v starlarkLib.Value
	if err := starlarkLib.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &v); err != nil {
		return nil, err
	}
	d, ok := v.(*Deferred)
	if !ok {
		return v, nil
	}
	res, err := d.D.Await(Context(thread))
	if err != nil {
		return nil, err
	}
	return ToStarlark(res), nil
})

// Str is the _str builtin: the natural string form of a value.
var Str = starlarkLib.NewBuiltin(StrName, func(
	_ *starlarkLib.Thread,
	b *starlarkLib.Builtin,
	args starlarkLib.Tuple,
	kwargs []starlarkLib.Tuple,
) (starlarkLib.Value, error) {
	var v starlarkLib.Value
	if err := starlarkLib.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &v); err != nil {
		return nil, err
	}
	if s, ok := v.(starlarkLib.String); ok {
		return s, nil
	}
	goVal, err := FromStarlark(v)
	if err != nil {
		return nil, err
	}
	return starlarkLib.String(types.Format(goVal)), nil
})
