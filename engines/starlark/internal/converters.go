package internal

import (
	"fmt"
	"math"

	"github.com/robbyt/go-polyexpr/platform/future"
	starlarkLib "go.starlark.net/starlark"
)

// ToStarlark converts a Go value for use in Starlark code. Scalars become native Starlark
// values, deferred values become *Deferred, and everything else is wrapped unchanged in
// a *GoValue so that it reaches the next function exactly as it was produced. float32
// stays a *GoValue: widening it would change its string form.
func ToStarlark(v any) starlarkLib.Value {
	switch v := v.(type) {
	case nil:
		return starlarkLib.None
	case starlarkLib.Value:
		return v
	case string:
		return starlarkLib.String(v)
	case bool:
		return starlarkLib.Bool(v)
	case int:
		return starlarkLib.MakeInt(v)
	case int64:
		return starlarkLib.MakeInt64(v)
	case int32:
		return starlarkLib.MakeInt64(int64(v))
	case uint32:
		return starlarkLib.MakeUint64(uint64(v))
	case float64:
		return starlarkLib.Float(v)
	case future.Deferred:
		return &Deferred{D: v}
	default:
		return &GoValue{V: v}
	}
}

// FromStarlark converts a Starlark value back to Go. Integers become int64, lists and
// tuples become []any and dicts with string keys become map[string]any.
func FromStarlark(v starlarkLib.Value) (any, error) {
	switch v := v.(type) {
	case nil, starlarkLib.NoneType:
		return nil, nil
	case starlarkLib.Bool:
		return bool(v), nil
	case starlarkLib.Int:
		i, ok := v.Int64()
		if !ok {
			return nil, fmt.Errorf("integer %s out of range [%d, %d]", v, math.MinInt64, math.MaxInt64)
		}
		return i, nil
	case starlarkLib.Float:
		return float64(v), nil
	case starlarkLib.String:
		return string(v), nil
	case *GoValue:
		return v.V, nil
	case *Deferred:
		return v.D, nil
	case *starlarkLib.List:
		return fromIterable(v, v.Len())
	case starlarkLib.Tuple:
		return fromIterable(v, v.Len())
	case *starlarkLib.Dict:
		out := make(map[string]any, v.Len())
		for _, item := range v.Items() {
			k, ok := item[0].(starlarkLib.String)
			if !ok {
				return nil, fmt.Errorf("dict key %s is not a string", item[0])
			}
			val, err := FromStarlark(item[1])
			if err != nil {
				return nil, err
			}
			out[string(k)] = val
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported starlark type: %s", v.Type())
	}
}

func fromIterable(v starlarkLib.Indexable, n int) ([]any, error) {
	out := make([]any, n)
	for i := range n {
		val, err := FromStarlark(v.Index(i))
		if err != nil {
			return nil, err
		}
		out[i] = val
	}
	return out, nil
}
