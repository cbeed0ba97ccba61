package types

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrConversion is returned when a runtime value does not fit a parameter type.
var ErrConversion = errors.New("value is not convertible")

// Convert coerces a runtime argument to the representation expected for t:
// String -> string, Int -> int64, Bool -> bool, Float -> float64. Any and Named values
// pass through unchanged.
func Convert(v any, t Type) (any, error) {
	switch t.kind {
	case String:
		if s, ok := v.(string); ok {
			return s, nil
		}
		if s, ok := v.(fmt.Stringer); ok {
			return s.String(), nil
		}
	case Int:
		if i, ok := toInt64(v); ok {
			return i, nil
		}
	case Bool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case Float:
		switch f := v.(type) {
		case float64:
			return f, nil
		case float32:
			return float64(f), nil
		}
		if i, ok := toInt64(v); ok {
			return float64(i), nil
		}
	case Any, Named:
		return v, nil
	}
	return nil, fmt.Errorf("%w: %T to %s", ErrConversion, v, t)
}

func toInt64(v any) (int64, bool) {
	switch i := v.(type) {
	case int64:
		return i, true
	case int:
		return int64(i), true
	case int32:
		return int64(i), true
	case int16:
		return int64(i), true
	case int8:
		return int64(i), true
	case uint8:
		return int64(i), true
	case uint16:
		return int64(i), true
	case uint32:
		return int64(i), true
	case uint:
		if uint64(i) <= math.MaxInt64 {
			return int64(i), true
		}
	}
	return 0, false
}

// Format returns the natural string form of a runtime value. Every evaluator uses it
// when a non-string value is interpolated, so they agree on the output.
func Format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case fmt.Stringer:
		return x.String()
	case error:
		return x.Error()
	}
	if i, ok := toInt64(v); ok {
		return strconv.FormatInt(i, 10)
	}
	return fmt.Sprint(v)
}
