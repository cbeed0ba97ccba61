package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type principal struct{ name string }

func (p principal) String() string { return "principal:" + p.name }

type service interface{ Do() }

func TestOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		got  Type
		want Type
	}{
		{"string", Of[string](), StringType},
		{"int64", Of[int64](), IntType},
		{"int", Of[int](), IntType},
		{"bool", Of[bool](), BoolType},
		{"float", Of[float64](), FloatType},
		{"empty interface", Of[any](), AnyType},
		{"struct", Of[principal](), NamedType("types.principal")},
		{"pointer", Of[*principal](), NamedType("*types.principal")},
		{"non-empty interface", Of[service](), NamedType("types.service")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestTypeBasics(t *testing.T) {
	t.Parallel()

	d := DeferredOf(StringType)
	assert.True(t, d.IsDeferred())
	assert.Equal(t, StringType, d.Unwrap())
	assert.Equal(t, d, DeferredOf(d), "only one level is tracked")
	assert.Equal(t, "deferred[string]", d.String())
	assert.Equal(t, "untyped", Untyped.String())
	assert.Equal(t, "types.principal", Of[principal]().Name())
	assert.Equal(t, "int", IntType.Name())

	assert.False(t, Untyped.IsValid())
	assert.False(t, VoidType.IsValid())
	assert.True(t, AnyType.IsValid())
}

func TestAssignableTo(t *testing.T) {
	t.Parallel()

	named := NamedType("auth.Principal")
	tests := []struct {
		name     string
		src, dst Type
		want     bool
	}{
		{"same scalar", StringType, StringType, true},
		{"int to string", IntType, StringType, false},
		{"string to int", StringType, IntType, false},
		{"int widens to float", IntType, FloatType, true},
		{"anything to any", named, AnyType, true},
		{"void to any", VoidType, AnyType, false},
		{"untyped anywhere", Untyped, IntType, true},
		{"same named", named, NamedType("auth.Principal"), true},
		{"different named", named, NamedType("auth.Other"), false},
		{"deferred to plain", DeferredOf(StringType), StringType, false},
		{"deferred to deferred", DeferredOf(IntType), DeferredOf(IntType), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AssignableTo(tt.src, tt.dst))
		})
	}
}

func TestConvert(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      any
		typ     Type
		want    any
		wantErr bool
	}{
		{"string", "a", StringType, "a", false},
		{"stringer to string", principal{"bob"}, StringType, "principal:bob", false},
		{"int to string fails", int64(1), StringType, nil, true},
		{"int", 3, IntType, int64(3), false},
		{"int32", int32(3), IntType, int64(3), false},
		{"string to int fails", "3", IntType, nil, true},
		{"bool", true, BoolType, true, false},
		{"int to float", int64(2), FloatType, float64(2), false},
		{"float32", float32(1.5), FloatType, float64(1.5), false},
		{"any passes through", principal{"x"}, AnyType, principal{"x"}, false},
		{"named passes through", principal{"x"}, NamedType("p"), principal{"x"}, false},
		{"untyped fails", "x", Untyped, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Convert(tt.in, tt.typ)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrConversion)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"string", "abc", "abc"},
		{"int64", int64(-3), "-3"},
		{"int", 42, "42"},
		{"uint8", uint8(7), "7"},
		{"bool", true, "true"},
		{"float", 1.5, "1.5"},
		{"float32 keeps its precision", float32(1.1), "1.1"},
		{"stringer", principal{"amy"}, "principal:amy"},
		{"error", errors.New("boom"), "boom"},
		{"slice", []int{1, 2}, "[1 2]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.in))
		})
	}
}
