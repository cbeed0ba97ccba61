// Package types is the static type model shared by the registry, the checker and the
// evaluators. A Type is a small comparable value; the deferred flag marks a value that
// is produced asynchronously (see package future).
package types

import (
	"reflect"
)

// Kind classifies a Type.
type Kind uint8

const (
	// Invalid is the zero Kind; a Type of this kind is the "untyped" sentinel the
	// checker degrades to after an error.
	Invalid Kind = iota
	Void
	String
	Int
	Bool
	Float
	Any
	Named
)

var kindNames = [...]string{
	Invalid: "untyped",
	Void:    "void",
	String:  "string",
	Int:     "int",
	Bool:    "bool",
	Float:   "float",
	Any:     "any",
	Named:   "named",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Type is a static expression type.
type Type struct {
	kind     Kind
	name     string
	deferred bool
}

var (
	Untyped    = Type{}
	VoidType   = Type{kind: Void}
	StringType = Type{kind: String}
	IntType    = Type{kind: Int}
	BoolType   = Type{kind: Bool}
	FloatType  = Type{kind: Float}
	AnyType    = Type{kind: Any}
)

// NamedType is an opaque host type identified by name, typically an injected service.
func NamedType(name string) Type {
	return Type{kind: Named, name: name}
}

// DeferredOf marks t as produced asynchronously. Only one level is tracked.
func DeferredOf(t Type) Type {
	t.deferred = true
	return t
}

// Of returns the Type of the Go type T. Strings, integers, booleans and floats map to
// their scalar kinds, the empty interface maps to Any, anything else is Named by its
// Go type string.
func Of[T any]() Type {
	return FromReflect(reflect.TypeFor[T]())
}

// FromReflect is Of for a reflect.Type.
func FromReflect(rt reflect.Type) Type {
	if rt == nil {
		return AnyType
	}
	switch rt.Kind() {
	case reflect.String:
		return StringType
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return IntType
	case reflect.Bool:
		return BoolType
	case reflect.Float32, reflect.Float64:
		return FloatType
	case reflect.Interface:
		if rt.NumMethod() == 0 {
			return AnyType
		}
	}
	return NamedType(rt.String())
}

func (t Type) Kind() Kind { return t.kind }

// Name is the key used for keyed env lookups: the host type name for Named types and
// the kind name otherwise.
func (t Type) Name() string {
	if t.kind == Named {
		return t.name
	}
	return t.kind.String()
}

func (t Type) IsDeferred() bool { return t.deferred }

// IsValid is false for Untyped and Void.
func (t Type) IsValid() bool { return t.kind != Invalid && t.kind != Void }

// Unwrap removes one level of deferred typing.
func (t Type) Unwrap() Type {
	t.deferred = false
	return t
}

func (t Type) String() string {
	if t.deferred {
		return "deferred[" + t.Unwrap().String() + "]"
	}
	return t.Name()
}

// AssignableTo reports whether a value of type src may be passed where dst is expected.
// Untyped values are assignable anywhere so an earlier error does not cascade.
func AssignableTo(src, dst Type) bool {
	switch {
	case src.kind == Invalid:
		return true
	case src.deferred != dst.deferred:
		return false
	case dst.kind == Any:
		return src.kind != Void
	case src.kind == Int && dst.kind == Float:
		return true
	}
	return src.kind == dst.kind && src.name == dst.name
}
