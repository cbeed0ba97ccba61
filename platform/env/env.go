// Package env describes the caller-supplied evaluation context ("env") and resolves
// injected function parameters against it.
//
// An env is any Go value E. A Schema[E] lists the typed properties an E exposes and,
// optionally, a keyed lookup for everything else. Resolution happens once, when
// functions are bound, and yields an Accessor that reads the value at evaluation time.
package env

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/robbyt/go-polyexpr/platform/data"
	"github.com/robbyt/go-polyexpr/platform/types"
)

var (
	// ErrUnresolvedInjection is returned at bind time when an injected parameter matches
	// no unique property and the schema has no keyed lookup.
	ErrUnresolvedInjection = errors.New("injected parameter cannot be resolved from env")

	// ErrKeyNotFound is returned by ProviderLookup when the key is missing.
	ErrKeyNotFound = errors.New("key not found in env data")
)

// Property is one typed value exposed by an env.
type Property[E any] struct {
	Name string
	Type types.Type
	Get  func(e E) any
}

// Prop builds a Property whose type is derived from the getter's result type.
func Prop[E, T any](name string, get func(E) T) Property[E] {
	return Property[E]{
		Name: name,
		Type: types.Of[T](),
		Get:  func(e E) any { return get(e) },
	}
}

// Lookup is the generic keyed lookup used when no property matches uniquely.
type Lookup[E any] func(ctx context.Context, e E, key types.Type) (any, error)

// Accessor reads one injected value from an env.
type Accessor[E any] func(ctx context.Context, e E) (any, error)

// Schema describes an env type.
type Schema[E any] struct {
	// Name distinguishes schemas of the same shape whose accessors read different
	// values. It is only used to tell cached programs apart.
	Name       string
	Properties []Property[E]
	Lookup     Lookup[E]
}

// Fingerprint identifies the shape of the schema: its name, the names and types of its
// properties, and whether it has a keyed lookup. Accessors are functions and cannot be
// compared, so two schemas of the same shape must differ by Name to be told apart.
func (s Schema[E]) Fingerprint() string {
	var b strings.Builder
	b.WriteString(s.Name)
	b.WriteByte('{')
	for i, p := range s.Properties {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Name)
		b.WriteByte(' ')
		b.WriteString(p.Type.String())
	}
	b.WriteByte('}')
	if s.Lookup != nil {
		b.WriteString("+lookup")
	}
	return b.String()
}

// Resolve returns the accessor for an injected parameter of type t: the unique property
// of that exact type if there is one, the keyed lookup otherwise.
func (s Schema[E]) Resolve(t types.Type) (Accessor[E], error) {
	var match *Property[E]
	count := 0
	for i := range s.Properties {
		if s.Properties[i].Type == t {
			match = &s.Properties[i]
			count++
		}
	}

	if count == 1 && match.Get != nil {
		get := match.Get
		return func(_ context.Context, e E) (any, error) {
			return get(e), nil
		}, nil
	}

	if s.Lookup != nil {
		lookup := s.Lookup
		return func(ctx context.Context, e E) (any, error) {
			return lookup(ctx, e, t)
		}, nil
	}

	return nil, fmt.Errorf("%w: %s matches %d properties", ErrUnresolvedInjection, t, count)
}

// ProviderLookup is a keyed lookup backed by a data provider. The key is t.Name(), so
// named host types are looked up by their Go type string.
func ProviderLookup[E any](g data.Getter) Lookup[E] {
	return func(ctx context.Context, _ E, t types.Type) (any, error) {
		values, err := g.GetData(ctx)
		if err != nil {
			return nil, err
		}
		v, ok := values[t.Name()]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, t.Name())
		}
		return v, nil
	}
}
