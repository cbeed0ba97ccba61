// Package binding turns function descriptors into callers. Every parameter is resolved
// once, when the caller is built, into a slot that either reads the next positional
// argument or reads an injected value from the env.
package binding

import (
	"context"
	"errors"
	"fmt"

	"github.com/robbyt/go-polyexpr/platform/env"
	"github.com/robbyt/go-polyexpr/platform/future"
	"github.com/robbyt/go-polyexpr/platform/registry"
	"github.com/robbyt/go-polyexpr/platform/types"
)

type slot[E any] struct {
	param    registry.Param
	position int // index into the positional arguments, -1 when injected
	inject   env.Accessor[E]
}

// Caller invokes one registered function against an env.
type Caller[E any] struct {
	desc     *registry.Descriptor
	slots    []slot[E]
	exposed  int
	required int
}

// Bind resolves every parameter of desc against schema.
func Bind[E any](desc *registry.Descriptor, schema env.Schema[E]) (*Caller[E], error) {
	if desc == nil {
		return nil, ErrNilDescriptor
	}

	c := &Caller[E]{
		desc:     desc,
		slots:    make([]slot[E], desc.NumParams()),
		required: desc.RequiredExposed(),
	}
	for i := range desc.NumParams() {
		p := desc.Param(i)
		s := slot[E]{param: p, position: -1}
		if p.Injected {
			acc, err := schema.Resolve(p.Type)
			if err != nil {
				return nil, fmt.Errorf("%s parameter %d: %w", desc.Name(), i, err)
			}
			s.inject = acc
		} else {
			s.position = c.exposed
			c.exposed++
		}
		c.slots[i] = s
	}
	return c, nil
}

// Callers maps function names to their callers.
type Callers[E any] map[string]*Caller[E]

// BindAll binds every function in reg. All failures are reported together.
func BindAll[E any](reg *registry.Registry, schema env.Schema[E]) (Callers[E], error) {
	out := make(Callers[E], reg.Len())
	var errz []error
	for _, d := range reg.All() {
		c, err := Bind(d, schema)
		if err != nil {
			errz = append(errz, err)
			continue
		}
		out[d.Name()] = c
	}
	if len(errz) > 0 {
		return nil, errors.Join(errz...)
	}
	return out, nil
}

// Descriptor returns the bound function's descriptor.
func (c *Caller[E]) Descriptor() *registry.Descriptor { return c.desc }

// Name is the function name.
func (c *Caller[E]) Name() string { return c.desc.Name() }

// IsAsync reports whether Call returns a future.Deferred.
func (c *Caller[E]) IsAsync() bool { return c.desc.IsAsync() }

// CheckArity validates an argument count without calling anything.
func (c *Caller[E]) CheckArity(n int) error {
	if n > c.exposed {
		return fmt.Errorf("%w: %s expects at most %d, got %d", ErrTooManyArguments, c.desc.Name(), c.exposed, n)
	}
	if n < c.required {
		// the first parameter left without a value names the error
		for _, s := range c.slots {
			if s.position >= n && !s.param.HasDefault {
				return fmt.Errorf("%w: %s parameter %d (%s)", ErrMissingArgument, c.desc.Name(), s.position, s.param.Name)
			}
		}
	}
	return nil
}

// Call builds the full argument vector from the positional args and env, then invokes
// the entry point. args must already be awaited. Entry point errors are returned as is;
// a panic in the entry point is returned as ErrFunctionPanicked.
func (c *Caller[E]) Call(ctx context.Context, e E, args []any) (any, error) {
	if err := c.CheckArity(len(args)); err != nil {
		return nil, err
	}

	vector := make([]any, len(c.slots))
	for i, s := range c.slots {
		switch {
		case s.inject != nil:
			v, err := s.inject(ctx, e)
			if err != nil {
				return nil, err
			}
			vector[i] = v
		case s.position < len(args):
			v, err := types.Convert(args[s.position], s.param.Type)
			if err != nil {
				return nil, fmt.Errorf("%s argument %d: %w", c.desc.Name(), s.position, err)
			}
			vector[i] = v
		default:
			vector[i] = s.param.Default
		}
	}

	v, err := c.invoke(ctx, vector)
	if err != nil {
		return nil, err
	}
	if c.desc.IsAsync() && !future.Is(v) {
		return nil, fmt.Errorf("%w: %s returned %T", ErrNotDeferred, c.desc.Name(), v)
	}
	return v, nil
}

func (c *Caller[E]) invoke(ctx context.Context, vector []any) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, err = nil, fmt.Errorf("%w: %s: %v", ErrFunctionPanicked, c.desc.Name(), r)
		}
	}()
	return c.desc.Invoke(ctx, vector)
}
