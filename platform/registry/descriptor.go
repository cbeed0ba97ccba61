// Package registry validates and indexes the functions expressions may call.
//
// Functions are described explicitly: a Definition pairs a name and an entry point with
// the metadata of each parameter. Nothing is discovered by reflection at call time.
package registry

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/robbyt/go-polyexpr/platform/types"
)

// Func is a function entry point. args holds one value per declared parameter, in
// declaration order, injected parameters included. A function whose declared Result is
// deferred returns a future.Deferred.
type Func func(ctx context.Context, args []any) (any, error)

// Param describes one parameter of a function.
type Param struct {
	Name string
	Type types.Type

	// HasDefault marks the parameter optional; Default is used when the expression
	// supplies fewer arguments.
	HasDefault bool
	Default    any

	// Injected parameters are never written in the expression; their value comes from
	// the env at evaluation time.
	Injected bool
}

// Definition is the registration contract for one function.
type Definition struct {
	Name   string
	Params []Param
	Result types.Type
	Call   Func
}

// Descriptor is a validated, immutable Definition.
type Descriptor struct {
	name    string
	params  []Param
	exposed []Param
	result  types.Type
	call    Func
}

// NewDescriptor validates def. It fails if the name is blank, the entry point is nil,
// the result is void, a parameter type is invalid, or a default does not convert to
// its parameter type.
func NewDescriptor(def Definition) (*Descriptor, error) {
	if strings.TrimSpace(def.Name) == "" {
		return nil, ErrBlankName
	}
	if def.Call == nil {
		return nil, fmt.Errorf("%w: %s", ErrNilEntryPoint, def.Name)
	}
	if !def.Result.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrVoidResult, def.Name)
	}

	params := make([]Param, len(def.Params))
	exposed := make([]Param, 0, len(def.Params))
	for i, p := range def.Params {
		if !p.Type.IsValid() {
			return nil, fmt.Errorf("%w: %s parameter %d (%s)", ErrInvalidParameter, def.Name, i, p.Type)
		}
		if p.HasDefault && !p.Injected {
			v, err := types.Convert(p.Default, p.Type)
			if err != nil {
				return nil, fmt.Errorf("%w: %s parameter %d: %w", ErrInvalidDefault, def.Name, i, err)
			}
			p.Default = v
		}
		params[i] = p
		if !p.Injected {
			exposed = append(exposed, p)
		}
	}

	return &Descriptor{
		name:    def.Name,
		params:  params,
		exposed: exposed,
		result:  def.Result,
		call:    def.Call,
	}, nil
}

func (d *Descriptor) Name() string       { return d.name }
func (d *Descriptor) Result() types.Type { return d.result }

// IsAsync reports whether the entry point returns a deferred value.
func (d *Descriptor) IsAsync() bool { return d.result.IsDeferred() }

// Params returns all parameters, injected ones included.
func (d *Descriptor) Params() []Param { return slices.Clone(d.params) }

// NumParams is len(Params()) without the copy.
func (d *Descriptor) NumParams() int { return len(d.params) }

// Param returns the i-th declared parameter.
func (d *Descriptor) Param(i int) Param { return d.params[i] }

// Exposed returns the parameters the expression language sees: all minus injected.
func (d *Descriptor) Exposed() []Param { return slices.Clone(d.exposed) }

// NumExposed is len(Exposed()) without the copy.
func (d *Descriptor) NumExposed() int { return len(d.exposed) }

// RequiredExposed counts exposed parameters without a default.
func (d *Descriptor) RequiredExposed() int {
	n := 0
	for _, p := range d.exposed {
		if !p.HasDefault {
			n++
		}
	}
	return n
}

// Invoke calls the entry point with a fully built argument vector.
func (d *Descriptor) Invoke(ctx context.Context, args []any) (any, error) {
	return d.call(ctx, args)
}

func (d *Descriptor) String() string {
	var b strings.Builder
	b.WriteString(d.name)
	b.WriteByte('(')
	for i, p := range d.exposed {
		if i > 0 {
			b.WriteString(", ")
		}
		if p.Name != "" {
			b.WriteString(p.Name)
			b.WriteByte(' ')
		}
		b.WriteString(p.Type.String())
		if p.HasDefault {
			b.WriteString(" = ")
			b.WriteString(types.Format(p.Default))
		}
	}
	b.WriteString(") ")
	b.WriteString(d.result.String())
	return b.String()
}
