package registry

import (
	"errors"
	"fmt"
	"slices"
	"sort"
)

// Provider supplies an ordered set of function definitions.
type Provider interface {
	Definitions() []Definition
}

// Definitions is a slice-backed Provider.
type Definitions []Definition

func (d Definitions) Definitions() []Definition { return d }

// Registry maps function names to descriptors. It is read-only once built and safe for
// concurrent use.
type Registry struct {
	byName map[string]*Descriptor
	order  []*Descriptor
}

// New validates every definition of every provider, in order. All descriptor errors
// are reported together; a duplicate name is an error as well.
func New(providers ...Provider) (*Registry, error) {
	r := &Registry{byName: make(map[string]*Descriptor)}
	var errz []error
	for i, p := range providers {
		if p == nil {
			errz = append(errz, fmt.Errorf("function provider %d is nil", i))
			continue
		}
		for _, def := range p.Definitions() {
			desc, err := NewDescriptor(def)
			if err != nil {
				errz = append(errz, err)
				continue
			}
			if _, exists := r.byName[desc.Name()]; exists {
				errz = append(errz, fmt.Errorf("%w: %s", ErrDuplicateFunction, desc.Name()))
				continue
			}
			r.byName[desc.Name()] = desc
			r.order = append(r.order, desc)
		}
	}
	if len(errz) > 0 {
		return nil, errors.Join(errz...)
	}
	return r, nil
}

// FromDefinitions is New with a single Definitions provider.
func FromDefinitions(defs ...Definition) (*Registry, error) {
	return New(Definitions(defs))
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (*Descriptor, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// Names returns all function names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.order))
	for _, d := range r.order {
		names = append(names, d.Name())
	}
	sort.Strings(names)
	return names
}

// All returns the descriptors in registration order.
func (r *Registry) All() []*Descriptor {
	return slices.Clone(r.order)
}

func (r *Registry) Len() int {
	return len(r.order)
}
