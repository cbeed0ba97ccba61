package compiler

import (
	"slices"
	"time"

	"github.com/robbyt/go-polyexpr/engines/starlark/evaluator"
	"github.com/robbyt/go-polyexpr/platform"
)

// Unit is the result of compiling a batch: one Starlark module with an entry point per
// expression. A unit is immutable and safe for concurrent use.
type Unit[E any] struct {
	id        string
	createdAt time.Time
	source    string
	entries   map[string]*evaluator.Entry[E]
	names     []string
}

// ID identifies the generated source; equal batches produce equal IDs.
func (u *Unit[E]) ID() string { return u.id }

func (u *Unit[E]) CreatedAt() time.Time { return u.createdAt }

// Source returns the generated Starlark source.
func (u *Unit[E]) Source() string { return u.source }

// Names returns the expression names in batch order.
func (u *Unit[E]) Names() []string { return slices.Clone(u.names) }

// Entry returns the entry point compiled under name.
func (u *Unit[E]) Entry(name string) (*evaluator.Entry[E], bool) {
	en, ok := u.entries[name]
	return en, ok
}

// Entries returns every entry point keyed by expression name.
func (u *Unit[E]) Entries() map[string]platform.Program[E] {
	out := make(map[string]platform.Program[E], len(u.entries))
	for name, en := range u.entries {
		out[name] = en
	}
	return out
}

func (u *Unit[E]) String() string {
	return "starlark.Unit(" + u.id + ")"
}
