package graph

import (
	"slices"
	"strings"
)

// accessPath recovers one operand from the value of a reduction tree. Steps are ordered
// outermost first.
type accessPath []side

func (p accessPath) String() string {
	if len(p) == 0 {
		return "."
	}
	parts := make([]string, len(p))
	for i, s := range p {
		parts[i] = s.String()
	}
	return strings.Join(parts, ".")
}

// reduction is the result of merging deferred operands into one.
type reduction[T any] struct {
	root     T
	paths    []accessPath
	rounds   int
	combines int
}

// reduce merges items with balanced pairwise rounds: adjacent pairs are combined left
// to right and an odd item out is carried into the next round unchanged. paths[i]
// locates items[i] in the value of root. items must not be empty.
func reduce[T any](items []T, combine func(a, b T) T) reduction[T] {
	type group struct {
		item    T
		members []int
	}

	r := reduction[T]{paths: make([]accessPath, len(items))}
	groups := make([]group, len(items))
	for i, it := range items {
		groups[i] = group{item: it, members: []int{i}}
	}

	for len(groups) > 1 {
		r.rounds++
		next := make([]group, 0, (len(groups)+1)/2)
		for i := 0; i+1 < len(groups); i += 2 {
			left, right := groups[i], groups[i+1]
			for _, m := range left.members {
				r.paths[m] = slices.Insert(r.paths[m], 0, first)
			}
			for _, m := range right.members {
				r.paths[m] = slices.Insert(r.paths[m], 0, second)
			}
			next = append(next, group{
				item:    combine(left.item, right.item),
				members: slices.Concat(left.members, right.members),
			})
			r.combines++
		}
		if len(groups)%2 == 1 {
			next = append(next, groups[len(groups)-1])
		}
		groups = next
	}

	r.root = groups[0].item
	return r
}

// project builds the projection chain that follows path from src.
func project[E any](src node[E], path accessPath) node[E] {
	n := src
	for _, s := range path {
		n = &projectNode[E]{src: n, side: s}
	}
	return n
}
