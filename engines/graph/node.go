package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/robbyt/go-polyexpr/platform/binding"
	"github.com/robbyt/go-polyexpr/platform/future"
	"github.com/robbyt/go-polyexpr/platform/types"
)

// frame is the per-evaluation state: the env and one local per continuation parameter.
type frame[E any] struct {
	ctx    context.Context
	env    E
	locals []any
}

type evalFn[E any] func(f *frame[E]) (any, error)

// node is one vertex of the computation graph. Nodes never block: an async node
// returns a future.Deferred and everything that depends on it is attached as a
// continuation.
type node[E any] interface {
	async() bool

	// children are the nodes evaluated directly by this node.
	children() []node[E]

	// blocks are the continuation blocks embedded in this node.
	blocks() []*lambda[E]

	// compile turns the node into a closure. Every embedded block must already be
	// finalized.
	compile() evalFn[E]
}

// lambda is a continuation block. Until finalize runs it is data; afterwards fn holds
// the executable closure. A block with a slot stores its argument in that local.
type lambda[E any] struct {
	slot int
	body node[E]
	fn   func(f *frame[E], v any) (any, error)
}

const noSlot = -1

func (l *lambda[E]) finalize() bool {
	if l.fn != nil {
		return false
	}
	body, slot := l.body.compile(), l.slot
	if slot == noSlot {
		l.fn = func(f *frame[E], _ any) (any, error) { return body(f) }
		return true
	}
	l.fn = func(f *frame[E], v any) (any, error) {
		f.locals[slot] = v
		return body(f)
	}
	return true
}

func (l *lambda[E]) mustFn() func(f *frame[E], v any) (any, error) {
	if l.fn == nil {
		panic("graph: continuation block used before finalization")
	}
	return l.fn
}

type constNode[E any] struct {
	val any
}

func (n *constNode[E]) async() bool          { return false }
func (n *constNode[E]) children() []node[E]  { return nil }
func (n *constNode[E]) blocks() []*lambda[E] { return nil }
func (n *constNode[E]) compile() evalFn[E] {
	v := n.val
	return func(*frame[E]) (any, error) { return v, nil }
}

type localNode[E any] struct {
	slot int
}

func (n *localNode[E]) async() bool          { return false }
func (n *localNode[E]) children() []node[E]  { return nil }
func (n *localNode[E]) blocks() []*lambda[E] { return nil }
func (n *localNode[E]) compile() evalFn[E] {
	slot := n.slot
	return func(f *frame[E]) (any, error) { return f.locals[slot], nil }
}

// side selects one half of a future.Pair.
type side uint8

const (
	first side = iota
	second
)

func (s side) String() string {
	if s == first {
		return "First"
	}
	return "Second"
}

type projectNode[E any] struct {
	src  node[E]
	side side
}

func (n *projectNode[E]) async() bool          { return false }
func (n *projectNode[E]) children() []node[E]  { return []node[E]{n.src} }
func (n *projectNode[E]) blocks() []*lambda[E] { return nil }
func (n *projectNode[E]) compile() evalFn[E] {
	src, s := n.src.compile(), n.side
	return func(f *frame[E]) (any, error) {
		v, err := src(f)
		if err != nil {
			return nil, err
		}
		p, ok := v.(future.Pair)
		if !ok {
			return nil, fmt.Errorf("graph: projection %s of %T", s, v)
		}
		if s == first {
			return p.First, nil
		}
		return p.Second, nil
	}
}

// invokeNode calls a function with synchronous arguments.
type invokeNode[E any] struct {
	caller *binding.Caller[E]
	args   []node[E]
}

func (n *invokeNode[E]) async() bool          { return n.caller.IsAsync() }
func (n *invokeNode[E]) children() []node[E]  { return n.args }
func (n *invokeNode[E]) blocks() []*lambda[E] { return nil }
func (n *invokeNode[E]) compile() evalFn[E] {
	c := n.caller
	args := compileAll(n.args)
	return func(f *frame[E]) (any, error) {
		vals := make([]any, len(args))
		for i, a := range args {
			v, err := a(f)
			if err != nil {
				return nil, err
			}
			vals[i] = v
		}
		return c.Call(f.ctx, f.env, vals)
	}
}

// immediateNode lifts a synchronous value into a completed future so it can take its
// place in a combine chain.
type immediateNode[E any] struct {
	src node[E]
}

func (n *immediateNode[E]) async() bool          { return true }
func (n *immediateNode[E]) children() []node[E]  { return []node[E]{n.src} }
func (n *immediateNode[E]) blocks() []*lambda[E] { return nil }
func (n *immediateNode[E]) compile() evalFn[E] {
	src := n.src.compile()
	return func(f *frame[E]) (any, error) {
		v, err := src(f)
		if err != nil {
			return nil, err
		}
		return future.Resolved(v), nil
	}
}

// concatNode joins the natural string forms of its parts. One, two and three parts
// have their own closures; larger counts go through a slice.
type concatNode[E any] struct {
	parts []node[E]
}

func (n *concatNode[E]) async() bool          { return false }
func (n *concatNode[E]) children() []node[E]  { return n.parts }
func (n *concatNode[E]) blocks() []*lambda[E] { return nil }
func (n *concatNode[E]) compile() evalFn[E] {
	parts := compileAll(n.parts)
	switch len(parts) {
	case 1:
		a := parts[0]
		return func(f *frame[E]) (any, error) {
			v, err := a(f)
			if err != nil {
				return nil, err
			}
			return types.Format(v), nil
		}
	case 2:
		a, b := parts[0], parts[1]
		return func(f *frame[E]) (any, error) {
			va, err := a(f)
			if err != nil {
				return nil, err
			}
			vb, err := b(f)
			if err != nil {
				return nil, err
			}
			return types.Format(va) + types.Format(vb), nil
		}
	case 3:
		a, b, c := parts[0], parts[1], parts[2]
		return func(f *frame[E]) (any, error) {
			va, err := a(f)
			if err != nil {
				return nil, err
			}
			vb, err := b(f)
			if err != nil {
				return nil, err
			}
			vc, err := c(f)
			if err != nil {
				return nil, err
			}
			return types.Format(va) + types.Format(vb) + types.Format(vc), nil
		}
	}
	return func(f *frame[E]) (any, error) {
		strs := make([]string, len(parts))
		for i, p := range parts {
			v, err := p(f)
			if err != nil {
				return nil, err
			}
			strs[i] = types.Format(v)
		}
		return strings.Join(strs, ""), nil
	}
}

// combineNode waits for first, then runs the second block and waits for its result.
// The value is a future.Pair.
type combineNode[E any] struct {
	first  node[E]
	second *lambda[E]
}

func (n *combineNode[E]) async() bool          { return true }
func (n *combineNode[E]) children() []node[E]  { return []node[E]{n.first} }
func (n *combineNode[E]) blocks() []*lambda[E] { return []*lambda[E]{n.second} }
func (n *combineNode[E]) compile() evalFn[E] {
	firstFn, secondFn := n.first.compile(), n.second.mustFn()
	return func(f *frame[E]) (any, error) {
		d, err := deferredOf(firstFn(f))
		if err != nil {
			return nil, err
		}
		return future.Combine(d, func() (future.Deferred, error) {
			return deferredOf(secondFn(f, nil))
		}), nil
	}
}

// thenNode waits for src and passes its value to the continuation block. With
// awaitResult the block's own deferred result is awaited too.
type thenNode[E any] struct {
	src         node[E]
	k           *lambda[E]
	awaitResult bool
}

func (n *thenNode[E]) async() bool          { return true }
func (n *thenNode[E]) children() []node[E]  { return []node[E]{n.src} }
func (n *thenNode[E]) blocks() []*lambda[E] { return []*lambda[E]{n.k} }
func (n *thenNode[E]) compile() evalFn[E] {
	src, k := n.src.compile(), n.k.mustFn()
	if n.awaitResult {
		return func(f *frame[E]) (any, error) {
			d, err := deferredOf(src(f))
			if err != nil {
				return nil, err
			}
			return future.ThenAwait(d, func(v any) (future.Deferred, error) {
				return deferredOf(k(f, v))
			}), nil
		}
	}
	return func(f *frame[E]) (any, error) {
		d, err := deferredOf(src(f))
		if err != nil {
			return nil, err
		}
		return future.Then(d, func(v any) (any, error) {
			return k(f, v)
		}), nil
	}
}

func compileAll[E any](nodes []node[E]) []evalFn[E] {
	out := make([]evalFn[E], len(nodes))
	for i, n := range nodes {
		out[i] = n.compile()
	}
	return out
}

func deferredOf(v any, err error) (future.Deferred, error) {
	if err != nil {
		return nil, err
	}
	d, ok := v.(future.Deferred)
	if !ok || d == nil {
		return nil, fmt.Errorf("%w: got %T", future.ErrNilDeferred, v)
	}
	return d, nil
}
