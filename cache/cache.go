// Package cache keeps compiled programs so that compiling the same expression again
// against the same registry, env schema and strategy returns the earlier program.
package cache

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2/simplelru"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/singleflight"

	"github.com/robbyt/go-polyexpr/engines/types"
	"github.com/robbyt/go-polyexpr/platform/ast"
	"github.com/robbyt/go-polyexpr/platform/env"
	"github.com/robbyt/go-polyexpr/platform/registry"
)

// Key identifies a compiled program. Expressions are compared by their printed form, so
// spans do not matter.
type Key struct {
	Strategy types.Type
	Registry *registry.Registry
	Env      string
	Schema   string
	Expr     string
}

// NewKey builds the key of n compiled for env type E against schema.
func NewKey[E any](strategy types.Type, reg *registry.Registry, schema env.Schema[E], n ast.Node) (Key, error) {
	if n == nil {
		return Key{}, ErrNilNode
	}
	return Key{
		Strategy: strategy,
		Registry: reg,
		Env:      fmt.Sprintf("%T", (*E)(nil)),
		Schema:   schema.Fingerprint(),
		Expr:     ast.Format(n),
	}, nil
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s:%s", k.Strategy, k.Env, k.Expr)
}

// ID is the full identity of k as a string, registry and schema included.
func (k Key) ID() string {
	return fmt.Sprintf("%p/%s/%s/%s:%s", k.Registry, k.Strategy, k.Env, k.Schema, k.Expr)
}

// Cache is a size-bounded LRU of compiled programs, safe for concurrent use.
type Cache struct {
	name string

	mtx sync.Mutex
	lru *lru.LRU[Key, any]

	flights singleflight.Group

	requests  prometheus.Counter
	hits      prometheus.Counter
	evictions prometheus.Counter
	items     prometheus.GaugeFunc
}

// New creates a cache holding up to size programs. Metrics are registered with reg;
// a nil reg leaves them unregistered.
func New(name string, size int, reg prometheus.Registerer) (*Cache, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}

	c := &Cache{name: name}
	c.evictions = promauto.With(reg).NewCounter(prometheus.CounterOpts{
		Name:        "polyexpr_cache_evictions_total",
		Help:        "Total number of compiled programs evicted from the cache.",
		ConstLabels: map[string]string{"name": name},
	})

	l, err := lru.NewLRU[Key, any](size, func(Key, any) { c.evictions.Inc() })
	if err != nil {
		return nil, err
	}
	c.lru = l

	c.requests = promauto.With(reg).NewCounter(prometheus.CounterOpts{
		Name:        "polyexpr_cache_requests_total",
		Help:        "Total number of compiled program lookups.",
		ConstLabels: map[string]string{"name": name},
	})
	c.hits = promauto.With(reg).NewCounter(prometheus.CounterOpts{
		Name:        "polyexpr_cache_hits_total",
		Help:        "Total number of compiled program lookups that were a hit.",
		ConstLabels: map[string]string{"name": name},
	})
	c.items = promauto.With(reg).NewGaugeFunc(prometheus.GaugeOpts{
		Name:        "polyexpr_cache_items_count",
		Help:        "Number of compiled programs currently cached.",
		ConstLabels: map[string]string{"name": name},
	}, func() float64 {
		return float64(c.Len())
	})

	return c, nil
}

func (c *Cache) Name() string { return c.name }

// Get returns the program stored under key.
func (c *Cache) Get(key Key) (any, bool) {
	c.requests.Inc()

	c.mtx.Lock()
	defer c.mtx.Unlock()

	v, ok := c.lru.Get(key)
	if ok {
		c.hits.Inc()
	}
	return v, ok
}

// Add stores v under key, evicting the least recently used program when full.
func (c *Cache) Add(key Key, v any) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.lru.Add(key, v)
}

// peek returns the program stored under key without counting a request.
func (c *Cache) peek(key Key) (any, bool) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.lru.Peek(key)
}

// Once runs fn for id, collapsing concurrent calls with the same id into one. Callers
// use it to compile something that is stored in the cache afterwards.
func (c *Cache) Once(id string, fn func() (any, error)) (any, error) {
	v, err, _ := c.flights.Do(id, fn)
	return v, err
}

// GetOrCompile returns the cached program for key or compiles, stores and returns a new
// one. Compilation runs outside the lock and concurrent misses for the same key share a
// single compilation. Failed compilations are not cached.
func GetOrCompile[P any](c *Cache, key Key, compile func() (P, error)) (P, error) {
	if v, ok := c.Get(key); ok {
		if p, ok := v.(P); ok {
			return p, nil
		}
	}

	v, err := c.Once(key.ID(), func() (any, error) {
		if v, ok := c.peek(key); ok {
			if p, ok := v.(P); ok {
				return p, nil
			}
		}
		p, err := compile()
		if err != nil {
			return nil, err
		}
		c.Add(key, p)
		return p, nil
	})
	if err != nil {
		var zero P
		return zero, err
	}
	if p, ok := v.(P); ok {
		return p, nil
	}
	// a concurrent caller stored a different type under the same key
	return compile()
}

func (c *Cache) Remove(key Key) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.lru.Remove(key)
}

func (c *Cache) Len() int {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.lru.Len()
}

// Purge drops every cached program.
func (c *Cache) Purge() {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.lru.Purge()
}
