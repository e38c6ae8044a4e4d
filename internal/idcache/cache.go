// Package idcache keeps the identifiers already written to each store so that later
// factories can sample parents without querying. It is owned by a single task and
// is only touched between batches, so it carries no locks.
package idcache

import (
	"math/rand"
	"sort"
)

type Pool struct {
	ids   []any
	index map[any]struct{}
}

func (p *Pool) Len() int {
	if p == nil {
		return 0
	}
	return len(p.ids)
}

type Cache struct {
	pools map[string]*Pool
	attrs map[string]map[any][]any
}

func New() *Cache {
	return &Cache{
		pools: make(map[string]*Pool),
		attrs: make(map[string]map[any][]any),
	}
}

func (c *Cache) pool(kind string) *Pool {
	p, ok := c.pools[kind]
	if !ok {
		p = &Pool{}
		c.pools[kind] = p
	}
	return p
}

// Push appends ids in the order they were written.
func (c *Cache) Push(kind string, ids ...any) {
	p := c.pool(kind)
	p.ids = append(p.ids, ids...)
	if p.index != nil {
		for _, id := range ids {
			p.index[id] = struct{}{}
		}
	}
}

// Replace swaps the pool's content, used by pull refreshes.
func (c *Cache) Replace(kind string, ids []any) {
	c.pools[kind] = &Pool{ids: append([]any(nil), ids...)}
}

// Capture stores attributes of one id, e.g. the facility a department belongs to.
func (c *Cache) Capture(kind string, id any, values []any) {
	m, ok := c.attrs[kind]
	if !ok {
		m = make(map[any][]any)
		c.attrs[kind] = m
	}
	m[id] = values
}

func (c *Cache) Attrs(kind string, id any) ([]any, bool) {
	v, ok := c.attrs[kind][id]
	return v, ok
}

// Attr returns attribute i of id, or nil when it was never captured.
func (c *Cache) Attr(kind string, id any, i int) any {
	v, ok := c.attrs[kind][id]
	if !ok || i >= len(v) {
		return nil
	}
	return v[i]
}

func (c *Cache) Len(kind string) int {
	return c.pools[kind].Len()
}

// At returns the i-th id pushed for kind.
func (c *Cache) At(kind string, i int) any {
	return c.pools[kind].ids[i]
}

// IDs exposes the ordered ids. Callers must not modify the slice.
func (c *Cache) IDs(kind string) []any {
	if p, ok := c.pools[kind]; ok {
		return p.ids
	}
	return nil
}

func (c *Cache) Sample(kind string, rng *rand.Rand) (any, bool) {
	p, ok := c.pools[kind]
	if !ok || len(p.ids) == 0 {
		return nil, false
	}
	return p.ids[rng.Intn(len(p.ids))], true
}

// Subset returns up to n distinct ids drawn at random. Factories cache the result for their lifetime.
func (c *Cache) Subset(kind string, n int, rng *rand.Rand) []any {
	p, ok := c.pools[kind]
	if !ok || len(p.ids) == 0 || n <= 0 {
		return nil
	}
	if n >= len(p.ids) {
		return append([]any(nil), p.ids...)
	}
	out := make([]any, n)
	for i, j := range rng.Perm(len(p.ids))[:n] {
		out[i] = p.ids[j]
	}
	return out
}

func (c *Cache) Contains(kind string, id any) bool {
	p, ok := c.pools[kind]
	if !ok {
		return false
	}
	if p.index == nil {
		p.index = make(map[any]struct{}, len(p.ids))
		for _, v := range p.ids {
			p.index[v] = struct{}{}
		}
	}
	_, found := p.index[id]
	return found
}

func (c *Cache) Reset(kind string) {
	delete(c.pools, kind)
	delete(c.attrs, kind)
}

func (c *Cache) Kinds() []string {
	kinds := make([]string, 0, len(c.pools))
	for k := range c.pools {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
