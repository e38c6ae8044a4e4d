package planner

import (
	"fmt"

	"github.com/Rana718/mfgseed/internal/schema"
)

// Plan is the population order of one store plus the edges that the order deliberately ignores.
type Plan struct {
	Store    schema.Store
	Order    []*schema.Entity
	Deferred []schema.Edge
	SelfRefs []schema.Edge
	Upstream []schema.Edge
}

func (p *Plan) Names() []string {
	names := make([]string, len(p.Order))
	for i, e := range p.Order {
		names[i] = e.Name
	}
	return names
}

// DropOrder is the reverse of the population order.
func (p *Plan) DropOrder() []*schema.Entity {
	out := make([]*schema.Entity, len(p.Order))
	for i, e := range p.Order {
		out[len(p.Order)-1-i] = e
	}
	return out
}

func (p *Plan) Position(name string) int {
	for i, e := range p.Order {
		if e.Name == name {
			return i
		}
	}
	return -1
}

func Build(c *schema.Catalog, store schema.Store) (*Plan, error) {
	entities := c.Entities(store)
	g := NewDependencyGraph()
	for _, e := range entities {
		g.AddEntity(e)
	}

	order, err := g.BuildInsertionOrder()
	if err != nil {
		return nil, fmt.Errorf("failed to build insertion order for %s: %w", store, err)
	}

	plan := &Plan{Store: store}
	for _, name := range order {
		e, _ := c.Entity(name)
		plan.Order = append(plan.Order, e)
	}

	for _, edge := range c.Edges(store) {
		switch {
		case edge.CrossStore:
			plan.Upstream = append(plan.Upstream, edge)
		case edge.Deferred:
			plan.Deferred = append(plan.Deferred, edge)
		case edge.SelfRef:
			plan.SelfRefs = append(plan.SelfRefs, edge)
		}
	}

	if err := plan.validate(c); err != nil {
		return nil, err
	}
	return plan, nil
}

// validate checks that every NOT NULL reference can be satisfied when its row is written.
func (p *Plan) validate(c *schema.Catalog) error {
	pos := make(map[string]int, len(p.Order))
	for i, e := range p.Order {
		pos[e.Name] = i
	}
	for _, edge := range c.Edges(p.Store) {
		if edge.Nullable || edge.CrossStore {
			continue
		}
		if edge.SelfRef {
			return fmt.Errorf("entity %s has NOT NULL self reference %s", edge.From, edge.Column)
		}
		if pos[edge.To] >= pos[edge.From] {
			return fmt.Errorf("entity %s has NOT NULL reference %s but %s is populated later",
				edge.From, edge.Column, edge.To)
		}
	}

	storeRank := make(map[schema.Store]int)
	for i, s := range schema.StoreOrder {
		storeRank[s] = i
	}
	for _, edge := range p.Upstream {
		target, _ := c.Entity(edge.To)
		if storeRank[target.Store] >= storeRank[p.Store] {
			return fmt.Errorf("cross-store reference %s.%s points at %s in a store populated later",
				edge.From, edge.Column, edge.To)
		}
	}
	return nil
}

// BuildAll plans every store in population order.
func BuildAll(c *schema.Catalog) ([]*Plan, error) {
	var plans []*Plan
	for _, s := range schema.StoreOrder {
		p, err := Build(c, s)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, nil
}
