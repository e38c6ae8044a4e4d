package planner

import (
	"fmt"
	"strings"

	"github.com/Rana718/mfgseed/internal/schema"
)

// DependencyGraph orders the entities of one store so every non-deferred reference
// points at an entity that is populated earlier.
type DependencyGraph struct {
	entities map[string]*schema.Entity
	names    []string
	deps     map[string][]string
}

func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		entities: make(map[string]*schema.Entity),
		deps:     make(map[string][]string),
	}
}

// AddEntity registers an entity. Registration order is the tie-break between independent entities.
func (g *DependencyGraph) AddEntity(e *schema.Entity) {
	if _, ok := g.entities[e.Name]; !ok {
		g.names = append(g.names, e.Name)
	}
	g.entities[e.Name] = e
}

func (g *DependencyGraph) BuildInsertionOrder() ([]string, error) {
	for _, name := range g.names {
		e := g.entities[name]
		var deps []string
		for _, c := range e.Columns {
			if c.Ref == nil || c.Ref.Deferred || c.Ref.Entity == name {
				continue
			}
			// references into another store are satisfied by store ordering, not by this graph
			if _, local := g.entities[c.Ref.Entity]; !local {
				continue
			}
			deps = append(deps, c.Ref.Entity)
		}
		g.deps[name] = deps
	}

	visited := make(map[string]bool)
	temp := make(map[string]bool)
	var order []string
	var path []string

	var visit func(string) error
	visit = func(name string) error {
		if temp[name] {
			return fmt.Errorf("circular dependency detected involving entity: %s (%s → %s); mark one edge deferred",
				name, strings.Join(path, " → "), name)
		}
		if visited[name] {
			return nil
		}

		temp[name] = true
		path = append(path, name)
		for _, dep := range g.deps[name] {
			if err := visit(dep); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]

		temp[name] = false
		visited[name] = true
		order = append(order, name)
		return nil
	}

	for _, name := range g.names {
		if !visited[name] {
			if err := visit(name); err != nil {
				return nil, err
			}
		}
	}

	return order, nil
}
