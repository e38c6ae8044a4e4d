package schema

import (
	"fmt"
	"regexp"
	"strings"
)

// validIdentifier guards every table, collection and column name that ends up in generated SQL.
var validIdentifier = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

type Store string

const (
	Master     Store = "master"
	Operations Store = "operations"
	Documents  Store = "documents"
)

// StoreOrder is the order in which the orchestrator populates stores.
var StoreOrder = []Store{Master, Operations, Documents}

func ParseStore(s string) (Store, error) {
	switch Store(strings.ToLower(s)) {
	case Master:
		return Master, nil
	case Operations:
		return Operations, nil
	case Documents:
		return Documents, nil
	}
	return "", fmt.Errorf("unknown store %q (expected master, operations or documents)", s)
}

type IDPolicy int

const (
	Surrogate IDPolicy = iota
	Code
	Token
)

func (p IDPolicy) String() string {
	switch p {
	case Surrogate:
		return "surrogate"
	case Code:
		return "code"
	case Token:
		return "token"
	}
	return "unknown"
}

type Type int

const (
	Serial Type = iota
	Integer
	BigInt
	Text
	Decimal
	Float
	Date
	Timestamp
	Boolean
	ObjectID
	Point
)

type Ref struct {
	Entity string
	// Deferred references are inserted as NULL and filled by the cycle resolver.
	Deferred bool
	// Optional deferred references may legitimately stay NULL after resolution.
	Optional bool
	// Pool restricts sampling to a tagged subset of the target, e.g. vendors.
	Pool string
}

type Column struct {
	Name     string
	Type     Type
	Size     int
	Nullable bool
	Ref      *Ref
}

// TagRule files an entity's ids into a named pool when Column matches Value.
type TagRule struct {
	Name     string
	Column   string
	Value    string
	Contains bool
}

func (r TagRule) Match(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	if r.Contains {
		return strings.Contains(s, r.Value)
	}
	return s == r.Value
}

// PoolName is the ID cache key of a tagged pool.
func PoolName(kind, tag string) string {
	return kind + "/" + tag
}

type Entity struct {
	Name     string
	Store    Store
	ID       IDPolicy
	IDColumn string
	Columns  []Column

	Unique      [][]string
	Temporal    [][2]string // {start, end}
	Coordinates [][2]string // {latitude, longitude}
	Indexes     [][]string

	Tags    []TagRule
	Capture []string
}

func (e *Entity) Column(name string) (Column, bool) {
	for _, c := range e.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// InsertColumns returns the columns a factory must supply, i.e. everything but a store-assigned key.
func (e *Entity) InsertColumns() []Column {
	cols := make([]Column, 0, len(e.Columns))
	for _, c := range e.Columns {
		if c.Type == Serial {
			continue
		}
		cols = append(cols, c)
	}
	return cols
}

func (e *Entity) InsertColumnNames() []string {
	cols := e.InsertColumns()
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

// GeoFields lists the GeoJSON Point columns, which get 2dsphere indexes after population.
func (e *Entity) GeoFields() []string {
	var out []string
	for _, c := range e.Columns {
		if c.Type == Point {
			out = append(out, c.Name)
		}
	}
	return out
}

func (e *Entity) DeferredColumns() []Column {
	var out []Column
	for _, c := range e.Columns {
		if c.Ref != nil && c.Ref.Deferred {
			out = append(out, c)
		}
	}
	return out
}

func (e *Entity) validate() error {
	if !validIdentifier.MatchString(e.Name) {
		return fmt.Errorf("invalid entity name: %s", e.Name)
	}
	seen := make(map[string]bool, len(e.Columns))
	for _, c := range e.Columns {
		if !validIdentifier.MatchString(c.Name) {
			return fmt.Errorf("invalid column name in %s: %s", e.Name, c.Name)
		}
		if seen[c.Name] {
			return fmt.Errorf("duplicate column %s.%s", e.Name, c.Name)
		}
		seen[c.Name] = true
		if c.Ref != nil && c.Ref.Deferred && !c.Nullable {
			return fmt.Errorf("deferred column %s.%s must be nullable", e.Name, c.Name)
		}
	}
	if !seen[e.IDColumn] {
		return fmt.Errorf("entity %s: id column %s is not declared", e.Name, e.IDColumn)
	}
	check := func(what string, names ...string) error {
		for _, n := range names {
			if !seen[n] {
				return fmt.Errorf("entity %s: %s references unknown column %s", e.Name, what, n)
			}
		}
		return nil
	}
	for _, u := range e.Unique {
		if err := check("unique key", u...); err != nil {
			return err
		}
	}
	for _, p := range e.Temporal {
		if err := check("temporal pair", p[0], p[1]); err != nil {
			return err
		}
	}
	for _, p := range e.Coordinates {
		if err := check("coordinate pair", p[0], p[1]); err != nil {
			return err
		}
	}
	for _, ix := range e.Indexes {
		if err := check("index", ix...); err != nil {
			return err
		}
	}
	for _, t := range e.Tags {
		if err := check("tag "+t.Name, t.Column); err != nil {
			return err
		}
	}
	return check("capture", e.Capture...)
}

// Edge is one reference between entity kinds.
type Edge struct {
	From       string
	To         string
	Column     string
	Nullable   bool
	Deferred   bool
	Optional   bool
	SelfRef    bool
	CrossStore bool
}

func (e Edge) String() string {
	s := fmt.Sprintf("%s.%s → %s", e.From, e.Column, e.To)
	switch {
	case e.Deferred:
		s += " (deferred)"
	case e.CrossStore:
		s += " (cross-store)"
	case e.SelfRef:
		s += " (self)"
	}
	return s
}

type Catalog struct {
	entities []*Entity
	byName   map[string]*Entity
}

func NewCatalog(entities ...*Entity) (*Catalog, error) {
	c := &Catalog{byName: make(map[string]*Entity, len(entities))}
	for _, e := range entities {
		if err := e.validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byName[e.Name]; dup {
			return nil, fmt.Errorf("entity %s declared twice", e.Name)
		}
		c.byName[e.Name] = e
		c.entities = append(c.entities, e)
	}
	for _, e := range entities {
		for _, col := range e.Columns {
			if col.Ref == nil {
				continue
			}
			if _, ok := c.byName[col.Ref.Entity]; !ok {
				return nil, fmt.Errorf("%s.%s references unknown entity %s", e.Name, col.Name, col.Ref.Entity)
			}
		}
	}
	return c, nil
}

func (c *Catalog) Entity(name string) (*Entity, bool) {
	e, ok := c.byName[name]
	return e, ok
}

func (c *Catalog) All() []*Entity {
	return append([]*Entity(nil), c.entities...)
}

// Entities returns the entities owned by a store, in declaration order.
func (c *Catalog) Entities(store Store) []*Entity {
	var out []*Entity
	for _, e := range c.entities {
		if e.Store == store {
			out = append(out, e)
		}
	}
	return out
}

// Edges returns every reference leaving an entity of the given store.
func (c *Catalog) Edges(store Store) []Edge {
	var out []Edge
	for _, e := range c.Entities(store) {
		out = append(out, c.EdgesFrom(e)...)
	}
	return out
}

func (c *Catalog) EdgesFrom(e *Entity) []Edge {
	var out []Edge
	for _, col := range e.Columns {
		if col.Ref == nil {
			continue
		}
		target := c.byName[col.Ref.Entity]
		out = append(out, Edge{
			From:       e.Name,
			To:         col.Ref.Entity,
			Column:     col.Name,
			Nullable:   col.Nullable,
			Deferred:   col.Ref.Deferred,
			Optional:   col.Ref.Optional,
			SelfRef:    col.Ref.Entity == e.Name,
			CrossStore: target != nil && target.Store != e.Store,
		})
	}
	return out
}

// Upstream lists the stores whose ids the given store's entities reference.
func (c *Catalog) Upstream(store Store) []Store {
	seen := make(map[Store]bool)
	for _, edge := range c.Edges(store) {
		if edge.CrossStore {
			seen[c.byName[edge.To].Store] = true
		}
	}
	var out []Store
	for _, s := range StoreOrder {
		if seen[s] {
			out = append(out, s)
		}
	}
	return out
}

// GeoPoint is the value factories emit for Point columns. Stores write it as a
// GeoJSON Point whose coordinates are [longitude, latitude].
type GeoPoint struct {
	Longitude float64
	Latitude  float64
}

func (p GeoPoint) Coordinates() []float64 {
	return []float64{p.Longitude, p.Latitude}
}
