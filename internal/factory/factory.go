// Package factory holds one row factory per entity kind. A factory is a pure function
// of the row index and its Context: it reads parent ids from the ID cache and draws
// everything else from the per-kind random source, so it never performs I/O.
package factory

import (
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand"
	"sort"
	"time"

	"github.com/Rana718/mfgseed/internal/config"
	"github.com/Rana718/mfgseed/internal/faker"
	"github.com/Rana718/mfgseed/internal/idcache"
	"github.com/Rana718/mfgseed/internal/schema"
)

// ErrEmptyPool means a NOT NULL reference has no parent ids to draw from.
var ErrEmptyPool = errors.New("no parent ids available")

// ErrMissingAttribute means a parent id was found without the attributes captured
// when it was written, so a value copied from it cannot be filled in.
var ErrMissingAttribute = errors.New("parent attribute not captured")

// Row maps column names to values. Point columns carry a schema.GeoPoint.
type Row map[string]any

type Func func(i int, ctx *Context) (Row, error)

// Constructor validates the parent pools of a kind and returns its factory. State
// that lives for the whole population of the kind (used-sets, groupings) is built here.
type Constructor func(ctx *Context) (Func, error)

type Context struct {
	Cache    *idcache.Cache
	Rand     *rand.Rand
	Faker    *faker.Faker
	Entry    config.Entry
	RefDate  time.Time
	BOMDates int
}

// NewContext derives the random source of a kind from the run seed, so that the
// rows of one kind do not depend on how many values other kinds consumed.
func NewContext(cache *idcache.Cache, seed int64, entry config.Entry, refDate time.Time, bomDates int) *Context {
	rng := rand.New(rand.NewSource(KindSeed(seed, entry.Kind)))
	if bomDates < 1 {
		bomDates = 1
	}
	return &Context{
		Cache:    cache,
		Rand:     rng,
		Faker:    faker.New(rng),
		Entry:    entry,
		RefDate:  refDate,
		BOMDates: bomDates,
	}
}

func KindSeed(seed int64, kind string) int64 {
	h := fnv.New64a()
	h.Write([]byte(kind))
	return seed ^ int64(h.Sum64())
}

var registry = map[string]Constructor{
	schema.Facility:        newFacility,
	schema.CostCenter:      newCostCenter,
	schema.Department:      newDepartment,
	schema.JobRole:         newJobRole,
	schema.Employee:        newEmployee,
	schema.BusinessPartner: newBusinessPartner,
	schema.Specification:   newSpecification,
	schema.Material:        newMaterial,
	schema.BillOfMaterials: newBillOfMaterials,

	schema.WorkCenter:        newWorkCenter,
	schema.Equipment:         newEquipment,
	schema.ProductionOrder:   newProductionOrder,
	schema.QualityInspection: newQualityInspection,
	schema.MaintenanceOrder:  newMaintenanceOrder,
	schema.PurchaseOrder:     newPurchaseOrder,
	schema.PurchaseOrderLine: newPurchaseOrderLine,
	schema.Shipment:          newShipment,

	schema.GeographicLocation: newGeographicLocation,
	schema.IoTSensor:          newIoTSensor,
	schema.SensorReading:      newSensorReading,
	schema.EquipmentAlert:     newEquipmentAlert,
	schema.ShipmentTracking:   newShipmentTracking,
}

func For(kind string) (Constructor, error) {
	c, ok := registry[kind]
	if !ok {
		return nil, fmt.Errorf("no factory registered for %s", kind)
	}
	return c, nil
}

func Kinds() []string {
	kinds := make([]string, 0, len(registry))
	for k := range registry {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Values lays a row out in the entity's insert column order. Unknown and missing
// columns are errors so that a factory cannot silently drift from the catalog.
func Values(e *schema.Entity, row Row) ([]any, error) {
	cols := e.InsertColumns()
	if len(row) != len(cols) {
		for name := range row {
			if _, ok := e.Column(name); !ok {
				return nil, fmt.Errorf("%s factory emitted unknown column %s", e.Name, name)
			}
		}
	}
	out := make([]any, len(cols))
	for i, c := range cols {
		v, ok := row[c.Name]
		if !ok {
			return nil, fmt.Errorf("%s factory did not emit column %s", e.Name, c.Name)
		}
		out[i] = v
	}
	return out, nil
}

func (c *Context) need(kinds ...string) error {
	for _, k := range kinds {
		if c.Cache.Len(k) == 0 {
			return fmt.Errorf("%s: %w in %s", c.Entry.Kind, ErrEmptyPool, k)
		}
	}
	return nil
}

func (c *Context) pick(kind string) any {
	id, _ := c.Cache.Sample(kind, c.Rand)
	return id
}

func (c *Context) vendorPool() string {
	return schema.PoolName(schema.BusinessPartner, schema.TagVendor)
}

// prior returns an already committed id of kind with probability p, else nil.
// Self references use it so that a row never points at itself or a later row.
func (c *Context) prior(kind string, p float64) any {
	if c.Cache.Len(kind) == 0 || !c.Faker.Chance(p) {
		return nil
	}
	return c.pick(kind)
}

// attrOr returns captured attribute i of id, or a random id of fallback when the
// attribute is unknown.
func (c *Context) attrOr(kind string, id any, i int, fallback string) any {
	if v := c.Cache.Attr(kind, id, i); v != nil {
		return v
	}
	return c.pick(fallback)
}

func (c *Context) float(kind string, id any, i int) (float64, bool) {
	v, ok := c.Cache.Attr(kind, id, i).(float64)
	return v, ok
}

// groupBy buckets the ids of kind by captured attribute i.
func (c *Context) groupBy(kind string, i int) map[any][]any {
	groups := make(map[any][]any)
	for _, id := range c.Cache.IDs(kind) {
		if v := c.Cache.Attr(kind, id, i); v != nil {
			groups[v] = append(groups[v], id)
		}
	}
	return groups
}

func (c *Context) pickFrom(ids []any) any {
	return ids[c.Rand.Intn(len(ids))]
}

func (c *Context) weighted(choices []string, weights []int) string {
	total := 0
	for _, w := range weights {
		total += w
	}
	n := c.Rand.Intn(total)
	for i, w := range weights {
		if n < w {
			return choices[i]
		}
		n -= w
	}
	return choices[len(choices)-1]
}
