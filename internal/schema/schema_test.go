package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogEdges(t *testing.T) {
	c := Default()

	edges := map[string]Edge{}
	for _, s := range StoreOrder {
		for _, e := range c.Edges(s) {
			edges[e.From+"."+e.Column] = e
		}
	}

	manager := edges["facility.facility_manager_id"]
	assert.True(t, manager.Deferred)
	assert.True(t, manager.Nullable)
	assert.False(t, manager.CrossStore)

	parent := edges["department.parent_department_id"]
	assert.True(t, parent.SelfRef)
	assert.False(t, parent.Deferred)

	assert.True(t, edges["work_center.facility_id"].CrossStore)
	assert.True(t, edges["iot_sensors.equipment_id"].CrossStore)
	assert.False(t, edges["iot_sensors.location_code"].CrossStore)
	assert.False(t, edges["bill_of_materials.parent_material_id"].Nullable)
}

func TestUpstream(t *testing.T) {
	c := Default()
	assert.Empty(t, c.Upstream(Master))
	assert.Equal(t, []Store{Master}, c.Upstream(Operations))
	assert.Equal(t, []Store{Master, Operations}, c.Upstream(Documents))
}

func TestInsertColumnsSkipSerial(t *testing.T) {
	c := Default()
	facility, ok := c.Entity(Facility)
	require.True(t, ok)
	names := facility.InsertColumnNames()
	assert.NotContains(t, names, "facility_id")
	assert.Equal(t, "facility_code", names[0])

	loc, ok := c.Entity(GeographicLocation)
	require.True(t, ok)
	assert.Equal(t, "_id", loc.InsertColumnNames()[0])
	assert.Equal(t, []string{"location"}, loc.GeoFields())
}

func TestNewCatalogRejectsInvalidEntities(t *testing.T) {
	tests := []struct {
		name   string
		entity *Entity
	}{
		{
			name: "deferred not nullable",
			entity: &Entity{Name: "a", IDColumn: "id", Columns: []Column{
				serial("id"),
				{Name: "b_id", Type: BigInt, Ref: &Ref{Entity: "a", Deferred: true}},
			}},
		},
		{
			name: "unknown reference",
			entity: &Entity{Name: "a", IDColumn: "id", Columns: []Column{
				serial("id"), ref("b_id", "missing"),
			}},
		},
		{
			name:   "bad identifier",
			entity: &Entity{Name: "a; drop", IDColumn: "id", Columns: []Column{serial("id")}},
		},
		{
			name: "unknown unique column",
			entity: &Entity{Name: "a", IDColumn: "id", Columns: []Column{serial("id")},
				Unique: [][]string{{"code"}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCatalog(tt.entity)
			assert.Error(t, err)
		})
	}
}

func TestTagRuleMatch(t *testing.T) {
	manager := TagRule{Name: TagManager, Column: "title", Value: "Manager", Contains: true}
	assert.True(t, manager.Match("Plant Manager"))
	assert.False(t, manager.Match("Operator"))
	assert.False(t, manager.Match(nil))

	vendor := TagRule{Name: TagVendor, Column: "partner_type", Value: "Vendor"}
	assert.True(t, vendor.Match("Vendor"))
	assert.False(t, vendor.Match("Vendors"))
	assert.Equal(t, "business_partner/vendor", PoolName(BusinessPartner, TagVendor))
}
