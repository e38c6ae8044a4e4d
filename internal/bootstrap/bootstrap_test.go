package bootstrap

import (
	"context"
	"strings"
	"testing"

	"github.com/Rana718/mfgseed/internal/database/common"
	"github.com/Rana718/mfgseed/internal/database/postgres"
	"github.com/Rana718/mfgseed/internal/logger"
	"github.com/Rana718/mfgseed/internal/planner"
	"github.com/Rana718/mfgseed/internal/schema"
	"github.com/Rana718/mfgseed/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plan(t *testing.T, store schema.Store) (*schema.Catalog, *planner.Plan) {
	t.Helper()
	c := schema.Default()
	p, err := planner.Build(c, store)
	require.NoError(t, err)
	return c, p
}

func TestScriptDropsInReverseAndCreatesInOrder(t *testing.T) {
	c, p := plan(t, schema.Master)
	script := Script(postgres.New(), c, p)

	drops := strings.Index(script, `DROP TABLE IF EXISTS "bill_of_materials"`)
	lastDrop := strings.Index(script, `DROP TABLE IF EXISTS "facility"`)
	firstCreate := strings.Index(script, `CREATE TABLE "facility"`)
	require.True(t, drops >= 0 && lastDrop >= 0 && firstCreate >= 0)
	assert.Less(t, drops, lastDrop)
	assert.Less(t, lastDrop, firstCreate)
	assert.Less(t, strings.Index(script, `CREATE TABLE "facility"`), strings.Index(script, `CREATE TABLE "department"`))

	// deferred references are created as plain columns
	assert.NotContains(t, script, "fk_facility_facility_manager_id")
	assert.Contains(t, script, "fk_department_facility_id")
	assert.Len(t, common.ParseSQLStatements(script), strings.Count(script, ";"))
}

func TestRelationalCreatesTablesAndWarnsOnDeferredKeys(t *testing.T) {
	ctx := context.Background()
	c, p := plan(t, schema.Master)
	st := testutil.SQLiteStore(t, "master")
	b := New(c, logger.Discard())

	rep, err := b.Relational(ctx, st, p)
	require.NoError(t, err)
	assert.Equal(t, len(p.Order), rep.Created)
	assert.Zero(t, rep.ForeignKeys)
	assert.Len(t, rep.Warnings, len(p.Deferred))
	assert.Contains(t, rep.Warnings[0], "unconstrained")

	n, err := st.QueryInt(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'employee'")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// a second bootstrap starts from empty tables
	_, err = st.Exec(ctx, `INSERT INTO job_role (role_code, title, pay_grade) VALUES ('R1', 'Plant Manager', 9)`)
	require.NoError(t, err)
	_, err = b.Relational(ctx, st, p)
	require.NoError(t, err)
	n, err = st.QueryInt(ctx, "SELECT COUNT(*) FROM job_role")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRelationalSchemaErrorIsFatal(t *testing.T) {
	c, p := plan(t, schema.Master)
	st := testutil.SQLiteStore(t, "master")
	require.NoError(t, st.Close())

	_, err := New(c, logger.Discard()).Relational(context.Background(), st, p)
	var se *common.SchemaError
	assert.ErrorAs(t, err, &se)
}

func TestDocumentsAndLateGeoIndexes(t *testing.T) {
	ctx := context.Background()
	c, p := plan(t, schema.Documents)
	st := testutil.NewDocumentStore()
	st.FailGeoIndex = map[string]bool{schema.ShipmentTracking: true}
	b := New(c, logger.Discard())

	rep, err := b.Documents(ctx, st, p)
	require.NoError(t, err)
	assert.Equal(t, len(p.Order), rep.Created)
	assert.Empty(t, st.GeoIndexes)

	geo := b.FinalizeGeoIndexes(ctx, st, p)
	assert.Equal(t, 2, geo.GeoIndexes)
	require.Len(t, geo.Warnings, 1)
	assert.Contains(t, geo.Warnings[0], schema.ShipmentTracking)

	var fields []string
	for _, g := range st.GeoIndexes {
		fields = append(fields, g.Collection+"."+g.Field)
	}
	assert.ElementsMatch(t, []string{"geographic_locations.location", "iot_sensors.location"}, fields)
}
