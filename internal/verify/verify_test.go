package verify

import (
	"context"
	"testing"

	"github.com/Rana718/mfgseed/internal/config"
	"github.com/Rana718/mfgseed/internal/database"
	"github.com/Rana718/mfgseed/internal/database/relational"
	"github.com/Rana718/mfgseed/internal/database/sqlite"
	"github.com/Rana718/mfgseed/internal/loader"
	"github.com/Rana718/mfgseed/internal/logger"
	"github.com/Rana718/mfgseed/internal/orchestrator"
	"github.com/Rana718/mfgseed/internal/schema"
	"github.com/Rana718/mfgseed/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type populated struct {
	master  *relational.Store
	docs    *testutil.DocumentStore
	stores  *database.Stores
	results map[string]loader.Result
}

func populate(t *testing.T) *populated {
	t.Helper()
	cfg := &config.Config{
		BatchSize:         25,
		ProgressEvery:     10,
		ReferenceDate:     "2025-01-01",
		BOMEffectiveDates: 2,
		SkipOnDuplicate:   true,
		Cap:               20,
		Scale:             map[string]int{schema.Facility: 3, schema.Department: 4, schema.Employee: 40},
	}
	cfg.SetSeed(7)

	p := &populated{
		master: relational.New("master", testutil.SQLiteConfig(t, "master"), sqlite.New(), relational.Options{}),
		docs:   testutil.NewDocumentStore(),
	}
	p.stores = &database.Stores{
		Master:     p.master,
		Operations: relational.New("operations", testutil.SQLiteConfig(t, "operations"), sqlite.New(), relational.Options{}),
		Documents:  p.docs,
	}
	t.Cleanup(p.stores.Close)

	o, err := orchestrator.New(cfg, schema.Default(), p.stores, logger.Discard())
	require.NoError(t, err)
	require.NoError(t, o.Run(context.Background()))
	p.results = o.Summary().Results()
	return p
}

func failed(rep Report, property string) map[string]int64 {
	out := make(map[string]int64)
	for _, c := range rep.Failed() {
		if c.Property == property {
			out[c.Subject] = c.Violations
		}
	}
	return out
}

func TestRunPassesOnAFreshPopulation(t *testing.T) {
	p := populate(t)

	rep, err := New(schema.Default(), p.stores, 0, logger.Discard()).Run(context.Background(), p.results)
	require.NoError(t, err)
	assert.True(t, rep.OK(), "%+v", rep.Failed())

	seen := make(map[string]bool)
	for _, c := range rep.Checks {
		seen[c.Property] = true
	}
	for _, property := range []string{References, UniqueKeys, Intervals, Coordinates, Counts, CrossStore, DeferredFilled} {
		assert.True(t, seen[property], property)
	}
}

func TestRunReportsViolations(t *testing.T) {
	ctx := context.Background()
	p := populate(t)

	for _, stmt := range []string{
		"UPDATE facility SET latitude = 120 WHERE facility_id = 1",
		"UPDATE facility SET facility_manager_id = NULL WHERE facility_id = 2",
		"UPDATE specification SET valid_to = '1900-01-01' WHERE specification_id = 1",
	} {
		_, err := p.master.Exec(ctx, stmt)
		require.NoError(t, err)
	}
	p.docs.Raw(schema.GeographicLocation)[0]["facility_id"] = int64(999)

	results := map[string]loader.Result{schema.Facility: {Kind: schema.Facility, Target: 10}}
	rep, err := New(schema.Default(), p.stores, 0, logger.Discard()).Run(ctx, results)
	require.NoError(t, err)
	assert.False(t, rep.OK())

	assert.Equal(t, map[string]int64{"facility.latitude/longitude": 1}, failed(rep, Coordinates))
	assert.Equal(t, map[string]int64{"facility.facility_manager_id": 1}, failed(rep, DeferredFilled))
	assert.Equal(t, map[string]int64{"specification.valid_from..valid_to": 1}, failed(rep, Intervals))
	assert.Equal(t, map[string]int64{"geographic_locations.facility_id": 1}, failed(rep, CrossStore))
	assert.Equal(t, map[string]int64{"facility": 7}, failed(rep, Counts))
}

func TestRunSkipsMissingStores(t *testing.T) {
	p := populate(t)
	stores := &database.Stores{Master: p.master}

	rep, err := New(schema.Default(), stores, 0, logger.Discard()).Run(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, rep.OK())
	for _, c := range rep.Checks {
		assert.NotEqual(t, CrossStore, c.Property, c.Subject)
		assert.NotEqual(t, Counts, c.Property, c.Subject)
	}
}

func TestQueries(t *testing.T) {
	c := schema.Default()
	emp, _ := c.Entity(schema.Employee)
	dept, _ := c.Entity(schema.Department)
	spec, _ := c.Entity(schema.Specification)

	assert.Equal(t, "SELECT COUNT(*) FROM employee c WHERE c.department_id IS NOT NULL AND NOT EXISTS "+
		"(SELECT 1 FROM department p WHERE p.department_id = c.department_id)", danglingQuery(emp, "department_id", dept))
	assert.Equal(t, "SELECT COUNT(*) FROM (SELECT email FROM employee GROUP BY email HAVING COUNT(*) > 1) dup",
		duplicateQuery(emp, []string{"email"}))
	assert.Equal(t, "SELECT COUNT(*) FROM specification WHERE valid_to IS NOT NULL AND valid_to < valid_from",
		invertedQuery(spec, [2]string{"valid_from", "valid_to"}))

	q := outOfRangeQuery(spec, [2]string{"lat", "lon"})
	assert.NotContains(t, q, "?")
	assert.Contains(t, q, "lat IS NULL OR lon IS NULL OR lat < -90")
}
