package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Rana718/mfgseed/internal/config"
	"github.com/Rana718/mfgseed/internal/database"
	"github.com/Rana718/mfgseed/internal/database/relational"
	"github.com/Rana718/mfgseed/internal/database/sqlite"
	"github.com/Rana718/mfgseed/internal/logger"
	"github.com/Rana718/mfgseed/internal/orchestrator"
	"github.com/Rana718/mfgseed/internal/schema"
	"github.com/Rana718/mfgseed/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func populated(t *testing.T) map[schema.Store]database.Store {
	t.Helper()
	cfg := &config.Config{
		BatchSize:         50,
		ProgressEvery:     10,
		ReferenceDate:     "2025-01-01",
		BOMEffectiveDates: 2,
		SkipOnDuplicate:   true,
		Cap:               8,
		Scale:             map[string]int{},
	}
	cfg.SetSeed(3)

	stores := &database.Stores{
		Master:     relational.New("master", testutil.SQLiteConfig(t, "master"), sqlite.New(), relational.Options{}),
		Operations: relational.New("operations", testutil.SQLiteConfig(t, "operations"), sqlite.New(), relational.Options{}),
		Documents:  testutil.NewDocumentStore(),
	}
	t.Cleanup(stores.Close)

	o, err := orchestrator.New(cfg, schema.Default(), stores, logger.Discard())
	require.NoError(t, err)
	require.NoError(t, o.Run(context.Background()))

	return map[schema.Store]database.Store{
		schema.Master:     stores.Master,
		schema.Operations: stores.Operations,
		schema.Documents:  stores.Documents,
	}
}

func TestAllWritesOneJSONFilePerEntity(t *testing.T) {
	dir := t.TempDir()
	m, err := New(schema.Default(), dir, JSON, nil).All(context.Background(), populated(t))
	require.NoError(t, err)

	assert.Len(t, m.Files, len(schema.Default().All()))
	assert.Equal(t, "master", m.Files[0].Store)
	assert.Equal(t, "documents", m.Files[len(m.Files)-1].Store)

	data, err := os.ReadFile(filepath.Join(dir, "master", "facility.json"))
	require.NoError(t, err)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(data, &rows))
	require.Len(t, rows, 8)
	assert.EqualValues(t, 1, rows[0]["facility_id"])
	assert.NotEmpty(t, rows[0]["facility_code"])

	_, err = os.Stat(filepath.Join(dir, "manifest.json"))
	assert.NoError(t, err)
}

func TestStoreWritesCSVWithHeader(t *testing.T) {
	dir := t.TempDir()
	stores := populated(t)
	files, err := New(schema.Default(), dir, CSV, nil).Store(context.Background(), stores[schema.Documents], schema.Documents)
	require.NoError(t, err)
	require.NotEmpty(t, files)

	f, err := os.Open(filepath.Join(dir, "documents", schema.GeographicLocation+".csv"))
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	e, _ := schema.Default().Entity(schema.GeographicLocation)
	assert.Equal(t, Columns(e), records[0])
	assert.NotContains(t, records[0], "_id")
	assert.Len(t, records, 9)
}

func TestCell(t *testing.T) {
	assert.Equal(t, "", cell(nil))
	assert.Equal(t, "2025-01-02T03:04:05Z", cell(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)))
	assert.Equal(t, "12.5", cell(12.5))
	assert.Equal(t, "POINT(4.8 45.7)", cell(schema.GeoPoint{Latitude: 45.7, Longitude: 4.8}))
	assert.Equal(t, "42", cell(int64(42)))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("csv")
	require.NoError(t, err)
	assert.Equal(t, CSV, f)
	_, err = ParseFormat("xml")
	assert.Error(t, err)
}
