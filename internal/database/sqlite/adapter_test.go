package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/Rana718/mfgseed/internal/config"
	"github.com/Rana718/mfgseed/internal/database/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyRealErrors(t *testing.T) {
	d := New()
	cfg := config.Store{Provider: "sqlite", Database: filepath.Join(t.TempDir(), "nested", "c.db")}
	require.NoError(t, d.EnsureDatabase(context.Background(), cfg))

	dsn, err := d.DSN(cfg)
	require.NoError(t, err)
	db, err := sql.Open(d.DriverName(), dsn)
	require.NoError(t, err)
	defer db.Close()
	d.Configure(db)

	_, err = db.Exec(`CREATE TABLE parent (id INTEGER PRIMARY KEY AUTOINCREMENT, code TEXT NOT NULL UNIQUE)`)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE child (id INTEGER PRIMARY KEY AUTOINCREMENT, parent_id INTEGER NOT NULL REFERENCES parent (id))`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO parent (code) VALUES ('a')`)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO parent (code) VALUES ('a')`)
	assert.Equal(t, common.ClassDuplicate, d.Classify(err))

	_, err = db.Exec(`INSERT INTO child (parent_id) VALUES (99)`)
	assert.Equal(t, common.ClassConstraint, d.Classify(err))

	_, err = db.Exec(`INSERT INTO nowhere (x) VALUES (1)`)
	assert.Equal(t, common.ClassOther, d.Classify(err))
}

func TestAddForeignKeyUnsupported(t *testing.T) {
	_, err := New().AddForeignKey("facility", "facility_manager_id", "employee", "employee_id")
	assert.ErrorIs(t, err, common.ErrUnsupported)
}

func TestInMemoryRejected(t *testing.T) {
	_, err := New().DSN(config.Store{Database: ":memory:"})
	assert.Error(t, err)
}
