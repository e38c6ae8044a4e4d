package postgres

import (
	"fmt"
	"testing"

	"github.com/Rana718/mfgseed/internal/config"
	"github.com/Rana718/mfgseed/internal/database/common"
	"github.com/Rana718/mfgseed/internal/schema"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	d := New()
	tests := []struct {
		err  error
		want common.ErrorClass
	}{
		{&pgconn.PgError{Code: "23505"}, common.ClassDuplicate},
		{fmt.Errorf("batch: %w", &pgconn.PgError{Code: "23503"}), common.ClassConstraint},
		{&pgconn.PgError{Code: "23502"}, common.ClassConstraint},
		{&pgconn.PgError{Code: "08006"}, common.ClassConnection},
		{&pgconn.PgError{Code: "57P01"}, common.ClassConnection},
		{&pgconn.PgError{Code: "42601"}, common.ClassOther},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, d.Classify(tt.err), "%v", tt.err)
	}
}

func TestDSN(t *testing.T) {
	dsn, err := New().DSN(config.Store{Host: "db", Port: 5432, User: "postgres", Password: "p@ss", Database: "mfg_operations"})
	require.NoError(t, err)
	assert.Equal(t, "postgres://postgres:p%40ss@db:5432/mfg_operations?sslmode=disable", dsn)

	dsn, err = New().DSN(config.Store{Host: "db", Port: 5432, User: "u", Password: "p", Database: "x",
		Options: map[string]string{"sslmode": "require"}})
	require.NoError(t, err)
	assert.Contains(t, dsn, "sslmode=require")
}

func TestStatements(t *testing.T) {
	d := New()
	assert.Equal(t, `DROP TABLE IF EXISTS "equipment" CASCADE`, d.DropTable("equipment"))
	assert.Equal(t, []string{`TRUNCATE TABLE "equipment" RESTART IDENTITY CASCADE`}, d.TruncateTable("equipment"))
	assert.Equal(t, "BIGSERIAL PRIMARY KEY", d.ColumnType(schema.Column{Type: schema.Serial}))
	assert.Empty(t, d.DisableForeignKeys())
	assert.Equal(t, common.IDsReturning, d.IDStrategy())
}
