package database

import (
	"testing"

	"github.com/Rana718/mfgseed/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDialect(t *testing.T) {
	for provider, want := range map[string]string{
		"postgres":   "postgres",
		"postgresql": "postgres",
		"mysql":      "mysql",
		"sqlite3":    "sqlite",
	} {
		d, err := NewDialect(provider)
		require.NoError(t, err, provider)
		assert.Equal(t, want, d.Name())
	}

	_, err := NewDialect("oracle")
	assert.Error(t, err)
}

func TestOpenBuildsAllStores(t *testing.T) {
	cfg := &config.Config{Stores: config.Stores{
		Master:     config.Store{Provider: "sqlite", Database: "m.db"},
		Operations: config.Store{Provider: "postgres", Host: "localhost", Port: 5432, Database: "ops"},
		Documents:  config.Store{Provider: "mongodb", Host: "localhost", Port: 27017, Database: "iot"},
	}}

	stores, err := Open(cfg)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", stores.Master.Provider())
	assert.Equal(t, "postgres", stores.Operations.Provider())
	assert.Equal(t, "mongodb", stores.Documents.Provider())
	assert.Equal(t, "documents", stores.Documents.Name())

	cfg.Stores.Documents.Provider = "couchdb"
	_, err = Open(cfg)
	assert.Error(t, err)
}
