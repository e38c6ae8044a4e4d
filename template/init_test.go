package template

import (
	"strings"
	"testing"

	"github.com/Rana718/mfgseed/internal/config"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, pt *ProjectTemplate) *config.Config {
	t.Helper()
	v := viper.New()
	config.SetDefaults(v)
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(pt.GetConfig())))
	cfg, err := config.LoadFrom(v)
	require.NoError(t, err)
	return cfg
}

func TestSQLiteConfigLoads(t *testing.T) {
	cfg := load(t, NewProjectTemplate(SQLite, SQLite))
	assert.Equal(t, "sqlite", cfg.Stores.Master.Provider)
	assert.Equal(t, "./data/mfg_operations.db", cfg.Stores.Operations.Database)
	assert.Equal(t, "mongodb", cfg.Stores.Documents.Provider)
	assert.True(t, cfg.Deterministic())
	assert.EqualValues(t, 42, cfg.Seed)
	assert.Equal(t, 5000, cfg.Target("employee"))
}

func TestServerConfigNeedsPasswords(t *testing.T) {
	pt := NewProjectTemplate(MySQL, PostgreSQL)
	assert.Contains(t, pt.GetConfig(), "port: 3306")
	assert.Contains(t, pt.GetConfig(), "provider: postgres")
	assert.Equal(t, "MFGSEED_STORES_MASTER_PASSWORD=changeme\nMFGSEED_STORES_OPERATIONS_PASSWORD=changeme\n"+
		"# MFGSEED_STORES_DOCUMENTS_USER=\n# MFGSEED_STORES_DOCUMENTS_PASSWORD=\n", pt.GetEnvTemplate())

	v := viper.New()
	config.SetDefaults(v)
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(pt.GetConfig())))
	_, err := config.LoadFrom(v)
	assert.ErrorContains(t, err, "stores.master.password")
}

func TestValidateDatabaseType(t *testing.T) {
	assert.Equal(t, SQLite, ValidateDatabaseType("sqlite3"))
	assert.Equal(t, PostgreSQL, ValidateDatabaseType("postgresql"))
	assert.Equal(t, PostgreSQL, ValidateDatabaseType("oracle"))
}
