package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func newViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	v.Set("stores.master.password", "secret")
	v.Set("stores.operations.password", "secret")
	return v
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFrom(newViper(t))
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}

	if cfg.BatchSize != 1000 {
		t.Errorf("Expected batch_size 1000, got %d", cfg.BatchSize)
	}
	if cfg.ConnectTimeout != 5*time.Second {
		t.Errorf("Expected connect_timeout 5s, got %s", cfg.ConnectTimeout)
	}
	if cfg.Stores.Master.Provider != "mysql" || cfg.Stores.Operations.Provider != "postgres" || cfg.Stores.Documents.Provider != "mongodb" {
		t.Errorf("Unexpected default providers: %+v", cfg.Stores)
	}
	if cfg.Deterministic() {
		t.Error("Expected a run without seed to be non-deterministic")
	}

	entry := cfg.Entry("employee")
	if entry.Target != 5000 || entry.BatchSize != 1000 || !entry.SkipOnDuplicate || entry.Ordered {
		t.Errorf("Unexpected employee entry: %+v", entry)
	}
	if got := cfg.Entry("sensor_readings").BatchSize; got != 5000 {
		t.Errorf("Expected sensor_readings batch size 5000, got %d", got)
	}
	if got := cfg.RefDate(); !got.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected reference date %s", got)
	}
}

func TestMissingPasswordIsConfigError(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("stores.operations.password", "secret")

	_, err := LoadFrom(v)
	if err == nil {
		t.Fatal("Expected missing master password to fail")
	}
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Expected ConfigError, got %T: %v", err, err)
	}
	if cfgErr.Field != "stores.master.password" {
		t.Errorf("Expected field stores.master.password, got %s", cfgErr.Field)
	}
}

func TestSQLiteStoreNeedsNoPassword(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("stores.master.provider", "sqlite")
	v.Set("stores.master.database", filepath.Join(t.TempDir(), "master.db"))
	v.Set("stores.operations.provider", "sqlite3")
	v.Set("stores.operations.database", filepath.Join(t.TempDir(), "ops.db"))

	if _, err := LoadFrom(v); err != nil {
		t.Fatalf("Expected sqlite stores to load without passwords: %v", err)
	}
}

func TestScaleOverridesAndCap(t *testing.T) {
	v := newViper(t)
	v.Set("scale.facility", 3)
	v.Set("cap", 100)
	v.Set("batch.employee", 250)

	cfg, err := LoadFrom(v)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if got := cfg.Target("facility"); got != 3 {
		t.Errorf("Expected facility target 3, got %d", got)
	}
	if got := cfg.Target("employee"); got != 100 {
		t.Errorf("Expected employee target capped at 100, got %d", got)
	}
	if got := cfg.Entry("employee").BatchSize; got != 250 {
		t.Errorf("Expected employee batch 250, got %d", got)
	}
}

func TestEnvironmentOverride(t *testing.T) {
	t.Setenv("MFGSEED_SCALE_EMPLOYEE", "42")
	t.Setenv("MFGSEED_STORES_MASTER_PASSWORD", "from-env")

	v := viper.New()
	SetDefaults(v)
	BindEnv(v)
	v.Set("stores.operations.password", "secret")

	cfg, err := LoadFrom(v)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if got := cfg.Target("employee"); got != 42 {
		t.Errorf("Expected employee target 42 from env, got %d", got)
	}
	if cfg.Stores.Master.Password != "from-env" {
		t.Errorf("Expected master password from env, got %q", cfg.Stores.Master.Password)
	}
}

func TestInvalidScale(t *testing.T) {
	tests := []struct {
		key   string
		value any
		field string
	}{
		{"scale.employee", -1, "scale.employee"},
		{"scale.unicorn", 5, "scale.unicorn"},
		{"batch.employee", 0, "batch.employee"},
		{"reference_date", "01/02/2025", "reference_date"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			v := newViper(t)
			v.Set(tt.key, tt.value)
			_, err := LoadFrom(v)
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Expected ConfigError, got %v", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("Expected field %s, got %s", tt.field, cfgErr.Field)
			}
		})
	}
}

func TestSeedMakesRunDeterministic(t *testing.T) {
	v := newViper(t)
	v.Set("seed", 42)

	cfg, err := LoadFrom(v)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if !cfg.Deterministic() || cfg.Seed != 42 {
		t.Errorf("Expected deterministic seed 42, got %d (deterministic=%v)", cfg.Seed, cfg.Deterministic())
	}
}

func TestReadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mfgseed.yaml")
	content := `seed: 7
batch_size: 200
call_timeout: 2s
stores:
  master:
    provider: sqlite
    database: master.db
  operations:
    provider: postgres
    password: pw
scale:
  bill_of_materials: 10
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig failed: %v", err)
	}

	cfg, err := LoadFrom(v)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if cfg.BatchSize != 200 || cfg.CallTimeout != 2*time.Second || cfg.Seed != 7 {
		t.Errorf("Unexpected values: batch=%d call_timeout=%s seed=%d", cfg.BatchSize, cfg.CallTimeout, cfg.Seed)
	}
	if cfg.Stores.Operations.Host != "localhost" || cfg.Stores.Operations.Port != 5432 {
		t.Errorf("Expected operations defaults to survive a partial file, got %+v", cfg.Stores.Operations)
	}
	if got := cfg.Target("bill_of_materials"); got != 10 {
		t.Errorf("Expected bill_of_materials target 10, got %d", got)
	}
	if got := cfg.Target("employee"); got != DefaultTargets["employee"] {
		t.Errorf("Expected employee default target, got %d", got)
	}
}
