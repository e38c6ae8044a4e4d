package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EnvPrefix         = "MFGSEED"
	DefaultBatchSize  = 1000
	ReferenceDateForm = "2006-01-02"
)

// DefaultTargets is the scale registry: entity kind → target row count.
// Any entry can be overridden with scale.<kind> in the config file or MFGSEED_SCALE_<KIND>.
var DefaultTargets = map[string]int{
	"facility":          12,
	"cost_center":       60,
	"department":        80,
	"job_role":          30,
	"employee":          5000,
	"business_partner":  800,
	"specification":     1500,
	"material":          10000,
	"bill_of_materials": 40000,

	"work_center":         150,
	"equipment":           3000,
	"production_order":    50000,
	"quality_inspection":  80000,
	"maintenance_order":   20000,
	"purchase_order":      25000,
	"purchase_order_line": 100000,
	"shipment":            30000,

	"geographic_locations": 200,
	"iot_sensors":          6000,
	"sensor_readings":      2000000,
	"equipment_alerts":     50000,
	"shipment_tracking":    150000,
}

// DefaultBatchSizes overrides batch_size for kinds whose rows are small and numerous.
var DefaultBatchSizes = map[string]int{
	"sensor_readings":   5000,
	"shipment_tracking": 5000,
}

type Config struct {
	Seed              int64          `mapstructure:"seed" yaml:"seed"`
	BatchSize         int            `mapstructure:"batch_size" yaml:"batch_size"`
	Cap               int            `mapstructure:"cap" yaml:"cap"`
	SkipOnDuplicate   bool           `mapstructure:"skip_on_duplicate" yaml:"skip_on_duplicate"`
	OrderedBatch      bool           `mapstructure:"ordered_batch" yaml:"ordered_batch"`
	ProgressEvery     int            `mapstructure:"progress_every" yaml:"progress_every"`
	ConnectTimeout    time.Duration  `mapstructure:"connect_timeout" yaml:"connect_timeout"`
	CallTimeout       time.Duration  `mapstructure:"call_timeout" yaml:"call_timeout"`
	ReferenceDate     string         `mapstructure:"reference_date" yaml:"reference_date"`
	BOMEffectiveDates int            `mapstructure:"bom_effective_dates" yaml:"bom_effective_dates"`
	SummaryFile       string         `mapstructure:"summary_file" yaml:"summary_file"`
	VerifySample      int            `mapstructure:"verify_sample" yaml:"verify_sample"`
	Stores            Stores         `mapstructure:"stores" yaml:"stores"`
	Scale             map[string]int `mapstructure:"scale" yaml:"scale"`
	Batch             map[string]int `mapstructure:"batch" yaml:"batch"`

	deterministic bool
	refDate       time.Time
}

type Stores struct {
	Master     Store `mapstructure:"master" yaml:"master"`
	Operations Store `mapstructure:"operations" yaml:"operations"`
	Documents  Store `mapstructure:"documents" yaml:"documents"`
}

type Store struct {
	Provider string            `mapstructure:"provider" yaml:"provider"`
	Host     string            `mapstructure:"host" yaml:"host"`
	Port     int               `mapstructure:"port" yaml:"port"`
	User     string            `mapstructure:"user" yaml:"user"`
	Password string            `mapstructure:"password" yaml:"-"`
	Database string            `mapstructure:"database" yaml:"database"`
	Options  map[string]string `mapstructure:"options" yaml:"options,omitempty"`
}

// Entry is the read-only registry view a factory and the loader get for one kind.
type Entry struct {
	Kind            string
	Target          int
	BatchSize       int
	SkipOnDuplicate bool
	Ordered         bool
}

// ConfigError reports missing credentials or invalid scale values. It is fatal before any I/O.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s: %s", e.Field, e.Reason)
}

// SetDefaults registers every recognised key, which also makes them overridable from the environment.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("batch_size", DefaultBatchSize)
	v.SetDefault("cap", 0)
	v.SetDefault("skip_on_duplicate", true)
	v.SetDefault("ordered_batch", false)
	v.SetDefault("progress_every", 10)
	v.SetDefault("connect_timeout", 5*time.Second)
	v.SetDefault("call_timeout", time.Duration(0))
	v.SetDefault("reference_date", "2025-01-01")
	v.SetDefault("bom_effective_dates", 6)
	v.SetDefault("summary_file", "")
	v.SetDefault("verify_sample", 1000)

	setStoreDefaults(v, "master", "mysql", 3306, "root", "mfg_master")
	setStoreDefaults(v, "operations", "postgres", 5432, "postgres", "mfg_operations")
	setStoreDefaults(v, "documents", "mongodb", 27017, "", "mfg_iot")

	for kind, n := range DefaultTargets {
		v.SetDefault("scale."+kind, n)
	}
	for kind, n := range DefaultBatchSizes {
		v.SetDefault("batch."+kind, n)
	}
}

func setStoreDefaults(v *viper.Viper, name, provider string, port int, user, database string) {
	prefix := "stores." + name + "."
	v.SetDefault(prefix+"provider", provider)
	v.SetDefault(prefix+"host", "localhost")
	v.SetDefault(prefix+"port", port)
	v.SetDefault(prefix+"user", user)
	v.SetDefault(prefix+"password", "")
	v.SetDefault(prefix+"database", database)
}

// BindEnv wires MFGSEED_* environment variables onto config keys.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

func LoadFrom(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.BatchSize == 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.ProgressEvery <= 0 {
		cfg.ProgressEvery = 10
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}
	if cfg.ReferenceDate == "" {
		cfg.ReferenceDate = "2025-01-01"
	}
	if cfg.BOMEffectiveDates == 0 {
		cfg.BOMEffectiveDates = 6
	}
	if cfg.Scale == nil {
		cfg.Scale = map[string]int{}
	}
	if cfg.Batch == nil {
		cfg.Batch = map[string]int{}
	}

	cfg.deterministic = v.IsSet("seed")
	if !cfg.deterministic {
		cfg.Seed = time.Now().UnixNano()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	errs = append(errs, validateStore("stores.master", c.Stores.Master, relationalProviders)...)
	errs = append(errs, validateStore("stores.operations", c.Stores.Operations, relationalProviders)...)
	errs = append(errs, validateStore("stores.documents", c.Stores.Documents, documentProviders)...)

	if c.BatchSize < 1 {
		errs = append(errs, &ConfigError{Field: "batch_size", Reason: "must be positive"})
	}
	if c.Cap < 0 {
		errs = append(errs, &ConfigError{Field: "cap", Reason: "must not be negative"})
	}
	if c.BOMEffectiveDates < 1 {
		errs = append(errs, &ConfigError{Field: "bom_effective_dates", Reason: "must be at least 1"})
	}
	if c.CallTimeout < 0 || c.ConnectTimeout < 0 {
		errs = append(errs, &ConfigError{Field: "timeouts", Reason: "must not be negative"})
	}

	for _, kind := range sortedKeys(c.Scale) {
		if _, known := DefaultTargets[kind]; !known {
			errs = append(errs, &ConfigError{Field: "scale." + kind, Reason: "unknown entity kind"})
			continue
		}
		if c.Scale[kind] < 0 {
			errs = append(errs, &ConfigError{Field: "scale." + kind, Reason: fmt.Sprintf("invalid target %d", c.Scale[kind])})
		}
	}
	for _, kind := range sortedKeys(c.Batch) {
		if c.Batch[kind] < 1 {
			errs = append(errs, &ConfigError{Field: "batch." + kind, Reason: fmt.Sprintf("invalid batch size %d", c.Batch[kind])})
		}
	}

	ref, err := time.Parse(ReferenceDateForm, c.ReferenceDate)
	if err != nil {
		errs = append(errs, &ConfigError{Field: "reference_date", Reason: "expected YYYY-MM-DD"})
	} else {
		c.refDate = ref.UTC()
	}

	return errors.Join(errs...)
}

var (
	relationalProviders = []string{"mysql", "postgres", "postgresql", "sqlite", "sqlite3"}
	documentProviders   = []string{"mongodb", "mongo"}
)

func validateStore(field string, s Store, providers []string) []error {
	var errs []error
	supported := false
	for _, p := range providers {
		if s.Provider == p {
			supported = true
			break
		}
	}
	if !supported {
		return []error{&ConfigError{Field: field + ".provider",
			Reason: fmt.Sprintf("unsupported provider %q. Supported providers: %v", s.Provider, providers)}}
	}
	if s.Database == "" {
		errs = append(errs, &ConfigError{Field: field + ".database", Reason: "must be set"})
	}
	if s.IsSQLite() {
		return errs
	}
	if s.Host == "" {
		errs = append(errs, &ConfigError{Field: field + ".host", Reason: "must be set"})
	}
	if s.Port <= 0 || s.Port > 65535 {
		errs = append(errs, &ConfigError{Field: field + ".port", Reason: fmt.Sprintf("invalid port %d", s.Port)})
	}
	if s.RequiresPassword() && s.Password == "" {
		errs = append(errs, &ConfigError{Field: field + ".password", Reason: "missing password"})
	}
	return errs
}

func (s Store) IsSQLite() bool {
	return s.Provider == "sqlite" || s.Provider == "sqlite3"
}

// RequiresPassword is true for server relational stores and for document stores with a user.
func (s Store) RequiresPassword() bool {
	switch s.Provider {
	case "mysql", "postgres", "postgresql":
		return true
	case "mongodb", "mongo":
		return s.User != ""
	}
	return false
}

func (c *Config) Store(name string) (Store, error) {
	switch name {
	case "master":
		return c.Stores.Master, nil
	case "operations":
		return c.Stores.Operations, nil
	case "documents":
		return c.Stores.Documents, nil
	}
	return Store{}, fmt.Errorf("unknown store: %s", name)
}

// Deterministic reports whether seed was set explicitly.
func (c *Config) Deterministic() bool {
	return c.deterministic
}

func (c *Config) SetSeed(seed int64) {
	c.Seed = seed
	c.deterministic = true
}

// RefDate anchors every generated date so that seeded runs do not drift with the wall clock.
func (c *Config) RefDate() time.Time {
	if c.refDate.IsZero() {
		if t, err := time.Parse(ReferenceDateForm, c.ReferenceDate); err == nil {
			c.refDate = t.UTC()
		}
	}
	return c.refDate
}

// Target returns the configured row count for kind, clamped by cap.
func (c *Config) Target(kind string) int {
	n, ok := c.Scale[kind]
	if !ok {
		n = DefaultTargets[kind]
	}
	if c.Cap > 0 && n > c.Cap {
		n = c.Cap
	}
	return n
}

func (c *Config) Entry(kind string) Entry {
	batch := c.BatchSize
	if b, ok := c.Batch[kind]; ok && b > 0 {
		batch = b
	}
	return Entry{
		Kind:            kind,
		Target:          c.Target(kind),
		BatchSize:       batch,
		SkipOnDuplicate: c.SkipOnDuplicate,
		Ordered:         c.OrderedBatch,
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
