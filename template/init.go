package template

import (
	"fmt"
	"strings"
)

type DatabaseType string

const (
	SQLite     DatabaseType = "sqlite"
	PostgreSQL DatabaseType = "postgres"
	MySQL      DatabaseType = "mysql"
)

type storeDefaults struct {
	port        int
	user        string
	passwordEnv string
}

var dbDefaults = map[DatabaseType]storeDefaults{
	MySQL:      {port: 3306, user: "root", passwordEnv: "MFGSEED_STORES_%s_PASSWORD"},
	PostgreSQL: {port: 5432, user: "postgres", passwordEnv: "MFGSEED_STORES_%s_PASSWORD"},
}

// ProjectTemplate renders the starter files of a new dataset project.
type ProjectTemplate struct {
	Master     DatabaseType
	Operations DatabaseType
}

func NewProjectTemplate(master, operations DatabaseType) *ProjectTemplate {
	return &ProjectTemplate{Master: master, Operations: operations}
}

func (pt *ProjectTemplate) store(name string, t DatabaseType, database string) string {
	if t == SQLite {
		return fmt.Sprintf(`  %s:
    provider: sqlite
    database: ./data/%s.db
`, name, database)
	}
	d := dbDefaults[t]
	return fmt.Sprintf(`  %s:
    provider: %s
    host: localhost
    port: %d
    user: %s
    database: %s
`, name, t, d.port, d.user, database)
}

// GetConfig returns mfgseed.yaml. Passwords are expected from the environment.
func (pt *ProjectTemplate) GetConfig() string {
	var b strings.Builder
	b.WriteString(`# mfgseed configuration. Every key can be overridden with MFGSEED_<KEY>,
# for example MFGSEED_SCALE_EMPLOYEE=200 or MFGSEED_STORES_MASTER_HOST=db.
seed: 42
batch_size: 1000
# cap clamps every target; handy for a quick local run.
cap: 0
skip_on_duplicate: true
reference_date: "2025-01-01"
bom_effective_dates: 6
summary_file: ./data/summary.yaml

stores:
`)
	b.WriteString(pt.store("master", pt.Master, "mfg_master"))
	b.WriteString(pt.store("operations", pt.Operations, "mfg_operations"))
	b.WriteString(`  documents:
    provider: mongodb
    host: localhost
    port: 27017
    database: mfg_iot

scale:
  facility: 12
  employee: 5000
  material: 10000
  sensor_readings: 2000000
`)
	return b.String()
}

func (pt *ProjectTemplate) GetEnvTemplate() string {
	var lines []string
	for _, s := range []struct {
		name string
		t    DatabaseType
	}{{"MASTER", pt.Master}, {"OPERATIONS", pt.Operations}} {
		if d, ok := dbDefaults[s.t]; ok {
			lines = append(lines, fmt.Sprintf(d.passwordEnv, s.name)+"=changeme")
		}
	}
	lines = append(lines, "# MFGSEED_STORES_DOCUMENTS_USER=", "# MFGSEED_STORES_DOCUMENTS_PASSWORD=")
	return strings.Join(lines, "\n") + "\n"
}

func (pt *ProjectTemplate) GetDirectoryStructure() []string {
	return []string{"data"}
}

func ValidateDatabaseType(dbType string) DatabaseType {
	types := map[string]DatabaseType{
		"sqlite":     SQLite,
		"sqlite3":    SQLite,
		"mysql":      MySQL,
		"postgresql": PostgreSQL,
		"postgres":   PostgreSQL,
	}

	if dt, exists := types[dbType]; exists {
		return dt
	}
	return PostgreSQL
}
