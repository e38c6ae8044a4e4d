package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/Rana718/mfgseed/internal/config"
	"github.com/Rana718/mfgseed/internal/database/common"
	"github.com/Rana718/mfgseed/internal/schema"
	"github.com/mattn/go-sqlite3"
)

type Dialect struct{}

// DATE and TIMESTAMP declarations make go-sqlite3 scan values back as time.Time.
var typeMap = map[schema.Type]string{
	schema.Serial:    "INTEGER PRIMARY KEY AUTOINCREMENT",
	schema.Integer:   "INTEGER",
	schema.BigInt:    "INTEGER",
	schema.Text:      "TEXT",
	schema.Decimal:   "REAL",
	schema.Float:     "REAL",
	schema.Date:      "DATE",
	schema.Timestamp: "TIMESTAMP",
	schema.Boolean:   "BOOLEAN",
}

func New() *Dialect {
	return &Dialect{}
}

func (Dialect) Name() string       { return "sqlite" }
func (Dialect) DriverName() string { return "sqlite3" }

func dbPath(cfg config.Store) string {
	return strings.TrimPrefix(cfg.Database, "sqlite://")
}

func (Dialect) DSN(cfg config.Store) (string, error) {
	path := dbPath(cfg)
	if path == "" {
		return "", fmt.Errorf("sqlite: database file is required")
	}
	if path == ":memory:" {
		return "", fmt.Errorf("sqlite: in-memory databases do not survive reconnects, use a file")
	}
	return "file:" + path + "?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL", nil
}

func (Dialect) EnsureDatabase(ctx context.Context, cfg config.Store) error {
	dir := filepath.Dir(dbPath(cfg))
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// Configure pins the pool to one connection so PRAGMAs and transactions see the same session.
func (Dialect) Configure(db *sql.DB) {
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
}

func (Dialect) Placeholder() sq.PlaceholderFormat { return sq.Question }

func (Dialect) Quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func (Dialect) ColumnType(c schema.Column) string {
	if t, ok := typeMap[c.Type]; ok {
		return t
	}
	return "TEXT"
}

func (Dialect) DisableForeignKeys() []string { return []string{"PRAGMA foreign_keys = OFF"} }
func (Dialect) EnableForeignKeys() []string  { return []string{"PRAGMA foreign_keys = ON"} }

func (d Dialect) DropTable(table string) string {
	return "DROP TABLE IF EXISTS " + d.Quote(table)
}

func (d Dialect) TruncateTable(table string) []string {
	return []string{
		"DELETE FROM " + d.Quote(table),
		"DELETE FROM sqlite_sequence WHERE name = '" + strings.ReplaceAll(table, "'", "''") + "'",
	}
}

// AddForeignKey is unsupported: SQLite cannot add constraints to an existing table.
func (Dialect) AddForeignKey(table, column, refTable, refColumn string) (string, error) {
	return "", fmt.Errorf("add foreign key %s: %w", common.ForeignKeyName(table, column), common.ErrUnsupported)
}

func (Dialect) IDStrategy() common.IDStrategy { return common.IDsFromLastInsert }

func (Dialect) MaxParams() int { return 32766 }

func (Dialect) Classify(err error) common.ErrorClass {
	if err == nil {
		return common.ClassOther
	}
	var se sqlite3.Error
	if errors.As(err, &se) {
		if se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
			return common.ClassDuplicate
		}
		if se.Code == sqlite3.ErrConstraint {
			return common.ClassConstraint
		}
		return common.ClassOther
	}
	if common.IsConnectionError(err) {
		return common.ClassConnection
	}
	return common.ClassOther
}
