package common

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/Rana718/mfgseed/internal/config"
	"github.com/Rana718/mfgseed/internal/schema"
)

var (
	commentRegex = regexp.MustCompile(`(?m)^\s*--.*$`)
	stringRegex  = regexp.MustCompile(`'(?:[^']|'')*'|"(?:[^"]|"")*"|` + "`(?:[^`]|``)*`")
)

// IDStrategy is how a dialect reports the surrogate keys of a multi-row insert.
type IDStrategy int

const (
	// IDsReturning reads one id per row from a RETURNING clause.
	IDsReturning IDStrategy = iota
	// IDsFromFirstInsert treats LastInsertId as the first id of a consecutive block (MySQL).
	IDsFromFirstInsert
	// IDsFromLastInsert treats LastInsertId as the last id of a consecutive block (SQLite).
	IDsFromLastInsert
)

// Dialect captures everything that differs between the relational providers.
type Dialect interface {
	Name() string
	DriverName() string
	DSN(cfg config.Store) (string, error)
	// EnsureDatabase creates the database when it is absent. It is idempotent.
	EnsureDatabase(ctx context.Context, cfg config.Store) error
	Configure(db *sql.DB)
	Placeholder() sq.PlaceholderFormat
	Quote(ident string) string
	ColumnType(c schema.Column) string
	DisableForeignKeys() []string
	EnableForeignKeys() []string
	DropTable(table string) string
	TruncateTable(table string) []string
	AddForeignKey(table, column, refTable, refColumn string) (string, error)
	IDStrategy() IDStrategy
	MaxParams() int
	Classify(err error) ErrorClass
}

type BatchOptions struct {
	SkipDuplicates bool
	Ordered        bool
	// Resend marks the second attempt at a batch after a reconnect. Rows of the
	// batch may already be stored.
	Resend bool
}

// BatchResult describes one insert_batch call. Rows holds the indexes of the rows
// that were written and IDs their identifiers, in the same order.
type BatchResult struct {
	Inserted int
	Skipped  int
	Rows     []int
	IDs      []any
	FellBack bool
}

func ForeignKeyName(table, column string) string {
	return "fk_" + table + "_" + column
}

func UniqueName(table string, i int) string {
	return fmt.Sprintf("uq_%s_%d", table, i+1)
}

func IndexName(table string, columns []string) string {
	return "idx_" + table + "_" + strings.Join(columns, "_")
}

// ParseSQLStatements splits a DDL script on semicolons that are not inside quotes.
func ParseSQLStatements(script string) []string {
	script = commentRegex.ReplaceAllString(script, "")

	quoted := make(map[int]bool)
	for _, match := range stringRegex.FindAllStringIndex(script, -1) {
		for i := match[0]; i < match[1]; i++ {
			quoted[i] = true
		}
	}

	statements := make([]string, 0, strings.Count(script, ";")+1)
	var current strings.Builder

	flush := func() {
		stmt := strings.TrimSpace(current.String())
		if stmt != "" && !strings.HasPrefix(stmt, "/*") {
			statements = append(statements, stmt)
		}
		current.Reset()
	}

	for i, char := range script {
		if char == ';' && !quoted[i] {
			flush()
			continue
		}
		current.WriteRune(char)
	}
	flush()

	return statements
}
