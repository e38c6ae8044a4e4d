package common

import (
	"fmt"
	"strings"

	"github.com/Rana718/mfgseed/internal/schema"
)

// CreateTable renders the CREATE TABLE statement for e. References that are deferred
// or point into another store are plain columns here; deferred ones get their
// constraint later through AddForeignKey.
func CreateTable(d Dialect, c *schema.Catalog, e *schema.Entity) string {
	var lines []string
	for _, col := range e.Columns {
		def := d.Quote(col.Name) + " " + d.ColumnType(col)
		if col.Type != schema.Serial && !col.Nullable {
			def += " NOT NULL"
		}
		lines = append(lines, "  "+def)
	}

	for i, u := range e.Unique {
		lines = append(lines, fmt.Sprintf("  CONSTRAINT %s UNIQUE (%s)", d.Quote(UniqueName(e.Name, i)), quoteList(d, u)))
	}

	for _, col := range e.Columns {
		if col.Ref == nil || col.Ref.Deferred {
			continue
		}
		target, ok := c.Entity(col.Ref.Entity)
		if !ok || target.Store != e.Store {
			continue
		}
		lines = append(lines, fmt.Sprintf("  CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
			d.Quote(ForeignKeyName(e.Name, col.Name)), d.Quote(col.Name),
			d.Quote(target.Name), d.Quote(target.IDColumn)))
	}

	return fmt.Sprintf("CREATE TABLE %s (\n%s\n)", d.Quote(e.Name), strings.Join(lines, ",\n"))
}

// CreateIndexes renders secondary indexes declared on e.
func CreateIndexes(d Dialect, e *schema.Entity) []string {
	var out []string
	for _, ix := range e.Indexes {
		out = append(out, fmt.Sprintf("CREATE INDEX %s ON %s (%s)",
			d.Quote(IndexName(e.Name, ix)), d.Quote(e.Name), quoteList(d, ix)))
	}
	return out
}

func quoteList(d Dialect, names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = d.Quote(n)
	}
	return strings.Join(quoted, ", ")
}
