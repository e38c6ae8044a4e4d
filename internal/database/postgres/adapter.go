package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/Rana718/mfgseed/internal/config"
	"github.com/Rana718/mfgseed/internal/database/common"
	"github.com/Rana718/mfgseed/internal/schema"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
)

const maintenanceDatabase = "postgres"

type Dialect struct{}

var typeMap = map[schema.Type]string{
	schema.Serial:    "BIGSERIAL PRIMARY KEY",
	schema.Integer:   "INTEGER",
	schema.BigInt:    "BIGINT",
	schema.Decimal:   "NUMERIC(14,2)",
	schema.Float:     "DOUBLE PRECISION",
	schema.Date:      "DATE",
	schema.Timestamp: "TIMESTAMP",
	schema.Boolean:   "BOOLEAN",
}

func New() *Dialect {
	return &Dialect{}
}

func (Dialect) Name() string { return "postgres" }

// DriverName is the database/sql name registered by pgx's stdlib package.
func (Dialect) DriverName() string { return "pgx" }

func connURL(cfg config.Store, database string) string {
	q := url.Values{}
	for k, v := range cfg.Options {
		q.Set(k, v)
	}
	if q.Get("sslmode") == "" {
		q.Set("sslmode", "disable")
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     "/" + database,
		RawQuery: q.Encode(),
	}
	return u.String()
}

func (Dialect) DSN(cfg config.Store) (string, error) {
	if cfg.Database == "" {
		return "", fmt.Errorf("postgres: database name is required")
	}
	return connURL(cfg, cfg.Database), nil
}

func (Dialect) EnsureDatabase(ctx context.Context, cfg config.Store) error {
	conn, err := pgx.Connect(ctx, connURL(cfg, maintenanceDatabase))
	if err != nil {
		return err
	}
	defer conn.Close(context.Background())

	var exists bool
	err = conn.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", cfg.Database).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to look up database %s: %w", cfg.Database, err)
	}
	if exists {
		return nil
	}

	if _, err := conn.Exec(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(cfg.Database)); err != nil {
		var pgErr *pgconn.PgError
		// another process created it between the lookup and the create
		if errors.As(err, &pgErr) && pgErr.Code == "42P04" {
			return nil
		}
		return fmt.Errorf("failed to create database %s: %w", cfg.Database, err)
	}
	return nil
}

func (Dialect) Configure(db *sql.DB) {
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(3 * time.Minute)
}

func (Dialect) Placeholder() sq.PlaceholderFormat { return sq.Dollar }

func (Dialect) Quote(ident string) string {
	return pq.QuoteIdentifier(ident)
}

func (Dialect) ColumnType(c schema.Column) string {
	if c.Type == schema.Text {
		if c.Size <= 0 {
			return "TEXT"
		}
		return fmt.Sprintf("VARCHAR(%d)", c.Size)
	}
	if t, ok := typeMap[c.Type]; ok {
		return t
	}
	return "TEXT"
}

// Postgres has no session switch for FK checks; drops use CASCADE instead.
func (Dialect) DisableForeignKeys() []string { return nil }
func (Dialect) EnableForeignKeys() []string  { return nil }

func (d Dialect) DropTable(table string) string {
	return "DROP TABLE IF EXISTS " + d.Quote(table) + " CASCADE"
}

func (d Dialect) TruncateTable(table string) []string {
	return []string{"TRUNCATE TABLE " + d.Quote(table) + " RESTART IDENTITY CASCADE"}
}

func (d Dialect) AddForeignKey(table, column, refTable, refColumn string) (string, error) {
	return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
		d.Quote(table), d.Quote(common.ForeignKeyName(table, column)), d.Quote(column),
		d.Quote(refTable), d.Quote(refColumn)), nil
}

func (Dialect) IDStrategy() common.IDStrategy { return common.IDsReturning }

func (Dialect) MaxParams() int { return 65535 }

func (Dialect) Classify(err error) common.ErrorClass {
	if err == nil {
		return common.ClassOther
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23505":
			return common.ClassDuplicate
		case strings.HasPrefix(pgErr.Code, "23"):
			return common.ClassConstraint
		case strings.HasPrefix(pgErr.Code, "08"), pgErr.Code == "57P01", pgErr.Code == "57P02", pgErr.Code == "57P03":
			return common.ClassConnection
		}
		return common.ClassOther
	}
	if pgconn.Timeout(err) || common.IsConnectionError(err) {
		return common.ClassConnection
	}
	return common.ClassOther
}
