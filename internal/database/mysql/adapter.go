package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/Rana718/mfgseed/internal/config"
	"github.com/Rana718/mfgseed/internal/database/common"
	"github.com/Rana718/mfgseed/internal/schema"
	"github.com/go-sql-driver/mysql"
)

// MySQL error numbers the loader cares about.
const (
	errDuplicateEntry   = 1062
	errRowIsReferenced  = 1451
	errNoReferencedRow  = 1452
	errRowIsReferenced1 = 1216
	errNoReferencedRow1 = 1217
	errBadNull          = 1048
	errNoDefault        = 1364
	errCheckViolated    = 3819
	errServerGone       = 2006
	errServerLost       = 2013
)

type Dialect struct{}

var typeMap = map[schema.Type]string{
	schema.Serial:    "BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY",
	schema.Integer:   "INT",
	schema.BigInt:    "BIGINT",
	schema.Decimal:   "DECIMAL(14,2)",
	schema.Float:     "DOUBLE",
	schema.Date:      "DATE",
	schema.Timestamp: "DATETIME",
	schema.Boolean:   "BOOLEAN",
}

func New() *Dialect {
	return &Dialect{}
}

func (Dialect) Name() string       { return "mysql" }
func (Dialect) DriverName() string { return "mysql" }

func (Dialect) config(cfg config.Store) *mysql.Config {
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	mc.DBName = cfg.Database
	mc.ParseTime = true
	mc.Loc = time.UTC
	if len(cfg.Options) > 0 {
		mc.Params = make(map[string]string, len(cfg.Options))
		for k, v := range cfg.Options {
			mc.Params[k] = v
		}
	}
	return mc
}

func (d Dialect) DSN(cfg config.Store) (string, error) {
	if cfg.Database == "" {
		return "", fmt.Errorf("mysql: database name is required")
	}
	return d.config(cfg).FormatDSN(), nil
}

func (d Dialect) EnsureDatabase(ctx context.Context, cfg config.Store) error {
	mc := d.config(cfg)
	mc.DBName = ""

	db, err := sql.Open("mysql", mc.FormatDSN())
	if err != nil {
		return fmt.Errorf("failed to open MySQL connection: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, "CREATE DATABASE IF NOT EXISTS "+d.Quote(cfg.Database)+" CHARACTER SET utf8mb4")
	if err != nil {
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

func (Dialect) Placeholder() sq.PlaceholderFormat { return sq.Question }

func (Dialect) Quote(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

func (Dialect) ColumnType(c schema.Column) string {
	if c.Type == schema.Text {
		size := c.Size
		if size <= 0 {
			size = 255
		}
		return fmt.Sprintf("VARCHAR(%d)", size)
	}
	if t, ok := typeMap[c.Type]; ok {
		return t
	}
	return "TEXT"
}

func (Dialect) DisableForeignKeys() []string { return []string{"SET FOREIGN_KEY_CHECKS = 0"} }
func (Dialect) EnableForeignKeys() []string  { return []string{"SET FOREIGN_KEY_CHECKS = 1"} }

func (d Dialect) DropTable(table string) string {
	return "DROP TABLE IF EXISTS " + d.Quote(table)
}

func (d Dialect) TruncateTable(table string) []string {
	return []string{"TRUNCATE TABLE " + d.Quote(table)}
}

func (d Dialect) AddForeignKey(table, column, refTable, refColumn string) (string, error) {
	return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
		d.Quote(table), d.Quote(common.ForeignKeyName(table, column)), d.Quote(column),
		d.Quote(refTable), d.Quote(refColumn)), nil
}

func (Dialect) IDStrategy() common.IDStrategy { return common.IDsFromFirstInsert }

func (Dialect) MaxParams() int { return 65535 }

func (Dialect) Classify(err error) common.ErrorClass {
	if err == nil {
		return common.ClassOther
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case errDuplicateEntry:
			return common.ClassDuplicate
		case errRowIsReferenced, errNoReferencedRow, errRowIsReferenced1, errNoReferencedRow1,
			errBadNull, errNoDefault, errCheckViolated:
			return common.ClassConstraint
		case errServerGone, errServerLost:
			return common.ClassConnection
		}
		return common.ClassOther
	}
	if errors.Is(err, mysql.ErrInvalidConn) || common.IsConnectionError(err) {
		return common.ClassConnection
	}
	return common.ClassOther
}
