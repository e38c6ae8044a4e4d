// Package relational implements the relational store contract on database/sql for
// any dialect: connect with create-if-absent, schema apply, batched inserts with a
// per-row fallback, truncation in FK order and id reads.
package relational

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/Rana718/mfgseed/internal/config"
	"github.com/Rana718/mfgseed/internal/database/common"
	"github.com/Rana718/mfgseed/internal/schema"
)

type Options struct {
	ConnectTimeout time.Duration
	CallTimeout    time.Duration
	// ConnectRetryDelay is the pause before the single connect retry.
	ConnectRetryDelay time.Duration
}

type Store struct {
	name    string
	cfg     config.Store
	dialect common.Dialect
	opts    Options
	db      *sql.DB
	qb      sq.StatementBuilderType
}

func New(name string, cfg config.Store, dialect common.Dialect, opts Options) *Store {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 5 * time.Second
	}
	if opts.ConnectRetryDelay <= 0 {
		opts.ConnectRetryDelay = time.Second
	}
	return &Store{
		name:    name,
		cfg:     cfg,
		dialect: dialect,
		opts:    opts,
		qb:      sq.StatementBuilder.PlaceholderFormat(dialect.Placeholder()),
	}
}

func (s *Store) Name() string { return s.name }

func (s *Store) Provider() string { return s.dialect.Name() }

func (s *Store) Dialect() common.Dialect { return s.dialect }

// DB exposes the pool for callers that need raw access, such as tests.
func (s *Store) DB() *sql.DB { return s.db }

// Connect opens the pool, creating the database first when it does not exist.
// A failed attempt is retried once before a ConnectError is returned.
func (s *Store) Connect(ctx context.Context) error {
	var err error
	for attempt := 1; attempt <= 2; attempt++ {
		if err = s.connectOnce(ctx); err == nil {
			return nil
		}
		if attempt == 1 {
			select {
			case <-ctx.Done():
				return &common.ConnectError{Store: s.name, Provider: s.dialect.Name(), Attempts: attempt, Err: ctx.Err()}
			case <-time.After(s.opts.ConnectRetryDelay):
			}
		}
	}
	return &common.ConnectError{Store: s.name, Provider: s.dialect.Name(), Attempts: 2, Err: err}
}

func (s *Store) connectOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.opts.ConnectTimeout)
	defer cancel()

	if err := s.dialect.EnsureDatabase(ctx, s.cfg); err != nil {
		return err
	}

	dsn, err := s.dialect.DSN(s.cfg)
	if err != nil {
		return err
	}
	db, err := sql.Open(s.dialect.DriverName(), dsn)
	if err != nil {
		return fmt.Errorf("failed to open %s connection: %w", s.dialect.Name(), err)
	}
	s.dialect.Configure(db)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return err
	}

	if s.db != nil {
		s.db.Close()
	}
	s.db = db
	return nil
}

func (s *Store) Reconnect(ctx context.Context) error {
	if s.db != nil {
		s.db.Close()
		s.db = nil
	}
	return s.Connect(ctx)
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) Ping(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("%s store is not connected", s.name)
	}
	return s.db.PingContext(ctx)
}

func (s *Store) notConnected() error {
	return fmt.Errorf("%s store is not connected: %w", s.name, sql.ErrConnDone)
}

func (s *Store) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.CallTimeout > 0 {
		return context.WithTimeout(ctx, s.opts.CallTimeout)
	}
	return context.WithCancel(ctx)
}

// ApplySchema runs a DDL script statement by statement on a single session so that
// session-scoped switches such as FK checks stay in effect across statements.
// On failure the statements before the failing one remain applied.
func (s *Store) ApplySchema(ctx context.Context, script string) error {
	if s.db == nil {
		return &common.SchemaError{Store: s.name, Err: errors.New("store is not connected")}
	}
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return &common.SchemaError{Store: s.name, Err: err}
	}
	defer conn.Close()

	for _, stmt := range common.ParseSQLStatements(script) {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return &common.SchemaError{Store: s.name, Statement: stmt, Err: err}
		}
	}
	return nil
}

// TruncateInOrder empties the given tables in order. FK checks are switched off for
// the session where the dialect supports it, so the order only matters elsewhere.
func (s *Store) TruncateInOrder(ctx context.Context, tables []string) error {
	if s.db == nil {
		return s.notConnected()
	}
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	for _, stmt := range s.dialect.DisableForeignKeys() {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to disable foreign key checks: %w", err)
		}
	}
	for _, table := range tables {
		for _, stmt := range s.dialect.TruncateTable(table) {
			if _, err := conn.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to truncate %s: %w", table, err)
			}
		}
	}
	for _, stmt := range s.dialect.EnableForeignKeys() {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to re-enable foreign key checks: %w", err)
		}
	}
	return nil
}

// Exec runs a single statement and returns the number of affected rows.
func (s *Store) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	if s.db == nil {
		return 0, s.notConnected()
	}
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}

// QueryInt runs a query returning a single integer, typically a COUNT.
func (s *Store) QueryInt(ctx context.Context, query string, args ...any) (int64, error) {
	if s.db == nil {
		return 0, s.notConnected()
	}
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	var n sql.NullInt64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n.Int64, nil
}

func (s *Store) Count(ctx context.Context, e *schema.Entity) (int64, error) {
	query, args, err := s.qb.Select("COUNT(*)").From(s.dialect.Quote(e.Name)).ToSql()
	if err != nil {
		return 0, err
	}
	return s.QueryInt(ctx, query, args...)
}
