package relational

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/Rana718/mfgseed/internal/database/common"
	"github.com/Rana718/mfgseed/internal/schema"
)

// InsertBatch writes rows (aligned to e.InsertColumns) in one transaction. When the
// batch hits a constraint violation it is rolled back and every row is retried on
// its own; duplicates are skipped and any other failure stops the batch.
func (s *Store) InsertBatch(ctx context.Context, e *schema.Entity, rows [][]any, opts common.BatchOptions) (common.BatchResult, error) {
	var res common.BatchResult
	if len(rows) == 0 {
		return res, nil
	}
	if s.db == nil {
		return res, &common.InsertError{Store: s.name, Kind: e.Name, Class: common.ClassConnection, Err: sql.ErrConnDone}
	}

	ctx, cancel := s.callContext(ctx)
	defer cancel()

	cols := e.InsertColumnNames()
	ids, err := s.insertAll(ctx, e, cols, rows)
	if err == nil {
		res.Inserted = len(rows)
		res.IDs = ids
		res.Rows = make([]int, len(rows))
		for i := range rows {
			res.Rows[i] = i
		}
		return res, nil
	}

	class := s.dialect.Classify(err)
	if class != common.ClassDuplicate && class != common.ClassConstraint {
		return res, &common.InsertError{Store: s.name, Kind: e.Name, Class: class, Err: err}
	}
	return s.insertRows(ctx, e, cols, rows, opts)
}

func (s *Store) insertStatement(e *schema.Entity, cols []string, rows [][]any) (string, []any, error) {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = s.dialect.Quote(c)
	}
	b := s.qb.Insert(s.dialect.Quote(e.Name)).Columns(quoted...)
	for _, r := range rows {
		if len(r) != len(cols) {
			return "", nil, fmt.Errorf("%s: row has %d values, expected %d", e.Name, len(r), len(cols))
		}
		b = b.Values(r...)
	}
	if e.ID == schema.Surrogate && s.dialect.IDStrategy() == common.IDsReturning {
		b = b.Suffix("RETURNING " + s.dialect.Quote(e.IDColumn))
	}
	return b.ToSql()
}

type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Store) insertAll(ctx context.Context, e *schema.Entity, cols []string, rows [][]any) ([]any, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	perStatement := s.dialect.MaxParams() / len(cols)
	if perStatement < 1 {
		perStatement = 1
	}

	ids := make([]any, 0, len(rows))
	for start := 0; start < len(rows); start += perStatement {
		end := start + perStatement
		if end > len(rows) {
			end = len(rows)
		}
		chunk, err := s.insertChunk(ctx, tx, e, cols, rows[start:end])
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		ids = append(ids, chunk...)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Store) insertChunk(ctx context.Context, q execQuerier, e *schema.Entity, cols []string, rows [][]any) ([]any, error) {
	query, args, err := s.insertStatement(e, cols, rows)
	if err != nil {
		return nil, err
	}

	if e.ID != schema.Surrogate {
		if _, err := q.ExecContext(ctx, query, args...); err != nil {
			return nil, err
		}
		return echoIDs(e, cols, rows), nil
	}

	if s.dialect.IDStrategy() == common.IDsReturning {
		result, err := q.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, err
		}
		defer result.Close()

		ids := make([]any, 0, len(rows))
		for result.Next() {
			var id int64
			if err := result.Scan(&id); err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
		if err := result.Err(); err != nil {
			return nil, err
		}
		return ids, nil
	}

	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	last, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	first := last
	if s.dialect.IDStrategy() == common.IDsFromLastInsert {
		first = last - int64(len(rows)) + 1
	}
	ids := make([]any, len(rows))
	for i := range rows {
		ids[i] = first + int64(i)
	}
	return ids, nil
}

// insertRows is the per-row fallback. Each row commits on its own.
func (s *Store) insertRows(ctx context.Context, e *schema.Entity, cols []string, rows [][]any, opts common.BatchOptions) (common.BatchResult, error) {
	res := common.BatchResult{FellBack: true}
	for i, row := range rows {
		ids, err := s.insertChunk(ctx, s.db, e, cols, [][]any{row})
		if err == nil {
			res.Inserted++
			res.Rows = append(res.Rows, i)
			res.IDs = append(res.IDs, ids[0])
			continue
		}

		class := s.dialect.Classify(err)
		if class == common.ClassDuplicate && opts.SkipDuplicates {
			res.Skipped++
			if opts.Ordered {
				res.Skipped += len(rows) - i - 1
				return res, nil
			}
			continue
		}
		return res, &common.InsertError{Store: s.name, Kind: e.Name, Class: class,
			Err: fmt.Errorf("row %d: %w", i, err)}
	}
	return res, nil
}

func echoIDs(e *schema.Entity, cols []string, rows [][]any) []any {
	idx := -1
	for i, c := range cols {
		if c == e.IDColumn {
			idx = i
			break
		}
	}
	ids := make([]any, len(rows))
	if idx < 0 {
		return ids
	}
	for i, r := range rows {
		ids[i] = r[idx]
	}
	return ids
}

// FetchIDs returns the primary identifiers of e in ascending order.
func (s *Store) FetchIDs(ctx context.Context, e *schema.Entity, limit int) ([]any, error) {
	rows, err := s.FetchColumns(ctx, e, []string{e.IDColumn}, nil, limit)
	if err != nil {
		return nil, err
	}
	ids := make([]any, len(rows))
	for i, r := range rows {
		ids[i] = r[0]
	}
	return ids, nil
}

// FetchColumns reads cols ordered by id, optionally restricted to rows matching a tag rule.
func (s *Store) FetchColumns(ctx context.Context, e *schema.Entity, cols []string, filter *schema.TagRule, limit int) ([][]any, error) {
	defs := make([]schema.Column, len(cols))
	quoted := make([]string, len(cols))
	for i, name := range cols {
		c, ok := e.Column(name)
		if !ok {
			return nil, fmt.Errorf("%s has no column %s", e.Name, name)
		}
		defs[i] = c
		quoted[i] = s.dialect.Quote(name)
	}

	q := s.qb.Select(quoted...).From(s.dialect.Quote(e.Name)).OrderBy(s.dialect.Quote(e.IDColumn))
	if filter != nil {
		col := s.dialect.Quote(filter.Column)
		if filter.Contains {
			q = q.Where(sq.Like{col: "%" + filter.Value + "%"})
		} else {
			q = q.Where(sq.Eq{col: filter.Value})
		}
	}
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	return s.queryTyped(ctx, defs, query, args...)
}

// SampleValues returns up to limit distinct non-null values of one column.
func (s *Store) SampleValues(ctx context.Context, e *schema.Entity, column string, limit int) ([]any, error) {
	c, ok := e.Column(column)
	if !ok {
		return nil, fmt.Errorf("%s has no column %s", e.Name, column)
	}
	col := s.dialect.Quote(column)
	q := s.qb.Select(col).Distinct().From(s.dialect.Quote(e.Name)).
		Where(sq.NotEq{col: nil}).OrderBy(col)
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.queryTyped(ctx, []schema.Column{c}, query, args...)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = r[0]
	}
	return out, nil
}

func (s *Store) queryTyped(ctx context.Context, defs []schema.Column, query string, args ...any) ([][]any, error) {
	if s.db == nil {
		return nil, s.notConnected()
	}
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out [][]any
	for rows.Next() {
		dest := make([]any, len(defs))
		for i, c := range defs {
			dest[i] = scanTarget(c.Type)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		vals := make([]any, len(defs))
		for i := range dest {
			vals[i] = scannedValue(dest[i])
		}
		out = append(out, vals)
	}
	return out, rows.Err()
}

func scanTarget(t schema.Type) any {
	switch t {
	case schema.Serial, schema.Integer, schema.BigInt:
		return &sql.NullInt64{}
	case schema.Decimal, schema.Float:
		return &sql.NullFloat64{}
	case schema.Date, schema.Timestamp:
		return &sql.NullTime{}
	case schema.Boolean:
		return &sql.NullBool{}
	}
	return &sql.NullString{}
}

func scannedValue(v any) any {
	switch x := v.(type) {
	case *sql.NullInt64:
		if x.Valid {
			return x.Int64
		}
	case *sql.NullFloat64:
		if x.Valid {
			return x.Float64
		}
	case *sql.NullTime:
		if x.Valid {
			return x.Time
		}
	case *sql.NullBool:
		if x.Valid {
			return x.Bool
		}
	case *sql.NullString:
		if x.Valid {
			return x.String
		}
	}
	return nil
}
