// Package loader drives one entity kind from its row factory into a store, batch by
// batch, and records every committed identifier in the ID cache.
package loader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Rana718/mfgseed/internal/database/common"
	"github.com/Rana718/mfgseed/internal/factory"
	"github.com/Rana718/mfgseed/internal/idcache"
	"github.com/Rana718/mfgseed/internal/logger"
	"github.com/Rana718/mfgseed/internal/schema"
)

// Sink is the part of a store the loader writes through.
type Sink interface {
	Name() string
	InsertBatch(ctx context.Context, e *schema.Entity, rows [][]any, opts common.BatchOptions) (common.BatchResult, error)
	Reconnect(ctx context.Context) error
}

type Result struct {
	Kind     string        `yaml:"kind"`
	Target   int           `yaml:"target"`
	Inserted int           `yaml:"inserted"`
	Skipped  int           `yaml:"skipped"`
	Batches  int           `yaml:"batches"`
	Duration time.Duration `yaml:"duration"`
}

type Loader struct {
	sink          Sink
	cache         *idcache.Cache
	log           *logger.Logger
	progressEvery int
}

func New(sink Sink, cache *idcache.Cache, log *logger.Logger, progressEvery int) *Loader {
	if log == nil {
		log = logger.Discard()
	}
	if progressEvery < 1 {
		progressEvery = 1
	}
	return &Loader{sink: sink, cache: cache, log: log, progressEvery: progressEvery}
}

// Load generates fctx.Entry.Target rows for e and writes them in batches. Rows that
// reach the store are visible to later kinds through the cache even when Load fails.
func (l *Loader) Load(ctx context.Context, e *schema.Entity, fctx *factory.Context) (res Result, err error) {
	entry := fctx.Entry
	res = Result{Kind: e.Name, Target: entry.Target}
	started := time.Now()
	defer func() { res.Duration = time.Since(started) }()

	l.log.Info("  📝 Seeding %s (%d records)...", e.Name, entry.Target)
	if entry.Target <= 0 {
		l.log.Success("  ✅ %s: nothing to seed", e.Name)
		return res, nil
	}

	ctor, err := factory.For(e.Name)
	if err != nil {
		return res, err
	}
	fn, err := ctor(fctx)
	if err != nil {
		return res, fmt.Errorf("cannot seed %s: %w", e.Name, err)
	}

	batchSize := entry.BatchSize
	if batchSize <= 0 {
		batchSize = 1000
	}
	opts := common.BatchOptions{SkipDuplicates: entry.SkipOnDuplicate, Ordered: entry.Ordered}
	rec := newRecorder(e, l.cache)

	for start, batch := 0, 0; start < entry.Target; start, batch = start+batchSize, batch+1 {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		n := batchSize
		if start+n > entry.Target {
			n = entry.Target - start
		}
		rows := make([][]any, 0, n)
		for i := start; i < start+n; i++ {
			row, err := fn(i, fctx)
			if err != nil {
				return res, fmt.Errorf("%s row %d: %w", e.Name, i, err)
			}
			values, err := factory.Values(e, row)
			if err != nil {
				return res, err
			}
			rows = append(rows, values)
		}

		inserted, skipped, err := l.writeBatch(ctx, e, rows, opts, batch, rec)
		res.Inserted += inserted
		res.Skipped += skipped
		if err != nil {
			return res, err
		}
		res.Batches++

		if skipped > 0 {
			l.log.Warn("%s batch %d: skipped %d duplicate row(s)", e.Name, batch, skipped)
		}
		if res.Batches%l.progressEvery == 0 || start+n >= entry.Target {
			l.log.Detail("     %s: %d/%d rows", e.Name, start+n, entry.Target)
		}
	}

	if res.Skipped > 0 {
		l.log.Success("  ✅ %s seeded: %d inserted, %d skipped", e.Name, res.Inserted, res.Skipped)
	} else {
		l.log.Success("  ✅ %s seeded: %d inserted", e.Name, res.Inserted)
	}
	return res, nil
}

// writeBatch inserts one batch. A connection failure earns exactly one reconnect,
// after which only the rows the store has not accounted for are sent again.
// Cancellation of ctx does not reach the store: a batch that has started is
// committed, and Load stops before the next one.
func (l *Loader) writeBatch(ctx context.Context, e *schema.Entity, rows [][]any, opts common.BatchOptions, batch int, rec *recorder) (int, int, error) {
	wctx := context.WithoutCancel(ctx)
	br, err := l.sink.InsertBatch(wctx, e, rows, opts)
	rec.record(rows, br)
	inserted, skipped := br.Inserted, br.Skipped
	if err == nil {
		return inserted, skipped, nil
	}
	if !common.IsConnectionError(err) || ctx.Err() != nil {
		return inserted, skipped, l.fatal(e, batch, err)
	}

	l.log.Warn("connection to %s store lost during %s batch %d, reconnecting", l.sink.Name(), e.Name, batch)
	if rerr := l.sink.Reconnect(wctx); rerr != nil {
		return inserted, skipped, &common.InsertError{
			Store: l.sink.Name(),
			Kind:  e.Name,
			Batch: batch,
			Class: common.ClassConnection,
			Err:   fmt.Errorf("%w (reconnect: %w)", cause(err), rerr),
		}
	}

	offset := br.Inserted + br.Skipped
	resend := opts
	resend.Resend = true
	br, err = l.sink.InsertBatch(wctx, e, rows[offset:], resend)
	rec.record(rows[offset:], br)
	inserted += br.Inserted
	skipped += br.Skipped
	if err != nil {
		return inserted, skipped, l.fatal(e, batch, err)
	}
	return inserted, skipped, nil
}

func (l *Loader) fatal(e *schema.Entity, batch int, err error) error {
	var ie *common.InsertError
	if errors.As(err, &ie) {
		ie.Batch = batch
		if ie.Store == "" {
			ie.Store = l.sink.Name()
		}
		if ie.Kind == "" {
			ie.Kind = e.Name
		}
		return ie
	}
	class := common.ClassOther
	if common.IsConnectionError(err) {
		class = common.ClassConnection
	}
	return &common.InsertError{Store: l.sink.Name(), Kind: e.Name, Batch: batch, Class: class, Err: err}
}

// cause strips the store's InsertError so a rewrapped failure does not repeat its prefix.
func cause(err error) error {
	var ie *common.InsertError
	if errors.As(err, &ie) && ie.Err != nil {
		return ie.Err
	}
	return err
}

// recorder files committed rows into the id cache, its tag pools and its captured attributes.
type recorder struct {
	e       *schema.Entity
	cache   *idcache.Cache
	tags    []int
	capture []int
}

func newRecorder(e *schema.Entity, cache *idcache.Cache) *recorder {
	pos := make(map[string]int)
	for i, name := range e.InsertColumnNames() {
		pos[name] = i
	}
	r := &recorder{e: e, cache: cache}
	for _, t := range e.Tags {
		r.tags = append(r.tags, lookup(pos, t.Column))
	}
	for _, c := range e.Capture {
		r.capture = append(r.capture, lookup(pos, c))
	}
	return r
}

func lookup(pos map[string]int, name string) int {
	if i, ok := pos[name]; ok {
		return i
	}
	return -1
}

func (r *recorder) record(rows [][]any, br common.BatchResult) {
	for j, idx := range br.Rows {
		if j >= len(br.IDs) {
			return
		}
		id := br.IDs[j]
		row := rows[idx]
		r.cache.Push(r.e.Name, id)

		for t, col := range r.tags {
			if col >= 0 && r.e.Tags[t].Match(row[col]) {
				r.cache.Push(schema.PoolName(r.e.Name, r.e.Tags[t].Name), id)
			}
		}
		if len(r.capture) > 0 {
			values := make([]any, len(r.capture))
			for k, col := range r.capture {
				if col >= 0 {
					values[k] = row[col]
				}
			}
			r.cache.Capture(r.e.Name, id, values)
		}
	}
}
