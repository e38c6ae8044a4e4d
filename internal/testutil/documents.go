package testutil

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/Rana718/mfgseed/internal/database/common"
	"github.com/Rana718/mfgseed/internal/database/mongodb"
	"github.com/Rana718/mfgseed/internal/schema"
	"go.mongodb.org/mongo-driver/bson"
)

// GeoIndex records a CreateGeoIndex call and how many documents the collection held.
type GeoIndex struct {
	Collection string
	Field      string
	Documents  int
}

type collection struct {
	docs   []bson.M
	unique map[string]bool
}

// DocumentStore is an in-memory stand-in for the MongoDB store. Rows go through the
// same BSON mapping as the real store.
type DocumentStore struct {
	name        string
	collections map[string]*collection
	connected   bool

	GeoIndexes []GeoIndex
	// FailGeoIndex makes CreateGeoIndex fail for the named collections.
	FailGeoIndex map[string]bool
	// FailAfter makes every InsertBatch call after the first n fail with a transport error.
	FailAfter  int
	inserts    int
	Reconnects int
}

func NewDocumentStore() *DocumentStore {
	return &DocumentStore{name: "documents", collections: make(map[string]*collection)}
}

func (m *DocumentStore) Name() string     { return m.name }
func (m *DocumentStore) Provider() string { return "memory" }

func (m *DocumentStore) Connect(ctx context.Context) error {
	m.connected = true
	return nil
}

func (m *DocumentStore) Reconnect(ctx context.Context) error {
	m.Reconnects++
	if m.FailAfter > 0 {
		return fmt.Errorf("reconnect %s: %w", m.name, io.ErrUnexpectedEOF)
	}
	return nil
}

func (m *DocumentStore) Connected() bool { return m.connected }

func (m *DocumentStore) Close() error {
	m.connected = false
	return nil
}

func (m *DocumentStore) Ping(ctx context.Context) error { return nil }

func (m *DocumentStore) coll(name string) *collection {
	c, ok := m.collections[name]
	if !ok {
		c = &collection{unique: make(map[string]bool)}
		m.collections[name] = c
	}
	return c
}

func (m *DocumentStore) DropCollections(ctx context.Context, names []string) error {
	for _, n := range names {
		delete(m.collections, n)
	}
	return nil
}

func (m *DocumentStore) EnsureCollection(ctx context.Context, e *schema.Entity) error {
	m.coll(e.Name)
	return nil
}

func (m *DocumentStore) CreateGeoIndex(ctx context.Context, e *schema.Entity, field string) error {
	if m.FailGeoIndex[e.Name] {
		return fmt.Errorf("can't extract geo keys from %s.%s", e.Name, field)
	}
	m.GeoIndexes = append(m.GeoIndexes, GeoIndex{Collection: e.Name, Field: field, Documents: len(m.coll(e.Name).docs)})
	return nil
}

func (m *DocumentStore) InsertBatch(ctx context.Context, e *schema.Entity, rows [][]any, opts common.BatchOptions) (common.BatchResult, error) {
	var res common.BatchResult
	m.inserts++
	if m.FailAfter > 0 && m.inserts > m.FailAfter {
		return res, &common.InsertError{Store: m.name, Kind: e.Name, Class: common.ClassConnection, Err: io.EOF}
	}

	c := m.coll(e.Name)
	cols := e.InsertColumns()
	idIdx := -1
	for i, col := range cols {
		if col.Name == e.IDColumn {
			idIdx = i
		}
	}

	for i, row := range rows {
		doc, err := mongodb.ToDocument(cols, row)
		if err != nil {
			return res, &common.InsertError{Store: m.name, Kind: e.Name, Class: common.ClassOther, Err: err}
		}
		flat := doc.Map()
		keys := uniqueKeys(e, flat)
		dup := false
		for _, k := range keys {
			if c.unique[k] {
				dup = true
			}
		}
		if dup {
			if !opts.SkipDuplicates {
				return res, &common.InsertError{Store: m.name, Kind: e.Name, Class: common.ClassDuplicate,
					Err: fmt.Errorf("row %d: E11000 duplicate key", i)}
			}
			res.Skipped++
			if opts.Ordered {
				res.Skipped += len(rows) - i - 1
				return res, nil
			}
			continue
		}
		for _, k := range keys {
			c.unique[k] = true
		}
		c.docs = append(c.docs, flat)
		res.Inserted++
		res.Rows = append(res.Rows, i)
		if idIdx >= 0 {
			res.IDs = append(res.IDs, row[idIdx])
		} else {
			res.IDs = append(res.IDs, nil)
		}
	}
	return res, nil
}

func uniqueKeys(e *schema.Entity, doc bson.M) []string {
	keys := make([]string, len(e.Unique))
	for i, u := range e.Unique {
		parts := make([]string, len(u))
		for j, f := range u {
			parts[j] = fmt.Sprint(doc[f])
		}
		keys[i] = fmt.Sprintf("%d:%s", i, strings.Join(parts, "|"))
	}
	return keys
}

func (m *DocumentStore) TruncateInOrder(ctx context.Context, names []string) error {
	for _, n := range names {
		if c, ok := m.collections[n]; ok {
			c.docs = nil
			c.unique = make(map[string]bool)
		}
	}
	return nil
}

// Documents returns the stored documents of a collection with plain Go values.
func (m *DocumentStore) Documents(name string) []map[string]any {
	c, ok := m.collections[name]
	if !ok {
		return nil
	}
	out := make([]map[string]any, len(c.docs))
	for i, d := range c.docs {
		out[i] = mongodb.FromBSON(d).(map[string]interface{})
	}
	return out
}

// Raw exposes the BSON documents as written.
func (m *DocumentStore) Raw(name string) []bson.M {
	if c, ok := m.collections[name]; ok {
		return c.docs
	}
	return nil
}

func (m *DocumentStore) sorted(e *schema.Entity) []map[string]any {
	docs := m.Documents(e.Name)
	sort.SliceStable(docs, func(i, j int) bool {
		return fmt.Sprint(docs[i][e.IDColumn]) < fmt.Sprint(docs[j][e.IDColumn])
	})
	return docs
}

func (m *DocumentStore) FetchIDs(ctx context.Context, e *schema.Entity, limit int) ([]any, error) {
	rows, err := m.FetchColumns(ctx, e, []string{e.IDColumn}, nil, limit)
	if err != nil {
		return nil, err
	}
	ids := make([]any, len(rows))
	for i, r := range rows {
		ids[i] = r[0]
	}
	return ids, nil
}

func (m *DocumentStore) FetchColumns(ctx context.Context, e *schema.Entity, cols []string, filter *schema.TagRule, limit int) ([][]any, error) {
	var out [][]any
	for _, d := range m.sorted(e) {
		if filter != nil && !filter.Match(d[filter.Column]) {
			continue
		}
		row := make([]any, len(cols))
		for i, c := range cols {
			row[i] = d[c]
		}
		out = append(out, row)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *DocumentStore) SampleValues(ctx context.Context, e *schema.Entity, field string, limit int) ([]any, error) {
	seen := make(map[any]bool)
	var out []any
	for _, d := range m.Documents(e.Name) {
		v := d[field]
		if v == nil || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.SliceStable(out, func(i, j int) bool { return fmt.Sprint(out[i]) < fmt.Sprint(out[j]) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *DocumentStore) Count(ctx context.Context, e *schema.Entity) (int64, error) {
	if c, ok := m.collections[e.Name]; ok {
		return int64(len(c.docs)), nil
	}
	return 0, nil
}

func (m *DocumentStore) CountInvalidPoints(ctx context.Context, e *schema.Entity, field string) (int64, error) {
	var n int64
	for _, d := range m.Documents(e.Name) {
		p, ok := d[field].(schema.GeoPoint)
		if !ok || p.Latitude < -90 || p.Latitude > 90 || p.Longitude < -180 || p.Longitude > 180 {
			n++
		}
	}
	return n, nil
}

func (m *DocumentStore) CountInverted(ctx context.Context, e *schema.Entity, start, end string) (int64, error) {
	var n int64
	for _, d := range m.Documents(e.Name) {
		s, ok1 := d[start].(time.Time)
		f, ok2 := d[end].(time.Time)
		if ok1 && ok2 && f.Before(s) {
			n++
		}
	}
	return n, nil
}
