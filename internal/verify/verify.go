// Package verify checks a populated set of stores against the invariants every run
// must leave behind: references resolve, unique keys hold, intervals are ordered,
// coordinates are in range, counts reach their targets and deferred references are
// filled.
package verify

import (
	"context"
	"fmt"
	"sort"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/Rana718/mfgseed/internal/database"
	"github.com/Rana718/mfgseed/internal/idcache"
	"github.com/Rana718/mfgseed/internal/loader"
	"github.com/Rana718/mfgseed/internal/logger"
	"github.com/Rana718/mfgseed/internal/resolver"
	"github.com/Rana718/mfgseed/internal/schema"
)

const (
	References     = "references"
	UniqueKeys     = "unique keys"
	Intervals      = "intervals"
	Coordinates    = "coordinates"
	Counts         = "counts"
	CrossStore     = "cross-store references"
	DeferredFilled = "deferred references"
)

type Check struct {
	Property   string `yaml:"property"`
	Subject    string `yaml:"subject"`
	Violations int64  `yaml:"violations"`
	Detail     string `yaml:"detail,omitempty"`
}

type Report struct {
	Checks []Check `yaml:"checks"`
}

func (r *Report) add(property, subject string, n int64, detail string) {
	r.Checks = append(r.Checks, Check{Property: property, Subject: subject, Violations: n, Detail: detail})
}

func (r Report) Failed() []Check {
	var out []Check
	for _, c := range r.Checks {
		if c.Violations > 0 {
			out = append(out, c)
		}
	}
	return out
}

func (r Report) OK() bool { return len(r.Failed()) == 0 }

type Verifier struct {
	catalog *schema.Catalog
	stores  *database.Stores
	sample  int
	log     *logger.Logger

	// identifiers of referenced entities, read once per run and keyed by their text form
	known *idcache.Cache
}

// New builds a verifier over connected stores. Stores left nil are not checked.
// sample bounds how many distinct values are read per cross-store reference.
func New(c *schema.Catalog, stores *database.Stores, sample int, log *logger.Logger) *Verifier {
	if log == nil {
		log = logger.Discard()
	}
	if sample <= 0 {
		sample = 1000
	}
	return &Verifier{catalog: c, stores: stores, sample: sample, log: log, known: idcache.New()}
}

func (v *Verifier) store(s schema.Store) database.Store {
	switch s {
	case schema.Master:
		if v.stores.Master != nil {
			return v.stores.Master
		}
	case schema.Operations:
		if v.stores.Operations != nil {
			return v.stores.Operations
		}
	case schema.Documents:
		if v.stores.Documents != nil {
			return v.stores.Documents
		}
	}
	return nil
}

func (v *Verifier) relational(s schema.Store) database.RelationalStore {
	switch s {
	case schema.Master:
		return v.stores.Master
	case schema.Operations:
		return v.stores.Operations
	}
	return nil
}

// Run checks every present store. results, when given, are the loader results of the
// run being verified and enable the count check.
func (v *Verifier) Run(ctx context.Context, results map[string]loader.Result) (Report, error) {
	var rep Report
	v.known = idcache.New()
	v.log.Info("🔍 Verifying stores...")

	for _, store := range schema.StoreOrder {
		if v.store(store) == nil {
			continue
		}
		for _, e := range v.catalog.Entities(store) {
			if err := v.entity(ctx, &rep, e, results); err != nil {
				return rep, fmt.Errorf("verify %s: %w", e.Name, err)
			}
		}
		if rs := v.relational(store); rs != nil {
			left, err := resolver.Unresolved(ctx, rs, v.catalog, store)
			if err != nil {
				return rep, err
			}
			for _, col := range sortedKeys(left) {
				rep.add(DeferredFilled, col, left[col], "")
			}
		}
	}

	if failed := rep.Failed(); len(failed) > 0 {
		for _, c := range failed {
			v.log.Error("%s: %s has %d violation(s) %s", c.Property, c.Subject, c.Violations, c.Detail)
		}
	} else {
		v.log.Success("✅ %d checks passed", len(rep.Checks))
	}
	return rep, nil
}

func (v *Verifier) entity(ctx context.Context, rep *Report, e *schema.Entity, results map[string]loader.Result) error {
	st := v.store(e.Store)

	if r, ok := results[e.Name]; ok {
		n, err := st.Count(ctx, e)
		if err != nil {
			return err
		}
		var short int64
		if want := int64(r.Target - r.Skipped); n < want {
			short = want - n
		}
		rep.add(Counts, e.Name, short, fmt.Sprintf("%d rows, target %d, skipped %d", n, r.Target, r.Skipped))
	}

	for _, col := range e.Columns {
		if col.Ref == nil {
			continue
		}
		target, ok := v.catalog.Entity(col.Ref.Entity)
		if !ok {
			continue
		}
		rs := v.relational(e.Store)
		if target.Store == e.Store && rs != nil {
			n, err := rs.QueryInt(ctx, danglingQuery(e, col.Name, target))
			if err != nil {
				return err
			}
			rep.add(References, e.Name+"."+col.Name, n, "")
			continue
		}
		if v.store(target.Store) == nil {
			continue
		}
		n, err := v.sampledMissing(ctx, e, col.Name, target)
		if err != nil {
			return err
		}
		property := References
		if target.Store != e.Store {
			property = CrossStore
		}
		rep.add(property, e.Name+"."+col.Name, n, "sampled")
	}

	if rs := v.relational(e.Store); rs != nil {
		for i, u := range e.Unique {
			n, err := rs.QueryInt(ctx, duplicateQuery(e, u))
			if err != nil {
				return err
			}
			rep.add(UniqueKeys, fmt.Sprintf("%s(%s)#%d", e.Name, strings.Join(u, ", "), i+1), n, "")
		}
		for _, pair := range e.Temporal {
			n, err := rs.QueryInt(ctx, invertedQuery(e, pair))
			if err != nil {
				return err
			}
			rep.add(Intervals, e.Name+"."+pair[0]+".."+pair[1], n, "")
		}
		for _, pair := range e.Coordinates {
			n, err := rs.QueryInt(ctx, outOfRangeQuery(e, pair))
			if err != nil {
				return err
			}
			rep.add(Coordinates, e.Name+"."+pair[0]+"/"+pair[1], n, "")
		}
		return nil
	}

	docs := v.stores.Documents
	for _, pair := range e.Temporal {
		n, err := docs.CountInverted(ctx, e, pair[0], pair[1])
		if err != nil {
			return err
		}
		rep.add(Intervals, e.Name+"."+pair[0]+".."+pair[1], n, "")
	}
	for _, field := range e.GeoFields() {
		n, err := docs.CountInvalidPoints(ctx, e, field)
		if err != nil {
			return err
		}
		rep.add(Coordinates, e.Name+"."+field, n, "GeoJSON [longitude, latitude]")
	}
	return nil
}

// sampledMissing reads up to sample distinct values of a reference column and counts
// those absent from the referenced entity's identifiers.
func (v *Verifier) sampledMissing(ctx context.Context, e *schema.Entity, column string, target *schema.Entity) (int64, error) {
	values, err := v.store(e.Store).SampleValues(ctx, e, column, v.sample)
	if err != nil {
		return 0, err
	}
	if len(values) == 0 {
		return 0, nil
	}
	if v.known.Len(target.Name) == 0 {
		ids, err := v.store(target.Store).FetchIDs(ctx, target, 0)
		if err != nil {
			return 0, err
		}
		for _, id := range ids {
			v.known.Push(target.Name, fmt.Sprint(id))
		}
	}
	var missing int64
	for _, val := range values {
		if !v.known.Contains(target.Name, fmt.Sprint(val)) {
			missing++
		}
	}
	return missing, nil
}

func danglingQuery(e *schema.Entity, column string, target *schema.Entity) string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s c WHERE c.%s IS NOT NULL AND NOT EXISTS "+
		"(SELECT 1 FROM %s p WHERE p.%s = c.%s)", e.Name, column, target.Name, target.IDColumn, column)
}

func duplicateQuery(e *schema.Entity, cols []string) string {
	list := strings.Join(cols, ", ")
	return fmt.Sprintf("SELECT COUNT(*) FROM (SELECT %s FROM %s GROUP BY %s HAVING COUNT(*) > 1) dup",
		list, e.Name, list)
}

func invertedQuery(e *schema.Entity, pair [2]string) string {
	q, _, _ := sq.Select("COUNT(*)").From(e.Name).
		Where(sq.NotEq{pair[1]: nil}).
		Where(sq.Expr(pair[1] + " < " + pair[0])).
		ToSql()
	return q
}

func outOfRangeQuery(e *schema.Entity, pair [2]string) string {
	lat, lon := pair[0], pair[1]
	q, _, _ := sq.Select("COUNT(*)").From(e.Name).
		Where(sq.Or{
			sq.Eq{lat: nil}, sq.Eq{lon: nil},
			sq.Expr(lat + " < -90"), sq.Expr(lat + " > 90"),
			sq.Expr(lon + " < -180"), sq.Expr(lon + " > 180"),
		}).
		ToSql()
	return q
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
