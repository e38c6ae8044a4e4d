// Package bootstrap prepares each store for a run: it drops what a previous run left
// behind, creates tables or collections from the catalog and, once population is
// over, adds what must only exist on a filled store.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Rana718/mfgseed/internal/database"
	"github.com/Rana718/mfgseed/internal/database/common"
	"github.com/Rana718/mfgseed/internal/logger"
	"github.com/Rana718/mfgseed/internal/planner"
	"github.com/Rana718/mfgseed/internal/schema"
)

// Report summarises one bootstrap step. Warnings never abort a run.
type Report struct {
	Store       string   `yaml:"store"`
	Created     int      `yaml:"created"`
	Indexes     int      `yaml:"indexes"`
	ForeignKeys int      `yaml:"foreign_keys"`
	GeoIndexes  int      `yaml:"geo_indexes,omitempty"`
	Warnings    []string `yaml:"warnings,omitempty"`
}

func (r *Report) warn(log *logger.Logger, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.Warnings = append(r.Warnings, msg)
	log.Warn("%s", msg)
}

type Bootstrapper struct {
	catalog *schema.Catalog
	log     *logger.Logger
}

func New(c *schema.Catalog, log *logger.Logger) *Bootstrapper {
	if log == nil {
		log = logger.Discard()
	}
	return &Bootstrapper{catalog: c, log: log}
}

// Script renders the DDL that rebuilds a relational store: foreign key checks off,
// drops in reverse population order, checks back on, then every table and index in
// population order.
func Script(d common.Dialect, c *schema.Catalog, p *planner.Plan) string {
	var stmts []string
	stmts = append(stmts, d.DisableForeignKeys()...)
	for _, e := range p.DropOrder() {
		stmts = append(stmts, d.DropTable(e.Name))
	}
	stmts = append(stmts, d.EnableForeignKeys()...)
	for _, e := range p.Order {
		stmts = append(stmts, common.CreateTable(d, c, e))
		stmts = append(stmts, common.CreateIndexes(d, e)...)
	}
	return strings.Join(stmts, ";\n\n") + ";\n"
}

// Relational applies the schema of plan p. A DDL failure is fatal; a deferred
// foreign key that cannot be added is reported as a warning.
func (b *Bootstrapper) Relational(ctx context.Context, st database.RelationalStore, p *planner.Plan) (Report, error) {
	rep := Report{Store: st.Name()}
	d := st.Dialect()

	b.log.Info("🏗️  Creating %d tables on %s store (%s)", len(p.Order), st.Name(), st.Provider())
	if err := st.ApplySchema(ctx, Script(d, b.catalog, p)); err != nil {
		return rep, err
	}
	rep.Created = len(p.Order)
	for _, e := range p.Order {
		rep.Indexes += len(e.Indexes)
	}

	for _, edge := range p.Deferred {
		target, ok := b.catalog.Entity(edge.To)
		if !ok {
			continue
		}
		stmt, err := d.AddForeignKey(edge.From, edge.Column, target.Name, target.IDColumn)
		if err == nil {
			_, err = st.Exec(ctx, stmt)
		}
		if err != nil {
			if errors.Is(err, common.ErrUnsupported) {
				rep.warn(b.log, "%s.%s → %s left unconstrained: %s cannot add foreign keys to existing tables",
					edge.From, edge.Column, edge.To, d.Name())
			} else {
				rep.warn(b.log, "could not add foreign key %s.%s → %s: %v", edge.From, edge.Column, edge.To, err)
			}
			continue
		}
		rep.ForeignKeys++
	}

	b.log.Success("✅ %s schema ready (%d tables, %d deferred foreign keys)", st.Name(), rep.Created, rep.ForeignKeys)
	return rep, nil
}

// Documents recreates every collection of the plan with its unique and secondary
// indexes. Geo indexes wait for FinalizeGeoIndexes.
func (b *Bootstrapper) Documents(ctx context.Context, st database.DocumentStore, p *planner.Plan) (Report, error) {
	rep := Report{Store: st.Name()}

	b.log.Info("🏗️  Creating %d collections on %s store", len(p.Order), st.Name())
	if err := st.DropCollections(ctx, p.Names()); err != nil {
		return rep, err
	}
	for _, e := range p.Order {
		if err := st.EnsureCollection(ctx, e); err != nil {
			return rep, &common.SchemaError{Store: st.Name(), Statement: "create collection " + e.Name, Err: err}
		}
		rep.Created++
		rep.Indexes += len(e.Unique) + len(e.Indexes)
	}

	b.log.Success("✅ %s collections ready", st.Name())
	return rep, nil
}

// FinalizeGeoIndexes builds the 2dsphere indexes on populated collections. Failures
// are warnings: the documents stay valid without the index.
func (b *Bootstrapper) FinalizeGeoIndexes(ctx context.Context, st database.DocumentStore, p *planner.Plan) Report {
	rep := Report{Store: st.Name()}
	for _, e := range p.Order {
		for _, field := range e.GeoFields() {
			if err := st.CreateGeoIndex(ctx, e, field); err != nil {
				rep.warn(b.log, "geo index on %s.%s not created: %v", e.Name, field, err)
				continue
			}
			rep.GeoIndexes++
			b.log.Detail("   🌍 2dsphere index on %s.%s", e.Name, field)
		}
	}
	return rep
}
