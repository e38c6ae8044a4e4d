// Package orchestrator runs the population pipeline: connect, bootstrap, load every
// store in order, resolve deferred references and summarise.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Rana718/mfgseed/internal/bootstrap"
	"github.com/Rana718/mfgseed/internal/config"
	"github.com/Rana718/mfgseed/internal/database"
	"github.com/Rana718/mfgseed/internal/factory"
	"github.com/Rana718/mfgseed/internal/idcache"
	"github.com/Rana718/mfgseed/internal/loader"
	"github.com/Rana718/mfgseed/internal/logger"
	"github.com/Rana718/mfgseed/internal/planner"
	"github.com/Rana718/mfgseed/internal/resolver"
	"github.com/Rana718/mfgseed/internal/schema"
)

type Orchestrator struct {
	cfg     *config.Config
	catalog *schema.Catalog
	stores  *database.Stores
	cache   *idcache.Cache
	log     *logger.Logger

	plans   map[schema.Store]*planner.Plan
	phase   Phase
	summary *Summary
}

func New(cfg *config.Config, c *schema.Catalog, stores *database.Stores, log *logger.Logger) (*Orchestrator, error) {
	if log == nil {
		log = logger.Discard()
	}
	plans, err := planner.BuildAll(c)
	if err != nil {
		return nil, err
	}
	byStore := make(map[schema.Store]*planner.Plan, len(plans))
	for _, p := range plans {
		byStore[p.Store] = p
	}
	return &Orchestrator{
		cfg:     cfg,
		catalog: c,
		stores:  stores,
		cache:   idcache.New(),
		log:     log,
		plans:   byStore,
	}, nil
}

func (o *Orchestrator) Phase() Phase { return o.phase }

func (o *Orchestrator) Cache() *idcache.Cache { return o.cache }

func (o *Orchestrator) Summary() *Summary { return o.summary }

// advance moves the state machine forward. Phases may be skipped, never revisited.
func (o *Orchestrator) advance(p Phase) {
	if o.phase == Failed || p <= o.phase {
		panic(fmt.Sprintf("illegal phase transition %s → %s", o.phase, p))
	}
	o.phase = p
	o.summary.Phase = p.String()
}

func (o *Orchestrator) fail(store string, err error) error {
	rerr := &RunError{Phase: o.phase, Store: store, Err: err}
	o.phase = Failed
	o.summary.Phase = Failed.String()
	o.summary.Error = rerr.Error()
	o.summary.FinishedAt = time.Now().UTC()

	o.log.Warn("run stopped in %s; data written before the failure remains in the stores", rerr.Phase)
	if werr := o.summary.write(o.cfg.SummaryFile); werr != nil {
		o.log.Warn("could not write summary: %v", werr)
	}
	return rerr
}

func (o *Orchestrator) storeFor(s schema.Store) database.Store {
	switch s {
	case schema.Master:
		return o.stores.Master
	case schema.Operations:
		return o.stores.Operations
	}
	return o.stores.Documents
}

// Run populates every store in order.
func (o *Orchestrator) Run(ctx context.Context) error {
	return o.run(ctx, schema.StoreOrder, nil)
}

func (o *Orchestrator) RunMaster(ctx context.Context) error {
	return o.RunStore(ctx, schema.Master)
}

func (o *Orchestrator) RunOperations(ctx context.Context) error {
	return o.RunStore(ctx, schema.Operations)
}

func (o *Orchestrator) RunDocuments(ctx context.Context) error {
	return o.RunStore(ctx, schema.Documents)
}

// RunStore populates one store. Identifiers of upstream stores are read from those
// stores first, so they must already hold data.
func (o *Orchestrator) RunStore(ctx context.Context, s schema.Store) error {
	return o.run(ctx, []schema.Store{s}, o.catalog.Upstream(s))
}

func (o *Orchestrator) run(ctx context.Context, targets, upstream []schema.Store) error {
	o.phase = Starting
	o.summary = newSummary(o.cfg)

	if o.cfg.Deterministic() {
		o.log.Info("🌱 Starting mfgseed (seed %d)", o.cfg.Seed)
	} else {
		o.log.Info("🌱 Starting mfgseed (random seed %d)", o.cfg.Seed)
	}
	var order []string
	for _, s := range targets {
		order = append(order, string(s))
	}
	o.log.Info("📋 Store order: %s", strings.Join(order, " → "))

	for _, s := range append(append([]schema.Store{}, upstream...), targets...) {
		st := o.storeFor(s)
		if err := st.Connect(ctx); err != nil {
			return o.fail(st.Name(), err)
		}
		o.log.Success("✅ Connected to %s store (%s)", st.Name(), st.Provider())
	}
	o.advance(Connected)

	for _, s := range upstream {
		if err := o.pull(ctx, s, targets); err != nil {
			return o.fail(string(s), err)
		}
	}

	for _, s := range targets {
		rep, err := o.bootstrap(ctx, s)
		o.summary.schema(string(s), rep)
		if err != nil {
			return o.fail(string(s), err)
		}
	}
	o.advance(SchemaReady)

	for _, s := range targets {
		o.advance(populating(s))
		if err := o.populate(ctx, s); err != nil {
			return o.fail(string(s), err)
		}
	}

	o.advance(ResolvingCycles)
	stores := make(map[schema.Store]database.RelationalStore)
	for _, s := range targets {
		switch s {
		case schema.Master:
			stores[s] = o.stores.Master
		case schema.Operations:
			stores[s] = o.stores.Operations
		}
	}
	if len(stores) > 0 {
		o.summary.Resolution = resolver.New(o.catalog, o.log).Resolve(ctx, stores)
		if err := ctx.Err(); err != nil {
			return o.fail("", err)
		}
	}

	o.advance(Summarizing)
	o.summary.FinishedAt = time.Now().UTC()
	o.summary.print(o.log)
	if err := o.summary.write(o.cfg.SummaryFile); err != nil {
		o.log.Warn("could not write summary: %v", err)
	}

	o.advance(Done)
	o.log.Success("\n✅ Population completed successfully!")
	return nil
}

// pull refreshes the cache with every upstream entity the target stores reference.
func (o *Orchestrator) pull(ctx context.Context, upstream schema.Store, targets []schema.Store) error {
	st := o.storeFor(upstream)
	seen := make(map[string]bool)
	for _, t := range targets {
		for _, edge := range o.plans[t].Upstream {
			e, ok := o.catalog.Entity(edge.To)
			if !ok || e.Store != upstream || seen[e.Name] {
				continue
			}
			seen[e.Name] = true
			n, err := loader.Refresh(ctx, st, e, o.cache, 0)
			if err != nil {
				return err
			}
			if n == 0 {
				o.log.Warn("%s store holds no %s rows; run the %s store first", st.Name(), e.Name, upstream)
			} else {
				o.log.Detail("   ⬇️  %d %s ids from %s", n, e.Name, st.Name())
			}
		}
	}
	return nil
}

func (o *Orchestrator) bootstrap(ctx context.Context, s schema.Store) (bootstrap.Report, error) {
	b := bootstrap.New(o.catalog, o.log)
	p := o.plans[s]
	if s == schema.Documents {
		return b.Documents(ctx, o.stores.Documents, p)
	}
	st := o.stores.Master
	if s == schema.Operations {
		st = o.stores.Operations
	}
	return b.Relational(ctx, st, p)
}

func (o *Orchestrator) populate(ctx context.Context, s schema.Store) error {
	p := o.plans[s]
	st := o.storeFor(s)
	o.log.Info("\n📦 Populating %s store: %s", st.Name(), strings.Join(p.Names(), " → "))

	for _, e := range p.Order {
		o.cache.Reset(e.Name)
		for _, t := range e.Tags {
			o.cache.Reset(schema.PoolName(e.Name, t.Name))
		}
	}

	l := loader.New(st, o.cache, o.log, o.cfg.ProgressEvery)
	for _, e := range p.Order {
		fctx := factory.NewContext(o.cache, o.cfg.Seed, o.cfg.Entry(e.Name), o.cfg.RefDate(), o.cfg.BOMEffectiveDates)
		res, err := l.Load(ctx, e, fctx)
		o.summary.result(string(s), st.Provider(), res)
		if err != nil {
			return err
		}
	}

	if s == schema.Documents {
		rep := bootstrap.New(o.catalog, o.log).FinalizeGeoIndexes(ctx, o.stores.Documents, p)
		o.summary.schema(string(s), rep)
	}
	return nil
}
