package loader

import (
	"context"
	"fmt"

	"github.com/Rana718/mfgseed/internal/idcache"
	"github.com/Rana718/mfgseed/internal/schema"
)

// Source is the read side of a store used to rebuild the cache for a single-store run.
type Source interface {
	FetchIDs(ctx context.Context, e *schema.Entity, limit int) ([]any, error)
	FetchColumns(ctx context.Context, e *schema.Entity, cols []string, filter *schema.TagRule, limit int) ([][]any, error)
}

// Refresh replaces the cached ids, tag pools and captured attributes of e with what
// the store currently holds. limit bounds the ids read; 0 reads all of them.
func Refresh(ctx context.Context, src Source, e *schema.Entity, cache *idcache.Cache, limit int) (int, error) {
	cache.Reset(e.Name)
	for _, t := range e.Tags {
		cache.Reset(schema.PoolName(e.Name, t.Name))
	}

	if len(e.Capture) == 0 {
		ids, err := src.FetchIDs(ctx, e, limit)
		if err != nil {
			return 0, fmt.Errorf("failed to read %s ids: %w", e.Name, err)
		}
		cache.Replace(e.Name, ids)
	} else {
		cols := append([]string{e.IDColumn}, e.Capture...)
		rows, err := src.FetchColumns(ctx, e, cols, nil, limit)
		if err != nil {
			return 0, fmt.Errorf("failed to read %s ids: %w", e.Name, err)
		}
		ids := make([]any, len(rows))
		for i, r := range rows {
			ids[i] = r[0]
			cache.Capture(e.Name, r[0], r[1:])
		}
		cache.Replace(e.Name, ids)
	}

	for i := range e.Tags {
		rule := e.Tags[i]
		rows, err := src.FetchColumns(ctx, e, []string{e.IDColumn}, &rule, limit)
		if err != nil {
			return 0, fmt.Errorf("failed to read %s pool of %s: %w", rule.Name, e.Name, err)
		}
		pool := make([]any, len(rows))
		for j, r := range rows {
			pool[j] = r[0]
		}
		cache.Replace(schema.PoolName(e.Name, rule.Name), pool)
	}
	return cache.Len(e.Name), nil
}
