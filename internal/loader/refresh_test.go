package loader

import (
	"context"
	"testing"

	"github.com/Rana718/mfgseed/internal/idcache"
	"github.com/Rana718/mfgseed/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tableSource struct {
	rows map[string][][]any // column name → rows of {id, value}
}

func (s tableSource) FetchIDs(ctx context.Context, e *schema.Entity, limit int) ([]any, error) {
	var ids []any
	for _, r := range s.rows[e.IDColumn] {
		ids = append(ids, r[0])
	}
	return ids, nil
}

func (s tableSource) FetchColumns(ctx context.Context, e *schema.Entity, cols []string, filter *schema.TagRule, limit int) ([][]any, error) {
	if filter != nil {
		var out [][]any
		for _, r := range s.rows[filter.Column] {
			if filter.Match(r[1]) {
				out = append(out, []any{r[0]})
			}
		}
		return out, nil
	}
	var out [][]any
	for _, r := range s.rows[e.IDColumn] {
		row := []any{r[0]}
		for _, c := range cols[1:] {
			for _, v := range s.rows[c] {
				if v[0] == r[0] {
					row = append(row, v[1])
				}
			}
		}
		out = append(out, row)
	}
	return out, nil
}

func TestRefreshRebuildsPoolsAndAttributes(t *testing.T) {
	partners, _ := schema.Default().Entity(schema.BusinessPartner)
	src := tableSource{rows: map[string][][]any{
		"partner_id":   {{int64(1)}, {int64(2)}, {int64(3)}},
		"partner_type": {{int64(1), "Vendor"}, {int64(2), "Customer"}, {int64(3), "Vendor"}},
	}}

	cache := idcache.New()
	cache.Push(schema.BusinessPartner, int64(99))
	n, err := Refresh(context.Background(), src, partners, cache, 0)
	require.NoError(t, err)

	assert.Equal(t, 3, n)
	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, cache.IDs(schema.BusinessPartner))
	assert.Equal(t, []any{int64(1), int64(3)}, cache.IDs(schema.PoolName(schema.BusinessPartner, schema.TagVendor)))

	departments, _ := schema.Default().Entity(schema.Department)
	src = tableSource{rows: map[string][][]any{
		"department_id":          {{int64(4)}},
		"facility_id":            {{int64(4), int64(2)}},
		"default_cost_center_id": {{int64(4), int64(8)}},
	}}
	_, err = Refresh(context.Background(), src, departments, cache, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), cache.Attr(schema.Department, int64(4), 0))
	assert.Equal(t, int64(8), cache.Attr(schema.Department, int64(4), 1))
}
