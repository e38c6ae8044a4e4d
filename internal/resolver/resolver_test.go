package resolver

import (
	"context"
	"testing"

	"github.com/Rana718/mfgseed/internal/bootstrap"
	"github.com/Rana718/mfgseed/internal/database"
	"github.com/Rana718/mfgseed/internal/database/mysql"
	"github.com/Rana718/mfgseed/internal/database/postgres"
	"github.com/Rana718/mfgseed/internal/database/relational"
	"github.com/Rana718/mfgseed/internal/logger"
	"github.com/Rana718/mfgseed/internal/planner"
	"github.com/Rana718/mfgseed/internal/schema"
	"github.com/Rana718/mfgseed/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func masterStore(t *testing.T) *relational.Store {
	t.Helper()
	c := schema.Default()
	p, err := planner.Build(c, schema.Master)
	require.NoError(t, err)

	st := testutil.SQLiteStore(t, "master")
	_, err = bootstrap.New(c, logger.Discard()).Relational(context.Background(), st, p)
	require.NoError(t, err)

	for _, stmt := range []string{
		`INSERT INTO facility (facility_code, name, city, country_code, latitude, longitude, opened_on)
		 VALUES ('F1', 'One', 'Lyon', 'FR', 45.7, 4.8, '2001-01-01'), ('F2', 'Two', 'Porto', 'PT', 41.1, -8.6, '2002-01-01')`,
		`INSERT INTO cost_center (cost_center_code, name, facility_id, budget_amount)
		 VALUES ('CC1', 'Assembly', 1, 1000), ('CC2', 'Paint', 2, 1000)`,
		`INSERT INTO department (department_code, name, facility_id, default_cost_center_id, headcount)
		 VALUES ('D1', 'Assembly', 1, 1, 0), ('D2', 'Paint', 2, 1, 0)`,
		`INSERT INTO job_role (role_code, title, pay_grade) VALUES ('R1', 'Plant Manager', 9), ('R2', 'Operator', 2)`,
		`INSERT INTO employee (employee_number, first_name, last_name, email, facility_id, department_id, role_id,
		   default_cost_center_id, hire_date, termination_date)
		 VALUES ('E1', 'Ana', 'Silva', 'a@x', 1, 1, 1, 1, '2010-01-01', NULL),
		        ('E2', 'Bo', 'Lind', 'b@x', 2, 2, 2, 2, '2011-01-01', NULL),
		        ('E3', 'Cy', 'Moss', 'c@x', 2, 2, 2, 2, '2012-01-01', '2015-01-01')`,
	} {
		_, err := st.Exec(context.Background(), stmt)
		require.NoError(t, err)
	}
	return st
}

func column(t *testing.T, st *relational.Store, query string) []int64 {
	t.Helper()
	rows, err := st.DB().Query(query)
	require.NoError(t, err)
	defer rows.Close()
	var out []int64
	for rows.Next() {
		var v int64
		require.NoError(t, rows.Scan(&v))
		out = append(out, v)
	}
	require.NoError(t, rows.Err())
	return out
}

func TestResolveFillsCyclesWithFallbacks(t *testing.T) {
	ctx := context.Background()
	st := masterStore(t)
	r := New(schema.Default(), logger.Discard())

	outcomes := r.Resolve(ctx, map[schema.Store]database.RelationalStore{schema.Master: st})
	for _, o := range outcomes {
		assert.Empty(t, o.Error, o.Step)
	}

	assert.Equal(t, []int64{1, 2}, column(t, st, "SELECT facility_manager_id FROM facility ORDER BY facility_id"))
	assert.Equal(t, []int64{1, 2}, column(t, st, "SELECT department_head_id FROM department ORDER BY department_id"))
	assert.Equal(t, []int64{1, 1}, column(t, st, "SELECT cost_center_manager_id FROM cost_center ORDER BY cost_center_id"))
	assert.Equal(t, []int64{1, 2}, column(t, st, "SELECT department_id FROM cost_center ORDER BY cost_center_id"))
	assert.Equal(t, []int64{1, 1}, column(t, st, "SELECT headcount FROM department ORDER BY department_id"))

	left, err := Unresolved(ctx, st, schema.Default(), schema.Master)
	require.NoError(t, err)
	for col, n := range left {
		assert.Zero(t, n, col)
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := masterStore(t)
	r := New(schema.Default(), logger.Discard())
	stores := map[schema.Store]database.RelationalStore{schema.Master: st}

	r.Resolve(ctx, stores)
	before := column(t, st, "SELECT facility_manager_id FROM facility ORDER BY facility_id")

	for _, o := range r.Resolve(ctx, stores) {
		if o.Step != "department headcount" {
			assert.Zero(t, o.Rows, o.Step)
		}
	}
	assert.Equal(t, before, column(t, st, "SELECT facility_manager_id FROM facility ORDER BY facility_id"))
}

func TestResolveContinuesAfterFailure(t *testing.T) {
	ctx := context.Background()
	st := masterStore(t)
	ops := testutil.SQLiteStore(t, "operations") // no purchase_order table

	r := New(schema.Default(), logger.Discard())
	outcomes := r.Resolve(ctx, map[schema.Store]database.RelationalStore{
		schema.Master:     st,
		schema.Operations: ops,
	})

	require.NotEmpty(t, outcomes)
	last := outcomes[len(outcomes)-1]
	assert.Equal(t, "purchase order totals", last.Step)
	assert.NotEmpty(t, last.Error)
	assert.Equal(t, []int64{1, 2}, column(t, st, "SELECT facility_manager_id FROM facility ORDER BY facility_id"))
}

func TestStatementIsGuardedByNull(t *testing.T) {
	steps := Steps(schema.Default())

	query, args, err := Statement(postgres.New(), steps[0])
	require.NoError(t, err)
	assert.Equal(t, "UPDATE facility SET facility_manager_id = (SELECT MIN(e.employee_id) FROM employee e "+
		"JOIN job_role r ON r.role_id = e.role_id WHERE r.title LIKE $1 AND e.facility_id = facility.facility_id) "+
		"WHERE facility_manager_id IS NULL", query)
	assert.Equal(t, []any{"%Manager%"}, args)

	var totals Step
	for _, s := range steps {
		if s.Store == schema.Operations {
			totals = s
		}
	}
	query, _, err = Statement(mysql.New(), totals)
	require.NoError(t, err)
	assert.NotContains(t, query, "WHERE total_amount IS NULL")
	assert.Contains(t, query, "UPDATE purchase_order SET total_amount = (SELECT COALESCE(")
}
