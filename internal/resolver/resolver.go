// Package resolver closes the reference cycles of the master store once every row
// exists, and fills aggregate attributes that depend on child rows.
package resolver

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/Rana718/mfgseed/internal/database"
	"github.com/Rana718/mfgseed/internal/database/common"
	"github.com/Rana718/mfgseed/internal/logger"
	"github.com/Rana718/mfgseed/internal/schema"
)

// Step is one UPDATE. Reference steps only touch rows whose column is still NULL, so
// running them again changes nothing; aggregate steps recompute their value.
type Step struct {
	Name      string
	Store     schema.Store
	Table     string
	Column    string
	Value     string // correlated subquery, without surrounding parentheses
	Args      []any
	Aggregate bool
}

type Outcome struct {
	Step  string `yaml:"step"`
	Rows  int64  `yaml:"rows"`
	Error string `yaml:"error,omitempty"`
}

// managerFilter derives the "Manager"-titled role condition from the job_role tag rule.
func managerFilter(c *schema.Catalog) (string, any) {
	if roles, ok := c.Entity(schema.JobRole); ok {
		for _, t := range roles.Tags {
			if t.Name == schema.TagManager {
				if t.Contains {
					return "r." + t.Column + " LIKE ?", "%" + t.Value + "%"
				}
				return "r." + t.Column + " = ?", t.Value
			}
		}
	}
	return "r.title LIKE ?", "%Manager%"
}

// Steps returns the ordered resolution list. Each deferred column is tried with the
// most specific candidate first and falls back to wider ones, so a column only stays
// NULL when the referenced table is empty.
func Steps(c *schema.Catalog) []Step {
	cond, pattern := managerFilter(c)
	managers := "SELECT MIN(e.employee_id) FROM employee e JOIN job_role r ON r.role_id = e.role_id WHERE " + cond
	employees := "SELECT MIN(e.employee_id) FROM employee e WHERE "
	mgr := func(name, table, column, where string) Step {
		value := managers
		if where != "" {
			value += " AND " + where
		}
		return Step{Name: name, Store: schema.Master, Table: table, Column: column, Value: value, Args: []any{pattern}}
	}
	plain := func(name, table, column, value string) Step {
		return Step{Name: name, Store: schema.Master, Table: table, Column: column, Value: value}
	}

	return []Step{
		mgr("facility manager from facility managers", schema.Facility, "facility_manager_id",
			"e.facility_id = facility.facility_id"),
		plain("facility manager from facility staff", schema.Facility, "facility_manager_id",
			employees+"e.facility_id = facility.facility_id"),
		mgr("facility manager from any manager", schema.Facility, "facility_manager_id", ""),

		mgr("department head from department managers", schema.Department, "department_head_id",
			"e.department_id = department.department_id"),
		mgr("department head from facility managers", schema.Department, "department_head_id",
			"e.facility_id = department.facility_id"),
		plain("department head from department staff", schema.Department, "department_head_id",
			employees+"e.department_id = department.department_id"),
		mgr("department head from any manager", schema.Department, "department_head_id", ""),

		mgr("cost center manager from its managers", schema.CostCenter, "cost_center_manager_id",
			"e.default_cost_center_id = cost_center.cost_center_id"),
		mgr("cost center manager from facility managers", schema.CostCenter, "cost_center_manager_id",
			"e.facility_id = cost_center.facility_id"),
		mgr("cost center manager from any manager", schema.CostCenter, "cost_center_manager_id", ""),

		plain("cost center department from its departments", schema.CostCenter, "department_id",
			"SELECT MIN(d.department_id) FROM department d WHERE d.default_cost_center_id = cost_center.cost_center_id"),
		plain("cost center department from facility departments", schema.CostCenter, "department_id",
			"SELECT MIN(d.department_id) FROM department d WHERE d.facility_id = cost_center.facility_id"),
		plain("cost center department from any department", schema.CostCenter, "department_id",
			"SELECT MIN(d.department_id) FROM department d"),

		{
			Name: "department headcount", Store: schema.Master, Table: schema.Department, Column: "headcount",
			Value: "SELECT COUNT(*) FROM employee e WHERE e.department_id = department.department_id" +
				" AND e.termination_date IS NULL",
			Aggregate: true,
		},
		{
			Name: "purchase order totals", Store: schema.Operations, Table: schema.PurchaseOrder, Column: "total_amount",
			Value: "SELECT COALESCE(SUM(l.quantity * l.unit_price), 0) FROM purchase_order_line l" +
				" WHERE l.purchase_order_id = purchase_order.purchase_order_id",
			Aggregate: true,
		},
	}
}

// Statement renders a step for one dialect.
func Statement(d common.Dialect, s Step) (string, []any, error) {
	b := sq.StatementBuilder.PlaceholderFormat(d.Placeholder()).
		Update(s.Table).
		Set(s.Column, sq.Expr("("+s.Value+")", s.Args...))
	if !s.Aggregate {
		b = b.Where(sq.Eq{s.Column: nil})
	}
	return b.ToSql()
}

type Resolver struct {
	steps []Step
	log   *logger.Logger
}

func New(c *schema.Catalog, log *logger.Logger) *Resolver {
	if log == nil {
		log = logger.Discard()
	}
	return &Resolver{steps: Steps(c), log: log}
}

// Resolve runs every step whose store is present. A failing step is logged and
// recorded; the remaining steps still run.
func (r *Resolver) Resolve(ctx context.Context, stores map[schema.Store]database.RelationalStore) []Outcome {
	r.log.Info("🔗 Resolving deferred references...")
	var out []Outcome
	for _, s := range r.steps {
		st, ok := stores[s.Store]
		if !ok || st == nil {
			continue
		}
		o := Outcome{Step: s.Name}
		query, args, err := Statement(st.Dialect(), s)
		if err == nil {
			o.Rows, err = st.Exec(ctx, query, args...)
		}
		if err != nil {
			if ctx.Err() != nil {
				o.Error = ctx.Err().Error()
				out = append(out, o)
				return out
			}
			o.Error = err.Error()
			r.log.Warn("%s: %v", s.Name, err)
		} else if o.Rows > 0 {
			r.log.Detail("   %s.%s ← %s: %d rows", s.Table, s.Column, s.Name, o.Rows)
		}
		out = append(out, o)
	}
	return out
}

// Unresolved counts rows whose required deferred references are still NULL.
func Unresolved(ctx context.Context, st database.RelationalStore, c *schema.Catalog, store schema.Store) (map[string]int64, error) {
	out := make(map[string]int64)
	qb := sq.StatementBuilder.PlaceholderFormat(st.Dialect().Placeholder())
	for _, e := range c.Entities(store) {
		for _, col := range e.DeferredColumns() {
			if col.Ref.Optional {
				continue
			}
			query, args, err := qb.Select("COUNT(*)").From(e.Name).Where(sq.Eq{col.Name: nil}).ToSql()
			if err != nil {
				return nil, err
			}
			n, err := st.QueryInt(ctx, query, args...)
			if err != nil {
				return nil, fmt.Errorf("count unresolved %s.%s: %w", e.Name, col.Name, err)
			}
			out[e.Name+"."+col.Name] = n
		}
	}
	return out, nil
}
