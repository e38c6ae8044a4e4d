package factory

import (
	"fmt"

	"github.com/Rana718/mfgseed/internal/schema"
)

var (
	areas = []string{"Assembly", "Machining", "Paint Shop", "Quality", "Maintenance", "Logistics",
		"Tooling", "Administration", "Procurement", "Warehouse", "Stamping", "Welding"}
	roleFamilies = []string{"Production", "Quality", "Maintenance", "Logistics", "Engineering",
		"Procurement", "Plant", "Shift", "Safety", "Planning"}
	roleLevels = []string{"Operator", "Technician", "Engineer", "Planner", "Specialist", "Coordinator", "Analyst"}
)

func newFacility(ctx *Context) (Func, error) {
	return func(i int, ctx *Context) (Row, error) {
		city := ctx.Faker.City()
		lat, lon := ctx.Faker.Near(city.Latitude, city.Longitude, 25)
		return Row{
			"facility_code":       fmt.Sprintf("FAC-%04d", i+1),
			"name":                fmt.Sprintf("%s Plant %d", city.Name, i+1),
			"city":                city.Name,
			"country_code":        city.Country,
			"latitude":            lat,
			"longitude":           lon,
			"opened_on":           ctx.Faker.DaysBefore(ctx.RefDate, 365*40),
			"facility_manager_id": nil,
		}, nil
	}, nil
}

// Cost centers are spread round-robin over facilities.
func newCostCenter(ctx *Context) (Func, error) {
	if err := ctx.need(schema.Facility); err != nil {
		return nil, err
	}
	return func(i int, ctx *Context) (Row, error) {
		facility := ctx.Cache.At(schema.Facility, i%ctx.Cache.Len(schema.Facility))
		return Row{
			"cost_center_code":       fmt.Sprintf("CC-%05d", i+1),
			"name":                   ctx.Faker.Pick(areas) + " Cost Center",
			"facility_id":            facility,
			"budget_amount":          ctx.Faker.Amount(50_000, 5_000_000),
			"department_id":          nil,
			"cost_center_manager_id": nil,
		}, nil
	}, nil
}

// The first departments cover every facility once; their default cost center is one of
// the facility's own when it has any.
func newDepartment(ctx *Context) (Func, error) {
	if err := ctx.need(schema.Facility, schema.CostCenter); err != nil {
		return nil, err
	}
	byFacility := ctx.groupBy(schema.CostCenter, 0)

	return func(i int, ctx *Context) (Row, error) {
		nFacilities := ctx.Cache.Len(schema.Facility)
		var facility any
		if i < nFacilities {
			facility = ctx.Cache.At(schema.Facility, i)
		} else {
			facility = ctx.pick(schema.Facility)
		}

		costCenter := ctx.Cache.At(schema.CostCenter, i%ctx.Cache.Len(schema.CostCenter))
		if local := byFacility[facility]; len(local) > 0 {
			costCenter = local[i%len(local)]
		}

		return Row{
			"department_code":        fmt.Sprintf("DEP-%05d", i+1),
			"name":                   fmt.Sprintf("%s %d", ctx.Faker.Pick(areas), i+1),
			"facility_id":            facility,
			"parent_department_id":   ctx.prior(schema.Department, 0.3),
			"default_cost_center_id": costCenter,
			"department_head_id":     nil,
			"headcount":              0,
		}, nil
	}, nil
}

// Every third role is a manager role.
func newJobRole(ctx *Context) (Func, error) {
	return func(i int, ctx *Context) (Row, error) {
		family := roleFamilies[i%len(roleFamilies)]
		title := family + " " + ctx.Faker.Pick(roleLevels)
		grade := ctx.Faker.Between(1, 7)
		if i%3 == 0 {
			title = family + " Manager"
			grade = ctx.Faker.Between(8, 12)
		}
		return Row{
			"role_code": fmt.Sprintf("JR-%04d", i+1),
			"title":     title,
			"pay_grade": grade,
		}, nil
	}, nil
}

// Employee i < number of departments is placed in department i with a manager role,
// so every department and facility has at least one manager for the cycle resolver.
func newEmployee(ctx *Context) (Func, error) {
	if err := ctx.need(schema.Facility, schema.Department, schema.JobRole, schema.CostCenter); err != nil {
		return nil, err
	}
	managers := schema.PoolName(schema.JobRole, schema.TagManager)

	return func(i int, ctx *Context) (Row, error) {
		var department any
		if i < ctx.Cache.Len(schema.Department) {
			department = ctx.Cache.At(schema.Department, i)
		} else {
			department = ctx.pick(schema.Department)
		}

		role := ctx.pick(schema.JobRole)
		if i < ctx.Cache.Len(schema.Department) && ctx.Cache.Len(managers) > 0 {
			role = ctx.pick(managers)
		}

		first, last := ctx.Faker.FirstName(), ctx.Faker.LastName()
		hired := ctx.Faker.DaysBefore(ctx.RefDate, 365*25)
		var terminated any
		if ctx.Faker.Chance(0.08) {
			terminated = ctx.Faker.DayAfter(hired, ctx.RefDate)
		}

		return Row{
			"employee_number":        fmt.Sprintf("EMP-%06d", i+1),
			"first_name":             first,
			"last_name":              last,
			"email":                  ctx.Faker.Email(first, last, i+1),
			"facility_id":            ctx.attrOr(schema.Department, department, 0, schema.Facility),
			"department_id":          department,
			"role_id":                role,
			"default_cost_center_id": ctx.attrOr(schema.Department, department, 1, schema.CostCenter),
			"supervisor_id":          ctx.prior(schema.Employee, 0.8),
			"hire_date":              hired,
			"termination_date":       terminated,
		}, nil
	}, nil
}

// The first partner is always a vendor so the vendor pool is never empty.
func newBusinessPartner(ctx *Context) (Func, error) {
	return func(i int, ctx *Context) (Row, error) {
		kind := "Vendor"
		if i > 0 {
			kind = ctx.weighted([]string{"Vendor", "Customer", "Carrier"}, []int{70, 20, 10})
		}
		city := ctx.Faker.City()
		lat, lon := ctx.Faker.Near(city.Latitude, city.Longitude, 15)
		return Row{
			"partner_code":  fmt.Sprintf("BP-%05d", i+1),
			"name":          ctx.Faker.Company(),
			"partner_type":  kind,
			"country_code":  city.Country,
			"credit_rating": ctx.Faker.Pick([]string{"AAA", "AA", "A", "BBB", "BB", "B"}),
			"latitude":      lat,
			"longitude":     lon,
		}, nil
	}, nil
}

func newSpecification(ctx *Context) (Func, error) {
	return func(i int, ctx *Context) (Row, error) {
		from := ctx.Faker.DaysBefore(ctx.RefDate, 3650)
		return Row{
			"spec_code":     fmt.Sprintf("SPEC-%05d", i+1),
			"revision":      ctx.Faker.Pick([]string{"A", "B", "C", "D"}),
			"title":         ctx.Faker.Part() + " specification",
			"tolerance_pct": ctx.Faker.Amount(0.1, 5),
			"valid_from":    from,
			"valid_to":      from.AddDate(0, 0, ctx.Faker.Between(180, 1800)),
		}, nil
	}, nil
}

func newMaterial(ctx *Context) (Func, error) {
	if err := ctx.need(schema.Specification, ctx.vendorPool()); err != nil {
		return nil, err
	}
	return func(i int, ctx *Context) (Row, error) {
		return Row{
			"material_code":       fmt.Sprintf("MAT-%06d", i+1),
			"description":         ctx.Faker.Part(),
			"material_type":       ctx.Faker.Pick([]string{"Raw", "Semi-finished", "Finished", "Consumable", "Packaging"}),
			"unit_of_measure":     ctx.Faker.Pick([]string{"EA", "KG", "M", "L", "SET"}),
			"specification_id":    ctx.pick(schema.Specification),
			"primary_supplier_id": ctx.pick(ctx.vendorPool()),
			"standard_cost":       ctx.Faker.Amount(0.5, 2500),
		}, nil
	}, nil
}

type bomKey struct {
	parent, component, date int
}

// Bill of materials rows must be unique on (parent, component, effective date). The
// factory draws random triples against a used-set for up to 3× the target, then scans
// the whole domain systematically. Once the domain is exhausted it repeats the first
// triple; the loader drops those as duplicates and reports them as skipped.
func newBillOfMaterials(ctx *Context) (Func, error) {
	if err := ctx.need(schema.Material); err != nil {
		return nil, err
	}
	m := ctx.Cache.Len(schema.Material)
	if m < 2 {
		return nil, fmt.Errorf("%s: need at least 2 materials, have %d", schema.BillOfMaterials, m)
	}
	materials := ctx.Cache.IDs(schema.Material)
	d := ctx.BOMDates
	budget := 3 * ctx.Entry.Target
	total := m * m * d

	used := make(map[bomKey]struct{})
	attempts, scan := 0, 0
	var first *bomKey

	next := func() (bomKey, bool) {
		for attempts < budget {
			attempts++
			k := bomKey{ctx.Rand.Intn(m), ctx.Rand.Intn(m), ctx.Rand.Intn(d)}
			if k.parent == k.component {
				continue
			}
			if _, seen := used[k]; !seen {
				return k, true
			}
		}
		for scan < total {
			k := bomKey{scan / (m * d), (scan / d) % m, scan % d}
			scan++
			if k.parent == k.component {
				continue
			}
			if _, seen := used[k]; !seen {
				return k, true
			}
		}
		return bomKey{}, false
	}

	return func(i int, ctx *Context) (Row, error) {
		k, ok := next()
		if ok {
			used[k] = struct{}{}
			if first == nil {
				first = &k
			}
		} else {
			k = *first
		}
		return Row{
			"parent_material_id":    materials[k.parent],
			"component_material_id": materials[k.component],
			"effective_date":        ctx.RefDate.AddDate(0, -3*k.date, 0),
			"quantity":              ctx.Faker.Amount(0.1, 50),
		}, nil
	}, nil
}
