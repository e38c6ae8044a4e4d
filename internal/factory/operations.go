package factory

import (
	"fmt"
	"time"

	"github.com/Rana718/mfgseed/internal/schema"
)

const day = 24 * time.Hour

var carriers = []string{"DHL", "Maersk", "Kuehne+Nagel", "DB Schenker", "UPS", "FedEx", "CEVA"}

// Work centers cycle through facilities and prefer a cost center of the same facility.
func newWorkCenter(ctx *Context) (Func, error) {
	if err := ctx.need(schema.Facility, schema.CostCenter); err != nil {
		return nil, err
	}
	byFacility := ctx.groupBy(schema.CostCenter, 0)

	return func(i int, ctx *Context) (Row, error) {
		facility := ctx.Cache.At(schema.Facility, i%ctx.Cache.Len(schema.Facility))
		costCenter := ctx.pick(schema.CostCenter)
		if local := byFacility[facility]; len(local) > 0 {
			costCenter = ctx.pickFrom(local)
		}
		return Row{
			"work_center_code":  fmt.Sprintf("WC-%04d", i+1),
			"name":              fmt.Sprintf("%s Line %d", ctx.Faker.Pick(areas), i+1),
			"facility_id":       facility,
			"cost_center_id":    costCenter,
			"capacity_per_hour": ctx.Faker.Between(10, 500),
		}, nil
	}, nil
}

func newEquipment(ctx *Context) (Func, error) {
	if err := ctx.need(schema.WorkCenter, schema.Facility, ctx.vendorPool()); err != nil {
		return nil, err
	}
	return func(i int, ctx *Context) (Row, error) {
		workCenter := ctx.pick(schema.WorkCenter)
		installed := ctx.Faker.DaysBefore(ctx.RefDate, 365*15)
		return Row{
			"asset_tag":           fmt.Sprintf("EQ-%06d", i+1),
			"work_center_id":      workCenter,
			"parent_equipment_id": ctx.prior(schema.Equipment, 0.15),
			"facility_id":         ctx.attrOr(schema.WorkCenter, workCenter, 0, schema.Facility),
			"manufacturer_id":     ctx.pick(ctx.vendorPool()),
			"model":               fmt.Sprintf("%s-%d", ctx.Faker.Letters(2), ctx.Faker.Between(100, 9999)),
			"status":              ctx.weighted([]string{"Running", "Idle", "Maintenance", "Retired"}, []int{70, 15, 10, 5}),
			"installed_on":        installed,
			"last_serviced_on":    ctx.Faker.DayAfter(installed, ctx.RefDate),
		}, nil
	}, nil
}

func newProductionOrder(ctx *Context) (Func, error) {
	if err := ctx.need(schema.WorkCenter, schema.Material, schema.Employee); err != nil {
		return nil, err
	}
	return func(i int, ctx *Context) (Row, error) {
		start := ctx.Faker.MomentBefore(ctx.RefDate, 730*day)
		return Row{
			"order_number":   fmt.Sprintf("MO-%08d", i+1),
			"work_center_id": ctx.pick(schema.WorkCenter),
			"material_id":    ctx.pick(schema.Material),
			"created_by":     ctx.pick(schema.Employee),
			"quantity":       ctx.Faker.Between(1, 5000),
			"status":         ctx.weighted([]string{"Planned", "Released", "In Progress", "Completed", "Cancelled"}, []int{10, 15, 20, 50, 5}),
			"planned_start":  start,
			"planned_end":    ctx.Faker.After(start.Add(time.Hour), 240*time.Hour),
		}, nil
	}, nil
}

// Inspection times step back 17 minutes per row, which keeps
// (production_order_id, inspected_at) unique without a used-set.
func newQualityInspection(ctx *Context) (Func, error) {
	if err := ctx.need(schema.ProductionOrder, schema.Employee, schema.Specification); err != nil {
		return nil, err
	}
	return func(i int, ctx *Context) (Row, error) {
		return Row{
			"production_order_id": ctx.pick(schema.ProductionOrder),
			"inspector_id":        ctx.pick(schema.Employee),
			"specification_id":    ctx.pick(schema.Specification),
			"result":              ctx.weighted([]string{"Pass", "Fail", "Rework"}, []int{85, 5, 10}),
			"measured_value":      ctx.Faker.Float(0, 100),
			"inspected_at":        ctx.RefDate.Add(-time.Duration(i) * 17 * time.Minute),
		}, nil
	}, nil
}

func newMaintenanceOrder(ctx *Context) (Func, error) {
	if err := ctx.need(schema.Equipment); err != nil {
		return nil, err
	}
	return func(i int, ctx *Context) (Row, error) {
		opened := ctx.Faker.MomentBefore(ctx.RefDate, 3*365*day)
		var assigned, closed any
		if ctx.Cache.Len(schema.Employee) > 0 && ctx.Faker.Chance(0.85) {
			assigned = ctx.pick(schema.Employee)
		}
		if ctx.Faker.Chance(0.7) {
			closed = ctx.Faker.After(opened, 30*day)
		}
		return Row{
			"work_order_number": fmt.Sprintf("WO-%08d", i+1),
			"equipment_id":      ctx.pick(schema.Equipment),
			"assigned_to":       assigned,
			"priority":          ctx.weighted([]string{"Low", "Medium", "High", "Critical"}, []int{30, 40, 22, 8}),
			"opened_at":         opened,
			"closed_at":         closed,
		}, nil
	}, nil
}

// Totals start at zero and are filled from the order lines by the resolver.
func newPurchaseOrder(ctx *Context) (Func, error) {
	if err := ctx.need(schema.Facility, ctx.vendorPool()); err != nil {
		return nil, err
	}
	return func(i int, ctx *Context) (Row, error) {
		ordered := ctx.Faker.DaysBefore(ctx.RefDate, 3*365)
		return Row{
			"po_number":     fmt.Sprintf("PO-%08d", i+1),
			"supplier_id":   ctx.pick(ctx.vendorPool()),
			"facility_id":   ctx.pick(schema.Facility),
			"order_date":    ordered,
			"expected_date": ordered.AddDate(0, 0, ctx.Faker.Between(3, 60)),
			"status":        ctx.weighted([]string{"Open", "Confirmed", "Shipped", "Received", "Closed"}, []int{10, 15, 15, 20, 40}),
			"total_amount":  0.0,
		}, nil
	}, nil
}

// Lines are dealt round-robin over orders, so (purchase_order_id, line_number) is
// unique by construction.
func newPurchaseOrderLine(ctx *Context) (Func, error) {
	if err := ctx.need(schema.PurchaseOrder, schema.Material); err != nil {
		return nil, err
	}
	return func(i int, ctx *Context) (Row, error) {
		n := ctx.Cache.Len(schema.PurchaseOrder)
		return Row{
			"purchase_order_id": ctx.Cache.At(schema.PurchaseOrder, i%n),
			"line_number":       i/n + 1,
			"material_id":       ctx.pick(schema.Material),
			"quantity":          ctx.Faker.Between(1, 500),
			"unit_price":        ctx.Faker.Amount(0.5, 1500),
		}, nil
	}, nil
}

func newShipment(ctx *Context) (Func, error) {
	if err := ctx.need(schema.PurchaseOrder, schema.Facility); err != nil {
		return nil, err
	}
	return func(i int, ctx *Context) (Row, error) {
		po := ctx.pick(schema.PurchaseOrder)
		shipped := ctx.Faker.MomentBefore(ctx.RefDate, 400*day)
		var delivered any
		if ctx.Faker.Chance(0.75) {
			delivered = ctx.Faker.After(shipped, 20*day)
		}
		origin := ctx.Faker.City()
		lat, lon := ctx.Faker.Near(origin.Latitude, origin.Longitude, 30)
		return Row{
			"tracking_number":         fmt.Sprintf("TRK%09d%s", i+1, ctx.Faker.Letters(3)),
			"purchase_order_id":       po,
			"destination_facility_id": ctx.attrOr(schema.PurchaseOrder, po, 0, schema.Facility),
			"carrier":                 ctx.Faker.Pick(carriers),
			"shipped_at":              shipped,
			"delivered_at":            delivered,
			"origin_latitude":         lat,
			"origin_longitude":        lon,
		}, nil
	}, nil
}
