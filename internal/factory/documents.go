package factory

import (
	"fmt"
	"time"

	"github.com/Rana718/mfgseed/internal/faker"
	"github.com/Rana718/mfgseed/internal/schema"
)

var sensorTypes = []struct{ kind, unit string }{
	{"temperature", "C"},
	{"vibration", "mm/s"},
	{"pressure", "bar"},
	{"humidity", "%"},
	{"current", "A"},
	{"speed", "rpm"},
}

func point(lat, lon float64) schema.GeoPoint {
	return schema.GeoPoint{Longitude: lon, Latitude: lat}
}

// Locations sit a few kilometres around their facility.
func newGeographicLocation(ctx *Context) (Func, error) {
	if err := ctx.need(schema.Facility); err != nil {
		return nil, err
	}
	return func(i int, ctx *Context) (Row, error) {
		facility := ctx.Cache.At(schema.Facility, i%ctx.Cache.Len(schema.Facility))
		lat, okLat := ctx.float(schema.Facility, facility, 0)
		lon, okLon := ctx.float(schema.Facility, facility, 1)
		if !okLat || !okLon {
			city := ctx.Faker.City()
			lat, lon = city.Latitude, city.Longitude
		}
		lat, lon = ctx.Faker.Near(lat, lon, 5)

		return Row{
			"_id":           ctx.Faker.ObjectID(),
			"location_code": fmt.Sprintf("LOC-%05d", i+1),
			"facility_id":   facility,
			"name":          fmt.Sprintf("%s %d", ctx.Faker.Pick([]string{"Dock", "Yard", "Hall", "Gate", "Tank Farm", "Warehouse"}), i+1),
			"latitude":      lat,
			"longitude":     lon,
			"location":      point(lat, lon),
			"elevation_m":   faker.Round(ctx.Faker.Float(0, 900), 1),
			"created_at":    ctx.Faker.MomentBefore(ctx.RefDate, 5*365*day),
		}, nil
	}, nil
}

// A sensor is mounted on equipment and placed at a location of the same facility when
// one exists.
func newIoTSensor(ctx *Context) (Func, error) {
	if err := ctx.need(schema.Equipment, schema.Facility, schema.GeographicLocation); err != nil {
		return nil, err
	}
	byFacility := ctx.groupBy(schema.GeographicLocation, 0)

	return func(i int, ctx *Context) (Row, error) {
		equipment := ctx.pick(schema.Equipment)
		facility := ctx.attrOr(schema.Equipment, equipment, 0, schema.Facility)

		location := ctx.pick(schema.GeographicLocation)
		if local := byFacility[facility]; len(local) > 0 {
			location = ctx.pickFrom(local)
		}
		lat, okLat := ctx.float(schema.GeographicLocation, location, 1)
		lon, okLon := ctx.float(schema.GeographicLocation, location, 2)
		if !okLat || !okLon {
			city := ctx.Faker.City()
			lat, lon = city.Latitude, city.Longitude
		}
		lat, lon = ctx.Faker.Near(lat, lon, 0.5)

		st := sensorTypes[ctx.Rand.Intn(len(sensorTypes))]
		return Row{
			"_id":           ctx.Faker.ObjectID(),
			"sensor_id":     ctx.Faker.UUID(),
			"equipment_id":  equipment,
			"facility_id":   facility,
			"location_code": location,
			"sensor_type":   st.kind,
			"unit":          st.unit,
			"location":      point(lat, lon),
			"installed_at":  ctx.Faker.MomentBefore(ctx.RefDate, 3*365*day),
		}, nil
	}, nil
}

func newSensorReading(ctx *Context) (Func, error) {
	if err := ctx.need(schema.IoTSensor, schema.Equipment); err != nil {
		return nil, err
	}
	return func(i int, ctx *Context) (Row, error) {
		sensor := ctx.pick(schema.IoTSensor)
		unit, _ := ctx.Cache.Attr(schema.IoTSensor, sensor, 1).(string)
		return Row{
			"_id":          ctx.Faker.ObjectID(),
			"reading_id":   ctx.Faker.UUID(),
			"sensor_id":    sensor,
			"equipment_id": ctx.attrOr(schema.IoTSensor, sensor, 0, schema.Equipment),
			"recorded_at":  ctx.Faker.MomentBefore(ctx.RefDate, 90*day),
			"value":        faker.Round(ctx.Faker.Float(0, 100), 3),
			"unit":         unit,
			"quality":      ctx.weighted([]string{"good", "suspect", "bad"}, []int{90, 7, 3}),
		}, nil
	}, nil
}

func newEquipmentAlert(ctx *Context) (Func, error) {
	if err := ctx.need(schema.IoTSensor, schema.Equipment); err != nil {
		return nil, err
	}
	return func(i int, ctx *Context) (Row, error) {
		sensor := ctx.pick(schema.IoTSensor)
		raised := ctx.Faker.MomentBefore(ctx.RefDate, 180*day)
		var acknowledged, by any
		if ctx.Faker.Chance(0.6) {
			acknowledged = ctx.Faker.After(raised, 48*time.Hour)
			if ctx.Cache.Len(schema.Employee) > 0 {
				by = ctx.pick(schema.Employee)
			}
		}
		return Row{
			"_id":             ctx.Faker.ObjectID(),
			"alert_id":        ctx.Faker.UUID(),
			"sensor_id":       sensor,
			"equipment_id":    ctx.attrOr(schema.IoTSensor, sensor, 0, schema.Equipment),
			"severity":        ctx.weighted([]string{"info", "warning", "critical"}, []int{50, 35, 15}),
			"message":         ctx.Faker.Sentence(),
			"raised_at":       raised,
			"acknowledged_at": acknowledged,
			"acknowledged_by": by,
		}, nil
	}, nil
}

// Tracking events are scattered up to 200 km around the shipment's origin.
func newShipmentTracking(ctx *Context) (Func, error) {
	if err := ctx.need(schema.Shipment); err != nil {
		return nil, err
	}
	return func(i int, ctx *Context) (Row, error) {
		shipment := ctx.pick(schema.Shipment)
		tracking, _ := ctx.Cache.Attr(schema.Shipment, shipment, 0).(string)
		if tracking == "" {
			return nil, fmt.Errorf("shipment %v tracking_number: %w", shipment, ErrMissingAttribute)
		}
		lat, okLat := ctx.float(schema.Shipment, shipment, 1)
		lon, okLon := ctx.float(schema.Shipment, shipment, 2)
		if !okLat || !okLon {
			city := ctx.Faker.City()
			lat, lon = city.Latitude, city.Longitude
		}
		lat, lon = ctx.Faker.Near(lat, lon, 200)

		return Row{
			"_id":             ctx.Faker.ObjectID(),
			"event_id":        ctx.Faker.UUID(),
			"shipment_id":     shipment,
			"tracking_number": tracking,
			"status":          ctx.Faker.Pick([]string{"Picked up", "In transit", "At hub", "Customs", "Out for delivery", "Delivered"}),
			"recorded_at":     ctx.Faker.MomentBefore(ctx.RefDate, 400*day),
			"position":        point(lat, lon),
		}, nil
	}, nil
}
