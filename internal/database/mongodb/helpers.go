package mongodb

import (
	"errors"
	"fmt"
	"time"

	"github.com/Rana718/mfgseed/internal/database/common"
	"github.com/Rana718/mfgseed/internal/schema"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const duplicateKeyCode = 11000

// ToDocument maps one row onto an ordered BSON document. A nil _id is left out so the
// driver assigns one; Point values become GeoJSON with [longitude, latitude].
func ToDocument(cols []schema.Column, row []any) (bson.D, error) {
	if len(row) != len(cols) {
		return nil, fmt.Errorf("row has %d values, expected %d", len(row), len(cols))
	}
	doc := make(bson.D, 0, len(cols))
	for i, c := range cols {
		v := row[i]
		switch c.Type {
		case schema.ObjectID:
			switch id := v.(type) {
			case nil:
				continue
			case [12]byte:
				v = primitive.ObjectID(id)
			case primitive.ObjectID:
			default:
				return nil, fmt.Errorf("%s: unexpected object id %T", c.Name, v)
			}
		case schema.Point:
			switch p := v.(type) {
			case nil:
			case schema.GeoPoint:
				v = GeoJSON(p)
			default:
				return nil, fmt.Errorf("%s: unexpected point %T", c.Name, v)
			}
		case schema.Date, schema.Timestamp:
			if t, ok := v.(time.Time); ok {
				v = t.UTC()
			}
		}
		doc = append(doc, bson.E{Key: c.Name, Value: v})
	}
	return doc, nil
}

func GeoJSON(p schema.GeoPoint) bson.D {
	return bson.D{
		{Key: "type", Value: "Point"},
		{Key: "coordinates", Value: bson.A{p.Longitude, p.Latitude}},
	}
}

// FromBSON converts decoded BSON values to the plain Go values the rest of the
// program works with.
func FromBSON(v interface{}) interface{} {
	switch val := v.(type) {
	case int32:
		return int64(val)
	case primitive.DateTime:
		return val.Time().UTC()
	case primitive.ObjectID:
		return [12]byte(val)
	case bson.M:
		if p, ok := pointFrom(val["type"], val["coordinates"]); ok {
			return p
		}
		result := make(map[string]interface{}, len(val))
		for k, v := range val {
			result[k] = FromBSON(v)
		}
		return result
	case bson.D:
		m := val.Map()
		return FromBSON(bson.M(m))
	case bson.A:
		result := make([]interface{}, len(val))
		for i, v := range val {
			result[i] = FromBSON(v)
		}
		return result
	default:
		return v
	}
}

func pointFrom(typ, coords interface{}) (schema.GeoPoint, bool) {
	if typ != "Point" {
		return schema.GeoPoint{}, false
	}
	arr, ok := coords.(bson.A)
	if !ok || len(arr) != 2 {
		return schema.GeoPoint{}, false
	}
	lon, ok1 := arr[0].(float64)
	lat, ok2 := arr[1].(float64)
	if !ok1 || !ok2 {
		return schema.GeoPoint{}, false
	}
	return schema.GeoPoint{Longitude: lon, Latitude: lat}, true
}

func echoIDs(e *schema.Entity, rows [][]any) []any {
	idx := -1
	for i, c := range e.InsertColumns() {
		if c.Name == e.IDColumn {
			idx = i
			break
		}
	}
	ids := make([]any, len(rows))
	if idx < 0 {
		return ids
	}
	for i, r := range rows {
		ids[i] = r[idx]
	}
	return ids
}

func classify(err error) common.ErrorClass {
	switch {
	case err == nil:
		return common.ClassOther
	case mongo.IsDuplicateKeyError(err):
		return common.ClassDuplicate
	case mongo.IsNetworkError(err), mongo.IsTimeout(err),
		errors.Is(err, mongo.ErrClientDisconnected), common.IsConnectionError(err):
		return common.ClassConnection
	}
	return common.ClassOther
}

func lessValue(a, b any) bool {
	switch x := a.(type) {
	case int64:
		if y, ok := b.(int64); ok {
			return x < y
		}
	case float64:
		if y, ok := b.(float64); ok {
			return x < y
		}
	case string:
		if y, ok := b.(string); ok {
			return x < y
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Before(y)
		}
	}
	return fmt.Sprint(a) < fmt.Sprint(b)
}
