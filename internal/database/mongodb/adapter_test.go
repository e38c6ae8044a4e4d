package mongodb

import (
	"errors"
	"testing"
	"time"

	"github.com/Rana718/mfgseed/internal/config"
	"github.com/Rana718/mfgseed/internal/database/common"
	"github.com/Rana718/mfgseed/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func sensors(t *testing.T) *schema.Entity {
	t.Helper()
	e, ok := schema.Default().Entity(schema.IoTSensor)
	require.True(t, ok)
	return e
}

func sensorRow(id string, lon, lat float64) []any {
	installed := time.Date(2024, 3, 1, 8, 0, 0, 0, time.FixedZone("CET", 3600))
	return []any{
		[12]byte{1, 2, 3},
		id,
		int64(7),
		int64(2),
		"LOC-0001",
		"temperature",
		"C",
		schema.GeoPoint{Longitude: lon, Latitude: lat},
		installed,
	}
}

func TestToDocumentWritesGeoJSONLongitudeFirst(t *testing.T) {
	e := sensors(t)
	doc, err := ToDocument(e.InsertColumns(), sensorRow("s-1", 13.4, 52.5))
	require.NoError(t, err)

	m := doc.Map()
	assert.Equal(t, primitive.ObjectID{1, 2, 3}, m["_id"])
	assert.Equal(t, bson.D{
		{Key: "type", Value: "Point"},
		{Key: "coordinates", Value: bson.A{13.4, 52.5}},
	}, m["location"])
	assert.Equal(t, time.UTC, m["installed_at"].(time.Time).Location())
}

func TestToDocumentOmitsNilObjectID(t *testing.T) {
	e := sensors(t)
	row := sensorRow("s-1", 0, 0)
	row[0] = nil

	doc, err := ToDocument(e.InsertColumns(), row)
	require.NoError(t, err)
	assert.Equal(t, "sensor_id", doc[0].Key)
}

func TestToDocumentRejectsShortRows(t *testing.T) {
	_, err := ToDocument(sensors(t).InsertColumns(), []any{"x"})
	assert.Error(t, err)
}

func TestFromBSON(t *testing.T) {
	when := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, int64(5), FromBSON(int32(5)))
	assert.Equal(t, when, FromBSON(primitive.NewDateTimeFromTime(when)))
	assert.Equal(t, schema.GeoPoint{Longitude: -3.7, Latitude: 40.4},
		FromBSON(bson.M{"type": "Point", "coordinates": bson.A{-3.7, 40.4}}))
	assert.Equal(t, schema.GeoPoint{Longitude: 1, Latitude: 2},
		FromBSON(bson.D{{Key: "type", Value: "Point"}, {Key: "coordinates", Value: bson.A{1.0, 2.0}}}))
	assert.Equal(t, "plain", FromBSON("plain"))
}

func bulkError(codes map[int]int) mongo.BulkWriteException {
	var bwe mongo.BulkWriteException
	for idx, code := range codes {
		bwe.WriteErrors = append(bwe.WriteErrors, mongo.BulkWriteError{
			WriteError: mongo.WriteError{Index: idx, Code: code, Message: "E11000 duplicate key error"},
		})
	}
	return bwe
}

func TestOutcomeSkipsDuplicateKeys(t *testing.T) {
	s := New("documents", config.Store{}, Options{})
	e := sensors(t)
	rows := [][]any{sensorRow("a", 0, 0), sensorRow("b", 0, 0), sensorRow("c", 0, 0), sensorRow("d", 0, 0)}

	res, err := s.outcome(e, rows, bulkError(map[int]int{1: 11000, 3: 11000}), common.BatchOptions{SkipDuplicates: true})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, []int{0, 2}, res.Rows)
	assert.Equal(t, []any{"a", "c"}, res.IDs)
}

func TestWithLandedCountsRowsStoredBeforeTheDrop(t *testing.T) {
	ids := []any{"a", "b", "c", "d", "e"}
	landed := map[int]bool{0: true, 1: true, 3: true}
	sent := common.BatchResult{Inserted: 1, Skipped: 1, Rows: []int{1}, IDs: []any{"e"}, FellBack: true}

	res := withLanded(ids, landed, []int{2, 4}, sent)
	assert.Equal(t, 4, res.Inserted)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, []int{0, 1, 3, 4}, res.Rows)
	assert.Equal(t, []any{"a", "b", "d", "e"}, res.IDs)
	assert.True(t, res.FellBack)

	all := withLanded(ids[:2], map[int]bool{0: true, 1: true}, nil, common.BatchResult{})
	assert.Equal(t, 2, all.Inserted)
	assert.Zero(t, all.Skipped)
	assert.Equal(t, []any{"a", "b"}, all.IDs)
}

func TestOutcomeOrderedStopsAtFirstError(t *testing.T) {
	s := New("documents", config.Store{}, Options{})
	e := sensors(t)
	rows := [][]any{sensorRow("a", 0, 0), sensorRow("b", 0, 0), sensorRow("c", 0, 0)}

	res, err := s.outcome(e, rows, bulkError(map[int]int{1: 11000}), common.BatchOptions{SkipDuplicates: true, Ordered: true})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 2, res.Skipped)
}

func TestOutcomeOtherWriteErrorsAreFatal(t *testing.T) {
	s := New("documents", config.Store{}, Options{})
	e := sensors(t)
	rows := [][]any{sensorRow("a", 0, 0), sensorRow("b", 0, 0)}

	res, err := s.outcome(e, rows, bulkError(map[int]int{1: 121}), common.BatchOptions{SkipDuplicates: true})
	var ie *common.InsertError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, common.ClassConstraint, ie.Class)
	assert.Equal(t, schema.IoTSensor, ie.Kind)
	assert.Equal(t, 1, res.Inserted)

	_, err = s.outcome(e, rows, bulkError(map[int]int{0: 11000}), common.BatchOptions{})
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, common.ClassDuplicate, ie.Class)
}

func TestOutcomeClassifiesTransportErrors(t *testing.T) {
	s := New("documents", config.Store{}, Options{})
	e := sensors(t)

	_, err := s.outcome(e, [][]any{sensorRow("a", 0, 0)}, mongo.ErrClientDisconnected, common.BatchOptions{})
	var ie *common.InsertError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, common.ClassConnection, ie.Class)
	assert.True(t, common.IsConnectionError(err))
}

func TestIndexModels(t *testing.T) {
	models := IndexModels(sensors(t))
	require.Len(t, models, 3)
	assert.Equal(t, bson.D{{Key: "sensor_id", Value: 1}}, models[0].Keys)
	assert.True(t, *models[0].Options.Unique)
	assert.Equal(t, "uq_iot_sensors_1", *models[0].Options.Name)
	assert.Equal(t, "idx_iot_sensors_location_code", *models[2].Options.Name)
}

func TestURI(t *testing.T) {
	assert.Equal(t, "mongodb://localhost:27017/", URI(config.Store{Host: "localhost", Port: 27017}))
	assert.Equal(t, "mongodb://app:s3cret@db:27018/?authSource=admin",
		URI(config.Store{Host: "db", Port: 27018, User: "app", Password: "s3cret", Options: map[string]string{"authSource": "admin"}}))
}

func TestInvalidPointFilter(t *testing.T) {
	f := InvalidPointFilter("position")
	clauses := f["$or"].(bson.A)
	require.Len(t, clauses, 5)
	assert.Equal(t, bson.M{"position.coordinates.0": bson.M{"$lt": -180}}, clauses[1])
}
