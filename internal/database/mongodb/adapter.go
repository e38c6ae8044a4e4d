// Package mongodb is the document store: one collection per document kind, unordered
// bulk inserts, and 2dsphere indexes that are only built once the documents exist.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/Rana718/mfgseed/internal/config"
	"github.com/Rana718/mfgseed/internal/database/common"
	"github.com/Rana718/mfgseed/internal/schema"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const errNamespaceExists = 48

type Options struct {
	ConnectTimeout    time.Duration
	CallTimeout       time.Duration
	ConnectRetryDelay time.Duration
}

type Store struct {
	name     string
	cfg      config.Store
	opts     Options
	client   *mongo.Client
	database *mongo.Database
}

func New(name string, cfg config.Store, opts Options) *Store {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 5 * time.Second
	}
	if opts.ConnectRetryDelay <= 0 {
		opts.ConnectRetryDelay = time.Second
	}
	return &Store{name: name, cfg: cfg, opts: opts}
}

func (s *Store) Name() string { return s.name }

func (s *Store) Provider() string { return "mongodb" }

// URI renders the connection string. Credentials are only added when a user is configured.
func URI(cfg config.Store) string {
	u := url.URL{
		Scheme: "mongodb",
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:   "/",
	}
	if cfg.User != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	}
	if len(cfg.Options) > 0 {
		q := url.Values{}
		for k, v := range cfg.Options {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// Connect pings the deployment and selects the configured database. MongoDB creates
// the database lazily with its first collection, so there is nothing else to create.
func (s *Store) Connect(ctx context.Context) error {
	var err error
	for attempt := 1; attempt <= 2; attempt++ {
		if err = s.connectOnce(ctx); err == nil {
			return nil
		}
		if attempt == 1 {
			select {
			case <-ctx.Done():
				return &common.ConnectError{Store: s.name, Provider: s.Provider(), Attempts: attempt, Err: ctx.Err()}
			case <-time.After(s.opts.ConnectRetryDelay):
			}
		}
	}
	return &common.ConnectError{Store: s.name, Provider: s.Provider(), Attempts: 2, Err: err}
}

func (s *Store) connectOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.opts.ConnectTimeout)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(URI(s.cfg)).
		SetConnectTimeout(s.opts.ConnectTimeout).
		SetServerSelectionTimeout(s.opts.ConnectTimeout)
	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background())
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	if s.client != nil {
		s.client.Disconnect(context.Background())
	}
	s.client = client
	s.database = client.Database(s.cfg.Database)
	return nil
}

func (s *Store) Reconnect(ctx context.Context) error {
	s.Close()
	return s.Connect(ctx)
}

func (s *Store) Close() error {
	if s.client == nil {
		return nil
	}
	err := s.client.Disconnect(context.Background())
	s.client = nil
	s.database = nil
	return err
}

func (s *Store) Ping(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("%s store is not connected", s.name)
	}
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.CallTimeout > 0 {
		return context.WithTimeout(ctx, s.opts.CallTimeout)
	}
	return context.WithCancel(ctx)
}

func (s *Store) collection(name string) (*mongo.Collection, error) {
	if s.database == nil {
		return nil, fmt.Errorf("%s store is not connected", s.name)
	}
	return s.database.Collection(name), nil
}

// DropCollections removes collections in the given order. Missing ones are ignored by the server.
func (s *Store) DropCollections(ctx context.Context, names []string) error {
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	for _, name := range names {
		coll, err := s.collection(name)
		if err != nil {
			return &common.SchemaError{Store: s.name, Statement: "drop " + name, Err: err}
		}
		if err := coll.Drop(ctx); err != nil {
			return &common.SchemaError{Store: s.name, Statement: "drop " + name, Err: err}
		}
	}
	return nil
}

// EnsureCollection creates the collection with its unique and secondary indexes.
// Geospatial indexes are left to CreateGeoIndex.
func (s *Store) EnsureCollection(ctx context.Context, e *schema.Entity) error {
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	if s.database == nil {
		return &common.SchemaError{Store: s.name, Statement: "create " + e.Name, Err: errors.New("store is not connected")}
	}
	if err := s.database.CreateCollection(ctx, e.Name); err != nil {
		var cmdErr mongo.CommandError
		if !errors.As(err, &cmdErr) || cmdErr.Code != errNamespaceExists {
			return &common.SchemaError{Store: s.name, Statement: "create " + e.Name, Err: err}
		}
	}

	models := IndexModels(e)
	if len(models) == 0 {
		return nil
	}
	if _, err := s.database.Collection(e.Name).Indexes().CreateMany(ctx, models); err != nil {
		return &common.SchemaError{Store: s.name, Statement: "create indexes on " + e.Name, Err: err}
	}
	return nil
}

// IndexModels lists the unique and secondary indexes of a document kind.
func IndexModels(e *schema.Entity) []mongo.IndexModel {
	var models []mongo.IndexModel
	for i, u := range e.Unique {
		models = append(models, mongo.IndexModel{
			Keys:    indexKeys(u),
			Options: options.Index().SetUnique(true).SetName(common.UniqueName(e.Name, i)),
		})
	}
	for _, ix := range e.Indexes {
		models = append(models, mongo.IndexModel{
			Keys:    indexKeys(ix),
			Options: options.Index().SetName(common.IndexName(e.Name, ix)),
		})
	}
	return models
}

func indexKeys(fields []string) bson.D {
	keys := make(bson.D, len(fields))
	for i, f := range fields {
		keys[i] = bson.E{Key: f, Value: 1}
	}
	return keys
}

// CreateGeoIndex builds a 2dsphere index on a GeoJSON field.
func (s *Store) CreateGeoIndex(ctx context.Context, e *schema.Entity, field string) error {
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	coll, err := s.collection(e.Name)
	if err != nil {
		return err
	}
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: field, Value: "2dsphere"}},
		Options: options.Index().SetName("geo_" + e.Name + "_" + field),
	})
	return err
}

// InsertBatch writes rows (aligned to e.InsertColumns) with one InsertMany. Duplicate
// key write errors are counted as skipped; any other write error is fatal. A resent
// batch first looks up which rows landed before the connection dropped and only
// sends the others.
func (s *Store) InsertBatch(ctx context.Context, e *schema.Entity, rows [][]any, opts common.BatchOptions) (common.BatchResult, error) {
	var res common.BatchResult
	if len(rows) == 0 {
		return res, nil
	}
	coll, err := s.collection(e.Name)
	if err != nil {
		return res, &common.InsertError{Store: s.name, Kind: e.Name, Class: common.ClassConnection, Err: err}
	}

	ctx, cancel := s.callContext(ctx)
	defer cancel()

	if !opts.Resend {
		return s.insert(ctx, coll, e, rows, opts)
	}
	landed, err := s.landed(ctx, coll, e, rows)
	if err != nil {
		return res, &common.InsertError{Store: s.name, Kind: e.Name, Class: classify(err), Err: err}
	}
	var pending []int
	var pendingRows [][]any
	for i, row := range rows {
		if !landed[i] {
			pending = append(pending, i)
			pendingRows = append(pendingRows, row)
		}
	}
	if len(pendingRows) == 0 {
		return withLanded(echoIDs(e, rows), landed, nil, common.BatchResult{}), nil
	}
	sub, err := s.insert(ctx, coll, e, pendingRows, opts)
	return withLanded(echoIDs(e, rows), landed, pending, sub), err
}

func (s *Store) insert(ctx context.Context, coll *mongo.Collection, e *schema.Entity, rows [][]any, opts common.BatchOptions) (common.BatchResult, error) {
	var res common.BatchResult
	cols := e.InsertColumns()
	docs := make([]interface{}, len(rows))
	for i, row := range rows {
		doc, err := ToDocument(cols, row)
		if err != nil {
			return res, &common.InsertError{Store: s.name, Kind: e.Name, Class: common.ClassOther, Err: err}
		}
		docs[i] = doc
	}

	_, err := coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(opts.Ordered))
	return s.outcome(e, rows, err, opts)
}

// landed returns the indexes of rows whose identifier is already in the collection.
func (s *Store) landed(ctx context.Context, coll *mongo.Collection, e *schema.Entity, rows [][]any) (map[int]bool, error) {
	ids := echoIDs(e, rows)
	cursor, err := coll.Find(ctx, bson.M{e.IDColumn: bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{e.IDColumn: 1, "_id": 0}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	stored := make(map[any]bool)
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		stored[FromBSON(doc[e.IDColumn])] = true
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}

	out := make(map[int]bool)
	for i, id := range ids {
		if stored[id] {
			out[i] = true
		}
	}
	return out, nil
}

// withLanded folds rows that were already stored into the result of sending the rest.
// pending[k] is the row index of the k-th row that was sent.
func withLanded(ids []any, landed map[int]bool, pending []int, sent common.BatchResult) common.BatchResult {
	written := make(map[int]any, len(landed)+len(sent.Rows))
	for i := range landed {
		written[i] = ids[i]
	}
	for j, k := range sent.Rows {
		if j < len(sent.IDs) {
			written[pending[k]] = sent.IDs[j]
		}
	}

	res := common.BatchResult{Inserted: len(landed) + sent.Inserted, Skipped: sent.Skipped, FellBack: sent.FellBack}
	for i := range ids {
		if id, ok := written[i]; ok {
			res.Rows = append(res.Rows, i)
			res.IDs = append(res.IDs, id)
		}
	}
	return res
}

func (s *Store) outcome(e *schema.Entity, rows [][]any, err error, opts common.BatchOptions) (common.BatchResult, error) {
	ids := echoIDs(e, rows)
	res := common.BatchResult{}
	if err == nil {
		res.Inserted = len(rows)
		res.IDs = ids
		res.Rows = make([]int, len(rows))
		for i := range rows {
			res.Rows[i] = i
		}
		return res, nil
	}

	var bwe mongo.BulkWriteException
	if !errors.As(err, &bwe) || len(bwe.WriteErrors) == 0 || bwe.WriteConcernError != nil {
		return res, &common.InsertError{Store: s.name, Kind: e.Name, Class: classify(err), Err: err}
	}

	failed := make(map[int]bool, len(bwe.WriteErrors))
	stop := len(rows)
	var fatal *mongo.BulkWriteError
	for i := range bwe.WriteErrors {
		we := bwe.WriteErrors[i]
		failed[we.Index] = true
		if we.Index < stop && opts.Ordered {
			stop = we.Index
		}
		if fatal == nil && (we.Code != duplicateKeyCode || !opts.SkipDuplicates) {
			fatal = &bwe.WriteErrors[i]
		}
	}

	res.FellBack = true
	for i := range rows {
		if i > stop || failed[i] {
			res.Skipped++
			continue
		}
		res.Inserted++
		res.Rows = append(res.Rows, i)
		res.IDs = append(res.IDs, ids[i])
	}

	if fatal != nil {
		class := common.ClassConstraint
		if fatal.Code == duplicateKeyCode {
			class = common.ClassDuplicate
		}
		return res, &common.InsertError{Store: s.name, Kind: e.Name, Class: class,
			Err: fmt.Errorf("row %d: %s (code %d)", fatal.Index, fatal.Message, fatal.Code)}
	}
	return res, nil
}

// TruncateInOrder deletes every document of each collection, keeping indexes.
func (s *Store) TruncateInOrder(ctx context.Context, names []string) error {
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	for _, name := range names {
		coll, err := s.collection(name)
		if err != nil {
			return err
		}
		if _, err := coll.DeleteMany(ctx, bson.M{}); err != nil {
			return fmt.Errorf("failed to truncate %s: %w", name, err)
		}
	}
	return nil
}

func (s *Store) Count(ctx context.Context, e *schema.Entity) (int64, error) {
	return s.countWhere(ctx, e, bson.M{})
}

func (s *Store) countWhere(ctx context.Context, e *schema.Entity, filter interface{}) (int64, error) {
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	coll, err := s.collection(e.Name)
	if err != nil {
		return 0, err
	}
	return coll.CountDocuments(ctx, filter)
}

func (s *Store) FetchIDs(ctx context.Context, e *schema.Entity, limit int) ([]any, error) {
	rows, err := s.FetchColumns(ctx, e, []string{e.IDColumn}, nil, limit)
	if err != nil {
		return nil, err
	}
	ids := make([]any, len(rows))
	for i, r := range rows {
		ids[i] = r[0]
	}
	return ids, nil
}

// FetchColumns reads fields of every document, sorted by the kind's identifier.
func (s *Store) FetchColumns(ctx context.Context, e *schema.Entity, cols []string, filter *schema.TagRule, limit int) ([][]any, error) {
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	coll, err := s.collection(e.Name)
	if err != nil {
		return nil, err
	}

	projection := bson.D{{Key: "_id", Value: 0}}
	for _, c := range cols {
		if c != "_id" {
			projection = append(projection, bson.E{Key: c, Value: 1})
		}
	}
	findOpts := options.Find().SetProjection(projection).SetSort(bson.D{{Key: e.IDColumn, Value: 1}})
	if limit > 0 {
		findOpts.SetLimit(int64(limit))
	}

	cursor, err := coll.Find(ctx, tagFilter(filter), findOpts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out [][]any
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		row := make([]any, len(cols))
		for i, c := range cols {
			row[i] = FromBSON(doc[c])
		}
		out = append(out, row)
	}
	return out, cursor.Err()
}

func tagFilter(rule *schema.TagRule) bson.M {
	if rule == nil {
		return bson.M{}
	}
	if rule.Contains {
		return bson.M{rule.Column: bson.M{"$regex": regexp.QuoteMeta(rule.Value)}}
	}
	return bson.M{rule.Column: rule.Value}
}

// SampleValues returns up to limit distinct non-null values of a field, in sorted order.
func (s *Store) SampleValues(ctx context.Context, e *schema.Entity, field string, limit int) ([]any, error) {
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	coll, err := s.collection(e.Name)
	if err != nil {
		return nil, err
	}
	raw, err := coll.Distinct(ctx, field, bson.M{field: bson.M{"$ne": nil}})
	if err != nil {
		return nil, err
	}
	values := make([]any, len(raw))
	for i, v := range raw {
		values[i] = FromBSON(v)
	}
	sort.Slice(values, func(i, j int) bool { return lessValue(values[i], values[j]) })
	if limit > 0 && len(values) > limit {
		values = values[:limit]
	}
	return values, nil
}

// CountInvalidPoints counts documents whose GeoJSON field is not a Point with
// longitude in [-180, 180] and latitude in [-90, 90].
func (s *Store) CountInvalidPoints(ctx context.Context, e *schema.Entity, field string) (int64, error) {
	return s.countWhere(ctx, e, InvalidPointFilter(field))
}

func InvalidPointFilter(field string) bson.M {
	lon := field + ".coordinates.0"
	lat := field + ".coordinates.1"
	return bson.M{"$or": bson.A{
		bson.M{field + ".type": bson.M{"$ne": "Point"}},
		bson.M{lon: bson.M{"$lt": -180}},
		bson.M{lon: bson.M{"$gt": 180}},
		bson.M{lat: bson.M{"$lt": -90}},
		bson.M{lat: bson.M{"$gt": 90}},
	}}
}

// CountInverted counts documents whose end field is set and earlier than start.
func (s *Store) CountInverted(ctx context.Context, e *schema.Entity, start, end string) (int64, error) {
	return s.countWhere(ctx, e, bson.M{
		end:     bson.M{"$ne": nil},
		"$expr": bson.M{"$gt": bson.A{"$" + start, "$" + end}},
	})
}
