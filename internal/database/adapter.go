package database

import (
	"context"

	"github.com/Rana718/mfgseed/internal/database/common"
	"github.com/Rana718/mfgseed/internal/schema"
)

// Store is the contract shared by every backing store. Instances are owned by one
// task at a time and are not safe for concurrent use.
type Store interface {
	Name() string
	Provider() string

	Connect(ctx context.Context) error
	Reconnect(ctx context.Context) error
	Close() error
	Ping(ctx context.Context) error

	InsertBatch(ctx context.Context, e *schema.Entity, rows [][]any, opts common.BatchOptions) (common.BatchResult, error)
	TruncateInOrder(ctx context.Context, names []string) error

	FetchIDs(ctx context.Context, e *schema.Entity, limit int) ([]any, error)
	FetchColumns(ctx context.Context, e *schema.Entity, cols []string, filter *schema.TagRule, limit int) ([][]any, error)
	SampleValues(ctx context.Context, e *schema.Entity, column string, limit int) ([]any, error)
	Count(ctx context.Context, e *schema.Entity) (int64, error)
}

type RelationalStore interface {
	Store

	Dialect() common.Dialect
	// ApplySchema runs a DDL script on one session. A failure leaves earlier statements applied.
	ApplySchema(ctx context.Context, script string) error
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	QueryInt(ctx context.Context, query string, args ...any) (int64, error)
}

type DocumentStore interface {
	Store

	DropCollections(ctx context.Context, names []string) error
	EnsureCollection(ctx context.Context, e *schema.Entity) error
	CreateGeoIndex(ctx context.Context, e *schema.Entity, field string) error

	CountInvalidPoints(ctx context.Context, e *schema.Entity, field string) (int64, error)
	CountInverted(ctx context.Context, e *schema.Entity, start, end string) (int64, error)
}
