package store

import (
	"context"

	"github.com/roach88/nestdoc/internal/value"
)

// DocumentStore is the operation set shared by Store and the in-memory
// implementation in package memstore.
type DocumentStore interface {
	Put(ctx context.Context, key string, doc value.Value) error
	PutAny(ctx context.Context, key string, doc any) error
	Add(ctx context.Context, doc value.Value) (string, error)
	Get(ctx context.Context, key string) (value.Value, error)
	UpdatePath(ctx context.Context, key, path string, v value.Value) error
	ExtractPath(ctx context.Context, key, path string) (value.Value, bool, error)
	ExtractPathStrict(ctx context.Context, key, path string) (value.Value, error)
	ArrayLength(ctx context.Context, key, path string) (int, error)
	ArrayLengthStrict(ctx context.Context, key, path string) (int, error)
	QueryPath(ctx context.Context, path string, want value.Value) ([]Record, error)
	SearchText(ctx context.Context, term string) ([]Record, error)
	Keys(ctx context.Context, prefix string) ([]string, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

var _ DocumentStore = (*Store)(nil)
