package swr

import (
	"context"
	"time"
)

// Record is the serialized form of a cached value kept in a Store.
type Record struct {
	FetchedAt time.Time `json:"fetched_at"`
	Data      []byte    `json:"data"`
}

// Store is a second-level cache shared between processes.
// Load returns ErrNotFound when the key has no record.
type Store interface {
	Load(ctx context.Context, key string) (Record, error)
	Save(ctx context.Context, key string, rec Record, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
