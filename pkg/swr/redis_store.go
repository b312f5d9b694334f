package swr

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces store keys inside a shared Redis database.
const DefaultRedisPrefix = "swr"

// RedisStore keeps records in Redis as JSON under "{prefix}:{key}".
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithPrefix sets the key prefix. An empty prefix stores keys as-is.
// Default: "swr"
func WithPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// NewRedisStore creates a store over client. The client lifecycle stays with
// the caller.
func NewRedisStore(client redis.UniversalClient, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{
		client: client,
		prefix: DefaultRedisPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the record for key or ErrNotFound.
func (s *RedisStore) Load(ctx context.Context, key string) (Record, error) {
	data, err := s.client.Get(ctx, s.prefixedKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, errors.Join(ErrStoreDecode, err)
	}
	return rec, nil
}

// Save writes rec under key. A non-positive ttl keeps the record until deleted.
func (s *RedisStore) Save(ctx context.Context, key string, rec Record, ttl time.Duration) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return errors.Join(ErrStoreEncode, err)
	}
	return s.client.Set(ctx, s.prefixedKey(key), data, max(ttl, 0)).Err()
}

// Delete removes key. Missing keys are not an error.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefixedKey(key)).Err()
}

func (s *RedisStore) prefixedKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + ":" + key
}

var _ Store = (*RedisStore)(nil)
