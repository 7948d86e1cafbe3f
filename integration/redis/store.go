package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/bellinghamdata/portalkit/core/kv"
)

// DefaultKeyPrefix namespaces portal keys inside a shared Redis database.
const DefaultKeyPrefix = "portalkit:"

// Store implements kv.Store on Redis, letting several worker processes share
// one portal session. Multi-key writes go through MULTI/EXEC so the session
// record invariant (all fields or none) holds for concurrent readers.
type Store struct {
	client *redis.Client
	prefix string
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithKeyPrefix overrides the namespace prepended to every key.
func WithKeyPrefix(prefix string) StoreOption {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// NewStore wraps an established Redis client as a kv.Store.
func NewStore(client *redis.Client, opts ...StoreOption) *Store {
	s := &Store{client: client, prefix: DefaultKeyPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the value for key, or kv.ErrKeyNotFound.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", kv.ErrEmptyKey
	}

	value, err := s.client.Get(ctx, s.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", kv.ErrKeyNotFound
		}
		return "", err
	}
	return value, nil
}

// SetAll stores every entry of values in one transaction.
func (s *Store) SetAll(ctx context.Context, values map[string]string) error {
	for key := range values {
		if key == "" {
			return kv.ErrEmptyKey
		}
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for key, value := range values {
			pipe.Set(ctx, s.prefix+key, value, 0)
		}
		return nil
	})
	return err
}

// DeleteAll removes the given keys in one transaction. Missing keys are not
// an error.
func (s *Store) DeleteAll(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = s.prefix + key
	}
	return s.client.Del(ctx, prefixed...).Err()
}
