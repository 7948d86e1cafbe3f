package kv

import (
	"context"
	"errors"
)

var (
	// ErrKeyNotFound is returned when a key has no stored value.
	ErrKeyNotFound = errors.New("kv: key not found")
	// ErrEmptyKey is returned when an operation receives an empty key.
	ErrEmptyKey = errors.New("kv: key must not be empty")
)

// Store is a string-keyed, string-valued persistence interface.
//
// SetAll and DeleteAll operate on their full key set atomically: after a
// failed call the previously stored values remain intact, and a reader never
// observes a partially applied batch. The session record layer relies on this
// to keep username, expiry, and token consistent as a unit.
type Store interface {
	// Get returns the value for key, or ErrKeyNotFound.
	Get(ctx context.Context, key string) (string, error)
	// SetAll stores every entry of values as one atomic batch.
	SetAll(ctx context.Context, values map[string]string) error
	// DeleteAll removes the given keys as one atomic batch. Missing keys are
	// not an error.
	DeleteAll(ctx context.Context, keys ...string) error
}
