package session

import (
	"context"
	"errors"
	"time"

	"github.com/bellinghamdata/portalkit/core/kv"
)

// Storage keys for the persisted session record. All three are written and
// cleared together; the token key holds the empty string when the backend
// issued no bearer token.
const (
	KeyUsername  = "auth.username"
	KeyExpiresAt = "auth.expiresAt"
	KeyToken     = "auth.token"
)

// Record is the durable subset of Session that survives a process restart.
// ExpiresAt is kept in ISO-8601 form, exactly as received from the backend.
type Record struct {
	Username  string
	ExpiresAt string
	Token     string
}

// ParseExpiry returns the record's expiry as a time, or an error for a
// missing or malformed value.
func (r Record) ParseExpiry() (time.Time, error) {
	if r.ExpiresAt == "" {
		return time.Time{}, ErrInvalidExpiry
	}
	expiry, err := time.Parse(time.RFC3339, r.ExpiresAt)
	if err != nil {
		return time.Time{}, errors.Join(ErrInvalidExpiry, err)
	}
	return expiry, nil
}

// RecordStore persists the session record in a kv.Store. The whole record is
// written and cleared as one atomic batch, so a reader never sees a username
// without its expiry.
type RecordStore struct {
	store kv.Store
}

// NewRecordStore wraps a kv.Store with the session record layout.
func NewRecordStore(store kv.Store) *RecordStore {
	return &RecordStore{store: store}
}

// Load reads the persisted record. ok is false when no record exists or the
// record is incomplete; a corrupt or partial record is reported as absent
// rather than surfaced as an error, failing safe to logged-out.
func (s *RecordStore) Load(ctx context.Context) (record Record, ok bool, err error) {
	username, err := s.store.Get(ctx, KeyUsername)
	if err != nil {
		if errors.Is(err, kv.ErrKeyNotFound) {
			return Record{}, false, nil
		}
		return Record{}, false, err
	}

	expiresAt, err := s.store.Get(ctx, KeyExpiresAt)
	if err != nil {
		if errors.Is(err, kv.ErrKeyNotFound) {
			return Record{}, false, nil
		}
		return Record{}, false, err
	}

	token, err := s.store.Get(ctx, KeyToken)
	if err != nil && !errors.Is(err, kv.ErrKeyNotFound) {
		return Record{}, false, err
	}

	if username == "" || expiresAt == "" {
		return Record{}, false, nil
	}

	return Record{Username: username, ExpiresAt: expiresAt, Token: token}, true, nil
}

// Save writes the record as one atomic batch.
func (s *RecordStore) Save(ctx context.Context, record Record) error {
	return s.store.SetAll(ctx, map[string]string{
		KeyUsername:  record.Username,
		KeyExpiresAt: record.ExpiresAt,
		KeyToken:     record.Token,
	})
}

// Clear removes the record as one atomic batch. Clearing an absent record is
// a no-op.
func (s *RecordStore) Clear(ctx context.Context) error {
	return s.store.DeleteAll(ctx, KeyUsername, KeyExpiresAt, KeyToken)
}
