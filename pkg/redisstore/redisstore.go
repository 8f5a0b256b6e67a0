// Package redisstore is a Redis-backed revoke.RecordStore.
//
// Records are stored as JSON values keyed by session ID alone, which lets
// SETNX enforce session ID uniqueness across all owners; the owner check
// happens on read. Keys carry a TTL derived from the record's expiration, so
// Redis doubles as the external housekeeping process that purges expired
// records. A record Redis has already purged reads as not-found, which the
// policy reports as an unknown session.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/trussworks/revoke"
)

const keyPrefix = "revoke:session:"

type RedisStore struct {
	client redis.UniversalClient
}

func NewRedisStore(client redis.UniversalClient) RedisStore {
	return RedisStore{
		client,
	}
}

func (s RedisStore) Close() error {
	return s.client.Close()
}

func sessionKey(sessionID uuid.UUID) string {
	return keyPrefix + sessionID.String()
}

type recordBlob struct {
	OwnerID   string    `json:"owner_id"`
	SessionID uuid.UUID `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CreateRecord inserts a new session record. SETNX makes the insert fail
// atomically with revoke.ErrDuplicateSession on a colliding session ID.
func (s RedisStore) CreateRecord(ctx context.Context, record revoke.SessionRecord) error {
	blob := recordBlob{
		OwnerID:   record.OwnerID,
		SessionID: record.SessionID,
		ExpiresAt: record.ExpiresAt.UTC(),
	}

	data, marshalErr := json.Marshal(blob)
	if marshalErr != nil {
		return fmt.Errorf("Failed to encode a session record: %w", marshalErr)
	}

	ttl := time.Until(record.ExpiresAt)
	if ttl <= 0 {
		// Keep an already-expired record readable briefly so validation
		// reports expiry rather than an unknown session.
		ttl = time.Minute
	}

	created, createErr := s.client.SetNX(ctx, sessionKey(record.SessionID), data, ttl).Result()
	if createErr != nil {
		return fmt.Errorf("Unexpectedly failed to create a session record: %w", createErr)
	}

	if !created {
		return revoke.ErrDuplicateSession
	}

	return nil
}

// FindRecord returns the record for the owner and session ID pair. A record
// held by a different owner reads as not found.
func (s RedisStore) FindRecord(ctx context.Context, ownerID string, sessionID uuid.UUID) (revoke.SessionRecord, error) {
	data, getErr := s.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if getErr != nil {
		if errors.Is(getErr, redis.Nil) {
			return revoke.SessionRecord{}, revoke.ErrRecordNotFound
		}
		return revoke.SessionRecord{}, fmt.Errorf("Failed to fetch a session record: %w", getErr)
	}

	var blob recordBlob
	if unmarshalErr := json.Unmarshal(data, &blob); unmarshalErr != nil {
		return revoke.SessionRecord{}, fmt.Errorf("Failed to decode a session record: %w", unmarshalErr)
	}

	if blob.OwnerID != ownerID {
		return revoke.SessionRecord{}, revoke.ErrRecordNotFound
	}

	return revoke.SessionRecord{
		OwnerID:   blob.OwnerID,
		SessionID: blob.SessionID,
		ExpiresAt: blob.ExpiresAt.UTC(),
	}, nil
}

// DeleteRecord removes the record for the owner and session ID pair. Racing
// a concurrent delete of the same pair resolves to not-found; session IDs
// are never reused, so the read-then-delete cannot remove someone else's
// record.
func (s RedisStore) DeleteRecord(ctx context.Context, ownerID string, sessionID uuid.UUID) error {
	if _, findErr := s.FindRecord(ctx, ownerID, sessionID); findErr != nil {
		return findErr
	}

	deleted, deleteErr := s.client.Del(ctx, sessionKey(sessionID)).Result()
	if deleteErr != nil {
		return fmt.Errorf("Failed to delete session record: %w", deleteErr)
	}

	if deleted == 0 {
		return revoke.ErrRecordNotFound
	}

	return nil
}
