// Package dbstore is a Postgres-backed revoke.RecordStore.
//
// It expects this schema:
//
//	CREATE TABLE sessions (
//	    session_id uuid PRIMARY KEY,
//	    owner_id text NOT NULL,
//	    expires_at timestamptz NOT NULL
//	);
//
// The primary key is what makes CreateRecord fail atomically on a colliding
// session ID.
package dbstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/trussworks/revoke"
)

// uniqueViolation is the Postgres error code for a unique constraint failure.
const uniqueViolation = "23505"

type DBStore struct {
	db *sqlx.DB
}

func NewDBStore(db *sqlx.DB) DBStore {
	return DBStore{
		db,
	}
}

func (s DBStore) Close() error {
	return s.db.Close()
}

// CreateRecord inserts a new session record. It returns
// revoke.ErrDuplicateSession if the session ID is already present.
func (s DBStore) CreateRecord(ctx context.Context, record revoke.SessionRecord) error {
	createQuery := `INSERT INTO sessions (session_id, owner_id, expires_at)
		VALUES ($1, $2, $3)`

	_, createErr := s.db.ExecContext(ctx, createQuery, record.SessionID, record.OwnerID, record.ExpiresAt.UTC())
	if createErr != nil {
		var pqErr *pq.Error
		if errors.As(createErr, &pqErr) && pqErr.Code == uniqueViolation {
			return revoke.ErrDuplicateSession
		}

		return fmt.Errorf("Unexpectedly failed to create a session record: %w", createErr)
	}

	return nil
}

// FindRecord returns the record for the owner and session ID pair regardless
// of whether it is expired; expiry is the policy's concern, not the store's.
func (s DBStore) FindRecord(ctx context.Context, ownerID string, sessionID uuid.UUID) (revoke.SessionRecord, error) {
	fetchQuery := `SELECT session_id, owner_id, expires_at FROM sessions
		WHERE owner_id = $1 AND session_id = $2`

	record := revoke.SessionRecord{}
	selectErr := s.db.GetContext(ctx, &record, fetchQuery, ownerID, sessionID)
	if selectErr != nil {
		if errors.Is(selectErr, sql.ErrNoRows) {
			return revoke.SessionRecord{}, revoke.ErrRecordNotFound
		}
		return revoke.SessionRecord{}, fmt.Errorf("Failed to fetch a session record: %w", selectErr)
	}

	// time.Times come back from the db with no tz info, so let's set it to UTC to be safe and consistent.
	record.ExpiresAt = record.ExpiresAt.UTC()

	return record, nil
}

// DeleteRecord removes a session record from the db
func (s DBStore) DeleteRecord(ctx context.Context, ownerID string, sessionID uuid.UUID) error {
	deleteQuery := `DELETE FROM sessions WHERE owner_id = $1 AND session_id = $2`

	sqlResult, deleteErr := s.db.ExecContext(ctx, deleteQuery, ownerID, sessionID)
	if deleteErr != nil {
		return fmt.Errorf("Failed to delete session record: %w", deleteErr)
	}

	rowsAffected, _ := sqlResult.RowsAffected()
	if rowsAffected == 0 {
		return revoke.ErrRecordNotFound
	}

	return nil
}
