// Package mock holds test doubles for the revoke interfaces: an in-memory
// record store with injectable failures and a recording logger.
package mock

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/trussworks/revoke"
)

type recordKey struct {
	ownerID   string
	sessionID uuid.UUID
}

// RecordStore is an in-memory revoke.RecordStore. Set the *Err fields to
// make the corresponding operation fail.
type RecordStore struct {
	mu         sync.Mutex
	records    map[recordKey]revoke.SessionRecord
	sessionIDs map[uuid.UUID]bool

	CreateErr error
	FindErr   error
	DeleteErr error
}

// NewRecordStore returns an empty RecordStore.
func NewRecordStore() *RecordStore {
	return &RecordStore{
		records:    map[recordKey]revoke.SessionRecord{},
		sessionIDs: map[uuid.UUID]bool{},
	}
}

func (s *RecordStore) Close() error {
	return nil
}

func (s *RecordStore) CreateRecord(ctx context.Context, record revoke.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.CreateErr != nil {
		return s.CreateErr
	}

	if s.sessionIDs[record.SessionID] {
		return revoke.ErrDuplicateSession
	}

	s.records[recordKey{record.OwnerID, record.SessionID}] = record
	s.sessionIDs[record.SessionID] = true

	return nil
}

func (s *RecordStore) FindRecord(ctx context.Context, ownerID string, sessionID uuid.UUID) (revoke.SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FindErr != nil {
		return revoke.SessionRecord{}, s.FindErr
	}

	record, ok := s.records[recordKey{ownerID, sessionID}]
	if !ok {
		return revoke.SessionRecord{}, revoke.ErrRecordNotFound
	}

	return record, nil
}

func (s *RecordStore) DeleteRecord(ctx context.Context, ownerID string, sessionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.DeleteErr != nil {
		return s.DeleteErr
	}

	key := recordKey{ownerID, sessionID}
	if _, ok := s.records[key]; !ok {
		return revoke.ErrRecordNotFound
	}

	delete(s.records, key)
	delete(s.sessionIDs, sessionID)

	return nil
}

// Len reports how many records the store currently holds.
func (s *RecordStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.records)
}
