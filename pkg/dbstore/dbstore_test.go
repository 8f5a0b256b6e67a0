//go:build skip
// +build skip

package dbstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/trussworks/revoke"
)

func dbURLFromEnv() string {
	host := os.Getenv("DATABASE_HOST")
	port := os.Getenv("DATABASE_PORT")
	name := os.Getenv("DATABASE_NAME")
	user := os.Getenv("DATABASE_USER")
	sslmode := os.Getenv("DATABASE_SSL_MODE")

	connStr := fmt.Sprintf("postgres://%s@%s:%s/%s?sslmode=%s", user, host, port, name, sslmode)
	return connStr
}

func getTestStore(t *testing.T) DBStore {
	t.Helper()

	connection, err := sqlx.Open("postgres", dbURLFromEnv())
	if err != nil {
		t.Fatal("error connecting to database using sqlx.Open:", err)
	}

	return NewDBStore(connection)
}

func getTestRecord() revoke.SessionRecord {
	return revoke.SessionRecord{
		OwnerID:   uuid.New().String(),
		SessionID: uuid.New(),
		ExpiresAt: time.Now().UTC().Add(5 * time.Minute),
	}
}

func timeIsCloseToTime(test time.Time, expected time.Time, diff time.Duration) bool {
	lowerBound := expected.Add(-diff)
	upperBound := expected.Add(diff)

	return test.After(lowerBound) && test.Before(upperBound)
}

func TestCreateAndFindRecord(t *testing.T) {
	store := getTestStore(t)
	defer store.Close()
	ctx := context.Background()

	record := getTestRecord()
	if err := store.CreateRecord(ctx, record); err != nil {
		t.Fatal(err)
	}

	found, err := store.FindRecord(ctx, record.OwnerID, record.SessionID)
	if err != nil {
		t.Fatal(err)
	}

	if found.OwnerID != record.OwnerID || found.SessionID != record.SessionID {
		t.Fatal("Didn't get the expected record back", found)
	}

	if !timeIsCloseToTime(found.ExpiresAt, record.ExpiresAt, time.Second) {
		t.Fatal("The returned expiration date is different from the expected", found.ExpiresAt, record.ExpiresAt)
	}
}

func TestCreateDuplicateSessionID(t *testing.T) {
	store := getTestStore(t)
	defer store.Close()
	ctx := context.Background()

	record := getTestRecord()
	if err := store.CreateRecord(ctx, record); err != nil {
		t.Fatal(err)
	}

	duplicate := record
	duplicate.OwnerID = uuid.New().String()

	err := store.CreateRecord(ctx, duplicate)
	if !errors.Is(err, revoke.ErrDuplicateSession) {
		t.Fatal("Should have refused the colliding session ID, got", err)
	}
}

func TestFindRecordWrongOwner(t *testing.T) {
	store := getTestStore(t)
	defer store.Close()
	ctx := context.Background()

	record := getTestRecord()
	if err := store.CreateRecord(ctx, record); err != nil {
		t.Fatal(err)
	}

	_, err := store.FindRecord(ctx, uuid.New().String(), record.SessionID)
	if !errors.Is(err, revoke.ErrRecordNotFound) {
		t.Fatal("A different owner should not see the record, got", err)
	}
}

func TestFindRecordReturnsExpiredRecords(t *testing.T) {
	store := getTestStore(t)
	defer store.Close()
	ctx := context.Background()

	record := getTestRecord()
	record.ExpiresAt = time.Now().UTC().Add(-10 * time.Minute)
	if err := store.CreateRecord(ctx, record); err != nil {
		t.Fatal(err)
	}

	// Expired records stay readable, the policy rejects them at validation.
	found, err := store.FindRecord(ctx, record.OwnerID, record.SessionID)
	if err != nil {
		t.Fatal(err)
	}

	if !found.ExpiresAt.Before(time.Now().UTC()) {
		t.Fatal("The record should have come back expired", found.ExpiresAt)
	}
}

func TestDeleteRecordRemovesRecord(t *testing.T) {
	store := getTestStore(t)
	defer store.Close()
	ctx := context.Background()

	record := getTestRecord()
	if err := store.CreateRecord(ctx, record); err != nil {
		t.Fatal(err)
	}

	if err := store.DeleteRecord(ctx, record.OwnerID, record.SessionID); err != nil {
		t.Fatal(err)
	}

	_, err := store.FindRecord(ctx, record.OwnerID, record.SessionID)
	if !errors.Is(err, revoke.ErrRecordNotFound) {
		t.Fatal("The record should be gone, got", err)
	}
}

func TestDeleteRecordReturnsErrIfRecordNotFound(t *testing.T) {
	store := getTestStore(t)
	defer store.Close()

	err := store.DeleteRecord(context.Background(), uuid.New().String(), uuid.New())
	if !errors.Is(err, revoke.ErrRecordNotFound) {
		t.Fatal("Deleting a missing record should report not found, got", err)
	}
}
