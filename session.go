package revoke

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// TokenName is the slot name under which the session identifier is stored in
// the authentication context. The host serializes this slot into the cookie
// payload, so the same name must be used on the way back in.
const TokenName = "cookieid"

// Store errors
var (
	// ErrDuplicateSession is returned by CreateRecord when a record with the
	// same session ID already exists.
	ErrDuplicateSession = errors.New("a session record with this session ID already exists")

	// ErrRecordNotFound is returned by FindRecord and DeleteRecord when no
	// record matches the owner and session ID pair.
	ErrRecordNotFound = errors.New("no matching session record found")
)

// Rejection errors returned by ValidatePrincipal. Any non-nil return from
// ValidatePrincipal must be treated as a rejection by the host.
var (
	// ErrNoToken is returned when the authentication context carries no session token.
	ErrNoToken = errors.New("the authentication context carries no session token")

	// ErrMalformedToken is returned when the token slot holds something that is not a session identifier.
	ErrMalformedToken = errors.New("the session token is not a valid session identifier")

	// ErrUnknownSession is returned when no record matches the token, because it was revoked, purged, or forged.
	ErrUnknownSession = errors.New("no live session record matches this token")

	// ErrSessionExpired is returned when a record exists but is past its expiration date.
	ErrSessionExpired = errors.New("the session record has expired")
)

// ErrEmptyOwnerID is returned when a session is issued for an owner with an empty ID.
var ErrEmptyOwnerID = errors.New("an owner with an empty id cannot be issued a session")

// SessionRecord is the sole persisted entity: one row per issued cookie.
// Records are immutable after creation; there is no update operation anywhere
// in this library. Re-authentication always creates a fresh record.
type SessionRecord struct {
	OwnerID   string    `db:"owner_id"`
	SessionID uuid.UUID `db:"session_id"`
	ExpiresAt time.Time `db:"expires_at"`
}

// RecordStore is the durable keyed storage for session records. The store is
// the sole source of truth for session validity; the cookie token carries no
// other trust.
//
// CreateRecord must fail atomically with ErrDuplicateSession on a colliding
// session ID. DeleteRecord must be safe to race against a concurrent
// FindRecord for the same pair; the acceptable outcome of that race is a
// not-found result, never a phantom record.
type RecordStore interface {
	// Close closes the storage connection.
	Close() error

	// CreateRecord inserts a new session record. It returns
	// ErrDuplicateSession if a record with the same session ID exists.
	CreateRecord(ctx context.Context, record SessionRecord) error

	// FindRecord returns the record matching the owner and session ID pair,
	// or ErrRecordNotFound. Expired records are still returned; expiry is
	// enforced at validation time.
	FindRecord(ctx context.Context, ownerID string, sessionID uuid.UUID) (SessionRecord, error)

	// DeleteRecord removes the record matching the owner and session ID
	// pair. It returns ErrRecordNotFound if there is none.
	DeleteRecord(ctx context.Context, ownerID string, sessionID uuid.UUID) error
}

// TokenReader provides read access to the named token slots attached to an
// authentication context by the host.
type TokenReader interface {
	GetToken(name string) string
}

// TokenStore is a mutable collection of named token slots. The host
// serializes these into the outgoing cookie payload.
type TokenStore interface {
	TokenReader
	SetToken(name string, value string)
}

// Tokens is a map-backed TokenStore for hosts that keep token slots in
// memory between decoding and encoding the cookie payload.
type Tokens map[string]string

func (t Tokens) GetToken(name string) string {
	return t[name]
}

func (t Tokens) SetToken(name string, value string) {
	t[name] = value
}

// AuthEvents is the authentication event sink a host middleware drives.
// Sessions implements it; hosts call the three methods at the sign-in,
// sign-out, and per-request validation points of their cookie pipeline.
type AuthEvents interface {
	// UserDidAuthenticate issues a session record for a freshly
	// authenticated owner and writes its identifier into the token slot.
	UserDidAuthenticate(ctx context.Context, ownerID string, expiresAt time.Time, tokens TokenStore) error

	// UserDidLogout revokes the session named by the token slot.
	UserDidLogout(ctx context.Context, ownerID string, tokens TokenReader) error

	// ValidatePrincipal checks that the token slot names a live, unexpired
	// record for this owner. A nil return means accepted; any non-nil
	// return must be treated as a rejection.
	ValidatePrincipal(ctx context.Context, ownerID string, tokens TokenReader) error
}
