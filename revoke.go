// Package revoke implements server-side revocation for cookie-based session
// authentication. Instead of trusting a signed cookie's claims for its whole
// validity window, the host stores one session record per issued cookie and
// asks this package, on every request, whether that record still denotes a
// live, unexpired session. Logout deletes the record, which invalidates the
// cookie immediately no matter what its signed payload says.
//
// The package does no cryptography, HTTP, or claim verification itself. A
// host authentication middleware drives the three lifecycle methods on
// Sessions at its sign-in, sign-out, and per-request validation points; see
// pkg/revokehttp and pkg/scshost for two such hosts.
package revoke

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Sessions is the revocable session policy. It holds no session state of its
// own; every decision is a pure function of its inputs and the record store,
// so a single value is safe for concurrent use across requests.
type Sessions struct {
	store   RecordStore
	log     LogService
	timeNow func() time.Time
}

var _ AuthEvents = Sessions{}

// UserDidAuthenticate issues a session record for a freshly authenticated
// owner. It generates a random 128-bit session ID, persists the record, and
// writes the ID's string form into the token slot for the host to embed in
// the outgoing cookie.
//
// If the token slot already carries a value the call is a no-op, so a host
// that re-enters its signing-in hook cannot double-issue. A store failure
// aborts issuance and is returned; the host must not emit a cookie in that
// case.
func (s Sessions) UserDidAuthenticate(ctx context.Context, ownerID string, expiresAt time.Time, tokens TokenStore) error {
	if tokens.GetToken(TokenName) != "" {
		return nil
	}

	if ownerID == "" {
		return ErrEmptyOwnerID
	}

	// uuid.New reads crypto/rand, which covers both collision resistance
	// and unguessability.
	sessionID := uuid.New()

	record := SessionRecord{
		OwnerID:   ownerID,
		SessionID: sessionID,
		ExpiresAt: expiresAt.UTC(),
	}

	createErr := s.store.CreateRecord(ctx, record)
	if createErr != nil {
		s.log.WarnError(SessionCreationFailed, createErr, LogFields{"owner_id": ownerID})
		return fmt.Errorf("failed to persist a new session record: %w", createErr)
	}

	tokens.SetToken(TokenName, sessionID.String())

	s.log.Info(SessionCreated, LogFields{"session_hash": hashSessionID(sessionID.String())})

	return nil
}

// UserDidLogout revokes the session named by the token slot. A missing or
// unparseable token means there is nothing to revoke, and a record that is
// already gone counts as revoked; neither is an error. A store failure is
// logged and swallowed, sign-out should not hang on a revocation that cannot
// be persisted.
func (s Sessions) UserDidLogout(ctx context.Context, ownerID string, tokens TokenReader) error {
	value := tokens.GetToken(TokenName)
	if strings.TrimSpace(value) == "" {
		return nil
	}

	sessionID, parseErr := uuid.Parse(value)
	if parseErr != nil {
		return nil
	}

	deleteErr := s.store.DeleteRecord(ctx, ownerID, sessionID)
	if deleteErr != nil {
		if errors.Is(deleteErr, ErrRecordNotFound) {
			return nil
		}
		s.log.WarnError(SessionRevokeFailed, deleteErr, LogFields{"session_hash": hashSessionID(value)})
		return nil
	}

	s.log.Info(SessionDestroyed, LogFields{"session_hash": hashSessionID(value)})

	return nil
}

// ValidatePrincipal checks the token slot against the record store. A nil
// return means the request may proceed as authenticated. Any non-nil return
// means the host must treat the principal as unauthenticated for this
// request and should clear the cookie: ErrNoToken, ErrMalformedToken,
// ErrUnknownSession, and ErrSessionExpired name the expected rejections, and
// a store failure comes back wrapped so that validation fails closed.
//
// Expiry is checked against the stored record, not the cookie's own claims,
// and a record expiring exactly now is already rejected. Acceptance has no
// side effect; there is no sliding-expiration refresh.
func (s Sessions) ValidatePrincipal(ctx context.Context, ownerID string, tokens TokenReader) error {
	value := tokens.GetToken(TokenName)
	if strings.TrimSpace(value) == "" {
		s.log.Info(SessionTokenMissing, LogFields{"owner_id": ownerID})
		return ErrNoToken
	}

	sessionID, parseErr := uuid.Parse(value)
	if parseErr != nil {
		s.log.Info(SessionTokenMissing, LogFields{"owner_id": ownerID})
		return ErrMalformedToken
	}

	record, findErr := s.store.FindRecord(ctx, ownerID, sessionID)
	if findErr != nil {
		if errors.Is(findErr, ErrRecordNotFound) {
			s.log.Info(SessionDoesNotExist, LogFields{"session_hash": hashSessionID(value)})
			return ErrUnknownSession
		}

		// Fail closed: a session that cannot be checked is not accepted.
		s.log.WarnError(SessionUnexpectedError, findErr, LogFields{"session_hash": hashSessionID(value)})
		return fmt.Errorf("failed to check the session record: %w", findErr)
	}

	if !record.ExpiresAt.After(s.timeNow()) {
		s.log.Info(SessionExpiredMessage, LogFields{"session_hash": hashSessionID(value)})
		return ErrSessionExpired
	}

	return nil
}
