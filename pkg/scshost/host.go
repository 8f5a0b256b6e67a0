// Package scshost hosts the revoke policy on top of an scs.SessionManager.
// Unlike pkg/revokehttp, which round-trips the token slots through the cookie
// payload itself, this host keeps the owner claim and the token slots in scs
// session data; the browser cookie is just the scs token. The revocation
// record store stays the source of truth either way: destroying the record
// locks the session out on the next request even while the scs session is
// still alive.
package scshost

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/trussworks/revoke"
)

// ErrNoPrincipal is handed to the error handler when no owner is signed in
// on the session.
var ErrNoPrincipal = errors.New("no authenticated principal is attached to this session")

// You should always make a custom type for context keys
type hostContextKey string

const (
	// ownerContextKey is the key for storing the owner ID in the context
	ownerContextKey hostContextKey = "owner-context-key"

	// errorHandleKey is the context key for the error that the error handler can fetch
	errorHandleKey hostContextKey = "error-handle-key"
)

const (
	// ownerIDKey is the scs session key tracking which owner is signed in
	ownerIDKey = "revoke-owner-id"
	// tokenKeyPrefix namespaces the revoke token slots inside the scs session data
	tokenKeyPrefix = "revoke-token-"
)

// scsTokens adapts scs session data to the revoke token slot contracts.
type scsTokens struct {
	scs *scs.SessionManager
	ctx context.Context
}

func (t scsTokens) GetToken(name string) string {
	return t.scs.GetString(t.ctx, tokenKeyPrefix+name)
}

func (t scsTokens) SetToken(name string, value string) {
	t.scs.Put(t.ctx, tokenKeyPrefix+name, value)
}

// Host wires the three lifecycle methods into scs-managed browser sessions.
type Host struct {
	scs          *scs.SessionManager
	sessions     revoke.AuthEvents
	errorHandler http.Handler
}

// NewHost returns a configured Host
func NewHost(manager *scs.SessionManager, sessions revoke.AuthEvents, options ...Option) (Host, error) {
	host := Host{
		manager,
		sessions,
		newDefaultErrorHandler(),
	}

	for _, option := range options {
		err := option(&host)
		if err != nil {
			return Host{}, err
		}
	}

	return host, nil
}

type Option func(*Host) error

// CustomErrorHandler replaces the default rejection handler. The handler can
// fetch the rejection cause with ErrorFromContext.
func CustomErrorHandler(errorHandler http.Handler) Option {
	return func(host *Host) error {
		host.errorHandler = errorHandler
		return nil
	}
}

// SignIn issues a session record for an owner whose credentials the caller
// has already verified, binding it to this scs session.
func (h Host) SignIn(ctx context.Context, ownerID string, expiresAt time.Time) error {
	// Renew the session token to prevent session fixation attacks on auth change
	err := h.scs.RenewToken(ctx)
	if err != nil {
		return fmt.Errorf("Failed to renew the scs token for login: %w", err)
	}

	h.scs.Put(ctx, ownerIDKey, ownerID)

	err = h.sessions.UserDidAuthenticate(ctx, ownerID, expiresAt, scsTokens{h.scs, ctx})
	if err != nil {
		return fmt.Errorf("Failed to issue a session record for login: %w", err)
	}

	return nil
}

// SignOut revokes the session record and destroys the scs session.
func (h Host) SignOut(ctx context.Context) error {
	ownerID := h.scs.GetString(ctx, ownerIDKey)

	err := h.sessions.UserDidLogout(ctx, ownerID, scsTokens{h.scs, ctx})
	if err != nil {
		return fmt.Errorf("Failed to revoke the session record for logout: %w", err)
	}

	err = h.scs.Destroy(ctx)
	if err != nil {
		return fmt.Errorf("Failed to destroy the scs session: %w", err)
	}

	return nil
}

func reqWithValue(r *http.Request, key interface{}, value interface{}) *http.Request {
	newCtx := context.WithValue(r.Context(), key, value)
	return r.WithContext(newCtx)
}

// ProtectedMiddleware verifies the session record on every request before
// the wrapped handler runs. On acceptance the owner ID is stored in the
// context, retrievable with OwnerFromContext. On rejection the error handler
// runs instead and no further handlers are called.
func (h Host) ProtectedMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ownerID := h.scs.GetString(r.Context(), ownerIDKey)
		if ownerID == "" {
			// ownerID is set by SignIn, it being unset means no one is signed in here.
			errReq := reqWithValue(r, errorHandleKey, ErrNoPrincipal)
			h.errorHandler.ServeHTTP(w, errReq)
			return
		}

		err := h.sessions.ValidatePrincipal(r.Context(), ownerID, scsTokens{h.scs, r.Context()})
		if err != nil {
			errReq := reqWithValue(r, errorHandleKey, err)
			h.errorHandler.ServeHTTP(w, errReq)
			return
		}

		ownerReq := reqWithValue(r, ownerContextKey, ownerID)

		next.ServeHTTP(w, ownerReq)
	})
}

// OwnerFromContext returns the owner ID that the protected middleware stored
// in the context.
func OwnerFromContext(ctx context.Context) string {
	return ctx.Value(ownerContextKey).(string)
}

// ErrorFromContext returns the error that caused the error handler to be
// called by the protected middleware. It will either be ErrNoPrincipal, one
// of the revoke rejection errors, or a wrapped store failure. If this
// function is called outside of an error handler it will likely panic
// because no error has been set.
func ErrorFromContext(ctx context.Context) error {
	return ctx.Value(errorHandleKey).(error)
}
