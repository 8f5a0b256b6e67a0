// Package revokehttp is a reference host for the revoke policy on plain
// net/http. It plays the part of the host authentication middleware: it
// encodes the verified claims and token slots into a signed,
// encrypted cookie with gorilla/securecookie, drives the three lifecycle
// methods on revoke.Sessions at sign-in, sign-out, and per-request
// validation, and clears the cookie when the policy rejects.
package revokehttp

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"

	"github.com/trussworks/revoke"
)

// AuthCookieName is the name of the cookie that carries the authentication payload.
const AuthCookieName = "revoke-auth"

// Principal is the authenticated identity the middleware stores in the
// request context on acceptance.
type Principal struct {
	OwnerID string
}

// payload is the decoded cookie body: the owner claim plus the token slots.
type payload struct {
	OwnerID string        `json:"owner_id"`
	Expires time.Time     `json:"expires"`
	Tokens  revoke.Tokens `json:"tokens"`
}

// CookieService encodes and decodes the authentication cookie.
type CookieService struct {
	codec  *securecookie.SecureCookie
	secure bool
}

// NewCookieService returns a CookieService. hashKey signs the cookie and
// blockKey encrypts it; generate both with securecookie.GenerateRandomKey
// and persist them across restarts or every cookie dies with the process.
func NewCookieService(hashKey []byte, blockKey []byte, secure bool) CookieService {
	codec := securecookie.New(hashKey, blockKey)
	codec.SetSerializer(securecookie.JSONEncoder{})

	return CookieService{
		codec:  codec,
		secure: secure,
	}
}

func (s CookieService) writeCookie(w http.ResponseWriter, p payload) error {
	encoded, err := s.codec.Encode(AuthCookieName, p)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Secure:   s.secure,
		Name:     AuthCookieName,
		Value:    encoded,
		Expires:  p.Expires,
		HttpOnly: true,
		Path:     "/",
	})

	return nil
}

func (s CookieService) readCookie(r *http.Request) (payload, error) {
	cookie, err := r.Cookie(AuthCookieName)
	if err != nil {
		return payload{}, err
	}

	var p payload
	if err := s.codec.Decode(AuthCookieName, cookie.Value, &p); err != nil {
		return payload{}, err
	}

	if p.Tokens == nil {
		p.Tokens = revoke.Tokens{}
	}

	return p, nil
}

// DeleteAuthCookie removes the authentication cookie
func DeleteAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:   AuthCookieName,
		MaxAge: -1,
		Path:   "/",
	})
}

// SessionMiddleware is the per-request validation point plus the sign-in and
// sign-out entry points a host wires into its handlers.
type SessionMiddleware struct {
	log      revoke.LogService
	sessions revoke.AuthEvents
	cookie   CookieService
}

// NewSessionMiddleware returns a configured SessionMiddleware
func NewSessionMiddleware(log revoke.LogService, sessions revoke.AuthEvents, cookie CookieService) *SessionMiddleware {
	return &SessionMiddleware{
		log,
		sessions,
		cookie,
	}
}

// SignIn issues a session for an owner whose credentials the caller has
// already verified and sets the authentication cookie on the response. No
// cookie is written if issuance fails.
func (service SessionMiddleware) SignIn(w http.ResponseWriter, r *http.Request, ownerID string, expiresAt time.Time) error {
	p := payload{
		OwnerID: ownerID,
		Expires: expiresAt,
		Tokens:  revoke.Tokens{},
	}

	if err := service.sessions.UserDidAuthenticate(r.Context(), ownerID, expiresAt, p.Tokens); err != nil {
		return err
	}

	return service.cookie.writeCookie(w, p)
}

// SignOut revokes the session named by the request's cookie and clears the
// cookie. A request without a decodable cookie still gets the cookie
// cleared; there is just nothing to revoke.
func (service SessionMiddleware) SignOut(w http.ResponseWriter, r *http.Request) error {
	defer DeleteAuthCookie(w)

	p, err := service.cookie.readCookie(r)
	if err != nil {
		return nil
	}

	return service.sessions.UserDidLogout(r.Context(), p.OwnerID, p.Tokens)
}

// Middleware verifies the session on every request before the wrapped
// handler runs. Rejections answer 401 with a structured error body; store
// failures also answer 401 (fail closed) but keep the cookie, since it may
// still be valid once the store recovers.
func (service SessionMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		p, cookieErr := service.cookie.readCookie(r)
		if cookieErr != nil {
			service.log.WarnError(RequestMissingAuthCookie, cookieErr, revoke.LogFields{})
			DeleteAuthCookie(w)
			RespondWithStructuredError(w, RequestMissingAuthCookie, http.StatusUnauthorized)
			return
		}

		validateErr := service.sessions.ValidatePrincipal(r.Context(), p.OwnerID, p.Tokens)
		if validateErr != nil {
			switch validateErr {
			case revoke.ErrNoToken, revoke.ErrMalformedToken, revoke.ErrUnknownSession, revoke.ErrSessionExpired:
				DeleteAuthCookie(w)
				RespondWithStructuredError(w, validateErr.Error(), http.StatusUnauthorized)
			default:
				RespondWithStructuredError(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			}
			return
		}

		newContext := SetPrincipalInRequestContext(r, Principal{OwnerID: p.OwnerID})
		next.ServeHTTP(w, r.WithContext(newContext))
	})
}

// RequestMissingAuthCookie is logged and returned when a request carries no
// decodable authentication cookie.
var RequestMissingAuthCookie = "Unauthorized: Request is missing an authentication cookie"

// -- Context Storage
type authContextKey string

const principalKey authContextKey = "PRINCIPAL"

// SetPrincipalInRequestContext modifies the request's Context() to add the Principal
func SetPrincipalInRequestContext(r *http.Request, principal Principal) context.Context {
	return context.WithValue(r.Context(), principalKey, principal)
}

// PrincipalFromRequestContext gets the Principal stored in the request.Context()
func PrincipalFromRequestContext(r *http.Request) Principal {
	// This will panic if it is not set or if it's not a Principal. That will
	// always be a programmer error so I think that it's worth the tradeoff
	// for the simpler method signature.
	return r.Context().Value(principalKey).(Principal)
}

// RespondWithStructuredError writes an error code and a json error response
func RespondWithStructuredError(w http.ResponseWriter, errorMessage string, code int) {
	errorStruct := newStructuredErrors(newStructuredError(errorMessage))
	// It's a little ugly to not just have json write directly to the the Writer, but I don't see another way
	// to return 500 correctly in the case of an error.
	jsonString, err := json.Marshal(errorStruct)
	if err != nil {
		http.Error(w, "Internal Server Error: failed to encode error json", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	http.Error(w, string(jsonString), code)
}

type structuredError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type structuredErrors struct {
	Errors []structuredError `json:"errors"`
}

func newStructuredError(message string) structuredError {
	return structuredError{
		Message: message,
	}
}

func newStructuredErrors(errors ...structuredError) structuredErrors {
	return structuredErrors{
		Errors: errors,
	}
}
