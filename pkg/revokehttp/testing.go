package revokehttp

// Everything exported in this file is intended to make testing handlers that
// sit behind the session middleware easier.

import (
	"net/http"
	"time"

	"github.com/trussworks/revoke"
)

// AuthenticateTestRequest issues a real session for ownerID and attaches the
// resulting authentication cookie to the request, so a test can exercise a
// protected handler without driving a login request first.
func (service SessionMiddleware) AuthenticateTestRequest(r *http.Request, ownerID string, expiresAt time.Time) error {
	p := payload{
		OwnerID: ownerID,
		Expires: expiresAt,
		Tokens:  revoke.Tokens{},
	}

	if err := service.sessions.UserDidAuthenticate(r.Context(), ownerID, expiresAt, p.Tokens); err != nil {
		return err
	}

	encoded, err := service.cookie.codec.Encode(AuthCookieName, p)
	if err != nil {
		return err
	}

	r.AddCookie(&http.Cookie{
		Name:  AuthCookieName,
		Value: encoded,
		Path:  "/",
	})

	return nil
}
