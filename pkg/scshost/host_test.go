package scshost

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/trussworks/revoke"
	"github.com/trussworks/revoke/pkg/mock"
)

func getTestHost(t *testing.T, options ...Option) (Host, *scs.SessionManager, *mock.RecordStore) {
	t.Helper()

	store := mock.NewRecordStore()
	sessions, err := revoke.NewSessions(store)
	if err != nil {
		t.Fatal(err)
	}

	sessionManager := scs.New()
	host, err := NewHost(sessionManager, sessions, options...)
	if err != nil {
		t.Fatal(err)
	}

	return host, sessionManager, store
}

func TestUnauthenticatedRequestIsRejected(t *testing.T) {
	var customCalled bool
	var passedErr error
	failureHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		customCalled = true
		passedErr = ErrorFromContext(r.Context())
	})

	protectedHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Println("should never be called, there is no one logged in.")
		t.Fail()
	})

	host, sessionManager, _ := getTestHost(t, CustomErrorHandler(failureHandler))

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/something/protected", nil)
	scsContext, err := sessionManager.LoadNew(r.Context())
	if err != nil {
		t.Fatal(err)
	}
	r = r.WithContext(scsContext)

	wrappedHandler := host.ProtectedMiddleware(protectedHandler)

	wrappedHandler.ServeHTTP(w, r)

	if !customCalled {
		t.Log("Our custom handler wasn't even called.")
		t.Fail()
	}

	if !errors.Is(passedErr, ErrNoPrincipal) {
		t.Log("Didn't get the right error out: ", passedErr)
		t.Fail()
	}
}

func TestSignInThenProtectedRequest(t *testing.T) {
	host, sessionManager, _ := getTestHost(t)

	scsContext, err := sessionManager.LoadNew(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	err = host.SignIn(scsContext, "42", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}

	var owner string
	protectedHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner = OwnerFromContext(r.Context())
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/something/protected", nil)
	r = r.WithContext(scsContext)

	host.ProtectedMiddleware(protectedHandler).ServeHTTP(w, r)

	if owner != "42" {
		t.Fatal("The protected handler should have seen owner 42, got", owner)
	}
}

// TestRevokedRecordLocksOutLiveScsSession is the point of the whole
// arrangement: deleting the record rejects the request even though the scs
// session itself is still perfectly healthy.
func TestRevokedRecordLocksOutLiveScsSession(t *testing.T) {
	var passedErr error
	failureHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		passedErr = ErrorFromContext(r.Context())
	})

	host, sessionManager, store := getTestHost(t, CustomErrorHandler(failureHandler))

	scsContext, err := sessionManager.LoadNew(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	err = host.SignIn(scsContext, "42", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}

	// An admin revokes the session out from under the live scs session.
	tokens := scsTokens{sessionManager, scsContext}
	sessionID := tokens.GetToken(revoke.TokenName)
	if sessionID == "" {
		t.Fatal("sign-in should have stored a session token in the scs session")
	}
	if store.Len() != 1 {
		t.Fatal("sign-in should have created one record")
	}

	revoker, err := revoke.NewSessions(store)
	if err != nil {
		t.Fatal(err)
	}
	if err := revoker.UserDidLogout(context.Background(), "42", revoke.Tokens{revoke.TokenName: sessionID}); err != nil {
		t.Fatal(err)
	}

	protectedHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should never be called, the record is revoked.")
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/something/protected", nil)
	r = r.WithContext(scsContext)

	host.ProtectedMiddleware(protectedHandler).ServeHTTP(w, r)

	if !errors.Is(passedErr, revoke.ErrUnknownSession) {
		t.Fatal("Didn't get the unknown-session rejection:", passedErr)
	}
}

func TestSignOutRevokesAndDestroys(t *testing.T) {
	host, sessionManager, store := getTestHost(t)

	scsContext, err := sessionManager.LoadNew(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	err = host.SignIn(scsContext, "42", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}

	if store.Len() != 1 {
		t.Fatal("sign-in should have created one record")
	}

	err = host.SignOut(scsContext)
	if err != nil {
		t.Fatal(err)
	}

	if store.Len() != 0 {
		t.Fatal("sign-out should have revoked the record, store holds", store.Len())
	}
}

func TestDefaultErrorHandlerAnswers401(t *testing.T) {
	host, sessionManager, _ := getTestHost(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/something/protected", nil)
	scsContext, err := sessionManager.LoadNew(r.Context())
	if err != nil {
		t.Fatal(err)
	}
	r = r.WithContext(scsContext)

	host.ProtectedMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should never be called")
	})).ServeHTTP(w, r)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Fatal("expected 401, got", w.Result().StatusCode)
	}
}

func TestStoreFailureFailsClosed(t *testing.T) {
	var passedErr error
	failureHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		passedErr = ErrorFromContext(r.Context())
	})

	host, sessionManager, store := getTestHost(t, CustomErrorHandler(failureHandler))

	scsContext, err := sessionManager.LoadNew(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	err = host.SignIn(scsContext, "42", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}

	store.FindErr = errors.New("connection refused")

	protectedHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should never be called, the store is down.")
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/something/protected", nil)
	r = r.WithContext(scsContext)

	host.ProtectedMiddleware(protectedHandler).ServeHTTP(w, r)

	if passedErr == nil {
		t.Fatal("the error handler should have received the store failure")
	}
}
