package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/trussworks/revoke"
	"github.com/trussworks/revoke/pkg/dbstore"
	"github.com/trussworks/revoke/pkg/revokehttp"
)

// This is a server for testing the basic auth flow.

//  /login -- redirect to protected
// /logout -- redirect to /
// /protected -- logout button
// / -- login button and protected button

func dbURLFromEnv() string {
	host := os.Getenv("DATABASE_HOST")
	port := os.Getenv("DATABASE_PORT")
	name := os.Getenv("DATABASE_NAME")
	user := os.Getenv("DATABASE_USER")
	sslmode := os.Getenv("DATABASE_SSL_MODE")

	connStr := fmt.Sprintf("postgres://%s@%s:%s/%s?sslmode=%s", user, host, port, name, sslmode)
	return connStr
}

type testServer struct {
	middleware *revokehttp.SessionMiddleware
}

func (s testServer) homepage(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, `
	<html>
	<head>
	<title>frontpage</title>
	</head>
	<body>
	<h1>Front Page</h1>
	<p><a href="/login">Login</a></p>
	<p><a href="/protected">Protected</a></p>
	</body>
	</html>
	`)
}

func (s testServer) login(w http.ResponseWriter, r *http.Request) {
	fmt.Println("Logging in user: 1")

	err := s.middleware.SignIn(w, r, "1", time.Now().Add(time.Hour))
	if err != nil {
		fmt.Println("Error creating session: ", err)
		http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
		return
	}

	http.Redirect(w, r, "/protected", http.StatusTemporaryRedirect)
}

func (s testServer) protected(w http.ResponseWriter, r *http.Request) {
	principal := revokehttp.PrincipalFromRequestContext(r)

	fmt.Fprintf(w, `
	<html>
	<head>
	<title>protected</title>
	</head>
	<body>
	<h1>Protected Page</h1>
	<p>Hello owner: %s!</p>
	<p><a href="/logout">Logout</a></p>
	</body>
	</html>
	`, principal.OwnerID)
}

func (s testServer) logout(w http.ResponseWriter, r *http.Request) {
	fmt.Println("Logging out user 1")

	err := s.middleware.SignOut(w, r)
	if err != nil {
		fmt.Println("Error logging out user: ", err)
	}

	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

func main() {
	_ = godotenv.Load()

	connStr := dbURLFromEnv()
	dbConnection, err := sqlx.Open("postgres", connStr)
	if err != nil {
		fmt.Println("error connecting to database using sqlx.Open:", err)
		os.Exit(1)
	}

	store := dbstore.NewDBStore(dbConnection)
	defer store.Close()

	sessions, err := revoke.NewSessions(store)
	if err != nil {
		fmt.Println("error configuring sessions:", err)
		os.Exit(1)
	}

	// Throwaway keys: every cookie dies with the process, which is what you
	// want for a test server and nothing else.
	cookie := revokehttp.NewCookieService(
		securecookie.GenerateRandomKey(64),
		securecookie.GenerateRandomKey(32),
		false,
	)

	middleware := revokehttp.NewSessionMiddleware(revoke.FmtLogger(true), sessions, cookie)

	server := testServer{middleware}

	http.HandleFunc("/", server.homepage)
	http.HandleFunc("/login", server.login)
	http.Handle("/logout", middleware.Middleware(http.HandlerFunc(server.logout)))
	http.Handle("/protected", middleware.Middleware(http.HandlerFunc(server.protected)))
	http.ListenAndServe(":8088", nil)
}
