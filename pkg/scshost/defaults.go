package scshost

import (
	"fmt"
	"net/http"
)

// defaultErrorHandler is the error handler used if no optional one is provided.
// Every rejection answers 401; an unexpected store failure is not a reason to
// let a request through (fail closed).
type defaultErrorHandler int

func (h defaultErrorHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	err := ErrorFromContext(r.Context())

	fmt.Println("Rejected request:", err)
	http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
}

func newDefaultErrorHandler() defaultErrorHandler {
	return 0
}
