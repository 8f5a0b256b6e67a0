package revoke

import (
	"crypto/sha512"
	"encoding/hex"
	"fmt"
)

// LogFields carries structured metadata for a log line.
type LogFields map[string]string

// LogService is the interface used for logging all session lifecycle events.
// Supply your own with CustomLogger().
type LogService interface {
	Info(message string, fields LogFields)
	WarnError(message string, err error, fields LogFields)
}

// Log messages for the logger
var (
	SessionCreated   = "New Session Record Created"
	SessionDestroyed = "Session Record Revoked"

	SessionTokenMissing    = "Auth failed because the context carries no session token"
	SessionDoesNotExist    = "Auth failed because of an unknown or revoked session"
	SessionExpiredMessage  = "Auth failed because of an expired session"
	SessionUnexpectedError = "An unexpected error occurred while checking the session"
	SessionCreationFailed  = "An unexpected error occurred creating a session record"
	SessionRevokeFailed    = "Failed to remove a session record during logout"
)

// FmtLogger is a basic LogService that prints with fmt
type FmtLogger bool

func (l FmtLogger) Info(message string, fields LogFields) {
	fmt.Printf("INFO: %s %v\n", message, fields)
}

func (l FmtLogger) WarnError(message string, err error, fields LogFields) {
	fmt.Printf("WARN: %s %v %v\n", message, err, fields)
}

// hashSessionID makes a session identifier safe to log. Raw identifiers must
// never reach a log line, a leaked log would otherwise hand out valid cookies.
func hashSessionID(sessionID string) string {
	hashed := sha512.Sum512([]byte(sessionID))
	hexEncoded := hex.EncodeToString(hashed[:])
	return hexEncoded[:12]
}
