// Package logger provides ready-made implementations of revoke.LogService.
package logger

import (
	"fmt"

	"github.com/trussworks/revoke"
)

// PrintLogger is a LogService that prints with fmt, for development setups.
type PrintLogger int

func NewPrintLogger() PrintLogger {
	return 0
}

func (l PrintLogger) Info(message string, fields revoke.LogFields) {
	fmt.Println("REVOKE: "+message, fields)
}

func (l PrintLogger) WarnError(message string, err error, fields revoke.LogFields) {
	fmt.Println("REVOKE WARN: "+message, err, fields)
}
