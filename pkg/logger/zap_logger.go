package logger

import (
	"go.uber.org/zap"

	"github.com/trussworks/revoke"
)

// ZapLogger adapts a zap.Logger to the revoke.LogService contract.
type ZapLogger struct {
	z *zap.Logger
}

func NewZapLogger(z *zap.Logger) ZapLogger {
	return ZapLogger{
		z,
	}
}

func (l ZapLogger) Info(message string, fields revoke.LogFields) {
	l.z.Info(message, zapFields(fields)...)
}

func (l ZapLogger) WarnError(message string, err error, fields revoke.LogFields) {
	l.z.Warn(message, append(zapFields(fields), zap.Error(err))...)
}

func zapFields(fields revoke.LogFields) []zap.Field {
	converted := make([]zap.Field, 0, len(fields))
	for key, value := range fields {
		converted = append(converted, zap.String(key, value))
	}
	return converted
}
