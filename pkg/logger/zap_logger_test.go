package logger

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/trussworks/revoke"
)

func TestZapLoggerInfo(t *testing.T) {
	core, observed := observer.New(zap.InfoLevel)
	log := NewZapLogger(zap.New(core))

	log.Info(revoke.SessionCreated, revoke.LogFields{"session_hash": "abc123"})

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatal("expected one log entry, got", len(entries))
	}

	if entries[0].Message != revoke.SessionCreated {
		t.Fatal("wrong message:", entries[0].Message)
	}

	fields := entries[0].ContextMap()
	if fields["session_hash"] != "abc123" {
		t.Fatal("the session hash field didn't make it through:", fields)
	}
}

func TestZapLoggerWarnError(t *testing.T) {
	core, observed := observer.New(zap.WarnLevel)
	log := NewZapLogger(zap.New(core))

	cause := errors.New("connection refused")
	log.WarnError(revoke.SessionUnexpectedError, cause, revoke.LogFields{"session_hash": "abc123"})

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatal("expected one log entry, got", len(entries))
	}

	fields := entries[0].ContextMap()
	if fields["error"] != "connection refused" {
		t.Fatal("the error field didn't make it through:", fields)
	}
}
