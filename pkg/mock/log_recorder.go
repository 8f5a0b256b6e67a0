package mock

import (
	"fmt"

	"github.com/trussworks/revoke"
)

// LogLine is a recorded log line
type LogLine struct {
	Level   string
	Message string
	Fields  revoke.LogFields
}

// LogRecorder is a LogService that records every line it forwards, so tests
// can assert on what was logged.
type LogRecorder struct {
	revoke.LogService
	lines []LogLine
}

func NewLogRecorder(service revoke.LogService) LogRecorder {
	return LogRecorder{
		LogService: service,
	}
}

// RecordLine records and returns a new LogLine with its level, message, and fields.
func (r *LogRecorder) RecordLine(level string, message string, fields revoke.LogFields) LogLine {
	newLine := LogLine{
		Level:   level,
		Message: message,
		Fields:  revoke.LogFields{},
	}

	for k, v := range fields {
		newLine.Fields[k] = v
	}

	r.lines = append(r.lines, newLine)

	return newLine
}

// Info records a new LogLine as INFO level
func (r *LogRecorder) Info(message string, fields revoke.LogFields) {
	line := r.RecordLine("INFO", message, fields)
	r.LogService.Info(line.Message, line.Fields)
}

// WarnError records a new LogLine as WARN level
func (r *LogRecorder) WarnError(message string, err error, fields revoke.LogFields) {
	line := r.RecordLine("WARN", message, fields)
	r.LogService.WarnError(line.Message, err, line.Fields)
}

// GetOnlyMatchingMessage returns the single LogLine that matches message, or errors
func (r *LogRecorder) GetOnlyMatchingMessage(message string) (LogLine, error) {
	messages := r.MatchingMessages(message)
	if len(messages) != 1 {
		return LogLine{}, fmt.Errorf("Didn't find only one line for message: %s (%v) ", message, messages)
	}
	return messages[0], nil
}

// MatchingMessages returns every recorded LogLine whose message matches
func (r *LogRecorder) MatchingMessages(message string) []LogLine {
	matches := []LogLine{}
	for _, line := range r.lines {
		if line.Message == message {
			matches = append(matches, line)
		}
	}
	return matches
}
