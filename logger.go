// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package cmdb

import (
	"context"
	"fmt"
	"log"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxLogValueLength limits the length of log values. Longer values are truncated.
const MaxLogValueLength = 1024

// Logger interface for pluggable logging support
//
// Implementations should use structured logging with key-value pairs.
// go-cmdb provides two implementations:
//   - DefaultLogger: wraps Go's standard log package with a level threshold
//   - NoOpLogger: discards everything (default)
//
// Example slog adapter:
//
//	type SlogAdapter struct {
//	    logger *slog.Logger
//	}
//
//	func (s *SlogAdapter) Debug(ctx context.Context, msg string, keysAndValues ...any) {
//	    s.logger.DebugContext(ctx, msg, keysAndValues...)
//	}
//	// ... Info, Warn, Error
//
//	client, _ := cmdb.NewClient("https://192.168.1.99",
//	    cmdb.Token("secret"),
//	    cmdb.WithLogger(&SlogAdapter{logger: slog.Default()}))
type Logger interface {
	Debug(ctx context.Context, msg string, keysAndValues ...any)
	Info(ctx context.Context, msg string, keysAndValues ...any)
	Warn(ctx context.Context, msg string, keysAndValues ...any)
	Error(ctx context.Context, msg string, keysAndValues ...any)
}

// LogLevel represents the severity threshold for logging
type LogLevel int

const (
	// LogLevelDebug enables all log levels
	LogLevelDebug LogLevel = iota

	// LogLevelInfo enables Info, Warn, and Error logs
	LogLevelInfo

	// LogLevelWarn enables Warn and Error logs
	LogLevelWarn

	// LogLevelError enables only Error logs
	LogLevelError

	// LogLevelNone disables all logging
	LogLevelNone
)

var logLevelNames = map[LogLevel]string{
	LogLevelDebug: "DEBUG",
	LogLevelInfo:  "INFO",
	LogLevelWarn:  "WARN",
	LogLevelError: "ERROR",
	LogLevelNone:  "NONE",
}

// String returns the string representation of a LogLevel
func (l LogLevel) String() string {
	if name, ok := logLevelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", l)
}

// ParseLogLevel converts a case-insensitive level name into a LogLevel
func ParseLogLevel(name string) (LogLevel, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for level, levelName := range logLevelNames {
		if levelName == upper {
			return level, nil
		}
	}
	if upper == "WARNING" {
		return LogLevelWarn, nil
	}
	return LogLevelNone, fmt.Errorf("invalid log level: %q (valid values: debug, info, warn, error, none)", name)
}

// DefaultLogger writes to the standard log package
//
// Output format: [LEVEL] message key1=value1 key2=value2
type DefaultLogger struct {
	level LogLevel
}

// NewDefaultLogger creates a DefaultLogger with the specified log level
func NewDefaultLogger(level LogLevel) *DefaultLogger {
	return &DefaultLogger{level: level}
}

// Debug logs a debug message with structured key-value pairs
func (l *DefaultLogger) Debug(_ context.Context, msg string, keysAndValues ...any) {
	l.log(LogLevelDebug, msg, keysAndValues)
}

// Info logs an informational message with structured key-value pairs
func (l *DefaultLogger) Info(_ context.Context, msg string, keysAndValues ...any) {
	l.log(LogLevelInfo, msg, keysAndValues)
}

// Warn logs a warning message with structured key-value pairs
func (l *DefaultLogger) Warn(_ context.Context, msg string, keysAndValues ...any) {
	l.log(LogLevelWarn, msg, keysAndValues)
}

// Error logs an error message with structured key-value pairs
func (l *DefaultLogger) Error(_ context.Context, msg string, keysAndValues ...any) {
	l.log(LogLevelError, msg, keysAndValues)
}

func (l *DefaultLogger) log(level LogLevel, msg string, keysAndValues []any) {
	if level < l.level || l.level == LogLevelNone {
		return
	}

	var builder strings.Builder
	builder.Grow(len(msg) + 16 + len(keysAndValues)*24)
	builder.WriteString("[")
	builder.WriteString(level.String())
	builder.WriteString("] ")
	builder.WriteString(msg)

	for i := 0; i < len(keysAndValues); i += 2 {
		builder.WriteString(" ")
		builder.WriteString(sanitizeLogValue(keysAndValues[i]))
		builder.WriteString("=")
		if i+1 < len(keysAndValues) {
			builder.WriteString(sanitizeLogValue(keysAndValues[i+1]))
		} else {
			builder.WriteString("<MISSING>")
		}
	}

	log.Println(builder.String())
}

// sanitizeLogValue renders a log value on a single line.
//
// Newlines, tabs and form feeds become spaces, other control characters
// (including ESC of ANSI sequences) become dots, zero-width characters are
// dropped, RTL override becomes a space and invalid UTF-8 becomes a dot.
// Values longer than MaxLogValueLength are truncated.
func sanitizeLogValue(val any) string {
	str := fmt.Sprintf("%v", val)
	if len(str) > MaxLogValueLength {
		str = str[:MaxLogValueLength] + "...[TRUNCATED]"
	}

	var builder strings.Builder
	builder.Grow(len(str))

	for len(str) > 0 {
		r, size := utf8.DecodeRuneInString(str)
		if size == 0 {
			size = 1
		}
		str = str[size:]

		switch {
		case r == utf8.RuneError && size == 1:
			builder.WriteRune('.')
		case r == '\n', r == '\r', r == '\t', r == '\f':
			builder.WriteRune(' ')
		case r == 0x200B, r == 0x200C, r == 0x200D, r == 0xFEFF:
		case r == 0x202E:
			builder.WriteRune(' ')
		case r < 0x80 && unicode.IsControl(r):
			builder.WriteRune('.')
		default:
			builder.WriteRune(r)
		}
	}

	return builder.String()
}

// NoOpLogger discards all log messages. It is the default logger.
type NoOpLogger struct{}

// Debug discards the log message
func (n *NoOpLogger) Debug(_ context.Context, _ string, _ ...any) {}

// Info discards the log message
func (n *NoOpLogger) Info(_ context.Context, _ string, _ ...any) {}

// Warn discards the log message
func (n *NoOpLogger) Warn(_ context.Context, _ string, _ ...any) {}

// Error discards the log message
func (n *NoOpLogger) Error(_ context.Context, _ string, _ ...any) {}
