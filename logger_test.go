// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package cmdb

import (
	"bytes"
	"context"
	"log"
	"os"
	"strings"
	"testing"
)

// captureLog redirects the standard logger into a buffer for the test duration
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
	return &buf
}

// TestDefaultLogger_LogLevels verifies log level filtering
func TestDefaultLogger_LogLevels(t *testing.T) {
	tests := []struct {
		name          string
		level         LogLevel
		logFunc       func(*DefaultLogger)
		expectMessage bool
	}{
		{
			name:  "debug level logs debug",
			level: LogLevelDebug,
			logFunc: func(l *DefaultLogger) {
				l.Debug(context.Background(), "test message")
			},
			expectMessage: true,
		},
		{
			name:  "info level filters debug",
			level: LogLevelInfo,
			logFunc: func(l *DefaultLogger) {
				l.Debug(context.Background(), "test message")
			},
			expectMessage: false,
		},
		{
			name:  "warn level filters info",
			level: LogLevelWarn,
			logFunc: func(l *DefaultLogger) {
				l.Info(context.Background(), "test message")
			},
			expectMessage: false,
		},
		{
			name:  "error level logs error",
			level: LogLevelError,
			logFunc: func(l *DefaultLogger) {
				l.Error(context.Background(), "test message")
			},
			expectMessage: true,
		},
		{
			name:  "none level filters all",
			level: LogLevelNone,
			logFunc: func(l *DefaultLogger) {
				l.Error(context.Background(), "test message")
			},
			expectMessage: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLog(t)

			logger := NewDefaultLogger(tt.level)
			tt.logFunc(logger)

			output := buf.String()
			if tt.expectMessage && output == "" {
				t.Errorf("expected log message but got none")
			}
			if !tt.expectMessage && output != "" {
				t.Errorf("expected no log message but got: %s", output)
			}
		})
	}
}

// TestSanitizeLogValue_ControlCharacters tests control character sanitization
func TestSanitizeLogValue_ControlCharacters(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "newline injection",
			input:    "fw01\n[ERROR] Fake attack",
			expected: "fw01 [ERROR] Fake attack",
		},
		{
			name:     "carriage return",
			input:    "test\roverwrite",
			expected: "test overwrite",
		},
		{
			name:     "tab injection",
			input:    "value\tinjected",
			expected: "value injected",
		},
		{
			name:     "ANSI escape sequence",
			input:    "text\x1B[31mred\x1B[0m",
			expected: "text.[31mred.[0m",
		},
		{
			name:     "backspace manipulation",
			input:    "abc\x08\x08\x08def",
			expected: "abc...def",
		},
		{
			name:     "null byte",
			input:    "test\x00null",
			expected: "test.null",
		},
		{
			name:     "form feed",
			input:    "page1\x0Cpage2",
			expected: "page1 page2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := sanitizeLogValue(tt.input); result != tt.expected {
				t.Errorf("sanitizeLogValue() = %q, want %q", result, tt.expected)
			}
		})
	}
}

// TestSanitizeLogValue_UnicodeAttacks tests Unicode attack prevention
func TestSanitizeLogValue_UnicodeAttacks(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "zero-width space", input: "admin\u200Bhidden", expected: "adminhidden"},
		{name: "zero-width joiner", input: "test\u200Dvalue", expected: "testvalue"},
		{name: "byte order mark", input: "test\uFEFFvalue", expected: "testvalue"},
		{name: "right-to-left override", input: "admin\u202Ekcatta", expected: "admin kcatta"},
		{name: "normal unicode", input: "こんにちは世界", expected: "こんにちは世界"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := sanitizeLogValue(tt.input); result != tt.expected {
				t.Errorf("sanitizeLogValue() = %q, want %q", result, tt.expected)
			}
		})
	}
}

// TestSanitizeLogValue_InvalidUTF8 tests invalid UTF-8 handling
func TestSanitizeLogValue_InvalidUTF8(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "invalid byte", input: "test\xffdata", expected: "test.data"},
		{name: "invalid 2-byte sequence", input: "a\xc3\x28b", expected: "a.(b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := sanitizeLogValue(tt.input); result != tt.expected {
				t.Errorf("sanitizeLogValue() = %q, want %q", result, tt.expected)
			}
		})
	}
}

// TestSanitizeLogValue_Truncation tests value truncation
func TestSanitizeLogValue_Truncation(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantTrunc bool
	}{
		{name: "short value", input: "short", wantTrunc: false},
		{name: "exact max length", input: strings.Repeat("a", MaxLogValueLength), wantTrunc: false},
		{name: "exceeds max length", input: strings.Repeat("a", MaxLogValueLength+100), wantTrunc: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := sanitizeLogValue(tt.input)
			truncated := strings.HasSuffix(result, "...[TRUNCATED]")
			if truncated != tt.wantTrunc {
				t.Errorf("truncated = %v, want %v", truncated, tt.wantTrunc)
			}
			if tt.wantTrunc && len(result) != MaxLogValueLength+len("...[TRUNCATED]") {
				t.Errorf("unexpected result length %d", len(result))
			}
		})
	}
}

// TestDefaultLogger_KeyValuePairs tests structured logging with key-value pairs
func TestDefaultLogger_KeyValuePairs(t *testing.T) {
	tests := []struct {
		name            string
		keysAndValues   []any
		expectedPairs   []string
		unexpectedPairs []string
	}{
		{
			name:          "even pairs",
			keysAndValues: []any{"field", "neighbor", "records", 3},
			expectedPairs: []string{"field=neighbor", "records=3"},
		},
		{
			name:          "odd pairs (missing value)",
			keysAndValues: []any{"field", "neighbor", "key"},
			expectedPairs: []string{"field=neighbor", "key=<MISSING>"},
		},
		{
			name:            "control characters in values",
			keysAndValues:   []any{"key", "value\ninjection"},
			expectedPairs:   []string{"key=value injection"},
			unexpectedPairs: []string{"key=value\ninjection"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLog(t)

			logger := NewDefaultLogger(LogLevelDebug)
			logger.Debug(context.Background(), "test", tt.keysAndValues...)

			output := buf.String()
			if !strings.Contains(output, "[DEBUG] test") {
				t.Errorf("expected level prefix in output: %s", output)
			}
			for _, expected := range tt.expectedPairs {
				if !strings.Contains(output, expected) {
					t.Errorf("expected log to contain %q but got: %s", expected, output)
				}
			}
			for _, unexpected := range tt.unexpectedPairs {
				if strings.Contains(output, unexpected) {
					t.Errorf("expected log NOT to contain %q but got: %s", unexpected, output)
				}
			}
		})
	}
}

// TestNoOpLogger verifies that NoOpLogger produces no output
func TestNoOpLogger(t *testing.T) {
	buf := captureLog(t)

	logger := &NoOpLogger{}
	logger.Debug(context.Background(), "test", "key", "value")
	logger.Info(context.Background(), "test")
	logger.Warn(context.Background(), "test")
	logger.Error(context.Background(), "test", "error", "failed")

	if output := buf.String(); output != "" {
		t.Errorf("NoOpLogger produced output: %s", output)
	}
}

// TestLogLevel_String tests LogLevel string representation
func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LogLevelDebug, "DEBUG"},
		{LogLevelInfo, "INFO"},
		{LogLevelWarn, "WARN"},
		{LogLevelError, "ERROR"},
		{LogLevelNone, "NONE"},
		{LogLevel(99), "UNKNOWN(99)"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if result := tt.level.String(); result != tt.expected {
				t.Errorf("String() = %q, want %q", result, tt.expected)
			}
		})
	}
}

// TestParseLogLevel tests parsing of level names
func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    LogLevel
		wantErr bool
	}{
		{input: "debug", want: LogLevelDebug},
		{input: "INFO", want: LogLevelInfo},
		{input: " warn ", want: LogLevelWarn},
		{input: "warning", want: LogLevelWarn},
		{input: "error", want: LogLevelError},
		{input: "none", want: LogLevelNone},
		{input: "verbose", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLogLevel(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// TestPrepareJSONForLogging_Redaction tests redaction of sensitive attributes
func TestPrepareJSONForLogging_Redaction(t *testing.T) {
	client := &Client{logger: &NoOpLogger{}, redactionPattern: defaultRedactionPattern}

	tests := []struct {
		name       string
		input      string
		wantHidden string
		wantKept   string
	}{
		{
			name:       "password",
			input:      `{"name":"admin","password":"secret123"}`,
			wantHidden: "secret123",
			wantKept:   `"name":"admin"`,
		},
		{
			name:       "psksecret with spacing",
			input:      `{"psksecret" : "s3cr3t","interface":"port1"}`,
			wantHidden: "s3cr3t",
			wantKept:   `"interface":"port1"`,
		},
		{
			name:       "nested token",
			input:      `{"results":{"api-key":"abcdef","hostname":"fw01"}}`,
			wantHidden: "abcdef",
			wantKept:   `"hostname":"fw01"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := client.prepareJSONForLogging(tt.input)
			if strings.Contains(result, tt.wantHidden) {
				t.Errorf("expected %q to be redacted, got %s", tt.wantHidden, result)
			}
			if !strings.Contains(result, "[REDACTED]") {
				t.Errorf("expected redaction marker, got %s", result)
			}
			if !strings.Contains(result, tt.wantKept) {
				t.Errorf("expected %s to be kept, got %s", tt.wantKept, result)
			}
		})
	}
}

// TestPrepareJSONForLogging_PrettyPrint tests optional indentation
func TestPrepareJSONForLogging_PrettyPrint(t *testing.T) {
	tests := []struct {
		name          string
		prettyPrint   bool
		input         string
		wantMultiline bool
	}{
		{name: "enabled", prettyPrint: true, input: `{"hostname":"fw01","as":65001}`, wantMultiline: true},
		{name: "disabled", prettyPrint: false, input: `{"hostname":"fw01","as":65001}`, wantMultiline: false},
		{name: "invalid JSON falls back", prettyPrint: true, input: `{invalid json}`, wantMultiline: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &Client{
				logger:           &NoOpLogger{},
				prettyPrintLogs:  tt.prettyPrint,
				redactionPattern: defaultRedactionPattern,
			}
			result := client.prepareJSONForLogging(tt.input)
			if got := strings.Contains(result, "\n"); got != tt.wantMultiline {
				t.Errorf("multiline = %v, want %v (result: %s)", got, tt.wantMultiline, result)
			}
		})
	}
}

// TestPrepareJSONForLogging_Limits tests size and sensitive field limits
func TestPrepareJSONForLogging_Limits(t *testing.T) {
	client := &Client{logger: &NoOpLogger{}, redactionPattern: defaultRedactionPattern}

	large := `{"data":"` + strings.Repeat("x", MaxJSONSizeForLogging) + `"}`
	if got := client.prepareJSONForLogging(large); got != JSONTooLargeMessage {
		t.Errorf("expected %q for oversized JSON, got %d bytes", JSONTooLargeMessage, len(got))
	}

	many := "[" + strings.Repeat(`{"password":"x"},`, MaxSensitiveFields+1) + `{}]`
	if got := client.prepareJSONForLogging(many); got != JSONTooManySensitiveMsg {
		t.Errorf("expected %q for too many sensitive fields, got %s", JSONTooManySensitiveMsg, truncate(got, 80))
	}
}
