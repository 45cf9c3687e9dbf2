// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package cmdb

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrNotFound is matched by errors.Is for remote errors with HTTP status 404
var ErrNotFound = errors.New("cmdb: not found")

// ValidationError is returned when caller input cannot be normalized into
// the shape the remote API requires. It is always raised before any network call.
type ValidationError struct {
	// Field is the table field or record field the problem relates to
	Field string

	// Index is the position of the offending record, or -1 if not applicable
	Index int

	// Message describes the problem and, where useful, the expected shape
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("cmdb: invalid %s (record %d): %s", e.Field, e.Index, e.Message)
	}
	return fmt.Sprintf("cmdb: invalid %s: %s", e.Field, e.Message)
}

// MissingKeyError is returned when an operation lacks the key needed to
// identify a record or resource. It is always raised before any network call.
type MissingKeyError struct {
	// Operation name that was rejected
	Operation string

	// Key is the name of the missing key field
	Key string
}

// Error implements the error interface
func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("cmdb: %s requires key field %q", e.Operation, e.Key)
}

// RemoteError represents a failure reported by, or while talking to, the appliance
type RemoteError struct {
	// Operation name that failed
	Operation string

	// Method and Path of the HTTP request
	Method string
	Path   string

	// StatusCode is the HTTP status code, 0 for transport failures
	StatusCode int

	// Human-readable error message
	Message string

	// InternalMsg contains the raw response body or transport error for internal logging
	InternalMsg string

	// RequestID is the X-Request-ID sent with the request
	RequestID string

	// Errors extracted from the response body
	Errors []ErrorModel

	cause error
}

// Error implements the error interface
func (e *RemoteError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("cmdb: %s failed: %s (status: %d)", e.Operation, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("cmdb: %s failed: %s", e.Operation, e.Message)
}

// DetailedError returns the full error message including internal details
//
// This should only be used in secure logging contexts where disclosure of
// the raw response body is acceptable (e.g., debug output).
//
// Example:
//
//	var remoteErr *cmdb.RemoteError
//	if errors.As(err, &remoteErr) {
//	    log.Debug(remoteErr.DetailedError())
//	}
func (e *RemoteError) DetailedError() string {
	var b strings.Builder
	b.WriteString(e.Error())
	if e.Method != "" {
		fmt.Fprintf(&b, " [%s %s]", e.Method, e.Path)
	}
	if e.RequestID != "" {
		fmt.Fprintf(&b, " (request-id: %s)", e.RequestID)
	}
	if e.InternalMsg != "" {
		fmt.Fprintf(&b, " (internal: %s)", e.InternalMsg)
	}
	return b.String()
}

// Is reports whether the error matches target. A 404 RemoteError matches ErrNotFound.
func (e *RemoteError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Unwrap returns the underlying transport error, if any
func (e *RemoteError) Unwrap() error {
	return e.cause
}

// ErrorModel represents one error entry reported by the appliance
type ErrorModel struct {
	// Code is the appliance error code (e.g. -5 for duplicate entry)
	Code int

	// Message is the error message
	Message string

	// Details contains additional error information such as CLI output
	Details string
}
