// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package cmdb

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Body is an immutable JSON object representation of a resource.
//
// Body is both the payload builder for writes and the representation handed
// to Parent.Write by table operations: fields are read with gjson and
// rewritten with sjson, so every field not explicitly touched round-trips
// byte for byte.
//
// Builder methods record the first error and turn every later call into a
// no-op, so chains can be checked once at the end:
//
//	body := cmdb.Body{}.
//	    Set("as", 65001).
//	    Set("router-id", "10.0.0.1")
//	payload, err := body.String()
type Body struct {
	str string
	err error
}

// ParseBody wraps an existing JSON object. An empty string yields an empty object.
func ParseBody(raw string) (Body, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Body{str: "{}"}, nil
	}
	if !gjson.Valid(trimmed) {
		return Body{}, fmt.Errorf("invalid JSON document")
	}
	if !gjson.Parse(trimmed).IsObject() {
		return Body{}, fmt.Errorf("JSON document must be an object")
	}
	return Body{str: trimmed}, nil
}

// Set sets a value at the specified path and returns a new Body.
//
// The path uses gjson/sjson dot notation; use EscapePath for field names
// that contain path metacharacters.
func (b Body) Set(path string, value any) Body {
	if b.err != nil {
		return b
	}
	result, err := sjson.Set(b.str, path, value)
	if err != nil {
		return Body{str: b.str, err: fmt.Errorf("Set(%q): %w", path, err)}
	}
	return Body{str: result}
}

// SetRaw sets pre-encoded JSON at the specified path and returns a new Body.
func (b Body) SetRaw(path, raw string) Body {
	if b.err != nil {
		return b
	}
	if !gjson.Valid(raw) {
		return Body{str: b.str, err: fmt.Errorf("SetRaw(%q): invalid JSON value", path)}
	}
	result, err := sjson.SetRaw(b.str, path, raw)
	if err != nil {
		return Body{str: b.str, err: fmt.Errorf("SetRaw(%q): %w", path, err)}
	}
	return Body{str: result}
}

// Delete removes the value at the specified path and returns a new Body.
func (b Body) Delete(path string) Body {
	if b.err != nil {
		return b
	}
	result, err := sjson.Delete(b.str, path)
	if err != nil {
		return Body{str: b.str, err: fmt.Errorf("Delete(%q): %w", path, err)}
	}
	return Body{str: result}
}

// Get returns the value at path. A Body in error state yields an empty result.
func (b Body) Get(path string) gjson.Result {
	if b.err != nil {
		return gjson.Result{}
	}
	return gjson.Get(b.str, path)
}

// String returns the JSON document and any error encountered while building.
func (b Body) String() (string, error) {
	if b.str == "" && b.err == nil {
		return "{}", nil
	}
	return b.str, b.err
}

// Err returns any error that occurred during building.
func (b Body) Err() error {
	return b.err
}

// Bytes returns the JSON document as bytes.
func (b Body) Bytes() ([]byte, error) {
	s, err := b.String()
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

// EscapePath escapes gjson/sjson path metacharacters in a single field name
// so that it addresses exactly one top-level key.
func EscapePath(field string) string {
	if !strings.ContainsAny(field, `.*?|#@\!=<>%`) {
		return field
	}
	var b strings.Builder
	b.Grow(len(field) + 4)
	for _, r := range field {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\', '!', '=', '<', '>', '%':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
