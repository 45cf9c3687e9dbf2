// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package cmdb

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Record is one entry of a table field: a mapping from field name to value.
//
// Numbers decoded from the appliance are kept as json.Number so that key
// comparison and re-encoding never lose precision.
type Record map[string]any

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Has reports whether the record carries a non-nil value for field.
func (r Record) Has(field string) bool {
	v, ok := r[field]
	return ok && v != nil
}

// decodeValue converts a gjson result into plain Go values.
func decodeValue(res gjson.Result) any {
	switch res.Type {
	case gjson.Null:
		return nil
	case gjson.False:
		return false
	case gjson.True:
		return true
	case gjson.Number:
		return json.Number(strings.TrimSpace(res.Raw))
	case gjson.String:
		return res.String()
	}
	if res.IsArray() {
		items := res.Array()
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = decodeValue(item)
		}
		return out
	}
	if res.IsObject() {
		out := Record{}
		res.ForEach(func(key, value gjson.Result) bool {
			out[key.String()] = decodeValue(value)
			return true
		})
		return out
	}
	return nil
}

// decodeRecords reads a table field value. A missing or null field is an empty table.
func decodeRecords(field string, res gjson.Result) ([]Record, error) {
	if !res.Exists() || res.Type == gjson.Null {
		return []Record{}, nil
	}
	if !res.IsArray() {
		return nil, fmt.Errorf("table field %q is not a list", field)
	}
	items := res.Array()
	records := make([]Record, 0, len(items))
	for i, item := range items {
		if !item.IsObject() {
			return nil, fmt.Errorf("table field %q: entry %d is not an object", field, i)
		}
		records = append(records, decodeValue(item).(Record))
	}
	return records, nil
}

// encodeRecords renders the canonical table value. nil encodes as an empty list.
func encodeRecords(records []Record) (string, error) {
	if records == nil {
		records = []Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("failed to encode table value: %w", err)
	}
	return string(data), nil
}

// ParseValue decodes a JSON document into plain Go values: objects become
// Record, arrays []any and numbers json.Number.
func ParseValue(raw string) (any, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || !gjson.Valid(trimmed) {
		return nil, fmt.Errorf("invalid JSON value")
	}
	return decodeValue(gjson.Parse(trimmed)), nil
}

// ParseRecord decodes a JSON object into a Record
func ParseRecord(raw string) (Record, error) {
	v, err := ParseValue(raw)
	if err != nil {
		return nil, err
	}
	rec, ok := v.(Record)
	if !ok {
		return nil, fmt.Errorf("JSON value must be an object")
	}
	return rec, nil
}
