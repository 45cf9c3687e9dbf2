// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package cmdb

import (
	"fmt"
	"reflect"
	"strings"
)

// NormalizeTable converts a caller-supplied table value into the canonical
// list of records the appliance expects.
//
// Accepted shapes:
//   - nil: returns nil; the caller leaves the field untouched
//   - a bare scalar v: [{key: v}]
//   - a slice of scalars: one record per element, order preserved
//   - a slice of mappings: copied in order, each checked for all required fields
//   - a single mapping: treated as a one-element slice
//
// A scalar cannot populate more than one required field, so scalar input is
// rejected with a *ValidationError when more than one field is required.
//
// Example:
//
//	recs, _ := cmdb.NormalizeTable([]string{"port1", "port2"}, "name", []string{"name"})
//	// [{"name":"port1"} {"name":"port2"}]
func NormalizeTable(value any, key string, required []string) ([]Record, error) {
	if value == nil {
		return nil, nil
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil, nil
		}
		if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
			// []byte is a scalar, not a list of numbers
			return normalizeScalars(key, required, []any{string(rv.Bytes())})
		}
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return normalizeItems(key, required, items)
	case reflect.Map:
		if rv.IsNil() {
			return nil, nil
		}
		return normalizeItems(key, required, []any{value})
	default:
		return normalizeScalars(key, required, []any{value})
	}
}

func normalizeItems(key string, required []string, items []any) ([]Record, error) {
	if len(items) == 0 {
		return []Record{}, nil
	}

	records := make([]Record, 0, len(items))
	scalars := 0
	for i, item := range items {
		rec, ok := toRecord(item)
		if !ok {
			if item == nil {
				return nil, &ValidationError{Field: key, Index: i, Message: "table entries cannot be null"}
			}
			scalars++
			continue
		}
		if missing := missingFields(rec, required); len(missing) > 0 {
			return nil, &ValidationError{
				Field: strings.Join(missing, ", "),
				Index: i,
				Message: fmt.Sprintf("missing required field(s) %s; expected entries shaped like %s",
					strings.Join(missing, ", "), exampleShape(key, required)),
			}
		}
		records = append(records, rec)
	}

	switch scalars {
	case 0:
		return records, nil
	case len(items):
		return normalizeScalars(key, required, items)
	default:
		return nil, &ValidationError{
			Field:   key,
			Index:   -1,
			Message: "cannot mix scalar values and records in one table value",
		}
	}
}

func normalizeScalars(key string, required []string, values []any) ([]Record, error) {
	if len(required) > 1 {
		return nil, &ValidationError{
			Field: key,
			Index: -1,
			Message: fmt.Sprintf("a scalar cannot populate required fields %s; supply records shaped like %s",
				strings.Join(required, ", "), exampleShape(key, required)),
		}
	}
	records := make([]Record, len(values))
	for i, v := range values {
		records[i] = Record{key: v}
	}
	return records, nil
}

// toRecord converts any string-keyed map into a shallow Record copy.
func toRecord(v any) (Record, bool) {
	switch m := v.(type) {
	case Record:
		return m.Clone(), true
	case map[string]any:
		return Record(m).Clone(), true
	}
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(Record, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

func missingFields(rec Record, required []string) []string {
	var missing []string
	for _, name := range required {
		if _, ok := rec[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

func exampleShape(key string, required []string) string {
	fields := required
	if len(fields) == 0 {
		fields = []string{key}
	}
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = fmt.Sprintf("%q: <value>", f)
	}
	return "[{" + strings.Join(parts, ", ") + "}]"
}
