// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package cmdb

import (
	"context"
	"fmt"
	"sync"
)

// Parent is the accessor for the resource that holds a table field.
//
// Fetch returns the full current representation; Write replaces it. The
// HTTP implementation is Singleton.
type Parent interface {
	Fetch(ctx context.Context) (Body, error)
	Write(ctx context.Context, body Body) (Res, error)
}

// Table manipulates one table field of a parent resource one record at a
// time, although the appliance only supports whole-object replacement.
//
// Every mutating operation is exactly one Fetch followed by one Write of the
// full parent representation with only the table field rewritten. Records
// not touched keep their relative order.
//
// Without a lock, concurrent writers to the same parent can lose updates:
// the last Write wins. Use TableLock (or the client's SerializeWrites option)
// to serialize writers sharing a parent.
type Table struct {
	parent Parent

	// Field is the name of the table field on the parent
	Field string

	// Key is the record field that identifies an entry
	Key string

	// RequiredFields must be present on every record written by Set
	RequiredFields []string

	logger Logger
	lock   sync.Locker
}

// NewTable binds a Table to a parent accessor, a table field and its key field.
//
// Example:
//
//	neighbors := cmdb.NewTable(client.Singleton("router/bgp"), "neighbor", "ip",
//	    cmdb.Required("ip", "remote-as"))
//	res, err := neighbors.Upsert(ctx, cmdb.Record{"ip": "10.0.0.2", "remote-as": 65002})
func NewTable(parent Parent, field, key string, opts ...func(*Table)) *Table {
	t := &Table{
		parent: parent,
		Field:  field,
		Key:    key,
		logger: &NoOpLogger{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Required sets the fields every record must carry
func Required(fields ...string) func(*Table) {
	return func(t *Table) {
		t.RequiredFields = append([]string(nil), fields...)
	}
}

// TableLogger sets the logger used by table operations
func TableLogger(logger Logger) func(*Table) {
	return func(t *Table) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// TableLock serializes read-modify-write cycles on this table through l
func TableLock(l sync.Locker) func(*Table) {
	return func(t *Table) {
		t.lock = l
	}
}

// List returns the records of the table field, or an empty slice if the
// field is absent. It never writes.
func (t *Table) List(ctx context.Context) ([]Record, error) {
	_, records, err := t.fetch(ctx)
	return records, err
}

// Get returns the first record whose key matches. Absence is reported with
// ok == false, not as an error.
func (t *Table) Get(ctx context.Context, key any) (Record, bool, error) {
	if key == nil {
		return nil, false, &MissingKeyError{Operation: "get", Key: t.Key}
	}
	records, err := t.List(ctx)
	if err != nil {
		return nil, false, err
	}
	if i := indexOf(records, t.Key, key); i >= 0 {
		return records[i], true, nil
	}
	return nil, false, nil
}

// Exists reports whether a record with the given key is present
func (t *Table) Exists(ctx context.Context, key any) (bool, error) {
	if key == nil {
		return false, &MissingKeyError{Operation: "exists", Key: t.Key}
	}
	_, ok, err := t.Get(ctx, key)
	return ok, err
}

// Upsert merges fields into the record with the same key, or appends fields
// as a new record when no record matches.
//
// The merge is shallow: fields present in the argument overwrite same-named
// fields, all other fields of the existing record are kept, and the record
// keeps its position. The first matching record wins.
func (t *Table) Upsert(ctx context.Context, fields Record) (Res, error) {
	if !fields.Has(t.Key) {
		return Res{}, &MissingKeyError{Operation: "upsert", Key: t.Key}
	}
	key := fields[t.Key]

	return t.modify(ctx, "upsert", func(records []Record) ([]Record, error) {
		if i := indexOf(records, t.Key, key); i >= 0 {
			merged := records[i].Clone()
			for k, v := range fields {
				merged[k] = v
			}
			records[i] = merged
			t.logger.Debug(ctx, "Table record updated",
				"field", t.Field,
				"key", key,
				"position", i)
			return records, nil
		}

		t.logger.Debug(ctx, "Table record appended",
			"field", t.Field,
			"key", key,
			"position", len(records))
		return append(records, fields.Clone()), nil
	})
}

// Delete removes every record whose key matches. Deleting an absent key is
// not an error: the unchanged table is written back.
func (t *Table) Delete(ctx context.Context, key any) (Res, error) {
	if key == nil {
		return Res{}, &MissingKeyError{Operation: "delete", Key: t.Key}
	}

	return t.modify(ctx, "delete", func(records []Record) ([]Record, error) {
		kept := make([]Record, 0, len(records))
		for _, rec := range records {
			if !KeyMatches(rec[t.Key], key) {
				kept = append(kept, rec)
			}
		}
		t.logger.Debug(ctx, "Table records removed",
			"field", t.Field,
			"key", key,
			"removed", len(records)-len(kept))
		return kept, nil
	})
}

// Replace writes records verbatim as the new table value. The parent is
// fetched only to carry its other fields through unchanged.
func (t *Table) Replace(ctx context.Context, records []Record) (Res, error) {
	return t.modify(ctx, "replace", func([]Record) ([]Record, error) {
		return records, nil
	})
}

// Set normalizes a flexible table value (see NormalizeTable) and replaces
// the table with it. A nil value leaves the table untouched and makes no calls.
func (t *Table) Set(ctx context.Context, value any) (Res, error) {
	records, err := NormalizeTable(value, t.Key, t.RequiredFields)
	if err != nil {
		return Res{}, err
	}
	if records == nil {
		return Res{}, nil
	}
	return t.Replace(ctx, records)
}

func (t *Table) fetch(ctx context.Context) (Body, []Record, error) {
	body, err := t.parent.Fetch(ctx)
	if err != nil {
		return Body{}, nil, fmt.Errorf("fetch %s: %w", t.Field, err)
	}
	records, err := decodeRecords(t.Field, body.Get(EscapePath(t.Field)))
	if err != nil {
		return Body{}, nil, err
	}
	return body, records, nil
}

// modify runs one fetch, applies fn to the records and writes the parent back.
func (t *Table) modify(ctx context.Context, op string, fn func([]Record) ([]Record, error)) (Res, error) {
	if t.lock != nil {
		t.lock.Lock()
		defer t.lock.Unlock()
	}

	body, records, err := t.fetch(ctx)
	if err != nil {
		return Res{}, err
	}

	updated, err := fn(records)
	if err != nil {
		return Res{}, err
	}

	raw, err := encodeRecords(updated)
	if err != nil {
		return Res{}, err
	}
	body = body.SetRaw(EscapePath(t.Field), raw)
	if err := body.Err(); err != nil {
		return Res{}, fmt.Errorf("%s %s: %w", op, t.Field, err)
	}

	t.logger.Debug(ctx, "Writing table",
		"operation", op,
		"field", t.Field,
		"records", len(updated))

	res, err := t.parent.Write(ctx, body)
	if err != nil {
		return res, fmt.Errorf("%s %s: %w", op, t.Field, err)
	}
	return res, nil
}
