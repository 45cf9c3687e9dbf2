// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package cmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Singleton is the HTTP accessor for a resource with exactly one instance,
// such as "router/bgp". It implements Parent.
type Singleton struct {
	client *Client

	// Path is the resource path relative to the API prefix
	Path string

	mods []func(*Req)
}

// Singleton returns an accessor for the singleton resource at path.
// Request modifiers (e.g. WithVDOM) apply to every fetch and write.
func (c *Client) Singleton(path string, mods ...func(*Req)) *Singleton {
	return &Singleton{client: c, Path: path, mods: mods}
}

// Fetch reads the current representation. The appliance wraps it in
// "results", either as an object or as a one-element list.
func (s *Singleton) Fetch(ctx context.Context) (Body, error) {
	res, err := s.client.Get(ctx, s.Path, s.mods...)
	if err != nil {
		return Body{}, err
	}
	results := res.Results()
	if results.IsArray() {
		items := results.Array()
		if len(items) == 0 {
			return ParseBody("")
		}
		results = items[0]
	}
	if !results.Exists() {
		return Body{}, fmt.Errorf("response for %s has no results", s.Path)
	}
	return ParseBody(results.Raw)
}

// Write replaces the resource with body
func (s *Singleton) Write(ctx context.Context, body Body) (Res, error) {
	return s.client.Put(ctx, s.Path, body, s.mods...)
}

// Collection is the HTTP accessor for a keyed collection such as
// "firewall/address". It implements Resource.
type Collection struct {
	client *Client

	// Path is the collection path relative to the API prefix
	Path string

	// PrimaryKey is the field that identifies an entry, e.g. "name"
	PrimaryKey string

	mods []func(*Req)
}

// Collection returns an accessor for the collection at path keyed by primaryKey
func (c *Client) Collection(path, primaryKey string, mods ...func(*Req)) *Collection {
	return &Collection{client: c, Path: path, PrimaryKey: primaryKey, mods: mods}
}

// entryPath returns the path of one entry; the key is path-escaped so that
// keys containing "/" stay a single segment
func (c *Collection) entryPath(key any) string {
	return strings.TrimRight(c.Path, "/") + "/" + url.PathEscape(keyString(key))
}

func (c *Collection) withMods(mods []func(*Req)) []func(*Req) {
	all := make([]func(*Req), 0, len(c.mods)+len(mods))
	all = append(all, c.mods...)
	return append(all, mods...)
}

// List returns the entries of the collection. Filters and other query
// parameters pass through as request modifiers.
func (c *Collection) List(ctx context.Context, mods ...func(*Req)) ([]Record, error) {
	res, err := c.client.Get(ctx, c.Path, c.withMods(mods)...)
	if err != nil {
		return nil, err
	}
	return decodeRecords("results", res.Results())
}

// Get returns one entry. A missing entry is reported with ok == false.
func (c *Collection) Get(ctx context.Context, key any) (Record, bool, error) {
	if key == nil {
		return nil, false, &MissingKeyError{Operation: "get", Key: c.PrimaryKey}
	}
	res, err := c.client.Get(ctx, c.entryPath(key), c.mods...)
	if err != nil {
		if isNotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	records, err := decodeRecords("results", res.Results())
	if err != nil {
		return nil, false, err
	}
	if i := indexOf(records, c.PrimaryKey, key); i >= 0 {
		return records[i], true, nil
	}
	return nil, false, nil
}

// Exists reports whether an entry with key exists
func (c *Collection) Exists(ctx context.Context, key any) (bool, error) {
	if key == nil {
		return false, &MissingKeyError{Operation: "exists", Key: c.PrimaryKey}
	}
	return c.client.Exists(ctx, c.entryPath(key), c.mods...)
}

// Create adds a new entry
func (c *Collection) Create(ctx context.Context, fields Record) (Res, error) {
	body, err := recordBody(fields)
	if err != nil {
		return Res{}, err
	}
	return c.client.Post(ctx, c.Path, body, c.mods...)
}

// Update replaces the fields of the entry identified by fields[PrimaryKey]
func (c *Collection) Update(ctx context.Context, fields Record) (Res, error) {
	if !fields.Has(c.PrimaryKey) {
		return Res{}, &MissingKeyError{Operation: "update", Key: c.PrimaryKey}
	}
	body, err := recordBody(fields)
	if err != nil {
		return Res{}, err
	}
	return c.client.Put(ctx, c.entryPath(fields[c.PrimaryKey]), body, c.mods...)
}

// Delete removes the entry with key
func (c *Collection) Delete(ctx context.Context, key any) (Res, error) {
	if key == nil {
		return Res{}, &MissingKeyError{Operation: "delete", Key: c.PrimaryKey}
	}
	return c.client.Delete(ctx, c.entryPath(key), c.mods...)
}

// Upsert creates the entry if absent and updates it otherwise
func (c *Collection) Upsert(ctx context.Context, fields Record) (Res, error) {
	return UpsertResource(ctx, c, c.PrimaryKey, fields)
}

// Table builds a Table for a table field described by schema, bound to the
// singleton at schema.Path. With SerializeWrites enabled, all tables on the
// same path share one lock.
func (c *Client) Table(schema TableSchema, opts ...func(*Table)) *Table {
	base := []func(*Table){
		Required(schema.Required...),
		TableLogger(c.logger),
	}
	if c.serializeWrites {
		base = append(base, TableLock(c.locks.get(schema.Path)))
	}
	return NewTable(c.Singleton(schema.Path), schema.Field, schema.Key, append(base, opts...)...)
}

func recordBody(fields Record) (Body, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return Body{}, fmt.Errorf("failed to encode record: %w", err)
	}
	return ParseBody(string(data))
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
