// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package cmdb

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// TableSchema describes one table field of a singleton resource.
//
// Schemas are plain data so that one generic Table serves every endpoint:
//
//	tables:
//	  - name: bgp-neighbor
//	    path: router/bgp
//	    field: neighbor
//	    key: ip
//	    required: [ip, remote-as]
type TableSchema struct {
	Name     string   `yaml:"name"`
	Path     string   `yaml:"path"`
	Field    string   `yaml:"field"`
	Key      string   `yaml:"key"`
	Required []string `yaml:"required,omitempty"`
}

// Validate checks that the schema names a path, a field and a key
func (s TableSchema) Validate() error {
	var errs []error
	if s.Path == "" {
		errs = append(errs, errors.New("path is required"))
	} else if err := validatePath(s.Path); err != nil {
		errs = append(errs, err)
	}
	if s.Field == "" {
		errs = append(errs, errors.New("field is required"))
	}
	if s.Key == "" {
		errs = append(errs, errors.New("key is required"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("table schema %q: %w", s.displayName(), err)
	}
	return nil
}

func (s TableSchema) displayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Path + ":" + s.Field
}

// Schemas indexes table schemas by name
type Schemas map[string]TableSchema

// Lookup returns the schema registered under name
func (s Schemas) Lookup(name string) (TableSchema, bool) {
	schema, ok := s[name]
	return schema, ok
}

// Names returns the registered schema names in sorted order
func (s Schemas) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type schemaFile struct {
	Tables []TableSchema `yaml:"tables"`
}

// LoadSchemas decodes a YAML document with a top-level "tables" list.
// Schemas without a name are registered as "path:field".
func LoadSchemas(r io.Reader) (Schemas, error) {
	var file schemaFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode table schemas: %w", err)
	}

	schemas := make(Schemas, len(file.Tables))
	for _, schema := range file.Tables {
		if err := schema.Validate(); err != nil {
			return nil, err
		}
		name := schema.displayName()
		if _, dup := schemas[name]; dup {
			return nil, fmt.Errorf("duplicate table schema %q", name)
		}
		schema.Name = name
		schemas[name] = schema
	}
	return schemas, nil
}

// LoadSchemaFile reads table schemas from a YAML file
func LoadSchemaFile(path string) (Schemas, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open table schemas: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only file

	return LoadSchemas(f)
}
