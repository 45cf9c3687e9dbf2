// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package main

import (
	"fmt"

	"github.com/netascode/go-cmdb"
	"github.com/spf13/cobra"
)

// tableFlags selects a table either by schema name or by PATH FIELD arguments
type tableFlags struct {
	schema   string
	key      string
	required []string
}

func (f *tableFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.schema, "schema", "", "table schema name from the schema file")
	cmd.Flags().StringVar(&f.key, "key", "name", "key field of the table records")
	cmd.Flags().StringSliceVar(&f.required, "required", nil, "fields every record must carry")
}

// resolve builds the Table and returns the remaining positional arguments.
// want is the number of arguments expected after the table selection.
func (f *tableFlags) resolve(cmd *cobra.Command, args []string, want int) (*cmdb.Table, []string, error) {
	a, err := getApp(cmd)
	if err != nil {
		return nil, nil, err
	}

	var schema cmdb.TableSchema
	if f.schema != "" {
		schemas, err := a.Schemas()
		if err != nil {
			return nil, nil, err
		}
		var ok bool
		if schema, ok = schemas.Lookup(f.schema); !ok {
			return nil, nil, fmt.Errorf("unknown table schema %q (known: %v)", f.schema, schemas.Names())
		}
	} else {
		if len(args) < 2 {
			return nil, nil, fmt.Errorf("requires PATH FIELD arguments or --schema")
		}
		schema = cmdb.TableSchema{Path: args[0], Field: args[1], Key: f.key, Required: f.required}
		args = args[2:]
		if err := schema.Validate(); err != nil {
			return nil, nil, err
		}
	}

	if len(args) != want {
		return nil, nil, fmt.Errorf("expected %d argument(s) after the table selection, got %d", want, len(args))
	}

	client, err := a.Client()
	if err != nil {
		return nil, nil, err
	}
	return client.Table(schema), args, nil
}

func newTableCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Edit table fields of singleton resources one record at a time",
		Long: `Edit a table field of a singleton resource, such as the "neighbor" list of
"router/bgp", one record at a time. Every change fetches the resource once and
writes it back once with only the table field rewritten.

Select a table with PATH FIELD arguments and --key, or with --schema NAME
from the file given by --schemas.`,
	}

	cmd.AddCommand(newTableListCommand())
	cmd.AddCommand(newTableGetCommand())
	cmd.AddCommand(newTableUpsertCommand())
	cmd.AddCommand(newTableDeleteCommand())
	cmd.AddCommand(newTableSetCommand())
	cmd.AddCommand(newTableSchemasCommand())

	return cmd
}

func newTableListCommand() *cobra.Command {
	var tf tableFlags
	cmd := &cobra.Command{
		Use:     "list [PATH FIELD]",
		Short:   "List the records of a table field",
		Example: `  cmdbctl table list router/bgp neighbor --key ip`,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, _, err := tf.resolve(cmd, args, 0)
			if err != nil {
				return err
			}
			records, err := table.List(cmd.Context())
			if err != nil {
				return err
			}
			return writeValue(cmd.OutOrStdout(), records)
		},
	}
	tf.register(cmd)
	return cmd
}

func newTableGetCommand() *cobra.Command {
	var tf tableFlags
	cmd := &cobra.Command{
		Use:     "get [PATH FIELD] KEY",
		Short:   "Show one record of a table field",
		Example: `  cmdbctl table get router/bgp neighbor 10.0.0.2 --key ip`,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, rest, err := tf.resolve(cmd, args, 1)
			if err != nil {
				return err
			}
			rec, ok, err := table.Get(cmd.Context(), rest[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no %s record with %s %q", table.Field, table.Key, rest[0])
			}
			return writeValue(cmd.OutOrStdout(), rec)
		},
	}
	tf.register(cmd)
	return cmd
}

func newTableUpsertCommand() *cobra.Command {
	var (
		tf   tableFlags
		data string
	)
	cmd := &cobra.Command{
		Use:   "upsert [PATH FIELD] --data JSON",
		Short: "Merge a record into a table field, appending it if absent",
		Example: `  cmdbctl table upsert router/bgp neighbor --key ip \
    --data '{"ip":"10.0.0.2","remote-as":65002}'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := cmdb.ParseRecord(data)
			if err != nil {
				return fmt.Errorf("--data: %w", err)
			}
			table, _, err := tf.resolve(cmd, args, 0)
			if err != nil {
				return err
			}
			res, err := table.Upsert(cmd.Context(), fields)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res.JSON())
		},
	}
	tf.register(cmd)
	cmd.Flags().StringVar(&data, "data", "", "record as a JSON object")
	_ = cmd.MarkFlagRequired("data") //nolint:errcheck // flag registered above
	return cmd
}

func newTableDeleteCommand() *cobra.Command {
	var tf tableFlags
	cmd := &cobra.Command{
		Use:     "delete [PATH FIELD] KEY",
		Short:   "Remove every record with KEY from a table field",
		Example: `  cmdbctl table delete router/bgp neighbor 10.0.0.2 --key ip`,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, rest, err := tf.resolve(cmd, args, 1)
			if err != nil {
				return err
			}
			res, err := table.Delete(cmd.Context(), rest[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res.JSON())
		},
	}
	tf.register(cmd)
	return cmd
}

func newTableSetCommand() *cobra.Command {
	var (
		tf   tableFlags
		data string
	)
	cmd := &cobra.Command{
		Use:   "set [PATH FIELD] --data VALUE",
		Short: "Replace a table field from a scalar, a list or records",
		Long: `Replace a table field. VALUE may be a bare scalar, a JSON list of scalars,
a JSON object or a JSON list of objects. Scalars become records keyed by --key.
Text that is not JSON is taken as a single string scalar.`,
		Example: `  cmdbctl table set system/zone interface --key interface-name --data '["port1","port2"]'
  cmdbctl table set system/zone interface --key interface-name --data port3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := cmdb.ParseValue(data)
			if err != nil {
				value = data
			}
			table, _, err := tf.resolve(cmd, args, 0)
			if err != nil {
				return err
			}
			res, err := table.Set(cmd.Context(), value)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res.JSON())
		},
	}
	tf.register(cmd)
	cmd.Flags().StringVar(&data, "data", "", "table value")
	_ = cmd.MarkFlagRequired("data") //nolint:errcheck // flag registered above
	return cmd
}

func newTableSchemasCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schemas",
		Short: "List the table schemas from the schema file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			schemas, err := a.Schemas()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, name := range schemas.Names() {
				s := schemas[name]
				fmt.Fprintf(out, "%s\t%s\t%s\tkey=%s\n", name, s.Path, s.Field, s.Key)
			}
			return nil
		},
	}
}
