// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package main

import (
	"fmt"

	"github.com/netascode/go-cmdb"
	"github.com/spf13/cobra"
)

func newUpsertCommand() *cobra.Command {
	var (
		pk   string
		data string
	)

	cmd := &cobra.Command{
		Use:   "upsert PATH --data JSON",
		Short: "Create a collection entry, or update it if it exists",
		Example: `  cmdbctl upsert firewall/address --pk name \
    --data '{"name":"web","subnet":"10.0.0.0 255.255.255.0"}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := cmdb.ParseRecord(data)
			if err != nil {
				return fmt.Errorf("--data: %w", err)
			}

			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			client, err := a.Client()
			if err != nil {
				return err
			}

			res, err := client.Collection(args[0], pk).Upsert(cmd.Context(), fields)
			if err != nil {
				return fmt.Errorf("upsert %s: %w", args[0], err)
			}
			return writeJSON(cmd.OutOrStdout(), res.JSON())
		},
	}

	cmd.Flags().StringVar(&pk, "pk", "name", "primary key field of the collection")
	cmd.Flags().StringVar(&data, "data", "", "entry as a JSON object")
	_ = cmd.MarkFlagRequired("data") //nolint:errcheck // flag registered above

	return cmd
}
