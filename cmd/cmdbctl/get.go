// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package main

import (
	"fmt"
	"strings"

	"github.com/netascode/go-cmdb"
	"github.com/spf13/cobra"
)

func newGetCommand() *cobra.Command {
	var (
		filter string
		fields []string
		raw    bool
	)

	cmd := &cobra.Command{
		Use:   "get PATH",
		Short: "Read a resource or collection",
		Long: `Read a resource or collection, e.g. "system/global" or "firewall/address".

Filters may be written as one expression or several joined with "&" or
"&filter="; each expression is sent as its own filter parameter.`,
		Example: `  cmdbctl get router/bgp
  cmdbctl get firewall/address --filter 'type==ipmask&name=@web'
  cmdbctl get firewall/address --fields name,subnet`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			client, err := a.Client()
			if err != nil {
				return err
			}

			var mods []func(*cmdb.Req)
			if cmd.Flags().Changed("filter") {
				mods = append(mods, cmdb.WithFilter(filter))
			}
			if len(fields) > 0 {
				mods = append(mods, cmdb.Fields(fields...))
			}

			res, err := client.Get(cmd.Context(), args[0], mods...)
			if err != nil {
				return fmt.Errorf("get %s: %w", args[0], err)
			}
			if raw {
				return writeJSON(cmd.OutOrStdout(), res.JSON())
			}
			return writeJSON(cmd.OutOrStdout(), res.Results().Raw)
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "filter expressions")
	cmd.Flags().StringSliceVar(&fields, "fields", nil, "attributes to return")
	cmd.Flags().BoolVar(&raw, "raw", false, "print the full response envelope")

	return cmd
}

func newFilterCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "filter RAW",
		Short: "Show how a filter string is split into expressions",
		Example: `  cmdbctl filter 'filter=name==a&filter=type==ipmask'
  cmdbctl filter 'a==1&b==2' --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmdb.NormalizeFilter(args[0])
			if asJSON {
				return writeValue(cmd.OutOrStdout(), f.Value())
			}

			out := cmd.OutOrStdout()
			for _, expr := range f.List() {
				parsed, err := cmdb.ParseFilterExpr(expr)
				if err != nil {
					fmt.Fprintf(out, "%s\t(invalid: %v)\n", expr, err)
					continue
				}
				fmt.Fprintf(out, "%s\t%s %s %s\n", expr, parsed.Field, parsed.Op, quote(parsed.Value))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print as a JSON string or list")

	return cmd
}

func quote(s string) string {
	if s == "" || strings.ContainsAny(s, " \t") {
		return fmt.Sprintf("%q", s)
	}
	return s
}
