// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/netascode/go-cmdb"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"go.uber.org/zap"
)

// Version is set at build time
var Version = "dev"

// appKey is used to store the app in the command context
type appKey struct{}

// app carries the per-invocation configuration, logger and lazily built client
type app struct {
	cfg     *Config
	logger  *zap.Logger
	client  *cmdb.Client
	schemas cmdb.Schemas
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cmdbctl",
		Short: "Read and edit appliance configuration through the CMDB API",
		Long: `cmdbctl talks to the CMDB REST API of a network security appliance.

Besides plain reads it edits table fields of singleton resources one record
at a time (e.g. the BGP neighbor list) and upserts collection entries.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := LoadConfig(cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			logger, err := NewLogger(cfg.Log)
			if err != nil {
				return err
			}

			ctx := context.WithValue(cmd.Context(), appKey{}, &app{cfg: cfg, logger: logger})
			cmd.SetContext(ctx)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if a, ok := cmd.Context().Value(appKey{}).(*app); ok {
				_ = a.logger.Sync() //nolint:errcheck // stderr sync fails on some terminals
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	registerFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(newGetCommand())
	rootCmd.AddCommand(newFilterCommand())
	rootCmd.AddCommand(newTableCommand())
	rootCmd.AddCommand(newUpsertCommand())

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var remoteErr *cmdb.RemoteError
		if errors.As(err, &remoteErr) {
			fmt.Fprintf(os.Stderr, "Details: %s\n", remoteErr.DetailedError())
		}
		return err
	}
	return nil
}

// getApp retrieves the app from the command context
func getApp(cmd *cobra.Command) (*app, error) {
	a, ok := cmd.Context().Value(appKey{}).(*app)
	if !ok {
		return nil, errors.New("configuration not loaded")
	}
	return a, nil
}

// Client builds the CMDB client on first use
func (a *app) Client() (*cmdb.Client, error) {
	if a.client != nil {
		return a.client, nil
	}
	if a.cfg.URL == "" {
		return nil, errors.New("appliance URL is required (--url or CMDB_URL)")
	}

	opts := []func(*cmdb.Client){
		cmdb.Token(a.cfg.Token),
		cmdb.VerifyCertificate(!a.cfg.Insecure),
		cmdb.RequestTimeout(a.cfg.Timeout),
		cmdb.SerializeWrites(a.cfg.SerializeWrites),
		cmdb.WithLogger(NewZapLogger(a.logger)),
	}
	if a.cfg.VDOM != "" {
		opts = append(opts, cmdb.VDOM(a.cfg.VDOM))
	}
	if a.cfg.CAFile != "" {
		opts = append(opts, cmdb.TLSCA(a.cfg.CAFile))
	}
	if a.logger.Core().Enabled(zap.DebugLevel) {
		opts = append(opts, cmdb.WithPrettyPrintLogs(true))
	}

	client, err := cmdb.NewClient(a.cfg.URL, opts...)
	if err != nil {
		return nil, err
	}
	a.client = client
	return client, nil
}

// Schemas loads the table schema file on first use
func (a *app) Schemas() (cmdb.Schemas, error) {
	if a.schemas != nil {
		return a.schemas, nil
	}
	if a.cfg.Schemas == "" {
		return nil, errors.New("no schema file configured (--schemas or CMDB_SCHEMAS)")
	}
	schemas, err := cmdb.LoadSchemaFile(a.cfg.Schemas)
	if err != nil {
		return nil, err
	}
	a.schemas = schemas
	return schemas, nil
}

// writeJSON prints raw JSON indented, or the raw text if it is not JSON
func writeJSON(w io.Writer, raw string) error {
	out := []byte(raw)
	if gjson.ValidBytes(out) {
		out = pretty.Pretty(out)
	} else {
		out = append(out, '\n')
	}
	_, err := w.Write(out)
	return err
}

// writeValue encodes v as indented JSON
func writeValue(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return writeJSON(w, string(data))
}
