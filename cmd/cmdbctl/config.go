// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// envPrefix namespaces environment variables, e.g. CMDB_URL or CMDB_LOG_LEVEL
const envPrefix = "CMDB"

// Config holds the cmdbctl settings.
// Precedence (highest to lowest): flags > env vars > .env file > config file > defaults
type Config struct {
	// URL is the appliance base URL, e.g. https://192.168.1.99
	URL string `mapstructure:"url"`
	// Token is the REST API token
	Token string `mapstructure:"token"`
	// VDOM is the default virtual domain
	VDOM string `mapstructure:"vdom"`
	// Insecure disables TLS certificate verification
	Insecure bool `mapstructure:"insecure" default:"false"`
	// CAFile is a PEM bundle used to verify the appliance certificate
	CAFile string `mapstructure:"ca_file"`
	// Timeout is the per-request timeout
	Timeout time.Duration `mapstructure:"timeout" default:"30s"`
	// SerializeWrites serializes table writes per parent path
	SerializeWrites bool `mapstructure:"serialize_writes" default:"false"`
	// Schemas is a YAML file of table schemas
	Schemas string `mapstructure:"schemas"`
	// Log holds logger settings
	Log LogConfig `mapstructure:"log"`
}

// LogConfig holds logger settings
type LogConfig struct {
	// Level is one of debug, info, warn, error
	Level string `mapstructure:"level" default:"warn"`
	// Format is console or json
	Format string `mapstructure:"format" default:"console"`
}

// flagKeys maps persistent flag names to config keys
var flagKeys = map[string]string{
	"url":              "url",
	"token":            "token",
	"vdom":             "vdom",
	"insecure":         "insecure",
	"ca-file":          "ca_file",
	"timeout":          "timeout",
	"serialize-writes": "serialize_writes",
	"schemas":          "schemas",
	"log-level":        "log.level",
	"log-format":       "log.format",
}

// registerFlags adds the configuration flags to fs
func registerFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "config file (default: ./cmdbctl.yaml or ~/.cmdbctl.yaml)")
	fs.String("env-file", ".env", "dotenv file with CMDB_* variables")
	fs.String("url", "", "appliance base URL")
	fs.String("token", "", "REST API token")
	fs.String("vdom", "", "virtual domain")
	fs.Bool("insecure", false, "skip TLS certificate verification")
	fs.String("ca-file", "", "PEM CA bundle for the appliance certificate")
	fs.Duration("timeout", 0, "per-request timeout (default 30s)")
	fs.Bool("serialize-writes", false, "serialize table writes per parent path")
	fs.String("schemas", "", "YAML file of table schemas")
	fs.String("log-level", "", "log level (debug|info|warn|error)")
	fs.String("log-format", "", "log format (console|json)")
}

// LoadConfig loads configuration from the config file, the environment,
// an optional .env file and the flags in fs.
func LoadConfig(fs *pflag.FlagSet) (*Config, error) {
	envFile, _ := fs.GetString("env-file") //nolint:errcheck // registered by registerFlags
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("error reading env file %s: %w", envFile, err)
		}
	}

	v := viper.New()
	bindDefaults(v, Config{}, "")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	cfgFile, _ := fs.GetString("config") //nolint:errcheck // registered by registerFlags
	if cfgFile == "" {
		cfgFile = findConfigFile()
	}
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}

	for name, key := range flagKeys {
		if flag := fs.Lookup(name); flag != nil && flag.Changed {
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	return &cfg, nil
}

// findConfigFile returns the first existing default config file, or ""
func findConfigFile() string {
	candidates := []string{"cmdbctl.yaml", "cmdbctl.yml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates,
			filepath.Join(home, ".cmdbctl.yaml"),
			filepath.Join(home, ".cmdbctl.yml"))
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// bindDefaults walks the struct tags and registers every key with its
// default so that AutomaticEnv can resolve it during Unmarshal.
func bindDefaults(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindDefaults(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		v.SetDefault(key, field.Tag.Get("default"))
	}
}
