// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

// Package config loads brush configuration.
//
// Values are layered: built-in defaults, then the YAML config file, then
// command-line flags that were explicitly set. The model API key comes
// from BRUSH_API_KEY when the file does not set one.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/brushcss/brush/internal/changes"
	"github.com/brushcss/brush/internal/logging"
	"github.com/brushcss/brush/internal/model"
	"github.com/brushcss/brush/internal/session"
	"github.com/brushcss/brush/internal/xdg"
	"github.com/brushcss/brush/pkg/errutil"
)

// CodeInvalid is returned for configuration that cannot be used.
const CodeInvalid = "CONFIG_INVALID"

// APIKeyEnv names the environment variable holding the model API key.
const APIKeyEnv = "BRUSH_API_KEY"

// Defaults for listen addresses.
const (
	DefaultRPCAddr     = "127.0.0.1:7420"
	DefaultMetricsAddr = "127.0.0.1:9420"
)

// RPC configures the gRPC listener.
type RPC struct {
	Addr string `koanf:"addr"`
	// TLS enables mutual TLS with certificates from CertsDir.
	TLS      bool   `koanf:"tls"`
	CertsDir string `koanf:"certs_dir"`
}

// Metrics configures the observability listener. An empty Addr disables it.
type Metrics struct {
	Addr string `koanf:"addr"`
}

// Policy names an optional policy table file.
type Policy struct {
	File string `koanf:"file"`
}

// Session configures document sessions.
type Session struct {
	BlockedOrigins []string `koanf:"blocked_origins"`
}

// Config is the complete brush configuration.
type Config struct {
	Log     logging.Config `koanf:"log"`
	RPC     RPC            `koanf:"rpc"`
	Metrics Metrics        `koanf:"metrics"`
	Model   model.Config   `koanf:"model"`
	Policy  Policy         `koanf:"policy"`
	Changes changes.Config `koanf:"changes"`
	Session Session        `koanf:"session"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Log:     logging.Config{Format: "json", Level: "info"},
		RPC:     RPC{Addr: DefaultRPCAddr},
		Metrics: Metrics{Addr: DefaultMetricsAddr},
		Model:   model.DefaultConfig(),
		Changes: changes.Config{Backend: changes.BackendMemory, TTL: changes.DefaultTTL},
		Session: Session{BlockedOrigins: append([]string(nil), session.DefaultBlockedOrigins...)},
	}
}

// FlagKeys maps command-line flag names to configuration keys. Flags not
// listed here are not configuration.
var FlagKeys = map[string]string{
	"log-format":      "log.format",
	"log-level":       "log.level",
	"rpc-addr":        "rpc.addr",
	"tls":             "rpc.tls",
	"certs-dir":       "rpc.certs_dir",
	"metrics-addr":    "metrics.addr",
	"model":           "model.name",
	"endpoint":        "model.endpoint",
	"temperature":     "model.temperature",
	"max-tokens":      "model.max_tokens",
	"model-timeout":   "model.timeout",
	"policy":          "policy.file",
	"changes-backend": "changes.backend",
	"redis-url":       "changes.redis_url",
	"database-url":    "changes.database_url",
	"changes-ttl":     "changes.ttl",
	"blocked-origins": "session.blocked_origins",
}

// Load builds the configuration. An empty path reads the default config
// file if it exists; an explicit path must exist. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	explicit := path != ""
	if !explicit {
		def, err := xdg.ConfigFile()
		if err == nil {
			path = def
		}
	}
	if path != "" && !explicit {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, oops.Code(CodeInvalid).With("path", path).Wrapf(err, "load config file")
		}
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := FlagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return Config{}, oops.Code(CodeInvalid).Wrapf(err, "load flags")
		}
	}

	cfg := Default()
	// Decoding into a populated slice merges element-wise, so the origin
	// list is filled in after decoding.
	cfg.Session.BlockedOrigins = nil
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, oops.Code(CodeInvalid).Wrapf(err, "decode config")
	}
	if !k.Exists("session.blocked_origins") {
		cfg.Session.BlockedOrigins = append([]string(nil), session.DefaultBlockedOrigins...)
	}
	if cfg.Model.APIKey == "" {
		cfg.Model.APIKey = strings.TrimSpace(os.Getenv(APIKeyEnv))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late.
func (c Config) Validate() error {
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return errutil.Rewrap(oops.Code(CodeInvalid).With("key", "log.level"), err, "log.level")
	}
	if c.Log.Format != "" && c.Log.Format != "json" && c.Log.Format != "text" {
		return invalid("log.format", "must be 'json' or 'text', got %q", c.Log.Format)
	}
	if c.RPC.Addr == "" {
		return invalid("rpc.addr", "is required")
	}
	switch c.Changes.Backend {
	case "", changes.BackendMemory, changes.BackendRedis, changes.BackendPostgres:
	default:
		return invalid("changes.backend", "unknown backend %q", c.Changes.Backend)
	}
	if c.Changes.TTL < 0 {
		return invalid("changes.ttl", "must not be negative")
	}
	if c.Model.Temperature < 0 || c.Model.Temperature > 2 {
		return invalid("model.temperature", "must be between 0 and 2, got %v", c.Model.Temperature)
	}
	if c.Model.Timeout < time.Second {
		return invalid("model.timeout", "must be at least 1s, got %s", c.Model.Timeout)
	}
	return nil
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	if c.Model.APIKey != "" {
		c.Model.APIKey = "********"
	}
	c.Session.BlockedOrigins = append([]string(nil), c.Session.BlockedOrigins...)
	return c
}

func invalid(key, format string, args ...any) error {
	return oops.Code(CodeInvalid).With("key", key).Errorf(key+" "+format, args...)
}
