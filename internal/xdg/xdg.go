// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

// Package xdg provides XDG Base Directory paths for brush.
package xdg

import (
	"os"
	"path/filepath"

	"github.com/samber/oops"
)

const appName = "brush"

// ConfigFileName is the name of the configuration file in ConfigDir.
const ConfigFileName = "config.yaml"

// base returns $env, or $HOME/fallback when env is unset.
func base(env string, fallback ...string) (string, error) {
	if dir := os.Getenv(env); dir != "" {
		return filepath.Join(dir, appName), nil
	}
	home := os.Getenv("HOME")
	if home == "" {
		return "", oops.Code("XDG_NO_HOME").With("env", env).Errorf("neither %s nor HOME is set", env)
	}
	return filepath.Join(append(append([]string{home}, fallback...), appName)...), nil
}

// ConfigDir returns $XDG_CONFIG_HOME/brush, falling back to ~/.config/brush.
func ConfigDir() (string, error) {
	return base("XDG_CONFIG_HOME", ".config")
}

// StateDir returns $XDG_STATE_HOME/brush, falling back to ~/.local/state/brush.
func StateDir() (string, error) {
	return base("XDG_STATE_HOME", ".local", "state")
}

// CacheDir returns $XDG_CACHE_HOME/brush, falling back to ~/.cache/brush.
func CacheDir() (string, error) {
	return base("XDG_CACHE_HOME", ".cache")
}

// ConfigFile returns the default configuration file path.
func ConfigFile() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

// CertsDir returns the TLS certificates directory.
func CertsDir() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "certs"), nil
}

// EnsureDir creates a directory and its parents with 0700 permissions.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o700); err != nil {
		return oops.With("path", path).Wrapf(err, "create directory")
	}
	return nil
}
