// Copyright 2026 The Askdesk Authors
// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"path/filepath"
)

// GlobalConfigDir returns the directory for global askdesk configuration.
// It uses $XDG_CONFIG_HOME/askdesk if set, otherwise ~/.config/askdesk.
func GlobalConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "askdesk")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "askdesk")
}

// GlobalConfigPath returns the path to the global config file.
func GlobalConfigPath() string {
	return filepath.Join(GlobalConfigDir(), "config.yaml")
}

// LoadGlobal loads config.yaml from the global directory, or config.toml
// when only that exists. Missing files yield a zero-value Config.
func LoadGlobal() (*Config, error) {
	path := GlobalConfigPath()
	if _, err := os.Stat(path); err != nil {
		toml := filepath.Join(GlobalConfigDir(), "config.toml")
		if _, err := os.Stat(toml); err == nil {
			path = toml
		}
	}
	return Load(path)
}
