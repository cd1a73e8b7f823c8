// Copyright 2026 The Askdesk Authors
// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Load reads the config file at path. The format is chosen by extension:
// .toml is TOML, anything else is YAML. ${VAR} references are expanded
// before parsing. A missing file yields a zero-value Config and nil error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-provided config path
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}
	cfg, err := Parse(data, formatFor(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadLocal loads .askdesk.yaml from dir, or .askdesk.toml when only that
// exists. It returns the path read, empty if neither file exists.
func LoadLocal(dir string) (*Config, string, error) {
	for _, name := range []string{FileName, TOMLFileName} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		cfg, err := Load(path)
		return cfg, path, err
	}
	return &Config{}, "", nil
}

// Parse decodes data in the given format ("yaml" or "toml").
func Parse(data []byte, format string) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	switch format {
	case "toml":
		if _, err := toml.Decode(expanded, &cfg); err != nil {
			return nil, err
		}
	default:
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

// LoadRaw reads a YAML file into a generic map for key-path edits. A missing
// file yields an empty map.
func LoadRaw(path string) (map[string]any, error) {
	if formatFor(path) != "yaml" {
		return nil, fmt.Errorf("%s: only YAML config files can be edited", path)
	}
	data, err := os.ReadFile(path) //nolint:gosec // user-provided config path
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]any{}, nil
		}
		return nil, err
	}
	m := map[string]any{}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if m == nil {
		m = map[string]any{}
	}
	return m, nil
}

// WriteFile writes a raw map as YAML, creating parent directories.
func WriteFile(path string, data map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600) //nolint:gosec // user config path
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Write marshals the config to YAML and writes it to w.
func Write(w io.Writer, cfg *Config) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close() //nolint:errcheck // best-effort close
	enc.SetIndent(2)
	return enc.Encode(cfg)
}

func formatFor(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return "toml"
	}
	return "yaml"
}
