// Copyright 2026 The Askdesk Authors
// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// GetValue retrieves a value from a Config by dot-notation key path.
// It returns scalar values as-is, and maps/slices for intermediate nodes.
func GetValue(cfg *Config, keyPath string) (any, error) {
	m, err := ToMap(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return navigateMap(m, keyPath)
}

// SetValue sets a value in a raw YAML map by dot-notation key path,
// creating intermediate maps as needed.
func SetValue(data map[string]any, keyPath string, rawValue string) error {
	parts := strings.Split(keyPath, ".")

	current := data
	for _, part := range parts[:len(parts)-1] {
		child, ok := current[part]
		if !ok {
			next := make(map[string]any)
			current[part] = next
			current = next
			continue
		}
		next, ok := child.(map[string]any)
		if !ok {
			return fmt.Errorf("key %q is not a map", part)
		}
		current = next
	}

	last := parts[len(parts)-1]
	if last == "extra_patterns" {
		current[last] = splitList(rawValue)
		return nil
	}
	current[last] = coerceValue(rawValue)
	return nil
}

// FlattenMap recursively flattens a nested map to dot-notation keys.
func FlattenMap(m map[string]any, prefix string) map[string]any {
	result := make(map[string]any)
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok {
			for sk, sv := range FlattenMap(sub, key) {
				result[sk] = sv
			}
		} else {
			result[key] = v
		}
	}
	return result
}

// ValidateKeyPath checks that a dot-notation key path names a settable
// Config field. Keys come from the yaml struct tags.
func ValidateKeyPath(keyPath string) error {
	if keyPath == "" {
		return fmt.Errorf("empty key path")
	}
	parts := strings.Split(keyPath, ".")
	first := parts[0]

	if first == "pricing" {
		return fmt.Errorf("pricing cannot be set via config set; edit the config file directly")
	}

	topKeys := yamlKeys(reflect.TypeOf(Config{}))
	if _, ok := topKeys[first]; !ok {
		return fmt.Errorf("unknown key %q; valid top-level keys: %s", first, sortedKeys(topKeys))
	}

	if first != "moderation" {
		if len(parts) > 1 {
			return fmt.Errorf("key %q is a scalar; cannot use sub-keys", first)
		}
		return nil
	}

	if len(parts) != 2 {
		return fmt.Errorf("moderation requires a single field (e.g. moderation.enabled)")
	}
	modKeys := yamlKeys(reflect.TypeOf(ModerationConfig{}))
	if _, ok := modKeys[parts[1]]; !ok {
		return fmt.Errorf("unknown moderation field %q; valid fields: %s", parts[1], sortedKeys(modKeys))
	}
	return nil
}

// ToMap converts a Config to a nested map via a YAML round-trip. Unset
// fields are omitted.
func ToMap(cfg *Config) (map[string]any, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = make(map[string]any)
	}
	return m, nil
}

// FromMap decodes a raw map into a Config via a YAML round-trip.
func FromMap(m map[string]any) (*Config, error) {
	data, err := yaml.Marshal(m)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// navigateMap traverses a nested map using a dot-notation key path.
func navigateMap(m map[string]any, keyPath string) (any, error) {
	parts := strings.Split(keyPath, ".")
	var current any = m
	for _, part := range parts {
		cm, ok := current.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("key %q: parent is not a map", part)
		}
		val, exists := cm[part]
		if !exists {
			return nil, fmt.Errorf("key %q not found", keyPath)
		}
		current = val
	}
	return current, nil
}

// coerceValue parses a string into bool, int, float64, or keeps it as string.
func coerceValue(s string) any {
	if s == "true" {
		return true
	}
	if s == "false" {
		return false
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	// Only use float if it has a decimal point (avoid converting "3" to 3.0).
	if f, err := strconv.ParseFloat(s, 64); err == nil && strings.Contains(s, ".") {
		return f
	}
	return s
}

// splitList turns "a, b,c" into []any{"a", "b", "c"}.
func splitList(s string) []any {
	var out []any
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// yamlKeys extracts yaml tag names from a struct type.
func yamlKeys(t reflect.Type) map[string]bool {
	keys := make(map[string]bool)
	for i := range t.NumField() {
		tag := t.Field(i).Tag.Get("yaml")
		if tag == "" || tag == "-" {
			continue
		}
		if name := strings.Split(tag, ",")[0]; name != "" {
			keys[name] = true
		}
	}
	return keys
}

// sortedKeys returns a comma-separated sorted list of map keys.
func sortedKeys(m map[string]bool) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}
