// Copyright 2026 The Askdesk Authors
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/davetashner/askdesk/internal/config"
)

// Config command flags.
var configGlobal bool

// configCmd is the parent command for config subcommands.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View and modify askdesk configuration",
	Long: `View and modify askdesk configuration.

askdesk reads .askdesk.yaml (or .askdesk.toml) in the current directory, or
the file named by --config. A global config at ~/.config/askdesk/config.yaml
provides defaults. Local settings override global settings, and flags
override both.

Note: config set does a YAML round-trip and will not preserve comments.
TOML files must be edited directly.`,
}

// configGetCmd retrieves a configuration value by dot-notation key path.
var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Long: `Get the effective value of a configuration key, after defaults, the global
file and the local file are layered.

Examples:
  askdesk config get model
  askdesk config get moderation.enabled
  askdesk config get --global provider`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

// configSetCmd sets a configuration value.
var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the config file.

Values are auto-detected as bool, int, float, or string.
moderation.extra_patterns takes a comma-separated list.
By default, writes to .askdesk.yaml in the current directory (or --config).
Use --global to write to ~/.config/askdesk/config.yaml.

Examples:
  askdesk config set model gpt-4.1-mini
  askdesk config set temperature 0.2
  askdesk config set moderation.enabled false
  askdesk config set moderation.extra_patterns "jailbreak,developer mode"
  askdesk config set --global provider anthropic`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

// configListCmd lists all configuration values with their source.
var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configuration values",
	Long: `List every effective configuration value, annotated with where it comes
from: the built-in defaults, the global config, or the local config.`,
	Args: cobra.NoArgs,
	RunE: runConfigList,
}

func init() {
	configGetCmd.Flags().BoolVar(&configGlobal, "global", false, "use global config (~/.config/askdesk/config.yaml)")
	configSetCmd.Flags().BoolVar(&configGlobal, "global", false, "write to global config (~/.config/askdesk/config.yaml)")

	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configListCmd)
}

// resetConfigFlags resets config command flags for testing.
func resetConfigFlags() {
	configGlobal = false
	if f := configGetCmd.Flags().Lookup("global"); f != nil {
		_ = f.Value.Set("false")
	}
	if f := configSetCmd.Flags().Lookup("global"); f != nil {
		_ = f.Value.Set("false")
	}
}

// localConfigPath is the file config set writes to without --global.
func localConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return filepath.Join(".", config.FileName)
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	var cfg *config.Config
	var err error
	if configGlobal {
		cfg, err = config.LoadGlobal()
	} else {
		cfg, err = config.Resolve(".", configPath)
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	val, err := config.GetValue(cfg, args[0])
	if err != nil {
		return err
	}
	if args[0] == "api_key" {
		val = maskSecret(val)
	}
	return printValue(cmd, val)
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	keyPath := args[0]
	rawValue := args[1]

	if err := config.ValidateKeyPath(keyPath); err != nil {
		return err
	}

	targetPath := localConfigPath()
	if configGlobal {
		targetPath = config.GlobalConfigPath()
	}

	data, err := config.LoadRaw(targetPath)
	if err != nil {
		return fmt.Errorf("loading config file: %w", err)
	}

	if err := config.SetValue(data, keyPath, rawValue); err != nil {
		return fmt.Errorf("setting value: %w", err)
	}

	// Round-trip validate before writing anything back.
	validCfg, err := config.FromMap(data)
	if err != nil {
		return fmt.Errorf("invalid config after set: %w", err)
	}
	if err := config.Validate(validCfg); err != nil {
		return err
	}

	if err := config.WriteFile(targetPath, data); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	shown := rawValue
	if keyPath == "api_key" {
		shown = "[REDACTED]"
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s in %s\n", keyPath, shown, targetPath)
	return nil
}

func runConfigList(cmd *cobra.Command, _ []string) error {
	w := cmd.OutOrStdout()

	globalCfg, err := config.LoadGlobal()
	if err != nil {
		return fmt.Errorf("loading global config: %w", err)
	}
	var localCfg *config.Config
	if configPath != "" {
		localCfg, err = config.Load(configPath)
	} else {
		localCfg, _, err = config.LoadLocal(".")
	}
	if err != nil {
		return fmt.Errorf("loading local config: %w", err)
	}

	type entry struct {
		value  any
		source string
	}
	seen := make(map[string]entry)

	layers := []struct {
		cfg    *config.Config
		source string
	}{
		{config.Defaults(), "default"},
		{globalCfg, "global"},
		{localCfg, "local"},
	}
	for _, layer := range layers {
		m, err := config.ToMap(layer.cfg)
		if err != nil {
			return err
		}
		for k, v := range config.FlattenMap(m, "") {
			seen[k] = entry{value: v, source: layer.source}
		}
	}

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	globalColor := color.New(color.FgCyan)
	localColor := color.New(color.FgGreen)
	defaultColor := color.New(color.Faint)

	for _, k := range keys {
		e := seen[k]
		val := e.value
		if k == "api_key" {
			val = maskSecret(val)
		}
		_, _ = fmt.Fprintf(w, "%s = %v %s\n", k, val, formatSource(e.source, defaultColor, globalColor, localColor))
	}
	return nil
}

// printValue outputs a value: scalars as plain text, maps/slices as YAML.
func printValue(cmd *cobra.Command, val any) error {
	switch v := val.(type) {
	case map[string]any, []any:
		data, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprint(cmd.OutOrStdout(), string(data))
	default:
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), v)
	}
	return nil
}

func maskSecret(v any) any {
	if s, ok := v.(string); ok && s != "" {
		return "[REDACTED]"
	}
	return v
}

// formatSource returns a colorized source annotation.
func formatSource(source string, defaultColor, globalColor, localColor *color.Color) string {
	switch source {
	case "default":
		return defaultColor.Sprintf("(default)")
	case "global":
		return globalColor.Sprintf("(global)")
	case "local":
		return localColor.Sprintf("(local)")
	default:
		return fmt.Sprintf("(%s)", source)
	}
}
