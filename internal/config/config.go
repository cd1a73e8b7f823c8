// Copyright 2026 The Askdesk Authors
// SPDX-License-Identifier: MIT

// Package config handles askdesk configuration files.
//
// Settings resolve in order: built-in defaults, the global file under
// ~/.config/askdesk, a local .askdesk.yaml (or the --config path), then CLI
// flags. Files may be YAML or TOML, chosen by extension, and values may
// reference environment variables as ${VAR}.
package config

import (
	"time"

	"github.com/davetashner/askdesk/internal/pricing"
)

// FileName is the local config file looked up in the working directory.
const FileName = ".askdesk.yaml"

// TOMLFileName is the TOML alternative to FileName.
const TOMLFileName = ".askdesk.toml"

// Provider names accepted in the provider field.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Built-in defaults.
const (
	DefaultProvider          = ProviderOpenAI
	DefaultModel             = "gpt-4o-mini"
	DefaultAnthropicModel    = "claude-haiku-4-5"
	DefaultTemperature       = 0.7
	DefaultMaxTokens         = 500
	DefaultRequestTimeout    = "30s"
	DefaultMaxQuestionLength = 2000
	DefaultMetricsDir        = "metrics"
	DefaultLogFormat         = "text"
)

// Config represents the contents of a config file. Zero values mean "not
// set" so that files can be layered with Merge.
type Config struct {
	Provider          string                 `yaml:"provider,omitempty" toml:"provider,omitempty"`
	Model             string                 `yaml:"model,omitempty" toml:"model,omitempty"`
	APIKey            string                 `yaml:"api_key,omitempty" toml:"api_key,omitempty"`
	BaseURL           string                 `yaml:"base_url,omitempty" toml:"base_url,omitempty"`
	Temperature       *float64               `yaml:"temperature,omitempty" toml:"temperature,omitempty"`
	MaxTokens         int                    `yaml:"max_tokens,omitempty" toml:"max_tokens,omitempty"`
	RequestTimeout    string                 `yaml:"request_timeout,omitempty" toml:"request_timeout,omitempty"`
	MaxQuestionLength int                    `yaml:"max_question_length,omitempty" toml:"max_question_length,omitempty"`
	MetricsDir        string                 `yaml:"metrics_dir,omitempty" toml:"metrics_dir,omitempty"`
	PromptFile        string                 `yaml:"prompt_file,omitempty" toml:"prompt_file,omitempty"`
	LogFormat         string                 `yaml:"log_format,omitempty" toml:"log_format,omitempty"`
	Moderation        ModerationConfig       `yaml:"moderation,omitempty" toml:"moderation,omitempty"`
	Pricing           []pricing.ModelPricing `yaml:"pricing,omitempty" toml:"pricing,omitempty"`
}

// ModerationConfig holds safety screening settings.
type ModerationConfig struct {
	Enabled       *bool    `yaml:"enabled,omitempty" toml:"enabled,omitempty"`
	Model         string   `yaml:"model,omitempty" toml:"model,omitempty"`
	ExtraPatterns []string `yaml:"extra_patterns,omitempty" toml:"extra_patterns,omitempty"`
}

// Defaults returns a Config with every field set to its built-in value.
func Defaults() *Config {
	temp := DefaultTemperature
	enabled := true
	return &Config{
		Provider:          DefaultProvider,
		Model:             DefaultModel,
		Temperature:       &temp,
		MaxTokens:         DefaultMaxTokens,
		RequestTimeout:    DefaultRequestTimeout,
		MaxQuestionLength: DefaultMaxQuestionLength,
		MetricsDir:        DefaultMetricsDir,
		LogFormat:         DefaultLogFormat,
		Moderation:        ModerationConfig{Enabled: &enabled},
	}
}

// Timeout parses RequestTimeout, falling back to the default when unset.
// Validate rejects unparsable values, so callers can ignore the error after
// validation.
func (c *Config) Timeout() (time.Duration, error) {
	s := c.RequestTimeout
	if s == "" {
		s = DefaultRequestTimeout
	}
	return time.ParseDuration(s)
}

// ModerationEnabled reports whether the moderation check should run.
func (c *Config) ModerationEnabled() bool {
	return c.Moderation.Enabled == nil || *c.Moderation.Enabled
}

// TemperatureOr returns the configured temperature or def.
func (c *Config) TemperatureOr(def float64) float64 {
	if c.Temperature == nil {
		return def
	}
	return *c.Temperature
}

// ApplyProviderDefaults replaces the OpenAI default model with the Anthropic
// one when the provider is anthropic and the model was left at its default.
func (c *Config) ApplyProviderDefaults() {
	if c.Provider == ProviderAnthropic && (c.Model == "" || c.Model == DefaultModel) {
		c.Model = DefaultAnthropicModel
	}
}
