// Copyright 2026 The Askdesk Authors
// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate checks all fields in the config and returns all errors at once.
func Validate(cfg *Config) error {
	var errs []string

	switch cfg.Provider {
	case "", ProviderOpenAI, ProviderAnthropic:
	default:
		errs = append(errs, fmt.Sprintf("provider: invalid value %q (must be openai or anthropic)", cfg.Provider))
	}

	if cfg.Temperature != nil && (*cfg.Temperature < 0 || *cfg.Temperature > 2) {
		errs = append(errs, fmt.Sprintf("temperature: must be between 0.0 and 2.0, got %g", *cfg.Temperature))
	}

	if cfg.MaxTokens < 0 {
		errs = append(errs, fmt.Sprintf("max_tokens: must be non-negative, got %d", cfg.MaxTokens))
	}

	if cfg.RequestTimeout != "" {
		d, err := time.ParseDuration(cfg.RequestTimeout)
		switch {
		case err != nil:
			errs = append(errs, fmt.Sprintf("request_timeout: %v", err))
		case d <= 0:
			errs = append(errs, fmt.Sprintf("request_timeout: must be positive, got %s", cfg.RequestTimeout))
		}
	}

	if cfg.MaxQuestionLength < 0 {
		errs = append(errs, fmt.Sprintf("max_question_length: must be non-negative, got %d", cfg.MaxQuestionLength))
	}

	switch strings.ToLower(cfg.LogFormat) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("log_format: invalid value %q (must be text or json)", cfg.LogFormat))
	}

	for i, p := range cfg.Moderation.ExtraPatterns {
		if strings.TrimSpace(p) == "" {
			errs = append(errs, fmt.Sprintf("moderation.extra_patterns[%d]: must not be empty", i))
		}
	}

	for i, p := range cfg.Pricing {
		if p.Model == "" {
			errs = append(errs, fmt.Sprintf("pricing[%d].model: must not be empty", i))
		}
		if p.PromptCost < 0 || p.CompletionCost < 0 {
			errs = append(errs, fmt.Sprintf("pricing[%d]: costs must be non-negative", i))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}
