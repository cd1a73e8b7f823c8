// Copyright 2026 The Askdesk Authors
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/davetashner/askdesk/internal/config"
	"github.com/davetashner/askdesk/internal/llm"
	askdesklog "github.com/davetashner/askdesk/internal/log"
	"github.com/davetashner/askdesk/internal/metrics"
	"github.com/davetashner/askdesk/internal/pricing"
	"github.com/davetashner/askdesk/internal/prompt"
	"github.com/davetashner/askdesk/internal/query"
	"github.com/davetashner/askdesk/internal/redact"
	"github.com/davetashner/askdesk/internal/safety"
)

// app holds the services built from the resolved configuration.
type app struct {
	cfg       *config.Config
	processor *query.Processor
	recorder  *metrics.Recorder
}

// newProviders builds the generation provider and, when one is available,
// a moderator. Tests replace it to avoid network access.
var newProviders = buildProviders

// loadConfig resolves configuration from files and global flags and
// validates the result.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Resolve(".", configPath)
	if err != nil {
		return nil, exitError(ExitInvalidArgs, "askdesk: loading config: %v", err)
	}

	over := &config.Config{
		Provider:   providerFlag,
		Model:      modelFlag,
		MetricsDir: metricsDir,
	}
	if noModeration {
		disabled := false
		over.Moderation.Enabled = &disabled
	}
	cfg = config.Merge(cfg, over)
	if modelFlag == "" {
		cfg.ApplyProviderDefaults()
	}

	if err := config.Validate(cfg); err != nil {
		return nil, exitError(ExitInvalidArgs, "askdesk: %v", err)
	}

	redact.Register(cfg.APIKey)

	if cfg.LogFormat != config.DefaultLogFormat {
		askdesklog.SetupWithOptions(askdesklog.Options{Verbose: verbose, Quiet: quiet, Format: cfg.LogFormat})
	}
	return cfg, nil
}

// newApp wires the processor and recorder from configuration.
func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	tmpl, err := prompt.Load(cfg.PromptFile)
	if err != nil {
		return nil, exitError(ExitInvalidArgs, "askdesk: %v", err)
	}

	provider, moderator, err := newProviders(cfg)
	if err != nil {
		return nil, exitError(ExitStartupFailure, "askdesk: %v", err)
	}

	rec, err := metrics.NewRecorder(cfg.MetricsDir, metrics.WithFileSystem(cmdFS))
	if err != nil {
		return nil, exitError(ExitStartupFailure, "askdesk: %v", err)
	}

	screenOpts := []safety.Option{safety.WithExtraPatterns(cfg.Moderation.ExtraPatterns...)}
	if cfg.ModerationEnabled() && moderator != nil {
		screenOpts = append(screenOpts, safety.WithModerator(moderator))
	}

	timeout, _ := cfg.Timeout()
	proc := query.NewProcessor(provider,
		query.WithScreener(safety.New(screenOpts...)),
		query.WithRecorder(rec),
		query.WithTemplate(tmpl),
		query.WithPricing(pricing.New(cfg.Pricing...)),
		query.WithModel(cfg.Model),
		query.WithTemperature(cfg.TemperatureOr(config.DefaultTemperature)),
		query.WithMaxTokens(cfg.MaxTokens),
		query.WithTimeout(timeout),
		query.WithMaxQuestionLength(cfg.MaxQuestionLength),
	)

	slog.Debug("askdesk configured",
		"provider", cfg.Provider,
		"model", cfg.Model,
		"moderation", cfg.ModerationEnabled() && moderator != nil,
		"metrics_dir", cfg.MetricsDir,
		"prompt", tmpl.Source(),
		"few_shot_examples", tmpl.FewShotCount(),
	)

	return &app{cfg: cfg, processor: proc, recorder: rec}, nil
}

// buildProviders returns the configured generation provider. Moderation
// always uses the OpenAI endpoint; with the Anthropic provider it is only
// available when OPENAI_API_KEY is set.
func buildProviders(cfg *config.Config) (llm.Provider, llm.Moderator, error) {
	switch cfg.Provider {
	case config.ProviderAnthropic:
		p, err := llm.NewAnthropicProvider(
			llm.WithAPIKey(cfg.APIKey),
			llm.WithModel(cfg.Model),
			llm.WithBaseURL(cfg.BaseURL),
		)
		if err != nil {
			return nil, nil, err
		}
		if !cfg.ModerationEnabled() {
			return p, nil, nil
		}
		if os.Getenv("OPENAI_API_KEY") == "" {
			slog.Warn("moderation unavailable for anthropic provider without OPENAI_API_KEY; running adversarial check only")
			return p, nil, nil
		}
		mod, err := llm.NewOpenAIProvider(llm.WithModerationModel(cfg.Moderation.Model))
		if err != nil {
			return nil, nil, fmt.Errorf("moderation client: %w", err)
		}
		return p, mod, nil

	default:
		p, err := llm.NewOpenAIProvider(
			llm.WithOpenAIKey(cfg.APIKey),
			llm.WithOpenAIModel(cfg.Model),
			llm.WithOpenAIBaseURL(cfg.BaseURL),
			llm.WithModerationModel(cfg.Moderation.Model),
		)
		if err != nil {
			return nil, nil, err
		}
		return p, p, nil
	}
}
