// Copyright 2026 The Askdesk Authors
// SPDX-License-Identifier: MIT

package llm

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	// defaultAnthropicModel is the model used when no override is provided.
	defaultAnthropicModel = "claude-haiku-4-5"

	// defaultAnthropicMaxTokens is the default maximum output tokens per request.
	defaultAnthropicMaxTokens = 500

	// jsonModeInstruction is appended to the system prompt in JSON mode. The
	// Messages API has no response_format switch.
	jsonModeInstruction = "Respond with a single JSON object and nothing else: no markdown fences, no commentary."
)

// AnthropicProvider implements Provider using the official Anthropic SDK.
type AnthropicProvider struct {
	client     anthropic.Client
	model      string
	maxRetries int
}

// Compile-time check that AnthropicProvider satisfies the Provider interface.
var _ Provider = (*AnthropicProvider)(nil)

// AnthropicOption configures an AnthropicProvider.
type AnthropicOption func(*anthropicConfig)

type anthropicConfig struct {
	apiKey     string
	model      string
	baseURL    string
	maxRetries int
}

// WithAPIKey sets the API key. If not provided, the provider reads
// ANTHROPIC_API_KEY from the environment.
func WithAPIKey(key string) AnthropicOption {
	return func(c *anthropicConfig) {
		c.apiKey = key
	}
}

// WithModel overrides the default model for all requests.
func WithModel(model string) AnthropicOption {
	return func(c *anthropicConfig) {
		c.model = model
	}
}

// WithBaseURL points the client at a different Messages API endpoint.
func WithBaseURL(url string) AnthropicOption {
	return func(c *anthropicConfig) {
		c.baseURL = url
	}
}

// WithMaxRetries sets the SDK's retry count. askdesk issues exactly one
// request per query, so the default is zero.
func WithMaxRetries(n int) AnthropicOption {
	return func(c *anthropicConfig) {
		c.maxRetries = n
	}
}

// NewAnthropicProvider creates a new Anthropic provider.
// It returns an error if no API key is available (neither via option nor env).
func NewAnthropicProvider(opts ...AnthropicOption) (*AnthropicProvider, error) {
	cfg := anthropicConfig{
		model: defaultAnthropicModel,
	}
	for _, o := range opts {
		o(&cfg)
	}

	apiKey := cfg.apiKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, errors.New("llm: ANTHROPIC_API_KEY not set and no API key provided")
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(cfg.maxRetries),
	}
	if cfg.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.baseURL))
	}

	client := anthropic.NewClient(clientOpts...)

	return &AnthropicProvider{
		client:     client,
		model:      cfg.model,
		maxRetries: cfg.maxRetries,
	}, nil
}

// Complete sends a completion request to the Anthropic Messages API.
func (p *AnthropicProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	model := p.model
	if req.Model != "" {
		model = req.Model
	}

	maxTokens := int64(defaultAnthropicMaxTokens)
	if req.MaxTokens > 0 {
		maxTokens = int64(req.MaxTokens)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}

	system := req.SystemPrompt
	if req.JSONMode {
		if system != "" {
			system += "\n\n"
		}
		system += jsonModeInstruction
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: system},
		}
	}

	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic: completion failed: %w", err)
	}

	// Extract text from content blocks.
	var content string
	for _, block := range msg.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			content += variant.Text
		}
	}

	return &Response{
		Content: content,
		Model:   string(msg.Model),
		Usage: Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		},
	}, nil
}

// Model returns the default model configured for this provider.
func (p *AnthropicProvider) Model() string {
	return p.model
}

// MaxRetries returns the configured max retry count.
func (p *AnthropicProvider) MaxRetries() int {
	return p.maxRetries
}
