// Copyright 2026 The Askdesk Authors
// SPDX-License-Identifier: MIT

package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// defaultOpenAIModel is the model used when no override is provided.
	defaultOpenAIModel = "gpt-4o-mini"

	// defaultOpenAIMaxTokens is the default maximum output tokens per request.
	defaultOpenAIMaxTokens = 500
)

// reasoningPrefixes identify models that take max_completion_tokens and only
// accept the default temperature.
var reasoningPrefixes = []string{"gpt-5", "o1", "o3", "o4"}

// OpenAIProvider implements Provider and Moderator using the go-openai client.
type OpenAIProvider struct {
	client          *openai.Client
	model           string
	moderationModel string
}

// Compile-time checks that OpenAIProvider satisfies both interfaces.
var (
	_ Provider  = (*OpenAIProvider)(nil)
	_ Moderator = (*OpenAIProvider)(nil)
)

// OpenAIOption configures an OpenAIProvider.
type OpenAIOption func(*openaiConfig)

type openaiConfig struct {
	apiKey          string
	model           string
	baseURL         string
	moderationModel string
}

// WithOpenAIKey sets the API key. If not provided, the provider reads
// OPENAI_API_KEY from the environment.
func WithOpenAIKey(key string) OpenAIOption {
	return func(c *openaiConfig) {
		c.apiKey = key
	}
}

// WithOpenAIModel overrides the default model for all requests.
func WithOpenAIModel(model string) OpenAIOption {
	return func(c *openaiConfig) {
		c.model = model
	}
}

// WithOpenAIBaseURL points the client at an OpenAI-compatible endpoint.
func WithOpenAIBaseURL(url string) OpenAIOption {
	return func(c *openaiConfig) {
		c.baseURL = url
	}
}

// WithModerationModel selects the moderation model. Empty lets the service
// pick its default.
func WithModerationModel(model string) OpenAIOption {
	return func(c *openaiConfig) {
		c.moderationModel = model
	}
}

// NewOpenAIProvider creates a new OpenAI provider.
// It returns an error if no API key is available (neither via option nor env).
func NewOpenAIProvider(opts ...OpenAIOption) (*OpenAIProvider, error) {
	cfg := openaiConfig{
		model: defaultOpenAIModel,
	}
	for _, o := range opts {
		o(&cfg)
	}

	apiKey := cfg.apiKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, errors.New("llm: OPENAI_API_KEY not set and no API key provided")
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if cfg.baseURL != "" {
		clientConfig.BaseURL = cfg.baseURL
	}

	return &OpenAIProvider{
		client:          openai.NewClientWithConfig(clientConfig),
		model:           cfg.model,
		moderationModel: cfg.moderationModel,
	}, nil
}

// Complete sends a chat completion request. An empty choice list is not an
// error: the caller still gets the usage and an empty Content.
func (p *OpenAIProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	model := p.model
	if req.Model != "" {
		model = req.Model
	}

	maxTokens := defaultOpenAIMaxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}

	var messages []openai.ChatCompletionMessage
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	params := openai.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
	}

	if IsReasoningModel(model) {
		params.MaxCompletionTokens = maxTokens
		params.Temperature = 1
	} else {
		params.MaxTokens = maxTokens
		if req.Temperature != nil {
			params.Temperature = float32(*req.Temperature)
			// Temperature is omitempty on the wire; zero must still be sent.
			if params.Temperature == 0 {
				params.Temperature = math.SmallestNonzeroFloat32
			}
		}
	}

	if req.JSONMode {
		params.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai: completion failed: %w", err)
	}

	var content string
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}

	served := resp.Model
	if served == "" {
		served = model
	}

	return &Response{
		Content: content,
		Model:   served,
		Usage: Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}, nil
}

// Moderate sends text to the moderation endpoint and reports the blocking
// categories it flagged.
func (p *OpenAIProvider) Moderate(ctx context.Context, text string) (*Moderation, error) {
	resp, err := p.client.Moderations(ctx, openai.ModerationRequest{
		Input: text,
		Model: p.moderationModel,
	})
	if err != nil {
		return nil, fmt.Errorf("openai: moderation failed: %w", err)
	}
	if len(resp.Results) == 0 {
		return nil, errors.New("openai: moderation returned no results")
	}

	r := resp.Results[0]
	flags := map[string]bool{
		"hate":                   r.Categories.Hate,
		"hate/threatening":       r.Categories.HateThreatening,
		"harassment":             r.Categories.Harassment,
		"harassment/threatening": r.Categories.HarassmentThreatening,
		"self-harm":              r.Categories.SelfHarm,
		"self-harm/intent":       r.Categories.SelfHarmIntent,
		"self-harm/instructions": r.Categories.SelfHarmInstructions,
		"sexual":                 r.Categories.Sexual,
		"sexual/minors":          r.Categories.SexualMinors,
		"violence":               r.Categories.Violence,
		"violence/graphic":       r.Categories.ViolenceGraphic,
	}
	scores := map[string]float64{
		"hate":                   float64(r.CategoryScores.Hate),
		"hate/threatening":       float64(r.CategoryScores.HateThreatening),
		"harassment":             float64(r.CategoryScores.Harassment),
		"harassment/threatening": float64(r.CategoryScores.HarassmentThreatening),
		"self-harm":              float64(r.CategoryScores.SelfHarm),
		"self-harm/intent":       float64(r.CategoryScores.SelfHarmIntent),
		"self-harm/instructions": float64(r.CategoryScores.SelfHarmInstructions),
		"sexual":                 float64(r.CategoryScores.Sexual),
		"sexual/minors":          float64(r.CategoryScores.SexualMinors),
		"violence":               float64(r.CategoryScores.Violence),
		"violence/graphic":       float64(r.CategoryScores.ViolenceGraphic),
	}

	m := &Moderation{Flagged: r.Flagged, Scores: scores}
	if r.Flagged {
		for _, c := range BlockingCategories {
			if flags[c] {
				m.Categories = append(m.Categories, c)
			}
		}
	}
	return m, nil
}

// Model returns the default model configured for this provider.
func (p *OpenAIProvider) Model() string {
	return p.model
}

// IsReasoningModel reports whether model belongs to a family that requires
// max_completion_tokens and a fixed temperature of 1.
func IsReasoningModel(model string) bool {
	for _, prefix := range reasoningPrefixes {
		if strings.HasPrefix(model, prefix) {
			return true
		}
	}
	return false
}
