// Copyright 2026 The Askdesk Authors
// SPDX-License-Identifier: MIT

// Package llm provides a provider-agnostic LLM client interface and
// implementations for askdesk's query processing and content moderation.
package llm

import "context"

// Provider abstracts an LLM API behind a single synchronous completion method.
type Provider interface {
	// Complete sends a prompt to the LLM and returns the response.
	// Implementations must respect context cancellation and deadlines.
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Moderator classifies text against a content policy.
type Moderator interface {
	// Moderate returns the moderation result for text. A non-nil error means
	// the service could not be reached or answered with an error.
	Moderate(ctx context.Context, text string) (*Moderation, error)
}

// Request describes a single completion request.
type Request struct {
	// Prompt is the user message to send.
	Prompt string

	// Model overrides the provider's default model. If empty, the provider
	// uses its configured default.
	Model string

	// MaxTokens limits the response length. If zero, the provider uses its
	// own default.
	MaxTokens int

	// Temperature controls randomness. If nil, the provider uses its default.
	Temperature *float64

	// SystemPrompt sets the system instruction for the completion.
	SystemPrompt string

	// JSONMode asks the provider to constrain the reply to a single JSON object.
	JSONMode bool
}

// Response holds the result of a completion call.
type Response struct {
	// Content is the text returned by the model.
	Content string

	// Model is the model that actually served the request (may differ from
	// the requested model if the provider remapped it).
	Model string

	// Usage reports token consumption.
	Usage Usage
}

// Usage tracks input and output token counts for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Total returns the sum of input and output tokens.
func (u Usage) Total() int {
	return u.InputTokens + u.OutputTokens
}

// Moderation is the outcome of a single moderation call.
type Moderation struct {
	// Flagged reports whether the service considered the text a violation.
	Flagged bool

	// Categories lists the violated categories, in BlockingCategories order.
	Categories []string

	// Scores maps each blocking category to the service's confidence score.
	Scores map[string]float64
}

// BlockingCategories are the moderation categories that block a query.
var BlockingCategories = []string{
	"hate",
	"hate/threatening",
	"harassment",
	"harassment/threatening",
	"self-harm",
	"self-harm/intent",
	"self-harm/instructions",
	"sexual",
	"sexual/minors",
	"violence",
	"violence/graphic",
}
