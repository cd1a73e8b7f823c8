// Copyright 2026 The Askdesk Authors
// SPDX-License-Identifier: MIT

// Package query turns one customer question into a response envelope: it
// screens the question, issues a single generation call, validates the JSON
// reply and records metrics.
package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/davetashner/askdesk/internal/llm"
	"github.com/davetashner/askdesk/internal/metrics"
	"github.com/davetashner/askdesk/internal/pricing"
	"github.com/davetashner/askdesk/internal/prompt"
	"github.com/davetashner/askdesk/internal/redact"
	"github.com/davetashner/askdesk/internal/safety"
)

// Defaults applied when no option overrides them.
const (
	DefaultModel             = "gpt-4o-mini"
	DefaultTemperature       = 0.7
	DefaultMaxTokens         = 500
	DefaultTimeout           = 30 * time.Second
	DefaultMaxQuestionLength = 2000

	// blockedModel is the model name recorded for screened-out questions.
	blockedModel = "moderation"
)

var (
	// ErrEmptyQuestion is returned for empty or whitespace-only questions.
	ErrEmptyQuestion = errors.New("question is empty")

	// ErrQuestionTooLong is returned when a question exceeds the rune limit.
	ErrQuestionTooLong = errors.New("question is too long")
)

var defaultQuestions = []string{
	"How do I reset my password?",
	"My account was charged twice for the same transaction",
	"The application keeps crashing when I try to upload files",
	"What are your business hours?",
	"I want to cancel my subscription",
}

// DefaultQuestions returns the sample questions run when none are given.
func DefaultQuestions() []string {
	out := make([]string, len(defaultQuestions))
	copy(out, defaultQuestions)
	return out
}

// Recorder persists metrics records. *metrics.Recorder satisfies it.
type Recorder interface {
	Record(metrics.Record) (metrics.Record, error)
}

// Processor handles questions one at a time. It holds no per-query state and
// may be reused for any number of questions.
type Processor struct {
	provider    llm.Provider
	screener    *safety.Screener
	recorder    Recorder
	template    *prompt.Template
	prices      *pricing.Table
	model       string
	temperature float64
	maxTokens   int
	timeout     time.Duration
	maxLength   int
}

// Option configures a Processor.
type Option func(*Processor)

// WithScreener sets the safety screener. The default runs the adversarial
// check only.
func WithScreener(s *safety.Screener) Option {
	return func(p *Processor) { p.screener = s }
}

// WithRecorder sets where metrics records go. Without one nothing is recorded.
func WithRecorder(r Recorder) Option {
	return func(p *Processor) { p.recorder = r }
}

// WithTemplate sets the prompt template.
func WithTemplate(t *prompt.Template) Option {
	return func(p *Processor) { p.template = t }
}

// WithPricing sets the rate table used for cost estimates.
func WithPricing(t *pricing.Table) Option {
	return func(p *Processor) { p.prices = t }
}

// WithModel sets the generation model.
func WithModel(model string) Option {
	return func(p *Processor) { p.model = model }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(p *Processor) { p.temperature = t }
}

// WithMaxTokens caps output tokens per call.
func WithMaxTokens(n int) Option {
	return func(p *Processor) { p.maxTokens = n }
}

// WithTimeout bounds the generation call.
func WithTimeout(d time.Duration) Option {
	return func(p *Processor) { p.timeout = d }
}

// WithMaxQuestionLength sets the rune limit for questions.
func WithMaxQuestionLength(n int) Option {
	return func(p *Processor) { p.maxLength = n }
}

// NewProcessor returns a Processor that sends questions to provider.
func NewProcessor(provider llm.Provider, opts ...Option) *Processor {
	p := &Processor{
		provider:    provider,
		model:       DefaultModel,
		temperature: DefaultTemperature,
		maxTokens:   DefaultMaxTokens,
		timeout:     DefaultTimeout,
		maxLength:   DefaultMaxQuestionLength,
	}
	for _, o := range opts {
		o(p)
	}
	if p.screener == nil {
		p.screener = safety.New()
	}
	if p.template == nil {
		p.template = prompt.Default()
	}
	if p.prices == nil {
		p.prices = pricing.New()
	}
	return p
}

// Model returns the generation model.
func (p *Processor) Model() string {
	return p.model
}

// ValidateQuestion checks a question against the empty and length rules.
func (p *Processor) ValidateQuestion(question string) error {
	if strings.TrimSpace(question) == "" {
		return ErrEmptyQuestion
	}
	if n := utf8.RuneCountInString(question); n > p.maxLength {
		return fmt.Errorf("%w: %d characters, limit is %d", ErrQuestionTooLong, n, p.maxLength)
	}
	return nil
}

// Process answers one question. It always returns an envelope with status
// success, blocked or error, and never panics.
func (p *Processor) Process(ctx context.Context, question string) (env Envelope) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("query processing panicked", "panic", r)
			env = Envelope{Status: StatusError, Error: redact.String(fmt.Sprintf("internal error: %v", r))}
		}
	}()

	if err := p.ValidateQuestion(question); err != nil {
		return Envelope{Status: StatusError, Error: "invalid question: " + err.Error()}
	}

	queryID := metrics.NewQueryID()
	logQuestion := metrics.Truncate(question, metrics.QuestionLogLimit)

	screenStart := time.Now()
	screen := p.screen(ctx, question)
	screenLatency := msSince(screenStart)

	if screen.Blocked {
		return p.blocked(queryID, question, screen, screenLatency)
	}

	meta := &Metadata{
		QueryID:    queryID,
		Model:      p.model,
		Moderation: string(screen.Moderation),
	}

	start := time.Now()
	resp, err := p.generate(ctx, question)
	meta.LatencyMS = metrics.Round(msSince(start), 2)

	if err != nil {
		msg := redact.String("model request failed: " + err.Error())
		p.record(metrics.Record{
			QueryID:   queryID,
			Question:  question,
			Model:     p.model,
			Status:    StatusError,
			LatencyMS: meta.LatencyMS,
		})
		slog.Error("model request failed", "query_id", queryID, "question", logQuestion, "error", redact.String(err.Error()))
		return Envelope{Status: StatusError, Metadata: meta, Error: msg}
	}

	in, out := resp.Usage.InputTokens, resp.Usage.OutputTokens
	meta.Tokens = &Tokens{Prompt: in, Completion: out, Total: in + out}
	meta.EstimatedCostUSD = metrics.Round(p.prices.Cost(p.model, in, out), 6)

	rec := metrics.Record{
		QueryID:          queryID,
		Question:         question,
		Model:            p.model,
		TokensPrompt:     in,
		TokensCompletion: out,
		LatencyMS:        meta.LatencyMS,
		EstimatedCostUSD: meta.EstimatedCostUSD,
	}

	answer, err := ParseAnswer(resp.Content)
	if err != nil {
		rec.Status = StatusError
		p.record(rec)
		slog.Warn("invalid model response", "query_id", queryID, "question", logQuestion, "error", err)
		return Envelope{Status: StatusError, Metadata: meta, Error: "invalid model response: " + err.Error()}
	}

	rec.Status = StatusSuccess
	p.record(rec)
	slog.Info("query answered",
		"query_id", queryID,
		"question", logQuestion,
		"category", answer.Category,
		"tokens", meta.Tokens.Total,
		"latency_ms", meta.LatencyMS,
		"cost_usd", meta.EstimatedCostUSD,
	)
	return Envelope{Status: StatusSuccess, Data: answer, Metadata: meta}
}

func (p *Processor) blocked(queryID, question string, screen safety.Result, latency float64) Envelope {
	latency = metrics.Round(latency, 2)
	meta := &Metadata{
		QueryID:           queryID,
		Model:             blockedModel,
		Tokens:            &Tokens{},
		LatencyMS:         latency,
		SafetyFlagged:     true,
		FlaggedCategories: screen.Categories,
		DetectedPatterns:  screen.Patterns,
		Moderation:        string(screen.Moderation),
	}

	p.record(metrics.Record{
		QueryID:          queryID,
		Question:         question,
		Model:            blockedModel,
		Status:           StatusBlocked,
		LatencyMS:        latency,
		SafetyFlagged:    true,
		SafetyCategories: blockedCategories(screen),
	})

	slog.Info("query blocked", "query_id", queryID, "reason", screen.Reason, "risk", screen.RiskLevel)
	return Envelope{Status: StatusBlocked, Data: blockedAnswer(), Metadata: meta}
}

// screen runs the safety checks under the request timeout. A moderation call
// that outlives it ends as VerdictUnavailable and the question fails open.
func (p *Processor) screen(ctx context.Context, question string) safety.Result {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.screener.Screen(ctx, question)
}

// blockedCategories names what tripped the screener: moderation categories,
// or the matched injection patterns tagged as such.
func blockedCategories(screen safety.Result) []string {
	if len(screen.Categories) > 0 {
		return screen.Categories
	}
	out := make([]string, 0, len(screen.Patterns))
	for _, pat := range screen.Patterns {
		out = append(out, "adversarial:"+pat)
	}
	return out
}

// generate issues exactly one completion call under the request timeout. A
// provider panic is returned as an error.
func (p *Processor) generate(ctx context.Context, question string) (resp *llm.Response, err error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			resp, err = nil, fmt.Errorf("provider panic: %v", r)
		}
	}()

	temp := p.temperature
	resp, err = p.provider.Complete(ctx, llm.Request{
		Prompt:       p.template.Fill(question),
		SystemPrompt: prompt.SystemPrompt,
		Model:        p.model,
		MaxTokens:    p.maxTokens,
		Temperature:  &temp,
		JSONMode:     true,
	})
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, errors.New("provider returned no response")
	}
	return resp, nil
}

func (p *Processor) record(rec metrics.Record) {
	if p.recorder == nil {
		return
	}
	if _, err := p.recorder.Record(rec); err != nil {
		slog.Error("metrics write failed", "query_id", rec.QueryID, "error", err)
	}
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}
