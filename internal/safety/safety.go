// Copyright 2026 The Askdesk Authors
// SPDX-License-Identifier: MIT

// Package safety screens incoming questions before they reach the model.
//
// Two checks run in order: a case-insensitive match against known
// prompt-injection phrases, then a call to an external moderation service.
// A moderation outage fails open: the verdict is recorded as Unavailable and
// the question is not blocked.
package safety

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/davetashner/askdesk/internal/llm"
)

// Verdict is the outcome of the moderation check.
type Verdict string

const (
	// VerdictClear means the moderation service did not flag the text.
	VerdictClear Verdict = "clear"
	// VerdictFlagged means the moderation service flagged a blocking category.
	VerdictFlagged Verdict = "flagged"
	// VerdictUnavailable means the moderation call failed.
	VerdictUnavailable Verdict = "unavailable"
	// VerdictSkipped means moderation did not run, either because it is
	// disabled or because the adversarial check already blocked the text.
	VerdictSkipped Verdict = "skipped"
)

// Risk levels derived from the number of matched injection patterns.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// defaultPatterns are the built-in prompt-injection phrases. Matching is a
// lower-case substring test.
var defaultPatterns = []string{
	"ignore previous",
	"ignore all previous",
	"disregard",
	"forget your instructions",
	"new instructions",
	"you are now",
	"system:",
	"act as",
	"pretend you are",
	"override",
}

// DefaultPatterns returns a copy of the built-in injection phrases.
func DefaultPatterns() []string {
	out := make([]string, len(defaultPatterns))
	copy(out, defaultPatterns)
	return out
}

// Result describes the screening decision for one question.
type Result struct {
	// Blocked is true when either check rejected the question.
	Blocked bool `json:"blocked"`

	// Reason explains a block. Empty when not blocked.
	Reason string `json:"reason,omitempty"`

	// Patterns lists the injection phrases found in the question.
	Patterns []string `json:"detected_patterns,omitempty"`

	// RiskLevel grades the adversarial check: low, medium or high.
	RiskLevel string `json:"risk_level"`

	// Moderation is the uncollapsed moderation verdict.
	Moderation Verdict `json:"moderation"`

	// Categories lists the moderation categories that caused a block.
	Categories []string `json:"flagged_categories,omitempty"`

	// ModerationError carries the service error when Moderation is Unavailable.
	ModerationError string `json:"moderation_error,omitempty"`
}

// Screener runs the adversarial and moderation checks. It is safe to share
// across goroutines and keeps no state between calls.
type Screener struct {
	patterns  []string
	moderator llm.Moderator
}

// Option configures a Screener.
type Option func(*Screener)

// WithModerator enables the moderation check. A nil moderator disables it.
func WithModerator(m llm.Moderator) Option {
	return func(s *Screener) {
		s.moderator = m
	}
}

// WithExtraPatterns appends injection phrases to the built-in list.
func WithExtraPatterns(patterns ...string) Option {
	return func(s *Screener) {
		for _, p := range patterns {
			p = strings.ToLower(strings.TrimSpace(p))
			if p != "" {
				s.patterns = append(s.patterns, p)
			}
		}
	}
}

// New builds a Screener. The pattern list is fixed once New returns.
func New(opts ...Option) *Screener {
	s := &Screener{patterns: DefaultPatterns()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Patterns returns a copy of the phrases this screener matches.
func (s *Screener) Patterns() []string {
	out := make([]string, len(s.patterns))
	copy(out, s.patterns)
	return out
}

// DetectAdversarial returns the injection phrases found in text and the
// resulting risk level.
func (s *Screener) DetectAdversarial(text string) ([]string, string) {
	lower := strings.ToLower(text)

	var found []string
	for _, p := range s.patterns {
		if strings.Contains(lower, p) {
			found = append(found, p)
		}
	}

	switch {
	case len(found) > 2:
		return found, RiskHigh
	case len(found) > 0:
		return found, RiskMedium
	default:
		return nil, RiskLow
	}
}

// Moderate runs only the moderation check and returns its explicit verdict.
func (s *Screener) Moderate(ctx context.Context, text string) (Verdict, *llm.Moderation, error) {
	if s.moderator == nil {
		return VerdictSkipped, nil, nil
	}

	m, err := s.moderator.Moderate(ctx, text)
	if err != nil {
		return VerdictUnavailable, nil, err
	}
	if m == nil {
		return VerdictUnavailable, nil, errors.New("moderation returned no result")
	}
	if m.Flagged {
		return VerdictFlagged, m, nil
	}
	return VerdictClear, m, nil
}

// Screen runs both checks. The adversarial check runs first; when it blocks,
// moderation is skipped.
func (s *Screener) Screen(ctx context.Context, question string) Result {
	patterns, risk := s.DetectAdversarial(question)
	res := Result{
		Patterns:   patterns,
		RiskLevel:  risk,
		Moderation: VerdictSkipped,
	}

	if len(patterns) > 0 {
		res.Blocked = true
		res.Reason = "adversarial prompt detected: " + strings.Join(patterns, ", ")
		slog.Info("question blocked by adversarial check", "patterns", patterns, "risk", risk)
		return res
	}

	verdict, m, err := s.Moderate(ctx, question)
	res.Moderation = verdict

	switch verdict {
	case VerdictUnavailable:
		res.ModerationError = err.Error()
		slog.Warn("moderation unavailable, failing open", "error", err)
	case VerdictFlagged:
		res.Blocked = true
		res.Categories = m.Categories
		if len(m.Categories) > 0 {
			res.Reason = "content flagged by moderation: " + strings.Join(m.Categories, ", ")
		} else {
			res.Reason = "content flagged by moderation"
		}
		slog.Info("question blocked by moderation", "categories", m.Categories)
	}

	return res
}

// String summarises the result for logs.
func (r Result) String() string {
	if !r.Blocked {
		return fmt.Sprintf("clear (moderation=%s)", r.Moderation)
	}
	return fmt.Sprintf("blocked: %s", r.Reason)
}
