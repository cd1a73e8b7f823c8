// Copyright 2026 The Askdesk Authors
// SPDX-License-Identifier: MIT

// Package pricing estimates the dollar cost of a model call from its token usage.
package pricing

import "sort"

// FallbackModel is the tier used for models missing from the table.
const FallbackModel = "gpt-4o-mini"

// ModelPricing defines per-1K token costs for a model.
type ModelPricing struct {
	Model          string  `json:"model" yaml:"model" toml:"model"`
	PromptCost     float64 `json:"prompt_cost_per_1k" yaml:"prompt_cost_per_1k" toml:"prompt_cost_per_1k"`
	CompletionCost float64 `json:"completion_cost_per_1k" yaml:"completion_cost_per_1k" toml:"completion_cost_per_1k"`
}

var builtin = []ModelPricing{
	{Model: "gpt-5", PromptCost: 0.00125, CompletionCost: 0.01},
	{Model: "gpt-5-mini", PromptCost: 0.00025, CompletionCost: 0.002},
	{Model: "gpt-5-nano", PromptCost: 0.00005, CompletionCost: 0.0004},
	{Model: "gpt-4.1", PromptCost: 0.002, CompletionCost: 0.008},
	{Model: "gpt-4.1-mini", PromptCost: 0.0004, CompletionCost: 0.0016},
	{Model: "gpt-4.1-nano", PromptCost: 0.0001, CompletionCost: 0.0004},
	{Model: "gpt-4o", PromptCost: 0.0025, CompletionCost: 0.01},
	{Model: "gpt-4o-mini", PromptCost: 0.00015, CompletionCost: 0.0006},
	{Model: "o1", PromptCost: 0.015, CompletionCost: 0.06},
	{Model: "o1-mini", PromptCost: 0.0011, CompletionCost: 0.0044},
	{Model: "o3", PromptCost: 0.002, CompletionCost: 0.008},
	{Model: "o3-mini", PromptCost: 0.0011, CompletionCost: 0.0044},
	{Model: "o4-mini", PromptCost: 0.0011, CompletionCost: 0.0044},
	{Model: "claude-sonnet-4-5", PromptCost: 0.003, CompletionCost: 0.015},
	{Model: "claude-haiku-4-5", PromptCost: 0.001, CompletionCost: 0.005},
}

// Table maps model identifiers to their rates. The zero value is not usable;
// build one with New.
type Table struct {
	rates map[string]ModelPricing
}

// New returns the built-in table with overrides applied on top. An override
// for an existing model replaces its rates.
func New(overrides ...ModelPricing) *Table {
	t := &Table{rates: make(map[string]ModelPricing, len(builtin)+len(overrides))}
	for _, p := range builtin {
		t.rates[p.Model] = p
	}
	for _, p := range overrides {
		if p.Model == "" {
			continue
		}
		t.rates[p.Model] = p
	}
	return t
}

// Lookup returns the rates for model and whether it was found. Unknown models
// get the fallback tier.
func (t *Table) Lookup(model string) (ModelPricing, bool) {
	if p, ok := t.rates[model]; ok {
		return p, true
	}
	return t.rates[FallbackModel], false
}

// Cost returns the estimated cost in USD. Negative token counts count as zero.
func (t *Table) Cost(model string, promptTokens, completionTokens int) float64 {
	p, _ := t.Lookup(model)
	if promptTokens < 0 {
		promptTokens = 0
	}
	if completionTokens < 0 {
		completionTokens = 0
	}
	return (float64(promptTokens)/1000)*p.PromptCost +
		(float64(completionTokens)/1000)*p.CompletionCost
}

// Models lists every model in the table, sorted.
func (t *Table) Models() []string {
	out := make([]string, 0, len(t.rates))
	for m := range t.rates {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

var defaultTable = New()

// Cost prices a call against the built-in table.
func Cost(model string, promptTokens, completionTokens int) float64 {
	return defaultTable.Cost(model, promptTokens, completionTokens)
}
