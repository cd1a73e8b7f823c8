// Copyright 2026 The Askdesk Authors
// SPDX-License-Identifier: MIT

// Package metrics appends one record per query to a structured JSONL log and
// a tabular CSV log, and computes summary statistics from the JSONL log.
package metrics

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"
)

// QuestionLogLimit is the number of runes of the question kept in a record.
const QuestionLogLimit = 100

// timestampLayout is RFC 3339 in UTC with millisecond precision.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// Status values carried by records. They mirror the envelope status.
const (
	StatusSuccess = "success"
	StatusBlocked = "blocked"
	StatusError   = "error"
)

// Record is one metrics log entry.
type Record struct {
	Timestamp        string   `json:"timestamp"`
	QueryID          string   `json:"query_id"`
	Question         string   `json:"question"`
	Model            string   `json:"model"`
	Status           string   `json:"status"`
	TokensPrompt     int      `json:"tokens_prompt"`
	TokensCompletion int      `json:"tokens_completion"`
	TotalTokens      int      `json:"total_tokens"`
	LatencyMS        float64  `json:"latency_ms"`
	EstimatedCostUSD float64  `json:"estimated_cost_usd"`
	SafetyFlagged    bool     `json:"safety_flagged"`
	SafetyCategories []string `json:"safety_categories"`
}

// normalize fills derived fields so every sink sees the same values.
func (r Record) normalize(now time.Time) Record {
	if r.Timestamp == "" {
		r.Timestamp = now.UTC().Format(timestampLayout)
	}
	// Invalid UTF-8 is replaced up front so both logs carry the same text.
	r.QueryID = validUTF8(r.QueryID)
	r.Question = Truncate(validUTF8(r.Question), QuestionLogLimit)
	r.Model = validUTF8(r.Model)
	r.Status = validUTF8(r.Status)
	if r.TokensPrompt < 0 {
		r.TokensPrompt = 0
	}
	if r.TokensCompletion < 0 {
		r.TokensCompletion = 0
	}
	r.TotalTokens = r.TokensPrompt + r.TokensCompletion
	r.LatencyMS = Round(r.LatencyMS, 2)
	r.EstimatedCostUSD = Round(r.EstimatedCostUSD, 6)
	if r.SafetyCategories == nil {
		r.SafetyCategories = []string{}
	} else {
		cats := make([]string, len(r.SafetyCategories))
		for i, c := range r.SafetyCategories {
			cats[i] = validUTF8(c)
		}
		r.SafetyCategories = cats
	}
	return r
}

func validUTF8(s string) string {
	return strings.ToValidUTF8(s, "\uFFFD")
}

// Truncate returns the first n runes of s.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// Round rounds x to dp decimal places.
func Round(x float64, dp int) float64 {
	p := math.Pow(10, float64(dp))
	return math.Round(x*p) / p
}
