// Copyright 2026 The Askdesk Authors
// SPDX-License-Identifier: MIT

package query

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Envelope status values.
const (
	StatusSuccess = "success"
	StatusBlocked = "blocked"
	StatusError   = "error"
)

// Answer is the validated structured reply.
type Answer struct {
	Answer             string   `json:"answer"`
	Confidence         float64  `json:"confidence"`
	Actions            []string `json:"actions"`
	Category           string   `json:"category"`
	RequiresEscalation bool     `json:"requires_escalation"`
}

// Tokens reports usage for one generation call.
type Tokens struct {
	Prompt     int `json:"prompt"`
	Completion int `json:"completion"`
	Total      int `json:"total"`
}

// Metadata accompanies every envelope that reached the screening step.
type Metadata struct {
	QueryID           string   `json:"query_id,omitempty"`
	Model             string   `json:"model,omitempty"`
	Tokens            *Tokens  `json:"tokens,omitempty"`
	LatencyMS         float64  `json:"latency_ms"`
	EstimatedCostUSD  float64  `json:"estimated_cost_usd"`
	SafetyFlagged     bool     `json:"safety_flagged"`
	FlaggedCategories []string `json:"flagged_categories,omitempty"`
	DetectedPatterns  []string `json:"detected_patterns,omitempty"`
	Moderation        string   `json:"moderation,omitempty"`
}

// Envelope is the response to one query. Data is set only for success and
// blocked; Error only for error.
type Envelope struct {
	Status   string    `json:"status"`
	Data     *Answer   `json:"data"`
	Metadata *Metadata `json:"metadata"`
	Error    string    `json:"error,omitempty"`
}

// blockedAnswer is the fixed refusal returned for screened-out questions.
func blockedAnswer() *Answer {
	return &Answer{
		Answer:     "This query has been flagged by our content moderation system.",
		Confidence: 1.0,
		Actions: []string{
			"Review content policy with user",
			"Escalate to content moderation team",
			"Document incident",
		},
		Category:           "policy_violation",
		RequiresEscalation: true,
	}
}

var requiredFields = []string{"answer", "confidence", "actions", "category", "requires_escalation"}

// ParseAnswer decodes and validates a model reply. Markdown code fences
// around the JSON are stripped.
func ParseAnswer(content string) (*Answer, error) {
	content = stripCodeFences(content)
	if content == "" {
		return nil, errors.New("empty response")
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("not a JSON object: %w", err)
	}

	var missing []string
	for _, f := range requiredFields {
		if _, ok := raw[f]; !ok {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing field(s): %s", strings.Join(missing, ", "))
	}

	var a Answer
	if err := decodeStrict(raw["answer"], &a.Answer); err != nil {
		return nil, errors.New("answer must be a string")
	}
	if strings.TrimSpace(a.Answer) == "" {
		return nil, errors.New("answer must not be empty")
	}

	if err := decodeStrict(raw["confidence"], &a.Confidence); err != nil {
		return nil, errors.New("confidence must be a number")
	}
	if a.Confidence < 0 || a.Confidence > 1 {
		return nil, fmt.Errorf("confidence %v is outside [0, 1]", a.Confidence)
	}

	if err := decodeStrict(raw["actions"], &a.Actions); err != nil {
		return nil, errors.New("actions must be an array of strings")
	}
	if len(a.Actions) == 0 {
		return nil, errors.New("actions must not be empty")
	}
	for i, act := range a.Actions {
		if strings.TrimSpace(act) == "" {
			return nil, fmt.Errorf("actions[%d] is empty", i)
		}
	}

	if err := decodeStrict(raw["category"], &a.Category); err != nil {
		return nil, errors.New("category must be a string")
	}
	if strings.TrimSpace(a.Category) == "" {
		return nil, errors.New("category must not be empty")
	}

	if err := decodeStrict(raw["requires_escalation"], &a.RequiresEscalation); err != nil {
		return nil, errors.New("requires_escalation must be a boolean")
	}

	return &a, nil
}

// decodeStrict rejects JSON null, which json.Unmarshal would otherwise
// accept as the zero value.
func decodeStrict(data json.RawMessage, v any) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return errors.New("null")
	}
	return json.Unmarshal(data, v)
}

func stripCodeFences(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		lines := strings.Split(content, "\n")
		var jsonLines []string
		inBlock := false
		for _, line := range lines {
			if strings.HasPrefix(strings.TrimSpace(line), "```") {
				inBlock = !inBlock
				continue
			}
			if inBlock {
				jsonLines = append(jsonLines, line)
			}
		}
		content = strings.Join(jsonLines, "\n")
	}

	return strings.TrimSpace(content)
}
