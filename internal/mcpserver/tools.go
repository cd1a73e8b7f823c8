// Copyright 2026 The Askdesk Authors
// SPDX-License-Identifier: MIT

package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/davetashner/askdesk/internal/query"
	"github.com/davetashner/askdesk/internal/report"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"The customer's question, in plain text"`
}

// SummaryInput is the input schema for the metrics_summary tool.
type SummaryInput struct {
	Recent int `json:"recent,omitempty" jsonschema:"Also return this many of the most recent records (default 0)"`
}

// boolPtr returns a pointer to a bool.
func boolPtr(b bool) *bool { return &b }

type handlers struct {
	deps Deps
}

// registerTools adds all askdesk tools to the MCP server.
func registerTools(server *mcp.Server, h *handlers) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a customer support question. Returns a JSON envelope with status success, blocked or error, a structured answer (answer, confidence, actions, category, requires_escalation) and usage metadata.",
		Annotations: &mcp.ToolAnnotations{
			ReadOnlyHint:    false,
			DestructiveHint: boolPtr(false),
			OpenWorldHint:   boolPtr(true),
		},
	}, h.handleAsk)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "metrics_summary",
		Description: "Summarize recorded query metrics: totals and averages for cost, tokens and latency, and the safety flag rate.",
		Annotations: &mcp.ToolAnnotations{
			ReadOnlyHint:    true,
			DestructiveHint: boolPtr(false),
			OpenWorldHint:   boolPtr(false),
		},
	}, h.handleSummary)
}

func (h *handlers) handleAsk(ctx context.Context, _ *mcp.CallToolRequest, input AskInput) (*mcp.CallToolResult, any, error) {
	if h.deps.Asker == nil {
		return nil, nil, errors.New("ask is not configured")
	}

	env := h.deps.Asker.Process(ctx, input.Question)

	text, err := marshalIndent(env)
	if err != nil {
		return nil, nil, err
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
		IsError: env.Status == query.StatusError,
	}, nil, nil
}

func (h *handlers) handleSummary(_ context.Context, _ *mcp.CallToolRequest, input SummaryInput) (*mcp.CallToolResult, any, error) {
	if h.deps.Stats == nil {
		return nil, nil, errors.New("metrics are not configured")
	}
	if input.Recent < 0 {
		return nil, nil, fmt.Errorf("recent must be non-negative, got %d", input.Recent)
	}

	summary, err := h.deps.Stats.Summary()
	if err != nil {
		return nil, nil, fmt.Errorf("reading metrics: %w", err)
	}

	out := report.StatsJSON{MetricsDir: h.deps.Stats.Dir(), Summary: summary}
	if input.Recent > 0 {
		recs, err := h.deps.Stats.Records()
		if err != nil {
			return nil, nil, fmt.Errorf("reading metrics: %w", err)
		}
		out.Recent = report.Tail(recs, input.Recent)
	}

	var buf bytes.Buffer
	if err := report.RenderJSON(&buf, out); err != nil {
		return nil, nil, err
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: buf.String()},
		},
	}, nil, nil
}

func marshalIndent(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding result: %w", err)
	}
	return string(data), nil
}
