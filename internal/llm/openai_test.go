// Copyright 2026 The Askdesk Authors
// SPDX-License-Identifier: MIT

package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/davetashner/askdesk/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newOpenAIServer serves canned chat and moderation bodies and captures the
// last decoded request body per endpoint.
func newOpenAIServer(t *testing.T, chatBody, modBody string, status int, captured map[string]map[string]interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil && captured != nil {
			captured[r.URL.Path] = body
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		switch r.URL.Path {
		case "/v1/chat/completions":
			_, _ = w.Write([]byte(chatBody))
		case "/v1/moderations":
			_, _ = w.Write([]byte(modBody))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
}

const chatOK = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gpt-4o-mini",
  "choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"answer\":\"hi\"}"}, "finish_reason": "stop"}],
  "usage": {"prompt_tokens": 120, "completion_tokens": 45, "total_tokens": 165}
}`

func TestNewOpenAIProvider_NoKeyError(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	p, err := llm.NewOpenAIProvider()
	assert.Nil(t, p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestNewOpenAIProvider_FromEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")

	p, err := llm.NewOpenAIProvider()
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", p.Model())
}

func TestOpenAIComplete_JSONModeAndDefaults(t *testing.T) {
	captured := map[string]map[string]interface{}{}
	srv := newOpenAIServer(t, chatOK, "", http.StatusOK, captured)
	defer srv.Close()

	p, err := llm.NewOpenAIProvider(
		llm.WithOpenAIKey("sk-test"),
		llm.WithOpenAIBaseURL(srv.URL+"/v1"),
	)
	require.NoError(t, err)

	temp := 0.7
	resp, err := p.Complete(context.Background(), llm.Request{
		Prompt:       "How do I reset my password?",
		SystemPrompt: "Always respond with valid JSON.",
		Temperature:  &temp,
		JSONMode:     true,
	})
	require.NoError(t, err)

	assert.Equal(t, `{"answer":"hi"}`, resp.Content)
	assert.Equal(t, "gpt-4o-mini", resp.Model)
	assert.Equal(t, 120, resp.Usage.InputTokens)
	assert.Equal(t, 45, resp.Usage.OutputTokens)

	body := captured["/v1/chat/completions"]
	require.NotNil(t, body)
	assert.Equal(t, "gpt-4o-mini", body["model"])
	assert.Equal(t, float64(500), body["max_tokens"])
	assert.InDelta(t, 0.7, body["temperature"], 0.0001)
	assert.Equal(t, map[string]interface{}{"type": "json_object"}, body["response_format"])

	msgs, ok := body["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]interface{})["role"])
	assert.Equal(t, "user", msgs[1].(map[string]interface{})["role"])
}

func TestOpenAIComplete_ZeroTemperatureIsSent(t *testing.T) {
	captured := map[string]map[string]interface{}{}
	srv := newOpenAIServer(t, chatOK, "", http.StatusOK, captured)
	defer srv.Close()

	p, err := llm.NewOpenAIProvider(
		llm.WithOpenAIKey("sk-test"),
		llm.WithOpenAIBaseURL(srv.URL+"/v1"),
	)
	require.NoError(t, err)

	temp := 0.0
	_, err = p.Complete(context.Background(), llm.Request{Prompt: "hi", Temperature: &temp})
	require.NoError(t, err)

	body := captured["/v1/chat/completions"]
	require.NotNil(t, body)
	got, ok := body["temperature"]
	require.True(t, ok, "temperature must be present for a zero value")
	assert.InDelta(t, 0.0, got, 1e-6)
}

func TestOpenAIComplete_ReasoningModelParams(t *testing.T) {
	captured := map[string]map[string]interface{}{}
	srv := newOpenAIServer(t, chatOK, "", http.StatusOK, captured)
	defer srv.Close()

	p, err := llm.NewOpenAIProvider(
		llm.WithOpenAIKey("sk-test"),
		llm.WithOpenAIBaseURL(srv.URL+"/v1"),
		llm.WithOpenAIModel("o4-mini"),
	)
	require.NoError(t, err)

	temp := 0.2
	_, err = p.Complete(context.Background(), llm.Request{Prompt: "hi", Temperature: &temp})
	require.NoError(t, err)

	body := captured["/v1/chat/completions"]
	assert.Equal(t, "o4-mini", body["model"])
	assert.Equal(t, float64(500), body["max_completion_tokens"])
	_, hasMaxTokens := body["max_tokens"]
	assert.False(t, hasMaxTokens)
	assert.InDelta(t, 1.0, body["temperature"], 0.0001)
}

func TestOpenAIComplete_NoChoicesKeepsUsage(t *testing.T) {
	srv := newOpenAIServer(t, `{"id":"x","model":"gpt-4o","choices":[],"usage":{"prompt_tokens":9,"completion_tokens":0,"total_tokens":9}}`, "", http.StatusOK, nil)
	defer srv.Close()

	p, err := llm.NewOpenAIProvider(llm.WithOpenAIKey("sk-test"), llm.WithOpenAIBaseURL(srv.URL+"/v1"))
	require.NoError(t, err)

	resp, err := p.Complete(context.Background(), llm.Request{Prompt: "hi"})
	require.NoError(t, err)
	assert.Empty(t, resp.Content)
	assert.Equal(t, 9, resp.Usage.InputTokens)
}

func TestOpenAIComplete_APIError(t *testing.T) {
	srv := newOpenAIServer(t, `{"error":{"message":"upstream down","type":"server_error"}}`, "", http.StatusInternalServerError, nil)
	defer srv.Close()

	p, err := llm.NewOpenAIProvider(llm.WithOpenAIKey("sk-test"), llm.WithOpenAIBaseURL(srv.URL+"/v1"))
	require.NoError(t, err)

	_, err = p.Complete(context.Background(), llm.Request{Prompt: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai: completion failed")
}

func TestOpenAIModerate_Flagged(t *testing.T) {
	mod := `{"id":"modr-1","model":"omni-moderation-latest","results":[{"flagged":true,
	  "categories":{"violence":true,"hate":false,"sexual/minors":true},
	  "category_scores":{"violence":0.91,"sexual/minors":0.6}}]}`
	captured := map[string]map[string]interface{}{}
	srv := newOpenAIServer(t, "", mod, http.StatusOK, captured)
	defer srv.Close()

	p, err := llm.NewOpenAIProvider(llm.WithOpenAIKey("sk-test"), llm.WithOpenAIBaseURL(srv.URL+"/v1"))
	require.NoError(t, err)

	res, err := p.Moderate(context.Background(), "some text")
	require.NoError(t, err)
	assert.True(t, res.Flagged)
	assert.Equal(t, []string{"sexual/minors", "violence"}, res.Categories)
	assert.InDelta(t, 0.91, res.Scores["violence"], 0.001)
	assert.Equal(t, "some text", captured["/v1/moderations"]["input"])
}

func TestOpenAIModerate_NotFlagged(t *testing.T) {
	srv := newOpenAIServer(t, "", `{"id":"m","results":[{"flagged":false,"categories":{},"category_scores":{}}]}`, http.StatusOK, nil)
	defer srv.Close()

	p, err := llm.NewOpenAIProvider(llm.WithOpenAIKey("sk-test"), llm.WithOpenAIBaseURL(srv.URL+"/v1"))
	require.NoError(t, err)

	res, err := p.Moderate(context.Background(), "How do I reset my password?")
	require.NoError(t, err)
	assert.False(t, res.Flagged)
	assert.Empty(t, res.Categories)
}

func TestOpenAIModerate_ServiceError(t *testing.T) {
	srv := newOpenAIServer(t, "", `{"error":{"message":"unavailable"}}`, http.StatusServiceUnavailable, nil)
	defer srv.Close()

	p, err := llm.NewOpenAIProvider(llm.WithOpenAIKey("sk-test"), llm.WithOpenAIBaseURL(srv.URL+"/v1"))
	require.NoError(t, err)

	res, err := p.Moderate(context.Background(), "x")
	assert.Nil(t, res)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai: moderation failed")
}

func TestIsReasoningModel(t *testing.T) {
	tests := []struct {
		model string
		want  bool
	}{
		{"gpt-5", true},
		{"gpt-5-mini", true},
		{"o1", true},
		{"o3-mini", true},
		{"o4-mini", true},
		{"gpt-4o-mini", false},
		{"gpt-4.1", false},
		{"claude-haiku-4-5", false},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Equal(t, tt.want, llm.IsReasoningModel(tt.model))
		})
	}
}
