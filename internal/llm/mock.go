package llm

import (
	"context"
	"sync"
)

// MockResponse defines a canned response for the mock provider.
type MockResponse struct {
	Content string
	Err     error

	// Usage overrides the default 10/5 token usage when non-zero.
	Usage Usage

	// Panic makes Complete panic with this value instead of returning.
	Panic any
}

// MockProvider is a test double that returns pre-configured responses in
// sequence. After all responses are exhausted, it keeps returning the last one.
// It records every request for later assertion.
type MockProvider struct {
	mu        sync.Mutex
	responses []MockResponse
	calls     []Request
	idx       int
}

// Compile-time check that MockProvider satisfies the Provider interface.
var _ Provider = (*MockProvider)(nil)

// NewMockProvider creates a mock that returns the given responses in order.
// If no responses are provided, Complete returns an empty Response.
func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{
		responses: responses,
	}
}

// Complete returns the next canned response and records the request.
// It respects context cancellation.
func (m *MockProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.calls = append(m.calls, req)

	if len(m.responses) == 0 {
		m.mu.Unlock()
		return &Response{Content: "", Model: "mock"}, nil
	}

	r := m.responses[m.idx]
	if m.idx < len(m.responses)-1 {
		m.idx++
	}
	m.mu.Unlock()

	if r.Panic != nil {
		panic(r.Panic)
	}
	if r.Err != nil {
		return nil, r.Err
	}

	usage := r.Usage
	if usage == (Usage{}) {
		usage = Usage{InputTokens: 10, OutputTokens: 5}
	}

	return &Response{
		Content: r.Content,
		Model:   "mock",
		Usage:   usage,
	}, nil
}

// Calls returns a copy of all requests received by this mock.
func (m *MockProvider) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Request, len(m.calls))
	copy(out, m.calls)
	return out
}

// Reset clears call history and resets the response index to zero.
func (m *MockProvider) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = nil
	m.idx = 0
}

// MockModerator is a Moderator test double returning a fixed result.
type MockModerator struct {
	mu     sync.Mutex
	result *Moderation
	err    error
	calls  []string
}

// Compile-time check that MockModerator satisfies the Moderator interface.
var _ Moderator = (*MockModerator)(nil)

// NewMockModerator returns a moderator that answers every call with result
// and err. A nil result and nil err means "not flagged".
func NewMockModerator(result *Moderation, err error) *MockModerator {
	return &MockModerator{result: result, err: err}
}

// Moderate records text and returns the configured result.
func (m *MockModerator) Moderate(ctx context.Context, text string) (*Moderation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, text)
	if m.err != nil {
		return nil, m.err
	}
	if m.result == nil {
		return &Moderation{}, nil
	}
	return m.result, nil
}

// Calls returns a copy of every text passed to Moderate.
func (m *MockModerator) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}
