package llm

import (
	"context"
	"sync"
)

// MockClient returns scripted responses in order, then repeats the last one.
// Safe for concurrent use.
type MockClient struct {
	mu        sync.Mutex
	model     string
	responses []string
	calls     int
	// LastRequest records the most recent request for assertions.
	LastRequest CompletionRequest
}

func NewMockClient(model string, responses ...string) *MockClient {
	if len(responses) == 0 {
		responses = []string{"mock response"}
	}
	return &MockClient{model: model, responses: responses}
}

func (m *MockClient) Complete(_ context.Context, req CompletionRequest) (*CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastRequest = req
	idx := m.calls
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	m.calls++

	return &CompletionResponse{
		Content:    m.responses[idx],
		StopReason: "stop",
		Usage:      TokenUsage{PromptTokens: 1, CompletionTokens: 1, TotalTokens: 2},
	}, nil
}

func (m *MockClient) Model() string {
	return m.model
}

func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
