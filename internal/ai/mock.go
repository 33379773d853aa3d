package ai

import (
	"context"
	"sync"
)

// MockProvider is a test double for AI providers.
type MockProvider struct {
	Response string
	// Responses, when set, are returned in order; the last one repeats.
	Responses []string
	Err       error

	mu          sync.Mutex
	calls       int
	LastRequest *CompletionRequest // captures the last request for inspection
}

// NewMockProvider creates a MockProvider that returns the given response.
func NewMockProvider(response string) *MockProvider {
	return &MockProvider{Response: response}
}

func (m *MockProvider) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	m.LastRequest = &req
	if m.Err != nil {
		return CompletionResponse{}, m.Err
	}
	if err := ctx.Err(); err != nil {
		return CompletionResponse{}, err
	}

	content := m.Response
	if len(m.Responses) > 0 {
		i := m.calls - 1
		if i >= len(m.Responses) {
			i = len(m.Responses) - 1
		}
		content = m.Responses[i]
	}
	return CompletionResponse{
		Content:      content,
		Model:        "mock",
		InputTokens:  10,
		OutputTokens: len(content),
	}, nil
}

// Calls returns how many times Complete was invoked.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockProvider) Models() []ModelInfo {
	return []ModelInfo{
		{ID: "mock", Name: "Mock Model", MaxTokens: 4096, Description: "Test mock"},
	}
}

func (m *MockProvider) HealthCheck(_ context.Context) error {
	return m.Err
}
