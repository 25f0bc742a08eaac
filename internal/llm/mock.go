package llm

import (
	"context"
	"sync"
)

// MockClient is an in-memory Client for tests. It records every prompt and
// answers with Respond when set, or a fixed string otherwise.
type MockClient struct {
	mu      sync.Mutex
	calls   []string
	Respond func(prompt string) (string, error)
}

// NewMockClient returns a MockClient that replies "mock summary" to every prompt.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Complete records the prompt and returns the canned response.
func (m *MockClient) Complete(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, prompt)
	m.mu.Unlock()
	if m.Respond != nil {
		return m.Respond(prompt)
	}
	return "mock summary", nil
}

// Calls returns a copy of all prompts seen so far.
func (m *MockClient) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}
