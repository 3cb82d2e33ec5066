package llm

import (
	"context"
	"fmt"
	"sync"
)

// MockProvider is a test double that returns canned responses.
type MockProvider struct {
	Response string
	Err      error
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) Generate(_ context.Context, _ string, _ Settings) (string, error) {
	return m.Response, m.Err
}

// ScriptProvider is a test double that plays queued responses in order and
// records every prompt it sees.
type ScriptProvider struct {
	mu        sync.Mutex
	Responses []string
	Err       error

	Prompts []string
	Systems []string
}

func (s *ScriptProvider) Name() string { return "script" }

func (s *ScriptProvider) Generate(_ context.Context, prompt string, set Settings) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Prompts = append(s.Prompts, prompt)
	s.Systems = append(s.Systems, set.System)

	if s.Err != nil {
		return "", s.Err
	}
	if len(s.Responses) == 0 {
		return "", fmt.Errorf("script: no responses left")
	}
	resp := s.Responses[0]
	s.Responses = s.Responses[1:]
	return resp, nil
}

// Calls returns how many Generate calls the provider has seen.
func (s *ScriptProvider) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Prompts)
}
