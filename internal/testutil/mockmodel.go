package testutil

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// MockModelName is the provider-qualified name registered by MockModel.
const MockModelName = "mock/test-model"

// MockModel is a deterministic Genkit model for tests. The latest user
// message is matched against registered substring patterns; the first
// match's response is streamed in small chunks and returned. Failures
// can be injected to exercise retry paths.
//
// Safe for concurrent use.
type MockModel struct {
	mu       sync.Mutex
	rules    []mockRule
	fallback string
	calls    []string

	// failures are returned, one per call, before any generation
	// succeeds again.
	failures []error
}

type mockRule struct {
	pattern  string
	response string
}

// NewMockModel creates a mock with the given fallback response.
func NewMockModel(fallback string) *MockModel {
	return &MockModel{fallback: fallback}
}

// AddResponse maps a case-insensitive substring of the user message to a
// response. First registered match wins.
func (m *MockModel) AddResponse(pattern, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, mockRule{pattern: strings.ToLower(pattern), response: response})
}

// FailNext queues errors to be returned by the next calls.
func (m *MockModel) FailNext(errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, errs...)
}

// Calls returns the user messages seen so far.
func (m *MockModel) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// Register defines the model on g under MockModelName.
func (m *MockModel) Register(g *genkit.Genkit) ai.Model {
	return genkit.DefineModel(g, MockModelName, &ai.ModelOptions{
		Label: "Mock Test Model",
		Supports: &ai.ModelSupports{
			Multiturn:  true,
			SystemRole: true,
		},
	}, m.generate)
}

func (m *MockModel) generate(ctx context.Context, req *ai.ModelRequest, cb ai.ModelStreamCallback) (*ai.ModelResponse, error) {
	var userText string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == ai.RoleUser {
			userText = req.Messages[i].Text()
			break
		}
	}

	m.mu.Lock()
	if len(m.failures) > 0 {
		err := m.failures[0]
		m.failures = m.failures[1:]
		m.mu.Unlock()
		if err == nil {
			err = errors.New("injected failure")
		}
		return nil, err
	}

	response := m.fallback
	lower := strings.ToLower(userText)
	for _, rule := range m.rules {
		if strings.Contains(lower, rule.pattern) {
			response = rule.response
			break
		}
	}
	m.calls = append(m.calls, userText)
	m.mu.Unlock()

	if cb != nil {
		const chunkSize = 24
		for start := 0; start < len(response); start += chunkSize {
			end := min(start+chunkSize, len(response))
			chunk := &ai.ModelResponseChunk{
				Content: []*ai.Part{ai.NewTextPart(response[start:end])},
			}
			if err := cb(ctx, chunk); err != nil {
				return nil, err
			}
		}
	}

	return &ai.ModelResponse{
		Request: req,
		Message: &ai.Message{
			Role:    ai.RoleModel,
			Content: []*ai.Part{ai.NewTextPart(response)},
		},
	}, nil
}
