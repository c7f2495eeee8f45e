package llm

import (
	"context"
	"quiz-forge/internal/domain"
	"sync"
)

// MockResponse is a canned response for the MockProvider.
type MockResponse struct {
	Content string
	Usage   domain.TokenUsage
	Err     error
}

// MockProvider is a deterministic Provider for tests and dry runs.
// It returns canned responses in FIFO order and records all requests.
type MockProvider struct {
	mu        sync.Mutex
	responses []MockResponse
	fallback  *MockResponse
	Calls     []Request
}

// NewMockProvider creates a MockProvider with the given canned responses.
func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{responses: responses}
}

// NewSampleMockProvider returns a MockProvider that answers every call with
// the same small batch of questions.
func NewSampleMockProvider() *MockProvider {
	return &MockProvider{fallback: &MockResponse{
		Content: sampleQuestionsJSON,
		Usage:   domain.TokenUsage{PromptTokens: 100, CompletionTokens: 200, TotalTokens: 300},
	}}
}

// Generate returns the next canned response, the fallback, or a connection
// error when the queue is empty.
func (m *MockProvider) Generate(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)

	var resp MockResponse
	switch {
	case len(m.responses) > 0:
		resp = m.responses[0]
		m.responses = m.responses[1:]
	case m.fallback != nil:
		resp = *m.fallback
	default:
		return nil, newConnectionError(nil)
	}

	if resp.Err != nil {
		return nil, resp.Err
	}
	return &Response{Content: resp.Content, Usage: resp.Usage, Model: "mock"}, nil
}

// ModelID returns "mock".
func (m *MockProvider) ModelID() string {
	return "mock"
}

// AddResponse appends a canned response to the queue.
func (m *MockProvider) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
}

// CallCount returns the number of Generate calls made.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

const sampleQuestionsJSON = `{"questions": [
  {"type": "mc", "difficulty": "easy", "stem": "Which gas do plants absorb from the air for photosynthesis?",
   "answers": [{"text": "Carbon dioxide", "is_correct": true}, {"text": "Oxygen", "is_correct": false},
               {"text": "Nitrogen", "is_correct": false}, {"text": "Helium", "is_correct": false}]},
  {"type": "tf", "difficulty": "medium", "stem": "Photosynthesis stores energy in glucose.",
   "answers": [{"text": "True", "is_correct": true}, {"text": "False", "is_correct": false}]},
  {"type": "ma", "difficulty": "hard", "stem": "Which of the following are products of photosynthesis?",
   "answers": [{"text": "Glucose", "is_correct": true}, {"text": "Oxygen", "is_correct": true},
               {"text": "Carbon dioxide", "is_correct": false}, {"text": "Nitrogen", "is_correct": false}]}
]}`
