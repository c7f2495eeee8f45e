package llm

import (
	"context"
	"quiz-forge/internal/domain"
)

// Provider performs one chat-completion request against a model backend.
// Implementations map their failures to *domain.DomainError so the Client
// can tell transient failures from fatal ones.
type Provider interface {
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request is a single-turn system + user exchange.
type Request struct {
	System string
	User   string

	// MaxCompletionTokens caps the response length. Zero leaves it to the backend.
	MaxCompletionTokens int

	// Temperature is dropped by providers whose model rejects it.
	Temperature float64
}

// Response holds the raw model text and the usage reported by the backend.
type Response struct {
	Content string
	Usage   domain.TokenUsage
	Model   string
}
