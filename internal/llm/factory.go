package llm

import (
	"fmt"
	"net/http"
	"quiz-forge/internal/config"
	"quiz-forge/internal/domain"
)

// NewProvider creates the Provider named by cfg.Provider.
func NewProvider(cfg config.LLMConfig) (Provider, error) {
	// the attempt timeout is enforced by the Client through the context
	httpClient := &http.Client{}

	switch cfg.Provider {
	case "openai", "":
		p, err := NewOpenAIProvider(OpenAIConfig{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			HTTPClient: httpClient,
		})
		if err != nil {
			return nil, err
		}
		return p, nil
	case "ollama":
		p, err := NewOllamaProvider(OllamaConfig{
			ServerURL:  cfg.ServerURL,
			Model:      cfg.Model,
			HTTPClient: httpClient,
		})
		if err != nil {
			return nil, err
		}
		return p, nil
	case "mock":
		return NewSampleMockProvider(), nil
	default:
		return nil, domain.NewConfigurationError(fmt.Sprintf("unknown LLM provider: %q", cfg.Provider))
	}
}

// ClientConfigFrom converts the LLM section of the application config.
func ClientConfigFrom(cfg config.LLMConfig) ClientConfig {
	return ClientConfig{
		Timeout:     cfg.Timeout,
		MaxRetries:  cfg.MaxRetries,
		RetryDelay:  cfg.RetryDelay,
		Temperature: cfg.Temperature,
	}
}
