package llm

import (
	"context"
	"net/http"
	"quiz-forge/internal/domain"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/schema"
)

// OllamaProvider runs completions against a local Ollama server through
// langchaingo.
type OllamaProvider struct {
	llm   llms.Model
	model string
}

type OllamaConfig struct {
	ServerURL  string
	Model      string
	HTTPClient *http.Client
}

func NewOllamaProvider(cfg OllamaConfig) (*OllamaProvider, error) {
	if cfg.ServerURL == "" {
		return nil, newConfigurationError("ollama server URL is not configured; set llm.server_url")
	}
	if cfg.Model == "" {
		return nil, newConfigurationError("ollama model is not configured; set llm.model")
	}

	opts := []ollama.Option{ollama.WithServerURL(cfg.ServerURL), ollama.WithModel(cfg.Model)}
	if cfg.HTTPClient != nil {
		opts = append(opts, ollama.WithHTTPClient(cfg.HTTPClient))
	}
	client, err := ollama.New(opts...)
	if err != nil {
		return nil, domain.NewError(domain.CodeConfiguration, "failed to create ollama client", err)
	}
	return &OllamaProvider{llm: client, model: cfg.Model}, nil
}

func (p *OllamaProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	messages := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, req.System),
		llms.TextParts(schema.ChatMessageTypeHuman, req.User),
	}
	opts := []llms.CallOption{llms.WithTemperature(req.Temperature)}
	if req.MaxCompletionTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(req.MaxCompletionTokens))
	}

	resp, err := p.llm.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return nil, newMalformedError("model response contained no choices")
	}

	choice := resp.Choices[0]
	return &Response{
		Content: choice.Content,
		Usage:   usageFromGenerationInfo(choice.GenerationInfo),
		Model:   p.model,
	}, nil
}

func (p *OllamaProvider) ModelID() string {
	return p.model
}

func usageFromGenerationInfo(info map[string]any) domain.TokenUsage {
	u := domain.TokenUsage{
		PromptTokens:     intFromInfo(info, "PromptTokens"),
		CompletionTokens: intFromInfo(info, "CompletionTokens"),
		TotalTokens:      intFromInfo(info, "TotalTokens"),
	}
	if u.TotalTokens == 0 {
		u.TotalTokens = u.PromptTokens + u.CompletionTokens
	}
	return u
}

func intFromInfo(info map[string]any, key string) int {
	switch v := info[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
