package llm

import (
	"context"
	"errors"
	"net/http"
	"quiz-forge/internal/domain"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// noTemperaturePrefixes lists model families that reject a temperature value.
var noTemperaturePrefixes = []string{"o1", "o3", "o4", "gpt-5"}

// OpenAIProvider implements Provider using the OpenAI SDK.
// It also supports OpenRouter and other OpenAI-compatible APIs via BaseURL.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

func NewOpenAIProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, newConfigurationError("API key is not configured; set OPENAI_API_KEY or llm.api_key")
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		config.HTTPClient = cfg.HTTPClient
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(config),
		model:  cfg.Model,
	}, nil
}

func (p *OpenAIProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	chatReq := openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
		MaxCompletionTokens: req.MaxCompletionTokens,
	}
	if SupportsTemperature(p.model) {
		chatReq.Temperature = float32(req.Temperature)
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, mapOpenAIError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, newMalformedError("model response contained no choices")
	}

	model := resp.Model
	if model == "" {
		model = p.model
	}
	return &Response{
		Content: resp.Choices[0].Message.Content,
		Usage:   usageFromOpenAI(resp.Usage),
		Model:   model,
	}, nil
}

func (p *OpenAIProvider) ModelID() string {
	return p.model
}

// SupportsTemperature reports whether the model accepts a temperature value.
// Router prefixes such as "openai/" are ignored.
func SupportsTemperature(model string) bool {
	name := strings.ToLower(model)
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	for _, prefix := range noTemperaturePrefixes {
		if strings.HasPrefix(name, prefix) {
			return false
		}
	}
	return true
}

func mapOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return classifyStatus(apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return classifyStatus(reqErr.HTTPStatusCode, err)
	}
	return classifyTransportError(err)
}

func usageFromOpenAI(u openai.Usage) domain.TokenUsage {
	return domain.TokenUsage{
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
	}
}
