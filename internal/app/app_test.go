package app

import (
	"context"
	"testing"

	"quiz-forge/internal/config"
	"quiz-forge/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mockConfig() *config.Config {
	return &config.Config{
		LLM: config.LLMConfig{Provider: "mock", MaxRetries: 0},
		Generation: config.GenerationConfig{
			MaxContentChars:      100000,
			MinContentChars:      50,
			BaseCompletionTokens: 1000,
			TokensPerQuestion:    400,
			MaxCompletionTokens:  16000,
		},
		RateLimit: config.RateLimitConfig{Enabled: true, PerHour: 1},
	}
}

func TestBuild_MockProvider(t *testing.T) {
	c, err := Build(context.Background(), mockConfig(), nil, Options{})
	require.NoError(t, err)
	defer c.Close()

	assert.Nil(t, c.Repository)
	assert.Equal(t, "mock", c.Client.ModelID())

	req := domain.GenerationRequest{
		Content:     "Go is a statically typed, compiled language designed at Google. It has goroutines and channels.",
		Count:       2,
		RequesterID: "user-1",
	}
	result, err := c.Service.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.NotEmpty(t, result.GenerationID)
	assert.Positive(t, result.ValidCount)

	// the in-memory limiter is shared across calls
	_, err = c.Service.Generate(context.Background(), req)
	assert.Equal(t, domain.CodeRateLimited, domain.CodeOf(err))
}

func TestBuild_UnknownProvider(t *testing.T) {
	cfg := mockConfig()
	cfg.LLM.Provider = "carrier-pigeon"

	_, err := Build(context.Background(), cfg, nil, Options{})
	require.Error(t, err)
	assert.Equal(t, domain.CodeConfiguration, domain.CodeOf(err))
}
