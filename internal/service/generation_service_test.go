package service

import (
	"context"
	"encoding/json"
	"quiz-forge/internal/adapter"
	"quiz-forge/internal/config"
	"quiz-forge/internal/content"
	"quiz-forge/internal/domain"
	"quiz-forge/internal/llm"
	"quiz-forge/internal/prompt"
	"quiz-forge/internal/ratelimit"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const sourceContent = `Photosynthesis is the process by which green plants convert light energy into
chemical energy. Carbon dioxide and water are combined into glucose, and oxygen is released.`

var testGenerationConfig = config.GenerationConfig{
	MaxContentChars:      content.DefaultMaxChars,
	MinContentChars:      content.DefaultMinChars,
	BaseCompletionTokens: 1000,
	TokensPerQuestion:    400,
	MaxCompletionTokens:  16000,
}

// --- MockModelClient ---
type MockModelClient struct {
	mock.Mock
}

func (m *MockModelClient) Invoke(ctx context.Context, p prompt.Prompt, maxCompletionTokens int) (*llm.Completion, error) {
	args := m.Called(ctx, p, maxCompletionTokens)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llm.Completion), args.Error(1)
}

func (m *MockModelClient) ModelID() string {
	args := m.Called()
	return args.String(0)
}

func noSleep(context.Context, time.Duration) error { return nil }

func threeEasyMC(t *testing.T) string {
	t.Helper()
	questions := make([]map[string]any, 0, 3)
	for i := 0; i < 3; i++ {
		answers := make([]map[string]any, 0, 4)
		for j := 0; j < 4; j++ {
			answers = append(answers, map[string]any{"text": string(rune('A'+j)) + " option", "is_correct": j == i})
		}
		questions = append(questions, map[string]any{
			"type":       "mc",
			"difficulty": "easy",
			"stem":       "Question number " + string(rune('1'+i)) + "?",
			"answers":    answers,
		})
	}
	out, err := json.Marshal(map[string]any{"questions": questions})
	require.NoError(t, err)
	return string(out)
}

type fixture struct {
	store    *adapter.MemoryCounterStore
	limiter  *ratelimit.Limiter
	provider *llm.MockProvider
	service  domain.GenerationService
}

func newFixture(limit int64, responses ...llm.MockResponse) *fixture {
	store := adapter.NewMemoryCounterStore(nil)
	limiter := ratelimit.NewLimiter(store, limit, time.Hour, nil)
	provider := llm.NewMockProvider(responses...)
	client := llm.NewClient(provider, llm.ClientConfig{MaxRetries: 2, RetryDelay: time.Second}, nil).WithSleeper(noSleep)
	normalizer := content.NewNormalizer(testGenerationConfig.MaxContentChars, testGenerationConfig.MinContentChars)

	return &fixture{
		store:    store,
		limiter:  limiter,
		provider: provider,
		service:  NewGenerationService(limiter, normalizer, client, testGenerationConfig, nil),
	}
}

func (f *fixture) count(t *testing.T, requesterID string) int64 {
	t.Helper()
	n, err := f.store.Get(context.Background(), "quizforge:ratelimit:generation:"+requesterID)
	require.NoError(t, err)
	return n
}

func TestGenerationService_Generate_EndToEnd(t *testing.T) {
	f := newFixture(30, llm.MockResponse{
		Content: "```json\n" + threeEasyMC(t) + "\n```",
		Usage:   domain.TokenUsage{PromptTokens: 900, CompletionTokens: 600, TotalTokens: 1500},
	})

	result, err := f.service.Generate(context.Background(), domain.GenerationRequest{
		Content:          sourceContent,
		Count:            3,
		Types:            []domain.QuestionType{domain.QuestionTypeMultipleChoice},
		Difficulties:     []domain.Difficulty{domain.DifficultyEasy},
		AnswerCount:      4,
		GenerateFeedback: false,
		RequesterID:      "user-1",
	})
	require.NoError(t, err)

	assert.Equal(t, 3, result.ValidCount)
	assert.Equal(t, 0, result.InvalidCount)
	assert.False(t, result.PartialSuccess)
	assert.Equal(t, 3, result.TotalGenerated)
	assert.Empty(t, result.ValidationErrors)
	for _, q := range result.Questions {
		assert.Equal(t, domain.QuestionTypeMultipleChoice, q.Type)
		assert.Equal(t, domain.DifficultyEasy, q.Difficulty)
		assert.Len(t, q.Answers, 4)
		assert.Equal(t, 1, q.CorrectCount())
	}

	assert.Len(t, result.GenerationID, 26)
	assert.Equal(t, 1500, result.TokenUsage.TotalTokens)
	assert.Equal(t, "mock", result.Model)
	assert.Equal(t, 1, result.Attempts)
	assert.False(t, result.ContentTruncated)
	assert.Equal(t, content.EstimateTokens(strings.Join(strings.Fields(sourceContent), " ")), result.EstimatedInputTokens)

	require.Equal(t, 1, f.provider.CallCount())
	req := f.provider.Calls[0]
	assert.Equal(t, 1000+400*3, req.MaxCompletionTokens)
	assert.Contains(t, req.System, `All 3 questions must have "difficulty": "easy".`)
	assert.NotContains(t, req.System, `"feedback"`)
	assert.Contains(t, req.User, "Carbon dioxide and water are combined into glucose")

	assert.Equal(t, int64(1), f.count(t, "user-1"))
}

func TestGenerationService_Generate_RetriesTransientFailures(t *testing.T) {
	f := newFixture(30,
		llm.MockResponse{Err: domain.NewError(domain.CodeServer, "bad gateway", nil)},
		llm.MockResponse{Content: threeEasyMC(t)},
	)

	result, err := f.service.Generate(context.Background(), domain.GenerationRequest{Content: sourceContent, Count: 3})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Attempts)
	assert.Equal(t, 2, f.provider.CallCount())
}

func TestGenerationService_Generate_FailsBeforeModelCall(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fixture)
		req   domain.GenerationRequest
		code  domain.ErrorCode
	}{
		{
			name: "invalid request",
			req:  domain.GenerationRequest{Content: sourceContent, Count: 0, Types: []domain.QuestionType{"essay"}},
			code: domain.CodeInvalidInput,
		},
		{
			name: "content too short",
			req:  domain.GenerationRequest{Content: "<p>Too short.</p>", Count: 3},
			code: domain.CodeContent,
		},
		{
			name: "rate limited",
			setup: func(f *fixture) {
				f.limiter.Increment(context.Background(), "user-1")
				f.limiter.Increment(context.Background(), "user-1")
			},
			req:  domain.GenerationRequest{Content: sourceContent, Count: 3, RequesterID: "user-1"},
			code: domain.CodeRateLimited,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(2, llm.MockResponse{Content: threeEasyMC(t)})
			if tt.setup != nil {
				tt.setup(f)
			}

			_, err := f.service.Generate(context.Background(), tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.code, domain.CodeOf(err))
			assert.Zero(t, f.provider.CallCount())
		})
	}
}

func TestGenerationService_Generate_CountsOnlySuccessfulModelCalls(t *testing.T) {
	t.Run("FatalModelErrorIsNotCounted", func(t *testing.T) {
		f := newFixture(30, llm.MockResponse{Err: domain.NewError(domain.CodeAuth, "bad key", nil)})

		_, err := f.service.Generate(context.Background(), domain.GenerationRequest{Content: sourceContent, Count: 3, RequesterID: "user-1"})
		require.Error(t, err)
		assert.Equal(t, domain.CodeAuth, domain.CodeOf(err))
		assert.Zero(t, f.count(t, "user-1"))
	})

	t.Run("UnparseableResponseIsCounted", func(t *testing.T) {
		f := newFixture(30, llm.MockResponse{Content: "I cannot write questions about this topic."})

		_, err := f.service.Generate(context.Background(), domain.GenerationRequest{Content: sourceContent, Count: 3, RequesterID: "user-1"})
		require.Error(t, err)
		assert.Equal(t, domain.CodeParse, domain.CodeOf(err))
		assert.Equal(t, int64(1), f.count(t, "user-1"))
	})

	t.Run("NoValidQuestions", func(t *testing.T) {
		f := newFixture(30, llm.MockResponse{Content: `{"questions": [{"type": "mc", "stem": "Q"}]}`})

		_, err := f.service.Generate(context.Background(), domain.GenerationRequest{Content: sourceContent, Count: 1, RequesterID: "user-1"})
		require.Error(t, err)
		assert.Equal(t, domain.CodeNoQuestions, domain.CodeOf(err))
	})
}

func TestGenerationService_Generate_WithMockClient(t *testing.T) {
	client := new(MockModelClient)
	limiter := ratelimit.NewLimiter(adapter.NewMemoryCounterStore(nil), 30, time.Hour, nil)
	normalizer := content.NewNormalizer(content.DefaultMaxChars, content.DefaultMinChars)
	svc := NewGenerationService(limiter, normalizer, client, testGenerationConfig, nil)
	ctx := context.Background()

	// 1000 + 400*100 is capped at 16000
	client.On("Invoke", ctx, mock.AnythingOfType("prompt.Prompt"), 16000).
		Return(&llm.Completion{Content: threeEasyMC(t), Attempts: 1}, nil).Once()
	client.On("ModelID").Return("gpt-4o-mini")

	result, err := svc.Generate(ctx, domain.GenerationRequest{Content: sourceContent, Count: 100})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", result.Model)
	assert.Equal(t, 3, result.ValidCount)
	client.AssertExpectations(t)
}
