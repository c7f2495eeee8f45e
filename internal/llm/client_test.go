package llm

import (
	"context"
	"errors"
	"quiz-forge/internal/domain"
	"quiz-forge/internal/prompt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordingSleeper) Sleep(_ context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delays = append(r.delays, d)
	return nil
}

type providerFunc func(ctx context.Context, req Request) (*Response, error)

func (f providerFunc) Generate(ctx context.Context, req Request) (*Response, error) { return f(ctx, req) }
func (f providerFunc) ModelID() string { return "func" }

var testPrompt = prompt.Prompt{System: "system", User: "user"}

func newTestClient(p Provider, sleeper *recordingSleeper) *Client {
	return NewClient(p, ClientConfig{
		Timeout:     time.Minute,
		MaxRetries:  DefaultMaxRetries,
		RetryDelay:  DefaultRetryDelay,
		Temperature: 0.7,
	}, nil).WithSleeper(sleeper.Sleep)
}

func TestClient_RetriesTimeoutsThenSucceeds(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: newTimeoutError(context.DeadlineExceeded)},
		MockResponse{Err: newTimeoutError(context.DeadlineExceeded)},
		MockResponse{Content: "third", Usage: domain.TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}},
	)
	sleeper := &recordingSleeper{}

	completion, err := newTestClient(mock, sleeper).Invoke(context.Background(), testPrompt, 2000)
	require.NoError(t, err)
	assert.Equal(t, "third", completion.Content)
	assert.Equal(t, 3, completion.Attempts)
	assert.Equal(t, 15, completion.Usage.TotalTokens)
	assert.Equal(t, 3, mock.CallCount())
	assert.Equal(t, []time.Duration{DefaultRetryDelay, DefaultRetryDelay}, sleeper.delays)

	req := mock.Calls[0]
	assert.Equal(t, "system", req.System)
	assert.Equal(t, "user", req.User)
	assert.Equal(t, 2000, req.MaxCompletionTokens)
	assert.Equal(t, 0.7, req.Temperature)
}

func TestClient_FatalFailuresAreNotRetried(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code domain.ErrorCode
	}{
		{"Unauthorized", newAuthError(errors.New("401")), domain.CodeAuth},
		{"ProviderRateLimited", newProviderRateLimitError(errors.New("429")), domain.CodeProviderRateLimited},
		{"NoChoices", newMalformedError("model response contained no choices"), domain.CodeMalformedResponse},
		{"BadRequest", newRejectedError(400, errors.New("400")), domain.CodeProviderRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMockProvider(MockResponse{Err: tt.err}, MockResponse{Content: "never"})
			sleeper := &recordingSleeper{}

			_, err := newTestClient(mock, sleeper).Invoke(context.Background(), testPrompt, 0)
			require.Error(t, err)
			assert.Equal(t, tt.code, domain.CodeOf(err))
			assert.Equal(t, 1, mock.CallCount())
			assert.Empty(t, sleeper.delays)
		})
	}
}

func TestClient_ExhaustedRetriesCarryHint(t *testing.T) {
	serverErr := newServerError(503, errors.New("overloaded"))
	mock := NewMockProvider(
		MockResponse{Err: serverErr},
		MockResponse{Err: serverErr},
		MockResponse{Err: serverErr},
		MockResponse{Content: "too late"},
	)
	sleeper := &recordingSleeper{}

	_, err := newTestClient(mock, sleeper).Invoke(context.Background(), testPrompt, 0)
	require.Error(t, err)
	assert.Equal(t, domain.CodeServer, domain.CodeOf(err))
	assert.Contains(t, err.Error(), "try again with less content")
	assert.ErrorIs(t, err, serverErr)
	assert.Equal(t, 3, mock.CallCount())
	assert.Len(t, sleeper.delays, 2)

	var de *domain.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 3, de.Context["attempts"])
}

func TestClient_AttemptTimeoutIsRetryable(t *testing.T) {
	calls := 0
	slow := providerFunc(func(ctx context.Context, _ Request) (*Response, error) {
		calls++
		if calls == 1 {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return &Response{Content: "ok", Model: "func"}, nil
	})

	client := NewClient(slow, ClientConfig{Timeout: 10 * time.Millisecond, MaxRetries: 1}, nil).
		WithSleeper((&recordingSleeper{}).Sleep)

	completion, err := client.Invoke(context.Background(), testPrompt, 0)
	require.NoError(t, err)
	assert.Equal(t, "ok", completion.Content)
	assert.Equal(t, 2, completion.Attempts)
}

func TestClient_CancelledContextStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mock := NewMockProvider(MockResponse{Err: newConnectionError(context.Canceled)}, MockResponse{Content: "never"})
	sleeper := &recordingSleeper{}

	_, err := newTestClient(mock, sleeper).Invoke(ctx, testPrompt, 0)
	require.Error(t, err)
	assert.Equal(t, 1, mock.CallCount())
	assert.Empty(t, sleeper.delays)
}

func TestClient_ZeroRetries(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: newConnectionError(errors.New("refused"))}, MockResponse{Content: "never"})
	sleeper := &recordingSleeper{}

	client := NewClient(mock, ClientConfig{MaxRetries: 0}, nil).WithSleeper(sleeper.Sleep)
	_, err := client.Invoke(context.Background(), testPrompt, 0)
	require.Error(t, err)
	assert.Equal(t, domain.CodeConnection, domain.CodeOf(err))
	assert.Equal(t, 1, mock.CallCount())
	assert.Empty(t, sleeper.delays)
}
