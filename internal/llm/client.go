package llm

import (
	"context"
	"errors"
	"fmt"
	"quiz-forge/internal/domain"
	"quiz-forge/internal/prompt"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultTimeout    = 180 * time.Second
	DefaultMaxRetries = 2
	DefaultRetryDelay = 5 * time.Second
)

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// ContextSleeper is the production Sleeper.
func ContextSleeper(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Outcome is the terminal state of one attempt.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeRetryable Outcome = "retryable_failure"
	OutcomeFatal     Outcome = "fatal_failure"
)

type ClientConfig struct {
	Timeout     time.Duration
	MaxRetries  int
	RetryDelay  time.Duration
	Temperature float64
}

// Completion is the successful result of Invoke.
type Completion struct {
	Content  string
	Usage    domain.TokenUsage
	Model    string
	Attempts int
}

// Client drives a Provider through a bounded retry state machine:
// Idle -> Requesting -> {Success, RetryableFailure, FatalFailure}.
// RetryableFailure goes back to Requesting after a fixed delay until the
// retry budget is spent.
type Client struct {
	provider Provider
	config   ClientConfig
	sleep    Sleeper
	logger   *zap.Logger
}

func NewClient(provider Provider, cfg ClientConfig, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay < 0 {
		cfg.RetryDelay = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{provider: provider, config: cfg, sleep: ContextSleeper, logger: logger}
}

// WithSleeper replaces the inter-attempt sleeper. Tests pass a no-op.
func (c *Client) WithSleeper(s Sleeper) *Client {
	c.sleep = s
	return c
}

// ModelID returns the model of the underlying provider.
func (c *Client) ModelID() string {
	return c.provider.ModelID()
}

// Invoke sends the prompt and returns the raw model text.
func (c *Client) Invoke(ctx context.Context, p prompt.Prompt, maxCompletionTokens int) (*Completion, error) {
	req := Request{
		System:              p.System,
		User:                p.User,
		MaxCompletionTokens: maxCompletionTokens,
		Temperature:         c.config.Temperature,
	}
	maxAttempts := c.config.MaxRetries + 1

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		start := time.Now()
		resp, err := c.request(ctx, req)
		outcome := c.classify(ctx, err)

		fields := []zap.Field{
			zap.String("model", c.provider.ModelID()),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", maxAttempts),
			zap.String("outcome", string(outcome)),
			zap.Duration("latency", time.Since(start)),
		}

		switch outcome {
		case OutcomeSuccess:
			c.logger.Info("Model request succeeded", append(fields,
				zap.Int("prompt_tokens", resp.Usage.PromptTokens),
				zap.Int("completion_tokens", resp.Usage.CompletionTokens))...)
			return &Completion{
				Content:  resp.Content,
				Usage:    resp.Usage,
				Model:    resp.Model,
				Attempts: attempt,
			}, nil
		case OutcomeFatal:
			c.logger.Error("Model request failed", append(fields, zap.Error(err))...)
			return nil, err
		}

		c.logger.Warn("Model request failed, will retry", append(fields, zap.Error(err))...)
		lastErr = err
		if attempt == maxAttempts {
			break
		}
		if sleepErr := c.sleep(ctx, c.config.RetryDelay); sleepErr != nil {
			return nil, domain.NewError(domain.CodeTimeout, "model request cancelled while waiting to retry", sleepErr)
		}
	}

	return nil, exhausted(lastErr, maxAttempts)
}

// request performs one attempt bounded by the per-attempt timeout.
func (c *Client) request(ctx context.Context, req Request) (*Response, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	resp, err := c.provider.Generate(attemptCtx, req)
	if err != nil {
		if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, newTimeoutError(err)
		}
		return nil, err
	}
	return resp, nil
}

func (c *Client) classify(ctx context.Context, err error) Outcome {
	if err == nil {
		return OutcomeSuccess
	}
	// the caller gave up; retrying cannot help
	if ctx.Err() != nil {
		return OutcomeFatal
	}
	var de *domain.DomainError
	if !errors.As(err, &de) {
		return OutcomeRetryable
	}
	if de.Retryable() {
		return OutcomeRetryable
	}
	return OutcomeFatal
}

func exhausted(lastErr error, attempts int) error {
	code := domain.CodeOf(lastErr)
	if code == domain.CodeInternal {
		code = domain.CodeConnection
	}
	return domain.NewError(code,
		fmt.Sprintf("model request failed after %d attempts; try again with less content or fewer questions", attempts),
		lastErr).
		WithContext("attempts", attempts)
}
