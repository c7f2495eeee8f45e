package ratelimit

import (
	"context"
	"quiz-forge/internal/cache"
	"quiz-forge/internal/domain"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultLimit  int64 = 30
	DefaultWindow       = time.Hour
)

// Limiter gates generations per requester with a fixed window counter kept in
// a domain.CounterStore. Check never mutates; Increment is called once per
// successful generation.
type Limiter struct {
	store  domain.CounterStore
	limit  int64
	window time.Duration
	logger *zap.Logger
}

func NewLimiter(store domain.CounterStore, limit int64, window time.Duration, logger *zap.Logger) *Limiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Limiter{store: store, limit: limit, window: window, logger: logger}
}

// Limit returns the ceiling per window.
func (l *Limiter) Limit() int64 { return l.limit }

func key(requesterID string) string {
	return cache.GenerateCacheKey("ratelimit", "generation", requesterID)
}

// Check returns a RATE_LIMITED error when the requester already used up the
// current window. Store failures let the request through. A nil Limiter
// never limits.
func (l *Limiter) Check(ctx context.Context, requesterID string) error {
	if l == nil {
		return nil
	}
	requesterID = strings.TrimSpace(requesterID)
	if requesterID == "" {
		return nil
	}

	count, err := l.store.Get(ctx, key(requesterID))
	if err != nil {
		l.logger.Warn("Rate limit check failed, allowing request",
			zap.String("requester_id", requesterID),
			zap.Error(err))
		return nil
	}
	if count >= l.limit {
		l.logger.Info("Rate limit exceeded",
			zap.String("requester_id", requesterID),
			zap.Int64("count", count),
			zap.Int64("limit", l.limit))
		return domain.NewRateLimitError(l.limit)
	}
	return nil
}

// Increment records one successful generation for the requester.
func (l *Limiter) Increment(ctx context.Context, requesterID string) {
	if l == nil {
		return
	}
	requesterID = strings.TrimSpace(requesterID)
	if requesterID == "" {
		return
	}

	count, err := l.store.Increment(ctx, key(requesterID), l.window)
	if err != nil {
		l.logger.Error("Failed to increment rate limit counter",
			zap.String("requester_id", requesterID),
			zap.Error(err))
		return
	}
	l.logger.Debug("Rate limit counter incremented",
		zap.String("requester_id", requesterID),
		zap.Int64("count", count))
}
