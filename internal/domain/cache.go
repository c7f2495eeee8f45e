package domain

import (
	"context"
	"time"
)

// CounterStore defines the interface (port) for the shared counter backing the
// rate limiter. Implementations must make Increment atomic so concurrent
// callers cannot race past a ceiling.
type CounterStore interface {
	// Increment adds one to the counter at key and returns the new value.
	// When the counter is created, its expiry is set to window. Later
	// increments never extend the expiry (fixed window, not sliding).
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)

	// Get returns the current counter value, or 0 if the key does not exist
	// or has expired.
	Get(ctx context.Context, key string) (int64, error)
}
