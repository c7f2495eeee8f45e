package adapter

import (
	"context"
	"errors"
	"fmt"
	"quiz-forge/internal/domain"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCounterStore implements the domain.CounterStore interface using a Redis client.
type RedisCounterStore struct {
	client redis.Cmdable
}

// NewRedisCounterStore creates a new instance of RedisCounterStore.
// It expects a connected client.
func NewRedisCounterStore(client redis.Cmdable) domain.CounterStore {
	return &RedisCounterStore{client: client}
}

// Increment runs INCR and EXPIRE NX in one MULTI/EXEC block. EXPIRE NX only
// sets a TTL on a key that has none, so the window starts at the first
// increment and is never pushed back by later ones.
func (r *RedisCounterStore) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, window)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to increment counter %s: %w", key, err)
	}
	return incr.Val(), nil
}

// Get returns the counter value. A missing key reads as zero.
func (r *RedisCounterStore) Get(ctx context.Context, key string) (int64, error) {
	val, err := r.client.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read counter %s: %w", key, err)
	}
	return val, nil
}
