package adapter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestRedisCounterStore_Increment(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisCounterStore(db)
	ctx := context.Background()

	key := "quizforge:ratelimit:generation:user-1"
	window := time.Hour

	t.Run("FirstIncrementSetsTTL", func(t *testing.T) {
		mock.ExpectTxPipeline()
		mock.ExpectIncr(key).SetVal(1)
		mock.ExpectExpireNX(key, window).SetVal(true)
		mock.ExpectTxPipelineExec()

		count, err := store.Increment(ctx, key, window)
		assert.NoError(t, err)
		assert.Equal(t, int64(1), count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("LaterIncrementKeepsTTL", func(t *testing.T) {
		mock.ExpectTxPipeline()
		mock.ExpectIncr(key).SetVal(7)
		mock.ExpectExpireNX(key, window).SetVal(false)
		mock.ExpectTxPipelineExec()

		count, err := store.Increment(ctx, key, window)
		assert.NoError(t, err)
		assert.Equal(t, int64(7), count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRedisCounterStore_Get(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisCounterStore(db)
	ctx := context.Background()

	key := "quizforge:ratelimit:generation:user-1"

	t.Run("Success", func(t *testing.T) {
		mock.ExpectGet(key).SetVal("12")
		count, err := store.Get(ctx, key)
		assert.NoError(t, err)
		assert.Equal(t, int64(12), count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("MissingKeyIsZero", func(t *testing.T) {
		mock.ExpectGet(key).SetErr(redis.Nil)
		count, err := store.Get(ctx, key)
		assert.NoError(t, err)
		assert.Zero(t, count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("RedisError", func(t *testing.T) {
		redisErr := errors.New("some redis error")
		mock.ExpectGet(key).SetErr(redisErr)
		count, err := store.Get(ctx, key)
		assert.ErrorIs(t, err, redisErr)
		assert.Zero(t, count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
