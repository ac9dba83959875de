package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_CountsWithinWindow(t *testing.T) {
	srv := miniredis.RunT(t)
	limiter := NewRateLimiter(goredis.NewClient(&goredis.Options{Addr: srv.Addr()}), "test:")

	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		count, retry, err := limiter.Consume(ctx, "orders", "user-1", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, i, count)
		assert.GreaterOrEqual(t, retry, 1)
		assert.LessOrEqual(t, retry, 60)
	}

	count, _, err := limiter.Consume(ctx, "orders", "user-2", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	assert.True(t, srv.Exists("test:orders:user-1"))

	srv.FastForward(61 * time.Second)
	count, _, err = limiter.Consume(ctx, "orders", "user-1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRateLimiter_NoopCases(t *testing.T) {
	var nilLimiter *RateLimiter
	count, retry, err := nilLimiter.Consume(context.Background(), "s", "u", time.Minute)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Zero(t, retry)

	limiter := NewRateLimiter(nil, "")
	assert.Equal(t, "solbol:rate_limit", limiter.prefix)
	count, _, err = limiter.Consume(context.Background(), "s", "u", time.Minute)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRateLimiter_RedisError(t *testing.T) {
	srv := miniredis.RunT(t)
	limiter := NewRateLimiter(goredis.NewClient(&goredis.Options{Addr: srv.Addr()}), "x")
	srv.Close()

	_, _, err := limiter.Consume(context.Background(), "s", "u", time.Minute)
	assert.Error(t, err)
}
