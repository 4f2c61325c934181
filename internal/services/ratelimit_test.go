package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/storefront/internal/config"
)

func TestMemoryLimiterWindow(t *testing.T) {
	now := time.Now()
	l := NewMemoryLimiter(config.OTPConfig{RateWindow: time.Minute, RateMax: 2})
	l.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, l.Allow(ctx, "k"))
	require.NoError(t, l.Allow(ctx, "k"))
	assert.ErrorIs(t, l.Allow(ctx, "k"), ErrRateLimited)
	assert.NoError(t, l.Allow(ctx, "other"), "keys are independent")

	now = now.Add(61 * time.Second)
	assert.NoError(t, l.Allow(ctx, "k"), "window slides")
}

func TestMemoryLimiterCooldown(t *testing.T) {
	now := time.Now()
	l := NewMemoryLimiter(config.OTPConfig{RateWindow: time.Minute, RateMax: 10, Cooldown: 15 * time.Second})
	l.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, l.Allow(ctx, "k"))
	now = now.Add(5 * time.Second)
	assert.ErrorIs(t, l.Allow(ctx, "k"), ErrRateLimited)
	now = now.Add(15 * time.Second)
	assert.NoError(t, l.Allow(ctx, "k"))
}

func TestNewRateLimiterDefaultsToMemory(t *testing.T) {
	l, closeFn := NewRateLimiter(&config.Config{OTP: testOTPConfig()}, zap.NewNop())
	defer closeFn()
	_, ok := l.(*MemoryLimiter)
	assert.True(t, ok)
}

func TestMemoryLimiterForgetsIdleKeys(t *testing.T) {
	now := time.Now()
	l := NewMemoryLimiter(config.OTPConfig{RateWindow: time.Minute, RateMax: 5, Cooldown: 15 * time.Second})
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c"} {
		require.NoError(t, l.Allow(ctx, key))
	}
	assert.Len(t, l.hits, 3)

	now = now.Add(2 * time.Minute)
	require.NoError(t, l.Allow(ctx, "d"))
	assert.Len(t, l.hits, 1)
	assert.Contains(t, l.hits, "d")
}

func newRedisLimiter(t *testing.T, cfg config.OTPConfig) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLimiter(client, cfg, zap.NewNop()), mr
}

func TestRedisLimiterCooldown(t *testing.T) {
	l, mr := newRedisLimiter(t, config.OTPConfig{RateWindow: time.Minute, RateMax: 10, Cooldown: 15 * time.Second})
	ctx := context.Background()

	require.NoError(t, l.Allow(ctx, "login:a@x.com"))
	assert.ErrorIs(t, l.Allow(ctx, "login:a@x.com"), ErrRateLimited)
	assert.NoError(t, l.Allow(ctx, "login:b@x.com"), "keys are independent")

	mr.FastForward(16 * time.Second)
	assert.NoError(t, l.Allow(ctx, "login:a@x.com"))
}

func TestRedisLimiterWindowAndBlock(t *testing.T) {
	l, mr := newRedisLimiter(t, config.OTPConfig{RateWindow: time.Minute, RateMax: 2})
	ctx := context.Background()

	require.NoError(t, l.Allow(ctx, "k"))
	require.NoError(t, l.Allow(ctx, "k"), "zero cooldown never blocks back-to-back requests")
	assert.ErrorIs(t, l.Allow(ctx, "k"), ErrRateLimited)
	assert.True(t, mr.Exists("otp:block:k"))

	mr.FastForward(2 * time.Minute)
	assert.False(t, mr.Exists("otp:count:k"), "window counter expired")
	assert.ErrorIs(t, l.Allow(ctx, "k"), ErrRateLimited, "block outlives the window")

	mr.FastForward(2 * time.Minute)
	assert.NoError(t, l.Allow(ctx, "k"))
}

func TestRedisLimiterUnavailable(t *testing.T) {
	l, mr := newRedisLimiter(t, config.OTPConfig{RateWindow: time.Minute, RateMax: 2})
	mr.Close()

	err := l.Allow(context.Background(), "k")
	assert.ErrorIs(t, err, ErrStore)
}
