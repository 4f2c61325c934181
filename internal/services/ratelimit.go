package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/example/storefront/internal/config"
)

// RateLimiter guards code issuance per key. Allow returns ErrRateLimited
// when the key is over its budget.
type RateLimiter interface {
	Allow(ctx context.Context, key string) error
}

// MemoryLimiter is a per-process sliding window with a cooldown between requests.
type MemoryLimiter struct {
	window   time.Duration
	max      int
	cooldown time.Duration
	now      func() time.Time

	mu        sync.Mutex
	hits      map[string][]time.Time
	lastSweep time.Time
}

func NewMemoryLimiter(cfg config.OTPConfig) *MemoryLimiter {
	return &MemoryLimiter{
		window:   cfg.RateWindow,
		max:      cfg.RateMax,
		cooldown: cfg.Cooldown,
		now:      time.Now,
		hits:     make(map[string][]time.Time),
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)
	cutoff := now.Add(-l.window)
	kept := l.hits[key][:0]
	for _, t := range l.hits[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if n := len(kept); n > 0 && now.Sub(kept[n-1]) < l.cooldown {
		l.hits[key] = kept
		return ErrRateLimited.WithMessage("please wait before requesting another code")
	}
	if l.max > 0 && len(kept) >= l.max {
		l.hits[key] = kept
		return ErrRateLimited
	}

	l.hits[key] = append(kept, now)
	return nil
}

// sweep drops keys whose newest hit can no longer affect a decision. It runs
// at most once per window.
func (l *MemoryLimiter) sweep(now time.Time) {
	horizon := max(l.window, l.cooldown)
	if now.Sub(l.lastSweep) < horizon {
		return
	}
	l.lastSweep = now
	for key, hits := range l.hits {
		if len(hits) == 0 || now.Sub(hits[len(hits)-1]) >= horizon {
			delete(l.hits, key)
		}
	}
}

// RedisLimiter shares limits across processes: a cooldown key per request,
// a counter per window, and a block key once the counter overflows.
type RedisLimiter struct {
	client   *redis.Client
	window   time.Duration
	max      int
	cooldown time.Duration
	log      *zap.Logger
}

func NewRedisLimiter(client *redis.Client, cfg config.OTPConfig, log *zap.Logger) *RedisLimiter {
	return &RedisLimiter{client: client, window: cfg.RateWindow, max: cfg.RateMax, cooldown: cfg.Cooldown, log: log}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) error {
	blockKey := "otp:block:" + key
	lastKey := "otp:last:" + key
	countKey := "otp:count:" + key

	blocked, err := l.client.Exists(ctx, blockKey).Result()
	if err != nil {
		return ErrStore.Wrap(fmt.Errorf("check otp block: %w", err))
	}
	if blocked > 0 {
		return ErrRateLimited
	}

	// a zero TTL would make SetNX keep the key forever
	if l.cooldown > 0 {
		ok, err := l.client.SetNX(ctx, lastKey, "1", l.cooldown).Result()
		if err != nil {
			return ErrStore.Wrap(fmt.Errorf("set otp cooldown: %w", err))
		}
		if !ok {
			return ErrRateLimited.WithMessage("please wait before requesting another code")
		}
	}

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, countKey)
	pipe.ExpireNX(ctx, countKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return ErrStore.Wrap(fmt.Errorf("count otp requests: %w", err))
	}

	if l.max > 0 && int(incr.Val()) > l.max {
		if err := l.client.Set(ctx, blockKey, "1", l.window*3).Err(); err != nil {
			l.log.Warn("otp block not stored", zap.String("key", key), zap.Error(err))
		}
		return ErrRateLimited
	}
	return nil
}

// NewRateLimiter picks Redis when an address is configured.
func NewRateLimiter(cfg *config.Config, log *zap.Logger) (RateLimiter, func() error) {
	if cfg.Redis.Addr == "" {
		return NewMemoryLimiter(cfg.OTP), func() error { return nil }
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return NewRedisLimiter(client, cfg.OTP, log), client.Close
}
