// Package ratelimit throttles anonymous traffic to the public share endpoints.
//
// Limits are fixed windows per key (normally the client IP). With Redis
// configured the counters are shared across server instances; otherwise each
// instance counts on its own.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/MKhiriev/go-drive-pool/internal/config"
	"github.com/MKhiriev/go-drive-pool/internal/logger"
	"github.com/redis/go-redis/v9"
)

// Window is the length of a rate limit window.
const Window = time.Minute

const keyPrefix = "drivepool:ratelimit:"

var ErrLimiterUnavailable = errors.New("rate limiter store is unavailable")

// Limiter decides whether one more request for key fits in the current window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// New builds the limiter selected by cfg. A non-positive rate disables
// limiting. The returned close function releases the Redis connection, if any.
func New(ctx context.Context, cfg config.StructuredConfig, log *logger.Logger) (Limiter, func() error, error) {
	rate := cfg.Server.PublicRateLimit
	if rate <= 0 {
		log.Info().Msg("public rate limit disabled")
		return Unlimited{}, noClose, nil
	}

	if cfg.Storage.Redis.Address == "" {
		log.Info().Int("rate", rate).Msg("using in-memory rate limiter")
		return NewMemoryLimiter(rate, Window), noClose, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Storage.Redis.Address,
		Password: cfg.Storage.Redis.Password,
		DB:       cfg.Storage.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, noClose, fmt.Errorf("%w: %w", ErrLimiterUnavailable, err)
	}

	log.Info().Int("rate", rate).Str("address", cfg.Storage.Redis.Address).Msg("using redis rate limiter")
	return NewRedisLimiter(client, rate, Window), client.Close, nil
}

func noClose() error { return nil }

// Unlimited allows every request.
type Unlimited struct{}

func (Unlimited) Allow(context.Context, string) (bool, error) { return true, nil }

// RedisLimiter counts requests with INCR on a key named after the window.
type RedisLimiter struct {
	client redis.Cmdable
	rate   int
	window time.Duration
	now    func() time.Time
}

func NewRedisLimiter(client redis.Cmdable, rate int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		rate:   rate,
		window: window,
		now:    time.Now,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	windowStart := l.now().Truncate(l.window)
	redisKey := keyPrefix + key + ":" + strconv.FormatInt(windowStart.Unix(), 10)

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.Expire(ctx, redisKey, l.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrLimiterUnavailable, err)
	}

	return incr.Val() <= int64(l.rate), nil
}

// MemoryLimiter keeps per-key windows in process memory. Expired windows are
// swept at most once per window.
type MemoryLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	rate      int
	window    time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type visitor struct {
	count       int
	windowStart time.Time
}

func NewMemoryLimiter(rate int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
		now:      time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.window {
		l.sweep(now)
	}

	v, ok := l.visitors[key]
	if !ok || now.Sub(v.windowStart) >= l.window {
		l.visitors[key] = &visitor{count: 1, windowStart: now}
		return l.rate > 0, nil
	}
	v.count++
	return v.count <= l.rate, nil
}

func (l *MemoryLimiter) sweep(now time.Time) {
	for key, v := range l.visitors {
		if now.Sub(v.windowStart) >= l.window {
			delete(l.visitors, key)
		}
	}
	l.lastSweep = now
}
