package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error)
}

type FailureMode string

const (
	FailOpen   FailureMode = "fail_open"
	FailClosed FailureMode = "fail_closed"
)

type fixedWindow struct {
	count       int
	windowStart time.Time
}

type localFixedWindowLimiter struct {
	mu      sync.Mutex
	store   map[string]*fixedWindow
	cleanup time.Time
	now     func() time.Time
}

// NewLocalLimiter keeps counters in process memory; fine for a single instance.
func NewLocalLimiter() Limiter {
	return &localFixedWindowLimiter{
		store:   make(map[string]*fixedWindow),
		cleanup: time.Now().Add(time.Minute),
		now:     time.Now,
	}
}

func (l *localFixedWindowLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.After(l.cleanup) {
		for k, v := range l.store {
			if now.Sub(v.windowStart) > 2*window {
				delete(l.store, k)
			}
		}
		l.cleanup = now.Add(window)
	}

	entry, ok := l.store[key]
	if !ok || now.Sub(entry.windowStart) >= window {
		l.store[key] = &fixedWindow{count: 1, windowStart: now}
		return true, 0, nil
	}
	if entry.count >= limit {
		return false, max(window-now.Sub(entry.windowStart), 0), nil
	}
	entry.count++
	return true, 0, nil
}

var redisWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
local ttl = redis.call("PTTL", KEYS[1])
if count == 1 or ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

type RedisLimiter struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisLimiter shares counters between instances through redis.
func NewRedisLimiter(client redis.UniversalClient, prefix string) *RedisLimiter {
	if prefix == "" {
		prefix = "rl"
	}
	return &RedisLimiter{client: client, prefix: prefix}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	if l.client == nil {
		return false, 0, errors.New("redis client is nil")
	}
	if key == "" {
		key = "unknown"
	}
	windowMS := window.Milliseconds()
	if windowMS <= 0 {
		windowMS = 1000
	}

	raw, err := redisWindowScript.Run(ctx, l.client, []string{l.prefix + ":" + key}, windowMS).Int64Slice()
	if err != nil {
		return false, 0, err
	}
	if len(raw) != 2 {
		return false, 0, fmt.Errorf("unexpected redis script response %v", raw)
	}
	count, ttlMS := raw[0], raw[1]
	if count > int64(limit) {
		return false, time.Duration(ttlMS) * time.Millisecond, nil
	}
	return true, 0, nil
}

// RateLimit limits requests per client IP. A limit <= 0 disables it.
func RateLimit(limiter Limiter, scope string, limit int, window time.Duration, mode FailureMode, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit <= 0 {
			c.Next()
			return
		}

		key := scope + ":" + c.ClientIP()
		allowed, retryAfter, err := limiter.Allow(c.Request.Context(), key, limit, window)
		if err != nil {
			if mode == FailOpen {
				logger.WarnContext(c.Request.Context(), "rate limiter backend unavailable, allowing request",
					"scope", scope,
					"err", err,
				)
				c.Next()
				return
			}
			retryAfter = window
			allowed = false
		}
		if !allowed {
			c.Header("Retry-After", retryAfterHeader(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"success": false, "message": "Too many requests, slow down"})
			return
		}
		c.Next()
	}
}

func retryAfterHeader(d time.Duration) string {
	seconds := int(d.Round(time.Second).Seconds())
	if seconds <= 0 {
		seconds = 1
	}
	return strconv.Itoa(seconds)
}
