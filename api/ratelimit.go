package api

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// WindowCounter counts hits on a key within a fixed window
type WindowCounter interface {
	Incr(ctx context.Context, key string, window time.Duration) (count int64, ttl time.Duration, err error)
}

// windowScript increments the counter and starts the window on the first
// hit. A key left without an expiry is given one as well. Runs on Redis 6,
// so no EXPIRE NX.
var windowScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
local ttl = redis.call('PTTL', KEYS[1])
if count == 1 or ttl < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return { count, ttl }
`)

type redisCounter struct {
	rdb redis.Scripter
}

// NewRedisCounter returns a WindowCounter backed by a redis script.
// A nil client yields a nil counter, which disables limiting.
func NewRedisCounter(rdb *redis.Client) WindowCounter {
	if rdb == nil {
		return nil
	}
	return &redisCounter{rdb: rdb}
}

func (c *redisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	vals, err := windowScript.Run(ctx, c.rdb, []string{key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return 0, 0, err
	}
	if len(vals) != 2 {
		return 0, 0, fmt.Errorf("unexpected rate limit reply %v", vals)
	}
	return vals[0], time.Duration(vals[1]) * time.Millisecond, nil
}

// RateLimiter allows Limit requests per user per Window
type RateLimiter struct {
	Counter WindowCounter
	Limit   int
	Window  time.Duration
	Prefix  string
}

type rateLimitResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retryAfter"`
}

// Middleware enforces the limit for the authenticated user. It must run
// after Middleware. Without a counter, or when redis fails, requests pass.
func (rl RateLimiter) Middleware(next http.Handler) http.Handler {
	if rl.Counter == nil || rl.Limit <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := UserIDFromContext(r.Context())
		if !ok {
			userID = "anon"
		}
		window := rl.Window
		if window <= 0 {
			window = time.Minute
		}
		key := rl.Prefix + ":" + userID + ":" + strconv.FormatInt(time.Now().Truncate(window).Unix(), 10)

		count, ttl, err := rl.Counter.Incr(r.Context(), key, window)
		if err != nil {
			zap.S().Warnw("rate limit check failed", "key", key, "error", err)
			next.ServeHTTP(w, r)
			return
		}

		remaining := int64(rl.Limit) - count
		if remaining < 0 {
			remaining = 0
		}
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(rl.Limit) {
			secs := int(math.Ceil(ttl.Seconds()))
			if secs <= 0 {
				secs = int(window / time.Second)
			}
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(rateLimitResponse{
				Error:      "too_many_requests",
				Message:    "You are sending messages too quickly. Please wait a moment and try again.",
				RetryAfter: secs,
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
