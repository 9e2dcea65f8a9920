package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryCounter struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func (c *memoryCounter) Incr(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if c.err != nil {
		return 0, 0, c.err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts == nil {
		c.counts = map[string]int64{}
	}
	c.counts[key]++
	return c.counts[key], window, nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func chatRequest(userID string) *http.Request {
	req := httptest.NewRequest("POST", "/api/chat", nil)
	return req.WithContext(WithUser(req.Context(), userID, ""))
}

func TestRateLimiterBlocksAfterLimit(t *testing.T) {
	rl := RateLimiter{Counter: &memoryCounter{}, Limit: 2, Window: time.Minute, Prefix: "chat"}
	h := rl.Middleware(okHandler())

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, chatRequest("user-1"))
		assert.Equal(t, http.StatusOK, rr.Code)
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, chatRequest("user-1"))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))
	assert.Equal(t, "0", rr.Header().Get("X-RateLimit-Remaining"))
	assert.Contains(t, rr.Body.String(), "too_many_requests")

	// other users have their own budget
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, chatRequest("user-2"))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRateLimiterFailsOpen(t *testing.T) {
	rl := RateLimiter{Counter: &memoryCounter{err: errors.New("connection refused")}, Limit: 1, Window: time.Minute}
	h := rl.Middleware(okHandler())

	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, chatRequest("user-1"))
		assert.Equal(t, http.StatusOK, rr.Code)
	}
}

func TestRateLimiterDisabledWithoutCounter(t *testing.T) {
	assert.Nil(t, NewRedisCounter(nil))

	rl := RateLimiter{Counter: NewRedisCounter(nil), Limit: 1}
	h := rl.Middleware(okHandler())
	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, chatRequest("user-1"))
		assert.Equal(t, http.StatusOK, rr.Code)
	}
}

type noScriptError struct{}

func (noScriptError) Error() string { return "NOSCRIPT No matching script. Please use EVAL." }
func (noScriptError) RedisError()   {}

// scriptServer runs the window script the way redis would, with an
// empty script cache so every EVALSHA falls back to EVAL
type scriptServer struct {
	mu      sync.Mutex
	scripts []string
	counts  map[string]int64
	ttls    map[string]int64
}

func (s *scriptServer) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scripts = append(s.scripts, script)
	if s.counts == nil {
		s.counts = map[string]int64{}
		s.ttls = map[string]int64{}
	}
	key := keys[0]
	s.counts[key]++
	if _, ok := s.ttls[key]; !ok {
		s.ttls[key] = args[0].(int64)
	}
	cmd := redis.NewCmd(ctx)
	cmd.SetVal([]interface{}{s.counts[key], s.ttls[key]})
	return cmd
}

func (s *scriptServer) EvalSha(ctx context.Context, _ string, _ []string, _ ...interface{}) *redis.Cmd {
	cmd := redis.NewCmd(ctx)
	cmd.SetErr(noScriptError{})
	return cmd
}

func (s *scriptServer) EvalRO(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	return s.Eval(ctx, script, keys, args...)
}

func (s *scriptServer) EvalShaRO(ctx context.Context, sha1 string, keys []string, args ...interface{}) *redis.Cmd {
	return s.EvalSha(ctx, sha1, keys, args...)
}

func (s *scriptServer) ScriptExists(ctx context.Context, _ ...string) *redis.BoolSliceCmd {
	return redis.NewBoolSliceCmd(ctx)
}

func (s *scriptServer) ScriptLoad(ctx context.Context, _ string) *redis.StringCmd {
	return redis.NewStringCmd(ctx)
}

func TestRedisCounterIncr(t *testing.T) {
	srv := &scriptServer{}
	c := &redisCounter{rdb: srv}

	count, ttl, err := c.Incr(context.Background(), "ratelimit:chat:user-1:0", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, time.Minute, ttl)

	count, ttl, err = c.Incr(context.Background(), "ratelimit:chat:user-1:0", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Equal(t, time.Minute, ttl)

	count, _, err = c.Incr(context.Background(), "ratelimit:chat:user-2:0", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.Len(t, srv.scripts, 3)
	assert.Contains(t, srv.scripts[0], "PEXPIRE")
	assert.False(t, strings.Contains(srv.scripts[0], "NX"), "the window script must run on redis 6")
}

func TestRedisCounterError(t *testing.T) {
	c := &redisCounter{rdb: failingScripter{&scriptServer{}}}
	_, _, err := c.Incr(context.Background(), "k", time.Minute)
	assert.Error(t, err)
}

type failingScripter struct{ *scriptServer }

func (failingScripter) EvalSha(ctx context.Context, _ string, _ []string, _ ...interface{}) *redis.Cmd {
	cmd := redis.NewCmd(ctx)
	cmd.SetErr(errors.New("connection refused"))
	return cmd
}
