package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter_BurstThenReject(t *testing.T) {
	// Arrange
	l := NewMemoryLimiter(3, time.Minute)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	// Act / Assert
	for i := 0; i < 3; i++ {
		d, err := l.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, d.Allowed, "request %d", i+1)
	}

	d, err := l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 20*time.Second, d.RetryAfter)

	other, err := l.Allow(ctx, "5.6.7.8")
	require.NoError(t, err)
	assert.True(t, other.Allowed)
}

func TestMemoryLimiter_Refills(t *testing.T) {
	l := NewMemoryLimiter(2, time.Minute)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := l.Allow(ctx, "k")
		require.NoError(t, err)
	}
	d, _ := l.Allow(ctx, "k")
	require.False(t, d.Allowed)

	now = now.Add(30 * time.Second)
	d, err := l.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestMemoryLimiter_RejectedRequestsDoNotConsume(t *testing.T) {
	l := NewMemoryLimiter(1, time.Minute)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	_, _ = l.Allow(ctx, "k")
	for i := 0; i < 5; i++ {
		d, _ := l.Allow(ctx, "k")
		require.False(t, d.Allowed)
	}

	now = now.Add(time.Minute)
	d, _ := l.Allow(ctx, "k")
	assert.True(t, d.Allowed)
}

func TestMemoryLimiter_EvictsIdleKeys(t *testing.T) {
	l := NewMemoryLimiter(5, time.Minute)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	_, _ = l.Allow(ctx, "a")
	_, _ = l.Allow(ctx, "b")
	assert.Equal(t, 2, l.Len())

	now = now.Add(2 * time.Minute)
	_, _ = l.Allow(ctx, "c")
	assert.Equal(t, 1, l.Len())
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisLimiter_FixedWindow(t *testing.T) {
	mr, client := newTestRedis(t)
	l := NewRedisLimiter(client, 2, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		d, err := l.Allow(ctx, "auth:1.2.3.4")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	}

	d, err := l.Allow(ctx, "auth:1.2.3.4")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Greater(t, d.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, d.RetryAfter, time.Minute)
	assert.True(t, mr.Exists("ratelimit:auth:1.2.3.4"))

	mr.FastForward(time.Minute + time.Second)

	d, err = l.Allow(ctx, "auth:1.2.3.4")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestRedisLimiter_RestoresMissingExpiry(t *testing.T) {
	mr, client := newTestRedis(t)
	l := NewRedisLimiter(client, 1, time.Minute)
	require.NoError(t, mr.Set("ratelimit:k", "5"))

	d, err := l.Allow(context.Background(), "k")

	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, time.Minute, d.RetryAfter)
	assert.Greater(t, mr.TTL("ratelimit:k"), time.Duration(0))
}

func TestRedisLimiter_Unavailable(t *testing.T) {
	mr, client := newTestRedis(t)
	l := NewRedisLimiter(client, 1, time.Minute)
	mr.Close()

	_, err := l.Allow(context.Background(), "k")

	assert.Error(t, err)
}

type stubLimiter struct {
	decision Decision
	err      error
	keys     []string
}

func (s *stubLimiter) Allow(_ context.Context, key string) (Decision, error) {
	s.keys = append(s.keys, key)
	return s.decision, s.err
}

func serveThrough(l Limiter, remoteAddr string) *httptest.ResponseRecorder {
	h := Middleware(l, "auth")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		limiter        *stubLimiter
		expectedStatus int
		retryAfter     string
	}{
		{
			name:           "allowed",
			limiter:        &stubLimiter{decision: Decision{Allowed: true}},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "rejected rounds retry-after up",
			limiter:        &stubLimiter{decision: Decision{RetryAfter: 1500 * time.Millisecond}},
			expectedStatus: http.StatusTooManyRequests,
			retryAfter:     "2",
		},
		{
			name:           "rejected with sub-second wait",
			limiter:        &stubLimiter{decision: Decision{RetryAfter: 10 * time.Millisecond}},
			expectedStatus: http.StatusTooManyRequests,
			retryAfter:     "1",
		},
		{
			name:           "limiter error lets request through",
			limiter:        &stubLimiter{err: errors.New("redis down")},
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serveThrough(tt.limiter, "10.0.0.7:51234")

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Equal(t, tt.retryAfter, rec.Header().Get("Retry-After"))
			assert.Equal(t, []string{"auth:10.0.0.7"}, tt.limiter.keys)
			if tt.expectedStatus == http.StatusTooManyRequests {
				assert.JSONEq(t, `{"error":{"message":"too many requests"}}`, rec.Body.String())
			}
		})
	}
}

func TestMiddleware_KeysByClientIP(t *testing.T) {
	l := NewMemoryLimiter(1, time.Minute)

	assert.Equal(t, http.StatusOK, serveThrough(l, "10.0.0.1:1000").Code)
	assert.Equal(t, http.StatusOK, serveThrough(l, "10.0.0.2:1000").Code)
	assert.Equal(t, http.StatusTooManyRequests, serveThrough(l, "10.0.0.1:2000").Code)
}
