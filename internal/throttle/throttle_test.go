package throttle

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedWindowAdmitsUpToLimit(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	l := NewFixedWindowWithClock(time.Minute, 3, func() time.Time { return now })
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, _, err := l.Admit(ctx, "caller-1")
		require.NoError(t, err)
		assert.True(t, ok, "request %d", i)
	}

	ok, retryAfter, err := l.Admit(ctx, "caller-1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, time.Minute, retryAfter)
}

func TestFixedWindowResets(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	l := NewFixedWindowWithClock(time.Minute, 1, func() time.Time { return now })
	ctx := context.Background()

	ok, _, _ := l.Admit(ctx, "caller-1")
	assert.True(t, ok)
	ok, _, _ = l.Admit(ctx, "caller-1")
	assert.False(t, ok)

	now = now.Add(61 * time.Second)
	ok, _, _ = l.Admit(ctx, "caller-1")
	assert.True(t, ok)
}

func TestFixedWindowPerCaller(t *testing.T) {
	l := NewFixedWindow(time.Minute, 1)
	ctx := context.Background()

	ok, _, _ := l.Admit(ctx, "caller-1")
	assert.True(t, ok)
	ok, _, _ = l.Admit(ctx, "caller-2")
	assert.True(t, ok)
	ok, _, _ = l.Admit(ctx, "caller-1")
	assert.False(t, ok)
}

func TestFixedWindowRetryAfterShrinks(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	l := NewFixedWindowWithClock(time.Minute, 1, func() time.Time { return now })
	ctx := context.Background()

	_, _, _ = l.Admit(ctx, "caller-1")
	now = now.Add(40 * time.Second)
	ok, retryAfter, err := l.Admit(ctx, "caller-1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 20*time.Second, retryAfter)
}

func TestRedisLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	l := NewRedisLimiter(rdb, time.Minute, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, _, err := l.Admit(ctx, "caller-1")
		require.NoError(t, err)
		assert.True(t, ok)
	}

	ok, retryAfter, err := l.Admit(ctx, "caller-1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Greater(t, retryAfter, time.Duration(0))

	// Other callers are unaffected.
	ok, _, err = l.Admit(ctx, "caller-2")
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(61 * time.Second)
	ok, _, err = l.Admit(ctx, "caller-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLimiterReportsStoreErrors(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	l := NewRedisLimiter(rdb, time.Minute, 2)

	mr.Close()
	_, _, err := l.Admit(context.Background(), "caller-1")
	assert.Error(t, err)
}
