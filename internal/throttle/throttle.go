// Package throttle bounds the rate of expensive optimization calls per
// caller with a fixed 60-second window.
package throttle

import (
	"context"
	"sync"
	"time"
)

const (
	// DefaultWindow is the fixed-window length.
	DefaultWindow = time.Minute
	// DefaultLimit is the maximum admitted requests per window.
	DefaultLimit = 10
)

// Limiter admits or rejects a request for a caller. When rejected, the
// returned duration is the suggested wait before retrying.
type Limiter interface {
	Admit(ctx context.Context, callerID string) (ok bool, retryAfter time.Duration, err error)
}

type windowEntry struct {
	count   int
	resetAt time.Time
}

// FixedWindow is an in-process Limiter. Counter updates are mutex-guarded
// so concurrent requests for the same caller never lose increments. For
// horizontally scaled deployments use RedisLimiter instead; a per-process
// map undercounts across replicas.
type FixedWindow struct {
	mu     sync.Mutex
	m      map[string]*windowEntry
	window time.Duration
	limit  int
	now    func() time.Time
}

func NewFixedWindow(window time.Duration, limit int) *FixedWindow {
	return NewFixedWindowWithClock(window, limit, time.Now)
}

// NewFixedWindowWithClock injects a clock for deterministic tests.
func NewFixedWindowWithClock(window time.Duration, limit int, now func() time.Time) *FixedWindow {
	if window <= 0 {
		window = DefaultWindow
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &FixedWindow{m: map[string]*windowEntry{}, window: window, limit: limit, now: now}
}

func (f *FixedWindow) Admit(_ context.Context, callerID string) (bool, time.Duration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	e, ok := f.m[callerID]
	if !ok || now.After(e.resetAt) {
		f.m[callerID] = &windowEntry{count: 1, resetAt: now.Add(f.window)}
		return true, 0, nil
	}
	if e.count >= f.limit {
		return false, e.resetAt.Sub(now), nil
	}
	e.count++
	return true, 0, nil
}
