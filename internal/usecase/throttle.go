package usecase

import (
	"context"
	"sync"
	"time"
)

// Throttler spaces requests to the same endpoint by a minimum interval. A
// caller that arrives too early sleeps for the remainder instead of being rejected.
type Throttler struct {
	mu    sync.Mutex
	next  map[string]time.Time
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewThrottler() *Throttler {
	return &Throttler{
		next:  make(map[string]time.Time),
		now:   time.Now,
		sleep: sleepContext,
	}
}

// Wait blocks until endpoint may be hit again and reserves the slot. Concurrent
// callers queue one interval apart.
func (t *Throttler) Wait(ctx context.Context, endpoint string, minInterval time.Duration) error {
	if minInterval <= 0 || endpoint == "" {
		return nil
	}

	t.mu.Lock()
	now := t.now()
	slot := now
	if reserved, ok := t.next[endpoint]; ok && reserved.After(now) {
		slot = reserved
	}
	t.next[endpoint] = slot.Add(minInterval)
	t.mu.Unlock()

	return t.sleep(ctx, slot.Sub(now))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
