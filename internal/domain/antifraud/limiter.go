// Package antifraud throttles bursts and clamps daily totals.
package antifraud

import (
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
)

// Limiter admits at most max actions per account inside any trailing window.
// Windows are kept in a bounded LRU, so a long-idle account may be forgotten;
// forgetting only ever admits more.
type Limiter struct {
	max     int
	window  time.Duration
	now     func() time.Time
	windows *lru.Cache
}

type hits struct {
	mu     sync.Mutex
	stamps []time.Time
}

func NewLimiter(max int, window time.Duration, tracked int, now func() time.Time) (*Limiter, error) {
	if max <= 0 || window <= 0 {
		return nil, fmt.Errorf("invalid limiter: max=%d window=%s", max, window)
	}
	cache, err := lru.New(tracked)
	if err != nil {
		return nil, fmt.Errorf("failed to create limiter cache: %w", err)
	}
	if now == nil {
		now = time.Now
	}
	return &Limiter{max: max, window: window, now: now, windows: cache}, nil
}

// Allow records the action and reports whether it is admitted. Rejected
// attempts are not recorded.
func (l *Limiter) Allow(accountID int64) bool {
	h := l.hitsFor(accountID)

	h.mu.Lock()
	defer h.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)
	kept := h.stamps[:0]
	for _, ts := range h.stamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	h.stamps = kept

	if len(h.stamps) >= l.max {
		return false
	}
	h.stamps = append(h.stamps, now)
	return true
}

func (l *Limiter) hitsFor(accountID int64) *hits {
	if v, ok := l.windows.Get(accountID); ok {
		return v.(*hits)
	}
	fresh := &hits{}
	if prev, found, _ := l.windows.PeekOrAdd(accountID, fresh); found {
		return prev.(*hits)
	}
	return fresh
}
