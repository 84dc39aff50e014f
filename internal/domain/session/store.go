// Package session keeps short-lived per-account conversation state such as a
// transfer in progress or a quiz question awaiting an answer.
package session

import (
	"context"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Store maps an account to at most one live value. Entries past their TTL
// behave as absent; only Sweep and Delete remove them.
type Store[V any] struct {
	ttl     time.Duration
	now     func() time.Time
	entries *xsync.MapOf[int64, entry[V]]
}

func NewStore[V any](ttl time.Duration, now func() time.Time) *Store[V] {
	if now == nil {
		now = time.Now
	}
	return &Store[V]{
		ttl:     ttl,
		now:     now,
		entries: xsync.NewMapOf[int64, entry[V]](),
	}
}

// Put replaces any value held for accountID.
func (s *Store[V]) Put(accountID int64, v V) time.Time {
	expiresAt := s.now().Add(s.ttl)
	s.entries.Store(accountID, entry[V]{value: v, expiresAt: expiresAt})
	return expiresAt
}

func (s *Store[V]) Get(accountID int64) (V, bool) {
	e, ok := s.entries.Load(accountID)
	if !ok || !s.now().Before(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Update rewrites a live value in place and refreshes its TTL, returning the
// new expiry. It reports false when nothing live was stored.
func (s *Store[V]) Update(accountID int64, fn func(V) V) (time.Time, bool) {
	var (
		expiresAt time.Time
		updated   bool
	)
	s.entries.Compute(accountID, func(old entry[V], loaded bool) (entry[V], bool) {
		if !loaded {
			return old, true
		}
		if !s.now().Before(old.expiresAt) {
			return old, false
		}
		updated = true
		expiresAt = s.now().Add(s.ttl)
		return entry[V]{value: fn(old.value), expiresAt: expiresAt}, false
	})
	return expiresAt, updated
}

// Take removes and returns the live value if match accepts it. Of several
// concurrent callers at most one receives the value.
func (s *Store[V]) Take(accountID int64, match func(V) bool) (V, bool) {
	var (
		taken V
		ok    bool
	)
	s.entries.Compute(accountID, func(old entry[V], loaded bool) (entry[V], bool) {
		if !loaded {
			return old, true
		}
		if !s.now().Before(old.expiresAt) {
			return old, false
		}
		if match != nil && !match(old.value) {
			return old, false
		}
		taken, ok = old.value, true
		return old, true
	})
	return taken, ok
}

func (s *Store[V]) Delete(accountID int64) {
	s.entries.Delete(accountID)
}

func (s *Store[V]) Len() int {
	return s.entries.Size()
}

// Sweep drops expired entries and returns how many were removed.
func (s *Store[V]) Sweep() int {
	now := s.now()
	var expired []int64
	s.entries.Range(func(id int64, e entry[V]) bool {
		if !now.Before(e.expiresAt) {
			expired = append(expired, id)
		}
		return true
	})
	removed := 0
	for _, id := range expired {
		s.entries.Compute(id, func(old entry[V], loaded bool) (entry[V], bool) {
			if loaded && !now.Before(old.expiresAt) {
				removed++
				return old, true
			}
			return old, !loaded
		})
	}
	return removed
}

func (s *Store[V]) StartCleanupRoutine(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}
