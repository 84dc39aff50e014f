package ledger

import (
	"slices"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
)

// Locker hands out one mutex per account. Multi-account callers always lock
// in ascending id order so two transfers in opposite directions cannot
// deadlock.
type Locker struct {
	locks *xsync.MapOf[int64, *sync.Mutex]
}

func NewLocker() *Locker {
	return &Locker{locks: xsync.NewMapOf[int64, *sync.Mutex]()}
}

func (l *Locker) Lock(ids ...int64) (unlock func()) {
	ordered := slices.Clone(ids)
	slices.Sort(ordered)
	ordered = slices.Compact(ordered)

	held := make([]*sync.Mutex, 0, len(ordered))
	for _, id := range ordered {
		mu, _ := l.locks.LoadOrCompute(id, func() *sync.Mutex { return new(sync.Mutex) })
		mu.Lock()
		held = append(held, mu)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}
