package antifraud

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jumanzarismoilov-jpg/botim/internal/domain"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/money"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestLimiterSlidingWindow(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	l, err := NewLimiter(3, time.Minute, 100, clock.Now)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if !l.Allow(1) {
			t.Fatalf("attempt %d rejected", i+1)
		}
		clock.Advance(10 * time.Second)
	}
	if l.Allow(1) {
		t.Fatal("fourth attempt inside the window was admitted")
	}
	if !l.Allow(2) {
		t.Fatal("another account was throttled")
	}

	// First hit was at t=0; at t=60s it has left the window.
	clock.Advance(30 * time.Second)
	if !l.Allow(1) {
		t.Fatal("attempt after the oldest hit expired was rejected")
	}
	if l.Allow(1) {
		t.Fatal("window should be full again")
	}
}

func TestLimiterConcurrentSameAccount(t *testing.T) {
	l, err := NewLimiter(5, time.Minute, 100, nil)
	if err != nil {
		t.Fatal(err)
	}

	var admitted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow(9) {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()

	if admitted.Load() != 5 {
		t.Errorf("admitted %d, want 5", admitted.Load())
	}
}

func TestNewLimiterRejectsBadConfig(t *testing.T) {
	if _, err := NewLimiter(0, time.Minute, 10, nil); err == nil {
		t.Error("expected error for max=0")
	}
}

func newGuard(t *testing.T) *Guard {
	t.Helper()
	g, err := NewGuard(Config{
		Window:           time.Minute,
		BonusPerWindow:   2,
		ActionsPerWindow: 4,
		Tracked:          100,
		DailyBonusCap:    money.Cents(2000),
		DailySendCap:     money.Cents(50000),
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestGuardAllow(t *testing.T) {
	g := newGuard(t)
	var reasons []string
	g.OnRejection(func(r string) { reasons = append(reasons, r) })

	for i := 0; i < 2; i++ {
		if err := g.Allow(ActionBonus, 1); err != nil {
			t.Fatalf("bonus %d: %v", i, err)
		}
	}
	if err := g.Allow(ActionBonus, 1); !errors.Is(err, domain.ErrTooFast) {
		t.Fatalf("third bonus err = %v, want ErrTooFast", err)
	}
	if err := g.Allow(ActionSpin, 1); err != nil {
		t.Fatalf("spin shares the bonus window: %v", err)
	}
	if len(reasons) != 1 || reasons[0] != "rate_limited" {
		t.Errorf("reasons = %v", reasons)
	}
}

func TestClampBonus(t *testing.T) {
	g := newGuard(t)
	tests := []struct {
		name      string
		received  money.Amount
		candidate money.Amount
		want      money.Amount
	}{
		{"under cap", 0, money.Cents(540), money.Cents(540)},
		{"trimmed", money.Cents(1800), money.Cents(540), money.Cents(200)},
		{"exactly at cap", money.Cents(2000), money.Cents(100), 0},
		{"over cap already", money.Cents(2500), money.Cents(100), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.ClampBonus(tt.received, tt.candidate); got != tt.want {
				t.Errorf("ClampBonus() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCheckSend(t *testing.T) {
	g := newGuard(t)
	if err := g.CheckSend(money.Cents(49000), money.Cents(1000)); err != nil {
		t.Errorf("send reaching the cap exactly: %v", err)
	}
	if err := g.CheckSend(money.Cents(49000), money.Cents(1001)); !errors.Is(err, domain.ErrDailySendCap) {
		t.Errorf("send over the cap: err = %v", err)
	}
}
