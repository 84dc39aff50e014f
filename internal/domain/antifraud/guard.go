package antifraud

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jumanzarismoilov-jpg/botim/internal/domain"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/money"
)

type Action string

const (
	ActionBonus    Action = "bonus"
	ActionSpin     Action = "spin"
	ActionQuiz     Action = "quiz"
	ActionTransfer Action = "transfer"
	ActionReferral Action = "referral"
	ActionOrder    Action = "order"
)

type Config struct {
	Window           time.Duration
	BonusPerWindow   int
	ActionsPerWindow int
	Tracked          int
	DailyBonusCap    money.Amount
	DailySendCap     money.Amount
}

// Guard is consulted by every user-initiated reward or transfer.
type Guard struct {
	limiters    map[Action]*Limiter
	bonusCap    money.Amount
	sendCap     money.Amount
	onRejection func(reason string)
}

func NewGuard(cfg Config, now func() time.Time) (*Guard, error) {
	g := &Guard{
		limiters: make(map[Action]*Limiter),
		bonusCap: cfg.DailyBonusCap,
		sendCap:  cfg.DailySendCap,
	}

	for _, a := range []Action{ActionBonus, ActionSpin, ActionQuiz, ActionTransfer, ActionReferral, ActionOrder} {
		max := cfg.ActionsPerWindow
		if a == ActionBonus {
			max = cfg.BonusPerWindow
		}
		l, err := NewLimiter(max, cfg.Window, cfg.Tracked, now)
		if err != nil {
			return nil, fmt.Errorf("limiter %s: %w", a, err)
		}
		g.limiters[a] = l
	}
	return g, nil
}

// OnRejection registers a callback for every policy rejection the guard issues.
func (g *Guard) OnRejection(fn func(reason string)) {
	g.onRejection = fn
}

func (g *Guard) Allow(action Action, accountID int64) error {
	l, ok := g.limiters[action]
	if !ok {
		return nil
	}
	if !l.Allow(accountID) {
		slog.Debug("Rate limited",
			slog.String("type", "sys"),
			slog.String("action", string(action)),
			slog.Int64("account_id", accountID))
		g.reject("rate_limited")
		return domain.ErrTooFast
	}
	return nil
}

// ClampBonus trims candidate so the day's bonus total stays within the cap.
// It never goes below zero.
func (g *Guard) ClampBonus(receivedToday, candidate money.Amount) money.Amount {
	if g.bonusCap <= 0 {
		return candidate
	}
	room := money.Max(g.bonusCap-receivedToday, 0)
	if candidate > room {
		g.reject("daily_bonus_cap")
	}
	return money.Max(money.Min(candidate, room), 0)
}

// CheckSend rejects a send that would push the day's total over the cap.
func (g *Guard) CheckSend(sentToday, amount money.Amount) error {
	if g.sendCap > 0 && sentToday+amount > g.sendCap {
		g.reject("daily_send_cap")
		return domain.ErrDailySendCap
	}
	return nil
}

func (g *Guard) SendCap() money.Amount { return g.sendCap }

func (g *Guard) reject(reason string) {
	if g.onRejection != nil {
		g.onRejection(reason)
	}
}
