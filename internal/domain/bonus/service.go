// Package bonus grants the once-per-day bonus with a consecutive-day streak.
package bonus

import (
	"context"
	"fmt"

	"github.com/jumanzarismoilov-jpg/botim/internal/domain"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/antifraud"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/ledger"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/money"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/notify"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/random"
	"github.com/jumanzarismoilov-jpg/botim/internal/gateways/database/models"
)

type Config struct {
	Min         money.Amount
	Max         money.Amount
	StreakStep  money.Amount
	LargeReward money.Amount
}

type Result struct {
	Base        money.Amount
	StreakBonus money.Amount
	Total       money.Amount
	Streak      int
	Clamped     bool
	Balance     money.Amount
}

type Service struct {
	store  *ledger.Store
	guard  *antifraud.Guard
	rnd    random.Source
	notify notify.Sink
	cfg    Config
}

func NewService(store *ledger.Store, guard *antifraud.Guard, rnd random.Source, sink notify.Sink, cfg Config) *Service {
	return &Service{store: store, guard: guard, rnd: rnd, notify: sink, cfg: cfg}
}

// Claim grants today's bonus. The base is uniform over [Min, Max] in cents and
// the streak adds StreakStep per consecutive day including today.
func (s *Service) Claim(ctx context.Context, accountID int64) (*Result, error) {
	if err := s.guard.Allow(antifraud.ActionBonus, accountID); err != nil {
		return nil, err
	}

	var res Result
	err := s.store.Atomic(ctx, []int64{accountID}, func(ctx context.Context, tx *ledger.Tx) error {
		acc, err := tx.Account(ctx, accountID)
		if err != nil {
			return err
		}
		if acc.Banned {
			return domain.ErrBanned
		}

		today := tx.Today()
		if acc.LastBonusDate == today {
			return domain.ErrAlreadyClaimed
		}

		streak := 1
		if acc.LastBonusDate == tx.Yesterday() {
			streak = acc.Streak + 1
		}

		res.Base = s.drawBase()
		res.Streak = streak
		res.StreakBonus = money.Amount(int64(s.cfg.StreakStep) * int64(streak))

		start, end := tx.TodayBounds()
		received, err := tx.Events.SumKindBetween(ctx, accountID, models.KindBonus, start, end)
		if err != nil {
			return err
		}
		candidate := res.Base + res.StreakBonus
		res.Total = s.guard.ClampBonus(received, candidate)
		res.Clamped = res.Total != candidate

		if _, err := tx.Append(ctx, ledger.Entry{
			AccountID: accountID,
			Kind:      models.KindBonus,
			Amount:    res.Total,
			Reason:    "daily bonus",
			Metadata: map[string]any{
				"base":         res.Base.String(),
				"streak":       streak,
				"streak_bonus": res.StreakBonus.String(),
				"clamped":      res.Clamped,
			},
		}); err != nil {
			return err
		}

		acc.LastBonusDate = today
		acc.Streak = streak
		if err := tx.Save(ctx, acc, "last_bonus_date", "streak"); err != nil {
			return err
		}

		res.Balance = acc.Balance + res.Total
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.cfg.LargeReward > 0 && res.Total >= s.cfg.LargeReward {
		s.notify.Operator(fmt.Sprintf("Daily bonus: account %d received %s (streak %d)", accountID, res.Total, res.Streak))
	}
	return &res, nil
}

func (s *Service) drawBase() money.Amount {
	span := int64(s.cfg.Max - s.cfg.Min)
	if span <= 0 {
		return s.cfg.Min
	}
	return s.cfg.Min + money.Amount(s.rnd.IntN(int(span)+1))
}
