package spin

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

type Result struct {
	Reward  money.Amount
	Balance money.Amount
}

type Service struct {
	store       *ledger.Store
	guard       *antifraud.Guard
	wheel       *Wheel
	rnd         random.Source
	notify      notify.Sink
	largeReward money.Amount
}

func NewService(store *ledger.Store, guard *antifraud.Guard, wheel *Wheel, rnd random.Source, sink notify.Sink, largeReward money.Amount) *Service {
	return &Service{store: store, guard: guard, wheel: wheel, rnd: rnd, notify: sink, largeReward: largeReward}
}

// Spin draws one prize per account per calendar day. A zero prize is still
// recorded as the day's spin.
func (s *Service) Spin(ctx context.Context, accountID int64) (*Result, error) {
	if err := s.guard.Allow(antifraud.ActionSpin, accountID); err != nil {
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

		start, end := tx.TodayBounds()
		n, err := tx.Spins.CountBetween(ctx, accountID, start, end)
		if err != nil {
			return err
		}
		if n > 0 {
			return domain.ErrAlreadySpun
		}

		res.Reward = s.wheel.Spin(s.rnd)
		if err := tx.Spins.Insert(ctx, &models.Spin{AccountID: accountID, Reward: res.Reward, CreatedAt: tx.Now()}); err != nil {
			return err
		}
		if _, err := tx.Append(ctx, ledger.Entry{
			AccountID: accountID,
			Kind:      models.KindSpin,
			Amount:    res.Reward,
			Reason:    "wheel spin",
		}); err != nil {
			return err
		}

		res.Balance = acc.Balance + res.Reward
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.largeReward > 0 && res.Reward >= s.largeReward {
		s.notify.Operator(fmt.Sprintf("Spin jackpot: account %d won %s", accountID, res.Reward))
	}
	return &res, nil
}
