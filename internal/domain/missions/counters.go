package missions

import (
	"context"

	"github.com/jumanzarismoilov-jpg/botim/internal/domain/ledger"
	"github.com/jumanzarismoilov-jpg/botim/internal/gateways/database/models"
)

// Counter measures one named quantity for an account inside a unit of work.
type Counter func(ctx context.Context, tx *ledger.Tx, acc *models.Account) (int, error)

// Registry resolves condition names used in mission definitions.
type Registry map[string]Counter

func DefaultRegistry() Registry {
	return Registry{
		"referrals": func(ctx context.Context, tx *ledger.Tx, acc *models.Account) (int, error) {
			return tx.Referrals.CountByReferrer(ctx, acc.ID)
		},
		"spins": func(ctx context.Context, tx *ledger.Tx, acc *models.Account) (int, error) {
			return tx.Spins.Count(ctx, acc.ID)
		},
		"quiz_correct": func(ctx context.Context, tx *ledger.Tx, acc *models.Account) (int, error) {
			return tx.Quiz.CountCorrect(ctx, acc.ID)
		},
		"bonus_streak": func(_ context.Context, _ *ledger.Tx, acc *models.Account) (int, error) {
			return acc.Streak, nil
		},
		"transfers_sent": func(ctx context.Context, tx *ledger.Tx, acc *models.Account) (int, error) {
			return tx.Events.CountKind(ctx, acc.ID, models.KindTransferOut)
		},
	}
}

// Register adds or replaces a counter.
func (r Registry) Register(name string, c Counter) {
	r[name] = c
}
