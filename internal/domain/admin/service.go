// Package admin holds the privileged operations. They skip rate limits and
// daily caps but still write through the ledger's atomic units.
package admin

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jumanzarismoilov-jpg/botim/internal/domain"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/ledger"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/money"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/notify"
	"github.com/jumanzarismoilov-jpg/botim/internal/gateways/database/models"
)

type Stats struct {
	Accounts      int
	TotalBalance  money.Amount
	PendingOrders int
}

// Adjustment is the outcome of a forced credit or debit.
type Adjustment struct {
	Event   *models.LedgerEvent
	Balance money.Amount
}

type Service struct {
	store  *ledger.Store
	notify notify.Sink
	admins map[int64]struct{}
}

func NewService(store *ledger.Store, sink notify.Sink, admins []int64) *Service {
	set := make(map[int64]struct{}, len(admins))
	for _, id := range admins {
		set[id] = struct{}{}
	}
	return &Service{store: store, notify: sink, admins: set}
}

// Authorize rejects callers that are not configured administrators.
func (s *Service) Authorize(actorID int64) error {
	if _, ok := s.admins[actorID]; !ok {
		return domain.ErrNotAdmin
	}
	return nil
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	repos := s.store.Repos()
	count, total, err := repos.Accounts.Stats(ctx)
	if err != nil {
		return nil, domain.IntegrityError("account stats", err)
	}
	pending, err := repos.Orders.CountByStatus(ctx, models.OrderStatusNew)
	if err != nil {
		return nil, domain.IntegrityError("count orders", err)
	}
	return &Stats{Accounts: count, TotalBalance: total, PendingOrders: pending}, nil
}

// Adjust credits (or debits, when negative) an account by an arbitrary
// amount. actorID 0 marks the ops API.
func (s *Service) Adjust(ctx context.Context, actorID, accountID int64, amount money.Amount, reason string) (*Adjustment, error) {
	if amount == 0 {
		return nil, domain.ErrInvalidAmount
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "Admin adjustment by " + actorLabel(actorID)
	}
	return s.apply(ctx, actorID, accountID, models.KindAdminAdjust, amount, reason)
}

// Penalize debits a positive amount as a penalty. The balance may go below
// zero.
func (s *Service) Penalize(ctx context.Context, actorID, accountID int64, amount money.Amount, reason string) (*Adjustment, error) {
	if amount <= 0 {
		return nil, domain.ErrNonPositiveAmount
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "Penalty by " + actorLabel(actorID)
	}
	return s.apply(ctx, actorID, accountID, models.KindPenalty, amount.Neg(), reason)
}

func (s *Service) apply(ctx context.Context, actorID, accountID int64, kind models.EventKind, amount money.Amount, reason string) (*Adjustment, error) {
	adj := &Adjustment{}
	err := s.store.Atomic(ctx, []int64{accountID}, func(ctx context.Context, tx *ledger.Tx) error {
		acc, err := tx.Account(ctx, accountID)
		if err != nil {
			return err
		}
		ev, err := tx.Append(ctx, ledger.Entry{
			AccountID: accountID,
			Kind:      kind,
			Amount:    amount,
			Reason:    reason,
			Metadata:  map[string]any{"actor": actorLabel(actorID)},
		})
		if err != nil {
			return err
		}
		adj.Event = ev
		adj.Balance = acc.Balance + amount
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Balance adjusted",
		slog.String("type", "sys"),
		slog.String("kind", string(kind)),
		slog.Int64("account_id", accountID),
		slog.String("actor", actorLabel(actorID)),
		slog.String("amount", amount.Signed()))
	s.notify.Direct(accountID, fmt.Sprintf("Your balance was adjusted by %s coins: %s", amount.Signed(), reason))
	s.notify.Operator(fmt.Sprintf("%s: account %d %s by %s", kind, accountID, amount.Signed(), actorLabel(actorID)))
	return adj, nil
}

// SetBanned bans or unbans an account, creating it if needed. It reports
// whether the flag changed.
func (s *Service) SetBanned(ctx context.Context, actorID, accountID int64, banned bool) (bool, error) {
	var changed bool
	err := s.store.Atomic(ctx, []int64{accountID}, func(ctx context.Context, tx *ledger.Tx) error {
		acc, err := tx.Account(ctx, accountID)
		if err != nil {
			return err
		}
		if acc.Banned == banned {
			return nil
		}
		acc.Banned = banned
		changed = true
		return tx.Save(ctx, acc, "banned")
	})
	if err != nil {
		return false, err
	}
	if changed {
		verb := "unbanned"
		if banned {
			verb = "banned"
		}
		slog.Warn("Account ban changed",
			slog.String("type", "sys"),
			slog.Int64("account_id", accountID),
			slog.Bool("banned", banned),
			slog.String("actor", actorLabel(actorID)))
		s.notify.Operator(fmt.Sprintf("Account %d %s by %s", accountID, verb, actorLabel(actorID)))
	}
	return changed, nil
}

func actorLabel(actorID int64) string {
	if actorID == 0 {
		return "ops"
	}
	return strconv.FormatInt(actorID, 10)
}
