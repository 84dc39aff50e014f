// Package ledger is the single writer of account balances. Every change to a
// balance is an appended event, and the cached balance on the account row is
// adjusted in the same transaction.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jumanzarismoilov-jpg/botim/internal/domain"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/calendar"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/money"
	"github.com/jumanzarismoilov-jpg/botim/internal/gateways/database/models"
	"github.com/jumanzarismoilov-jpg/botim/internal/gateways/database/repositories"
	"github.com/uptrace/bun"
)

type Entry struct {
	AccountID int64
	Kind      models.EventKind
	Amount    money.Amount
	Reason    string
	Metadata  map[string]any
}

type CommitHook func(events []*models.LedgerEvent)

type Store struct {
	db    *bun.DB
	repos *repositories.Set
	cal   *calendar.Calendar
	locks *Locker
	hooks []CommitHook
}

func NewStore(db *bun.DB, cal *calendar.Calendar) *Store {
	return &Store{
		db:    db,
		repos: repositories.New(db),
		cal:   cal,
		locks: NewLocker(),
	}
}

// OnCommit registers a hook that receives the events of every committed unit.
func (s *Store) OnCommit(hook CommitHook) {
	s.hooks = append(s.hooks, hook)
}

// Repos returns repositories bound to the pool, for reads outside a unit.
func (s *Store) Repos() *repositories.Set { return s.repos }

func (s *Store) Calendar() *calendar.Calendar { return s.cal }

// Atomic runs fn as one all-or-nothing unit holding the locks of ids. Every
// account fn touches must be listed. Units must not nest.
func (s *Store) Atomic(ctx context.Context, ids []int64, fn func(ctx context.Context, tx *Tx) error) error {
	unlock := s.locks.Lock(ids...)
	defer unlock()

	var t *Tx
	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		t = &Tx{
			Set:    s.repos.WithTx(tx),
			now:    s.cal.Now(),
			cal:    s.cal,
			locked: make(map[int64]bool, len(ids)),
		}
		for _, id := range ids {
			t.locked[id] = true
		}
		return fn(ctx, t)
	})
	if err != nil {
		return err
	}

	if len(t.appended) > 0 {
		for _, hook := range s.hooks {
			hook(t.appended)
		}
	}
	return nil
}

// Append records a single event in its own unit.
func (s *Store) Append(ctx context.Context, e Entry) (*models.LedgerEvent, error) {
	var ev *models.LedgerEvent
	err := s.Atomic(ctx, []int64{e.AccountID}, func(ctx context.Context, tx *Tx) error {
		var err error
		ev, err = tx.Append(ctx, e)
		return err
	})
	return ev, err
}

// GetBalance returns 0 for an account that does not exist yet.
func (s *Store) GetBalance(ctx context.Context, accountID int64) (money.Amount, error) {
	acc, err := s.repos.Accounts.Get(ctx, accountID)
	if repositories.IsNotFound(err) {
		return money.Zero, nil
	}
	if err != nil {
		return 0, domain.IntegrityError("get balance", err)
	}
	return acc.Balance, nil
}

// Account reads an account without locking it; nil if it does not exist.
func (s *Store) Account(ctx context.Context, accountID int64) (*models.Account, error) {
	acc, err := s.repos.Accounts.Get(ctx, accountID)
	if repositories.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.IntegrityError("get account", err)
	}
	return acc, nil
}

// ListEvents returns events newest first.
func (s *Store) ListEvents(ctx context.Context, accountID int64, limit int) ([]*models.LedgerEvent, error) {
	events, err := s.repos.Events.ListByAccount(ctx, accountID, limit)
	if err != nil {
		return nil, domain.IntegrityError("list events", err)
	}
	return events, nil
}

// Leaderboard returns the richest accounts, highest balance first.
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]*models.Account, error) {
	top, err := s.repos.Accounts.Top(ctx, limit)
	if err != nil {
		return nil, domain.IntegrityError("leaderboard", err)
	}
	return top, nil
}

// Touch records the account's display name, creating it if needed.
func (s *Store) Touch(ctx context.Context, accountID int64, name string) error {
	if err := s.repos.Accounts.Touch(ctx, accountID, name, s.cal.Now()); err != nil {
		return domain.IntegrityError("touch account", err)
	}
	return nil
}

// Reconcile compares the cached balance with the sum of the account's events.
func (s *Store) Reconcile(ctx context.Context, accountID int64) error {
	return s.Atomic(ctx, []int64{accountID}, func(ctx context.Context, tx *Tx) error {
		acc, err := tx.Accounts.Get(ctx, accountID)
		if repositories.IsNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}
		sum, err := tx.Events.Sum(ctx, accountID)
		if err != nil {
			return err
		}
		if sum != acc.Balance {
			slog.Error("Ledger drift detected",
				slog.String("type", "db"),
				slog.Int64("account_id", accountID),
				slog.String("cached", acc.Balance.String()),
				slog.String("ledger", sum.String()))
			return fmt.Errorf("%w: account %d cached %s ledger %s", domain.ErrBalanceMismatch, accountID, acc.Balance, sum)
		}
		return nil
	})
}

// Tx is one unit of work. Its repositories run inside the transaction.
type Tx struct {
	*repositories.Set

	now      time.Time
	cal      *calendar.Calendar
	locked   map[int64]bool
	appended []*models.LedgerEvent
}

// Now is fixed for the lifetime of the unit.
func (t *Tx) Now() time.Time { return t.now }

func (t *Tx) Today() string { return t.cal.DayOf(t.now) }

// TodayBounds returns the UTC range of the unit's calendar day.
func (t *Tx) TodayBounds() (time.Time, time.Time) {
	start, end, _ := t.cal.Bounds(t.Today())
	return start, end
}

func (t *Tx) Yesterday() string {
	return t.cal.DayOf(t.now.In(t.cal.Location()).AddDate(0, 0, -1))
}

// Account creates the account if needed and returns it locked.
func (t *Tx) Account(ctx context.Context, id int64) (*models.Account, error) {
	if !t.locked[id] {
		return nil, fmt.Errorf("account %d is not locked by this unit", id)
	}
	if err := t.Accounts.Ensure(ctx, id, t.now); err != nil {
		return nil, err
	}
	return t.Accounts.GetForUpdate(ctx, id)
}

// Append writes the event and moves the cached balance by the same amount.
// It never rejects for business reasons; callers validate first.
func (t *Tx) Append(ctx context.Context, e Entry) (*models.LedgerEvent, error) {
	if !t.locked[e.AccountID] {
		return nil, fmt.Errorf("account %d is not locked by this unit", e.AccountID)
	}
	if err := t.Accounts.Ensure(ctx, e.AccountID, t.now); err != nil {
		return nil, err
	}

	ev := &models.LedgerEvent{
		AccountID: e.AccountID,
		Kind:      e.Kind,
		Amount:    e.Amount,
		Reason:    e.Reason,
		Metadata:  e.Metadata,
		CreatedAt: t.now,
	}
	if err := t.Events.Insert(ctx, ev); err != nil {
		return nil, err
	}
	if err := t.Accounts.AddBalance(ctx, e.AccountID, e.Amount, t.now); err != nil {
		return nil, err
	}

	t.appended = append(t.appended, ev)
	return ev, nil
}

// Save persists non-balance columns of a locked account.
func (t *Tx) Save(ctx context.Context, acc *models.Account, columns ...string) error {
	if !t.locked[acc.ID] {
		return fmt.Errorf("account %d is not locked by this unit", acc.ID)
	}
	acc.UpdatedAt = t.now
	return t.Accounts.Save(ctx, acc, columns...)
}
