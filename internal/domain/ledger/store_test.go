package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jumanzarismoilov-jpg/botim/internal/domain"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/calendar"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/money"
	"github.com/jumanzarismoilov-jpg/botim/internal/gateways/database/dbtest"
	"github.com/jumanzarismoilov-jpg/botim/internal/gateways/database/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	db := dbtest.Open(t)
	cal := calendar.New(time.UTC)
	cal.SetClock(func() time.Time { return time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC) })
	return NewStore(db.BunDB(), cal)
}

func TestAppendKeepsBalanceEqualToEvents(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	entries := []Entry{
		{AccountID: 1, Kind: models.KindBonus, Amount: money.Cents(250)},
		{AccountID: 1, Kind: models.KindSpin, Amount: money.Cents(20)},
		{AccountID: 1, Kind: models.KindPenalty, Amount: money.Cents(-70), Reason: "spam"},
		{AccountID: 1, Kind: models.KindAdminAdjust, Amount: money.Cents(1000), Metadata: map[string]any{"admin": "9"}},
	}
	for _, e := range entries {
		_, err := s.Append(ctx, e)
		require.NoError(t, err)
	}

	balance, err := s.GetBalance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, money.Cents(1200), balance)

	sum, err := s.Repos().Events.Sum(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, balance, sum)
	require.NoError(t, s.Reconcile(ctx, 1))
}

func TestListEventsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	for i := 1; i <= 5; i++ {
		_, err := s.Append(ctx, Entry{AccountID: 3, Kind: models.KindQuiz, Amount: money.Cents(int64(i))})
		require.NoError(t, err)
	}

	events, err := s.ListEvents(ctx, 3, 3)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, money.Cents(5), events[0].Amount)
	assert.Equal(t, money.Cents(3), events[2].Amount)
	assert.Greater(t, events[0].ID, events[1].ID)

	all, err := s.ListEvents(ctx, 3, 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestMetadataRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.Append(ctx, Entry{AccountID: 4, Kind: models.KindTransferIn, Amount: money.Cents(100), Metadata: map[string]any{"from": "77"}})
	require.NoError(t, err)

	events, err := s.ListEvents(ctx, 4, 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "77", events[0].Metadata["from"])
}

func TestUnknownAccountHasZeroBalance(t *testing.T) {
	s := newStore(t)
	balance, err := s.GetBalance(context.Background(), 404)
	require.NoError(t, err)
	assert.Equal(t, money.Zero, balance)
}

func TestAtomicRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	boom := errors.New("boom")

	err := s.Atomic(ctx, []int64{5}, func(ctx context.Context, tx *Tx) error {
		if _, err := tx.Append(ctx, Entry{AccountID: 5, Kind: models.KindBonus, Amount: money.Cents(100)}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	events, err := s.ListEvents(ctx, 5, 0)
	require.NoError(t, err)
	assert.Empty(t, events)
	balance, err := s.GetBalance(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, money.Zero, balance)
}

func TestAppendRequiresLock(t *testing.T) {
	s := newStore(t)
	err := s.Atomic(context.Background(), []int64{1}, func(ctx context.Context, tx *Tx) error {
		_, err := tx.Append(ctx, Entry{AccountID: 2, Kind: models.KindBonus, Amount: money.Cents(1)})
		return err
	})
	require.Error(t, err)
}

func TestConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Append(ctx, Entry{AccountID: 8, Kind: models.KindSpin, Amount: money.Cents(10)})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	balance, err := s.GetBalance(ctx, 8)
	require.NoError(t, err)
	assert.Equal(t, money.Cents(200), balance)
	require.NoError(t, s.Reconcile(ctx, 8))
}

func TestReconcileDetectsDrift(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.Append(ctx, Entry{AccountID: 6, Kind: models.KindBonus, Amount: money.Cents(100)})
	require.NoError(t, err)

	_, err = s.db.ExecContext(ctx, "UPDATE accounts SET balance = 999 WHERE id = 6")
	require.NoError(t, err)

	err = s.Reconcile(ctx, 6)
	require.ErrorIs(t, err, domain.ErrBalanceMismatch)
}

func TestCommitHookSeesOnlyCommittedEvents(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	var seen []models.EventKind
	s.OnCommit(func(events []*models.LedgerEvent) {
		for _, ev := range events {
			seen = append(seen, ev.Kind)
		}
	})

	_, err := s.Append(ctx, Entry{AccountID: 1, Kind: models.KindBonus, Amount: money.Cents(1)})
	require.NoError(t, err)
	_ = s.Atomic(ctx, []int64{1}, func(ctx context.Context, tx *Tx) error {
		_, _ = tx.Append(ctx, Entry{AccountID: 1, Kind: models.KindSpin, Amount: money.Cents(1)})
		return errors.New("abort")
	})

	assert.Equal(t, []models.EventKind{models.KindBonus}, seen)
}
