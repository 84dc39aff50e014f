package transfer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jumanzarismoilov-jpg/botim/internal/domain"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/antifraud"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/calendar"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/ledger"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/money"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/notify"
	"github.com/jumanzarismoilov-jpg/botim/internal/gateways/database/dbtest"
	"github.com/jumanzarismoilov-jpg/botim/internal/gateways/database/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	m     *Machine
	store *ledger.Store
	cal   *calendar.Calendar
	rec   *notify.Recorder

	mu  sync.Mutex
	now time.Time
}

func (h *harness) clock() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.now
}

func (h *harness) advance(d time.Duration) {
	h.mu.Lock()
	h.now = h.now.Add(d)
	h.mu.Unlock()
}

func newHarness(t *testing.T, sendCap money.Amount) *harness {
	t.Helper()
	db := dbtest.Open(t)
	h := &harness{now: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC), rec: &notify.Recorder{}}
	h.cal = calendar.New(time.UTC)
	h.cal.SetClock(h.clock)

	guard, err := antifraud.NewGuard(antifraud.Config{
		Window: time.Minute, BonusPerWindow: 1000, ActionsPerWindow: 1000, Tracked: 100,
		DailySendCap: sendCap,
	}, nil)
	require.NoError(t, err)

	h.store = ledger.NewStore(db.BunDB(), h.cal)
	h.m = NewMachine(h.store, guard, h.rec, 10*time.Minute)
	return h
}

func (h *harness) fund(t *testing.T, id int64, amount money.Amount) {
	t.Helper()
	_, err := h.store.Append(context.Background(), ledger.Entry{AccountID: id, Kind: models.KindAdminAdjust, Amount: amount})
	require.NoError(t, err)
}

func (h *harness) balance(t *testing.T, id int64) money.Amount {
	t.Helper()
	b, err := h.store.GetBalance(context.Background(), id)
	require.NoError(t, err)
	return b
}

// drive walks a sender through recipient and amount.
func (h *harness) drive(t *testing.T, sender int64, recipient, amount string) *Step {
	t.Helper()
	ctx := context.Background()
	_, err := h.m.Start(ctx, sender)
	require.NoError(t, err)
	step, err := h.m.Input(ctx, sender, recipient)
	require.NoError(t, err)
	require.Equal(t, AwaitingAmount, step.State)
	step, err = h.m.Input(ctx, sender, amount)
	require.NoError(t, err)
	return step
}

func TestTransferCommits(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, money.Cents(50000))
	h.fund(t, 1, money.Cents(1000))

	step := h.drive(t, 1, "2", "4,5")
	assert.Equal(t, AwaitingConfirmation, step.State)
	assert.Equal(t, money.Cents(450), step.Amount)
	assert.Equal(t, money.Cents(1000), step.Balance)

	rc, err := h.m.Confirm(ctx, 1, step.Token)
	require.NoError(t, err)
	assert.Equal(t, money.Cents(550), rc.SenderBalance)

	assert.Equal(t, money.Cents(550), h.balance(t, 1))
	assert.Equal(t, money.Cents(450), h.balance(t, 2))
	assert.Equal(t, money.Cents(1000), h.balance(t, 1)+h.balance(t, 2))

	out, err := h.store.ListEvents(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, models.KindTransferOut, out[0].Kind)
	assert.Equal(t, money.Cents(-450), out[0].Amount)

	in, err := h.store.ListEvents(ctx, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, models.KindTransferIn, in[0].Kind)

	acc, err := h.store.Account(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, money.Cents(450), acc.DailySent)

	_, live := h.m.Active(1)
	assert.False(t, live)
	assert.Len(t, h.rec.DirectsTo(2), 1)
}

func TestValidationKeepsState(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, money.Cents(50000))
	h.fund(t, 1, money.Cents(1000))

	_, err := h.m.Start(ctx, 1)
	require.NoError(t, err)

	step, err := h.m.Input(ctx, 1, "bob")
	assert.ErrorIs(t, err, domain.ErrInvalidRecipient)
	assert.Equal(t, AwaitingRecipient, step.State)

	step, err = h.m.Input(ctx, 1, "1")
	assert.ErrorIs(t, err, domain.ErrSelfTransfer)
	assert.Equal(t, AwaitingRecipient, step.State)

	step, err = h.m.Input(ctx, 1, "2")
	require.NoError(t, err)
	assert.Equal(t, AwaitingAmount, step.State)

	for _, bad := range []string{"abc", "1.2.3", "5."} {
		step, err = h.m.Input(ctx, 1, bad)
		assert.ErrorIs(t, err, domain.ErrInvalidAmount, bad)
		assert.Equal(t, AwaitingAmount, step.State)
	}
	for _, bad := range []string{"0", "0.001", "-3"} {
		step, err = h.m.Input(ctx, 1, bad)
		assert.ErrorIs(t, err, domain.ErrNonPositiveAmount, bad)
		assert.Equal(t, AwaitingAmount, step.State)
	}

	s, live := h.m.Active(1)
	require.True(t, live)
	assert.Equal(t, int64(2), s.Recipient)
}

func TestInsufficientBalanceAborts(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, money.Cents(50000))
	h.fund(t, 1, money.Cents(300))

	_, err := h.m.Start(ctx, 1)
	require.NoError(t, err)
	_, err = h.m.Input(ctx, 1, "2")
	require.NoError(t, err)

	step, err := h.m.Input(ctx, 1, "3.01")
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assert.Equal(t, Aborted, step.State)

	_, live := h.m.Active(1)
	assert.False(t, live)
}

func TestConfirmRechecksBalance(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, money.Cents(50000))
	h.fund(t, 1, money.Cents(1000))

	step := h.drive(t, 1, "2", "8")

	// The balance drops between the amount step and confirmation.
	_, err := h.store.Append(ctx, ledger.Entry{AccountID: 1, Kind: models.KindPenalty, Amount: money.Cents(-500)})
	require.NoError(t, err)

	_, err = h.m.Confirm(ctx, 1, step.Token)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assert.Equal(t, money.Cents(500), h.balance(t, 1))
	assert.Equal(t, money.Zero, h.balance(t, 2))

	_, err = h.m.Confirm(ctx, 1, step.Token)
	assert.ErrorIs(t, err, domain.ErrNoSession)
}

func TestDailySendCap(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, money.Cents(50000))
	h.fund(t, 1, money.Cents(100000))

	step := h.drive(t, 1, "2", "500")
	_, err := h.m.Confirm(ctx, 1, step.Token)
	require.NoError(t, err)

	_, err = h.m.Start(ctx, 1)
	require.NoError(t, err)
	_, err = h.m.Input(ctx, 1, "2")
	require.NoError(t, err)
	step, err = h.m.Input(ctx, 1, "0.01")
	assert.ErrorIs(t, err, domain.ErrDailySendCap)
	assert.Equal(t, Aborted, step.State)

	// Once the counter is reset the same transfer goes through.
	require.NoError(t, h.store.Repos().Accounts.ResetDailySent(ctx, 1, h.clock()))
	step = h.drive(t, 1, "2", "0.01")
	_, err = h.m.Confirm(ctx, 1, step.Token)
	require.NoError(t, err)
}

func TestRecipientBanned(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, money.Cents(50000))
	h.fund(t, 1, money.Cents(1000))
	require.NoError(t, h.store.Touch(ctx, 2, "banned"))
	require.NoError(t, h.store.Repos().Accounts.SetBanned(ctx, 2, true, h.clock()))

	step := h.drive(t, 1, "2", "1")
	_, err := h.m.Confirm(ctx, 1, step.Token)
	assert.ErrorIs(t, err, domain.ErrRecipientBanned)
	assert.Equal(t, money.Cents(1000), h.balance(t, 1))
}

func TestCancelLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, money.Cents(50000))
	h.fund(t, 1, money.Cents(1000))

	step := h.drive(t, 1, "2", "5")
	require.NoError(t, h.m.Cancel(1, step.Token))
	assert.ErrorIs(t, h.m.Cancel(1, step.Token), domain.ErrNoSession)

	_, err := h.m.Confirm(ctx, 1, step.Token)
	assert.ErrorIs(t, err, domain.ErrNoSession)

	events, err := h.store.ListEvents(ctx, 1, 0)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestOldPromptCannotConfirmNewerTransfer(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, money.Cents(50000))
	h.fund(t, 1, money.Cents(10000))

	first := h.drive(t, 1, "2", "5")
	second := h.drive(t, 1, "3", "80")
	require.NotEqual(t, first.Token, second.Token)

	_, err := h.m.Confirm(ctx, 1, first.Token)
	assert.ErrorIs(t, err, domain.ErrStaleTransfer)
	assert.ErrorIs(t, h.m.Cancel(1, first.Token), domain.ErrStaleTransfer)
	assert.Equal(t, money.Zero, h.balance(t, 2))
	assert.Equal(t, money.Zero, h.balance(t, 3))

	// The newer conversation is untouched and still commits.
	s, live := h.m.Active(1)
	require.True(t, live)
	assert.Equal(t, int64(3), s.Recipient)

	rc, err := h.m.Confirm(ctx, 1, second.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(3), rc.Recipient)
	assert.Equal(t, money.Cents(8000), h.balance(t, 3))
}

func TestInputRacingRestartDoesNotSkipStep(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, money.Cents(50000))
	h.fund(t, 1, money.Cents(1000))

	_, err := h.m.Start(ctx, 1)
	require.NoError(t, err)
	_, err = h.m.Input(ctx, 1, "2")
	require.NoError(t, err)
	read, live := h.m.Active(1)
	require.True(t, live)

	// A fresh /send lands between reading the session and writing it back.
	_, err = h.m.Start(ctx, 1)
	require.NoError(t, err)

	step, err := h.m.advance(read, func(cur Session) Session {
		cur.Amount = money.Cents(100)
		cur.State = AwaitingConfirmation
		return cur
	})
	assert.ErrorIs(t, err, domain.ErrStaleTransfer)
	assert.Equal(t, AwaitingRecipient, step.State)

	s, live := h.m.Active(1)
	require.True(t, live)
	assert.Equal(t, AwaitingRecipient, s.State)
	assert.Equal(t, money.Zero, s.Amount)
}

func TestExpiredSessionIsAbandoned(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, money.Cents(50000))
	h.fund(t, 1, money.Cents(1000))

	step := h.drive(t, 1, "2", "5")
	h.advance(11 * time.Minute)

	_, err := h.m.Confirm(ctx, 1, step.Token)
	assert.ErrorIs(t, err, domain.ErrNoSession)
	_, err = h.m.Input(ctx, 1, "3")
	assert.ErrorIs(t, err, domain.ErrNoSession)
	assert.Equal(t, money.Zero, h.balance(t, 2))
}

func TestOppositeTransfersConserveTotal(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 0)
	h.fund(t, 1, money.Cents(10000))
	h.fund(t, 2, money.Cents(10000))

	var wg sync.WaitGroup
	for round := 0; round < 10; round++ {
		a := h.drive(t, 1, "2", "3")
		b := h.drive(t, 2, "1", "2")

		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := h.m.Confirm(ctx, 1, a.Token)
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := h.m.Confirm(ctx, 2, b.Token)
			assert.NoError(t, err)
		}()
		wg.Wait()
	}

	assert.Equal(t, money.Cents(9000), h.balance(t, 1))
	assert.Equal(t, money.Cents(11000), h.balance(t, 2))
	require.NoError(t, h.store.Reconcile(ctx, 1))
	require.NoError(t, h.store.Reconcile(ctx, 2))
}

func TestInputWithoutSession(t *testing.T) {
	h := newHarness(t, 0)
	_, err := h.m.Input(context.Background(), 1, "2")
	assert.ErrorIs(t, err, domain.ErrNoSession)
}
