package quiz

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
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/random"
	"github.com/jumanzarismoilov-jpg/botim/internal/gateways/database/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

func newService(t *testing.T) (*Service, *ledger.Store, *testClock) {
	t.Helper()
	db := dbtest.Open(t)
	clock := &testClock{t: time.Date(2026, 7, 1, 8, 0, 0, 0, time.UTC)}
	cal := calendar.New(time.UTC)
	cal.SetClock(clock.now)

	guard, err := antifraud.NewGuard(antifraud.Config{
		Window: time.Minute, BonusPerWindow: 100, ActionsPerWindow: 100, Tracked: 10,
	}, nil)
	require.NoError(t, err)

	store := ledger.NewStore(db.BunDB(), cal)
	return NewService(store, guard, random.Default(), 5*time.Minute), store, clock
}

func TestAnswerCorrectPaysOnce(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newService(t)

	p, err := svc.Serve(ctx, 1)
	require.NoError(t, err)

	out, err := svc.Answer(ctx, 1, p.Token, p.correct)
	require.NoError(t, err)
	assert.True(t, out.Correct)
	assert.Equal(t, money.Cents(50), out.Reward)

	_, err = svc.Answer(ctx, 1, p.Token, p.correct)
	assert.ErrorIs(t, err, domain.ErrStaleQuestion)

	balance, err := store.GetBalance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, money.Cents(50), balance)
}

func TestAnswerRejectedAfterBan(t *testing.T) {
	ctx := context.Background()
	svc, store, clock := newService(t)
	require.NoError(t, store.Touch(ctx, 3, "three"))

	p, err := svc.Serve(ctx, 3)
	require.NoError(t, err)

	require.NoError(t, store.Repos().Accounts.SetBanned(ctx, 3, true, clock.now()))

	_, err = svc.Answer(ctx, 3, p.Token, p.correct)
	assert.ErrorIs(t, err, domain.ErrBanned)

	balance, err := store.GetBalance(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, money.Zero, balance)
}

func TestAnswerWrongRecordsAttempt(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newService(t)

	p, err := svc.Serve(ctx, 2)
	require.NoError(t, err)
	wrong := (p.correct + 1) % len(p.Options)

	out, err := svc.Answer(ctx, 2, p.Token, wrong)
	require.NoError(t, err)
	assert.False(t, out.Correct)
	assert.Equal(t, money.Zero, out.Reward)
	assert.NotEmpty(t, out.CorrectOption)

	balance, err := store.GetBalance(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, money.Zero, balance)
}

func TestServePrefersUnattempted(t *testing.T) {
	ctx := context.Background()
	svc, _, clock := newService(t)

	seen := map[int64]bool{}
	for i := 0; i < 3; i++ {
		p, err := svc.Serve(ctx, 3)
		require.NoError(t, err)
		assert.False(t, seen[p.QuestionID], "question %d served twice on one day", p.QuestionID)
		seen[p.QuestionID] = true
		_, err = svc.Answer(ctx, 3, p.Token, 0)
		require.NoError(t, err)
	}

	// Every question was attempted today: fall back to the whole catalog.
	p, err := svc.Serve(ctx, 3)
	require.NoError(t, err)
	assert.True(t, seen[p.QuestionID])

	// A new day makes every question eligible again.
	clock.set(time.Date(2026, 7, 2, 8, 0, 0, 0, time.UTC))
	_, err = svc.Serve(ctx, 3)
	require.NoError(t, err)
}

func TestStaleAndExpiredTokens(t *testing.T) {
	ctx := context.Background()
	svc, _, clock := newService(t)

	first, err := svc.Serve(ctx, 4)
	require.NoError(t, err)
	second, err := svc.Serve(ctx, 4)
	require.NoError(t, err)

	_, err = svc.Answer(ctx, 4, first.Token, 0)
	assert.ErrorIs(t, err, domain.ErrStaleQuestion, "replaced question must be stale")

	_, err = svc.Answer(ctx, 4, second.Token, 99)
	assert.ErrorIs(t, err, domain.ErrInvalidOption)

	clock.set(clock.now().Add(6 * time.Minute))
	_, err = svc.Answer(ctx, 4, second.Token, 0)
	assert.ErrorIs(t, err, domain.ErrStaleQuestion, "expired question must be stale")
}

func TestConcurrentAnswersPayOnce(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newService(t)

	p, err := svc.Serve(ctx, 5)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.Answer(ctx, 5, p.Token, p.correct)
		}()
	}
	wg.Wait()

	balance, err := store.GetBalance(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, money.Cents(50), balance)
}
