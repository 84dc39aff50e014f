package missions

import (
	"context"
	"testing"
	"time"

	"github.com/jumanzarismoilov-jpg/botim/internal/domain/calendar"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/ledger"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/money"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/notify"
	"github.com/jumanzarismoilov-jpg/botim/internal/gateways/database/dbtest"
	"github.com/jumanzarismoilov-jpg/botim/internal/gateways/database/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*Service, *ledger.Store, *notify.Recorder) {
	t.Helper()
	db := dbtest.Open(t)
	store := ledger.NewStore(db.BunDB(), calendar.New(time.UTC))
	rec := &notify.Recorder{}
	return NewService(store, DefaultRegistry(), rec), store, rec
}

func codes(ms []*models.Mission) []string {
	var out []string
	for _, m := range ms {
		out = append(out, m.Code)
	}
	return out
}

func TestEvaluateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, store, rec := setup(t)

	now := time.Now().UTC()
	require.NoError(t, store.Repos().Spins.Insert(ctx, &models.Spin{AccountID: 1, Reward: 0, CreatedAt: now}))
	_, err := store.Repos().Referrals.Insert(ctx, &models.Referral{ReferrerID: 1, ReferredID: 2, CreatedAt: now})
	require.NoError(t, err)

	first, err := svc.Evaluate(ctx, 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ref1", "spin1"}, codes(first))
	assert.Equal(t, money.Cents(450), TotalReward(first))

	second, err := svc.Evaluate(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, second)

	balance, err := store.GetBalance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, money.Cents(450), balance)
	assert.Len(t, rec.DirectsTo(1), 2)
}

func TestEvaluateUnmetMission(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := setup(t)

	got, err := svc.Evaluate(ctx, 9)
	require.NoError(t, err)
	assert.Empty(t, got)

	balance, err := store.GetBalance(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, money.Zero, balance)
}

func TestUnknownConditionNeverCompletes(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := setup(t)

	require.NoError(t, store.Repos().Missions.Upsert(ctx, &models.Mission{
		Code:       "mystery",
		Title:      "Mystery",
		Reward:     money.Cents(100),
		Conditions: map[string]int{"moon_phase": 1},
		CreatedAt:  time.Now().UTC(),
	}))

	got, err := svc.Evaluate(ctx, 3)
	require.NoError(t, err)
	assert.NotContains(t, codes(got), "mystery")
}

func TestCustomCounter(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := setup(t)
	svc.registry.Register("always", func(context.Context, *ledger.Tx, *models.Account) (int, error) { return 5, nil })

	require.NoError(t, store.Repos().Missions.Upsert(ctx, &models.Mission{
		Code:       "always5",
		Title:      "Always",
		Reward:     money.Cents(10),
		Conditions: map[string]int{"always": 5},
		CreatedAt:  time.Now().UTC(),
	}))

	got, err := svc.Evaluate(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, []string{"always5"}, codes(got))

	overview, err := svc.Overview(ctx, 4)
	require.NoError(t, err)
	for _, st := range overview {
		assert.Equal(t, st.Mission.Code == "always5", st.Completed, st.Mission.Code)
	}
}
