package audit

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/jumanzarismoilov-jpg/botim/internal/domain"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/antifraud"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/calendar"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/ledger"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/missions"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/money"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/notify"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/transfer"
	"github.com/jumanzarismoilov-jpg/botim/internal/gateways/database/dbtest"
	"github.com/jumanzarismoilov-jpg/botim/internal/gateways/database/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSnapshots struct {
	mu    sync.Mutex
	files map[string][]byte
}

func (m *memSnapshots) UploadSnapshot(_ context.Context, name string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.files == nil {
		m.files = make(map[string][]byte)
	}
	m.files[name] = body
	return nil
}

type fixture struct {
	runner   *Runner
	store    *ledger.Store
	transfer *transfer.Machine
	rec      *notify.Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	cal := calendar.New(time.UTC)
	now := time.Date(2026, 9, 14, 0, 5, 0, 0, time.UTC)
	cal.SetClock(func() time.Time { return now })

	guard, err := antifraud.NewGuard(antifraud.Config{
		Window: time.Minute, BonusPerWindow: 100, ActionsPerWindow: 100, Tracked: 100,
		DailySendCap: money.Cents(50000),
	}, nil)
	require.NoError(t, err)

	f := &fixture{rec: &notify.Recorder{}}
	f.store = ledger.NewStore(db.BunDB(), cal)
	ms := missions.NewService(f.store, missions.DefaultRegistry(), f.rec)
	f.runner = NewRunner(f.store, ms, Config{Workers: 3, PageSize: 2})
	f.transfer = transfer.NewMachine(f.store, guard, f.rec, 10*time.Minute)
	return f
}

func (f *fixture) send(t *testing.T, from, to int64, amount string) error {
	t.Helper()
	ctx := context.Background()
	_, err := f.transfer.Start(ctx, from)
	require.NoError(t, err)
	_, err = f.transfer.Input(ctx, from, strconv.FormatInt(to, 10))
	require.NoError(t, err)
	step, err := f.transfer.Input(ctx, from, amount)
	if err != nil {
		return err
	}
	_, err = f.transfer.Confirm(ctx, from, step.Token)
	return err
}

func TestAuditResetsDailySent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.store.Append(ctx, ledger.Entry{AccountID: 1, Kind: models.KindAdminAdjust, Amount: money.Cents(200000)})
	require.NoError(t, err)

	require.NoError(t, f.send(t, 1, 2, "500"))
	assert.ErrorIs(t, f.send(t, 1, 2, "500"), domain.ErrDailySendCap)

	report, err := f.runner.Run(ctx, false)
	require.NoError(t, err)
	assert.False(t, report.Skipped)
	assert.Equal(t, 2, report.Accounts)
	assert.Equal(t, 2, report.Reset)
	assert.Zero(t, report.Failures)

	acc, err := f.store.Account(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, money.Zero, acc.DailySent)

	require.NoError(t, f.send(t, 1, 2, "500"))
}

func TestAuditRunsOncePerDay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.store.Touch(ctx, 1, "one"))

	first, err := f.runner.Run(ctx, false)
	require.NoError(t, err)
	assert.False(t, first.Skipped)

	second, err := f.runner.Run(ctx, false)
	require.NoError(t, err)
	assert.True(t, second.Skipped)

	forced, err := f.runner.Run(ctx, true)
	require.NoError(t, err)
	assert.False(t, forced.Skipped)
	assert.Equal(t, 1, forced.Accounts)

	last, err := f.store.Repos().Meta.Get(ctx, LastRunKey)
	require.NoError(t, err)
	assert.Equal(t, "2026-09-14", last)
}

func TestAuditEvaluatesMissions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	now := f.store.Calendar().Now()

	// Spins recorded without going through the engine still count.
	for id := int64(1); id <= 5; id++ {
		require.NoError(t, f.store.Touch(ctx, id, ""))
		require.NoError(t, f.store.Repos().Spins.Insert(ctx, &models.Spin{AccountID: id, CreatedAt: now}))
	}

	report, err := f.runner.Run(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 5, report.Accounts)
	assert.Equal(t, 5, report.Missions)

	for id := int64(1); id <= 5; id++ {
		b, err := f.store.GetBalance(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, money.Cents(50), b, "account %d", id)
	}

	again, err := f.runner.Run(ctx, true)
	require.NoError(t, err)
	assert.Zero(t, again.Missions)
}

func TestAuditContinuesPastDrift(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for id := int64(1); id <= 3; id++ {
		_, err := f.store.Append(ctx, ledger.Entry{AccountID: id, Kind: models.KindAdminAdjust, Amount: money.Cents(100)})
		require.NoError(t, err)
	}

	_, err := f.store.Repos().DB().NewUpdate().
		Model((*models.Account)(nil)).
		Set("balance = ?", 999).
		Where("id = ?", 2).
		Exec(ctx)
	require.NoError(t, err)

	report, err := f.runner.Run(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Accounts)
	assert.Equal(t, 1, report.Mismatches)
	assert.Equal(t, 1, report.Failures)
}

func TestAuditUploadsSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	snaps := &memSnapshots{}
	f.runner.SetSnapshotter(snaps)

	_, err := f.store.Append(ctx, ledger.Entry{AccountID: 7, Kind: models.KindAdminAdjust, Amount: money.Cents(1234)})
	require.NoError(t, err)

	// Account 9 completes the spin mission during the run.
	_, err = f.store.Append(ctx, ledger.Entry{AccountID: 9, Kind: models.KindAdminAdjust, Amount: money.Cents(1000)})
	require.NoError(t, err)
	require.NoError(t, f.store.Repos().Spins.Insert(ctx, &models.Spin{AccountID: 9, CreatedAt: f.store.Calendar().Now()}))

	report, err := f.runner.Run(ctx, false)
	require.NoError(t, err)
	require.Equal(t, "2026-09-14.json", report.Snapshot)
	require.Equal(t, 1, report.Missions)

	var rows []balanceRow
	require.NoError(t, json.Unmarshal(snaps.files[report.Snapshot], &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, int64(7), rows[0].AccountID)
	assert.Equal(t, "12.34", rows[0].Balance)
	assert.Equal(t, int64(9), rows[1].AccountID)
	assert.Equal(t, "10.50", rows[1].Balance)

	ledgerBalance, err := f.store.GetBalance(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, ledgerBalance.String(), rows[1].Balance)
}
