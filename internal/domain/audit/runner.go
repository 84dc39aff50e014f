// Package audit runs the once-a-day maintenance pass: reset every account's
// daily-sent counter, re-evaluate missions and reconcile balances. Each
// account is handled in its own short units so a run never holds more than
// one account's locks at a time.
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jumanzarismoilov-jpg/botim/internal/domain"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/ledger"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/missions"
	"golang.org/x/sync/errgroup"
)

// LastRunKey is the app_meta key holding the day of the last completed run.
const LastRunKey = "last_audit_day"

// Snapshotter stores a balance snapshot under a day-named key.
type Snapshotter interface {
	UploadSnapshot(ctx context.Context, name string, body []byte) error
}

type Config struct {
	Workers  int
	PageSize int
}

type Report struct {
	Day        string        `json:"day"`
	Skipped    bool          `json:"skipped"`
	Accounts   int           `json:"accounts"`
	Reset      int           `json:"reset"`
	Missions   int           `json:"missions"`
	Mismatches int           `json:"mismatches"`
	Failures   int           `json:"failures"`
	Snapshot   string        `json:"snapshot,omitempty"`
	Duration   time.Duration `json:"duration_ns"`
}

type Runner struct {
	store    *ledger.Store
	missions *missions.Service
	snapshot Snapshotter
	observe  func(*Report, error)
	cfg      Config

	mu sync.Mutex
}

func NewRunner(store *ledger.Store, ms *missions.Service, cfg Config) *Runner {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 500
	}
	return &Runner{store: store, missions: ms, cfg: cfg}
}

// SetSnapshotter enables the balance snapshot after each run.
func (r *Runner) SetSnapshotter(s Snapshotter) {
	r.snapshot = s
}

// OnReport registers a callback invoked after every run, skipped or not.
func (r *Runner) OnReport(fn func(*Report, error)) {
	r.observe = fn
}

type stats struct {
	accounts   atomic.Int32
	reset      atomic.Int32
	missions   atomic.Int32
	mismatches atomic.Int32
	failures   atomic.Int32
}

type balanceRow struct {
	AccountID int64  `json:"account_id"`
	Balance   string `json:"balance"`
}

// Run performs the audit for the current day. Unless force is set, a second
// call on a day that already completed is skipped. Per-account failures are
// logged and counted; only failures to read the account set are returned.
func (r *Runner) Run(ctx context.Context, force bool) (*Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	report, err := r.run(ctx, force)
	if r.observe != nil {
		r.observe(report, err)
	}
	return report, err
}

func (r *Runner) run(ctx context.Context, force bool) (*Report, error) {
	start := time.Now()
	cal := r.store.Calendar()
	day := cal.Today()
	meta := r.store.Repos().Meta

	last, err := meta.Get(ctx, LastRunKey)
	if err != nil {
		return nil, domain.IntegrityError("read last audit day", err)
	}
	if last == day && !force {
		slog.Info("Daily audit already ran",
			slog.String("type", "sys"),
			slog.String("day", day))
		return &Report{Day: day, Skipped: true}, nil
	}

	slog.Info("Daily audit started",
		slog.String("type", "sys"),
		slog.String("day", day),
		slog.Int("workers", r.cfg.Workers))

	var (
		st       stats
		snapshot []balanceRow
		after    int64
	)
	accounts := r.store.Repos().Accounts
	for {
		page, err := accounts.Page(ctx, after, r.cfg.PageSize)
		if err != nil {
			return nil, domain.IntegrityError("page accounts", err)
		}
		if len(page) == 0 {
			break
		}

		// Balances are captured after each account's units so rewards
		// granted by this run are part of the snapshot.
		rows := make([]balanceRow, len(page))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.cfg.Workers)
		for i, acc := range page {
			id := acc.ID
			g.Go(func() error {
				rows[i] = r.auditAccount(gctx, id, &st)
				return nil
			})
		}
		_ = g.Wait()

		if r.snapshot != nil {
			snapshot = append(snapshot, rows...)
		}
		after = page[len(page)-1].ID
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	if err := meta.Set(ctx, LastRunKey, day); err != nil {
		return nil, domain.IntegrityError("record audit day", err)
	}

	report := &Report{
		Day:        day,
		Accounts:   int(st.accounts.Load()),
		Reset:      int(st.reset.Load()),
		Missions:   int(st.missions.Load()),
		Mismatches: int(st.mismatches.Load()),
		Failures:   int(st.failures.Load()),
	}

	if r.snapshot != nil {
		name := day + ".json"
		if err := r.upload(ctx, name, snapshot); err != nil {
			slog.Error("Balance snapshot upload failed",
				slog.String("type", "sys"),
				slog.String("name", name),
				slog.Any("error", err))
		} else {
			report.Snapshot = name
		}
	}

	report.Duration = time.Since(start)
	slog.Info("Daily audit completed",
		slog.String("type", "sys"),
		slog.String("day", day),
		slog.Int("accounts", report.Accounts),
		slog.Int("missions", report.Missions),
		slog.Int("mismatches", report.Mismatches),
		slog.Int("failures", report.Failures),
		slog.Duration("took", report.Duration))
	return report, nil
}

// auditAccount runs one account's units and returns its balance as it
// stands once they are done.
func (r *Runner) auditAccount(ctx context.Context, accountID int64, st *stats) balanceRow {
	st.accounts.Add(1)

	err := r.store.Atomic(ctx, []int64{accountID}, func(ctx context.Context, tx *ledger.Tx) error {
		return tx.Accounts.ResetDailySent(ctx, accountID, tx.Now())
	})
	if err != nil {
		r.fail(st, accountID, "reset daily sent", err)
	} else {
		st.reset.Add(1)
	}

	completed, err := r.missions.Evaluate(ctx, accountID)
	if err != nil {
		r.fail(st, accountID, "evaluate missions", err)
	}
	st.missions.Add(int32(len(completed)))

	if err := r.store.Reconcile(ctx, accountID); err != nil {
		if errors.Is(err, domain.ErrBalanceMismatch) {
			st.mismatches.Add(1)
		}
		r.fail(st, accountID, "reconcile", err)
	}

	row := balanceRow{AccountID: accountID}
	balance, err := r.store.GetBalance(ctx, accountID)
	if err != nil {
		r.fail(st, accountID, "read balance", err)
		return row
	}
	row.Balance = balance.String()
	return row
}

func (r *Runner) fail(st *stats, accountID int64, step string, err error) {
	st.failures.Add(1)
	slog.Error("Audit step failed",
		slog.String("type", "error"),
		slog.String("step", step),
		slog.Int64("account_id", accountID),
		slog.Any("error", err))
}

func (r *Runner) upload(ctx context.Context, name string, rows []balanceRow) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rows); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return r.snapshot.UploadSnapshot(ctx, name, buf.Bytes())
}
