package repositories

import (
	"context"
	"time"

	"github.com/jumanzarismoilov-jpg/botim/internal/domain/money"
	"github.com/jumanzarismoilov-jpg/botim/internal/gateways/database/models"
)

type EventRepository struct{ base }

func (r *EventRepository) Insert(ctx context.Context, ev *models.LedgerEvent) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err := r.db.NewInsert().
		Model(ev).
		Returning("id").
		Exec(ctx)
	return handleError("insert", "ledger_event", ev.AccountID, err)
}

// ListByAccount returns events newest first. A non-positive limit returns all.
func (r *EventRepository) ListByAccount(ctx context.Context, accountID int64, limit int) ([]*models.LedgerEvent, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var events []*models.LedgerEvent
	q := r.db.NewSelect().
		Model(&events).
		Where("le.account_id = ?", accountID).
		Order("le.id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Scan(ctx)
	return events, handleError("list", "ledger_event", accountID, err)
}

func (r *EventRepository) Sum(ctx context.Context, accountID int64) (money.Amount, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var sum int64
	err := r.db.NewSelect().
		Model((*models.LedgerEvent)(nil)).
		ColumnExpr("CAST(COALESCE(SUM(amount), 0) AS BIGINT)").
		Where("account_id = ?", accountID).
		Scan(ctx, &sum)
	return money.Cents(sum), handleError("sum", "ledger_event", accountID, err)
}

// SumKindBetween totals one kind of event inside [start, end).
func (r *EventRepository) SumKindBetween(ctx context.Context, accountID int64, kind models.EventKind, start, end time.Time) (money.Amount, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var sum int64
	err := r.db.NewSelect().
		Model((*models.LedgerEvent)(nil)).
		ColumnExpr("CAST(COALESCE(SUM(amount), 0) AS BIGINT)").
		Where("account_id = ?", accountID).
		Where("kind = ?", kind).
		Where("created_at >= ?", start).
		Where("created_at < ?", end).
		Scan(ctx, &sum)
	return money.Cents(sum), handleError("sum_kind", "ledger_event", accountID, err)
}

func (r *EventRepository) CountKind(ctx context.Context, accountID int64, kind models.EventKind) (int, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	n, err := r.db.NewSelect().
		Model((*models.LedgerEvent)(nil)).
		Where("account_id = ?", accountID).
		Where("kind = ?", kind).
		Count(ctx)
	return n, handleError("count_kind", "ledger_event", accountID, err)
}
