package repositories

import (
	"context"
	"time"

	"github.com/jumanzarismoilov-jpg/botim/internal/domain/money"
	"github.com/jumanzarismoilov-jpg/botim/internal/gateways/database/models"
)

type AccountRepository struct{ base }

// Ensure creates the account row if it does not exist yet.
func (r *AccountRepository) Ensure(ctx context.Context, id int64, now time.Time) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	acc := &models.Account{ID: id, CreatedAt: now, UpdatedAt: now}
	_, err := r.db.NewInsert().
		Model(acc).
		On("CONFLICT (id) DO NOTHING").
		Exec(ctx)
	return handleError("ensure", "account", id, err)
}

// Touch records the latest display name, creating the account if needed.
func (r *AccountRepository) Touch(ctx context.Context, id int64, name string, now time.Time) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	acc := &models.Account{ID: id, DisplayName: name, CreatedAt: now, UpdatedAt: now}
	_, err := r.db.NewInsert().
		Model(acc).
		On("CONFLICT (id) DO UPDATE").
		Set("display_name = EXCLUDED.display_name").
		Exec(ctx)
	return handleError("touch", "account", id, err)
}

func (r *AccountRepository) Get(ctx context.Context, id int64) (*models.Account, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	acc := new(models.Account)
	err := r.db.NewSelect().
		Model(acc).
		Where("a.id = ?", id).
		Scan(ctx)
	if err != nil {
		return nil, handleError("get", "account", id, err)
	}
	return acc, nil
}

// GetForUpdate reads the row and, on PostgreSQL, holds its row lock until the
// surrounding transaction ends.
func (r *AccountRepository) GetForUpdate(ctx context.Context, id int64) (*models.Account, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	acc := new(models.Account)
	q := r.db.NewSelect().
		Model(acc).
		Where("a.id = ?", id)
	if r.postgres() {
		q = q.For("UPDATE")
	}
	if err := q.Scan(ctx); err != nil {
		return nil, handleError("lock", "account", id, err)
	}
	return acc, nil
}

func (r *AccountRepository) AddBalance(ctx context.Context, id int64, delta money.Amount, now time.Time) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err := r.db.NewUpdate().
		Model((*models.Account)(nil)).
		Set("balance = balance + ?", delta).
		Set("updated_at = ?", now).
		Where("id = ?", id).
		Exec(ctx)
	return handleError("add_balance", "account", id, err)
}

// Save writes the given columns of acc.
func (r *AccountRepository) Save(ctx context.Context, acc *models.Account, columns ...string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err := r.db.NewUpdate().
		Model(acc).
		Column(append(columns, "updated_at")...).
		WherePK().
		Exec(ctx)
	return handleError("save", "account", acc.ID, err)
}

func (r *AccountRepository) ResetDailySent(ctx context.Context, id int64, now time.Time) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err := r.db.NewUpdate().
		Model((*models.Account)(nil)).
		Set("daily_sent = 0").
		Set("updated_at = ?", now).
		Where("id = ?", id).
		Exec(ctx)
	return handleError("reset_daily_sent", "account", id, err)
}

func (r *AccountRepository) SetBanned(ctx context.Context, id int64, banned bool, now time.Time) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err := r.db.NewUpdate().
		Model((*models.Account)(nil)).
		Set("banned = ?", banned).
		Set("updated_at = ?", now).
		Where("id = ?", id).
		Exec(ctx)
	return handleError("set_banned", "account", id, err)
}

// SetReferredBy only fills an empty referred_by; the link never changes.
func (r *AccountRepository) SetReferredBy(ctx context.Context, id, referrer int64, now time.Time) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err := r.db.NewUpdate().
		Model((*models.Account)(nil)).
		Set("referred_by = ?", referrer).
		Set("updated_at = ?", now).
		Where("id = ?", id).
		Where("referred_by IS NULL").
		Exec(ctx)
	return handleError("set_referred_by", "account", id, err)
}

// Top returns accounts ordered by balance, ties broken by id.
func (r *AccountRepository) Top(ctx context.Context, limit int) ([]*models.Account, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var accounts []*models.Account
	err := r.db.NewSelect().
		Model(&accounts).
		Order("a.balance DESC", "a.id ASC").
		Limit(limit).
		Scan(ctx)
	return accounts, handleError("top", "account", nil, err)
}

// Page lists accounts with id greater than after, in id order.
func (r *AccountRepository) Page(ctx context.Context, after int64, limit int) ([]*models.Account, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var accounts []*models.Account
	err := r.db.NewSelect().
		Model(&accounts).
		Where("a.id > ?", after).
		Order("a.id ASC").
		Limit(limit).
		Scan(ctx)
	return accounts, handleError("page", "account", nil, err)
}

func (r *AccountRepository) Stats(ctx context.Context) (int, money.Amount, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var (
		count int64
		total int64
	)
	err := r.db.NewSelect().
		Model((*models.Account)(nil)).
		ColumnExpr("COUNT(*)").
		ColumnExpr("CAST(COALESCE(SUM(balance), 0) AS BIGINT)").
		Scan(ctx, &count, &total)
	if err != nil {
		return 0, 0, handleError("stats", "account", nil, err)
	}
	return int(count), money.Cents(total), nil
}
