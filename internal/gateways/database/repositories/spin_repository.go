package repositories

import (
	"context"
	"time"

	"github.com/jumanzarismoilov-jpg/botim/internal/gateways/database/models"
)

type SpinRepository struct{ base }

func (r *SpinRepository) Insert(ctx context.Context, s *models.Spin) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err := r.db.NewInsert().Model(s).Returning("id").Exec(ctx)
	return handleError("insert", "spin", s.AccountID, err)
}

func (r *SpinRepository) CountBetween(ctx context.Context, accountID int64, start, end time.Time) (int, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	n, err := r.db.NewSelect().
		Model((*models.Spin)(nil)).
		Where("account_id = ?", accountID).
		Where("created_at >= ?", start).
		Where("created_at < ?", end).
		Count(ctx)
	return n, handleError("count_between", "spin", accountID, err)
}

func (r *SpinRepository) Count(ctx context.Context, accountID int64) (int, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	n, err := r.db.NewSelect().
		Model((*models.Spin)(nil)).
		Where("account_id = ?", accountID).
		Count(ctx)
	return n, handleError("count", "spin", accountID, err)
}
