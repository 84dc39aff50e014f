package repositories

import (
	"context"

	"github.com/jumanzarismoilov-jpg/botim/internal/gateways/database/models"
)

type OrderRepository struct{ base }

func (r *OrderRepository) Insert(ctx context.Context, o *models.Order) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err := r.db.NewInsert().Model(o).Returning("id").Exec(ctx)
	return handleError("insert", "order", o.AccountID, err)
}

func (r *OrderRepository) CountByStatus(ctx context.Context, status string) (int, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	n, err := r.db.NewSelect().
		Model((*models.Order)(nil)).
		Where("status = ?", status).
		Count(ctx)
	return n, handleError("count", "order", status, err)
}

func (r *OrderRepository) ListByStatus(ctx context.Context, status string, limit int) ([]*models.Order, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var orders []*models.Order
	err := r.db.NewSelect().
		Model(&orders).
		Where("o.status = ?", status).
		Order("o.id ASC").
		Limit(limit).
		Scan(ctx)
	return orders, handleError("list", "order", status, err)
}

// SetStatus reports false when no order has the given id.
func (r *OrderRepository) SetStatus(ctx context.Context, id int64, status string) (bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	res, err := r.db.NewUpdate().
		Model((*models.Order)(nil)).
		Set("status = ?", status).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return false, handleError("set_status", "order", id, err)
	}
	n, err := res.RowsAffected()
	return n > 0, handleError("set_status", "order", id, err)
}
