package repositories

import (
	"context"

	"github.com/jumanzarismoilov-jpg/botim/internal/gateways/database/models"
)

type ReferralRepository struct{ base }

// Insert stores the link and reports false if the referred account already
// had one.
func (r *ReferralRepository) Insert(ctx context.Context, ref *models.Referral) (bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	res, err := r.db.NewInsert().
		Model(ref).
		On("CONFLICT (referred_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, handleError("insert", "referral", ref.ReferredID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, handleError("insert", "referral", ref.ReferredID, err)
	}
	return n > 0, nil
}

func (r *ReferralRepository) Exists(ctx context.Context, referredID int64) (bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	ok, err := r.db.NewSelect().
		Model((*models.Referral)(nil)).
		Where("referred_id = ?", referredID).
		Exists(ctx)
	return ok, handleError("exists", "referral", referredID, err)
}

func (r *ReferralRepository) CountByReferrer(ctx context.Context, referrerID int64) (int, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	n, err := r.db.NewSelect().
		Model((*models.Referral)(nil)).
		Where("referrer_id = ?", referrerID).
		Count(ctx)
	return n, handleError("count", "referral", referrerID, err)
}
