package repositories

import (
	"context"

	"github.com/jumanzarismoilov-jpg/botim/internal/gateways/database/models"
)

type MissionRepository struct{ base }

func (r *MissionRepository) List(ctx context.Context) ([]*models.Mission, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var ms []*models.Mission
	err := r.db.NewSelect().
		Model(&ms).
		Order("m.id ASC").
		Scan(ctx)
	return ms, handleError("list", "mission", nil, err)
}

// Completed returns the ids of missions the account has completed.
func (r *MissionRepository) Completed(ctx context.Context, accountID int64) (map[int64]bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var ids []int64
	err := r.db.NewSelect().
		Model((*models.MissionCompletion)(nil)).
		Column("mission_id").
		Where("account_id = ?", accountID).
		Scan(ctx, &ids)
	if err != nil {
		return nil, handleError("completed", "mission_completion", accountID, err)
	}

	done := make(map[int64]bool, len(ids))
	for _, id := range ids {
		done[id] = true
	}
	return done, nil
}

// Complete records the completion and reports false if it already existed.
func (r *MissionRepository) Complete(ctx context.Context, c *models.MissionCompletion) (bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	res, err := r.db.NewInsert().
		Model(c).
		On("CONFLICT (account_id, mission_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, handleError("complete", "mission_completion", c.AccountID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, handleError("complete", "mission_completion", c.AccountID, err)
	}
	return n > 0, nil
}

// Upsert keys catalog rows by mission code.
func (r *MissionRepository) Upsert(ctx context.Context, m *models.Mission) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err := r.db.NewInsert().
		Model(m).
		On("CONFLICT (code) DO UPDATE").
		Set("title = EXCLUDED.title").
		Set("description = EXCLUDED.description").
		Set("reward = EXCLUDED.reward").
		Set("conditions = EXCLUDED.conditions").
		Exec(ctx)
	return handleError("upsert", "mission", m.Code, err)
}
