package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jumanzarismoilov-jpg/botim/internal/gateways/database/models"
)

type MetaRepository struct{ base }

// Get returns "" for a missing key.
func (r *MetaRepository) Get(ctx context.Context, key string) (string, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	m := new(models.AppMeta)
	err := r.db.NewSelect().Model(m).Where(`"key" = ?`, key).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", handleError("get", "app_meta", key, err)
	}
	return m.Value, nil
}

func (r *MetaRepository) Set(ctx context.Context, key, value string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err := r.db.NewInsert().
		Model(&models.AppMeta{Key: key, Value: value}).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Exec(ctx)
	return handleError("set", "app_meta", key, err)
}
