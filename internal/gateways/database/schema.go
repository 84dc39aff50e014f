package database

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jumanzarismoilov-jpg/botim/internal/gateways/database/models"
	"github.com/jumanzarismoilov-jpg/botim/internal/gateways/database/repositories"
)

var tables = []any{
	(*models.Account)(nil),
	(*models.LedgerEvent)(nil),
	(*models.Referral)(nil),
	(*models.QuizQuestion)(nil),
	(*models.QuizAttempt)(nil),
	(*models.Spin)(nil),
	(*models.Mission)(nil),
	(*models.MissionCompletion)(nil),
	(*models.Order)(nil),
	(*models.AppMeta)(nil),
}

var indexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_accounts_balance ON accounts(balance);",
	"CREATE INDEX IF NOT EXISTS idx_ledger_events_account ON ledger_events(account_id, id);",
	"CREATE INDEX IF NOT EXISTS idx_ledger_events_account_kind ON ledger_events(account_id, kind, created_at);",
	"CREATE INDEX IF NOT EXISTS idx_referrals_referrer ON referrals(referrer_id);",
	"CREATE INDEX IF NOT EXISTS idx_quiz_attempts_account ON quiz_attempts(account_id, created_at);",
	"CREATE INDEX IF NOT EXISTS idx_spins_account ON spins(account_id, created_at);",
	"CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);",
}

// InitializeSchema creates all required tables and indexes and loads the
// quiz and mission catalogs.
func (db *DB) InitializeSchema(ctx context.Context) error {
	repos := repositories.New(db.bunDB)

	if os.Getenv("DB_FAST_INIT") == "1" {
		if _, err := db.bunDB.NewCreateTable().Model((*models.AppMeta)(nil)).IfNotExists().Exec(ctx); err == nil {
			if v, _ := repos.Meta.Get(ctx, "schema_version"); v == fmt.Sprintf("%d", schemaVersion) {
				slog.Info("Fast DB init: schema up-to-date, skipping initialization",
					slog.String("type", "db"),
					slog.Int("schema_version", schemaVersion))
				return nil
			}
		}
	}

	if err := db.checkEncoding(ctx); err != nil {
		return fmt.Errorf("failed to ensure UTF-8 encoding: %w", err)
	}

	for _, model := range tables {
		if _, err := db.bunDB.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	for _, idx := range indexes {
		if _, err := db.ExecWithLog(ctx, idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	if err := SeedCatalog(ctx, repos); err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}

	if err := repos.Meta.Set(ctx, "schema_version", fmt.Sprintf("%d", schemaVersion)); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}

	slog.Info("Database schema initialized",
		slog.String("type", "db"),
		slog.Int("schema_version", schemaVersion))
	return nil
}
