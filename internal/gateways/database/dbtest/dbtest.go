// Package dbtest opens a throwaway SQLite database with the full schema.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jumanzarismoilov-jpg/botim/internal/gateways/database"
)

func Open(t testing.TB) *database.DB {
	t.Helper()

	ctx := context.Background()
	db, err := database.OpenSQLite(ctx, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(db.Close)

	if err := db.InitializeSchema(ctx); err != nil {
		t.Fatalf("initialize schema: %v", err)
	}
	return db
}
