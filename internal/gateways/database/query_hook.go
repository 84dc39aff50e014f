package database

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/uptrace/bun"
)

const defaultSlowQuery = 500 * time.Millisecond

// QueryHook logs every statement bun runs. Failures are errors, statements
// slower than SlowThreshold are warnings, the rest is debug output.
type QueryHook struct {
	SlowThreshold time.Duration
}

var _ bun.QueryHook = QueryHook{}

func (h QueryHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h QueryHook) AfterQuery(_ context.Context, e *bun.QueryEvent) {
	took := time.Since(e.StartTime)
	attrs := []any{
		slog.String("type", "db"),
		slog.String("operation", e.Operation()),
		slog.String("query", e.Query),
		slog.Duration("took", took),
	}

	// A missing row is an answer, not a failure.
	if e.Err != nil && !errors.Is(e.Err, sql.ErrNoRows) {
		slog.Error("Query failed", append(attrs, slog.Any("error", e.Err))...)
		return
	}

	threshold := h.SlowThreshold
	if threshold <= 0 {
		threshold = defaultSlowQuery
	}
	if took > threshold {
		slog.Warn("Query executed slowly", attrs...)
		return
	}

	if e.Result != nil {
		if n, err := e.Result.RowsAffected(); err == nil {
			attrs = append(attrs, slog.Int64("affected_rows", n))
		}
	}
	slog.Debug("Query executed", attrs...)
}
