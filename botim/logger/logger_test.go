package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleHandler(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(New(&buf, Options{Level: slog.LevelInfo, NoColor: true}))

	log.Debug("hidden")
	log.Info("Command completed",
		slog.String("type", "cmd"),
		slog.String("name", "daily"),
		slog.String("user_name", "alice"),
		slog.String("status", "success"),
		slog.Int64("user_id", 7))
	log.With(slog.String("type", "db")).Error("Query failed", slog.Any("error", errors.New("boom")))
	log.Info("sending heartbeat")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.NotContains(t, out, "heartbeat")
	assert.Contains(t, out, "[INFO] [CMD] Command completed [daily by alice] [Status: success] user_id=7")
	assert.Contains(t, out, "[ERROR] [DB] Query failed: boom")
}

func TestJSONHandler(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(New(&buf, Options{Level: slog.LevelDebug, Format: "json"}))
	log.Debug("hello", slog.String("type", "sys"))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "sys", rec["type"])
}
