package botim

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
[log]
level = "debug"
format = "json"

[bot]
token = "abc"
admins = [111, 222]
operator_channel = 333

[rewards]
daily_send_cap = 250.5
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, slog.LevelDebug, cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, []int64{111, 222}, cfg.Bot.AdminIDs())
	assert.Equal(t, snowflake.ID(333), cfg.Bot.OperatorChannel)

	g := cfg.GuardConfig()
	assert.Equal(t, money.Cents(25050), g.DailySendCap)
	assert.Equal(t, money.Cents(2000), g.DailyBonusCap)
	assert.Equal(t, time.Minute, g.Window)
	assert.Equal(t, 6, g.BonusPerWindow)

	b := cfg.Rewards.BonusConfig()
	assert.Equal(t, money.Cents(20), b.Min)
	assert.Equal(t, money.Cents(500), b.Max)
	assert.Equal(t, 5*time.Minute, cfg.Rewards.QuizTTL())
	assert.Equal(t, 10*time.Minute, cfg.Rewards.TransferTTL())
	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.True(t, cfg.Audit.Enabled)
}

func TestLoadConfigRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown key", "[bot]\ntokn = \"x\"\n"},
		{"bad timezone", "[rewards]\ntimezone = \"Mars/Olympus\"\n"},
		{"inverted bonus", "[rewards]\nbonus_min = 6.0\nbonus_max = 5.0\n"},
		{"bad driver", "[db]\ndriver = \"mysql\"\n"},
		{"postgres without host", "[db]\ndriver = \"postgres\"\n"},
		{"bad audit time", "[audit]\nhour = 24\n"},
		{"bad log format", "[log]\nformat = \"xml\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	assert.ErrorContains(t, err, "failed to open config")
}

func TestExampleConfigLoads(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("..", "config.example.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Rewards, cfg.Rewards)
	assert.Equal(t, DefaultConfig().AntiFraud, cfg.AntiFraud)
	assert.Equal(t, "snapshots", cfg.Spaces.Prefix)
	assert.False(t, cfg.Spaces.Uploader().Enabled())
}
