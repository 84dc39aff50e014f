package botim

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/antifraud"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/bonus"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/calendar"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/money"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/referral"
	"github.com/jumanzarismoilov-jpg/botim/internal/gateways/database"
	"github.com/jumanzarismoilov-jpg/botim/internal/gateways/spaces"
	"github.com/pelletier/go-toml/v2"
)

// LoadConfig reads path over DefaultConfig, so omitted keys keep their
// defaults, and validates the result.
func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	cfg := DefaultConfig()
	if err = toml.NewDecoder(file).DisallowUnknownFields().Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("unknown config keys:\n%s", strict.String())
		}
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type Config struct {
	Log       LogConfig         `toml:"log"`
	Bot       BotConfig         `toml:"bot"`
	DB        database.DBConfig `toml:"db"`
	Rewards   RewardsConfig     `toml:"rewards"`
	AntiFraud AntiFraudConfig   `toml:"antifraud"`
	Audit     AuditConfig       `toml:"audit"`
	Ops       OpsConfig         `toml:"ops"`
	Spaces    SpacesConfig      `toml:"spaces"`
}

type BotConfig struct {
	DevGuilds       []snowflake.ID `toml:"dev_guilds"`
	Token           string         `toml:"token"`
	Admins          []snowflake.ID `toml:"admins"`
	OperatorChannel snowflake.ID   `toml:"operator_channel"`
}

type LogConfig struct {
	Level     slog.Level `toml:"level"`
	Format    string     `toml:"format"`
	AddSource bool       `toml:"add_source"`
}

// RewardsConfig amounts are in coins; they are rounded to cents on use.
type RewardsConfig struct {
	Timezone           string  `toml:"timezone"`
	BonusMin           float64 `toml:"bonus_min"`
	BonusMax           float64 `toml:"bonus_max"`
	StreakStep         float64 `toml:"streak_step"`
	DailyBonusCap      float64 `toml:"daily_bonus_cap"`
	DailySendCap       float64 `toml:"daily_send_cap"`
	ReferralReward     float64 `toml:"referral_reward"`
	ReferralLimit      int     `toml:"referral_limit"`
	LargeReward        float64 `toml:"large_reward"`
	QuizTTLSeconds     int     `toml:"quiz_ttl_seconds"`
	TransferTTLSeconds int     `toml:"transfer_ttl_seconds"`
}

type AntiFraudConfig struct {
	WindowSeconds    int `toml:"window_seconds"`
	BonusPerWindow   int `toml:"bonus_per_window"`
	ActionsPerWindow int `toml:"actions_per_window"`
	TrackedAccounts  int `toml:"tracked_accounts"`
}

type AuditConfig struct {
	Enabled bool `toml:"enabled"`
	Hour    int  `toml:"hour"`
	Minute  int  `toml:"minute"`
	Workers int  `toml:"workers"`
}

type OpsConfig struct {
	Listen     string `toml:"listen"`
	AdminToken string `toml:"admin_token"`
}

type SpacesConfig struct {
	Key      string `toml:"key"`
	Secret   string `toml:"secret"`
	Region   string `toml:"region"`
	Endpoint string `toml:"endpoint"`
	Bucket   string `toml:"bucket"`
	Prefix   string `toml:"prefix"`
}

func DefaultConfig() Config {
	return Config{
		Log: LogConfig{Level: slog.LevelInfo, Format: "text"},
		DB: database.DBConfig{
			Driver:   database.DriverSQLite,
			Path:     "botim.db",
			Port:     5432,
			PoolSize: 10,
		},
		Rewards: RewardsConfig{
			Timezone:           "UTC",
			BonusMin:           0.20,
			BonusMax:           5.00,
			StreakStep:         0.20,
			DailyBonusCap:      20.00,
			DailySendCap:       500.00,
			ReferralReward:     4.00,
			ReferralLimit:      1000,
			LargeReward:        5.00,
			QuizTTLSeconds:     300,
			TransferTTLSeconds: 600,
		},
		AntiFraud: AntiFraudConfig{
			WindowSeconds:    60,
			BonusPerWindow:   6,
			ActionsPerWindow: 10,
			TrackedAccounts:  10000,
		},
		Audit: AuditConfig{Enabled: true, Hour: 0, Minute: 5, Workers: 4},
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	switch c.DB.Driver {
	case database.DriverSQLite:
		if c.DB.Path == "" {
			errs = append(errs, errors.New("db.path is required for sqlite"))
		}
	case database.DriverPostgres:
		if c.DB.Host == "" || c.DB.Database == "" {
			errs = append(errs, errors.New("db.host and db.database are required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("db.driver must be postgres or sqlite, got %q", c.DB.Driver))
	}

	r := c.Rewards
	if _, err := calendar.Load(r.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("rewards.timezone: %w", err))
	}
	if r.BonusMin <= 0 || r.BonusMax < r.BonusMin {
		errs = append(errs, errors.New("rewards.bonus_min must be positive and not above bonus_max"))
	}
	if r.StreakStep < 0 || r.DailyBonusCap < 0 || r.DailySendCap < 0 || r.ReferralReward < 0 || r.LargeReward < 0 {
		errs = append(errs, errors.New("rewards amounts must not be negative"))
	}
	if r.ReferralLimit <= 0 {
		errs = append(errs, errors.New("rewards.referral_limit must be positive"))
	}
	if r.QuizTTLSeconds <= 0 || r.TransferTTLSeconds <= 0 {
		errs = append(errs, errors.New("rewards session TTLs must be positive"))
	}

	a := c.AntiFraud
	if a.WindowSeconds <= 0 || a.BonusPerWindow <= 0 || a.ActionsPerWindow <= 0 || a.TrackedAccounts <= 0 {
		errs = append(errs, errors.New("antifraud values must be positive"))
	}
	if c.Audit.Hour < 0 || c.Audit.Hour > 23 || c.Audit.Minute < 0 || c.Audit.Minute > 59 {
		errs = append(errs, fmt.Errorf("audit time %02d:%02d is not a valid time of day", c.Audit.Hour, c.Audit.Minute))
	}
	if c.Ops.Listen != "" && c.Ops.AdminToken == "" {
		slog.Warn("ops.admin_token is empty, admin API is disabled", slog.String("type", "sys"))
	}
	return errors.Join(errs...)
}

func (r RewardsConfig) BonusConfig() bonus.Config {
	return bonus.Config{
		Min:         money.FromFloat(r.BonusMin),
		Max:         money.FromFloat(r.BonusMax),
		StreakStep:  money.FromFloat(r.StreakStep),
		LargeReward: money.FromFloat(r.LargeReward),
	}
}

func (r RewardsConfig) ReferralConfig() referral.Config {
	return referral.Config{
		Reward: money.FromFloat(r.ReferralReward),
		Limit:  r.ReferralLimit,
	}
}

func (r RewardsConfig) QuizTTL() time.Duration {
	return time.Duration(r.QuizTTLSeconds) * time.Second
}

func (r RewardsConfig) TransferTTL() time.Duration {
	return time.Duration(r.TransferTTLSeconds) * time.Second
}

func (c Config) GuardConfig() antifraud.Config {
	return antifraud.Config{
		Window:           time.Duration(c.AntiFraud.WindowSeconds) * time.Second,
		BonusPerWindow:   c.AntiFraud.BonusPerWindow,
		ActionsPerWindow: c.AntiFraud.ActionsPerWindow,
		Tracked:          c.AntiFraud.TrackedAccounts,
		DailyBonusCap:    money.FromFloat(c.Rewards.DailyBonusCap),
		DailySendCap:     money.FromFloat(c.Rewards.DailySendCap),
	}
}

func (s SpacesConfig) Uploader() spaces.Config {
	return spaces.Config(s)
}

// AdminIDs converts the configured admins to account ids.
func (b BotConfig) AdminIDs() []int64 {
	ids := make([]int64, len(b.Admins))
	for i, id := range b.Admins {
		ids[i] = int64(id)
	}
	return ids
}
