package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jumanzarismoilov-jpg/botim/botim"
	"github.com/jumanzarismoilov-jpg/botim/botim/logger"
	"github.com/jumanzarismoilov-jpg/botim/internal/gateways/database"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "unknown"

	configPath string
)

var rootCmd = &cobra.Command{
	Use:           "botim",
	Short:         "Virtual-currency rewards bot",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.toml", "path to config")
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	slog.SetDefault(slog.New(logger.New(os.Stdout, logger.Options{Level: slog.LevelInfo})))
	if err := rootCmd.Execute(); err != nil {
		slog.Error("Command failed", slog.String("type", "sys"), slog.Any("error", err))
		os.Exit(1)
	}
}

// loadConfig reads the config file and installs the configured logger.
func loadConfig() (*botim.Config, error) {
	cfg, err := botim.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(slog.New(logger.New(os.Stdout, logger.Options{
		Level:     cfg.Log.Level,
		Format:    cfg.Log.Format,
		AddSource: cfg.Log.AddSource,
	})))
	slog.Info("Configuration loaded",
		slog.String("type", "sys"),
		slog.String("path", configPath),
		slog.String("version", version))
	return cfg, nil
}

// openDatabase connects and brings the schema up to date.
func openDatabase(ctx context.Context, cfg database.DBConfig) (*database.DB, error) {
	db, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	if err := db.InitializeSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}
	return db, nil
}
