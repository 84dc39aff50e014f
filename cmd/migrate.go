package cmd

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the schema and seed the quiz and mission catalogs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), initTimeout)
		defer cancel()

		start := time.Now()
		db, err := openDatabase(ctx, cfg.DB)
		if err != nil {
			slog.Error("Migration failed", slog.String("type", "db"), slog.Any("error", err))
			return err
		}
		defer db.Close()

		slog.Info("Migration completed successfully",
			slog.String("type", "db"),
			slog.String("driver", cfg.DB.Driver),
			slog.Duration("took", time.Since(start)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
