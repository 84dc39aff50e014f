package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/disgoorg/disgo/rest"
	"github.com/jumanzarismoilov-jpg/botim/botim"
	"github.com/spf13/cobra"
)

var forceAudit bool

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Run the daily audit once",
	Long: `Reset daily send totals, evaluate missions and reconcile balances for
every account. A run for a day that was already audited is skipped unless
--force is given. Meant to be called from cron when serve runs without the
in-process schedule.`,
	RunE: runAuditCmd,
}

func init() {
	auditCmd.Flags().BoolVar(&forceAudit, "force", false, "Run even if today's audit already completed")
	rootCmd.AddCommand(auditCmd)
}

func runAuditCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), auditTimeout)
	defer cancel()

	db, err := openDatabase(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()

	b := botim.New(*cfg, version, commit)
	if err := b.Init(ctx, db); err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	if cfg.Bot.Token != "" {
		if err := b.SetupNotifier(rest.New(rest.NewClient(cfg.Bot.Token))); err != nil {
			return err
		}
	} else {
		slog.Warn("No bot token configured, mission notifications will be dropped", slog.String("type", "sys"))
	}

	b.Notifier.Start()
	defer b.Notifier.Close()

	report, err := b.Audit.Run(ctx, forceAudit)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
