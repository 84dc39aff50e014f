package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/handler"
	"github.com/jumanzarismoilov-jpg/botim/botim"
	"github.com/jumanzarismoilov-jpg/botim/botim/commands"
	"github.com/jumanzarismoilov-jpg/botim/botim/config"
	"github.com/jumanzarismoilov-jpg/botim/internal/ops"
	"github.com/spf13/cobra"
)

const (
	initTimeout  = 2 * time.Minute
	auditTimeout = 30 * time.Minute
)

var syncCommands bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chat bot, the ops server and the daily audit schedule",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&syncCommands, "sync-commands", false, "Whether to sync commands to discord")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("Initializing database connection...", slog.String("type", "db"), slog.String("driver", cfg.DB.Driver))
	dbStart := time.Now()
	initCtx, cancel := context.WithTimeout(ctx, initTimeout)
	defer cancel()

	db, err := openDatabase(initCtx, cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()
	slog.Info("Database ready", slog.String("type", "db"), slog.Duration("took", time.Since(dbStart)))

	b := botim.New(*cfg, version, commit)
	if err := b.Init(initCtx, db); err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	b.Notifier.Start()
	defer b.Notifier.Close()

	h := handler.New()
	commands.Register(h, b)

	if err := b.SetupBot(h, bot.NewListenerFunc(b.OnReady), commands.MessageHandler(b)); err != nil {
		return fmt.Errorf("failed to setup bot: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()
		b.Client.Close(ctx)
	}()

	if syncCommands {
		slog.Info("Syncing commands",
			slog.String("type", "sys"),
			slog.Any("guild_ids", cfg.Bot.DevGuilds))
		if err := handler.SyncCommands(b.Client, commands.Commands, cfg.Bot.DevGuilds); err != nil {
			slog.Error("Failed to sync commands",
				slog.String("type", "sys"),
				slog.Any("error", err))
		}
	}

	b.Quiz.Sessions().StartCleanupRoutine(ctx, config.SessionSweepInterval)
	b.Transfers.Sessions().StartCleanupRoutine(ctx, config.SessionSweepInterval)

	if cfg.Audit.Enabled {
		go scheduleAudit(ctx, b)
	}

	if cfg.Ops.Listen != "" {
		srv := ops.New(ops.Config{
			Listen:     cfg.Ops.Listen,
			AdminToken: cfg.Ops.AdminToken,
			Version:    version,
		}, b.Admin, b.Audit, db.Ping)
		go func() {
			slog.Info("Ops server listening", slog.String("type", "sys"), slog.String("addr", cfg.Ops.Listen))
			if err := srv.Listen(); err != nil {
				slog.Error("Ops server stopped", slog.String("type", "sys"), slog.Any("error", err))
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				slog.Error("Ops server shutdown failed", slog.String("type", "sys"), slog.Any("error", err))
			}
		}()
	}

	gwCtx, gwCancel := context.WithTimeout(ctx, 10*time.Second)
	defer gwCancel()
	if err := b.Client.OpenGateway(gwCtx); err != nil {
		return fmt.Errorf("failed to open gateway: %w", err)
	}

	slog.Info("Bot is running. Press CTRL-C to exit.", slog.String("type", "sys"))
	<-ctx.Done()
	slog.Info("Shutting down bot...", slog.String("type", "sys"))
	return nil
}

// scheduleAudit runs the audit once at startup to catch up on a missed day,
// then at the configured local time every day.
func scheduleAudit(ctx context.Context, b *botim.Bot) {
	runAudit := func() {
		runCtx, cancel := context.WithTimeout(ctx, auditTimeout)
		defer cancel()
		if _, err := b.Audit.Run(runCtx, false); err != nil {
			slog.Error("Scheduled audit failed", slog.String("type", "sys"), slog.Any("error", err))
		}
	}

	runAudit()
	for {
		next := b.Calendar.Next(b.Calendar.Now(), b.Cfg.Audit.Hour, b.Cfg.Audit.Minute)
		slog.Debug("Next audit scheduled", slog.String("type", "sys"), slog.Time("at", next))

		timer := time.NewTimer(next.Sub(b.Calendar.Now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			runAudit()
		}
	}
}
