package handlers

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/jumanzarismoilov-jpg/botim/botim/config"
	"github.com/jumanzarismoilov-jpg/botim/internal/metrics"
)

// WrapWithLogging wraps a command handler with logging and timing.
func WrapWithLogging(name string, h handler.CommandHandler) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		return run("cmd", name, e.User(), func() error { return h(e) })
	}
}

// WrapComponentWithLogging wraps a button handler with logging and timing.
func WrapComponentWithLogging(name string, h handler.ComponentHandler) handler.ComponentHandler {
	return func(e *handler.ComponentEvent) error {
		return run("component", name, e.User(), func() error { return h(e) })
	}
}

func run(kind, name string, user discord.User, fn func() error) error {
	start := time.Now()
	slog.Debug("Interaction started",
		slog.String("type", kind),
		slog.String("name", name),
		slog.String("user_id", user.ID.String()),
		slog.String("user_name", user.Username))

	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		took := time.Since(start)
		metrics.Bot().ObserveCommand(name, took)

		attrs := []any{
			slog.String("type", kind),
			slog.String("name", name),
			slog.String("user_id", user.ID.String()),
			slog.String("user_name", user.Username),
			slog.Duration("took", took),
		}
		switch {
		case err != nil:
			slog.Error("Interaction failed", append(attrs,
				slog.Any("error", err),
				slog.String("status", "failed"))...)
		case took > config.SlowCommandThreshold:
			slog.Warn("Interaction executed slowly", append(attrs,
				slog.String("status", "slow"))...)
		default:
			slog.Info("Interaction completed", append(attrs,
				slog.String("status", "success"))...)
		}
		return err

	case <-time.After(config.CommandExecutionTimeout):
		slog.Error("Interaction timed out",
			slog.String("type", kind),
			slog.String("name", name),
			slog.String("user_id", user.ID.String()),
			slog.String("user_name", user.Username),
			slog.String("status", "timeout"),
			slog.Duration("timeout", config.CommandExecutionTimeout))
		return fmt.Errorf("%s timed out after %s", name, config.CommandExecutionTimeout)
	}
}
