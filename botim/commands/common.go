package commands

import (
	"context"
	"log/slog"

	"github.com/disgoorg/disgo/discord"
	"github.com/jumanzarismoilov-jpg/botim/botim"
	"github.com/jumanzarismoilov-jpg/botim/botim/config"
)

// accountID maps a Discord user to its ledger account.
func accountID(u discord.User) int64 {
	return int64(u.ID)
}

func queryContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), config.CommandQueryTimeout)
}

// touch keeps the account's display name fresh for the leaderboard.
func touch(ctx context.Context, b *botim.Bot, u discord.User) {
	name := u.Username
	if u.GlobalName != nil && *u.GlobalName != "" {
		name = *u.GlobalName
	}
	if err := b.Store.Touch(ctx, accountID(u), name); err != nil {
		slog.Warn("Failed to record display name",
			slog.String("type", "db"),
			slog.Int64("account_id", accountID(u)),
			slog.Any("error", err))
	}
}

// evaluateMissions runs after every reward action. A failure here never
// undoes the action that triggered it.
func evaluateMissions(ctx context.Context, b *botim.Bot, id int64) {
	if _, err := b.Missions.Evaluate(ctx, id); err != nil {
		slog.Error("Mission evaluation failed",
			slog.String("type", "db"),
			slog.Int64("account_id", id),
			slog.Any("error", err))
	}
}

func embed(title, description string, color int) discord.Embed {
	return discord.NewEmbedBuilder().
		SetTitle(title).
		SetDescription(description).
		SetColor(color).
		Build()
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
