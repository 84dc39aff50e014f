package commands

import (
	"fmt"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/paginator"
	"github.com/jumanzarismoilov-jpg/botim/botim"
	"github.com/jumanzarismoilov-jpg/botim/botim/config"
	"github.com/jumanzarismoilov-jpg/botim/botim/utils"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/money"
	"github.com/jumanzarismoilov-jpg/botim/internal/gateways/database/models"
)

var Balance = discord.SlashCommandCreate{
	Name:        "balance",
	Description: "💰 View your balance",
}

func BalanceHandler(b *botim.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := queryContext()
		defer cancel()

		touch(ctx, b, e.User())
		acc, err := b.Store.Account(ctx, accountID(e.User()))
		if err != nil {
			return utils.RespondError(e, err)
		}

		var balance, sent money.Amount
		var streak int
		if acc != nil {
			balance, sent, streak = acc.Balance, acc.DailySent, acc.Streak
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "💰 Balance: **%s**\n", balance)
		fmt.Fprintf(&sb, "🔥 Bonus streak: **%d**\n", streak)
		fmt.Fprintf(&sb, "📤 Sent today: **%s**", sent)
		if limit := money.FromFloat(b.Cfg.Rewards.DailySendCap); limit > 0 {
			fmt.Fprintf(&sb, " / %s", limit)
		}

		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{discord.NewEmbedBuilder().
				SetTitle("💰 Balance").
				SetDescription(sb.String()).
				SetColor(config.SuccessColor).
				SetFooter(fmt.Sprintf("Account %d", accountID(e.User())), "").
				Build()},
		})
	}
}

var Transactions = discord.SlashCommandCreate{
	Name:        "transactions",
	Description: "📥 Your latest ledger events",
}

func TransactionsHandler(b *botim.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := queryContext()
		defer cancel()

		events, err := b.Store.ListEvents(ctx, accountID(e.User()), config.HistoryLimit)
		if err != nil {
			return utils.RespondError(e, err)
		}
		if len(events) == 0 {
			return utils.RespondInfo(e, "📥 Transactions", "No transactions yet.")
		}

		pages := (len(events) + config.HistoryPerPage - 1) / config.HistoryPerPage
		return b.Paginator.Create(e.Respond, paginator.Pages{
			ID:      e.ID().String(),
			Creator: e.User().ID,
			PageFunc: func(page int, embed *discord.EmbedBuilder) {
				start := page * config.HistoryPerPage
				end := min(start+config.HistoryPerPage, len(events))

				var sb strings.Builder
				for _, ev := range events[start:end] {
					sb.WriteString(formatEvent(ev))
					sb.WriteByte('\n')
				}

				embed.
					SetTitle("📥 Transactions").
					SetDescription(sb.String()).
					SetColor(config.DefaultColor).
					SetFooter(fmt.Sprintf("Page %d/%d • Latest %d", page+1, pages, len(events)), "")
			},
			Pages:      pages,
			ExpireMode: paginator.ExpireModeAfterLastUsage,
		}, false)
	}
}

func formatEvent(ev *models.LedgerEvent) string {
	line := fmt.Sprintf("`%s` **%s** %s", ev.CreatedAt.UTC().Format("2006-01-02 15:04"), ev.Amount.Signed(), ev.Kind)
	if ev.Reason != "" && ev.Reason != string(ev.Kind) {
		line += " · " + truncate(ev.Reason, 60)
	}
	return line
}

var Leaderboard = discord.SlashCommandCreate{
	Name:        "leaderboard",
	Description: "🏆 Richest accounts",
}

func LeaderboardHandler(b *botim.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := queryContext()
		defer cancel()

		top, err := b.Store.Leaderboard(ctx, config.LeaderboardLimit)
		if err != nil {
			return utils.RespondError(e, err)
		}
		if len(top) == 0 {
			return utils.RespondInfo(e, "🏆 Leaderboard", "Nobody has earned anything yet.")
		}

		var sb strings.Builder
		for i, acc := range top {
			name := acc.DisplayName
			if name == "" {
				name = fmt.Sprintf("#%d", acc.ID)
			}
			fmt.Fprintf(&sb, "%s %s: **%s**\n", rankMarker(i), name, acc.Balance)
		}
		return utils.RespondInfo(e, "🏆 Leaderboard", sb.String())
	}
}

func rankMarker(i int) string {
	switch i {
	case 0:
		return "🥇"
	case 1:
		return "🥈"
	case 2:
		return "🥉"
	default:
		return fmt.Sprintf("`%2d.`", i+1)
	}
}
