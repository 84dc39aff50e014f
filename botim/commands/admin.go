package commands

import (
	"fmt"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/jumanzarismoilov-jpg/botim/botim"
	"github.com/jumanzarismoilov-jpg/botim/botim/config"
	"github.com/jumanzarismoilov-jpg/botim/botim/utils"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/money"
)

var AdminStats = discord.SlashCommandCreate{
	Name:        "admin-stats",
	Description: "[Admin] Ledger totals and pending orders",
}

// adminOnly rejects callers that are not configured administrators before
// the wrapped handler runs.
func adminOnly(b *botim.Bot, h handler.CommandHandler) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		if err := b.Admin.Authorize(accountID(e.User())); err != nil {
			return utils.RespondError(e, err)
		}
		return h(e)
	}
}

func AdminStatsHandler(b *botim.Bot) handler.CommandHandler {
	return adminOnly(b, func(e *handler.CommandEvent) error {
		ctx, cancel := queryContext()
		defer cancel()

		st, err := b.Admin.Stats(ctx)
		if err != nil {
			return utils.RespondError(e, err)
		}
		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{embed("📊 Stats",
				fmt.Sprintf("Accounts: **%d**\nTotal balance: **%s**\nPending orders: **%d**",
					st.Accounts, st.TotalBalance, st.PendingOrders),
				config.InfoColor)},
			Flags: discord.MessageFlagEphemeral,
		})
	})
}

func amountOptions(reasonRequired bool) []discord.ApplicationCommandOption {
	return []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionUser{
			Name:        "user",
			Description: "Target account",
			Required:    true,
		},
		discord.ApplicationCommandOptionString{
			Name:        "amount",
			Description: "Amount, e.g. 5 or 2.50",
			Required:    true,
		},
		discord.ApplicationCommandOptionString{
			Name:        "reason",
			Description: "Shown in the account's history",
			Required:    reasonRequired,
		},
	}
}

var AddBalance = discord.SlashCommandCreate{
	Name:        "addbal",
	Description: "[Admin] Credit or debit an account",
	Options:     amountOptions(false),
}

func AddBalanceHandler(b *botim.Bot) handler.CommandHandler {
	return adminOnly(b, func(e *handler.CommandEvent) error {
		data := e.SlashCommandInteractionData()
		amount, err := money.Parse(data.String("amount"))
		if err != nil {
			return utils.RespondError(e, domain.ErrInvalidAmount)
		}

		ctx, cancel := queryContext()
		defer cancel()

		target := data.User("user")
		adj, err := b.Admin.Adjust(ctx, accountID(e.User()), accountID(target), amount, data.String("reason"))
		if err != nil {
			return utils.RespondError(e, err)
		}
		return utils.RespondSuccess(e, "Balance adjusted",
			fmt.Sprintf("%s: **%s**\nNew balance: **%s**", target.Mention(), adj.Event.Amount.Signed(), adj.Balance))
	})
}

var Penalize = discord.SlashCommandCreate{
	Name:        "penalize",
	Description: "[Admin] Apply a penalty to an account",
	Options:     amountOptions(true),
}

func PenalizeHandler(b *botim.Bot) handler.CommandHandler {
	return adminOnly(b, func(e *handler.CommandEvent) error {
		data := e.SlashCommandInteractionData()
		amount, err := money.Parse(data.String("amount"))
		if err != nil {
			return utils.RespondError(e, domain.ErrInvalidAmount)
		}

		ctx, cancel := queryContext()
		defer cancel()

		target := data.User("user")
		adj, err := b.Admin.Penalize(ctx, accountID(e.User()), accountID(target), amount, data.String("reason"))
		if err != nil {
			return utils.RespondError(e, err)
		}
		return utils.RespondSuccess(e, "Penalty applied",
			fmt.Sprintf("%s: **%s**\nNew balance: **%s**", target.Mention(), adj.Event.Amount.Signed(), adj.Balance))
	})
}

var userOption = []discord.ApplicationCommandOption{
	discord.ApplicationCommandOptionUser{
		Name:        "user",
		Description: "Target account",
		Required:    true,
	},
}

var Ban = discord.SlashCommandCreate{
	Name:        "ban",
	Description: "[Admin] Restrict an account",
	Options:     userOption,
}

var Unban = discord.SlashCommandCreate{
	Name:        "unban",
	Description: "[Admin] Lift an account restriction",
	Options:     userOption,
}

func BanHandler(b *botim.Bot, banned bool) handler.CommandHandler {
	return adminOnly(b, func(e *handler.CommandEvent) error {
		ctx, cancel := queryContext()
		defer cancel()

		target := e.SlashCommandInteractionData().User("user")
		changed, err := b.Admin.SetBanned(ctx, accountID(e.User()), accountID(target), banned)
		if err != nil {
			return utils.RespondError(e, err)
		}

		state := "restricted"
		if !banned {
			state = "unrestricted"
		}
		if !changed {
			return utils.RespondInfo(e, "No change", fmt.Sprintf("%s is already %s.", target.Mention(), state))
		}
		return utils.RespondSuccess(e, "Account updated", fmt.Sprintf("%s is now %s.", target.Mention(), state))
	})
}

var Orders = discord.SlashCommandCreate{
	Name:        "orders",
	Description: "[Admin] List pending orders or close one",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionInt{
			Name:        "close",
			Description: "Order number to mark as done",
			Required:    false,
		},
	},
}

func OrdersHandler(b *botim.Bot) handler.CommandHandler {
	return adminOnly(b, func(e *handler.CommandEvent) error {
		ctx, cancel := queryContext()
		defer cancel()

		if id, ok := e.SlashCommandInteractionData().OptInt("close"); ok {
			closed, err := b.Orders.Close(ctx, int64(id))
			if err != nil {
				return utils.RespondError(e, err)
			}
			if !closed {
				return utils.RespondInfo(e, "📝 Orders", fmt.Sprintf("Order %d does not exist.", id))
			}
			return utils.RespondSuccess(e, "📝 Orders", fmt.Sprintf("Order %d marked as done.", id))
		}

		pending, err := b.Orders.Pending(ctx, config.PendingOrdersLimit)
		if err != nil {
			return utils.RespondError(e, err)
		}
		if len(pending) == 0 {
			return utils.RespondInfo(e, "📝 Orders", "No pending orders.")
		}

		var sb strings.Builder
		for _, o := range pending {
			fmt.Fprintf(&sb, "**%d** `%s` from %d: %s\n", o.ID, o.Ref, o.AccountID, truncate(o.Text, 120))
		}
		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{embed("📝 Pending orders", sb.String(), config.InfoColor)},
			Flags:  discord.MessageFlagEphemeral,
		})
	})
}
