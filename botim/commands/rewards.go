package commands

import (
	"fmt"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/jumanzarismoilov-jpg/botim/botim"
	"github.com/jumanzarismoilov-jpg/botim/botim/config"
	"github.com/jumanzarismoilov-jpg/botim/botim/utils"
)

var Daily = discord.SlashCommandCreate{
	Name:        "daily",
	Description: "🎁 Claim your daily bonus",
}

func DailyHandler(b *botim.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := queryContext()
		defer cancel()

		id := accountID(e.User())
		touch(ctx, b, e.User())

		res, err := b.Bonus.Claim(ctx, id)
		if err != nil {
			return utils.RespondError(e, err)
		}
		evaluateMissions(ctx, b, id)

		var sb strings.Builder
		fmt.Fprintf(&sb, "You received **%s** coins.\n", res.Total)
		if res.StreakBonus > 0 {
			fmt.Fprintf(&sb, "Base %s + streak bonus %s\n", res.Base, res.StreakBonus)
		}
		fmt.Fprintf(&sb, "🔥 Streak: **%d** day(s)\n", res.Streak)
		if res.Clamped {
			sb.WriteString("Today's bonus limit was reached, the amount was trimmed.\n")
		}
		fmt.Fprintf(&sb, "\n💰 Balance: **%s**", res.Balance)

		return utils.RespondSuccess(e, "🎁 Daily Bonus", sb.String())
	}
}

var Spin = discord.SlashCommandCreate{
	Name:        "spin",
	Description: "💠 Spin the wheel once a day",
}

func SpinHandler(b *botim.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := queryContext()
		defer cancel()

		id := accountID(e.User())
		touch(ctx, b, e.User())

		res, err := b.Spin.Spin(ctx, id)
		if err != nil {
			return utils.RespondError(e, err)
		}
		evaluateMissions(ctx, b, id)

		title := "💠 Spin Wheel"
		color := config.SuccessColor
		if res.Reward == 0 {
			color = config.InfoColor
		}
		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{embed(title,
				fmt.Sprintf("The wheel stopped at **%s** coins.\n\n💰 Balance: **%s**", res.Reward, res.Balance),
				color)},
		})
	}
}
