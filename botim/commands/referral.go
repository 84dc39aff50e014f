package commands

import (
	"fmt"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/jumanzarismoilov-jpg/botim/botim"
	"github.com/jumanzarismoilov-jpg/botim/botim/utils"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/money"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/referral"
)

var Invite = discord.SlashCommandCreate{
	Name:        "invite",
	Description: "🔗 Show your referral code",
}

func InviteHandler(b *botim.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := queryContext()
		defer cancel()

		touch(ctx, b, e.User())
		code := referral.Code(accountID(e.User()))
		return utils.RespondInfo(e, "🔗 Referral",
			fmt.Sprintf("Your code: `%s`\n\nA friend who runs `/redeem %s` earns you **%s** coins.",
				code, code, money.FromFloat(b.Cfg.Rewards.ReferralReward)))
	}
}

var Redeem = discord.SlashCommandCreate{
	Name:        "redeem",
	Description: "Link your account to the friend who invited you",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionString{
			Name:        "code",
			Description: "Referral code, e.g. ref123",
			Required:    true,
		},
	},
}

func RedeemHandler(b *botim.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := queryContext()
		defer cancel()

		id := accountID(e.User())
		touch(ctx, b, e.User())

		res, err := b.Referrals.Redeem(ctx, id, e.SlashCommandInteractionData().String("code"))
		if err != nil {
			return utils.RespondError(e, err)
		}
		if !res.Linked {
			return utils.RespondInfo(e, "🔗 Referral", "Your account is already linked to a referrer.")
		}
		evaluateMissions(ctx, b, res.ReferrerID)
		return utils.RespondSuccess(e, "🔗 Referral", fmt.Sprintf("Linked to account **%d**.", res.ReferrerID))
	}
}
