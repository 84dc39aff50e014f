package commands

import (
	"fmt"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/jumanzarismoilov-jpg/botim/botim"
	"github.com/jumanzarismoilov-jpg/botim/botim/config"
	"github.com/jumanzarismoilov-jpg/botim/botim/utils"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/missions"
)

var Missions = discord.SlashCommandCreate{
	Name:        "missions",
	Description: "📋 Check your missions",
}

func MissionsHandler(b *botim.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := queryContext()
		defer cancel()

		id := accountID(e.User())
		touch(ctx, b, e.User())

		fresh, err := b.Missions.Evaluate(ctx, id)
		if err != nil {
			return utils.RespondError(e, err)
		}
		overview, err := b.Missions.Overview(ctx, id)
		if err != nil {
			return utils.RespondError(e, err)
		}
		if len(overview) == 0 {
			return utils.RespondInfo(e, "📋 Missions", "There are no missions right now.")
		}

		var sb strings.Builder
		if len(fresh) > 0 {
			fmt.Fprintf(&sb, "🎉 Just completed %d mission(s) for **%s** coins!\n\n", len(fresh), missions.TotalReward(fresh))
		}
		for _, st := range overview {
			mark := "⬜"
			if st.Completed {
				mark = "✅"
			}
			fmt.Fprintf(&sb, "%s **%s** (+%s)\n", mark, st.Mission.Title, st.Mission.Reward)
			if st.Mission.Description != "" {
				fmt.Fprintf(&sb, "-# %s\n", st.Mission.Description)
			}
		}

		color := config.InfoColor
		if len(fresh) > 0 {
			color = config.SuccessColor
		}
		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{embed("📋 Missions", sb.String(), color)},
		})
	}
}
