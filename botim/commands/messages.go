package commands

import (
	"log/slog"
	"strings"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/jumanzarismoilov-jpg/botim/botim"
	"github.com/jumanzarismoilov-jpg/botim/botim/config"
)

// MessageHandler feeds typed replies into a live transfer conversation. In
// direct messages, any other text is routed through the menu.
func MessageHandler(b *botim.Bot) bot.EventListener {
	return bot.NewListenerFunc(func(e *events.MessageCreate) {
		author := e.Message.Author
		if author.Bot || author.System {
			return
		}
		text := strings.TrimSpace(e.Message.Content)
		if text == "" {
			return
		}

		id := accountID(author)
		var reply discord.MessageCreate
		switch _, live := b.Transfers.Active(id); {
		case live:
			ctx, cancel := queryContext()
			defer cancel()
			step, err := b.Transfers.Input(ctx, id, text)
			reply = transferReply(b, step, err)
		case e.GuildID == nil:
			reply = menuReply(text)
		default:
			return
		}

		reply.MessageReference = &discord.MessageReference{MessageID: &e.MessageID}
		if _, err := e.Client().Rest().CreateMessage(e.ChannelID, reply); err != nil {
			slog.Error("Failed to reply to message",
				slog.String("type", "sys"),
				slog.Int64("account_id", id),
				slog.Any("error", err))
		}
	})
}

func menuReply(text string) discord.MessageCreate {
	if entry, ok := DefaultMenu.Match(text); ok {
		return discord.MessageCreate{
			Embeds: []discord.Embed{embed("Menu",
				"Use `/"+entry.Command+"` to "+entry.Help+".",
				config.InfoColor)},
		}
	}
	return discord.MessageCreate{
		Embeds: []discord.Embed{embed("Menu", DefaultMenu.Help(), config.DefaultColor)},
	}
}
