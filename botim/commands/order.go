package commands

import (
	"fmt"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/jumanzarismoilov-jpg/botim/botim"
	"github.com/jumanzarismoilov-jpg/botim/botim/utils"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/orders"
)

var Order = discord.SlashCommandCreate{
	Name:        "order",
	Description: "📝 Place an order with the operators",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionString{
			Name:        "text",
			Description: "What you would like to order",
			Required:    true,
			MaxLength:   intPtr(orders.MaxTextLength),
		},
	},
}

func OrderHandler(b *botim.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := queryContext()
		defer cancel()

		touch(ctx, b, e.User())
		o, err := b.Orders.Submit(ctx, accountID(e.User()), e.SlashCommandInteractionData().String("text"))
		if err != nil {
			return utils.RespondError(e, err)
		}
		return utils.RespondSuccess(e, "📝 Order received",
			fmt.Sprintf("Your order **%s** was sent to the operators. They will contact you soon.", o.Ref))
	}
}

func intPtr(i int) *int { return &i }
