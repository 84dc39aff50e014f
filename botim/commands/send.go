package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/jumanzarismoilov-jpg/botim/botim"
	"github.com/jumanzarismoilov-jpg/botim/botim/config"
	"github.com/jumanzarismoilov-jpg/botim/botim/utils"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/money"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/transfer"
)

// Button IDs carry the conversation token, so a button on an old prompt
// cannot confirm or cancel a newer transfer.
const (
	transferConfirmID = "/transfer/confirm/%s"
	transferCancelID  = "/transfer/cancel/%s"
)

var Send = discord.SlashCommandCreate{
	Name:        "send",
	Description: "📤 Send coins to another account",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionUser{
			Name:        "recipient",
			Description: "Who receives the coins",
			Required:    false,
		},
		discord.ApplicationCommandOptionString{
			Name:        "amount",
			Description: "Amount, e.g. 12.50",
			Required:    false,
		},
	},
}

// SendHandler opens a transfer conversation. Options given up front are fed
// through the same steps a typed reply would take.
func SendHandler(b *botim.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := queryContext()
		defer cancel()

		id := accountID(e.User())
		touch(ctx, b, e.User())

		step, err := b.Transfers.Start(ctx, id)
		if err != nil {
			return utils.RespondError(e, err)
		}

		data := e.SlashCommandInteractionData()
		var inputs []string
		if u, ok := data.OptUser("recipient"); ok {
			inputs = append(inputs, strconv.FormatInt(int64(u.ID), 10))
			if amount, ok := data.OptString("amount"); ok {
				inputs = append(inputs, amount)
			}
		}
		for _, in := range inputs {
			step, err = b.Transfers.Input(ctx, id, in)
			if err != nil {
				break
			}
		}

		msg := transferReply(b, step, err)
		msg.Flags = discord.MessageFlagEphemeral
		return e.CreateMessage(msg)
	}
}

// transferReply renders the next prompt of a conversation, or the reason it
// stopped.
func transferReply(b *botim.Bot, step *transfer.Step, err error) discord.MessageCreate {
	if err != nil && (step == nil || step.Session.State.Terminal()) {
		return discord.MessageCreate{Embeds: []discord.Embed{utils.ErrorEmbed(err)}}
	}

	var embeds []discord.Embed
	if err != nil {
		embeds = append(embeds, utils.ErrorEmbed(err))
	}

	s := step.Session
	var prompt discord.Embed
	var buttons []discord.InteractiveComponent
	switch s.State {
	case transfer.AwaitingRecipient:
		prompt = embed("📤 Send coins",
			"Reply with the recipient's account ID (their Discord user ID).",
			config.InfoColor)
	case transfer.AwaitingAmount:
		prompt = embed("📤 Send coins",
			fmt.Sprintf("Recipient: **%d**\nReply with the amount, e.g. `12.50`.", s.Recipient),
			config.InfoColor)
	case transfer.AwaitingConfirmation:
		var sb strings.Builder
		fmt.Fprintf(&sb, "Recipient: **%d**\nAmount: **%s**\n\n", s.Recipient, s.Amount)
		fmt.Fprintf(&sb, "💰 Balance: %s\n", step.Balance)
		if limit := money.FromFloat(b.Cfg.Rewards.DailySendCap); limit > 0 {
			fmt.Fprintf(&sb, "📊 Sent today: %s / %s\n", step.SentToday, limit)
		}
		prompt = embed("Confirm transfer", sb.String(), config.WarningColor)
		buttons = append(buttons, discord.NewSuccessButton("✅ Confirm", fmt.Sprintf(transferConfirmID, s.Token)))
	}
	if !step.ExpiresAt.IsZero() {
		prompt.Footer = &discord.EmbedFooter{
			Text: "Expires at " + step.ExpiresAt.UTC().Format("15:04 MST"),
		}
	}
	buttons = append(buttons, discord.NewDangerButton("❌ Cancel", fmt.Sprintf(transferCancelID, s.Token)))

	return discord.MessageCreate{
		Embeds:     append(embeds, prompt),
		Components: []discord.ContainerComponent{discord.NewActionRow(buttons...)},
	}
}

func TransferConfirmHandler(b *botim.Bot) handler.ComponentHandler {
	return func(e *handler.ComponentEvent) error {
		ctx, cancel := queryContext()
		defer cancel()

		rc, err := b.Transfers.Confirm(ctx, accountID(e.User()), e.Vars["token"])
		if errors.Is(err, domain.ErrNoSession) || errors.Is(err, domain.ErrStaleTransfer) {
			return utils.RespondError(e, err)
		}

		var result discord.Embed
		if err != nil {
			result = utils.ErrorEmbed(err)
		} else {
			result = embed("✅ Transfer complete",
				fmt.Sprintf("Sent **%s** coins to **%d**.\n\n💰 Balance: **%s**", rc.Amount, rc.Recipient, rc.SenderBalance),
				config.SuccessColor)
		}
		return closeConversation(e, result)
	}
}

func TransferCancelHandler(b *botim.Bot) handler.ComponentHandler {
	return func(e *handler.ComponentEvent) error {
		if err := b.Transfers.Cancel(accountID(e.User()), e.Vars["token"]); err != nil {
			return utils.RespondError(e, err)
		}
		return closeConversation(e, embed("Transfer cancelled", "Nothing was sent.", config.DefaultColor))
	}
}

// closeConversation replaces the prompt and drops its buttons.
func closeConversation(e *handler.ComponentEvent, result discord.Embed) error {
	embeds := []discord.Embed{result}
	components := []discord.ContainerComponent{}
	return e.UpdateMessage(discord.MessageUpdate{
		Embeds:     &embeds,
		Components: &components,
	})
}
