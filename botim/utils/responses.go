package utils

import (
	"log/slog"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/jumanzarismoilov-jpg/botim/botim/config"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain"
)

// Responder is satisfied by command and component events alike.
type Responder interface {
	CreateMessage(messageCreate discord.MessageCreate, opts ...rest.RequestOpt) error
}

// ErrorType groups errors for display.
type ErrorType int

const (
	// UserError covers input the user can correct.
	UserError ErrorType = iota
	// BusinessLogicError covers rule rejections such as cooldowns and caps.
	BusinessLogicError
	// SystemError covers storage and other internal failures.
	SystemError
)

func Classify(err error) ErrorType {
	switch domain.ClassOf(err) {
	case domain.Validation:
		return UserError
	case domain.Policy:
		return BusinessLogicError
	default:
		return SystemError
	}
}

func errorPrefix(t ErrorType) string {
	switch t {
	case UserError:
		return "⚠️"
	case BusinessLogicError:
		return "⏰"
	default:
		return "🔧"
	}
}

func errorColor(t ErrorType) int {
	switch t {
	case SystemError:
		return config.ErrorColor
	default:
		return config.WarningColor
	}
}

// ErrorEmbed renders err for the user. Internal failures get a generic text
// and are logged with their cause.
func ErrorEmbed(err error) discord.Embed {
	t := Classify(err)
	if t == SystemError {
		slog.Error("Interaction failed",
			slog.String("type", "error"),
			slog.Any("error", err))
	}
	return discord.NewEmbedBuilder().
		SetDescription(errorPrefix(t) + " " + domain.Message(err)).
		SetColor(errorColor(t)).
		Build()
}

// RespondError answers with an ephemeral error embed.
func RespondError(r Responder, err error) error {
	return r.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{ErrorEmbed(err)},
		Flags:  discord.MessageFlagEphemeral,
	})
}

func RespondSuccess(r Responder, title, description string) error {
	return r.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{discord.NewEmbedBuilder().
			SetTitle(title).
			SetDescription(description).
			SetColor(config.SuccessColor).
			Build()},
	})
}

func RespondInfo(r Responder, title, description string) error {
	return r.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{discord.NewEmbedBuilder().
			SetTitle(title).
			SetDescription(description).
			SetColor(config.InfoColor).
			Build()},
	})
}
