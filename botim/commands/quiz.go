package commands

import (
	"fmt"
	"strconv"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/jumanzarismoilov-jpg/botim/botim"
	"github.com/jumanzarismoilov-jpg/botim/botim/config"
	"github.com/jumanzarismoilov-jpg/botim/botim/utils"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/quiz"
)

var Quiz = discord.SlashCommandCreate{
	Name:        "quiz",
	Description: "🎯 Answer a question for coins",
}

func QuizHandler(b *botim.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := queryContext()
		defer cancel()

		touch(ctx, b, e.User())
		p, err := b.Quiz.Serve(ctx, accountID(e.User()))
		if err != nil {
			return utils.RespondError(e, err)
		}

		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{discord.NewEmbedBuilder().
				SetTitle("🎯 Daily Quiz").
				SetDescription(fmt.Sprintf("❓ %s\n\nCorrect answer pays **%s** coins.", p.Question, p.Reward)).
				SetColor(config.InfoColor).
				SetFooter(fmt.Sprintf("Answer before %s", p.ExpiresAt.UTC().Format("15:04 MST")), "").
				Build()},
			Components: quizButtons(p),
		})
	}
}

// quizButtons lays out one button per option, five per row.
func quizButtons(p *quiz.Presented) []discord.ContainerComponent {
	var rows []discord.ContainerComponent
	var row []discord.InteractiveComponent
	for i, opt := range p.Options {
		row = append(row, discord.NewSecondaryButton(
			truncate(opt, 80),
			fmt.Sprintf("/quiz/%s/%d", p.Token, i),
		))
		if len(row) == 5 {
			rows = append(rows, discord.NewActionRow(row...))
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, discord.NewActionRow(row...))
	}
	return rows
}

func QuizAnswerHandler(b *botim.Bot) handler.ComponentHandler {
	return func(e *handler.ComponentEvent) error {
		option, err := strconv.Atoi(e.Vars["option"])
		if err != nil {
			return utils.RespondError(e, domain.ErrInvalidOption)
		}

		ctx, cancel := queryContext()
		defer cancel()

		id := accountID(e.User())
		out, err := b.Quiz.Answer(ctx, id, e.Vars["token"], option)
		if err != nil {
			return utils.RespondError(e, err)
		}

		var result discord.Embed
		if out.Correct {
			evaluateMissions(ctx, b, id)
			result = embed("✅ Correct!",
				fmt.Sprintf("You earned **%s** coins.\n\n💰 Balance: **%s**", out.Reward, out.Balance),
				config.SuccessColor)
		} else {
			result = embed("❌ Wrong answer",
				fmt.Sprintf("The correct answer was **%s**.", out.CorrectOption),
				config.ErrorColor)
		}

		components := []discord.ContainerComponent{}
		embeds := append(e.Message.Embeds, result)
		return e.UpdateMessage(discord.MessageUpdate{
			Embeds:     &embeds,
			Components: &components,
		})
	}
}
