// Package discord delivers notifications through the Discord REST API.
package discord

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	lru "github.com/hashicorp/golang-lru"
)

const (
	directColor   = 0x0099FF
	operatorColor = 0xFFAA00
	dmCacheSize   = 4096
)

// REST is the subset of the disgo REST client the sender needs.
type REST interface {
	CreateDMChannel(userID snowflake.ID, opts ...rest.RequestOpt) (*discord.DMChannel, error)
	CreateMessage(channelID snowflake.ID, messageCreate discord.MessageCreate, opts ...rest.RequestOpt) (*discord.Message, error)
}

type Sender struct {
	rest            REST
	operatorChannel snowflake.ID
	dmChannels      *lru.Cache
}

// NewSender builds a sender. A zero operatorChannel disables operator
// messages; they are only logged.
func NewSender(client REST, operatorChannel snowflake.ID) (*Sender, error) {
	cache, err := lru.New(dmCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create DM channel cache: %w", err)
	}
	return &Sender{rest: client, operatorChannel: operatorChannel, dmChannels: cache}, nil
}

func (s *Sender) SendDirect(ctx context.Context, accountID int64, text string) error {
	userID := snowflake.ID(accountID)
	channelID, err := s.dmChannel(ctx, userID)
	if err != nil {
		return err
	}

	_, err = s.rest.CreateMessage(channelID, discord.MessageCreate{
		Embeds: []discord.Embed{discord.NewEmbedBuilder().
			SetDescription(text).
			SetColor(directColor).
			Build()},
	}, rest.WithCtx(ctx))
	if err != nil {
		// The channel may be gone; resolve it again next time.
		s.dmChannels.Remove(userID)
		return fmt.Errorf("send DM to %s: %w", userID, err)
	}
	return nil
}

func (s *Sender) SendOperator(ctx context.Context, text string) error {
	if s.operatorChannel == 0 {
		slog.Info("Operator notice",
			slog.String("type", "sys"),
			slog.String("text", text))
		return nil
	}

	_, err := s.rest.CreateMessage(s.operatorChannel, discord.NewMessageCreateBuilder().
		AddEmbeds(discord.NewEmbedBuilder().
			SetDescription(text).
			SetColor(operatorColor).
			Build()).
		Build(), rest.WithCtx(ctx))
	if err != nil {
		return fmt.Errorf("send to operator channel: %w", err)
	}
	return nil
}

func (s *Sender) dmChannel(ctx context.Context, userID snowflake.ID) (snowflake.ID, error) {
	if v, ok := s.dmChannels.Get(userID); ok {
		return v.(snowflake.ID), nil
	}
	ch, err := s.rest.CreateDMChannel(userID, rest.WithCtx(ctx))
	if err != nil {
		return 0, fmt.Errorf("open DM channel with %s: %w", userID, err)
	}
	s.dmChannels.Add(userID, ch.ID())
	return ch.ID(), nil
}
