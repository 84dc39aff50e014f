package utils

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/jumanzarismoilov-jpg/botim/botim/config"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	msgs []discord.MessageCreate
}

func (c *captured) CreateMessage(m discord.MessageCreate, _ ...rest.RequestOpt) error {
	c.msgs = append(c.msgs, m)
	return nil
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"validation", domain.ErrInvalidAmount, UserError},
		{"wrapped policy", fmt.Errorf("claim: %w", domain.ErrAlreadyClaimed), BusinessLogicError},
		{"storage", errors.New("disk full"), SystemError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestRespondError(t *testing.T) {
	c := &captured{}

	require.NoError(t, RespondError(c, domain.ErrDailySendCap))
	require.NoError(t, RespondError(c, errors.New("pq: connection reset")))
	require.Len(t, c.msgs, 2)

	policy := c.msgs[0].Embeds[0]
	assert.Contains(t, policy.Description, domain.ErrDailySendCap.Message)
	assert.Equal(t, config.WarningColor, policy.Color)
	assert.Equal(t, discord.MessageFlagEphemeral, c.msgs[0].Flags)

	internal := c.msgs[1].Embeds[0]
	assert.False(t, strings.Contains(internal.Description, "pq:"))
	assert.Equal(t, config.ErrorColor, internal.Color)
}
