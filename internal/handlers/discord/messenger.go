package discord

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"github.com/KirkDiggler/conferencebot/internal/messenger"
)

// Colour of escalation embeds
const alertColor = 0xff0000

// Send posts a message to a channel. Recipient is the channel id; text is
// posted as an embed with buttons below it.
func (b *Bot) Send(ctx context.Context, input *messenger.SendInput) (*messenger.SendOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	channelID := input.Recipient
	if channelID == "" {
		channelID = b.config.ChannelID
	}

	msg := &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{
			{
				Description: input.Text,
				Color:       alertColor,
			},
		},
		Components: components(input.Buttons),
	}

	if input.ReplyTo != "" {
		msg.Reference = &discordgo.MessageReference{
			MessageID: input.ReplyTo,
			ChannelID: channelID,
		}
	}

	sent, err := b.api.ChannelMessageSendComplex(channelID, msg, discordgo.WithContext(ctx))
	if err != nil {
		return nil, classify(err)
	}

	return &messenger.SendOutput{
		MessageID: sent.ID,
	}, nil
}

func components(buttons [][]messenger.Button) []discordgo.MessageComponent {
	var rows []discordgo.MessageComponent
	for _, row := range buttons {
		if len(row) == 0 {
			continue
		}

		actionRow := discordgo.ActionsRow{}
		for _, btn := range row {
			actionRow.Components = append(actionRow.Components, discordgo.Button{
				Label:    btn.Label,
				Style:    discordgo.PrimaryButton,
				CustomID: btn.Data,
			})
		}
		rows = append(rows, actionRow)
	}
	return rows
}

// classify maps REST failures onto the messenger error kinds
func classify(err error) error {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		switch code := restErr.Response.StatusCode; {
		case code == http.StatusForbidden, code == http.StatusNotFound:
			return fmt.Errorf("%w: %w", messenger.ErrBlocked, err)
		case code == http.StatusTooManyRequests, code >= http.StatusInternalServerError:
			return fmt.Errorf("%w: %w", messenger.ErrTransient, err)
		}
		return err
	}

	var rateErr *discordgo.RateLimitError
	if errors.As(err, &rateErr) {
		return fmt.Errorf("%w: %w", messenger.ErrTransient, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", messenger.ErrTransient, err)
	}

	return err
}
