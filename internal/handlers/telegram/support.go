package telegram

import (
	"context"
	"errors"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/KirkDiggler/conferencebot/internal/callback"
	"github.com/KirkDiggler/conferencebot/internal/messenger"
	"github.com/KirkDiggler/conferencebot/internal/services/escalation"
	"github.com/KirkDiggler/conferencebot/internal/services/messaging"
)

// handleClaim assigns an escalation to the support staffer who pressed the
// claim button
func (b *Bot) handleClaim(ctx context.Context, q *tgbotapi.CallbackQuery, chatID int64, payload *callback.Payload) error {
	owner := ownerOf(q.From)

	out, err := b.escalation.Claim(ctx, &escalation.ClaimInput{
		SessionID:  payload.SessionID,
		AttendeeID: payload.AttendeeID,
		Owner:      owner,
	})
	if err != nil {
		if errors.Is(err, escalation.ErrAlreadyClaimed) && out != nil {
			text, terr := b.text(ctx, messaging.KeyAlreadyClaimed, messaging.Vars{"owner": out.Owner})
			if terr != nil {
				return terr
			}
			return b.answer(q.ID, text)
		}
		if answerErr := b.answerKey(ctx, q.ID, messaging.KeyLinkExpired); answerErr != nil {
			b.logger.Debug().Err(answerErr).Msg("failed to answer callback")
		}
		return err
	}

	text, err := b.text(ctx, messaging.KeyClaimed, messaging.Vars{"owner": out.Owner})
	if err != nil {
		return err
	}

	if err := b.answer(q.ID, text); err != nil {
		b.logger.Debug().Err(err).Msg("failed to answer callback")
	}

	b.clearButtons(q)

	input := &messenger.SendInput{
		Recipient: strconv.FormatInt(chatID, 10),
		Text:      text,
	}
	if q.Message != nil {
		input.ReplyTo = strconv.Itoa(q.Message.MessageID)
	}

	_, err = b.messenger.Send(ctx, input)
	return err
}

func ownerOf(u *tgbotapi.User) string {
	if u.UserName != "" {
		return "@" + u.UserName
	}
	return "id:" + strconv.FormatInt(u.ID, 10)
}
