package telegram

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/KirkDiggler/conferencebot/internal/messenger"
)

// Messenger delivers messages to Telegram chats
type Messenger struct {
	api API
}

// NewMessenger creates a Telegram messenger
func NewMessenger(api API) (*Messenger, error) {
	if api == nil {
		return nil, errors.New("telegram api cannot be nil")
	}

	return &Messenger{
		api: api,
	}, nil
}

// Send delivers a text message with optional inline buttons
func (m *Messenger) Send(ctx context.Context, input *messenger.SendInput) (*messenger.SendOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	chatID, err := strconv.ParseInt(strings.TrimSpace(input.Recipient), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid chat id %q", messenger.ErrBlocked, input.Recipient)
	}

	msg := tgbotapi.NewMessage(chatID, input.Text)
	if len(input.Buttons) > 0 {
		msg.ReplyMarkup = keyboard(input.Buttons)
	}
	if input.ReplyTo != "" {
		if replyTo, err := strconv.Atoi(input.ReplyTo); err == nil {
			msg.ReplyToMessageID = replyTo
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", messenger.ErrTransient, err)
	}

	type result struct {
		msg tgbotapi.Message
		err error
	}

	// The client has no context support; abandon the call when ctx ends
	done := make(chan result, 1)
	go func() {
		sent, err := m.api.Send(msg)
		done <- result{msg: sent, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", messenger.ErrTransient, ctx.Err())
	case res := <-done:
		if res.err != nil {
			return nil, classify(res.err)
		}
		return &messenger.SendOutput{
			MessageID: strconv.Itoa(res.msg.MessageID),
		}, nil
	}
}

func keyboard(buttons [][]messenger.Button) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(buttons))
	for _, row := range buttons {
		if len(row) == 0 {
			continue
		}
		r := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			r = append(r, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Data))
		}
		rows = append(rows, r)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// classify maps Bot API failures onto the messenger error kinds
func classify(err error) error {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusForbidden:
			return fmt.Errorf("%w: %w", messenger.ErrBlocked, err)
		case apiErr.Code == http.StatusBadRequest && chatGone(apiErr.Message):
			return fmt.Errorf("%w: %w", messenger.ErrBlocked, err)
		case apiErr.Code == http.StatusTooManyRequests:
			return fmt.Errorf("%w: retry after %ds: %w", messenger.ErrTransient, apiErr.RetryAfter, err)
		case apiErr.Code >= http.StatusInternalServerError:
			return fmt.Errorf("%w: %w", messenger.ErrTransient, err)
		}
		return fmt.Errorf("telegram api error %d: %w", apiErr.Code, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", messenger.ErrTransient, err)
	}

	return err
}

func chatGone(description string) bool {
	description = strings.ToLower(description)
	return strings.Contains(description, "chat not found") ||
		strings.Contains(description, "user is deactivated")
}
