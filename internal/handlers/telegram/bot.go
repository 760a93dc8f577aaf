package telegram

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/KirkDiggler/conferencebot/internal/callback"
	"github.com/KirkDiggler/conferencebot/internal/messenger"
	"github.com/KirkDiggler/conferencebot/internal/services/admin"
	"github.com/KirkDiggler/conferencebot/internal/services/escalation"
	"github.com/KirkDiggler/conferencebot/internal/services/messaging"
	"github.com/KirkDiggler/conferencebot/internal/services/registration"
	"github.com/KirkDiggler/conferencebot/internal/services/rsvp"
	"github.com/KirkDiggler/conferencebot/internal/wizard"
)

const (
	// adminDeepLinkPrefix starts the /start payload that unlocks administration
	adminDeepLinkPrefix = "admin_"

	// pollTimeout is the long polling timeout in seconds
	pollTimeout = 30

	displayLayout = "02.01.2006 15:04"
)

// Bot handles inbound Telegram updates
type Bot struct {
	api       API
	messenger messenger.Messenger
	messaging messaging.Service
	codec     *callback.Codec
	wizards   *wizard.Registry
	location  *time.Location

	registration registration.Service
	rsvp         rsvp.Service
	escalation   escalation.Service
	admin        admin.Service

	logger zerolog.Logger
}

// Config holds the configuration for the bot
type Config struct {
	// API is the Bot API client
	API API

	// Messenger sends replies, usually a *Messenger over API
	Messenger messenger.Messenger

	Messaging messaging.Service
	Codec     *callback.Codec

	// Wizards holds the dialog state of each user
	Wizards *wizard.Registry

	// Location is the zone times are shown in
	Location *time.Location

	Registration registration.Service
	RSVP         rsvp.Service
	Escalation   escalation.Service
	Admin        admin.Service

	Logger zerolog.Logger
}

// New creates a new Telegram bot
func New(cfg *Config) (*Bot, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	switch {
	case cfg.API == nil:
		return nil, errors.New("telegram api cannot be nil")
	case cfg.Messenger == nil:
		return nil, errors.New("messenger cannot be nil")
	case cfg.Messaging == nil:
		return nil, errors.New("messaging service cannot be nil")
	case cfg.Codec == nil:
		return nil, errors.New("callback codec cannot be nil")
	case cfg.Registration == nil:
		return nil, errors.New("registration service cannot be nil")
	case cfg.RSVP == nil:
		return nil, errors.New("rsvp service cannot be nil")
	case cfg.Escalation == nil:
		return nil, errors.New("escalation service cannot be nil")
	case cfg.Admin == nil:
		return nil, errors.New("admin service cannot be nil")
	}

	wizards := cfg.Wizards
	if wizards == nil {
		wizards = wizard.NewRegistry()
	}

	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}

	return &Bot{
		api:          cfg.API,
		messenger:    cfg.Messenger,
		messaging:    cfg.Messaging,
		codec:        cfg.Codec,
		wizards:      wizards,
		location:     loc,
		registration: cfg.Registration,
		rsvp:         cfg.RSVP,
		escalation:   cfg.Escalation,
		admin:        cfg.Admin,
		logger:       cfg.Logger,
	}, nil
}

// Run polls for updates and handles them one at a time until ctx ends
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeout
	updates := b.api.GetUpdatesChan(u)

	b.logger.Info().Msg("telegram bot is polling for updates")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate dispatches one update. Failures are logged.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	var err error
	switch {
	case update.CallbackQuery != nil:
		err = b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		err = b.handleMessage(ctx, update.Message)
	}

	if err != nil {
		b.logger.Error().Err(err).Int("update_id", update.UpdateID).Msg("failed to handle update")
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil || msg.Chat == nil || !msg.Chat.IsPrivate() {
		return nil
	}

	transportID := strconv.FormatInt(msg.From.ID, 10)
	chatID := msg.Chat.ID
	b.touch(ctx, transportID)

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			return b.handleStart(ctx, chatID, transportID, msg.CommandArguments())
		case "audit":
			return b.handleAudit(ctx, chatID, transportID, msg.CommandArguments())
		default:
			return b.say(ctx, chatID, messaging.KeyHelp, nil, nil)
		}
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" && msg.Contact != nil {
		text = msg.Contact.PhoneNumber
	}

	state, ok := b.wizards.Get(transportID)
	if !ok {
		return b.handleIdleText(ctx, chatID, transportID)
	}

	switch st := state.(type) {
	case wizard.AwaitingName:
		return b.handleName(ctx, chatID, transportID, text)
	case wizard.AwaitingPhone:
		return b.handlePhone(ctx, chatID, transportID, st, text)
	case wizard.AwaitingComment:
		return b.handleComment(ctx, chatID, transportID, st, text)
	case wizard.AdminCreate:
		return b.handleCreateText(ctx, chatID, transportID, st, text)
	case wizard.AdminEditField:
		return b.handleEditText(ctx, chatID, transportID, st, text)
	}

	b.wizards.Clear(transportID)
	return nil
}

func (b *Bot) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) error {
	if q.From == nil {
		return nil
	}

	transportID := strconv.FormatInt(q.From.ID, 10)
	b.touch(ctx, transportID)

	payload, err := b.codec.Decode(q.Data)
	if err != nil {
		b.logger.Debug().Err(err).Str("transport_id", transportID).Msg("rejected callback")
		return b.answerKey(ctx, q.ID, messaging.KeyLinkExpired)
	}

	chatID := q.From.ID
	if q.Message != nil && q.Message.Chat != nil {
		chatID = q.Message.Chat.ID
	}

	switch payload.Action {
	case callback.ActionClaim:
		return b.handleClaim(ctx, q, chatID, payload)
	case callback.ActionAdminHome, callback.ActionAdminAdd, callback.ActionAdminAddType,
		callback.ActionAdminAddTitle, callback.ActionAdminAddDesc, callback.ActionAdminAddNext,
		callback.ActionAdminList, callback.ActionAdminView, callback.ActionAdminEdit,
		callback.ActionAdminEditField, callback.ActionAdminCancel, callback.ActionAdminCancelYes:
		return b.handleAdminCallback(ctx, q, chatID, transportID, payload)
	case callback.ActionNoop:
		return b.answer(q.ID, "")
	}

	return b.handleAttendeeCallback(ctx, q, chatID, transportID, payload)
}

func (b *Bot) touch(ctx context.Context, transportID string) {
	if err := b.registration.Touch(ctx, &registration.TouchInput{
		TransportID: transportID,
	}); err != nil {
		b.logger.Warn().Err(err).Str("transport_id", transportID).Msg("failed to touch attendee")
	}
}

// text renders a template
func (b *Bot) text(ctx context.Context, key string, vars messaging.Vars) (string, error) {
	return messaging.Text(ctx, b.messaging, key, vars)
}

// say renders a template and sends it to a chat
func (b *Bot) say(ctx context.Context, chatID int64, key string, vars messaging.Vars, buttons [][]messenger.Button) error {
	text, err := b.text(ctx, key, vars)
	if err != nil {
		return err
	}
	return b.sendText(ctx, chatID, text, buttons)
}

func (b *Bot) sendText(ctx context.Context, chatID int64, text string, buttons [][]messenger.Button) error {
	_, err := b.messenger.Send(ctx, &messenger.SendInput{
		Recipient: strconv.FormatInt(chatID, 10),
		Text:      text,
		Buttons:   buttons,
	})
	return err
}

// button renders a template label and signs the payload
func (b *Bot) button(ctx context.Context, key string, vars messaging.Vars, payload *callback.Payload) (messenger.Button, error) {
	label, err := b.text(ctx, key, vars)
	if err != nil {
		return messenger.Button{}, err
	}
	return b.labelButton(label, payload)
}

func (b *Bot) labelButton(label string, payload *callback.Payload) (messenger.Button, error) {
	data, err := b.codec.Encode(payload)
	if err != nil {
		return messenger.Button{}, err
	}
	return messenger.Button{Label: label, Data: data}, nil
}

// answer acknowledges a callback query, optionally with a toast
func (b *Bot) answer(queryID, text string) error {
	if _, err := b.api.Request(tgbotapi.NewCallback(queryID, text)); err != nil {
		return classify(err)
	}
	return nil
}

func (b *Bot) answerKey(ctx context.Context, queryID, key string) error {
	text, err := b.text(ctx, key, nil)
	if err != nil {
		return err
	}
	return b.answer(queryID, text)
}

// clearButtons removes the inline keyboard of the message a query came from
func (b *Bot) clearButtons(q *tgbotapi.CallbackQuery) {
	if q.Message == nil || q.Message.Chat == nil {
		return
	}

	edit := tgbotapi.NewEditMessageReplyMarkup(q.Message.Chat.ID, q.Message.MessageID, tgbotapi.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{},
	})
	if _, err := b.api.Request(edit); err != nil {
		b.logger.Debug().Err(err).Int("message_id", q.Message.MessageID).Msg("failed to clear buttons")
	}
}

func (b *Bot) format(t time.Time) string {
	return t.In(b.location).Format(displayLayout)
}
