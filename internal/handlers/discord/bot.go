package discord

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/KirkDiggler/conferencebot/internal/callback"
	"github.com/KirkDiggler/conferencebot/internal/services/escalation"
	"github.com/KirkDiggler/conferencebot/internal/services/messaging"
)

// API is the part of the Discord session used by the bot.
// *discordgo.Session satisfies it.
type API interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
}

// Bot is the support side of the conference bot on Discord. It posts
// escalations to a channel and handles their claim buttons.
type Bot struct {
	session    *discordgo.Session
	api        API
	escalation escalation.Service
	messaging  messaging.Service
	codec      *callback.Codec
	config     *Config
	logger     zerolog.Logger
}

// Config holds the configuration for the bot
type Config struct {
	// Discord bot token
	Token string

	// ChannelID is the support channel escalations are posted to
	ChannelID string

	// Messaging renders texts
	Messaging messaging.Service

	// Codec verifies claim buttons
	Codec *callback.Codec

	Logger zerolog.Logger
}

// New creates a new Discord bot. The escalation service is attached
// later with SetEscalation because it sends through this bot.
func New(cfg *Config) (*Bot, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.Token == "" {
		return nil, errors.New("token cannot be empty")
	}

	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds

	bot, err := newBot(session, cfg)
	if err != nil {
		return nil, err
	}
	bot.session = session

	session.AddHandler(bot.handleInteraction)

	return bot, nil
}

func newBot(api API, cfg *Config) (*Bot, error) {
	switch {
	case cfg.ChannelID == "":
		return nil, errors.New("support channel ID cannot be empty")
	case cfg.Messaging == nil:
		return nil, errors.New("messaging service cannot be nil")
	case cfg.Codec == nil:
		return nil, errors.New("callback codec cannot be nil")
	}

	return &Bot{
		api:       api,
		messaging: cfg.Messaging,
		codec:     cfg.Codec,
		config:    cfg,
		logger:    cfg.Logger,
	}, nil
}

// SetEscalation attaches the service that handles claims
func (b *Bot) SetEscalation(svc escalation.Service) {
	b.escalation = svc
}

// ChannelID returns the support channel escalations are posted to
func (b *Bot) ChannelID() string {
	return b.config.ChannelID
}

// Start opens the websocket connection to Discord
func (b *Bot) Start() error {
	if b.escalation == nil {
		return errors.New("escalation service is not attached")
	}

	SetLogger(b.logger)

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	b.logger.Info().Str("channel_id", b.config.ChannelID).Msg("discord support bot is running")
	return nil
}

// Stop gracefully shuts down the Discord connection
func (b *Bot) Stop() error {
	return b.session.Close()
}

// handleInteraction handles Discord interactions
func (b *Bot) handleInteraction(_ *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent {
		return
	}

	if err := b.handleComponent(context.Background(), i); err != nil {
		b.logger.Error().Err(err).Str("interaction_id", i.ID).Msg("failed to handle component interaction")
	}
}

// handleComponent handles button clicks
func (b *Bot) handleComponent(ctx context.Context, i *discordgo.InteractionCreate) error {
	payload, err := b.codec.Decode(i.MessageComponentData().CustomID)
	if err != nil || payload.Action != callback.ActionClaim {
		return b.respondKey(ctx, i, messaging.KeyLinkExpired)
	}

	user := interactionUser(i)
	if user == nil {
		return errors.New("interaction has no user")
	}

	out, err := b.escalation.Claim(ctx, &escalation.ClaimInput{
		SessionID:  payload.SessionID,
		AttendeeID: payload.AttendeeID,
		Owner:      ownerOf(user),
	})
	if err != nil {
		if errors.Is(err, escalation.ErrAlreadyClaimed) && out != nil {
			text, terr := messaging.Text(ctx, b.messaging, messaging.KeyAlreadyClaimed, messaging.Vars{"owner": out.Owner})
			if terr != nil {
				return terr
			}
			return RespondWithEphemeralMessage(b.api, i, text)
		}
		if respondErr := b.respondKey(ctx, i, messaging.KeyLinkExpired); respondErr != nil {
			b.logger.Debug().Err(respondErr).Msg("failed to respond to interaction")
		}
		return err
	}

	text, err := messaging.Text(ctx, b.messaging, messaging.KeyClaimed, messaging.Vars{"owner": out.Owner})
	if err != nil {
		return err
	}

	b.logger.Info().
		Str("session_id", payload.SessionID).
		Str("attendee_id", payload.AttendeeID).
		Str("owner", out.Owner).
		Msg("escalation claimed")

	return RespondWithClaimedMessage(b.api, i, text)
}

func (b *Bot) respondKey(ctx context.Context, i *discordgo.InteractionCreate, key string) error {
	text, err := messaging.Text(ctx, b.messaging, key, nil)
	if err != nil {
		return err
	}
	return RespondWithEphemeralMessage(b.api, i, text)
}

// interactionUser returns the member's user in guilds and the user in DMs
func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

func ownerOf(u *discordgo.User) string {
	if u.Username != "" {
		return "@" + u.Username
	}
	return "id:" + u.ID
}
