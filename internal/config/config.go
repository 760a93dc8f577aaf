// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/KirkDiggler/conferencebot/internal/models"
)

const (
	SupportTransportTelegram = "telegram"
	SupportTransportDiscord  = "discord"
)

// Config is the full process configuration
type Config struct {
	BotToken string `env:"BOT_TOKEN,required"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	Timezone string `env:"TIMEZONE" envDefault:"Europe/Kyiv"`

	AdminPassword string        `env:"ADMIN_PASSWORD"`
	AdminGrantTTL time.Duration `env:"ADMIN_GRANT_TTL" envDefault:"12h"`

	CallbackSecret string        `env:"CALLBACK_SECRET,required"`
	CallbackTTL    time.Duration `env:"CALLBACK_TTL" envDefault:"720h"`

	SupportTransport        string `env:"SUPPORT_TRANSPORT" envDefault:"telegram"`
	SupportChatID           string `env:"SUPPORT_CHAT_ID"`
	DiscordToken            string `env:"DISCORD_TOKEN"`
	DiscordSupportChannelID string `env:"DISCORD_SUPPORT_CHANNEL_ID"`

	TickInterval        time.Duration `env:"TICK_INTERVAL" envDefault:"60s"`
	WindowTolerance     time.Duration `env:"WINDOW_TOLERANCE" envDefault:"60s"`
	InviteLead          time.Duration `env:"INVITE_LEAD" envDefault:"25h"`
	FeedbackDelay       time.Duration `env:"FEEDBACK_DELAY" envDefault:"2h"`
	SendTimeout         time.Duration `env:"SEND_TIMEOUT" envDefault:"10s"`
	SendRate            float64       `env:"SEND_RATE" envDefault:"25"`
	EscalationThreshold int           `env:"ESCALATION_THRESHOLD" envDefault:"4"`

	// SessionTypes seeds the catalogue as code|title|description entries
	SessionTypes []string `env:"SESSION_TYPES" envSeparator:";"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// Load reads an optional dotenv file and parses the environment. Variables
// already present in the environment win over the file.
func Load(dotenvFiles ...string) (*Config, error) {
	if len(dotenvFiles) == 0 {
		dotenvFiles = []string{".env"}
	}

	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cross-field constraints
func (c *Config) Validate() error {
	switch c.SupportTransport {
	case SupportTransportTelegram:
	case SupportTransportDiscord:
		if c.DiscordToken == "" || c.DiscordSupportChannelID == "" {
			return errors.New("discord support transport needs DISCORD_TOKEN and DISCORD_SUPPORT_CHANNEL_ID")
		}
	default:
		return fmt.Errorf("unknown SUPPORT_TRANSPORT %q", c.SupportTransport)
	}

	if c.SendRate <= 0 {
		return errors.New("SEND_RATE must be positive")
	}

	if c.EscalationThreshold < 1 || c.EscalationThreshold > 6 {
		return errors.New("ESCALATION_THRESHOLD must be between 1 and 6")
	}

	if _, err := c.ParseSessionTypes(); err != nil {
		return err
	}

	return nil
}

// Location resolves the configured time zone
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// ParseSessionTypes decodes SESSION_TYPES into active session types
func (c *Config) ParseSessionTypes() ([]*models.SessionType, error) {
	types := make([]*models.SessionType, 0, len(c.SessionTypes))
	for _, raw := range c.SessionTypes {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}

		parts := strings.SplitN(raw, "|", 3)
		if len(parts) < 2 {
			return nil, fmt.Errorf("invalid session type %q: want code|title|description", raw)
		}

		code, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return nil, fmt.Errorf("invalid session type code %q: %w", parts[0], err)
		}

		st := &models.SessionType{
			Code:   code,
			Title:  strings.TrimSpace(parts[1]),
			Active: true,
		}
		if len(parts) == 3 {
			st.Description = strings.TrimSpace(parts[2])
		}

		types = append(types, st)
	}

	return types, nil
}
