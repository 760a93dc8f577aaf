package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

// SetLogger routes discordgo's log output to zerolog
func SetLogger(logger zerolog.Logger) {
	logger = logger.With().Str("component", "discordgo").Logger()

	discordgo.Logger = func(msgL, _ int, format string, a ...interface{}) {
		var event *zerolog.Event
		switch msgL {
		case discordgo.LogError:
			event = logger.Error()
		case discordgo.LogWarning:
			event = logger.Warn()
		case discordgo.LogInformational:
			event = logger.Info()
		default:
			event = logger.Debug()
		}
		event.Msg(fmt.Sprintf(format, a...))
	}
}
