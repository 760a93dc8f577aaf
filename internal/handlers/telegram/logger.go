package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// botLogger routes the client library's log output to zerolog
type botLogger struct {
	logger zerolog.Logger
}

// Println is used by the library for polling failures
func (l botLogger) Println(v ...interface{}) {
	l.logger.Warn().Msg(strings.TrimSpace(fmt.Sprintln(v...)))
}

// Printf is used by the library for debug output
func (l botLogger) Printf(format string, v ...interface{}) {
	l.logger.Debug().Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// SetLogger installs logger as the client library's logger
func SetLogger(logger zerolog.Logger) error {
	return tgbotapi.SetLogger(botLogger{
		logger: logger.With().Str("component", "tgbotapi").Logger(),
	})
}
