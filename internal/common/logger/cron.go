package logger

import (
	"github.com/rs/zerolog"
)

// CronLogger adapts zerolog to the cron.Logger interface
type CronLogger struct {
	logger zerolog.Logger
}

// NewCronLogger creates a cron logger. Info messages are logged at debug
// level since cron reports every job run.
func NewCronLogger(logger zerolog.Logger) *CronLogger {
	return &CronLogger{logger: logger}
}

// Info logs routine scheduler messages
func (l *CronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

// Error logs scheduler failures
func (l *CronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
