package messenger

//go:generate mockgen -package=mocks -destination=mocks/mock_messenger.go github.com/KirkDiggler/conferencebot/internal/messenger Messenger

import (
	"context"
)

// Messenger delivers a message to a single chat recipient
type Messenger interface {
	// Send delivers the message. Errors wrap ErrBlocked when the recipient
	// can never be reached and ErrTransient when a retry may succeed.
	Send(ctx context.Context, input *SendInput) (*SendOutput, error)
}
