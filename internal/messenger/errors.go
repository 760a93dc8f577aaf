package messenger

import (
	"errors"
)

var (
	// ErrBlocked means the recipient blocked the bot or no longer exists
	ErrBlocked = errors.New("recipient blocked")

	// ErrTransient means the send failed but may succeed later, including
	// rate limiting and timeouts
	ErrTransient = errors.New("transient delivery failure")
)

// IsPermanent reports whether err is a delivery failure that must not be retried
func IsPermanent(err error) bool {
	return errors.Is(err, ErrBlocked)
}
