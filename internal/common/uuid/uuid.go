package uuid

import (
	"strings"

	"github.com/google/uuid"
)

//go:generate mockgen -package=mocks -destination=mocks/mock_uuid.go github.com/KirkDiggler/conferencebot/internal/common/uuid UUID

type UUID interface {
	NewUUID() string

	// NewShortID returns prefix followed by n hex characters. Short ids keep
	// signed callback payloads under the transport's size limit.
	NewShortID(prefix string, n int) string
}

// DefaultUUID implements the UUID interface using the uuid package

type DefaultUUID struct{}

func New() *DefaultUUID {
	return &DefaultUUID{}
}

// NewUUID returns a new UUID
func (d *DefaultUUID) NewUUID() string {
	return uuid.New().String()
}

// NewShortID returns a prefixed, truncated random hex id
func (d *DefaultUUID) NewShortID(prefix string, n int) string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	if n <= 0 || n > len(hex) {
		n = len(hex)
	}
	return prefix + hex[:n]
}
