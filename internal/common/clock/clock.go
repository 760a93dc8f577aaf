package clock

import "time"

//go:generate mockgen -package=mocks -destination=mocks/mock_clock.go github.com/KirkDiggler/conferencebot/internal/common/clock Clock
type Clock interface {
	Now() time.Time
}

// DefaultClock implements the Clock interface using the system clock,
// pinned to a single location so every stored and compared timestamp
// shares one zone.
type DefaultClock struct {
	Location *time.Location
}

// New returns a clock reporting wall time in loc. A nil loc means UTC.
func New(loc *time.Location) *DefaultClock {
	if loc == nil {
		loc = time.UTC
	}
	return &DefaultClock{Location: loc}
}

// Now returns the current time
func (c *DefaultClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}
