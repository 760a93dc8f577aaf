package schedule

import (
	"time"

	"github.com/KirkDiggler/conferencebot/internal/models"
)

const (
	// Reminder offsets before session start
	Remind24hOffset = 24 * time.Hour
	Remind60mOffset = 60 * time.Minute
)

// Config holds the window configuration
type Config struct {
	// Tolerance is the half width of fixed windows
	Tolerance time.Duration

	// TickInterval is how often windows are evaluated
	TickInterval time.Duration

	// InviteLead is how long before start invitations open
	InviteLead time.Duration

	// FeedbackDelay is how long after the session end feedback is asked
	FeedbackDelay time.Duration
}

// Window is the span of time in which a deadline may fire
type Window struct {
	Kind models.DeadlineKind

	// Target is the nominal firing time
	Target time.Time

	// Opens is the first instant of the window
	Opens time.Time

	// Closes is the end of the window
	Closes time.Time

	// OpenEnded makes Closes exclusive instead of inclusive
	OpenEnded bool
}

// Contains reports whether now falls inside the window
func (w Window) Contains(now time.Time) bool {
	if now.Before(w.Opens) {
		return false
	}
	if w.OpenEnded {
		return now.Before(w.Closes)
	}
	return !now.After(w.Closes)
}

// Passed reports whether the window has closed at now
func (w Window) Passed(now time.Time) bool {
	if w.OpenEnded {
		return !now.Before(w.Closes)
	}
	return now.After(w.Closes)
}
