package dispatch

import (
	"github.com/KirkDiggler/conferencebot/internal/models"
)

// TickOutput summarises one evaluation pass
type TickOutput struct {
	// Deadlines is how many due index entries were evaluated
	Deadlines int

	// Sent is how many notifications were delivered
	Sent int

	// Failed is how many deliveries failed permanently
	Failed int

	// Retry is how many deliveries failed transiently and are retried
	// through the due index or the notice queue
	Retry int

	// Queued is how many one-off notices were queued for redelivery
	Queued int

	// Pruned is how many closed deadlines were removed from the index
	Pruned int
}

type OnSessionCreatedInput struct {
	Session *models.Session
}

type OnSessionCreatedOutput struct {
	// Invited is how many invites went out immediately
	Invited int
}

type OnSessionUpdatedInput struct {
	// Session is the edited session
	Session *models.Session

	// Field is the attribute that changed
	Field models.SessionField

	// Value is the new value as the administrator entered it
	Value string
}

type OnSessionUpdatedOutput struct {
	Notified int

	// Pending is how many notices were queued for redelivery
	Pending int
}

type OnSessionCancelledInput struct {
	SessionID string
}

type OnSessionCancelledOutput struct {
	Notified        int
	AttendanceReset int

	// Pending is how many notices were queued for redelivery
	Pending int
}

type OnAttendeeRegisteredInput struct {
	AttendeeID string
}

type OnAttendeeRegisteredOutput struct {
	Invited int
}

// result counts the outcome of a delivery pass
type result struct {
	sent   int
	failed int
	retry  int
	queued int
}

func (r *result) add(o outcome) {
	switch o {
	case outcomeSent:
		r.sent++
	case outcomeFailed:
		r.failed++
	case outcomeRetry:
		r.retry++
	case outcomeQueued:
		r.queued++
	}
}

func (r *result) merge(other result) {
	r.sent += other.sent
	r.failed += other.failed
	r.retry += other.retry
	r.queued += other.queued
}

// outcome of a single (session, attendee, kind) evaluation
type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeSent
	outcomeFailed
	outcomeRetry
	outcomeQueued
)
