package models

import (
	"time"
)

// Feedback is the post-session rating for a (session, attendee) pair.
// Stars and Comment arrive independently and are merged.
type Feedback struct {
	// SessionID is the rated session
	SessionID string

	// AttendeeID is the rating attendee
	AttendeeID string

	// Stars is the rating from 1 to 5; 0 means not given yet
	Stars int

	// Comment is the free text review
	Comment string

	// Owner is the support staffer who claimed the escalation
	Owner string

	// EscalatedAt is when the support alert was delivered
	EscalatedAt time.Time

	// EscalationRecipient is the support chat the alert went to
	EscalationRecipient string

	// EscalationMessageID is the transport id of the alert message
	EscalationMessageID string

	// UpdatedAt is when the record was last written
	UpdatedAt time.Time
}

// Escalated reports whether a support alert was already delivered
func (f *Feedback) Escalated() bool {
	return f != nil && !f.EscalatedAt.IsZero()
}
