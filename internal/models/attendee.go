package models

import (
	"time"
)

// AttendeeStatus represents whether an attendee can currently be reached
type AttendeeStatus string

const (
	// AttendeeStatusActive indicates the attendee receives notifications
	AttendeeStatusActive AttendeeStatus = "active"

	// AttendeeStatusBlocked indicates the attendee blocked the bot
	AttendeeStatusBlocked AttendeeStatus = "blocked"

	// AttendeeStatusInactive indicates delivery failed permanently
	AttendeeStatusInactive AttendeeStatus = "inactive"
)

// Attendee represents a registered conference attendee
type Attendee struct {
	// ID is the stable identifier, derived from the transport id
	ID string

	// TransportID is the chat transport id used as the send recipient
	TransportID string

	// FullName is the name collected during registration
	FullName string

	// Phone is the normalised phone number
	Phone string

	// Status is the delivery status of the attendee
	Status AttendeeStatus

	// RegisteredAt is when the attendee first registered
	RegisteredAt time.Time

	// LastSeenAt is when the attendee last interacted with the bot
	LastSeenAt time.Time
}

// AttendeeIDForTransport derives the attendee id for a transport user id
func AttendeeIDForTransport(transportID string) string {
	return "cl_" + transportID
}

// Reachable reports whether notifications may be sent to the attendee
func (a *Attendee) Reachable() bool {
	return a != nil && a.TransportID != "" && a.Status == AttendeeStatusActive
}
