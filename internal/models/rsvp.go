package models

import (
	"time"
)

// RSVPResponse represents an attendee's declared intent
type RSVPResponse string

const (
	// RSVPUnset indicates no response has been recorded yet
	RSVPUnset RSVPResponse = ""

	// RSVPGoing indicates the attendee will attend
	RSVPGoing RSVPResponse = "going"

	// RSVPDeclined indicates the attendee will not attend
	RSVPDeclined RSVPResponse = "declined"

	// RSVPRemindMe indicates the attendee wants a reminder before deciding
	RSVPRemindMe RSVPResponse = "remind_me"
)

// Valid reports whether r is a known response value
func (r RSVPResponse) Valid() bool {
	switch r {
	case RSVPUnset, RSVPGoing, RSVPDeclined, RSVPRemindMe:
		return true
	}
	return false
}

// RSVP is the per (session, attendee) response record
type RSVP struct {
	// SessionID is the session the response belongs to
	SessionID string

	// AttendeeID is the responding attendee
	AttendeeID string

	// Response is the declared intent
	Response RSVPResponse

	// Remind24h indicates the attendee asked for the day-before reminder
	Remind24h bool

	// Reminded24h indicates the day-before reminder was delivered
	Reminded24h bool

	// Reminded60m indicates the hour-before reminder was delivered
	Reminded60m bool

	// RespondedAt is when the record was last written
	RespondedAt time.Time
}

// Active reports whether the response still holds a seat: unset or going
func (r *RSVP) Active() bool {
	return r != nil && (r.Response == RSVPUnset || r.Response == RSVPGoing)
}
