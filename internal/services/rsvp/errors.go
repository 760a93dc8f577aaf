package rsvp

// RSVPError represents errors returned by the rsvp service
type RSVPError string

// Error implements the error interface
func (e RSVPError) Error() string {
	return string(e)
}

const (
	ErrNilConfig         RSVPError = "config cannot be nil"
	ErrNilSessionRepo    RSVPError = "session repository cannot be nil"
	ErrNilAttendeeRepo   RSVPError = "attendee repository cannot be nil"
	ErrNilRSVPRepo       RSVPError = "rsvp repository cannot be nil"
	ErrNilAttendanceRepo RSVPError = "attendance repository cannot be nil"
	ErrNilLedgerRepo     RSVPError = "delivery ledger repository cannot be nil"
	ErrNilClock          RSVPError = "clock cannot be nil"

	// ErrSessionNotFound is returned when the session no longer exists
	ErrSessionNotFound RSVPError = "session not found"

	// ErrNotRegistered is returned when the attendee never registered
	ErrNotRegistered RSVPError = "attendee not registered"

	// ErrInvalidResponse is returned for responses other than going,
	// declined and remind_me
	ErrInvalidResponse RSVPError = "invalid response"
)
