package delivery_ledger

import (
	"time"

	"github.com/KirkDiggler/conferencebot/internal/models"
)

// RecordInput contains parameters for appending a ledger entry
type RecordInput struct {
	Action     models.DeliveryAction
	AttendeeID string
	SessionID  string
	Details    string

	// Timestamp defaults to the current time when zero
	Timestamp time.Time
}

// RecordOutput contains the stored entry
type RecordOutput struct {
	Entry *models.DeliveryLogEntry
}

// ExistsInput identifies an (action, attendee, session) triple. An empty
// AttendeeID addresses session-level entries.
type ExistsInput struct {
	Action     models.DeliveryAction
	AttendeeID string
	SessionID  string
}

// GetEntriesForSessionInput contains parameters for retrieving a session's entries
type GetEntriesForSessionInput struct {
	SessionID string
}

// GetEntriesForAttendeeInput contains parameters for retrieving an attendee's entries
type GetEntriesForAttendeeInput struct {
	AttendeeID string
}

// GetEntriesOutput contains ledger entries
type GetEntriesOutput struct {
	Entries []*models.DeliveryLogEntry
}
