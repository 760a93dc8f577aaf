package delivery_ledger

import (
	"context"
)

// Repository defines the interface for the append-only delivery ledger
type Repository interface {
	// Record appends an entry to the ledger
	Record(ctx context.Context, input *RecordInput) (*RecordOutput, error)

	// Exists reports whether an entry with the same action, attendee and
	// session was ever recorded
	Exists(ctx context.Context, input *ExistsInput) (bool, error)

	// GetEntriesForSession retrieves all entries for a session, oldest first
	GetEntriesForSession(ctx context.Context, input *GetEntriesForSessionInput) (*GetEntriesOutput, error)

	// GetEntriesForAttendee retrieves all entries for an attendee, oldest first
	GetEntriesForAttendee(ctx context.Context, input *GetEntriesForAttendeeInput) (*GetEntriesOutput, error)
}
