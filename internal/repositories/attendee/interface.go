package attendee

import (
	"context"

	"github.com/KirkDiggler/conferencebot/internal/models"
)

// Repository defines the interface for attendee persistence
type Repository interface {
	// SaveAttendee creates or updates an attendee. RegisteredAt is kept
	// from the first save.
	SaveAttendee(ctx context.Context, input *SaveAttendeeInput) error

	// GetAttendee retrieves an attendee by ID
	GetAttendee(ctx context.Context, input *GetAttendeeInput) (*models.Attendee, error)

	// ListAttendees retrieves every known attendee
	ListAttendees(ctx context.Context, input *ListAttendeesInput) (*ListAttendeesOutput, error)

	// UpdateStatus changes the delivery status of an attendee
	UpdateStatus(ctx context.Context, input *UpdateStatusInput) error

	// TouchLastSeen records an interaction from an existing attendee
	TouchLastSeen(ctx context.Context, input *TouchLastSeenInput) error
}
