package attendee

import (
	"time"

	"github.com/KirkDiggler/conferencebot/internal/models"
)

// SaveAttendeeInput contains parameters for saving an attendee
type SaveAttendeeInput struct {
	Attendee *models.Attendee
}

// GetAttendeeInput contains parameters for retrieving an attendee
type GetAttendeeInput struct {
	AttendeeID string
}

// ListAttendeesInput contains parameters for listing attendees
type ListAttendeesInput struct {
	// ReachableOnly filters out attendees that cannot receive notifications
	ReachableOnly bool
}

// ListAttendeesOutput contains the listed attendees
type ListAttendeesOutput struct {
	Attendees []*models.Attendee
}

// UpdateStatusInput contains parameters for changing an attendee's status
type UpdateStatusInput struct {
	AttendeeID string
	Status     models.AttendeeStatus
}

// TouchLastSeenInput contains parameters for recording an interaction
type TouchLastSeenInput struct {
	AttendeeID string
	SeenAt     time.Time
}
