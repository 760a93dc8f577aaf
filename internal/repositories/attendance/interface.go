package attendance

import (
	"context"

	"github.com/KirkDiggler/conferencebot/internal/models"
)

// Repository defines the interface for attendance persistence
type Repository interface {
	// Mark upserts the attended flag for a (session, attendee) pair
	Mark(ctx context.Context, input *MarkInput) error

	// Get retrieves a single record
	Get(ctx context.Context, input *GetInput) (*models.Attendance, error)

	// ListForSession retrieves records of a session
	ListForSession(ctx context.Context, input *ListForSessionInput) (*ListOutput, error)

	// ListForAttendee retrieves records of an attendee
	ListForAttendee(ctx context.Context, input *ListForAttendeeInput) (*ListOutput, error)

	// ResetForSession sets attended=false on every record of a session
	ResetForSession(ctx context.Context, input *ResetForSessionInput) (*ResetForSessionOutput, error)
}
