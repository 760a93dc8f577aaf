package dispatch

import (
	"context"
)

// Service delivers time-window notifications and session change notices
type Service interface {
	// Tick evaluates every open deadline of the due index once
	Tick(ctx context.Context) (*TickOutput, error)

	// OnSessionCreated persists a new session and runs an invite pass
	// when its invite window is already open
	OnSessionCreated(ctx context.Context, input *OnSessionCreatedInput) (*OnSessionCreatedOutput, error)

	// OnSessionUpdated persists an edited session and notifies attendees
	// who are going
	OnSessionUpdated(ctx context.Context, input *OnSessionUpdatedInput) (*OnSessionUpdatedOutput, error)

	// OnSessionCancelled notifies attendees who are going, resets attendance
	// and deletes the session
	OnSessionCancelled(ctx context.Context, input *OnSessionCancelledInput) (*OnSessionCancelledOutput, error)

	// OnAttendeeRegistered sends pending invites to a new attendee
	OnAttendeeRegistered(ctx context.Context, input *OnAttendeeRegisteredInput) (*OnAttendeeRegisteredOutput, error)
}
