package registration

import (
	"context"

	"github.com/KirkDiggler/conferencebot/internal/models"
)

// Service registers attendees and reports what they attended
type Service interface {
	// Register creates or refreshes an attendee from the registration dialog
	Register(ctx context.Context, input *RegisterInput) (*RegisterOutput, error)

	// Lookup returns the attendee of a transport user
	Lookup(ctx context.Context, input *LookupInput) (*models.Attendee, error)

	// Touch records an interaction of a transport user. Unknown users are
	// ignored.
	Touch(ctx context.Context, input *TouchInput) error

	// Welcome lists the active session types with the attendee's progress
	Welcome(ctx context.Context, input *WelcomeInput) (*WelcomeOutput, error)
}
