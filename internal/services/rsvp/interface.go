package rsvp

import (
	"context"
)

// Service records attendee responses to invitations
type Service interface {
	// Respond applies a going, declined or remind_me response
	Respond(ctx context.Context, input *RespondInput) (*RespondOutput, error)

	// ChooseAlternative records a going response on a session offered after
	// a decline
	ChooseAlternative(ctx context.Context, input *ChooseAlternativeInput) (*RespondOutput, error)
}
