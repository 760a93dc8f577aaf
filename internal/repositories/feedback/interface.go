package feedback

import (
	"context"

	"github.com/KirkDiggler/conferencebot/internal/models"
)

// Repository defines the interface for feedback persistence. Stars and
// comment are independent fields of the same (session, attendee) record.
type Repository interface {
	// SetStars merges a rating into the record and returns the stored state
	SetStars(ctx context.Context, input *SetStarsInput) (*models.Feedback, error)

	// SetComment merges a comment into the record and returns the stored state
	SetComment(ctx context.Context, input *SetCommentInput) (*models.Feedback, error)

	// Get retrieves a single record
	Get(ctx context.Context, input *GetInput) (*models.Feedback, error)

	// BeginEscalation reserves the one escalation of the record. It returns
	// false when the record was already escalated.
	BeginEscalation(ctx context.Context, input *BeginEscalationInput) (bool, error)

	// CompleteEscalation stores where the support alert was delivered
	CompleteEscalation(ctx context.Context, input *CompleteEscalationInput) error

	// AbortEscalation releases a reservation whose alert could not be sent
	AbortEscalation(ctx context.Context, input *AbortEscalationInput) error

	// ClaimOwner sets the owner only if none is set yet
	ClaimOwner(ctx context.Context, input *ClaimOwnerInput) (*ClaimOwnerOutput, error)
}
