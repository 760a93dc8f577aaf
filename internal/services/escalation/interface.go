package escalation

import (
	"context"
)

// Service collects post-session feedback and routes low ratings to support
type Service interface {
	// SubmitStars stores a rating and escalates it once when it is low
	SubmitStars(ctx context.Context, input *SubmitStarsInput) (*SubmitOutput, error)

	// SubmitComment stores a review. After an escalation the review is
	// forwarded to the support thread.
	SubmitComment(ctx context.Context, input *SubmitCommentInput) (*SubmitOutput, error)

	// Claim assigns the escalation to a support staffer unless someone
	// already took it
	Claim(ctx context.Context, input *ClaimInput) (*ClaimOutput, error)
}
