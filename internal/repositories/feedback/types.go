package feedback

import (
	"time"
)

type SetStarsInput struct {
	SessionID  string
	AttendeeID string
	Stars      int
	At         time.Time
}

type SetCommentInput struct {
	SessionID  string
	AttendeeID string
	Comment    string
	At         time.Time
}

type GetInput struct {
	SessionID  string
	AttendeeID string
}

type BeginEscalationInput struct {
	SessionID  string
	AttendeeID string
	At         time.Time
}

type CompleteEscalationInput struct {
	SessionID  string
	AttendeeID string
	Recipient  string
	MessageID  string
}

type AbortEscalationInput struct {
	SessionID  string
	AttendeeID string
}

type ClaimOwnerInput struct {
	SessionID  string
	AttendeeID string
	Owner      string
}

type ClaimOwnerOutput struct {
	// Claimed is true when this call set the owner
	Claimed bool

	// Owner is the owner stored after the call
	Owner string
}
