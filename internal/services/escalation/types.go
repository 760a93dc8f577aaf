package escalation

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/KirkDiggler/conferencebot/internal/callback"
	"github.com/KirkDiggler/conferencebot/internal/common/clock"
	"github.com/KirkDiggler/conferencebot/internal/messenger"
	"github.com/KirkDiggler/conferencebot/internal/models"
	attendeeRepo "github.com/KirkDiggler/conferencebot/internal/repositories/attendee"
	ledgerRepo "github.com/KirkDiggler/conferencebot/internal/repositories/delivery_ledger"
	feedbackRepo "github.com/KirkDiggler/conferencebot/internal/repositories/feedback"
	sessionRepo "github.com/KirkDiggler/conferencebot/internal/repositories/session"
	"github.com/KirkDiggler/conferencebot/internal/services/messaging"
)

// DefaultThreshold is the rating below which feedback is escalated
const DefaultThreshold = 4

// Config holds configuration for the escalation service
type Config struct {
	// Threshold escalates ratings strictly below it
	Threshold int

	// SupportRecipient is the support chat or channel id
	SupportRecipient string

	// SendTimeout bounds a single send to support
	SendTimeout time.Duration

	// Repository dependencies
	FeedbackRepo feedbackRepo.Repository
	AttendeeRepo attendeeRepo.Repository
	SessionRepo  sessionRepo.Repository
	LedgerRepo   ledgerRepo.Repository

	// Service dependencies
	Support   messenger.Messenger
	Messaging messaging.Service
	Codec     *callback.Codec
	Clock     clock.Clock
	Logger    zerolog.Logger
}

// SubmitStarsInput contains a rating from a feedback button
type SubmitStarsInput struct {
	SessionID  string
	AttendeeID string
	Stars      int
}

// SubmitCommentInput contains a free text review
type SubmitCommentInput struct {
	SessionID  string
	AttendeeID string
	Comment    string
}

// SubmitOutput contains the merged feedback record
type SubmitOutput struct {
	Feedback *models.Feedback

	// Session is the rated session
	Session *models.Session

	// Escalated is true when this call delivered the support alert
	Escalated bool

	// Forwarded is true when this call forwarded a comment to support
	Forwarded bool
}

// ClaimInput contains parameters for taking an escalation
type ClaimInput struct {
	SessionID  string
	AttendeeID string

	// Owner identifies the staffer, e.g. "@username" or "id:42"
	Owner string
}

// ClaimOutput contains the owner of the escalation
type ClaimOutput struct {
	Owner string
}
