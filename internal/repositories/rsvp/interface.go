package rsvp

import (
	"context"

	"github.com/KirkDiggler/conferencebot/internal/models"
)

// Repository defines the interface for RSVP persistence. There is at most
// one record per (session, attendee); writes merge field by field.
type Repository interface {
	// UpsertRSVP creates or merges the record and returns the stored state
	UpsertRSVP(ctx context.Context, input *UpsertRSVPInput) (*models.RSVP, error)

	// GetRSVP retrieves a single record
	GetRSVP(ctx context.Context, input *GetRSVPInput) (*models.RSVP, error)

	// ListForSession retrieves every record of a session
	ListForSession(ctx context.Context, input *ListForSessionInput) (*ListRSVPsOutput, error)

	// ListForAttendee retrieves every record of an attendee
	ListForAttendee(ctx context.Context, input *ListForAttendeeInput) (*ListRSVPsOutput, error)

	// MarkReminded sets the reminded flag of a reminder kind. Flags only
	// ever move from false to true here.
	MarkReminded(ctx context.Context, input *MarkRemindedInput) error

	// ClearReminders resets both reminded flags of every record of a
	// session after it was rescheduled
	ClearReminders(ctx context.Context, input *ClearRemindersInput) error
}
