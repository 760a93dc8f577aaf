package rsvp

import (
	"time"

	"github.com/KirkDiggler/conferencebot/internal/models"
)

// UpsertRSVPInput contains the fields to merge. Nil pointers leave the
// stored value untouched.
type UpsertRSVPInput struct {
	SessionID  string
	AttendeeID string
	Response   *models.RSVPResponse
	Remind24h  *bool
	At         time.Time

	// IfMissing writes only fields the record does not hold yet, so a
	// concurrent answer is never replaced
	IfMissing bool
}

type GetRSVPInput struct {
	SessionID  string
	AttendeeID string
}

type ListForSessionInput struct {
	SessionID string
}

type ListForAttendeeInput struct {
	AttendeeID string
}

type ListRSVPsOutput struct {
	RSVPs []*models.RSVP
}

type MarkRemindedInput struct {
	SessionID  string
	AttendeeID string

	// Kind is DeadlineRemind24h or DeadlineRemind60m
	Kind models.DeadlineKind
}

type ClearRemindersInput struct {
	SessionID string
}
