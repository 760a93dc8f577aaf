package rsvp

import (
	"github.com/rs/zerolog"

	"github.com/KirkDiggler/conferencebot/internal/common/clock"
	"github.com/KirkDiggler/conferencebot/internal/models"
	attendanceRepo "github.com/KirkDiggler/conferencebot/internal/repositories/attendance"
	attendeeRepo "github.com/KirkDiggler/conferencebot/internal/repositories/attendee"
	ledgerRepo "github.com/KirkDiggler/conferencebot/internal/repositories/delivery_ledger"
	rsvpRepo "github.com/KirkDiggler/conferencebot/internal/repositories/rsvp"
	sessionRepo "github.com/KirkDiggler/conferencebot/internal/repositories/session"
)

// MaxAlternatives caps the sessions offered after a decline
const MaxAlternatives = 5

// Config holds configuration for the rsvp service
type Config struct {
	// Repository dependencies
	SessionRepo    sessionRepo.Repository
	AttendeeRepo   attendeeRepo.Repository
	RSVPRepo       rsvpRepo.Repository
	AttendanceRepo attendanceRepo.Repository
	LedgerRepo     ledgerRepo.Repository

	// Service dependencies
	Clock  clock.Clock
	Logger zerolog.Logger
}

// RespondInput contains parameters for answering an invitation
type RespondInput struct {
	SessionID  string
	AttendeeID string
	Response   models.RSVPResponse
}

// RespondOutput contains the result of a response
type RespondOutput struct {
	// Session is the session responded to
	Session *models.Session

	// RSVP is the stored record after the response
	RSVP *models.RSVP

	// Alternatives are future sessions of the same type, offered after a
	// decline, earliest first
	Alternatives []*models.Session
}

// ChooseAlternativeInput contains parameters for picking an offered session
type ChooseAlternativeInput struct {
	SessionID  string
	AttendeeID string
}
