package registration

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/KirkDiggler/conferencebot/internal/common/clock"
	"github.com/KirkDiggler/conferencebot/internal/models"
	attendanceRepo "github.com/KirkDiggler/conferencebot/internal/repositories/attendance"
	attendeeRepo "github.com/KirkDiggler/conferencebot/internal/repositories/attendee"
	ledgerRepo "github.com/KirkDiggler/conferencebot/internal/repositories/delivery_ledger"
	sessionRepo "github.com/KirkDiggler/conferencebot/internal/repositories/session"
	"github.com/KirkDiggler/conferencebot/internal/services/dispatch"
)

// MinNameLength is the shortest accepted full name, in characters
const MinNameLength = 3

// Invites is notified after a registration so pending invites go out
// without waiting for the next tick
type Invites interface {
	OnAttendeeRegistered(ctx context.Context, input *dispatch.OnAttendeeRegisteredInput) (*dispatch.OnAttendeeRegisteredOutput, error)
}

// Config holds configuration for the registration service
type Config struct {
	AttendeeRepo   attendeeRepo.Repository
	AttendanceRepo attendanceRepo.Repository
	SessionRepo    sessionRepo.Repository
	LedgerRepo     ledgerRepo.Repository

	// Invites is optional
	Invites Invites

	Clock  clock.Clock
	Logger zerolog.Logger
}

// RegisterInput contains the answers of the registration dialog
type RegisterInput struct {
	TransportID string
	FullName    string
	Phone       string
}

// RegisterOutput contains the stored attendee
type RegisterOutput struct {
	Attendee *models.Attendee

	// Created is false when an existing attendee registered again
	Created bool

	// Invited is how many invites were sent right after registering
	Invited int
}

type LookupInput struct {
	TransportID string
}

type TouchInput struct {
	TransportID string
}

type WelcomeInput struct {
	AttendeeID string
}

// TypeProgress pairs a session type with whether it was attended
type TypeProgress struct {
	SessionType *models.SessionType
	Attended    bool
}

type WelcomeOutput struct {
	Types []TypeProgress
}
