package admin

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/KirkDiggler/conferencebot/internal/common/clock"
	"github.com/KirkDiggler/conferencebot/internal/common/uuid"
	"github.com/KirkDiggler/conferencebot/internal/models"
	grantRepo "github.com/KirkDiggler/conferencebot/internal/repositories/admin_grant"
	ledgerRepo "github.com/KirkDiggler/conferencebot/internal/repositories/delivery_ledger"
	sessionRepo "github.com/KirkDiggler/conferencebot/internal/repositories/session"
	"github.com/KirkDiggler/conferencebot/internal/services/dispatch"
)

const (
	// PageSize is the number of sessions per list page
	PageSize = 10

	// SessionIDPrefix starts every session id
	SessionIDPrefix = "ev_"

	// sessionIDLength is the number of random hex characters of an id
	sessionIDLength = 10

	// listLookback keeps sessions that started recently in the list
	listLookback = 24 * time.Hour

	// DefaultHistoryLimit is the number of ledger entries shown by default
	DefaultHistoryLimit = 15
)

// SessionHooks is notified of session lifecycle changes
type SessionHooks interface {
	OnSessionCreated(ctx context.Context, input *dispatch.OnSessionCreatedInput) (*dispatch.OnSessionCreatedOutput, error)
	OnSessionUpdated(ctx context.Context, input *dispatch.OnSessionUpdatedInput) (*dispatch.OnSessionUpdatedOutput, error)
	OnSessionCancelled(ctx context.Context, input *dispatch.OnSessionCancelledInput) (*dispatch.OnSessionCancelledOutput, error)
}

// Config holds configuration for the admin service
type Config struct {
	// Password unlocks the admin deep link; empty disables administration
	Password string

	// GrantTTL is how long a grant stays valid
	GrantTTL time.Duration

	// Location is the zone start times are entered in
	Location *time.Location

	// Repository dependencies
	GrantRepo   grantRepo.Repository
	SessionRepo sessionRepo.Repository
	LedgerRepo  ledgerRepo.Repository

	// Service dependencies
	Hooks         SessionHooks
	Clock         clock.Clock
	UUIDGenerator uuid.UUID
	Logger        zerolog.Logger
}

type GrantAccessInput struct {
	TransportID string
	Password    string
}

type CheckAccessInput struct {
	TransportID string
}

type RevokeAccessInput struct {
	TransportID string
}

// HistoryInput selects the ledger entries of a session or of an attendee.
// SessionID takes precedence when both are set.
type HistoryInput struct {
	AdminID    string
	SessionID  string
	AttendeeID string

	// Limit caps the entries returned; zero means DefaultHistoryLimit
	Limit int
}

type HistoryOutput struct {
	// Entries are the most recent entries, newest first
	Entries []*models.DeliveryLogEntry

	// Total is the number of entries recorded
	Total int
}

type ListSessionTypesInput struct {
	AdminID string
}

// CreateSessionInput contains the answers of the creation wizard
type CreateSessionInput struct {
	// AdminID is the transport id of the acting administrator
	AdminID string

	TypeCode int

	// Title and Description default to the session type's
	Title       string
	Description string

	StartAt     time.Time
	DurationMin int
	Link        string
}

type CreateSessionOutput struct {
	Session *models.Session

	// Invited is how many invites went out immediately
	Invited int
}

type ListSessionsInput struct {
	AdminID string

	// Page is zero based
	Page int
}

type ListSessionsOutput struct {
	Sessions []*models.Session

	// Page is the returned page, clamped to the available range
	Page int

	// Pages is the number of pages, at least one
	Pages int

	Total int
}

type GetSessionInput struct {
	AdminID   string
	SessionID string
}

// UpdateSessionInput carries a raw value as typed by the administrator
type UpdateSessionInput struct {
	AdminID   string
	SessionID string
	Field     models.SessionField
	Value     string
}

type UpdateSessionOutput struct {
	Session  *models.Session
	Notified int

	// Pending is how many notices await redelivery
	Pending int
}

type CancelSessionInput struct {
	AdminID   string
	SessionID string
}

type CancelSessionOutput struct {
	Notified        int
	AttendanceReset int

	// Pending is how many notices await redelivery
	Pending int
}
