package admin

import (
	"context"

	"github.com/KirkDiggler/conferencebot/internal/models"
)

// Service runs the administrative flows. Every operation except
// GrantAccess requires a valid grant for the acting transport user.
type Service interface {
	// GrantAccess issues a grant when the password matches
	GrantAccess(ctx context.Context, input *GrantAccessInput) (*models.AdminGrant, error)

	// CheckAccess verifies that a transport user holds a valid grant
	CheckAccess(ctx context.Context, input *CheckAccessInput) error

	// RevokeAccess ends the grant of a transport user
	RevokeAccess(ctx context.Context, input *RevokeAccessInput) error

	// History returns the latest ledger entries of a session or attendee
	History(ctx context.Context, input *HistoryInput) (*HistoryOutput, error)

	// ListSessionTypes returns the active session types
	ListSessionTypes(ctx context.Context, input *ListSessionTypesInput) ([]*models.SessionType, error)

	// CreateSession schedules a new session
	CreateSession(ctx context.Context, input *CreateSessionInput) (*CreateSessionOutput, error)

	// ListSessions returns one page of upcoming sessions
	ListSessions(ctx context.Context, input *ListSessionsInput) (*ListSessionsOutput, error)

	// GetSession returns one session
	GetSession(ctx context.Context, input *GetSessionInput) (*models.Session, error)

	// UpdateSession changes one field of a session
	UpdateSession(ctx context.Context, input *UpdateSessionInput) (*UpdateSessionOutput, error)

	// CancelSession cancels and deletes a session
	CancelSession(ctx context.Context, input *CancelSessionInput) (*CancelSessionOutput, error)
}
