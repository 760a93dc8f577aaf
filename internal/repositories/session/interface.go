package session

import (
	"context"

	"github.com/KirkDiggler/conferencebot/internal/models"
)

// Repository defines the interface for session, session type and due
// index persistence
type Repository interface {
	// SaveSession persists a session and replaces its due index entries
	SaveSession(ctx context.Context, input *SaveSessionInput) error

	// GetSession retrieves a session by ID
	GetSession(ctx context.Context, input *GetSessionInput) (*models.Session, error)

	// DeleteSession removes a session together with its index entries
	DeleteSession(ctx context.Context, input *DeleteSessionInput) error

	// ListSessions retrieves sessions starting at or after From, earliest first
	ListSessions(ctx context.Context, input *ListSessionsInput) (*ListSessionsOutput, error)

	// ListSessionsByType retrieves sessions of one type starting at or after
	// From, earliest first
	ListSessionsByType(ctx context.Context, input *ListSessionsByTypeInput) (*ListSessionsOutput, error)

	// GetDueDeadlines returns index entries whose window opened at or before Until
	GetDueDeadlines(ctx context.Context, input *GetDueDeadlinesInput) (*GetDueDeadlinesOutput, error)

	// RemoveDueDeadline drops a single index entry
	RemoveDueDeadline(ctx context.Context, input *RemoveDueDeadlineInput) error

	// SaveSessionType creates or replaces a session type
	SaveSessionType(ctx context.Context, input *SaveSessionTypeInput) error

	// GetSessionType retrieves a session type by code
	GetSessionType(ctx context.Context, input *GetSessionTypeInput) (*models.SessionType, error)

	// ListSessionTypes retrieves session types ordered by code
	ListSessionTypes(ctx context.Context, input *ListSessionTypesInput) (*ListSessionTypesOutput, error)
}
