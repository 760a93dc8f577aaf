package session

import (
	"time"

	"github.com/KirkDiggler/conferencebot/internal/models"
)

type SaveSessionInput struct {
	Session *models.Session

	// Deadlines replaces every due index entry of the session. Kinds that
	// are absent are removed from the index.
	Deadlines []models.Deadline
}

type GetSessionInput struct {
	SessionID string
}

type DeleteSessionInput struct {
	SessionID string
}

type ListSessionsInput struct {
	From time.Time
}

type ListSessionsByTypeInput struct {
	TypeCode int
	From     time.Time
}

type ListSessionsOutput struct {
	Sessions []*models.Session
}

type GetDueDeadlinesInput struct {
	Until time.Time
}

type GetDueDeadlinesOutput struct {
	Deadlines []models.Deadline
}

type RemoveDueDeadlineInput struct {
	SessionID string
	Kind      models.DeadlineKind
}

type SaveSessionTypeInput struct {
	SessionType *models.SessionType
}

type GetSessionTypeInput struct {
	Code int
}

type ListSessionTypesInput struct {
	ActiveOnly bool
}

type ListSessionTypesOutput struct {
	SessionTypes []*models.SessionType
}
