package schedule

import (
	"time"

	"github.com/KirkDiggler/conferencebot/internal/models"
)

// Evaluator classifies which notification deadlines of a session are open
type Evaluator interface {
	// Due returns the kinds whose window contains now, in evaluation order.
	// Sessions without a known start have no deadlines.
	Due(session *models.Session, now time.Time) []models.DeadlineKind

	// Window returns the window of one kind
	Window(session *models.Session, kind models.DeadlineKind) (Window, bool)

	// Deadlines returns the due index entries of a session
	Deadlines(session *models.Session) []models.Deadline

	// TickInterval is the period between evaluations
	TickInterval() time.Duration
}
