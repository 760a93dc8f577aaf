package schedule

import (
	"time"

	"github.com/KirkDiggler/conferencebot/internal/models"
)

// evaluator implements the Evaluator interface
type evaluator struct {
	tolerance     time.Duration
	tick          time.Duration
	inviteLead    time.Duration
	feedbackDelay time.Duration
}

// New creates an evaluator after validating the windows
func New(cfg *Config) (*evaluator, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	if err := ValidateWindows(cfg); err != nil {
		return nil, err
	}

	return &evaluator{
		tolerance:     cfg.Tolerance,
		tick:          cfg.TickInterval,
		inviteLead:    cfg.InviteLead,
		feedbackDelay: cfg.FeedbackDelay,
	}, nil
}

// ValidateWindows checks that every fixed window is at least one tick wide
// and that the two reminder windows cannot both contain the same instant
func ValidateWindows(cfg *Config) error {
	if cfg == nil {
		return ErrNilConfig
	}

	if cfg.TickInterval <= 0 {
		return ErrNonPositiveTick
	}

	// A window of 2*tol always contains a tick only if tol >= tick
	if cfg.Tolerance < cfg.TickInterval {
		return ErrToleranceBelowTick
	}

	if cfg.InviteLead <= 0 {
		return ErrNonPositiveLead
	}

	if cfg.FeedbackDelay < 0 {
		return ErrNegativeDelay
	}

	if 2*cfg.Tolerance >= Remind24hOffset-Remind60mOffset {
		return ErrOverlappingReminder
	}

	return nil
}

// TickInterval is the period between evaluations
func (e *evaluator) TickInterval() time.Duration {
	return e.tick
}

// Window returns the window of one kind
func (e *evaluator) Window(session *models.Session, kind models.DeadlineKind) (Window, bool) {
	start, ok := session.Start()
	if !ok {
		return Window{}, false
	}

	switch kind {
	case models.DeadlineInvite:
		target := start.Add(-e.inviteLead)
		return Window{
			Kind:      kind,
			Target:    target,
			Opens:     target.Add(-e.tolerance),
			Closes:    start,
			OpenEnded: true,
		}, true
	case models.DeadlineRemind24h:
		return e.fixed(kind, start.Add(-Remind24hOffset)), true
	case models.DeadlineRemind60m:
		return e.fixed(kind, start.Add(-Remind60mOffset)), true
	case models.DeadlineFeedbackAsk:
		end, _ := session.End()
		return e.fixed(kind, end.Add(e.feedbackDelay)), true
	}

	return Window{}, false
}

func (e *evaluator) fixed(kind models.DeadlineKind, target time.Time) Window {
	return Window{
		Kind:   kind,
		Target: target,
		Opens:  target.Add(-e.tolerance),
		Closes: target.Add(e.tolerance),
	}
}

// Due returns the kinds whose window contains now
func (e *evaluator) Due(session *models.Session, now time.Time) []models.DeadlineKind {
	var due []models.DeadlineKind
	for _, kind := range models.AllDeadlineKinds {
		w, ok := e.Window(session, kind)
		if !ok {
			return nil
		}
		if w.Contains(now) {
			due = append(due, kind)
		}
	}
	return due
}

// Deadlines returns the due index entries of a session
func (e *evaluator) Deadlines(session *models.Session) []models.Deadline {
	var deadlines []models.Deadline
	for _, kind := range models.AllDeadlineKinds {
		w, ok := e.Window(session, kind)
		if !ok {
			return nil
		}
		deadlines = append(deadlines, models.Deadline{
			SessionID: session.ID,
			Kind:      kind,
			OpensAt:   w.Opens,
		})
	}
	return deadlines
}
