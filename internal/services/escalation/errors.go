package escalation

// EscalationError represents errors returned by the escalation service
type EscalationError string

// Error implements the error interface
func (e EscalationError) Error() string {
	return string(e)
}

const (
	ErrNilConfig       EscalationError = "config cannot be nil"
	ErrNilFeedbackRepo EscalationError = "feedback repository cannot be nil"
	ErrNilAttendeeRepo EscalationError = "attendee repository cannot be nil"
	ErrNilSessionRepo  EscalationError = "session repository cannot be nil"
	ErrNilLedgerRepo   EscalationError = "delivery ledger repository cannot be nil"
	ErrNilSupport      EscalationError = "support messenger cannot be nil"
	ErrNilMessaging    EscalationError = "messaging service cannot be nil"
	ErrNilCodec        EscalationError = "callback codec cannot be nil"
	ErrNilClock        EscalationError = "clock cannot be nil"

	ErrInvalidStars     EscalationError = "stars out of range"
	ErrEmptyComment     EscalationError = "comment cannot be empty"
	ErrSessionNotFound  EscalationError = "session not found"
	ErrFeedbackNotFound EscalationError = "feedback not found"

	// ErrAlreadyClaimed is returned when another staffer owns the escalation
	ErrAlreadyClaimed EscalationError = "escalation already claimed"
)
