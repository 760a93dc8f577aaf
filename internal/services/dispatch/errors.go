package dispatch

// DispatchError represents errors returned by the dispatch service
type DispatchError string

// Error implements the error interface
func (e DispatchError) Error() string {
	return string(e)
}

const (
	ErrNilConfig         DispatchError = "config cannot be nil"
	ErrNilSessionRepo    DispatchError = "session repository cannot be nil"
	ErrNilAttendeeRepo   DispatchError = "attendee repository cannot be nil"
	ErrNilRSVPRepo       DispatchError = "rsvp repository cannot be nil"
	ErrNilAttendanceRepo DispatchError = "attendance repository cannot be nil"
	ErrNilLedgerRepo     DispatchError = "delivery ledger repository cannot be nil"
	ErrNilNoticeRepo     DispatchError = "notice repository cannot be nil"
	ErrNilEvaluator      DispatchError = "evaluator cannot be nil"
	ErrNilMessenger      DispatchError = "messenger cannot be nil"
	ErrNilMessaging      DispatchError = "messaging service cannot be nil"
	ErrNilCodec          DispatchError = "callback codec cannot be nil"
	ErrNilClock          DispatchError = "clock cannot be nil"
	ErrInvalidInput      DispatchError = "invalid input"
)
