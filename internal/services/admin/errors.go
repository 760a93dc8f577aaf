package admin

// AdminError represents errors returned by the admin service
type AdminError string

// Error implements the error interface
func (e AdminError) Error() string {
	return string(e)
}

const (
	ErrNilConfig        AdminError = "config cannot be nil"
	ErrNilGrantRepo     AdminError = "admin grant repository cannot be nil"
	ErrNilSessionRepo   AdminError = "session repository cannot be nil"
	ErrNilLedgerRepo    AdminError = "delivery ledger repository cannot be nil"
	ErrNilHooks         AdminError = "session hooks cannot be nil"
	ErrNilClock         AdminError = "clock cannot be nil"
	ErrNilUUIDGenerator AdminError = "uuid generator cannot be nil"

	// ErrAdminDisabled is returned when no admin password is configured
	ErrAdminDisabled AdminError = "administration is disabled"

	// ErrBadPassword is returned for a wrong admin password
	ErrBadPassword AdminError = "wrong admin password"

	// ErrAccessDenied is returned when the user holds no valid grant
	ErrAccessDenied AdminError = "admin access denied"

	ErrSessionNotFound     AdminError = "session not found"
	ErrSessionTypeNotFound AdminError = "session type not found"
	ErrInvalidStart        AdminError = "invalid start time"
	ErrInvalidDuration     AdminError = "invalid duration"
	ErrEmptyValue          AdminError = "value cannot be empty"
	ErrUnknownField        AdminError = "unknown session field"
)
