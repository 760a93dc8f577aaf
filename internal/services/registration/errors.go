package registration

// RegistrationError represents errors returned by the registration service
type RegistrationError string

// Error implements the error interface
func (e RegistrationError) Error() string {
	return string(e)
}

const (
	ErrNilConfig         RegistrationError = "config cannot be nil"
	ErrNilAttendeeRepo   RegistrationError = "attendee repository cannot be nil"
	ErrNilAttendanceRepo RegistrationError = "attendance repository cannot be nil"
	ErrNilSessionRepo    RegistrationError = "session repository cannot be nil"
	ErrNilLedgerRepo     RegistrationError = "delivery ledger repository cannot be nil"
	ErrNilClock          RegistrationError = "clock cannot be nil"

	ErrNameTooShort  RegistrationError = "full name is too short"
	ErrInvalidPhone  RegistrationError = "invalid phone number"
	ErrNotRegistered RegistrationError = "attendee not registered"
)
