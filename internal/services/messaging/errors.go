package messaging

// MessagingError represents errors returned by the messaging service
type MessagingError string

func (e MessagingError) Error() string {
	return string(e)
}

const (
	// ErrNilConfig is returned when a nil config is provided
	ErrNilConfig MessagingError = "config cannot be nil"

	// ErrNilTemplateRepo is returned when no template repository is provided
	ErrNilTemplateRepo MessagingError = "template repository cannot be nil"

	// ErrUnknownTemplate is returned for keys without override or default
	ErrUnknownTemplate MessagingError = "unknown template"
)
