package messenger

// Button is an inline button carrying opaque callback data
type Button struct {
	Label string
	Data  string
}

// SendInput contains the message to deliver
type SendInput struct {
	// Recipient is the transport chat id
	Recipient string

	// Text is the rendered message body
	Text string

	// Buttons are rows of inline buttons
	Buttons [][]Button

	// ReplyTo is a transport message id to thread the message under
	ReplyTo string
}

// SendOutput describes a delivered message
type SendOutput struct {
	// MessageID is the transport id of the delivered message
	MessageID string
}
