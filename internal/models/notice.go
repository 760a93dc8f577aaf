package models

import (
	"time"
)

// NoticeButton is an inline button of a queued notice
type NoticeButton struct {
	Label string
	Data  string
}

// PendingNotice is a one-off message whose delivery failed transiently.
// It outlives the session it describes and is retried on every tick until
// it is delivered or its recipient is gone.
type PendingNotice struct {
	// ID is the unique identifier for the notice
	ID string

	// Action is recorded in the ledger once the notice is delivered
	Action DeliveryAction

	AttendeeID string
	SessionID  string

	// Text is the rendered message body
	Text string

	// Buttons are rows of inline buttons carrying signed callback data
	Buttons [][]NoticeButton

	// Once drops the notice when the ledger already holds Action for the
	// (attendee, session) pair
	Once bool

	// Attempts counts failed deliveries
	Attempts int

	CreatedAt time.Time
}
