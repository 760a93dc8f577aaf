package models

import (
	"time"
)

// DeadlineKind identifies a notification deadline relative to a session
type DeadlineKind string

const (
	DeadlineInvite      DeadlineKind = "invite"
	DeadlineRemind24h   DeadlineKind = "remind_24h"
	DeadlineRemind60m   DeadlineKind = "remind_60m"
	DeadlineFeedbackAsk DeadlineKind = "feedback_ask"
)

// AllDeadlineKinds lists every kind in evaluation order
var AllDeadlineKinds = []DeadlineKind{
	DeadlineInvite,
	DeadlineRemind24h,
	DeadlineRemind60m,
	DeadlineFeedbackAsk,
}

// SentAction returns the ledger action recorded when a per-attendee
// notification of this kind is delivered
func (k DeadlineKind) SentAction() DeliveryAction {
	switch k {
	case DeadlineInvite:
		return ActionInviteSent
	case DeadlineRemind24h:
		return ActionRemind24hSent
	case DeadlineRemind60m:
		return ActionRemind60mSent
	case DeadlineFeedbackAsk:
		return ActionFeedbackAskSent
	}
	return ""
}

// Deadline is a due index entry: the moment a kind's window opens for a session
type Deadline struct {
	SessionID string
	Kind      DeadlineKind
	OpensAt   time.Time
}
