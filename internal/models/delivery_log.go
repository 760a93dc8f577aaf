package models

import (
	"time"
)

// DeliveryAction represents what was recorded in the delivery ledger
type DeliveryAction string

const (
	ActionInviteSent        DeliveryAction = "invite_sent"
	ActionRemind24hSent     DeliveryAction = "remind_24h_sent"
	ActionRemind60mSent     DeliveryAction = "remind_60m_sent"
	ActionFeedbackAskSent   DeliveryAction = "feedback_ask_sent"
	ActionFeedbackRequested DeliveryAction = "feedback_requested"
	ActionDeliveryFailed    DeliveryAction = "delivery_failed_permanent"
	ActionDeadlineMissed    DeliveryAction = "deadline_missed"

	ActionUpdateNoticeSent DeliveryAction = "update_notice_sent"
	ActionCancelNoticeSent DeliveryAction = "cancel_notice_sent"

	ActionRSVPGoing      DeliveryAction = "rsvp_going"
	ActionRSVPDeclined   DeliveryAction = "rsvp_declined"
	ActionRSVPRemindMe   DeliveryAction = "rsvp_remind_me"
	ActionAttendanceMark DeliveryAction = "attendance_marked"

	ActionFeedbackEscalated DeliveryAction = "feedback_escalated"
	ActionCommentForwarded  DeliveryAction = "feedback_comment_forwarded"
	ActionComplaintTaken    DeliveryAction = "complaint_taken"

	ActionAttendeeRegistered DeliveryAction = "attendee_registered"
	ActionSessionCreated     DeliveryAction = "session_created"
	ActionSessionUpdated     DeliveryAction = "session_updated"
	ActionSessionCanceled    DeliveryAction = "session_canceled"
	ActionAdminGranted       DeliveryAction = "admin_granted"
	ActionAdminRevoked       DeliveryAction = "admin_revoked"
)

// DeliveryLogEntry is an append-only ledger record. It is never mutated or
// deleted; its existence is what makes notification delivery idempotent.
type DeliveryLogEntry struct {
	// ID is the unique identifier for the entry
	ID string

	// Timestamp is when the entry was written
	Timestamp time.Time

	// AttendeeID is the recipient, empty for session-level actions
	AttendeeID string

	// SessionID is the related session, empty for attendee-level actions
	SessionID string

	// Action is what happened
	Action DeliveryAction

	// Details is free-form context
	Details string
}
