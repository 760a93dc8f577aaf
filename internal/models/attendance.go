package models

import (
	"time"
)

// Attendance records whether an attendee took part in a session
type Attendance struct {
	SessionID  string
	AttendeeID string
	Attended   bool
	MarkedAt   time.Time
}
