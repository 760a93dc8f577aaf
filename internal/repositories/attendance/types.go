package attendance

import (
	"time"

	"github.com/KirkDiggler/conferencebot/internal/models"
)

type MarkInput struct {
	SessionID  string
	AttendeeID string
	Attended   bool
	At         time.Time
}

type GetInput struct {
	SessionID  string
	AttendeeID string
}

type ListForSessionInput struct {
	SessionID    string
	AttendedOnly bool
}

type ListForAttendeeInput struct {
	AttendeeID   string
	AttendedOnly bool
}

type ListOutput struct {
	Records []*models.Attendance
}

type ResetForSessionInput struct {
	SessionID string
	At        time.Time
}

type ResetForSessionOutput struct {
	// Reset is how many records were flipped from attended to not attended
	Reset int
}
