package models

import (
	"time"
)

// SessionType is a category of recurring conference
type SessionType struct {
	// Code is the numeric category code
	Code int

	// Title is the default title for sessions of this type
	Title string

	// Description is the default description for sessions of this type
	Description string

	// Active indicates the type is offered to attendees
	Active bool
}

// Session represents a scheduled conference instance
type Session struct {
	// ID is the unique identifier for the session
	ID string

	// TypeCode is the SessionType this session belongs to
	TypeCode int

	// Title is the display title
	Title string

	// Description is the display description
	Description string

	// StartAt is when the session begins; zero means unknown
	StartAt time.Time

	// DurationMin is the session length in minutes
	DurationMin int

	// Link is the join URL
	Link string

	// CreatedBy identifies the administrator who created the session
	CreatedBy string

	// CreatedAt is when the session was created
	CreatedAt time.Time
}

// Start returns the start time and whether it is known
func (s *Session) Start() (time.Time, bool) {
	if s == nil || s.StartAt.IsZero() {
		return time.Time{}, false
	}
	return s.StartAt, true
}

// End returns the scheduled end time and whether it is known
func (s *Session) End() (time.Time, bool) {
	start, ok := s.Start()
	if !ok {
		return time.Time{}, false
	}
	return start.Add(time.Duration(s.DurationMin) * time.Minute), true
}

// SessionField names an editable session attribute
type SessionField string

const (
	SessionFieldTitle       SessionField = "title"
	SessionFieldDescription SessionField = "description"
	SessionFieldStartAt     SessionField = "start_at"
	SessionFieldDuration    SessionField = "duration_min"
	SessionFieldLink        SessionField = "link"
)

// SessionTimeLayout is the layout used for entering and displaying start times
const SessionTimeLayout = "2006-01-02 15:04"
