// Package wizard tracks multi-step dialogs per transport user.
package wizard

import (
	"time"

	"github.com/KirkDiggler/conferencebot/internal/models"
)

// State is one step of a dialog. The set of implementations is closed.
type State interface {
	isState()
}

// AwaitingName waits for the attendee's full name during registration
type AwaitingName struct{}

// AwaitingPhone waits for the phone number during registration
type AwaitingPhone struct {
	FullName string
}

// AwaitingComment waits for a free text review of a session
type AwaitingComment struct {
	SessionID  string
	AttendeeID string
}

// CreateStep is the step of the session creation dialog
type CreateStep string

const (
	CreateStepMenu     CreateStep = "menu"
	CreateStepTitle    CreateStep = "title"
	CreateStepDesc     CreateStep = "description"
	CreateStepStart    CreateStep = "start"
	CreateStepDuration CreateStep = "duration"
	CreateStepLink     CreateStep = "link"
)

// AdminCreate collects the fields of a new session
type AdminCreate struct {
	Step        CreateStep
	TypeCode    int
	TypeTitle   string
	Title       string
	Description string
	StartAt     time.Time
	DurationMin int
}

// AdminEditField waits for a new value of one session field
type AdminEditField struct {
	SessionID string
	Field     models.SessionField
}

func (AwaitingName) isState()    {}
func (AwaitingPhone) isState()   {}
func (AwaitingComment) isState() {}
func (AdminCreate) isState()     {}
func (AdminEditField) isState()  {}
