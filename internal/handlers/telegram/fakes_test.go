package telegram

import (
	"context"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/KirkDiggler/conferencebot/internal/models"
	"github.com/KirkDiggler/conferencebot/internal/services/admin"
	"github.com/KirkDiggler/conferencebot/internal/services/escalation"
	"github.com/KirkDiggler/conferencebot/internal/services/registration"
	"github.com/KirkDiggler/conferencebot/internal/services/rsvp"
)

// fakeAPI records outgoing calls instead of talking to Telegram
type fakeAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	nextID   int
	sendErr  error
	delay    time.Duration
	updates  chan tgbotapi.Update
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{updates: make(chan tgbotapi.Update, 8)}
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.sendErr != nil {
		return tgbotapi.Message{}, f.sendErr
	}
	f.sent = append(f.sent, c)
	f.nextID++
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() {}

func (f *fakeAPI) messages() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []tgbotapi.MessageConfig
	for _, c := range f.sent {
		if msg, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, msg)
		}
	}
	return out
}

func (f *fakeAPI) texts() []string {
	var out []string
	for _, msg := range f.messages() {
		out = append(out, msg.Text)
	}
	return out
}

func (f *fakeAPI) callbackAnswers() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []string
	for _, c := range f.requests {
		if cb, ok := c.(tgbotapi.CallbackConfig); ok {
			out = append(out, cb.Text)
		}
	}
	return out
}

func (f *fakeAPI) markupEdits() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, c := range f.requests {
		if _, ok := c.(tgbotapi.EditMessageReplyMarkupConfig); ok {
			n++
		}
	}
	return n
}

type fakeRegistration struct {
	attendees  map[string]*models.Attendee
	registered []*registration.RegisterInput
	touched    []string
	types      []registration.TypeProgress
}

func (f *fakeRegistration) Register(_ context.Context, input *registration.RegisterInput) (*registration.RegisterOutput, error) {
	f.registered = append(f.registered, input)
	a := &models.Attendee{
		ID:          models.AttendeeIDForTransport(input.TransportID),
		TransportID: input.TransportID,
		FullName:    input.FullName,
		Phone:       input.Phone,
		Status:      models.AttendeeStatusActive,
	}
	f.attendees[input.TransportID] = a
	return &registration.RegisterOutput{Attendee: a, Created: true}, nil
}

func (f *fakeRegistration) Lookup(_ context.Context, input *registration.LookupInput) (*models.Attendee, error) {
	a, ok := f.attendees[input.TransportID]
	if !ok {
		return nil, registration.ErrNotRegistered
	}
	return a, nil
}

func (f *fakeRegistration) Touch(_ context.Context, input *registration.TouchInput) error {
	f.touched = append(f.touched, input.TransportID)
	return nil
}

func (f *fakeRegistration) Welcome(context.Context, *registration.WelcomeInput) (*registration.WelcomeOutput, error) {
	return &registration.WelcomeOutput{Types: f.types}, nil
}

type fakeRSVP struct {
	responses    []*rsvp.RespondInput
	chosen       []*rsvp.ChooseAlternativeInput
	alternatives []*models.Session
	err          error
}

func (f *fakeRSVP) Respond(_ context.Context, input *rsvp.RespondInput) (*rsvp.RespondOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.responses = append(f.responses, input)
	out := &rsvp.RespondOutput{
		Session: &models.Session{ID: input.SessionID},
		RSVP:    &models.RSVP{SessionID: input.SessionID, AttendeeID: input.AttendeeID, Response: input.Response},
	}
	if input.Response == models.RSVPDeclined {
		out.Alternatives = f.alternatives
	}
	return out, nil
}

func (f *fakeRSVP) ChooseAlternative(_ context.Context, input *rsvp.ChooseAlternativeInput) (*rsvp.RespondOutput, error) {
	f.chosen = append(f.chosen, input)
	return &rsvp.RespondOutput{Session: &models.Session{ID: input.SessionID}}, nil
}

type fakeEscalation struct {
	stars    []*escalation.SubmitStarsInput
	comments []*escalation.SubmitCommentInput
	owner    string
}

func (f *fakeEscalation) SubmitStars(_ context.Context, input *escalation.SubmitStarsInput) (*escalation.SubmitOutput, error) {
	if input.Stars < 1 || input.Stars > 5 {
		return nil, escalation.ErrInvalidStars
	}
	f.stars = append(f.stars, input)
	return &escalation.SubmitOutput{Feedback: &models.Feedback{Stars: input.Stars}}, nil
}

func (f *fakeEscalation) SubmitComment(_ context.Context, input *escalation.SubmitCommentInput) (*escalation.SubmitOutput, error) {
	if input.Comment == "" {
		return nil, escalation.ErrEmptyComment
	}
	f.comments = append(f.comments, input)
	return &escalation.SubmitOutput{Feedback: &models.Feedback{Comment: input.Comment}}, nil
}

func (f *fakeEscalation) Claim(_ context.Context, input *escalation.ClaimInput) (*escalation.ClaimOutput, error) {
	if f.owner != "" && f.owner != input.Owner {
		return &escalation.ClaimOutput{Owner: f.owner}, escalation.ErrAlreadyClaimed
	}
	f.owner = input.Owner
	return &escalation.ClaimOutput{Owner: f.owner}, nil
}

type fakeAdmin struct {
	password string
	granted  map[string]bool
	types    []*models.SessionType
	sessions map[string]*models.Session
	created  []*admin.CreateSessionInput
	updated  []*admin.UpdateSessionInput
	history  []*models.DeliveryLogEntry
	queried  []*admin.HistoryInput
}

func (f *fakeAdmin) GrantAccess(_ context.Context, input *admin.GrantAccessInput) (*models.AdminGrant, error) {
	if input.Password != f.password {
		return nil, admin.ErrBadPassword
	}
	f.granted[input.TransportID] = true
	return &models.AdminGrant{TransportID: input.TransportID}, nil
}

func (f *fakeAdmin) CheckAccess(_ context.Context, input *admin.CheckAccessInput) error {
	if !f.granted[input.TransportID] {
		return admin.ErrAccessDenied
	}
	return nil
}

func (f *fakeAdmin) RevokeAccess(_ context.Context, input *admin.RevokeAccessInput) error {
	delete(f.granted, input.TransportID)
	return nil
}

func (f *fakeAdmin) History(ctx context.Context, input *admin.HistoryInput) (*admin.HistoryOutput, error) {
	if err := f.CheckAccess(ctx, &admin.CheckAccessInput{TransportID: input.AdminID}); err != nil {
		return nil, err
	}
	f.queried = append(f.queried, input)

	out := &admin.HistoryOutput{}
	for _, e := range f.history {
		if (input.SessionID != "" && e.SessionID == input.SessionID) ||
			(input.SessionID == "" && e.AttendeeID == input.AttendeeID) {
			out.Entries = append(out.Entries, e)
		}
	}
	out.Total = len(out.Entries)
	return out, nil
}

func (f *fakeAdmin) ListSessionTypes(ctx context.Context, input *admin.ListSessionTypesInput) ([]*models.SessionType, error) {
	if err := f.CheckAccess(ctx, &admin.CheckAccessInput{TransportID: input.AdminID}); err != nil {
		return nil, err
	}
	return f.types, nil
}

func (f *fakeAdmin) CreateSession(_ context.Context, input *admin.CreateSessionInput) (*admin.CreateSessionOutput, error) {
	f.created = append(f.created, input)
	sess := &models.Session{
		ID:          "ev_new",
		TypeCode:    input.TypeCode,
		Title:       input.Title,
		Description: input.Description,
		StartAt:     input.StartAt,
		DurationMin: input.DurationMin,
		Link:        input.Link,
	}
	f.sessions[sess.ID] = sess
	return &admin.CreateSessionOutput{Session: sess}, nil
}

func (f *fakeAdmin) ListSessions(_ context.Context, input *admin.ListSessionsInput) (*admin.ListSessionsOutput, error) {
	out := &admin.ListSessionsOutput{Pages: 1}
	for _, sess := range f.sessions {
		out.Sessions = append(out.Sessions, sess)
	}
	out.Total = len(out.Sessions)
	return out, nil
}

func (f *fakeAdmin) GetSession(_ context.Context, input *admin.GetSessionInput) (*models.Session, error) {
	sess, ok := f.sessions[input.SessionID]
	if !ok {
		return nil, admin.ErrSessionNotFound
	}
	return sess, nil
}

func (f *fakeAdmin) UpdateSession(_ context.Context, input *admin.UpdateSessionInput) (*admin.UpdateSessionOutput, error) {
	if !f.granted[input.AdminID] {
		return nil, admin.ErrAccessDenied
	}
	if input.Field == models.SessionFieldDuration {
		if _, err := admin.ParseDuration(input.Value); err != nil {
			return nil, err
		}
	}
	f.updated = append(f.updated, input)
	return &admin.UpdateSessionOutput{Session: f.sessions[input.SessionID]}, nil
}

func (f *fakeAdmin) CancelSession(_ context.Context, input *admin.CancelSessionInput) (*admin.CancelSessionOutput, error) {
	if _, ok := f.sessions[input.SessionID]; !ok {
		return nil, admin.ErrSessionNotFound
	}
	delete(f.sessions, input.SessionID)
	return &admin.CancelSessionOutput{}, nil
}
