package dispatch

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/KirkDiggler/conferencebot/internal/callback"
	"github.com/KirkDiggler/conferencebot/internal/common/clock/mocks"
	"github.com/KirkDiggler/conferencebot/internal/messenger"
	messengerMocks "github.com/KirkDiggler/conferencebot/internal/messenger/mocks"
	"github.com/KirkDiggler/conferencebot/internal/models"
	"github.com/KirkDiggler/conferencebot/internal/repositories/attendance"
	"github.com/KirkDiggler/conferencebot/internal/repositories/attendee"
	"github.com/KirkDiggler/conferencebot/internal/repositories/delivery_ledger"
	"github.com/KirkDiggler/conferencebot/internal/repositories/notice"
	"github.com/KirkDiggler/conferencebot/internal/repositories/rsvp"
	"github.com/KirkDiggler/conferencebot/internal/repositories/session"
	"github.com/KirkDiggler/conferencebot/internal/repositories/template"
	"github.com/KirkDiggler/conferencebot/internal/services/messaging"
	"github.com/KirkDiggler/conferencebot/internal/services/schedule"
)

type DispatchServiceTestSuite struct {
	suite.Suite
	mockCtrl      *gomock.Controller
	mockClock     *mocks.MockClock
	mockMessenger *messengerMocks.MockMessenger
	mr            *miniredis.Miniredis
	client        *redis.Client

	sessionRepo    session.Repository
	attendeeRepo   attendee.Repository
	rsvpRepo       rsvp.Repository
	attendanceRepo attendance.Repository
	ledgerRepo     delivery_ledger.Repository
	noticeRepo     notice.Repository
	codec          *callback.Codec

	service Service
	ctx     context.Context

	now      time.Time
	start    time.Time
	mu       sync.Mutex
	sent     []*messenger.SendInput
	failures map[string]error
}

func (s *DispatchServiceTestSuite) SetupTest() {
	s.mockCtrl = gomock.NewController(s.T())
	s.mockClock = mocks.NewMockClock(s.mockCtrl)
	s.mockMessenger = messengerMocks.NewMockMessenger(s.mockCtrl)
	s.ctx = context.Background()

	mr, err := miniredis.Run()
	s.Require().NoError(err)
	s.mr = mr
	s.client = redis.NewClient(&redis.Options{Addr: mr.Addr()})

	s.start = time.Date(2025, 10, 5, 15, 0, 0, 0, time.UTC)
	s.now = s.start.Add(-25 * time.Hour)
	s.sent = nil
	s.failures = map[string]error{}

	s.mockClock.EXPECT().Now().DoAndReturn(func() time.Time {
		return s.now
	}).AnyTimes()

	s.mockMessenger.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, input *messenger.SendInput) (*messenger.SendOutput, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			if err, ok := s.failures[input.Recipient]; ok {
				return nil, err
			}
			s.sent = append(s.sent, input)
			return &messenger.SendOutput{MessageID: "m1"}, nil
		}).AnyTimes()

	sessionRepo, err := session.NewRedis(&session.Config{RedisClient: s.client})
	s.Require().NoError(err)
	s.sessionRepo = sessionRepo

	attendeeRepo, err := attendee.NewRedis(&attendee.Config{RedisClient: s.client})
	s.Require().NoError(err)
	s.attendeeRepo = attendeeRepo

	rsvpRepo, err := rsvp.NewRedis(&rsvp.Config{RedisClient: s.client})
	s.Require().NoError(err)
	s.rsvpRepo = rsvpRepo

	attendanceRepo, err := attendance.NewRedis(&attendance.Config{RedisClient: s.client})
	s.Require().NoError(err)
	s.attendanceRepo = attendanceRepo

	ledgerRepo, err := delivery_ledger.NewRedis(&delivery_ledger.Config{RedisClient: s.client})
	s.Require().NoError(err)
	s.ledgerRepo = ledgerRepo

	noticeRepo, err := notice.NewRedis(&notice.Config{RedisClient: s.client, Clock: s.mockClock})
	s.Require().NoError(err)
	s.noticeRepo = noticeRepo

	templateRepo, err := template.NewRedis(&template.Config{RedisClient: s.client})
	s.Require().NoError(err)

	messagingService, err := messaging.NewService(&messaging.ServiceConfig{
		TemplateRepo: templateRepo,
		Logger:       zerolog.Nop(),
	})
	s.Require().NoError(err)

	evaluator, err := schedule.New(&schedule.Config{
		Tolerance:     60 * time.Second,
		TickInterval:  60 * time.Second,
		InviteLead:    25 * time.Hour,
		FeedbackDelay: 2 * time.Hour,
	})
	s.Require().NoError(err)

	codec, err := callback.New(&callback.Config{
		Secret: "test-secret",
		TTL:    30 * 24 * time.Hour,
		Clock:  s.mockClock,
	})
	s.Require().NoError(err)
	s.codec = codec

	svc, err := NewService(&ServiceConfig{
		SessionRepo:    s.sessionRepo,
		AttendeeRepo:   s.attendeeRepo,
		RSVPRepo:       s.rsvpRepo,
		AttendanceRepo: s.attendanceRepo,
		LedgerRepo:     s.ledgerRepo,
		NoticeRepo:     s.noticeRepo,
		Evaluator:      evaluator,
		Messenger:      s.mockMessenger,
		Messaging:      messagingService,
		Codec:          codec,
		Clock:          s.mockClock,
		SendTimeout:    time.Second,
		Logger:         zerolog.Nop(),
	})
	s.Require().NoError(err)
	s.service = svc
}

func (s *DispatchServiceTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
	s.client.Close()
	s.mr.Close()
}

func TestDispatchServiceSuite(t *testing.T) {
	suite.Run(t, new(DispatchServiceTestSuite))
}

func (s *DispatchServiceTestSuite) addAttendee(transportID, name string) *models.Attendee {
	a := &models.Attendee{
		ID:           models.AttendeeIDForTransport(transportID),
		TransportID:  transportID,
		FullName:     name,
		Phone:        "380671234567",
		Status:       models.AttendeeStatusActive,
		RegisteredAt: s.now,
	}
	s.Require().NoError(s.attendeeRepo.SaveAttendee(s.ctx, &attendee.SaveAttendeeInput{Attendee: a}))
	return a
}

func (s *DispatchServiceTestSuite) newSession(id string, typeCode int, start time.Time) *models.Session {
	return &models.Session{
		ID:          id,
		TypeCode:    typeCode,
		Title:       "Onboarding " + id,
		Description: "Welcome call",
		StartAt:     start,
		DurationMin: 60,
		Link:        "https://meet.example.com/" + id,
		CreatedBy:   "admin:1",
		CreatedAt:   s.now,
	}
}

func (s *DispatchServiceTestSuite) respond(sessionID, attendeeID string, response models.RSVPResponse) {
	_, err := s.rsvpRepo.UpsertRSVP(s.ctx, &rsvp.UpsertRSVPInput{
		SessionID:  sessionID,
		AttendeeID: attendeeID,
		Response:   &response,
		At:         s.now,
	})
	s.Require().NoError(err)

	if response == models.RSVPGoing {
		s.Require().NoError(s.attendanceRepo.Mark(s.ctx, &attendance.MarkInput{
			SessionID:  sessionID,
			AttendeeID: attendeeID,
			Attended:   true,
			At:         s.now,
		}))
	}
}

func (s *DispatchServiceTestSuite) sentTo(recipient string) []*messenger.SendInput {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*messenger.SendInput
	for _, in := range s.sent {
		if in.Recipient == recipient {
			out = append(out, in)
		}
	}
	return out
}

func (s *DispatchServiceTestSuite) resetSent() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = nil
}

func (s *DispatchServiceTestSuite) pendingNotices() []*models.PendingNotice {
	out, err := s.noticeRepo.ListNotices(s.ctx, &notice.ListNoticesInput{})
	s.Require().NoError(err)
	return out.Notices
}

func (s *DispatchServiceTestSuite) exists(action models.DeliveryAction, attendeeID, sessionID string) bool {
	ok, err := s.ledgerRepo.Exists(s.ctx, &delivery_ledger.ExistsInput{
		Action:     action,
		AttendeeID: attendeeID,
		SessionID:  sessionID,
	})
	s.Require().NoError(err)
	return ok
}

func (s *DispatchServiceTestSuite) TestNewServiceValidation() {
	_, err := NewService(nil)
	s.ErrorIs(err, ErrNilConfig)

	_, err = NewService(&ServiceConfig{})
	s.ErrorIs(err, ErrNilSessionRepo)

	_, err = NewService(&ServiceConfig{
		SessionRepo:    s.sessionRepo,
		AttendeeRepo:   s.attendeeRepo,
		RSVPRepo:       s.rsvpRepo,
		AttendanceRepo: s.attendanceRepo,
		LedgerRepo:     s.ledgerRepo,
	})
	s.ErrorIs(err, ErrNilNoticeRepo)

	_, err = NewService(&ServiceConfig{
		SessionRepo:    s.sessionRepo,
		AttendeeRepo:   s.attendeeRepo,
		RSVPRepo:       s.rsvpRepo,
		AttendanceRepo: s.attendanceRepo,
		LedgerRepo:     s.ledgerRepo,
		NoticeRepo:     s.noticeRepo,
	})
	s.ErrorIs(err, ErrNilEvaluator)
}

func (s *DispatchServiceTestSuite) TestInviteSentAtMostOnce() {
	s.addAttendee("101", "Olena Petrenko")
	s.addAttendee("102", "Taras Shevchuk")

	out, err := s.service.OnSessionCreated(s.ctx, &OnSessionCreatedInput{
		Session: s.newSession("ev_1", 1, s.start),
	})
	s.Require().NoError(err)
	s.Equal(2, out.Invited)

	invites := s.sentTo("101")
	s.Require().Len(invites, 2)
	s.Equal("Invitation: Onboarding ev_1", invites[0].Text)
	s.Contains(invites[1].Text, "Olena Petrenko")
	s.Require().Len(invites[1].Buttons, 3)

	payload, err := s.codec.Decode(invites[1].Buttons[0][0].Data)
	s.Require().NoError(err)
	s.Equal(callback.ActionGoing, payload.Action)
	s.Equal("ev_1", payload.SessionID)
	s.Equal("cl_101", payload.AttendeeID)

	for i := 1; i <= 3; i++ {
		s.now = s.start.Add(-25 * time.Hour).Add(time.Duration(i) * time.Minute)
		_, err := s.service.Tick(s.ctx)
		s.Require().NoError(err)
	}

	s.Len(s.sentTo("101"), 2)
	s.Len(s.sentTo("102"), 2)
	s.True(s.exists(models.ActionInviteSent, "cl_101", "ev_1"))

	entries, err := s.ledgerRepo.GetEntriesForAttendee(s.ctx, &delivery_ledger.GetEntriesForAttendeeInput{AttendeeID: "cl_101"})
	s.Require().NoError(err)
	invitesLogged := 0
	for _, e := range entries.Entries {
		if e.Action == models.ActionInviteSent {
			invitesLogged++
		}
	}
	s.Equal(1, invitesLogged)

	rec, err := s.rsvpRepo.GetRSVP(s.ctx, &rsvp.GetRSVPInput{SessionID: "ev_1", AttendeeID: "cl_101"})
	s.Require().NoError(err)
	s.Equal(models.RSVPUnset, rec.Response)
}

func (s *DispatchServiceTestSuite) TestInviteWaitsForWindow() {
	s.addAttendee("101", "Olena Petrenko")

	s.now = s.start.Add(-30 * time.Hour)
	out, err := s.service.OnSessionCreated(s.ctx, &OnSessionCreatedInput{
		Session: s.newSession("ev_1", 1, s.start),
	})
	s.Require().NoError(err)
	s.Equal(0, out.Invited)

	_, err = s.service.Tick(s.ctx)
	s.Require().NoError(err)
	s.Empty(s.sentTo("101"))

	s.now = s.start.Add(-25 * time.Hour)
	tick, err := s.service.Tick(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, tick.Sent)
	s.Len(s.sentTo("101"), 2)
}

func (s *DispatchServiceTestSuite) TestInviteSkipsAttendeesWhoAttendedType() {
	s.addAttendee("101", "Olena Petrenko")
	s.addAttendee("102", "Taras Shevchuk")

	past := s.newSession("ev_past", 1, s.now.Add(-72*time.Hour))
	s.Require().NoError(s.sessionRepo.SaveSession(s.ctx, &session.SaveSessionInput{Session: past}))
	s.respond("ev_past", "cl_101", models.RSVPGoing)

	_, err := s.service.OnSessionCreated(s.ctx, &OnSessionCreatedInput{
		Session: s.newSession("ev_1", 1, s.start),
	})
	s.Require().NoError(err)

	s.Empty(s.sentTo("101"))
	s.Len(s.sentTo("102"), 2)
}

func (s *DispatchServiceTestSuite) TestInviteOnlyEarliestSessionOfType() {
	s.addAttendee("101", "Olena Petrenko")

	early := s.newSession("ev_early", 1, s.now.Add(2*time.Hour))
	late := s.newSession("ev_late", 1, s.now.Add(3*time.Hour))

	_, err := s.service.OnSessionCreated(s.ctx, &OnSessionCreatedInput{Session: early})
	s.Require().NoError(err)
	_, err = s.service.OnSessionCreated(s.ctx, &OnSessionCreatedInput{Session: late})
	s.Require().NoError(err)

	s.now = s.now.Add(time.Minute)
	_, err = s.service.Tick(s.ctx)
	s.Require().NoError(err)

	s.True(s.exists(models.ActionInviteSent, "cl_101", "ev_early"))
	s.False(s.exists(models.ActionInviteSent, "cl_101", "ev_late"))
	s.Len(s.sentTo("101"), 2)
}

func (s *DispatchServiceTestSuite) TestInviteSkipsActiveRSVPOnSameType() {
	s.addAttendee("101", "Olena Petrenko")

	_, err := s.service.OnSessionCreated(s.ctx, &OnSessionCreatedInput{
		Session: s.newSession("ev_1", 1, s.start),
	})
	s.Require().NoError(err)
	s.Len(s.sentTo("101"), 2)

	// The unset RSVP of the first invite holds the seat once a new
	// session of the type becomes the earliest
	s.now = s.start.Add(time.Minute)
	_, err = s.service.OnSessionCreated(s.ctx, &OnSessionCreatedInput{
		Session: s.newSession("ev_2", 1, s.now.Add(2*time.Hour)),
	})
	s.Require().NoError(err)
	s.Len(s.sentTo("101"), 4, "previous session already started")

	s.resetSent()
	_, err = s.service.OnSessionCreated(s.ctx, &OnSessionCreatedInput{
		Session: s.newSession("ev_3", 2, s.now.Add(2*time.Hour)),
	})
	s.Require().NoError(err)
	s.Len(s.sentTo("101"), 2)

	_, err = s.service.OnSessionCreated(s.ctx, &OnSessionCreatedInput{
		Session: s.newSession("ev_4", 2, s.now.Add(90*time.Minute)),
	})
	s.Require().NoError(err)
	s.Len(s.sentTo("101"), 2, "unset rsvp on ev_3 is active")
}

func (s *DispatchServiceTestSuite) TestScenarioInviteGoingReminder() {
	s.addAttendee("101", "Olena Petrenko")

	// Created at T-25h
	out, err := s.service.OnSessionCreated(s.ctx, &OnSessionCreatedInput{
		Session: s.newSession("ev_1", 1, s.start),
	})
	s.Require().NoError(err)
	s.Equal(1, out.Invited)

	s.respond("ev_1", "cl_101", models.RSVPGoing)
	s.resetSent()

	rec, err := s.attendanceRepo.Get(s.ctx, &attendance.GetInput{SessionID: "ev_1", AttendeeID: "cl_101"})
	s.Require().NoError(err)
	s.True(rec.Attended)

	// T-24h
	s.now = s.start.Add(-24 * time.Hour)
	_, err = s.service.Tick(s.ctx)
	s.Require().NoError(err)

	reminders := s.sentTo("101")
	s.Require().Len(reminders, 1)
	s.True(strings.HasPrefix(reminders[0].Text, "🔔 Reminder: Onboarding ev_1"))

	r, err := s.rsvpRepo.GetRSVP(s.ctx, &rsvp.GetRSVPInput{SessionID: "ev_1", AttendeeID: "cl_101"})
	s.Require().NoError(err)
	s.True(r.Reminded24h)
	s.False(r.Reminded60m)

	// T-24h+10s
	s.now = s.start.Add(-24*time.Hour + 10*time.Second)
	_, err = s.service.Tick(s.ctx)
	s.Require().NoError(err)
	s.Len(s.sentTo("101"), 1)
}

func (s *DispatchServiceTestSuite) TestReminderAudiences() {
	going := s.addAttendee("101", "Going")
	remind := s.addAttendee("102", "Remind")
	declined := s.addAttendee("103", "Declined")

	// Everyone is invited at T-25h and answers
	sess := s.newSession("ev_1", 1, s.start)
	_, err := s.service.OnSessionCreated(s.ctx, &OnSessionCreatedInput{Session: sess})
	s.Require().NoError(err)
	s.resetSent()

	s.respond("ev_1", going.ID, models.RSVPGoing)
	s.respond("ev_1", remind.ID, models.RSVPRemindMe)
	yes := true
	_, err = s.rsvpRepo.UpsertRSVP(s.ctx, &rsvp.UpsertRSVPInput{SessionID: "ev_1", AttendeeID: remind.ID, Remind24h: &yes, At: s.now})
	s.Require().NoError(err)
	s.respond("ev_1", declined.ID, models.RSVPDeclined)

	s.now = s.start.Add(-24 * time.Hour)
	_, err = s.service.Tick(s.ctx)
	s.Require().NoError(err)

	s.Len(s.sentTo("101"), 1)
	s.Len(s.sentTo("102"), 1)
	s.Empty(s.sentTo("103"))

	s.resetSent()
	s.now = s.start.Add(-60*time.Minute + 30*time.Second)
	_, err = s.service.Tick(s.ctx)
	s.Require().NoError(err)

	s.Len(s.sentTo("101"), 1)
	s.Empty(s.sentTo("102"))
	s.Empty(s.sentTo("103"))
	s.True(s.exists(models.ActionRemind60mSent, going.ID, "ev_1"))
}

func (s *DispatchServiceTestSuite) TestReminderFlagsAreMonotonic() {
	a := s.addAttendee("101", "Olena Petrenko")

	sess := s.newSession("ev_1", 1, s.start)
	s.now = s.start.Add(-48 * time.Hour)
	_, err := s.service.OnSessionCreated(s.ctx, &OnSessionCreatedInput{Session: sess})
	s.Require().NoError(err)
	s.respond("ev_1", a.ID, models.RSVPGoing)

	s.now = s.start.Add(-24*time.Hour - 30*time.Second)
	_, err = s.service.Tick(s.ctx)
	s.Require().NoError(err)

	// A new going response and a title edit keep the flag set
	s.respond("ev_1", a.ID, models.RSVPGoing)
	sess.Title = "Renamed"
	_, err = s.service.OnSessionUpdated(s.ctx, &OnSessionUpdatedInput{
		Session: sess,
		Field:   models.SessionFieldTitle,
		Value:   "Renamed",
	})
	s.Require().NoError(err)

	s.now = s.start.Add(-24*time.Hour + 30*time.Second)
	_, err = s.service.Tick(s.ctx)
	s.Require().NoError(err)

	r, err := s.rsvpRepo.GetRSVP(s.ctx, &rsvp.GetRSVPInput{SessionID: "ev_1", AttendeeID: a.ID})
	s.Require().NoError(err)
	s.True(r.Reminded24h)

	reminders := 0
	for _, in := range s.sentTo("101") {
		if strings.HasPrefix(in.Text, "🔔 Reminder") {
			reminders++
		}
	}
	s.Equal(1, reminders)
}

func (s *DispatchServiceTestSuite) TestRescheduleClearsReminders() {
	a := s.addAttendee("101", "Olena Petrenko")

	sess := s.newSession("ev_1", 1, s.start)
	s.now = s.start.Add(-48 * time.Hour)
	_, err := s.service.OnSessionCreated(s.ctx, &OnSessionCreatedInput{Session: sess})
	s.Require().NoError(err)
	s.respond("ev_1", a.ID, models.RSVPGoing)

	s.now = s.start.Add(-24 * time.Hour)
	_, err = s.service.Tick(s.ctx)
	s.Require().NoError(err)
	s.resetSent()

	newStart := s.start.Add(48 * time.Hour)
	sess.StartAt = newStart
	out, err := s.service.OnSessionUpdated(s.ctx, &OnSessionUpdatedInput{
		Session: sess,
		Field:   models.SessionFieldStartAt,
		Value:   newStart.Format(models.SessionTimeLayout),
	})
	s.Require().NoError(err)
	s.Equal(1, out.Notified)

	notices := s.sentTo("101")
	s.Require().Len(notices, 1)
	s.Contains(notices[0].Text, "changed date and time")

	r, err := s.rsvpRepo.GetRSVP(s.ctx, &rsvp.GetRSVPInput{SessionID: "ev_1", AttendeeID: a.ID})
	s.Require().NoError(err)
	s.False(r.Reminded24h)

	s.resetSent()
	s.now = newStart.Add(-24 * time.Hour)
	_, err = s.service.Tick(s.ctx)
	s.Require().NoError(err)
	s.Len(s.sentTo("101"), 1)
}

func (s *DispatchServiceTestSuite) TestCancellationSideEffects() {
	sess := s.newSession("ev_1", 1, s.start)
	s.now = s.start.Add(-48 * time.Hour)
	_, err := s.service.OnSessionCreated(s.ctx, &OnSessionCreatedInput{Session: sess})
	s.Require().NoError(err)

	for _, id := range []string{"101", "102", "103"} {
		a := s.addAttendee(id, "Attendee "+id)
		s.respond("ev_1", a.ID, models.RSVPGoing)
	}
	declined := s.addAttendee("104", "Declined")
	s.respond("ev_1", declined.ID, models.RSVPDeclined)

	out, err := s.service.OnSessionCancelled(s.ctx, &OnSessionCancelledInput{SessionID: "ev_1"})
	s.Require().NoError(err)
	s.Equal(3, out.Notified)
	s.Equal(3, out.AttendanceReset)

	for _, id := range []string{"101", "102", "103"} {
		notices := s.sentTo(id)
		s.Require().Len(notices, 1)
		s.Equal("❌ Onboarding ev_1 is cancelled. We will send a new date soon.", notices[0].Text)
	}
	s.Empty(s.sentTo("104"))

	records, err := s.attendanceRepo.ListForSession(s.ctx, &attendance.ListForSessionInput{SessionID: "ev_1", AttendedOnly: true})
	s.Require().NoError(err)
	s.Empty(records.Records)

	_, err = s.sessionRepo.GetSession(s.ctx, &session.GetSessionInput{SessionID: "ev_1"})
	s.ErrorIs(err, session.ErrSessionNotFound)

	due, err := s.sessionRepo.GetDueDeadlines(s.ctx, &session.GetDueDeadlinesInput{Until: s.start.Add(72 * time.Hour)})
	s.Require().NoError(err)
	s.Empty(due.Deadlines)

	s.True(s.exists(models.ActionSessionCanceled, "", "ev_1"))

	_, err = s.service.OnSessionCancelled(s.ctx, &OnSessionCancelledInput{SessionID: "ev_1"})
	s.ErrorIs(err, session.ErrSessionNotFound)
}

func (s *DispatchServiceTestSuite) TestPermanentFailureDeactivatesAttendee() {
	s.addAttendee("101", "Blocked")
	s.failures["101"] = messenger.ErrBlocked

	_, err := s.service.OnSessionCreated(s.ctx, &OnSessionCreatedInput{
		Session: s.newSession("ev_1", 1, s.start),
	})
	s.Require().NoError(err)

	a, err := s.attendeeRepo.GetAttendee(s.ctx, &attendee.GetAttendeeInput{AttendeeID: "cl_101"})
	s.Require().NoError(err)
	s.Equal(models.AttendeeStatusInactive, a.Status)
	s.True(s.exists(models.ActionDeliveryFailed, "cl_101", "ev_1"))
	s.False(s.exists(models.ActionInviteSent, "cl_101", "ev_1"))

	delete(s.failures, "101")
	s.now = s.now.Add(time.Minute)
	_, err = s.service.Tick(s.ctx)
	s.Require().NoError(err)
	s.Empty(s.sentTo("101"))
}

func (s *DispatchServiceTestSuite) TestTransientFailureRetriesNextTick() {
	s.addAttendee("101", "Flaky")
	s.failures["101"] = errors.Join(messenger.ErrTransient, errors.New("429"))

	s.now = s.start.Add(-26 * time.Hour)
	_, err := s.service.OnSessionCreated(s.ctx, &OnSessionCreatedInput{
		Session: s.newSession("ev_1", 1, s.start),
	})
	s.Require().NoError(err)

	s.now = s.start.Add(-25 * time.Hour)
	out, err := s.service.Tick(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, out.Retry)
	s.False(s.exists(models.ActionInviteSent, "cl_101", "ev_1"))
	s.False(s.exists(models.ActionDeliveryFailed, "cl_101", "ev_1"))

	a, err := s.attendeeRepo.GetAttendee(s.ctx, &attendee.GetAttendeeInput{AttendeeID: "cl_101"})
	s.Require().NoError(err)
	s.Equal(models.AttendeeStatusActive, a.Status)

	delete(s.failures, "101")
	s.now = s.now.Add(time.Minute)
	_, err = s.service.Tick(s.ctx)
	s.Require().NoError(err)
	s.Len(s.sentTo("101"), 2)
	s.True(s.exists(models.ActionInviteSent, "cl_101", "ev_1"))
}

func (s *DispatchServiceTestSuite) TestFeedbackAskedOncePerSession() {
	attended := s.addAttendee("101", "Attended")
	s.addAttendee("102", "Absent")

	sess := s.newSession("ev_1", 1, s.start)
	s.now = s.start.Add(-48 * time.Hour)
	_, err := s.service.OnSessionCreated(s.ctx, &OnSessionCreatedInput{Session: sess})
	s.Require().NoError(err)
	s.respond("ev_1", attended.ID, models.RSVPGoing)

	// End is start+60m, feedback target two hours later
	s.now = s.start.Add(3 * time.Hour)
	s.resetSent()
	_, err = s.service.Tick(s.ctx)
	s.Require().NoError(err)

	asks := s.sentTo("101")
	s.Require().Len(asks, 1)
	s.Require().Len(asks[0].Buttons, 2)
	s.Len(asks[0].Buttons[0], 5)

	payload, err := s.codec.Decode(asks[0].Buttons[0][2].Data)
	s.Require().NoError(err)
	s.Equal(callback.ActionStars, payload.Action)
	s.Equal("3", payload.Value)

	s.Empty(s.sentTo("102"))
	s.True(s.exists(models.ActionFeedbackRequested, "", "ev_1"))

	s.now = s.now.Add(30 * time.Second)
	_, err = s.service.Tick(s.ctx)
	s.Require().NoError(err)
	s.Len(s.sentTo("101"), 1)
}

func (s *DispatchServiceTestSuite) TestClosedWindowIsPruned() {
	a := s.addAttendee("101", "Olena Petrenko")

	sess := s.newSession("ev_1", 1, s.start)
	s.now = s.start.Add(-48 * time.Hour)
	_, err := s.service.OnSessionCreated(s.ctx, &OnSessionCreatedInput{Session: sess})
	s.Require().NoError(err)
	s.respond("ev_1", a.ID, models.RSVPGoing)

	// The process was down through the 24h window
	s.now = s.start.Add(-23 * time.Hour)
	s.resetSent()
	out, err := s.service.Tick(s.ctx)
	s.Require().NoError(err)
	s.GreaterOrEqual(out.Pruned, 1)
	s.Empty(s.sentTo("101"))
	s.True(s.exists(models.ActionDeadlineMissed, "", "ev_1"))
}

func (s *DispatchServiceTestSuite) TestOnAttendeeRegisteredInvitesNewcomer() {
	_, err := s.service.OnSessionCreated(s.ctx, &OnSessionCreatedInput{
		Session: s.newSession("ev_1", 1, s.start),
	})
	s.Require().NoError(err)

	a := s.addAttendee("101", "Newcomer")
	out, err := s.service.OnAttendeeRegistered(s.ctx, &OnAttendeeRegisteredInput{AttendeeID: a.ID})
	s.Require().NoError(err)
	s.Equal(1, out.Invited)
	s.Len(s.sentTo("101"), 2)

	out, err = s.service.OnAttendeeRegistered(s.ctx, &OnAttendeeRegisteredInput{AttendeeID: a.ID})
	s.Require().NoError(err)
	s.Equal(0, out.Invited)
}

func (s *DispatchServiceTestSuite) TestCancelNoticeRedeliveredAfterTransientFailure() {
	sess := s.newSession("ev_1", 1, s.start)
	s.now = s.start.Add(-48 * time.Hour)
	_, err := s.service.OnSessionCreated(s.ctx, &OnSessionCreatedInput{Session: sess})
	s.Require().NoError(err)

	for _, id := range []string{"101", "102", "103"} {
		a := s.addAttendee(id, "Attendee "+id)
		s.respond("ev_1", a.ID, models.RSVPGoing)
	}
	s.failures["101"] = errors.Join(messenger.ErrTransient, errors.New("429"))

	out, err := s.service.OnSessionCancelled(s.ctx, &OnSessionCancelledInput{SessionID: "ev_1"})
	s.Require().NoError(err)
	s.Equal(2, out.Notified)
	s.Equal(1, out.Pending)
	s.Empty(s.sentTo("101"))
	s.False(s.exists(models.ActionCancelNoticeSent, "cl_101", "ev_1"))

	pending := s.pendingNotices()
	s.Require().Len(pending, 1)
	s.Equal("cl_101", pending[0].AttendeeID)
	s.Equal(1, pending[0].Attempts)

	// Still failing: the notice stays queued
	s.now = s.now.Add(time.Minute)
	tick, err := s.service.Tick(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, tick.Retry)
	s.Require().Len(s.pendingNotices(), 1)
	s.Equal(2, s.pendingNotices()[0].Attempts)

	delete(s.failures, "101")
	s.now = s.now.Add(time.Minute)
	tick, err = s.service.Tick(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, tick.Sent)

	notices := s.sentTo("101")
	s.Require().Len(notices, 1)
	s.Equal("❌ Onboarding ev_1 is cancelled. We will send a new date soon.", notices[0].Text)
	s.True(s.exists(models.ActionCancelNoticeSent, "cl_101", "ev_1"))
	s.Empty(s.pendingNotices())

	// Every attendee who was going got exactly one notice
	s.now = s.now.Add(time.Minute)
	_, err = s.service.Tick(s.ctx)
	s.Require().NoError(err)
	for _, id := range []string{"101", "102", "103"} {
		s.Len(s.sentTo(id), 1)
	}
}

func (s *DispatchServiceTestSuite) TestQueuedNoticeSkipsDeliveredPair() {
	a := s.addAttendee("101", "Olena Petrenko")

	_, err := s.noticeRepo.SaveNotice(s.ctx, &notice.SaveNoticeInput{
		Notice: &models.PendingNotice{
			ID:         "n-1",
			Action:     models.ActionCancelNoticeSent,
			AttendeeID: a.ID,
			SessionID:  "ev_1",
			Text:       "cancelled",
			Once:       true,
		},
	})
	s.Require().NoError(err)

	_, err = s.ledgerRepo.Record(s.ctx, &delivery_ledger.RecordInput{
		Action:     models.ActionCancelNoticeSent,
		AttendeeID: a.ID,
		SessionID:  "ev_1",
		Timestamp:  s.now,
	})
	s.Require().NoError(err)

	_, err = s.service.Tick(s.ctx)
	s.Require().NoError(err)
	s.Empty(s.sentTo("101"))
	s.Empty(s.pendingNotices())
}

func (s *DispatchServiceTestSuite) TestQueuedNoticeDroppedOnPermanentFailure() {
	sess := s.newSession("ev_1", 1, s.start)
	s.now = s.start.Add(-48 * time.Hour)
	_, err := s.service.OnSessionCreated(s.ctx, &OnSessionCreatedInput{Session: sess})
	s.Require().NoError(err)

	a := s.addAttendee("101", "Olena Petrenko")
	s.respond("ev_1", a.ID, models.RSVPGoing)
	s.failures["101"] = errors.Join(messenger.ErrTransient, errors.New("timeout"))

	out, err := s.service.OnSessionUpdated(s.ctx, &OnSessionUpdatedInput{
		Session: sess,
		Field:   models.SessionFieldLink,
		Value:   "https://meet.example.com/new",
	})
	s.Require().NoError(err)
	s.Equal(0, out.Notified)
	s.Equal(1, out.Pending)

	// The attendee blocked the bot in the meantime
	s.failures["101"] = messenger.ErrBlocked
	s.now = s.now.Add(time.Minute)
	tick, err := s.service.Tick(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, tick.Failed)
	s.Empty(s.pendingNotices())

	got, err := s.attendeeRepo.GetAttendee(s.ctx, &attendee.GetAttendeeInput{AttendeeID: a.ID})
	s.Require().NoError(err)
	s.Equal(models.AttendeeStatusInactive, got.Status)
	s.True(s.exists(models.ActionDeliveryFailed, a.ID, "ev_1"))
}

func (s *DispatchServiceTestSuite) TestFeedbackGuardClosesBatchWithTransientFailure() {
	first := s.addAttendee("101", "Attended")
	second := s.addAttendee("102", "Flaky")

	sess := s.newSession("ev_1", 1, s.start)
	s.now = s.start.Add(-48 * time.Hour)
	_, err := s.service.OnSessionCreated(s.ctx, &OnSessionCreatedInput{Session: sess})
	s.Require().NoError(err)
	s.respond("ev_1", first.ID, models.RSVPGoing)
	s.respond("ev_1", second.ID, models.RSVPGoing)

	s.failures["102"] = errors.Join(messenger.ErrTransient, errors.New("502"))

	s.now = s.start.Add(3 * time.Hour)
	s.resetSent()
	out, err := s.service.Tick(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, out.Queued)
	s.Len(s.sentTo("101"), 1)
	s.Empty(s.sentTo("102"))

	// The session-level guard is written even though one ask failed
	s.True(s.exists(models.ActionFeedbackRequested, "", "ev_1"))
	s.False(s.exists(models.ActionFeedbackAskSent, second.ID, "ev_1"))

	delete(s.failures, "102")
	s.now = s.now.Add(30 * time.Second)
	_, err = s.service.Tick(s.ctx)
	s.Require().NoError(err)

	asks := s.sentTo("102")
	s.Require().Len(asks, 1)
	s.Require().Len(asks[0].Buttons, 2)
	s.Len(asks[0].Buttons[0], 5)

	payload, err := s.codec.Decode(asks[0].Buttons[0][4].Data)
	s.Require().NoError(err)
	s.Equal(callback.ActionStars, payload.Action)
	s.Equal(second.ID, payload.AttendeeID)
	s.Equal("5", payload.Value)

	s.True(s.exists(models.ActionFeedbackAskSent, second.ID, "ev_1"))
	s.Len(s.sentTo("101"), 1)
	s.Empty(s.pendingNotices())
}
