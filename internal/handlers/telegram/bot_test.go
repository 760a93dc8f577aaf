package telegram

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/KirkDiggler/conferencebot/internal/callback"
	"github.com/KirkDiggler/conferencebot/internal/common/clock/mocks"
	"github.com/KirkDiggler/conferencebot/internal/models"
	"github.com/KirkDiggler/conferencebot/internal/repositories/template"
	"github.com/KirkDiggler/conferencebot/internal/services/messaging"
	"github.com/KirkDiggler/conferencebot/internal/services/registration"
	"github.com/KirkDiggler/conferencebot/internal/wizard"
)

const (
	userID  int64 = 42
	adminID int64 = 900
)

type BotTestSuite struct {
	suite.Suite
	mockCtrl  *gomock.Controller
	mockClock *mocks.MockClock
	mr        *miniredis.Miniredis
	client    *redis.Client

	api          *fakeAPI
	codec        *callback.Codec
	wizards      *wizard.Registry
	registration *fakeRegistration
	rsvp         *fakeRSVP
	escalation   *fakeEscalation
	admin        *fakeAdmin

	bot *Bot
	ctx context.Context
	now time.Time
}

func (s *BotTestSuite) SetupTest() {
	s.mockCtrl = gomock.NewController(s.T())
	s.mockClock = mocks.NewMockClock(s.mockCtrl)
	s.ctx = context.Background()
	s.now = time.Date(2025, 10, 4, 14, 0, 0, 0, time.UTC)
	s.mockClock.EXPECT().Now().DoAndReturn(func() time.Time { return s.now }).AnyTimes()

	mr, err := miniredis.Run()
	s.Require().NoError(err)
	s.mr = mr
	s.client = redis.NewClient(&redis.Options{Addr: mr.Addr()})

	templates, err := template.NewRedis(&template.Config{RedisClient: s.client})
	s.Require().NoError(err)

	msgs, err := messaging.NewService(&messaging.ServiceConfig{
		TemplateRepo: templates,
		Logger:       zerolog.Nop(),
	})
	s.Require().NoError(err)

	s.codec, err = callback.New(&callback.Config{
		Secret: "test-secret",
		TTL:    24 * time.Hour,
		Clock:  s.mockClock,
	})
	s.Require().NoError(err)

	s.api = newFakeAPI()
	tg, err := NewMessenger(s.api)
	s.Require().NoError(err)

	s.wizards = wizard.NewRegistry()
	s.registration = &fakeRegistration{attendees: map[string]*models.Attendee{}}
	s.rsvp = &fakeRSVP{}
	s.escalation = &fakeEscalation{}
	s.admin = &fakeAdmin{
		password: "s3cret",
		granted:  map[string]bool{},
		types:    []*models.SessionType{{Code: 1, Title: "Intro call", Description: "Meet the team", Active: true}},
		sessions: map[string]*models.Session{},
	}

	s.bot, err = New(&Config{
		API:          s.api,
		Messenger:    tg,
		Messaging:    msgs,
		Codec:        s.codec,
		Wizards:      s.wizards,
		Location:     time.UTC,
		Registration: s.registration,
		RSVP:         s.rsvp,
		Escalation:   s.escalation,
		Admin:        s.admin,
		Logger:       zerolog.Nop(),
	})
	s.Require().NoError(err)
}

func (s *BotTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
	s.client.Close()
	s.mr.Close()
}

func TestBotSuite(t *testing.T) {
	suite.Run(t, new(BotTestSuite))
}

func (s *BotTestSuite) text(from int64, text string) {
	msg := &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: from, UserName: "user"},
		Chat:      &tgbotapi.Chat{ID: from, Type: "private"},
		Text:      text,
	}
	if len(text) > 0 && text[0] == '/' {
		length := len(text)
		for i, r := range text {
			if r == ' ' {
				length = i
				break
			}
		}
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: length}}
	}
	s.bot.HandleUpdate(s.ctx, tgbotapi.Update{Message: msg})
}

func (s *BotTestSuite) press(from int64, payload *callback.Payload) {
	data, err := s.codec.Encode(payload)
	s.Require().NoError(err)
	s.pressRaw(from, data)
}

func (s *BotTestSuite) pressRaw(from int64, data string) {
	s.bot.HandleUpdate(s.ctx, tgbotapi.Update{
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:   "q1",
			From: &tgbotapi.User{ID: from, UserName: "staffer"},
			Message: &tgbotapi.Message{
				MessageID: 55,
				Chat:      &tgbotapi.Chat{ID: from, Type: "private"},
			},
			Data: data,
		},
	})
}

func (s *BotTestSuite) lastText() string {
	texts := s.api.texts()
	s.Require().NotEmpty(texts)
	return texts[len(texts)-1]
}

func def(key string) string {
	text, _ := messaging.Default(key)
	return text
}

func (s *BotTestSuite) registerUser() {
	s.registration.attendees["42"] = &models.Attendee{
		ID:          "cl_42",
		TransportID: "42",
		FullName:    "Olena Petrenko",
		Status:      models.AttendeeStatusActive,
	}
}

func (s *BotTestSuite) TestRegistrationDialog() {
	s.registration.types = []registration.TypeProgress{
		{SessionType: &models.SessionType{Code: 1, Title: "Intro call"}, Attended: true},
		{SessionType: &models.SessionType{Code: 2, Title: "Deep dive"}},
	}

	s.text(userID, "/start")
	s.Equal(def(messaging.KeyAskName), s.lastText())

	s.text(userID, "Ol")
	s.Equal(def(messaging.KeyBadName), s.lastText())

	s.text(userID, "  Olena   Petrenko ")
	s.Equal(def(messaging.KeyAskPhone), s.lastText())

	s.text(userID, "12345")
	s.Equal(def(messaging.KeyBadPhone), s.lastText())

	s.text(userID, "067 123 45 67")
	s.Require().Len(s.registration.registered, 1)
	s.Equal("Olena Petrenko", s.registration.registered[0].FullName)
	s.Equal("380671234567", s.registration.registered[0].Phone)

	welcome := s.lastText()
	s.Contains(welcome, "• Intro call — ✅ attended")
	s.Contains(welcome, "• Deep dive — ⭕️ not attended yet")

	_, ok := s.wizards.Get("42")
	s.False(ok)
	s.Len(s.registration.touched, 5)
}

func (s *BotTestSuite) TestHelpAndIdleText() {
	s.text(userID, "hello")
	s.Equal(def(messaging.KeyNeedRegister), s.lastText())

	s.registerUser()
	s.text(userID, "hello")
	s.Equal(def(messaging.KeyHelp), s.lastText())

	s.text(userID, "/help")
	s.Equal(def(messaging.KeyHelp), s.lastText())
}

func (s *BotTestSuite) TestGoingCallback() {
	s.registerUser()

	s.press(userID, &callback.Payload{Action: callback.ActionGoing, SessionID: "ev_1", AttendeeID: "cl_42"})

	s.Require().Len(s.rsvp.responses, 1)
	s.Equal(models.RSVPGoing, s.rsvp.responses[0].Response)
	s.Equal(def(messaging.KeyRSVPGoing), s.lastText())
	s.Equal(1, s.api.markupEdits())
}

func (s *BotTestSuite) TestCallbackOfAnotherAttendeeIsRejected() {
	s.press(userID, &callback.Payload{Action: callback.ActionGoing, SessionID: "ev_1", AttendeeID: "cl_99"})

	s.Empty(s.rsvp.responses)
	s.Equal([]string{def(messaging.KeyLinkExpired)}, s.api.callbackAnswers())
}

func (s *BotTestSuite) TestTamperedCallbackIsRejected() {
	data, err := s.codec.Encode(&callback.Payload{Action: callback.ActionGoing, SessionID: "ev_1", AttendeeID: "cl_42"})
	s.Require().NoError(err)

	s.pressRaw(userID, "d"+data[1:])

	s.Empty(s.rsvp.responses)
	s.Equal([]string{def(messaging.KeyLinkExpired)}, s.api.callbackAnswers())
}

func (s *BotTestSuite) TestDeclineOffersAlternatives() {
	s.rsvp.alternatives = []*models.Session{
		{ID: "ev_2", Title: "Intro call", StartAt: time.Date(2025, 10, 8, 15, 0, 0, 0, time.UTC)},
	}

	s.press(userID, &callback.Payload{Action: callback.ActionDeclined, SessionID: "ev_1", AttendeeID: "cl_42"})

	msgs := s.api.messages()
	s.Require().Len(msgs, 2)
	s.Equal(def(messaging.KeyRSVPDeclined), msgs[0].Text)
	s.Equal(def(messaging.KeyRSVPAlt), msgs[1].Text)

	markup, ok := msgs[1].ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	s.Require().True(ok)
	s.Require().Len(markup.InlineKeyboard, 1)
	btn := markup.InlineKeyboard[0][0]
	s.Equal("08.10.2025 15:00 Intro call", btn.Text)

	payload, err := s.codec.Decode(*btn.CallbackData)
	s.Require().NoError(err)
	s.Equal(callback.ActionAlternative, payload.Action)
	s.Equal("ev_2", payload.SessionID)

	s.pressRaw(userID, *btn.CallbackData)
	s.Require().Len(s.rsvp.chosen, 1)
	s.Equal("ev_2", s.rsvp.chosen[0].SessionID)
}

func (s *BotTestSuite) TestStarsAndComment() {
	s.press(userID, &callback.Payload{Action: callback.ActionStars, SessionID: "ev_1", AttendeeID: "cl_42", Value: "2"})
	s.Require().Len(s.escalation.stars, 1)
	s.Equal(2, s.escalation.stars[0].Stars)
	s.Equal("Thank you! Your 2⭐️ rating is saved.", s.lastText())

	s.press(userID, &callback.Payload{Action: callback.ActionComment, SessionID: "ev_1", AttendeeID: "cl_42"})
	s.Equal(def(messaging.KeyAskComment), s.lastText())

	s.text(userID, "The link did not work")
	s.Require().Len(s.escalation.comments, 1)
	s.Equal("The link did not work", s.escalation.comments[0].Comment)
	s.Equal(def(messaging.KeyCommentSaved), s.lastText())

	_, ok := s.wizards.Get("42")
	s.False(ok)
}

func (s *BotTestSuite) TestClaim() {
	payload := &callback.Payload{Action: callback.ActionClaim, SessionID: "ev_1", AttendeeID: "cl_42"}

	s.press(adminID, payload)
	s.Equal("@staffer", s.escalation.owner)
	s.Equal("✅ Taken by @staffer", s.lastText())
	s.Equal(55, s.api.messages()[0].ReplyToMessageID)

	s.escalation.owner = "@someone"
	s.press(adminID, payload)
	answers := s.api.callbackAnswers()
	s.Equal("Already taken by @someone", answers[len(answers)-1])
}

func (s *BotTestSuite) TestAdminDeepLink() {
	s.text(adminID, "/start admin_wrong")
	s.Equal(def(messaging.KeyAdminBadPassword), s.lastText())

	s.text(adminID, "/start admin_s3cret")
	s.Equal(def(messaging.KeyAdminWelcome), s.lastText())

	markup, ok := s.api.messages()[1].ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	s.Require().True(ok)
	s.Len(markup.InlineKeyboard, 3)
}

func (s *BotTestSuite) TestAdminLogout() {
	s.text(adminID, "/start admin_s3cret")

	s.press(adminID, &callback.Payload{Action: callback.ActionAdminLogout})
	s.Equal(def(messaging.KeyAdminLoggedOut), s.lastText())
	s.False(s.admin.granted["900"])

	s.press(adminID, &callback.Payload{Action: callback.ActionAdminList, Value: "0"})
	s.Equal(def(messaging.KeyAdminDenied), s.lastText())
}

func (s *BotTestSuite) TestAdminSessionHistory() {
	s.text(adminID, "/start admin_s3cret")
	s.admin.sessions["ev_1"] = &models.Session{ID: "ev_1", Title: "Intro", StartAt: s.now.Add(48 * time.Hour), DurationMin: 60}

	s.press(adminID, &callback.Payload{Action: callback.ActionAdminHistory, SessionID: "ev_1"})
	s.Equal(def(messaging.KeyAdminHistoryNone), s.lastText())

	at := time.Date(2025, 10, 7, 18, 30, 0, 0, time.UTC)
	s.admin.history = []*models.DeliveryLogEntry{
		{Timestamp: at.Add(time.Minute), SessionID: "ev_1", Action: models.ActionSessionUpdated, Details: "field=title"},
		{Timestamp: at, SessionID: "ev_1", AttendeeID: "cl_42", Action: models.ActionInviteSent},
		{Timestamp: at, SessionID: "ev_2", AttendeeID: "cl_42", Action: models.ActionInviteSent},
	}

	s.press(adminID, &callback.Payload{Action: callback.ActionAdminHistory, SessionID: "ev_1"})
	s.Equal("History (2 of 2):\n"+
		"07.10.2025 18:31 · session_updated (field=title)\n"+
		"07.10.2025 18:30 · invite_sent cl_42", s.lastText())

	msgs := s.api.messages()
	markup, ok := msgs[len(msgs)-1].ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	s.Require().True(ok)
	s.Len(markup.InlineKeyboard, 1)
}

func (s *BotTestSuite) TestAuditCommand() {
	s.text(adminID, "/audit 42")
	s.Equal(def(messaging.KeyHelp), s.lastText())
	s.Empty(s.admin.queried)

	s.text(adminID, "/start admin_s3cret")

	s.text(adminID, "/audit")
	s.Equal(def(messaging.KeyAdminAuditUsage), s.lastText())

	s.admin.history = []*models.DeliveryLogEntry{
		{Timestamp: time.Date(2025, 10, 7, 18, 30, 0, 0, time.UTC), SessionID: "ev_1", AttendeeID: "cl_42", Action: models.ActionRSVPGoing},
	}

	s.text(adminID, "/audit 42")
	s.Require().Len(s.admin.queried, 1)
	s.Equal("cl_42", s.admin.queried[0].AttendeeID)
	s.Equal("History (1 of 1):\n07.10.2025 18:30 · rsvp_going ev_1", s.lastText())

	s.text(adminID, "/audit cl_7")
	s.Require().Len(s.admin.queried, 2)
	s.Equal("cl_7", s.admin.queried[1].AttendeeID)
	s.Equal(def(messaging.KeyAdminHistoryNone), s.lastText())
}

func (s *BotTestSuite) TestAdminCallbacksNeedGrant() {
	s.press(adminID, &callback.Payload{Action: callback.ActionAdminAdd})
	s.Equal(def(messaging.KeyAdminDenied), s.lastText())
}

func (s *BotTestSuite) TestAdminCreateSession() {
	s.text(adminID, "/start admin_s3cret")

	s.press(adminID, &callback.Payload{Action: callback.ActionAdminAdd})
	s.Equal(def(messaging.KeyAdminPickType), s.lastText())

	s.press(adminID, &callback.Payload{Action: callback.ActionAdminAddType, Value: "1"})
	s.Contains(s.lastText(), "• Title: Intro call")

	s.press(adminID, &callback.Payload{Action: callback.ActionAdminAddTitle})
	s.text(adminID, "Intro call: October")
	s.Contains(s.lastText(), "• Title: Intro call: October")

	s.press(adminID, &callback.Payload{Action: callback.ActionAdminAddNext})
	s.Equal(def(messaging.KeyAdminAskStart), s.lastText())

	s.text(adminID, "tomorrow at noon")
	s.Equal(def(messaging.KeyAdminBadStart), s.lastText())

	s.text(adminID, "2025-10-07 18:30")
	s.Equal(def(messaging.KeyAdminAskDuration), s.lastText())

	s.text(adminID, "zero")
	s.Equal(def(messaging.KeyAdminBadDuration), s.lastText())

	s.text(adminID, "90")
	s.Equal(def(messaging.KeyAdminAskLink), s.lastText())

	s.text(adminID, "https://meet.example.com/abc")

	s.Require().Len(s.admin.created, 1)
	created := s.admin.created[0]
	s.Equal(1, created.TypeCode)
	s.Equal("Intro call: October", created.Title)
	s.Equal("Meet the team", created.Description)
	s.Equal(time.Date(2025, 10, 7, 18, 30, 0, 0, time.UTC), created.StartAt)
	s.Equal(90, created.DurationMin)
	s.Equal("https://meet.example.com/abc", created.Link)
	s.Contains(s.lastText(), "• Start: 07.10.2025 18:30")

	_, ok := s.wizards.Get("900")
	s.False(ok)
}

func (s *BotTestSuite) TestAdminEditField() {
	s.text(adminID, "/start admin_s3cret")
	s.admin.sessions["ev_1"] = &models.Session{ID: "ev_1", Title: "Intro", StartAt: s.now.Add(48 * time.Hour), DurationMin: 60}

	s.press(adminID, &callback.Payload{Action: callback.ActionAdminEditField, SessionID: "ev_1", Value: string(models.SessionFieldDuration)})
	s.Equal("Send the new value for duration:", s.lastText())

	s.text(adminID, "-5")
	s.Equal(def(messaging.KeyAdminBadDuration), s.lastText())
	s.Empty(s.admin.updated)

	s.text(adminID, "45")
	s.Require().Len(s.admin.updated, 1)
	s.Equal("45", s.admin.updated[0].Value)
	s.Contains(s.api.texts(), def(messaging.KeyAdminSaved))
}

func (s *BotTestSuite) TestAdminCancelSession() {
	s.text(adminID, "/start admin_s3cret")
	s.admin.sessions["ev_1"] = &models.Session{ID: "ev_1", Title: "Intro"}

	s.press(adminID, &callback.Payload{Action: callback.ActionAdminCancel, SessionID: "ev_1"})
	s.Equal(def(messaging.KeyAdminConfirm), s.lastText())

	s.press(adminID, &callback.Payload{Action: callback.ActionAdminCancelYes, SessionID: "ev_1"})
	s.Equal(def(messaging.KeyAdminCancelled), s.lastText())
	s.Empty(s.admin.sessions)
}

func (s *BotTestSuite) TestRunStopsWithContext() {
	ctx, cancel := context.WithCancel(s.ctx)

	done := make(chan error, 1)
	go func() { done <- s.bot.Run(ctx) }()

	s.api.updates <- tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: userID},
		Chat: &tgbotapi.Chat{ID: userID, Type: "private"},
		Text: "hi",
	}}

	s.Eventually(func() bool { return len(s.api.texts()) == 1 }, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		s.NoError(err)
	case <-time.After(time.Second):
		s.Fail("Run did not stop")
	}
}
