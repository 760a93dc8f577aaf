package registration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/KirkDiggler/conferencebot/internal/common/clock/mocks"
	"github.com/KirkDiggler/conferencebot/internal/models"
	attendanceRepo "github.com/KirkDiggler/conferencebot/internal/repositories/attendance"
	attendeeRepo "github.com/KirkDiggler/conferencebot/internal/repositories/attendee"
	ledgerRepo "github.com/KirkDiggler/conferencebot/internal/repositories/delivery_ledger"
	sessionRepo "github.com/KirkDiggler/conferencebot/internal/repositories/session"
	"github.com/KirkDiggler/conferencebot/internal/services/dispatch"
)

type recordingInvites struct {
	calls []string
	err   error
}

func (r *recordingInvites) OnAttendeeRegistered(_ context.Context, input *dispatch.OnAttendeeRegisteredInput) (*dispatch.OnAttendeeRegisteredOutput, error) {
	r.calls = append(r.calls, input.AttendeeID)
	if r.err != nil {
		return nil, r.err
	}
	return &dispatch.OnAttendeeRegisteredOutput{Invited: 1}, nil
}

type RegistrationServiceTestSuite struct {
	suite.Suite
	mockCtrl  *gomock.Controller
	mockClock *mocks.MockClock
	mr        *miniredis.Miniredis
	client    *redis.Client

	attendeeRepo   attendeeRepo.Repository
	attendanceRepo attendanceRepo.Repository
	sessionRepo    sessionRepo.Repository
	ledgerRepo     ledgerRepo.Repository
	invites        *recordingInvites

	service Service
	ctx     context.Context
	testNow time.Time
}

func (s *RegistrationServiceTestSuite) SetupTest() {
	s.mockCtrl = gomock.NewController(s.T())
	s.mockClock = mocks.NewMockClock(s.mockCtrl)
	s.ctx = context.Background()
	s.testNow = time.Date(2025, 10, 1, 9, 30, 0, 0, time.UTC)
	s.mockClock.EXPECT().Now().Return(s.testNow).AnyTimes()

	mr, err := miniredis.Run()
	s.Require().NoError(err)
	s.mr = mr
	s.client = redis.NewClient(&redis.Options{Addr: mr.Addr()})

	attendees, err := attendeeRepo.NewRedis(&attendeeRepo.Config{RedisClient: s.client})
	s.Require().NoError(err)
	s.attendeeRepo = attendees

	attendance, err := attendanceRepo.NewRedis(&attendanceRepo.Config{RedisClient: s.client})
	s.Require().NoError(err)
	s.attendanceRepo = attendance

	sessions, err := sessionRepo.NewRedis(&sessionRepo.Config{RedisClient: s.client})
	s.Require().NoError(err)
	s.sessionRepo = sessions

	ledger, err := ledgerRepo.NewRedis(&ledgerRepo.Config{RedisClient: s.client})
	s.Require().NoError(err)
	s.ledgerRepo = ledger

	s.invites = &recordingInvites{}

	svc, err := NewService(&Config{
		AttendeeRepo:   attendees,
		AttendanceRepo: attendance,
		SessionRepo:    sessions,
		LedgerRepo:     ledger,
		Invites:        s.invites,
		Clock:          s.mockClock,
		Logger:         zerolog.Nop(),
	})
	s.Require().NoError(err)
	s.service = svc
}

func (s *RegistrationServiceTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
	s.client.Close()
	s.mr.Close()
}

func TestRegistrationServiceSuite(t *testing.T) {
	suite.Run(t, new(RegistrationServiceTestSuite))
}

func (s *RegistrationServiceTestSuite) TestRegisterNewAttendee() {
	out, err := s.service.Register(s.ctx, &RegisterInput{
		TransportID: "101",
		FullName:    " Olena  Petrenko ",
		Phone:       "067 123 45 67",
	})
	s.Require().NoError(err)
	s.True(out.Created)
	s.Equal(1, out.Invited)
	s.Equal("cl_101", out.Attendee.ID)
	s.Equal("Olena Petrenko", out.Attendee.FullName)
	s.Equal("380671234567", out.Attendee.Phone)
	s.Equal(models.AttendeeStatusActive, out.Attendee.Status)
	s.Equal([]string{"cl_101"}, s.invites.calls)

	entries, err := s.ledgerRepo.GetEntriesForAttendee(s.ctx, &ledgerRepo.GetEntriesForAttendeeInput{AttendeeID: "cl_101"})
	s.Require().NoError(err)
	s.Require().Len(entries.Entries, 1)
	s.Equal(models.ActionAttendeeRegistered, entries.Entries[0].Action)
}

func (s *RegistrationServiceTestSuite) TestRegisterAgainReactivates() {
	_, err := s.service.Register(s.ctx, &RegisterInput{TransportID: "101", FullName: "Olena", Phone: "380671234567"})
	s.Require().NoError(err)

	s.Require().NoError(s.attendeeRepo.UpdateStatus(s.ctx, &attendeeRepo.UpdateStatusInput{
		AttendeeID: "cl_101",
		Status:     models.AttendeeStatusInactive,
	}))

	out, err := s.service.Register(s.ctx, &RegisterInput{TransportID: "101", FullName: "Olena P", Phone: "380671234567"})
	s.Require().NoError(err)
	s.False(out.Created)
	s.Equal(models.AttendeeStatusActive, out.Attendee.Status)
	s.Equal("Olena P", out.Attendee.FullName)
}

func (s *RegistrationServiceTestSuite) TestRegisterValidation() {
	_, err := s.service.Register(s.ctx, &RegisterInput{TransportID: "101", FullName: "Al", Phone: "380671234567"})
	s.ErrorIs(err, ErrNameTooShort)

	_, err = s.service.Register(s.ctx, &RegisterInput{TransportID: "101", FullName: "Olena", Phone: "12"})
	s.ErrorIs(err, ErrInvalidPhone)

	_, err = s.service.Lookup(s.ctx, &LookupInput{TransportID: "101"})
	s.ErrorIs(err, ErrNotRegistered)
}

func (s *RegistrationServiceTestSuite) TestInviteFailureDoesNotFailRegistration() {
	s.invites.err = errors.New("redis down")

	out, err := s.service.Register(s.ctx, &RegisterInput{TransportID: "101", FullName: "Olena", Phone: "380671234567"})
	s.Require().NoError(err)
	s.Equal(0, out.Invited)
}

func (s *RegistrationServiceTestSuite) TestTouch() {
	s.NoError(s.service.Touch(s.ctx, &TouchInput{TransportID: "999"}))

	_, err := s.service.Register(s.ctx, &RegisterInput{TransportID: "101", FullName: "Olena", Phone: "380671234567"})
	s.Require().NoError(err)
	s.NoError(s.service.Touch(s.ctx, &TouchInput{TransportID: "101"}))

	a, err := s.service.Lookup(s.ctx, &LookupInput{TransportID: "101"})
	s.Require().NoError(err)
	s.True(a.LastSeenAt.Equal(s.testNow))
}

func (s *RegistrationServiceTestSuite) TestWelcomeMarksAttendedTypes() {
	for _, t := range []*models.SessionType{
		{Code: 1, Title: "Onboarding", Active: true},
		{Code: 2, Title: "Advanced", Active: true},
		{Code: 3, Title: "Retired", Active: false},
	} {
		s.Require().NoError(s.sessionRepo.SaveSessionType(s.ctx, &sessionRepo.SaveSessionTypeInput{SessionType: t}))
	}

	s.Require().NoError(s.sessionRepo.SaveSession(s.ctx, &sessionRepo.SaveSessionInput{
		Session: &models.Session{ID: "ev_1", TypeCode: 2, StartAt: s.testNow.Add(-48 * time.Hour), DurationMin: 60},
	}))
	s.Require().NoError(s.attendanceRepo.Mark(s.ctx, &attendanceRepo.MarkInput{
		SessionID:  "ev_1",
		AttendeeID: "cl_101",
		Attended:   true,
		At:         s.testNow,
	}))
	// Attendance of a deleted session is ignored
	s.Require().NoError(s.attendanceRepo.Mark(s.ctx, &attendanceRepo.MarkInput{
		SessionID:  "ev_gone",
		AttendeeID: "cl_101",
		Attended:   true,
		At:         s.testNow,
	}))

	out, err := s.service.Welcome(s.ctx, &WelcomeInput{AttendeeID: "cl_101"})
	s.Require().NoError(err)
	s.Require().Len(out.Types, 2)
	s.Equal(1, out.Types[0].SessionType.Code)
	s.False(out.Types[0].Attended)
	s.Equal(2, out.Types[1].SessionType.Code)
	s.True(out.Types[1].Attended)
}
