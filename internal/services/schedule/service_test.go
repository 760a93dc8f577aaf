package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/conferencebot/internal/models"
)

type EvaluatorTestSuite struct {
	suite.Suite
	evaluator Evaluator
	start     time.Time
	session   *models.Session
}

func (s *EvaluatorTestSuite) SetupTest() {
	ev, err := New(&Config{
		Tolerance:     60 * time.Second,
		TickInterval:  60 * time.Second,
		InviteLead:    25 * time.Hour,
		FeedbackDelay: 2 * time.Hour,
	})
	s.Require().NoError(err)
	s.evaluator = ev

	s.start = time.Date(2025, 10, 5, 15, 0, 0, 0, time.UTC)
	s.session = &models.Session{
		ID:          "ev_1",
		StartAt:     s.start,
		DurationMin: 90,
	}
}

func TestEvaluatorSuite(t *testing.T) {
	suite.Run(t, new(EvaluatorTestSuite))
}

func (s *EvaluatorTestSuite) TestRemind60mWindowTolerance() {
	target := s.start.Add(-60 * time.Minute)

	for _, offset := range []time.Duration{-60 * time.Second, -30 * time.Second, 0, 45 * time.Second, 60 * time.Second} {
		s.Contains(s.evaluator.Due(s.session, target.Add(offset)), models.DeadlineRemind60m, "offset %s", offset)
	}

	for _, offset := range []time.Duration{-61 * time.Second, 61 * time.Second, -10 * time.Minute} {
		s.NotContains(s.evaluator.Due(s.session, target.Add(offset)), models.DeadlineRemind60m, "offset %s", offset)
	}
}

func (s *EvaluatorTestSuite) TestRemind24hWindow() {
	target := s.start.Add(-24 * time.Hour)

	s.Contains(s.evaluator.Due(s.session, target), models.DeadlineRemind24h)
	s.Contains(s.evaluator.Due(s.session, target.Add(10*time.Second)), models.DeadlineRemind24h)
	s.NotContains(s.evaluator.Due(s.session, target.Add(2*time.Minute)), models.DeadlineRemind24h)
}

func (s *EvaluatorTestSuite) TestInviteWindowStaysOpenUntilStart() {
	opens := s.start.Add(-25*time.Hour - time.Minute)

	s.NotContains(s.evaluator.Due(s.session, opens.Add(-time.Second)), models.DeadlineInvite)
	s.Contains(s.evaluator.Due(s.session, opens), models.DeadlineInvite)
	s.Contains(s.evaluator.Due(s.session, s.start.Add(-2*time.Hour)), models.DeadlineInvite)
	s.Contains(s.evaluator.Due(s.session, s.start.Add(-time.Second)), models.DeadlineInvite)
	s.NotContains(s.evaluator.Due(s.session, s.start), models.DeadlineInvite)

	w, ok := s.evaluator.Window(s.session, models.DeadlineInvite)
	s.Require().True(ok)
	s.True(w.Passed(s.start))
	s.False(w.Passed(s.start.Add(-time.Second)))
}

func (s *EvaluatorTestSuite) TestFeedbackWindowFollowsEnd() {
	target := s.start.Add(90*time.Minute + 2*time.Hour)

	s.Equal([]models.DeadlineKind{models.DeadlineFeedbackAsk}, s.evaluator.Due(s.session, target))
	s.Empty(s.evaluator.Due(s.session, target.Add(5*time.Minute)))
}

func (s *EvaluatorTestSuite) TestUnknownStartHasNoDeadlines() {
	sess := &models.Session{ID: "ev_2", DurationMin: 60}

	s.Empty(s.evaluator.Due(sess, s.start))
	s.Empty(s.evaluator.Deadlines(sess))

	_, ok := s.evaluator.Window(sess, models.DeadlineRemind60m)
	s.False(ok)
}

func (s *EvaluatorTestSuite) TestDeadlines() {
	deadlines := s.evaluator.Deadlines(s.session)
	s.Require().Len(deadlines, 4)

	s.Equal(models.DeadlineInvite, deadlines[0].Kind)
	s.Equal(s.start.Add(-25*time.Hour-time.Minute), deadlines[0].OpensAt)
	s.Equal(s.start.Add(-24*time.Hour-time.Minute), deadlines[1].OpensAt)
	s.Equal(s.start.Add(-61*time.Minute), deadlines[2].OpensAt)
	s.Equal("ev_1", deadlines[3].SessionID)
}

func (s *EvaluatorTestSuite) TestEveryTickHitsFixedWindows() {
	target := s.start.Add(-60 * time.Minute)

	// Ticks at any phase relative to the target still land in the window
	for phase := time.Duration(0); phase < 60*time.Second; phase += 7 * time.Second {
		hit := false
		for tick := target.Add(-3 * time.Minute).Add(phase); tick.Before(target.Add(3 * time.Minute)); tick = tick.Add(60 * time.Second) {
			for _, k := range s.evaluator.Due(s.session, tick) {
				if k == models.DeadlineRemind60m {
					hit = true
				}
			}
		}
		s.True(hit, "phase %s", phase)
	}
}

func (s *EvaluatorTestSuite) TestValidateWindows() {
	valid := Config{Tolerance: time.Minute, TickInterval: time.Minute, InviteLead: 25 * time.Hour, FeedbackDelay: time.Hour}
	s.NoError(ValidateWindows(&valid))

	cfg := valid
	cfg.Tolerance = 30 * time.Second
	s.ErrorIs(ValidateWindows(&cfg), ErrToleranceBelowTick)

	cfg = valid
	cfg.TickInterval = 0
	s.ErrorIs(ValidateWindows(&cfg), ErrNonPositiveTick)

	cfg = valid
	cfg.InviteLead = 0
	s.ErrorIs(ValidateWindows(&cfg), ErrNonPositiveLead)

	cfg = valid
	cfg.FeedbackDelay = -time.Minute
	s.ErrorIs(ValidateWindows(&cfg), ErrNegativeDelay)

	cfg = valid
	cfg.Tolerance = 12 * time.Hour
	s.ErrorIs(ValidateWindows(&cfg), ErrOverlappingReminder)

	s.ErrorIs(ValidateWindows(nil), ErrNilConfig)
}
