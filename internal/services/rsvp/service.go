package rsvp

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/KirkDiggler/conferencebot/internal/common/clock"
	"github.com/KirkDiggler/conferencebot/internal/models"
	attendanceRepo "github.com/KirkDiggler/conferencebot/internal/repositories/attendance"
	attendeeRepo "github.com/KirkDiggler/conferencebot/internal/repositories/attendee"
	ledgerRepo "github.com/KirkDiggler/conferencebot/internal/repositories/delivery_ledger"
	rsvpRepo "github.com/KirkDiggler/conferencebot/internal/repositories/rsvp"
	sessionRepo "github.com/KirkDiggler/conferencebot/internal/repositories/session"
)

// service implements the Service interface
type service struct {
	sessionRepo    sessionRepo.Repository
	attendeeRepo   attendeeRepo.Repository
	rsvpRepo       rsvpRepo.Repository
	attendanceRepo attendanceRepo.Repository
	ledgerRepo     ledgerRepo.Repository
	clock          clock.Clock
	logger         zerolog.Logger
}

// NewService creates a new rsvp service
func NewService(cfg *Config) (*service, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	switch {
	case cfg.SessionRepo == nil:
		return nil, ErrNilSessionRepo
	case cfg.AttendeeRepo == nil:
		return nil, ErrNilAttendeeRepo
	case cfg.RSVPRepo == nil:
		return nil, ErrNilRSVPRepo
	case cfg.AttendanceRepo == nil:
		return nil, ErrNilAttendanceRepo
	case cfg.LedgerRepo == nil:
		return nil, ErrNilLedgerRepo
	case cfg.Clock == nil:
		return nil, ErrNilClock
	}

	return &service{
		sessionRepo:    cfg.SessionRepo,
		attendeeRepo:   cfg.AttendeeRepo,
		rsvpRepo:       cfg.RSVPRepo,
		attendanceRepo: cfg.AttendanceRepo,
		ledgerRepo:     cfg.LedgerRepo,
		clock:          cfg.Clock,
		logger:         cfg.Logger,
	}, nil
}

// Respond applies a going, declined or remind_me response
func (s *service) Respond(ctx context.Context, input *RespondInput) (*RespondOutput, error) {
	if input == nil || input.SessionID == "" || input.AttendeeID == "" {
		return nil, errors.New("input, session ID and attendee ID cannot be empty")
	}

	switch input.Response {
	case models.RSVPGoing, models.RSVPDeclined, models.RSVPRemindMe:
	default:
		return nil, ErrInvalidResponse
	}

	sess, err := s.load(ctx, input.SessionID, input.AttendeeID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	response := input.Response

	upsert := &rsvpRepo.UpsertRSVPInput{
		SessionID:  sess.ID,
		AttendeeID: input.AttendeeID,
		Response:   &response,
		At:         now,
	}
	if response == models.RSVPRemindMe {
		remind := true
		upsert.Remind24h = &remind
	}

	record, err := s.rsvpRepo.UpsertRSVP(ctx, upsert)
	if err != nil {
		return nil, fmt.Errorf("failed to store response: %w", err)
	}

	out := &RespondOutput{
		Session: sess,
		RSVP:    record,
	}

	switch response {
	case models.RSVPGoing:
		s.record(ctx, models.ActionRSVPGoing, input.AttendeeID, sess.ID, "")
		if err := s.markAttendance(ctx, sess.ID, input.AttendeeID, true); err != nil {
			return nil, err
		}

	case models.RSVPDeclined:
		s.record(ctx, models.ActionRSVPDeclined, input.AttendeeID, sess.ID, "")
		// Reverses the optimistic mark of an earlier going
		if err := s.markAttendance(ctx, sess.ID, input.AttendeeID, false); err != nil {
			return nil, err
		}

		alternatives, err := s.alternatives(ctx, sess)
		if err != nil {
			return nil, err
		}
		out.Alternatives = alternatives

	case models.RSVPRemindMe:
		s.record(ctx, models.ActionRSVPRemindMe, input.AttendeeID, sess.ID, "")
	}

	s.logger.Info().
		Str("session_id", sess.ID).
		Str("attendee_id", input.AttendeeID).
		Str("response", string(response)).
		Msg("rsvp recorded")

	return out, nil
}

// ChooseAlternative records a fresh going response on the chosen session
func (s *service) ChooseAlternative(ctx context.Context, input *ChooseAlternativeInput) (*RespondOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	return s.Respond(ctx, &RespondInput{
		SessionID:  input.SessionID,
		AttendeeID: input.AttendeeID,
		Response:   models.RSVPGoing,
	})
}

// load resolves the session and checks that the attendee is registered
func (s *service) load(ctx context.Context, sessionID, attendeeID string) (*models.Session, error) {
	if _, err := s.attendeeRepo.GetAttendee(ctx, &attendeeRepo.GetAttendeeInput{
		AttendeeID: attendeeID,
	}); err != nil {
		if errors.Is(err, attendeeRepo.ErrAttendeeNotFound) {
			return nil, ErrNotRegistered
		}
		return nil, fmt.Errorf("failed to get attendee: %w", err)
	}

	sess, err := s.sessionRepo.GetSession(ctx, &sessionRepo.GetSessionInput{
		SessionID: sessionID,
	})
	if err != nil {
		if errors.Is(err, sessionRepo.ErrSessionNotFound) {
			s.logger.Warn().Str("session_id", sessionID).Str("attendee_id", attendeeID).Msg("response to unknown session")
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return sess, nil
}

func (s *service) markAttendance(ctx context.Context, sessionID, attendeeID string, attended bool) error {
	if err := s.attendanceRepo.Mark(ctx, &attendanceRepo.MarkInput{
		SessionID:  sessionID,
		AttendeeID: attendeeID,
		Attended:   attended,
		At:         s.clock.Now(),
	}); err != nil {
		return fmt.Errorf("failed to mark attendance: %w", err)
	}

	s.record(ctx, models.ActionAttendanceMark, attendeeID, sessionID, fmt.Sprintf("attended=%t", attended))
	return nil
}

// alternatives lists future sessions of the same type, earliest first
func (s *service) alternatives(ctx context.Context, sess *models.Session) ([]*models.Session, error) {
	now := s.clock.Now()

	sessions, err := s.sessionRepo.ListSessionsByType(ctx, &sessionRepo.ListSessionsByTypeInput{
		TypeCode: sess.TypeCode,
		From:     now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list alternatives: %w", err)
	}

	var out []*models.Session
	for _, other := range sessions.Sessions {
		if other.ID == sess.ID || !other.StartAt.After(now) {
			continue
		}
		out = append(out, other)
		if len(out) == MaxAlternatives {
			break
		}
	}

	return out, nil
}

func (s *service) record(ctx context.Context, action models.DeliveryAction, attendeeID, sessionID, details string) {
	if _, err := s.ledgerRepo.Record(ctx, &ledgerRepo.RecordInput{
		Action:     action,
		AttendeeID: attendeeID,
		SessionID:  sessionID,
		Details:    details,
		Timestamp:  s.clock.Now(),
	}); err != nil {
		s.logger.Error().Err(err).Str("action", string(action)).Msg("failed to write ledger entry")
	}
}
