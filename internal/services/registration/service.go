package registration

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
	sessionRepo "github.com/KirkDiggler/conferencebot/internal/repositories/session"
	"github.com/KirkDiggler/conferencebot/internal/services/dispatch"
)

// service implements the Service interface
type service struct {
	attendeeRepo   attendeeRepo.Repository
	attendanceRepo attendanceRepo.Repository
	sessionRepo    sessionRepo.Repository
	ledgerRepo     ledgerRepo.Repository
	invites        Invites
	clock          clock.Clock
	logger         zerolog.Logger
}

// NewService creates a new registration service
func NewService(cfg *Config) (*service, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	switch {
	case cfg.AttendeeRepo == nil:
		return nil, ErrNilAttendeeRepo
	case cfg.AttendanceRepo == nil:
		return nil, ErrNilAttendanceRepo
	case cfg.SessionRepo == nil:
		return nil, ErrNilSessionRepo
	case cfg.LedgerRepo == nil:
		return nil, ErrNilLedgerRepo
	case cfg.Clock == nil:
		return nil, ErrNilClock
	}

	return &service{
		attendeeRepo:   cfg.AttendeeRepo,
		attendanceRepo: cfg.AttendanceRepo,
		sessionRepo:    cfg.SessionRepo,
		ledgerRepo:     cfg.LedgerRepo,
		invites:        cfg.Invites,
		clock:          cfg.Clock,
		logger:         cfg.Logger,
	}, nil
}

// Register creates or refreshes an attendee. A returning attendee is
// reactivated, keeping the original registration time.
func (s *service) Register(ctx context.Context, input *RegisterInput) (*RegisterOutput, error) {
	if input == nil || input.TransportID == "" {
		return nil, errors.New("input and transport ID cannot be empty")
	}

	name, ok := NormalizeName(input.FullName)
	if !ok {
		return nil, ErrNameTooShort
	}

	phone, ok := NormalizePhone(input.Phone)
	if !ok {
		return nil, ErrInvalidPhone
	}

	now := s.clock.Now()
	id := models.AttendeeIDForTransport(input.TransportID)

	created := false
	_, err := s.attendeeRepo.GetAttendee(ctx, &attendeeRepo.GetAttendeeInput{
		AttendeeID: id,
	})
	switch {
	case errors.Is(err, attendeeRepo.ErrAttendeeNotFound):
		created = true
	case err != nil:
		return nil, fmt.Errorf("failed to get attendee: %w", err)
	}

	if err := s.attendeeRepo.SaveAttendee(ctx, &attendeeRepo.SaveAttendeeInput{
		Attendee: &models.Attendee{
			ID:           id,
			TransportID:  input.TransportID,
			FullName:     name,
			Phone:        phone,
			Status:       models.AttendeeStatusActive,
			RegisteredAt: now,
			LastSeenAt:   now,
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to save attendee: %w", err)
	}

	stored, err := s.attendeeRepo.GetAttendee(ctx, &attendeeRepo.GetAttendeeInput{
		AttendeeID: id,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get attendee: %w", err)
	}

	if _, err := s.ledgerRepo.Record(ctx, &ledgerRepo.RecordInput{
		Action:     models.ActionAttendeeRegistered,
		AttendeeID: id,
		Details:    fmt.Sprintf("created=%t", created),
		Timestamp:  now,
	}); err != nil {
		s.logger.Error().Err(err).Str("attendee_id", id).Msg("failed to write ledger entry")
	}

	s.logger.Info().Str("attendee_id", id).Bool("created", created).Msg("attendee registered")

	out := &RegisterOutput{
		Attendee: stored,
		Created:  created,
	}

	if s.invites != nil {
		invited, err := s.invites.OnAttendeeRegistered(ctx, &dispatch.OnAttendeeRegisteredInput{
			AttendeeID: id,
		})
		if err != nil {
			s.logger.Error().Err(err).Str("attendee_id", id).Msg("failed to send pending invites")
		} else {
			out.Invited = invited.Invited
		}
	}

	return out, nil
}

// Lookup returns the attendee of a transport user
func (s *service) Lookup(ctx context.Context, input *LookupInput) (*models.Attendee, error) {
	if input == nil || input.TransportID == "" {
		return nil, errors.New("input and transport ID cannot be empty")
	}

	a, err := s.attendeeRepo.GetAttendee(ctx, &attendeeRepo.GetAttendeeInput{
		AttendeeID: models.AttendeeIDForTransport(input.TransportID),
	})
	if err != nil {
		if errors.Is(err, attendeeRepo.ErrAttendeeNotFound) {
			return nil, ErrNotRegistered
		}
		return nil, fmt.Errorf("failed to get attendee: %w", err)
	}

	return a, nil
}

// Touch records an interaction of a transport user
func (s *service) Touch(ctx context.Context, input *TouchInput) error {
	if input == nil || input.TransportID == "" {
		return errors.New("input and transport ID cannot be empty")
	}

	err := s.attendeeRepo.TouchLastSeen(ctx, &attendeeRepo.TouchLastSeenInput{
		AttendeeID: models.AttendeeIDForTransport(input.TransportID),
		SeenAt:     s.clock.Now(),
	})
	if err != nil && !errors.Is(err, attendeeRepo.ErrAttendeeNotFound) {
		return fmt.Errorf("failed to touch attendee: %w", err)
	}

	return nil
}

// Welcome lists the active session types and marks those the attendee
// attended at least once
func (s *service) Welcome(ctx context.Context, input *WelcomeInput) (*WelcomeOutput, error) {
	if input == nil || input.AttendeeID == "" {
		return nil, errors.New("input and attendee ID cannot be empty")
	}

	types, err := s.sessionRepo.ListSessionTypes(ctx, &sessionRepo.ListSessionTypesInput{
		ActiveOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list session types: %w", err)
	}

	records, err := s.attendanceRepo.ListForAttendee(ctx, &attendanceRepo.ListForAttendeeInput{
		AttendeeID:   input.AttendeeID,
		AttendedOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}

	attended := make(map[int]bool)
	for _, rec := range records.Records {
		sess, err := s.sessionRepo.GetSession(ctx, &sessionRepo.GetSessionInput{
			SessionID: rec.SessionID,
		})
		if err != nil {
			if errors.Is(err, sessionRepo.ErrSessionNotFound) {
				continue
			}
			return nil, fmt.Errorf("failed to get session: %w", err)
		}
		attended[sess.TypeCode] = true
	}

	out := &WelcomeOutput{
		Types: make([]TypeProgress, 0, len(types.SessionTypes)),
	}
	for _, t := range types.SessionTypes {
		out.Types = append(out.Types, TypeProgress{
			SessionType: t,
			Attended:    attended[t.Code],
		})
	}

	return out, nil
}
