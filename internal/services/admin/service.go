package admin

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/KirkDiggler/conferencebot/internal/common/clock"
	"github.com/KirkDiggler/conferencebot/internal/common/uuid"
	"github.com/KirkDiggler/conferencebot/internal/models"
	grantRepo "github.com/KirkDiggler/conferencebot/internal/repositories/admin_grant"
	ledgerRepo "github.com/KirkDiggler/conferencebot/internal/repositories/delivery_ledger"
	sessionRepo "github.com/KirkDiggler/conferencebot/internal/repositories/session"
	"github.com/KirkDiggler/conferencebot/internal/services/dispatch"
)

// service implements the Service interface
type service struct {
	password string
	grantTTL time.Duration
	location *time.Location

	grantRepo   grantRepo.Repository
	sessionRepo sessionRepo.Repository
	ledgerRepo  ledgerRepo.Repository

	hooks         SessionHooks
	clock         clock.Clock
	uuidGenerator uuid.UUID
	logger        zerolog.Logger
}

// NewService creates a new admin service
func NewService(cfg *Config) (*service, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	switch {
	case cfg.GrantRepo == nil:
		return nil, ErrNilGrantRepo
	case cfg.SessionRepo == nil:
		return nil, ErrNilSessionRepo
	case cfg.LedgerRepo == nil:
		return nil, ErrNilLedgerRepo
	case cfg.Hooks == nil:
		return nil, ErrNilHooks
	case cfg.Clock == nil:
		return nil, ErrNilClock
	case cfg.UUIDGenerator == nil:
		return nil, ErrNilUUIDGenerator
	}

	ttl := cfg.GrantTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}

	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}

	return &service{
		password:      cfg.Password,
		grantTTL:      ttl,
		location:      loc,
		grantRepo:     cfg.GrantRepo,
		sessionRepo:   cfg.SessionRepo,
		ledgerRepo:    cfg.LedgerRepo,
		hooks:         cfg.Hooks,
		clock:         cfg.Clock,
		uuidGenerator: cfg.UUIDGenerator,
		logger:        cfg.Logger,
	}, nil
}

// SeedSessionTypes stores the configured session types
func (s *service) SeedSessionTypes(ctx context.Context, types []*models.SessionType) error {
	for _, t := range types {
		if err := s.sessionRepo.SaveSessionType(ctx, &sessionRepo.SaveSessionTypeInput{
			SessionType: t,
		}); err != nil {
			return fmt.Errorf("failed to save session type %d: %w", t.Code, err)
		}
	}
	return nil
}

// GrantAccess issues a grant when the password matches
func (s *service) GrantAccess(ctx context.Context, input *GrantAccessInput) (*models.AdminGrant, error) {
	if input == nil || input.TransportID == "" {
		return nil, errors.New("input and transport ID cannot be empty")
	}

	if s.password == "" {
		return nil, ErrAdminDisabled
	}

	if subtle.ConstantTimeCompare([]byte(input.Password), []byte(s.password)) != 1 {
		s.logger.Warn().Str("transport_id", input.TransportID).Msg("admin login with wrong password")
		return nil, ErrBadPassword
	}

	now := s.clock.Now()
	grant := &models.AdminGrant{
		TransportID: input.TransportID,
		GrantedAt:   now,
		ExpiresAt:   now.Add(s.grantTTL),
	}

	if err := s.grantRepo.SaveGrant(ctx, &grantRepo.SaveGrantInput{
		Grant: grant,
	}); err != nil {
		return nil, fmt.Errorf("failed to save grant: %w", err)
	}

	s.record(ctx, models.ActionAdminGranted, "", "transport_id="+input.TransportID)
	s.logger.Info().Str("transport_id", input.TransportID).Time("expires_at", grant.ExpiresAt).Msg("admin access granted")

	return grant, nil
}

// CheckAccess verifies that a transport user holds a valid grant
func (s *service) CheckAccess(ctx context.Context, input *CheckAccessInput) error {
	if input == nil || input.TransportID == "" {
		return ErrAccessDenied
	}

	grant, err := s.grantRepo.GetGrant(ctx, &grantRepo.GetGrantInput{
		TransportID: input.TransportID,
	})
	if err != nil {
		if errors.Is(err, grantRepo.ErrGrantNotFound) {
			return ErrAccessDenied
		}
		return fmt.Errorf("failed to get grant: %w", err)
	}

	if !grant.Valid(s.clock.Now()) {
		return ErrAccessDenied
	}

	return nil
}

// RevokeAccess ends the grant of a transport user
func (s *service) RevokeAccess(ctx context.Context, input *RevokeAccessInput) error {
	if input == nil || input.TransportID == "" {
		return errors.New("input and transport ID cannot be empty")
	}

	if err := s.grantRepo.RevokeGrant(ctx, &grantRepo.RevokeGrantInput{
		TransportID: input.TransportID,
	}); err != nil {
		return fmt.Errorf("failed to revoke grant: %w", err)
	}

	s.record(ctx, models.ActionAdminRevoked, "", "transport_id="+input.TransportID)
	s.logger.Info().Str("transport_id", input.TransportID).Msg("admin access revoked")

	return nil
}

// History returns the latest ledger entries of a session or attendee
func (s *service) History(ctx context.Context, input *HistoryInput) (*HistoryOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	if err := s.CheckAccess(ctx, &CheckAccessInput{TransportID: input.AdminID}); err != nil {
		return nil, err
	}

	var (
		entries *ledgerRepo.GetEntriesOutput
		err     error
	)
	switch {
	case input.SessionID != "":
		entries, err = s.ledgerRepo.GetEntriesForSession(ctx, &ledgerRepo.GetEntriesForSessionInput{
			SessionID: input.SessionID,
		})
	case input.AttendeeID != "":
		entries, err = s.ledgerRepo.GetEntriesForAttendee(ctx, &ledgerRepo.GetEntriesForAttendeeInput{
			AttendeeID: input.AttendeeID,
		})
	default:
		return nil, ErrEmptyValue
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}

	limit := input.Limit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	// Entries are stored oldest first
	total := len(entries.Entries)
	latest := make([]*models.DeliveryLogEntry, 0, min(limit, total))
	for i := total - 1; i >= 0 && len(latest) < limit; i-- {
		latest = append(latest, entries.Entries[i])
	}

	return &HistoryOutput{
		Entries: latest,
		Total:   total,
	}, nil
}

// ListSessionTypes returns the active session types
func (s *service) ListSessionTypes(ctx context.Context, input *ListSessionTypesInput) ([]*models.SessionType, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	if err := s.CheckAccess(ctx, &CheckAccessInput{TransportID: input.AdminID}); err != nil {
		return nil, err
	}

	types, err := s.sessionRepo.ListSessionTypes(ctx, &sessionRepo.ListSessionTypesInput{
		ActiveOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list session types: %w", err)
	}

	return types.SessionTypes, nil
}

// CreateSession schedules a new session and hands it to the dispatcher
func (s *service) CreateSession(ctx context.Context, input *CreateSessionInput) (*CreateSessionOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	if err := s.CheckAccess(ctx, &CheckAccessInput{TransportID: input.AdminID}); err != nil {
		return nil, err
	}

	sessionType, err := s.sessionRepo.GetSessionType(ctx, &sessionRepo.GetSessionTypeInput{
		Code: input.TypeCode,
	})
	if err != nil {
		if errors.Is(err, sessionRepo.ErrSessionTypeNotFound) {
			return nil, ErrSessionTypeNotFound
		}
		return nil, fmt.Errorf("failed to get session type: %w", err)
	}

	if input.StartAt.IsZero() {
		return nil, ErrInvalidStart
	}

	if input.DurationMin <= 0 {
		return nil, ErrInvalidDuration
	}

	link := strings.TrimSpace(input.Link)
	if link == "" {
		return nil, ErrEmptyValue
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = sessionType.Title
	}

	description := strings.TrimSpace(input.Description)
	if description == "" {
		description = sessionType.Description
	}

	sess := &models.Session{
		ID:          s.uuidGenerator.NewShortID(SessionIDPrefix, sessionIDLength),
		TypeCode:    sessionType.Code,
		Title:       title,
		Description: description,
		StartAt:     input.StartAt.In(s.location),
		DurationMin: input.DurationMin,
		Link:        link,
		CreatedBy:   "admin:" + input.AdminID,
		CreatedAt:   s.clock.Now(),
	}

	created, err := s.hooks.OnSessionCreated(ctx, &dispatch.OnSessionCreatedInput{
		Session: sess,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Info().
		Str("session_id", sess.ID).
		Int("type", sess.TypeCode).
		Time("start_at", sess.StartAt).
		Str("admin_id", input.AdminID).
		Msg("session created")

	return &CreateSessionOutput{
		Session: sess,
		Invited: created.Invited,
	}, nil
}

// ListSessions returns one page of sessions that start no earlier than a
// day ago, earliest first
func (s *service) ListSessions(ctx context.Context, input *ListSessionsInput) (*ListSessionsOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	if err := s.CheckAccess(ctx, &CheckAccessInput{TransportID: input.AdminID}); err != nil {
		return nil, err
	}

	all, err := s.sessionRepo.ListSessions(ctx, &sessionRepo.ListSessionsInput{
		From: s.clock.Now().Add(-listLookback),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	total := len(all.Sessions)
	pages := (total + PageSize - 1) / PageSize
	if pages == 0 {
		pages = 1
	}

	page := input.Page
	if page < 0 {
		page = 0
	}
	if page >= pages {
		page = pages - 1
	}

	from := page * PageSize
	to := from + PageSize
	if to > total {
		to = total
	}

	return &ListSessionsOutput{
		Sessions: all.Sessions[from:to],
		Page:     page,
		Pages:    pages,
		Total:    total,
	}, nil
}

// GetSession returns one session
func (s *service) GetSession(ctx context.Context, input *GetSessionInput) (*models.Session, error) {
	if input == nil || input.SessionID == "" {
		return nil, errors.New("input and session ID cannot be empty")
	}

	if err := s.CheckAccess(ctx, &CheckAccessInput{TransportID: input.AdminID}); err != nil {
		return nil, err
	}

	return s.getSession(ctx, input.SessionID)
}

// UpdateSession validates the raw value, applies it and lets the
// dispatcher reindex and notify
func (s *service) UpdateSession(ctx context.Context, input *UpdateSessionInput) (*UpdateSessionOutput, error) {
	if input == nil || input.SessionID == "" {
		return nil, errors.New("input and session ID cannot be empty")
	}

	if err := s.CheckAccess(ctx, &CheckAccessInput{TransportID: input.AdminID}); err != nil {
		return nil, err
	}

	sess, err := s.getSession(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}

	value := strings.TrimSpace(input.Value)

	switch input.Field {
	case models.SessionFieldTitle:
		if value == "" {
			return nil, ErrEmptyValue
		}
		sess.Title = value
	case models.SessionFieldDescription:
		if value == "" {
			return nil, ErrEmptyValue
		}
		sess.Description = value
	case models.SessionFieldLink:
		if value == "" {
			return nil, ErrEmptyValue
		}
		sess.Link = value
	case models.SessionFieldStartAt:
		start, err := ParseStart(value, s.location)
		if err != nil {
			return nil, err
		}
		sess.StartAt = start
		value = start.Format(models.SessionTimeLayout)
	case models.SessionFieldDuration:
		minutes, err := ParseDuration(value)
		if err != nil {
			return nil, err
		}
		sess.DurationMin = minutes
	default:
		return nil, ErrUnknownField
	}

	updated, err := s.hooks.OnSessionUpdated(ctx, &dispatch.OnSessionUpdatedInput{
		Session: sess,
		Field:   input.Field,
		Value:   value,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}

	s.logger.Info().
		Str("session_id", sess.ID).
		Str("field", string(input.Field)).
		Str("admin_id", input.AdminID).
		Msg("session updated")

	return &UpdateSessionOutput{
		Session:  sess,
		Notified: updated.Notified,
		Pending:  updated.Pending,
	}, nil
}

// CancelSession cancels and deletes a session
func (s *service) CancelSession(ctx context.Context, input *CancelSessionInput) (*CancelSessionOutput, error) {
	if input == nil || input.SessionID == "" {
		return nil, errors.New("input and session ID cannot be empty")
	}

	if err := s.CheckAccess(ctx, &CheckAccessInput{TransportID: input.AdminID}); err != nil {
		return nil, err
	}

	cancelled, err := s.hooks.OnSessionCancelled(ctx, &dispatch.OnSessionCancelledInput{
		SessionID: input.SessionID,
	})
	if err != nil {
		if errors.Is(err, sessionRepo.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to cancel session: %w", err)
	}

	s.logger.Info().
		Str("session_id", input.SessionID).
		Str("admin_id", input.AdminID).
		Msg("session cancelled")

	return &CancelSessionOutput{
		Notified:        cancelled.Notified,
		AttendanceReset: cancelled.AttendanceReset,
		Pending:         cancelled.Pending,
	}, nil
}

// ParseStart parses a start time entered as YYYY-MM-DD HH:MM in loc
func ParseStart(value string, loc *time.Location) (time.Time, error) {
	start, err := time.ParseInLocation(models.SessionTimeLayout, strings.TrimSpace(value), loc)
	if err != nil {
		return time.Time{}, ErrInvalidStart
	}
	return start, nil
}

// ParseDuration parses a positive number of minutes
func ParseDuration(value string) (int, error) {
	minutes, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || minutes <= 0 {
		return 0, ErrInvalidDuration
	}
	return minutes, nil
}

func (s *service) getSession(ctx context.Context, sessionID string) (*models.Session, error) {
	sess, err := s.sessionRepo.GetSession(ctx, &sessionRepo.GetSessionInput{
		SessionID: sessionID,
	})
	if err != nil {
		if errors.Is(err, sessionRepo.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return sess, nil
}

func (s *service) record(ctx context.Context, action models.DeliveryAction, sessionID, details string) {
	if _, err := s.ledgerRepo.Record(ctx, &ledgerRepo.RecordInput{
		Action:    action,
		SessionID: sessionID,
		Details:   details,
		Timestamp: s.clock.Now(),
	}); err != nil {
		s.logger.Error().Err(err).Str("action", string(action)).Msg("failed to write ledger entry")
	}
}
