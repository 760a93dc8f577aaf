package escalation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/KirkDiggler/conferencebot/internal/callback"
	"github.com/KirkDiggler/conferencebot/internal/common/clock"
	"github.com/KirkDiggler/conferencebot/internal/messenger"
	"github.com/KirkDiggler/conferencebot/internal/models"
	attendeeRepo "github.com/KirkDiggler/conferencebot/internal/repositories/attendee"
	ledgerRepo "github.com/KirkDiggler/conferencebot/internal/repositories/delivery_ledger"
	feedbackRepo "github.com/KirkDiggler/conferencebot/internal/repositories/feedback"
	sessionRepo "github.com/KirkDiggler/conferencebot/internal/repositories/session"
	"github.com/KirkDiggler/conferencebot/internal/services/messaging"
)

const (
	defaultSendTimeout = 10 * time.Second

	// placeholder for missing alert values
	none = "—"
)

// service implements the Service interface
type service struct {
	threshold        int
	supportRecipient string
	sendTimeout      time.Duration

	feedbackRepo feedbackRepo.Repository
	attendeeRepo attendeeRepo.Repository
	sessionRepo  sessionRepo.Repository
	ledgerRepo   ledgerRepo.Repository

	support   messenger.Messenger
	messaging messaging.Service
	codec     *callback.Codec
	clock     clock.Clock
	logger    zerolog.Logger
}

// NewService creates a new escalation service
func NewService(cfg *Config) (*service, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	switch {
	case cfg.FeedbackRepo == nil:
		return nil, ErrNilFeedbackRepo
	case cfg.AttendeeRepo == nil:
		return nil, ErrNilAttendeeRepo
	case cfg.SessionRepo == nil:
		return nil, ErrNilSessionRepo
	case cfg.LedgerRepo == nil:
		return nil, ErrNilLedgerRepo
	case cfg.Support == nil:
		return nil, ErrNilSupport
	case cfg.Messaging == nil:
		return nil, ErrNilMessaging
	case cfg.Codec == nil:
		return nil, ErrNilCodec
	case cfg.Clock == nil:
		return nil, ErrNilClock
	}

	threshold := cfg.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	timeout := cfg.SendTimeout
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}

	return &service{
		threshold:        threshold,
		supportRecipient: cfg.SupportRecipient,
		sendTimeout:      timeout,
		feedbackRepo:     cfg.FeedbackRepo,
		attendeeRepo:     cfg.AttendeeRepo,
		sessionRepo:      cfg.SessionRepo,
		ledgerRepo:       cfg.LedgerRepo,
		support:          cfg.Support,
		messaging:        cfg.Messaging,
		codec:            cfg.Codec,
		clock:            cfg.Clock,
		logger:           cfg.Logger,
	}, nil
}

// SubmitStars stores a rating and escalates it once when it is below the
// threshold. A comment stored earlier is included in the alert.
func (s *service) SubmitStars(ctx context.Context, input *SubmitStarsInput) (*SubmitOutput, error) {
	if input == nil || input.SessionID == "" || input.AttendeeID == "" {
		return nil, errors.New("input, session ID and attendee ID cannot be empty")
	}

	if input.Stars < feedbackRepo.MinStars || input.Stars > feedbackRepo.MaxStars {
		return nil, ErrInvalidStars
	}

	sess, err := s.getSession(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}

	fb, err := s.feedbackRepo.SetStars(ctx, &feedbackRepo.SetStarsInput{
		SessionID:  input.SessionID,
		AttendeeID: input.AttendeeID,
		Stars:      input.Stars,
		At:         s.clock.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store rating: %w", err)
	}

	out := &SubmitOutput{
		Feedback: fb,
		Session:  sess,
	}

	if fb.Stars < s.threshold {
		out.Escalated = s.escalate(ctx, sess, fb)
	}

	return out, nil
}

// SubmitComment stores a review and forwards it to the support thread when
// the rating was already escalated
func (s *service) SubmitComment(ctx context.Context, input *SubmitCommentInput) (*SubmitOutput, error) {
	if input == nil || input.SessionID == "" || input.AttendeeID == "" {
		return nil, errors.New("input, session ID and attendee ID cannot be empty")
	}

	comment := strings.TrimSpace(input.Comment)
	if comment == "" {
		return nil, ErrEmptyComment
	}

	sess, err := s.getSession(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}

	fb, err := s.feedbackRepo.SetComment(ctx, &feedbackRepo.SetCommentInput{
		SessionID:  input.SessionID,
		AttendeeID: input.AttendeeID,
		Comment:    comment,
		At:         s.clock.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store comment: %w", err)
	}

	out := &SubmitOutput{
		Feedback: fb,
		Session:  sess,
	}

	switch {
	case fb.Escalated():
		out.Forwarded = s.forward(ctx, fb, comment)
	case fb.Stars > 0 && fb.Stars < s.threshold:
		// The alert for the rating never went out
		out.Escalated = s.escalate(ctx, sess, fb)
	}

	return out, nil
}

// Claim assigns the escalation to a staffer. When someone already took it
// the output carries that owner together with ErrAlreadyClaimed.
func (s *service) Claim(ctx context.Context, input *ClaimInput) (*ClaimOutput, error) {
	if input == nil || input.SessionID == "" || input.AttendeeID == "" || input.Owner == "" {
		return nil, errors.New("input, session ID, attendee ID and owner cannot be empty")
	}

	claim, err := s.feedbackRepo.ClaimOwner(ctx, &feedbackRepo.ClaimOwnerInput{
		SessionID:  input.SessionID,
		AttendeeID: input.AttendeeID,
		Owner:      input.Owner,
	})
	if err != nil {
		if errors.Is(err, feedbackRepo.ErrFeedbackNotFound) {
			return nil, ErrFeedbackNotFound
		}
		return nil, fmt.Errorf("failed to claim escalation: %w", err)
	}

	out := &ClaimOutput{
		Owner: claim.Owner,
	}

	if !claim.Claimed {
		return out, ErrAlreadyClaimed
	}

	s.record(ctx, models.ActionComplaintTaken, input.AttendeeID, input.SessionID, "owner="+claim.Owner)

	s.logger.Info().
		Str("session_id", input.SessionID).
		Str("attendee_id", input.AttendeeID).
		Str("owner", claim.Owner).
		Msg("escalation claimed")

	return out, nil
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

// escalate delivers the support alert at most once per feedback record.
// A failed delivery releases the reservation so a later submission can
// try again.
func (s *service) escalate(ctx context.Context, sess *models.Session, fb *models.Feedback) bool {
	logger := s.logger.With().Str("session_id", fb.SessionID).Str("attendee_id", fb.AttendeeID).Logger()

	if s.supportRecipient == "" {
		logger.Warn().Int("stars", fb.Stars).Msg("low rating not escalated, no support recipient configured")
		return false
	}

	reserved, err := s.feedbackRepo.BeginEscalation(ctx, &feedbackRepo.BeginEscalationInput{
		SessionID:  fb.SessionID,
		AttendeeID: fb.AttendeeID,
		At:         s.clock.Now(),
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to reserve escalation")
		return false
	}
	if !reserved {
		return false
	}

	sent, err := s.sendAlert(ctx, sess, fb)
	if err != nil {
		logger.Warn().Err(err).Msg("support alert failed")

		if err := s.feedbackRepo.AbortEscalation(ctx, &feedbackRepo.AbortEscalationInput{
			SessionID:  fb.SessionID,
			AttendeeID: fb.AttendeeID,
		}); err != nil {
			logger.Error().Err(err).Msg("failed to release escalation")
		}
		return false
	}

	if err := s.feedbackRepo.CompleteEscalation(ctx, &feedbackRepo.CompleteEscalationInput{
		SessionID:  fb.SessionID,
		AttendeeID: fb.AttendeeID,
		Recipient:  s.supportRecipient,
		MessageID:  sent.MessageID,
	}); err != nil {
		logger.Error().Err(err).Msg("failed to store escalation thread")
	}

	fb.EscalatedAt = s.clock.Now()
	fb.EscalationRecipient = s.supportRecipient
	fb.EscalationMessageID = sent.MessageID

	s.record(ctx, models.ActionFeedbackEscalated, fb.AttendeeID, fb.SessionID, "stars="+strconv.Itoa(fb.Stars))

	logger.Info().Int("stars", fb.Stars).Msg("low rating escalated")
	return true
}

func (s *service) sendAlert(ctx context.Context, sess *models.Session, fb *models.Feedback) (*messenger.SendOutput, error) {
	vars := messaging.Vars{
		"title":        sess.Title,
		"name":         fb.AttendeeID,
		"transport_id": none,
		"phone":        none,
		"stars":        strconv.Itoa(fb.Stars),
		"comment":      orNone(fb.Comment),
	}

	a, err := s.attendeeRepo.GetAttendee(ctx, &attendeeRepo.GetAttendeeInput{
		AttendeeID: fb.AttendeeID,
	})
	switch {
	case err == nil:
		vars["name"] = a.FullName
		vars["transport_id"] = a.TransportID
		vars["phone"] = orNone(a.Phone)
	case !errors.Is(err, attendeeRepo.ErrAttendeeNotFound):
		return nil, fmt.Errorf("failed to get attendee: %w", err)
	}

	text, err := messaging.Text(ctx, s.messaging, messaging.KeyEscalation, vars)
	if err != nil {
		return nil, err
	}

	label, err := messaging.Text(ctx, s.messaging, messaging.KeyButtonClaim, nil)
	if err != nil {
		return nil, err
	}

	data, err := s.codec.Encode(&callback.Payload{
		Action:     callback.ActionClaim,
		SessionID:  fb.SessionID,
		AttendeeID: fb.AttendeeID,
	})
	if err != nil {
		return nil, err
	}

	return s.send(ctx, &messenger.SendInput{
		Recipient: s.supportRecipient,
		Text:      text,
		Buttons:   [][]messenger.Button{{{Label: label, Data: data}}},
	})
}

// forward posts a late comment as a reply to the escalation thread
func (s *service) forward(ctx context.Context, fb *models.Feedback, comment string) bool {
	logger := s.logger.With().Str("session_id", fb.SessionID).Str("attendee_id", fb.AttendeeID).Logger()

	name := fb.AttendeeID
	if a, err := s.attendeeRepo.GetAttendee(ctx, &attendeeRepo.GetAttendeeInput{
		AttendeeID: fb.AttendeeID,
	}); err == nil {
		name = a.FullName
	}

	text, err := messaging.Text(ctx, s.messaging, messaging.KeyEscalationNote, messaging.Vars{
		"name":    name,
		"comment": comment,
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to render escalation note")
		return false
	}

	recipient := fb.EscalationRecipient
	if recipient == "" {
		recipient = s.supportRecipient
	}

	if _, err := s.send(ctx, &messenger.SendInput{
		Recipient: recipient,
		Text:      text,
		ReplyTo:   fb.EscalationMessageID,
	}); err != nil {
		logger.Warn().Err(err).Msg("failed to forward comment to support")
		return false
	}

	s.record(ctx, models.ActionCommentForwarded, fb.AttendeeID, fb.SessionID, "")
	return true
}

func (s *service) send(ctx context.Context, input *messenger.SendInput) (*messenger.SendOutput, error) {
	sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()

	return s.support.Send(sendCtx, input)
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

func orNone(v string) string {
	if strings.TrimSpace(v) == "" {
		return none
	}
	return v
}
