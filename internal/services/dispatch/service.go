package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/KirkDiggler/conferencebot/internal/callback"
	"github.com/KirkDiggler/conferencebot/internal/common/clock"
	"github.com/KirkDiggler/conferencebot/internal/messenger"
	"github.com/KirkDiggler/conferencebot/internal/models"
	"github.com/KirkDiggler/conferencebot/internal/repositories/attendance"
	"github.com/KirkDiggler/conferencebot/internal/repositories/attendee"
	"github.com/KirkDiggler/conferencebot/internal/repositories/delivery_ledger"
	"github.com/KirkDiggler/conferencebot/internal/repositories/notice"
	"github.com/KirkDiggler/conferencebot/internal/repositories/rsvp"
	"github.com/KirkDiggler/conferencebot/internal/repositories/session"
	"github.com/KirkDiggler/conferencebot/internal/services/messaging"
	"github.com/KirkDiggler/conferencebot/internal/services/schedule"
)

const (
	defaultSendTimeout = 10 * time.Second

	dateLayout = "02.01.2006"
	timeLayout = "15:04"
)

// ServiceConfig holds configuration for the dispatch service
type ServiceConfig struct {
	SessionRepo    session.Repository
	AttendeeRepo   attendee.Repository
	RSVPRepo       rsvp.Repository
	AttendanceRepo attendance.Repository
	LedgerRepo     delivery_ledger.Repository
	NoticeRepo     notice.Repository

	Evaluator schedule.Evaluator
	Messenger messenger.Messenger
	Messaging messaging.Service
	Codec     *callback.Codec
	Clock     clock.Clock

	// Limiter is waited on before every send; nil means unlimited
	Limiter *rate.Limiter

	// SendTimeout bounds a single send
	SendTimeout time.Duration

	// Location is the zone dates are rendered in
	Location *time.Location

	Logger zerolog.Logger
}

// service implements the Service interface
type service struct {
	sessionRepo    session.Repository
	attendeeRepo   attendee.Repository
	rsvpRepo       rsvp.Repository
	attendanceRepo attendance.Repository
	ledgerRepo     delivery_ledger.Repository
	noticeRepo     notice.Repository

	evaluator schedule.Evaluator
	messenger messenger.Messenger
	messaging messaging.Service
	codec     *callback.Codec
	clock     clock.Clock

	limiter     *rate.Limiter
	sendTimeout time.Duration
	location    *time.Location
	logger      zerolog.Logger

	// mu serialises passes so a hook and a tick never deliver the same
	// notification twice
	mu sync.Mutex
}

// NewService creates a new dispatch service
func NewService(cfg *ServiceConfig) (*service, error) {
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
	case cfg.NoticeRepo == nil:
		return nil, ErrNilNoticeRepo
	case cfg.Evaluator == nil:
		return nil, ErrNilEvaluator
	case cfg.Messenger == nil:
		return nil, ErrNilMessenger
	case cfg.Messaging == nil:
		return nil, ErrNilMessaging
	case cfg.Codec == nil:
		return nil, ErrNilCodec
	case cfg.Clock == nil:
		return nil, ErrNilClock
	}

	limiter := cfg.Limiter
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 0)
	}

	timeout := cfg.SendTimeout
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}

	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}

	return &service{
		sessionRepo:    cfg.SessionRepo,
		attendeeRepo:   cfg.AttendeeRepo,
		rsvpRepo:       cfg.RSVPRepo,
		attendanceRepo: cfg.AttendanceRepo,
		ledgerRepo:     cfg.LedgerRepo,
		noticeRepo:     cfg.NoticeRepo,
		evaluator:      cfg.Evaluator,
		messenger:      cfg.Messenger,
		messaging:      cfg.Messaging,
		codec:          cfg.Codec,
		clock:          cfg.Clock,
		limiter:        limiter,
		sendTimeout:    timeout,
		location:       loc,
		logger:         cfg.Logger,
	}, nil
}

// Tick evaluates every open deadline of the due index once
func (s *service) Tick(ctx context.Context) (*TickOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()

	due, err := s.sessionRepo.GetDueDeadlines(ctx, &session.GetDueDeadlinesInput{
		Until: now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get due deadlines: %w", err)
	}

	out := &TickOutput{}

	total, err := s.drainNotices(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("notice redelivery failed")
	}

	for _, d := range due.Deadlines {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		out.Deadlines++

		res, removed, err := s.evaluateDeadline(ctx, d, now)
		if err != nil {
			s.logger.Error().Err(err).
				Str("session_id", d.SessionID).
				Str("kind", string(d.Kind)).
				Msg("deadline evaluation failed")
			continue
		}

		total.merge(res)
		if removed {
			out.Pruned++
		}
	}

	out.Sent = total.sent
	out.Failed = total.failed
	out.Retry = total.retry
	out.Queued = total.queued

	if out.Sent > 0 || out.Failed > 0 || out.Retry > 0 || out.Queued > 0 {
		s.logger.Info().
			Int("deadlines", out.Deadlines).
			Int("sent", out.Sent).
			Int("failed", out.Failed).
			Int("retry", out.Retry).
			Int("queued", out.Queued).
			Msg("tick finished")
	}

	return out, nil
}

// evaluateDeadline runs the pass of one due index entry and reports
// whether the entry was removed from the index
func (s *service) evaluateDeadline(ctx context.Context, d models.Deadline, now time.Time) (result, bool, error) {
	logger := s.logger.With().Str("session_id", d.SessionID).Str("kind", string(d.Kind)).Logger()

	sess, err := s.sessionRepo.GetSession(ctx, &session.GetSessionInput{
		SessionID: d.SessionID,
	})
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			logger.Warn().Msg("due deadline of unknown session")
			return result{}, true, s.removeDeadline(ctx, d)
		}
		return result{}, false, err
	}

	window, ok := s.evaluator.Window(sess, d.Kind)
	if !ok {
		logger.Warn().Msg("session has no start time")
		return result{}, true, s.removeDeadline(ctx, d)
	}

	if window.Passed(now) {
		if err := s.removeDeadline(ctx, d); err != nil {
			return result{}, false, err
		}

		// The invite window ends at start by construction
		if d.Kind != models.DeadlineInvite {
			logger.Warn().Time("closed", window.Closes).Msg("deadline window closed before delivery finished")
			s.record(ctx, models.ActionDeadlineMissed, "", sess.ID, string(d.Kind))
		}
		return result{}, true, nil
	}

	if !window.Contains(now) {
		return result{}, false, nil
	}

	var res result
	switch d.Kind {
	case models.DeadlineInvite:
		res, err = s.invitePass(ctx, sess, now)
	case models.DeadlineRemind24h, models.DeadlineRemind60m:
		res, err = s.reminderPass(ctx, sess, d.Kind)
	case models.DeadlineFeedbackAsk:
		res, err = s.feedbackPass(ctx, sess)
	default:
		return result{}, true, s.removeDeadline(ctx, d)
	}
	if err != nil {
		return res, false, err
	}

	// Invites stay indexed until start for attendees who become eligible
	// later; fixed windows are finished once nobody is left to retry
	if d.Kind != models.DeadlineInvite && res.retry == 0 {
		return res, true, s.removeDeadline(ctx, d)
	}

	return res, false, nil
}

func (s *service) removeDeadline(ctx context.Context, d models.Deadline) error {
	return s.sessionRepo.RemoveDueDeadline(ctx, &session.RemoveDueDeadlineInput{
		SessionID: d.SessionID,
		Kind:      d.Kind,
	})
}

// invitePass invites every eligible attendee to the session
func (s *service) invitePass(ctx context.Context, sess *models.Session, now time.Time) (result, error) {
	var res result

	earliest, err := s.isEarliestOfType(ctx, sess, now)
	if err != nil {
		return res, err
	}
	if !earliest {
		s.logger.Debug().Str("session_id", sess.ID).Msg("skipping invites, an earlier session of the type is pending")
		return res, nil
	}

	attendees, err := s.attendeeRepo.ListAttendees(ctx, &attendee.ListAttendeesInput{
		ReachableOnly: true,
	})
	if err != nil {
		return res, fmt.Errorf("failed to list attendees: %w", err)
	}

	for _, a := range attendees.Attendees {
		res.add(s.invite(ctx, sess, a, now))
	}

	return res, nil
}

// isEarliestOfType reports whether sess is the next future session of its type
func (s *service) isEarliestOfType(ctx context.Context, sess *models.Session, now time.Time) (bool, error) {
	sessions, err := s.sessionRepo.ListSessionsByType(ctx, &session.ListSessionsByTypeInput{
		TypeCode: sess.TypeCode,
		From:     now,
	})
	if err != nil {
		return false, fmt.Errorf("failed to list sessions of type %d: %w", sess.TypeCode, err)
	}

	for _, other := range sessions.Sessions {
		if !other.StartAt.After(now) {
			continue
		}
		return other.ID == sess.ID, nil
	}

	return false, nil
}

// invite delivers the two invitation messages to one attendee
func (s *service) invite(ctx context.Context, sess *models.Session, a *models.Attendee, now time.Time) outcome {
	logger := s.logger.With().Str("session_id", sess.ID).Str("attendee_id", a.ID).Logger()

	if !a.Reachable() {
		logger.Debug().Msg("skipping invite, attendee unreachable")
		return outcomeSkipped
	}

	sent, err := s.ledgerRepo.Exists(ctx, &delivery_ledger.ExistsInput{
		Action:     models.ActionInviteSent,
		AttendeeID: a.ID,
		SessionID:  sess.ID,
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to check ledger")
		return outcomeRetry
	}
	if sent {
		return outcomeSkipped
	}

	eligible, reason, err := s.inviteEligible(ctx, sess, a, now)
	if err != nil {
		logger.Error().Err(err).Msg("failed to check invite eligibility")
		return outcomeRetry
	}
	if !eligible {
		logger.Debug().Str("reason", reason).Msg("skipping invite")
		return outcomeSkipped
	}

	vars := s.sessionVars(sess, a)

	title, err := messaging.Text(ctx, s.messaging, messaging.KeyInviteTitle, vars)
	if err != nil {
		logger.Error().Err(err).Msg("failed to render invite")
		return outcomeRetry
	}

	body, err := messaging.Text(ctx, s.messaging, messaging.KeyInviteBody, vars)
	if err != nil {
		logger.Error().Err(err).Msg("failed to render invite")
		return outcomeRetry
	}

	buttons, err := s.buttons(ctx, sess.ID, a.ID,
		buttonSpec{key: messaging.KeyButtonGoing, action: callback.ActionGoing},
		buttonSpec{key: messaging.KeyButtonDeclined, action: callback.ActionDeclined},
		buttonSpec{key: messaging.KeyButtonRemind, action: callback.ActionRemindMe},
	)
	if err != nil {
		logger.Error().Err(err).Msg("failed to build invite buttons")
		return outcomeRetry
	}

	if _, err := s.send(ctx, &messenger.SendInput{
		Recipient: a.TransportID,
		Text:      title,
	}); err != nil {
		return s.failure(ctx, a, sess.ID, string(models.DeadlineInvite), err)
	}

	if _, err := s.send(ctx, &messenger.SendInput{
		Recipient: a.TransportID,
		Text:      body,
		Buttons:   buttons,
	}); err != nil {
		return s.failure(ctx, a, sess.ID, string(models.DeadlineInvite), err)
	}

	s.record(ctx, models.ActionInviteSent, a.ID, sess.ID, "")

	// An invited attendee holds an unset response until they answer
	unset := models.RSVPUnset
	if _, err := s.rsvpRepo.UpsertRSVP(ctx, &rsvp.UpsertRSVPInput{
		SessionID:  sess.ID,
		AttendeeID: a.ID,
		Response:   &unset,
		At:         now,
		IfMissing:  true,
	}); err != nil {
		logger.Error().Err(err).Msg("failed to store invited rsvp")
	}

	logger.Info().Msg("invite sent")
	return outcomeSent
}

// inviteEligible applies the audience rules of invitations
func (s *service) inviteEligible(ctx context.Context, sess *models.Session, a *models.Attendee, now time.Time) (bool, string, error) {
	records, err := s.attendanceRepo.ListForAttendee(ctx, &attendance.ListForAttendeeInput{
		AttendeeID:   a.ID,
		AttendedOnly: true,
	})
	if err != nil {
		return false, "", fmt.Errorf("failed to list attendance: %w", err)
	}

	for _, rec := range records.Records {
		other, err := s.lookupSession(ctx, rec.SessionID)
		if err != nil {
			return false, "", err
		}
		if other != nil && other.TypeCode == sess.TypeCode {
			return false, "attended session type", nil
		}
	}

	rsvps, err := s.rsvpRepo.ListForAttendee(ctx, &rsvp.ListForAttendeeInput{
		AttendeeID: a.ID,
	})
	if err != nil {
		return false, "", fmt.Errorf("failed to list rsvps: %w", err)
	}

	for _, r := range rsvps.RSVPs {
		if !r.Active() {
			continue
		}

		other, err := s.lookupSession(ctx, r.SessionID)
		if err != nil {
			return false, "", err
		}
		if other != nil && other.TypeCode == sess.TypeCode && other.StartAt.After(now) {
			return false, "active rsvp on session of type", nil
		}
	}

	return true, "", nil
}

// lookupSession returns nil for deleted sessions
func (s *service) lookupSession(ctx context.Context, sessionID string) (*models.Session, error) {
	sess, err := s.sessionRepo.GetSession(ctx, &session.GetSessionInput{
		SessionID: sessionID,
	})
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session %s: %w", sessionID, err)
	}
	return sess, nil
}

// wantsReminder reports whether an RSVP asks for a reminder that was not
// delivered yet
func wantsReminder(r *models.RSVP, kind models.DeadlineKind) bool {
	switch kind {
	case models.DeadlineRemind60m:
		return r.Response == models.RSVPGoing && !r.Reminded60m
	case models.DeadlineRemind24h:
		if r.Reminded24h || r.Response == models.RSVPDeclined {
			return false
		}
		return r.Response == models.RSVPGoing || r.Response == models.RSVPRemindMe || r.Remind24h
	}
	return false
}

// reminderPass delivers one reminder kind to every attendee asking for it
func (s *service) reminderPass(ctx context.Context, sess *models.Session, kind models.DeadlineKind) (result, error) {
	var res result

	rsvps, err := s.rsvpRepo.ListForSession(ctx, &rsvp.ListForSessionInput{
		SessionID: sess.ID,
	})
	if err != nil {
		return res, fmt.Errorf("failed to list rsvps: %w", err)
	}

	key := messaging.KeyReminder24h
	if kind == models.DeadlineRemind60m {
		key = messaging.KeyReminder60m
	}

	for _, r := range rsvps.RSVPs {
		if !wantsReminder(r, kind) {
			continue
		}

		a, err := s.attendeeRepo.GetAttendee(ctx, &attendee.GetAttendeeInput{
			AttendeeID: r.AttendeeID,
		})
		if err != nil {
			s.logger.Warn().Err(err).Str("attendee_id", r.AttendeeID).Msg("skipping reminder, attendee unavailable")
			continue
		}

		res.add(s.remind(ctx, sess, a, kind, key))
	}

	return res, nil
}

func (s *service) remind(ctx context.Context, sess *models.Session, a *models.Attendee, kind models.DeadlineKind, key string) outcome {
	logger := s.logger.With().Str("session_id", sess.ID).Str("attendee_id", a.ID).Str("kind", string(kind)).Logger()

	if !a.Reachable() {
		logger.Debug().Msg("skipping reminder, attendee unreachable")
		return outcomeSkipped
	}

	text, err := messaging.Text(ctx, s.messaging, key, s.sessionVars(sess, a))
	if err != nil {
		logger.Error().Err(err).Msg("failed to render reminder")
		return outcomeRetry
	}

	if _, err := s.send(ctx, &messenger.SendInput{
		Recipient: a.TransportID,
		Text:      text,
	}); err != nil {
		return s.failure(ctx, a, sess.ID, string(kind), err)
	}

	s.record(ctx, kind.SentAction(), a.ID, sess.ID, sess.StartAt.Format(time.RFC3339))

	if err := s.rsvpRepo.MarkReminded(ctx, &rsvp.MarkRemindedInput{
		SessionID:  sess.ID,
		AttendeeID: a.ID,
		Kind:       kind,
	}); err != nil {
		logger.Error().Err(err).Msg("failed to mark reminded")
	}

	logger.Info().Msg("reminder sent")
	return outcomeSent
}

// feedbackPass asks every attendee who attended for a rating
func (s *service) feedbackPass(ctx context.Context, sess *models.Session) (result, error) {
	var res result

	requested, err := s.ledgerRepo.Exists(ctx, &delivery_ledger.ExistsInput{
		Action:    models.ActionFeedbackRequested,
		SessionID: sess.ID,
	})
	if err != nil {
		return res, fmt.Errorf("failed to check ledger: %w", err)
	}
	if requested {
		return res, nil
	}

	records, err := s.attendanceRepo.ListForSession(ctx, &attendance.ListForSessionInput{
		SessionID:    sess.ID,
		AttendedOnly: true,
	})
	if err != nil {
		return res, fmt.Errorf("failed to list attendance: %w", err)
	}

	for _, rec := range records.Records {
		a, err := s.attendeeRepo.GetAttendee(ctx, &attendee.GetAttendeeInput{
			AttendeeID: rec.AttendeeID,
		})
		if err != nil {
			s.logger.Warn().Err(err).Str("attendee_id", rec.AttendeeID).Msg("skipping feedback ask, attendee unavailable")
			continue
		}

		res.add(s.askFeedback(ctx, sess, a))
	}

	// The guard closes the batch even when some asks failed; those are
	// redelivered from the notice queue
	s.record(ctx, models.ActionFeedbackRequested, "", sess.ID,
		fmt.Sprintf("sent=%d queued=%d", res.sent, res.queued))

	return res, nil
}

func (s *service) askFeedback(ctx context.Context, sess *models.Session, a *models.Attendee) outcome {
	logger := s.logger.With().Str("session_id", sess.ID).Str("attendee_id", a.ID).Logger()

	if !a.Reachable() {
		logger.Debug().Msg("skipping feedback ask, attendee unreachable")
		return outcomeSkipped
	}

	asked, err := s.ledgerRepo.Exists(ctx, &delivery_ledger.ExistsInput{
		Action:     models.ActionFeedbackAskSent,
		AttendeeID: a.ID,
		SessionID:  sess.ID,
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to check ledger")
		return outcomeRetry
	}
	if asked {
		return outcomeSkipped
	}

	text, err := messaging.Text(ctx, s.messaging, messaging.KeyFeedbackAsk, s.sessionVars(sess, a))
	if err != nil {
		logger.Error().Err(err).Msg("failed to render feedback ask")
		return outcomeRetry
	}

	stars := make([]buttonSpec, 0, 5)
	for i := 1; i <= 5; i++ {
		stars = append(stars, buttonSpec{
			key:    messaging.KeyButtonStar,
			vars:   messaging.Vars{"stars": strconv.Itoa(i)},
			action: callback.ActionStars,
			value:  strconv.Itoa(i),
		})
	}

	starRow, err := s.buttons(ctx, sess.ID, a.ID, stars...)
	if err != nil {
		logger.Error().Err(err).Msg("failed to build feedback buttons")
		return outcomeRetry
	}

	commentRow, err := s.buttons(ctx, sess.ID, a.ID, buttonSpec{
		key:    messaging.KeyButtonComment,
		action: callback.ActionComment,
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to build feedback buttons")
		return outcomeRetry
	}

	// Stars share one row
	rows := [][]messenger.Button{flatten(starRow), commentRow[0]}

	if _, err := s.send(ctx, &messenger.SendInput{
		Recipient: a.TransportID,
		Text:      text,
		Buttons:   rows,
	}); err != nil {
		if o := s.failure(ctx, a, sess.ID, string(models.DeadlineFeedbackAsk), err); o != outcomeRetry {
			return o
		}
		return s.queue(ctx, &models.PendingNotice{
			Action:     models.ActionFeedbackAskSent,
			AttendeeID: a.ID,
			SessionID:  sess.ID,
			Text:       text,
			Buttons:    noticeButtons(rows),
			Once:       true,
		})
	}

	s.record(ctx, models.ActionFeedbackAskSent, a.ID, sess.ID, "")

	logger.Info().Msg("feedback ask sent")
	return outcomeSent
}

// send waits for the limiter and delivers a message within SendTimeout
func (s *service) send(ctx context.Context, input *messenger.SendInput) (*messenger.SendOutput, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", messenger.ErrTransient, err)
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()

	out, err := s.messenger.Send(sendCtx, input)
	if err != nil {
		if errors.Is(sendCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, messenger.ErrTransient) {
			return nil, fmt.Errorf("%w: %v", messenger.ErrTransient, err)
		}
		return nil, err
	}

	return out, nil
}

// failure classifies a failed send. Permanent failures deactivate the
// attendee; transient ones are retried on the next tick.
func (s *service) failure(ctx context.Context, a *models.Attendee, sessionID, what string, err error) outcome {
	logger := s.logger.With().
		Str("session_id", sessionID).
		Str("attendee_id", a.ID).
		Str("what", what).
		Err(err).
		Logger()

	if !messenger.IsPermanent(err) {
		logger.Warn().Msg("delivery failed transiently")
		return outcomeRetry
	}

	logger.Warn().Msg("delivery failed permanently, deactivating attendee")

	if err := s.attendeeRepo.UpdateStatus(ctx, &attendee.UpdateStatusInput{
		AttendeeID: a.ID,
		Status:     models.AttendeeStatusInactive,
	}); err != nil {
		logger.Error().Err(err).Msg("failed to deactivate attendee")
	}
	a.Status = models.AttendeeStatusInactive

	s.record(ctx, models.ActionDeliveryFailed, a.ID, sessionID, what+": "+err.Error())

	return outcomeFailed
}

// record appends a ledger entry. A failed write is logged only; the send it
// describes already happened.
func (s *service) record(ctx context.Context, action models.DeliveryAction, attendeeID, sessionID, details string) {
	if _, err := s.ledgerRepo.Record(ctx, &delivery_ledger.RecordInput{
		Action:     action,
		AttendeeID: attendeeID,
		SessionID:  sessionID,
		Details:    details,
		Timestamp:  s.clock.Now(),
	}); err != nil {
		s.logger.Error().Err(err).
			Str("action", string(action)).
			Str("attendee_id", attendeeID).
			Str("session_id", sessionID).
			Msg("failed to write ledger entry")
	}
}

// sessionVars are the placeholders shared by session notifications
func (s *service) sessionVars(sess *models.Session, a *models.Attendee) messaging.Vars {
	start := sess.StartAt.In(s.location)

	vars := messaging.Vars{
		"title":       sess.Title,
		"description": sess.Description,
		"link":        sess.Link,
		"date":        start.Format(dateLayout),
		"time":        start.Format(timeLayout),
		"duration":    strconv.Itoa(sess.DurationMin),
	}
	if a != nil {
		vars["name"] = a.FullName
	}
	return vars
}

type buttonSpec struct {
	key    string
	vars   messaging.Vars
	action callback.Action
	value  string
}

// buttons renders one button per row carrying signed callback data
func (s *service) buttons(ctx context.Context, sessionID, attendeeID string, specs ...buttonSpec) ([][]messenger.Button, error) {
	rows := make([][]messenger.Button, 0, len(specs))
	for _, spec := range specs {
		label, err := messaging.Text(ctx, s.messaging, spec.key, spec.vars)
		if err != nil {
			return nil, err
		}

		data, err := s.codec.Encode(&callback.Payload{
			Action:     spec.action,
			SessionID:  sessionID,
			AttendeeID: attendeeID,
			Value:      spec.value,
		})
		if err != nil {
			return nil, err
		}

		rows = append(rows, []messenger.Button{{Label: label, Data: data}})
	}
	return rows, nil
}

func flatten(rows [][]messenger.Button) []messenger.Button {
	var out []messenger.Button
	for _, row := range rows {
		out = append(out, row...)
	}
	return out
}
