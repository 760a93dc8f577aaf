package dispatch

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/KirkDiggler/conferencebot/internal/messenger"
	"github.com/KirkDiggler/conferencebot/internal/models"
	"github.com/KirkDiggler/conferencebot/internal/repositories/attendance"
	"github.com/KirkDiggler/conferencebot/internal/repositories/attendee"
	"github.com/KirkDiggler/conferencebot/internal/repositories/delivery_ledger"
	"github.com/KirkDiggler/conferencebot/internal/repositories/rsvp"
	"github.com/KirkDiggler/conferencebot/internal/repositories/session"
	"github.com/KirkDiggler/conferencebot/internal/services/messaging"
)

// OnSessionCreated persists a new session and runs an invite pass when
// its invite window is already open
func (s *service) OnSessionCreated(ctx context.Context, input *OnSessionCreatedInput) (*OnSessionCreatedOutput, error) {
	if input == nil || input.Session == nil || input.Session.ID == "" {
		return nil, ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	sess := input.Session

	if err := s.save(ctx, sess, now); err != nil {
		return nil, err
	}

	s.record(ctx, models.ActionSessionCreated, "", sess.ID, "by="+sess.CreatedBy)

	out := &OnSessionCreatedOutput{}

	if !slices.Contains(s.evaluator.Due(sess, now), models.DeadlineInvite) {
		return out, nil
	}

	res, err := s.invitePass(ctx, sess, now)
	if err != nil {
		return out, err
	}
	out.Invited = res.sent

	return out, nil
}

// OnSessionUpdated persists an edited session and notifies attendees who
// are going. A new start time clears the reminded flags so reminders are
// delivered again for the new time.
func (s *service) OnSessionUpdated(ctx context.Context, input *OnSessionUpdatedInput) (*OnSessionUpdatedOutput, error) {
	if input == nil || input.Session == nil || input.Session.ID == "" {
		return nil, ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	sess := input.Session

	if err := s.save(ctx, sess, now); err != nil {
		return nil, err
	}

	if input.Field == models.SessionFieldStartAt {
		if err := s.rsvpRepo.ClearReminders(ctx, &rsvp.ClearRemindersInput{
			SessionID: sess.ID,
		}); err != nil {
			return nil, fmt.Errorf("failed to clear reminders: %w", err)
		}
	}

	s.record(ctx, models.ActionSessionUpdated, "", sess.ID, fmt.Sprintf("%s=%s", input.Field, input.Value))

	label, err := messaging.Text(ctx, s.messaging, messaging.FieldKey(input.Field), nil)
	if err != nil {
		label = string(input.Field)
	}

	what, err := messaging.Text(ctx, s.messaging, messaging.KeyUpdateWhat, messaging.Vars{
		"field": label,
		"value": input.Value,
	})
	if err != nil {
		return nil, err
	}

	vars := s.sessionVars(sess, nil)
	vars["what"] = what

	text, err := messaging.Text(ctx, s.messaging, messaging.KeyUpdate, vars)
	if err != nil {
		return nil, err
	}

	res, err := s.notifyGoing(ctx, sess, text, models.ActionUpdateNoticeSent, false)
	if err != nil {
		return nil, err
	}

	return &OnSessionUpdatedOutput{
		Notified: res.sent,
		Pending:  res.queued,
	}, nil
}

// OnSessionCancelled notifies attendees who are going, resets attendance
// and deletes the session with its due index entries
func (s *service) OnSessionCancelled(ctx context.Context, input *OnSessionCancelledInput) (*OnSessionCancelledOutput, error) {
	if input == nil || input.SessionID == "" {
		return nil, ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()

	sess, err := s.sessionRepo.GetSession(ctx, &session.GetSessionInput{
		SessionID: input.SessionID,
	})
	if err != nil {
		return nil, err
	}

	text, err := messaging.Text(ctx, s.messaging, messaging.KeyCancel, s.sessionVars(sess, nil))
	if err != nil {
		return nil, err
	}

	res, err := s.notifyGoing(ctx, sess, text, models.ActionCancelNoticeSent, true)
	if err != nil {
		return nil, err
	}

	reset, err := s.attendanceRepo.ResetForSession(ctx, &attendance.ResetForSessionInput{
		SessionID: sess.ID,
		At:        now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reset attendance: %w", err)
	}

	if err := s.sessionRepo.DeleteSession(ctx, &session.DeleteSessionInput{
		SessionID: sess.ID,
	}); err != nil {
		return nil, fmt.Errorf("failed to delete session: %w", err)
	}

	s.record(ctx, models.ActionSessionCanceled, "", sess.ID,
		fmt.Sprintf("notified=%d pending=%d", res.sent, res.queued))

	s.logger.Info().
		Str("session_id", sess.ID).
		Int("notified", res.sent).
		Int("pending", res.queued).
		Int("attendance_reset", reset.Reset).
		Msg("session cancelled")

	return &OnSessionCancelledOutput{
		Notified:        res.sent,
		AttendanceReset: reset.Reset,
		Pending:         res.queued,
	}, nil
}

// OnAttendeeRegistered sends the invites whose window is already open to
// an attendee who just registered
func (s *service) OnAttendeeRegistered(ctx context.Context, input *OnAttendeeRegisteredInput) (*OnAttendeeRegisteredOutput, error) {
	if input == nil || input.AttendeeID == "" {
		return nil, ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()

	a, err := s.attendeeRepo.GetAttendee(ctx, &attendee.GetAttendeeInput{
		AttendeeID: input.AttendeeID,
	})
	if err != nil {
		return nil, err
	}

	sessions, err := s.sessionRepo.ListSessions(ctx, &session.ListSessionsInput{
		From: now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	out := &OnAttendeeRegisteredOutput{}

	// Only the earliest future session of each type invites
	seen := make(map[int]bool)
	for _, sess := range sessions.Sessions {
		if !sess.StartAt.After(now) || seen[sess.TypeCode] {
			continue
		}
		seen[sess.TypeCode] = true

		if !slices.Contains(s.evaluator.Due(sess, now), models.DeadlineInvite) {
			continue
		}

		if s.invite(ctx, sess, a, now) == outcomeSent {
			out.Invited++
		}
	}

	return out, nil
}

// save persists a session with the due index entries whose window has
// not closed yet
func (s *service) save(ctx context.Context, sess *models.Session, now time.Time) error {
	var pending []models.Deadline
	for _, d := range s.evaluator.Deadlines(sess) {
		window, ok := s.evaluator.Window(sess, d.Kind)
		if !ok || window.Passed(now) {
			continue
		}
		pending = append(pending, d)
	}

	if err := s.sessionRepo.SaveSession(ctx, &session.SaveSessionInput{
		Session:   sess,
		Deadlines: pending,
	}); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

// notifyGoing sends text to every reachable attendee who is going. With
// once set, attendees who already received action are skipped.
func (s *service) notifyGoing(ctx context.Context, sess *models.Session, text string, action models.DeliveryAction, once bool) (result, error) {
	var res result

	rsvps, err := s.rsvpRepo.ListForSession(ctx, &rsvp.ListForSessionInput{
		SessionID: sess.ID,
	})
	if err != nil {
		return res, fmt.Errorf("failed to list rsvps: %w", err)
	}

	for _, r := range rsvps.RSVPs {
		if r.Response != models.RSVPGoing {
			continue
		}

		a, err := s.attendeeRepo.GetAttendee(ctx, &attendee.GetAttendeeInput{
			AttendeeID: r.AttendeeID,
		})
		if err != nil {
			s.logger.Warn().Err(err).Str("attendee_id", r.AttendeeID).Msg("skipping notice, attendee unavailable")
			continue
		}

		if !a.Reachable() {
			continue
		}

		if once {
			done, err := s.ledgerRepo.Exists(ctx, &delivery_ledger.ExistsInput{
				Action:     action,
				AttendeeID: a.ID,
				SessionID:  sess.ID,
			})
			if err != nil {
				return res, fmt.Errorf("failed to check ledger: %w", err)
			}
			if done {
				continue
			}
		}

		if _, err := s.send(ctx, &messenger.SendInput{
			Recipient: a.TransportID,
			Text:      text,
		}); err != nil {
			o := s.failure(ctx, a, sess.ID, string(action), err)
			if o == outcomeRetry {
				// Notices are not re-triggered by the due index
				o = s.queue(ctx, &models.PendingNotice{
					Action:     action,
					AttendeeID: a.ID,
					SessionID:  sess.ID,
					Text:       text,
					Once:       once,
				})
			}
			res.add(o)
			continue
		}

		s.record(ctx, action, a.ID, sess.ID, "")
		res.add(outcomeSent)
	}

	return res, nil
}
