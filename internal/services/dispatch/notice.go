package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/KirkDiggler/conferencebot/internal/messenger"
	"github.com/KirkDiggler/conferencebot/internal/models"
	"github.com/KirkDiggler/conferencebot/internal/repositories/attendee"
	"github.com/KirkDiggler/conferencebot/internal/repositories/delivery_ledger"
	"github.com/KirkDiggler/conferencebot/internal/repositories/notice"
)

// queue stores a notice whose delivery failed transiently so the next
// tick retries it
func (s *service) queue(ctx context.Context, n *models.PendingNotice) outcome {
	logger := s.logger.With().
		Str("session_id", n.SessionID).
		Str("attendee_id", n.AttendeeID).
		Str("action", string(n.Action)).
		Logger()

	n.Attempts++
	if _, err := s.noticeRepo.SaveNotice(ctx, &notice.SaveNoticeInput{
		Notice: n,
	}); err != nil {
		logger.Error().Err(err).Msg("failed to queue notice")
		return outcomeRetry
	}

	logger.Info().Msg("notice queued for redelivery")
	return outcomeQueued
}

// drainNotices retries every queued notice once
func (s *service) drainNotices(ctx context.Context) (result, error) {
	var res result

	pending, err := s.noticeRepo.ListNotices(ctx, &notice.ListNoticesInput{})
	if err != nil {
		return res, fmt.Errorf("failed to list notices: %w", err)
	}

	for _, n := range pending.Notices {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.add(s.redeliver(ctx, n))
	}

	return res, nil
}

func (s *service) redeliver(ctx context.Context, n *models.PendingNotice) outcome {
	logger := s.logger.With().
		Str("notice_id", n.ID).
		Str("session_id", n.SessionID).
		Str("attendee_id", n.AttendeeID).
		Str("action", string(n.Action)).
		Logger()

	if n.Once {
		done, err := s.ledgerRepo.Exists(ctx, &delivery_ledger.ExistsInput{
			Action:     n.Action,
			AttendeeID: n.AttendeeID,
			SessionID:  n.SessionID,
		})
		if err != nil {
			logger.Error().Err(err).Msg("failed to check ledger")
			return outcomeRetry
		}
		if done {
			logger.Debug().Msg("dropping notice, already delivered")
			return s.dropNotice(ctx, n)
		}
	}

	a, err := s.attendeeRepo.GetAttendee(ctx, &attendee.GetAttendeeInput{
		AttendeeID: n.AttendeeID,
	})
	if err != nil {
		if errors.Is(err, attendee.ErrAttendeeNotFound) {
			logger.Warn().Msg("dropping notice of unknown attendee")
			return s.dropNotice(ctx, n)
		}
		logger.Error().Err(err).Msg("failed to get attendee")
		return outcomeRetry
	}

	if !a.Reachable() {
		logger.Debug().Msg("dropping notice, attendee unreachable")
		return s.dropNotice(ctx, n)
	}

	if _, err := s.send(ctx, &messenger.SendInput{
		Recipient: a.TransportID,
		Text:      n.Text,
		Buttons:   messengerButtons(n.Buttons),
	}); err != nil {
		o := s.failure(ctx, a, n.SessionID, string(n.Action), err)
		if o != outcomeRetry {
			s.dropNotice(ctx, n)
			return o
		}

		n.Attempts++
		if _, err := s.noticeRepo.SaveNotice(ctx, &notice.SaveNoticeInput{
			Notice: n,
		}); err != nil {
			logger.Error().Err(err).Msg("failed to update notice")
		}
		return outcomeRetry
	}

	s.record(ctx, n.Action, a.ID, n.SessionID, fmt.Sprintf("attempts=%d", n.Attempts+1))
	s.dropNotice(ctx, n)

	logger.Info().Msg("queued notice delivered")
	return outcomeSent
}

func (s *service) dropNotice(ctx context.Context, n *models.PendingNotice) outcome {
	if err := s.noticeRepo.DeleteNotice(ctx, &notice.DeleteNoticeInput{
		NoticeID: n.ID,
	}); err != nil {
		s.logger.Error().Err(err).Str("notice_id", n.ID).Msg("failed to delete notice")
	}
	return outcomeSkipped
}

func noticeButtons(rows [][]messenger.Button) [][]models.NoticeButton {
	if len(rows) == 0 {
		return nil
	}
	out := make([][]models.NoticeButton, len(rows))
	for i, row := range rows {
		out[i] = make([]models.NoticeButton, len(row))
		for j, b := range row {
			out[i][j] = models.NoticeButton{Label: b.Label, Data: b.Data}
		}
	}
	return out
}

func messengerButtons(rows [][]models.NoticeButton) [][]messenger.Button {
	if len(rows) == 0 {
		return nil
	}
	out := make([][]messenger.Button, len(rows))
	for i, row := range rows {
		out[i] = make([]messenger.Button, len(row))
		for j, b := range row {
			out[i][j] = messenger.Button{Label: b.Label, Data: b.Data}
		}
	}
	return out
}
