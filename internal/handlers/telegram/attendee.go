package telegram

import (
	"context"
	"errors"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/KirkDiggler/conferencebot/internal/callback"
	"github.com/KirkDiggler/conferencebot/internal/messenger"
	"github.com/KirkDiggler/conferencebot/internal/models"
	"github.com/KirkDiggler/conferencebot/internal/services/escalation"
	"github.com/KirkDiggler/conferencebot/internal/services/messaging"
	"github.com/KirkDiggler/conferencebot/internal/services/registration"
	"github.com/KirkDiggler/conferencebot/internal/services/rsvp"
	"github.com/KirkDiggler/conferencebot/internal/wizard"
)

// handleStart greets known attendees and starts registration for new ones
func (b *Bot) handleStart(ctx context.Context, chatID int64, transportID, args string) error {
	args = strings.TrimSpace(args)
	if strings.HasPrefix(args, adminDeepLinkPrefix) {
		return b.startAdmin(ctx, chatID, transportID, strings.TrimPrefix(args, adminDeepLinkPrefix))
	}

	b.wizards.Clear(transportID)

	attendee, err := b.registration.Lookup(ctx, &registration.LookupInput{
		TransportID: transportID,
	})
	if err != nil {
		if errors.Is(err, registration.ErrNotRegistered) {
			b.wizards.Set(transportID, wizard.AwaitingName{})
			return b.say(ctx, chatID, messaging.KeyAskName, nil, nil)
		}
		return err
	}

	return b.welcome(ctx, chatID, attendee)
}

// welcome lists the session types with attendance marks
func (b *Bot) welcome(ctx context.Context, chatID int64, attendee *models.Attendee) error {
	out, err := b.registration.Welcome(ctx, &registration.WelcomeInput{
		AttendeeID: attendee.ID,
	})
	if err != nil {
		return err
	}

	header, err := b.text(ctx, messaging.KeyWelcome, messaging.Vars{"name": attendee.FullName})
	if err != nil {
		return err
	}

	lines := []string{header}
	if len(out.Types) == 0 {
		empty, err := b.text(ctx, messaging.KeyWelcomeEmpty, nil)
		if err != nil {
			return err
		}
		lines = append(lines, empty)
	}

	for _, progress := range out.Types {
		key := messaging.KeyWelcomeUnseen
		if progress.Attended {
			key = messaging.KeyWelcomeSeen
		}
		line, err := b.text(ctx, key, messaging.Vars{"title": progress.SessionType.Title})
		if err != nil {
			return err
		}
		lines = append(lines, line)
	}

	return b.sendText(ctx, chatID, strings.Join(lines, "\n"), nil)
}

func (b *Bot) handleIdleText(ctx context.Context, chatID int64, transportID string) error {
	_, err := b.registration.Lookup(ctx, &registration.LookupInput{
		TransportID: transportID,
	})
	if err != nil {
		if errors.Is(err, registration.ErrNotRegistered) {
			return b.say(ctx, chatID, messaging.KeyNeedRegister, nil, nil)
		}
		return err
	}
	return b.say(ctx, chatID, messaging.KeyHelp, nil, nil)
}

func (b *Bot) handleName(ctx context.Context, chatID int64, transportID, text string) error {
	name, ok := registration.NormalizeName(text)
	if !ok {
		return b.say(ctx, chatID, messaging.KeyBadName, nil, nil)
	}

	b.wizards.Set(transportID, wizard.AwaitingPhone{FullName: name})
	return b.say(ctx, chatID, messaging.KeyAskPhone, nil, nil)
}

func (b *Bot) handlePhone(ctx context.Context, chatID int64, transportID string, st wizard.AwaitingPhone, text string) error {
	phone, ok := registration.NormalizePhone(text)
	if !ok {
		return b.say(ctx, chatID, messaging.KeyBadPhone, nil, nil)
	}

	out, err := b.registration.Register(ctx, &registration.RegisterInput{
		TransportID: transportID,
		FullName:    st.FullName,
		Phone:       phone,
	})
	if err != nil {
		switch {
		case errors.Is(err, registration.ErrInvalidPhone):
			return b.say(ctx, chatID, messaging.KeyBadPhone, nil, nil)
		case errors.Is(err, registration.ErrNameTooShort):
			b.wizards.Set(transportID, wizard.AwaitingName{})
			return b.say(ctx, chatID, messaging.KeyBadName, nil, nil)
		}
		return err
	}

	b.wizards.Clear(transportID)
	return b.welcome(ctx, chatID, out.Attendee)
}

func (b *Bot) handleComment(ctx context.Context, chatID int64, transportID string, st wizard.AwaitingComment, text string) error {
	_, err := b.escalation.SubmitComment(ctx, &escalation.SubmitCommentInput{
		SessionID:  st.SessionID,
		AttendeeID: st.AttendeeID,
		Comment:    text,
	})
	if err != nil {
		switch {
		case errors.Is(err, escalation.ErrEmptyComment):
			return b.say(ctx, chatID, messaging.KeyAskComment, nil, nil)
		case errors.Is(err, escalation.ErrSessionNotFound):
			b.wizards.Clear(transportID)
			return b.say(ctx, chatID, messaging.KeySessionMissing, nil, nil)
		}
		return err
	}

	b.wizards.Clear(transportID)
	return b.say(ctx, chatID, messaging.KeyCommentSaved, nil, nil)
}

// handleAttendeeCallback serves invitation and feedback buttons. A button
// only works for the attendee it was sent to.
func (b *Bot) handleAttendeeCallback(ctx context.Context, q *tgbotapi.CallbackQuery, chatID int64, transportID string, payload *callback.Payload) error {
	if payload.AttendeeID != models.AttendeeIDForTransport(transportID) {
		b.logger.Warn().
			Str("transport_id", transportID).
			Str("attendee_id", payload.AttendeeID).
			Msg("callback used by another user")
		return b.answerKey(ctx, q.ID, messaging.KeyLinkExpired)
	}

	if err := b.answer(q.ID, ""); err != nil {
		b.logger.Debug().Err(err).Msg("failed to answer callback")
	}

	switch payload.Action {
	case callback.ActionGoing:
		return b.handleRSVP(ctx, q, chatID, payload, models.RSVPGoing)
	case callback.ActionDeclined:
		return b.handleRSVP(ctx, q, chatID, payload, models.RSVPDeclined)
	case callback.ActionRemindMe:
		return b.handleRSVP(ctx, q, chatID, payload, models.RSVPRemindMe)
	case callback.ActionAlternative:
		return b.handleAlternative(ctx, q, chatID, payload)
	case callback.ActionStars:
		return b.handleStars(ctx, chatID, payload)
	case callback.ActionComment:
		b.wizards.Set(transportID, wizard.AwaitingComment{
			SessionID:  payload.SessionID,
			AttendeeID: payload.AttendeeID,
		})
		return b.say(ctx, chatID, messaging.KeyAskComment, nil, nil)
	}

	b.logger.Warn().Str("action", string(payload.Action)).Msg("unknown callback action")
	return nil
}

func (b *Bot) handleRSVP(ctx context.Context, q *tgbotapi.CallbackQuery, chatID int64, payload *callback.Payload, response models.RSVPResponse) error {
	out, err := b.rsvp.Respond(ctx, &rsvp.RespondInput{
		SessionID:  payload.SessionID,
		AttendeeID: payload.AttendeeID,
		Response:   response,
	})
	if err != nil {
		return b.rsvpFailed(ctx, chatID, err)
	}

	b.clearButtons(q)

	switch response {
	case models.RSVPGoing:
		return b.say(ctx, chatID, messaging.KeyRSVPGoing, nil, nil)
	case models.RSVPRemindMe:
		return b.say(ctx, chatID, messaging.KeyRSVPRemindMe, nil, nil)
	}

	if err := b.say(ctx, chatID, messaging.KeyRSVPDeclined, nil, nil); err != nil {
		return err
	}

	if len(out.Alternatives) == 0 {
		return nil
	}

	rows := make([][]messenger.Button, 0, len(out.Alternatives))
	for _, alt := range out.Alternatives {
		btn, err := b.labelButton(b.format(alt.StartAt)+" "+alt.Title, &callback.Payload{
			Action:     callback.ActionAlternative,
			SessionID:  alt.ID,
			AttendeeID: payload.AttendeeID,
		})
		if err != nil {
			return err
		}
		rows = append(rows, []messenger.Button{btn})
	}

	return b.say(ctx, chatID, messaging.KeyRSVPAlt, nil, rows)
}

func (b *Bot) handleAlternative(ctx context.Context, q *tgbotapi.CallbackQuery, chatID int64, payload *callback.Payload) error {
	_, err := b.rsvp.ChooseAlternative(ctx, &rsvp.ChooseAlternativeInput{
		SessionID:  payload.SessionID,
		AttendeeID: payload.AttendeeID,
	})
	if err != nil {
		return b.rsvpFailed(ctx, chatID, err)
	}

	b.clearButtons(q)
	return b.say(ctx, chatID, messaging.KeyRSVPGoing, nil, nil)
}

func (b *Bot) rsvpFailed(ctx context.Context, chatID int64, err error) error {
	switch {
	case errors.Is(err, rsvp.ErrSessionNotFound):
		return b.say(ctx, chatID, messaging.KeySessionMissing, nil, nil)
	case errors.Is(err, rsvp.ErrNotRegistered):
		return b.say(ctx, chatID, messaging.KeyNeedRegister, nil, nil)
	}
	return err
}

func (b *Bot) handleStars(ctx context.Context, chatID int64, payload *callback.Payload) error {
	stars, err := strconv.Atoi(payload.Value)
	if err != nil {
		return b.say(ctx, chatID, messaging.KeyLinkExpired, nil, nil)
	}

	out, err := b.escalation.SubmitStars(ctx, &escalation.SubmitStarsInput{
		SessionID:  payload.SessionID,
		AttendeeID: payload.AttendeeID,
		Stars:      stars,
	})
	if err != nil {
		switch {
		case errors.Is(err, escalation.ErrInvalidStars):
			return b.say(ctx, chatID, messaging.KeyLinkExpired, nil, nil)
		case errors.Is(err, escalation.ErrSessionNotFound):
			return b.say(ctx, chatID, messaging.KeySessionMissing, nil, nil)
		}
		return err
	}

	return b.say(ctx, chatID, messaging.KeyStarsSaved, messaging.Vars{
		"stars": strconv.Itoa(out.Feedback.Stars),
	}, nil)
}
