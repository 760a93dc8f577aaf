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
	"github.com/KirkDiggler/conferencebot/internal/services/admin"
	"github.com/KirkDiggler/conferencebot/internal/services/messaging"
	"github.com/KirkDiggler/conferencebot/internal/wizard"
)

var editableFields = []models.SessionField{
	models.SessionFieldTitle,
	models.SessionFieldDescription,
	models.SessionFieldStartAt,
	models.SessionFieldDuration,
	models.SessionFieldLink,
}

// startAdmin handles the admin deep link
func (b *Bot) startAdmin(ctx context.Context, chatID int64, transportID, password string) error {
	b.wizards.Clear(transportID)

	_, err := b.admin.GrantAccess(ctx, &admin.GrantAccessInput{
		TransportID: transportID,
		Password:    password,
	})
	if err != nil {
		if errors.Is(err, admin.ErrBadPassword) || errors.Is(err, admin.ErrAdminDisabled) {
			return b.say(ctx, chatID, messaging.KeyAdminBadPassword, nil, nil)
		}
		return err
	}

	return b.adminHome(ctx, chatID)
}

func (b *Bot) adminHome(ctx context.Context, chatID int64) error {
	add, err := b.button(ctx, messaging.KeyAdminMenuAdd, nil, &callback.Payload{Action: callback.ActionAdminAdd})
	if err != nil {
		return err
	}

	list, err := b.button(ctx, messaging.KeyAdminMenuList, nil, &callback.Payload{Action: callback.ActionAdminList, Value: "0"})
	if err != nil {
		return err
	}

	logout, err := b.button(ctx, messaging.KeyAdminMenuLogout, nil, &callback.Payload{Action: callback.ActionAdminLogout})
	if err != nil {
		return err
	}

	return b.say(ctx, chatID, messaging.KeyAdminWelcome, nil, [][]messenger.Button{{add}, {list}, {logout}})
}

// adminDenied ends any admin dialog after the grant expired
func (b *Bot) adminDenied(ctx context.Context, chatID int64, transportID string) error {
	b.wizards.Clear(transportID)
	return b.say(ctx, chatID, messaging.KeyAdminDenied, nil, nil)
}

func (b *Bot) handleAdminCallback(ctx context.Context, q *tgbotapi.CallbackQuery, chatID int64, transportID string, payload *callback.Payload) error {
	if err := b.admin.CheckAccess(ctx, &admin.CheckAccessInput{TransportID: transportID}); err != nil {
		if errors.Is(err, admin.ErrAccessDenied) {
			if answerErr := b.answer(q.ID, ""); answerErr != nil {
				b.logger.Debug().Err(answerErr).Msg("failed to answer callback")
			}
			return b.adminDenied(ctx, chatID, transportID)
		}
		return err
	}

	if err := b.answer(q.ID, ""); err != nil {
		b.logger.Debug().Err(err).Msg("failed to answer callback")
	}

	var err error
	switch payload.Action {
	case callback.ActionAdminHome:
		b.wizards.Clear(transportID)
		err = b.adminHome(ctx, chatID)
	case callback.ActionAdminAdd:
		err = b.pickType(ctx, chatID, transportID)
	case callback.ActionAdminAddType:
		err = b.startDraft(ctx, chatID, transportID, payload.Value)
	case callback.ActionAdminAddTitle:
		err = b.draftStep(ctx, chatID, transportID, wizard.CreateStepTitle, messaging.KeyAdminAskTitle)
	case callback.ActionAdminAddDesc:
		err = b.draftStep(ctx, chatID, transportID, wizard.CreateStepDesc, messaging.KeyAdminAskDesc)
	case callback.ActionAdminAddNext:
		err = b.draftStep(ctx, chatID, transportID, wizard.CreateStepStart, messaging.KeyAdminAskStart)
	case callback.ActionAdminList:
		page, _ := strconv.Atoi(payload.Value)
		err = b.listSessions(ctx, chatID, transportID, page)
	case callback.ActionAdminView:
		err = b.viewSession(ctx, chatID, transportID, payload.SessionID)
	case callback.ActionAdminEdit:
		err = b.pickField(ctx, chatID, payload.SessionID)
	case callback.ActionAdminEditField:
		err = b.askValue(ctx, chatID, transportID, payload.SessionID, models.SessionField(payload.Value))
	case callback.ActionAdminCancel:
		err = b.confirmCancel(ctx, chatID, payload.SessionID)
	case callback.ActionAdminCancelYes:
		err = b.cancelSession(ctx, chatID, transportID, payload.SessionID)
	case callback.ActionAdminHistory:
		err = b.sessionHistory(ctx, chatID, transportID, payload.SessionID)
	case callback.ActionAdminLogout:
		err = b.logout(ctx, chatID, transportID)
	}

	if errors.Is(err, admin.ErrAccessDenied) {
		return b.adminDenied(ctx, chatID, transportID)
	}
	return err
}

func (b *Bot) pickType(ctx context.Context, chatID int64, transportID string) error {
	types, err := b.admin.ListSessionTypes(ctx, &admin.ListSessionTypesInput{AdminID: transportID})
	if err != nil {
		return err
	}

	if len(types) == 0 {
		return b.say(ctx, chatID, messaging.KeyAdminNoTypes, nil, nil)
	}

	rows := make([][]messenger.Button, 0, len(types))
	for _, t := range types {
		btn, err := b.labelButton(t.Title, &callback.Payload{
			Action: callback.ActionAdminAddType,
			Value:  strconv.Itoa(t.Code),
		})
		if err != nil {
			return err
		}
		rows = append(rows, []messenger.Button{btn})
	}

	return b.say(ctx, chatID, messaging.KeyAdminPickType, nil, rows)
}

func (b *Bot) startDraft(ctx context.Context, chatID int64, transportID, code string) error {
	types, err := b.admin.ListSessionTypes(ctx, &admin.ListSessionTypesInput{AdminID: transportID})
	if err != nil {
		return err
	}

	for _, t := range types {
		if strconv.Itoa(t.Code) != code {
			continue
		}

		draft := wizard.AdminCreate{
			Step:        wizard.CreateStepMenu,
			TypeCode:    t.Code,
			TypeTitle:   t.Title,
			Title:       t.Title,
			Description: t.Description,
		}
		b.wizards.Set(transportID, draft)
		return b.showDraft(ctx, chatID, draft)
	}

	return b.say(ctx, chatID, messaging.KeyAdminNoTypes, nil, nil)
}

func (b *Bot) showDraft(ctx context.Context, chatID int64, draft wizard.AdminCreate) error {
	specs := []struct {
		key    string
		action callback.Action
	}{
		{messaging.KeyAdminEditTitle, callback.ActionAdminAddTitle},
		{messaging.KeyAdminEditDesc, callback.ActionAdminAddDesc},
		{messaging.KeyAdminNext, callback.ActionAdminAddNext},
	}

	rows := make([][]messenger.Button, 0, len(specs))
	for _, spec := range specs {
		btn, err := b.button(ctx, spec.key, nil, &callback.Payload{Action: spec.action})
		if err != nil {
			return err
		}
		rows = append(rows, []messenger.Button{btn})
	}

	return b.say(ctx, chatID, messaging.KeyAdminDraft, messaging.Vars{
		"type":        draft.TypeTitle,
		"title":       draft.Title,
		"description": draft.Description,
	}, rows)
}

// draftStep moves the creation dialog to a text step
func (b *Bot) draftStep(ctx context.Context, chatID int64, transportID string, step wizard.CreateStep, prompt string) error {
	state, ok := b.wizards.Get(transportID)
	draft, isDraft := state.(wizard.AdminCreate)
	if !ok || !isDraft {
		return b.say(ctx, chatID, messaging.KeyAdminInterrupted, nil, nil)
	}

	draft.Step = step
	b.wizards.Set(transportID, draft)
	return b.say(ctx, chatID, prompt, nil, nil)
}

// handleCreateText consumes one answer of the creation dialog
func (b *Bot) handleCreateText(ctx context.Context, chatID int64, transportID string, draft wizard.AdminCreate, text string) error {
	if err := b.admin.CheckAccess(ctx, &admin.CheckAccessInput{TransportID: transportID}); err != nil {
		if errors.Is(err, admin.ErrAccessDenied) {
			return b.adminDenied(ctx, chatID, transportID)
		}
		return err
	}

	switch draft.Step {
	case wizard.CreateStepTitle, wizard.CreateStepDesc:
		if text == "" {
			prompt := messaging.KeyAdminAskTitle
			if draft.Step == wizard.CreateStepDesc {
				prompt = messaging.KeyAdminAskDesc
			}
			return b.say(ctx, chatID, prompt, nil, nil)
		}
		if draft.Step == wizard.CreateStepTitle {
			draft.Title = text
		} else {
			draft.Description = text
		}
		draft.Step = wizard.CreateStepMenu
		b.wizards.Set(transportID, draft)
		return b.showDraft(ctx, chatID, draft)

	case wizard.CreateStepStart:
		start, err := admin.ParseStart(text, b.location)
		if err != nil {
			return b.say(ctx, chatID, messaging.KeyAdminBadStart, nil, nil)
		}
		draft.StartAt = start
		draft.Step = wizard.CreateStepDuration
		b.wizards.Set(transportID, draft)
		return b.say(ctx, chatID, messaging.KeyAdminAskDuration, nil, nil)

	case wizard.CreateStepDuration:
		minutes, err := admin.ParseDuration(text)
		if err != nil {
			return b.say(ctx, chatID, messaging.KeyAdminBadDuration, nil, nil)
		}
		draft.DurationMin = minutes
		draft.Step = wizard.CreateStepLink
		b.wizards.Set(transportID, draft)
		return b.say(ctx, chatID, messaging.KeyAdminAskLink, nil, nil)

	case wizard.CreateStepLink:
		if text == "" {
			return b.say(ctx, chatID, messaging.KeyAdminAskLink, nil, nil)
		}
		return b.createSession(ctx, chatID, transportID, draft, text)
	}

	return b.showDraft(ctx, chatID, draft)
}

func (b *Bot) createSession(ctx context.Context, chatID int64, transportID string, draft wizard.AdminCreate, link string) error {
	out, err := b.admin.CreateSession(ctx, &admin.CreateSessionInput{
		AdminID:     transportID,
		TypeCode:    draft.TypeCode,
		Title:       draft.Title,
		Description: draft.Description,
		StartAt:     draft.StartAt,
		DurationMin: draft.DurationMin,
		Link:        link,
	})
	if err != nil {
		switch {
		case errors.Is(err, admin.ErrAccessDenied):
			return b.adminDenied(ctx, chatID, transportID)
		case errors.Is(err, admin.ErrEmptyValue):
			return b.say(ctx, chatID, messaging.KeyAdminAskLink, nil, nil)
		case errors.Is(err, admin.ErrSessionTypeNotFound), errors.Is(err, admin.ErrInvalidStart), errors.Is(err, admin.ErrInvalidDuration):
			b.wizards.Clear(transportID)
			return b.say(ctx, chatID, messaging.KeyAdminInterrupted, nil, nil)
		}
		return err
	}

	b.wizards.Clear(transportID)
	return b.say(ctx, chatID, messaging.KeyAdminCreated, b.sessionVars(out.Session), nil)
}

func (b *Bot) listSessions(ctx context.Context, chatID int64, transportID string, page int) error {
	b.wizards.Clear(transportID)

	out, err := b.admin.ListSessions(ctx, &admin.ListSessionsInput{
		AdminID: transportID,
		Page:    page,
	})
	if err != nil {
		return err
	}

	rows := make([][]messenger.Button, 0, len(out.Sessions)+2)
	for _, sess := range out.Sessions {
		btn, err := b.labelButton(b.format(sess.StartAt)+" "+sess.Title, &callback.Payload{
			Action:    callback.ActionAdminView,
			SessionID: sess.ID,
		})
		if err != nil {
			return err
		}
		rows = append(rows, []messenger.Button{btn})
	}

	var nav []messenger.Button
	if out.Page > 0 {
		prev, err := b.labelButton("◀️", &callback.Payload{Action: callback.ActionAdminList, Value: strconv.Itoa(out.Page - 1)})
		if err != nil {
			return err
		}
		nav = append(nav, prev)
	}
	if out.Page < out.Pages-1 {
		next, err := b.labelButton("▶️", &callback.Payload{Action: callback.ActionAdminList, Value: strconv.Itoa(out.Page + 1)})
		if err != nil {
			return err
		}
		nav = append(nav, next)
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}

	back, err := b.button(ctx, messaging.KeyButtonBack, nil, &callback.Payload{Action: callback.ActionAdminHome})
	if err != nil {
		return err
	}
	rows = append(rows, []messenger.Button{back})

	return b.say(ctx, chatID, messaging.KeyAdminList, messaging.Vars{
		"total": strconv.Itoa(out.Total),
		"page":  strconv.Itoa(out.Page + 1),
		"pages": strconv.Itoa(out.Pages),
	}, rows)
}

func (b *Bot) viewSession(ctx context.Context, chatID int64, transportID, sessionID string) error {
	sess, err := b.admin.GetSession(ctx, &admin.GetSessionInput{
		AdminID:   transportID,
		SessionID: sessionID,
	})
	if err != nil {
		if errors.Is(err, admin.ErrSessionNotFound) {
			return b.say(ctx, chatID, messaging.KeySessionMissing, nil, nil)
		}
		return err
	}

	edit, err := b.button(ctx, messaging.KeyAdminActEdit, nil, &callback.Payload{Action: callback.ActionAdminEdit, SessionID: sess.ID})
	if err != nil {
		return err
	}

	cancel, err := b.button(ctx, messaging.KeyAdminActCancel, nil, &callback.Payload{Action: callback.ActionAdminCancel, SessionID: sess.ID})
	if err != nil {
		return err
	}

	history, err := b.button(ctx, messaging.KeyAdminActHistory, nil, &callback.Payload{Action: callback.ActionAdminHistory, SessionID: sess.ID})
	if err != nil {
		return err
	}

	back, err := b.button(ctx, messaging.KeyButtonBack, nil, &callback.Payload{Action: callback.ActionAdminList, Value: "0"})
	if err != nil {
		return err
	}

	return b.say(ctx, chatID, messaging.KeyAdminSession, b.sessionVars(sess), [][]messenger.Button{{edit}, {cancel}, {history}, {back}})
}

func (b *Bot) pickField(ctx context.Context, chatID int64, sessionID string) error {
	rows := make([][]messenger.Button, 0, len(editableFields)+1)
	for _, field := range editableFields {
		btn, err := b.button(ctx, messaging.FieldKey(field), nil, &callback.Payload{
			Action:    callback.ActionAdminEditField,
			SessionID: sessionID,
			Value:     string(field),
		})
		if err != nil {
			return err
		}
		rows = append(rows, []messenger.Button{btn})
	}

	back, err := b.button(ctx, messaging.KeyButtonBack, nil, &callback.Payload{Action: callback.ActionAdminView, SessionID: sessionID})
	if err != nil {
		return err
	}
	rows = append(rows, []messenger.Button{back})

	return b.say(ctx, chatID, messaging.KeyAdminPickField, nil, rows)
}

func (b *Bot) askValue(ctx context.Context, chatID int64, transportID, sessionID string, field models.SessionField) error {
	label, err := b.text(ctx, messaging.FieldKey(field), nil)
	if err != nil {
		return err
	}

	b.wizards.Set(transportID, wizard.AdminEditField{
		SessionID: sessionID,
		Field:     field,
	})

	key := messaging.KeyAdminAskValue
	if field == models.SessionFieldStartAt {
		key = messaging.KeyAdminAskStart
	}
	return b.say(ctx, chatID, key, messaging.Vars{"field": label}, nil)
}

// handleEditText applies a new field value; invalid values re-prompt
func (b *Bot) handleEditText(ctx context.Context, chatID int64, transportID string, st wizard.AdminEditField, text string) error {
	_, err := b.admin.UpdateSession(ctx, &admin.UpdateSessionInput{
		AdminID:   transportID,
		SessionID: st.SessionID,
		Field:     st.Field,
		Value:     text,
	})
	if err != nil {
		switch {
		case errors.Is(err, admin.ErrAccessDenied):
			return b.adminDenied(ctx, chatID, transportID)
		case errors.Is(err, admin.ErrInvalidStart):
			return b.say(ctx, chatID, messaging.KeyAdminBadStart, nil, nil)
		case errors.Is(err, admin.ErrInvalidDuration):
			return b.say(ctx, chatID, messaging.KeyAdminBadDuration, nil, nil)
		case errors.Is(err, admin.ErrEmptyValue):
			return b.askValue(ctx, chatID, transportID, st.SessionID, st.Field)
		case errors.Is(err, admin.ErrSessionNotFound), errors.Is(err, admin.ErrUnknownField):
			b.wizards.Clear(transportID)
			return b.say(ctx, chatID, messaging.KeySessionMissing, nil, nil)
		}
		return err
	}

	b.wizards.Clear(transportID)
	if err := b.say(ctx, chatID, messaging.KeyAdminSaved, nil, nil); err != nil {
		return err
	}
	return b.viewSession(ctx, chatID, transportID, st.SessionID)
}

func (b *Bot) confirmCancel(ctx context.Context, chatID int64, sessionID string) error {
	yes, err := b.button(ctx, messaging.KeyAdminConfirmYes, nil, &callback.Payload{Action: callback.ActionAdminCancelYes, SessionID: sessionID})
	if err != nil {
		return err
	}

	back, err := b.button(ctx, messaging.KeyButtonBack, nil, &callback.Payload{Action: callback.ActionAdminView, SessionID: sessionID})
	if err != nil {
		return err
	}

	return b.say(ctx, chatID, messaging.KeyAdminConfirm, nil, [][]messenger.Button{{yes}, {back}})
}

func (b *Bot) cancelSession(ctx context.Context, chatID int64, transportID, sessionID string) error {
	_, err := b.admin.CancelSession(ctx, &admin.CancelSessionInput{
		AdminID:   transportID,
		SessionID: sessionID,
	})
	if err != nil {
		if errors.Is(err, admin.ErrSessionNotFound) {
			return b.say(ctx, chatID, messaging.KeySessionMissing, nil, nil)
		}
		return err
	}

	return b.say(ctx, chatID, messaging.KeyAdminCancelled, nil, nil)
}

func (b *Bot) logout(ctx context.Context, chatID int64, transportID string) error {
	b.wizards.Clear(transportID)

	if err := b.admin.RevokeAccess(ctx, &admin.RevokeAccessInput{TransportID: transportID}); err != nil {
		return err
	}

	return b.say(ctx, chatID, messaging.KeyAdminLoggedOut, nil, nil)
}

func (b *Bot) sessionHistory(ctx context.Context, chatID int64, transportID, sessionID string) error {
	out, err := b.admin.History(ctx, &admin.HistoryInput{
		AdminID:   transportID,
		SessionID: sessionID,
	})
	if err != nil {
		return err
	}

	back, err := b.button(ctx, messaging.KeyButtonBack, nil, &callback.Payload{Action: callback.ActionAdminView, SessionID: sessionID})
	if err != nil {
		return err
	}

	return b.showHistory(ctx, chatID, out, func(e *models.DeliveryLogEntry) string { return e.AttendeeID }, [][]messenger.Button{{back}})
}

// handleAudit shows the ledger of one attendee; the argument is a
// transport user ID or an attendee ID
func (b *Bot) handleAudit(ctx context.Context, chatID int64, transportID, arg string) error {
	if err := b.admin.CheckAccess(ctx, &admin.CheckAccessInput{TransportID: transportID}); err != nil {
		if errors.Is(err, admin.ErrAccessDenied) {
			return b.say(ctx, chatID, messaging.KeyHelp, nil, nil)
		}
		return err
	}

	arg = strings.TrimSpace(arg)
	if arg == "" {
		return b.say(ctx, chatID, messaging.KeyAdminAuditUsage, nil, nil)
	}

	attendeeID := arg
	if !strings.HasPrefix(arg, models.AttendeeIDForTransport("")) {
		attendeeID = models.AttendeeIDForTransport(arg)
	}

	out, err := b.admin.History(ctx, &admin.HistoryInput{
		AdminID:    transportID,
		AttendeeID: attendeeID,
	})
	if err != nil {
		if errors.Is(err, admin.ErrAccessDenied) {
			return b.adminDenied(ctx, chatID, transportID)
		}
		return err
	}

	return b.showHistory(ctx, chatID, out, func(e *models.DeliveryLogEntry) string { return e.SessionID }, nil)
}

func (b *Bot) showHistory(ctx context.Context, chatID int64, out *admin.HistoryOutput, subject func(*models.DeliveryLogEntry) string, buttons [][]messenger.Button) error {
	if len(out.Entries) == 0 {
		return b.say(ctx, chatID, messaging.KeyAdminHistoryNone, nil, buttons)
	}

	lines := make([]string, 0, len(out.Entries))
	for _, e := range out.Entries {
		who := subject(e)
		if e.Details != "" {
			who = strings.TrimSpace(who + " (" + e.Details + ")")
		}
		line, err := b.text(ctx, messaging.KeyAdminHistoryLine, messaging.Vars{
			"time":    b.format(e.Timestamp),
			"action":  string(e.Action),
			"subject": who,
		})
		if err != nil {
			return err
		}
		lines = append(lines, strings.TrimSpace(line))
	}

	return b.say(ctx, chatID, messaging.KeyAdminHistory, messaging.Vars{
		"shown": strconv.Itoa(len(out.Entries)),
		"total": strconv.Itoa(out.Total),
		"lines": strings.Join(lines, "\n"),
	}, buttons)
}

func (b *Bot) sessionVars(sess *models.Session) messaging.Vars {
	return messaging.Vars{
		"title":       sess.Title,
		"description": sess.Description,
		"start":       b.format(sess.StartAt),
		"duration":    strconv.Itoa(sess.DurationMin),
		"link":        sess.Link,
	}
}
