package messaging

import (
	"github.com/KirkDiggler/conferencebot/internal/models"
)

// Template keys
const (
	KeyInviteTitle = "invite.title"
	KeyInviteBody  = "invite.body"
	KeyReminder24h = "reminder.24h"
	KeyReminder60m = "reminder.60m"
	KeyFeedbackAsk = "feedback.ask"
	KeyUpdate      = "update.notice"
	KeyUpdateWhat  = "update.what"
	KeyCancel      = "cancel.notice"
	KeyHelp        = "help.body"

	KeyAskName       = "register.ask_name"
	KeyBadName       = "register.bad_name"
	KeyAskPhone      = "register.ask_phone"
	KeyBadPhone      = "register.bad_phone"
	KeyNeedRegister  = "register.required"
	KeyWelcome       = "welcome.header"
	KeyWelcomeSeen   = "welcome.type_attended"
	KeyWelcomeUnseen = "welcome.type_new"
	KeyWelcomeEmpty  = "welcome.no_types"

	KeyRSVPGoing      = "rsvp.going"
	KeyRSVPDeclined   = "rsvp.declined"
	KeyRSVPAlt        = "rsvp.alternatives"
	KeyRSVPRemindMe   = "rsvp.remind_me"
	KeySessionMissing = "session.not_found"
	KeyLinkExpired    = "callback.invalid"

	KeyStarsSaved     = "feedback.stars_saved"
	KeyAskComment     = "feedback.ask_comment"
	KeyCommentSaved   = "feedback.comment_saved"
	KeyEscalation     = "escalation.alert"
	KeyEscalationNote = "escalation.comment"
	KeyClaimed        = "escalation.claimed"
	KeyAlreadyClaimed = "escalation.already_claimed"

	KeyButtonGoing    = "button.going"
	KeyButtonDeclined = "button.declined"
	KeyButtonRemind   = "button.remind"
	KeyButtonStar     = "button.star"
	KeyButtonComment  = "button.comment"
	KeyButtonClaim    = "button.claim"
	KeyButtonBack     = "button.back"

	KeyAdminWelcome     = "admin.welcome"
	KeyAdminBadPassword = "admin.bad_password"
	KeyAdminDenied      = "admin.denied"
	KeyAdminMenuAdd     = "admin.menu_add"
	KeyAdminMenuList    = "admin.menu_list"
	KeyAdminNoTypes     = "admin.no_types"
	KeyAdminPickType    = "admin.pick_type"
	KeyAdminDraft       = "admin.draft"
	KeyAdminEditTitle   = "admin.edit_title"
	KeyAdminEditDesc    = "admin.edit_desc"
	KeyAdminNext        = "admin.next"
	KeyAdminAskTitle    = "admin.ask_title"
	KeyAdminAskDesc     = "admin.ask_desc"
	KeyAdminAskStart    = "admin.ask_start"
	KeyAdminBadStart    = "admin.bad_start"
	KeyAdminAskDuration = "admin.ask_duration"
	KeyAdminBadDuration = "admin.bad_duration"
	KeyAdminAskLink     = "admin.ask_link"
	KeyAdminCreated     = "admin.created"
	KeyAdminList        = "admin.list"
	KeyAdminSession     = "admin.session"
	KeyAdminActEdit     = "admin.action_edit"
	KeyAdminActCancel   = "admin.action_cancel"
	KeyAdminPickField   = "admin.pick_field"
	KeyAdminAskValue    = "admin.ask_value"
	KeyAdminSaved       = "admin.saved"
	KeyAdminConfirm     = "admin.cancel_confirm"
	KeyAdminConfirmYes  = "admin.cancel_yes"
	KeyAdminCancelled   = "admin.cancelled"
	KeyAdminInterrupted = "admin.interrupted"
	KeyAdminMenuLogout  = "admin.menu_logout"
	KeyAdminLoggedOut   = "admin.logged_out"
	KeyAdminActHistory  = "admin.action_history"
	KeyAdminHistory     = "admin.history"
	KeyAdminHistoryLine = "admin.history_line"
	KeyAdminHistoryNone = "admin.history_empty"
	KeyAdminAuditUsage  = "admin.audit_usage"

	KeyFieldTitle       = "field.title"
	KeyFieldDescription = "field.description"
	KeyFieldStartAt     = "field.start_at"
	KeyFieldDuration    = "field.duration_min"
	KeyFieldLink        = "field.link"
)

// defaults are used when no override is stored
var defaults = map[string]string{
	KeyInviteTitle: "Invitation: {title}",
	KeyInviteBody:  "{name}, you are invited to {title}\n🗓 {date} at {time}\nℹ️ {description}\nPlease choose an option below:",
	KeyReminder24h: "🔔 Reminder: {title} takes place tomorrow at {time}.\nLink: {link}",
	KeyReminder60m: "⏰ Reminder: {title} starts in 1 hour. Link: {link}",
	KeyFeedbackAsk: "Thank you for attending {title}.\nPlease rate it (1–5 ⭐️) and leave a comment.",
	KeyUpdate:      "🛠 {title} was updated.\nPlease note: {what}",
	KeyUpdateWhat:  "changed {field}: {value}",
	KeyCancel:      "❌ {title} is cancelled. We will send a new date soon.",
	KeyHelp:        "👋 This bot sends invitations to our online sessions.\n/start shows the session types you can join.",

	KeyAskName:       "👋 Hello! Please send your full name.",
	KeyBadName:       "Please enter a valid full name (at least 3 characters).",
	KeyAskPhone:      "Please send your phone number in the format 380XXXXXXXXX:",
	KeyBadPhone:      "Invalid format. Example: 380671234567. Please try again:",
	KeyNeedRegister:  "Please register first with /start.",
	KeyWelcome:       "✅ You are subscribed to session invitations.\nWe will invite you to upcoming sessions.\n\nSession types:",
	KeyWelcomeSeen:   "• {title} — ✅ attended",
	KeyWelcomeUnseen: "• {title} — ⭕️ not attended yet",
	KeyWelcomeEmpty:  "There are no active session types right now.",

	KeyRSVPGoing:      "Thank you! Your attendance is confirmed ✅",
	KeyRSVPDeclined:   "All right! Expect a new invitation for another date.",
	KeyRSVPAlt:        "Other dates you can choose:",
	KeyRSVPRemindMe:   "Okay! We will remind you 24 hours before 🔔",
	KeySessionMissing: "This session was not found.",
	KeyLinkExpired:    "This button is no longer valid.",

	KeyStarsSaved:     "Thank you! Your {stars}⭐️ rating is saved.",
	KeyAskComment:     "Please send your review as a text message.",
	KeyCommentSaved:   "Thank you! Your review is saved.",
	KeyEscalation:     "⚠️ Low session rating\n• Session: {title}\n• Attendee: {name} (id={transport_id})\n• Phone: {phone}\n• Rating: {stars}\n• Comment: {comment}",
	KeyEscalationNote: "📝 Additional comment from {name}: {comment}",
	KeyClaimed:        "✅ Taken by {owner}",
	KeyAlreadyClaimed: "Already taken by {owner}",

	KeyButtonGoing:    "✅ Yes, I'll be there",
	KeyButtonDeclined: "🚫 I can't make it",
	KeyButtonRemind:   "🔔 Remind me 24h before",
	KeyButtonStar:     "⭐️{stars}",
	KeyButtonComment:  "✍️ Write a review",
	KeyButtonClaim:    "🛠 Take it",
	KeyButtonBack:     "⬅️ Back",

	KeyAdminWelcome:     "Welcome to the admin panel.",
	KeyAdminBadPassword: "Wrong admin password.",
	KeyAdminDenied:      "Admin access has expired. Open the admin link again.",
	KeyAdminMenuAdd:     "➕ Add session",
	KeyAdminMenuList:    "📋 Sessions",
	KeyAdminNoTypes:     "There are no active session types.",
	KeyAdminPickType:    "Choose the session type:",
	KeyAdminDraft:       "Draft:\n• Type: {type}\n• Title: {title}\n• Description: {description}\n\nEdit a field or press Next.",
	KeyAdminEditTitle:   "✏️ Edit title",
	KeyAdminEditDesc:    "✏️ Edit description",
	KeyAdminNext:        "➡️ Next",
	KeyAdminAskTitle:    "Send the new title:",
	KeyAdminAskDesc:     "Send the new description:",
	KeyAdminAskStart:    "Send the start as YYYY-MM-DD HH:MM, e.g. 2025-10-05 15:00",
	KeyAdminBadStart:    "Invalid format. Example: 2025-10-05 15:00. Please try again:",
	KeyAdminAskDuration: "Send the duration in minutes:",
	KeyAdminBadDuration: "Send a positive whole number of minutes:",
	KeyAdminAskLink:     "Send the session link (URL):",
	KeyAdminCreated:     "✅ Session created:\n• {title}\n• Start: {start}\n• Duration: {duration} min\n• Link: {link}",
	KeyAdminList:        "Sessions (total: {total}):",
	KeyAdminSession:     "Session:\n• {title}\n• Description: {description}\n• Start: {start}\n• Duration: {duration} min\n• Link: {link}",
	KeyAdminActEdit:     "✏️ Edit",
	KeyAdminActCancel:   "❌ Cancel session",
	KeyAdminPickField:   "Choose the field to edit:",
	KeyAdminAskValue:    "Send the new value for {field}:",
	KeyAdminSaved:       "✅ Changes saved.",
	KeyAdminConfirm:     "Cancel this session?",
	KeyAdminConfirmYes:  "✅ Yes, cancel it",
	KeyAdminCancelled:   "✅ Session cancelled and deleted.",
	KeyAdminInterrupted: "The dialog was interrupted. Please start again.",
	KeyAdminMenuLogout:  "🚪 Log out",
	KeyAdminLoggedOut:   "You left the admin panel.",
	KeyAdminActHistory:  "📜 History",
	KeyAdminHistory:     "History ({shown} of {total}):\n{lines}",
	KeyAdminHistoryLine: "{time} · {action} {subject}",
	KeyAdminHistoryNone: "No events recorded yet.",
	KeyAdminAuditUsage:  "Send /audit <user id> to see the history of an attendee.",

	KeyFieldTitle:       "title",
	KeyFieldDescription: "description",
	KeyFieldStartAt:     "date and time",
	KeyFieldDuration:    "duration",
	KeyFieldLink:        "link",
}

// FieldKey returns the label template of an editable session field
func FieldKey(field models.SessionField) string {
	return "field." + string(field)
}

// Default returns the built-in text of a template
func Default(key string) (string, bool) {
	text, ok := defaults[key]
	return text, ok
}
