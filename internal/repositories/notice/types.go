package notice

import (
	"github.com/KirkDiggler/conferencebot/internal/models"
)

// SaveNoticeInput contains the notice to queue. An empty ID is assigned
// and a zero CreatedAt is stamped with the current time.
type SaveNoticeInput struct {
	Notice *models.PendingNotice
}

type SaveNoticeOutput struct {
	Notice *models.PendingNotice
}

type ListNoticesInput struct {
	// Limit caps the number of notices returned; zero means all
	Limit int
}

type ListNoticesOutput struct {
	Notices []*models.PendingNotice
}

type DeleteNoticeInput struct {
	NoticeID string
}
