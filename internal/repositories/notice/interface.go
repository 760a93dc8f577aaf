package notice

import (
	"context"
)

// Repository defines the interface for the queue of notices awaiting
// redelivery
type Repository interface {
	// SaveNotice queues a notice or replaces a queued one, keeping its
	// position in the queue
	SaveNotice(ctx context.Context, input *SaveNoticeInput) (*SaveNoticeOutput, error)

	// ListNotices retrieves queued notices, oldest first
	ListNotices(ctx context.Context, input *ListNoticesInput) (*ListNoticesOutput, error)

	// DeleteNotice removes a notice from the queue
	DeleteNotice(ctx context.Context, input *DeleteNoticeInput) error
}
