package admin_grant

import (
	"context"

	"github.com/KirkDiggler/conferencebot/internal/models"
)

// Repository defines the interface for administrator grant persistence
type Repository interface {
	// SaveGrant stores a grant that expires at its ExpiresAt
	SaveGrant(ctx context.Context, input *SaveGrantInput) error

	// GetGrant retrieves the grant of a transport user
	GetGrant(ctx context.Context, input *GetGrantInput) (*models.AdminGrant, error)

	// RevokeGrant removes a grant
	RevokeGrant(ctx context.Context, input *RevokeGrantInput) error
}
