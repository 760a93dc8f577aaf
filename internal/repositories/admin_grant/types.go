package admin_grant

import (
	"github.com/KirkDiggler/conferencebot/internal/models"
)

type SaveGrantInput struct {
	Grant *models.AdminGrant
}

type GetGrantInput struct {
	TransportID string
}

type RevokeGrantInput struct {
	TransportID string
}
