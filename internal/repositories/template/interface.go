package template

import (
	"context"
)

// Repository defines the interface for message template overrides
type Repository interface {
	// GetTemplate retrieves an override by key
	GetTemplate(ctx context.Context, input *GetTemplateInput) (string, error)

	// SaveTemplate stores an override
	SaveTemplate(ctx context.Context, input *SaveTemplateInput) error
}
