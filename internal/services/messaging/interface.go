package messaging

import "context"

// Service renders user-facing texts from named templates
type Service interface {
	// Render returns the text of a template with placeholders substituted
	Render(ctx context.Context, input *RenderInput) (*RenderOutput, error)
}
