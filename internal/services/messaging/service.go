package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/KirkDiggler/conferencebot/internal/repositories/template"
)

// ServiceConfig holds configuration for the messaging service
type ServiceConfig struct {
	// TemplateRepo stores operator overrides
	TemplateRepo template.Repository

	// Logger is the component logger
	Logger zerolog.Logger
}

// service implements the Service interface
type service struct {
	templateRepo template.Repository
	logger       zerolog.Logger
}

// NewService creates a new messaging service
func NewService(config *ServiceConfig) (Service, error) {
	if config == nil {
		return nil, ErrNilConfig
	}

	if config.TemplateRepo == nil {
		return nil, ErrNilTemplateRepo
	}

	return &service{
		templateRepo: config.TemplateRepo,
		logger:       config.Logger,
	}, nil
}

// Render returns the text of a template with placeholders substituted.
// A store failure falls back to the built-in text.
func (s *service) Render(ctx context.Context, input *RenderInput) (*RenderOutput, error) {
	if input == nil || input.Key == "" {
		return nil, errors.New("input and key cannot be empty")
	}

	text, err := s.templateRepo.GetTemplate(ctx, &template.GetTemplateInput{
		Key: input.Key,
	})
	if err != nil {
		if !errors.Is(err, template.ErrTemplateNotFound) {
			s.logger.Warn().Err(err).Str("key", input.Key).Msg("template override unavailable")
		}

		var ok bool
		text, ok = Default(input.Key)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTemplate, input.Key)
		}
	}

	// Overrides are edited as single-line values
	text = strings.ReplaceAll(text, `\n`, "\n")

	if len(input.Vars) > 0 {
		pairs := make([]string, 0, len(input.Vars)*2)
		for k, v := range input.Vars {
			pairs = append(pairs, "{"+k+"}", v)
		}
		text = strings.NewReplacer(pairs...).Replace(text)
	}

	return &RenderOutput{
		Text: text,
	}, nil
}

// Text renders a template and returns only its text
func Text(ctx context.Context, svc Service, key string, vars Vars) (string, error) {
	out, err := svc.Render(ctx, &RenderInput{
		Key:  key,
		Vars: vars,
	})
	if err != nil {
		return "", err
	}
	return out.Text, nil
}
